package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/selvxhini-10/EY-Schema-Merger/internal/domain"
)

// IngestionHistoryRepo implements domain.IngestionHistoryRepository.
// Writes go through the single-connection write pool; reads use the read pool.
type IngestionHistoryRepo struct {
	write *sql.DB
	read  *sql.DB
}

// NewIngestionHistoryRepo creates a new IngestionHistoryRepo.
func NewIngestionHistoryRepo(write, read *sql.DB) *IngestionHistoryRepo {
	if read == nil {
		read = write
	}
	return &IngestionHistoryRepo{write: write, read: read}
}

var _ domain.IngestionHistoryRepository = (*IngestionHistoryRepo)(nil)

// Record inserts a batch of records in one transaction. Missing IDs and
// timestamps are filled in.
func (r *IngestionHistoryRepo) Record(ctx context.Context, records []domain.IngestionRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.write.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ingestion_history
			(id, batch_id, bank, path, display_name, is_folder, kind, entry_count, size_bytes, failure, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close() //nolint:errcheck

	now := time.Now()
	for i := range records {
		rec := &records[i]
		if rec.ID == "" {
			rec.ID = domain.NewID()
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		if _, err := stmt.ExecContext(ctx,
			rec.ID, rec.BatchID, rec.Bank, rec.Path, rec.DisplayName,
			boolToInt(rec.IsFolder), rec.Kind, rec.EntryCount, rec.SizeBytes,
			rec.Failure, formatTime(rec.CreatedAt),
		); err != nil {
			return mapDBError(err)
		}
	}

	return tx.Commit()
}

// List returns history rows newest first, with the total matching count.
func (r *IngestionHistoryRepo) List(ctx context.Context, filter domain.IngestionHistoryFilter) ([]domain.IngestionRecord, int64, error) {
	var where []string
	var args []interface{}
	if filter.Bank != nil {
		where = append(where, "bank = ?")
		args = append(args, *filter.Bank)
	}
	if filter.From != nil {
		where = append(where, "created_at >= ?")
		args = append(args, formatTime(*filter.From))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.read.QueryRowContext(ctx, "SELECT count(*) FROM ingestion_history"+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count history: %w", err)
	}

	query := `SELECT id, batch_id, bank, path, display_name, is_folder, kind, entry_count, size_bytes, failure, created_at
		FROM ingestion_history` + clause + ` ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`
	args = append(args, filter.Page.Limit(), filter.Page.Offset())

	rows, err := r.read.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.IngestionRecord
	for rows.Next() {
		var (
			rec      domain.IngestionRecord
			isFolder int64
			created  string
		)
		if err := rows.Scan(&rec.ID, &rec.BatchID, &rec.Bank, &rec.Path, &rec.DisplayName,
			&isFolder, &rec.Kind, &rec.EntryCount, &rec.SizeBytes, &rec.Failure, &created); err != nil {
			return nil, 0, err
		}
		rec.IsFolder = isFolder != 0
		rec.CreatedAt = parseTime(created)
		out = append(out, rec)
	}
	return out, total, rows.Err()
}

// Stats aggregates history by bank and kind.
func (r *IngestionHistoryRepo) Stats(ctx context.Context) ([]domain.IngestionStat, error) {
	rows, err := r.read.QueryContext(ctx, `
		SELECT bank, kind, count(*), sum(CASE WHEN failure <> '' THEN 1 ELSE 0 END), coalesce(sum(size_bytes), 0)
		FROM ingestion_history
		GROUP BY bank, kind
		ORDER BY bank, kind`)
	if err != nil {
		return nil, fmt.Errorf("history stats: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.IngestionStat
	for rows.Next() {
		var s domain.IngestionStat
		if err := rows.Scan(&s.Bank, &s.Kind, &s.Files, &s.Failures, &s.Bytes); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListPaths returns the distinct successfully ingested paths for a bank,
// oldest first.
func (r *IngestionHistoryRepo) ListPaths(ctx context.Context, bank string) ([]string, error) {
	rows, err := r.read.QueryContext(ctx, `
		SELECT path FROM ingestion_history
		WHERE bank = ? AND failure = ''
		GROUP BY path
		ORDER BY min(created_at), path`, bank)
	if err != nil {
		return nil, fmt.Errorf("list paths: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// PruneBefore deletes rows created before cutoff and returns how many went.
func (r *IngestionHistoryRepo) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.write.ExecContext(ctx, "DELETE FROM ingestion_history WHERE created_at < ?", formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	return res.RowsAffected()
}
