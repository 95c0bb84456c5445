package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/selvxhini-10/EY-Schema-Merger/internal/domain"
)

// batchConcurrency bounds how many files of one batch are converted at once.
const batchConcurrency = 8

// NormalizeBank maps user-supplied bank names (a, banka, BankA, ...) to the
// canonical BankA/BankB form.
func NormalizeBank(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "a", "banka", "bank_a", "bank1":
		return domain.BankA, nil
	case "b", "bankb", "bank_b", "bank2":
		return domain.BankB, nil
	default:
		return "", domain.ErrValidation("invalid bank %q: must be BankA or BankB", raw)
	}
}

// Service ingests batches of files and records them in the history store.
type Service struct {
	history domain.IngestionHistoryRepository
	logger  *slog.Logger
}

// NewService creates a new ingestion Service. history may be nil, in which
// case nothing is recorded.
func NewService(history domain.IngestionHistoryRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{history: history, logger: logger}
}

// Batch describes one user selection.
type Batch struct {
	Bank  string // optional; normalized when set
	Root  string
	Files []domain.SourceFile
}

// IngestBatch converts every file concurrently and returns the results in
// selection order. One file's failure never affects the others.
func (s *Service) IngestBatch(ctx context.Context, batch Batch) ([]domain.IngestedFile, error) {
	bank := ""
	if batch.Bank != "" {
		b, err := NormalizeBank(batch.Bank)
		if err != nil {
			return nil, err
		}
		bank = b
	}

	results := make([]domain.IngestedFile, len(batch.Files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for i := range batch.Files {
		file := batch.Files[i]
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			results[i] = Ingest(file, batch.Root)
			if tag := results[i].Failure(); tag != "" {
				s.logger.Warn("ingestion sub-step failed", "path", file.Path, "failure", tag)
			}
			return nil // per-file failures live in the result
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ingest batch: %w", err)
	}

	s.record(ctx, bank, batch.Files, results)
	return results, nil
}

// record writes history rows. History is best-effort and never fails the batch.
func (s *Service) record(ctx context.Context, bank string, files []domain.SourceFile, results []domain.IngestedFile) {
	if s.history == nil || len(results) == 0 {
		return
	}

	batchID := domain.NewID()
	records := make([]domain.IngestionRecord, len(results))
	for i, res := range results {
		rec := domain.IngestionRecord{
			BatchID:     batchID,
			Bank:        bank,
			Path:        res.Path,
			DisplayName: res.DisplayName,
			IsFolder:    res.IsFolder,
			Kind:        res.Kind(),
			SizeBytes:   int64(len(files[i].Data)),
			Failure:     string(res.Failure()),
		}
		if res.ZipEntries != nil {
			if entries, ok := res.ZipEntries.Get(); ok {
				rec.EntryCount = len(entries)
			}
		}
		records[i] = rec
	}

	if err := s.history.Record(ctx, records); err != nil {
		s.logger.Warn("record ingestion history failed", "batch_id", batchID, "error", err)
		return
	}
	s.logger.Info("batch ingested", "batch_id", batchID, "bank", bank, "files", len(records))
}

// History lists recorded ingestions.
func (s *Service) History(ctx context.Context, filter domain.IngestionHistoryFilter) ([]domain.IngestionRecord, int64, error) {
	if s.history == nil {
		return nil, 0, nil
	}
	if filter.Bank != nil {
		b, err := NormalizeBank(*filter.Bank)
		if err != nil {
			return nil, 0, err
		}
		filter.Bank = &b
	}
	return s.history.List(ctx, filter)
}

// Stats aggregates recorded ingestions by bank and kind.
func (s *Service) Stats(ctx context.Context) ([]domain.IngestionStat, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.Stats(ctx)
}

// IngestedPaths returns the distinct successfully ingested paths of a bank.
func (s *Service) IngestedPaths(ctx context.Context, bank string) ([]string, error) {
	if s.history == nil {
		return nil, nil
	}
	b, err := NormalizeBank(bank)
	if err != nil {
		return nil, err
	}
	return s.history.ListPaths(ctx, b)
}
