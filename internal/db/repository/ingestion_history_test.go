package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "github.com/selvxhini-10/EY-Schema-Merger/internal/db"
	"github.com/selvxhini-10/EY-Schema-Merger/internal/domain"
)

func setupHistoryRepo(t *testing.T) *IngestionHistoryRepo {
	t.Helper()
	pools := internaldb.OpenTestSQLite(t)
	return NewIngestionHistoryRepo(pools.Write, pools.Read)
}

func strPtr(s string) *string { return &s }

func TestIngestionHistoryRepo_RecordAndList(t *testing.T) {
	repo := setupHistoryRepo(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	records := []domain.IngestionRecord{
		{BatchID: "b1", Bank: "BankA", Path: "customers.csv", DisplayName: "customers.csv", Kind: "text", SizeBytes: 10, CreatedAt: base},
		{BatchID: "b1", Bank: "BankA", Path: "export/2024/a.csv", DisplayName: "export", IsFolder: true, Kind: "text", SizeBytes: 20, CreatedAt: base.Add(time.Minute)},
		{BatchID: "b2", Bank: "BankB", Path: "bundle.zip", DisplayName: "bundle.zip", Kind: "zip", EntryCount: 3, Failure: "archive_read", CreatedAt: base.Add(2 * time.Minute)},
	}
	require.NoError(t, repo.Record(ctx, records))
	for _, r := range records {
		assert.NotEmpty(t, r.ID)
	}

	all, total, err := repo.List(ctx, domain.IngestionHistoryFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, all, 3)
	assert.Equal(t, "bundle.zip", all[0].Path, "newest first")
	assert.Equal(t, "archive_read", all[0].Failure)
	assert.True(t, all[1].IsFolder)
	assert.Equal(t, base.Add(time.Minute), all[1].CreatedAt)

	bankA, total, err := repo.List(ctx, domain.IngestionHistoryFilter{Bank: strPtr("BankA")})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, bankA, 2)

	from := base.Add(90 * time.Second)
	recent, total, err := repo.List(ctx, domain.IngestionHistoryFilter{From: &from})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, recent, 1)
}

func TestIngestionHistoryRepo_ListPagination(t *testing.T) {
	repo := setupHistoryRepo(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	var records []domain.IngestionRecord
	for i := 0; i < 5; i++ {
		records = append(records, domain.IngestionRecord{
			BatchID: "b", Bank: "BankA", Path: "f.csv", DisplayName: "f.csv", Kind: "text",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
	}
	require.NoError(t, repo.Record(ctx, records))

	page, total, err := repo.List(ctx, domain.IngestionHistoryFilter{
		Page: domain.PageRequest{MaxResults: 2, PageToken: domain.PageToken(2)},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page, 2)
	assert.Equal(t, base.Add(2*time.Second), page[0].CreatedAt)
}

func TestIngestionHistoryRepo_Stats(t *testing.T) {
	repo := setupHistoryRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Record(ctx, []domain.IngestionRecord{
		{BatchID: "b", Bank: "BankA", Path: "a.csv", DisplayName: "a.csv", Kind: "text", SizeBytes: 5},
		{BatchID: "b", Bank: "BankA", Path: "b.csv", DisplayName: "b.csv", Kind: "text", SizeBytes: 7, Failure: "file_read"},
		{BatchID: "b", Bank: "BankB", Path: "c.zip", DisplayName: "c.zip", Kind: "zip", SizeBytes: 100},
	}))

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.IngestionStat{
		{Bank: "BankA", Kind: "text", Files: 2, Failures: 1, Bytes: 12},
		{Bank: "BankB", Kind: "zip", Files: 1, Failures: 0, Bytes: 100},
	}, stats)
}

func TestIngestionHistoryRepo_ListPaths(t *testing.T) {
	repo := setupHistoryRepo(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Record(ctx, []domain.IngestionRecord{
		{BatchID: "b", Bank: "BankB", Path: "accounts.csv", DisplayName: "accounts.csv", Kind: "text", CreatedAt: base},
		{BatchID: "b", Bank: "BankB", Path: "broken.csv", DisplayName: "broken.csv", Kind: "text", Failure: "file_read", CreatedAt: base},
		{BatchID: "c", Bank: "BankB", Path: "accounts.csv", DisplayName: "accounts.csv", Kind: "text", CreatedAt: base.Add(time.Hour)},
		{BatchID: "c", Bank: "BankA", Path: "customers.csv", DisplayName: "customers.csv", Kind: "text", CreatedAt: base},
	}))

	paths, err := repo.ListPaths(ctx, "BankB")
	require.NoError(t, err)
	assert.Equal(t, []string{"accounts.csv"}, paths)
}

func TestIngestionHistoryRepo_PruneBefore(t *testing.T) {
	repo := setupHistoryRepo(t)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, repo.Record(ctx, []domain.IngestionRecord{
		{BatchID: "b", Path: "old.csv", DisplayName: "old.csv", Kind: "text", CreatedAt: now.Add(-48 * time.Hour)},
		{BatchID: "b", Path: "new.csv", DisplayName: "new.csv", Kind: "text", CreatedAt: now},
	}))

	n, err := repo.PruneBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	left, total, err := repo.List(ctx, domain.IngestionHistoryFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "new.csv", left[0].Path)
}

func TestIngestionHistoryRepo_DuplicateID(t *testing.T) {
	repo := setupHistoryRepo(t)
	ctx := context.Background()

	rec := domain.IngestionRecord{ID: "fixed", BatchID: "b", Path: "a", DisplayName: "a", Kind: "text"}
	require.NoError(t, repo.Record(ctx, []domain.IngestionRecord{rec}))

	err := repo.Record(ctx, []domain.IngestionRecord{rec})
	var conflict *domain.ConflictError
	assert.ErrorAs(t, err, &conflict)
}
