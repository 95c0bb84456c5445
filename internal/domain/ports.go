package domain

import (
	"context"
	"time"
)

// SchemaSource loads the matcher documents.
// Implemented by schema.FileSource.
type SchemaSource interface {
	Load(ctx context.Context) (*SchemaDocuments, error)
}

// IngestionHistoryRepository persists ingestion history.
// Implemented by repository.IngestionHistoryRepo.
type IngestionHistoryRepository interface {
	Record(ctx context.Context, records []IngestionRecord) error
	List(ctx context.Context, filter IngestionHistoryFilter) ([]IngestionRecord, int64, error)
	Stats(ctx context.Context) ([]IngestionStat, error)
	ListPaths(ctx context.Context, bank string) ([]string, error)
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// ObjectStore uploads export artifacts.
// Implemented by export.S3Sink, export.AzureSink and export.GCSSink.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body []byte) error
}
