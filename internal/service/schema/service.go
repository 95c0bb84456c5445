// Package schema normalizes spreadsheets into typed fields and aggregates the
// matcher's table and column candidates into the unified review view.
package schema

import (
	"context"
	"log/slog"

	"github.com/selvxhini-10/EY-Schema-Merger/internal/domain"
)

// Service reads the matcher documents and builds the unified view.
type Service struct {
	source domain.SchemaSource
	logger *slog.Logger
}

// NewService creates a schema Service.
func NewService(source domain.SchemaSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{source: source, logger: logger}
}

// Documents loads the raw matcher documents.
func (s *Service) Documents(ctx context.Context) (*domain.SchemaDocuments, error) {
	return s.source.Load(ctx)
}

// Bundle loads the documents and unifies them. A load failure returns no
// partial result.
func (s *Service) Bundle(ctx context.Context) (*domain.SchemaBundle, error) {
	docs, err := s.source.Load(ctx)
	if err != nil {
		s.logger.Error("load schema documents", "error", err)
		return nil, err
	}

	if orphans := OrphanColumnTables(docs.TableMappings, docs.ColumnMappings); len(orphans) > 0 {
		s.logger.Warn("column mappings without a table mapping ignored", "tables", orphans)
	}

	tables := Unify(docs.TableMappings, docs.Bank1, docs.Bank2, docs.ColumnMappings)
	s.logger.Debug("schemas unified", "tables", len(tables))
	return &domain.SchemaBundle{
		Tables:      tables,
		Bank1Schema: docs.Bank1,
		Bank2Schema: docs.Bank2,
	}, nil
}

// Manifest groups ingested files under confidently matched tables.
func (s *Service) Manifest(ctx context.Context, files []ManifestFile) (*Manifest, error) {
	docs, err := s.source.Load(ctx)
	if err != nil {
		return nil, err
	}
	m := BuildManifest(docs.TableMappings, files)
	if len(m.Unmatched) > 0 {
		s.logger.Info("files without a confident table match", "count", len(m.Unmatched))
	}
	return &m, nil
}

// NormalizeFile reads an XLSX or CSV upload and normalizes its first sheet.
func (s *Service) NormalizeFile(name string, data []byte) ([]domain.SchemaField, error) {
	rows, err := ReadSheet(name, data)
	if err != nil {
		return nil, err
	}
	return Normalize(rows), nil
}
