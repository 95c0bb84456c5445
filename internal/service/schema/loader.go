package schema

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/selvxhini-10/EY-Schema-Merger/internal/domain"
)

// Document names used in SchemaLoadError.
const (
	DocBank1Schema   = "bank1_schema"
	DocBank2Schema   = "bank2_schema"
	DocTableMapping  = "table_mapping"
	DocColumnMapping = "column_mapping"
)

// FileSource loads the four matcher documents from a directory.
type FileSource struct {
	Dir           string
	Bank1Schema   string
	Bank2Schema   string
	TableMapping  string
	ColumnMapping string
}

var _ domain.SchemaSource = (*FileSource)(nil)

// Load reads and validates all four documents. Any failure aborts the load.
func (s *FileSource) Load(ctx context.Context) (*domain.SchemaDocuments, error) {
	raw := make(map[string][]byte, 4)
	for _, doc := range []struct{ name, file string }{
		{DocBank1Schema, s.Bank1Schema},
		{DocBank2Schema, s.Bank2Schema},
		{DocTableMapping, s.TableMapping},
		{DocColumnMapping, s.ColumnMapping},
	} {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(filepath.Join(s.Dir, doc.file))
		if err != nil {
			return nil, &domain.SchemaLoadError{Document: doc.name, Err: err}
		}
		raw[doc.name] = data
	}
	return DecodeDocuments(raw[DocBank1Schema], raw[DocBank2Schema], raw[DocTableMapping], raw[DocColumnMapping])
}

// DecodeDocuments parses and validates the raw documents. Records missing a
// required attribute are rejected here rather than surfacing later as empty
// labels in the unified view.
func DecodeDocuments(bank1, bank2, tableMappings, columnMappings []byte) (*domain.SchemaDocuments, error) {
	b1, err := decodeBankSchema(DocBank1Schema, bank1)
	if err != nil {
		return nil, err
	}
	b2, err := decodeBankSchema(DocBank2Schema, bank2)
	if err != nil {
		return nil, err
	}
	tm, err := decodeTableMappings(tableMappings)
	if err != nil {
		return nil, err
	}
	cm, err := decodeColumnMappings(columnMappings)
	if err != nil {
		return nil, err
	}
	return &domain.SchemaDocuments{
		Bank1:          b1,
		Bank2:          b2,
		TableMappings:  tm,
		ColumnMappings: cm,
	}, nil
}

type wireField struct {
	Label       *string `json:"label"`
	Description *string `json:"description"`
}

type wireBankSchema struct {
	Bank   string                  `json:"bank"`
	Tables map[string][]*wireField `json:"tables"`
}

type wireTableMapping struct {
	Bank1Table       *string  `json:"best_match_bank1_table"`
	Bank2Table       *string  `json:"bank2_table"`
	Status           *string  `json:"status"`
	ConfidenceRating *float64 `json:"confidence_rating"`
}

type wireColumnMapping struct {
	Bank1Column      *wireField `json:"best_match_bank1_column"`
	Bank2Column      *wireField `json:"bank2_column"`
	Status           *string    `json:"status"`
	ConfidenceRating *float64   `json:"confidence_rating"`
}

func decode(doc string, data []byte, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return &domain.SchemaLoadError{Document: doc, Err: errors.New("document is empty")}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &domain.SchemaLoadError{Document: doc, Err: err}
	}
	return nil
}

func invalid(doc, format string, args ...any) error {
	return &domain.SchemaLoadError{Document: doc, Err: fmt.Errorf(format, args...)}
}

func convertField(doc, where string, f *wireField) (*domain.SourceField, error) {
	if f == nil {
		return nil, nil
	}
	if f.Label == nil {
		return nil, invalid(doc, "%s: label is required", where)
	}
	out := &domain.SourceField{Label: *f.Label}
	if f.Description != nil {
		out.Description = *f.Description
	}
	return out, nil
}

func decodeBankSchema(doc string, data []byte) (domain.BankSchema, error) {
	var w wireBankSchema
	if err := decode(doc, data, &w); err != nil {
		return domain.BankSchema{}, err
	}
	if w.Tables == nil {
		return domain.BankSchema{}, invalid(doc, "tables is required")
	}

	out := domain.BankSchema{Bank: w.Bank, Tables: make(map[string][]domain.SourceField, len(w.Tables))}
	for table, fields := range w.Tables {
		converted := make([]domain.SourceField, 0, len(fields))
		for i, f := range fields {
			if f == nil {
				return domain.BankSchema{}, invalid(doc, "tables[%q][%d] is null", table, i)
			}
			sf, err := convertField(doc, fmt.Sprintf("tables[%q][%d]", table, i), f)
			if err != nil {
				return domain.BankSchema{}, err
			}
			if sf.Label == "" {
				return domain.BankSchema{}, invalid(doc, "tables[%q][%d]: label is empty", table, i)
			}
			converted = append(converted, *sf)
		}
		out.Tables[table] = converted
	}
	return out, nil
}

func decodeTableMappings(data []byte) ([]domain.TableMapping, error) {
	var w []*wireTableMapping
	if err := decode(DocTableMapping, data, &w); err != nil {
		return nil, err
	}

	out := make([]domain.TableMapping, 0, len(w))
	for i, m := range w {
		if m == nil {
			return nil, invalid(DocTableMapping, "[%d] is null", i)
		}
		if m.Bank1Table == nil || *m.Bank1Table == "" {
			return nil, invalid(DocTableMapping, "[%d]: best_match_bank1_table is required", i)
		}
		if m.Status == nil {
			return nil, invalid(DocTableMapping, "[%d]: status is required", i)
		}
		tm := domain.TableMapping{SourceTable: *m.Bank1Table, Status: *m.Status}
		if m.Bank2Table != nil {
			tm.TargetTable = *m.Bank2Table
		}
		if m.ConfidenceRating != nil {
			tm.ConfidenceRating = *m.ConfidenceRating
		}
		out = append(out, tm)
	}
	return out, nil
}

func decodeColumnMappings(data []byte) (map[string][]domain.ColumnMapping, error) {
	var w map[string][]*wireColumnMapping
	if err := decode(DocColumnMapping, data, &w); err != nil {
		return nil, err
	}
	if w == nil {
		return nil, invalid(DocColumnMapping, "expected an object keyed by table name")
	}

	out := make(map[string][]domain.ColumnMapping, len(w))
	for table, mappings := range w {
		converted := make([]domain.ColumnMapping, 0, len(mappings))
		for i, m := range mappings {
			where := fmt.Sprintf("%q[%d]", table, i)
			if m == nil {
				return nil, invalid(DocColumnMapping, "%s is null", where)
			}
			if m.Status == nil {
				return nil, invalid(DocColumnMapping, "%s: status is required", where)
			}
			src, err := convertField(DocColumnMapping, where+".best_match_bank1_column", m.Bank1Column)
			if err != nil {
				return nil, err
			}
			dst, err := convertField(DocColumnMapping, where+".bank2_column", m.Bank2Column)
			if err != nil {
				return nil, err
			}
			cm := domain.ColumnMapping{SourceColumn: src, TargetColumn: dst, Status: *m.Status}
			if m.ConfidenceRating != nil {
				cm.ConfidenceRating = *m.ConfidenceRating
			}
			converted = append(converted, cm)
		}
		out[table] = converted
	}
	return out, nil
}
