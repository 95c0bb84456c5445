// Package export renders the reviewed mapping set as downloadable artifacts
// and documentation reports.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/selvxhini-10/EY-Schema-Merger/internal/domain"
)

// Format is an export file format.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// ParseFormat validates a format name. Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatJSON, FormatXLSX:
		return f, nil
	default:
		return "", domain.ErrValidation("unsupported export format %q: use csv, json or xlsx", s)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Artifact is a rendered export.
type Artifact struct {
	Name        string
	ContentType string
	Body        []byte
}

// Row is one exported mapping.
type Row struct {
	Table         string  `json:"table"`
	TableApproval string  `json:"tableApproval"`
	SourceField   string  `json:"bankAColumn"`
	TargetField   string  `json:"bankBColumn"`
	UnifiedField  string  `json:"unifiedColumn"`
	Confidence    string  `json:"confidence"`
	Score         float64 `json:"confidenceRating"`
	Approved      bool    `json:"approved"`
}

var header = []string{"table", "table_approval", "bank_a_column", "bank_b_column", "unified_column", "confidence", "confidence_rating", "approved"}

func (r Row) cells() []string {
	return []string{
		r.Table,
		r.TableApproval,
		r.SourceField,
		r.TargetField,
		r.UnifiedField,
		r.Confidence,
		strconv.FormatFloat(r.Score, 'f', -1, 64),
		strconv.FormatBool(r.Approved),
	}
}

// Rows flattens a workspace snapshot into export rows in mapping order.
func Rows(snap domain.WorkspaceSnapshot) []Row {
	rows := make([]Row, len(snap.Mappings))
	for i, m := range snap.Mappings {
		approval := snap.Approvals[m.Table]
		if approval == "" {
			approval = domain.ApprovalNone
		}
		rows[i] = Row{
			Table:         m.Table,
			TableApproval: string(approval),
			SourceField:   m.SourceField,
			TargetField:   m.TargetField,
			UnifiedField:  m.Unified,
			Confidence:    string(m.Confidence),
			Score:         m.Score,
			Approved:      m.Approved,
		}
	}
	return rows
}

// Render encodes the snapshot in the given format.
func Render(snap domain.WorkspaceSnapshot, format Format) ([]byte, error) {
	rows := Rows(snap)
	switch format {
	case FormatJSON:
		return renderJSON(snap, rows)
	case FormatXLSX:
		return renderXLSX(snap, rows)
	case FormatCSV:
		return renderCSV(rows)
	default:
		return nil, domain.ErrValidation("unsupported export format %q", format)
	}
}

func renderCSV(rows []Row) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, r := range rows {
		if err := w.Write(r.cells()); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

func renderJSON(snap domain.WorkspaceSnapshot, rows []Row) ([]byte, error) {
	doc := struct {
		Summary  domain.MappingSummary `json:"summary"`
		Mappings []Row                 `json:"mappings"`
	}{Summary: snap.Summary, Mappings: rows}
	return json.MarshalIndent(doc, "", "  ")
}

const (
	mappingsSheet = "Mappings"
	summarySheet  = "Summary"
)

func renderXLSX(snap domain.WorkspaceSnapshot, rows []Row) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	if err := f.SetSheetName(f.GetSheetName(0), mappingsSheet); err != nil {
		return nil, err
	}
	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(mappingsSheet, "A1", &headerRow); err != nil {
		return nil, err
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []any{r.Table, r.TableApproval, r.SourceField, r.TargetField, r.UnifiedField, r.Confidence, r.Score, r.Approved}
		if err := f.SetSheetRow(mappingsSheet, cell, &values); err != nil {
			return nil, err
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, err
	}
	s := snap.Summary
	summary := [][]any{
		{"metric", "value"},
		{"total_mappings", s.TotalMappings},
		{"approved_mappings", s.ApprovedMappings},
		{"high_confidence", s.HighConfidence},
		{"medium_confidence", s.MediumConfidence},
		{"low_confidence", s.LowConfidence},
		{"average_confidence", s.AverageConfidence},
		{"unresolved_conflicts", s.UnresolvedConflicts},
		{"approved_tables", s.ApprovedTables},
		{"confident_tables", s.ConfidentTables},
		{"table_completion", s.TableCompletion},
	}
	for i, values := range summary {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(summarySheet, cell, &values); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
