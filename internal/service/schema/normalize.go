package schema

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/selvxhini-10/EY-Schema-Merger/internal/domain"
)

// Runtime type names reported for sample cells.
const (
	cellTypeString    = "string"
	cellTypeNumber    = "number"
	cellTypeBoolean   = "boolean"
	cellTypeUndefined = "undefined"
	cellTypeObject    = "object"
)

// Normalize turns spreadsheet rows into schema fields. Cells are nil, string,
// bool, or decimal.Decimal as produced by ReadSheet.
//
// When every row has exactly one cell the sheet is a plain list of names:
// row 0 is data and every field is a string with an empty sample. Otherwise
// row 0 is a header; each later row gives a name in column 0 and a sample
// value in column 1 whose runtime type becomes the field type.
func Normalize(rows [][]any) []domain.SchemaField {
	if len(rows) == 0 {
		return []domain.SchemaField{}
	}

	if singleColumn(rows) {
		fields := make([]domain.SchemaField, len(rows))
		for i, row := range rows {
			empty := ""
			fields[i] = domain.SchemaField{
				ID:          fieldID(i),
				Name:        labelOrDefault(row[0], i),
				Type:        domain.FieldTypeString,
				SampleValue: &empty,
			}
		}
		return fields
	}

	data := rows[1:]
	fields := make([]domain.SchemaField, len(data))
	for i, row := range data {
		var label, sample any
		if len(row) > 0 {
			label = row[0]
		}
		if len(row) > 1 {
			sample = row[1]
		}
		text := cellString(sample)
		fields[i] = domain.SchemaField{
			ID:          fieldID(i),
			Name:        labelOrDefault(label, i),
			Type:        cellType(sample),
			SampleValue: &text,
		}
	}
	return fields
}

func singleColumn(rows [][]any) bool {
	for _, row := range rows {
		if len(row) != 1 {
			return false
		}
	}
	return true
}

func fieldID(i int) string {
	return "field-" + strconv.Itoa(i)
}

func labelOrDefault(cell any, i int) string {
	if s := cellString(cell); s != "" {
		return s
	}
	return "Column-" + strconv.Itoa(i)
}

func cellType(v any) string {
	switch v.(type) {
	case nil:
		return cellTypeUndefined
	case string:
		return cellTypeString
	case bool:
		return cellTypeBoolean
	case decimal.Decimal, float64, int, int64:
		return cellTypeNumber
	default:
		return cellTypeObject
	}
}

func cellString(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case bool:
		return strconv.FormatBool(c)
	case decimal.Decimal:
		return c.String()
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	default:
		return fmt.Sprint(c)
	}
}

// ReadSheet reads the first sheet of an XLSX workbook or a CSV file into
// typed rows. The format is chosen from the file extension.
func ReadSheet(name string, data []byte) ([][]any, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return ReadXLSX(bytes.NewReader(data))
	case ".csv", ".txt", "":
		return ReadCSV(bytes.NewReader(data))
	default:
		return nil, domain.ErrValidation("unsupported spreadsheet format %q: use .xlsx or .csv", filepath.Ext(name))
	}
}

// ReadXLSX reads the first sheet of a workbook. Trailing empty cells are
// dropped, so a name-only row has length one.
func ReadXLSX(r io.Reader) ([][]any, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &domain.FileReadError{Name: "workbook", Err: err}
	}
	defer f.Close() //nolint:errcheck

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &domain.FileReadError{Name: "workbook", Err: errors.New("workbook has no sheets")}
	}
	sheet := sheets[0]

	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &domain.FileReadError{Name: sheet, Err: err}
	}

	rows := make([][]any, len(raw))
	for ri, cols := range raw {
		row := make([]any, len(cols))
		for ci, val := range cols {
			axis, err := excelize.CoordinatesToCellName(ci+1, ri+1)
			if err != nil {
				return nil, err
			}
			typ, err := f.GetCellType(sheet, axis)
			if err != nil {
				return nil, &domain.FileReadError{Name: sheet, Err: err}
			}
			row[ci] = xlsxCell(typ, val)
		}
		rows[ri] = trimTrailingNil(row)
	}
	return rows, nil
}

func xlsxCell(typ excelize.CellType, val string) any {
	if val == "" {
		return nil
	}
	switch typ {
	case excelize.CellTypeBool:
		return val == "1" || strings.EqualFold(val, "true")
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if d, err := decimal.NewFromString(val); err == nil {
			return d
		}
	case excelize.CellTypeFormula:
		// cached formula results keep whatever type they parse as
		return csvCell(val)
	}
	return val
}

// ReadCSV reads comma-separated rows, typing each cell the way a spreadsheet
// import would: empty cells are absent, TRUE/FALSE are booleans, numerals
// are numbers.
func ReadCSV(r io.Reader) ([][]any, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]any
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &domain.FileReadError{Name: "csv", Err: err}
		}
		row := make([]any, len(rec))
		for i, v := range rec {
			row[i] = csvCell(v)
		}
		rows = append(rows, trimTrailingNil(row))
	}
	return rows, nil
}

func csvCell(v string) any {
	if v == "" {
		return nil
	}
	switch strings.ToLower(v) {
	case "true":
		return true
	case "false":
		return false
	}
	if d, err := decimal.NewFromString(strings.TrimSpace(v)); err == nil && strings.TrimSpace(v) != "" {
		return d
	}
	return v
}

func trimTrailingNil(row []any) []any {
	n := len(row)
	for n > 0 && row[n-1] == nil {
		n--
	}
	return row[:n]
}
