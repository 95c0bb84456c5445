package schema

import (
	"fmt"
	"sort"

	"github.com/selvxhini-10/EY-Schema-Merger/internal/domain"
)

// Unify projects the matcher output onto both bank schemas, one UnifiedTable
// per table mapping in input order.
//
// Confidently matched tables show only the bank-1 fields backed by a
// confident column mapping. Every other table shows the union of both banks'
// fields, de-duplicated by label with bank 1 first. Column mappings are looked
// up by the bank-1 table name.
func Unify(
	tableMappings []domain.TableMapping,
	bank1, bank2 domain.BankSchema,
	columnMappings map[string][]domain.ColumnMapping,
) []domain.UnifiedTable {
	out := make([]domain.UnifiedTable, 0, len(tableMappings))
	for _, tm := range tableMappings {
		tableName := tm.SourceTable
		bank1Fields := bank1.Tables[tableName]
		bank2Fields := bank2.Tables[tm.TargetTable]
		mappings := columnMappings[tableName]

		var shown []domain.SourceField
		if tm.IsConfident() {
			shown = confidentFields(bank1Fields, mappings)
		} else {
			shown = unionByLabel(bank1Fields, bank2Fields)
		}

		out = append(out, domain.UnifiedTable{
			TableName:      tableName,
			Status:         tm.Status,
			Fields:         displayFields(shown),
			ColumnMappings: displayMappings(tableName, mappings),
		})
	}
	return out
}

func confidentFields(bank1Fields []domain.SourceField, mappings []domain.ColumnMapping) []domain.SourceField {
	byLabel := make(map[string]domain.SourceField, len(bank1Fields))
	for _, f := range bank1Fields {
		if _, dup := byLabel[f.Label]; !dup {
			byLabel[f.Label] = f
		}
	}

	var fields []domain.SourceField
	for _, m := range mappings {
		if !m.IsConfident() || m.SourceColumn == nil {
			continue
		}
		if f, ok := byLabel[m.SourceColumn.Label]; ok {
			fields = append(fields, f)
		}
	}
	return fields
}

func unionByLabel(bank1Fields, bank2Fields []domain.SourceField) []domain.SourceField {
	seen := make(map[string]struct{}, len(bank1Fields)+len(bank2Fields))
	fields := make([]domain.SourceField, 0, len(bank1Fields)+len(bank2Fields))
	for _, group := range [][]domain.SourceField{bank1Fields, bank2Fields} {
		for _, f := range group {
			if _, ok := seen[f.Label]; ok {
				continue
			}
			seen[f.Label] = struct{}{}
			fields = append(fields, f)
		}
	}
	return fields
}

func displayFields(fields []domain.SourceField) []domain.DisplayField {
	out := make([]domain.DisplayField, len(fields))
	for i, f := range fields {
		out[i] = domain.DisplayField{
			ID:          fieldID(i),
			Name:        f.Label,
			Type:        InferType(f.Label, f.Description),
			Description: f.Description,
		}
	}
	return out
}

// displayMappings keeps the input index in each id so ids do not shift when
// label-less mappings are dropped.
func displayMappings(tableName string, mappings []domain.ColumnMapping) []domain.DisplayMapping {
	out := make([]domain.DisplayMapping, 0, len(mappings))
	for i, m := range mappings {
		src, dst := m.SourceLabel(), m.TargetLabel()
		if src == "" && dst == "" {
			continue
		}
		unified := src
		if unified == "" {
			unified = dst
		}
		out = append(out, domain.DisplayMapping{
			ID:               fmt.Sprintf("cm-%s-%d", tableName, i),
			BankAColumn:      src,
			BankBColumn:      dst,
			UnifiedColumn:    unified,
			Confidence:       domain.Classify(m.ConfidenceRating),
			ConfidenceRating: m.ConfidenceRating,
			Status:           m.Status,
			Approved:         m.IsConfident(),
		})
	}
	return out
}

// OrphanColumnTables lists column-mapping tables that no table mapping owns.
// Unify ignores them.
func OrphanColumnTables(tableMappings []domain.TableMapping, columnMappings map[string][]domain.ColumnMapping) []string {
	owned := make(map[string]struct{}, len(tableMappings))
	for _, tm := range tableMappings {
		owned[tm.SourceTable] = struct{}{}
	}
	var orphans []string
	for table := range columnMappings {
		if _, ok := owned[table]; !ok {
			orphans = append(orphans, table)
		}
	}
	sort.Strings(orphans)
	return orphans
}
