package schema

import (
	"strings"

	"github.com/selvxhini-10/EY-Schema-Merger/internal/domain"
)

var (
	dateHints   = []string{"date", "time"}
	numberHints = []string{"amount", "balance", "rate", "number"}
	idHints     = []string{"id", "key", "reference"}
)

// InferType guesses a field type from its label and description. Rules are
// checked in order, so "date_id" is a date.
func InferType(name, description string) string {
	n := strings.ToLower(name)
	d := strings.ToLower(description)

	switch {
	case containsAny(n, dateHints) || containsAny(d, dateHints):
		return domain.FieldTypeDate
	case containsAny(n, numberHints) || containsAny(d, numberHints):
		return domain.FieldTypeNumber
	case containsAny(n, idHints):
		// identifiers stay strings even when they look numeric
		return domain.FieldTypeString
	default:
		return domain.FieldTypeString
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// FillMissing gives parser-described fields a positional id and an inferred
// type when the backend left them out.
func FillMissing(fields []domain.SchemaField) {
	for i := range fields {
		if fields[i].ID == "" {
			fields[i].ID = fieldID(i)
		}
		if fields[i].Type == "" {
			fields[i].Type = InferType(fields[i].Name, fields[i].Description)
		}
	}
}
