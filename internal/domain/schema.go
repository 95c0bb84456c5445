package domain

// Field types produced by type inference.
const (
	FieldTypeDate   = "date"
	FieldTypeNumber = "number"
	FieldTypeString = "string"
)

// StatusConfidentMatch is the matcher status for table and column pairs that
// need no human review.
const StatusConfidentMatch = "Confident Match"

// SchemaField is one column of a bank schema as produced by normalization or
// by the upstream parser. IDs are positional and only unique within one
// normalization pass.
type SchemaField struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Description string  `json:"description,omitempty"`
	SampleValue *string `json:"sampleValue,omitempty"`
}

// SourceField is a column entry in a bank schema document.
type SourceField struct {
	Label       string `json:"label"`
	Description string `json:"description"`
}

// BankSchema is the full set of tables and columns of one bank.
type BankSchema struct {
	Bank   string                   `json:"bank,omitempty"`
	Tables map[string][]SourceField `json:"tables"`
}

// TableMapping is the matcher's candidate pairing of a bank-1 table with a
// bank-2 table.
type TableMapping struct {
	SourceTable      string  `json:"best_match_bank1_table"`
	TargetTable      string  `json:"bank2_table"`
	Status           string  `json:"status"`
	ConfidenceRating float64 `json:"confidence_rating"`
}

// IsConfident reports whether the pairing was a confident match.
func (m TableMapping) IsConfident() bool { return m.Status == StatusConfidentMatch }

// ColumnMapping is the matcher's candidate pairing of two columns within a
// matched table pair. Either side may be absent.
type ColumnMapping struct {
	SourceColumn     *SourceField `json:"best_match_bank1_column,omitempty"`
	TargetColumn     *SourceField `json:"bank2_column,omitempty"`
	Status           string       `json:"status"`
	ConfidenceRating float64      `json:"confidence_rating"`
}

// IsConfident reports whether the pairing was a confident match.
func (m ColumnMapping) IsConfident() bool { return m.Status == StatusConfidentMatch }

// SourceLabel returns the bank-1 label or "".
func (m ColumnMapping) SourceLabel() string {
	if m.SourceColumn == nil {
		return ""
	}
	return m.SourceColumn.Label
}

// TargetLabel returns the bank-2 label or "".
func (m ColumnMapping) TargetLabel() string {
	if m.TargetColumn == nil {
		return ""
	}
	return m.TargetColumn.Label
}

// SchemaDocuments are the four matcher documents the workspace is built from.
type SchemaDocuments struct {
	Bank1          BankSchema
	Bank2          BankSchema
	TableMappings  []TableMapping
	ColumnMappings map[string][]ColumnMapping
}

// UnifiedTable is the review projection of one matched table pair.
type UnifiedTable struct {
	TableName      string           `json:"tableName"`
	Status         string           `json:"status"`
	Fields         []DisplayField   `json:"fields"`
	ColumnMappings []DisplayMapping `json:"columnMappings"`
}

// IsConfident reports whether the table pairing was a confident match.
func (t UnifiedTable) IsConfident() bool { return t.Status == StatusConfidentMatch }

// DisplayField is a field shown in the unified view.
type DisplayField struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// DisplayMapping is a column mapping shown in the unified view.
type DisplayMapping struct {
	ID               string  `json:"id"`
	BankAColumn      string  `json:"bankAColumn"`
	BankBColumn      string  `json:"bankBColumn"`
	UnifiedColumn    string  `json:"unifiedColumn"`
	Confidence       Tier    `json:"confidence"`
	ConfidenceRating float64 `json:"confidenceRating"`
	Status           string  `json:"status"`
	Approved         bool    `json:"approved"`
}

// SchemaBundle is the payload of the schema read endpoint.
type SchemaBundle struct {
	Tables      []UnifiedTable `json:"tables"`
	Bank1Schema BankSchema     `json:"bank1Schema"`
	Bank2Schema BankSchema     `json:"bank2Schema"`
}
