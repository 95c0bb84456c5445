package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selvxhini-10/EY-Schema-Merger/internal/domain"
)

func field(label, desc string) domain.SourceField {
	return domain.SourceField{Label: label, Description: desc}
}

func colMap(src, dst, status string, score float64) domain.ColumnMapping {
	m := domain.ColumnMapping{Status: status, ConfidenceRating: score}
	if src != "" {
		m.SourceColumn = &domain.SourceField{Label: src}
	}
	if dst != "" {
		m.TargetColumn = &domain.SourceField{Label: dst}
	}
	return m
}

func fixture() ([]domain.TableMapping, domain.BankSchema, domain.BankSchema, map[string][]domain.ColumnMapping) {
	tables := []domain.TableMapping{
		{SourceTable: "Transactions", TargetTable: "Txn", Status: "Needs Review", ConfidenceRating: 55},
		{SourceTable: "Customers", TargetTable: "Clients", Status: domain.StatusConfidentMatch, ConfidenceRating: 92},
		{SourceTable: "Branches", TargetTable: "Missing", Status: "Needs Review"},
	}
	bank1 := domain.BankSchema{Tables: map[string][]domain.SourceField{
		"Customers": {
			field("CustomerID", "Unique customer reference"),
			field("OpenDate", "Date the account was opened"),
			field("Segment", "Customer tier"),
		},
		"Transactions": {
			field("TxnID", ""),
			field("Amount", "Posted value"),
			field("Memo", ""),
		},
	}}
	bank2 := domain.BankSchema{Tables: map[string][]domain.SourceField{
		"Clients": {field("ClientNo", "")},
		"Txn": {
			field("Amount", "bank 2 copy"),
			field("PostedAt", ""),
			field("Memo", "bank 2 memo"),
			field("Channel", ""),
		},
	}}
	cols := map[string][]domain.ColumnMapping{
		"Customers": {
			colMap("CustomerID", "ClientNo", domain.StatusConfidentMatch, 95),
			colMap("Segment", "Tier", "Needs Review", 65),
			colMap("Ghost", "GhostB", domain.StatusConfidentMatch, 90),
			colMap("OpenDate", "", domain.StatusConfidentMatch, 81),
		},
		"Transactions": {
			colMap("", "", "Needs Review", 10),
			colMap("", "Channel", "Needs Review", 30),
		},
		"Orphan": {colMap("A", "B", domain.StatusConfidentMatch, 99)},
	}
	return tables, bank1, bank2, cols
}

func names(fields []domain.DisplayField) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Name
	}
	return out
}

func TestUnify_PreservesTableOrder(t *testing.T) {
	tables, bank1, bank2, cols := fixture()

	got := Unify(tables, bank1, bank2, cols)
	require.Len(t, got, 3)
	assert.Equal(t, "Transactions", got[0].TableName)
	assert.Equal(t, "Customers", got[1].TableName)
	assert.Equal(t, "Branches", got[2].TableName)
	assert.Equal(t, domain.StatusConfidentMatch, got[1].Status)
}

func TestUnify_ConfidentTableShowsConfidentBank1Subset(t *testing.T) {
	tables, bank1, bank2, cols := fixture()

	customers := Unify(tables, bank1, bank2, cols)[1]

	// Segment is not confident, Ghost does not resolve to a bank-1 field.
	assert.Equal(t, []string{"CustomerID", "OpenDate"}, names(customers.Fields))

	bank1Labels := map[string]bool{}
	for _, f := range bank1.Tables["Customers"] {
		bank1Labels[f.Label] = true
	}
	for i, f := range customers.Fields {
		assert.True(t, bank1Labels[f.Name], "%s is not a bank-1 field", f.Name)
		assert.Equal(t, fieldID(i), f.ID)
	}

	assert.Equal(t, domain.FieldTypeString, customers.Fields[0].Type)
	assert.Equal(t, domain.FieldTypeDate, customers.Fields[1].Type)
	assert.Equal(t, "Date the account was opened", customers.Fields[1].Description)
}

func TestUnify_UncertainTableShowsDeduplicatedUnion(t *testing.T) {
	tables, bank1, bank2, cols := fixture()

	txn := Unify(tables, bank1, bank2, cols)[0]

	assert.Equal(t, []string{"TxnID", "Amount", "Memo", "PostedAt", "Channel"}, names(txn.Fields))
	assert.Equal(t, "Posted value", txn.Fields[1].Description, "bank 1 copy wins")
	assert.Equal(t, domain.FieldTypeNumber, txn.Fields[1].Type)
	assert.Equal(t, domain.FieldTypeString, txn.Fields[3].Type)
}

func TestUnify_MissingTablesYieldEmptyLists(t *testing.T) {
	tables, bank1, bank2, cols := fixture()

	branches := Unify(tables, bank1, bank2, cols)[2]

	assert.NotNil(t, branches.Fields)
	assert.Empty(t, branches.Fields)
	assert.NotNil(t, branches.ColumnMappings)
	assert.Empty(t, branches.ColumnMappings)
}

func TestUnify_DisplayMappings(t *testing.T) {
	tables, bank1, bank2, cols := fixture()
	got := Unify(tables, bank1, bank2, cols)

	customers := got[1].ColumnMappings
	require.Len(t, customers, 4)
	assert.Equal(t, domain.DisplayMapping{
		ID:               "cm-Customers-0",
		BankAColumn:      "CustomerID",
		BankBColumn:      "ClientNo",
		UnifiedColumn:    "CustomerID",
		Confidence:       domain.TierHigh,
		ConfidenceRating: 95,
		Status:           domain.StatusConfidentMatch,
		Approved:         true,
	}, customers[0])
	assert.Equal(t, domain.TierMedium, customers[1].Confidence)
	assert.False(t, customers[1].Approved)
	assert.Equal(t, "", customers[3].BankBColumn)

	// The label-less mapping is dropped; ids keep their input index.
	txn := got[0].ColumnMappings
	require.Len(t, txn, 1)
	assert.Equal(t, "cm-Transactions-1", txn[0].ID)
	assert.Equal(t, "", txn[0].BankAColumn)
	assert.Equal(t, "Channel", txn[0].UnifiedColumn, "falls back to the bank-2 label")
	assert.Equal(t, domain.TierLow, txn[0].Confidence)
}

func TestUnify_TableApprovalIndependentOfMappingApproval(t *testing.T) {
	tables := []domain.TableMapping{{SourceTable: "T", Status: "Needs Review"}}
	cols := map[string][]domain.ColumnMapping{"T": {colMap("a", "b", domain.StatusConfidentMatch, 85)}}

	got := Unify(tables, domain.BankSchema{}, domain.BankSchema{}, cols)

	require.Len(t, got[0].ColumnMappings, 1)
	assert.True(t, got[0].ColumnMappings[0].Approved)
	assert.False(t, got[0].IsConfident())
}

func TestUnify_Idempotent(t *testing.T) {
	tables, bank1, bank2, cols := fixture()

	assert.Equal(t, Unify(tables, bank1, bank2, cols), Unify(tables, bank1, bank2, cols))
}

func TestUnify_EmptyInput(t *testing.T) {
	got := Unify(nil, domain.BankSchema{}, domain.BankSchema{}, nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestOrphanColumnTables(t *testing.T) {
	tables, _, _, cols := fixture()

	assert.Equal(t, []string{"Orphan"}, OrphanColumnTables(tables, cols))
	assert.Empty(t, OrphanColumnTables(tables, nil))
}
