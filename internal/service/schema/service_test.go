package schema

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selvxhini-10/EY-Schema-Merger/internal/domain"
)

type stubSource struct {
	docs *domain.SchemaDocuments
	err  error
}

func (s *stubSource) Load(_ context.Context) (*domain.SchemaDocuments, error) {
	return s.docs, s.err
}

func TestService_Bundle(t *testing.T) {
	tables, bank1, bank2, cols := fixture()
	svc := NewService(&stubSource{docs: &domain.SchemaDocuments{
		Bank1: bank1, Bank2: bank2, TableMappings: tables, ColumnMappings: cols,
	}}, nil)

	bundle, err := svc.Bundle(context.Background())
	require.NoError(t, err)
	assert.Len(t, bundle.Tables, 3)
	assert.Equal(t, bank1, bundle.Bank1Schema)
	assert.Equal(t, bank2, bundle.Bank2Schema)
}

func TestService_BundleLoadFailure(t *testing.T) {
	loadErr := &domain.SchemaLoadError{Document: DocTableMapping, Err: errors.New("bad json")}
	svc := NewService(&stubSource{err: loadErr}, nil)

	bundle, err := svc.Bundle(context.Background())
	assert.Nil(t, bundle, "no partial output")
	assert.ErrorIs(t, err, loadErr)
}

func TestService_Manifest(t *testing.T) {
	svc := NewService(&stubSource{docs: &domain.SchemaDocuments{
		TableMappings: []domain.TableMapping{{SourceTable: "Loans", TargetTable: "Credit", Status: domain.StatusConfidentMatch}},
	}}, nil)

	m, err := svc.Manifest(context.Background(), []ManifestFile{{Source: "x/credit_2024.csv", Bank: domain.BankB}})
	require.NoError(t, err)
	assert.Len(t, m.Tables["Loans"], 1)
}

func TestService_NormalizeFile(t *testing.T) {
	svc := NewService(&stubSource{}, nil)

	fields, err := svc.NormalizeFile("fields.csv", []byte("CustomerID\nFirstName\n"))
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, "CustomerID", fields[0].Name)
	assert.Equal(t, domain.FieldTypeString, fields[1].Type)
}
