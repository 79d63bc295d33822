package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldline/sales-crm/internal/security"
)

func TestProjectedFieldsRestrictsAndOrders(t *testing.T) {
	cols := exportColumns[security.ResourceLeads]
	r := security.ExportRestrictions{
		AllowedFields:   []string{"company", "full_name", "status", "created_at"},
		SensitiveFields: []string{"email", "phone"},
	}

	got := projectedFields(cols, r, security.RoleBDR)
	// Canonical column order wins over the order fields were allowed in.
	assert.Equal(t, []string{"full_name", "company", "status", "created_at"}, got)
}

func TestProjectedFieldsStripsSensitiveForNonAdmin(t *testing.T) {
	cols := exportColumns[security.ResourceLeads]
	r := security.ExportRestrictions{
		AllowedFields:   []string{"*"},
		SensitiveFields: []string{"email", "phone"},
	}

	got := projectedFields(cols, r, security.RoleManager)
	assert.NotContains(t, got, "email")
	assert.NotContains(t, got, "phone")
	assert.Contains(t, got, "full_name")
}

func TestProjectedFieldsKeepsSensitiveForAdmin(t *testing.T) {
	cols := exportColumns[security.ResourceLeads]
	r := security.ExportRestrictions{
		AllowedFields:   []string{"*"},
		SensitiveFields: []string{"email", "phone"},
	}

	got := projectedFields(cols, r, security.RoleAdmin)
	assert.Contains(t, got, "email")
	assert.Contains(t, got, "phone")
	assert.Equal(t, cols, got)
}

func TestRenderCSV(t *testing.T) {
	fields := []string{"full_name", "company"}
	rows := []map[string]string{
		{"full_name": "Alice Jones", "company": "Acme"},
		{"full_name": "Bob Smith", "company": "Widget, Inc."},
	}

	body, err := renderCSV(fields, rows)
	require.NoError(t, err)
	assert.Equal(t, "full_name,company\nAlice Jones,Acme\nBob Smith,\"Widget, Inc.\"\n", string(body))
}

func TestRenderXLSXProducesWorkbook(t *testing.T) {
	fields := []string{"full_name", "status"}
	rows := []map[string]string{{"full_name": "Alice Jones", "status": "NEW"}}

	body, err := renderXLSX("LEADS", fields, rows)
	require.NoError(t, err)
	// XLSX is a zip container; check the magic bytes instead of parsing.
	require.Greater(t, len(body), 4)
	assert.Equal(t, []byte{'P', 'K'}, body[:2])
}
