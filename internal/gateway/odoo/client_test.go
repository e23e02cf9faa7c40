package odoo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swagops/po-ingest/internal/entity"
	"github.com/swagops/po-ingest/internal/gateway"
)

func TestBuildOrderValues(t *testing.T) {
	catalogID := int64(42)
	req := gateway.OrderRequest{
		SupplierID: 9,
		CompanyID:  3,
		DateIssued: "2026-03-01",
		Lines: []entity.OrderLine{
			{CatalogID: &catalogID, Description: "bolt", Quantity: 4, UnitPrice: 1.5, SourceRow: 2},
			{Description: "RVH010", Quantity: 3, UnitPrice: 1200, SourceRow: 3},
		},
	}

	vals := buildOrderValues(req)

	assert.Equal(t, int64(9), vals["partner_id"])
	assert.Equal(t, "2026-03-01", vals["date_order"])
	assert.Equal(t, int64(3), vals["company_id"])

	lines, ok := vals["order_line"].([]any)
	require.True(t, ok)
	require.Len(t, lines, 2)

	first, ok := lines[0].([]any)
	require.True(t, ok)
	require.Len(t, first, 3)
	assert.Equal(t, 0, first[0])
	assert.Equal(t, 0, first[1])
	fv, ok := first[2].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, int64(42), fv["product_id"])
	assert.Equal(t, "bolt", fv["name"])
	assert.Equal(t, 4.0, fv["product_qty"])
	assert.Equal(t, 1.5, fv["price_unit"])

	second := lines[1].([]any)
	sv := second[2].(map[string]any)
	assert.NotContains(t, sv, "product_id", "header-only lines carry no product reference")
	assert.Equal(t, "RVH010", sv["name"])
}

func TestScopeContext(t *testing.T) {
	ctx := scopeContext(gateway.Scope{CompanyID: 7})

	assert.Equal(t, []int64{7}, ctx["allowed_company_ids"])
	assert.Equal(t, int64(7), ctx["company_id"])
}

func TestAsInt64(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int64
		ok   bool
	}{
		{"int64", int64(5), 5, true},
		{"int32", int32(5), 5, true},
		{"int", 5, 5, true},
		{"float64", 5.0, 5, true},
		{"bool false (odoo bad credentials)", false, 0, false},
		{"string", "5", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := asInt64(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAsInt64Slice(t *testing.T) {
	assert.Equal(t, []int64{1, 2}, asInt64Slice([]any{int64(1), 2.0, "x"}))
	assert.Nil(t, asInt64Slice("not a slice"))
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{URL: "https://erp.example.com"}.withDefaults()
	assert.NotZero(t, cfg.Timeout)
}
