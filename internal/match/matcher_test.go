package match

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swagops/po-ingest/internal/entity"
	"github.com/swagops/po-ingest/internal/extract"
	"github.com/swagops/po-ingest/internal/gateway"
)

// fakeGateway resolves codes from a fixed table and fails lookups for
// codes listed in unreachable.
type fakeGateway struct {
	catalog     map[string]int64
	unreachable map[string]bool
	lookups     int
}

func (f *fakeGateway) LookupByCode(_ context.Context, code string, _ gateway.Scope) (*entity.CatalogReference, error) {
	f.lookups++
	if f.unreachable[code] {
		return nil, errors.New("gateway unreachable")
	}
	id, ok := f.catalog[code]
	if !ok {
		return nil, nil
	}
	return &entity.CatalogReference{ID: id, Code: code}, nil
}

func (f *fakeGateway) CatalogSchemaFields(context.Context, gateway.Scope) (map[string]struct{}, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeGateway) CreateCatalogEntry(context.Context, map[string]any, gateway.Scope) (entity.CatalogReference, error) {
	return entity.CatalogReference{}, errors.New("not implemented")
}

func (f *fakeGateway) CreateOrder(context.Context, gateway.OrderRequest, gateway.Scope) (int64, error) {
	return 0, errors.New("not implemented")
}

func (f *fakeGateway) ListCompanies(context.Context) ([]entity.Company, error) {
	return nil, errors.New("not implemented")
}

func tabularResult(lines ...entity.CandidateLine) extract.Result {
	return extract.Result{Source: entity.SourceTabular, Lines: lines}
}

func line(row int, code string) entity.CandidateLine {
	return entity.CandidateLine{SourceRow: row, Code: code, Description: "d" + code, Quantity: 1, UnitPrice: 2}
}

func TestMatcher_FoundAndNotFound(t *testing.T) {
	gw := &fakeGateway{catalog: map[string]int64{"A1": 11}}
	m := NewMatcher(gw, nil)

	pass := m.Run(context.Background(), tabularResult(line(2, "A1"), line(3, "ZZ")), gateway.Scope{CompanyID: 1})

	require.Len(t, pass.Matched, 1)
	require.NotNil(t, pass.Matched[0].Ref)
	assert.Equal(t, int64(11), pass.Matched[0].Ref.ID)
	assert.Equal(t, "A1", pass.Matched[0].Ref.Code)

	require.Len(t, pass.Unmatched, 1)
	assert.Equal(t, 3, pass.Unmatched[0].Line.SourceRow)
	assert.Equal(t, entity.StatusPending, pass.Unmatched[0].Status)
	assert.False(t, pass.Unmatched[0].LookupFailed)
}

func TestMatcher_DeduplicatesLookupsWithinOnePass(t *testing.T) {
	gw := &fakeGateway{catalog: map[string]int64{"A1": 11}}
	m := NewMatcher(gw, nil)

	pass := m.Run(context.Background(), tabularResult(line(2, "A1"), line(3, "A1"), line(4, "ZZ"), line(5, "ZZ")), gateway.Scope{CompanyID: 1})

	assert.Equal(t, 2, gw.lookups, "one lookup per distinct code")
	assert.Equal(t, 2, pass.CacheHits)
	assert.Len(t, pass.Matched, 2)
	assert.Len(t, pass.Unmatched, 2)
}

func TestMatcher_GatewayErrorDegradesRowAndContinues(t *testing.T) {
	gw := &fakeGateway{
		catalog:     map[string]int64{"A2": 22},
		unreachable: map[string]bool{"A1": true},
	}
	m := NewMatcher(gw, nil)

	pass := m.Run(context.Background(), tabularResult(line(2, "A1"), line(3, "A2")), gateway.Scope{CompanyID: 1})

	require.Len(t, pass.Unmatched, 1)
	assert.True(t, pass.Unmatched[0].LookupFailed, "gateway errors are distinguishable from not-found")
	require.Len(t, pass.Matched, 1, "a failing row never blocks the pass")
}

func TestMatcher_GatewayErrorsAreNotCached(t *testing.T) {
	gw := &fakeGateway{unreachable: map[string]bool{"A1": true}}
	m := NewMatcher(gw, nil)

	pass := m.Run(context.Background(), tabularResult(line(2, "A1"), line(3, "A1")), gateway.Scope{CompanyID: 1})

	assert.Equal(t, 2, gw.lookups, "transient failures must not poison later rows")
	assert.Len(t, pass.Unmatched, 2)
}

func TestMatcher_MissingCodeSkipsLookup(t *testing.T) {
	gw := &fakeGateway{}
	m := NewMatcher(gw, nil)

	pass := m.Run(context.Background(), tabularResult(line(2, "")), gateway.Scope{CompanyID: 1})

	assert.Zero(t, gw.lookups)
	require.Len(t, pass.Unmatched, 1)
}

func TestMatcher_InvoiceSourceIsHeaderOnly(t *testing.T) {
	gw := &fakeGateway{catalog: map[string]int64{"RVH010": 7}}
	m := NewMatcher(gw, nil)

	res := extract.Result{Source: entity.SourceInvoice, Lines: []entity.CandidateLine{
		{SourceRow: 3, Description: "RVH010", Quantity: 3, UnitPrice: 1200},
	}}
	pass := m.Run(context.Background(), res, gateway.Scope{CompanyID: 1})

	assert.Zero(t, gw.lookups, "identity step is skipped for text sources")
	require.Len(t, pass.Matched, 1)
	assert.Nil(t, pass.Matched[0].Ref, "header-only line carries no catalog reference")
	assert.Empty(t, pass.Unmatched)
}
