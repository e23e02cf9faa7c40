package resolve

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swagops/po-ingest/internal/common"
	"github.com/swagops/po-ingest/internal/entity"
	"github.com/swagops/po-ingest/internal/gateway"
)

// createGateway answers schema introspection and entry creation with
// canned results so session transitions can be exercised offline.
type createGateway struct {
	fields    map[string]struct{}
	fieldsErr error
	createErr error
	nextID    int64
	created   []map[string]any
}

func (g *createGateway) LookupByCode(context.Context, string, gateway.Scope) (*entity.CatalogReference, error) {
	return nil, errors.New("not implemented")
}

func (g *createGateway) CatalogSchemaFields(context.Context, gateway.Scope) (map[string]struct{}, error) {
	if g.fieldsErr != nil {
		return nil, g.fieldsErr
	}
	return g.fields, nil
}

func (g *createGateway) CreateCatalogEntry(_ context.Context, attrs map[string]any, _ gateway.Scope) (entity.CatalogReference, error) {
	if g.createErr != nil {
		return entity.CatalogReference{}, g.createErr
	}
	g.created = append(g.created, attrs)
	g.nextID++
	code, _ := attrs["default_code"].(string)
	return entity.CatalogReference{ID: g.nextID, Code: code}, nil
}

func (g *createGateway) CreateOrder(context.Context, gateway.OrderRequest, gateway.Scope) (int64, error) {
	return 0, errors.New("not implemented")
}

func (g *createGateway) ListCompanies(context.Context) ([]entity.Company, error) {
	return nil, errors.New("not implemented")
}

func unmatched(row int, code string) *entity.UnmatchedLine {
	return &entity.UnmatchedLine{
		Line:   entity.CandidateLine{SourceRow: row, Code: code, Description: "desc " + code, Quantity: 2, UnitPrice: 5},
		Status: entity.StatusPending,
	}
}

func newTestSession(gw gateway.Gateway, lines ...*entity.UnmatchedLine) *Session {
	return NewSession(gw, gateway.Scope{CompanyID: 1}, DefaultMapping(), lines, nil)
}

func TestSession_SkipAdvancesWithoutRemoving(t *testing.T) {
	x, y, z := unmatched(2, "X"), unmatched(3, "Y"), unmatched(4, "Z")
	s := newTestSession(&createGateway{}, x, y, z)

	cur, ok := s.Current()
	require.True(t, ok)
	assert.Same(t, x, cur)

	s.Skip()

	assert.Equal(t, 3, s.Len(), "skip removes nothing")
	assert.Equal(t, entity.StatusSkipped, x.Status)

	cur, ok = s.Current()
	require.True(t, ok)
	assert.Same(t, y, cur)
}

func TestSession_SkipWrapsAndRepresentsAsPending(t *testing.T) {
	only := unmatched(2, "X")
	s := newTestSession(&createGateway{}, only)

	for i := 0; i < 5; i++ {
		s.Skip()
	}

	assert.Equal(t, 1, s.Len())
	cur, ok := s.Current()
	require.True(t, ok)
	assert.Same(t, only, cur)
	assert.Equal(t, entity.StatusPending, cur.Status, "re-presenting flips skipped back to pending")
}

func TestSession_CreateRemovesLineAndResetsCursor(t *testing.T) {
	x, y, z := unmatched(2, "X"), unmatched(3, "Y"), unmatched(4, "Z")
	gw := &createGateway{fields: map[string]struct{}{}}
	s := newTestSession(gw, x, y, z)

	s.Skip() // cursor now on Y
	cur, _ := s.Current()
	require.Same(t, y, cur)

	matched, err := s.Create(context.Background(), s.DraftFor(cur))
	require.NoError(t, err)

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 0, s.Cursor(), "cursor resets to the head after a creation")
	assert.Equal(t, entity.StatusResolved, y.Status)
	require.NotNil(t, matched.Ref)
	assert.Equal(t, "Y", matched.Ref.Code)
	assert.Equal(t, y.Line, matched.Line, "order-line quantities survive resolution untouched")

	require.Len(t, s.Resolved(), 1)

	cur, ok := s.Current()
	require.True(t, ok)
	assert.Same(t, x, cur)
}

func TestSession_CreateFailureLeavesQueueUntouched(t *testing.T) {
	x := unmatched(2, "X")
	gw := &createGateway{fields: map[string]struct{}{}, createErr: errors.New("boom")}
	s := newTestSession(gw, x)

	cur, _ := s.Current()
	_, err := s.Create(context.Background(), s.DraftFor(cur))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrCreation)

	assert.Equal(t, 1, s.Len())
	assert.Empty(t, s.Resolved())
	again, ok := s.Current()
	require.True(t, ok)
	assert.Same(t, x, again, "the same line stays presented for retry")
}

func TestSession_SchemaFailureIsCreationFailure(t *testing.T) {
	x := unmatched(2, "X")
	gw := &createGateway{fieldsErr: errors.New("introspection down")}
	s := newTestSession(gw, x)

	cur, _ := s.Current()
	_, err := s.Create(context.Background(), s.DraftFor(cur))
	assert.ErrorIs(t, err, common.ErrCreation)
	assert.Equal(t, 1, s.Len())
}

func TestSession_CreateOnEmptyQueue(t *testing.T) {
	s := newTestSession(&createGateway{})
	require.True(t, s.Empty())

	_, err := s.Create(context.Background(), EntryDraft{Name: "anything"})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestSession_DraftPrefill(t *testing.T) {
	line := unmatched(2, "  AB12 ")
	s := newTestSession(&createGateway{})

	draft := s.DraftFor(line)
	assert.Equal(t, "AB12", draft.Code, "code defaults to the unmatched code")
	assert.Empty(t, draft.Name, "every other attribute starts blank")
	assert.Empty(t, draft.Barcode)
	assert.Empty(t, draft.LegacyCode)
	assert.Zero(t, draft.Cost)
	assert.Zero(t, draft.SalePrice)
}

func TestBuildAttributes_SupplementalProbing(t *testing.T) {
	fields := map[string]struct{}{
		"x_old_code": {}, // second candidate for legacy_code
		"x_season":   {}, // first candidate for season
	}
	draft := EntryDraft{
		Name:       "Widget",
		Code:       "W1",
		LegacyCode: "OLD-9",
		Season:     "FW26",
		Brand:      "Acme", // no brand field in the schema
		Cost:       10.5,
		SalePrice:  19.9,
	}

	attrs := buildAttributes(draft, fields, DefaultMapping())

	assert.Equal(t, "Widget", attrs["name"])
	assert.Equal(t, "W1", attrs["default_code"])
	assert.Equal(t, "OLD-9", attrs["x_old_code"], "first candidate present in the schema wins")
	assert.Equal(t, "FW26", attrs["x_season"])
	assert.NotContains(t, attrs, "x_brand", "unmappable attributes are omitted")
	assert.NotContains(t, attrs, "brand_id")
	assert.Equal(t, 10.5, attrs["standard_price"])
	assert.Equal(t, 19.9, attrs["list_price"])
}

func TestBuildAttributes_OmitsEmptyAndNonPositive(t *testing.T) {
	attrs := buildAttributes(EntryDraft{Name: "Bare"}, map[string]struct{}{}, DefaultMapping())

	assert.Equal(t, map[string]any{"name": "Bare"}, attrs)
}
