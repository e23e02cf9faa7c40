// Package gateway defines the boundary to the external catalog & order
// system. The engine never sees the remote schema or transport; it talks
// to this interface and the adapter under gateway/odoo does the rest.
package gateway

import (
	"context"

	"github.com/swagops/po-ingest/internal/entity"
)

// Scope is the tenant/company partition under which lookups and
// creations are executed.
type Scope struct {
	CompanyID int64
}

// OrderRequest carries everything the gateway needs to create one order.
type OrderRequest struct {
	SupplierID int64
	CompanyID  int64
	DateIssued string // YYYY-MM-DD
	Lines      []entity.OrderLine
}

// Gateway is the catalog & order collaborator.
type Gateway interface {
	// LookupByCode resolves an item code to a catalog reference.
	// (nil, nil) means the code does not exist; a non-nil error means
	// the catalog was unreachable or erroring.
	LookupByCode(ctx context.Context, code string, scope Scope) (*entity.CatalogReference, error)

	// CatalogSchemaFields returns the field names the catalog schema
	// exposes, used for supplemental-attribute probing.
	CatalogSchemaFields(ctx context.Context, scope Scope) (map[string]struct{}, error)

	// CreateCatalogEntry creates a catalog entry from raw attributes and
	// returns its reference.
	CreateCatalogEntry(ctx context.Context, attrs map[string]any, scope Scope) (entity.CatalogReference, error)

	// CreateOrder submits one order atomically and returns its id.
	CreateOrder(ctx context.Context, req OrderRequest, scope Scope) (int64, error)

	// ListCompanies returns the organizational scopes available for
	// selection.
	ListCompanies(ctx context.Context) ([]entity.Company, error)
}
