package entity

import (
	"github.com/google/uuid"
)

// OrderLine is one line of a submission-ready order. CatalogID is nil
// for header-only lines.
type OrderLine struct {
	CatalogID   *int64  `json:"catalog_id,omitempty"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	SourceRow   int     `json:"source_row"`
}

// OrderBatch is the terminal artifact: all currently-available matched
// lines in ascending SourceRow order, bound to a destination company and
// vendor. It stays a pure value until the gateway accepts it, so a
// failed submission can be retried unchanged.
type OrderBatch struct {
	ID         uuid.UUID   `json:"id"`
	CompanyID  int64       `json:"company_id"`
	SupplierID int64       `json:"supplier_id"`
	DateIssued string      `json:"date_issued"` // YYYY-MM-DD
	Lines      []OrderLine `json:"lines"`
}

// Total returns the sum of quantity * unit price over all lines.
func (b OrderBatch) Total() float64 {
	var t float64
	for _, l := range b.Lines {
		t += l.Quantity * l.UnitPrice
	}
	return t
}

// Company is an organizational scope the gateway exposes for selection.
type Company struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
