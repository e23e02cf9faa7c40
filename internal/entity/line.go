package entity

// SourceType identifies which extraction strategy produced a line.
type SourceType string

const (
	SourceTabular SourceType = "TABULAR"
	SourceInvoice SourceType = "INVOICE_TEXT"
)

// ResolutionStatus is the mutable state of an unmatched line.
type ResolutionStatus string

const (
	StatusPending  ResolutionStatus = "PENDING"
	StatusSkipped  ResolutionStatus = "SKIPPED"
	StatusResolved ResolutionStatus = "RESOLVED"
)

// CandidateLine is one row extracted from the source document, before
// catalog resolution. SourceRow is the 1-based position in the original
// document and is the stable identifier used in operator-facing output.
type CandidateLine struct {
	SourceRow   int     `json:"source_row"`
	Code        string  `json:"code,omitempty"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// CatalogReference is an external identifier for a known product,
// resolved by lookup or creation.
type CatalogReference struct {
	ID   int64  `json:"id"`
	Code string `json:"code,omitempty"`
}

// MatchedLine is a CandidateLine plus its resolved catalog reference.
// Ref is nil for header-only lines (text-heuristic sources carry no
// reliable code, so the identity step is skipped for them). Immutable
// once created.
type MatchedLine struct {
	Line CandidateLine     `json:"line"`
	Ref  *CatalogReference `json:"ref,omitempty"`
}

// UnmatchedLine is a CandidateLine for which catalog lookup returned no
// reference. LookupFailed distinguishes a gateway error from a genuine
// not-found; both land here.
type UnmatchedLine struct {
	Line         CandidateLine    `json:"line"`
	Status       ResolutionStatus `json:"status"`
	LookupFailed bool             `json:"lookup_failed,omitempty"`
}
