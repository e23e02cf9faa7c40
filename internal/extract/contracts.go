package extract

import (
	"context"

	"github.com/swagops/po-ingest/internal/entity"
)

// LineExtractor converts a raw input document into an ordered sequence
// of candidate line items.
type LineExtractor interface {
	Extract(ctx context.Context, path string) (Result, error)
}

// SkippedRow reports a data row dropped during extraction, identified
// by its 1-based position in the source document.
type SkippedRow struct {
	SourceRow int
	Reason    string
}

// Result is the output of one extraction pass.
type Result struct {
	Source entity.SourceType
	Lines  []entity.CandidateLine
	// Skipped lists rows whose numeric fields failed coercion (tabular
	// strategy only). The rows are dropped, not zeroed.
	Skipped []SkippedRow
	// InvoiceTotal is the last currency-marked amount anywhere in the
	// document text (text strategy only). Auxiliary metadata for
	// operator cross-checking; never validated against the line sum.
	InvoiceTotal *float64
	Pages        int
}
