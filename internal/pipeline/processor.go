// Package pipeline coordinates extraction then matching for one source
// document. Resolution and submission stay operator-driven and are NOT
// called from here.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/swagops/po-ingest/internal/extract"
	"github.com/swagops/po-ingest/internal/gateway"
	"github.com/swagops/po-ingest/internal/match"
	"github.com/swagops/po-ingest/internal/store"
)

type Processor struct {
	Logger  *slog.Logger
	Tabular extract.LineExtractor
	Invoice extract.LineExtractor
	Matcher *match.Matcher
	Store   *store.Store // optional; nil disables bookkeeping
}

func NewProcessor(logger *slog.Logger, tabular, invoice extract.LineExtractor, matcher *match.Matcher, st *store.Store) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, Tabular: tabular, Invoice: invoice, Matcher: matcher, Store: st}
}

// Run extracts candidate lines with the strategy declared for the
// source, then runs the match pass. Extraction-time schema errors abort
// the whole pass; everything after that is row-scoped.
func (p *Processor) Run(ctx context.Context, path, source string, scope gateway.Scope) (extract.Result, match.PassResult, error) {
	var ex extract.LineExtractor
	switch source {
	case "tabular":
		ex = p.Tabular
	case "invoice":
		ex = p.Invoice
	default:
		return extract.Result{}, match.PassResult{}, fmt.Errorf("unknown source type %q", source)
	}

	res, err := ex.Extract(ctx, path)
	if err != nil {
		p.Logger.Error("processor.extract.failed", "path", path, "source", source, "err", err)
		return extract.Result{}, match.PassResult{}, err
	}
	p.Logger.Info("processor.extract.ok",
		"path", path,
		"source", source,
		"lines", len(res.Lines),
		"skipped", len(res.Skipped),
	)

	pass := p.Matcher.Run(ctx, res, scope)

	if p.Store != nil {
		run := store.IngestRun{
			ID:           uuid.New(),
			SourcePath:   path,
			SourceType:   res.Source,
			Extracted:    len(res.Lines),
			SkippedRows:  len(res.Skipped),
			Matched:      len(pass.Matched),
			Unmatched:    len(pass.Unmatched),
			InvoiceTotal: res.InvoiceTotal,
		}
		if err := p.Store.RecordIngest(ctx, run); err != nil {
			// Bookkeeping only; the pass result stands.
			p.Logger.Warn("processor.bookkeeping.failed", "err", err)
		}
	}
	return res, pass, nil
}
