// Package match resolves candidate lines against the external catalog.
package match

import (
	"context"
	"log/slog"
	"strings"

	"github.com/swagops/po-ingest/internal/common"
	"github.com/swagops/po-ingest/internal/entity"
	"github.com/swagops/po-ingest/internal/extract"
	"github.com/swagops/po-ingest/internal/gateway"
)

// PassResult is the outcome of one match pass over an extraction.
type PassResult struct {
	Matched   []entity.MatchedLine
	Unmatched []*entity.UnmatchedLine
	Lookups   int // gateway calls actually issued
	CacheHits int
}

type Matcher struct {
	gw     gateway.Gateway
	logger *slog.Logger
}

func NewMatcher(gw gateway.Gateway, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{gw: gw, logger: logger}
}

type cacheEntry struct {
	ref *entity.CatalogReference // nil = genuine not-found
}

// Run performs the match pass in source order, one lookup per coded
// line. A gateway error degrades that single row to unmatched and the
// pass continues; it never blocks on a failure. Invoice-text lines skip
// the identity step entirely and come back as header-only matched lines.
func (m *Matcher) Run(ctx context.Context, res extract.Result, scope gateway.Scope) PassResult {
	var out PassResult

	if res.Source == entity.SourceInvoice {
		for _, line := range res.Lines {
			out.Matched = append(out.Matched, entity.MatchedLine{Line: line})
		}
		m.logger.Info("match.pass.header_only", "lines", len(res.Lines))
		return out
	}

	// Hits and genuine not-founds are cached for the duration of the
	// pass; gateway errors are not, so a transient failure on one row
	// cannot poison a later row with the same code.
	cache := make(map[string]cacheEntry)

	for _, line := range res.Lines {
		code := strings.TrimSpace(line.Code)
		if code == "" {
			out.Unmatched = append(out.Unmatched, &entity.UnmatchedLine{
				Line:   line,
				Status: entity.StatusPending,
			})
			m.logger.Warn("match.no_code", "source_row", line.SourceRow)
			continue
		}

		if e, ok := cache[code]; ok {
			out.CacheHits++
			m.append(&out, line, e.ref, false)
			continue
		}

		ref, err := m.gw.LookupByCode(ctx, code, scope)
		out.Lookups++
		if err != nil {
			// Unreachable catalog, not a missing code. Same flow as
			// not-found, logged distinctly.
			m.logger.Error("match.lookup.failed",
				"source_row", line.SourceRow, "code", code,
				"error", common.NewLookupFailure(code, err))
			m.append(&out, line, nil, true)
			continue
		}
		cache[code] = cacheEntry{ref: ref}
		m.append(&out, line, ref, false)
	}

	m.logger.Info("match.pass.ok",
		"lines", len(res.Lines),
		"matched", len(out.Matched),
		"unmatched", len(out.Unmatched),
		"lookups", out.Lookups,
		"cache_hits", out.CacheHits,
	)
	return out
}

func (m *Matcher) append(out *PassResult, line entity.CandidateLine, ref *entity.CatalogReference, lookupFailed bool) {
	if ref != nil {
		out.Matched = append(out.Matched, entity.MatchedLine{Line: line, Ref: ref})
		m.logger.Debug("match.found", "source_row", line.SourceRow, "code", line.Code, "catalog_id", ref.ID)
		return
	}
	out.Unmatched = append(out.Unmatched, &entity.UnmatchedLine{
		Line:         line,
		Status:       entity.StatusPending,
		LookupFailed: lookupFailed,
	})
	if !lookupFailed {
		m.logger.Warn("match.not_found", "source_row", line.SourceRow, "code", line.Code)
	}
}
