// Package resolve implements the one-by-one workflow over unmatched
// lines: each line is presented to the operator, who either creates a
// catalog entry for it or defers it for later.
package resolve

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/swagops/po-ingest/internal/common"
	"github.com/swagops/po-ingest/internal/entity"
	"github.com/swagops/po-ingest/internal/gateway"
)

// EntryDraft is what the operator fills in to create a catalog entry.
// Cost and SalePrice are catalog prices; the quantity and unit price of
// the originating order line are never part of the creation payload.
type EntryDraft struct {
	Name       string
	Code       string
	Barcode    string
	LegacyCode string
	Season     string
	Brand      string
	Cost       float64
	SalePrice  float64
}

// Session is the stateful workflow over the unmatched queue. It is
// single-owner: one operator action at a time, never mutated
// concurrently. A session is derived fresh from every ingest; there is
// no cross-document carryover. Abandoning it simply discards the
// in-memory state.
type Session struct {
	id       uuid.UUID
	gw       gateway.Gateway
	scope    gateway.Scope
	mapping  Mapping
	queue    []*entity.UnmatchedLine
	cursor   int
	resolved []entity.MatchedLine
	logger   *slog.Logger
}

func NewSession(gw gateway.Gateway, scope gateway.Scope, mapping Mapping, unmatched []*entity.UnmatchedLine, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		id:      uuid.New(),
		gw:      gw,
		scope:   scope,
		mapping: mapping,
		queue:   unmatched,
		cursor:  0,
		logger:  logger,
	}
}

func (s *Session) ID() uuid.UUID { return s.id }

// Empty reports whether the queue has drained; terminal-success for
// this stage.
func (s *Session) Empty() bool { return len(s.queue) == 0 }

func (s *Session) Len() int { return len(s.queue) }

func (s *Session) Cursor() int { return s.cursor }

// Resolved returns the matched lines accumulated from creations.
func (s *Session) Resolved() []entity.MatchedLine { return s.resolved }

// Current returns the line being presented to the operator. Presenting
// a deferred line puts it back to pending.
func (s *Session) Current() (*entity.UnmatchedLine, bool) {
	if s.Empty() {
		return nil, false
	}
	cur := s.queue[s.cursor]
	cur.Status = entity.StatusPending
	return cur, true
}

// DraftFor prefills a creation draft from an unmatched line: the code
// defaults to the original unmatched code (editable), everything else
// starts blank.
func (s *Session) DraftFor(line *entity.UnmatchedLine) EntryDraft {
	return EntryDraft{
		Code: strings.TrimSpace(line.Line.Code),
	}
}

// Skip defers the current line: the cursor advances to the next pending
// line modulo queue length, nothing is removed. With a single-item
// queue the skip wraps to itself.
func (s *Session) Skip() {
	if s.Empty() {
		return
	}
	cur := s.queue[s.cursor]
	cur.Status = entity.StatusSkipped
	s.cursor = (s.cursor + 1) % len(s.queue)
	s.logger.Info("resolve.skip",
		"session_id", s.id,
		"source_row", cur.Line.SourceRow,
		"cursor", s.cursor,
		"queue_len", len(s.queue),
	)
}

// Create submits a catalog-entry creation for the current line. On
// success the line leaves the queue, a MatchedLine with the new
// reference is accumulated, and the cursor resets to the head. On
// failure the queue is untouched and the same line stays presented:
// the operator may retry or skip.
func (s *Session) Create(ctx context.Context, draft EntryDraft) (entity.MatchedLine, error) {
	if s.Empty() {
		return entity.MatchedLine{}, common.NewAppError("SESSION_EMPTY", "no unmatched lines to resolve", common.ErrInvalidInput)
	}
	cur := s.queue[s.cursor]

	// The catalog schema is introspected once per creation call; no
	// caching across calls, the remote schema may change between them.
	fields, err := s.gw.CatalogSchemaFields(ctx, s.scope)
	if err != nil {
		return entity.MatchedLine{}, common.NewCreationFailure(draft.Name, err)
	}

	attrs := buildAttributes(draft, fields, s.mapping)
	ref, err := s.gw.CreateCatalogEntry(ctx, attrs, s.scope)
	if err != nil {
		s.logger.Error("resolve.create.failed",
			"session_id", s.id,
			"source_row", cur.Line.SourceRow,
			"name", draft.Name,
			"error", err,
		)
		return entity.MatchedLine{}, common.NewCreationFailure(draft.Name, err)
	}

	cur.Status = entity.StatusResolved
	s.queue = append(s.queue[:s.cursor], s.queue[s.cursor+1:]...)
	s.cursor = 0

	matched := entity.MatchedLine{Line: cur.Line, Ref: &ref}
	s.resolved = append(s.resolved, matched)

	s.logger.Info("resolve.create.ok",
		"session_id", s.id,
		"source_row", cur.Line.SourceRow,
		"catalog_id", ref.ID,
		"remaining", len(s.queue),
	)
	return matched, nil
}

// buildAttributes maps a draft onto catalog create attributes. Core
// fields go in directly; supplemental fields are written only if the
// schema snapshot exposes a recognized attribute name for them.
func buildAttributes(draft EntryDraft, fields map[string]struct{}, mapping Mapping) map[string]any {
	attrs := map[string]any{
		"name": draft.Name,
	}
	if draft.Code != "" {
		attrs["default_code"] = draft.Code
	}
	if draft.Barcode != "" {
		attrs["barcode"] = draft.Barcode
	}
	if draft.Cost > 0 {
		attrs["standard_price"] = draft.Cost
	}
	if draft.SalePrice > 0 {
		attrs["list_price"] = draft.SalePrice
	}
	mapping.Apply(attrs, fields, map[string]string{
		AttrLegacyCode: draft.LegacyCode,
		AttrSeason:     draft.Season,
		AttrBrand:      draft.Brand,
	})
	return attrs
}
