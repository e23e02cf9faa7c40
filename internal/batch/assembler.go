// Package batch turns matched lines into a submission-ready order and
// submits it exactly once per confirmed action.
package batch

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/swagops/po-ingest/internal/common"
	"github.com/swagops/po-ingest/internal/entity"
	"github.com/swagops/po-ingest/internal/gateway"
)

// Guard errors; all must pass before Submit is invocable.
var (
	ErrNoDestination = errors.New("destination company is not set")
	ErrNoVendor      = errors.New("vendor is not set")
	ErrNoLines       = errors.New("no matched lines to submit")
	ErrPendingLines  = errors.New("unmatched lines are still pending")
)

type Assembler struct {
	gw     gateway.Gateway
	logger *slog.Logger
}

func NewAssembler(gw gateway.Gateway, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{gw: gw, logger: logger}
}

// Assemble merges first-pass matches and resolved lines into one order
// batch, in ascending source-row order so the downstream order mirrors
// the source document. pending is the number of lines still awaiting
// resolution; submission with pending lines is refused unless the
// operator explicitly accepted a partial batch.
func (a *Assembler) Assemble(matched []entity.MatchedLine, companyID, supplierID int64, pending int, acceptPartial bool) (entity.OrderBatch, error) {
	if companyID == 0 {
		return entity.OrderBatch{}, ErrNoDestination
	}
	if supplierID == 0 {
		return entity.OrderBatch{}, ErrNoVendor
	}
	if len(matched) == 0 {
		return entity.OrderBatch{}, ErrNoLines
	}
	if pending > 0 && !acceptPartial {
		return entity.OrderBatch{}, ErrPendingLines
	}

	lines := make([]entity.OrderLine, 0, len(matched))
	for _, m := range matched {
		line := entity.OrderLine{
			Description: m.Line.Description,
			Quantity:    m.Line.Quantity,
			UnitPrice:   m.Line.UnitPrice,
			SourceRow:   m.Line.SourceRow,
		}
		if m.Ref != nil {
			id := m.Ref.ID
			line.CatalogID = &id
		}
		lines = append(lines, line)
	}
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].SourceRow < lines[j].SourceRow
	})

	batch := entity.OrderBatch{
		ID:         uuid.New(),
		CompanyID:  companyID,
		SupplierID: supplierID,
		DateIssued: time.Now().UTC().Format("2006-01-02"),
		Lines:      lines,
	}
	a.logger.Info("batch.assembled",
		"batch_id", batch.ID,
		"company_id", companyID,
		"supplier_id", supplierID,
		"lines", len(lines),
		"total", batch.Total(),
	)
	return batch, nil
}

// Submit sends the batch in a single atomic gateway call. On failure
// nothing is recorded as sent and the same batch value can be
// resubmitted unchanged; the batch itself is never mutated.
func (a *Assembler) Submit(ctx context.Context, b entity.OrderBatch) (int64, error) {
	req := gateway.OrderRequest{
		SupplierID: b.SupplierID,
		CompanyID:  b.CompanyID,
		DateIssued: b.DateIssued,
		Lines:      b.Lines,
	}
	orderID, err := a.gw.CreateOrder(ctx, req, gateway.Scope{CompanyID: b.CompanyID})
	if err != nil {
		a.logger.Error("batch.submit.failed", "batch_id", b.ID, "error", err)
		return 0, common.NewSubmissionError(err)
	}
	a.logger.Info("batch.submit.ok", "batch_id", b.ID, "order_id", orderID, "lines", len(b.Lines))
	return orderID, nil
}
