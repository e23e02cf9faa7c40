package extract

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/swagops/po-ingest/internal/common"
	"github.com/swagops/po-ingest/internal/entity"
)

// Required column headers, exactly as the upstream export names them.
const (
	ColCode        = "order_line/product_id"
	ColDescription = "order_line/name"
	ColQuantity    = "order_line/product_uom_qty"
	ColPrice       = "order_line/price_unit"
)

// SchemaError reports required columns absent from a tabular source.
// Fatal to the extraction attempt; no partial result is produced.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

func (e *SchemaError) Unwrap() error { return common.ErrSchema }

// TabularExtractor decodes a rectangular spreadsheet with named columns
// into candidate lines. Rows whose quantity or price fail numeric
// coercion are dropped and reported, not errored.
type TabularExtractor struct {
	logger *slog.Logger
}

func NewTabularExtractor(logger *slog.Logger) *TabularExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &TabularExtractor{logger: logger}
}

func (e *TabularExtractor) Extract(ctx context.Context, path string) (Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("open workbook: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			e.logger.Warn("extract.tabular.close_failed", "path", path, "error", cerr)
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Result{}, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Result{}, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return Result{}, &SchemaError{Missing: requiredColumns()}
	}

	cols, missing := headerIndex(rows[0])
	if len(missing) > 0 {
		return Result{}, &SchemaError{Missing: missing}
	}

	res := Result{Source: entity.SourceTabular}
	for i, row := range rows[1:] {
		// Header occupies row 1, so the first data row is row 2.
		sourceRow := i + 2

		code := strings.TrimSpace(cell(row, cols[ColCode]))
		desc := cell(row, cols[ColDescription])
		qtyRaw := strings.TrimSpace(cell(row, cols[ColQuantity]))
		priceRaw := strings.TrimSpace(cell(row, cols[ColPrice]))

		if code == "" && desc == "" && qtyRaw == "" && priceRaw == "" {
			e.logger.Debug("extract.tabular.empty_row", "source_row", sourceRow)
			continue
		}

		qty, qerr := parseNumeric(qtyRaw)
		price, perr := parseNumeric(priceRaw)
		reason := ""
		switch {
		case qerr != nil:
			reason = fmt.Sprintf("quantity %q is not numeric", qtyRaw)
		case perr != nil:
			reason = fmt.Sprintf("unit price %q is not numeric", priceRaw)
		case qty <= 0:
			reason = fmt.Sprintf("quantity %v must be positive", qty)
		case price < 0:
			reason = fmt.Sprintf("unit price %v must not be negative", price)
		}
		if reason != "" {
			res.Skipped = append(res.Skipped, SkippedRow{SourceRow: sourceRow, Reason: reason})
			e.logger.Warn("extract.tabular.row_skipped", "source_row", sourceRow, "reason", reason)
			continue
		}

		res.Lines = append(res.Lines, entity.CandidateLine{
			SourceRow:   sourceRow,
			Code:        code,
			Description: desc,
			Quantity:    qty,
			UnitPrice:   price,
		})
	}

	e.logger.Info("extract.tabular.ok",
		"path", path,
		"rows", len(rows)-1,
		"lines", len(res.Lines),
		"skipped", len(res.Skipped),
	)
	return res, nil
}

func requiredColumns() []string {
	return []string{ColCode, ColDescription, ColQuantity, ColPrice}
}

// headerIndex maps required column names to their positions. Missing
// names are returned sorted so error output is stable.
func headerIndex(header []string) (map[string]int, []string) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	cols := make(map[string]int, 4)
	var missing []string
	for _, name := range requiredColumns() {
		i, ok := idx[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		cols[name] = i
	}
	sort.Strings(missing)
	return cols, missing
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func parseNumeric(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty")
	}
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
}
