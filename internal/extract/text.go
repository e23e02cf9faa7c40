package extract

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/swagops/po-ingest/internal/entity"
)

// TextHeuristic extracts line items from the raw text of a known
// semi-structured invoice layout. It is a best-effort, non-exhaustive
// heuristic: lines that do not fit the expected shape contribute
// nothing and no error is raised. Do not expect it to recover every
// line of an arbitrary document; that is outside its contract.
//
// Per line, the rule set is:
//  1. the line must carry at least one currency-marked amount; the
//     rightmost amount is the unit price (invoice layouts place unit
//     price after other totals),
//  2. a bare integer immediately following the price text is the
//     quantity; if several integers follow, the adjacent one wins
//     (deterministic tie-break) and the rest are ignored,
//  3. the last remaining token containing a letter is the
//     description/code field (model codes sit at line end by
//     convention).
type TextHeuristic struct {
	marker   string
	amountRe *regexp.Regexp
	logger   *slog.Logger
}

var qtyRe = regexp.MustCompile(`^[ \t]*([0-9]+)([ \t]|$)`)

func NewTextHeuristic(marker string, logger *slog.Logger) *TextHeuristic {
	if marker == "" {
		marker = "SR"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TextHeuristic{
		marker:   marker,
		amountRe: regexp.MustCompile(regexp.QuoteMeta(marker) + `[ \t]*([0-9][0-9,]*(?:\.[0-9]+)?)`),
		logger:   logger,
	}
}

// Parse walks the document text line by line. Line numbers are 1-based
// positions in the concatenated, newline-preserving text.
func (h *TextHeuristic) Parse(text string) Result {
	res := Result{Source: entity.SourceInvoice}

	for i, line := range strings.Split(text, "\n") {
		if !strings.Contains(line, h.marker) {
			continue
		}
		cand, ok := h.parseLine(i+1, line)
		if !ok {
			continue
		}
		res.Lines = append(res.Lines, cand)
	}

	// Document-level total: the last currency-marked amount anywhere in
	// the text. Metadata only; never reconciled against the line sum.
	if all := h.amountRe.FindAllStringSubmatch(text, -1); len(all) > 0 {
		if v, err := parseAmount(all[len(all)-1][1]); err == nil {
			res.InvoiceTotal = &v
		}
	}

	h.logger.Info("extract.text.ok",
		"lines", len(res.Lines),
		"has_invoice_total", res.InvoiceTotal != nil,
	)
	return res
}

func (h *TextHeuristic) parseLine(lineNo int, line string) (entity.CandidateLine, bool) {
	amounts := h.amountRe.FindAllStringSubmatchIndex(line, -1)
	if len(amounts) == 0 {
		return entity.CandidateLine{}, false
	}
	last := amounts[len(amounts)-1]
	price, err := parseAmount(line[last[2]:last[3]])
	if err != nil {
		return entity.CandidateLine{}, false
	}

	// Quantity must sit right after the matched price text. A price
	// without an adjacent quantity is not a line item.
	rest := line[last[1]:]
	qm := qtyRe.FindStringSubmatchIndex(rest)
	if qm == nil {
		return entity.CandidateLine{}, false
	}
	qty, err := strconv.ParseFloat(rest[qm[2]:qm[3]], 64)
	if err != nil || qty <= 0 {
		return entity.CandidateLine{}, false
	}

	// Blank out every currency-marked amount and the quantity token,
	// then pick the last remaining token containing a letter.
	masked := []byte(line)
	for _, m := range amounts {
		blank(masked, m[0], m[1])
	}
	blank(masked, last[1]+qm[2], last[1]+qm[3])

	desc := ""
	for _, tok := range strings.Fields(string(masked)) {
		if tok == h.marker || !hasLetter(tok) {
			continue
		}
		desc = tok
	}
	if desc == "" {
		return entity.CandidateLine{}, false
	}

	return entity.CandidateLine{
		SourceRow:   lineNo,
		Description: desc,
		Quantity:    qty,
		UnitPrice:   price,
	}, true
}

func blank(b []byte, from, to int) {
	for i := from; i < to && i < len(b); i++ {
		b[i] = ' '
	}
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func parseAmount(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
}
