package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// InvoiceConfig holds settings for the invoice-text strategy.
type InvoiceConfig struct {
	CurrencyMarker string // default "SR"
	Pdftotext      string // binary name or absolute path; if empty -> "pdftotext"
	MaxPages       int    // 0 = no limit
}

// InvoiceExtractor turns a semi-structured invoice document into
// candidate lines: PDFs are converted page-by-page to newline-preserving
// text first, plain text files are read as-is, then the line heuristic
// runs. No OCR: inputs are born-digital documents with a text layer.
type InvoiceExtractor struct {
	cfg       InvoiceConfig
	runner    Runner
	heuristic *TextHeuristic
	logger    *slog.Logger
}

func NewInvoiceExtractor(cfg InvoiceConfig, logger *slog.Logger) *InvoiceExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	return &InvoiceExtractor{
		cfg:       cfg,
		runner:    execRunner{},
		heuristic: NewTextHeuristic(cfg.CurrencyMarker, logger),
		logger:    logger,
	}
}

func (e *InvoiceExtractor) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()

	var text string
	var pages int
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		t, p, err := e.pdfToText(ctx, path)
		if err != nil {
			return Result{}, fmt.Errorf("pdf to text: %w", err)
		}
		text, pages = t, p
	default:
		b, err := os.ReadFile(path)
		if err != nil {
			return Result{}, fmt.Errorf("read text: %w", err)
		}
		text, pages = string(b), 1
	}

	res := e.heuristic.Parse(text)
	res.Pages = pages

	e.logger.Info("extract.invoice.ok",
		"path", path,
		"pages", pages,
		"lines", len(res.Lines),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (e *InvoiceExtractor) pdfToText(ctx context.Context, path string) (string, int, error) {
	args := []string{"-layout", "-enc", "UTF-8", "-eol", "unix"}
	if e.cfg.MaxPages > 0 {
		args = append(args, "-l", fmt.Sprintf("%d", e.cfg.MaxPages))
	}
	args = append(args, path, "-")
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, args...)
	if err != nil {
		return "", 0, fmt.Errorf("%s: %w: %s", e.cfg.Pdftotext, err, truncate(string(errb), 512))
	}
	text := string(out)
	// A form-feed \f is used as page separator by default
	pages := 1 + strings.Count(text, "\f")
	return text, pages, nil
}
