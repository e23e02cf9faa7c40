package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/swagops/po-ingest/internal/batch"
	"github.com/swagops/po-ingest/internal/extract"
	"github.com/swagops/po-ingest/internal/gateway"
	"github.com/swagops/po-ingest/internal/gateway/odoo"
	"github.com/swagops/po-ingest/internal/match"
	"github.com/swagops/po-ingest/internal/pipeline"
	"github.com/swagops/po-ingest/internal/resolve"
	"github.com/swagops/po-ingest/internal/store"
)

var (
	flagSource        string
	flagCompany       int64
	flagSupplier      int64
	flagAttrMap       string
	flagAcceptPartial bool
	flagDryRun        bool
	flagYes           bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Extract, match, resolve and submit one source document",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&flagSource, "source", "", "source type: tabular or invoice (default: by file extension)")
	ingestCmd.Flags().Int64Var(&flagCompany, "company", 0, "destination company id (default: PO_COMPANY_ID)")
	ingestCmd.Flags().Int64Var(&flagSupplier, "supplier", 0, "vendor/supplier id (default: PO_SUPPLIER_ID)")
	ingestCmd.Flags().StringVar(&flagAttrMap, "attr-map", "", "attribute-mapping overrides file (JSON)")
	ingestCmd.Flags().BoolVar(&flagAcceptPartial, "accept-partial", false, "allow submission while unmatched lines are still pending")
	ingestCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "extract only; no gateway calls, nothing submitted")
	ingestCmd.Flags().BoolVar(&flagYes, "yes", false, "submit without the confirmation prompt")
	rootCmd.AddCommand(ingestCmd)
}

func sourceForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		return "tabular"
	case ".pdf", ".txt":
		return "invoice"
	}
	return ""
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	path := args[0]

	source := flagSource
	if source == "" {
		source = sourceForPath(path)
	}
	if source != "tabular" && source != "invoice" {
		return fmt.Errorf("cannot infer source type for %q; pass --source tabular|invoice", path)
	}

	tabular := extract.NewTabularExtractor(logger)
	invoice := extract.NewInvoiceExtractor(extract.InvoiceConfig{
		CurrencyMarker: cfg.Extract.CurrencyMarker,
		Pdftotext:      cfg.Extract.Pdftotext,
		MaxPages:       cfg.Extract.MaxPages,
	}, logger)

	if flagDryRun {
		var ex extract.LineExtractor = tabular
		if source == "invoice" {
			ex = invoice
		}
		res, err := ex.Extract(ctx, path)
		if err != nil {
			return err
		}
		printExtraction(res)
		return nil
	}

	if err := cfg.ValidateGateway(); err != nil {
		return err
	}
	companyID := flagCompany
	if companyID == 0 {
		companyID = cfg.Defaults.CompanyID
	}
	if companyID == 0 {
		return fmt.Errorf("no destination company; pass --company or set PO_COMPANY_ID (see: poctl companies)")
	}
	supplierID := flagSupplier
	if supplierID == 0 {
		supplierID = cfg.Defaults.SupplierID
	}

	gw := odoo.NewClient(odoo.Config{
		URL:      cfg.Gateway.URL,
		Database: cfg.Gateway.Database,
		Username: cfg.Gateway.Username,
		APIKey:   cfg.Gateway.APIKey,
		Timeout:  cfg.Gateway.Timeout,
	}, logger)
	scope := gateway.Scope{CompanyID: companyID}

	st, err := store.Open(ctx, cfg.Store.DSN, logger)
	if err != nil {
		return fmt.Errorf("open bookkeeping store: %w", err)
	}
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate bookkeeping store: %w", err)
	}

	proc := pipeline.NewProcessor(logger, tabular, invoice, match.NewMatcher(gw, logger), st)
	res, pass, err := proc.Run(ctx, path, source, scope)
	if err != nil {
		return err
	}
	printExtraction(res)
	fmt.Printf("matched %d/%d lines, %d unmatched\n", len(pass.Matched), len(res.Lines), len(pass.Unmatched))

	attrMapPath := flagAttrMap
	if attrMapPath == "" {
		attrMapPath = cfg.Defaults.AttrMap
	}
	mapping, err := resolve.LoadMapping(attrMapPath)
	if err != nil {
		return err
	}

	session := resolve.NewSession(gw, scope, mapping, pass.Unmatched, logger)
	reader := bufio.NewReader(os.Stdin)
	if !session.Empty() {
		fmt.Printf("\n%d line(s) have no catalog match; resolve them one by one.\n", session.Len())
		resolveLoop(ctx, session, reader)
	}

	matched := append(pass.Matched, session.Resolved()...)
	assembler := batch.NewAssembler(gw, logger)
	b, err := assembler.Assemble(matched, companyID, supplierID, session.Len(), flagAcceptPartial)
	if err != nil {
		return err
	}

	fmt.Printf("\nready to submit: %d line(s), company %d, supplier %d, total %.2f\n",
		len(b.Lines), b.CompanyID, b.SupplierID, b.Total())
	if !flagYes {
		if !confirm(reader, "create draft purchase order?") {
			fmt.Println("not submitted")
			return nil
		}
	}

	orderID, err := assembler.Submit(ctx, b)
	if err != nil {
		return err
	}
	if err := st.RecordSubmission(ctx, store.Submission{
		ID:         b.ID,
		OrderID:    orderID,
		CompanyID:  b.CompanyID,
		SupplierID: b.SupplierID,
		LineCount:  len(b.Lines),
		Total:      b.Total(),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "warning: submission accepted but not recorded locally: %v\n", err)
	}
	fmt.Printf("draft purchase order created: id %d\n", orderID)
	return nil
}

func resolveLoop(ctx context.Context, session *resolve.Session, reader *bufio.Reader) {
	for !session.Empty() {
		cur, ok := session.Current()
		if !ok {
			return
		}
		fmt.Printf("\nrow %d: code=%q  %s  qty=%v  price=%v",
			cur.Line.SourceRow, cur.Line.Code, cur.Line.Description, cur.Line.Quantity, cur.Line.UnitPrice)
		if cur.LookupFailed {
			fmt.Printf("  (catalog was unreachable for this lookup)")
		}
		fmt.Printf("\n[%d pending]  (c)reate / (s)kip / (q)uit: ", session.Len())

		switch readLine(reader) {
		case "c", "create":
			draft := promptDraft(reader, session.DraftFor(cur))
			if _, err := session.Create(ctx, draft); err != nil {
				fmt.Printf("creation failed: %v\nthe line stays where it was; retry or skip.\n", err)
			}
		case "s", "skip":
			session.Skip()
		case "q", "quit":
			fmt.Printf("abandoning resolution with %d line(s) still pending\n", session.Len())
			return
		default:
			fmt.Println("enter c, s or q")
		}
	}
}

func promptDraft(reader *bufio.Reader, draft resolve.EntryDraft) resolve.EntryDraft {
	draft.Name = promptString(reader, "name", draft.Name)
	draft.Code = promptString(reader, "code", draft.Code)
	draft.Barcode = promptString(reader, "barcode", "")
	draft.LegacyCode = promptString(reader, "legacy code", "")
	draft.Season = promptString(reader, "season", "")
	draft.Brand = promptString(reader, "brand", "")
	draft.Cost = promptFloat(reader, "cost", 0)
	draft.SalePrice = promptFloat(reader, "sale price", 0)
	return draft
}

func printExtraction(res extract.Result) {
	fmt.Printf("extracted %d line(s)\n", len(res.Lines))
	for _, sk := range res.Skipped {
		fmt.Printf("  row %d skipped: %s\n", sk.SourceRow, sk.Reason)
	}
	if res.InvoiceTotal != nil {
		fmt.Printf("invoice total (document metadata, not validated): %.2f\n", *res.InvoiceTotal)
	}
}

func readLine(reader *bufio.Reader) string {
	s, _ := reader.ReadString('\n')
	return strings.ToLower(strings.TrimSpace(s))
}

func promptString(reader *bufio.Reader, label, def string) string {
	if def != "" {
		fmt.Printf("  %s [%s]: ", label, def)
	} else {
		fmt.Printf("  %s: ", label)
	}
	s, _ := reader.ReadString('\n')
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}

func promptFloat(reader *bufio.Reader, label string, def float64) float64 {
	for {
		s := promptString(reader, label, "")
		if s == "" {
			return def
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
		if err != nil {
			fmt.Println("  not a number, try again")
			continue
		}
		return v
	}
}

func confirm(reader *bufio.Reader, q string) bool {
	fmt.Printf("%s [y/N]: ", q)
	switch readLine(reader) {
	case "y", "yes":
		return true
	}
	return false
}
