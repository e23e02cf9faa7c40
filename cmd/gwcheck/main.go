// gwcheck is a one-shot connectivity probe for the catalog & order
// gateway: authenticate, list companies, exit non-zero on failure.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/swagops/po-ingest/internal/common"
	"github.com/swagops/po-ingest/internal/gateway/odoo"
)

func main() {
	var (
		envFile = flag.String("env-file", "", "path to a .env file (default: ./.env if present)")
		timeout = flag.Duration("timeout", 15*time.Second, "overall probe timeout")
	)
	flag.Parse()

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			fmt.Fprintf(os.Stderr, "load %s: %v\n", *envFile, err)
			os.Exit(1)
		}
	} else {
		_ = godotenv.Load()
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	cfg := common.LoadConfig()
	if err := cfg.ValidateGateway(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	gw := odoo.NewClient(odoo.Config{
		URL:      cfg.Gateway.URL,
		Database: cfg.Gateway.Database,
		Username: cfg.Gateway.Username,
		APIKey:   cfg.Gateway.APIKey,
		Timeout:  cfg.Gateway.Timeout,
	}, logger)

	uid, err := gw.Authenticate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "authenticate: %v\n", err)
		os.Exit(1)
	}
	companies, err := gw.ListCompanies(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list companies: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("gateway OK (uid %d, %d companies visible)\n", uid, len(companies))
}
