package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/swagops/po-ingest/internal/common"
)

var (
	verbose bool
	envFile string

	cfg    *common.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "poctl",
	Short: "Turn vendor order sheets into draft purchase orders",
	Long: `poctl ingests a vendor-supplied document (an order spreadsheet or a
semi-structured invoice), reconciles each line against the product
catalog, walks you through the lines it could not match, and submits
the result as one draft purchase order.

Connection settings come from the environment (or a .env file):
ODOO_URL, ODOO_DB, ODOO_USERNAME, ODOO_API_KEY.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if envFile != "" {
			if err := godotenv.Load(envFile); err != nil {
				fmt.Fprintf(os.Stderr, "warning: load %s: %v\n", envFile, err)
			}
		} else {
			_ = godotenv.Load()
		}

		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)

		cfg = common.LoadConfig()
	},
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "path to a .env file (default: ./.env if present)")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
