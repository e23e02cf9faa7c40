package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/swagops/po-ingest/internal/gateway/odoo"
)

var companiesCmd = &cobra.Command{
	Use:   "companies",
	Short: "List the companies the gateway account can order into",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateGateway(); err != nil {
			return err
		}
		gw := odoo.NewClient(odoo.Config{
			URL:      cfg.Gateway.URL,
			Database: cfg.Gateway.Database,
			Username: cfg.Gateway.Username,
			APIKey:   cfg.Gateway.APIKey,
			Timeout:  cfg.Gateway.Timeout,
		}, logger)

		companies, err := gw.ListCompanies(context.Background())
		if err != nil {
			return err
		}
		for _, c := range companies {
			fmt.Printf("%6d  %s\n", c.ID, c.Name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(companiesCmd)
}
