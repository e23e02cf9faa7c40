package odoo

import (
	"os"
	"time"
)

// Config for the Odoo XML-RPC client.
type Config struct {
	URL      string        // e.g. https://example.odoo.com; falls back to env ODOO_URL
	Database string        // falls back to env ODOO_DB
	Username string        // falls back to env ODOO_USERNAME
	APIKey   string        // falls back to env ODOO_API_KEY
	Timeout  time.Duration // per-call transport timeout
}

func (c Config) withDefaults() Config {
	if c.URL == "" {
		c.URL = os.Getenv("ODOO_URL")
	}
	if c.Database == "" {
		c.Database = os.Getenv("ODOO_DB")
	}
	if c.Username == "" {
		c.Username = os.Getenv("ODOO_USERNAME")
	}
	if c.APIKey == "" {
		c.APIKey = os.Getenv("ODOO_API_KEY")
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return c
}
