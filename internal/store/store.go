// Package store keeps durable bookkeeping for ingest runs and accepted
// submissions. It is an audit trail, not engine state: the resolution
// session itself lives in memory only.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/swagops/po-ingest/internal/entity"
)

type Store struct {
	db       *sql.DB
	pool     *pgxpool.Pool // nil for sqlite
	postgres bool
	logger   *slog.Logger
}

// Open connects by DSN: postgres:// DSNs get a pgx pool wrapped for
// database/sql, anything else is treated as a local sqlite file path.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		pc, err := pgxpool.ParseConfig(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse dsn: %w", err)
		}
		pc.ConnConfig.RuntimeParams["application_name"] = "po-ingest"
		pool, err := pgxpool.NewWithConfig(ctx, pc)
		if err != nil {
			return nil, fmt.Errorf("connect: %w", err)
		}
		s := &Store{db: stdlib.OpenDBFromPool(pool), pool: pool, postgres: true, logger: logger}
		logger.Info("store.open", "driver", "postgres")
		return s, nil
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	logger.Info("store.open", "driver", "sqlite", "path", dsn)
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database connections gracefully
func (s *Store) Close() {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("store.close.failed", "error", err)
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) Ping(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return s.db.PingContext(ctx)
}

// Migrate creates the bookkeeping tables. Column types are kept to the
// portable subset both backends accept.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ingest_runs (
			id TEXT PRIMARY KEY,
			source_path TEXT NOT NULL,
			source_type TEXT NOT NULL,
			extracted INTEGER NOT NULL,
			skipped_rows INTEGER NOT NULL,
			matched INTEGER NOT NULL,
			unmatched INTEGER NOT NULL,
			invoice_total REAL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS submissions (
			id TEXT PRIMARY KEY,
			order_id INTEGER NOT NULL,
			company_id INTEGER NOT NULL,
			supplier_id INTEGER NOT NULL,
			line_count INTEGER NOT NULL,
			total REAL NOT NULL,
			created_at TEXT NOT NULL
		)`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// IngestRun is one extraction + match pass over a source document.
type IngestRun struct {
	ID           uuid.UUID
	SourcePath   string
	SourceType   entity.SourceType
	Extracted    int
	SkippedRows  int
	Matched      int
	Unmatched    int
	InvoiceTotal *float64
	CreatedAt    time.Time
}

func (s *Store) RecordIngest(ctx context.Context, run IngestRun) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	q := s.rebind(`INSERT INTO ingest_runs
		(id, source_path, source_type, extracted, skipped_rows, matched, unmatched, invoice_total, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, q,
		run.ID.String(), run.SourcePath, string(run.SourceType),
		run.Extracted, run.SkippedRows, run.Matched, run.Unmatched,
		run.InvoiceTotal, run.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		s.logger.Error("store.ingest.failed", "run_id", run.ID, "error", err)
		return err
	}
	return nil
}

// Submission records an order the gateway accepted. Written only after
// acceptance, so a failed submit leaves no trace here and the batch can
// be retried unchanged.
type Submission struct {
	ID         uuid.UUID
	OrderID    int64
	CompanyID  int64
	SupplierID int64
	LineCount  int
	Total      float64
	CreatedAt  time.Time
}

func (s *Store) RecordSubmission(ctx context.Context, sub Submission) error {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	q := s.rebind(`INSERT INTO submissions
		(id, order_id, company_id, supplier_id, line_count, total, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, q,
		sub.ID.String(), sub.OrderID, sub.CompanyID, sub.SupplierID,
		sub.LineCount, sub.Total, sub.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		s.logger.Error("store.submission.failed", "batch_id", sub.ID, "error", err)
		return err
	}
	return nil
}

func (s *Store) ListSubmissions(ctx context.Context, limit int) ([]Submission, error) {
	if limit <= 0 {
		limit = 50
	}
	q := s.rebind(`SELECT id, order_id, company_id, supplier_id, line_count, total, created_at
		FROM submissions ORDER BY created_at DESC LIMIT ?`)
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Submission
	for rows.Next() {
		var sub Submission
		var id, created string
		if err := rows.Scan(&id, &sub.OrderID, &sub.CompanyID, &sub.SupplierID, &sub.LineCount, &sub.Total, &created); err != nil {
			return nil, err
		}
		if u, err := uuid.Parse(id); err == nil {
			sub.ID = u
		}
		if t, err := time.Parse(time.RFC3339, created); err == nil {
			sub.CreatedAt = t
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *Store) rebind(q string) string {
	if !s.postgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
