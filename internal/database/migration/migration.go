package migration

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id           TEXT        PRIMARY KEY,
  file_name    TEXT,
  file_path    TEXT,
  file_size    BIGINT,
  file_type    TEXT,
  status       TEXT,
  metadata     JSONB,
  raw_json     JSONB,
  created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
  processed_at TIMESTAMPTZ
);`,
	},
	{
		Name: "create_table_vendors",
		SQL: `CREATE TABLE IF NOT EXISTS vendors (
  id           UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
  name         TEXT NOT NULL UNIQUE,
  party_number TEXT,
  address      TEXT,
  tax_id       TEXT
);`,
	},
	{
		Name: "create_table_customers",
		SQL: `CREATE TABLE IF NOT EXISTS customers (
  id      UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
  name    TEXT,
  address TEXT
);`,
	},
	{
		Name: "create_table_invoices",
		SQL: `CREATE TABLE IF NOT EXISTS invoices (
  id              UUID             PRIMARY KEY DEFAULT uuid_generate_v4(),
  document_id     TEXT             NOT NULL REFERENCES documents (id),
  invoice_id_text TEXT,
  invoice_date    TIMESTAMPTZ,
  delivery_date   TIMESTAMPTZ,
  subtotal        DOUBLE PRECISION,
  total_tax       DOUBLE PRECISION,
  invoice_total   DOUBLE PRECISION,
  currency        TEXT,
  document_type   TEXT,
  vendor_id       UUID REFERENCES vendors (id),
  customer_id     UUID REFERENCES customers (id),
  created_at      TIMESTAMPTZ      NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_line_items",
		SQL: `CREATE TABLE IF NOT EXISTS line_items (
  id            UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
  invoice_id    UUID NOT NULL REFERENCES invoices (id) ON DELETE CASCADE,
  sr_no         DOUBLE PRECISION,
  description   TEXT,
  quantity      DOUBLE PRECISION,
  unit_price    DOUBLE PRECISION,
  total_price   DOUBLE PRECISION,
  sachkonto     TEXT,
  bu_schluessel TEXT,
  vat_rate      DOUBLE PRECISION,
  vat_amount    DOUBLE PRECISION
);`,
	},
	{
		Name: "create_table_payments",
		SQL: `CREATE TABLE IF NOT EXISTS payments (
  id                  UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
  invoice_id          UUID NOT NULL UNIQUE REFERENCES invoices (id) ON DELETE CASCADE,
  due_date            TIMESTAMPTZ,
  payment_terms       TEXT,
  bank_account        TEXT,
  bic                 TEXT,
  account_name        TEXT,
  net_days            INTEGER,
  discount_percentage DOUBLE PRECISION,
  discount_days       INTEGER,
  discounted_total    DOUBLE PRECISION
);`,
	},
	{
		Name: "create_index_invoices_document_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_invoices_document_id ON invoices (document_id);`,
	},
	{
		Name: "create_index_invoices_invoice_date",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_invoices_invoice_date ON invoices (invoice_date);`,
	},
	{
		Name: "create_index_invoices_vendor_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_invoices_vendor_id ON invoices (vendor_id);`,
	},
	{
		Name: "create_index_line_items_invoice_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_line_items_invoice_id ON line_items (invoice_id);`,
	},
}

// EnsureMigrated checks if the 'payments' table exists and runs migrations if it doesn't.
// payments is created last, so its presence means every table is in place.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *slog.Logger, dbHost string) error {
	start := time.Now()
	log = log.With("component", "database", "db_host", dbHost)

	log.Info("db migration check", "event", "db_migration_check", "status", "starting")

	var exists bool
	query := "SELECT to_regclass('public.payments') IS NOT NULL"
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		log.Error("db migration failed",
			"event", "db_migration_failed",
			"status", "error",
			"error_message", fmt.Sprintf("failed to check sentinel table: %v", err),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info("schema already exists, skipping migration",
			"event", "db_migration_skip",
			"status", "success",
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil
	}

	log.Info("db migration start", "event", "db_migration_start", "status", "in_progress")

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error("db migration failed",
				"event", "db_migration_failed",
				"status", "error",
				"migration_step", step.Name,
				"error_message", err.Error(),
				"duration_ms", time.Since(start).Milliseconds(),
				"step_duration_ms", time.Since(stepStart).Milliseconds(),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Info("db migration step",
			"event", "db_migration_step",
			"status", "success",
			"migration_step", step.Name,
			"step_duration_ms", time.Since(stepStart).Milliseconds(),
		)
	}

	log.Info("db migration success",
		"event", "db_migration_success",
		"status", "success",
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
