package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"invoiceanalytics/internal/model"
	"invoiceanalytics/internal/repository"
)

// ImportPostgres is a PostgreSQL implementation of repository.ImportRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type ImportPostgres struct {
	db *sql.DB
}

// NewImportPostgres creates a new ImportPostgres repository.
func NewImportPostgres(db *sql.DB) *ImportPostgres {
	return &ImportPostgres{db: db}
}

var _ repository.ImportRepository = (*ImportPostgres)(nil)

// WithinTx runs fn inside a single transaction.
func (r *ImportPostgres) WithinTx(ctx context.Context, fn func(ctx context.Context, w repository.ImportWriter) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(ctx, &importWriter{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type importWriter struct {
	q querier
}

var _ repository.ImportWriter = (*importWriter)(nil)

func (w *importWriter) UpsertVendor(ctx context.Context, v *model.Vendor) (string, error) {
	const q = `
		INSERT INTO vendors (id, name, party_number, address, tax_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE SET
			party_number = COALESCE(EXCLUDED.party_number, vendors.party_number),
			address      = COALESCE(EXCLUDED.address, vendors.address),
			tax_id       = COALESCE(EXCLUDED.tax_id, vendors.tax_id)
		RETURNING id
	`
	var id string
	err := w.q.QueryRowContext(ctx, q,
		idOrNew(v.ID),
		v.Name,
		v.PartyNumber,
		v.Address,
		v.TaxID,
	).Scan(&id)
	return id, err
}

func (w *importWriter) CreateCustomer(ctx context.Context, c *model.Customer) (string, error) {
	const q = `
		INSERT INTO customers (id, name, address)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	var id string
	err := w.q.QueryRowContext(ctx, q, idOrNew(c.ID), c.Name, c.Address).Scan(&id)
	return id, err
}

// UpsertDocument never rewrites created_at of an existing row.
func (w *importWriter) UpsertDocument(ctx context.Context, d *model.Document) (string, error) {
	const q = `
		INSERT INTO documents (id, file_name, file_path, file_size, file_type, status, metadata, raw_json, created_at, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			file_name    = EXCLUDED.file_name,
			file_path    = EXCLUDED.file_path,
			file_size    = EXCLUDED.file_size,
			file_type    = EXCLUDED.file_type,
			status       = EXCLUDED.status,
			metadata     = EXCLUDED.metadata,
			raw_json     = EXCLUDED.raw_json,
			processed_at = EXCLUDED.processed_at
		RETURNING id
	`
	var id string
	err := w.q.QueryRowContext(ctx, q,
		d.ID,
		d.FileName,
		d.FilePath,
		d.FileSize,
		d.FileType,
		d.Status,
		jsonArg(d.Metadata),
		jsonArg(d.RawJSON),
		timeOrNow(d.CreatedAt),
		d.ProcessedAt,
	).Scan(&id)
	return id, err
}

func (w *importWriter) InvoiceExistsForDocument(ctx context.Context, documentID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM invoices WHERE document_id = $1)`
	var exists bool
	err := w.q.QueryRowContext(ctx, q, documentID).Scan(&exists)
	return exists, err
}

func (w *importWriter) CreateInvoice(ctx context.Context, inv *model.Invoice) (string, error) {
	const q = `
		INSERT INTO invoices (id, document_id, invoice_id_text, invoice_date, delivery_date, subtotal,
			total_tax, invoice_total, currency, document_type, vendor_id, customer_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`
	var id string
	err := w.q.QueryRowContext(ctx, q,
		idOrNew(inv.ID),
		inv.DocumentID,
		inv.InvoiceIDText,
		inv.InvoiceDate,
		inv.DeliveryDate,
		inv.Subtotal,
		inv.TotalTax,
		inv.InvoiceTotal,
		inv.Currency,
		inv.DocumentType,
		inv.VendorID,
		inv.CustomerID,
		timeOrNow(inv.CreatedAt),
	).Scan(&id)
	return id, err
}

func (w *importWriter) CreateLineItem(ctx context.Context, li *model.LineItem) (string, error) {
	const q = `
		INSERT INTO line_items (id, invoice_id, sr_no, description, quantity, unit_price, total_price,
			sachkonto, bu_schluessel, vat_rate, vat_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	var id string
	err := w.q.QueryRowContext(ctx, q,
		idOrNew(li.ID),
		li.InvoiceID,
		li.SrNo,
		li.Description,
		li.Quantity,
		li.UnitPrice,
		li.TotalPrice,
		li.Sachkonto,
		li.BUSchluessel,
		li.VatRate,
		li.VatAmount,
	).Scan(&id)
	return id, err
}

func (w *importWriter) CreatePayment(ctx context.Context, p *model.Payment) (string, error) {
	const q = `
		INSERT INTO payments (id, invoice_id, due_date, payment_terms, bank_account, bic, account_name,
			net_days, discount_percentage, discount_days, discounted_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	var id string
	err := w.q.QueryRowContext(ctx, q,
		idOrNew(p.ID),
		p.InvoiceID,
		p.DueDate,
		p.PaymentTerms,
		p.BankAccount,
		p.BIC,
		p.AccountName,
		p.NetDays,
		p.DiscountPercentage,
		p.DiscountDays,
		p.DiscountedTotal,
	).Scan(&id)
	return id, err
}
