package postgres

import (
	"context"
	"database/sql"
	"strings"

	"invoiceanalytics/internal/model"
	"invoiceanalytics/internal/repository"
)

const invoiceColumns = `i.id, i.document_id, i.invoice_id_text, i.invoice_date, i.delivery_date, i.subtotal,
	i.total_tax, i.invoice_total, i.currency, i.document_type, i.vendor_id, i.customer_id, i.created_at`

// AnalyticsPostgres is a PostgreSQL implementation of repository.AnalyticsRepository.
type AnalyticsPostgres struct {
	db *sql.DB
}

// NewAnalyticsPostgres creates a new AnalyticsPostgres repository.
func NewAnalyticsPostgres(db *sql.DB) *AnalyticsPostgres {
	return &AnalyticsPostgres{db: db}
}

var _ repository.AnalyticsRepository = (*AnalyticsPostgres)(nil)

func (r *AnalyticsPostgres) ListLineItemSpend(ctx context.Context) ([]model.LineItem, error) {
	const q = `SELECT id, invoice_id, sachkonto, total_price FROM line_items ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.LineItem, 0)
	for rows.Next() {
		var li model.LineItem
		if err := rows.Scan(&li.ID, &li.InvoiceID, &li.Sachkonto, &li.TotalPrice); err != nil {
			return nil, err
		}
		items = append(items, li)
	}
	return items, rows.Err()
}

func (r *AnalyticsPostgres) SumInvoicesByVendor(ctx context.Context) ([]model.VendorTotal, error) {
	const q = `
		SELECT vendor_id, COALESCE(SUM(invoice_total), 0), COUNT(*)
		FROM invoices
		WHERE vendor_id IS NOT NULL
		GROUP BY vendor_id
		ORDER BY MIN(created_at), vendor_id
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.VendorTotal, 0)
	for rows.Next() {
		var t model.VendorTotal
		if err := rows.Scan(&t.VendorID, &t.Total, &t.Count); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *AnalyticsPostgres) FindVendorsByIDs(ctx context.Context, ids []string) ([]model.Vendor, error) {
	if len(ids) == 0 {
		return []model.Vendor{}, nil
	}
	const q = `
		SELECT id, name, party_number, address, tax_id
		FROM vendors
		WHERE id::text = ANY(string_to_array($1, ','))
	`
	rows, err := r.db.QueryContext(ctx, q, strings.Join(ids, ","))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Vendor, 0, len(ids))
	for rows.Next() {
		var v model.Vendor
		if err := scanVendor(rows, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *AnalyticsPostgres) ListDatedInvoices(ctx context.Context) ([]model.Invoice, error) {
	const q = `SELECT ` + invoiceColumns + `
		FROM invoices i
		WHERE i.invoice_date IS NOT NULL
		ORDER BY i.invoice_date, i.id
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Invoice, 0)
	for rows.Next() {
		var inv model.Invoice
		if err := scanInvoice(rows, &inv); err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *AnalyticsPostgres) ListOutflowInvoices(ctx context.Context) ([]model.InvoiceWithPayment, error) {
	const q = `SELECT ` + invoiceColumns + `,
			p.id, p.due_date, p.payment_terms, p.bank_account, p.bic, p.account_name,
			p.net_days, p.discount_percentage, p.discount_days, p.discounted_total
		FROM invoices i
		LEFT JOIN payments p ON p.invoice_id = i.id
		WHERE i.invoice_total IS NOT NULL
		ORDER BY i.created_at, i.id
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.InvoiceWithPayment, 0)
	for rows.Next() {
		var (
			iwp model.InvoiceWithPayment
			p   model.Payment
			pID *string
		)
		if err := scanInvoice(rows, &iwp.Invoice,
			&pID, &p.DueDate, &p.PaymentTerms, &p.BankAccount, &p.BIC, &p.AccountName,
			&p.NetDays, &p.DiscountPercentage, &p.DiscountDays, &p.DiscountedTotal,
		); err != nil {
			return nil, err
		}
		if pID != nil {
			p.ID = *pID
			p.InvoiceID = iwp.ID
			iwp.Payment = &p
		}
		out = append(out, iwp)
	}
	return out, rows.Err()
}

func (r *AnalyticsPostgres) InvoiceTotals(ctx context.Context) (*model.InvoiceTotals, error) {
	const q = `
		SELECT COUNT(*), COALESCE(SUM(invoice_total), 0), COALESCE(AVG(invoice_total), 0)
		FROM invoices
	`
	var t model.InvoiceTotals
	if err := r.db.QueryRowContext(ctx, q).Scan(&t.Count, &t.Sum, &t.Average); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *AnalyticsPostgres) CountDocuments(ctx context.Context) (int, error) {
	const q = `SELECT COUNT(*) FROM documents`
	var n int
	err := r.db.QueryRowContext(ctx, q).Scan(&n)
	return n, err
}

// scanInvoice reads invoiceColumns followed by any extra destinations.
func scanInvoice(rs rowScanner, inv *model.Invoice, extra ...any) error {
	dest := []any{
		&inv.ID,
		&inv.DocumentID,
		&inv.InvoiceIDText,
		&inv.InvoiceDate,
		&inv.DeliveryDate,
		&inv.Subtotal,
		&inv.TotalTax,
		&inv.InvoiceTotal,
		&inv.Currency,
		&inv.DocumentType,
		&inv.VendorID,
		&inv.CustomerID,
		&inv.CreatedAt,
	}
	return rs.Scan(append(dest, extra...)...)
}

func scanVendor(rs rowScanner, v *model.Vendor) error {
	return rs.Scan(&v.ID, &v.Name, &v.PartyNumber, &v.Address, &v.TaxID)
}
