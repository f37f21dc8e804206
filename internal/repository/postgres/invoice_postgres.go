package postgres

import (
	"context"
	"database/sql"
	"strings"

	"invoiceanalytics/internal/model"
	"invoiceanalytics/internal/repository"
)

// InvoicePostgres is a PostgreSQL implementation of repository.InvoiceRepository.
type InvoicePostgres struct {
	db *sql.DB
}

// NewInvoicePostgres creates a new InvoicePostgres repository.
func NewInvoicePostgres(db *sql.DB) *InvoicePostgres {
	return &InvoicePostgres{db: db}
}

var _ repository.InvoiceRepository = (*InvoicePostgres)(nil)

// List returns invoices using LIMIT/OFFSET pagination and a total count.
func (r *InvoicePostgres) List(ctx context.Context, iq repository.InvoiceQuery) (*repository.PageResult[model.InvoiceDetail], error) {
	const filter = `
		FROM invoices i
		LEFT JOIN vendors v ON v.id = i.vendor_id
		LEFT JOIN customers c ON c.id = i.customer_id
		WHERE ($1 = '' OR i.invoice_id_text ILIKE $2 OR v.name ILIKE $2)
	`
	pattern := "%" + escapeLike(iq.Search) + "%"

	// Count total rows
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*)`+filter, iq.Search, pattern).Scan(&total); err != nil {
		return nil, err
	}

	// Fetch page
	qList := `SELECT ` + invoiceColumns + `,
			v.id, v.name, v.party_number, v.address, v.tax_id,
			c.id, c.name, c.address` + filter + `
		ORDER BY i.invoice_date DESC NULLS LAST, i.id
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.QueryContext(ctx, qList, iq.Search, pattern, iq.Limit, iq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.InvoiceDetail, 0)
	for rows.Next() {
		var (
			d          model.InvoiceDetail
			v          model.Vendor
			c          model.Customer
			vID, vName *string
			cID        *string
		)
		if err := scanInvoice(rows, &d.Invoice,
			&vID, &vName, &v.PartyNumber, &v.Address, &v.TaxID,
			&cID, &c.Name, &c.Address,
		); err != nil {
			return nil, err
		}
		if vID != nil {
			v.ID = *vID
			if vName != nil {
				v.Name = *vName
			}
			d.Vendor = &v
		}
		if cID != nil {
			c.ID = *cID
			d.Customer = &c
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.InvoiceDetail]{
		Items: items,
		Total: total,
	}, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
