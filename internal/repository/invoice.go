package repository

import (
	"context"

	"invoiceanalytics/internal/model"
)

// InvoiceQuery filters the invoice listing. Search matches the invoice number or the vendor
// name, case-insensitively.
type InvoiceQuery struct {
	PageQuery
	Search string
}

// InvoiceRepository lists invoices for browsing.
type InvoiceRepository interface {
	// List returns invoices newest invoice date first, with vendor and customer resolved.
	List(ctx context.Context, q InvoiceQuery) (*PageResult[model.InvoiceDetail], error)
}
