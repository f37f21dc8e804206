package repository

import (
	"context"

	"invoiceanalytics/internal/model"
)

// AnalyticsRepository exposes the raw reads the aggregation engine works on.
// Grouping, ranking and rounding are done by the caller.
type AnalyticsRepository interface {
	// ListLineItemSpend returns every line item with ID, InvoiceID, Sachkonto and TotalPrice populated.
	ListLineItemSpend(ctx context.Context) ([]model.LineItem, error)

	// SumInvoicesByVendor sums invoice totals and counts invoices per vendor.
	// Invoices without a vendor are excluded; a vendor whose totals are all null sums to 0.
	SumInvoicesByVendor(ctx context.Context) ([]model.VendorTotal, error)

	// FindVendorsByIDs returns the vendors that exist among ids.
	FindVendorsByIDs(ctx context.Context, ids []string) ([]model.Vendor, error)

	// ListDatedInvoices returns invoices with a non-null invoice date, oldest first.
	ListDatedInvoices(ctx context.Context) ([]model.Invoice, error)

	// ListOutflowInvoices returns invoices with a non-null total together with their payment.
	ListOutflowInvoices(ctx context.Context) ([]model.InvoiceWithPayment, error)

	// InvoiceTotals returns the count, sum and average of invoice totals.
	InvoiceTotals(ctx context.Context) (*model.InvoiceTotals, error)

	CountDocuments(ctx context.Context) (int, error)
}
