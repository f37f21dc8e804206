package repository

import (
	"context"

	"invoiceanalytics/internal/model"
)

// ImportWriter persists the entities extracted from a single source document.
// Create and upsert methods return the stored row id.
type ImportWriter interface {
	// UpsertVendor inserts a vendor or, when the name already exists, overwrites the fields
	// that are non-nil on v. Fields that are nil keep their stored value.
	UpsertVendor(ctx context.Context, v *model.Vendor) (string, error)

	// CreateCustomer always inserts a new row.
	CreateCustomer(ctx context.Context, c *model.Customer) (string, error)

	// UpsertDocument inserts a document or overwrites every field except CreatedAt.
	UpsertDocument(ctx context.Context, d *model.Document) (string, error)

	// InvoiceExistsForDocument reports whether an invoice already references the document.
	InvoiceExistsForDocument(ctx context.Context, documentID string) (bool, error)

	CreateInvoice(ctx context.Context, inv *model.Invoice) (string, error)
	CreateLineItem(ctx context.Context, li *model.LineItem) (string, error)
	CreatePayment(ctx context.Context, p *model.Payment) (string, error)
}

// ImportRepository runs the writes of one document as a unit.
type ImportRepository interface {
	// WithinTx calls fn with a writer bound to a single transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, w ImportWriter) error) error
}

// DocumentRepository reads stored source documents.
type DocumentRepository interface {
	// FindByID returns a document by its ID, or sql.ErrNoRows.
	FindByID(ctx context.Context, id string) (*model.Document, error)
}
