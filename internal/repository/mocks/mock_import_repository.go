package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invoiceanalytics/internal/model"
	"invoiceanalytics/internal/repository"
)

// MockImportRepository runs fn against Writer unless the WithinTx expectation returns an error.
type MockImportRepository struct {
	mock.Mock
	Writer *MockImportWriter
}

func (m *MockImportRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, w repository.ImportWriter) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx, m.Writer)
}

type MockImportWriter struct {
	mock.Mock
}

func (m *MockImportWriter) UpsertVendor(ctx context.Context, v *model.Vendor) (string, error) {
	args := m.Called(ctx, v)
	return args.String(0), args.Error(1)
}

func (m *MockImportWriter) CreateCustomer(ctx context.Context, c *model.Customer) (string, error) {
	args := m.Called(ctx, c)
	return args.String(0), args.Error(1)
}

func (m *MockImportWriter) UpsertDocument(ctx context.Context, d *model.Document) (string, error) {
	args := m.Called(ctx, d)
	return args.String(0), args.Error(1)
}

func (m *MockImportWriter) InvoiceExistsForDocument(ctx context.Context, documentID string) (bool, error) {
	args := m.Called(ctx, documentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockImportWriter) CreateInvoice(ctx context.Context, inv *model.Invoice) (string, error) {
	args := m.Called(ctx, inv)
	return args.String(0), args.Error(1)
}

func (m *MockImportWriter) CreateLineItem(ctx context.Context, li *model.LineItem) (string, error) {
	args := m.Called(ctx, li)
	return args.String(0), args.Error(1)
}

func (m *MockImportWriter) CreatePayment(ctx context.Context, p *model.Payment) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}
