package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invoiceanalytics/internal/model"
)

type MockAnalyticsRepository struct {
	mock.Mock
}

func (m *MockAnalyticsRepository) ListLineItemSpend(ctx context.Context) ([]model.LineItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.LineItem), args.Error(1)
}

func (m *MockAnalyticsRepository) SumInvoicesByVendor(ctx context.Context) ([]model.VendorTotal, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.VendorTotal), args.Error(1)
}

func (m *MockAnalyticsRepository) FindVendorsByIDs(ctx context.Context, ids []string) ([]model.Vendor, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Vendor), args.Error(1)
}

func (m *MockAnalyticsRepository) ListDatedInvoices(ctx context.Context) ([]model.Invoice, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Invoice), args.Error(1)
}

func (m *MockAnalyticsRepository) ListOutflowInvoices(ctx context.Context) ([]model.InvoiceWithPayment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.InvoiceWithPayment), args.Error(1)
}

func (m *MockAnalyticsRepository) InvoiceTotals(ctx context.Context) (*model.InvoiceTotals, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InvoiceTotals), args.Error(1)
}

func (m *MockAnalyticsRepository) CountDocuments(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
