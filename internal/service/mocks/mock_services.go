package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invoiceanalytics/internal/analytics"
	"invoiceanalytics/internal/model"
	"invoiceanalytics/internal/service"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Get(ctx context.Context, id string) (*model.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) List(ctx context.Context, page, perPage int, q string) (*service.InvoiceListResult, error) {
	args := m.Called(ctx, page, perPage, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.InvoiceListResult), args.Error(1)
}

type MockAnalyticsService struct {
	mock.Mock
}

func (m *MockAnalyticsService) CategorySpend(ctx context.Context) ([]analytics.CategorySpend, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]analytics.CategorySpend), args.Error(1)
}

func (m *MockAnalyticsService) TopVendors(ctx context.Context) ([]analytics.VendorSpend, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]analytics.VendorSpend), args.Error(1)
}

func (m *MockAnalyticsService) MonthlyTrend(ctx context.Context) ([]analytics.MonthlyTrend, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]analytics.MonthlyTrend), args.Error(1)
}

func (m *MockAnalyticsService) CashOutflow(ctx context.Context) ([]analytics.OutflowBucket, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]analytics.OutflowBucket), args.Error(1)
}

func (m *MockAnalyticsService) Trend(ctx context.Context) (analytics.TrendSummary, error) {
	args := m.Called(ctx)
	return args.Get(0).(analytics.TrendSummary), args.Error(1)
}

func (m *MockAnalyticsService) Stats(ctx context.Context) (*service.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Stats), args.Error(1)
}
