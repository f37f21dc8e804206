package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invoiceanalytics/internal/model"
	"invoiceanalytics/internal/repository"
)

type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) FindByID(ctx context.Context, id string) (*model.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) List(ctx context.Context, q repository.InvoiceQuery) (*repository.PageResult[model.InvoiceDetail], error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.InvoiceDetail]), args.Error(1)
}
