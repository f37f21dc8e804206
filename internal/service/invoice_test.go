package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoiceanalytics/internal/model"
	"invoiceanalytics/internal/repository"
	repoMocks "invoiceanalytics/internal/repository/mocks"
)

func TestInvoiceService_List(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		page        int
		perPage     int
		q           string
		wantQuery   repository.InvoiceQuery
		wantPage    int
		wantPerPage int
	}{
		{
			name:        "defaults",
			wantQuery:   repository.InvoiceQuery{PageQuery: repository.PageQuery{Limit: DefaultPerPage, Offset: 0}},
			wantPage:    1,
			wantPerPage: DefaultPerPage,
		},
		{
			name:        "third page with search",
			page:        3,
			perPage:     10,
			q:           "  acme ",
			wantQuery:   repository.InvoiceQuery{PageQuery: repository.PageQuery{Limit: 10, Offset: 20}, Search: "acme"},
			wantPage:    3,
			wantPerPage: 10,
		},
		{
			name:        "per page capped",
			page:        1,
			perPage:     1000,
			wantQuery:   repository.InvoiceQuery{PageQuery: repository.PageQuery{Limit: MaxPerPage, Offset: 0}},
			wantPage:    1,
			wantPerPage: MaxPerPage,
		},
		{
			name:        "huge page clamped before the offset overflows",
			page:        math.MaxInt,
			perPage:     25,
			wantQuery:   repository.InvoiceQuery{PageQuery: repository.PageQuery{Limit: 25, Offset: math.MaxInt / 25 * 25}},
			wantPage:    math.MaxInt/25 + 1,
			wantPerPage: 25,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(repoMocks.MockInvoiceRepository)
			repo.On("List", ctx, tt.wantQuery).Return(&repository.PageResult[model.InvoiceDetail]{
				Items: []model.InvoiceDetail{{Invoice: model.Invoice{ID: "inv-1"}}},
				Total: 41,
			}, nil)

			res, err := NewInvoiceService(repo).List(ctx, tt.page, tt.perPage, tt.q)

			require.NoError(t, err)
			assert.Equal(t, 41, res.Total)
			assert.Equal(t, tt.wantPage, res.Page)
			assert.Equal(t, tt.wantPerPage, res.PerPage)
			assert.Len(t, res.Items, 1)
			repo.AssertExpectations(t)
		})
	}

	t.Run("repository error", func(t *testing.T) {
		repo := new(repoMocks.MockInvoiceRepository)
		repo.On("List", ctx, repository.InvoiceQuery{PageQuery: repository.PageQuery{Limit: DefaultPerPage}}).
			Return(nil, errors.New("db down"))

		_, err := NewInvoiceService(repo).List(ctx, 0, 0, "")
		assert.EqualError(t, err, "db down")
	})
}
