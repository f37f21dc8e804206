package service

import (
	"context"
	"math"
	"strings"

	"invoiceanalytics/internal/model"
	"invoiceanalytics/internal/repository"
)

const (
	DefaultPerPage = 25
	MaxPerPage     = 100
)

// InvoiceListResult is the service-level DTO for paginated invoices.
type InvoiceListResult struct {
	Items   []model.InvoiceDetail `json:"items"`
	Total   int                   `json:"total"`
	Page    int                   `json:"page"`
	PerPage int                   `json:"per_page"`
}

// InvoiceService lists imported invoices.
type InvoiceService interface {
	// List returns one page of invoices, newest invoice date first. q filters by invoice number
	// or vendor name, case-insensitively.
	List(ctx context.Context, page, perPage int, q string) (*InvoiceListResult, error)
}

type invoiceService struct {
	repo repository.InvoiceRepository
}

func NewInvoiceService(repo repository.InvoiceRepository) InvoiceService {
	return &invoiceService{repo: repo}
}

func (s *invoiceService) List(ctx context.Context, page, perPage int, q string) (*InvoiceListResult, error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	// Pages past this point cannot hold rows and their offset would overflow.
	if maxPage := math.MaxInt/perPage + 1; page > maxPage {
		page = maxPage
	}

	res, err := s.repo.List(ctx, repository.InvoiceQuery{
		PageQuery: repository.PageQuery{Limit: perPage, Offset: (page - 1) * perPage},
		Search:    strings.TrimSpace(q),
	})
	if err != nil {
		return nil, err
	}
	return &InvoiceListResult{Items: res.Items, Total: res.Total, Page: page, PerPage: perPage}, nil
}
