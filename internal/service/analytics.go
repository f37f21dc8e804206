package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"invoiceanalytics/internal/analytics"
	"invoiceanalytics/internal/model"
	"invoiceanalytics/internal/repository"
)

// Stats is the dashboard headline.
type Stats struct {
	TotalSpend        float64 `json:"totalSpend"`
	InvoicesProcessed int     `json:"invoicesProcessed"`
	DocumentsUploaded int     `json:"documentsUploaded"`
	AvgInvoiceValue   float64 `json:"avgInvoiceValue"`
}

// AnalyticsService reads imported invoices back and aggregates them.
type AnalyticsService interface {
	CategorySpend(ctx context.Context) ([]analytics.CategorySpend, error)
	TopVendors(ctx context.Context) ([]analytics.VendorSpend, error)
	MonthlyTrend(ctx context.Context) ([]analytics.MonthlyTrend, error)
	// CashOutflow buckets open amounts relative to today in the service's location.
	CashOutflow(ctx context.Context) ([]analytics.OutflowBucket, error)
	// Trend compares the latest month of MonthlyTrend with the months before it.
	Trend(ctx context.Context) (analytics.TrendSummary, error)
	Stats(ctx context.Context) (*Stats, error)
}

type analyticsService struct {
	repo repository.AnalyticsRepository
	loc  *time.Location
	now  func() time.Time
}

// NewAnalyticsService builds the service. Calendar months and days are taken in loc.
func NewAnalyticsService(repo repository.AnalyticsRepository, loc *time.Location) AnalyticsService {
	if loc == nil {
		loc = time.Local
	}
	return &analyticsService{repo: repo, loc: loc, now: time.Now}
}

func (s *analyticsService) CategorySpend(ctx context.Context) ([]analytics.CategorySpend, error) {
	items, err := s.repo.ListLineItemSpend(ctx)
	if err != nil {
		return nil, fmt.Errorf("list line items: %w", err)
	}
	return analytics.CategorySpendOf(items), nil
}

func (s *analyticsService) TopVendors(ctx context.Context) ([]analytics.VendorSpend, error) {
	totals, err := s.repo.SumInvoicesByVendor(ctx)
	if err != nil {
		return nil, fmt.Errorf("sum invoices by vendor: %w", err)
	}

	ranked := analytics.TopVendors(totals, nil)
	if len(ranked) == 0 {
		return ranked, nil
	}

	ids := make([]string, 0, len(ranked))
	for _, r := range ranked {
		ids = append(ids, r.VendorID)
	}
	vendors, err := s.repo.FindVendorsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("find vendors: %w", err)
	}

	names := make(map[string]string, len(vendors))
	for _, v := range vendors {
		names[v.ID] = v.Name
	}
	for i := range ranked {
		if name := names[ranked[i].VendorID]; name != "" {
			ranked[i].VendorName = name
		}
	}
	return ranked, nil
}

func (s *analyticsService) MonthlyTrend(ctx context.Context) ([]analytics.MonthlyTrend, error) {
	invoices, err := s.repo.ListDatedInvoices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list dated invoices: %w", err)
	}
	return analytics.MonthlyTrendOf(invoices, s.loc), nil
}

func (s *analyticsService) CashOutflow(ctx context.Context) ([]analytics.OutflowBucket, error) {
	invoices, err := s.repo.ListOutflowInvoices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list outflow invoices: %w", err)
	}
	return analytics.CashOutflow(invoices, s.now(), s.loc), nil
}

func (s *analyticsService) Trend(ctx context.Context) (analytics.TrendSummary, error) {
	months, err := s.MonthlyTrend(ctx)
	if err != nil {
		return analytics.TrendSummary{}, err
	}
	return analytics.AnalyzeTrend(months), nil
}

func (s *analyticsService) Stats(ctx context.Context) (*Stats, error) {
	var (
		totals *model.InvoiceTotals
		docs   int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := s.repo.InvoiceTotals(gctx)
		if err != nil {
			return fmt.Errorf("invoice totals: %w", err)
		}
		totals = t
		return nil
	})
	g.Go(func() error {
		n, err := s.repo.CountDocuments(gctx)
		if err != nil {
			return fmt.Errorf("count documents: %w", err)
		}
		docs = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Stats{
		TotalSpend:        analytics.RoundMoney(totals.Sum),
		InvoicesProcessed: totals.Count,
		DocumentsUploaded: docs,
		AvgInvoiceValue:   analytics.RoundMoney(totals.Average),
	}, nil
}
