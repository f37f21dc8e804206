package handler

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"invoiceanalytics/internal/service"
)

const healthTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps carries what the routes need. DB may be nil when the in-memory store is in use.
type Deps struct {
	DB        Pinger
	Analytics service.AnalyticsService
	Invoices  service.InvoiceService
	Documents service.DocumentService
}

// RegisterRoutes attaches the HTTP routes to app.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/health", HealthCheck(d.DB))
	app.Get("/healthz", LivenessProbe())

	app.Get("/stats", GetStats(d.Analytics))
	app.Get("/invoices", ListInvoices(d.Invoices))
	app.Get("/invoice-trends", InvoiceTrends(d.Analytics))
	app.Get("/vendors/top10", TopVendors(d.Analytics))
	app.Get("/category-spend", CategorySpend(d.Analytics))
	app.Get("/cash-outflow", CashOutflow(d.Analytics))
	app.Get("/trends", Trends(d.Analytics))

	app.Get("/documents/:id", GetDocument(d.Documents))
}

// HealthCheck godoc
// @Summary      Readiness check
// @Description  Pings the database. Always healthy when running on the in-memory store.
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      503  {object}  errorPayload
// @Router       /health [get]
func HealthCheck(db Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if db == nil {
			return c.JSON(fiber.Map{"status": "healthy", "storage": "memory"})
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.JSON(fiber.Map{"status": "healthy", "storage": "postgres"})
	}
}

// LivenessProbe godoc
// @Summary  Liveness probe
// @Tags     health
// @Success  200
// @Router   /healthz [get]
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// GetStats godoc
// @Summary  Dashboard totals
// @Tags     analytics
// @Produce  json
// @Success  200  {object}  service.Stats
// @Failure  500  {object}  errorPayload
// @Router   /stats [get]
func GetStats(svc service.AnalyticsService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st, err := svc.Stats(c.UserContext())
		if err != nil {
			return internalError(c, err)
		}
		return c.JSON(st)
	}
}

// ListInvoices godoc
// @Summary      List invoices
// @Description  Newest invoice date first, undated invoices last. q matches invoice number or vendor name.
// @Tags         invoices
// @Produce      json
// @Param        page      query  int     false  "Page number"     default(1)
// @Param        per_page  query  int     false  "Page size"       default(25)
// @Param        q         query  string  false  "Search term"
// @Success      200  {object}  service.InvoiceListResult
// @Failure      400  {object}  errorPayload
// @Failure      500  {object}  errorPayload
// @Router       /invoices [get]
func ListInvoices(svc service.InvoiceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, err := strconv.Atoi(c.Query("page", "1"))
		if err != nil || page < 1 {
			return writeError(c, fiber.StatusBadRequest, "INVALID_PAGE", "page must be a positive integer")
		}
		perPage, err := strconv.Atoi(c.Query("per_page", strconv.Itoa(service.DefaultPerPage)))
		if err != nil || perPage < 1 {
			return writeError(c, fiber.StatusBadRequest, "INVALID_PER_PAGE", "per_page must be a positive integer")
		}

		res, err := svc.List(c.UserContext(), page, perPage, c.Query("q"))
		if err != nil {
			return internalError(c, err)
		}
		return c.JSON(res)
	}
}

// InvoiceTrends godoc
// @Summary  Monthly invoice count and spend, last twelve months
// @Tags     analytics
// @Produce  json
// @Success  200  {array}   analytics.MonthlyTrend
// @Failure  500  {object}  errorPayload
// @Router   /invoice-trends [get]
func InvoiceTrends(svc service.AnalyticsService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		out, err := svc.MonthlyTrend(c.UserContext())
		if err != nil {
			return internalError(c, err)
		}
		return c.JSON(out)
	}
}

// TopVendors godoc
// @Summary  Ten vendors with the highest invoice totals
// @Tags     analytics
// @Produce  json
// @Success  200  {array}   analytics.VendorSpend
// @Failure  500  {object}  errorPayload
// @Router   /vendors/top10 [get]
func TopVendors(svc service.AnalyticsService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		out, err := svc.TopVendors(c.UserContext())
		if err != nil {
			return internalError(c, err)
		}
		return c.JSON(out)
	}
}

// CategorySpend godoc
// @Summary  Line item spend per ledger category, top ten
// @Tags     analytics
// @Produce  json
// @Success  200  {array}   analytics.CategorySpend
// @Failure  500  {object}  errorPayload
// @Router   /category-spend [get]
func CategorySpend(svc service.AnalyticsService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		out, err := svc.CategorySpend(c.UserContext())
		if err != nil {
			return internalError(c, err)
		}
		return c.JSON(out)
	}
}

// CashOutflow godoc
// @Summary  Payable amounts by days until due
// @Tags     analytics
// @Produce  json
// @Success  200  {array}   analytics.OutflowBucket
// @Failure  500  {object}  errorPayload
// @Router   /cash-outflow [get]
func CashOutflow(svc service.AnalyticsService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		out, err := svc.CashOutflow(c.UserContext())
		if err != nil {
			return internalError(c, err)
		}
		return c.JSON(out)
	}
}

// Trends godoc
// @Summary  Latest month against the preceding months
// @Tags     analytics
// @Produce  json
// @Success  200  {object}  analytics.TrendSummary
// @Failure  500  {object}  errorPayload
// @Router   /trends [get]
func Trends(svc service.AnalyticsService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		out, err := svc.Trend(c.UserContext())
		if err != nil {
			return internalError(c, err)
		}
		return c.JSON(out)
	}
}

// GetDocument godoc
// @Summary  Stored source document
// @Tags     documents
// @Produce  json
// @Param    id   path      string  true  "Document ID"
// @Success  200  {object}  model.Document
// @Failure  404  {object}  errorPayload
// @Failure  500  {object}  errorPayload
// @Router   /documents/{id} [get]
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := svc.Get(c.UserContext(), c.Params("id"))
		switch {
		case errors.Is(err, service.ErrNotFound):
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
		case errors.Is(err, service.ErrIDRequired):
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "id is required")
		case err != nil:
			return internalError(c, err)
		}
		return c.JSON(doc)
	}
}
