package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"invoiceanalytics/docs"
	"invoiceanalytics/internal/config"
	"invoiceanalytics/internal/database"
	"invoiceanalytics/internal/database/migration"
	"invoiceanalytics/internal/extract"
	handlers "invoiceanalytics/internal/http/handler"
	"invoiceanalytics/internal/http/middleware"
	"invoiceanalytics/internal/logging"
	"invoiceanalytics/internal/otel"
	"invoiceanalytics/internal/repository"
	"invoiceanalytics/internal/repository/memory"
	"invoiceanalytics/internal/repository/postgres"
	"invoiceanalytics/internal/service"
)

const shutdownTimeout = 10 * time.Second

// @title        Invoice Analytics API
// @version      1.0
// @description  Read side of the invoice import: spend aggregations, invoice listing and source documents.
// @BasePath     /
func main() {
	if err := run(); err != nil {
		slog.Error("api exited", "error", err)
		os.Exit(1)
	}
}

type repos struct {
	analytics repository.AnalyticsRepository
	invoices  repository.InvoiceRepository
	documents repository.DocumentRepository
}

func run() error {
	cfg := config.Load()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	log := logging.New(os.Stdout, loc, logging.ParseLevel(cfg.LogLevel))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log, "api")
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	var (
		db *sql.DB
		r  repos
	)
	if cfg.Database.Enabled() {
		db, err = database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
			return err
		}
		r = repos{
			analytics: postgres.NewAnalyticsPostgres(db),
			invoices:  postgres.NewInvoicePostgres(db),
			documents: postgres.NewDocumentPostgres(db),
		}
	} else {
		store := memory.New()
		seedMemory(ctx, store, cfg.Import.File, loc, log)
		r = repos{analytics: store, invoices: store, documents: store}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return err
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.CORSAllowOrigins}))
	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(loc))
	app.Use(promMiddleware.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	deps := handlers.Deps{
		Analytics: service.NewAnalyticsService(r.analytics, loc),
		Invoices:  service.NewInvoiceService(r.invoices),
		Documents: service.NewDocumentService(r.documents),
	}
	if db != nil {
		deps.DB = db
	}
	handlers.RegisterRoutes(app, deps)

	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
		}
		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}
		return swagger.HandlerDefault(c)
	})

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.Info("listening", "addr", addr, "public_host", cfg.AppHost, "timezone", loc.String())
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(sctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

// seedMemory imports the batch at path into store so the in-memory mode has something to serve.
// A missing file leaves the store empty.
func seedMemory(ctx context.Context, store *memory.Store, path string, loc *time.Location, log *slog.Logger) {
	f, err := os.Open(path)
	if err != nil {
		log.Warn("DB_HOST not set, serving from an empty in-memory store", "seed_file", path, "error", err)
		return
	}
	defer f.Close()

	importer := service.NewImportService(store, extract.New(loc), nil, nil, log, service.ImportOptions{})
	if _, err := importer.ImportBatch(ctx, f); err != nil {
		log.Error("seed in-memory store", "seed_file", path, "error", err)
		return
	}
	log.Info("DB_HOST not set, serving from the in-memory store", "seed_file", path)
}
