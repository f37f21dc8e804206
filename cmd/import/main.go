// Command import loads a batch of extracted invoice documents into the database.
//
// The batch is read from -file, or from the MinIO object named by -object when set.
// Per-document failures are logged and reported; only an unreadable or malformed batch
// makes the command exit non-zero.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"invoiceanalytics/internal/config"
	"invoiceanalytics/internal/database"
	"invoiceanalytics/internal/database/migration"
	"invoiceanalytics/internal/extract"
	"invoiceanalytics/internal/logging"
	"invoiceanalytics/internal/otel"
	"invoiceanalytics/internal/repository"
	"invoiceanalytics/internal/repository/memory"
	"invoiceanalytics/internal/repository/postgres"
	"invoiceanalytics/internal/service"
	"invoiceanalytics/internal/storage"
)

func main() {
	cfg := config.Load()

	flag.StringVar(&cfg.Import.File, "file", cfg.Import.File, "path of the JSON batch to import")
	flag.StringVar(&cfg.Import.ObjectKey, "object", cfg.Import.ObjectKey, "MinIO object key of the batch; overrides -file")
	flag.BoolVar(&cfg.Import.SkipExisting, "skip-existing", cfg.Import.SkipExisting, "skip documents that already have an invoice")
	flag.Parse()

	if err := run(cfg); err != nil {
		slog.Error("import aborted", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	log := logging.New(os.Stdout, loc, logging.ParseLevel(cfg.LogLevel))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log, "import")
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	var repo repository.ImportRepository
	if cfg.Database.Enabled() {
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
			return err
		}
		repo = postgres.NewImportPostgres(db)
	} else {
		log.Warn("DB_HOST not set, importing into a throwaway in-memory store")
		repo = memory.New()
	}

	var store storage.Storage
	if cfg.MinIO.Enabled() {
		if store, err = storage.NewMinIO(ctx, cfg.MinIO); err != nil {
			return err
		}
	} else if cfg.Import.ObjectKey != "" {
		return errors.New("-object needs MINIO_ENDPOINT and MINIO_BUCKET")
	}

	reg := prometheus.NewRegistry()
	metrics, err := service.NewImportMetrics(reg)
	if err != nil {
		return err
	}

	importer := service.NewImportService(repo, extract.New(loc), store, metrics, log, service.ImportOptions{
		SkipExisting: cfg.Import.SkipExisting,
		ReportPrefix: cfg.Import.ReportPrefix,
	})

	batch, source, err := openBatch(ctx, cfg.Import, store)
	if err != nil {
		return err
	}
	defer batch.Close()
	log.Info("import started", "source", source, "skip_existing", cfg.Import.SkipExisting)

	report, err := importer.ImportBatch(ctx, batch)
	if err != nil {
		return fmt.Errorf("%s: %w", source, err)
	}

	if _, err := importer.ArchiveReport(ctx, report); err != nil {
		log.Error("archive import report", "error", err)
	}

	if cfg.Import.PushgatewayURL != "" {
		if err := push.New(cfg.Import.PushgatewayURL, "invoice_import").Gatherer(reg).PushContext(ctx); err != nil {
			log.Error("push import metrics", "url", cfg.Import.PushgatewayURL, "error", err)
		}
	}
	return nil
}

// openBatch returns the batch reader and a description of where it came from.
func openBatch(ctx context.Context, c config.ImportConfig, store storage.Storage) (io.ReadCloser, string, error) {
	if c.ObjectKey != "" {
		rc, info, err := store.Get(ctx, c.ObjectKey)
		if err != nil {
			return nil, "", err
		}
		return rc, fmt.Sprintf("s3://%s (%d bytes)", info.Key, info.Size), nil
	}

	f, err := os.Open(c.File)
	if err != nil {
		return nil, "", fmt.Errorf("open batch: %w", err)
	}
	return f, c.File, nil
}
