package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"invoiceanalytics/internal/extract"
	"invoiceanalytics/internal/jsontree"
	"invoiceanalytics/internal/repository"
	"invoiceanalytics/internal/storage"
)

// reportURLExpiry bounds the presigned link logged for an archived report.
const reportURLExpiry = 24 * time.Hour

// ImportOptions tune the importer.
type ImportOptions struct {
	// SkipExisting writes only the document row when an invoice already references it.
	SkipExisting bool
	// ReportPrefix is the object key prefix for archived reports.
	ReportPrefix string
}

// ImportOutcome is the result of importing one source document.
type ImportOutcome struct {
	// Index is the position in the batch; it identifies documents without a source id.
	Index      int    `json:"index"`
	SourceID   string `json:"sourceId"`
	DocumentID string `json:"documentId,omitempty"`
	InvoiceID  string `json:"invoiceId,omitempty"`
	LineItems  int    `json:"lineItems"`
	Payment    bool   `json:"payment"`
	Skipped    bool   `json:"skipped"`
	Err        error  `json:"-"`
}

// MarshalJSON renders Err as its message.
func (o ImportOutcome) MarshalJSON() ([]byte, error) {
	type plain ImportOutcome
	var msg string
	if o.Err != nil {
		msg = o.Err.Error()
	}
	return json.Marshal(struct {
		plain
		Error string `json:"error,omitempty"`
	}{plain(o), msg})
}

// ImportReport folds the outcomes of one batch.
type ImportReport struct {
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt time.Time       `json:"finishedAt"`
	Total      int             `json:"total"`
	Imported   int             `json:"imported"`
	Skipped    int             `json:"skipped"`
	Failed     int             `json:"failed"`
	Outcomes   []ImportOutcome `json:"outcomes"`
}

func (r *ImportReport) add(o ImportOutcome) {
	r.Total++
	switch {
	case o.Err != nil:
		r.Failed++
	case o.Skipped:
		r.Skipped++
	default:
		r.Imported++
	}
	r.Outcomes = append(r.Outcomes, o)
}

// ImportService turns raw source documents into stored entities.
type ImportService interface {
	// ImportBatch decodes a batch and imports every document in it.
	// Only an undecodable batch is an error; per-document failures are reported in the outcomes.
	ImportBatch(ctx context.Context, r io.Reader) (*ImportReport, error)

	// Import processes docs sequentially. Each document is written in its own transaction.
	Import(ctx context.Context, docs []jsontree.Value) *ImportReport

	// ArchiveReport stores the report as JSON in object storage and returns its key.
	// It is a no-op returning "" when no storage is configured.
	ArchiveReport(ctx context.Context, report *ImportReport) (string, error)
}

type importService struct {
	repo      repository.ImportRepository
	extractor *extract.Extractor
	store     storage.Storage
	metrics   *ImportMetrics
	log       *slog.Logger
	opts      ImportOptions
	tracer    trace.Tracer
	now       func() time.Time
}

// NewImportService wires the importer. store and metrics may be nil.
func NewImportService(
	repo repository.ImportRepository,
	extractor *extract.Extractor,
	store storage.Storage,
	metrics *ImportMetrics,
	log *slog.Logger,
	opts ImportOptions,
) ImportService {
	if log == nil {
		log = slog.Default()
	}
	return &importService{
		repo:      repo,
		extractor: extractor,
		store:     store,
		metrics:   metrics,
		log:       log.With("component", "import"),
		opts:      opts,
		tracer:    otel.Tracer("invoiceanalytics/import"),
		now:       time.Now,
	}
}

// ParseBatch accepts a JSON array of documents or an object wrapping it under documents or items.
func ParseBatch(data []byte) ([]jsontree.Value, error) {
	root, err := jsontree.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBatch, err)
	}
	switch root.Kind() {
	case jsontree.Array:
		return root.Items(), nil
	case jsontree.Object:
		for _, key := range []string{"documents", "items"} {
			if v := root.Field(key); v.Kind() == jsontree.Array {
				return v.Items(), nil
			}
		}
	}
	return nil, ErrInvalidBatch
}

func (s *importService) ImportBatch(ctx context.Context, r io.Reader) (*ImportReport, error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read batch: %w", err)
	}
	docs, err := ParseBatch(data)
	if err != nil {
		return nil, err
	}
	return s.Import(ctx, docs), nil
}

func (s *importService) Import(ctx context.Context, docs []jsontree.Value) *ImportReport {
	ctx, span := s.tracer.Start(ctx, "import.batch", trace.WithAttributes(attribute.Int("import.documents", len(docs))))
	defer span.End()

	report := &ImportReport{StartedAt: s.now(), Outcomes: make([]ImportOutcome, 0, len(docs))}
	for i, raw := range docs {
		o := s.importOne(ctx, raw)
		o.Index = i
		s.metrics.observe(o)
		s.logOutcome(o)
		report.add(o)
	}
	report.FinishedAt = s.now()

	span.SetAttributes(
		attribute.Int("import.imported", report.Imported),
		attribute.Int("import.skipped", report.Skipped),
		attribute.Int("import.failed", report.Failed),
	)
	s.log.Info("import finished",
		"total", report.Total,
		"imported", report.Imported,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"duration_ms", report.FinishedAt.Sub(report.StartedAt).Milliseconds(),
	)
	return report
}

func (s *importService) importOne(ctx context.Context, raw jsontree.Value) (out ImportOutcome) {
	ctx, span := s.tracer.Start(ctx, "import.document")
	defer func() {
		if out.Err != nil {
			span.RecordError(out.Err)
			span.SetStatus(codes.Error, out.Err.Error())
		}
		span.End()
	}()

	ex, err := s.extractor.Extract(raw)
	if err != nil {
		out.Err = fmt.Errorf("extract: %w", err)
		return out
	}
	out.SourceID = ex.SourceID
	span.SetAttributes(attribute.String("import.source_id", ex.SourceID))

	var result ImportOutcome
	err = s.repo.WithinTx(ctx, func(ctx context.Context, w repository.ImportWriter) error {
		var err error
		result, err = s.write(ctx, w, ex)
		return err
	})
	if err != nil {
		// The transaction rolled back, so nothing of this document was kept.
		out.Err = err
		return out
	}
	result.SourceID = ex.SourceID
	return result
}

// write persists one extraction: document, then vendor and customer, then the invoice and its children.
func (s *importService) write(ctx context.Context, w repository.ImportWriter, ex *extract.Extraction) (ImportOutcome, error) {
	var out ImportOutcome

	docID, err := w.UpsertDocument(ctx, &ex.Document)
	if err != nil {
		return out, fmt.Errorf("upsert document: %w", err)
	}
	out.DocumentID = docID

	if s.opts.SkipExisting {
		exists, err := w.InvoiceExistsForDocument(ctx, docID)
		if err != nil {
			return out, fmt.Errorf("check existing invoice: %w", err)
		}
		if exists {
			out.Skipped = true
			return out, nil
		}
	}

	inv := ex.Invoice
	inv.DocumentID = docID
	inv.CreatedAt = s.now().UTC()

	if ex.Vendor != nil {
		id, err := w.UpsertVendor(ctx, ex.Vendor)
		if err != nil {
			return out, fmt.Errorf("upsert vendor: %w", err)
		}
		inv.VendorID = &id
	}
	if ex.Customer != nil {
		id, err := w.CreateCustomer(ctx, ex.Customer)
		if err != nil {
			return out, fmt.Errorf("create customer: %w", err)
		}
		inv.CustomerID = &id
	}

	invID, err := w.CreateInvoice(ctx, &inv)
	if err != nil {
		return out, fmt.Errorf("create invoice: %w", err)
	}
	out.InvoiceID = invID

	for i := range ex.LineItems {
		li := ex.LineItems[i]
		li.InvoiceID = invID
		if _, err := w.CreateLineItem(ctx, &li); err != nil {
			return out, fmt.Errorf("create line item %d: %w", i, err)
		}
		out.LineItems++
	}

	if ex.Payment != nil {
		p := *ex.Payment
		p.InvoiceID = invID
		if _, err := w.CreatePayment(ctx, &p); err != nil {
			return out, fmt.Errorf("create payment: %w", err)
		}
		out.Payment = true
	}
	return out, nil
}

func (s *importService) logOutcome(o ImportOutcome) {
	log := s.log.With("index", o.Index, "sourceId", o.SourceID)
	switch {
	case o.Err != nil:
		log.Error("import document failed", "error", o.Err)
	case o.Skipped:
		log.Info("document already imported, children skipped", "documentId", o.DocumentID)
	default:
		log.Info("imported document",
			"documentId", o.DocumentID,
			"invoiceId", o.InvoiceID,
			"lineItems", o.LineItems,
			"payment", o.Payment,
		)
	}
}

func (s *importService) ArchiveReport(ctx context.Context, report *ImportReport) (string, error) {
	if s.store == nil || report == nil {
		return "", nil
	}

	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}

	key := path.Join(s.opts.ReportPrefix, report.StartedAt.UTC().Format("20060102T150405Z")+".json")
	info, err := s.store.Put(ctx, key, bytes.NewReader(body), storage.PutObjectOptions{
		Size:        int64(len(body)),
		ContentType: "application/json",
		Metadata: map[string]string{
			"imported": fmt.Sprint(report.Imported),
			"failed":   fmt.Sprint(report.Failed),
		},
	})
	if err != nil {
		return "", fmt.Errorf("archive report: %w", err)
	}

	attrs := []any{"key", info.Key, "size", info.Size}
	if url, err := s.store.PresignGet(ctx, info.Key, reportURLExpiry); err == nil {
		attrs = append(attrs, "url", url)
	} else {
		s.log.Warn("presign report url failed", "key", info.Key, "error", err)
	}
	s.log.Info("import report archived", attrs...)
	return info.Key, nil
}

