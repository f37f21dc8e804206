package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"invoiceanalytics/internal/extract"
	"invoiceanalytics/internal/jsontree"
	"invoiceanalytics/internal/model"
	"invoiceanalytics/internal/repository"
	"invoiceanalytics/internal/repository/memory"
	repoMocks "invoiceanalytics/internal/repository/mocks"
	"invoiceanalytics/internal/storage"
	storeMocks "invoiceanalytics/internal/storage/mocks"
)

const acmeFirst = `{
    "_id": "doc-1",
    "name": "first.pdf",
    "extractedData": {"llmData": {
      "vendor": {"value": {"vendorName": {"value": "Acme GmbH"}, "vendorTaxId": {"value": "DE-OLD"}}},
      "customer": {"value": {"customerName": {"value": "Buyer AG"}}},
      "invoice": {"value": {"invoiceId": {"value": "INV-1"}, "invoiceDate": {"value": "2025-01-10"}}},
      "summary": {"value": {"invoiceTotal": {"value": 119}}},
      "payment": {"value": {"paymentTerms": {"value": "Net 14"}}},
      "lineItems": {"value": {"items": {"value": [
        {"totalPrice": {"value": 100}, "Sachkonto": {"value": "4100"}},
        {"totalPrice": {"value": 19}}
      ]}}}
    }}
  }`

const acmeSecond = `{
    "_id": "doc-2",
    "extractedData": {"llmData": {
      "vendor": {"value": {"vendorName": {"value": "Acme GmbH"}, "vendorTaxId": {"value": "DE-NEW"}}},
      "customer": {"value": {"customerName": {"value": "Buyer AG"}}},
      "summary": {"value": {"invoiceTotal": "50"}}
    }}
  }`

const acmeBatch = "[" + acmeFirst + "," + acmeSecond + "]"

func newTestImporter(repo repository.ImportRepository, store storage.Storage, metrics *ImportMetrics, buf *bytes.Buffer, opts ImportOptions) *importService {
	log := slog.New(slog.NewJSONHandler(buf, nil))
	svc := NewImportService(repo, extract.New(time.UTC), store, metrics, log, opts).(*importService)
	svc.now = func() time.Time { return time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func listAll(t *testing.T, store *memory.Store) []model.InvoiceDetail {
	t.Helper()
	res, err := store.List(context.Background(), repository.InvoiceQuery{PageQuery: repository.PageQuery{Limit: 100}})
	require.NoError(t, err)
	return res.Items
}

func TestImportService_ImportBatch(t *testing.T) {
	store := memory.New()
	reg := prometheus.NewRegistry()
	metrics, err := NewImportMetrics(reg)
	require.NoError(t, err)

	var logs bytes.Buffer
	svc := newTestImporter(store, nil, metrics, &logs, ImportOptions{})

	report, err := svc.ImportBatch(context.Background(), strings.NewReader(acmeBatch))
	require.NoError(t, err)

	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 2, report.Imported)
	assert.Zero(t, report.Failed)
	require.Len(t, report.Outcomes, 2)

	first := report.Outcomes[0]
	assert.Equal(t, 0, first.Index)
	assert.Equal(t, "doc-1", first.SourceID)
	assert.Equal(t, "doc-1", first.DocumentID)
	assert.NotEmpty(t, first.InvoiceID)
	assert.Equal(t, 2, first.LineItems)
	assert.True(t, first.Payment)
	assert.False(t, report.Outcomes[1].Payment)

	t.Run("vendor upsert is last write wins", func(t *testing.T) {
		invoices := listAll(t, store)
		require.Len(t, invoices, 2)
		require.NotNil(t, invoices[0].VendorID)
		require.NotNil(t, invoices[1].VendorID)
		assert.Equal(t, *invoices[0].VendorID, *invoices[1].VendorID)

		vendors, err := store.FindVendorsByIDs(context.Background(), []string{*invoices[0].VendorID})
		require.NoError(t, err)
		require.Len(t, vendors, 1)
		assert.Equal(t, "DE-NEW", *vendors[0].TaxID)
	})

	t.Run("customers with equal names stay separate", func(t *testing.T) {
		invoices := listAll(t, store)
		require.NotNil(t, invoices[0].CustomerID)
		require.NotNil(t, invoices[1].CustomerID)
		assert.NotEqual(t, *invoices[0].CustomerID, *invoices[1].CustomerID)
	})

	t.Run("metrics and logs", func(t *testing.T) {
		assert.Equal(t, 2.0, testutil.ToFloat64(metrics.documents.WithLabelValues(outcomeImported)))
		assert.Equal(t, 2.0, testutil.ToFloat64(metrics.lineItems))
		assert.Contains(t, logs.String(), `"msg":"imported document"`)
		assert.Contains(t, logs.String(), `"documentId":"doc-1"`)
		assert.NotContains(t, logs.String(), "Imported document")
		assert.Contains(t, logs.String(), `"invoiceId":"`+first.InvoiceID+`"`)
		assert.Contains(t, logs.String(), `"msg":"import finished"`)
	})
}

func TestImportService_ReimportDuplicatesChildren(t *testing.T) {
	store := memory.New()
	svc := newTestImporter(store, nil, nil, &bytes.Buffer{}, ImportOptions{})
	ctx := context.Background()

	_, err := svc.ImportBatch(ctx, strings.NewReader(acmeBatch))
	require.NoError(t, err)
	_, err = svc.ImportBatch(ctx, strings.NewReader(acmeBatch))
	require.NoError(t, err)

	docs, err := store.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, docs)
	assert.Len(t, listAll(t, store), 4)
}

func TestImportService_SkipExisting(t *testing.T) {
	store := memory.New()
	svc := newTestImporter(store, nil, nil, &bytes.Buffer{}, ImportOptions{SkipExisting: true})
	ctx := context.Background()

	_, err := svc.ImportBatch(ctx, strings.NewReader(acmeBatch))
	require.NoError(t, err)
	report, err := svc.ImportBatch(ctx, strings.NewReader(acmeBatch))
	require.NoError(t, err)

	assert.Equal(t, 2, report.Skipped)
	assert.Zero(t, report.Imported)
	assert.True(t, report.Outcomes[0].Skipped)
	assert.Empty(t, report.Outcomes[0].InvoiceID)
	assert.Len(t, listAll(t, store), 2)
}

func TestImportService_PerDocumentFailuresDoNotStopTheBatch(t *testing.T) {
	store := memory.New()
	var logs bytes.Buffer
	svc := newTestImporter(store, nil, nil, &logs, ImportOptions{})

	report, err := svc.ImportBatch(context.Background(), strings.NewReader(`{"documents": [
		{"name": "no id here"},
		{"_id": "ok-1"}
	]}`))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Imported)
	assert.ErrorIs(t, report.Outcomes[0].Err, extract.ErrMissingID)
	assert.Equal(t, "ok-1", report.Outcomes[1].SourceID)
	assert.Contains(t, logs.String(), `"level":"ERROR"`)

	b, err := json.Marshal(report.Outcomes[0])
	require.NoError(t, err)
	assert.Contains(t, string(b), `"error":"extract: document id is missing"`)
}

func TestImportService_WriteFailureRollsBack(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		setupMocks func(w *repoMocks.MockImportWriter)
		wantErrMsg string
	}{
		{
			name: "vendor upsert fails",
			setupMocks: func(w *repoMocks.MockImportWriter) {
				w.On("UpsertDocument", mock.Anything, mock.Anything).Return("doc-1", nil)
				w.On("UpsertVendor", mock.Anything, mock.Anything).Return("", errors.New("db down"))
			},
			wantErrMsg: "upsert vendor: db down",
		},
		{
			name: "line item fails",
			setupMocks: func(w *repoMocks.MockImportWriter) {
				w.On("UpsertDocument", mock.Anything, mock.Anything).Return("doc-1", nil)
				w.On("UpsertVendor", mock.Anything, mock.Anything).Return("v-1", nil)
				w.On("CreateCustomer", mock.Anything, mock.Anything).Return("c-1", nil)
				w.On("CreateInvoice", mock.Anything, mock.MatchedBy(func(inv *model.Invoice) bool {
					return inv.DocumentID == "doc-1" && *inv.VendorID == "v-1" && *inv.CustomerID == "c-1"
				})).Return("inv-1", nil)
				w.On("CreateLineItem", mock.Anything, mock.Anything).Return("", errors.New("check violation")).Once()
			},
			wantErrMsg: "create line item 0: check violation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := new(repoMocks.MockImportWriter)
			repo := &repoMocks.MockImportRepository{Writer: w}
			repo.On("WithinTx", mock.Anything).Return(nil)
			tt.setupMocks(w)

			svc := newTestImporter(repo, nil, nil, &bytes.Buffer{}, ImportOptions{})
			report, err := svc.ImportBatch(ctx, strings.NewReader("["+acmeFirst+"]"))
			require.NoError(t, err)

			require.Len(t, report.Outcomes, 1)
			assert.EqualError(t, report.Outcomes[0].Err, tt.wantErrMsg)
			assert.Empty(t, report.Outcomes[0].InvoiceID)
			w.AssertExpectations(t)
		})
	}
}

func TestImportService_TransactionError(t *testing.T) {
	repo := &repoMocks.MockImportRepository{}
	repo.On("WithinTx", mock.Anything).Return(errors.New("begin tx: conn refused"))

	svc := newTestImporter(repo, nil, nil, &bytes.Buffer{}, ImportOptions{})
	report := svc.Import(context.Background(), mustBatch(t, `[{"_id": "a"}, {"_id": "b"}]`))

	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, "a", report.Outcomes[0].SourceID)
}

func mustBatch(t *testing.T, s string) []jsontree.Value {
	t.Helper()
	docs, err := ParseBatch([]byte(s))
	require.NoError(t, err)
	return docs
}

func TestParseBatch(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{name: "array", input: `[{"_id": "a"}, {"_id": "b"}]`, want: 2},
		{name: "documents wrapper", input: `{"documents": [{"_id": "a"}]}`, want: 1},
		{name: "items wrapper", input: `{"items": []}`, want: 0},
		{name: "object without array", input: `{"documents": {"_id": "a"}}`, wantErr: true},
		{name: "scalar", input: `42`, wantErr: true},
		{name: "malformed", input: `[{"_id": `, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := ParseBatch([]byte(tt.input))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidBatch)
				return
			}
			require.NoError(t, err)
			assert.Len(t, docs, tt.want)
		})
	}
}

func TestImportService_ImportBatchNilReader(t *testing.T) {
	svc := newTestImporter(memory.New(), nil, nil, &bytes.Buffer{}, ImportOptions{})
	_, err := svc.ImportBatch(context.Background(), nil)
	assert.ErrorIs(t, err, ErrReaderNil)
}

func TestImportService_ArchiveReport(t *testing.T) {
	ctx := context.Background()
	report := &ImportReport{
		StartedAt: time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC),
		Total:     1,
		Imported:  1,
		Outcomes:  []ImportOutcome{{SourceID: "doc-1", InvoiceID: "inv-1"}},
	}

	t.Run("stores json and presigns", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mStore.On("Put", ctx, "import-reports/20250501T120000Z.json", mock.Anything, mock.MatchedBy(func(opt storage.PutObjectOptions) bool {
			return opt.ContentType == "application/json" && opt.Size > 0 && opt.Metadata["imported"] == "1"
		})).Return(func(_ context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
			body, _ := io.ReadAll(r)
			assert.Contains(t, string(body), `"sourceId": "doc-1"`)
			return storage.ObjectInfo{Key: key, Size: opt.Size}
		}, nil)
		mStore.On("PresignGet", ctx, "import-reports/20250501T120000Z.json", reportURLExpiry).
			Return("https://minio.local/import-reports/20250501T120000Z.json?sig", nil)

		var logs bytes.Buffer
		svc := newTestImporter(memory.New(), mStore, nil, &logs, ImportOptions{ReportPrefix: "import-reports"})
		key, err := svc.ArchiveReport(ctx, report)

		require.NoError(t, err)
		assert.Equal(t, "import-reports/20250501T120000Z.json", key)
		assert.Contains(t, logs.String(), "minio.local")
		mStore.AssertExpectations(t)
	})

	t.Run("put error", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{}, errors.New("bucket gone"))

		svc := newTestImporter(memory.New(), mStore, nil, &bytes.Buffer{}, ImportOptions{ReportPrefix: "r"})
		_, err := svc.ArchiveReport(ctx, report)

		assert.EqualError(t, err, "archive report: bucket gone")
	})

	t.Run("no storage configured", func(t *testing.T) {
		svc := newTestImporter(memory.New(), nil, nil, &bytes.Buffer{}, ImportOptions{})
		key, err := svc.ArchiveReport(ctx, report)
		assert.NoError(t, err)
		assert.Empty(t, key)
	})
}
