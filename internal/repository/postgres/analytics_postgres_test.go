package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var invoiceCols = []string{"id", "document_id", "invoice_id_text", "invoice_date", "delivery_date", "subtotal",
	"total_tax", "invoice_total", "currency", "document_type", "vendor_id", "customer_id", "created_at"}

func newAnalyticsMock(t *testing.T) (*AnalyticsPostgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewAnalyticsPostgres(db), mock
}

func TestAnalyticsPostgres_ListLineItemSpend(t *testing.T) {
	repo, mock := newAnalyticsMock(t)

	mock.ExpectQuery("SELECT id, invoice_id, sachkonto, total_price FROM line_items").
		WillReturnRows(sqlmock.NewRows([]string{"id", "invoice_id", "sachkonto", "total_price"}).
			AddRow("li-1", "inv-1", "4100", 10.005).
			AddRow("li-2", "inv-1", nil, nil))

	items, err := repo.ListLineItemSpend(context.Background())

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "4100", *items[0].Sachkonto)
	assert.Equal(t, 10.005, *items[0].TotalPrice)
	assert.Nil(t, items[1].Sachkonto)
	assert.Nil(t, items[1].TotalPrice)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyticsPostgres_SumInvoicesByVendor(t *testing.T) {
	repo, mock := newAnalyticsMock(t)

	mock.ExpectQuery("SELECT vendor_id, COALESCE\\(SUM\\(invoice_total\\), 0\\), COUNT\\(\\*\\) FROM invoices WHERE vendor_id IS NOT NULL").
		WillReturnRows(sqlmock.NewRows([]string{"vendor_id", "sum", "count"}).
			AddRow("v-1", 300.5, 2).
			AddRow("v-2", 0.0, 1))

	totals, err := repo.SumInvoicesByVendor(context.Background())

	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, "v-1", totals[0].VendorID)
	assert.Equal(t, 300.5, totals[0].Total)
	assert.Equal(t, 2, totals[0].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyticsPostgres_FindVendorsByIDs(t *testing.T) {
	repo, mock := newAnalyticsMock(t)
	ctx := context.Background()

	t.Run("empty ids skip the query", func(t *testing.T) {
		vendors, err := repo.FindVendorsByIDs(ctx, nil)
		assert.NoError(t, err)
		assert.Empty(t, vendors)
	})

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, name, party_number, address, tax_id FROM vendors").
			WithArgs("v-1,v-2").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "party_number", "address", "tax_id"}).
				AddRow("v-1", "Acme GmbH", nil, "Berlin", nil))

		vendors, err := repo.FindVendorsByIDs(ctx, []string{"v-1", "v-2"})

		require.NoError(t, err)
		require.Len(t, vendors, 1)
		assert.Equal(t, "Acme GmbH", vendors[0].Name)
		assert.Equal(t, "Berlin", *vendors[0].Address)
		assert.Nil(t, vendors[0].PartyNumber)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyticsPostgres_ListDatedInvoices(t *testing.T) {
	repo, mock := newAnalyticsMock(t)
	date := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM invoices i WHERE i.invoice_date IS NOT NULL").
		WillReturnRows(sqlmock.NewRows(invoiceCols).
			AddRow("inv-1", "doc-1", "INV-1", date, nil, nil, nil, 119.0, "EUR", nil, "v-1", nil, date))

	invoices, err := repo.ListDatedInvoices(context.Background())

	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, date, *invoices[0].InvoiceDate)
	assert.Equal(t, 119.0, *invoices[0].InvoiceTotal)
	assert.Equal(t, "v-1", *invoices[0].VendorID)
	assert.Nil(t, invoices[0].CustomerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyticsPostgres_ListOutflowInvoices(t *testing.T) {
	repo, mock := newAnalyticsMock(t)
	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	due := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	cols := append(append([]string{}, invoiceCols...), "p_id", "due_date", "payment_terms", "bank_account", "bic",
		"account_name", "net_days", "discount_percentage", "discount_days", "discounted_total")
	mock.ExpectQuery("SELECT (.+) FROM invoices i LEFT JOIN payments p ON p.invoice_id = i.id WHERE i.invoice_total IS NOT NULL").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("inv-1", "doc-1", nil, nil, nil, nil, nil, 50.0, nil, nil, nil, nil, created,
				"p-1", due, "Net 30", nil, nil, nil, 30, nil, nil, nil).
			AddRow("inv-2", "doc-2", nil, nil, nil, nil, nil, 70.0, nil, nil, nil, nil, created,
				nil, nil, nil, nil, nil, nil, nil, nil, nil, nil))

	out, err := repo.ListOutflowInvoices(context.Background())

	require.NoError(t, err)
	require.Len(t, out, 2)
	require.NotNil(t, out[0].Payment)
	assert.Equal(t, "p-1", out[0].Payment.ID)
	assert.Equal(t, "inv-1", out[0].Payment.InvoiceID)
	assert.Equal(t, due, *out[0].Payment.DueDate)
	assert.Equal(t, 30, *out[0].Payment.NetDays)
	assert.Nil(t, out[1].Payment)
	assert.Equal(t, 70.0, *out[1].InvoiceTotal)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyticsPostgres_TotalsAndCounts(t *testing.T) {
	repo, mock := newAnalyticsMock(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\), COALESCE\\(SUM\\(invoice_total\\), 0\\), COALESCE\\(AVG\\(invoice_total\\), 0\\) FROM invoices").
		WillReturnRows(sqlmock.NewRows([]string{"count", "sum", "avg"}).AddRow(4, 400.0, 100.0))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	totals, err := repo.InvoiceTotals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, totals.Count)
	assert.Equal(t, 400.0, totals.Sum)
	assert.Equal(t, 100.0, totals.Average)

	n, err := repo.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	assert.NoError(t, mock.ExpectationsWereMet())
}
