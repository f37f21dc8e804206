package service

import "github.com/prometheus/client_golang/prometheus"

// Import outcome labels.
const (
	outcomeImported = "imported"
	outcomeSkipped  = "skipped"
	outcomeFailed   = "failed"
)

// ImportMetrics counts imported documents by outcome.
type ImportMetrics struct {
	documents *prometheus.CounterVec
	lineItems prometheus.Counter
}

func NewImportMetrics(reg prometheus.Registerer) (*ImportMetrics, error) {
	m := &ImportMetrics{
		documents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invoice_import_documents_total",
				Help: "Total number of source documents processed by the importer.",
			},
			[]string{"outcome"},
		),
		lineItems: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "invoice_import_line_items_total",
			Help: "Total number of line items written by the importer.",
		}),
	}

	for _, c := range []prometheus.Collector{m.documents, m.lineItems} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *ImportMetrics) observe(o ImportOutcome) {
	if m == nil {
		return
	}
	switch {
	case o.Err != nil:
		m.documents.WithLabelValues(outcomeFailed).Inc()
	case o.Skipped:
		m.documents.WithLabelValues(outcomeSkipped).Inc()
	default:
		m.documents.WithLabelValues(outcomeImported).Inc()
		m.lineItems.Add(float64(o.LineItems))
	}
}
