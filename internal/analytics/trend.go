package analytics

import (
	"math"

	"github.com/shopspring/decimal"
)

const (
	// PlaceholderTrend is reported while there is not enough history to compare against.
	PlaceholderTrend = 8.2

	trendWindow = 3
	trendCap    = 50.0
)

// TrendSummary is the month-over-month change of the latest month against a rolling baseline.
// Values are percentages.
type TrendSummary struct {
	SpendTrend      float64 `json:"spendTrend"`
	InvoiceTrend    float64 `json:"invoiceTrend"`
	AvgInvoiceTrend float64 `json:"avgInvoiceTrend"`
	HasData         bool    `json:"hasData"`
}

// AnalyzeTrend compares the last month of a chronological monthly trend against the mean of
// up to three months before it. Every change is clamped to [-50, 50] and rounded to one decimal.
// With fewer than two months the placeholder value is returned and HasData is false.
func AnalyzeTrend(months []MonthlyTrend) TrendSummary {
	if len(months) < 2 {
		return TrendSummary{
			SpendTrend:      PlaceholderTrend,
			InvoiceTrend:    PlaceholderTrend,
			AvgInvoiceTrend: PlaceholderTrend,
		}
	}

	current := months[len(months)-1]
	window := trendWindow
	if len(months)-1 < window {
		window = len(months) - 1
	}
	previous := months[len(months)-1-window : len(months)-1]

	var spend, count float64
	for _, m := range previous {
		spend += m.TotalSpend
		count += float64(m.InvoiceCount)
	}
	baseSpend := spend / float64(len(previous))
	baseCount := count / float64(len(previous))

	return TrendSummary{
		SpendTrend:      clampPct(current.TotalSpend, baseSpend),
		InvoiceTrend:    clampPct(float64(current.InvoiceCount), baseCount),
		AvgInvoiceTrend: clampPct(ratio(current.TotalSpend, float64(current.InvoiceCount)), ratio(baseSpend, baseCount)),
		HasData:         true,
	}
}

func ratio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// clampPct is the percentage change from base to cur, 0 when there is no positive base.
func clampPct(cur, base float64) float64 {
	if base <= 0 {
		return 0
	}
	pct := (cur - base) / base * 100
	pct = math.Max(-trendCap, math.Min(trendCap, pct))
	return round(decimal.NewFromFloat(pct), 1)
}
