package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"invoiceanalytics/internal/model"
)

const (
	// TopN bounds the category and vendor rankings.
	TopN = 10
	// TrendMonths is how many of the most recent months the monthly trend keeps.
	TrendMonths = 12

	OtherCategory = "Other"
	UnknownVendor = "Unknown"
)

// Cash-outflow buckets, in presentation order.
const (
	Bucket0To7   = "0-7 days"
	Bucket8To30  = "8-30 days"
	Bucket31To60 = "31-60 days"
	Bucket60Plus = "60+ days"
)

var outflowBuckets = []string{Bucket0To7, Bucket8To30, Bucket31To60, Bucket60Plus}

// categoryLabels maps Sachkonto ledger codes to readable categories.
var categoryLabels = map[string]string{
	"4000": "Operations",
	"4100": "Marketing",
	"4200": "Facilities",
	"4300": "IT & Software",
	"4400": "Professional Services",
	"4500": "Travel & Entertainment",
	"4600": "Office Supplies",
	"4700": "Utilities",
	"4800": "Insurance",
	"4900": "Other Expenses",
}

// CategorySpend is the summed line item spend of one ledger category.
type CategorySpend struct {
	Category string  `json:"category"`
	Spend    float64 `json:"spend"`
}

// VendorSpend is one vendor's invoice total and count.
type VendorSpend struct {
	VendorID     string  `json:"vendorId"`
	VendorName   string  `json:"vendorName"`
	TotalSpend   float64 `json:"totalSpend"`
	InvoiceCount int     `json:"invoiceCount"`
}

// MonthlyTrend is the invoice count and spend of one calendar month ("2006-01").
type MonthlyTrend struct {
	Month        string  `json:"month"`
	InvoiceCount int     `json:"invoiceCount"`
	TotalSpend   float64 `json:"totalSpend"`
}

// OutflowBucket is the amount falling due within one period.
type OutflowBucket struct {
	Period string  `json:"period"`
	Amount float64 `json:"amount"`
}

// CategoryLabel resolves a Sachkonto code; unknown codes are returned unchanged.
func CategoryLabel(code string) string {
	if code == "" {
		return OtherCategory
	}
	if label, ok := categoryLabels[code]; ok {
		return label
	}
	return code
}

// CategorySpendOf sums line item totals per Sachkonto and returns the ten largest categories.
// Sums are exact; rounding to cents happens once, on output.
func CategorySpendOf(items []model.LineItem) []CategorySpend {
	type group struct {
		code string
		sum  decimal.Decimal
	}
	var groups []*group
	byCode := make(map[string]*group)

	for _, it := range items {
		code := OtherCategory
		if it.Sachkonto != nil && *it.Sachkonto != "" {
			code = *it.Sachkonto
		}
		g, ok := byCode[code]
		if !ok {
			g = &group{code: code}
			byCode[code] = g
			groups = append(groups, g)
		}
		g.sum = g.sum.Add(dec(it.TotalPrice))
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].sum.GreaterThan(groups[j].sum)
	})
	if len(groups) > TopN {
		groups = groups[:TopN]
	}

	out := make([]CategorySpend, 0, len(groups))
	for _, g := range groups {
		out = append(out, CategorySpend{Category: CategoryLabel(g.code), Spend: round(g.sum, 2)})
	}
	return out
}

// TopVendors ranks vendor totals by spend and resolves their names.
// Totals without a vendor id are ignored; missing names become "Unknown".
func TopVendors(totals []model.VendorTotal, names map[string]string) []VendorSpend {
	ranked := make([]model.VendorTotal, 0, len(totals))
	for _, t := range totals {
		if t.VendorID != "" {
			ranked = append(ranked, t)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Total > ranked[j].Total
	})
	if len(ranked) > TopN {
		ranked = ranked[:TopN]
	}

	out := make([]VendorSpend, 0, len(ranked))
	for _, t := range ranked {
		name, ok := names[t.VendorID]
		if !ok || name == "" {
			name = UnknownVendor
		}
		out = append(out, VendorSpend{
			VendorID:     t.VendorID,
			VendorName:   name,
			TotalSpend:   round(decimal.NewFromFloat(t.Total), 2),
			InvoiceCount: t.Count,
		})
	}
	return out
}

// MonthlyTrendOf buckets dated invoices by calendar month in loc and keeps the latest twelve months.
func MonthlyTrendOf(invoices []model.Invoice, loc *time.Location) []MonthlyTrend {
	if loc == nil {
		loc = time.Local
	}

	type bucket struct {
		count int
		sum   decimal.Decimal
	}
	buckets := make(map[string]*bucket)

	for _, inv := range invoices {
		if inv.InvoiceDate == nil {
			continue
		}
		key := inv.InvoiceDate.In(loc).Format("2006-01")
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		b.count++
		b.sum = b.sum.Add(dec(inv.InvoiceTotal))
	}

	months := make([]string, 0, len(buckets))
	for k := range buckets {
		months = append(months, k)
	}
	sort.Strings(months)
	if len(months) > TrendMonths {
		months = months[len(months)-TrendMonths:]
	}

	out := make([]MonthlyTrend, 0, len(months))
	for _, m := range months {
		b := buckets[m]
		out = append(out, MonthlyTrend{Month: m, InvoiceCount: b.count, TotalSpend: round(b.sum, 2)})
	}
	return out
}

// CashOutflow forecasts payable amounts by how many days remain until each invoice is due.
// Overdue invoices land in the first bucket. Invoices without a positive total or without a
// resolvable due date are skipped.
func CashOutflow(invoices []model.InvoiceWithPayment, now time.Time, loc *time.Location) []OutflowBucket {
	if loc == nil {
		loc = time.Local
	}
	today := Midnight(now, loc)

	sums := make(map[string]decimal.Decimal, len(outflowBuckets))
	for _, inv := range invoices {
		if inv.InvoiceTotal == nil || *inv.InvoiceTotal <= 0 {
			continue
		}
		due, ok := EstimateDueDate(inv.Invoice, inv.Payment, loc)
		if !ok {
			continue
		}
		b := OutflowBucketFor(DaysBetween(today, due))
		sums[b] = sums[b].Add(decimal.NewFromFloat(*inv.InvoiceTotal))
	}

	out := make([]OutflowBucket, 0, len(outflowBuckets))
	for _, b := range outflowBuckets {
		out = append(out, OutflowBucket{Period: b, Amount: round(sums[b], 2)})
	}
	return out
}

// OutflowBucketFor maps a signed day difference (due minus today) to its bucket label.
func OutflowBucketFor(days int) string {
	switch {
	case days <= 7:
		return Bucket0To7
	case days <= 30:
		return Bucket8To30
	case days <= 60:
		return Bucket31To60
	default:
		return Bucket60Plus
	}
}

func dec(f *float64) decimal.Decimal {
	if f == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*f)
}

// round uses half-away-from-zero, matching decimal.Round.
func round(d decimal.Decimal, places int32) float64 {
	f, _ := d.Round(places).Float64()
	return f
}

// RoundMoney rounds an amount to cents, half away from zero.
func RoundMoney(f float64) float64 {
	return round(decimal.NewFromFloat(f), 2)
}
