package analytics

import (
	"regexp"
	"strconv"
	"time"

	"invoiceanalytics/internal/model"
)

// DefaultTermDays is assumed when nothing better is known about an invoice's terms.
const DefaultTermDays = 30

var termDaysPattern = regexp.MustCompile(`\d+`)

// EstimateDueDate returns the effective due date of an invoice at local midnight in loc.
// The first applicable rule wins:
//
//  1. the payment's explicit due date
//  2. invoice date + payment net days, when net days > 0
//  3. invoice date + the first integer found in the payment terms (30 if none)
//  4. invoice date + 30 days
//  5. invoice creation time + 30 days
//
// ok is false when the invoice has neither an invoice date nor a creation time.
func EstimateDueDate(inv model.Invoice, p *model.Payment, loc *time.Location) (due time.Time, ok bool) {
	if loc == nil {
		loc = time.Local
	}

	if p != nil && p.DueDate != nil {
		return Midnight(*p.DueDate, loc), true
	}

	if inv.InvoiceDate != nil {
		base := Midnight(*inv.InvoiceDate, loc)
		switch {
		case p != nil && p.NetDays != nil && *p.NetDays > 0:
			return base.AddDate(0, 0, *p.NetDays), true
		case p != nil && p.PaymentTerms != nil && *p.PaymentTerms != "":
			return base.AddDate(0, 0, termDays(*p.PaymentTerms)), true
		default:
			return base.AddDate(0, 0, DefaultTermDays), true
		}
	}

	if !inv.CreatedAt.IsZero() {
		return Midnight(inv.CreatedAt, loc).AddDate(0, 0, DefaultTermDays), true
	}
	return time.Time{}, false
}

// termDays reads "Net 45", "45 Tage netto" and the like. Terms without digits mean 30 days.
func termDays(terms string) int {
	m := termDaysPattern.FindString(terms)
	if m == "" {
		return DefaultTermDays
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return DefaultTermDays
	}
	return n
}

// Midnight truncates t to the start of its calendar day in loc.
func Midnight(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// DaysBetween returns the signed number of calendar days from `from` to `to`.
// Both are compared by their calendar date in their own location, so DST shifts do not matter.
func DaysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
