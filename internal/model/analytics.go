package model

// VendorTotal is the per-vendor reduction of invoice totals as returned by storage.
type VendorTotal struct {
	VendorID string
	Total    float64
	Count    int
}

// InvoiceTotals summarizes all invoices.
type InvoiceTotals struct {
	Count   int
	Sum     float64
	Average float64
}
