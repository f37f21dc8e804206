package model

import "time"

// Invoice is owned by exactly one Document.
type Invoice struct {
	ID            string     `json:"id"`
	DocumentID    string     `json:"documentId"`
	InvoiceIDText *string    `json:"invoiceIdText"`
	InvoiceDate   *time.Time `json:"invoiceDate"`
	DeliveryDate  *time.Time `json:"deliveryDate"`
	Subtotal      *float64   `json:"subtotal"`
	TotalTax      *float64   `json:"totalTax"`
	InvoiceTotal  *float64   `json:"invoiceTotal"`
	Currency      *string    `json:"currency"`
	DocumentType  *string    `json:"documentType"`
	VendorID      *string    `json:"vendorId"`
	CustomerID    *string    `json:"customerId"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// LineItem belongs to one Invoice. Sachkonto is the ledger/category code,
// BUSchluessel the tax-posting key.
type LineItem struct {
	ID           string   `json:"id"`
	InvoiceID    string   `json:"invoiceId"`
	SrNo         *float64 `json:"srNo"`
	Description  *string  `json:"description"`
	Quantity     *float64 `json:"quantity"`
	UnitPrice    *float64 `json:"unitPrice"`
	TotalPrice   *float64 `json:"totalPrice"`
	Sachkonto    *string  `json:"sachkonto"`
	BUSchluessel *string  `json:"buschluessel"`
	VatRate      *float64 `json:"vatRate"`
	VatAmount    *float64 `json:"vatAmount"`
}

// Payment holds the payment terms of an Invoice. At most one per invoice.
type Payment struct {
	ID                 string     `json:"id"`
	InvoiceID          string     `json:"invoiceId"`
	DueDate            *time.Time `json:"dueDate"`
	PaymentTerms       *string    `json:"paymentTerms"`
	BankAccount        *string    `json:"bankAccount"`
	BIC                *string    `json:"bic"`
	AccountName        *string    `json:"accountName"`
	NetDays            *int       `json:"netDays"`
	DiscountPercentage *float64   `json:"discountPercentage"`
	DiscountDays       *int       `json:"discountDays"`
	DiscountedTotal    *float64   `json:"discountedTotal"`
}

// InvoiceDetail is an Invoice with its resolved vendor and customer, as listed to clients.
type InvoiceDetail struct {
	Invoice
	Vendor   *Vendor   `json:"vendor"`
	Customer *Customer `json:"customer"`
}

// InvoiceWithPayment pairs an Invoice with its optional Payment.
type InvoiceWithPayment struct {
	Invoice
	Payment *Payment `json:"payment"`
}
