package extract

import (
	"errors"
	"time"

	"invoiceanalytics/internal/jsontree"
	"invoiceanalytics/internal/model"
)

// ErrMissingID is returned when a record carries neither "_id" nor "id".
var ErrMissingID = errors.New("document id is missing")

// Extraction is everything pulled out of one raw record, ready to be persisted.
// IDs and foreign keys are left empty; the writer assigns them.
type Extraction struct {
	SourceID  string
	Document  model.Document
	Vendor    *model.Vendor   // nil when the record names no vendor
	Customer  *model.Customer // nil when neither customer name nor address is present
	Invoice   model.Invoice
	LineItems []model.LineItem
	Payment   *model.Payment // nil when no payment field carries data
}

// Extractor maps raw LLM output onto the relational model.
// It never fails on a missing or malformed field; the field is simply left absent.
type Extractor struct {
	loc *time.Location
	now func() time.Time
}

// New creates an Extractor that interprets zone-less dates in loc.
func New(loc *time.Location) *Extractor {
	if loc == nil {
		loc = time.Local
	}
	return &Extractor{loc: loc, now: time.Now}
}

// Extract converts one raw record.
func (e *Extractor) Extract(raw jsontree.Value) (*Extraction, error) {
	id := jsontree.FirstText(raw, "_id", "_id.$oid", "id")
	if id == nil {
		return nil, ErrMissingID
	}

	llm := raw.Get("extractedData.llmData")

	out := &Extraction{
		SourceID:  *id,
		Document:  e.document(*id, raw),
		Vendor:    vendor(llm),
		Customer:  customer(llm),
		Invoice:   e.invoice(llm),
		LineItems: lineItems(llm),
		Payment:   e.payment(llm),
	}
	out.Invoice.DocumentID = out.Document.ID
	return out, nil
}

func (e *Extractor) document(id string, raw jsontree.Value) model.Document {
	doc := model.Document{
		ID:          id,
		FileName:    jsontree.FirstText(raw, "name", "fileName"),
		FilePath:    jsontree.FirstText(raw, "filePath"),
		FileType:    jsontree.FirstText(raw, "fileType"),
		Status:      jsontree.FirstText(raw, "status"),
		ProcessedAt: jsontree.FirstDate(raw, e.loc, "processedAt"),
	}
	if size := jsontree.FirstNumber(raw, "fileSize"); size != nil {
		n := int64(*size)
		doc.FileSize = &n
	}

	if created := jsontree.FirstDate(raw, e.loc, "createdAt", "metadata.uploadedAt"); created != nil {
		doc.CreatedAt = *created
	} else {
		doc.CreatedAt = e.now()
	}

	// Both copies are verbatim; a tree decoded from JSON always re-encodes.
	if md := raw.Get("metadata"); !md.IsAbsent() {
		doc.Metadata, _ = md.MarshalJSON()
	}
	if ed := raw.Get("extractedData"); !ed.IsAbsent() {
		doc.RawJSON, _ = ed.MarshalJSON()
	}
	return doc
}

func vendor(llm jsontree.Value) *model.Vendor {
	name := jsontree.FirstText(llm, "vendor.value.vendorName.value")
	if name == nil {
		return nil
	}
	return &model.Vendor{
		Name:        *name,
		PartyNumber: jsontree.FirstText(llm, "vendor.value.vendorPartyNumber.value"),
		Address:     jsontree.FirstText(llm, "vendor.value.vendorAddress.value"),
		TaxID:       jsontree.FirstText(llm, "vendor.value.vendorTaxId.value"),
	}
}

func customer(llm jsontree.Value) *model.Customer {
	c := &model.Customer{
		Name:    jsontree.FirstText(llm, "customer.value.customerName.value"),
		Address: jsontree.FirstText(llm, "customer.value.customerAddress.value"),
	}
	if c.Name == nil && c.Address == nil {
		return nil
	}
	return c
}

func (e *Extractor) invoice(llm jsontree.Value) model.Invoice {
	return model.Invoice{
		InvoiceIDText: jsontree.FirstText(llm, "invoice.value.invoiceId.value"),
		InvoiceDate:   jsontree.FirstDate(llm, e.loc, "invoice.value.invoiceDate.value"),
		DeliveryDate:  jsontree.FirstDate(llm, e.loc, "invoice.value.deliveryDate.value"),
		Subtotal:      jsontree.FirstNumber(llm, summaryPaths("subTotal")...),
		TotalTax:      jsontree.FirstNumber(llm, summaryPaths("totalTax")...),
		InvoiceTotal:  jsontree.FirstNumber(llm, summaryPaths("invoiceTotal")...),
		DocumentType:  jsontree.FirstText(llm, summaryPaths("documentType")...),
		Currency:      jsontree.FirstText(llm, summaryPaths("currencySymbol")...),
	}
}

// Summary fields are sometimes emitted without the {value: ...} wrapper.
func summaryPaths(field string) []string {
	return wrapped("summary.value." + field)
}

func paymentPaths(field string) []string {
	return wrapped("payment.value." + field)
}

func wrapped(path string) []string {
	return []string{path + ".value", path}
}

func (e *Extractor) payment(llm jsontree.Value) *model.Payment {
	p := &model.Payment{
		DueDate:            jsontree.FirstDate(llm, e.loc, paymentPaths("dueDate")...),
		PaymentTerms:       jsontree.FirstText(llm, paymentPaths("paymentTerms")...),
		BankAccount:        jsontree.FirstText(llm, paymentPaths("bankAccountNumber")...),
		BIC:                jsontree.FirstText(llm, paymentPaths("BIC")...),
		AccountName:        jsontree.FirstText(llm, paymentPaths("accountName")...),
		NetDays:            jsontree.FirstInt(llm, paymentPaths("netDays")...),
		DiscountPercentage: jsontree.FirstNumber(llm, paymentPaths("discountPercentage")...),
		DiscountDays:       jsontree.FirstInt(llm, paymentPaths("discountDays")...),
		DiscountedTotal:    jsontree.FirstNumber(llm, paymentPaths("discountedTotal")...),
	}
	if !hasPaymentData(p) {
		return nil
	}
	return p
}

func hasPaymentData(p *model.Payment) bool {
	return p.DueDate != nil ||
		p.PaymentTerms != nil ||
		p.BankAccount != nil ||
		p.BIC != nil ||
		p.AccountName != nil ||
		p.NetDays != nil ||
		p.DiscountPercentage != nil ||
		p.DiscountDays != nil ||
		p.DiscountedTotal != nil
}

func lineItems(llm jsontree.Value) []model.LineItem {
	arr := llm.Get("lineItems.value.items.value")
	if arr.Kind() != jsontree.Array {
		arr = llm.Get("lineItems.value.items")
	}

	var items []model.LineItem
	for _, it := range arr.Items() {
		if it.Kind() != jsontree.Object {
			continue
		}
		items = append(items, model.LineItem{
			SrNo:         jsontree.FirstNumber(it, wrapped("srNo")...),
			Description:  jsontree.FirstText(it, wrapped("description")...),
			Quantity:     jsontree.FirstNumber(it, wrapped("quantity")...),
			UnitPrice:    jsontree.FirstNumber(it, wrapped("unitPrice")...),
			TotalPrice:   jsontree.FirstNumber(it, wrapped("totalPrice")...),
			Sachkonto:    jsontree.FirstText(it, wrapped("Sachkonto")...),
			BUSchluessel: jsontree.FirstText(it, wrapped("BUSchluessel")...),
			VatRate:      jsontree.FirstNumber(it, wrapped("vatRate")...),
			VatAmount:    jsontree.FirstNumber(it, wrapped("vatAmount")...),
		})
	}
	return items
}
