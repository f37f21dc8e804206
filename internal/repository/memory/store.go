// Package memory is an in-process implementation of the repository ports.
// It backs local runs without PostgreSQL and the service tests.
package memory

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"invoiceanalytics/internal/model"
	"invoiceanalytics/internal/repository"
)

// Store keeps every entity in memory. All methods are safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	state state
}

type state struct {
	documents    map[string]model.Document
	docOrder     []string
	vendors      map[string]model.Vendor
	vendorByName map[string]string
	vendorOrder  []string
	customers    map[string]model.Customer
	invoices     []model.Invoice
	lineItems    []model.LineItem
	payments     []model.Payment
}

func New() *Store {
	return &Store{state: state{
		documents:    make(map[string]model.Document),
		vendors:      make(map[string]model.Vendor),
		vendorByName: make(map[string]string),
		customers:    make(map[string]model.Customer),
	}}
}

var (
	_ repository.ImportRepository    = (*Store)(nil)
	_ repository.AnalyticsRepository = (*Store)(nil)
	_ repository.InvoiceRepository   = (*Store)(nil)
	_ repository.DocumentRepository  = (*Store)(nil)
)

// undoLog records what one transaction changed so a failure can be reverted
// without copying the whole state.
type undoLog struct {
	docOrder, vendorOrder         int
	invoices, lineItems, payments int
	// Previous values of touched keys; nil means the key did not exist.
	documents map[string]*model.Document
	vendors   map[string]*model.Vendor
	customers []string
}

func newUndoLog(st *state) *undoLog {
	return &undoLog{
		docOrder:    len(st.docOrder),
		vendorOrder: len(st.vendorOrder),
		invoices:    len(st.invoices),
		lineItems:   len(st.lineItems),
		payments:    len(st.payments),
		documents:   make(map[string]*model.Document),
		vendors:     make(map[string]*model.Vendor),
	}
}

func (u *undoLog) touchDocument(st *state, id string) {
	if _, seen := u.documents[id]; seen {
		return
	}
	var prev *model.Document
	if d, ok := st.documents[id]; ok {
		prev = &d
	}
	u.documents[id] = prev
}

func (u *undoLog) touchVendor(st *state, id string) {
	if _, seen := u.vendors[id]; seen {
		return
	}
	var prev *model.Vendor
	if v, ok := st.vendors[id]; ok {
		prev = &v
	}
	u.vendors[id] = prev
}

func (u *undoLog) revert(st *state) {
	for id, prev := range u.documents {
		if prev == nil {
			delete(st.documents, id)
		} else {
			st.documents[id] = *prev
		}
	}
	for id, prev := range u.vendors {
		if prev == nil {
			delete(st.vendorByName, st.vendors[id].Name)
			delete(st.vendors, id)
		} else {
			st.vendors[id] = *prev
		}
	}
	for _, id := range u.customers {
		delete(st.customers, id)
	}
	st.docOrder = st.docOrder[:u.docOrder]
	st.vendorOrder = st.vendorOrder[:u.vendorOrder]
	st.invoices = st.invoices[:u.invoices]
	st.lineItems = st.lineItems[:u.lineItems]
	st.payments = st.payments[:u.payments]
}

// WithinTx holds the write lock for the duration of fn and reverts fn's writes when it fails.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, w repository.ImportWriter) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	w := &writer{st: &s.state, undo: newUndoLog(&s.state)}
	if err := fn(ctx, w); err != nil {
		w.undo.revert(&s.state)
		return err
	}
	return nil
}

// writer mutates the state directly; the caller holds the lock.
type writer struct {
	st   *state
	undo *undoLog
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func (w *writer) UpsertVendor(ctx context.Context, v *model.Vendor) (string, error) {
	if id, ok := w.st.vendorByName[v.Name]; ok {
		w.undo.touchVendor(w.st, id)
		cur := w.st.vendors[id]
		if v.PartyNumber != nil {
			cur.PartyNumber = v.PartyNumber
		}
		if v.Address != nil {
			cur.Address = v.Address
		}
		if v.TaxID != nil {
			cur.TaxID = v.TaxID
		}
		w.st.vendors[id] = cur
		return id, nil
	}

	stored := *v
	stored.ID = newID(v.ID)
	w.undo.touchVendor(w.st, stored.ID)
	w.st.vendors[stored.ID] = stored
	w.st.vendorByName[stored.Name] = stored.ID
	w.st.vendorOrder = append(w.st.vendorOrder, stored.ID)
	return stored.ID, nil
}

func (w *writer) CreateCustomer(ctx context.Context, c *model.Customer) (string, error) {
	stored := *c
	stored.ID = newID(c.ID)
	w.undo.customers = append(w.undo.customers, stored.ID)
	w.st.customers[stored.ID] = stored
	return stored.ID, nil
}

func (w *writer) UpsertDocument(ctx context.Context, d *model.Document) (string, error) {
	stored := *d
	w.undo.touchDocument(w.st, d.ID)
	if cur, ok := w.st.documents[d.ID]; ok {
		stored.CreatedAt = cur.CreatedAt
	} else {
		w.st.docOrder = append(w.st.docOrder, d.ID)
	}
	w.st.documents[d.ID] = stored
	return d.ID, nil
}

func (w *writer) InvoiceExistsForDocument(ctx context.Context, documentID string) (bool, error) {
	for _, inv := range w.st.invoices {
		if inv.DocumentID == documentID {
			return true, nil
		}
	}
	return false, nil
}

func (w *writer) CreateInvoice(ctx context.Context, inv *model.Invoice) (string, error) {
	stored := *inv
	stored.ID = newID(inv.ID)
	w.st.invoices = append(w.st.invoices, stored)
	return stored.ID, nil
}

func (w *writer) CreateLineItem(ctx context.Context, li *model.LineItem) (string, error) {
	stored := *li
	stored.ID = newID(li.ID)
	w.st.lineItems = append(w.st.lineItems, stored)
	return stored.ID, nil
}

func (w *writer) CreatePayment(ctx context.Context, p *model.Payment) (string, error) {
	stored := *p
	stored.ID = newID(p.ID)
	w.st.payments = append(w.st.payments, stored)
	return stored.ID, nil
}

func (s *Store) ListLineItemSpend(ctx context.Context) ([]model.LineItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.LineItem{}, s.state.lineItems...), nil
}

func (s *Store) SumInvoicesByVendor(ctx context.Context) ([]model.VendorTotal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.VendorTotal, 0)
	index := make(map[string]int)
	for _, inv := range s.state.invoices {
		if inv.VendorID == nil {
			continue
		}
		i, ok := index[*inv.VendorID]
		if !ok {
			i = len(out)
			index[*inv.VendorID] = i
			out = append(out, model.VendorTotal{VendorID: *inv.VendorID})
		}
		if inv.InvoiceTotal != nil {
			out[i].Total += *inv.InvoiceTotal
		}
		out[i].Count++
	}
	return out, nil
}

func (s *Store) FindVendorsByIDs(ctx context.Context, ids []string) ([]model.Vendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Vendor, 0, len(ids))
	for _, id := range ids {
		if v, ok := s.state.vendors[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *Store) ListDatedInvoices(ctx context.Context) ([]model.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Invoice, 0, len(s.state.invoices))
	for _, inv := range s.state.invoices {
		if inv.InvoiceDate != nil {
			out = append(out, inv)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].InvoiceDate.Before(*out[j].InvoiceDate)
	})
	return out, nil
}

func (s *Store) ListOutflowInvoices(ctx context.Context) ([]model.InvoiceWithPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byInvoice := make(map[string]model.Payment, len(s.state.payments))
	for _, p := range s.state.payments {
		if _, ok := byInvoice[p.InvoiceID]; !ok {
			byInvoice[p.InvoiceID] = p
		}
	}

	out := make([]model.InvoiceWithPayment, 0, len(s.state.invoices))
	for _, inv := range s.state.invoices {
		if inv.InvoiceTotal == nil {
			continue
		}
		iwp := model.InvoiceWithPayment{Invoice: inv}
		if p, ok := byInvoice[inv.ID]; ok {
			iwp.Payment = &p
		}
		out = append(out, iwp)
	}
	return out, nil
}

func (s *Store) InvoiceTotals(ctx context.Context) (*model.InvoiceTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t := &model.InvoiceTotals{Count: len(s.state.invoices)}
	var withTotal int
	for _, inv := range s.state.invoices {
		if inv.InvoiceTotal != nil {
			t.Sum += *inv.InvoiceTotal
			withTotal++
		}
	}
	if withTotal > 0 {
		t.Average = t.Sum / float64(withTotal)
	}
	return t, nil
}

func (s *Store) CountDocuments(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.state.documents), nil
}

func (s *Store) List(ctx context.Context, q repository.InvoiceQuery) (*repository.PageResult[model.InvoiceDetail], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(q.Search)
	matched := make([]model.InvoiceDetail, 0)
	for _, inv := range s.state.invoices {
		d := model.InvoiceDetail{Invoice: inv}
		if inv.VendorID != nil {
			if v, ok := s.state.vendors[*inv.VendorID]; ok {
				d.Vendor = &v
			}
		}
		if inv.CustomerID != nil {
			if c, ok := s.state.customers[*inv.CustomerID]; ok {
				d.Customer = &c
			}
		}
		if needle != "" && !matches(d, needle) {
			continue
		}
		matched = append(matched, d)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i].InvoiceDate, matched[j].InvoiceDate
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})

	total := len(matched)
	start := max(0, min(q.Offset, total))
	end := total
	if q.Limit > 0 {
		end = min(start+q.Limit, total)
	}
	return &repository.PageResult[model.InvoiceDetail]{Items: matched[start:end], Total: total}, nil
}

func matches(d model.InvoiceDetail, needle string) bool {
	if d.InvoiceIDText != nil && strings.Contains(strings.ToLower(*d.InvoiceIDText), needle) {
		return true
	}
	return d.Vendor != nil && strings.Contains(strings.ToLower(d.Vendor.Name), needle)
}

// FindByID returns sql.ErrNoRows for unknown ids, like the PostgreSQL repository.
func (s *Store) FindByID(ctx context.Context, id string) (*model.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.state.documents[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &d, nil
}
