package sale

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"batteryshop/internal/core/apperror"
	"batteryshop/internal/core/id"
	"batteryshop/internal/core/types"
	"batteryshop/internal/domain/catalog"
	"batteryshop/internal/domain/commission"
	"batteryshop/internal/domain/customer"
	"batteryshop/internal/domain/stock"
)

// memStore is an in-memory shop. Its transaction manager serializes units of work
// and restores a snapshot when the work fails.
type memStore struct {
	mu sync.Mutex

	products  map[id.ID]catalog.Product
	units     []stock.Unit
	customers []customer.Customer
	agents    map[id.ID]commission.Agent
	lines     []LineItem

	failCreateLines error
}

type snapshot struct {
	products  map[id.ID]catalog.Product
	units     []stock.Unit
	customers []customer.Customer
	agents    map[id.ID]commission.Agent
	lines     []LineItem
}

func newMemStore() *memStore {
	return &memStore{
		products: make(map[id.ID]catalog.Product),
		agents:   make(map[id.ID]commission.Agent),
	}
}

func (m *memStore) snapshot() snapshot {
	return snapshot{
		products:  maps.Clone(m.products),
		units:     slices.Clone(m.units),
		customers: slices.Clone(m.customers),
		agents:    maps.Clone(m.agents),
		lines:     slices.Clone(m.lines),
	}
}

func (m *memStore) restore(s snapshot) {
	m.products, m.units, m.customers, m.agents, m.lines = s.products, s.units, s.customers, s.agents, s.lines
}

// --- tx.Manager ---

func (m *memStore) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.snapshot()
	err := fn(ctx)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		m.restore(snap)
	}
	return err
}

// --- seeding helpers ---

func (m *memStore) addProduct(sku string, category catalog.Category, mrp string, onHand int) catalog.Product {
	p := catalog.Product{
		ID:             id.New(),
		SKU:            sku,
		Name:           sku,
		Category:       category,
		MRP:            types.MustMoney(mrp),
		OnHandQuantity: onHand,
	}
	m.products[p.ID] = p
	return p
}

func (m *memStore) addUnit(productID id.ID, serial string, acquiredAt time.Time) {
	m.units = append(m.units, stock.Unit{
		ID:           id.New(),
		ProductID:    productID,
		SerialNumber: serial,
		Status:       stock.StatusAvailable,
		AcquiredAt:   acquiredAt,
		Seq:          int64(len(m.units) + 1),
	})
}

func (m *memStore) unitStatus(serial string) stock.Status {
	for _, u := range m.units {
		if u.SerialNumber == serial {
			return u.Status
		}
	}
	return ""
}

func (m *memStore) onHand(productID id.ID) int {
	return m.products[productID].OnHandQuantity
}

func (m *memStore) linesFor(invoice string) []LineItem {
	var out []LineItem
	for _, l := range m.lines {
		if l.InvoiceNumber == invoice {
			out = append(out, l)
		}
	}
	return out
}

// --- catalog.Repository ---

type productRepo struct{ *memStore }

func (r productRepo) GetByID(_ context.Context, productID id.ID) (*catalog.Product, error) {
	p, ok := r.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID)
	}
	return &p, nil
}

func (r productRepo) GetBySKU(_ context.Context, sku string) (*catalog.Product, error) {
	for _, p := range r.products {
		if p.SKU == sku {
			return &p, nil
		}
	}
	return nil, apperror.NewNotFound("product", sku)
}

func (r productRepo) Create(_ context.Context, p *catalog.Product) error {
	r.products[p.ID] = *p
	return nil
}

func (r productRepo) TakeOnHand(_ context.Context, productID id.ID, qty int) error {
	p := r.products[productID]
	if p.OnHandQuantity < qty {
		return apperror.NewInsufficientStock(productID.String(), qty, p.OnHandQuantity)
	}
	p.OnHandQuantity -= qty
	r.products[productID] = p
	return nil
}

func (r productRepo) SetOnHand(_ context.Context, productID id.ID, qty int) error {
	p := r.products[productID]
	p.OnHandQuantity = qty
	r.products[productID] = p
	return nil
}

// --- stock.Repository ---

type unitRepo struct{ *memStore }

func (r unitRepo) available(productID id.ID) []int {
	var idx []int
	for i, u := range r.units {
		if u.ProductID == productID && u.Status == stock.StatusAvailable {
			idx = append(idx, i)
		}
	}
	slices.SortFunc(idx, func(a, b int) int {
		ua, ub := r.units[a], r.units[b]
		if c := ua.AcquiredAt.Compare(ub.AcquiredAt); c != 0 {
			return c
		}
		return int(ua.Seq - ub.Seq)
	})
	return idx
}

func (r unitRepo) ClaimOldest(_ context.Context, productID id.ID, qty int, soldAt time.Time) ([]stock.Unit, error) {
	idx := r.available(productID)
	if len(idx) > qty {
		idx = idx[:qty]
	}
	out := make([]stock.Unit, 0, len(idx))
	for _, i := range idx {
		r.units[i].Status = stock.StatusSold
		r.units[i].SoldAt = &soldAt
		out = append(out, r.units[i])
	}
	return out, nil
}

func (r unitRepo) ClaimSerials(_ context.Context, productID id.ID, serials []string, soldAt time.Time) ([]stock.Unit, error) {
	var out []stock.Unit
	for _, i := range r.available(productID) {
		if slices.Contains(serials, r.units[i].SerialNumber) {
			r.units[i].Status = stock.StatusSold
			r.units[i].SoldAt = &soldAt
			out = append(out, r.units[i])
		}
	}
	return out, nil
}

func (r unitRepo) CountAvailable(_ context.Context, productID id.ID) (int, error) {
	return len(r.available(productID)), nil
}

func (r unitRepo) ListAvailable(_ context.Context, productID id.ID, limit int) ([]stock.Unit, error) {
	var out []stock.Unit
	for _, i := range r.available(productID) {
		out = append(out, r.units[i])
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r unitRepo) CreateUnits(_ context.Context, units []stock.Unit) error {
	r.units = append(r.units, units...)
	return nil
}

// --- customer.Repository ---

type customerRepo struct{ *memStore }

func (r customerRepo) FindByEmail(_ context.Context, email string) (*customer.Customer, error) {
	for _, c := range r.customers {
		if c.Role == customer.RoleCustomer && strings.EqualFold(c.Email, email) {
			return &c, nil
		}
	}
	return nil, apperror.NewNotFound("customer", email)
}

func (r customerRepo) FindByPhone(_ context.Context, phone string) (*customer.Customer, error) {
	for _, c := range r.customers {
		if c.Role == customer.RoleCustomer && c.Phone == phone {
			return &c, nil
		}
	}
	return nil, apperror.NewNotFound("customer", phone)
}

func (r customerRepo) Create(_ context.Context, c *customer.Customer) error {
	for _, existing := range r.customers {
		if strings.EqualFold(existing.Email, c.Email) || existing.Phone == c.Phone {
			return apperror.NewRetryConflict(nil)
		}
	}
	r.customers = append(r.customers, *c)
	return nil
}

func (r customerRepo) UpdateContact(_ context.Context, c *customer.Customer) error {
	for i := range r.customers {
		if r.customers[i].ID == c.ID {
			r.customers[i].Name, r.customers[i].Email, r.customers[i].Phone = c.Name, c.Email, c.Phone
		}
	}
	return nil
}

func (r customerRepo) MergeBusinessProfile(_ context.Context, customerID id.ID, d customer.BusinessDetails) error {
	for i := range r.customers {
		if r.customers[i].ID == customerID {
			d.ApplyTo(&r.customers[i])
		}
	}
	return nil
}

// --- commission.Repository ---

type agentRepo struct{ *memStore }

func (r agentRepo) GetByID(_ context.Context, agentID id.ID) (*commission.Agent, error) {
	a, ok := r.agents[agentID]
	if !ok {
		return nil, apperror.NewNotFound("commission agent", agentID)
	}
	return &a, nil
}

func (r agentRepo) FindByMobile(_ context.Context, mobile string) (*commission.Agent, error) {
	for _, a := range r.agents {
		if a.MobileNumber == mobile {
			return &a, nil
		}
	}
	return nil, apperror.NewNotFound("commission agent", mobile)
}

func (r agentRepo) Ensure(ctx context.Context, a *commission.Agent) (*commission.Agent, error) {
	if existing, err := r.FindByMobile(ctx, a.MobileNumber); err == nil {
		return existing, nil
	}
	r.agents[a.ID] = *a
	return a, nil
}

func (r agentRepo) AddCommission(_ context.Context, agentID id.ID, amount types.Money) error {
	a := r.agents[agentID]
	a.TotalCommissionPaid = a.TotalCommissionPaid.Add(amount)
	r.agents[agentID] = a
	return nil
}

// --- sale.Repository ---

type lineRepo struct{ *memStore }

func (r lineRepo) CreateLines(_ context.Context, lines []LineItem) error {
	if r.failCreateLines != nil {
		return r.failCreateLines
	}
	for _, l := range lines {
		for _, existing := range r.lines {
			if existing.InvoiceNumber == l.InvoiceNumber && existing.LineNo == l.LineNo {
				return apperror.NewRetryConflict(nil)
			}
			if l.StockUnitID != nil && existing.StockUnitID != nil && *l.StockUnitID == *existing.StockUnitID {
				return apperror.NewRetryConflict(nil)
			}
		}
	}
	r.lines = append(r.lines, lines...)
	return nil
}

func (r lineRepo) ListByInvoice(_ context.Context, invoiceNumber string) ([]LineItem, error) {
	return r.linesFor(invoiceNumber), nil
}

// --- audit ---

type auditLog struct {
	mu      sync.Mutex
	entries []string
}

func (a *auditLog) Record(_ context.Context, entityType, entityKey, action string, _ map[string]any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entityType+":"+entityKey+":"+action)
	return nil
}

// --- events ---

type eventLog struct {
	mu     sync.Mutex
	events []CompletedEvent
	err    error
}

func (e *eventLog) Emit(_ context.Context, aggregateType, _, eventType string, payload any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	if aggregateType == "sale" && eventType == EventCompleted {
		e.events = append(e.events, payload.(CompletedEvent))
	}
	return nil
}
