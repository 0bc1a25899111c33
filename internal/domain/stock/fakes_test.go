package stock

import (
	"context"
	"slices"
	"sync"
	"time"

	"batteryshop/internal/core/apperror"
	"batteryshop/internal/core/id"
	"batteryshop/internal/domain/catalog"
)

type memUnits struct {
	mu    sync.Mutex
	units []Unit
}

func (m *memUnits) ClaimOldest(_ context.Context, productID id.ID, qty int, soldAt time.Time) ([]Unit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var idx []int
	for i, u := range m.units {
		if u.ProductID == productID && u.Status == StatusAvailable {
			idx = append(idx, i)
		}
	}
	slices.SortFunc(idx, func(a, b int) int { return CompareFIFO(m.units[a], m.units[b]) })
	if len(idx) > qty {
		idx = idx[:qty]
	}

	out := make([]Unit, 0, len(idx))
	for _, i := range idx {
		m.units[i].Status = StatusSold
		m.units[i].SoldAt = &soldAt
		out = append(out, m.units[i])
	}
	return out, nil
}

func (m *memUnits) ClaimSerials(_ context.Context, productID id.ID, serials []string, soldAt time.Time) ([]Unit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Unit
	for i, u := range m.units {
		if u.ProductID == productID && u.Status == StatusAvailable && slices.Contains(serials, u.SerialNumber) {
			m.units[i].Status = StatusSold
			m.units[i].SoldAt = &soldAt
			out = append(out, m.units[i])
		}
	}
	return out, nil
}

func (m *memUnits) CountAvailable(_ context.Context, productID id.ID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, u := range m.units {
		if u.ProductID == productID && u.Status == StatusAvailable {
			n++
		}
	}
	return n, nil
}

func (m *memUnits) ListAvailable(_ context.Context, productID id.ID, limit int) ([]Unit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Unit
	for _, u := range m.units {
		if u.ProductID == productID && u.Status == StatusAvailable {
			out = append(out, u)
		}
	}
	slices.SortFunc(out, CompareFIFO)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memUnits) CreateUnits(_ context.Context, units []Unit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range units {
		u.Seq = int64(len(m.units) + 1)
		m.units = append(m.units, u)
	}
	return nil
}

func (m *memUnits) status(serial string) Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.units {
		if u.SerialNumber == serial {
			return u.Status
		}
	}
	return ""
}

type memProducts struct {
	mu       sync.Mutex
	products map[id.ID]*catalog.Product
}

func newMemProducts(ps ...*catalog.Product) *memProducts {
	m := &memProducts{products: make(map[id.ID]*catalog.Product)}
	for _, p := range ps {
		m.products[p.ID] = p
	}
	return m
}

func (m *memProducts) GetByID(_ context.Context, productID id.ID) (*catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID)
	}
	cp := *p
	return &cp, nil
}

func (m *memProducts) GetBySKU(_ context.Context, sku string) (*catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.SKU == sku {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("product", sku)
}

func (m *memProducts) Create(_ context.Context, p *catalog.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
	return nil
}

func (m *memProducts) TakeOnHand(_ context.Context, productID id.ID, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.products[productID]
	if p.OnHandQuantity < qty {
		return apperror.NewInsufficientStock(productID.String(), qty, p.OnHandQuantity)
	}
	p.OnHandQuantity -= qty
	return nil
}

func (m *memProducts) SetOnHand(_ context.Context, productID id.ID, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[productID].OnHandQuantity = qty
	return nil
}

func (m *memProducts) onHand(productID id.ID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[productID].OnHandQuantity
}
