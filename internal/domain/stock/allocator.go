package stock

import (
	"context"
	"time"

	"batteryshop/internal/core/apperror"
	"batteryshop/internal/domain/catalog"
	"batteryshop/pkg/logger"
)

// Allocator reserves units for sale lines.
// It must be called inside the sale transaction; a rollback returns every claimed unit.
type Allocator struct {
	units    Repository
	products catalog.Repository
	now      func() time.Time
}

// NewAllocator creates a new allocator.
func NewAllocator(units Repository, products catalog.Repository) *Allocator {
	return &Allocator{
		units:    units,
		products: products,
		now:      time.Now,
	}
}

// Allocate reserves qty units of the product.
//
// Serialized products: a selection naming exactly qty distinct serials is claimed as given,
// anything else falls back to FIFO (acquired_at, purchase_date, insertion order).
// Non-serialized products only take qty from the on-hand counter and get placeholder serials.
// On success the product's on-hand counter is reduced by qty, or reset to the available
// units when it was already behind them.
func (a *Allocator) Allocate(ctx context.Context, product *catalog.Product, qty int, sel Selector) (Allocation, error) {
	if qty <= 0 {
		return Allocation{}, apperror.NewValidation("quantity must be positive").
			WithDetail("productId", product.ID.String())
	}

	if !product.Category.IsSerialized() {
		return a.allocateBulk(ctx, product, qty)
	}

	var (
		alloc Allocation
		err   error
	)
	if serials, ok := sel.Usable(qty); ok {
		alloc, err = a.claimManual(ctx, product, serials)
	} else {
		if len(sel.Normalize()) > 0 {
			logger.Warn(ctx, "serial selection does not match quantity, using FIFO",
				"product_id", product.ID, "quantity", qty, "selected", len(sel.Normalize()))
		}
		alloc, err = a.claimFIFO(ctx, product, qty)
	}
	if err != nil {
		return Allocation{}, err
	}

	if err := a.syncCounter(ctx, product, qty); err != nil {
		return Allocation{}, err
	}
	return alloc, nil
}

// syncCounter takes qty claimed units off the on-hand counter. The units are the record
// of what is sellable, so a counter that was already short is reset to the available
// units instead of failing the sale.
func (a *Allocator) syncCounter(ctx context.Context, product *catalog.Product, qty int) error {
	err := a.products.TakeOnHand(ctx, product.ID, qty)
	if !apperror.IsInsufficientStock(err) {
		return err
	}

	available, err := a.units.CountAvailable(ctx, product.ID)
	if err != nil {
		return err
	}
	logger.Warn(ctx, "on-hand counter behind serialized units, resetting",
		"product_id", product.ID,
		"sku", product.SKU,
		"quantity", qty,
		"available_units", available)
	return a.products.SetOnHand(ctx, product.ID, available)
}

func (a *Allocator) allocateBulk(ctx context.Context, product *catalog.Product, qty int) (Allocation, error) {
	if err := a.products.TakeOnHand(ctx, product.ID, qty); err != nil {
		return Allocation{}, err
	}

	units := make([]Allocated, qty)
	for i := range units {
		units[i] = Allocated{SerialNumber: NonSerialMarker}
	}
	return Allocation{ProductID: product.ID, Units: units}, nil
}

func (a *Allocator) claimFIFO(ctx context.Context, product *catalog.Product, qty int) (Allocation, error) {
	claimed, err := a.units.ClaimOldest(ctx, product.ID, qty, a.now())
	if err != nil {
		return Allocation{}, err
	}
	if len(claimed) < qty {
		return Allocation{}, apperror.NewInsufficientStock(product.ID.String(), qty, len(claimed)).
			WithDetail("sku", product.SKU)
	}
	return Allocation{ProductID: product.ID, Units: toAllocated(claimed)}, nil
}

func (a *Allocator) claimManual(ctx context.Context, product *catalog.Product, serials []string) (Allocation, error) {
	claimed, err := a.units.ClaimSerials(ctx, product.ID, serials, a.now())
	if err != nil {
		return Allocation{}, err
	}

	bySerial := make(map[string]Unit, len(claimed))
	for _, u := range claimed {
		bySerial[u.SerialNumber] = u
	}

	ordered := make([]Unit, 0, len(serials))
	var unavailable []string
	for _, s := range serials {
		u, ok := bySerial[s]
		if !ok {
			unavailable = append(unavailable, s)
			continue
		}
		ordered = append(ordered, u)
	}
	if len(unavailable) > 0 {
		return Allocation{}, apperror.NewUnavailableSerials(product.ID.String(), len(serials), unavailable).
			WithDetail("sku", product.SKU)
	}

	return Allocation{ProductID: product.ID, Units: toAllocated(ordered), Manual: true}, nil
}

func toAllocated(units []Unit) []Allocated {
	out := make([]Allocated, len(units))
	for i := range units {
		unitID := units[i].ID
		out[i] = Allocated{UnitID: &unitID, SerialNumber: units[i].SerialNumber}
	}
	return out
}
