// Package stock allocates physical units to sales.
package stock

import (
	"cmp"
	"slices"
	"time"

	"batteryshop/internal/core/id"
)

// Status is the lifecycle state of a stock unit. Units move available -> sold once.
type Status string

const (
	StatusAvailable Status = "available"
	StatusSold      Status = "sold"
)

// NonSerialMarker stands in for the serial number of units of non-serialized categories.
const NonSerialMarker = "NON-SERIAL"

// Unit is one physical serialized item.
type Unit struct {
	ID           id.ID      `db:"id" json:"id"`
	ProductID    id.ID      `db:"product_id" json:"productId"`
	SerialNumber string     `db:"serial_number" json:"serialNumber"`
	Status       Status     `db:"status" json:"status"`
	AcquiredAt   time.Time  `db:"acquired_at" json:"acquiredAt"`
	PurchaseDate *time.Time `db:"purchase_date" json:"purchaseDate,omitempty"`
	// Seq is the insertion order, the last FIFO tie-breaker.
	Seq    int64      `db:"seq" json:"seq"`
	SoldAt *time.Time `db:"sold_at" json:"soldAt,omitempty"`
}

// Allocated is one unit handed to a sale line. UnitID is nil for non-serialized products.
type Allocated struct {
	UnitID       *id.ID
	SerialNumber string
}

// Allocation is the result of allocating a quantity of one product.
type Allocation struct {
	ProductID id.ID
	Units     []Allocated
	// Manual is true when the caller's serial selection was honoured.
	Manual bool
}

// SerialNumbers returns the allocated serials in allocation order.
func (a Allocation) SerialNumbers() []string {
	out := make([]string, len(a.Units))
	for i, u := range a.Units {
		out[i] = u.SerialNumber
	}
	return out
}

// CompareFIFO orders units oldest first: acquired_at, then purchase_date (missing last),
// then insertion order.
func CompareFIFO(a, b Unit) int {
	if c := a.AcquiredAt.Compare(b.AcquiredAt); c != 0 {
		return c
	}
	switch {
	case a.PurchaseDate != nil && b.PurchaseDate != nil:
		if c := a.PurchaseDate.Compare(*b.PurchaseDate); c != 0 {
			return c
		}
	case a.PurchaseDate != nil:
		return -1
	case b.PurchaseDate != nil:
		return 1
	}
	return cmp.Compare(a.Seq, b.Seq)
}

// SortFIFO sorts units in allocation order.
func SortFIFO(units []Unit) {
	slices.SortFunc(units, CompareFIFO)
}
