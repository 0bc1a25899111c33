package catalog

import (
	"context"

	"batteryshop/internal/core/id"
)

// Repository is the product access the sale engine needs.
type Repository interface {
	// GetByID returns NOT_FOUND when the product does not exist.
	GetByID(ctx context.Context, productID id.ID) (*Product, error)

	// GetBySKU returns NOT_FOUND when no product carries the SKU.
	GetBySKU(ctx context.Context, sku string) (*Product, error)

	// Create inserts a product definition (seeding only).
	Create(ctx context.Context, p *Product) error

	// TakeOnHand decrements on_hand_quantity by qty only if at least qty is on hand.
	// Returns INSUFFICIENT_STOCK otherwise.
	TakeOnHand(ctx context.Context, productID id.ID, qty int) error

	// SetOnHand overwrites on_hand_quantity. Used to resync a counter that drifted
	// from the serialized units.
	SetOnHand(ctx context.Context, productID id.ID, qty int) error
}
