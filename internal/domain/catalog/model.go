package catalog

import (
	"time"

	"batteryshop/internal/core/id"
	"batteryshop/internal/core/types"
)

// Product is a sellable product definition.
type Product struct {
	ID       id.ID    `db:"id" json:"id"`
	SKU      string   `db:"sku" json:"sku"`
	Name     string   `db:"name" json:"name"`
	Category Category `db:"category" json:"category"`

	// AhVa is the capacity rating (Ah for batteries, VA for inverters).
	AhVa     *string `db:"ah_va" json:"ahVa,omitempty"`
	Warranty *string `db:"warranty" json:"warranty,omitempty"`

	// MRP is tax-inclusive.
	MRP         types.Money  `db:"mrp" json:"mrp"`
	DealerPrice *types.Money `db:"dealer_price" json:"dealerPrice,omitempty"`

	// OnHandQuantity is authoritative for non-serialized categories and mirrors
	// the available stock units for serialized ones.
	OnHandQuantity int `db:"on_hand_quantity" json:"onHandQuantity"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
