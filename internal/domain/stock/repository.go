package stock

import (
	"context"
	"time"

	"batteryshop/internal/core/id"
)

// Repository is the stock unit store. Claim methods must run inside the sale transaction.
type Repository interface {
	// ClaimOldest marks up to qty of the oldest available units of the product as sold and
	// returns them in FIFO order. Units locked by a concurrent sale are skipped, so the
	// result may be shorter than qty.
	ClaimOldest(ctx context.Context, productID id.ID, qty int, soldAt time.Time) ([]Unit, error)

	// ClaimSerials marks the named units sold if they are currently available and returns
	// the units that were claimed.
	ClaimSerials(ctx context.Context, productID id.ID, serials []string, soldAt time.Time) ([]Unit, error)

	// CountAvailable returns the number of available units of the product.
	CountAvailable(ctx context.Context, productID id.ID) (int, error)

	// ListAvailable returns available units in FIFO order.
	ListAvailable(ctx context.Context, productID id.ID, limit int) ([]Unit, error)

	// CreateUnits inserts units (purchase intake and seeding).
	CreateUnits(ctx context.Context, units []Unit) error
}
