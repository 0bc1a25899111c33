package commission

import (
	"context"

	"batteryshop/internal/core/id"
	"batteryshop/internal/core/types"
)

// Repository stores commission agents.
type Repository interface {
	// GetByID returns NOT_FOUND when the agent does not exist.
	GetByID(ctx context.Context, agentID id.ID) (*Agent, error)

	// FindByMobile returns NOT_FOUND when no agent has the normalized mobile number.
	FindByMobile(ctx context.Context, mobile string) (*Agent, error)

	// Ensure inserts the agent unless one with the same mobile number exists,
	// and returns the stored row either way.
	Ensure(ctx context.Context, a *Agent) (*Agent, error)

	// AddCommission atomically increments total_commission_paid.
	AddCommission(ctx context.Context, agentID id.ID, amount types.Money) error
}
