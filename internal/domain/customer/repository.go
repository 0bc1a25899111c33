package customer

import (
	"context"

	"batteryshop/internal/core/id"
)

// Repository stores customer identities. Lookups only consider the customer role.
type Repository interface {
	// FindByEmail matches case-insensitively. Returns NOT_FOUND when absent.
	FindByEmail(ctx context.Context, email string) (*Customer, error)

	// FindByPhone matches exactly. Returns NOT_FOUND when absent.
	FindByPhone(ctx context.Context, phone string) (*Customer, error)

	// Create inserts the identity and its profile.
	Create(ctx context.Context, c *Customer) error

	// UpdateContact rewrites name, email and phone. Classification is never written.
	UpdateContact(ctx context.Context, c *Customer) error

	// MergeBusinessProfile upserts business fields keeping stored values where d is blank.
	MergeBusinessProfile(ctx context.Context, customerID id.ID, d BusinessDetails) error
}
