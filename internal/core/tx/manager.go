// Package tx decouples domain services from the database transaction implementation.
package tx

import (
	"context"
)

// Manager runs a unit of work.
//
// If fn returns an error (or ctx is cancelled) every write made through ctx is rolled back;
// otherwise the work is committed. Nested calls reuse the transaction carried by ctx.
// The concrete implementation lives in infrastructure/storage/postgres.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
