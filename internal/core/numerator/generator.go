package numerator

import (
	"context"
	"time"
)

// Generator generates sequential document numbers.
// Implementations live in infrastructure layer and must run inside the caller's transaction.
type Generator interface {
	// GetNextNumber generates the next number for the period containing the given time,
	// e.g. INV-20261016-0001.
	GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)
}
