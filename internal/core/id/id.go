// Package id provides the identifiers of products, units, customers, agents and sale lines.
//
// New ids are UUIDv7, so primary keys and COPY-inserted sale lines sort by creation time.
package id

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

type ID = uuid.UUID

// ErrNil is returned by Parse for the all-zero id, which never names a stored row.
var ErrNil = errors.New("nil id")

// New returns a fresh UUIDv7. It falls back to v4 if the clock source fails.
func New() ID {
	if v, err := uuid.NewV7(); err == nil {
		return v
	}
	return uuid.New()
}

// Parse reads an id supplied by a caller. Surrounding whitespace is ignored.
func Parse(s string) (ID, error) {
	v, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, err
	}
	if v == uuid.Nil {
		return uuid.Nil, ErrNil
	}
	return v, nil
}

func IsNil(v ID) bool {
	return v == uuid.Nil
}
