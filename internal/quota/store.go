package quota

import (
	"context"
	"errors"
	"time"
)

// ErrNoRecord is returned by Store.Incr when no record exists for the identity.
var ErrNoRecord = errors.New("quota record not found")

// Record is the persisted counter for one client identity.
type Record struct {
	Count   int
	ResetAt time.Time
}

// Store is the external key-value counter backing a Ledger. Implementations
// must key strictly by identity. Records may be dropped once ResetAt has
// passed.
type Store interface {
	// Get returns the record for identity; ok is false when none exists.
	Get(ctx context.Context, identity string) (rec Record, ok bool, err error)
	// Set replaces the record for identity.
	Set(ctx context.Context, identity string, rec Record) error
	// Incr atomically adds one to the count of an existing record and
	// returns the updated record.
	Incr(ctx context.Context, identity string) (Record, error)
	Close() error
}
