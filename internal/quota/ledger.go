// Package quota meters the expensive question-generation path per client
// identity over a daily window.
package quota

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/sozercan/episode-finder/internal/errs"
)

const (
	// DefaultDailyLimit is the number of generation calls allowed per identity per window.
	DefaultDailyLimit = 10

	Window = 24 * time.Hour
)

// Status is the result of a quota check.
type Status struct {
	Remaining    int
	ResetInHours int
	Limited      bool
}

// Ledger is the only component allowed to mutate quota state.
type Ledger struct {
	store Store
	limit int
	now   func() time.Time
}

type LedgerOption func(*Ledger)

// WithClock overrides the ledger's time source.
func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) { l.now = now }
}

func NewLedger(store Store, limit int, opts ...LedgerOption) *Ledger {
	if limit <= 0 {
		limit = DefaultDailyLimit
	}
	l := &Ledger{
		store: store,
		limit: limit,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Limit returns the configured daily limit.
func (l *Ledger) Limit() int { return l.limit }

// Check reports the remaining allowance for identity, resetting an expired
// window first.
func (l *Ledger) Check(ctx context.Context, identity string) (Status, error) {
	rec, err := l.current(ctx, identity)
	if err != nil {
		return Status{}, err
	}
	return l.status(rec), nil
}

// Increment records one successful generation for identity.
func (l *Ledger) Increment(ctx context.Context, identity string) (Status, error) {
	if _, err := l.current(ctx, identity); err != nil {
		return Status{}, err
	}
	rec, err := l.store.Incr(ctx, identity)
	if err != nil {
		slog.Error("quota increment failed", "identity", identity, "error", err)
		return Status{}, errs.Service("quota increment", err)
	}
	st := l.status(rec)
	slog.Debug("quota incremented", "identity", identity, "count", rec.Count, "remaining", st.Remaining)
	return st, nil
}

// current loads the record for identity, starting a fresh window when none
// exists or the stored one has expired.
func (l *Ledger) current(ctx context.Context, identity string) (Record, error) {
	now := l.now()
	rec, ok, err := l.store.Get(ctx, identity)
	if err != nil {
		slog.Error("quota lookup failed", "identity", identity, "error", err)
		return Record{}, errs.Service("quota check", err)
	}
	if ok && now.Before(rec.ResetAt) {
		return rec, nil
	}

	rec = Record{Count: 0, ResetAt: now.Add(Window)}
	if err := l.store.Set(ctx, identity, rec); err != nil {
		slog.Error("quota reset failed", "identity", identity, "error", err)
		return Record{}, errs.Service("quota reset", err)
	}
	return rec, nil
}

func (l *Ledger) status(rec Record) Status {
	remaining := l.limit - rec.Count
	if remaining < 0 {
		remaining = 0
	}
	hours := int(math.Ceil(rec.ResetAt.Sub(l.now()).Hours()))
	if hours < 0 {
		hours = 0
	}
	return Status{
		Remaining:    remaining,
		ResetInHours: hours,
		Limited:      remaining <= 0,
	}
}
