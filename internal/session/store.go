package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

var ErrNotFound = errors.New("session not found")

const DefaultIdleTimeout = time.Hour

type entry struct {
	mu       sync.Mutex
	session  *Session
	lastUsed time.Time
}

// Store holds live sessions by ID. Sessions are ephemeral: idle ones are
// dropped on the next Add or With.
type Store struct {
	mu          sync.Mutex
	sessions    map[string]*entry
	idleTimeout time.Duration
	now         func() time.Time
}

func NewStore(idleTimeout time.Duration) *Store {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &Store{
		sessions:    make(map[string]*entry),
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
}

func (st *Store) Add(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sweepLocked()
	st.sessions[s.ID()] = &entry{session: s, lastUsed: st.now()}
}

// With runs fn with exclusive access to the session.
func (st *Store) With(id string, fn func(*Session) error) error {
	st.mu.Lock()
	st.sweepLocked()
	e, ok := st.sessions[id]
	if ok {
		e.lastUsed = st.now()
	}
	st.mu.Unlock()

	if !ok {
		return ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.session)
}

// Delete removes the session, reporting whether it existed.
func (st *Store) Delete(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	_, ok := st.sessions[id]
	delete(st.sessions, id)
	return ok
}

func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

func (st *Store) sweepLocked() {
	cutoff := st.now().Add(-st.idleTimeout)
	for id, e := range st.sessions {
		if e.lastUsed.Before(cutoff) {
			delete(st.sessions, id)
			slog.Debug("session expired", "session", id)
		}
	}
}
