package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoredSession(t *testing.T, st *Store) *Session {
	t.Helper()
	s, err := New("Severance", "client", &fakeBackend{set: threeQuestions()})
	require.NoError(t, err)
	st.Add(s)
	return s
}

func TestStoreWith(t *testing.T) {
	st := NewStore(time.Hour)
	s := newStoredSession(t, st)

	var seen string
	require.NoError(t, st.With(s.ID(), func(got *Session) error {
		seen = got.Show()
		return nil
	}))
	assert.Equal(t, "Severance", seen)

	boom := errors.New("boom")
	assert.Equal(t, boom, st.With(s.ID(), func(*Session) error { return boom }))
	assert.ErrorIs(t, st.With("missing", func(*Session) error { return nil }), ErrNotFound)
}

func TestStoreDelete(t *testing.T) {
	st := NewStore(time.Hour)
	s := newStoredSession(t, st)

	assert.True(t, st.Delete(s.ID()))
	assert.False(t, st.Delete(s.ID()))
	assert.ErrorIs(t, st.With(s.ID(), func(*Session) error { return nil }), ErrNotFound)
}

func TestStoreExpiresIdleSessions(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	st := NewStore(time.Hour)
	st.now = func() time.Time { return now }

	idle := newStoredSession(t, st)
	now = now.Add(30 * time.Minute)
	active := newStoredSession(t, st)

	now = now.Add(45 * time.Minute)
	assert.ErrorIs(t, st.With(idle.ID(), func(*Session) error { return nil }), ErrNotFound)
	assert.NoError(t, st.With(active.ID(), func(*Session) error { return nil }))
	assert.Equal(t, 1, st.Len())
}

func TestStoreSerialisesAccess(t *testing.T) {
	st := NewStore(time.Hour)
	s := newStoredSession(t, st)

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = st.With(s.ID(), func(*Session) error {
				counter++
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
}
