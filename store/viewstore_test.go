package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/on-the-ground/react_ive_go/effect"
	"github.com/on-the-ground/react_ive_go/store"
)

type appState struct {
	Count int
	Noise int
}

type bump struct {
	count int
	noise int
}

func appReducer(s appState, a bump) (appState, effect.Effect[bump]) {
	s.Count += a.count
	s.Noise += a.noise
	return s, effect.None[bump]()
}

func newCountView(s *store.Store[appState, bump]) *store.ViewStore[int] {
	return store.NewViewStore(s,
		func(st appState) int { return st.Count },
		func(a, b int) bool { return a == b },
	)
}

func recvUpdate[V any](t *testing.T, updates <-chan V) V {
	t.Helper()
	select {
	case v, ok := <-updates:
		require.True(t, ok, "updates closed unexpectedly")
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for an update")
		panic("unreachable")
	}
}

func TestViewStore_ProjectsTheInitialValue(t *testing.T) {
	s := store.New(context.Background(), appState{Count: 3}, appReducer)
	defer s.Close()

	v := newCountView(s)
	defer v.Close()

	assert.Equal(t, 3, v.Value())
	assert.Equal(t, 3, recvUpdate(t, v.Updates()))
}

func TestViewStore_SuppressesEquivalentProjections(t *testing.T) {
	s := store.New(context.Background(), appState{}, appReducer)
	defer s.Close()

	v := newCountView(s)
	defer v.Close()
	recvUpdate(t, v.Updates())

	// A change the projection does not care about must stay silent.
	s.Send(bump{noise: 1})
	select {
	case got := <-v.Updates():
		t.Fatalf("update for an equivalent projection: %v", got)
	case <-time.After(50 * time.Millisecond):
	}

	s.Send(bump{count: 2})
	assert.Equal(t, 2, recvUpdate(t, v.Updates()))
	assert.Equal(t, 2, v.Value())
}

func TestViewStore_ConflatesForSlowReaders(t *testing.T) {
	s := store.New(context.Background(), appState{}, appReducer)
	defer s.Close()

	v := newCountView(s)
	defer v.Close()
	recvUpdate(t, v.Updates())

	s.Send(bump{count: 1})
	s.Send(bump{count: 1})
	s.Send(bump{count: 1})

	require.Eventually(t, func() bool {
		return v.Value() == 3
	}, time.Second, 5*time.Millisecond)

	// Whatever is pending is the newest projection, never a stale one.
	last := recvUpdate(t, v.Updates())
	for {
		select {
		case next, ok := <-v.Updates():
			require.True(t, ok)
			last = next
		case <-time.After(50 * time.Millisecond):
			assert.Equal(t, 3, last)
			return
		}
	}
}

func TestViewStore_CloseEndsUpdates(t *testing.T) {
	s := store.New(context.Background(), appState{}, appReducer)
	defer s.Close()

	v := newCountView(s)
	v.Close()
	v.Close()

	drainUntilClosed(t, v.Updates())
}

func TestViewStore_StoreCloseEndsUpdates(t *testing.T) {
	s := store.New(context.Background(), appState{}, appReducer)
	v := newCountView(s)
	defer v.Close()

	s.Close()
	drainUntilClosed(t, v.Updates())
}
