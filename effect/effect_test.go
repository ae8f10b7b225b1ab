package effect_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/on-the-ground/react_ive_go/effect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collect drains one run of an effect, returning the values emitted
// before the stream ended and the terminal error, if any.
func collect[T any](t *testing.T, src <-chan effect.Step[T]) ([]T, error) {
	t.Helper()
	var vals []T
	deadline := time.After(time.Second)
	for {
		select {
		case st, ok := <-src:
			if !ok {
				return vals, nil
			}
			if st.Err != nil {
				return vals, st.Err
			}
			vals = append(vals, st.Value)
		case <-deadline:
			t.Fatal("timed out draining the effect stream")
			panic("unreachable")
		}
	}
}

func requireStreamClosed[T any](t *testing.T, src <-chan effect.Step[T]) {
	t.Helper()
	select {
	case st, ok := <-src:
		require.False(t, ok, "expected the stream to be closed, got %+v", st)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the stream to close")
	}
}

func TestJust_EmitsInOrderThenCompletes(t *testing.T) {
	vals, err := collect(t, effect.Just(1, 2, 3).Run(context.Background()))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, vals)
}

func TestNone_CompletesWithoutEmitting(t *testing.T) {
	vals, err := collect(t, effect.None[string]().Run(context.Background()))
	require.NoError(t, err)
	assert.Empty(t, vals)

	// The zero value behaves the same.
	var zero effect.Effect[string]
	vals, err = collect(t, zero.Run(context.Background()))
	require.NoError(t, err)
	assert.Empty(t, vals)
}

func TestFail_TerminatesWithError(t *testing.T) {
	boom := errors.New("boom")
	src := effect.Fail[int](boom).Run(context.Background())
	vals, err := collect(t, src)
	require.ErrorIs(t, err, boom)
	assert.Empty(t, vals)
	requireStreamClosed(t, src)
}

func TestFuture_FirstResolveWins(t *testing.T) {
	eff := effect.Future(func(ctx context.Context, resolve func(string, error)) {
		resolve("first", nil)
		resolve("second", nil)
		resolve("", errors.New("too late"))
	})
	vals, err := collect(t, eff.Run(context.Background()))
	require.NoError(t, err)
	assert.Equal(t, []string{"first"}, vals)
}

func TestFuture_PropagatesFailure(t *testing.T) {
	boom := errors.New("boom")
	eff := effect.Future(func(ctx context.Context, resolve func(int, error)) {
		resolve(0, boom)
	})
	vals, err := collect(t, eff.Run(context.Background()))
	require.ErrorIs(t, err, boom)
	assert.Empty(t, vals)
}

func TestFuture_FailsWhenContextEndsFirst(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	eff := effect.Future(func(ctx context.Context, resolve func(int, error)) {
		<-ctx.Done()
	})
	src := eff.Run(ctx)
	cancel()

	vals, err := collect(t, src)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, vals)
}

func TestFireAndForget_RunsSideEffectThenCompletes(t *testing.T) {
	var ran atomic.Bool
	eff := effect.FireAndForget[int](func(ctx context.Context) {
		ran.Store(true)
	})
	vals, err := collect(t, eff.Run(context.Background()))
	require.NoError(t, err)
	assert.Empty(t, vals)
	assert.True(t, ran.Load())
}

func TestDefer_BuildsAFreshEffectPerRun(t *testing.T) {
	var builds atomic.Int64
	eff := effect.Defer(func() effect.Effect[int64] {
		return effect.Just(builds.Add(1))
	})
	require.Equal(t, int64(0), builds.Load(), "nothing may run before the first Run")

	vals, err := collect(t, eff.Run(context.Background()))
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, vals)

	vals, err = collect(t, eff.Run(context.Background()))
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, vals)
}
