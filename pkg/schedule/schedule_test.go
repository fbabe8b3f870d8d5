package schedule

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func diamond(t *testing.T) *Plan[string] {
	g := NewGraph[string]()
	g.Add("a")
	g.Add("b", "a")
	g.Add("c", "a")
	g.Add("d", "b", "c")
	p, err := g.Build()
	require.NoError(t, err)
	return p
}

func TestBuildOrderAndStages(t *testing.T) {
	p := diamond(t)
	require.Equal(t, []string{"a", "b", "c", "d"}, p.Order())
	require.Equal(t, [][]string{{"a"}, {"b", "c"}, {"d"}}, p.Stages())
	require.ElementsMatch(t, []string{"b", "c"}, p.After("d"))
	require.Nil(t, p.After("zz"))
}

func TestBuildDeterministicTies(t *testing.T) {
	g := NewGraph[int]()
	g.Add(3)
	g.Add(1)
	g.Add(2, 3, 3) // duplicate constraint
	p, err := g.Build()
	require.NoError(t, err)
	require.Equal(t, []int{3, 1, 2}, p.Order())
	require.Equal(t, []int{3}, p.After(2))
}

func TestBuildRejectsCycle(t *testing.T) {
	g := NewGraph[string]()
	g.Add("free")
	g.Add("layout", "style")
	g.Add("style", "paint")
	g.Add("paint", "layout")
	_, err := g.Build()
	require.True(t, errors.Is(err, ErrCycle))
	require.Contains(t, err.Error(), "layout, style, paint")
	require.NotContains(t, err.Error(), "free")

	self := NewGraph[string]()
	self.Add("a", "a")
	_, err = self.Build()
	require.True(t, errors.Is(err, ErrCycle))
}

func TestBuildUnknownTask(t *testing.T) {
	g := NewGraph[string]()
	g.Add("a", "ghost")
	_, err := g.Build()
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrCycle))
}

func TestRunRespectsOrder(t *testing.T) {
	p := diamond(t)
	for _, limit := range []int{0, 1, 2} {
		var mu sync.Mutex
		finished := map[string]bool{}
		err := p.Run(context.Background(), limit, func(_ context.Context, k string) error {
			mu.Lock()
			defer mu.Unlock()
			for _, dep := range p.After(k) {
				if !finished[dep] {
					t.Errorf("limit %d: %s started before %s finished", limit, k, dep)
				}
			}
			finished[k] = true
			return nil
		})
		require.NoError(t, err)
		require.Len(t, finished, 4)
	}
}

func TestRunIndependentTasksConcurrently(t *testing.T) {
	g := NewGraph[int]()
	g.Add(1)
	g.Add(2)
	p, err := g.Build()
	require.NoError(t, err)

	// Each task waits for the other to start; this only finishes if both
	// run at the same time.
	var started sync.WaitGroup
	started.Add(2)
	err = p.Run(context.Background(), 0, func(context.Context, int) error {
		started.Done()
		started.Wait()
		return nil
	})
	require.NoError(t, err)
}

func TestRunLimitOne(t *testing.T) {
	g := NewGraph[int]()
	for i := 0; i < 8; i++ {
		g.Add(i)
	}
	p, err := g.Build()
	require.NoError(t, err)

	var running, peak atomic.Int32
	err = p.Run(context.Background(), 1, func(context.Context, int) error {
		cur := running.Add(1)
		if cur > peak.Load() {
			peak.Store(cur)
		}
		time.Sleep(time.Millisecond)
		running.Add(-1)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, int32(1), peak.Load())
}

func TestRunStopsAfterFailure(t *testing.T) {
	p := diamond(t)
	boom := errors.New("boom")
	var ran []string
	var mu sync.Mutex
	err := p.Run(context.Background(), 1, func(_ context.Context, k string) error {
		mu.Lock()
		ran = append(ran, k)
		mu.Unlock()
		if k == "a" {
			return boom
		}
		return nil
	})
	require.True(t, errors.Is(err, boom))
	require.Equal(t, []string{"a"}, ran)
}

func TestRunRecoversPanic(t *testing.T) {
	p := diamond(t)
	err := p.Run(context.Background(), 0, func(_ context.Context, k string) error {
		if k == "b" {
			panic("bad pass")
		}
		return nil
	})
	var pe *PanicError
	require.True(t, errors.As(err, &pe))
	require.Equal(t, "b", pe.Task)
	require.Equal(t, "bad pass", pe.Value)
	require.NotEmpty(t, pe.Stack)
}

func TestRunCanceled(t *testing.T) {
	p := diamond(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := p.Run(ctx, 0, func(context.Context, string) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, called)
}

func TestRunEmpty(t *testing.T) {
	p, err := NewGraph[string]().Build()
	require.NoError(t, err)
	require.NoError(t, p.Run(context.Background(), 0, func(context.Context, string) error {
		t.Fatal("no tasks")
		return nil
	}))
}
