package snapstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueDrain(t *testing.T) {
	t.Parallel()
	q := NewQueue()
	var order []int
	q.Defer(func() {
		order = append(order, 1)
		q.Defer(func() { order = append(order, 3) })
		q.Drain()
	})
	q.Defer(func() { order = append(order, 2) })
	assert.Equal(t, 2, q.Len())
	q.Drain()
	assert.Equal(t, []int{1, 2, 3}, order)
	assert.Equal(t, 0, q.Len())
}

func TestSharedQueue(t *testing.T) {
	t.Parallel()
	q := NewQueue()
	s1 := New(map[string]any{}, WithScheduler(q))
	s2 := New(map[string]any{}, WithScheduler(q))
	var order []string
	s1.Subscriptions().Add(func(Snapshot) { order = append(order, "s1") })
	s2.Subscriptions().Add(func(Snapshot) { order = append(order, "s2") })

	s2.Handle().Set(Field("x"), 1)
	s1.Handle().Set(Field("x"), 1)
	assert.Equal(t, 2, q.Len())
	s1.Update(func(*Handle) {})
	assert.Equal(t, []string{"s2", "s1"}, order)
}

func TestFlushWithoutQueue(t *testing.T) {
	t.Parallel()
	var deferred []func()
	s := New(map[string]any{}, WithScheduler(schedulerFunc(func(task func()) {
		deferred = append(deferred, task)
	})))
	calls := 0
	s.Subscriptions().Add(func(Snapshot) { calls++ })
	s.Update(func(h *Handle) { h.Set(Field("x"), 1) })
	assert.Equal(t, 0, calls, "commit waits for the scheduler")
	require.Len(t, deferred, 1)
	s.Flush()
	assert.Equal(t, 1, calls)
	deferred[0]()
	assert.Equal(t, 1, calls, "nothing left to commit")
}

type schedulerFunc func(task func())

func (f schedulerFunc) Defer(task func()) { f(task) }

func TestLoop(t *testing.T) {
	t.Parallel()
	loopCtx, cancel := context.WithCancel(ctx)
	loop := NewLoop(4)
	ran := make(chan error, 1)
	go func() { ran <- loop.Run(loopCtx) }()

	s := New(map[string]any{"n": 0}, WithScheduler(loop))
	calls := 0
	var last Snapshot
	s.Subscriptions().Add(func(snap Snapshot) {
		calls++
		last = snap
	})
	err := loop.Do(ctx, func() {
		h := s.Handle()
		h.Set(Field("n"), 1)
		h.Set(Field("m"), 2)
		assert.True(t, s.Pending())
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, last.Lookup("n"))
	assert.Equal(t, 2, last.Lookup("m"))

	require.NoError(t, loop.Do(ctx, func() {
		s.Update(func(h *Handle) { h.Set(Field("n"), 5) })
	}))
	assert.Equal(t, 2, calls)
	assert.Equal(t, 5, s.Snapshot().Lookup("n"))

	cancel()
	select {
	case err := <-ran:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop")
	}
	assert.ErrorIs(t, loop.Post(ctx, func() {}), ErrLoopStopped)
	assert.ErrorIs(t, loop.Do(ctx, func() {}), ErrLoopStopped)
}

func TestLoopPostHonoursContext(t *testing.T) {
	t.Parallel()
	loop := NewLoop(0)
	postCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	err := loop.Post(postCtx, func() {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
