package snapstore

import (
	"context"
	"errors"
	"sync"
)

// Scheduler defers work until the end of the current turn. Deferred tasks
// must run in the order they were deferred, on the goroutine that owns the
// store, and after the task that deferred them has returned.
type Scheduler interface {
	Defer(task func())
}

// Queue is a FIFO of deferred tasks that runs when drained. It is the
// default Scheduler of a Store; Store.Update and Store.Flush drain it.
// A Queue may be shared by several stores that live on the same goroutine,
// so that one Drain ends the turn for all of them.
type Queue struct {
	tasks    []func()
	draining bool
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Defer appends task.
func (q *Queue) Defer(task func()) {
	q.tasks = append(q.tasks, task)
}

// Len is the number of tasks waiting.
func (q *Queue) Len() int {
	return len(q.tasks)
}

// Drain runs tasks until the queue is empty, including tasks deferred by
// the tasks it runs. A Drain called from inside a running task returns
// immediately; the outer Drain picks up whatever was added.
func (q *Queue) Drain() {
	if q.draining {
		return
	}
	q.draining = true
	defer func() { q.draining = false }()
	for len(q.tasks) > 0 {
		task := q.tasks[0]
		q.tasks[0] = nil
		q.tasks = q.tasks[1:]
		task()
	}
}

// ErrLoopStopped is returned by Loop.Post and Loop.Do once Run has returned.
var ErrLoopStopped = errors.New("snapstore: loop stopped")

// Loop runs posted tasks one at a time on the goroutine calling Run. Each
// posted task is a turn: work deferred during it runs right after it
// returns and before the next posted task starts. Stores that use a Loop
// as their Scheduler must only be touched from tasks running on it.
type Loop struct {
	posts   chan func()
	done    chan struct{}
	once    sync.Once
	pending Queue
}

// NewLoop returns a loop whose Post buffers up to backlog tasks.
func NewLoop(backlog int) *Loop {
	return &Loop{
		posts: make(chan func(), backlog),
		done:  make(chan struct{}),
	}
}

// Defer queues task to run after the current posted task. It must be called
// from the loop goroutine.
func (l *Loop) Defer(task func()) {
	l.pending.Defer(task)
}

// Post queues task as a new turn. It blocks while the backlog is full.
func (l *Loop) Post(ctx context.Context, task func()) error {
	select {
	case <-l.done:
		return ErrLoopStopped
	default:
	}
	select {
	case l.posts <- task:
		return nil
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do posts task and waits until it and the work it deferred have run.
func (l *Loop) Do(ctx context.Context, task func()) error {
	finished := make(chan struct{})
	err := l.Post(ctx, func() {
		task()
		l.Defer(func() { close(finished) })
	})
	if err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes posted tasks until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	defer l.once.Do(func() { close(l.done) })
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case task := <-l.posts:
			task()
			l.pending.Drain()
		}
	}
}
