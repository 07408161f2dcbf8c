package snapstore

import (
	"github.com/golang/glog"
	"github.com/google/uuid"
)

// Store holds one state tree: the live nodes written through its wrappers,
// and the last committed Snapshot.
type Store struct {
	id        string
	arena     arena
	root      any
	snapshot  Snapshot
	subs      *Subscriptions
	scheduler Scheduler
	queue     *Queue

	pending    []nodeID
	pendingSet map[nodeID]struct{}
	detached   bool
	version    uint64
}

// Option configures a Store.
type Option func(*Store)

// WithScheduler makes the store defer its commits through sched instead of
// its private Queue.
func WithScheduler(sched Scheduler) Option {
	return func(s *Store) {
		s.scheduler = sched
		if q, ok := sched.(*Queue); ok {
			s.queue = q
		} else {
			s.queue = nil
		}
	}
}

// WithID sets the id the store logs under. By default it is a random UUID.
func WithID(id string) Option {
	return func(s *Store) {
		s.id = id
	}
}

// New creates a store whose initial state is root. Composite parts of root
// (string-keyed maps, slices, *Node) are copied into the store; a *Node
// root is reused as the first Snapshot as is. A non-composite root is
// accepted and simply never wrapped.
func New(root any, opts ...Option) *Store {
	q := NewQueue()
	s := &Store{
		id:         uuid.NewString(),
		arena:      newArena(),
		subs:       &Subscriptions{},
		scheduler:  q,
		queue:      q,
		pendingSet: map[nodeID]struct{}{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.root = s.importValue(root, noNode, Key{})
	if id, ok := s.root.(nodeID); ok {
		s.snapshot = Snapshot{root: s.freeze(id, nil)}
	} else {
		s.snapshot = Snapshot{root: s.root}
	}
	glog.V(1).Infof("[store %s] created with %v root", s.id, KindOf(s.snapshot.root))
	return s
}

// ID is the id the store logs under.
func (s *Store) ID() string {
	return s.id
}

// Handle returns the outer handle, bound to the live root.
func (s *Store) Handle() *Handle {
	return &Handle{s: s}
}

// Subscriptions returns the store's listeners.
func (s *Store) Subscriptions() *Subscriptions {
	return s.subs
}

// Snapshot returns the last committed Snapshot.
func (s *Store) Snapshot() Snapshot {
	return s.snapshot
}

// Pending reports whether writes are waiting for a commit.
func (s *Store) Pending() bool {
	return len(s.pending) > 0
}

// Update runs fn as one turn: all writes fn makes are committed together,
// once, when it returns. With a custom Scheduler, Update only runs fn and
// the commit happens whenever that scheduler runs deferred work.
func (s *Store) Update(fn func(h *Handle)) {
	fn(s.Handle())
	if s.queue != nil {
		s.queue.Drain()
	}
}

// Flush ends the current turn now: it drains the store's Queue, or commits
// pending writes directly when the store uses another Scheduler.
func (s *Store) Flush() {
	if s.queue != nil {
		s.queue.Drain()
		return
	}
	s.flush()
}

// Snapshot is the immutable value of a store between two commits.
type Snapshot struct {
	root    any
	version uint64
}

// Root is the root value: a *Node, or a primitive.
func (s Snapshot) Root() any {
	return s.root
}

// Node is the root as a *Node, or nil for a primitive root.
func (s Snapshot) Node() *Node {
	n, _ := s.root.(*Node)
	return n
}

// Version counts the commits that changed the store; the initial Snapshot
// is version 0.
func (s Snapshot) Version() uint64 {
	return s.version
}

// Lookup follows a path of field names and indexes from the root.
func (s Snapshot) Lookup(path ...any) any {
	if n := s.Node(); n != nil {
		return n.Lookup(path...)
	}
	if len(path) == 0 {
		return s.root
	}
	return nil
}

// Plain converts the snapshot to map[string]any / []any.
func (s Snapshot) Plain() any {
	return plainOf(s.root)
}
