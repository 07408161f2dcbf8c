package snapstore

// Listener is called with each newly committed Snapshot.
type Listener func(Snapshot)

// Subscription identifies one registered Listener.
type Subscription struct {
	id   uint64
	subs *Subscriptions
}

// Cancel removes the listener. It reports whether it was still registered.
func (sub Subscription) Cancel() bool {
	if sub.subs == nil {
		return false
	}
	return sub.subs.Remove(sub)
}

type listenerEntry struct {
	id uint64
	fn Listener
}

// Subscriptions is the insertion-ordered set of listeners of one store.
type Subscriptions struct {
	next    uint64
	entries []listenerEntry
}

// Add registers fn and returns the Subscription that removes it. The same
// func added twice is called twice.
func (s *Subscriptions) Add(fn Listener) Subscription {
	s.next++
	s.entries = append(s.entries, listenerEntry{id: s.next, fn: fn})
	return Subscription{id: s.next, subs: s}
}

// Remove unregisters sub. It reports whether sub was registered.
func (s *Subscriptions) Remove(sub Subscription) bool {
	if sub.subs != s {
		return false
	}
	for i, e := range s.entries {
		if e.id == sub.id {
			s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Len is the number of registered listeners.
func (s *Subscriptions) Len() int {
	return len(s.entries)
}

func (s *Subscriptions) registered(id uint64) bool {
	for _, e := range s.entries {
		if e.id == id {
			return true
		}
	}
	return false
}

// notifyAll calls every listener, in registration order, with snap.
// Listeners removed by an earlier listener during the same round are
// skipped; listeners added during it wait for the next commit.
func (s *Subscriptions) notifyAll(snap Snapshot) {
	round := append([]listenerEntry(nil), s.entries...)
	for _, e := range round {
		if !s.registered(e.id) {
			continue
		}
		e.fn(snap)
	}
}
