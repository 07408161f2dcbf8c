package snapstore

import "github.com/golang/glog"

// schedule adds id to the pending set. The first schedule after a flush
// asks the Scheduler for exactly one deferred flush.
func (s *Store) schedule(id nodeID) {
	if len(s.pending) == 0 {
		s.scheduler.Defer(s.flush)
	}
	if _, ok := s.pendingSet[id]; ok {
		return
	}
	s.pendingSet[id] = struct{}{}
	s.pending = append(s.pending, id)
}

// flush commits the pending set. If a composite was detached during the
// turn, the arena is swept first so that walks see repaired links. Writes
// made by listeners while they are being notified start a new pending set
// and a new deferred flush.
func (s *Store) flush() {
	if len(s.pending) == 0 {
		return
	}
	pending := s.pending
	s.pending = nil
	s.pendingSet = map[nodeID]struct{}{}
	detached := s.detached
	s.detached = false

	if detached {
		s.sweep()
	}
	root, surviving, dropped := s.commit(pending)
	if Identical(root, s.snapshot.root) {
		glog.V(1).Infof("[store %s] flush: %d pending, all dropped", s.id, dropped)
		return
	}
	s.version++
	s.snapshot = Snapshot{root: root, version: s.version}
	glog.V(1).Infof("[store %s] commit v%d: %d applied, %d dropped", s.id, s.version, surviving, dropped)
	s.subs.notifyAll(s.snapshot)
}

// commit walks every pending node to the root, discarding those that are no
// longer attached, and rebuilds the nodes on the surviving paths. Nodes on
// no surviving path keep their previous *Node. If nothing survives, the
// previous root is returned.
func (s *Store) commit(pending []nodeID) (root any, surviving, dropped int) {
	rootID, ok := s.root.(nodeID)
	if !ok {
		return s.snapshot.root, 0, len(pending)
	}
	dirty := make(map[nodeID]bool)
	for _, id := range pending {
		path, ok := s.walkToRoot(id)
		if !ok {
			dropped++
			glog.V(2).Infof("[store %s] dropping mutation of detached node %v", s.id, id)
			continue
		}
		surviving++
		dirty[id] = true
		for _, st := range path {
			dirty[st.parent] = true
		}
	}
	if surviving == 0 {
		return s.snapshot.root, 0, dropped
	}
	return s.freeze(rootID, dirty), surviving, dropped
}

// freeze returns the immutable form of the live node id. A clean node with
// a frozen form reuses it; a dirty node, or one never frozen before, is
// rebuilt once and its frozen form replaced.
func (s *Store) freeze(id nodeID, dirty map[nodeID]bool) *Node {
	n := s.arena.get(id)
	if n == nil {
		panic("bug! freezing a freed node " + id.String())
	}
	if n.frozen != nil && !dirty[id] {
		return n.frozen
	}
	value := func(v any) any {
		if child, ok := v.(nodeID); ok {
			return s.freeze(child, dirty)
		}
		return v
	}
	var out *Node
	switch n.kind {
	case Mapping:
		keys := append([]string(nil), n.keys...)
		fields := make(map[string]any, len(keys))
		for _, k := range keys {
			fields[k] = value(n.fields[k])
		}
		out = newMappingNode(keys, fields)
	default:
		items := make([]any, len(n.items))
		for i, v := range n.items {
			items[i] = value(v)
		}
		out = newSequenceNode(items)
	}
	n.frozen = out
	delete(dirty, id)
	return out
}

// sweep frees every live node that can no longer be reached from the root.
// Wrappers bound to freed nodes become stale. A reachable node whose link
// names an edge that no longer holds it (it was attached twice and the
// later attachment was removed) is relinked to an edge it was reached by.
func (s *Store) sweep() {
	s.arena.epoch++
	epoch := s.arena.epoch
	rootID, _ := s.root.(nodeID)
	reachedBy := make(map[nodeID]parentLink)
	var mark func(id nodeID, via parentLink)
	mark = func(id nodeID, via parentLink) {
		n := s.arena.get(id)
		if n == nil || n.mark == epoch {
			return
		}
		n.mark = epoch
		reachedBy[id] = via
		n.children(func(child nodeID, k Key) {
			mark(child, parentLink{parent: id, key: k})
		})
	}
	mark(rootID, parentLink{})
	relinked := 0
	for id, via := range reachedBy {
		n := s.arena.get(id)
		if id == rootID || s.linkHolds(id, n.link, epoch) {
			continue
		}
		n.link = via
		relinked++
	}
	freed := 0
	for i := 1; i < len(s.arena.slots); i++ {
		n := s.arena.slots[i]
		if n.used && n.mark != epoch {
			s.arena.release(uint32(i))
			freed++
		}
	}
	glog.V(2).Infof("[store %s] sweep freed %d nodes, relinked %d, %d live", s.id, freed, relinked, s.arena.live)
}

// linkHolds reports whether link names a parent marked in epoch that still
// holds id under the link's key.
func (s *Store) linkHolds(id nodeID, link parentLink, epoch uint32) bool {
	parent := s.arena.get(link.parent)
	return parent != nil && parent.mark == epoch && parent.holds(link.key, id)
}
