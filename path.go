package snapstore

// step is one edge of a walk: node is held by parent under key.
type step struct {
	node   nodeID
	parent nodeID
	key    Key
}

// recordAttachment notes that id now lives under parent at key, and
// re-records the links of all of id's descendants so that every node
// reachable through the new attachment can be walked back to the root.
func (s *Store) recordAttachment(id, parent nodeID, key Key) {
	n := s.arena.get(id)
	if n == nil {
		return
	}
	n.link = parentLink{parent: parent, key: key}
	n.children(func(child nodeID, k Key) {
		s.recordAttachment(child, id, k)
	})
}

// walkToRoot returns the edges from id up to the current root. ok is false
// if any edge no longer holds (the parent has been freed, or no longer maps
// the key to that exact node), or if the walk ends somewhere other than
// the live root.
func (s *Store) walkToRoot(id nodeID) (path []step, ok bool) {
	root, isNode := s.root.(nodeID)
	if !isNode {
		return nil, false
	}
	cur := id
	for limit := s.arena.live; ; limit-- {
		if cur == root {
			return path, true
		}
		if limit < 0 {
			return nil, false
		}
		link, ok := s.parentLinkFor(cur)
		if !ok || link.parent == noNode {
			return nil, false
		}
		parent := s.arena.get(link.parent)
		if parent == nil || !parent.holds(link.key, cur) {
			return nil, false
		}
		path = append(path, step{node: cur, parent: link.parent, key: link.key})
		cur = link.parent
	}
}

// contains reports whether target is id or one of its descendants.
func (s *Store) contains(id, target nodeID) bool {
	if id == target {
		return true
	}
	n := s.arena.get(id)
	if n == nil {
		return false
	}
	found := false
	n.children(func(child nodeID, _ Key) {
		if !found && s.contains(child, target) {
			found = true
		}
	})
	return found
}
