package snapstore

// wrapperFor returns the wrapper bound to id, creating and caching it on
// first use. It returns nil if id is stale.
func (s *Store) wrapperFor(id nodeID) any {
	n := s.arena.get(id)
	if n == nil {
		return nil
	}
	if n.wrapper == nil {
		switch n.kind {
		case Mapping:
			n.wrapper = &Map{s: s, id: id}
		case Sequence:
			n.wrapper = &List{s: s, id: id}
		}
	}
	return n.wrapper
}

// nodeFor returns the live node a wrapper is bound to. ok is false for
// wrappers of other stores, stale wrappers, and non-wrappers.
func (s *Store) nodeFor(w any) (id nodeID, ok bool) {
	switch x := w.(type) {
	case *Map:
		if x == nil || x.s != s {
			return noNode, false
		}
		id = x.id
	case *List:
		if x == nil || x.s != s {
			return noNode, false
		}
		id = x.id
	default:
		return noNode, false
	}
	return id, s.arena.get(id) != nil
}

func (s *Store) parentLinkFor(id nodeID) (parentLink, bool) {
	n := s.arena.get(id)
	if n == nil {
		return parentLink{}, false
	}
	return n.link, true
}

// wrapValue turns a stored value into what readers see: composites become
// wrappers, everything else is returned as is.
func (s *Store) wrapValue(v any) any {
	if id, ok := v.(nodeID); ok {
		return s.wrapperFor(id)
	}
	return v
}
