package snapstore

// importValue prepares v to be stored under parent at key. Primitives are
// returned unchanged. Wrappers of this store are unwrapped to their node so
// the tree never holds wrappers. Every other composite is copied into new
// live nodes whose links are recorded as they are created.
func (s *Store) importValue(v any, parent nodeID, key Key) any {
	switch x := v.(type) {
	case *Map:
		if x == nil {
			return nil
		}
		return s.adopt(x, x.s, x.id, parent, key)
	case *List:
		if x == nil {
			return nil
		}
		return s.adopt(x, x.s, x.id, parent, key)
	case *Node:
		if x == nil {
			return nil
		}
		return s.importNode(x, parent, key)
	}
	c, ok := viewOf(v)
	if !ok {
		return v
	}
	return s.importView(c, parent, key)
}

func (s *Store) adopt(w any, owner *Store, id nodeID, parent nodeID, key Key) any {
	if _, ok := s.nodeFor(w); !ok {
		if owner == nil || owner.arena.get(id) == nil {
			return nil
		}
		return s.importNode(owner.copyOut(id), parent, key)
	}
	if parent != noNode && s.contains(id, parent) {
		// a node cannot be attached below itself; store a copy instead.
		return s.importNode(s.copyOut(id), parent, key)
	}
	s.recordAttachment(id, parent, key)
	return id
}

func (s *Store) importView(c view, parent nodeID, key Key) nodeID {
	id := s.arena.alloc(c.kind())
	n := s.arena.get(id)
	n.link = parentLink{parent: parent, key: key}
	switch c.kind() {
	case Mapping:
		for _, k := range c.keys() {
			child, _ := c.field(k)
			n.setField(k, s.importValue(child, id, Field(k)))
		}
	case Sequence:
		n.items = make([]any, c.length())
		for i := range n.items {
			n.items[i] = s.importValue(c.index(i), id, Index(i))
		}
	}
	return id
}

// importNode copies a snapshot node into the arena. The new live nodes hold
// the same data as x, so x is kept as their frozen form and the next commit
// reuses it unless they are written to.
func (s *Store) importNode(x *Node, parent nodeID, key Key) nodeID {
	id := s.arena.alloc(x.kind)
	n := s.arena.get(id)
	n.link = parentLink{parent: parent, key: key}
	n.frozen = x
	switch x.kind {
	case Mapping:
		n.keys = append(n.keys, x.keys...)
		for _, k := range x.keys {
			v := x.fields[k]
			if child, ok := v.(*Node); ok {
				v = s.importNode(child, id, Field(k))
			}
			n.fields[k] = v
		}
	case Sequence:
		n.items = make([]any, len(x.items))
		for i, v := range x.items {
			if child, ok := v.(*Node); ok {
				v = s.importNode(child, id, Index(i))
			}
			n.items[i] = v
		}
	}
	return id
}

// copyOut builds a fresh immutable copy of the live subtree at id, without
// touching any frozen forms.
func (s *Store) copyOut(id nodeID) *Node {
	n := s.arena.get(id)
	if n == nil {
		return nil
	}
	value := func(v any) any {
		if child, ok := v.(nodeID); ok {
			if c := s.copyOut(child); c != nil {
				return c
			}
			return nil
		}
		return v
	}
	switch n.kind {
	case Mapping:
		keys := append([]string(nil), n.keys...)
		fields := make(map[string]any, len(keys))
		for _, k := range keys {
			fields[k] = value(n.fields[k])
		}
		return newMappingNode(keys, fields)
	default:
		items := make([]any, len(n.items))
		for i, v := range n.items {
			items[i] = value(v)
		}
		return newSequenceNode(items)
	}
}
