package snapstore

import "github.com/golang/glog"

// Map is the wrapper of a live Mapping node. Reads return primitives
// unchanged and child composites as their own wrappers; writes change the
// live node immediately and schedule it for the next commit. A Map is bound
// to one node for its whole life: once that node is swept from the store
// (after being detached), reads return zero values and writes are ignored.
type Map struct {
	s  *Store
	id nodeID
}

func (m *Map) live() *liveNode {
	n := m.s.arena.get(m.id)
	if n == nil || n.kind != Mapping {
		return nil
	}
	return n
}

// Get returns the value stored under key, or nil.
func (m *Map) Get(key string) any {
	n := m.live()
	if n == nil {
		return nil
	}
	v, _ := n.field(key)
	return m.s.wrapValue(v)
}

// Map returns the Mapping under key, or nil if there is none.
func (m *Map) Map(key string) *Map {
	w, _ := m.Get(key).(*Map)
	return w
}

// List returns the Sequence under key, or nil if there is none.
func (m *Map) List(key string) *List {
	w, _ := m.Get(key).(*List)
	return w
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	n := m.live()
	if n == nil {
		return false
	}
	_, ok := n.field(key)
	return ok
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	n := m.live()
	if n == nil {
		return nil
	}
	return append([]string(nil), n.keys...)
}

// Len is the number of keys.
func (m *Map) Len() int {
	n := m.live()
	if n == nil {
		return 0
	}
	return len(n.keys)
}

// Set stores v under key. Composite values are copied into the store,
// except wrappers of this store, which are attached as they are.
func (m *Map) Set(key string, v any) {
	m.s.assign(m.id, Mapping, Field(key), v)
}

// Delete removes key. It reports whether key was present.
func (m *Map) Delete(key string) bool {
	return m.s.remove(m.id, Mapping, Field(key))
}

// Lookup follows a path of field names and indexes from m.
func (m *Map) Lookup(path ...any) any {
	return lookupWrapped(m, path)
}

// List is the wrapper of a live Sequence node. It behaves like Map with
// integer keys.
type List struct {
	s  *Store
	id nodeID
}

func (l *List) live() *liveNode {
	n := l.s.arena.get(l.id)
	if n == nil || n.kind != Sequence {
		return nil
	}
	return n
}

// Get returns the element at i, or nil when i is out of range.
func (l *List) Get(i int) any {
	n := l.live()
	if n == nil || i < 0 || i >= len(n.items) {
		return nil
	}
	return l.s.wrapValue(n.items[i])
}

// Map returns the Mapping at i, or nil.
func (l *List) Map(i int) *Map {
	w, _ := l.Get(i).(*Map)
	return w
}

// List returns the Sequence at i, or nil.
func (l *List) List(i int) *List {
	w, _ := l.Get(i).(*List)
	return w
}

// Has reports whether i is within range.
func (l *List) Has(i int) bool {
	n := l.live()
	return n != nil && i >= 0 && i < len(n.items)
}

// Len is the number of elements.
func (l *List) Len() int {
	n := l.live()
	if n == nil {
		return 0
	}
	return len(n.items)
}

// maxSequenceGap bounds how far past its end a Sequence can be grown by one
// Set.
const maxSequenceGap = 1 << 16

// Set stores v at i. Setting past the end grows the list, filling the gap
// with nil. A Set more than maxSequenceGap past the end is ignored.
func (l *List) Set(i int, v any) {
	l.s.assign(l.id, Sequence, Index(i), v)
}

// Delete clears the element at i, leaving a nil hole. The length does not
// change.
func (l *List) Delete(i int) bool {
	return l.s.remove(l.id, Sequence, Index(i))
}

// Append adds vs at the end.
func (l *List) Append(vs ...any) {
	n := l.live()
	if n == nil {
		l.s.staleWrite(l.id, "append")
		return
	}
	l.s.schedule(l.id)
	for _, v := range vs {
		i := len(n.items)
		n.items = append(n.items, nil)
		n.items[i] = l.s.importValue(v, l.id, Index(i))
	}
}

// Insert puts v at i, shifting later elements up by one.
func (l *List) Insert(i int, v any) {
	n := l.live()
	if n == nil {
		l.s.staleWrite(l.id, "insert")
		return
	}
	if i < 0 || i > len(n.items) {
		return
	}
	l.s.schedule(l.id)
	stored := l.s.importValue(v, l.id, Index(i))
	n.items = append(n.items, nil)
	copy(n.items[i+1:], n.items[i:])
	n.items[i] = stored
	l.s.reindex(l.id, n, i+1)
}

// RemoveAt deletes the element at i, shifting later elements down by one.
// It reports whether i was in range.
func (l *List) RemoveAt(i int) bool {
	n := l.live()
	if n == nil {
		l.s.staleWrite(l.id, "remove")
		return false
	}
	if i < 0 || i >= len(n.items) {
		return false
	}
	l.s.schedule(l.id)
	old := n.items[i]
	n.items = append(n.items[:i], n.items[i+1:]...)
	l.s.reindex(l.id, n, i)
	l.s.replaced(old, nil)
	return true
}

// Lookup follows a path of field names and indexes from l.
func (l *List) Lookup(path ...any) any {
	return lookupWrapped(l, path)
}

// Handle is the outer handle of a store. It is bound to whichever node is
// the live root at the time of each call, so a write followed by a read in
// the same turn sees the write.
type Handle struct {
	s   *Store
	sel *Selection
}

func (h *Handle) touch() {
	if h.sel != nil {
		h.sel.touch(h.s.subs)
	}
}

// Root returns the live root: a *Map, a *List, or the primitive the store
// was created with.
func (h *Handle) Root() any {
	h.touch()
	return h.s.wrapValue(h.s.root)
}

// Kind is the kind of the live root.
func (h *Handle) Kind() Kind {
	h.touch()
	if id, ok := h.s.root.(nodeID); ok {
		if n := h.s.arena.get(id); n != nil {
			return n.kind
		}
	}
	return Primitive
}

// Get reads k from the live root.
func (h *Handle) Get(k Key) any {
	switch w := h.Root().(type) {
	case *Map:
		return w.Get(k.Name())
	case *List:
		if i, ok := k.Int(); ok {
			return w.Get(i)
		}
	}
	return nil
}

// Map returns the Mapping at k, or nil.
func (h *Handle) Map(k Key) *Map {
	w, _ := h.Get(k).(*Map)
	return w
}

// List returns the Sequence at k, or nil.
func (h *Handle) List(k Key) *List {
	w, _ := h.Get(k).(*List)
	return w
}

// Has reports whether the live root has k.
func (h *Handle) Has(k Key) bool {
	switch w := h.Root().(type) {
	case *Map:
		return w.Has(k.Name())
	case *List:
		if i, ok := k.Int(); ok {
			return w.Has(i)
		}
	}
	return false
}

// Keys lists the keys of the live root: field keys for a Mapping, index
// keys for a Sequence.
func (h *Handle) Keys() []Key {
	var keys []Key
	switch w := h.Root().(type) {
	case *Map:
		for _, k := range w.Keys() {
			keys = append(keys, Field(k))
		}
	case *List:
		for i := 0; i < w.Len(); i++ {
			keys = append(keys, Index(i))
		}
	}
	return keys
}

// Len is the size of the live root, 0 for a primitive root.
func (h *Handle) Len() int {
	switch w := h.Root().(type) {
	case *Map:
		return w.Len()
	case *List:
		return w.Len()
	}
	return 0
}

// Set writes v at k on the live root. It is ignored when the root is a
// primitive.
func (h *Handle) Set(k Key, v any) {
	id, ok := h.s.root.(nodeID)
	if !ok {
		glog.V(2).Infof("[store %s] set %v on primitive root ignored", h.s.id, k)
		return
	}
	h.s.assign(id, Primitive, k, v)
}

// Delete removes k from the live root.
func (h *Handle) Delete(k Key) bool {
	id, ok := h.s.root.(nodeID)
	if !ok {
		return false
	}
	return h.s.remove(id, Primitive, k)
}

// Lookup follows a path of field names and indexes from the live root.
func (h *Handle) Lookup(path ...any) any {
	return lookupWrapped(h.Root(), path)
}

func lookupWrapped(cur any, path []any) any {
	for _, p := range path {
		k, ok := keyOf(p)
		if !ok {
			return nil
		}
		switch w := cur.(type) {
		case *Map:
			cur = w.Get(k.Name())
		case *List:
			i, ok := k.Int()
			if !ok {
				return nil
			}
			cur = w.Get(i)
		default:
			return nil
		}
	}
	return cur
}

// assign is the write path shared by every wrapper. want is the kind the
// caller expects id to be, or Primitive for "whatever it is".
func (s *Store) assign(id nodeID, want Kind, k Key, v any) {
	n := s.arena.get(id)
	if n == nil || (want != Primitive && n.kind != want) {
		s.staleWrite(id, "set")
		return
	}
	var old any
	switch n.kind {
	case Mapping:
		s.schedule(id)
		stored := s.importValue(v, id, Field(k.Name()))
		old = n.setField(k.Name(), stored)
		s.replaced(old, stored)
	case Sequence:
		i, ok := k.Int()
		if !ok || i < 0 {
			return
		}
		if i > len(n.items)+maxSequenceGap {
			glog.V(2).Infof("[store %s] set at %d past length %d ignored", s.id, i, len(n.items))
			return
		}
		s.schedule(id)
		stored := s.importValue(v, id, Index(i))
		old = n.setItem(i, stored)
		s.replaced(old, stored)
	}
}

func (s *Store) remove(id nodeID, want Kind, k Key) bool {
	n := s.arena.get(id)
	if n == nil || (want != Primitive && n.kind != want) {
		s.staleWrite(id, "delete")
		return false
	}
	switch n.kind {
	case Mapping:
		s.schedule(id)
		old, ok := n.deleteField(k.Name())
		s.replaced(old, nil)
		return ok
	case Sequence:
		i, ok := k.Int()
		if !ok || i < 0 || i >= len(n.items) {
			return false
		}
		s.schedule(id)
		old := n.setItem(i, nil)
		s.replaced(old, nil)
		return true
	}
	return false
}

// reindex re-records the links of the elements of a Sequence from i on,
// whose indexes have just shifted.
func (s *Store) reindex(id nodeID, n *liveNode, from int) {
	for j := from; j < len(n.items); j++ {
		if child, ok := n.items[j].(nodeID); ok {
			s.recordAttachment(child, id, Index(j))
		}
	}
}

// replaced notes that old was overwritten by v. Detaching a composite makes
// the next commit sweep the arena.
func (s *Store) replaced(old, v any) {
	if id, ok := old.(nodeID); ok && old != v {
		s.detached = true
		glog.V(2).Infof("[store %s] node %v detached", s.id, id)
	}
}

func (s *Store) staleWrite(id nodeID, op string) {
	glog.V(2).Infof("[store %s] %s on stale node %v ignored", s.id, op, id)
}
