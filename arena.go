package snapstore

import "fmt"

// nodeID addresses a live node. index 0 is never allocated, so the zero
// nodeID means "no node". gen changes every time a slot is reused, which
// makes IDs held by old wrappers detectably stale.
type nodeID struct {
	index uint32
	gen   uint32
}

var noNode nodeID

func (id nodeID) String() string {
	return fmt.Sprintf("#%d.%d", id.index, id.gen)
}

// parentLink records where a live node is currently attached. The root's
// link is {noNode, Key{}}.
type parentLink struct {
	parent nodeID
	key    Key
}

// liveNode is the mutable counterpart of a Node. Child composites are held
// as nodeIDs, everything else as is.
type liveNode struct {
	gen  uint32
	used bool
	kind Kind

	keys   []string
	fields map[string]any
	items  []any

	link    parentLink
	wrapper any
	frozen  *Node
	mark    uint32
}

type arena struct {
	slots []*liveNode
	free  []uint32
	epoch uint32
	live  int
}

func newArena() arena {
	return arena{slots: []*liveNode{{}}}
}

func (a *arena) alloc(kind Kind) nodeID {
	var index uint32
	if n := len(a.free); n > 0 {
		index = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		a.slots = append(a.slots, &liveNode{})
		index = uint32(len(a.slots) - 1)
	}
	slot := a.slots[index]
	slot.used = true
	slot.kind = kind
	switch kind {
	case Mapping:
		slot.fields = map[string]any{}
	case Sequence:
		slot.items = []any{}
	default:
		panic(fmt.Sprintf("bug! cannot allocate a %v node", kind))
	}
	a.live++
	return nodeID{index: index, gen: slot.gen}
}

// get returns the live node for id, or nil if id is stale.
func (a *arena) get(id nodeID) *liveNode {
	if id.index == 0 || int(id.index) >= len(a.slots) {
		return nil
	}
	slot := a.slots[id.index]
	if !slot.used || slot.gen != id.gen {
		return nil
	}
	return slot
}

func (a *arena) release(index uint32) {
	slot := a.slots[index]
	gen := slot.gen + 1
	*slot = liveNode{gen: gen}
	a.free = append(a.free, index)
	a.live--
}

func (n *liveNode) field(name string) (any, bool) {
	v, ok := n.fields[name]
	return v, ok
}

// setField stores v under name, appending name to the key order if it is
// new, and returns the previous value.
func (n *liveNode) setField(name string, v any) any {
	old, ok := n.fields[name]
	if !ok {
		n.keys = append(n.keys, name)
	}
	n.fields[name] = v
	return old
}

func (n *liveNode) deleteField(name string) (any, bool) {
	old, ok := n.fields[name]
	if !ok {
		return nil, false
	}
	delete(n.fields, name)
	for i, k := range n.keys {
		if k == name {
			n.keys = append(n.keys[:i], n.keys[i+1:]...)
			break
		}
	}
	return old, true
}

// setItem stores v at i, growing the sequence with nil holes when i is past
// the end, and returns the previous value.
func (n *liveNode) setItem(i int, v any) any {
	if i >= len(n.items) {
		n.items = append(n.items, make([]any, i+1-len(n.items))...)
	}
	old := n.items[i]
	n.items[i] = v
	return old
}

// children calls f for every child composite.
func (n *liveNode) children(f func(child nodeID, k Key)) {
	switch n.kind {
	case Mapping:
		for _, k := range n.keys {
			if id, ok := n.fields[k].(nodeID); ok {
				f(id, Field(k))
			}
		}
	case Sequence:
		for i, v := range n.items {
			if id, ok := v.(nodeID); ok {
				f(id, Index(i))
			}
		}
	}
}

// holds reports whether n maps k to child.
func (n *liveNode) holds(k Key, child nodeID) bool {
	switch n.kind {
	case Mapping:
		v, ok := n.fields[k.Name()]
		return ok && v == child
	case Sequence:
		i, ok := k.Int()
		if !ok || i < 0 || i >= len(n.items) {
			return false
		}
		return n.items[i] == child
	}
	return false
}
