package snapstore

import (
	"fmt"
	"strings"
)

// Node is an immutable composite inside a Snapshot. Values held by a Node
// are either primitives or other *Node. A Node is never modified after it
// has been built, so Snapshots can be shared freely, and two Snapshots that
// hold the same *Node hold identical data underneath it.
type Node struct {
	kind   Kind
	keys   []string
	fields map[string]any
	items  []any
}

func newMappingNode(keys []string, fields map[string]any) *Node {
	return &Node{kind: Mapping, keys: keys, fields: fields}
}

func newSequenceNode(items []any) *Node {
	return &Node{kind: Sequence, items: items}
}

// Freeze converts plain Go data into immutable snapshot values: string-keyed
// maps become Mapping nodes (keys sorted), slices and arrays become Sequence
// nodes. Primitives and *Node values are returned unchanged.
func Freeze(v any) any {
	if n, ok := v.(*Node); ok {
		return n
	}
	c, ok := viewOf(v)
	if !ok {
		return v
	}
	switch c.kind() {
	case Mapping:
		keys := c.keys()
		fields := make(map[string]any, len(keys))
		for _, k := range keys {
			child, _ := c.field(k)
			fields[k] = Freeze(child)
		}
		return newMappingNode(keys, fields)
	default:
		items := make([]any, c.length())
		for i := range items {
			items[i] = Freeze(c.index(i))
		}
		return newSequenceNode(items)
	}
}

// Kind is Mapping or Sequence.
func (n *Node) Kind() Kind { return n.kind }

// Len is the number of entries or elements.
func (n *Node) Len() int {
	if n.kind == Mapping {
		return len(n.keys)
	}
	return len(n.items)
}

// Keys returns the Mapping keys in insertion order, or nil for a Sequence.
func (n *Node) Keys() []string {
	if n.kind != Mapping {
		return nil
	}
	return append([]string(nil), n.keys...)
}

// Get returns the value at k, or nil if there is none.
func (n *Node) Get(k Key) any {
	v, _ := n.lookup(k)
	return v
}

// Has reports whether k is present.
func (n *Node) Has(k Key) bool {
	_, ok := n.lookup(k)
	return ok
}

// Lookup follows a path of field names (string), indexes (int) or Keys and
// returns what it finds, or nil.
func (n *Node) Lookup(path ...any) any {
	var cur any = n
	for _, p := range path {
		node, ok := cur.(*Node)
		if !ok || node == nil {
			return nil
		}
		k, ok := keyOf(p)
		if !ok {
			return nil
		}
		cur = node.Get(k)
	}
	return cur
}

func (n *Node) lookup(k Key) (any, bool) {
	switch n.kind {
	case Mapping:
		v, ok := n.fields[k.Name()]
		return v, ok
	case Sequence:
		i, ok := k.Int()
		if !ok || i < 0 || i >= len(n.items) {
			return nil, false
		}
		return n.items[i], true
	}
	return nil, false
}

// Plain converts the node back to map[string]any / []any.
func (n *Node) Plain() any {
	return plainOf(n)
}

func plainOf(v any) any {
	n, ok := v.(*Node)
	if !ok || n == nil {
		return v
	}
	switch n.kind {
	case Mapping:
		out := make(map[string]any, len(n.keys))
		for _, k := range n.keys {
			out[k] = plainOf(n.fields[k])
		}
		return out
	default:
		out := make([]any, len(n.items))
		for i, item := range n.items {
			out[i] = plainOf(item)
		}
		return out
	}
}

func (n *Node) String() string {
	var b strings.Builder
	n.format(&b)
	return b.String()
}

func (n *Node) format(b *strings.Builder) {
	writeValue := func(v any) {
		if child, ok := v.(*Node); ok {
			child.format(b)
			return
		}
		fmt.Fprintf(b, "%v", v)
	}
	switch n.kind {
	case Mapping:
		b.WriteByte('{')
		for i, k := range n.keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(b, "%s: ", k)
			writeValue(n.fields[k])
		}
		b.WriteByte('}')
	default:
		b.WriteByte('[')
		for i, item := range n.items {
			if i > 0 {
				b.WriteString(", ")
			}
			writeValue(item)
		}
		b.WriteByte(']')
	}
}

type nodeView struct{ n *Node }

func (v nodeView) kind() Kind     { return v.n.kind }
func (v nodeView) length() int    { return v.n.Len() }
func (v nodeView) keys() []string { return v.n.keys }
func (v nodeView) field(name string) (any, bool) {
	child, ok := v.n.fields[name]
	return child, ok
}
func (v nodeView) index(i int) any { return v.n.items[i] }
