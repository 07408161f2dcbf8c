package snapstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalkToRoot(t *testing.T) {
	t.Parallel()
	s := New(map[string]any{
		"a": map[string]any{
			"list": []any{map[string]any{"deep": true}},
		},
	})
	deep := s.Handle().Lookup("a", "list", 0).(*Map)
	path, ok := s.walkToRoot(deep.id)
	require.True(t, ok)
	require.Len(t, path, 3)
	assert.Equal(t, Index(0), path[0].key)
	assert.Equal(t, Field("list"), path[1].key)
	assert.Equal(t, Field("a"), path[2].key)
	assert.Equal(t, s.root, path[2].parent)

	root, ok := s.walkToRoot(s.root.(nodeID))
	require.True(t, ok)
	assert.Empty(t, root)
}

func TestWalkFailsAfterDetach(t *testing.T) {
	t.Parallel()
	s := New(map[string]any{"a": map[string]any{"b": map[string]any{}}})
	b := s.Handle().Lookup("a", "b").(*Map)
	s.Handle().Map(Field("a")).Delete("b")
	_, ok := s.walkToRoot(b.id)
	assert.False(t, ok)
	s.Flush()
	assert.Nil(t, s.arena.get(b.id), "swept")
}

func TestIndexShift(t *testing.T) {
	t.Parallel()
	s := New(map[string]any{
		"items": []any{
			map[string]any{"n": 0},
			map[string]any{"n": 1},
			map[string]any{"n": 2},
		},
	})
	var first, second *Map
	s.Update(func(h *Handle) {
		l := h.List(Field("items"))
		first = l.Map(0)
		second = l.Map(1)
		assert.True(t, l.RemoveAt(0))
		second.Set("n", 10)
		first.Set("n", 99)
		assert.Same(t, second, l.Map(0))
	})
	assert.Equal(t, []any{
		map[string]any{"n": 10},
		map[string]any{"n": 2},
	}, s.Snapshot().Lookup("items").(*Node).Plain())
	assert.Nil(t, first.Get("n"), "removed element swept")

	s.Update(func(h *Handle) {
		h.List(Field("items")).Insert(0, map[string]any{"n": -1})
		second.Set("n", 11)
	})
	assert.Equal(t, 11, s.Snapshot().Lookup("items", 1, "n"))
	assert.Equal(t, -1, s.Snapshot().Lookup("items", 0, "n"))
}

func TestCycleIsStoredAsCopy(t *testing.T) {
	t.Parallel()
	s := New(map[string]any{"a": map[string]any{"x": 1}})
	s.Update(func(h *Handle) {
		a := h.Map(Field("a"))
		a.Set("self", a)
		assert.NotSame(t, a, a.Map("self"))
	})
	snap := s.Snapshot()
	assert.Equal(t, 1, snap.Lookup("a", "self", "x"))
	assert.Nil(t, snap.Lookup("a", "self", "self"))

	s.Update(func(h *Handle) {
		root := h.Root().(*Map)
		root.Map("a").Set("root", root)
	})
	assert.Equal(t, 1, s.Snapshot().Lookup("a", "root", "a", "x"))
}

func TestContains(t *testing.T) {
	t.Parallel()
	s := New(map[string]any{"a": map[string]any{"b": []any{map[string]any{}}}})
	root := s.root.(nodeID)
	leaf := s.Handle().Lookup("a", "b", 0).(*Map)
	assert.True(t, s.contains(root, leaf.id))
	assert.True(t, s.contains(leaf.id, leaf.id))
	assert.False(t, s.contains(leaf.id, root))
}
