package snapstore

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultGopterParameters = gopter.DefaultTestParameters()

var modelGroups = []string{"a", "b", "c"}

type modelOp struct {
	group   string
	key     string
	value   int
	delete  bool
	endTurn bool
}

func decodeModelOp(u uint32) modelOp {
	return modelOp{
		group:   modelGroups[u%3],
		key:     fmt.Sprintf("k%d", (u/3)%4),
		value:   int((u / 12) % 100),
		delete:  (u/1200)%4 == 0,
		endTurn: (u/4800)%3 == 0,
	}
}

func newModelStore() (*Store, map[string]map[string]int) {
	model := map[string]map[string]int{}
	root := map[string]any{}
	for _, g := range modelGroups {
		model[g] = map[string]int{}
		root[g] = map[string]any{}
	}
	return New(root), model
}

func modelPlain(model map[string]map[string]int) map[string]any {
	out := map[string]any{}
	for g, entries := range model {
		m := map[string]any{}
		for k, v := range entries {
			m[k] = v
		}
		out[g] = m
	}
	return out
}

func TestCommitMatchesModel(t *testing.T) {
	properties := gopter.NewProperties(defaultGopterParameters)
	properties.Property("turns commit like a plain map and share untouched groups",
		prop.ForAll(func(raw []uint32) bool {
			s, model := newModelStore()
			touched := map[string]bool{}
			before := s.Snapshot()
			endTurn := func() bool {
				s.Flush()
				after := s.Snapshot()
				for _, g := range modelGroups {
					if !touched[g] && before.Lookup(g) != after.Lookup(g) {
						t.Logf("group %s rebuilt without writes", g)
						return false
					}
				}
				touched = map[string]bool{}
				before = after
				return true
			}
			for _, u := range raw {
				op := decodeModelOp(u)
				m := s.Handle().Map(Field(op.group))
				if op.delete {
					m.Delete(op.key)
					delete(model[op.group], op.key)
				} else {
					m.Set(op.key, op.value)
					model[op.group][op.key] = op.value
				}
				touched[op.group] = true
				if op.endTurn && !endTurn() {
					return false
				}
			}
			if !endTurn() {
				return false
			}
			return reflect.DeepEqual(modelPlain(model), s.Snapshot().Plain())
		}, gen.SliceOf(gen.UInt32())),
	)
	properties.TestingRun(t)
}

func TestCommitDropsOnlyDetached(t *testing.T) {
	t.Parallel()
	s := New(map[string]any{
		"keep": map[string]any{"v": 0},
		"drop": map[string]any{"v": 0},
	})
	s.Update(func(h *Handle) {
		keep := h.Map(Field("keep"))
		drop := h.Map(Field("drop"))
		h.Delete(Field("drop"))
		keep.Set("v", 1)
		drop.Set("v", 1)
		root, surviving, dropped := s.commit(s.pending)
		assert.Equal(t, 2, surviving)
		assert.Equal(t, 1, dropped)
		require.NotNil(t, root)
	})
	assert.Equal(t, map[string]any{"keep": map[string]any{"v": 1}}, s.Snapshot().Plain())
}

func TestSweepFreesUnreachable(t *testing.T) {
	t.Parallel()
	s := New(map[string]any{"a": map[string]any{"b": map[string]any{"c": []any{1}}}})
	assert.Equal(t, 4, s.arena.live)
	s.Update(func(h *Handle) {
		h.Delete(Field("a"))
	})
	assert.Equal(t, 1, s.arena.live)
	s.Update(func(h *Handle) {
		h.Set(Field("n"), map[string]any{})
	})
	assert.Equal(t, 2, s.arena.live)
	assert.Len(t, s.arena.slots, 5, "freed slots are reused")
}
