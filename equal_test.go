package snapstore

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentical(t *testing.T) {
	t.Parallel()
	slice := []int{1, 2}
	m := map[string]any{"a": 1}
	n := Freeze(map[string]any{"a": 1})
	type pair struct{ A, B any }
	for i, tc := range []struct {
		a, b any
		want bool
	}{
		{nil, nil, true},
		{nil, 0, false},
		{1, 1, true},
		{1, int64(1), false},
		{"a", "a", true},
		{math.NaN(), math.NaN(), true},
		{0.5, 0.5, true},
		{slice, slice, true},
		{slice, slice[:1], false},
		{slice, []int{1, 2}, false},
		{[]int(nil), []int(nil), true},
		{m, m, true},
		{m, map[string]any{"a": 1}, false},
		{n, n, true},
		{n, Freeze(map[string]any{"a": 1}), false},
		{pair{1, 2}, pair{1, 2}, true},
		{pair{[]int{}, 2}, pair{[]int{}, 2}, false},
		{[2]int{1, 2}, [2]int{1, 2}, true},
	} {
		assert.Equal(t, tc.want, Identical(tc.a, tc.b), "case %d: %v vs %v", i, tc.a, tc.b)
	}
}

func TestShallowEquals(t *testing.T) {
	t.Parallel()
	shared := map[string]any{"deep": true}
	type pair struct{ A, B int }
	for i, tc := range []struct {
		a, b any
		want bool
	}{
		{1, 1, true},
		{1, 2, false},
		{nil, nil, true},
		{nil, map[string]any{}, false},
		{map[string]any{"a": 1, "b": "x"}, map[string]any{"b": "x", "a": 1}, true},
		{map[string]any{"a": 1}, map[string]any{"a": 1, "b": 2}, false},
		{map[string]any{"a": 1}, map[string]any{"b": 1}, false},
		{map[string]any{"s": shared}, map[string]any{"s": shared}, true},
		{map[string]any{"s": shared}, map[string]any{"s": map[string]any{"deep": true}}, false},
		{[]any{1, "x"}, []any{1, "x"}, true},
		{[]any{1, "x"}, []any{"x", 1}, false},
		{[]int{1, 2}, []int{1, 2}, true},
		{[]any{1}, map[string]any{"0": 1}, false},
		{pair{1, 2}, pair{1, 2}, true},
		{&pair{1, 2}, &pair{1, 2}, false},
		{Freeze([]any{1, 2}), []any{1, 2}, true},
		{Freeze(map[string]any{"a": 1}), map[string]int{"a": 1}, true},
		{map[int]int{1: 1}, map[int]int{1: 1}, false},
	} {
		assert.Equal(t, tc.want, ShallowEquals(tc.a, tc.b), "case %d: %v vs %v", i, tc.a, tc.b)
	}
}

func TestShallowEqualsWrappers(t *testing.T) {
	t.Parallel()
	s := New(map[string]any{"a": map[string]any{"x": 1}, "l": []any{1, 2}})
	h := s.Handle()
	assert.True(t, ShallowEquals(h.Map(Field("a")), map[string]any{"x": 1}))
	assert.True(t, ShallowEquals(h.List(Field("l")), s.Snapshot().Lookup("l")))
	assert.False(t, ShallowEquals(h.Map(Field("a")), h.List(Field("l"))))
}
