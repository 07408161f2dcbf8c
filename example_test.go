package snapstore

import (
	"context"
	"fmt"
)

func Example() {
	s := New(map[string]any{
		"a": map[string]any{"x": 1},
		"b": map[string]any{"y": 2},
	})
	before := s.Snapshot()
	s.Subscriptions().Add(func(snap Snapshot) {
		fmt.Println(snap.Lookup("a", "x"), snap.Lookup("b", "y"))
	})
	s.Update(func(h *Handle) {
		h.Map(Field("a")).Set("x", 2)
		h.Map(Field("b")).Set("y", 3)
	})
	fmt.Println(before.Node())
	fmt.Println(s.Snapshot().Node())
	// Output:
	// 2 3
	// {a: {x: 1}, b: {y: 2}}
	// {a: {x: 2}, b: {y: 3}}
}

func ExampleStore_Update() {
	s := New(map[string]any{"todos": []any{}})
	s.Update(func(h *Handle) {
		todos := h.List(Field("todos"))
		todos.Append(map[string]any{"title": "write docs"})
		todos.Append(map[string]any{"title": "ship"})
		todos.Map(0).Set("done", true)
		todos.RemoveAt(1)
	})
	fmt.Println(s.Snapshot().Node(), s.Snapshot().Version())
	// Output:
	// {todos: [{title: write docs, done: true}]} 1
}

func ExampleSelection_Memo() {
	s := New(map[string]any{
		"items":  []any{3, 1, 2},
		"filter": "none",
	})
	sel := NewSelector(func(c *Selection) any {
		items := c.Snapshot(s).Lookup("items")
		total, _ := c.Memo(items, func(items *Node) int {
			fmt.Println("summing")
			sum := 0
			for _, v := range items.Plain().([]any) {
				sum += v.(int)
			}
			return sum
		})
		return total
	})
	fmt.Println(sel.GetSnapshot())
	s.Update(func(h *Handle) { h.Set(Field("filter"), "odd") })
	fmt.Println(sel.GetSnapshot())
	// Output:
	// summing
	// 6
	// 6
}

func ExampleNewExprSelector() {
	s := New(map[string]any{"price": 4, "qty": 5})
	total, err := NewExprSelector(s, "price * qty")
	if err != nil {
		panic(err)
	}
	stop := Watch[any](total, func(v any) { fmt.Println("total", v) })
	defer stop()
	s.Update(func(h *Handle) { h.Set(Field("qty"), 6) })
	// Output:
	// total 24
}

func ExampleSaveSnapshot() {
	ctx := context.Background()
	cfg := PersistConfig{StoreImmutablePartsWith: NewInMemoryStore()}
	s, err := FromJSON([]byte(`{"name": "snap", "tags": ["a", "b"]}`))
	if err != nil {
		panic(err)
	}
	root, err := SaveSnapshot(ctx, New(s).Snapshot(), cfg)
	if err != nil {
		panic(err)
	}
	loaded, err := LoadSnapshot(ctx, root, cfg)
	if err != nil {
		panic(err)
	}
	fmt.Println(loaded)
	// Output:
	// {name: snap, tags: [a, b]}
}
