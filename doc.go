/*
Package snapstore provides a mutable-looking, snapshot-backed state tree.
Application code reads and writes through wrapper handles as if the tree
were an ordinary nest of maps and slices, while the store keeps an immutable
Snapshot between updates and tells subscribers about each new one exactly
once per turn.

Uses

- Shared UI or application state that many observers read and few writers
poke at deep paths

- Cheap change detection: untouched subtrees keep their *Node pointer from
one Snapshot to the next, so observers compare by identity

- Derived values (selectors) that only recompute when their inputs change

How it works

Every composite in the live tree (a Mapping with ordered string keys, or a
Sequence) lives in a per-store arena slot. A write through a *Map or *List
wrapper changes the live node in place and schedules that node for commit.
The store remembers, for each live node, the parent and key it was last
attached under. When the turn ends, the deferred flush walks every mutated
node up to the root, checking at each step that the parent still holds the
node under that key; mutations on nodes that were detached in the meantime
are dropped. The nodes on the surviving paths are rebuilt as fresh
immutable *Node values, everything else is reused from the previous
Snapshot, and subscribers are notified with the result.

	s := snapstore.New(map[string]any{
		"a": map[string]any{"x": 1},
		"b": map[string]any{"y": 2},
	})
	s.Subscriptions().Add(func(snap snapstore.Snapshot) {
		fmt.Println(snap.Lookup("a", "x"), snap.Lookup("b", "y"))
	})
	s.Update(func(h *snapstore.Handle) {
		h.Map(snapstore.Field("a")).Set("x", 2)
		h.Map(snapstore.Field("b")).Set("y", 3)
	})

Turns

A turn is one synchronous unit of work. The store defers its flush through a
Scheduler: by default a private Queue drained by Store.Update and
Store.Flush, or a Loop that runs posted tasks on one goroutine and drains
deferred work after each of them. A store must only be touched from one
goroutine at a time; Snapshots and their *Node values are immutable and may
be read from anywhere.

Selectors

A Selector runs a function against one or more stores through a Selection.
Reads through Selection.Track or Selection.Snapshot record which stores the
selector depends on, so Subscribe only listens where it needs to. Results
are compared with an equality function (Identical by default) and the
previous result is returned when they match. Selection.Memo caches the
previous call of a combinator keyed by ShallowEquals of its arguments.

Persistence

SaveSnapshot writes the current Snapshot as content-addressed nodes to a
Persist (in memory, files, or S3) and LoadSnapshot reads it back. Because
unchanged subtrees are the same *Node, saving a new Snapshot only encodes
the rebuilt spine.
*/
package snapstore
