package snapstore

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrMemoNotCallable is returned by Memo when its last argument is not
	// a func.
	ErrMemoNotCallable = errors.New("snapstore: last memo argument must be a function")
	// ErrMemoArity is returned by Memo when the leading arguments cannot be
	// passed to the func.
	ErrMemoArity = errors.New("snapstore: memo arguments do not match the function")
)

// ExternalStore is what a UI binding consumes: a way to hear about changes
// and a way to read the current value.
type ExternalStore[T any] interface {
	Subscribe(onChange func()) (unsubscribe func())
	GetSnapshot() T
}

// Selection is handed to a selector function each time it runs. Reads made
// through it record which stores the selector depends on.
type Selection struct {
	touched []*Subscriptions
	memo    *memoState
}

type memoState struct {
	set    bool
	forms  []any
	result any
}

// committedForm is what selectors compare in place of v. For a wrapper it
// is the *Node its live node was last committed as, or the wrapper itself
// when the node has never been committed or has been swept.
func committedForm(v any) any {
	var s *Store
	var id nodeID
	switch w := v.(type) {
	case *Map:
		if w == nil {
			return v
		}
		s, id = w.s, w.id
	case *List:
		if w == nil {
			return v
		}
		s, id = w.s, w.id
	default:
		return v
	}
	if n := s.arena.get(id); n != nil && n.frozen != nil {
		return n.frozen
	}
	return v
}

func committedForms(vs []any) []any {
	forms := make([]any, len(vs))
	for i, v := range vs {
		forms[i] = committedForm(v)
	}
	return forms
}

func (c *Selection) touch(subs *Subscriptions) {
	for _, t := range c.touched {
		if t == subs {
			return
		}
	}
	c.touched = append(c.touched, subs)
}

// Track returns a handle on the live root of store, and marks the selector
// as depending on it. A *Map or *List read through it keeps its identity
// across commits, so Selector results, Watch and Memo arguments compare
// wrappers by the *Node their data was last committed as: a wrapper counts
// as changed once a commit has rebuilt its node. Wrappers nested inside
// other values are compared as they are.
func (c *Selection) Track(store *Store) *Handle {
	c.touch(store.subs)
	return &Handle{s: store, sel: c}
}

// Snapshot returns the last committed Snapshot of store, and marks the
// selector as depending on it.
func (c *Selection) Snapshot(store *Store) Snapshot {
	c.touch(store.subs)
	return store.Snapshot()
}

// Memo calls the func given as its last argument with the arguments before
// it and returns its first result, unless the leading arguments are
// ShallowEquals to those of the previous Memo call of the same selector, in
// which case the previous result is returned without calling the func.
// Only the immediately preceding call is remembered.
func (c *Selection) Memo(args ...any) (any, error) {
	if len(args) == 0 {
		return nil, ErrMemoNotCallable
	}
	fn := reflect.ValueOf(args[len(args)-1])
	if !fn.IsValid() || fn.Kind() != reflect.Func || fn.IsNil() {
		return nil, ErrMemoNotCallable
	}
	lead := args[:len(args)-1]
	forms := committedForms(lead)
	if c.memo.set && ShallowEquals(forms, c.memo.forms) {
		return c.memo.result, nil
	}
	in, err := memoArgs(fn.Type(), lead)
	if err != nil {
		return nil, err
	}
	var result any
	if out := fn.Call(in); len(out) > 0 {
		result = out[0].Interface()
	}
	c.memo.set = true
	c.memo.forms = forms
	c.memo.result = result
	return result, nil
}

func memoArgs(ft reflect.Type, args []any) ([]reflect.Value, error) {
	fixed := ft.NumIn()
	if ft.IsVariadic() {
		fixed--
		if len(args) < fixed {
			return nil, fmt.Errorf("%w: want at least %d arguments, got %d", ErrMemoArity, fixed, len(args))
		}
	} else if len(args) != fixed {
		return nil, fmt.Errorf("%w: want %d arguments, got %d", ErrMemoArity, fixed, len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		var want reflect.Type
		if i < fixed {
			want = ft.In(i)
		} else {
			want = ft.In(fixed).Elem()
		}
		if arg == nil {
			switch want.Kind() {
			case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
				in[i] = reflect.Zero(want)
				continue
			}
			return nil, fmt.Errorf("%w: argument %d is nil, want %v", ErrMemoArity, i, want)
		}
		v := reflect.ValueOf(arg)
		if !v.Type().AssignableTo(want) {
			return nil, fmt.Errorf("%w: argument %d is %v, want %v", ErrMemoArity, i, v.Type(), want)
		}
		in[i] = v
	}
	return in, nil
}

// SelectorOption configures a Selector.
type SelectorOption[T any] func(*Selector[T])

// WithEquals replaces the result comparison. The default is Identical.
func WithEquals[T any](equals func(a, b T) bool) SelectorOption[T] {
	return func(s *Selector[T]) {
		s.equals = equals
	}
}

// Selector derives a value from one or more stores. It implements
// ExternalStore, so a UI binding can subscribe to it and read it.
type Selector[T any] struct {
	fn       func(*Selection) T
	equals   func(a, b T) bool
	ran      bool
	last     T
	lastForm any
	touched  []*Subscriptions
	memo     memoState
}

// NewSelector wraps fn. fn should read stores only through the Selection
// it is given.
func NewSelector[T any](fn func(*Selection) T, opts ...SelectorOption[T]) *Selector[T] {
	s := &Selector[T]{
		fn: fn,
		equals: func(a, b T) bool {
			return Identical(a, b)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetSnapshot runs the selector. If a previous result exists, equals the
// new one and has the same committed form, the previous result is returned
// so that identity-sensitive consumers see no change.
func (s *Selector[T]) GetSnapshot() T {
	c := &Selection{memo: &s.memo}
	result := s.fn(c)
	form := committedForm(result)
	ranBefore := s.ran
	s.ran = true
	s.touched = c.touched
	if ranBefore && s.equals(result, s.last) && Identical(form, s.lastForm) {
		return s.last
	}
	s.last = result
	s.lastForm = form
	return result
}

// Subscribe calls onChange after every commit of any store the selector
// read from in its latest run. If the selector has never run, it is run
// first to find out. The returned func unsubscribes.
func (s *Selector[T]) Subscribe(onChange func()) func() {
	if !s.ran {
		s.GetSnapshot()
	}
	var subs []Subscription
	for _, registry := range s.touched {
		subs = append(subs, registry.Add(func(Snapshot) { onChange() }))
	}
	return func() {
		for _, sub := range subs {
			sub.Cancel()
		}
		subs = nil
	}
}

// Dependencies is the number of stores the latest run read from.
func (s *Selector[T]) Dependencies() int {
	return len(s.touched)
}

// Watch is a minimal ExternalStore consumer: it reads src now, and after
// each change notification calls fn with the new value if its identity or
// committed form changed. The returned func stops watching.
func Watch[T any](src ExternalStore[T], fn func(T)) func() {
	last := committedForm(src.GetSnapshot())
	return src.Subscribe(func() {
		next := src.GetSnapshot()
		form := committedForm(next)
		if Identical(form, last) {
			return
		}
		last = form
		fn(next)
	})
}
