package snapstore

import (
	"reflect"
	"sort"
	"strconv"
)

// Kind classifies a value in the state tree.
type Kind uint8

const (
	// Primitive is anything that is not a composite: nil, bools, numbers,
	// strings, funcs, structs, pointers.
	Primitive Kind = iota
	// Mapping is a composite with ordered string keys.
	Mapping
	// Sequence is an ordered list of values.
	Sequence
)

func (k Kind) String() string {
	switch k {
	case Mapping:
		return "mapping"
	case Sequence:
		return "sequence"
	default:
		return "primitive"
	}
}

// Key addresses a child of a composite: a field name for a Mapping, an
// index for a Sequence.
type Key struct {
	name    string
	index   int
	indexed bool
}

// Field returns the Key of a Mapping entry.
func Field(name string) Key {
	return Key{name: name}
}

// Index returns the Key of a Sequence element.
func Index(i int) Key {
	return Key{index: i, indexed: true}
}

// IsIndex reports whether k was made with Index.
func (k Key) IsIndex() bool { return k.indexed }

// Name is the field name, or the decimal index for index keys.
func (k Key) Name() string {
	if k.indexed {
		return strconv.Itoa(k.index)
	}
	return k.name
}

// Int is the index, or the field name parsed as an integer. ok is false for
// field names that are not integers.
func (k Key) Int() (i int, ok bool) {
	if k.indexed {
		return k.index, true
	}
	i, err := strconv.Atoi(k.name)
	return i, err == nil
}

func (k Key) String() string {
	if k.indexed {
		return "[" + strconv.Itoa(k.index) + "]"
	}
	return strconv.Quote(k.name)
}

func keyOf(v any) (Key, bool) {
	switch k := v.(type) {
	case Key:
		return k, true
	case string:
		return Field(k), true
	case int:
		return Index(k), true
	}
	return Key{}, false
}

// view is a read-only look at any composite input: Go maps and slices,
// snapshot nodes and live wrappers.
type view interface {
	kind() Kind
	length() int
	keys() []string
	field(name string) (any, bool)
	index(i int) any
}

// KindOf classifies v the same way the store does when v is written.
func KindOf(v any) Kind {
	if c, ok := viewOf(v); ok {
		return c.kind()
	}
	return Primitive
}

func viewOf(v any) (view, bool) {
	switch x := v.(type) {
	case nil:
		return nil, false
	case *Node:
		if x == nil || x.kind == Primitive {
			return nil, false
		}
		return nodeView{x}, true
	case *Map:
		if x == nil || x.live() == nil {
			return nil, false
		}
		return mapView{x}, true
	case *List:
		if x == nil || x.live() == nil {
			return nil, false
		}
		return listView{x}, true
	case map[string]any:
		if x == nil {
			return nil, false
		}
		return plainMap(x), true
	case []any:
		if x == nil {
			return nil, false
		}
		return plainSlice(x), true
	case []byte, string:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() || rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		return reflectMap{rv}, true
	case reflect.Slice:
		if rv.IsNil() || rv.Type().Elem().Kind() == reflect.Uint8 {
			return nil, false
		}
		return reflectSlice{rv}, true
	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return nil, false
		}
		return reflectSlice{rv}, true
	}
	return nil, false
}

type plainMap map[string]any

func (m plainMap) kind() Kind  { return Mapping }
func (m plainMap) length() int { return len(m) }
func (m plainMap) keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
func (m plainMap) field(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}
func (m plainMap) index(int) any { return nil }

type plainSlice []any

func (s plainSlice) kind() Kind               { return Sequence }
func (s plainSlice) length() int              { return len(s) }
func (s plainSlice) keys() []string           { return nil }
func (s plainSlice) field(string) (any, bool) { return nil, false }
func (s plainSlice) index(i int) any          { return s[i] }

type reflectMap struct{ rv reflect.Value }

func (m reflectMap) kind() Kind  { return Mapping }
func (m reflectMap) length() int { return m.rv.Len() }
func (m reflectMap) keys() []string {
	keys := make([]string, 0, m.rv.Len())
	iter := m.rv.MapRange()
	for iter.Next() {
		keys = append(keys, iter.Key().String())
	}
	sort.Strings(keys)
	return keys
}
func (m reflectMap) field(name string) (any, bool) {
	v := m.rv.MapIndex(reflect.ValueOf(name).Convert(m.rv.Type().Key()))
	if !v.IsValid() {
		return nil, false
	}
	return v.Interface(), true
}
func (m reflectMap) index(int) any { return nil }

type reflectSlice struct{ rv reflect.Value }

func (s reflectSlice) kind() Kind               { return Sequence }
func (s reflectSlice) length() int              { return s.rv.Len() }
func (s reflectSlice) keys() []string           { return nil }
func (s reflectSlice) field(string) (any, bool) { return nil, false }
func (s reflectSlice) index(i int) any          { return s.rv.Index(i).Interface() }

type mapView struct{ m *Map }

func (v mapView) kind() Kind                    { return Mapping }
func (v mapView) length() int                   { return v.m.Len() }
func (v mapView) keys() []string                { return v.m.Keys() }
func (v mapView) field(name string) (any, bool) { return v.m.Get(name), v.m.Has(name) }
func (v mapView) index(int) any                 { return nil }

type listView struct{ l *List }

func (v listView) kind() Kind               { return Sequence }
func (v listView) length() int              { return v.l.Len() }
func (v listView) keys() []string           { return nil }
func (v listView) field(string) (any, bool) { return nil, false }
func (v listView) index(i int) any          { return v.l.Get(i) }
