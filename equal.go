package snapstore

import (
	"math"
	"reflect"
)

// Identical reports whether a and b are the same value: equal comparable
// values, or the same map, slice, func or channel. It never panics on
// uncomparable types, and treats NaN as identical to itself.
func Identical(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch ta.Kind() {
	case reflect.Slice:
		if va.IsNil() || vb.IsNil() {
			return va.IsNil() && vb.IsNil()
		}
		return va.Len() == vb.Len() && va.Pointer() == vb.Pointer()
	case reflect.Map, reflect.Func:
		return va.Pointer() == vb.Pointer()
	case reflect.Float32, reflect.Float64:
		fa, fb := va.Float(), vb.Float()
		return fa == fb || (math.IsNaN(fa) && math.IsNaN(fb))
	}
	if !ta.Comparable() {
		return false
	}
	return comparableEqual(a, b)
}

// comparableEqual compares with ==, which can still panic for structs or
// arrays holding uncomparable interface values.
func comparableEqual(a, b any) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}

// ShallowEquals compares a and b one level deep. Identical values are
// equal. Two sequences (slices, arrays, Sequence nodes or *List wrappers)
// are equal when they have the same length and Identical elements. Two
// plain mappings (string-keyed maps, Mapping nodes or *Map wrappers) are
// equal when they have the same key set and Identical values. Anything else
// is unequal, including pointers to two structs with the same fields.
func ShallowEquals(a, b any) bool {
	if Identical(a, b) {
		return true
	}
	ca, ok := viewOf(a)
	if !ok {
		return false
	}
	cb, ok := viewOf(b)
	if !ok || ca.kind() != cb.kind() || ca.length() != cb.length() {
		return false
	}
	switch ca.kind() {
	case Sequence:
		for i := 0; i < ca.length(); i++ {
			if !Identical(ca.index(i), cb.index(i)) {
				return false
			}
		}
		return true
	case Mapping:
		for _, k := range ca.keys() {
			va, _ := ca.field(k)
			vb, ok := cb.field(k)
			if !ok || !Identical(va, vb) {
				return false
			}
		}
		return true
	}
	return false
}
