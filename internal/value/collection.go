package value

import (
	"reflect"

	"github.com/reoring/govalid"
)

var (
	enumerableType = reflect.TypeOf((*govalid.Enumerable)(nil)).Elem()
	sizedType      = reflect.TypeOf((*govalid.Sized)(nil)).Elem()
)

// HasItems reports whether items checks apply to t.
func HasItems(t reflect.Type) bool {
	if t.Implements(enumerableType) {
		return true
	}
	k := t.Kind()
	return k == reflect.Slice || k == reflect.Array
}

// Items returns the elements of v in order.
func Items(v reflect.Value) []reflect.Value {
	if v.Type().Implements(enumerableType) && v.CanInterface() {
		raw := v.Interface().(govalid.Enumerable).Items()
		out := make([]reflect.Value, len(raw))
		for i, x := range raw {
			out[i] = reflect.ValueOf(x)
		}
		return out
	}
	if v.Kind() == reflect.Slice && v.IsNil() {
		return nil
	}
	out := make([]reflect.Value, v.Len())
	for i := range out {
		out[i] = v.Index(i)
	}
	return out
}

// Count returns the number of elements of v.
func Count(v reflect.Value) int {
	if v.Type().Implements(enumerableType) && v.CanInterface() {
		return len(v.Interface().(govalid.Enumerable).Items())
	}
	return v.Len()
}

// FirstDuplicate returns the indices of the first element that equals an
// earlier one, or ok=false when all elements are distinct.
func FirstDuplicate(items []reflect.Value) (first, dup int, ok bool) {
	seen := make(map[any]int, len(items))
	for i, it := range items {
		if k, hashable := hashKey(it); hashable {
			if j, found := seen[k]; found {
				return j, i, true
			}
			seen[k] = i
			continue
		}
		for j := 0; j < i; j++ {
			if equalValues(items[j], it) {
				return j, i, true
			}
		}
	}
	return 0, 0, false
}

func hashKey(v reflect.Value) (any, bool) {
	if !v.IsValid() || !v.CanInterface() || !v.Type().Comparable() {
		return nil, false
	}
	switch v.Kind() {
	case reflect.Interface, reflect.Struct, reflect.Array, reflect.Pointer:
		// compared deeply
		return nil, false
	}
	return v.Interface(), true
}

func equalValues(a, b reflect.Value) bool {
	if !a.IsValid() || !b.IsValid() {
		return a.IsValid() == b.IsValid()
	}
	if a.CanInterface() && b.CanInterface() {
		return reflect.DeepEqual(a.Interface(), b.Interface())
	}
	return false
}

// HasSize reports whether property count checks apply to t.
func HasSize(t reflect.Type) bool {
	return t.Kind() == reflect.Map || t.Implements(sizedType)
}

// Size returns the number of properties of v.
func Size(v reflect.Value) int {
	if v.Type().Implements(sizedType) && v.CanInterface() {
		return v.Interface().(govalid.Sized).Size()
	}
	return v.Len()
}
