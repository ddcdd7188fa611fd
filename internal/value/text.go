package value

import (
	"fmt"
	"reflect"

	"github.com/rivo/uniseg"

	"github.com/reoring/govalid"
)

var (
	measurableType = reflect.TypeOf((*govalid.Measurable)(nil)).Elem()
	stringerType   = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
)

// HasLength reports whether length checks apply to t.
func HasLength(t reflect.Type) bool {
	if t.Implements(measurableType) || t.Implements(stringerType) {
		return true
	}
	switch t.Kind() {
	case reflect.String:
		return true
	case reflect.Slice, reflect.Array:
		k := t.Elem().Kind()
		return k == reflect.Uint8 || k == reflect.Int32
	}
	return false
}

// Length measures v: grapheme clusters for text, element count for byte and
// rune sequences, and Length() for govalid.Measurable.
func Length(v reflect.Value) int {
	t := v.Type()
	if t.Implements(measurableType) && v.CanInterface() {
		return v.Interface().(govalid.Measurable).Length()
	}
	switch t.Kind() {
	case reflect.String:
		return uniseg.GraphemeClusterCount(v.String())
	case reflect.Slice, reflect.Array:
		return v.Len()
	}
	if t.Implements(stringerType) && v.CanInterface() {
		return uniseg.GraphemeClusterCount(v.Interface().(fmt.Stringer).String())
	}
	return 0
}

// HasText reports whether t can be matched against a pattern.
func HasText(t reflect.Type) bool {
	if t.Kind() == reflect.String || t.Implements(stringerType) {
		return true
	}
	return (t.Kind() == reflect.Slice || t.Kind() == reflect.Array) && t.Elem().Kind() == reflect.Uint8
}

// Text returns the textual form of v.
func Text(v reflect.Value) string {
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return string(v.Bytes())
		}
	case reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, v.Len())
			reflect.Copy(reflect.ValueOf(b), v)
			return string(b)
		}
	}
	if v.CanInterface() {
		if s, ok := v.Interface().(fmt.Stringer); ok {
			return s.String()
		}
	}
	return ""
}
