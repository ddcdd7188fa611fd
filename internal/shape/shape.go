// Package shape classifies declared field types into the wrappers a
// constraint has to look through (optional pointers and sequences) and lists
// the members of a struct with their external keys.
package shape

import (
	"reflect"
	"strings"

	"github.com/reoring/govalid"
)

// Kind is the outer wrapper of a shape.
type Kind int

const (
	Plain Kind = iota
	Optional
	Sequence
)

// Shape is a recursive classification of a declared type.
type Shape struct {
	Kind Kind
	// Type is the declared type at this level.
	Type reflect.Type
	// Elem is the wrapped shape for Optional and Sequence.
	Elem *Shape
}

// Mode selects how byte and rune sequences are classified.
type Mode int

const (
	// ModeElements treats every slice and array as a sequence.
	ModeElements Mode = iota
	// ModeLength keeps []byte, []rune and user types implementing
	// govalid.Measurable atomic, so that length checks see them whole.
	ModeLength
)

var (
	measurableType = reflect.TypeOf((*govalid.Measurable)(nil)).Elem()
	enumerableType = reflect.TypeOf((*govalid.Enumerable)(nil)).Elem()
)

// Resolve classifies t. It never fails.
func Resolve(t reflect.Type, mode Mode) *Shape {
	switch t.Kind() {
	case reflect.Pointer:
		return &Shape{Kind: Optional, Type: t, Elem: Resolve(t.Elem(), mode)}
	case reflect.Slice, reflect.Array:
		if mode == ModeLength && (IsStringLike(t) || t.Implements(measurableType)) {
			return &Shape{Kind: Plain, Type: t}
		}
		return &Shape{Kind: Sequence, Type: t, Elem: Resolve(t.Elem(), mode)}
	}
	return &Shape{Kind: Plain, Type: t}
}

// IsStringLike reports whether t is a byte or rune sequence.
func IsStringLike(t reflect.Type) bool {
	if t.Kind() != reflect.Slice && t.Kind() != reflect.Array {
		return false
	}
	switch t.Elem().Kind() {
	case reflect.Uint8, reflect.Int32:
		return true
	}
	return false
}

// IsSequence reports whether t (after pointers) can be iterated as items,
// either as a slice/array or through govalid.Enumerable.
func IsSequence(t reflect.Type) bool {
	if t.Implements(enumerableType) {
		return true
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return true
	}
	return false
}

// Leaf returns the innermost Plain shape.
func (s *Shape) Leaf() *Shape {
	for s.Kind != Plain {
		s = s.Elem
	}
	return s
}

// Depth counts the wrappers above the leaf.
func (s *Shape) Depth() int {
	n := 0
	for c := s; c.Kind != Plain; c = c.Elem {
		n++
	}
	return n
}

// String renders the shape, e.g. "seq(opt(int))".
func (s *Shape) String() string {
	var b strings.Builder
	closers := 0
	for c := s; ; c = c.Elem {
		switch c.Kind {
		case Optional:
			b.WriteString("opt(")
		case Sequence:
			b.WriteString("seq(")
		default:
			b.WriteString(c.Type.String())
			b.WriteString(strings.Repeat(")", closers))
			return b.String()
		}
		closers++
	}
}
