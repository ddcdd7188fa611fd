package value

import (
	"fmt"
	"reflect"
	"strconv"
)

// Canonical converts a leaf to the representation used for membership:
// string, int64, uint64, float64 or bool.
func Canonical(v reflect.Value) (any, bool) {
	if k, ok := NumericKind(v.Type()); ok {
		n, err := Read(v, k)
		if err != nil {
			return nil, false
		}
		return n.Any(), true
	}
	switch v.Kind() {
	case reflect.Bool:
		return v.Bool(), true
	case reflect.String:
		return v.String(), true
	}
	if HasText(v.Type()) {
		return Text(v), true
	}
	return nil, false
}

// HasMembership reports whether enumerate applies to t.
func HasMembership(t reflect.Type) bool {
	if _, ok := NumericKind(t); ok {
		return true
	}
	return t.Kind() == reflect.Bool || HasText(t)
}

// CandidateKind describes how a tag literal is read for a leaf type.
type CandidateKind int

const (
	CandidateString CandidateKind = iota + 1
	CandidateNumber
	CandidateBool
)

// ParseCandidate converts a tag literal into the canonical representation
// of leaf type t. quoted tells whether the literal was a quoted string.
func ParseCandidate(text string, quoted bool, t reflect.Type) (any, error) {
	if k, ok := NumericKind(t); ok {
		if quoted {
			return nil, fmt.Errorf("%q is a string, want a number", text)
		}
		n, err := ParseNum(text, k)
		if err != nil {
			return nil, err
		}
		return n.Any(), nil
	}
	if t.Kind() == reflect.Bool {
		b, err := strconv.ParseBool(text)
		if err != nil || quoted {
			return nil, fmt.Errorf("%q is not a boolean", text)
		}
		return b, nil
	}
	if HasText(t) {
		return text, nil
	}
	return nil, fmt.Errorf("enumerate does not support %s", t)
}

// Contains reports whether x equals one of the candidates.
func Contains(candidates []any, x any) bool {
	for _, c := range candidates {
		if c == x {
			return true
		}
	}
	return false
}
