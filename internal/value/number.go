// Package value holds the primitive checks behind each constraint and the
// capability tests that decide which leaf types a constraint accepts.
package value

import (
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/reoring/govalid"
)

// NumKind is the arithmetic domain of a numeric leaf.
type NumKind int

const (
	Int NumKind = iota + 1
	Uint
	Float
)

// Num is a number in the domain of the field it was read from.
type Num struct {
	Kind NumKind
	I    int64
	U    uint64
	F    float64
}

// Any returns the number as int64, uint64 or float64.
func (n Num) Any() any {
	switch n.Kind {
	case Int:
		return n.I
	case Uint:
		return n.U
	}
	return n.F
}

func (n Num) String() string { return fmt.Sprint(n.Any()) }

var numericType = reflect.TypeOf((*govalid.Numeric)(nil)).Elem()

// NumericKind reports the domain of t, or false when t cannot be ordered.
// User types implementing govalid.Numeric are compared as floats.
func NumericKind(t reflect.Type) (NumKind, bool) {
	if t.Implements(numericType) {
		return Float, true
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Uint, true
	case reflect.Float32, reflect.Float64:
		return Float, true
	}
	return 0, false
}

// ParseNum parses a limit written in a tag into domain k.
func ParseNum(text string, k NumKind) (Num, error) {
	switch k {
	case Int:
		i, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			return Num{}, fmt.Errorf("%q is not an integer", text)
		}
		return Num{Kind: Int, I: i}, nil
	case Uint:
		u, err := strconv.ParseUint(text, 0, 64)
		if err != nil {
			return Num{}, fmt.Errorf("%q is not an unsigned integer", text)
		}
		return Num{Kind: Uint, U: u}, nil
	case Float:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil || math.IsNaN(f) {
			return Num{}, fmt.Errorf("%q is not a number", text)
		}
		return Num{Kind: Float, F: f}, nil
	}
	return Num{}, fmt.Errorf("unsupported numeric kind %d", k)
}

// Read reads v in domain k. It fails only for govalid.Numeric values whose
// Float64 method errors.
func Read(v reflect.Value, k NumKind) (Num, error) {
	if v.Type().Implements(numericType) {
		if !v.CanInterface() {
			return Num{}, fmt.Errorf("cannot read unexported %s", v.Type())
		}
		f, err := v.Interface().(govalid.Numeric).Float64()
		if err != nil {
			return Num{}, err
		}
		return Num{Kind: Float, F: f}, nil
	}
	switch k {
	case Int:
		return Num{Kind: Int, I: v.Int()}, nil
	case Uint:
		return Num{Kind: Uint, U: v.Uint()}, nil
	}
	return Num{Kind: Float, F: v.Float()}, nil
}

// Compare returns -1, 0 or +1. Both operands must share a domain.
func Compare(a, b Num) int {
	switch a.Kind {
	case Int:
		return cmp3(a.I < b.I, a.I > b.I)
	case Uint:
		return cmp3(a.U < b.U, a.U > b.U)
	}
	return cmp3(a.F < b.F, a.F > b.F)
}

func cmp3(lt, gt bool) int {
	switch {
	case lt:
		return -1
	case gt:
		return 1
	}
	return 0
}

// MultipleOf reports whether n is an exact multiple of k. Floats use
// math.Mod without tolerance.
func MultipleOf(n, k Num) bool {
	switch n.Kind {
	case Int:
		return k.I != 0 && n.I%k.I == 0
	case Uint:
		return k.U != 0 && n.U%k.U == 0
	}
	return k.F != 0 && math.Mod(n.F, k.F) == 0
}

// IsPositive reports whether n > 0.
func IsPositive(n Num) bool {
	switch n.Kind {
	case Int:
		return n.I > 0
	case Uint:
		return n.U > 0
	}
	return n.F > 0
}
