package rules

import (
	"context"
	"fmt"
	"reflect"

	"github.com/reoring/govalid"
	"github.com/reoring/govalid/compile"
)

// Rule is a whole-value check. Helpers in this package report failures as
// govalid.Errors trees addressed relative to the value, so the failures land
// on the offending member once merged into the struct's result.
type Rule[T any] func(ctx context.Context, v T) error

// Install returns a compile option running r after the field checks of T.
func Install[T any](r Rule[T]) compile.Option {
	return compile.WithCustom[T](r)
}

// Op defines simple comparison operators for If(...).Then(...)
type Op int

const (
	Eq Op = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

func (o Op) String() string {
	switch o {
	case Eq:
		return "=="
	case Ne:
		return "!="
	case Lt:
		return "<"
	case Le:
		return "<="
	case Gt:
		return ">"
	case Ge:
		return ">="
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Conditional composes conditional execution of rules.
type Conditional[T any] struct {
	path string
	op   Op
	want any
	all  []Conditional[T] // composite AND
	any  []Conditional[T] // composite OR
}

// If builds a conditional comparing the member at path with want. The path
// is a JSON Pointer over serialization keys, like "/status" or
// "/billing/country".
func If[T any](path string, op Op, want any) Conditional[T] {
	return Conditional[T]{path: normalizePath(path), op: op, want: want}
}

// IfAll builds a conditional that requires all conditions to hold.
func IfAll[T any](conds ...Conditional[T]) Conditional[T] { return Conditional[T]{all: conds} }

// IfAny builds a conditional that requires any condition to hold.
func IfAny[T any](conds ...Conditional[T]) Conditional[T] { return Conditional[T]{any: conds} }

// And combines the receiver with additional conditions using logical AND.
func (c Conditional[T]) And(others ...Conditional[T]) Conditional[T] {
	return IfAll(append([]Conditional[T]{c}, others...)...)
}

// Or combines the receiver with additional conditions using logical OR.
func (c Conditional[T]) Or(others ...Conditional[T]) Conditional[T] {
	return IfAny(append([]Conditional[T]{c}, others...)...)
}

// Holds reports whether the condition is satisfied by v. A path that does
// not resolve never satisfies a simple condition.
func (c Conditional[T]) Holds(v T) bool {
	if len(c.all) > 0 {
		for _, it := range c.all {
			if !it.Holds(v) {
				return false
			}
		}
		return true
	}
	if len(c.any) > 0 {
		for _, it := range c.any {
			if it.Holds(v) {
				return true
			}
		}
		return false
	}
	cur, _, ok := locate(reflect.ValueOf(v), c.path)
	if !ok {
		return false
	}
	return compare(cur, c.op, c.want)
}

// Then attaches rules to run when the condition is satisfied.
func (c Conditional[T]) Then(rules ...Rule[T]) Rule[T] {
	all := And(rules...)
	return func(ctx context.Context, v T) error {
		if !c.Holds(v) {
			return nil
		}
		return all(ctx, v)
	}
}

// Required reports a missing value (nil, empty or zero) at path.
func Required[T any](path string) Rule[T] {
	p := normalizePath(path)
	return func(_ context.Context, v T) error {
		cur, at, ok := locate(reflect.ValueOf(v), p)
		if ok && !isBlank(cur) {
			return nil
		}
		if !ok {
			at = pointerPath(p)
		}
		return failAt(at, govalid.Custom("the value is required"))
	}
}

// RequiredWith requires every member in others once the member at path is
// set. Each missing member is reported at its own path.
func RequiredWith[T any](path string, others ...string) Rule[T] {
	p := normalizePath(path)
	return func(_ context.Context, v T) error {
		rv := reflect.ValueOf(v)
		cur, _, ok := locate(rv, p)
		if !ok || isBlank(cur) {
			return nil
		}
		var out govalid.Errors
		for _, o := range others {
			op := normalizePath(o)
			val, at, found := locate(rv, op)
			if found && !isBlank(val) {
				continue
			}
			if !found {
				at = pointerPath(op)
			}
			out = govalid.Merge(out, govalid.At(at, govalid.NewTypeErrors{
				govalid.Customf("the value is required when %s is set", p),
			}))
		}
		return asError(out)
	}
}

// AtLeastOne ensures the collection at collectionPath has at least 1 element.
// Members that are not collections are left to their own constraints.
func AtLeastOne[T any](collectionPath string) Rule[T] {
	p := normalizePath(collectionPath)
	return func(_ context.Context, v T) error {
		cur, at, ok := locate(reflect.ValueOf(v), p)
		if !ok {
			return nil
		}
		switch cur.Kind() {
		case reflect.Slice, reflect.Array, reflect.Map:
			if cur.Len() == 0 {
				return failAt(at, govalid.Fail(govalid.MinItemsParams{Length: 0, MinItems: 1}))
			}
		}
		return nil
	}
}

// UniqueBy ensures elements in a collection have unique key values.
// collectionPath is JSON Pointer to a slice field (e.g., "/items").
// keyPath is a relative path inside each element (e.g., "sku" or "/sku").
// Keys are compared by their formatted value, so prefer a single comparable
// key type such as string.
func UniqueBy[T any](collectionPath, keyPath string) Rule[T] {
	cp := normalizePath(collectionPath)
	kp := normalizePath(keyPath)
	return func(_ context.Context, v T) error {
		col, at, ok := locate(reflect.ValueOf(v), cp)
		if !ok || (col.Kind() != reflect.Slice && col.Kind() != reflect.Array) {
			return nil
		}
		seen := map[string]int{}
		var out govalid.Errors
		for i := 0; i < col.Len(); i++ {
			kv, rel, ok := locate(col.Index(i), kp)
			if !ok || !kv.CanInterface() {
				continue
			}
			key := fmt.Sprint(kv.Interface())
			j, dup := seen[key]
			if !dup {
				seen[key] = i
				continue
			}
			path := append(at.Index(i), rel...)
			out = govalid.Merge(out, govalid.At(path, govalid.NewTypeErrors{
				govalid.Fail(govalid.UniqueItemsParams{First: j, Duplicate: i}),
			}))
		}
		return asError(out)
	}
}

// FieldsMatch requires the members at a and b to be equal. The failure is
// reported at b.
func FieldsMatch[T any](a, b string) Rule[T] {
	pa, pb := normalizePath(a), normalizePath(b)
	return func(_ context.Context, v T) error {
		rv := reflect.ValueOf(v)
		x, _, okA := locate(rv, pa)
		y, at, okB := locate(rv, pb)
		if !okA || !okB {
			return nil
		}
		if compare(y, Eq, valueOf(x)) {
			return nil
		}
		return failAt(at, govalid.Customf("the value must match %s", pa))
	}
}

// ---------- Rule combinators ----------

// And executes all rules and merges their failures.
func And[T any](rules ...Rule[T]) Rule[T] {
	return func(ctx context.Context, v T) error {
		var out govalid.Errors
		for _, r := range rules {
			if r == nil {
				continue
			}
			out = govalid.Merge(out, toErrors(r(ctx, v)))
		}
		return asError(out)
	}
}

// Or succeeds if any rule passes. When all fail it returns the branch with
// the fewest issues.
func Or[T any](rules ...Rule[T]) Rule[T] {
	return func(ctx context.Context, v T) error {
		var best govalid.Errors
		bestN := -1
		for _, r := range rules {
			if r == nil {
				continue
			}
			e := toErrors(r(ctx, v))
			if e == nil {
				return nil
			}
			if n := len(govalid.Flatten(e)); bestN < 0 || n < bestN {
				best, bestN = e, n
			}
		}
		return asError(best)
	}
}

// ------- helpers -------

func failAt(path govalid.Path, e *govalid.Error) error {
	return asError(govalid.At(path, govalid.NewTypeErrors{e}))
}

func toErrors(err error) govalid.Errors {
	if err == nil {
		return nil
	}
	if tree, ok := govalid.AsErrors(err); ok {
		if tree.IsEmpty() {
			return nil
		}
		return tree
	}
	if le, ok := err.(*govalid.Error); ok {
		return govalid.NewTypeErrors{le}
	}
	return govalid.NewTypeErrors{govalid.Custom(err.Error())}
}

// asError keeps a nil tree from becoming a non-nil error.
func asError(e govalid.Errors) error {
	if e == nil || e.IsEmpty() {
		return nil
	}
	return e
}

func isBlank(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Slice, reflect.Map, reflect.String, reflect.Array:
		return v.Len() == 0
	}
	return v.IsZero()
}

func valueOf(v reflect.Value) any {
	if !v.IsValid() || !v.CanInterface() {
		return nil
	}
	return v.Interface()
}

func compare(cur reflect.Value, op Op, want any) bool {
	if !cur.IsValid() || !cur.CanInterface() {
		return false
	}
	switch op {
	case Eq:
		return reflect.DeepEqual(cur.Interface(), want)
	case Ne:
		return !reflect.DeepEqual(cur.Interface(), want)
	case Lt, Le, Gt, Ge:
		return compareOrdered(cur, op, reflect.ValueOf(want))
	default:
		return false
	}
}

func compareOrdered(c reflect.Value, op Op, w reflect.Value) bool {
	var cmp int
	switch {
	case isIntLike(c.Kind()) && isIntLike(w.Kind()):
		a, b := toInt64(c), toInt64(w)
		cmp = compareOf(a, b)
	case isNumeric(c.Kind()) && isNumeric(w.Kind()):
		a, b := toFloat64(c), toFloat64(w)
		cmp = compareOf(a, b)
	case c.Kind() == reflect.String && w.Kind() == reflect.String:
		cmp = compareOf(c.String(), w.String())
	default:
		return false
	}
	switch op {
	case Lt:
		return cmp < 0
	case Le:
		return cmp <= 0
	case Gt:
		return cmp > 0
	default:
		return cmp >= 0
	}
}

func compareOf[N int64 | float64 | string](a, b N) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func isIntLike(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}

func isNumeric(k reflect.Kind) bool {
	return isIntLike(k) || k == reflect.Float32 || k == reflect.Float64
}

func toInt64(v reflect.Value) int64 {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(v.Uint())
	default:
		return 0
	}
}

func toFloat64(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	default:
		return float64(v.Int())
	}
}
