package compile

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/reoring/govalid"
	"github.com/reoring/govalid/internal/value"
)

// node is one unit of validation logic, built once per type and run per
// value. run returns nil when the value passes.
type node interface {
	run(ctx context.Context, v reflect.Value) govalid.Errors
	String() string
}

// optionalNode skips absent (nil) values.
type optionalNode struct{ inner node }

func (n optionalNode) run(ctx context.Context, v reflect.Value) govalid.Errors {
	if v.IsNil() {
		return nil
	}
	return n.inner.run(ctx, v.Elem())
}

func (n optionalNode) String() string { return "opt(" + n.inner.String() + ")" }

// sequenceNode runs inner on every element and records failures under the
// element's original index.
type sequenceNode struct{ inner node }

func (n sequenceNode) run(ctx context.Context, v reflect.Value) govalid.Errors {
	var out *govalid.ArrayErrors
	for i := 0; i < v.Len(); i++ {
		if r := n.inner.run(ctx, v.Index(i)); r != nil {
			if out == nil {
				out = govalid.NewArrayErrors()
			}
			out.SetItem(i, r)
		}
	}
	if out == nil {
		return nil
	}
	return out
}

func (n sequenceNode) String() string { return "seq(" + n.inner.String() + ")" }

// mapNode runs inner on every map value and records failures under the
// formatted key. Keys are visited in sorted order.
type mapNode struct{ inner node }

func (n mapNode) run(ctx context.Context, v reflect.Value) govalid.Errors {
	if v.Len() == 0 {
		return nil
	}
	var out *govalid.ObjectErrors
	for _, k := range sortedKeys(v) {
		if r := n.inner.run(ctx, v.MapIndex(k)); r != nil {
			if out == nil {
				out = govalid.NewObjectErrors()
			}
			out.SetProperty(fmt.Sprint(k.Interface()), r)
		}
	}
	if out == nil {
		return nil
	}
	return out
}

func (n mapNode) String() string { return "map(" + n.inner.String() + ")" }

// leafNode runs one primitive check against a plain value.
type leafNode struct {
	name  string
	check func(v reflect.Value) *govalid.Error
	msg   *messageOverride
}

func (n leafNode) run(_ context.Context, v reflect.Value) govalid.Errors {
	if e := n.check(v); e != nil {
		return govalid.NewTypeErrors{n.msg.apply(e)}
	}
	return nil
}

func (n leafNode) String() string { return n.name }

// itemsNode runs a whole-sequence check. Failures go to the array's own
// list, never to an index.
type itemsNode struct {
	name  string
	check func(v reflect.Value) *govalid.Error
	msg   *messageOverride
}

func (n itemsNode) run(_ context.Context, v reflect.Value) govalid.Errors {
	if e := n.check(v); e != nil {
		return &govalid.ArrayErrors{Errors: []*govalid.Error{n.msg.apply(e)}}
	}
	return nil
}

func (n itemsNode) String() string { return n.name }

// customNode calls a user function with the value.
type customNode struct {
	fn  *checkFunc
	msg *messageOverride
}

func (n customNode) run(ctx context.Context, v reflect.Value) govalid.Errors {
	return n.msg.applyAll(n.fn.call(ctx, v))
}

func (n customNode) String() string { return "custom(" + n.fn.name + ")" }

// nestedNode validates a value with the plan of its own type.
type nestedNode struct{ ref *planRef }

func (n nestedNode) run(ctx context.Context, v reflect.Value) govalid.Errors {
	if n.ref.plan == nil {
		return nil
	}
	return n.ref.plan.run(ctx, v)
}

func (n nestedNode) String() string { return "nested(" + n.ref.t.String() + ")" }

// allNode runs every child and merges their results in order.
type allNode []node

func (n allNode) run(ctx context.Context, v reflect.Value) govalid.Errors {
	var out govalid.Errors
	for _, c := range n {
		if r := c.run(ctx, v); r != nil {
			out = govalid.Merge(out, r)
		}
	}
	if out == nil || out.IsEmpty() {
		return nil
	}
	return out
}

func (n allNode) String() string {
	parts := make([]string, len(n))
	for i, c := range n {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// wrap re-applies the optional and sequence wrappers of a shape around the
// node built for its leaf.
func wrap(kinds []wrapper, inner node) node {
	for i := len(kinds) - 1; i >= 0; i-- {
		switch kinds[i] {
		case wrapOptional:
			inner = optionalNode{inner}
		case wrapSequence:
			inner = sequenceNode{inner}
		case wrapMap:
			inner = mapNode{inner}
		}
	}
	return inner
}

type wrapper int

const (
	wrapOptional wrapper = iota
	wrapSequence
	wrapMap
)

func sortedKeys(v reflect.Value) []reflect.Value {
	keys := v.MapKeys()
	sortValues(keys)
	return keys
}

// sortValues orders map keys by their canonical value when they have one,
// else by their formatted form.
func sortValues(keys []reflect.Value) {
	sort.SliceStable(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		ca, oka := value.Canonical(a)
		cb, okb := value.Canonical(b)
		if oka && okb {
			switch x := ca.(type) {
			case int64:
				if y, ok := cb.(int64); ok {
					return x < y
				}
			case uint64:
				if y, ok := cb.(uint64); ok {
					return x < y
				}
			case float64:
				if y, ok := cb.(float64); ok {
					return x < y
				}
			case string:
				if y, ok := cb.(string); ok {
					return x < y
				}
			}
		}
		return fmt.Sprint(a.Interface()) < fmt.Sprint(b.Interface())
	})
}
