package compile

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/reoring/govalid"
)

// Validator is the compiled validation plan of T. It is immutable and safe
// for concurrent use.
type Validator[T any] struct {
	t    reflect.Type
	root node
}

var _ govalid.Validator[struct{}] = (*Validator[struct{}])(nil)

// Compile builds the validator of T. Every problem found in T and the types
// it reaches is reported at once as Diagnostics.
func Compile[T any](opts ...Option) (*Validator[T], error) {
	cfg := newConfig(opts)
	r := cfg.registry
	if r == nil {
		r = Default()
	}
	t := reflect.TypeOf((*T)(nil)).Elem()
	root, err := r.compile(t, cfg)
	if err != nil {
		return nil, err
	}
	return &Validator[T]{t: t, root: root}, nil
}

// MustCompile is Compile for package-level validators. It panics on
// diagnostics.
func MustCompile[T any](opts ...Option) *Validator[T] {
	v, err := Compile[T](opts...)
	if err != nil {
		panic(err)
	}
	return v
}

// Validate returns nil when x passes, else the govalid.Errors tree.
func (v *Validator[T]) Validate(ctx context.Context, x T) error {
	if r := v.Check(ctx, x); r != nil {
		return r
	}
	return nil
}

// Check is Validate with the concrete result type.
func (v *Validator[T]) Check(ctx context.Context, x T) govalid.Errors {
	if v == nil || v.root == nil {
		return nil
	}
	return v.root.run(ctx, reflect.ValueOf(&x).Elem())
}

// Plan describes the compiled plan of T and every type it validates,
// one block per type.
func (v *Validator[T]) Plan() string {
	var b strings.Builder
	if v.root == nil {
		fmt.Fprintf(&b, "%s: -\n", v.t)
		return b.String()
	}
	fmt.Fprintf(&b, "%s: %s\n", v.t, v.root)
	seen := map[*planRef]bool{}
	queue := []node{v.root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		switch x := n.(type) {
		case nestedNode:
			if seen[x.ref] || x.ref.plan == nil {
				continue
			}
			seen[x.ref] = true
			x.ref.plan.describe(&b)
			queue = append(queue, x.ref.plan.children()...)
		case optionalNode:
			queue = append(queue, x.inner)
		case sequenceNode:
			queue = append(queue, x.inner)
		case mapNode:
			queue = append(queue, x.inner)
		case allNode:
			queue = append(queue, x...)
		}
	}
	return b.String()
}
