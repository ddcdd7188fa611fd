package compile

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/reoring/govalid"
)

// NewType registers annotations for a named non-struct type in the default
// registry, as if T were a struct with one positional field:
//
//	type Tags []string
//
//	compile.NewType[Tags]("max_items=3; max_length=10")
//
// Errors of T use the flat NewType shape. Fields of type T are validated
// with these annotations before their own.
func NewType[T any](tag string) error {
	return RegisterNewType[T](Default(), tag)
}

// RegisterNewType is NewType for an explicit registry.
func RegisterNewType[T any](r *Registry, tag string) error {
	t := reflect.TypeOf((*T)(nil)).Elem()
	switch {
	case t.Name() == "":
		return fmt.Errorf("govalid: new type %s must be a named type", t)
	case t.Kind() == reflect.Struct:
		return fmt.Errorf("govalid: %s is a struct; embed govalid.Tuple for positional structs instead", t)
	case t.Kind() == reflect.Interface:
		return fmt.Errorf("govalid: %s is an interface; register it with Enum", t)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.newtypes[t]; dup {
		return fmt.Errorf("govalid: new type %s is already registered", t)
	}
	r.newtypes[t] = tag
	r.invalidate()
	return nil
}

// newtypePlan validates a registered new type.
type newtypePlan struct {
	t    reflect.Type
	node node
}

func (p *newtypePlan) run(ctx context.Context, v reflect.Value) govalid.Errors {
	if p.node == nil {
		return nil
	}
	if out := govalid.Collapse(p.node.run(ctx, v)); out != nil {
		return out
	}
	return nil
}

func (p *newtypePlan) describe(b *strings.Builder) {
	n := "-"
	if p.node != nil {
		n = p.node.String()
	}
	fmt.Fprintf(b, "%s: newtype\n  %s\n", p.t, n)
}

func (p *newtypePlan) children() []node {
	if p.node == nil {
		return nil
	}
	return []node{p.node}
}

func (p *newtypePlan) empty() bool { return p.node == nil }

func (c *compiler) compileNewType(t reflect.Type, tag string) plan {
	rep := reporter{diags: &c.diags, typ: t.String(), tag: tag}
	specs := c.parse(rep, tag)
	conflictingBounds(rep, specs)
	var nodes allNode
	for _, s := range specs {
		if n := c.emit(rep, s, t); n != nil {
			nodes = append(nodes, n)
		}
	}
	// the element type may have its own plan; t itself must not recurse
	if n := c.nestedElems(t); n != nil {
		nodes = append(nodes, n)
	}
	if len(nodes) == 0 {
		return &newtypePlan{t: t}
	}
	var n node = nodes
	if len(nodes) == 1 {
		n = nodes[0]
	}
	return &newtypePlan{t: t, node: n}
}
