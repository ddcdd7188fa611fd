package compile

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/reoring/govalid"
)

// VariantDef names one concrete type of an enum.
type VariantDef struct {
	name string
	t    reflect.Type
}

// Variant declares V as a variant of an enum. V is usually a struct; a
// struct embedding govalid.Tuple with a single field reports NewType errors.
func Variant[V any](name string) VariantDef {
	return VariantDef{name: name, t: reflect.TypeOf((*V)(nil)).Elem()}
}

// Enum registers interface type I as a closed set of variants in the
// default registry:
//
//	type Shape interface{ isShape() }
//
//	compile.Enum[Shape](
//		compile.Variant[Circle]("circle"),
//		compile.Variant[Rect]("rect"),
//	)
//
// A value of type I is validated with the plan of the variant matching its
// dynamic type. Values of other dynamic types pass.
func Enum[I any](variants ...VariantDef) error {
	return RegisterEnum[I](Default(), variants...)
}

// RegisterEnum is Enum for an explicit registry.
func RegisterEnum[I any](r *Registry, variants ...VariantDef) error {
	it := reflect.TypeOf((*I)(nil)).Elem()
	if it.Kind() != reflect.Interface {
		return fmt.Errorf("govalid: enum %s must be an interface type", it)
	}
	if len(variants) == 0 {
		return fmt.Errorf("govalid: enum %s has no variants", it)
	}
	seen := map[reflect.Type]bool{}
	for _, v := range variants {
		if !v.t.Implements(it) {
			return fmt.Errorf("govalid: variant %q (%s) does not implement %s", v.name, v.t, it)
		}
		if seen[v.t] {
			return fmt.Errorf("govalid: variant %s is listed twice in %s", v.t, it)
		}
		seen[v.t] = true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.enums[it]; dup {
		return fmt.Errorf("govalid: enum %s is already registered", it)
	}
	r.enums[it] = append([]VariantDef(nil), variants...)
	r.invalidate()
	return nil
}

type variantPlan struct {
	def  VariantDef
	node node
}

// enumPlan dispatches on the dynamic type of an interface value.
type enumPlan struct {
	t        reflect.Type
	variants []variantPlan
}

func (p *enumPlan) run(ctx context.Context, v reflect.Value) govalid.Errors {
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	for _, vp := range p.variants {
		if v.Type() == vp.def.t {
			if vp.node == nil {
				return nil
			}
			return vp.node.run(ctx, v)
		}
	}
	return nil
}

func (p *enumPlan) describe(b *strings.Builder) {
	fmt.Fprintf(b, "%s: enum\n", p.t)
	for _, vp := range p.variants {
		n := "-"
		if vp.node != nil {
			n = vp.node.String()
		}
		fmt.Fprintf(b, "  %s: %s\n", vp.def.name, n)
	}
}

func (p *enumPlan) children() []node {
	var out []node
	for _, vp := range p.variants {
		if vp.node != nil {
			out = append(out, vp.node)
		}
	}
	return out
}

func (p *enumPlan) empty() bool { return len(p.children()) == 0 }

func (c *compiler) compileEnum(t reflect.Type, variants []VariantDef) plan {
	p := &enumPlan{t: t}
	for _, v := range variants {
		p.variants = append(p.variants, variantPlan{def: v, node: c.nested(v.t)})
	}
	return p
}
