package compile

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/reoring/govalid"
	"github.com/reoring/govalid/annotation"
	"github.com/reoring/govalid/constraint"
	"github.com/reoring/govalid/internal/shape"
)

// wrapKind decides the container of a struct's errors.
type wrapKind int

const (
	wrapObject  wrapKind = iota // named fields
	wrapArray                   // several positional fields
	wrapNewType                 // one positional field
)

func (w wrapKind) String() string {
	switch w {
	case wrapArray:
		return "array"
	case wrapNewType:
		return "newtype"
	}
	return "object"
}

type fieldPlan struct {
	field shape.Field
	node  node
}

// structCheck is a whole-value function: a struct-level custom, a rule or a
// programmatic check.
type structCheck struct {
	label  string
	fn     *checkFunc
	fields []shape.Field // nil: the function takes the whole value
	byRef  bool          // the function takes *T
	msg    *messageOverride
}

type structPlan struct {
	t      reflect.Type
	wrap   wrapKind
	fields []fieldPlan
	// bound lists fields that only rules read.
	bound   []shape.Field
	customs []structCheck
	rules   []structCheck
}

func (p *structPlan) run(ctx context.Context, v reflect.Value) govalid.Errors {
	var fieldErrs govalid.Errors
	switch p.wrap {
	case wrapObject:
		obj := govalid.NewObjectErrors()
		for _, f := range p.fields {
			if r := f.node.run(ctx, f.field.Value(v)); r != nil {
				obj.SetProperty(f.field.Key.Name, r)
			}
		}
		fieldErrs = obj
	case wrapArray:
		arr := govalid.NewArrayErrors()
		for _, f := range p.fields {
			if r := f.node.run(ctx, f.field.Value(v)); r != nil {
				arr.SetItem(f.field.Key.Index, r)
			}
		}
		fieldErrs = arr
	default:
		var list govalid.NewTypeErrors
		for _, f := range p.fields {
			list = append(list, govalid.Collapse(f.node.run(ctx, f.field.Value(v)))...)
		}
		fieldErrs = list
	}

	var whole govalid.Errors
	for _, c := range p.customs {
		whole = govalid.Merge(whole, c.run(ctx, v))
	}
	for _, r := range p.rules {
		whole = govalid.Merge(whole, r.run(ctx, v))
	}
	if p.wrap == wrapNewType {
		whole = govalid.Collapse(whole)
	}
	out := govalid.Merge(fieldErrs, whole)
	if out.IsEmpty() {
		return nil
	}
	return out
}

func (c structCheck) run(ctx context.Context, v reflect.Value) govalid.Errors {
	var args []reflect.Value
	switch {
	case c.fields != nil:
		args = make([]reflect.Value, len(c.fields))
		for i, f := range c.fields {
			args[i] = f.Value(v)
		}
	case c.byRef:
		if v.CanAddr() {
			args = []reflect.Value{v.Addr()}
		} else {
			p := reflect.New(v.Type())
			p.Elem().Set(v)
			args = []reflect.Value{p}
		}
	default:
		args = []reflect.Value{v}
	}
	r := c.fn.call(ctx, args...)
	if r == nil {
		return nil
	}
	return c.msg.applyAll(r)
}

func (p *structPlan) describe(b *strings.Builder) {
	fmt.Fprintf(b, "%s: %s\n", p.t, p.wrap)
	for _, f := range p.fields {
		fmt.Fprintf(b, "  %s: %s\n", f.field.Key, f.node)
	}
	if len(p.bound) > 0 {
		names := make([]string, len(p.bound))
		for i, f := range p.bound {
			names[i] = f.GoName
		}
		fmt.Fprintf(b, "  bound: %s\n", strings.Join(names, ", "))
	}
	for _, c := range p.customs {
		fmt.Fprintf(b, "  custom: %s\n", c.label)
	}
	for _, r := range p.rules {
		fmt.Fprintf(b, "  rule: %s\n", r.label)
	}
}

func (p *structPlan) children() []node {
	out := make([]node, len(p.fields))
	for i, f := range p.fields {
		out[i] = f.node
	}
	return out
}

func (p *structPlan) readsField(f shape.Field) bool {
	for _, r := range p.rules {
		for _, rf := range r.fields {
			if rf.GoName == f.GoName {
				return true
			}
		}
	}
	return false
}

func (p *structPlan) empty() bool {
	return len(p.fields) == 0 && len(p.customs) == 0 && len(p.rules) == 0
}

// compileStruct compiles every member of struct type t. Problems are
// reported and compilation continues with the next member.
func (c *compiler) compileStruct(t reflect.Type) *structPlan {
	layout := shape.Fields(t, c.keys)
	p := &structPlan{t: t}
	switch {
	case layout.Positional && len(layout.Fields) == 1:
		p.wrap = wrapNewType
	case layout.Positional:
		p.wrap = wrapArray
	}

	for _, tag := range layout.StructTags {
		c.structTag(p, layout, tag)
	}
	for _, d := range c.cfg.customs[t] {
		c.programmaticCustom(p, d)
	}
	for _, d := range c.cfg.rules[t] {
		c.programmaticRule(p, layout, d)
	}

	ruleFields := map[string]bool{}
	for _, r := range p.rules {
		for _, f := range r.fields {
			ruleFields[f.GoName] = true
		}
	}
	for _, f := range layout.Fields {
		n := c.compileField(t, f)
		if n == nil {
			if ruleFields[f.GoName] {
				p.bound = append(p.bound, f)
			}
			continue
		}
		p.fields = append(p.fields, fieldPlan{field: f, node: n})
	}
	return p
}

// compileField builds the node of one member: its own constraints first,
// then the plan of its type when that type has one.
func (c *compiler) compileField(owner reflect.Type, f shape.Field) node {
	if f.Skip {
		return nil
	}
	rep := reporter{diags: &c.diags, typ: owner.String(), field: f.GoName, tag: f.Tag}
	specs := c.parse(rep, f.Tag)
	conflictingBounds(rep, specs)
	var nodes allNode
	for _, s := range specs {
		if n := c.emit(rep, s, f.Type); n != nil {
			nodes = append(nodes, n)
		}
	}
	if n := c.nested(f.Type); n != nil {
		nodes = append(nodes, n)
	}
	switch len(nodes) {
	case 0:
		return nil
	case 1:
		return nodes[0]
	}
	return nodes
}

// structTag handles custom and rule annotations written on a blank field.
func (c *compiler) structTag(p *structPlan, layout *shape.Layout, tag string) {
	rep := reporter{diags: &c.diags, typ: p.t.String(), tag: tag}
	for _, s := range c.parse(rep, tag) {
		switch s.kind {
		case constraint.Custom:
			if sc, ok := c.structCustom(rep, p.t, s); ok {
				p.customs = append(p.customs, sc)
			}
		case constraint.Rule:
			if sc, ok := c.structRule(rep, layout, s); ok {
				p.rules = append(p.rules, sc)
			}
		default:
			rep.report(CodeUnsupportedType, s.ann.Span, "%s does not apply to a whole struct; only custom and rule do", s.kind)
		}
	}
}

func (c *compiler) structCustom(rep reporter, t reflect.Type, s constraintSpec) (structCheck, bool) {
	cf := c.customFunc(rep, s, 1)
	if cf == nil {
		return structCheck{}, false
	}
	sc := structCheck{label: cf.name, fn: cf, msg: s.msg}
	switch want := cf.params[0]; {
	case t.AssignableTo(want):
	case reflect.PointerTo(t).AssignableTo(want):
		sc.byRef = true
	default:
		rep.report(CodeBadSignature, s.ann.Args[0].Span, "%s takes %s, want %s or *%s", cf.name, want, t, t)
		return structCheck{}, false
	}
	return sc, true
}

// structRule resolves rule(fn(FieldA, FieldB)).
func (c *compiler) structRule(rep reporter, layout *shape.Layout, s constraintSpec) (structCheck, bool) {
	c.log.Warn().
		Str("type", layout.Type.String()).
		Str("annotation", s.ann.String()).
		Msg("the rule annotation is deprecated: " + constraint.Rule.Deprecated())
	if len(s.ann.Args) != 1 || s.ann.Args[0].Value.Kind != annotation.Call || s.ann.Args[0].Name != "" {
		rep.report(CodeInvalidArgument, s.ann.Span, "rule expects a call such as rule(check(FieldA, FieldB))")
		return structCheck{}, false
	}
	call := s.ann.Args[0].Value
	var names []string
	var spans []annotation.Span
	for _, a := range call.Args {
		if a.Name != "" || (a.Value.Kind != annotation.Ident && a.Value.Kind != annotation.Number) {
			rep.report(CodeInvalidArgument, a.Span, "rule arguments must be field names")
			return structCheck{}, false
		}
		names = append(names, a.Value.Text)
		spans = append(spans, a.Span)
	}
	fields, ok := c.ruleFields(rep, layout, names, spans)
	fn, found := c.lookupFunc(rep, call.Text, call.Span)
	if !ok || !found {
		return structCheck{}, false
	}
	cf, problem := inspectCheck(call.Text, fn)
	if problem != "" {
		rep.report(CodeBadSignature, call.Span, "%s %s", call.Text, problem)
		return structCheck{}, false
	}
	if !c.bindRule(rep, call.Span, cf, fields) {
		return structCheck{}, false
	}
	return structCheck{label: call.String(), fn: cf, fields: fields, msg: s.msg}, true
}

func (c *compiler) ruleFields(rep reporter, layout *shape.Layout, names []string, spans []annotation.Span) ([]shape.Field, bool) {
	fields := make([]shape.Field, 0, len(names))
	ok := true
	for i, name := range names {
		f, found := layout.Field(name)
		if !found {
			var known []string
			for _, lf := range layout.Fields {
				known = append(known, lf.GoName)
			}
			d := rep.report(CodeUnknownField, spans[i], "%s has no field %q", layout.Type, name)
			d.Suggestions = constraint.Similar(name, known, constraint.SimilarityThreshold)
			ok = false
			continue
		}
		fields = append(fields, f)
	}
	return fields, ok
}

func (c *compiler) bindRule(rep reporter, span annotation.Span, cf *checkFunc, fields []shape.Field) bool {
	if len(cf.params) != len(fields) {
		rep.report(CodeInvalidArity, span, "%s takes %d values but the rule passes %d fields", cf.name, len(cf.params), len(fields))
		return false
	}
	for i, f := range fields {
		if !f.Type.AssignableTo(cf.params[i]) {
			rep.report(CodeBadSignature, span, "%s argument %d is %s, but field %s is %s", cf.name, i+1, cf.params[i], f.GoName, f.Type)
			return false
		}
	}
	return true
}

func (c *compiler) programmaticCustom(p *structPlan, d customDef) {
	rep := reporter{diags: &c.diags, typ: p.t.String()}
	cf, problem := inspectCheck(d.name, d.fn)
	if problem != "" {
		rep.report(CodeBadSignature, annotation.Span{}, "custom %s %s", d.name, problem)
		return
	}
	p.customs = append(p.customs, structCheck{label: d.name, fn: cf})
}

func (c *compiler) programmaticRule(p *structPlan, layout *shape.Layout, d ruleDef) {
	rep := reporter{diags: &c.diags, typ: p.t.String()}
	spans := make([]annotation.Span, len(d.fields))
	fields, ok := c.ruleFields(rep, layout, d.fields, spans)
	if !ok {
		return
	}
	cf, problem := inspectCheck(d.name, d.fn)
	if problem != "" {
		rep.report(CodeBadSignature, annotation.Span{}, "rule %s %s", d.name, problem)
		return
	}
	if !c.bindRule(rep, annotation.Span{}, cf, fields) {
		return
	}
	label := d.name + "(" + strings.Join(d.fields, ", ") + ")"
	p.rules = append(p.rules, structCheck{label: label, fn: cf, fields: fields})
}
