package compile

import (
	"errors"

	"github.com/reoring/govalid/annotation"
	"github.com/reoring/govalid/constraint"
)

// constraintSpec is one resolved annotation.
type constraintSpec struct {
	kind constraint.Kind
	ann  annotation.Annotation
	msg  *messageOverride
}

// parse tokenizes a tag and resolves every annotation against the registry.
// Problems are reported and the offending annotation dropped; parsing goes
// on with the rest of the tag.
func (c *compiler) parse(rep reporter, tag string) []constraintSpec {
	anns, err := annotation.Parse(tag)
	if err != nil {
		var se annotation.SyntaxErrors
		if errors.As(err, &se) {
			for _, e := range se {
				rep.report(CodeMalformedAnnotation, e.Span, "%s", e.Msg)
			}
		}
	}
	var out []constraintSpec
	seen := map[constraint.Kind]bool{}
	for _, a := range anns {
		k, err := constraint.Lookup(a.Name, a.Form)
		if err != nil {
			c.lookupFailure(rep, a, err)
			continue
		}
		if seen[k] && k.Category() != constraint.Function {
			rep.report(CodeDuplicateArgument, a.Span, "%s is given more than once", k)
			continue
		}
		seen[k] = true
		out = append(out, constraintSpec{kind: k, ann: a, msg: c.modifiers(rep, k, a.Nested)})
	}
	return out
}

func (c *compiler) lookupFailure(rep reporter, a annotation.Annotation, err error) {
	var unknown *constraint.UnknownError
	var wrong *constraint.WrongFormError
	switch {
	case errors.As(err, &unknown):
		d := rep.report(CodeUnknownConstraint, a.NameSpan, "%s", unknown.Error())
		d.Suggestions = unknown.Candidates
	case errors.As(err, &wrong):
		rep.report(CodeWrongForm, a.Span, "%s", wrong.Error())
	default:
		rep.report(CodeMalformedAnnotation, a.Span, "%v", err)
	}
}

// conflictingBounds reports an inclusive and an exclusive bound on the same
// side of one field.
func conflictingBounds(rep reporter, specs []constraintSpec) {
	find := func(k constraint.Kind) (annotation.Annotation, bool) {
		for _, s := range specs {
			if s.kind == k {
				return s.ann, true
			}
		}
		return annotation.Annotation{}, false
	}
	pairs := [][2]constraint.Kind{
		{constraint.Minimum, constraint.ExclusiveMinimum},
		{constraint.Maximum, constraint.ExclusiveMaximum},
	}
	for _, p := range pairs {
		if _, ok := find(p[0]); !ok {
			continue
		}
		if ex, ok := find(p[1]); ok {
			rep.report(CodeConflictingBounds, ex.Span, "%s and %s bound the same side; keep one", p[0], p[1])
		}
	}
}

func (c *compiler) lookupFunc(rep reporter, name string, span annotation.Span) (any, bool) {
	if fn, ok := c.cfg.funcs[name]; ok {
		return fn, true
	}
	if fn, ok := registeredFunc(name); ok {
		return fn, true
	}
	names := registeredNames()
	for k := range c.cfg.funcs {
		if _, dup := registeredFunc(k); !dup {
			names = append(names, k)
		}
	}
	d := rep.report(CodeUnknownFunction, span, "function %q is not registered (use compile.RegisterFunc or compile.WithFuncs)", name)
	d.Suggestions = constraint.Similar(name, names, constraint.SimilarityThreshold)
	return nil, false
}
