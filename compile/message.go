package compile

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/reoring/govalid"
	"github.com/reoring/govalid/annotation"
	"github.com/reoring/govalid/constraint"
)

// messageOverride holds the modifiers that followed a constraint.
type messageOverride struct {
	text    string
	hasText bool
	format  func(govalid.Params) string
	fnName  string
	id      string
	args    map[string]any
}

// apply customizes a failed check. A literal or formatter replaces the
// default message; an identifier only changes how the leaf is localized.
func (m *messageOverride) apply(e *govalid.Error) *govalid.Error {
	if m == nil || e == nil {
		return e
	}
	switch {
	case m.hasText:
		e = e.WithMessage(m.text)
	case m.format != nil && e.Params != nil:
		e = e.WithFormat(m.format)
	}
	if m.id != "" {
		e = e.WithID(m.id, m.args)
	}
	return e
}

func (m *messageOverride) applyAll(errs govalid.Errors) govalid.Errors {
	if m == nil || errs == nil {
		return errs
	}
	switch x := errs.(type) {
	case govalid.NewTypeErrors:
		out := make(govalid.NewTypeErrors, len(x))
		for i, e := range x {
			out[i] = m.apply(e)
		}
		return out
	case *govalid.ArrayErrors:
		out := govalid.NewArrayErrors().Merge(x)
		for i, e := range out.Errors {
			out.Errors[i] = m.apply(e)
		}
		return out
	case *govalid.ObjectErrors:
		out := govalid.NewObjectErrors().Merge(x)
		for i, e := range out.Errors {
			out.Errors[i] = m.apply(e)
		}
		return out
	}
	return errs
}

func (m *messageOverride) String() string {
	if m == nil {
		return ""
	}
	var parts []string
	if m.hasText {
		parts = append(parts, "message="+strconv.Quote(m.text))
	}
	if m.fnName != "" {
		parts = append(parts, "message_fn("+m.fnName+")")
	}
	if m.id != "" {
		parts = append(parts, "message_l10n("+strconv.Quote(m.id)+")")
	}
	return strings.Join(parts, ", ")
}

var kindParams = map[constraint.Kind]reflect.Type{
	constraint.Minimum:          reflect.TypeOf(govalid.MinimumParams{}),
	constraint.Maximum:          reflect.TypeOf(govalid.MaximumParams{}),
	constraint.ExclusiveMinimum: reflect.TypeOf(govalid.ExclusiveMinimumParams{}),
	constraint.ExclusiveMaximum: reflect.TypeOf(govalid.ExclusiveMaximumParams{}),
	constraint.MultipleOf:       reflect.TypeOf(govalid.MultipleOfParams{}),
	constraint.MinLength:        reflect.TypeOf(govalid.MinLengthParams{}),
	constraint.MaxLength:        reflect.TypeOf(govalid.MaxLengthParams{}),
	constraint.Pattern:          reflect.TypeOf(govalid.PatternParams{}),
	constraint.MinItems:         reflect.TypeOf(govalid.MinItemsParams{}),
	constraint.MaxItems:         reflect.TypeOf(govalid.MaxItemsParams{}),
	constraint.UniqueItems:      reflect.TypeOf(govalid.UniqueItemsParams{}),
	constraint.MinProperties:    reflect.TypeOf(govalid.MinPropertiesParams{}),
	constraint.MaxProperties:    reflect.TypeOf(govalid.MaxPropertiesParams{}),
	constraint.Enumerate:        reflect.TypeOf(govalid.EnumerateParams{}),
}

// modifiers resolves the message modifiers that followed a constraint.
func (c *compiler) modifiers(rep reporter, kind constraint.Kind, nested []annotation.Annotation) *messageOverride {
	if len(nested) == 0 {
		return nil
	}
	m := &messageOverride{}
	replaced := false
	localized := false
	for _, n := range nested {
		mk, err := constraint.LookupModifier(n.Name, n.Form)
		if err != nil {
			c.lookupFailure(rep, n, err)
			continue
		}
		switch mk {
		case constraint.Message, constraint.MessageFn:
			if replaced {
				rep.report(CodeDuplicateArgument, n.Span, "the message is overridden more than once")
				continue
			}
			replaced = true
			if mk == constraint.Message {
				v, _ := n.Value()
				if v.Kind != annotation.String {
					rep.report(CodeInvalidArgument, v.Span, "message must be a quoted string, got %s", v.Kind)
					continue
				}
				m.text, m.hasText = v.Text, true
				continue
			}
			c.messageFn(rep, kind, n, m)
		case constraint.MessageL10n:
			if localized {
				rep.report(CodeDuplicateArgument, n.Span, "message_l10n is given more than once")
				continue
			}
			localized = true
			c.messageL10n(rep, n, m)
		}
	}
	if !m.hasText && m.format == nil && m.id == "" {
		return nil
	}
	return m
}

func (c *compiler) messageFn(rep reporter, kind constraint.Kind, n annotation.Annotation, m *messageOverride) {
	if len(n.Args) != 1 {
		rep.report(CodeInvalidArity, n.Span, "message_fn takes exactly one function, got %d arguments", len(n.Args))
		return
	}
	arg := n.Args[0]
	if arg.Name != "" || arg.Value.Kind != annotation.Ident {
		rep.report(CodeNotAFunction, arg.Span, "message_fn expects a function name, got %s", arg.Value.Kind)
		return
	}
	params, ok := kindParams[kind]
	if !ok {
		rep.report(CodeInvalidArgument, n.Span, "message_fn is not available for %s, which has no parameters", kind)
		return
	}
	fn, ok := c.lookupFunc(rep, arg.Value.Text, arg.Span)
	if !ok {
		return
	}
	f, problem := inspectFormat(fn, params)
	if problem != "" {
		rep.report(CodeBadSignature, arg.Span, "message_fn %s %s", arg.Value.Text, problem)
		return
	}
	m.format = f
	m.fnName = arg.Value.Text
}

func (c *compiler) messageL10n(rep reporter, n annotation.Annotation, m *messageOverride) {
	if len(n.Args) == 0 {
		rep.report(CodeInvalidArity, n.Span, "message_l10n takes a message identifier")
		return
	}
	id := n.Args[0]
	if id.Name != "" || id.Value.Kind != annotation.String {
		rep.report(CodeInvalidArgument, id.Span, "the message identifier must be a quoted string")
		return
	}
	args := map[string]any{}
	for _, a := range n.Args[1:] {
		if a.Name == "" {
			rep.report(CodeInvalidArgument, a.Span, "message arguments must be named (name=value)")
			continue
		}
		if _, dup := args[a.Name]; dup {
			rep.report(CodeDuplicateArgument, a.Span, "message argument %q is given more than once", a.Name)
			continue
		}
		args[a.Name] = literal(a.Value)
	}
	m.id = id.Value.Text
	if len(args) > 0 {
		m.args = args
	}
}

// literal converts a tag value to a Go value for message arguments.
func literal(v annotation.Value) any {
	if v.Kind == annotation.Number {
		if i, err := strconv.ParseInt(v.Text, 0, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(v.Text, 64); err == nil {
			return f
		}
	}
	if v.Kind == annotation.Call {
		return v.String()
	}
	return v.Text
}
