package compile

import (
	"reflect"
	"regexp"

	"github.com/reoring/govalid"
	"github.com/reoring/govalid/annotation"
	"github.com/reoring/govalid/constraint"
	"github.com/reoring/govalid/internal/shape"
	"github.com/reoring/govalid/internal/value"
)

// emit builds the node for one constraint on a field of type t. It returns
// nil after reporting when the constraint cannot apply.
func (c *compiler) emit(rep reporter, s constraintSpec, t reflect.Type) node {
	switch s.kind.Category() {
	case constraint.Scalar:
		return c.emitScalar(rep, s, t)
	case constraint.Items:
		return c.emitItems(rep, s, t)
	case constraint.Properties:
		return c.emitProperties(rep, s, t)
	case constraint.Function:
		if s.kind == constraint.Rule {
			rep.report(CodeInvalidArgument, s.ann.Span, "rule applies to a whole struct; put it on a blank `_ struct{}` field")
			return nil
		}
		return c.emitCustom(rep, s, t)
	}
	return nil
}

// scalarMode keeps byte and rune sequences whole for text constraints.
func scalarMode(k constraint.Kind) shape.Mode {
	switch k {
	case constraint.MinLength, constraint.MaxLength, constraint.Pattern, constraint.Enumerate:
		return shape.ModeLength
	}
	return shape.ModeElements
}

// unwrap lists the wrappers of a shape from the outside in, with the leaf
// type.
func unwrap(s *shape.Shape) ([]wrapper, reflect.Type) {
	var ws []wrapper
	for s.Kind != shape.Plain {
		if s.Kind == shape.Optional {
			ws = append(ws, wrapOptional)
		} else {
			ws = append(ws, wrapSequence)
		}
		s = s.Elem
	}
	return ws, s.Type
}

// stripOptional unwraps pointers only.
func stripOptional(t reflect.Type) ([]wrapper, reflect.Type) {
	var ws []wrapper
	for t.Kind() == reflect.Pointer {
		ws = append(ws, wrapOptional)
		t = t.Elem()
	}
	return ws, t
}

func (c *compiler) emitScalar(rep reporter, s constraintSpec, t reflect.Type) node {
	ws, leaf := unwrap(shape.Resolve(t, scalarMode(s.kind)))
	var check func(reflect.Value) *govalid.Error
	switch s.kind {
	case constraint.Minimum, constraint.Maximum, constraint.ExclusiveMinimum, constraint.ExclusiveMaximum, constraint.MultipleOf:
		check = c.numericCheck(rep, s, leaf)
	case constraint.MinLength, constraint.MaxLength:
		check = c.lengthCheck(rep, s, leaf)
	case constraint.Pattern:
		check = c.patternCheck(rep, s, leaf)
	case constraint.Enumerate:
		check = c.enumerateCheck(rep, s, leaf)
	}
	if check == nil {
		return nil
	}
	return wrap(ws, leafNode{name: s.kind.String(), check: check, msg: s.msg})
}

func (c *compiler) numericCheck(rep reporter, s constraintSpec, leaf reflect.Type) func(reflect.Value) *govalid.Error {
	k, ok := value.NumericKind(leaf)
	if !ok {
		rep.report(CodeUnsupportedType, s.ann.Span, "%s needs a number, but the value is %s", s.kind, leaf)
		return nil
	}
	lim, ok := c.numArg(rep, s, k)
	if !ok {
		return nil
	}
	read := func(v reflect.Value) (value.Num, *govalid.Error) {
		n, err := value.Read(v, k)
		if err != nil {
			return n, govalid.Custom(err.Error())
		}
		return n, nil
	}
	switch s.kind {
	case constraint.Minimum:
		return func(v reflect.Value) *govalid.Error {
			n, e := read(v)
			if e == nil && value.Compare(n, lim) < 0 {
				e = govalid.Fail(govalid.MinimumParams{Value: n.Any(), Minimum: lim.Any()})
			}
			return e
		}
	case constraint.Maximum:
		return func(v reflect.Value) *govalid.Error {
			n, e := read(v)
			if e == nil && value.Compare(n, lim) > 0 {
				e = govalid.Fail(govalid.MaximumParams{Value: n.Any(), Maximum: lim.Any()})
			}
			return e
		}
	case constraint.ExclusiveMinimum:
		return func(v reflect.Value) *govalid.Error {
			n, e := read(v)
			if e == nil && value.Compare(n, lim) <= 0 {
				e = govalid.Fail(govalid.ExclusiveMinimumParams{Value: n.Any(), ExclusiveMinimum: lim.Any()})
			}
			return e
		}
	case constraint.ExclusiveMaximum:
		return func(v reflect.Value) *govalid.Error {
			n, e := read(v)
			if e == nil && value.Compare(n, lim) >= 0 {
				e = govalid.Fail(govalid.ExclusiveMaximumParams{Value: n.Any(), ExclusiveMaximum: lim.Any()})
			}
			return e
		}
	default:
		if !value.IsPositive(lim) {
			rep.report(CodeInvalidArgument, s.ann.Span, "multiple_of must be greater than zero")
			return nil
		}
		return func(v reflect.Value) *govalid.Error {
			n, e := read(v)
			if e == nil && !value.MultipleOf(n, lim) {
				e = govalid.Fail(govalid.MultipleOfParams{Value: n.Any(), MultipleOf: lim.Any()})
			}
			return e
		}
	}
}

// numArg parses the value of a valued numeric annotation in domain k.
func (c *compiler) numArg(rep reporter, s constraintSpec, k value.NumKind) (value.Num, bool) {
	v, _ := s.ann.Value()
	if v.Kind != annotation.Number {
		rep.report(CodeInvalidArgument, v.Span, "%s expects a number, got %s", s.kind, v.Kind)
		return value.Num{}, false
	}
	n, err := value.ParseNum(v.Text, k)
	if err != nil {
		rep.report(CodeInvalidArgument, v.Span, "%s: %v", s.kind, err)
		return value.Num{}, false
	}
	return n, true
}

// countArg parses a non-negative count (lengths, items, properties).
func (c *compiler) countArg(rep reporter, s constraintSpec) (int, bool) {
	n, ok := c.numArg(rep, s, value.Uint)
	if !ok {
		return 0, false
	}
	if n.U > uint64(maxInt) {
		v, _ := s.ann.Value()
		rep.report(CodeInvalidArgument, v.Span, "%s is too large", s.kind)
		return 0, false
	}
	return int(n.U), true
}

const maxInt = int(^uint(0) >> 1)

func (c *compiler) lengthCheck(rep reporter, s constraintSpec, leaf reflect.Type) func(reflect.Value) *govalid.Error {
	if !value.HasLength(leaf) {
		rep.report(CodeUnsupportedType, s.ann.Span, "%s needs text, bytes or runes, but the value is %s", s.kind, leaf)
		return nil
	}
	lim, ok := c.countArg(rep, s)
	if !ok {
		return nil
	}
	if s.kind == constraint.MinLength {
		return func(v reflect.Value) *govalid.Error {
			if n := value.Length(v); n < lim {
				return govalid.Fail(govalid.MinLengthParams{Length: n, MinLength: lim})
			}
			return nil
		}
	}
	return func(v reflect.Value) *govalid.Error {
		if n := value.Length(v); n > lim {
			return govalid.Fail(govalid.MaxLengthParams{Length: n, MaxLength: lim})
		}
		return nil
	}
}

func (c *compiler) patternCheck(rep reporter, s constraintSpec, leaf reflect.Type) func(reflect.Value) *govalid.Error {
	if !value.HasText(leaf) {
		rep.report(CodeUnsupportedType, s.ann.Span, "pattern needs text, but the value is %s", leaf)
		return nil
	}
	v, _ := s.ann.Value()
	if v.Kind != annotation.String {
		rep.report(CodeInvalidArgument, v.Span, "pattern expects a quoted string, got %s", v.Kind)
		return nil
	}
	re, err := regexp.Compile(v.Text)
	if err != nil {
		rep.report(CodeInvalidPattern, v.Span, "%v", err)
		return nil
	}
	return func(v reflect.Value) *govalid.Error {
		text := value.Text(v)
		if !re.MatchString(text) {
			return govalid.Fail(govalid.PatternParams{Value: text, Pattern: re.String()})
		}
		return nil
	}
}

func (c *compiler) enumerateCheck(rep reporter, s constraintSpec, leaf reflect.Type) func(reflect.Value) *govalid.Error {
	if !value.HasMembership(leaf) {
		rep.report(CodeUnsupportedType, s.ann.Span, "enumerate needs a number, boolean or text, but the value is %s", leaf)
		return nil
	}
	if len(s.ann.Args) == 0 {
		rep.report(CodeInvalidArity, s.ann.Span, "enumerate needs at least one candidate")
		return nil
	}
	cands := make([]any, 0, len(s.ann.Args))
	ok := true
	for _, a := range s.ann.Args {
		if a.Name != "" || a.Value.Kind == annotation.Call {
			rep.report(CodeInvalidArgument, a.Span, "enumerate candidates must be literals")
			ok = false
			continue
		}
		cand, err := value.ParseCandidate(a.Value.Text, a.Value.Kind == annotation.String, leaf)
		if err != nil {
			rep.report(CodeInvalidArgument, a.Span, "enumerate: %v", err)
			ok = false
			continue
		}
		cands = append(cands, cand)
	}
	if !ok {
		return nil
	}
	return func(v reflect.Value) *govalid.Error {
		x, _ := value.Canonical(v)
		if !value.Contains(cands, x) {
			return govalid.Fail(govalid.EnumerateParams{Value: x, Enumerate: cands})
		}
		return nil
	}
}

func (c *compiler) emitItems(rep reporter, s constraintSpec, t reflect.Type) node {
	ws, seq := stripOptional(t)
	if !value.HasItems(seq) {
		rep.report(CodeUnsupportedType, s.ann.Span, "%s needs a slice or array, but the value is %s", s.kind, seq)
		return nil
	}
	var check func(reflect.Value) *govalid.Error
	switch s.kind {
	case constraint.MinItems:
		lim, ok := c.countArg(rep, s)
		if !ok {
			return nil
		}
		check = func(v reflect.Value) *govalid.Error {
			if n := value.Count(v); n < lim {
				return govalid.Fail(govalid.MinItemsParams{Length: n, MinItems: lim})
			}
			return nil
		}
	case constraint.MaxItems:
		lim, ok := c.countArg(rep, s)
		if !ok {
			return nil
		}
		check = func(v reflect.Value) *govalid.Error {
			if n := value.Count(v); n > lim {
				return govalid.Fail(govalid.MaxItemsParams{Length: n, MaxItems: lim})
			}
			return nil
		}
	case constraint.UniqueItems:
		check = func(v reflect.Value) *govalid.Error {
			if first, dup, found := value.FirstDuplicate(value.Items(v)); found {
				return govalid.Fail(govalid.UniqueItemsParams{First: first, Duplicate: dup})
			}
			return nil
		}
	}
	return wrap(ws, itemsNode{name: s.kind.String(), check: check, msg: s.msg})
}

func (c *compiler) emitProperties(rep reporter, s constraintSpec, t reflect.Type) node {
	ws, m := stripOptional(t)
	if !value.HasSize(m) {
		rep.report(CodeUnsupportedType, s.ann.Span, "%s needs a map, but the value is %s", s.kind, m)
		return nil
	}
	lim, ok := c.countArg(rep, s)
	if !ok {
		return nil
	}
	var check func(reflect.Value) *govalid.Error
	if s.kind == constraint.MinProperties {
		check = func(v reflect.Value) *govalid.Error {
			if n := value.Size(v); n < lim {
				return govalid.Fail(govalid.MinPropertiesParams{Size: n, MinProperties: lim})
			}
			return nil
		}
	} else {
		check = func(v reflect.Value) *govalid.Error {
			if n := value.Size(v); n > lim {
				return govalid.Fail(govalid.MaxPropertiesParams{Size: n, MaxProperties: lim})
			}
			return nil
		}
	}
	return wrap(ws, leafNode{name: s.kind.String(), check: check, msg: s.msg})
}

// emitCustom binds custom(fn) to a field. The function receives the field
// as declared, or the pointee of an optional field (skipped when nil).
func (c *compiler) emitCustom(rep reporter, s constraintSpec, t reflect.Type) node {
	cf := c.customFunc(rep, s, 1)
	if cf == nil {
		return nil
	}
	want := cf.params[0]
	var ws []wrapper
	ft := t
	for !ft.AssignableTo(want) {
		if ft.Kind() != reflect.Pointer {
			rep.report(CodeBadSignature, s.ann.Span, "%s takes %s, but the field is %s", cf.name, want, t)
			return nil
		}
		ws = append(ws, wrapOptional)
		ft = ft.Elem()
	}
	return wrap(ws, customNode{fn: cf, msg: s.msg})
}

// customFunc resolves the single function argument of custom(fn) and checks
// that it takes arity values.
func (c *compiler) customFunc(rep reporter, s constraintSpec, arity int) *checkFunc {
	if len(s.ann.Args) != 1 {
		rep.report(CodeInvalidArity, s.ann.Span, "custom takes exactly one function, got %d arguments", len(s.ann.Args))
		return nil
	}
	arg := s.ann.Args[0]
	if arg.Name != "" || arg.Value.Kind != annotation.Ident {
		rep.report(CodeNotAFunction, arg.Span, "custom expects a function name, got %s", arg.Value.Kind)
		return nil
	}
	fn, ok := c.lookupFunc(rep, arg.Value.Text, arg.Span)
	if !ok {
		return nil
	}
	cf, problem := inspectCheck(arg.Value.Text, fn)
	if problem != "" {
		rep.report(CodeBadSignature, arg.Span, "%s %s", arg.Value.Text, problem)
		return nil
	}
	if len(cf.params) != arity {
		rep.report(CodeBadSignature, arg.Span, "%s takes %d values, want %d", arg.Value.Text, len(cf.params), arity)
		return nil
	}
	return cf
}
