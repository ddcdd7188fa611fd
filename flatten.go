package govalid

import "github.com/reoring/govalid/i18n"

// Flatten walks the tree depth first and returns one Issue per leaf. Container
// lists come before children, indices ascend and properties keep insertion
// order. Items and Properties leaves contribute their subtree at the path of
// the list holding them.
func Flatten(e Errors) Issues {
	var out Issues
	flattenInto(&out, nil, e)
	return out
}

func flattenInto(out *Issues, path Path, e Errors) {
	if e == nil {
		return
	}
	flattenLeaves(out, path, e.Leaves())
	switch x := e.(type) {
	case *ArrayErrors:
		for _, i := range x.Indices() {
			child, _ := x.Item(i)
			flattenInto(out, path.Index(i), child)
		}
	case *ObjectErrors:
		if x.Properties == nil {
			return
		}
		for p := x.Properties.Oldest(); p != nil; p = p.Next() {
			flattenInto(out, path.Property(p.Key), p.Value)
		}
	}
}

func flattenLeaves(out *Issues, path Path, errs []*Error) {
	for _, le := range errs {
		if a, ok := le.Items(); ok {
			flattenInto(out, path, a)
			continue
		}
		if o, ok := le.Properties(); ok {
			flattenInto(out, path, o)
			continue
		}
		*out = append(*out, Issue{
			Path:    path.Pointer(),
			Chunks:  append(Path(nil), path...),
			Code:    le.Code,
			Message: le.Message(),
			Params:  le.Arguments(),
		})
	}
}

// Localize returns a tree of the same shape whose leaf messages come from the
// bundle, looked up by each leaf's ID with its arguments. When the identifier
// is missing or the lookup fails, the leaf keeps its default rendering.
// Messages supplied by the caller are kept unless the leaf was given an
// explicit identifier with WithID.
func Localize(e Errors, b i18n.Bundle) Errors {
	if e == nil || b == nil {
		return e
	}
	switch x := e.(type) {
	case NewTypeErrors:
		return NewTypeErrors(localizeLeaves(x, b))
	case *ArrayErrors:
		return localizeArray(x, b)
	case *ObjectErrors:
		return localizeObject(x, b)
	}
	return e
}

func localizeArray(a *ArrayErrors, b i18n.Bundle) *ArrayErrors {
	out := NewArrayErrors()
	out.Errors = localizeLeaves(a.Errors, b)
	for _, i := range a.Indices() {
		child, _ := a.Item(i)
		out.Items.Set(i, Localize(child, b))
	}
	return out
}

func localizeObject(o *ObjectErrors, b i18n.Bundle) *ObjectErrors {
	out := NewObjectErrors()
	out.Errors = localizeLeaves(o.Errors, b)
	if o.Properties != nil {
		for p := o.Properties.Oldest(); p != nil; p = p.Next() {
			out.Properties.Set(p.Key, Localize(p.Value, b))
		}
	}
	return out
}

func localizeLeaves(errs []*Error, b i18n.Bundle) []*Error {
	if errs == nil {
		return nil
	}
	out := make([]*Error, len(errs))
	for i, le := range errs {
		out[i] = localizeLeaf(le, b)
	}
	return out
}

func localizeLeaf(le *Error, b i18n.Bundle) *Error {
	if a, ok := le.Items(); ok {
		return ItemsError(localizeArray(a, b))
	}
	if o, ok := le.Properties(); ok {
		return PropertiesError(localizeObject(o, b))
	}
	if le.overridden && !le.localized {
		return le
	}
	msg, err := b.Lookup(le.ID, le.Arguments())
	if err != nil {
		return le
	}
	return le.WithMessage(msg)
}

// FlatMap groups leaf messages by JSON Pointer.
//
// Deprecated: FlatMap mirrors the older flat field-name keyed error model and
// loses the array/object distinction. Prefer Flatten or the tree itself.
func FlatMap(e Errors) map[string][]string {
	out := map[string][]string{}
	for _, it := range Flatten(e) {
		out[it.Path] = append(out[it.Path], it.Message)
	}
	return out
}
