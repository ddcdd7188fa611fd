package govalid

import (
	"errors"
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Shape is the serialization hint of an error container.
type Shape int

const (
	ShapeNewType Shape = iota // {"errors": [...]}
	ShapeArray                // {"errors": [...], "items": {...}}
	ShapeObject               // {"errors": [...], "properties": {...}}
)

// Errors is the result of one validation call: a tree mirroring the shape of
// the validated value. It is implemented by *ArrayErrors, *ObjectErrors and
// NewTypeErrors only.
type Errors interface {
	error
	MarshalJSON() ([]byte, error)
	// Shape reports which of the three container forms this value is.
	Shape() Shape
	// IsEmpty reports whether the tree holds no leaf at all.
	IsEmpty() bool
	// Leaves returns the container-level error list.
	Leaves() []*Error
	isErrors()
}

// AsErrors extracts an error tree from err using errors.As internally.
func AsErrors(err error) (Errors, bool) {
	if err == nil {
		return nil, false
	}
	var tree Errors
	if errors.As(err, &tree) {
		return tree, true
	}
	return nil, false
}

// NewTypeErrors is the flat error list of a value without named or indexed
// slots (a scalar field, or a single-positional member).
type NewTypeErrors []*Error

func (NewTypeErrors) isErrors()                      {}
func (NewTypeErrors) Shape() Shape                   { return ShapeNewType }
func (n NewTypeErrors) IsEmpty() bool                { return len(n) == 0 }
func (n NewTypeErrors) Leaves() []*Error             { return n }
func (n NewTypeErrors) Error() string                { return renderString(n) }
func (n NewTypeErrors) MarshalJSON() ([]byte, error) { return marshalNewType(n) }

// ArrayErrors holds whole-sequence errors plus nested errors keyed by element
// index.
type ArrayErrors struct {
	Errors []*Error
	Items  *orderedmap.OrderedMap[int, Errors]
}

// NewArrayErrors returns an empty ArrayErrors.
func NewArrayErrors() *ArrayErrors {
	return &ArrayErrors{Items: orderedmap.New[int, Errors]()}
}

func (*ArrayErrors) isErrors()                      {}
func (*ArrayErrors) Shape() Shape                   { return ShapeArray }
func (a *ArrayErrors) Leaves() []*Error             { return a.Errors }
func (a *ArrayErrors) Error() string                { return renderString(a) }
func (a *ArrayErrors) MarshalJSON() ([]byte, error) { return marshalArray(a) }

// IsEmpty reports whether there is neither a whole-array error nor an item.
func (a *ArrayErrors) IsEmpty() bool {
	return len(a.Errors) == 0 && (a.Items == nil || a.Items.Len() == 0)
}

// Push appends whole-array errors.
func (a *ArrayErrors) Push(errs ...*Error) { a.Errors = append(a.Errors, errs...) }

// SetItem records nested errors for element i, merging with errors already
// recorded for the same index.
func (a *ArrayErrors) SetItem(i int, e Errors) {
	if e == nil {
		return
	}
	if a.Items == nil {
		a.Items = orderedmap.New[int, Errors]()
	}
	if prev, ok := a.Items.Get(i); ok {
		a.Items.Set(i, Merge(prev, e))
		return
	}
	a.Items.Set(i, e)
}

// Item returns the nested errors recorded for element i.
func (a *ArrayErrors) Item(i int) (Errors, bool) {
	if a.Items == nil {
		return nil, false
	}
	return a.Items.Get(i)
}

// Indices returns the recorded element indices in ascending order.
func (a *ArrayErrors) Indices() []int {
	if a.Items == nil {
		return nil
	}
	out := make([]int, 0, a.Items.Len())
	for p := a.Items.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Key)
	}
	sort.Ints(out)
	return out
}

// Merge returns a new ArrayErrors holding the errors of both operands.
// Whole-array lists are concatenated and overlapping indices are merged
// recursively.
func (a *ArrayErrors) Merge(b *ArrayErrors) *ArrayErrors {
	out := a.clone()
	if b == nil {
		return out
	}
	out.Errors = append(out.Errors, b.Errors...)
	if b.Items != nil {
		for p := b.Items.Oldest(); p != nil; p = p.Next() {
			out.SetItem(p.Key, p.Value)
		}
	}
	return out
}

func (a *ArrayErrors) clone() *ArrayErrors {
	out := NewArrayErrors()
	out.Errors = append([]*Error(nil), a.Errors...)
	if a.Items != nil {
		for p := a.Items.Oldest(); p != nil; p = p.Next() {
			out.Items.Set(p.Key, p.Value)
		}
	}
	return out
}

// ObjectErrors holds whole-object errors plus nested errors keyed by property
// name, in insertion order.
type ObjectErrors struct {
	Errors     []*Error
	Properties *orderedmap.OrderedMap[string, Errors]
}

// NewObjectErrors returns an empty ObjectErrors.
func NewObjectErrors() *ObjectErrors {
	return &ObjectErrors{Properties: orderedmap.New[string, Errors]()}
}

func (*ObjectErrors) isErrors()                      {}
func (*ObjectErrors) Shape() Shape                   { return ShapeObject }
func (o *ObjectErrors) Leaves() []*Error             { return o.Errors }
func (o *ObjectErrors) Error() string                { return renderString(o) }
func (o *ObjectErrors) MarshalJSON() ([]byte, error) { return marshalObject(o) }

// IsEmpty reports whether there is neither a whole-object error nor a property.
func (o *ObjectErrors) IsEmpty() bool {
	return len(o.Errors) == 0 && (o.Properties == nil || o.Properties.Len() == 0)
}

// Push appends whole-object errors.
func (o *ObjectErrors) Push(errs ...*Error) { o.Errors = append(o.Errors, errs...) }

// SetProperty records nested errors for a property, merging with errors
// already recorded under the same name.
func (o *ObjectErrors) SetProperty(name string, e Errors) {
	if e == nil {
		return
	}
	if o.Properties == nil {
		o.Properties = orderedmap.New[string, Errors]()
	}
	if prev, ok := o.Properties.Get(name); ok {
		o.Properties.Set(name, Merge(prev, e))
		return
	}
	o.Properties.Set(name, e)
}

// Property returns the nested errors recorded for name.
func (o *ObjectErrors) Property(name string) (Errors, bool) {
	if o.Properties == nil {
		return nil, false
	}
	return o.Properties.Get(name)
}

// Names returns the recorded property names in insertion order.
func (o *ObjectErrors) Names() []string {
	if o.Properties == nil {
		return nil
	}
	out := make([]string, 0, o.Properties.Len())
	for p := o.Properties.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Key)
	}
	return out
}

// Merge returns a new ObjectErrors holding the errors of both operands.
func (o *ObjectErrors) Merge(b *ObjectErrors) *ObjectErrors {
	out := o.clone()
	if b == nil {
		return out
	}
	out.Errors = append(out.Errors, b.Errors...)
	if b.Properties != nil {
		for p := b.Properties.Oldest(); p != nil; p = p.Next() {
			out.SetProperty(p.Key, p.Value)
		}
	}
	return out
}

func (o *ObjectErrors) clone() *ObjectErrors {
	out := NewObjectErrors()
	out.Errors = append([]*Error(nil), o.Errors...)
	if o.Properties != nil {
		for p := o.Properties.Oldest(); p != nil; p = p.Next() {
			out.Properties.Set(p.Key, p.Value)
		}
	}
	return out
}

// Merge unions two error trees for the same slot. Nil operands are ignored.
//
// Lists are concatenated (a first). A flat list merged with a container joins
// the container's own list. An array merged with an object keeps the array as
// an Items leaf of the object; neither side is overwritten.
func Merge(a, b Errors) Errors {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	switch x := a.(type) {
	case NewTypeErrors:
		switch y := b.(type) {
		case NewTypeErrors:
			return append(append(NewTypeErrors(nil), x...), y...)
		case *ArrayErrors:
			out := y.clone()
			out.Errors = append(append([]*Error(nil), x...), y.Errors...)
			return out
		case *ObjectErrors:
			out := y.clone()
			out.Errors = append(append([]*Error(nil), x...), y.Errors...)
			return out
		}
	case *ArrayErrors:
		switch y := b.(type) {
		case NewTypeErrors:
			out := x.clone()
			out.Errors = append(out.Errors, y...)
			return out
		case *ArrayErrors:
			return x.Merge(y)
		case *ObjectErrors:
			out := y.clone()
			out.Errors = append([]*Error{ItemsError(x)}, out.Errors...)
			return out
		}
	case *ObjectErrors:
		switch y := b.(type) {
		case NewTypeErrors:
			out := x.clone()
			out.Errors = append(out.Errors, y...)
			return out
		case *ArrayErrors:
			out := x.clone()
			out.Errors = append(out.Errors, ItemsError(y))
			return out
		case *ObjectErrors:
			return x.Merge(y)
		}
	}
	return a
}

// Collapse turns any tree into a flat list, which is how single-positional
// members keep the NewType shape. A container's own list is kept as is; its
// indexed or keyed children move into one Items or Properties leaf.
func Collapse(e Errors) NewTypeErrors {
	var out NewTypeErrors
	switch x := e.(type) {
	case nil:
		return nil
	case NewTypeErrors:
		out = x
	case *ArrayErrors:
		out = append(out, x.Errors...)
		if x.Items != nil && x.Items.Len() > 0 {
			out = append(out, ItemsError(&ArrayErrors{Items: x.Items}))
		}
	case *ObjectErrors:
		out = append(out, x.Errors...)
		if x.Properties != nil && x.Properties.Len() > 0 {
			out = append(out, PropertiesError(&ObjectErrors{Properties: x.Properties}))
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// At nests e under path, creating an object level for each property chunk
// and an array level for each index chunk. An empty path returns e.
func At(path Path, e Errors) Errors {
	if e == nil {
		return nil
	}
	for i := len(path) - 1; i >= 0; i-- {
		c := path[i]
		if c.IsIndex() {
			a := NewArrayErrors()
			a.SetItem(c.Index(), e)
			e = a
			continue
		}
		o := NewObjectErrors()
		o.SetProperty(c.Name(), e)
		e = o
	}
	return e
}
