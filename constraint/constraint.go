// Package constraint is the registry of annotation names understood by the
// compiler. It is a closed table: every name has exactly one syntactic form
// and one category, and lookups that miss report similar names.
package constraint

import (
	"fmt"
	"sort"
	"strings"
)

// Form is the syntactic shape of an annotation.
type Form int

const (
	// Bare is a marker without arguments: unique_items.
	Bare Form = iota + 1
	// Valued carries one value: minimum=5, pattern='^a'.
	Valued
	// Listed carries a parenthesized argument list: enumerate(1, 2).
	Listed
)

func (f Form) String() string {
	switch f {
	case Bare:
		return "bare"
	case Valued:
		return "valued"
	case Listed:
		return "listed"
	}
	return fmt.Sprintf("Form(%d)", int(f))
}

// Example returns a short usage skeleton for the form.
func (f Form) Example(name string) string {
	switch f {
	case Bare:
		return name
	case Valued:
		return name + "=..."
	case Listed:
		return name + "(...)"
	}
	return name
}

// Category decides how a kind interacts with optional and sequence wrappers.
type Category int

const (
	// Scalar kinds apply to the innermost element of a field.
	Scalar Category = iota + 1
	// Items kinds apply to the outermost sequence of a field.
	Items
	// Properties kinds apply to maps.
	Properties
	// Function kinds call user code with the whole field or value.
	Function
	// Modifier kinds alter the message of the constraint they follow.
	Modifier
)

func (c Category) String() string {
	switch c {
	case Scalar:
		return "scalar"
	case Items:
		return "items"
	case Properties:
		return "properties"
	case Function:
		return "function"
	case Modifier:
		return "modifier"
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// Kind is one recognized annotation.
type Kind int

const (
	Minimum Kind = iota + 1
	Maximum
	ExclusiveMinimum
	ExclusiveMaximum
	MultipleOf
	MinLength
	MaxLength
	Pattern
	MinItems
	MaxItems
	UniqueItems
	MinProperties
	MaxProperties
	Enumerate
	Custom
	Rule

	Message
	MessageFn
	MessageL10n
)

type entry struct {
	name       string
	form       Form
	category   Category
	deprecated string
}

var table = map[Kind]entry{
	Minimum:          {name: "minimum", form: Valued, category: Scalar},
	Maximum:          {name: "maximum", form: Valued, category: Scalar},
	ExclusiveMinimum: {name: "exclusive_minimum", form: Valued, category: Scalar},
	ExclusiveMaximum: {name: "exclusive_maximum", form: Valued, category: Scalar},
	MultipleOf:       {name: "multiple_of", form: Valued, category: Scalar},
	MinLength:        {name: "min_length", form: Valued, category: Scalar},
	MaxLength:        {name: "max_length", form: Valued, category: Scalar},
	Pattern:          {name: "pattern", form: Valued, category: Scalar},
	MinItems:         {name: "min_items", form: Valued, category: Items},
	MaxItems:         {name: "max_items", form: Valued, category: Items},
	UniqueItems:      {name: "unique_items", form: Bare, category: Items},
	MinProperties:    {name: "min_properties", form: Valued, category: Properties},
	MaxProperties:    {name: "max_properties", form: Valued, category: Properties},
	Enumerate:        {name: "enumerate", form: Listed, category: Scalar},
	Custom:           {name: "custom", form: Listed, category: Function},
	Rule: {name: "rule", form: Listed, category: Function,
		deprecated: "use custom on the struct (a blank `_ struct{}` field) or compile.WithRule"},

	Message:     {name: "message", form: Valued, category: Modifier},
	MessageFn:   {name: "message_fn", form: Listed, category: Modifier},
	MessageL10n: {name: "message_l10n", form: Listed, category: Modifier},
}

var byName = func() map[string]Kind {
	m := make(map[string]Kind, len(table))
	for k, e := range table {
		m[e.name] = k
	}
	return m
}()

func (k Kind) String() string {
	if e, ok := table[k]; ok {
		return e.name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Form reports the only form the kind accepts.
func (k Kind) Form() Form { return table[k].form }

// Category reports how the kind treats optional and sequence wrappers.
func (k Kind) Category() Category { return table[k].category }

// Deprecated returns a replacement hint, or "" when the kind is current.
func (k Kind) Deprecated() string { return table[k].deprecated }

// IsModifier reports whether the kind alters a message instead of checking
// a value.
func (k Kind) IsModifier() bool { return table[k].category == Modifier }

// All returns every kind in declaration order.
func All() []Kind {
	out := make([]Kind, 0, len(table))
	for k := Minimum; k <= MessageL10n; k++ {
		out = append(out, k)
	}
	return out
}

// Names returns the sorted names of constraints (modifiers excluded) with the
// given form. A zero form matches every form.
func Names(form Form) []string {
	return names(form, false)
}

// ModifierNames is Names for message modifiers.
func ModifierNames(form Form) []string {
	return names(form, true)
}

func names(form Form, modifiers bool) []string {
	var out []string
	for _, e := range table {
		if (e.category == Modifier) != modifiers {
			continue
		}
		if form != 0 && e.form != form {
			continue
		}
		out = append(out, e.name)
	}
	sort.Strings(out)
	return out
}

// UnknownError reports a name that is not a constraint in any form.
type UnknownError struct {
	Name       string
	Form       Form
	Candidates []string
}

func (e *UnknownError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "unknown %s constraint %q", e.Form, e.Name)
	if len(e.Candidates) > 0 {
		b.WriteString("; did you mean ")
		for i, c := range e.Candidates {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%q", c)
		}
		b.WriteString("?")
	}
	return b.String()
}

// WrongFormError reports a known name used with the wrong form.
type WrongFormError struct {
	Name string
	Want Form
	Got  Form
}

func (e *WrongFormError) Error() string {
	return fmt.Sprintf("constraint %q requires the %s form (%s), got %s",
		e.Name, e.Want, e.Want.Example(e.Name), e.Got)
}

// SimilarityThreshold is the minimum Jaro-Winkler score for a suggestion.
const SimilarityThreshold = 0.8

// Lookup resolves a constraint name written in form.
func Lookup(name string, form Form) (Kind, error) {
	return lookup(name, form, false)
}

// LookupModifier resolves a message modifier name written in form.
func LookupModifier(name string, form Form) (Kind, error) {
	return lookup(name, form, true)
}

func lookup(name string, form Form, modifier bool) (Kind, error) {
	k, ok := byName[name]
	if ok && k.IsModifier() == modifier {
		if k.Form() != form {
			return 0, &WrongFormError{Name: name, Want: k.Form(), Got: form}
		}
		return k, nil
	}
	return 0, &UnknownError{
		Name:       name,
		Form:       form,
		Candidates: Similar(name, names(form, modifier), SimilarityThreshold),
	}
}
