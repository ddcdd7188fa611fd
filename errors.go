package govalid

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes. A leaf error's code is the name of the constraint that failed,
// which is also its default localization identifier.
const (
	CodeMinimum          = "minimum"
	CodeMaximum          = "maximum"
	CodeExclusiveMinimum = "exclusive_minimum"
	CodeExclusiveMaximum = "exclusive_maximum"
	CodeMultipleOf       = "multiple_of"
	CodeMinLength        = "min_length"
	CodeMaxLength        = "max_length"
	CodePattern          = "pattern"
	CodeMinItems         = "min_items"
	CodeMaxItems         = "max_items"
	CodeUniqueItems      = "unique_items"
	CodeMinProperties    = "min_properties"
	CodeMaxProperties    = "max_properties"
	CodeEnumerate        = "enumerate"
	CodeCustom           = "custom"
	// Recursive leaves produced when a container's errors collapse into a list.
	CodeItems      = "items"
	CodeProperties = "properties"
)

// Message pairs the typed parameters of a failed check with the function that
// renders them. Default and custom messages share this representation.
type Message[P Params] struct {
	Params P
	Format func(P) string
}

// Error is a single constraint violation (a leaf of the error tree).
//
// Constraint leaves carry typed Params. Custom leaves carry only text. Items
// and Properties leaves embed a nested container when a container's errors
// had to be stored in a flat list.
type Error struct {
	Code   string
	Params Params
	// ID is the localization identifier; it defaults to Code.
	ID string
	// Args are extra named arguments supplied with a localized message
	// override. They take precedence over Params.Args() when rendering.
	Args map[string]any

	text       string
	format     func(Params) string
	// overridden marks a message supplied by the caller rather than the
	// default formatter; localized marks an explicit localization id.
	overridden bool
	localized  bool
	items      *ArrayErrors
	properties *ObjectErrors
}

// NewError builds a leaf from a typed message.
func NewError[P Params](m Message[P]) *Error {
	e := &Error{Code: m.Params.Code(), Params: m.Params, ID: m.Params.Code()}
	if m.Format != nil {
		f := m.Format
		e.format = func(p Params) string { return f(p.(P)) }
		e.overridden = true
	}
	return e
}

// Fail builds a leaf rendered with the default message of its params.
func Fail(p Params) *Error {
	return &Error{Code: p.Code(), Params: p, ID: p.Code()}
}

// Custom builds a leaf carrying a user supplied message.
func Custom(msg string) *Error {
	return &Error{Code: CodeCustom, ID: CodeCustom, text: msg, overridden: true}
}

// Customf is Custom with fmt.Sprintf formatting.
func Customf(format string, a ...any) *Error { return Custom(fmt.Sprintf(format, a...)) }

// ItemsError wraps array errors as a leaf.
func ItemsError(a *ArrayErrors) *Error {
	return &Error{Code: CodeItems, ID: CodeItems, items: a}
}

// PropertiesError wraps object errors as a leaf.
func PropertiesError(o *ObjectErrors) *Error {
	return &Error{Code: CodeProperties, ID: CodeProperties, properties: o}
}

// Items returns the nested array errors of an Items leaf.
func (e *Error) Items() (*ArrayErrors, bool) { return e.items, e.items != nil }

// Properties returns the nested object errors of a Properties leaf.
func (e *Error) Properties() (*ObjectErrors, bool) { return e.properties, e.properties != nil }

// Message renders the leaf. A literal override wins over a formatter, and a
// formatter wins over the default message of the params.
func (e *Error) Message() string {
	switch {
	case e.text != "" || (e.Params == nil && e.format == nil && e.items == nil && e.properties == nil):
		return e.text
	case e.items != nil:
		return e.items.Error()
	case e.properties != nil:
		return e.properties.Error()
	case e.format != nil && e.Params != nil:
		return e.format(e.Params)
	default:
		return e.Params.DefaultMessage()
	}
}

func (e *Error) Error() string { return e.Message() }

// WithMessage returns a copy whose message is the given literal. The literal
// replaces the default formatter; it never augments it.
func (e *Error) WithMessage(text string) *Error {
	c := *e
	c.text = text
	c.format = nil
	c.overridden = true
	return &c
}

// WithFormat returns a copy rendered by fn instead of the default formatter.
func (e *Error) WithFormat(fn func(Params) string) *Error {
	c := *e
	c.text = ""
	c.format = fn
	c.overridden = true
	return &c
}

// WithID returns a copy with a localization identifier and extra arguments.
func (e *Error) WithID(id string, args map[string]any) *Error {
	c := *e
	c.ID = id
	c.Args = args
	c.localized = true
	return &c
}

// Overridden reports whether the message came from the caller (a literal,
// a formatter or a custom check) instead of the default formatter.
func (e *Error) Overridden() bool { return e.overridden }

// Arguments merges Params.Args() with the override arguments.
func (e *Error) Arguments() map[string]any {
	out := map[string]any{}
	if e.Params != nil {
		for k, v := range e.Params.Args() {
			out[k] = v
		}
	}
	for k, v := range e.Args {
		out[k] = v
	}
	return out
}

// Issue is one flattened validation entry.
type Issue struct {
	Path    string // JSON Pointer (for example: /items/2/price).
	Chunks  Path   // Structural form of Path.
	Code    string // One of the codes listed above.
	Message string
	// Params carries structured parameters (e.g., {"minimum":1, "value":0})
	// for i18n and observability.
	Params map[string]any
}

// Issues is a collection of flattened validation entries that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. minimum at /age
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AsIssues extracts Issues from an error using errors.As internally. A
// validation error tree is flattened on the fly.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	if tree, ok := AsErrors(err); ok {
		return Flatten(tree), true
	}
	return nil, false
}
