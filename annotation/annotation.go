// Package annotation tokenizes `valid` struct tags.
//
// A tag is a list of items separated by ';'. Each item is a constraint
// optionally followed by message modifiers, separated by ',':
//
//	valid:"minimum=5, message='too small'; max_length=10; enumerate('a', 'b')"
//
// An annotation is bare (unique_items), valued (minimum=5) or listed
// (enumerate(1, 2)). Values are single-quoted strings, numbers, identifiers
// or nested calls (rule(check(A, B))). Listed arguments may be named
// (message_l10n('id', limit=5)). Inside quotes, \' is a literal quote and
// every other character is kept as written.
package annotation

import (
	"strings"

	"github.com/reoring/govalid/constraint"
)

// Span is a half-open byte range in the tag value.
type Span struct {
	Start int
	End   int
}

// ValueKind classifies a literal.
type ValueKind int

const (
	String ValueKind = iota + 1
	Number
	Ident
	Call
)

func (k ValueKind) String() string {
	switch k {
	case String:
		return "string"
	case Number:
		return "number"
	case Ident:
		return "identifier"
	case Call:
		return "call"
	}
	return "invalid"
}

// Value is one literal. Text holds the unquoted string, the number or
// identifier as written, or the callee name of a Call.
type Value struct {
	Kind ValueKind
	Text string
	Args []Arg // Call only
	Span Span
}

func (v Value) String() string {
	switch v.Kind {
	case String:
		return "'" + strings.ReplaceAll(v.Text, "'", `\'`) + "'"
	case Call:
		return v.Text + "(" + joinArgs(v.Args) + ")"
	}
	return v.Text
}

// Arg is one argument of a listed annotation or call. Name is set for
// name=value arguments.
type Arg struct {
	Name  string
	Value Value
	Span  Span
}

func (a Arg) String() string {
	if a.Name != "" {
		return a.Name + "=" + a.Value.String()
	}
	return a.Value.String()
}

// Annotation is one parsed item: the leading constraint with its arguments
// and any message modifiers that followed it.
type Annotation struct {
	Name string
	Form constraint.Form
	// Args holds the list of a listed annotation, or the single value of a
	// valued one.
	Args   []Arg
	Nested []Annotation
	Span   Span
	// NameSpan covers the name only.
	NameSpan Span
}

// Value returns the single value of a valued annotation.
func (a Annotation) Value() (Value, bool) {
	if a.Form != constraint.Valued || len(a.Args) != 1 {
		return Value{}, false
	}
	return a.Args[0].Value, true
}

func (a Annotation) String() string {
	var b strings.Builder
	b.WriteString(a.head())
	for _, n := range a.Nested {
		b.WriteString(", ")
		b.WriteString(n.head())
	}
	return b.String()
}

func (a Annotation) head() string {
	switch a.Form {
	case constraint.Valued:
		if v, ok := a.Value(); ok {
			return a.Name + "=" + v.String()
		}
	case constraint.Listed:
		return a.Name + "(" + joinArgs(a.Args) + ")"
	}
	return a.Name
}

func joinArgs(args []Arg) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}

// Format renders annotations back into tag syntax.
func Format(as []Annotation) string {
	parts := make([]string, len(as))
	for i, a := range as {
		parts[i] = a.String()
	}
	return strings.Join(parts, "; ")
}
