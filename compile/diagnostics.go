package compile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/govalid/annotation"
)

// Diagnostic codes.
const (
	CodeMalformedAnnotation = "malformed_annotation"
	CodeUnknownConstraint   = "unknown_constraint"
	CodeWrongForm           = "wrong_form"
	CodeDuplicateArgument   = "duplicate_argument"
	CodeConflictingBounds   = "conflicting_bounds"
	CodeInvalidArity        = "invalid_arity"
	CodeInvalidArgument     = "invalid_argument"
	CodeNotAFunction        = "not_a_function"
	CodeUnknownFunction     = "unknown_function"
	CodeBadSignature        = "bad_signature"
	CodeUnsupportedType     = "unsupported_type"
	CodeUnknownField        = "unknown_field"
	CodeInvalidPattern      = "invalid_pattern"
)

// Diagnostic is one problem found while compiling a type's annotations.
type Diagnostic struct {
	// Type is the Go type holding the annotation.
	Type string
	// Field is the Go field name, or "" for struct-level annotations.
	Field string
	// Tag is the annotation tag value the span refers to.
	Tag  string
	Span annotation.Span
	Code string
	// Message describes the problem.
	Message string
	// Suggestions lists similar names for unknown constraints and fields.
	Suggestions []string
}

// Location renders "Type.Field" or "Type".
func (d Diagnostic) Location() string {
	if d.Field == "" {
		return d.Type
	}
	return d.Type + "." + d.Field
}

func (d Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s (%s)", d.Location(), d.Message, d.Code)
	if d.Tag != "" && d.Span.End > d.Span.Start && d.Span.End <= len(d.Tag) {
		fmt.Fprintf(&b, " at %q", d.Tag[d.Span.Start:d.Span.End])
	}
	return b.String()
}

// Diagnostics is every problem found in one compilation. Compilation never
// stops at the first problem.
type Diagnostics []Diagnostic

// Error summarizes the first few diagnostics.
func (ds Diagnostics) Error() string {
	if len(ds) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	b.WriteString("govalid: ")
	n := len(ds)
	lim := min(n, maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(ds[i].String())
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Codes lists the code of each diagnostic in order.
func (ds Diagnostics) Codes() []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Code
	}
	return out
}

// AsDiagnostics extracts Diagnostics from an error using errors.As.
func AsDiagnostics(err error) (Diagnostics, bool) {
	if err == nil {
		return nil, false
	}
	var ds Diagnostics
	if errors.As(err, &ds) {
		return ds, true
	}
	return nil, false
}

// reporter accumulates diagnostics for one annotation site.
type reporter struct {
	diags *Diagnostics
	typ   string
	field string
	tag   string
}

func (r reporter) report(code string, span annotation.Span, format string, args ...any) *Diagnostic {
	*r.diags = append(*r.diags, Diagnostic{
		Type:    r.typ,
		Field:   r.field,
		Tag:     r.tag,
		Span:    span,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	})
	return &(*r.diags)[len(*r.diags)-1]
}
