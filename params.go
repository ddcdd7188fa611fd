package govalid

import (
	"fmt"
	"strings"
)

// Params is implemented by the typed parameter struct of every constraint
// kind. Args exposes the same values by name for message templates,
// localization bundles and flattened issues.
type Params interface {
	Code() string
	Args() map[string]any
	DefaultMessage() string
}

// MinimumParams describes a failed inclusive lower bound.
type MinimumParams struct {
	Value   any
	Minimum any
}

func (MinimumParams) Code() string { return CodeMinimum }
func (p MinimumParams) Args() map[string]any {
	return map[string]any{"value": p.Value, "minimum": p.Minimum}
}
func (p MinimumParams) DefaultMessage() string {
	return fmt.Sprintf("the number must be >= %v", p.Minimum)
}

// MaximumParams describes a failed inclusive upper bound.
type MaximumParams struct {
	Value   any
	Maximum any
}

func (MaximumParams) Code() string { return CodeMaximum }
func (p MaximumParams) Args() map[string]any {
	return map[string]any{"value": p.Value, "maximum": p.Maximum}
}
func (p MaximumParams) DefaultMessage() string {
	return fmt.Sprintf("the number must be <= %v", p.Maximum)
}

// ExclusiveMinimumParams describes a failed strict lower bound.
type ExclusiveMinimumParams struct {
	Value            any
	ExclusiveMinimum any
}

func (ExclusiveMinimumParams) Code() string { return CodeExclusiveMinimum }
func (p ExclusiveMinimumParams) Args() map[string]any {
	return map[string]any{"value": p.Value, "exclusive_minimum": p.ExclusiveMinimum}
}
func (p ExclusiveMinimumParams) DefaultMessage() string {
	return fmt.Sprintf("the number must be > %v", p.ExclusiveMinimum)
}

// ExclusiveMaximumParams describes a failed strict upper bound.
type ExclusiveMaximumParams struct {
	Value            any
	ExclusiveMaximum any
}

func (ExclusiveMaximumParams) Code() string { return CodeExclusiveMaximum }
func (p ExclusiveMaximumParams) Args() map[string]any {
	return map[string]any{"value": p.Value, "exclusive_maximum": p.ExclusiveMaximum}
}
func (p ExclusiveMaximumParams) DefaultMessage() string {
	return fmt.Sprintf("the number must be < %v", p.ExclusiveMaximum)
}

// MultipleOfParams describes a value that is not an exact multiple.
type MultipleOfParams struct {
	Value      any
	MultipleOf any
}

func (MultipleOfParams) Code() string { return CodeMultipleOf }
func (p MultipleOfParams) Args() map[string]any {
	return map[string]any{"value": p.Value, "multiple_of": p.MultipleOf}
}
func (p MultipleOfParams) DefaultMessage() string {
	return fmt.Sprintf("the value must be a multiple of %v", p.MultipleOf)
}

// MinLengthParams describes a value shorter than allowed.
type MinLengthParams struct {
	Length    int
	MinLength int
}

func (MinLengthParams) Code() string { return CodeMinLength }
func (p MinLengthParams) Args() map[string]any {
	return map[string]any{"length": p.Length, "min_length": p.MinLength}
}
func (p MinLengthParams) DefaultMessage() string {
	return fmt.Sprintf("the length of the value must be >= %d", p.MinLength)
}

// MaxLengthParams describes a value longer than allowed.
type MaxLengthParams struct {
	Length    int
	MaxLength int
}

func (MaxLengthParams) Code() string { return CodeMaxLength }
func (p MaxLengthParams) Args() map[string]any {
	return map[string]any{"length": p.Length, "max_length": p.MaxLength}
}
func (p MaxLengthParams) DefaultMessage() string {
	return fmt.Sprintf("the length of the value must be <= %d", p.MaxLength)
}

// PatternParams describes a value that does not match a regular expression.
type PatternParams struct {
	Value   string
	Pattern string
}

func (PatternParams) Code() string { return CodePattern }
func (p PatternParams) Args() map[string]any {
	return map[string]any{"value": p.Value, "pattern": p.Pattern}
}
func (p PatternParams) DefaultMessage() string {
	return fmt.Sprintf("the value must match the pattern of %q", p.Pattern)
}

// MinItemsParams describes a sequence with too few elements.
type MinItemsParams struct {
	Length   int
	MinItems int
}

func (MinItemsParams) Code() string { return CodeMinItems }
func (p MinItemsParams) Args() map[string]any {
	return map[string]any{"length": p.Length, "min_items": p.MinItems}
}
func (p MinItemsParams) DefaultMessage() string {
	return fmt.Sprintf("the length of the items must be >= %d", p.MinItems)
}

// MaxItemsParams describes a sequence with too many elements.
type MaxItemsParams struct {
	Length   int
	MaxItems int
}

func (MaxItemsParams) Code() string { return CodeMaxItems }
func (p MaxItemsParams) Args() map[string]any {
	return map[string]any{"length": p.Length, "max_items": p.MaxItems}
}
func (p MaxItemsParams) DefaultMessage() string {
	return fmt.Sprintf("the length of the items must be <= %d", p.MaxItems)
}

// UniqueItemsParams describes a sequence holding equal elements. First and
// Duplicate are the positions of the first colliding pair.
type UniqueItemsParams struct {
	First     int
	Duplicate int
}

func (UniqueItemsParams) Code() string { return CodeUniqueItems }
func (p UniqueItemsParams) Args() map[string]any {
	return map[string]any{"first": p.First, "duplicate": p.Duplicate}
}
func (UniqueItemsParams) DefaultMessage() string { return "the items must be unique" }

// MinPropertiesParams describes a map with too few entries.
type MinPropertiesParams struct {
	Size          int
	MinProperties int
}

func (MinPropertiesParams) Code() string { return CodeMinProperties }
func (p MinPropertiesParams) Args() map[string]any {
	return map[string]any{"size": p.Size, "min_properties": p.MinProperties}
}
func (p MinPropertiesParams) DefaultMessage() string {
	return fmt.Sprintf("the size of the properties must be >= %d", p.MinProperties)
}

// MaxPropertiesParams describes a map with too many entries.
type MaxPropertiesParams struct {
	Size          int
	MaxProperties int
}

func (MaxPropertiesParams) Code() string { return CodeMaxProperties }
func (p MaxPropertiesParams) Args() map[string]any {
	return map[string]any{"size": p.Size, "max_properties": p.MaxProperties}
}
func (p MaxPropertiesParams) DefaultMessage() string {
	return fmt.Sprintf("the size of the properties must be <= %d", p.MaxProperties)
}

// EnumerateParams describes a value outside an explicit candidate list.
type EnumerateParams struct {
	Value     any
	Enumerate []any
}

func (EnumerateParams) Code() string { return CodeEnumerate }
func (p EnumerateParams) Args() map[string]any {
	return map[string]any{"value": p.Value, "enumerate": formatCandidates(p.Enumerate)}
}
func (p EnumerateParams) DefaultMessage() string {
	return fmt.Sprintf("the value must be in [%s]", formatCandidates(p.Enumerate))
}

func formatCandidates(vs []any) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		if s, ok := v.(string); ok {
			parts[i] = fmt.Sprintf("%q", s)
			continue
		}
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}
