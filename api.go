package govalid

import (
	"context"
)

// Validator checks an already-constructed value of type T. It returns nil
// when the value is valid, an Errors tree when constraints fail, and any
// other error for failures outside validation (for example a cancelled
// context).
type Validator[T any] interface {
	Validate(ctx context.Context, v T) error
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc[T any] func(ctx context.Context, v T) error

func (f ValidatorFunc[T]) Validate(ctx context.Context, v T) error { return f(ctx, v) }

// Tuple marks a struct whose fields are positional. Embed it as the first
// field; errors for such structs are keyed by field index instead of name.
//
//	type Point struct {
//		govalid.Tuple
//		X int `valid:"minimum=0"`
//		Y int `valid:"minimum=0"`
//	}
type Tuple struct{}

// Numeric is implemented by user types that take part in numeric checks
// (minimum, maximum, exclusive bounds and multiple_of).
type Numeric interface {
	Float64() (float64, error)
}

// Measurable is implemented by user types that take part in length checks.
// The reported length is used as is.
type Measurable interface {
	Length() int
}

// Sized is implemented by user types that take part in property count
// checks.
type Sized interface {
	Size() int
}

// Enumerable is implemented by user types that take part in items checks.
// Items returns the elements in order.
type Enumerable interface {
	Items() []any
}
