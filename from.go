package govalid

import (
	"context"
	"fmt"
	"io"

	"github.com/go-viper/mapstructure/v2"
)

// Format decodes one serialization format into a Go value. Implementations
// for JSON, YAML and TOML live in the format package.
type Format interface {
	Name() string
	Unmarshal(data []byte, v any) error
}

// DeserializeError reports that input could not be decoded into the target
// type. It is distinct from validation Errors.
type DeserializeError struct {
	Format string
	Err    error
}

func (e *DeserializeError) Error() string {
	return fmt.Sprintf("%s: deserialize: %v", e.Format, e.Err)
}

func (e *DeserializeError) Unwrap() error { return e.Err }

// FromSlice decodes data with f and validates the result. Decoding failures
// are returned as *DeserializeError and skip validation.
func FromSlice[T any](ctx context.Context, f Format, data []byte, val Validator[T]) (T, error) {
	var out T
	if err := f.Unmarshal(data, &out); err != nil {
		var zero T
		return zero, &DeserializeError{Format: f.Name(), Err: err}
	}
	return validated(ctx, out, val)
}

// FromStr is FromSlice for string input.
func FromStr[T any](ctx context.Context, f Format, s string, val Validator[T]) (T, error) {
	return FromSlice(ctx, f, []byte(s), val)
}

// FromReader reads r to the end and behaves like FromSlice.
func FromReader[T any](ctx context.Context, f Format, r io.Reader, val Validator[T]) (T, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		var zero T
		return zero, &DeserializeError{Format: f.Name(), Err: err}
	}
	return FromSlice(ctx, f, data, val)
}

// FromValue converts an already decoded generic value (maps, slices and
// scalars, typically from another decoder) into T and validates it. Struct
// fields are matched by their json tag.
func FromValue[T any](ctx context.Context, v any, val Validator[T]) (T, error) {
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     &out,
		TagName:    "json",
		Squash:     true,
		DecodeHook: mapstructure.TextUnmarshallerHookFunc(),
	})
	if err != nil {
		var zero T
		return zero, &DeserializeError{Format: "value", Err: err}
	}
	if err := dec.Decode(v); err != nil {
		var zero T
		return zero, &DeserializeError{Format: "value", Err: err}
	}
	return validated(ctx, out, val)
}

func validated[T any](ctx context.Context, v T, val Validator[T]) (T, error) {
	if val == nil {
		return v, nil
	}
	if err := val.Validate(ctx, v); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}
