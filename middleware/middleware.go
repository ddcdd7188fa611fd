package middleware

import (
	"context"
	"errors"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/reoring/govalid"
	"github.com/reoring/govalid/format"
)

// ctxKeyValue is a typed context key for storing a validated T.
// Using a generic struct type ensures uniqueness per T.
type ctxKeyValue[T any] struct{}

// ContextWithValue attaches a validated T to the context.
func ContextWithValue[T any](ctx context.Context, v T) context.Context {
	return context.WithValue(ctx, ctxKeyValue[T]{}, v)
}

// ValueFromContext retrieves a validated T from context.
func ValueFromContext[T any](ctx context.Context) (T, bool) {
	v, ok := ctx.Value(ctxKeyValue[T]{}).(T)
	return v, ok
}

// DefaultFormat returns a recommended JSON format for HTTP boundaries.
// - Duplicate keys are errors
// - Bodies are capped at 1 MiB and 64 levels of nesting
func DefaultFormat() govalid.Format {
	return format.JSON(format.JSONOptions{
		OnDuplicateKey: format.Error,
		MaxDepth:       64,
		MaxBytes:       1 << 20,
	})
}

// Decode reads the request body with f, validates the result with v and
// returns the value. The status is 400 when the body does not decode and
// 422 when validation fails.
func Decode[T any](r *http.Request, f govalid.Format, v govalid.Validator[T]) (T, int, error) {
	if f == nil {
		f = DefaultFormat()
	}
	out, err := govalid.FromReader(r.Context(), f, r.Body, v)
	if err == nil {
		return out, http.StatusOK, nil
	}
	if _, ok := govalid.AsErrors(err); ok {
		return out, http.StatusUnprocessableEntity, err
	}
	var de *govalid.DeserializeError
	if errors.As(err, &de) {
		return out, http.StatusBadRequest, err
	}
	return out, http.StatusInternalServerError, err
}

// ErrorPayload shapes a failure for JSON responses: validation failures
// carry the error tree and the flattened issues, anything else a message.
func ErrorPayload(err error) map[string]any {
	e, ok := govalid.AsErrors(err)
	if !ok {
		return map[string]any{"error": err.Error()}
	}
	issues := make([]map[string]any, 0)
	for _, it := range govalid.Flatten(e) {
		issues = append(issues, map[string]any{"path": it.Path, "code": it.Code, "message": it.Message})
	}
	return map[string]any{"errors": e, "issues": issues}
}

// WriteError writes ErrorPayload(err) with the given status.
func WriteError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorPayload(err))
}

// Validate returns net/http middleware that decodes and validates the body,
// stores the value in the request context on success, and otherwise answers
// with WriteError.
func Validate[T any](f govalid.Format, v govalid.Validator[T]) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			val, status, err := Decode(r, f, v)
			if err != nil {
				WriteError(w, status, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithValue(r.Context(), val)))
		})
	}
}
