package echomw

import (
	"github.com/labstack/echo/v4"

	"github.com/reoring/govalid"
	"github.com/reoring/govalid/middleware"
)

// ValidateJSON decodes the request body with f (middleware.DefaultFormat when
// nil) and validates it with v. The value is stored in the request context on
// success; failures answer with middleware.ErrorPayload.
func ValidateJSON[T any](f govalid.Format, v govalid.Validator[T]) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			val, status, err := middleware.Decode(c.Request(), f, v)
			if err != nil {
				return c.JSON(status, middleware.ErrorPayload(err))
			}
			ctx := middleware.ContextWithValue(c.Request().Context(), val)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// GetValue fetches the validated T from echo.Context.
func GetValue[T any](c echo.Context) (T, bool) {
	return middleware.ValueFromContext[T](c.Request().Context())
}
