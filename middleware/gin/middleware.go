package ginmw

import (
	"github.com/gin-gonic/gin"

	"github.com/reoring/govalid"
	"github.com/reoring/govalid/middleware"
)

// ValidateJSON decodes the request body with f (middleware.DefaultFormat when
// nil) and validates it with v. The value is stored in the request context on
// success; failures abort with middleware.ErrorPayload.
func ValidateJSON[T any](f govalid.Format, v govalid.Validator[T]) gin.HandlerFunc {
	return func(c *gin.Context) {
		val, status, err := middleware.Decode(c.Request, f, v)
		if err != nil {
			c.AbortWithStatusJSON(status, middleware.ErrorPayload(err))
			return
		}
		c.Request = c.Request.WithContext(middleware.ContextWithValue(c.Request.Context(), val))
		c.Next()
	}
}

// GetValue fetches the validated T from gin.Context.
func GetValue[T any](c *gin.Context) (T, bool) {
	return middleware.ValueFromContext[T](c.Request.Context())
}
