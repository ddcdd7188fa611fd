package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/govalid"
	"github.com/reoring/govalid/compile"
	"github.com/reoring/govalid/middleware"
)

type createUser struct {
	Name  string   `json:"name" valid:"min_length=1"`
	Roles []string `json:"roles" valid:"max_items=2"`
}

func handler(t *testing.T) http.Handler {
	t.Helper()
	var v govalid.Validator[createUser] = compile.MustCompile[createUser](compile.WithRegistry(compile.NewRegistry()))
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := middleware.ValueFromContext[createUser](r.Context())
		require.True(t, ok)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(u.Name))
	})
	return middleware.Validate(nil, v)(next)
}

func serve(h http.Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body)))
	return rec
}

func TestValidate(t *testing.T) {
	h := handler(t)

	rec := serve(h, `{"name":"ann","roles":["a"]}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "ann", rec.Body.String())

	rec = serve(h, `{"name":"","roles":["a","b","c"]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var payload struct {
		Errors map[string]any   `json:"errors"`
		Issues []map[string]any `json:"issues"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Issues, 2)
	assert.Equal(t, "/name", payload.Issues[0]["path"])
	assert.Equal(t, "max_items", payload.Issues[1]["code"])
	assert.Contains(t, payload.Errors, "properties")

	rec = serve(h, `{"name":"a","name":"b"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "duplicate")

	rec = serve(h, `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValueFromContextMissing(t *testing.T) {
	_, ok := middleware.ValueFromContext[createUser](httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.False(t, ok)
}
