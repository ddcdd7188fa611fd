package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanDuplicateKeys(t *testing.T) {
	doc := []byte(`{"a":1,"b":{"x":[1,{"k":1,"k":2}]},"a":3}`)

	assert.NoError(t, Scan(doc, Options{}))

	err := Scan(doc, Options{OnDuplicate: DupError})
	v, ok := AsViolation(err)
	require.True(t, ok)
	assert.Equal(t, CodeDuplicateKey, v.Code)
	assert.Equal(t, "/b/x/1/k", v.Path)

	var warned []Violation
	require.NoError(t, Scan(doc, Options{OnDuplicate: DupWarn, Warn: func(v Violation) { warned = append(warned, v) }}))
	require.Len(t, warned, 2)
	assert.Equal(t, "/b/x/1/k", warned[0].Path)
	assert.Equal(t, "/a", warned[1].Path)
}

func TestScanSameKeyInSiblingObjects(t *testing.T) {
	assert.NoError(t, Scan([]byte(`[{"id":1},{"id":2}]`), Options{OnDuplicate: DupError}))
}

func TestScanDepth(t *testing.T) {
	doc := []byte(`{"a":[[1]]}`)
	assert.NoError(t, Scan(doc, Options{MaxDepth: 3}))

	v, ok := AsViolation(Scan(doc, Options{MaxDepth: 2}))
	require.True(t, ok)
	assert.Equal(t, CodeMaxDepth, v.Code)
	assert.Equal(t, "/a/0", v.Path)
}

func TestScanSize(t *testing.T) {
	v, ok := AsViolation(Scan([]byte(`{"a":"bcdef"}`), Options{MaxBytes: 4}))
	require.True(t, ok)
	assert.Equal(t, CodeTooLarge, v.Code)
	assert.Equal(t, "/: input is 13 bytes, the limit is 4", v.Error())
}

func TestScanSyntax(t *testing.T) {
	v, ok := AsViolation(Scan([]byte(`{"a":[1,}`), Options{MaxDepth: 5}))
	require.True(t, ok)
	assert.Equal(t, CodeSyntax, v.Code)
}

func TestEnabled(t *testing.T) {
	assert.False(t, Options{}.Enabled())
	assert.True(t, Options{MaxBytes: 1}.Enabled())
	assert.True(t, Options{OnDuplicate: DupWarn}.Enabled())
}
