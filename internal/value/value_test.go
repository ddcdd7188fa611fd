package value

import (
	"errors"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type celsius float64

func (c celsius) Float64() (float64, error) { return float64(c), nil }

type broken struct{}

func (broken) Float64() (float64, error) { return 0, errors.New("no value") }

func TestNumericKind(t *testing.T) {
	cases := map[string]struct {
		v    any
		kind NumKind
		ok   bool
	}{
		"int8":    {int8(1), Int, true},
		"uint":    {uint(1), Uint, true},
		"float32": {float32(1), Float, true},
		"numeric": {celsius(1), Float, true},
		"string":  {"x", 0, false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			k, ok := NumericKind(reflect.TypeOf(tc.v))
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.kind, k)
		})
	}
}

func TestParseNum(t *testing.T) {
	n, err := ParseNum("-5", Int)
	require.NoError(t, err)
	assert.Equal(t, int64(-5), n.Any())

	_, err = ParseNum("-5", Uint)
	assert.Error(t, err)

	_, err = ParseNum("1.5", Int)
	assert.Error(t, err)

	n, err = ParseNum("0x10", Uint)
	require.NoError(t, err)
	assert.Equal(t, uint64(16), n.Any())

	_, err = ParseNum("NaN", Float)
	assert.Error(t, err)
}

func TestRead(t *testing.T) {
	n, err := Read(reflect.ValueOf(celsius(2.5)), Float)
	require.NoError(t, err)
	assert.Equal(t, 2.5, n.F)

	_, err = Read(reflect.ValueOf(broken{}), Float)
	assert.Error(t, err)
}

func TestMultipleOf(t *testing.T) {
	f := func(x float64) Num { return Num{Kind: Float, F: x} }
	i := func(x int64) Num { return Num{Kind: Int, I: x} }
	assert.True(t, MultipleOf(f(12.5), f(0.5)))
	assert.False(t, MultipleOf(f(12.5), f(0.3)))
	assert.True(t, MultipleOf(i(12), i(4)))
	assert.False(t, MultipleOf(i(13), i(4)))
	assert.True(t, MultipleOf(i(-8), i(4)))
	assert.False(t, MultipleOf(i(8), i(0)))
}

func TestCompare_Properties(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	properties := gopter.NewProperties(params)

	properties.Property("compare is antisymmetric on ints", prop.ForAll(
		func(a, b int64) bool {
			x, y := Num{Kind: Int, I: a}, Num{Kind: Int, I: b}
			return Compare(x, y) == -Compare(y, x)
		},
		gen.Int64(), gen.Int64(),
	))
	properties.Property("integer multiples are detected exactly", prop.ForAll(
		func(k int64, m int64) bool {
			return MultipleOf(Num{Kind: Int, I: k * m}, Num{Kind: Int, I: k})
		},
		gen.Int64Range(1, 1000), gen.Int64Range(-1000, 1000),
	))

	properties.TestingRun(t)
}

type words []string

func (w words) Length() int { return len(w) }

func TestLength(t *testing.T) {
	// e + combining acute, a + combining ring, o + combining diaeresis
	s := "e\u0301a\u030ao\u0308"
	assert.Equal(t, 6, len([]rune(s)))
	assert.Equal(t, 3, Length(reflect.ValueOf(s)))
	assert.Equal(t, 3, Length(reflect.ValueOf([]byte("abc"))))
	assert.Equal(t, 2, Length(reflect.ValueOf([]rune("ab"))))
	assert.Equal(t, 2, Length(reflect.ValueOf(words{"a", "b"})))
	assert.Equal(t, 1, Length(reflect.ValueOf("\U0001F468\u200D\U0001F469\u200D\U0001F467")))

	assert.True(t, HasLength(reflect.TypeOf("")))
	assert.True(t, HasLength(reflect.TypeOf(words{})))
	assert.False(t, HasLength(reflect.TypeOf(0)))
	assert.False(t, HasLength(reflect.TypeOf([]int{})))
}

func TestText(t *testing.T) {
	assert.Equal(t, "ab", Text(reflect.ValueOf([]byte("ab"))))
	assert.Equal(t, "ab", Text(reflect.ValueOf([2]byte{'a', 'b'})))
	assert.True(t, HasText(reflect.TypeOf([]byte{})))
	assert.False(t, HasText(reflect.TypeOf(1)))
}

func TestFirstDuplicate(t *testing.T) {
	first, dup, ok := FirstDuplicate(Items(reflect.ValueOf([]int{1, 2, 3, 2, 1})))
	require.True(t, ok)
	assert.Equal(t, 1, first)
	assert.Equal(t, 3, dup)

	_, _, ok = FirstDuplicate(Items(reflect.ValueOf([]string{"a", "b"})))
	assert.False(t, ok)

	type pt struct{ X, Y int }
	first, dup, ok = FirstDuplicate(Items(reflect.ValueOf([]pt{{1, 2}, {2, 1}, {1, 2}})))
	require.True(t, ok)
	assert.Equal(t, []int{0, 2}, []int{first, dup})

	_, _, ok = FirstDuplicate(Items(reflect.ValueOf([][]int{{1}, {1, 2}})))
	assert.False(t, ok)
}

func TestSize(t *testing.T) {
	assert.Equal(t, 2, Size(reflect.ValueOf(map[string]int{"a": 1, "b": 2})))
	assert.True(t, HasSize(reflect.TypeOf(map[int]bool{})))
	assert.False(t, HasSize(reflect.TypeOf([]int{})))
}

func TestMembership(t *testing.T) {
	c, err := ParseCandidate("3", false, reflect.TypeOf(int16(0)))
	require.NoError(t, err)
	assert.Equal(t, int64(3), c)

	_, err = ParseCandidate("3", true, reflect.TypeOf(0))
	assert.Error(t, err)

	s, err := ParseCandidate("red", true, reflect.TypeOf(""))
	require.NoError(t, err)

	v, ok := Canonical(reflect.ValueOf(int16(3)))
	require.True(t, ok)
	assert.True(t, Contains([]any{int64(1), c}, v))

	v, _ = Canonical(reflect.ValueOf("blue"))
	assert.False(t, Contains([]any{s}, v))

	_, err = ParseCandidate("x", false, reflect.TypeOf(struct{}{}))
	assert.Error(t, err)
	assert.False(t, HasMembership(reflect.TypeOf(struct{}{})))
}
