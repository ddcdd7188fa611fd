package compile_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/govalid"
	"github.com/reoring/govalid/compile"
	"github.com/reoring/govalid/i18n"
)

func isolated(opts ...compile.Option) []compile.Option {
	return append([]compile.Option{compile.WithRegistry(compile.NewRegistry())}, opts...)
}

func tree(t *testing.T, err error) govalid.Errors {
	t.Helper()
	require.Error(t, err)
	e, ok := govalid.AsErrors(err)
	require.True(t, ok, "want a validation error tree, got %T", err)
	return e
}

func paths(e govalid.Errors) []string {
	var out []string
	for _, it := range govalid.Flatten(e) {
		out = append(out, it.Path)
	}
	return out
}

func codes(e govalid.Errors) []string {
	var out []string
	for _, it := range govalid.Flatten(e) {
		out = append(out, it.Code)
	}
	return out
}

type ranged struct {
	Val int32 `json:"val" valid:"minimum=5; maximum=10"`
}

func TestNamedFieldBounds(t *testing.T) {
	v := compile.MustCompile[ranged](isolated()...)
	ctx := context.Background()

	e := tree(t, v.Validate(ctx, ranged{Val: 4}))
	assert.JSONEq(t, `{"errors":[],"properties":{"val":{"errors":["the number must be >= 5"]}}}`, e.Error())

	assert.NoError(t, v.Validate(ctx, ranged{Val: 5}))
	assert.NoError(t, v.Validate(ctx, ranged{Val: 10}))

	e = tree(t, v.Validate(ctx, ranged{Val: 11}))
	assert.Equal(t, []string{"maximum"}, codes(e))
}

type capped struct {
	Vals []int `json:"vals" valid:"max_items=2"`
}

func TestItemsErrorsStayOnTheArray(t *testing.T) {
	v := compile.MustCompile[capped](isolated()...)
	e := tree(t, v.Validate(context.Background(), capped{Vals: []int{1, 2, 3}}))
	assert.JSONEq(t, `{"errors":[],"properties":{"vals":{"errors":["the length of the items must be <= 2"],"items":{}}}}`, e.Error())

	obj := e.(*govalid.ObjectErrors)
	vals, ok := obj.Property("vals")
	require.True(t, ok)
	arr := vals.(*govalid.ArrayErrors)
	assert.Empty(t, arr.Indices())
	require.Len(t, arr.Errors, 1)
	assert.Equal(t, govalid.MaxItemsParams{Length: 3, MaxItems: 2}, arr.Errors[0].Params)
}

type figure interface{ isFigure() }

type scalar struct {
	govalid.Tuple
	N int `valid:"maximum=0"`
}

func (scalar) isFigure() {}

type rect struct {
	W int `json:"w" valid:"minimum=1"`
	H int `json:"h" valid:"minimum=1"`
}

func (rect) isFigure() {}

func TestEnumVariants(t *testing.T) {
	r := compile.NewRegistry()
	require.NoError(t, compile.RegisterEnum[figure](r,
		compile.Variant[scalar]("scalar"),
		compile.Variant[rect]("rect"),
	))
	v, err := compile.Compile[figure](compile.WithRegistry(r))
	require.NoError(t, err)
	ctx := context.Background()

	e := tree(t, v.Validate(ctx, scalar{N: 5}))
	assert.Equal(t, govalid.ShapeNewType, e.Shape())
	assert.JSONEq(t, `{"errors":["the number must be <= 0"]}`, e.Error())

	e = tree(t, v.Validate(ctx, rect{W: 0, H: 2}))
	assert.Equal(t, []string{"/w"}, paths(e))

	assert.NoError(t, v.Validate(ctx, scalar{N: 0}))
	assert.NoError(t, v.Validate(ctx, nil))
}

func TestEnumRegistrationErrors(t *testing.T) {
	r := compile.NewRegistry()
	assert.Error(t, compile.RegisterEnum[rect](r, compile.Variant[rect]("rect")))
	assert.Error(t, compile.RegisterEnum[figure](r))
	assert.Error(t, compile.RegisterEnum[figure](r, compile.Variant[capped]("capped")))
	assert.Error(t, compile.RegisterEnum[figure](r, compile.Variant[rect]("a"), compile.Variant[rect]("b")))
	require.NoError(t, compile.RegisterEnum[figure](r, compile.Variant[rect]("rect")))
	assert.Error(t, compile.RegisterEnum[figure](r, compile.Variant[rect]("rect")))
}

type pair struct {
	_ struct{} `valid:"rule(sameLen(A, B))"`
	A []int    `json:"a"`
	B []int    `json:"b"`
}

func sameLen(a, b []int) error {
	if len(a) != len(b) {
		return fmt.Errorf("a has %d items but b has %d", len(a), len(b))
	}
	return nil
}

func TestRuleOnUnconstrainedFields(t *testing.T) {
	var logs bytes.Buffer
	v, err := compile.Compile[pair](isolated(
		compile.WithFuncs(map[string]any{"sameLen": sameLen}),
		compile.WithLogger(zerolog.New(&logs)),
	)...)
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "deprecated")
	assert.Contains(t, v.Plan(), "bound: A, B")

	e := tree(t, v.Validate(context.Background(), pair{A: []int{1}, B: nil}))
	assert.JSONEq(t, `{"errors":["a has 1 items but b has 0"],"properties":{}}`, e.Error())
	assert.NoError(t, v.Validate(context.Background(), pair{A: []int{1}, B: []int{2}}))
}

type signup struct {
	Password string `json:"password" valid:"min_length=8"`
	Confirm  string `json:"confirm"`
}

func TestProgrammaticRuleAndCustom(t *testing.T) {
	var order []string
	v, err := compile.Compile[signup](isolated(
		compile.WithCustom(func(_ context.Context, s signup) error {
			order = append(order, "custom")
			return nil
		}),
		compile.WithRule[signup]([]string{"password", "Confirm"}, func(a, b string) error {
			order = append(order, "rule")
			if a != b {
				return errors.New("passwords do not match")
			}
			return nil
		}),
	)...)
	require.NoError(t, err)

	e := tree(t, v.Validate(context.Background(), signup{Password: "short", Confirm: "other"}))
	assert.Equal(t, []string{"custom", "rule"}, order)
	assert.Equal(t, []string{"/", "/password"}, paths(e))
	assert.Equal(t, []string{"custom", "min_length"}, codes(e))
}

type window struct {
	_     struct{} `valid:"custom(checkWindow)"`
	Start int      `json:"start" valid:"minimum=0"`
	End   int      `json:"end"`
}

func checkWindow(w *window) error {
	if w.End < w.Start {
		return govalid.Customf("end %d is before start %d", w.End, w.Start)
	}
	return nil
}

func TestStructCustomRunsAfterFields(t *testing.T) {
	v, err := compile.Compile[window](isolated(compile.WithFuncs(map[string]any{"checkWindow": checkWindow}))...)
	require.NoError(t, err)
	e := tree(t, v.Validate(context.Background(), window{Start: -1, End: -5}))
	assert.JSONEq(t, `{"errors":["end -5 is before start -1"],"properties":{"start":{"errors":["the number must be >= 0"]}}}`, e.Error())
}

type point struct {
	govalid.Tuple
	X int `valid:"minimum=0"`
	Y int `valid:"minimum=0"`
}

func TestPositionalStruct(t *testing.T) {
	v := compile.MustCompile[point](isolated()...)
	e := tree(t, v.Validate(context.Background(), point{X: 1, Y: -1}))
	assert.JSONEq(t, `{"errors":[],"items":{"1":{"errors":["the number must be >= 0"]}}}`, e.Error())
}

type sparse struct {
	Vals []*int `json:"vals" valid:"maximum=3"`
}

func TestSequenceOfOptionalKeepsIndices(t *testing.T) {
	n := func(i int) *int { return &i }
	v := compile.MustCompile[sparse](isolated()...)
	e := tree(t, v.Validate(context.Background(), sparse{Vals: []*int{n(1), nil, n(5), n(2), n(9)}}))
	vals, _ := e.(*govalid.ObjectErrors).Property("vals")
	assert.Equal(t, []int{2, 4}, vals.(*govalid.ArrayErrors).Indices())
	assert.Equal(t, []string{"/vals/2", "/vals/4"}, paths(e))
}

type strict struct {
	Ratio float64 `json:"ratio" valid:"exclusive_minimum=0; exclusive_maximum=1"`
	Step  int     `json:"step" valid:"multiple_of=5"`
	Half  float64 `json:"half" valid:"multiple_of=0.5"`
	Count uint8   `json:"count" valid:"maximum=200"`
}

func TestNumericChecks(t *testing.T) {
	v := compile.MustCompile[strict](isolated()...)
	ctx := context.Background()

	assert.NoError(t, v.Validate(ctx, strict{Ratio: 0.5, Step: 10, Half: 1.5, Count: 200}))

	e := tree(t, v.Validate(ctx, strict{Ratio: 0, Step: 11, Half: 1.25, Count: 201}))
	assert.Equal(t, []string{"exclusive_minimum", "multiple_of", "multiple_of", "maximum"}, codes(e))

	e = tree(t, v.Validate(ctx, strict{Ratio: 1, Step: 0, Half: 0}))
	assert.Equal(t, []string{"exclusive_maximum"}, codes(e))
}

type edges struct {
	Low   float64 `json:"low" valid:"exclusive_minimum=0"`
	High  float64 `json:"high" valid:"exclusive_maximum=1"`
	Floor int     `json:"floor" valid:"exclusive_minimum=5"`
}

func TestExclusiveBoundsAdmitTheNextStep(t *testing.T) {
	v := compile.MustCompile[edges](isolated()...)
	ctx := context.Background()

	assert.NoError(t, v.Validate(ctx, edges{Low: math.Nextafter(0, 1), High: math.Nextafter(1, 0), Floor: 6}))

	e := tree(t, v.Validate(ctx, edges{Low: 0, High: 1, Floor: 5}))
	assert.Equal(t, []string{"/low", "/high", "/floor"}, paths(e))
	assert.Equal(t, []string{"exclusive_minimum", "exclusive_maximum", "exclusive_minimum"}, codes(e))
}

type texts struct {
	Name  string   `json:"name" valid:"max_length=3"`
	Raw   []byte   `json:"raw" valid:"min_length=2"`
	Code  string   `json:"code" valid:"pattern='^[A-Z]{2}[0-9]+$'"`
	Color string   `json:"color" valid:"enumerate('red', 'green')"`
	Level int      `json:"level" valid:"enumerate(1, 2, 3)"`
	Tags  []string `json:"tags" valid:"unique_items; max_length=4"`
}

func TestTextAndMembershipChecks(t *testing.T) {
	v := compile.MustCompile[texts](isolated()...)
	ctx := context.Background()

	ok := texts{Name: "éåö", Raw: []byte("ab"), Code: "AB12", Color: "red", Level: 2, Tags: []string{"a", "b"}}
	assert.NoError(t, v.Validate(ctx, ok))

	bad := texts{Name: "abcd", Raw: []byte("a"), Code: "ab", Color: "blue", Level: 7, Tags: []string{"go", "toolong", "go"}}
	e := tree(t, v.Validate(ctx, bad))
	assert.Equal(t,
		[]string{"/name", "/raw", "/code", "/color", "/level", "/tags", "/tags/1"},
		paths(e))
	assert.Equal(t,
		[]string{"max_length", "min_length", "pattern", "enumerate", "enumerate", "unique_items", "max_length"},
		codes(e))

	issues := govalid.Flatten(e)
	assert.Equal(t, 4, issues[0].Params["length"])
	assert.Equal(t, 0, issues[5].Params["first"])
	assert.Equal(t, 2, issues[5].Params["duplicate"])
}

type sizes struct {
	Labels map[string]string `json:"labels" valid:"min_properties=1; max_properties=2"`
}

func TestPropertyCount(t *testing.T) {
	v := compile.MustCompile[sizes](isolated()...)
	ctx := context.Background()
	assert.NoError(t, v.Validate(ctx, sizes{Labels: map[string]string{"a": "1"}}))
	e := tree(t, v.Validate(ctx, sizes{}))
	assert.Equal(t, []string{"min_properties"}, codes(e))
	e = tree(t, v.Validate(ctx, sizes{Labels: map[string]string{"a": "", "b": "", "c": ""}}))
	assert.Equal(t, []string{"max_properties"}, codes(e))
}

type messages struct {
	Literal string `json:"literal" valid:"min_length=3, message='too short'"`
	Fn      string `json:"fn" valid:"min_length=3, message_fn(needChars)"`
	L10n    string `json:"l10n" valid:"min_length=3, message_l10n('name_short', field='l10n')"`
}

func TestMessageOverrides(t *testing.T) {
	funcs := map[string]any{
		"needChars": func(p govalid.MinLengthParams) string { return fmt.Sprintf("need %d chars", p.MinLength) },
	}
	v, err := compile.Compile[messages](isolated(compile.WithFuncs(funcs))...)
	require.NoError(t, err)

	e := tree(t, v.Validate(context.Background(), messages{}))
	issues := govalid.Flatten(e)
	require.Len(t, issues, 3)
	assert.Equal(t, "too short", issues[0].Message)
	assert.Equal(t, "need 3 chars", issues[1].Message)
	assert.Equal(t, "the length of the value must be >= 3", issues[2].Message)
	assert.Equal(t, "l10n", issues[2].Params["field"])

	local := govalid.Localize(e, i18n.Dict{"name_short": "{field} needs {min_length} characters"})
	issues = govalid.Flatten(local)
	assert.Equal(t, "too short", issues[0].Message)
	assert.Equal(t, "l10n needs 3 characters", issues[2].Message)

	// A bundle knowing the constraint code must not replace caller messages.
	ja := govalid.Flatten(govalid.Localize(e, i18n.Japanese()))
	assert.Equal(t, "too short", ja[0].Message)
	assert.Equal(t, "need 3 chars", ja[1].Message)
	assert.Equal(t, "the length of the value must be >= 3", ja[2].Message)

	plain := govalid.Flatten(govalid.Localize(e, i18n.Dict{"min_length": "at least {min_length}"}))
	assert.Equal(t, []string{"too short", "need 3 chars", "the length of the value must be >= 3"},
		[]string{plain[0].Message, plain[1].Message, plain[2].Message})
}

type bounded struct {
	Val int `json:"val" valid:"minimum=5, message='too small'"`
}

func TestLiteralOverrideSurvivesLocalize(t *testing.T) {
	v, err := compile.Compile[bounded](isolated()...)
	require.NoError(t, err)
	e := tree(t, v.Validate(context.Background(), bounded{Val: 1}))

	want := `{"errors":[],"properties":{"val":{"errors":["too small"]}}}`
	assert.Equal(t, want, e.Error())
	assert.Equal(t, want, govalid.Localize(e, i18n.Japanese()).Error())
}

func TestNilValidatorAcceptsEverything(t *testing.T) {
	var nilV *compile.Validator[ranged]
	var iface govalid.Validator[ranged] = nilV
	ctx := context.Background()

	assert.Nil(t, nilV.Check(ctx, ranged{Val: 99}))
	assert.NoError(t, iface.Validate(ctx, ranged{Val: 99}))

	got, err := govalid.FromValue(ctx, map[string]any{"val": 99}, iface)
	require.NoError(t, err)
	assert.Equal(t, ranged{Val: 99}, got)
}

type custom struct {
	Code string  `json:"code" valid:"custom(upper)"`
	Nick *string `json:"nick" valid:"custom(upper)"`
	Tier string  `json:"tier" valid:"custom(allowedTier)"`
}

type tierKey struct{}

func TestFieldCustom(t *testing.T) {
	funcs := map[string]any{
		"upper": func(s string) error {
			if strings.ToUpper(s) != s {
				return fmt.Errorf("%q is not upper case", s)
			}
			return nil
		},
		"allowedTier": func(ctx context.Context, s string) *govalid.Error {
			if allowed, _ := ctx.Value(tierKey{}).(string); allowed != s {
				return govalid.Customf("tier %q is not allowed", s)
			}
			return nil
		},
	}
	v, err := compile.Compile[custom](isolated(compile.WithFuncs(funcs))...)
	require.NoError(t, err)

	ctx := context.WithValue(context.Background(), tierKey{}, "gold")
	assert.NoError(t, v.Validate(ctx, custom{Code: "AB", Tier: "gold"}))

	nick := "bob"
	e := tree(t, v.Validate(ctx, custom{Code: "ab", Nick: &nick, Tier: "tin"}))
	assert.Equal(t, []string{"/code", "/nick", "/tier"}, paths(e))
	assert.Equal(t, []string{"custom", "custom", "custom"}, codes(e))
}

type address struct {
	Zip string `json:"zip" valid:"pattern='^[0-9]{3}-[0-9]{4}$'"`
}

type plainData struct {
	Note string `json:"note"`
}

type person struct {
	Name   string              `json:"name" valid:"min_length=1"`
	Home   address             `json:"home"`
	Others []address           `json:"others"`
	ByTag  map[string]*address `json:"by_tag"`
	Extra  plainData           `json:"extra"`
	Opaque address             `json:"opaque" valid:"-"`
}

func TestNestedStructs(t *testing.T) {
	v := compile.MustCompile[person](isolated()...)
	good := address{Zip: "123-4567"}
	bad := address{Zip: "x"}
	e := tree(t, v.Validate(context.Background(), person{
		Home:   bad,
		Others: []address{good, bad},
		ByTag:  map[string]*address{"b": &bad, "a": &good, "c": nil},
		Opaque: bad,
	}))
	assert.Equal(t, []string{"/name", "/home/zip", "/others/1/zip", "/by_tag/b/zip"}, paths(e))

	plan := v.Plan()
	assert.Contains(t, plan, "compile_test.address: object")
	assert.NotContains(t, plan, "plainData")
	assert.NotContains(t, plan, "opaque")
}

type node struct {
	Name     string `json:"name" valid:"max_length=3"`
	Children []node `json:"children"`
}

type chain struct {
	Next *chain `json:"next"`
}

func TestRecursiveTypes(t *testing.T) {
	v := compile.MustCompile[node](isolated()...)
	e := tree(t, v.Validate(context.Background(), node{
		Name: "root",
		Children: []node{
			{Name: "a", Children: []node{{Name: "b"}, {Name: "toolong"}}},
		},
	}))
	assert.Equal(t, []string{"/name", "/children/0/children/1/name"}, paths(e))

	empty := compile.MustCompile[chain](isolated()...)
	assert.NoError(t, empty.Validate(context.Background(), chain{Next: &chain{}}))
	assert.True(t, strings.HasSuffix(empty.Plan(), ": -\n"))
}

type tags []string

type post struct {
	Tags tags `json:"tags"`
}

func TestNewType(t *testing.T) {
	r := compile.NewRegistry()
	require.NoError(t, compile.RegisterNewType[tags](r, "max_items=2; max_length=3"))
	assert.Error(t, compile.RegisterNewType[tags](r, "max_items=1"))
	assert.Error(t, compile.RegisterNewType[address](r, ""))
	assert.Error(t, compile.RegisterNewType[[]int](r, ""))

	v, err := compile.Compile[post](compile.WithRegistry(r))
	require.NoError(t, err)
	e := tree(t, v.Validate(context.Background(), post{Tags: tags{"a", "long", "b"}}))
	assert.Equal(t, []string{"/tags", "/tags/1"}, paths(e))
	assert.Equal(t, []string{"max_items", "max_length"}, codes(e))

	prop, _ := e.(*govalid.ObjectErrors).Property("tags")
	assert.Equal(t, govalid.ShapeNewType, prop.Shape())
}

func TestRegistrationInvalidatesCache(t *testing.T) {
	r := compile.NewRegistry()
	v, err := compile.Compile[post](compile.WithRegistry(r))
	require.NoError(t, err)
	assert.NoError(t, v.Validate(context.Background(), post{Tags: tags{"a", "b", "c"}}))

	require.NoError(t, compile.RegisterNewType[tags](r, "max_items=2"))
	v, err = compile.Compile[post](compile.WithRegistry(r))
	require.NoError(t, err)
	assert.Error(t, v.Validate(context.Background(), post{Tags: tags{"a", "b", "c"}}))
}

func TestCompileIsCached(t *testing.T) {
	var logs bytes.Buffer
	r := compile.NewRegistry(compile.WithLogger(zerolog.New(&logs).Level(zerolog.DebugLevel)))
	for i := 0; i < 3; i++ {
		_, err := compile.Compile[ranged](compile.WithRegistry(r))
		require.NoError(t, err)
	}
	assert.Equal(t, 1, strings.Count(logs.String(), "compiled validator"))
}

func TestRegistryValidate(t *testing.T) {
	r := compile.NewRegistry()
	ctx := context.Background()
	assert.NoError(t, r.Validate(ctx, nil))
	assert.NoError(t, r.Validate(ctx, 42))
	assert.NoError(t, r.Validate(ctx, ranged{Val: 7}))

	e := tree(t, r.Validate(ctx, &ranged{Val: 1}))
	assert.Equal(t, []string{"/val"}, paths(e))

	e = tree(t, compile.Validate(ctx, []ranged{{Val: 7}, {Val: 70}}))
	assert.Equal(t, []string{"/1/val"}, paths(e))
}

type keyed struct {
	Name string `yaml:"display_name" json:"name" valid:"min_length=1"`
}

func TestKeyTag(t *testing.T) {
	v := compile.MustCompile[keyed](isolated(compile.WithKeyTag("yaml"))...)
	e := tree(t, v.Validate(context.Background(), keyed{}))
	assert.Equal(t, []string{"/display_name"}, paths(e))
}

type Base struct {
	ID int `json:"id" valid:"minimum=1"`
}

type withBase struct {
	Base
	Title string `json:"title" valid:"min_length=1"`
}

func TestPromotedFields(t *testing.T) {
	v := compile.MustCompile[withBase](isolated()...)
	e := tree(t, v.Validate(context.Background(), withBase{}))
	assert.Equal(t, []string{"/id", "/title"}, paths(e))
}

type rangedProp struct {
	X int64 `json:"x" valid:"minimum=-10; maximum=10"`
}

type stepProp struct {
	N int64 `json:"n" valid:"multiple_of=3"`
}

func TestRangeProperties(t *testing.T) {
	ranged := compile.MustCompile[rangedProp](isolated()...)
	steps := compile.MustCompile[stepProp](isolated()...)
	ctx := context.Background()

	properties := gopter.NewProperties(nil)
	properties.Property("inclusive bounds accept exactly [-10, 10]", prop.ForAll(
		func(x int64) bool {
			err := ranged.Validate(ctx, rangedProp{X: x})
			return (err == nil) == (x >= -10 && x <= 10)
		},
		gen.Int64Range(-1000, 1000),
	))
	properties.Property("multiple_of matches the remainder", prop.ForAll(
		func(n int64) bool {
			err := steps.Validate(ctx, stepProp{N: n})
			return (err == nil) == (n%3 == 0)
		},
		gen.Int64(),
	))
	properties.Property("failures report the offending value", prop.ForAll(
		func(x int64) bool {
			e, ok := govalid.AsErrors(ranged.Validate(ctx, rangedProp{X: x}))
			if !ok {
				return false
			}
			issues := govalid.Flatten(e)
			return len(issues) == 1 && issues[0].Params["value"] == x && issues[0].Path == "/x"
		},
		gen.Int64Range(11, 1<<40),
	))
	properties.TestingRun(t)
}
