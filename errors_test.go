package govalid_test

import (
	"reflect"
	"testing"

	"github.com/reoring/govalid"
	"github.com/reoring/govalid/i18n"
)

func leaf(msg string) govalid.NewTypeErrors { return govalid.NewTypeErrors{govalid.Custom(msg)} }

func jsonOf(t *testing.T, e govalid.Errors) string {
	t.Helper()
	b, err := e.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

func TestErrorShapes(t *testing.T) {
	arr := govalid.NewArrayErrors()
	arr.Push(govalid.Fail(govalid.MinItemsParams{Length: 0, MinItems: 1}))
	arr.SetItem(3, leaf("bad"))
	arr.SetItem(1, leaf("worse"))

	obj := govalid.NewObjectErrors()
	obj.SetProperty("zeta", leaf("z"))
	obj.SetProperty("list", arr)
	obj.SetProperty("alpha", govalid.NewTypeErrors{})

	want := `{"errors":[],"properties":{"zeta":{"errors":["z"]},"list":{"errors":["the length of the items must be >= 1"],"items":{"1":{"errors":["worse"]},"3":{"errors":["bad"]}}},"alpha":{"errors":[]}}}`
	if got := jsonOf(t, obj); got != want {
		t.Fatalf("json:\n got %s\nwant %s", got, want)
	}
	if obj.Error() != want {
		t.Fatalf("Error() should render the JSON form, got %s", obj.Error())
	}
	if got := arr.Indices(); !reflect.DeepEqual(got, []int{1, 3}) {
		t.Fatalf("indices: %v", got)
	}
	if got := obj.Names(); !reflect.DeepEqual(got, []string{"zeta", "list", "alpha"}) {
		t.Fatalf("names keep insertion order: %v", got)
	}
	if !govalid.NewArrayErrors().IsEmpty() || !govalid.NewObjectErrors().IsEmpty() || obj.IsEmpty() {
		t.Fatalf("IsEmpty mismatch")
	}
}

func TestMergeUnions(t *testing.T) {
	a := govalid.At(govalid.Path{}.Property("name"), leaf("first"))
	b := govalid.At(govalid.Path{}.Property("name"), leaf("second"))
	c := govalid.At(govalid.Path{}.Property("age"), leaf("third"))

	got := jsonOf(t, govalid.Merge(govalid.Merge(a, b), c))
	want := `{"errors":[],"properties":{"name":{"errors":["first","second"]},"age":{"errors":["third"]}}}`
	if got != want {
		t.Fatalf("merge:\n got %s\nwant %s", got, want)
	}

	if govalid.Merge(nil, a) != a || govalid.Merge(a, nil) != a {
		t.Fatalf("nil operands must be ignored")
	}

	// The original trees are left untouched.
	if jsonOf(t, a) != `{"errors":[],"properties":{"name":{"errors":["first"]}}}` {
		t.Fatalf("merge mutated its operand: %s", jsonOf(t, a))
	}

	items := govalid.At(govalid.Path{}.Index(0), leaf("elem"))
	mixed := govalid.Merge(c, items)
	if mixed.Shape() != govalid.ShapeObject {
		t.Fatalf("object merged with array keeps the object, got %v", mixed.Shape())
	}
	want = `{"errors":[{"errors":[],"items":{"0":{"errors":["elem"]}}}],"properties":{"age":{"errors":["third"]}}}`
	if got := jsonOf(t, mixed); got != want {
		t.Fatalf("mixed merge:\n got %s\nwant %s", got, want)
	}

	flat := govalid.Merge(leaf("own"), items)
	if got := jsonOf(t, flat); got != `{"errors":["own"],"items":{"0":{"errors":["elem"]}}}` {
		t.Fatalf("flat merge: %s", got)
	}
}

func TestCollapse(t *testing.T) {
	obj := govalid.NewObjectErrors()
	obj.Push(govalid.Custom("whole"))
	obj.SetProperty("x", leaf("inner"))

	got := govalid.Collapse(obj)
	if len(got) != 2 {
		t.Fatalf("want the own leaf plus one properties leaf, got %d", len(got))
	}
	if got[1].Code != govalid.CodeProperties {
		t.Fatalf("code: %s", got[1].Code)
	}
	if _, ok := got[1].Properties(); !ok {
		t.Fatalf("properties leaf lost its container")
	}
	if s := jsonOf(t, got); s != `{"errors":["whole",{"errors":[],"properties":{"x":{"errors":["inner"]}}}]}` {
		t.Fatalf("collapsed json: %s", s)
	}
	if govalid.Collapse(govalid.NewArrayErrors()) != nil || govalid.Collapse(nil) != nil {
		t.Fatalf("empty trees collapse to nil")
	}
}

func TestAtBuildsLevels(t *testing.T) {
	p := govalid.Path{}.Property("a").Index(2).Property("b/c~d")
	got := jsonOf(t, govalid.At(p, leaf("x")))
	want := `{"errors":[],"properties":{"a":{"errors":[],"items":{"2":{"errors":[],"properties":{"b/c~d":{"errors":["x"]}}}}}}}`
	if got != want {
		t.Fatalf("at:\n got %s\nwant %s", got, want)
	}
	if p.Pointer() != "/a/2/b~1c~0d" {
		t.Fatalf("pointer: %s", p.Pointer())
	}
	if (govalid.Path{}).Pointer() != "/" {
		t.Fatalf("root pointer")
	}
	if govalid.At(p, nil) != nil {
		t.Fatalf("nil stays nil")
	}
}

func TestFlatten(t *testing.T) {
	list := govalid.NewArrayErrors()
	list.SetItem(0, govalid.At(govalid.Path{}.Property("name"), govalid.NewTypeErrors{
		govalid.Fail(govalid.MinLengthParams{Length: 0, MinLength: 1}),
	}))
	list.Push(govalid.Fail(govalid.MaxItemsParams{Length: 9, MaxItems: 3}))

	root := govalid.NewObjectErrors()
	root.Push(govalid.Custom("root"))
	root.SetProperty("users", list)

	iss := govalid.Flatten(root)
	var paths, codes []string
	for _, it := range iss {
		paths = append(paths, it.Path)
		codes = append(codes, it.Code)
	}
	if !reflect.DeepEqual(paths, []string{"/", "/users", "/users/0/name"}) {
		t.Fatalf("paths: %v", paths)
	}
	if !reflect.DeepEqual(codes, []string{"custom", "max_items", "min_length"}) {
		t.Fatalf("codes: %v", codes)
	}
	if iss[2].Params["min_length"] != 1 {
		t.Fatalf("params: %v", iss[2].Params)
	}
	if len(iss[2].Chunks) != 3 || !iss[2].Chunks[1].IsIndex() {
		t.Fatalf("chunks: %v", iss[2].Chunks)
	}

	// Collapsed containers flatten at the path of the list holding them.
	collapsed := govalid.Flatten(govalid.Collapse(list))
	if collapsed[1].Path != "/0/name" {
		t.Fatalf("collapsed path: %s", collapsed[1].Path)
	}

	fm := govalid.FlatMap(root)
	if !reflect.DeepEqual(fm["/users"], []string{"the length of the items must be <= 3"}) {
		t.Fatalf("flat map: %v", fm)
	}
}

func TestLocalize(t *testing.T) {
	tree := govalid.NewObjectErrors()
	tree.SetProperty("age", govalid.NewTypeErrors{
		govalid.Fail(govalid.MinimumParams{Value: 3, Minimum: 5}),
		govalid.Custom("kept"),
		govalid.Fail(govalid.MaximumParams{Value: 3, Maximum: 1}),
	})
	dict := i18n.Dict{
		"minimum": "at least {minimum} (got {value})",
		"maximum": "at most {missing}",
	}

	got := jsonOf(t, govalid.Localize(tree, dict))
	want := `{"errors":[],"properties":{"age":{"errors":["at least 5 (got 3)","kept","the number must be <= 1"]}}}`
	if got != want {
		t.Fatalf("localize:\n got %s\nwant %s", got, want)
	}

	// The source tree is not rewritten.
	if jsonOf(t, tree) == got {
		t.Fatalf("localize mutated the source tree")
	}

	// An empty bundle renders byte-for-byte like the default messages.
	if jsonOf(t, govalid.Localize(tree, i18n.Dict{})) != jsonOf(t, tree) {
		t.Fatalf("fallback differs from default rendering")
	}

	ja := govalid.Localize(govalid.NewTypeErrors{govalid.Fail(govalid.MinimumParams{Value: 1, Minimum: 5})}, i18n.Japanese())
	if ja.Leaves()[0].Message() != "5 以上の数値を指定してください" {
		t.Fatalf("japanese: %s", ja.Leaves()[0].Message())
	}
}

func TestMessageOverrides(t *testing.T) {
	base := govalid.Fail(govalid.MaxLengthParams{Length: 9, MaxLength: 4})
	if base.Message() != "the length of the value must be <= 4" {
		t.Fatalf("default: %s", base.Message())
	}
	lit := base.WithMessage("too long")
	if lit.Message() != "too long" || base.Message() == "too long" {
		t.Fatalf("literal override: %s", lit.Message())
	}
	fn := base.WithFormat(func(p govalid.Params) string {
		return "limit " + p.DefaultMessage()[len(p.DefaultMessage())-1:]
	})
	if fn.Message() != "limit 4" {
		t.Fatalf("format override: %s", fn.Message())
	}
	typed := govalid.NewError(govalid.Message[govalid.MaxLengthParams]{
		Params: govalid.MaxLengthParams{Length: 9, MaxLength: 4},
		Format: func(p govalid.MaxLengthParams) string { return "at most four" },
	})
	if typed.Message() != "at most four" || typed.Code != govalid.CodeMaxLength {
		t.Fatalf("typed message: %s", typed.Message())
	}
	id := base.WithID("name.too_long", map[string]any{"field": "name"})
	args := id.Arguments()
	if id.ID != "name.too_long" || args["field"] != "name" || args["max_length"] != 4 {
		t.Fatalf("arguments: %v", args)
	}
}

func TestRenderKeepsComparisonSigns(t *testing.T) {
	obj := govalid.NewObjectErrors()
	obj.SetProperty("a<b>&c", govalid.NewTypeErrors{govalid.Fail(govalid.MaximumParams{Value: 5, Maximum: 3})})
	want := `{"errors":[],"properties":{"a<b>&c":{"errors":["the number must be <= 3"]}}}`
	if got := obj.Error(); got != want {
		t.Fatalf("json:\n got %s\nwant %s", got, want)
	}
	leafOnly := govalid.NewTypeErrors{govalid.Fail(govalid.MinimumParams{Value: 1, Minimum: 2})}
	if got := leafOnly.Error(); got != `{"errors":["the number must be >= 2"]}` {
		t.Fatalf("leaf: %s", got)
	}
}

func TestAsHelpers(t *testing.T) {
	if _, ok := govalid.AsErrors(nil); ok {
		t.Fatalf("nil is not a tree")
	}
	tree := govalid.At(govalid.Path{}.Property("a"), leaf("x"))
	iss, ok := govalid.AsIssues(tree)
	if !ok || len(iss) != 1 || iss[0].Path != "/a" {
		t.Fatalf("as issues: %v", iss)
	}
	if iss.Error() != "custom at /a" {
		t.Fatalf("issues error: %s", iss.Error())
	}
}
