// Package govalid provides declarative validation for Go values:
//
// - Constraints are written as struct tags and compiled once per type (package compile)
// - Failures form a tree mirroring the value (NewTypeErrors, ArrayErrors, ObjectErrors)
// - Trees merge, flatten into JSON Pointer addressed Issues and localize through i18n bundles
// - Entry points decode JSON, YAML or TOML (package format) and then validate
//
// Design policy:
// - Keep the error model and entry points in the root package; put the tag compiler under compile/.
// - Keep tag grammar parsing (annotation/) and the constraint catalogue (constraint/) free of reflection.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	type Signup struct {
//		Name     string `json:"name" valid:"min_length=1; max_length=32"`
//		Age      int    `json:"age" valid:"minimum=13, message='too young'"`
//		Password string `json:"password" valid:"custom(strong)"`
//	}
//
//	v, err := compile.Compile[Signup](compile.WithFuncs(map[string]any{"strong": strong}))
//	s, err := govalid.FromSlice(ctx, format.JSON(), data, v)
//	if e, ok := govalid.AsErrors(err); ok {
//		for _, it := range govalid.Flatten(e) {
//			log.Printf("%s: %s", it.Path, it.Message)
//		}
//	}
package govalid
