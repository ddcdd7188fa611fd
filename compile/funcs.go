package compile

import (
	"context"
	"reflect"
	"runtime"
	"strings"
	"sync"

	"github.com/reoring/govalid"
)

var (
	funcMu sync.RWMutex
	funcs  = map[string]any{}
)

// RegisterFunc makes fn available by name to custom, rule and message_fn
// annotations of every compilation. A nil fn removes the name.
func RegisterFunc(name string, fn any) {
	funcMu.Lock()
	defer funcMu.Unlock()
	if fn == nil {
		delete(funcs, name)
		return
	}
	funcs[name] = fn
}

func registeredFunc(name string) (any, bool) {
	funcMu.RLock()
	defer funcMu.RUnlock()
	fn, ok := funcs[name]
	return fn, ok
}

func registeredNames() []string {
	funcMu.RLock()
	defer funcMu.RUnlock()
	out := make([]string, 0, len(funcs))
	for k := range funcs {
		out = append(out, k)
	}
	return out
}

func funcName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return ""
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return ""
	}
	name := f.Name()
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

var (
	contextType   = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType     = reflect.TypeOf((*error)(nil)).Elem()
	errorsType    = reflect.TypeOf((*govalid.Errors)(nil)).Elem()
	leafType      = reflect.TypeOf((*govalid.Error)(nil))
	leafSliceType = reflect.TypeOf([]*govalid.Error(nil))
	errSliceType  = reflect.TypeOf([]error(nil))
)

// checkFunc is a user function whose arguments follow an optional leading
// context.Context.
type checkFunc struct {
	name    string
	fn      reflect.Value
	withCtx bool
	params  []reflect.Type
}

// inspectCheck validates the shape func([ctx,] a1, ..., an) R where R is a
// result accepted by normalize.
func inspectCheck(name string, fn any) (*checkFunc, string) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return nil, "is a " + v.Kind().String() + ", not a function"
	}
	t := v.Type()
	if t.IsVariadic() {
		return nil, "must not be variadic"
	}
	if t.NumOut() != 1 || !acceptedResult(t.Out(0)) {
		return nil, "must return exactly one of error, []error, *govalid.Error, []*govalid.Error or govalid.Errors"
	}
	cf := &checkFunc{name: name, fn: v}
	for i := 0; i < t.NumIn(); i++ {
		in := t.In(i)
		if i == 0 && in == contextType {
			cf.withCtx = true
			continue
		}
		cf.params = append(cf.params, in)
	}
	return cf, ""
}

func acceptedResult(t reflect.Type) bool {
	switch t {
	case errorType, errorsType, leafType, leafSliceType, errSliceType:
		return true
	}
	return t.Implements(errorType)
}

func (cf *checkFunc) call(ctx context.Context, args ...reflect.Value) govalid.Errors {
	in := args
	if cf.withCtx {
		in = append([]reflect.Value{reflect.ValueOf(&ctx).Elem()}, args...)
	}
	return normalize(cf.fn.Call(in)[0])
}

// normalize turns a check result into an error tree, or nil when the check
// passed. Errors that are not govalid leaves become Custom leaves.
func normalize(out reflect.Value) govalid.Errors {
	if (out.Kind() == reflect.Interface || out.Kind() == reflect.Pointer || out.Kind() == reflect.Slice) && out.IsNil() {
		return nil
	}
	var res govalid.Errors
	switch x := out.Interface().(type) {
	case *govalid.Error:
		res = govalid.NewTypeErrors{x}
	case []*govalid.Error:
		var list govalid.NewTypeErrors
		for _, e := range x {
			if e != nil {
				list = append(list, e)
			}
		}
		res = list
	case []error:
		for _, e := range x {
			res = govalid.Merge(res, fromError(e))
		}
	case error:
		res = fromError(x)
	}
	if res == nil || res.IsEmpty() {
		return nil
	}
	return res
}

func fromError(err error) govalid.Errors {
	if err == nil {
		return nil
	}
	if tree, ok := govalid.AsErrors(err); ok {
		if isNilErrors(tree) || tree.IsEmpty() {
			return nil
		}
		return tree
	}
	if le, ok := err.(*govalid.Error); ok {
		return govalid.NewTypeErrors{le}
	}
	return govalid.NewTypeErrors{govalid.Custom(err.Error())}
}

func isNilErrors(e govalid.Errors) bool {
	v := reflect.ValueOf(e)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// inspectFormat adapts message_fn functions: func(P) string where P is the
// params type of the constraint or an interface it implements.
func inspectFormat(fn any, params reflect.Type) (func(govalid.Params) string, string) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return nil, "is a " + v.Kind().String() + ", not a function"
	}
	t := v.Type()
	if t.NumIn() != 1 || t.NumOut() != 1 || t.Out(0).Kind() != reflect.String || t.IsVariadic() {
		return nil, "must have the form func(params) string"
	}
	if !params.AssignableTo(t.In(0)) {
		return nil, "takes " + t.In(0).String() + " but the constraint reports " + params.String()
	}
	if f, ok := fn.(func(govalid.Params) string); ok {
		return f, ""
	}
	return func(p govalid.Params) string {
		return v.Call([]reflect.Value{reflect.ValueOf(p)})[0].String()
	}, ""
}
