package rules

import (
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/reoring/govalid"
	"github.com/reoring/govalid/internal/shape"
)

var layouts sync.Map // reflect.Type -> *shape.Layout

func layoutOf(t reflect.Type) *shape.Layout {
	if l, ok := layouts.Load(t); ok {
		return l.(*shape.Layout)
	}
	l, _ := layouts.LoadOrStore(t, shape.Fields(t, shape.KeyOptions{}))
	return l.(*shape.Layout)
}

func normalizePath(p string) string {
	if p == "" || p == "/" {
		return "/"
	}
	if p[0] != '/' {
		return "/" + p
	}
	return p
}

func segments(pointer string) []string {
	rel := strings.TrimPrefix(pointer, "/")
	if rel == "" {
		return nil
	}
	parts := strings.Split(rel, "/")
	for i, s := range parts {
		parts[i] = strings.ReplaceAll(strings.ReplaceAll(s, "~1", "/"), "~0", "~")
	}
	return parts
}

// pointerPath converts a pointer that did not resolve into property chunks.
func pointerPath(pointer string) govalid.Path {
	var out govalid.Path
	for _, s := range segments(pointer) {
		out = out.Property(s)
	}
	return out
}

// locate navigates v by JSON Pointer. Struct members match by serialization
// key or Go name, maps by key and sequences by index. It returns the member
// and its structural path.
func locate(v reflect.Value, pointer string) (reflect.Value, govalid.Path, bool) {
	cur := v
	var path govalid.Path
	for _, seg := range segments(pointer) {
		cur = deref(cur)
		if !cur.IsValid() {
			return reflect.Value{}, nil, false
		}
		switch cur.Kind() {
		case reflect.Struct:
			f, ok := layoutOf(cur.Type()).Field(seg)
			if !ok {
				return reflect.Value{}, nil, false
			}
			cur = f.Value(cur)
			if f.Key.Positional {
				path = path.Index(f.Key.Index)
			} else {
				path = path.Property(f.Key.Name)
			}
		case reflect.Map:
			key, ok := mapKey(cur.Type().Key(), seg)
			if !ok {
				return reflect.Value{}, nil, false
			}
			mv := cur.MapIndex(key)
			if !mv.IsValid() {
				return reflect.Value{}, nil, false
			}
			cur = mv
			path = path.Property(seg)
		case reflect.Slice, reflect.Array:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= cur.Len() {
				return reflect.Value{}, nil, false
			}
			cur = cur.Index(idx)
			path = path.Index(idx)
		default:
			return reflect.Value{}, nil, false
		}
	}
	if cur.Kind() == reflect.Interface && !cur.IsNil() {
		cur = cur.Elem()
	}
	if cur.Kind() == reflect.Pointer && !cur.IsNil() {
		cur = cur.Elem()
	}
	return cur, path, true
}

func deref(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func mapKey(t reflect.Type, seg string) (reflect.Value, bool) {
	switch t.Kind() {
	case reflect.String:
		return reflect.ValueOf(seg).Convert(t), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(seg, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, false
		}
		return reflect.ValueOf(n).Convert(t), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(seg, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, false
		}
		return reflect.ValueOf(n).Convert(t), true
	}
	return reflect.Value{}, false
}
