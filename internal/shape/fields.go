package shape

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/reoring/govalid"
)

// DefaultKeyTag is the serialization tag consulted for external keys.
const DefaultKeyTag = "json"

// DefaultTagName is the struct tag holding annotations.
const DefaultTagName = "valid"

var tupleType = reflect.TypeOf(govalid.Tuple{})

// KeyOptions configures key resolution.
type KeyOptions struct {
	// KeyTag is the serialization tag used for renames (json, yaml, toml).
	KeyTag string
	// TagName is the tag holding annotations.
	TagName string
}

func (o KeyOptions) withDefaults() KeyOptions {
	if o.KeyTag == "" {
		o.KeyTag = DefaultKeyTag
	}
	if o.TagName == "" {
		o.TagName = DefaultTagName
	}
	return o
}

// Key is the external name of a member: a property name, or a zero-based
// index for positional structs.
type Key struct {
	Name       string
	Index      int
	Positional bool
}

func (k Key) String() string {
	if k.Positional {
		return strconv.Itoa(k.Index)
	}
	return k.Name
}

// Field is one member of a struct.
type Field struct {
	GoName string
	// Index is the reflect index path; promoted fields have more than one
	// element.
	Index []int
	Type  reflect.Type
	Key   Key
	// Tag is the raw annotation tag value.
	Tag string
	// Skip is set by an annotation tag of "-".
	Skip bool
}

// Value returns the field of v, which must be of the struct type the field
// was listed from.
func (f Field) Value(v reflect.Value) reflect.Value {
	if len(f.Index) == 1 {
		return v.Field(f.Index[0])
	}
	return v.FieldByIndex(f.Index)
}

// Layout lists the members of a struct type.
type Layout struct {
	Type       reflect.Type
	Fields     []Field
	Positional bool
	// StructTags are the annotation tags of blank (_) fields; they apply to
	// the struct as a whole.
	StructTags []string
}

// Field finds a member by Go name or external key.
func (l *Layout) Field(name string) (Field, bool) {
	for _, f := range l.Fields {
		if f.GoName == name {
			return f, true
		}
	}
	for _, f := range l.Fields {
		if f.Key.String() == name {
			return f, true
		}
	}
	return Field{}, false
}

// IsPositional reports whether struct type t embeds govalid.Tuple.
func IsPositional(t reflect.Type) bool {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.Anonymous && sf.Type == tupleType {
			return true
		}
	}
	return false
}

// Fields lists the exported members of struct type t in declaration order.
// Exported fields of embedded structs are promoted unless the embedding
// carries a serialization name; a shallower field shadows a deeper one.
func Fields(t reflect.Type, opt KeyOptions) *Layout {
	opt = opt.withDefaults()
	l := &Layout{Type: t, Positional: IsPositional(t)}
	seen := map[string]int{}
	collect(l, t, nil, 0, opt, seen)
	if l.Positional {
		for i := range l.Fields {
			l.Fields[i].Key = Key{Index: i, Positional: true}
		}
	}
	return l
}

func collect(l *Layout, t reflect.Type, prefix []int, depth int, opt KeyOptions, seen map[string]int) {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		index := append(append([]int(nil), prefix...), i)
		if sf.Name == "_" {
			if tag, ok := sf.Tag.Lookup(opt.TagName); ok && depth == 0 {
				l.StructTags = append(l.StructTags, tag)
			}
			continue
		}
		if sf.Anonymous && sf.Type == tupleType {
			continue
		}
		if sf.Anonymous && sf.Type.Kind() == reflect.Struct && keyName(sf, opt.KeyTag) == "" {
			collect(l, sf.Type, index, depth+1, opt, seen)
			continue
		}
		if !sf.IsExported() {
			continue
		}
		if d, ok := seen[sf.Name]; ok && d <= depth {
			continue
		}
		tag := sf.Tag.Get(opt.TagName)
		f := Field{
			GoName: sf.Name,
			Index:  index,
			Type:   sf.Type,
			Key:    Key{Name: ResolveKey(sf, opt.KeyTag)},
			Tag:    tag,
			Skip:   strings.TrimSpace(tag) == "-",
		}
		if d, ok := seen[sf.Name]; ok && d > depth {
			for j := range l.Fields {
				if l.Fields[j].GoName == sf.Name {
					l.Fields[j] = f
				}
			}
		} else {
			l.Fields = append(l.Fields, f)
		}
		seen[sf.Name] = depth
	}
}

// ResolveKey returns the external key of a struct field: the name from the
// serialization tag when present, else the Go field name. A tag name of
// "-" (field not serialized) falls back to the Go name.
func ResolveKey(sf reflect.StructField, keyTag string) string {
	if n := keyName(sf, keyTag); n != "" && n != "-" {
		return n
	}
	return sf.Name
}

func keyName(sf reflect.StructField, keyTag string) string {
	if keyTag == "" {
		keyTag = DefaultKeyTag
	}
	tag := sf.Tag.Get(keyTag)
	if i := strings.IndexByte(tag, ','); i >= 0 {
		tag = tag[:i]
	}
	return strings.TrimSpace(tag)
}
