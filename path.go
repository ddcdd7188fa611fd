package govalid

import (
	"strconv"
	"strings"
)

// PathChunk is one segment of a location inside a validated value: either a
// zero-based sequence index or a property name.
type PathChunk struct {
	name    string
	index   int
	isIndex bool
}

// IndexChunk returns a chunk addressing a sequence element.
func IndexChunk(i int) PathChunk { return PathChunk{index: i, isIndex: true} }

// PropertyChunk returns a chunk addressing an object property.
func PropertyChunk(name string) PathChunk { return PathChunk{name: name} }

// IsIndex reports whether the chunk addresses a sequence element.
func (c PathChunk) IsIndex() bool { return c.isIndex }

// Index returns the element index (only meaningful when IsIndex is true).
func (c PathChunk) Index() int { return c.index }

// Name returns the property name (only meaningful when IsIndex is false).
func (c PathChunk) Name() string { return c.name }

func (c PathChunk) String() string {
	if c.isIndex {
		return strconv.Itoa(c.index)
	}
	return c.name
}

// Path is an ordered list of chunks from the root value to a leaf.
type Path []PathChunk

// Index returns a copy of p extended with an index chunk.
func (p Path) Index(i int) Path { return p.with(IndexChunk(i)) }

// Property returns a copy of p extended with a property chunk.
func (p Path) Property(name string) Path { return p.with(PropertyChunk(name)) }

func (p Path) with(c PathChunk) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, c)
}

// Pointer renders the path as a JSON Pointer. The root path renders as "/".
func (p Path) Pointer() string {
	if len(p) == 0 {
		return "/"
	}
	b := &strings.Builder{}
	for _, c := range p {
		b.WriteByte('/')
		if c.isIndex {
			b.WriteString(strconv.Itoa(c.index))
			continue
		}
		// escape '~' -> '~0', '/' -> '~1' per RFC6901
		b.WriteString(strings.ReplaceAll(strings.ReplaceAll(c.name, "~", "~0"), "/", "~1"))
	}
	return b.String()
}

func (p Path) String() string { return p.Pointer() }
