package engine

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	j "github.com/goccy/go-json"
)

// DuplicateStrictness controls duplicate key handling.
type DuplicateStrictness int

const (
	DupIgnore DuplicateStrictness = iota
	DupWarn
	DupError
)

// Violation codes.
const (
	CodeDuplicateKey = "duplicate_key"
	CodeMaxDepth     = "max_depth"
	CodeTooLarge     = "too_large"
	CodeSyntax       = "syntax"
)

// Options controls the structural checks run before decoding.
type Options struct {
	OnDuplicate DuplicateStrictness
	MaxDepth    int
	MaxBytes    int64
	// Warn receives duplicate keys when OnDuplicate is DupWarn.
	Warn func(Violation)
}

// Enabled reports whether Scan has anything to check.
func (o Options) Enabled() bool {
	return o.OnDuplicate != DupIgnore || o.MaxDepth > 0 || o.MaxBytes > 0
}

// Violation is a structural problem of a JSON document. Path is a JSON
// Pointer ("/" for the document root).
type Violation struct {
	Code    string
	Path    string
	Message string
}

func (v *Violation) Error() string { return v.Path + ": " + v.Message }

// AsViolation extracts a *Violation from err.
func AsViolation(err error) (*Violation, bool) {
	var v *Violation
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

// Scan walks the tokens of data and returns the first violation of opt.
// Duplicate keys under DupWarn are passed to opt.Warn and scanning goes on.
func Scan(data []byte, opt Options) error {
	if opt.MaxBytes > 0 && int64(len(data)) > opt.MaxBytes {
		return &Violation{
			Code:    CodeTooLarge,
			Path:    "/",
			Message: fmt.Sprintf("input is %d bytes, the limit is %d", len(data), opt.MaxBytes),
		}
	}
	if opt.OnDuplicate == DupIgnore && opt.MaxDepth <= 0 {
		return nil
	}
	dec := j.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	s := &scanner{opt: opt}
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return &Violation{Code: CodeSyntax, Path: s.where(), Message: err.Error()}
		}
		if err := s.token(tok); err != nil {
			return err
		}
	}
}

type containerKind int

const (
	kindObject containerKind = iota
	kindArray
)

type frame struct {
	kind         containerKind
	keys         map[string]struct{}
	expectingKey bool
	path         string
	nextIndex    int
	pendingKey   string
}

type scanner struct {
	opt   Options
	stack []frame
}

func (s *scanner) token(tok j.Token) error {
	switch v := tok.(type) {
	case j.Delim:
		switch v {
		case '{', '[':
			path := s.valuePath()
			if s.opt.MaxDepth > 0 && len(s.stack) >= s.opt.MaxDepth {
				return &Violation{
					Code:    CodeMaxDepth,
					Path:    pointer(path),
					Message: fmt.Sprintf("nesting exceeds the maximum depth of %d", s.opt.MaxDepth),
				}
			}
			f := frame{kind: kindArray, path: path}
			if v == '{' {
				f = frame{kind: kindObject, keys: map[string]struct{}{}, expectingKey: true, path: path}
			}
			s.stack = append(s.stack, f)
		case '}', ']':
			if n := len(s.stack); n > 0 {
				s.stack = s.stack[:n-1]
			}
			s.valueDone()
		}
	case string:
		if n := len(s.stack); n > 0 {
			top := &s.stack[n-1]
			if top.kind == kindObject && top.expectingKey {
				return s.key(top, v)
			}
		}
		s.valuePath()
		s.valueDone()
	default:
		s.valuePath()
		s.valueDone()
	}
	return nil
}

func (s *scanner) key(top *frame, k string) error {
	if _, dup := top.keys[k]; dup && s.opt.OnDuplicate != DupIgnore {
		vi := Violation{
			Code:    CodeDuplicateKey,
			Path:    pointer(join(top.path, k)),
			Message: "key '" + k + "' duplicated",
		}
		if s.opt.OnDuplicate == DupError {
			return &vi
		}
		if s.opt.Warn != nil {
			s.opt.Warn(vi)
		}
	}
	top.keys[k] = struct{}{}
	top.expectingKey = false
	top.pendingKey = k
	return nil
}

// valuePath returns the path of the value starting at the current token.
func (s *scanner) valuePath() string {
	n := len(s.stack)
	if n == 0 {
		return ""
	}
	top := &s.stack[n-1]
	if top.kind == kindArray {
		p := join(top.path, strconv.Itoa(top.nextIndex))
		top.nextIndex++
		return p
	}
	return join(top.path, top.pendingKey)
}

func (s *scanner) valueDone() {
	if n := len(s.stack); n > 0 {
		top := &s.stack[n-1]
		if top.kind == kindObject {
			top.expectingKey = true
			top.pendingKey = ""
		}
	}
}

func (s *scanner) where() string {
	if n := len(s.stack); n > 0 {
		return pointer(s.stack[n-1].path)
	}
	return "/"
}

func pointer(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

var jsonPointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func join(base, token string) string {
	return base + "/" + jsonPointerEscaper.Replace(token)
}
