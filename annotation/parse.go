package annotation

import (
	"fmt"
	"strings"

	"github.com/reoring/govalid/constraint"
)

// SyntaxError is a malformed item in a tag.
type SyntaxError struct {
	Span Span
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("offset %d: %s", e.Span.Start, e.Msg)
}

// SyntaxErrors collects every malformed item of one tag.
type SyntaxErrors []*SyntaxError

func (es SyntaxErrors) Error() string {
	if len(es) == 0 {
		return ""
	}
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.Error()
	}
	return "annotation: " + strings.Join(parts, "; ")
}

// Parse tokenizes a tag value. Well-formed items are returned even when
// others fail; the error is then a SyntaxErrors listing every bad item.
func Parse(tag string) ([]Annotation, error) {
	p := &parser{src: tag}
	var out []Annotation
	var errs SyntaxErrors
	for {
		p.skipSpace()
		if p.eof() {
			break
		}
		if p.peek() == ';' {
			p.pos++
			continue
		}
		a, err := p.item()
		if err != nil {
			errs = append(errs, err)
			p.recover()
			continue
		}
		out = append(out, a)
	}
	if len(errs) > 0 {
		return out, errs
	}
	return out, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) eof() bool  { return p.pos >= len(p.src) }
func (p *parser) peek() byte { return p.src[p.pos] }

func (p *parser) skipSpace() {
	for !p.eof() {
		switch p.peek() {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) errorf(start int, format string, args ...any) *SyntaxError {
	end := p.pos
	if end <= start {
		end = start + 1
	}
	if end > len(p.src) {
		end = len(p.src)
	}
	return &SyntaxError{Span: Span{Start: start, End: end}, Msg: fmt.Sprintf(format, args...)}
}

// recover skips to the next ';' outside quotes and parentheses.
func (p *parser) recover() {
	depth := 0
	for !p.eof() {
		c := p.peek()
		switch {
		case c == '\'':
			p.pos++
			for !p.eof() && p.peek() != '\'' {
				if p.peek() == '\\' {
					p.pos++
				}
				p.pos++
			}
		case c == '(':
			depth++
		case c == ')' && depth > 0:
			depth--
		case c == ';' && depth == 0:
			p.pos++
			return
		}
		p.pos++
	}
}

func (p *parser) item() (Annotation, *SyntaxError) {
	start := p.pos
	a, err := p.annotation()
	if err != nil {
		return a, err
	}
	for {
		p.skipSpace()
		if p.eof() || p.peek() == ';' {
			break
		}
		if p.peek() != ',' {
			return a, p.errorf(p.pos, "expected ',' or ';', found %q", p.peek())
		}
		p.pos++
		p.skipSpace()
		n, err := p.annotation()
		if err != nil {
			return a, err
		}
		a.Nested = append(a.Nested, n)
	}
	a.Span = Span{Start: start, End: p.trimmedEnd()}
	return a, nil
}

func (p *parser) trimmedEnd() int {
	end := p.pos
	for end > 0 && strings.ContainsRune(" \t\n\r", rune(p.src[end-1])) {
		end--
	}
	return end
}

func (p *parser) annotation() (Annotation, *SyntaxError) {
	start := p.pos
	name := p.ident()
	if name == "" {
		if p.eof() {
			return Annotation{}, p.errorf(start, "expected annotation name, found end of tag")
		}
		return Annotation{}, p.errorf(start, "expected annotation name, found %q", p.peek())
	}
	a := Annotation{Name: name, Form: constraint.Bare, NameSpan: Span{Start: start, End: p.pos}}
	p.skipSpace()
	if !p.eof() {
		switch p.peek() {
		case '=':
			p.pos++
			p.skipSpace()
			vs := p.pos
			v, err := p.value()
			if err != nil {
				return a, err
			}
			a.Form = constraint.Valued
			a.Args = []Arg{{Value: v, Span: Span{Start: vs, End: p.pos}}}
		case '(':
			args, err := p.list()
			if err != nil {
				return a, err
			}
			a.Form = constraint.Listed
			a.Args = args
		}
	}
	a.Span = Span{Start: start, End: p.pos}
	return a, nil
}

// list parses "(arg, arg, ...)" starting at '('.
func (p *parser) list() ([]Arg, *SyntaxError) {
	open := p.pos
	p.pos++
	args := []Arg{}
	p.skipSpace()
	if !p.eof() && p.peek() == ')' {
		p.pos++
		return args, nil
	}
	for {
		p.skipSpace()
		start := p.pos
		arg, err := p.arg()
		if err != nil {
			return nil, err
		}
		arg.Span = Span{Start: start, End: p.pos}
		args = append(args, arg)
		p.skipSpace()
		if p.eof() {
			return nil, p.errorf(open, "unclosed '('")
		}
		switch p.peek() {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return args, nil
		default:
			return nil, p.errorf(p.pos, "expected ',' or ')', found %q", p.peek())
		}
	}
}

func (p *parser) arg() (Arg, *SyntaxError) {
	save := p.pos
	if name := p.ident(); name != "" {
		p.skipSpace()
		if !p.eof() && p.peek() == '=' {
			p.pos++
			p.skipSpace()
			v, err := p.value()
			if err != nil {
				return Arg{}, err
			}
			return Arg{Name: name, Value: v}, nil
		}
		p.pos = save
	}
	v, err := p.value()
	if err != nil {
		return Arg{}, err
	}
	return Arg{Value: v}, nil
}

func (p *parser) value() (Value, *SyntaxError) {
	start := p.pos
	if p.eof() {
		return Value{}, p.errorf(start, "expected value, found end of tag")
	}
	c := p.peek()
	switch {
	case c == '\'':
		return p.quoted()
	case c == '-' || c == '+' || isDigit(c) || (c == '.' && p.pos+1 < len(p.src) && isDigit(p.src[p.pos+1])):
		p.pos++
		for !p.eof() {
			c := p.peek()
			if isIdentByte(c) || c == '.' {
				p.pos++
				continue
			}
			if (c == '+' || c == '-') && (p.src[p.pos-1] == 'e' || p.src[p.pos-1] == 'E') {
				p.pos++
				continue
			}
			break
		}
		text := p.src[start:p.pos]
		if text == "-" || text == "+" {
			return Value{}, p.errorf(start, "expected number after %q", text)
		}
		return Value{Kind: Number, Text: text, Span: Span{Start: start, End: p.pos}}, nil
	case isIdentStart(c):
		name := p.ident()
		if !p.eof() && p.peek() == '(' {
			args, err := p.list()
			if err != nil {
				return Value{}, err
			}
			return Value{Kind: Call, Text: name, Args: args, Span: Span{Start: start, End: p.pos}}, nil
		}
		return Value{Kind: Ident, Text: name, Span: Span{Start: start, End: p.pos}}, nil
	}
	return Value{}, p.errorf(start, "expected value, found %q", c)
}

func (p *parser) quoted() (Value, *SyntaxError) {
	start := p.pos
	p.pos++
	var b strings.Builder
	for {
		if p.eof() {
			return Value{}, p.errorf(start, "unterminated string")
		}
		c := p.peek()
		if c == '\\' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '\'' {
			b.WriteByte('\'')
			p.pos += 2
			continue
		}
		p.pos++
		if c == '\'' {
			break
		}
		b.WriteByte(c)
	}
	return Value{Kind: String, Text: b.String(), Span: Span{Start: start, End: p.pos}}, nil
}

func (p *parser) ident() string {
	start := p.pos
	if p.eof() || !isIdentStart(p.peek()) {
		return ""
	}
	for !p.eof() && (isIdentByte(p.peek()) || p.peek() == '.') {
		p.pos++
	}
	return p.src[start:p.pos]
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || (c|0x20 >= 'a' && c|0x20 <= 'z') }
func isIdentByte(c byte) bool  { return isIdentStart(c) || isDigit(c) }
