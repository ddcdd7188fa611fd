package govalid

import (
	"bytes"
	"strconv"

	json "github.com/goccy/go-json"
)

// MarshalJSON renders a leaf as its message string, or as the nested
// container for Items and Properties leaves.
func (e *Error) MarshalJSON() ([]byte, error) {
	if e.items != nil {
		return e.items.MarshalJSON()
	}
	if e.properties != nil {
		return e.properties.MarshalJSON()
	}
	return json.MarshalNoEscape(e.Message())
}

func renderString(e Errors) string {
	b, err := e.MarshalJSON()
	if err != nil {
		return "validation failed"
	}
	return string(b)
}

func writeLeaves(buf *bytes.Buffer, errs []*Error) error {
	buf.WriteString(`"errors":[`)
	for i, e := range errs {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := e.MarshalJSON()
		if err != nil {
			return err
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return nil
}

func marshalNewType(n NewTypeErrors) ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteByte('{')
	if err := writeLeaves(buf, n); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalArray(a *ArrayErrors) ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteByte('{')
	if err := writeLeaves(buf, a.Errors); err != nil {
		return nil, err
	}
	buf.WriteString(`,"items":{`)
	for i, idx := range a.Indices() {
		if i > 0 {
			buf.WriteByte(',')
		}
		child, _ := a.Item(idx)
		buf.WriteString(strconv.Quote(strconv.Itoa(idx)))
		buf.WriteByte(':')
		b, err := child.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

func marshalObject(o *ObjectErrors) ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteByte('{')
	if err := writeLeaves(buf, o.Errors); err != nil {
		return nil, err
	}
	buf.WriteString(`,"properties":{`)
	first := true
	if o.Properties != nil {
		for p := o.Properties.Oldest(); p != nil; p = p.Next() {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			k, err := json.MarshalNoEscape(p.Key)
			if err != nil {
				return nil, err
			}
			buf.Write(k)
			buf.WriteByte(':')
			b, err := p.Value.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}
