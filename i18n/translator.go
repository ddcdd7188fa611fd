package i18n

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrMissing is returned by Lookup when the bundle has no message for an id.
var ErrMissing = errors.New("i18n: message not found")

// Bundle resolves localized messages by identifier. args carries the named
// parameters of the failed check (for example "minimum" or "value").
type Bundle interface {
	Lookup(id string, args map[string]any) (string, error)
}

// Dict is a Bundle backed by message templates. Templates reference
// arguments as {name}; "{{" and "}}" produce literal braces.
type Dict map[string]string

func (d Dict) Lookup(id string, args map[string]any) (string, error) {
	tmpl, ok := d[id]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrMissing, id)
	}
	return Render(tmpl, args)
}

// Render expands {name} placeholders in tmpl. A placeholder without a
// matching argument is an error.
func Render(tmpl string, args map[string]any) (string, error) {
	if !strings.ContainsAny(tmpl, "{}") {
		return tmpl, nil
	}
	var b strings.Builder
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		switch {
		case c == '{' && i+1 < len(tmpl) && tmpl[i+1] == '{':
			b.WriteByte('{')
			i++
		case c == '}' && i+1 < len(tmpl) && tmpl[i+1] == '}':
			b.WriteByte('}')
			i++
		case c == '{':
			end := strings.IndexByte(tmpl[i:], '}')
			if end < 0 {
				return "", fmt.Errorf("i18n: unterminated placeholder in %q", tmpl)
			}
			name := strings.TrimSpace(tmpl[i+1 : i+end])
			v, ok := args[name]
			if !ok {
				return "", fmt.Errorf("i18n: missing argument %q", name)
			}
			b.WriteString(formatArg(v))
			i += end
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

func formatArg(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = formatArg(e)
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}

var english = Dict{
	"minimum":           "the number must be >= {minimum}",
	"maximum":           "the number must be <= {maximum}",
	"exclusive_minimum": "the number must be > {exclusive_minimum}",
	"exclusive_maximum": "the number must be < {exclusive_maximum}",
	"multiple_of":       "the value must be a multiple of {multiple_of}",
	"min_length":        "the length of the value must be >= {min_length}",
	"max_length":        "the length of the value must be <= {max_length}",
	"pattern":           "the value must match the pattern of \"{pattern}\"",
	"min_items":         "the length of the items must be >= {min_items}",
	"max_items":         "the length of the items must be <= {max_items}",
	"unique_items":      "the items must be unique",
	"min_properties":    "the size of the properties must be >= {min_properties}",
	"max_properties":    "the size of the properties must be <= {max_properties}",
	"enumerate":         "the value must be in [{enumerate}]",
}

var japanese = Dict{
	"minimum":           "{minimum} 以上の数値を指定してください",
	"maximum":           "{maximum} 以下の数値を指定してください",
	"exclusive_minimum": "{exclusive_minimum} より大きい数値を指定してください",
	"exclusive_maximum": "{exclusive_maximum} 未満の数値を指定してください",
	"multiple_of":       "{multiple_of} の倍数を指定してください",
	"min_length":        "{min_length} 文字以上で指定してください",
	"max_length":        "{max_length} 文字以下で指定してください",
	"pattern":           "パターン \"{pattern}\" に一致しません",
	"min_items":         "要素数は {min_items} 以上にしてください",
	"max_items":         "要素数は {max_items} 以下にしてください",
	"unique_items":      "要素が重複しています",
	"min_properties":    "プロパティ数は {min_properties} 以上にしてください",
	"max_properties":    "プロパティ数は {max_properties} 以下にしてください",
	"enumerate":         "[{enumerate}] のいずれかを指定してください",
}

// English returns the built-in English bundle.
func English() Bundle { return english }

// Japanese returns the built-in Japanese bundle.
func Japanese() Bundle { return japanese }

var (
	mu      sync.RWMutex
	current Bundle = english
)

// SetLanguage switches the process-wide bundle to a built-in language
// ("en"/"ja"). Unknown languages fall back to English.
func SetLanguage(lang string) {
	b := Bundle(english)
	if lang == "ja" {
		b = japanese
	}
	SetBundle(b)
}

// SetBundle replaces the process-wide bundle (not limited to the built-in
// dictionaries). nil restores English.
func SetBundle(b Bundle) {
	if b == nil {
		b = english
	}
	mu.Lock()
	current = b
	mu.Unlock()
}

// Current returns the process-wide bundle.
func Current() Bundle {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// T renders id with the current bundle, returning id itself when the lookup
// fails.
func T(id string, args map[string]any) string {
	msg, err := Current().Lookup(id, args)
	if err != nil {
		return id
	}
	return msg
}
