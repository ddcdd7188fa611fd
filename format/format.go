// Package format provides the JSON, YAML and TOML decoders used by
// govalid.FromSlice, FromStr and FromReader.
package format

import (
	"bytes"
	"errors"
	"io"

	json "github.com/goccy/go-json"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/reoring/govalid"
	eng "github.com/reoring/govalid/internal/engine"
)

// Severity expresses how a structural finding is handled.
type Severity int

const (
	Ignore Severity = iota
	Warn
	Error
)

// JSONOptions configures the JSON format.
type JSONOptions struct {
	// OnDuplicateKey handles objects that repeat a key. Warn logs through
	// Logger and decodes anyway (the last value wins).
	OnDuplicateKey Severity
	// MaxDepth limits object and array nesting; zero means unlimited.
	MaxDepth int
	// MaxBytes limits the input size; zero means unlimited.
	MaxBytes int64
	// DisallowUnknownFields rejects object keys with no matching field.
	DisallowUnknownFields bool
	// UseNumber decodes numbers into interface values as json.Number.
	UseNumber bool
	Logger    *zerolog.Logger
}

// JSON returns a JSON format backed by goccy/go-json.
func JSON(opts ...JSONOptions) govalid.Format {
	var o JSONOptions
	if len(opts) > 0 {
		o = opts[len(opts)-1]
	}
	return jsonFormat{opt: o}
}

type jsonFormat struct{ opt JSONOptions }

func (jsonFormat) Name() string { return "json" }

func (f jsonFormat) Unmarshal(data []byte, v any) error {
	scan := eng.Options{
		OnDuplicate: toEngineDup(f.opt.OnDuplicateKey),
		MaxDepth:    f.opt.MaxDepth,
		MaxBytes:    f.opt.MaxBytes,
	}
	if f.opt.Logger != nil {
		log := f.opt.Logger
		scan.Warn = func(vi eng.Violation) {
			log.Warn().Str("path", vi.Path).Str("code", vi.Code).Msg(vi.Message)
		}
	}
	if scan.Enabled() {
		if err := eng.Scan(data, scan); err != nil {
			return err
		}
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if f.opt.DisallowUnknownFields {
		dec.DisallowUnknownFields()
	}
	if f.opt.UseNumber {
		dec.UseNumber()
	}
	if err := dec.Decode(v); err != nil {
		return err
	}
	if off := dec.InputOffset(); off < int64(len(data)) && len(bytes.TrimSpace(data[off:])) > 0 {
		return errTrailingData
	}
	return nil
}

var errTrailingData = errors.New("unexpected data after the top-level value")

func toEngineDup(s Severity) eng.DuplicateStrictness {
	switch s {
	case Error:
		return eng.DupError
	case Warn:
		return eng.DupWarn
	default:
		return eng.DupIgnore
	}
}

// YAMLOptions configures the YAML format.
type YAMLOptions struct {
	// KnownFields rejects mapping keys with no matching struct field.
	KnownFields bool
}

// YAML returns a YAML format backed by gopkg.in/yaml.v3. Struct fields are
// matched by their yaml tag.
func YAML(opts ...YAMLOptions) govalid.Format {
	var o YAMLOptions
	if len(opts) > 0 {
		o = opts[len(opts)-1]
	}
	return yamlFormat{opt: o}
}

type yamlFormat struct{ opt YAMLOptions }

func (yamlFormat) Name() string { return "yaml" }

func (f yamlFormat) Unmarshal(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(f.opt.KnownFields)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty document")
		}
		return err
	}
	return nil
}

// TOMLOptions configures the TOML format.
type TOMLOptions struct {
	// DisallowUnknownFields rejects keys with no matching struct field.
	DisallowUnknownFields bool
}

// TOML returns a TOML format backed by pelletier/go-toml/v2. Struct fields
// are matched by their toml tag.
func TOML(opts ...TOMLOptions) govalid.Format {
	var o TOMLOptions
	if len(opts) > 0 {
		o = opts[len(opts)-1]
	}
	return tomlFormat{opt: o}
}

type tomlFormat struct{ opt TOMLOptions }

func (tomlFormat) Name() string { return "toml" }

func (f tomlFormat) Unmarshal(data []byte, v any) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	if f.opt.DisallowUnknownFields {
		dec.DisallowUnknownFields()
	}
	return dec.Decode(v)
}
