package compile

import (
	"context"
	"reflect"

	"github.com/rs/zerolog"

	"github.com/reoring/govalid/internal/shape"
)

// Option configures a Registry or a single compilation.
type Option func(*config)

type config struct {
	registry *Registry
	logger   *zerolog.Logger
	keyTag   string
	tagName  string
	funcs    map[string]any
	customs  map[reflect.Type][]customDef
	rules    map[reflect.Type][]ruleDef
	// local is set when an option changes what gets compiled, so the
	// result cannot be shared through the registry cache.
	local bool
}

type customDef struct {
	name string
	fn   any
}

type ruleDef struct {
	name   string
	fields []string
	fn     any
}

func newConfig(opts []Option) *config {
	c := &config{}
	for _, o := range opts {
		if o != nil {
			o(c)
		}
	}
	return c
}

// WithRegistry compiles against r instead of the default registry.
func WithRegistry(r *Registry) Option {
	return func(c *config) { c.registry = r }
}

// WithLogger sets the logger used for compile-time events. The validation
// path never logs.
func WithLogger(l zerolog.Logger) Option {
	return func(c *config) { c.logger = &l }
}

// WithKeyTag selects the serialization tag that renames fields in error
// paths (default "json").
func WithKeyTag(tag string) Option {
	return func(c *config) {
		c.keyTag = tag
		c.local = true
	}
}

// WithTagName selects the struct tag holding annotations (default "valid").
func WithTagName(name string) Option {
	return func(c *config) {
		c.tagName = name
		c.local = true
	}
}

// WithFuncs makes functions available to custom, rule and message_fn
// annotations of this compilation. They shadow RegisterFunc entries.
func WithFuncs(funcs map[string]any) Option {
	return func(c *config) {
		if c.funcs == nil {
			c.funcs = map[string]any{}
		}
		for k, v := range funcs {
			c.funcs[k] = v
		}
		c.local = true
	}
}

// WithCustom adds a whole-value check for struct type T. It runs after the
// field checks of T and before its rules, like a custom annotation on T.
func WithCustom[T any](fn func(ctx context.Context, v T) error) Option {
	t := reflect.TypeOf((*T)(nil)).Elem()
	return func(c *config) {
		if c.customs == nil {
			c.customs = map[reflect.Type][]customDef{}
		}
		c.customs[t] = append(c.customs[t], customDef{name: funcName(fn), fn: fn})
		c.local = true
	}
}

// WithRule adds a cross-field check to struct type T. fn receives the named
// fields in order, optionally preceded by a context.Context, and returns an
// error (or any result a custom function may return). Fields are Go names
// or serialization keys.
func WithRule[T any](fields []string, fn any) Option {
	t := reflect.TypeOf((*T)(nil)).Elem()
	return func(c *config) {
		if c.rules == nil {
			c.rules = map[reflect.Type][]ruleDef{}
		}
		c.rules[t] = append(c.rules[t], ruleDef{name: funcName(fn), fields: fields, fn: fn})
		c.local = true
	}
}

func (c *config) keyOptions(r *Registry) shape.KeyOptions {
	o := shape.KeyOptions{KeyTag: r.keyTag, TagName: r.tagName}
	if c.keyTag != "" {
		o.KeyTag = c.keyTag
	}
	if c.tagName != "" {
		o.TagName = c.tagName
	}
	return o
}
