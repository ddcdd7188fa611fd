package compile

import (
	"context"
	"reflect"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/reoring/govalid"
	"github.com/reoring/govalid/internal/shape"
)

// Registry owns compiled plans and the new type and enum registrations they
// depend on. It is safe for concurrent use; compilation is serialized and
// compiled plans are shared read-only.
type Registry struct {
	logger  zerolog.Logger
	keyTag  string
	tagName string

	mu       sync.RWMutex
	newtypes map[reflect.Type]string
	enums    map[reflect.Type][]VariantDef

	compileMu sync.Mutex
	plans     sync.Map // reflect.Type -> *planRef
	roots     sync.Map // reflect.Type -> rootEntry
}

type rootEntry struct{ node node }

// NewRegistry returns an empty registry. WithLogger, WithKeyTag and
// WithTagName set its defaults; other options are ignored.
func NewRegistry(opts ...Option) *Registry {
	cfg := newConfig(opts)
	r := &Registry{
		logger:   zerolog.Nop(),
		keyTag:   shape.DefaultKeyTag,
		tagName:  shape.DefaultTagName,
		newtypes: map[reflect.Type]string{},
		enums:    map[reflect.Type][]VariantDef{},
	}
	if cfg.logger != nil {
		r.logger = *cfg.logger
	}
	if cfg.keyTag != "" {
		r.keyTag = cfg.keyTag
	}
	if cfg.tagName != "" {
		r.tagName = cfg.tagName
	}
	return r
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry used by Compile, Validate,
// NewType and Enum.
func Default() *Registry { return defaultRegistry }

// invalidate drops compiled plans after a registration. Callers hold r.mu.
func (r *Registry) invalidate() {
	r.plans.Range(func(k, _ any) bool {
		r.plans.Delete(k)
		return true
	})
	r.roots.Range(func(k, _ any) bool {
		r.roots.Delete(k)
		return true
	})
}

// Validate compiles (once) the dynamic type of v and validates v with it.
// Compilation problems are returned as Diagnostics.
func (r *Registry) Validate(ctx context.Context, v any) error {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	root, err := r.compile(rv.Type(), &config{})
	if err != nil {
		return err
	}
	if root == nil {
		return nil
	}
	if res := root.run(ctx, rv); res != nil {
		return res
	}
	return nil
}

// Validate validates v with the default registry.
func Validate(ctx context.Context, v any) error {
	return Default().Validate(ctx, v)
}

func (r *Registry) compile(t reflect.Type, cfg *config) (node, error) {
	if !cfg.local {
		if e, ok := r.roots.Load(t); ok {
			return e.(rootEntry).node, nil
		}
	}
	r.compileMu.Lock()
	defer r.compileMu.Unlock()

	c := newCompiler(r, cfg)
	root := c.nested(t)
	c.finalize()
	root = c.prune(root)
	if len(c.diags) > 0 {
		c.log.Debug().
			Str("type", t.String()).
			Int("diagnostics", len(c.diags)).
			Msg("compilation failed")
		return nil, c.diags
	}
	if !cfg.local {
		for _, ref := range c.order {
			r.plans.Store(ref.t, ref)
		}
		r.roots.Store(t, rootEntry{node: root})
	}
	c.log.Debug().
		Str("type", t.String()).
		Int("plans", len(c.order)).
		Bool("cached", !cfg.local).
		Msg("compiled validator")
	return root, nil
}

// planRef is the compiled plan of one type. The plan is set after the
// type's members are compiled, so recursive types can refer to it early.
type planRef struct {
	t    reflect.Type
	plan plan
}

type plan interface {
	run(ctx context.Context, v reflect.Value) govalid.Errors
	describe(b *strings.Builder)
	children() []node
	empty() bool
}

type compiler struct {
	reg   *Registry
	cfg   *config
	log   zerolog.Logger
	keys  shape.KeyOptions
	diags Diagnostics
	plans map[reflect.Type]*planRef
	order []*planRef // plans compiled by this compiler
	own   map[*planRef]bool
	live  map[*planRef]bool
}

func newCompiler(r *Registry, cfg *config) *compiler {
	c := &compiler{
		reg:   r,
		cfg:   cfg,
		log:   r.logger,
		keys:  cfg.keyOptions(r),
		plans: map[reflect.Type]*planRef{},
		own:   map[*planRef]bool{},
	}
	if cfg.logger != nil {
		c.log = *cfg.logger
	}
	return c
}

func (c *compiler) hasPlan(t reflect.Type) bool {
	c.reg.mu.RLock()
	_, isNew := c.reg.newtypes[t]
	_, isEnum := c.reg.enums[t]
	c.reg.mu.RUnlock()
	return isNew || isEnum || t.Kind() == reflect.Struct
}

// nested returns a node validating values of type t with the plan of t, or
// of the element type under pointers, sequences and maps. It returns nil
// when no such plan exists.
func (c *compiler) nested(t reflect.Type) node {
	var ws []wrapper
	for !c.hasPlan(t) {
		switch t.Kind() {
		case reflect.Pointer:
			ws = append(ws, wrapOptional)
		case reflect.Slice, reflect.Array:
			ws = append(ws, wrapSequence)
		case reflect.Map:
			ws = append(ws, wrapMap)
		default:
			return nil
		}
		t = t.Elem()
	}
	return wrap(ws, nestedNode{ref: c.planFor(t)})
}

// nestedElems is nested for the elements of t, never t itself.
func (c *compiler) nestedElems(t reflect.Type) node {
	var w wrapper
	switch t.Kind() {
	case reflect.Pointer:
		w = wrapOptional
	case reflect.Slice, reflect.Array:
		w = wrapSequence
	case reflect.Map:
		w = wrapMap
	default:
		return nil
	}
	inner := c.nested(t.Elem())
	if inner == nil {
		return nil
	}
	return wrap([]wrapper{w}, inner)
}

func (c *compiler) planFor(t reflect.Type) *planRef {
	if ref, ok := c.plans[t]; ok {
		return ref
	}
	if !c.cfg.local {
		if v, ok := c.reg.plans.Load(t); ok {
			ref := v.(*planRef)
			c.plans[t] = ref
			return ref
		}
	}
	ref := &planRef{t: t}
	c.plans[t] = ref
	c.order = append(c.order, ref)
	c.own[ref] = true

	c.reg.mu.RLock()
	tag, isNew := c.reg.newtypes[t]
	variants, isEnum := c.reg.enums[t]
	c.reg.mu.RUnlock()
	switch {
	case isNew:
		ref.plan = c.compileNewType(t, tag)
	case isEnum:
		ref.plan = c.compileEnum(t, variants)
	default:
		ref.plan = c.compileStruct(t)
	}
	return ref
}

// finalize drops nested validation of types whose plans check nothing, so
// plain data types cost nothing at run time. Emptiness is a fixpoint over
// possibly recursive plans.
func (c *compiler) finalize() {
	live := map[*planRef]bool{}
	for changed := true; changed; {
		changed = false
		for _, ref := range c.order {
			if live[ref] {
				continue
			}
			if c.planLive(ref.plan, live) {
				live[ref] = true
				changed = true
			}
		}
	}
	c.live = live
	for _, ref := range c.order {
		switch p := ref.plan.(type) {
		case *structPlan:
			kept := p.fields[:0]
			for _, f := range p.fields {
				if n := c.prune(f.node); n != nil {
					f.node = n
					kept = append(kept, f)
				} else if p.readsField(f.field) {
					p.bound = append(p.bound, f.field)
				}
			}
			p.fields = kept
		case *newtypePlan:
			p.node = c.prune(p.node)
		case *enumPlan:
			for i := range p.variants {
				p.variants[i].node = c.prune(p.variants[i].node)
			}
		}
	}
}

func (c *compiler) planLive(p plan, live map[*planRef]bool) bool {
	switch x := p.(type) {
	case *structPlan:
		if len(x.customs) > 0 || len(x.rules) > 0 {
			return true
		}
	}
	for _, n := range p.children() {
		if c.nodeLive(n, live) {
			return true
		}
	}
	return false
}

func (c *compiler) nodeLive(n node, live map[*planRef]bool) bool {
	switch x := n.(type) {
	case nil:
		return false
	case nestedNode:
		if !c.own[x.ref] {
			// compiled earlier and already final
			return !x.ref.plan.empty()
		}
		return live[x.ref]
	case optionalNode:
		return c.nodeLive(x.inner, live)
	case sequenceNode:
		return c.nodeLive(x.inner, live)
	case mapNode:
		return c.nodeLive(x.inner, live)
	case allNode:
		for _, ch := range x {
			if c.nodeLive(ch, live) {
				return true
			}
		}
		return false
	}
	return true
}

// prune removes dead nested validation from n.
func (c *compiler) prune(n node) node {
	if n == nil || !c.nodeLive(n, c.live) {
		return nil
	}
	switch x := n.(type) {
	case optionalNode:
		return optionalNode{c.prune(x.inner)}
	case sequenceNode:
		return sequenceNode{c.prune(x.inner)}
	case mapNode:
		return mapNode{c.prune(x.inner)}
	case allNode:
		var out allNode
		for _, ch := range x {
			if p := c.prune(ch); p != nil {
				out = append(out, p)
			}
		}
		if len(out) == 1 {
			return out[0]
		}
		return out
	}
	return n
}
