package i18n

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// LoadDict reads a YAML message file. Keys are message identifiers and
// values are templates; nested maps are flattened with "." between levels.
//
//	minimum: "must be at least {minimum}"
//	user:
//	  name_taken: "{name} is taken"
func LoadDict(path string) (Dict, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("i18n: load %s: %w", path, err)
	}
	out := Dict{}
	for key, v := range k.All() {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("i18n: %s: message %q is %T, want string", path, key, v)
		}
		out[key] = s
	}
	return out, nil
}

// Merge returns a bundle that consults each bundle in order.
func Merge(bundles ...Bundle) Bundle { return chain(bundles) }

type chain []Bundle

func (c chain) Lookup(id string, args map[string]any) (string, error) {
	var last error = fmt.Errorf("%w: %q", ErrMissing, id)
	for _, b := range c {
		if b == nil {
			continue
		}
		msg, err := b.Lookup(id, args)
		if err == nil {
			return msg, nil
		}
		last = err
	}
	return "", last
}
