package compile

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
)

// EnvPrefix prefixes the environment variables read by LoadConfig.
const EnvPrefix = "GOVALID_"

// Config holds registry settings that deployments set outside code.
type Config struct {
	KeyTag   string `koanf:"key_tag"`
	TagName  string `koanf:"tag_name"`
	LogLevel string `koanf:"log_level"`
}

// LoadConfig reads settings from an optional YAML file, then from
// GOVALID_KEY_TAG, GOVALID_TAG_NAME and GOVALID_LOG_LEVEL. The environment
// wins. An empty path skips the file.
func LoadConfig(path string) (Config, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("govalid: load config %s: %w", path, err)
		}
	}
	transform := func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", transform), nil); err != nil {
		return Config{}, fmt.Errorf("govalid: load environment: %w", err)
	}
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("govalid: decode config: %w", err)
	}
	if _, err := cfg.level(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) level() (zerolog.Level, error) {
	if c.LogLevel == "" {
		return zerolog.Disabled, nil
	}
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("govalid: log_level: %w", err)
	}
	return lvl, nil
}

// Registry builds a registry from c. Compile events are logged to w (or
// stderr when w is nil) at the configured level.
func (c Config) Registry(w io.Writer) (*Registry, error) {
	lvl, err := c.level()
	if err != nil {
		return nil, err
	}
	if w == nil {
		w = os.Stderr
	}
	logger := zerolog.New(w).Level(lvl).With().Timestamp().Str("component", "govalid").Logger()
	opts := []Option{WithLogger(logger)}
	if c.KeyTag != "" {
		opts = append(opts, WithKeyTag(c.KeyTag))
	}
	if c.TagName != "" {
		opts = append(opts, WithTagName(c.TagName))
	}
	return NewRegistry(opts...), nil
}
