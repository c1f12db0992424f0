package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	// PathEnvVar names an explicit config file.
	PathEnvVar = "BOOKMATCH_CONFIG"
	envPrefix  = "BOOKMATCH_"
)

// DefaultPaths are searched when PathEnvVar is unset.
var DefaultPaths = []string{
	"bookmatch.yaml",
	"config/bookmatch.yaml",
	"/etc/bookmatch/bookmatch.yaml",
}

// Load finds the config file (if any) and loads it over the defaults.
func Load() (*Config, error) {
	return LoadFile(findConfigFile())
}

// LoadFile layers defaults, the YAML file at path (skipped when empty) and
// the environment, then validates the result.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := splitList(k, "index.weights"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate configuration: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		return p
	}
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envTransform maps BOOKMATCH_RECOMMEND_MAX_RESULTS to recommend.max_results: the
// first segment is the section, the rest is the key.
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	return strings.Replace(key, "_", ".", 1)
}

// splitList turns a comma-separated env value into a list.
func splitList(k *koanf.Koanf, path string) error {
	s, ok := k.Get(path).(string)
	if !ok {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if err := k.Set(path, out); err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	return nil
}
