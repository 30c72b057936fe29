// Package config reads the optional per-project .lintchecks.yml file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up at the project root.
const FileName = ".lintchecks.yml"

// Config is the project configuration. Zero values mean "use the default".
type Config struct {
	DisabledRules []string `yaml:"disabled_rules"`
	Capabilities  []string `yaml:"capabilities"`
	Exclude       []string `yaml:"exclude"`
	RulesScript   string   `yaml:"rules_script"`
	Parallel      *bool    `yaml:"parallel"`
}

// Load reads FileName under root. A missing file yields an empty Config.
func Load(root string) (*Config, error) {
	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if cfg.RulesScript != "" && !filepath.IsAbs(cfg.RulesScript) {
		cfg.RulesScript = filepath.Join(root, cfg.RulesScript)
	}
	return cfg, nil
}

// Parse decodes a config document. Unknown keys are rejected so typos do
// not silently disable a setting.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	data = stripBOM(data)
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return cfg, nil
}

// Merge returns cfg overridden by the non-empty fields of flags. Lists are
// unioned; scalars from flags win.
func (c *Config) Merge(flags *Config) *Config {
	out := &Config{
		DisabledRules: union(c.DisabledRules, flags.DisabledRules),
		Capabilities:  union(c.Capabilities, flags.Capabilities),
		Exclude:       union(c.Exclude, flags.Exclude),
		RulesScript:   c.RulesScript,
		Parallel:      c.Parallel,
	}
	if flags.RulesScript != "" {
		out.RulesScript = flags.RulesScript
	}
	if flags.Parallel != nil {
		out.Parallel = flags.Parallel
	}
	return out
}

// ParallelOr returns the configured parallelism, or def when unset.
func (c *Config) ParallelOr(def bool) bool {
	if c.Parallel == nil {
		return def
	}
	return *c.Parallel
}

func union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, s := range append(append([]string(nil), a...), b...) {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
}
