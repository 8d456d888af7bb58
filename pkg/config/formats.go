package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// LoadFile reads a configuration file, choosing the format from its
// extension: .toml, .yaml or .yml, otherwise Klipper-style INI.
func LoadFile(path string) (*Config, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: unable to open %s: %w", path, err)
		}
		return LoadTOML(data)
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: unable to open %s: %w", path, err)
		}
		return LoadYAML(data)
	default:
		return Load(path)
	}
}

// LoadTOML parses a TOML document whose tables are sections.
func LoadTOML(data []byte) (*Config, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: parse TOML: %w", err)
	}
	return fromTree(doc)
}

// LoadYAML parses a YAML document whose top-level mappings are sections.
func LoadYAML(data []byte) (*Config, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: parse YAML: %w", err)
	}
	return fromTree(doc)
}

// fromTree flattens a decoded document into sections of string options.
// Sections are added in name order since decoded maps are unordered.
func fromTree(doc map[string]any) (*Config, error) {
	names := make([]string, 0, len(doc))
	for name := range doc {
		names = append(names, name)
	}
	sort.Strings(names)

	c := New()
	for _, name := range names {
		table, ok := doc[name].(map[string]any)
		if !ok {
			return nil, ErrInvalidSection(name, "top-level key must be a table of options")
		}
		opts := make(map[string]string, len(table))
		for k, v := range table {
			switch val := v.(type) {
			case nil:
				opts[k] = ""
			case map[string]any, []any:
				return nil, NewConfigError(name, k, "nested values are not supported")
			default:
				opts[k] = fmt.Sprint(val)
			}
		}
		c.addSection(name, opts)
	}
	return c, nil
}
