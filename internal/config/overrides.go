package config

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// paramKeys may be given without the "params." prefix.
var paramKeys = map[string]bool{
	"kp": true, "vp": true, "g": true, "dout1": true, "dout2": true,
	"dtank1": true, "dtank2": true, "hmax": true,
}

// ApplyOverrides sets fields from key=value pairs. Keys are the YAML names,
// dotted for nested sections (init_state.h1, input.kind); bare physical
// parameter names (kp, dout1, ...) address the params section.
func (c *Config) ApplyOverrides(pairs []string) error {
	if len(pairs) == 0 {
		return nil
	}

	tree := make(map[string]interface{})
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return fmt.Errorf("override %q is not key=value", pair)
		}
		if paramKeys[key] {
			key = "params." + key
		}
		if err := insert(tree, strings.Split(key, "."), strings.TrimSpace(value)); err != nil {
			return fmt.Errorf("override %q: %w", pair, err)
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "yaml",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           c,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(tree); err != nil {
		return fmt.Errorf("apply overrides: %w", err)
	}
	return nil
}

func insert(tree map[string]interface{}, path []string, value string) error {
	if len(path) == 1 {
		tree[path[0]] = value
		return nil
	}
	child, ok := tree[path[0]]
	if !ok {
		child = make(map[string]interface{})
		tree[path[0]] = child
	}
	sub, ok := child.(map[string]interface{})
	if !ok {
		return fmt.Errorf("%s is not a section", path[0])
	}
	return insert(sub, path[1:], value)
}
