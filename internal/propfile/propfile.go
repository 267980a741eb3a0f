// Package propfile reads TOML and YAML property files into flat
// dotted-key maps.
package propfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/bft-labs/bootbus/internal/domain"
)

// Format is a property file syntax.
type Format int

const (
	FormatTOML Format = iota
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatTOML:
		return "toml"
	case FormatYAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// FormatOf picks the format from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("%w: unsupported property file %q (want .toml, .yaml or .yml)", domain.ErrInvalidConfig, path)
	}
}

// Load reads path and flattens it. A missing file is reported with an error
// matching os.ErrNotExist.
func Load(path string) (map[string]string, error) {
	f, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	props, err := Decode(b, f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return props, nil
}

// Decode parses data in format f and flattens it.
func Decode(data []byte, f Format) (map[string]string, error) {
	tree := map[string]interface{}{}
	switch f {
	case FormatTOML:
		if err := toml.Unmarshal(data, &tree); err != nil {
			return nil, err
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("unknown property format")
	}
	out := make(map[string]string)
	Flatten("", tree, out)
	return out, nil
}

// Flatten writes v into out under dotted keys rooted at prefix. Lists of
// scalars are joined with commas; other lists use indexed keys.
func Flatten(prefix string, v interface{}, out map[string]string) {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, child := range t {
			Flatten(join(prefix, k), child, out)
		}
	case map[interface{}]interface{}:
		for k, child := range t {
			Flatten(join(prefix, fmt.Sprint(k)), child, out)
		}
	case []interface{}:
		if allScalars(t) {
			parts := make([]string, len(t))
			for i, item := range t {
				parts[i] = scalar(item)
			}
			out[prefix] = strings.Join(parts, ",")
			return
		}
		for i, item := range t {
			Flatten(prefix+"["+strconv.Itoa(i)+"]", item, out)
		}
	case nil:
		out[prefix] = ""
	default:
		out[prefix] = scalar(t)
	}
}

// Diff returns the keys of next that are missing from prev or hold a
// different value, sorted.
func Diff(prev, next map[string]string) []string {
	var keys []string
	for k, v := range next {
		if old, ok := prev[k]; !ok || old != v {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func allScalars(items []interface{}) bool {
	for _, item := range items {
		switch item.(type) {
		case map[string]interface{}, map[interface{}]interface{}, []interface{}:
			return false
		}
	}
	return true
}

func scalar(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case time.Time:
		return t.Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}
