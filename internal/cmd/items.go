package cmd

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// readItems decodes a YAML or JSON file holding either a list of items or an
// {"objects": [...]} document.
func readItems[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if len(doc.Content) == 0 {
		return nil, fmt.Errorf("%s is empty", path)
	}

	root := doc.Content[0]
	var items []T
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&items); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	case yaml.MappingNode:
		var wrapped struct {
			Objects []T `yaml:"objects"`
		}
		if err := root.Decode(&wrapped); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		items = wrapped.Objects
	default:
		return nil, fmt.Errorf("%s: expected a list of objects", path)
	}
	return items, nil
}

// readDocument decodes a single YAML or JSON object from path.
func readDocument(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// chunk splits items into batches of at most size; size <= 0 yields a single
// batch.
func chunk[T any](items []T, size int) [][]T {
	if size <= 0 || len(items) <= size {
		return [][]T{items}
	}
	var out [][]T
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[start:end])
	}
	return out
}

// fieldsFlag collects repeated key=value flags. Values are parsed as YAML
// scalars, so numbers and booleans keep their type.
type fieldsFlag map[string]any

func (f fieldsFlag) String() string {
	return fmt.Sprint(map[string]any(f))
}

func (f fieldsFlag) Set(raw string) error {
	key, value, ok := strings.Cut(raw, "=")
	if !ok || strings.TrimSpace(key) == "" {
		return fmt.Errorf("expected key=value, got %q", raw)
	}
	var decoded any = value
	if value != "" {
		var parsed any
		if err := yaml.Unmarshal([]byte(value), &parsed); err == nil {
			decoded = parsed
		}
	}
	f[strings.TrimSpace(key)] = decoded
	return nil
}
