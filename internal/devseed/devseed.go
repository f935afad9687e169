// Package devseed loads catalog fixtures used to pre-populate the mock
// Luigi's Box API. Files are YAML; JSON files parse as well.
package devseed

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Object is a seeded catalog entry.
type Object struct {
	URL        string         `yaml:"url"`
	Type       string         `yaml:"type"`
	Fields     map[string]any `yaml:"fields"`
	Nested     []Object       `yaml:"nested"`
	Generation string         `yaml:"generation"`
}

type catalogFile struct {
	Objects []Object `yaml:"objects"`
}

// LoadCatalog reads a seed file of the form
//
//	objects:
//	  - url: https://shop.example.com/p/1
//	    type: item
//	    fields:
//	      title: Linen shirt
func LoadCatalog(path string) ([]Object, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("devseed: read %s: %w", path, err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes seed data. Every object needs a URL and a type.
func ParseCatalog(data []byte) ([]Object, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var file catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("devseed: decode catalog: %w", err)
	}
	for i, obj := range file.Objects {
		if strings.TrimSpace(obj.URL) == "" {
			return nil, fmt.Errorf("devseed: object %d missing url", i)
		}
		if strings.TrimSpace(obj.Type) == "" {
			return nil, fmt.Errorf("devseed: object %q missing type", obj.URL)
		}
	}
	return file.Objects, nil
}
