// Package catalog holds the Statement of Advice section template
// catalog, loaded once from an embedded YAML file. Templates drive
// generation prompts, section-add validation and compliance checks.
package catalog

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"soaforge/internal/domain/models"
)

//go:embed config/*.yaml
var configFiles embed.FS

// TableShape describes the expected table layout for table sections.
type TableShape struct {
	Headers []string `yaml:"headers" json:"headers"`
}

// Template defines the structure and requirements for one section.
type Template struct {
	Key            string             `yaml:"key" json:"key"`
	Title          string             `yaml:"title" json:"title"`
	Parent         string             `yaml:"parent" json:"parent,omitempty"`
	ContentType    models.ContentType `yaml:"content_type" json:"content_type"`
	Description    string             `yaml:"description" json:"description"`
	RequiredFields []string           `yaml:"required_fields" json:"required_fields,omitempty"`
	Table          *TableShape        `yaml:"table" json:"table,omitempty"`
}

// ParentKey returns the parent key as a nullable pointer, matching the
// section model's ParentKey field.
func (t Template) ParentKey() *string {
	if t.Parent == "" {
		return nil
	}
	p := t.Parent
	return &p
}

// Catalog is the loaded template set, ordered as defined in YAML.
type Catalog struct {
	templates []Template
	byKey     map[string]int
}

type catalogFile struct {
	Sections []Template `yaml:"sections"`
}

// Load parses the embedded catalog. Fails fast on malformed templates
// or dangling parent references since the file ships with the binary.
func Load() (*Catalog, error) {
	data, err := configFiles.ReadFile("config/sections.yaml")
	if err != nil {
		return nil, fmt.Errorf("read section catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal section catalog: %w", err)
	}
	if len(file.Sections) == 0 {
		return nil, fmt.Errorf("section catalog is empty")
	}

	c := &Catalog{
		templates: file.Sections,
		byKey:     make(map[string]int, len(file.Sections)),
	}
	for i, t := range file.Sections {
		if t.Key == "" || t.Title == "" {
			return nil, fmt.Errorf("template %d missing key or title", i)
		}
		if _, dup := c.byKey[t.Key]; dup {
			return nil, fmt.Errorf("duplicate template key %s", t.Key)
		}
		c.byKey[t.Key] = i
	}
	for _, t := range file.Sections {
		if t.Parent != "" {
			if _, ok := c.byKey[t.Parent]; !ok {
				return nil, fmt.Errorf("template %s references unknown parent %s", t.Key, t.Parent)
			}
		}
	}

	return c, nil
}

// Get returns the template for a section key.
func (c *Catalog) Get(key string) (Template, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return Template{}, false
	}
	return c.templates[i], true
}

// All returns every template in catalog order.
func (c *Catalog) All() []Template {
	out := make([]Template, len(c.templates))
	copy(out, c.templates)
	return out
}

// Keys returns every template key in catalog order.
func (c *Catalog) Keys() []string {
	keys := make([]string, len(c.templates))
	for i, t := range c.templates {
		keys[i] = t.Key
	}
	return keys
}

// MainKeys returns the top-level section keys in catalog order.
func (c *Catalog) MainKeys() []string {
	var keys []string
	for _, t := range c.templates {
		if t.Parent == "" {
			keys = append(keys, t.Key)
		}
	}
	return keys
}

// Children returns the direct child keys of a section in catalog order.
func (c *Catalog) Children(parentKey string) []string {
	var keys []string
	for _, t := range c.templates {
		if t.Parent == parentKey {
			keys = append(keys, t.Key)
		}
	}
	return keys
}
