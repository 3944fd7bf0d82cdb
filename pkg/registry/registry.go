// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// LoadRegistry reads a catalog file. Empty path yields the built-in catalog.
func LoadRegistry(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cat Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return &cat, nil
}

// Validate checks ids are present and unique and that groups only reference
// known fields.
func (c *Catalog) Validate() error {
	if len(c.Forms) == 0 {
		return fmt.Errorf("catalog contains no forms")
	}

	seen := make(map[string]bool)
	for _, f := range c.Forms {
		if f.ID == "" {
			return fmt.Errorf("form missing required field: id")
		}
		if seen[f.ID] {
			return fmt.Errorf("duplicate form id: %s", f.ID)
		}
		seen[f.ID] = true
		if f.Title == "" {
			return fmt.Errorf("form %s missing required field: title", f.ID)
		}
	}

	docs := make(map[string]bool)
	for _, d := range c.Documents {
		if d.ID == "" {
			return fmt.Errorf("document missing required field: id")
		}
		if docs[d.ID] {
			return fmt.Errorf("duplicate document id: %s", d.ID)
		}
		docs[d.ID] = true
	}

	fields := make(map[string]bool)
	for _, f := range c.Fields {
		if f.Key == "" {
			return fmt.Errorf("field missing required field: key")
		}
		if fields[f.Key] {
			return fmt.Errorf("duplicate field key: %s", f.Key)
		}
		fields[f.Key] = true
	}

	for _, g := range c.Groups {
		if g.Title == "" {
			return fmt.Errorf("group missing required field: title")
		}
		for _, k := range g.Keys {
			if !fields[k] {
				return fmt.Errorf("group %q references unknown field %s", g.Title, k)
			}
		}
	}
	return nil
}

func (c *Catalog) Form(id string) (Form, bool) {
	for _, f := range c.Forms {
		if f.ID == id {
			return f, true
		}
	}
	return Form{}, false
}

// FormTitle returns the official title of a form, or the default title.
func (c *Catalog) FormTitle(id string) string {
	if f, ok := c.Form(id); ok && f.Title != "" {
		return f.Title
	}
	if c.DefaultFormTitle != "" {
		return c.DefaultFormTitle
	}
	return "Government Certificate"
}

// RequiredDocuments returns the fallback document list for a form, used when
// the session's own list is unavailable.
func (c *Catalog) RequiredDocuments(formID string) []string {
	if f, ok := c.Form(formID); ok && len(f.RequiredDocuments) > 0 {
		return append([]string(nil), f.RequiredDocuments...)
	}
	return append([]string(nil), c.DefaultRequiredDocuments...)
}

func (c *Catalog) Document(id string) (DocumentType, bool) {
	for _, d := range c.Documents {
		if d.ID == id {
			return d, true
		}
	}
	return DocumentType{}, false
}

// DocumentTitle returns the display name for a document type. Unknown types
// are title-cased from their id.
func (c *Catalog) DocumentTitle(id string) string {
	if d, ok := c.Document(id); ok && d.Title != "" {
		return d.Title
	}
	return Humanize(id)
}

func (c *Catalog) IsMultiFile(id string) bool {
	d, ok := c.Document(id)
	return ok && d.MultiFile
}

func (c *Catalog) Field(key string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// FieldLabel returns the display label for a field key.
func (c *Catalog) FieldLabel(key string) string {
	if f, ok := c.Field(key); ok && f.Label != "" {
		return f.Label
	}
	return Humanize(key)
}

// IsLongText reports whether a field is edited as multi-line text.
func (c *Catalog) IsLongText(key string) bool {
	f, ok := c.Field(key)
	return ok && f.LongText
}

// Humanize turns snake_case ids into Title Case words.
func Humanize(id string) string {
	parts := strings.Split(id, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
