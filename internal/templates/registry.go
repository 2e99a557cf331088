// Package templates holds the analysis prompts, with their structured-output
// schemas, and extracts tags from structured responses.
package templates

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/replynow20/gemini-zotero/internal/domain"
)

// Template is a named analysis prompt. Templates with a schema request
// structured JSON output.
type Template struct {
	ID          string        `json:"id" yaml:"id"`
	Name        string        `json:"name" yaml:"name"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Prompt      string        `json:"prompt" yaml:"prompt"`
	Schema      domain.Schema `json:"schema,omitempty" yaml:"schema,omitempty"`
	Workflow    bool          `json:"workflow,omitempty" yaml:"workflow,omitempty"`
}

// Structured reports whether the template requests JSON output.
func (t Template) Structured() bool {
	return len(t.Schema) > 0
}

// Registry is an ordered, read-only set of templates.
type Registry struct {
	templates []Template
	byID      map[string]int
}

type customFile struct {
	Templates []Template `yaml:"templates"`
}

// NewRegistry returns the built-in templates followed by custom ones.
func NewRegistry(custom ...Template) (*Registry, error) {
	r := &Registry{byID: make(map[string]int)}
	for _, t := range append(builtins(), custom...) {
		if t.ID == "" || t.Prompt == "" {
			return nil, domain.ValidationError(fmt.Sprintf("template %q needs an id and a prompt", t.Name), nil)
		}
		if _, dup := r.byID[t.ID]; dup {
			return nil, domain.ValidationError(fmt.Sprintf("duplicate template id %q", t.ID), nil)
		}
		r.byID[t.ID] = len(r.templates)
		r.templates = append(r.templates, t)
	}
	return r, nil
}

// LoadRegistry reads custom templates from a YAML file. An empty path yields
// the built-ins only.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return NewRegistry()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.IOError("read custom templates", err)
	}
	var file customFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, domain.ConfigurationError("parse custom templates", err)
	}
	return NewRegistry(file.Templates...)
}

// Lookup returns the template with the given id.
func (r *Registry) Lookup(id string) (Template, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Template{}, false
	}
	return r.templates[i], true
}

// Resolve returns the template with the given id, or the quick summary.
func (r *Registry) Resolve(id string) Template {
	if t, ok := r.Lookup(id); ok {
		return t
	}
	t, _ := r.Lookup(DefaultID)
	return t
}

// All lists every template in registration order.
func (r *Registry) All() []Template {
	return append([]Template(nil), r.templates...)
}

// Export writes templates as a YAML document loadable by LoadRegistry.
func Export(w io.Writer, templates []Template) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(customFile{Templates: templates}); err != nil {
		return domain.IOError("encode templates", err)
	}
	return enc.Close()
}
