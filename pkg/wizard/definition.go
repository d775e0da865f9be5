package wizard

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-policyforge/pkg/visibility/expr"
)

//go:embed definitions/*.yaml
var definitionsFS embed.FS

const defaultDefinitionPath = "definitions/privacy_policy.yaml"

// FieldKind selects how a field is rendered and validated.
type FieldKind string

const (
	KindText     FieldKind = "text"
	KindEmail    FieldKind = "email"
	KindURL      FieldKind = "url"
	KindRadio    FieldKind = "radio"
	KindCheckbox FieldKind = "checkbox"
	// KindCountry is filled through the country picker and must name an
	// entry of the reference list once that list is loaded.
	KindCountry FieldKind = "country"
)

func (k FieldKind) valid() bool {
	switch k {
	case KindText, KindEmail, KindURL, KindRadio, KindCheckbox, KindCountry:
		return true
	}
	return false
}

// Multiple reports whether the field collects a set of values.
func (k FieldKind) Multiple() bool { return k == KindCheckbox }

// FieldOption is one choice of a radio or checkbox field.
type FieldOption struct {
	Value string `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
}

// Field describes one input of a step panel.
type Field struct {
	Name        string        `yaml:"name" json:"name"`
	Label       string        `yaml:"label" json:"label"`
	Kind        FieldKind     `yaml:"kind" json:"kind"`
	Placeholder string        `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`
	Required    bool          `yaml:"required,omitempty" json:"required,omitempty"`
	Default     string        `yaml:"default,omitempty" json:"default,omitempty"`
	Options     []FieldOption `yaml:"options,omitempty" json:"options,omitempty"`
	VisibleWhen string        `yaml:"visibleWhen,omitempty" json:"visibleWhen,omitempty"`
}

// Step is one panel of the wizard.
type Step struct {
	ID          string  `yaml:"id" json:"id"`
	Title       string  `yaml:"title" json:"title"`
	Description string  `yaml:"description,omitempty" json:"description,omitempty"`
	Fields      []Field `yaml:"fields" json:"fields"`
}

// Definition is the ordered list of step panels.
type Definition struct {
	Steps []Step `yaml:"steps" json:"steps"`
}

// DefaultDefinition returns the built-in privacy policy wizard.
func DefaultDefinition() (Definition, error) {
	return LoadFS(definitionsFS, defaultDefinitionPath)
}

// LoadFS reads and parses a YAML definition from fsys.
func LoadFS(fsys fs.FS, path string) (Definition, error) {
	if fsys == nil {
		return Definition{}, fmt.Errorf("wizard: missing filesystem")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return Definition{}, fmt.Errorf("wizard: read %s: %w", path, err)
	}
	def, err := ParseDefinition(data)
	if err != nil {
		return Definition{}, fmt.Errorf("wizard: %s: %w", path, err)
	}
	return def, nil
}

// LoadFile reads and parses a YAML definition from disk.
func LoadFile(path string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("wizard: read %s: %w", path, err)
	}
	def, err := ParseDefinition(data)
	if err != nil {
		return Definition{}, fmt.Errorf("wizard: %s: %w", path, err)
	}
	return def, nil
}

// ParseDefinition decodes YAML and validates it: at least one step, unique
// step ids and field names, known kinds, options for choice fields, and
// visibility rules that compile.
func ParseDefinition(data []byte) (Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return Definition{}, fmt.Errorf("decode definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	return def, nil
}

// Validate checks the structural rules listed on ParseDefinition.
func (d Definition) Validate() error {
	if len(d.Steps) == 0 {
		return fmt.Errorf("definition has no steps")
	}
	stepIDs := map[string]struct{}{}
	fieldNames := map[string]struct{}{}
	for i, step := range d.Steps {
		id := strings.TrimSpace(step.ID)
		if id == "" {
			return fmt.Errorf("step %d has an empty id", i)
		}
		if _, dup := stepIDs[id]; dup {
			return fmt.Errorf("duplicate step id %q", id)
		}
		stepIDs[id] = struct{}{}

		for _, field := range step.Fields {
			name := strings.TrimSpace(field.Name)
			if name == "" {
				return fmt.Errorf("step %q has a field with an empty name", id)
			}
			if _, dup := fieldNames[name]; dup {
				return fmt.Errorf("duplicate field name %q", name)
			}
			fieldNames[name] = struct{}{}

			if !field.Kind.valid() {
				return fmt.Errorf("field %q has unknown kind %q", name, field.Kind)
			}
			if (field.Kind == KindRadio || field.Kind == KindCheckbox) && len(field.Options) == 0 {
				return fmt.Errorf("field %q needs options", name)
			}
			if _, err := expr.Compile(field.VisibleWhen); err != nil {
				return fmt.Errorf("field %q: %w", name, err)
			}
		}
	}
	return nil
}

// Field looks a field up by name across all steps.
func (d Definition) Field(name string) (Field, bool) {
	for _, step := range d.Steps {
		for _, field := range step.Fields {
			if field.Name == name {
				return field, true
			}
		}
	}
	return Field{}, false
}
