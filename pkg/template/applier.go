// Package template applies a model's named templates, producing fully
// populated instances. Application is pure construction: nothing existing
// is merged into or mutated, the caller replaces its instance wholesale.
package template

import (
	"errors"
	"fmt"

	"github.com/containerd/errdefs"
	"github.com/mohae/deepcopy"

	"github.com/goliatone/go-formmodel/pkg/model"
	"github.com/goliatone/go-formmodel/pkg/registry"
	"github.com/goliatone/go-formmodel/pkg/scalar"
)

// ErrUnknownTemplate indicates a template name not declared on the model.
var ErrUnknownTemplate = fmt.Errorf("template: unknown template: %w", errdefs.ErrNotFound)

// Applier applies named templates. The registry is only consulted by
// ApplyNamed; Apply works on any definition, registered or not.
type Applier struct {
	registry *registry.Registry
}

// New constructs an Applier bound to a registry. A nil registry is replaced
// with an empty one.
func New(reg *registry.Registry) *Applier {
	if reg == nil {
		reg = registry.New()
	}
	return &Applier{registry: reg}
}

// Apply builds a new instance of def pre-filled from the named template.
// Every declared field is set: template literals are deep-copied in, fields
// the template omits get the empty value of their declared kind. Template
// entries naming undeclared fields are declaration bugs and fail.
func (a *Applier) Apply(def model.Definition, templateName string) (*model.Instance, error) {
	if def.IsList() {
		return nil, fmt.Errorf("template: list model %q cannot carry templates", def.Name)
	}
	tpl, ok := def.Template(templateName)
	if !ok {
		return nil, fmt.Errorf("model %q, template %q: %w", def.Name, templateName, ErrUnknownTemplate)
	}

	for key := range tpl {
		if _, declared := def.Field(key); !declared {
			return nil, fmt.Errorf("template: model %q template %q sets undeclared field %q", def.Name, templateName, key)
		}
	}

	instance := model.NewInstance(def.Name, nil)
	for _, field := range def.Fields {
		literal, present := tpl[field.Name]
		if !present {
			instance.Values[field.Name] = emptyValue(field.Type)
			continue
		}
		instance.Values[field.Name] = normalize(field.Type, deepcopy.Copy(literal))
	}
	return instance, nil
}

// ApplyNamed looks the model up in the registry and applies the template.
func (a *Applier) ApplyNamed(modelName, templateName string) (*model.Instance, error) {
	if a == nil || a.registry == nil {
		return nil, errors.New("template: applier is not initialized")
	}
	def, err := a.registry.Lookup(modelName)
	if err != nil {
		return nil, err
	}
	return a.Apply(def, templateName)
}

// normalize coerces scalar literals into their declared kind's canonical
// representation when possible; anything else passes through untouched and
// resolution flags it later.
func normalize(typ model.FieldType, value any) any {
	if typ.Kind != model.FieldKindScalar {
		return value
	}
	coerced, err := scalar.Coerce(typ.Scalar, value)
	if err != nil {
		return value
	}
	return coerced
}

func emptyValue(typ model.FieldType) any {
	switch typ.Kind {
	case model.FieldKindScalar:
		return scalar.Zero(typ.Scalar)
	case model.FieldKindModel:
		return model.NewInstance(typ.Model, nil)
	case model.FieldKindList:
		return []any{}
	default:
		return map[string]any{}
	}
}
