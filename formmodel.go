// Package formmodel resolves arbitrary runtime values, optionally paired
// with declared models, into field descriptor trees that editing surfaces
// can walk. It may 'blindly' infer the shape of a value and describe fields
// accordingly, or be helped by the declaration of a model; a declared model
// is always used when any entity, main or nested, carries a known model
// name. Lists of same-kind elements support add/edit/remove of elements of
// the correct kind; lists of mixed kinds behave as fixed collections whose
// values are editable but cannot grow or shrink. Models also accept named
// templates that pre-fill every declared field at once.
package formmodel

import (
	"context"

	"github.com/goliatone/go-formmodel/pkg/editors/tui"
	"github.com/goliatone/go-formmodel/pkg/model"
	"github.com/goliatone/go-formmodel/pkg/registry"
	"github.com/goliatone/go-formmodel/pkg/resolver"
	"github.com/goliatone/go-formmodel/pkg/scalar"
	"github.com/goliatone/go-formmodel/pkg/template"
)

// Kind re-exports the scalar kind enumeration.
type Kind = scalar.Kind

const (
	KindInteger = scalar.KindInteger
	KindString  = scalar.KindString
	KindComplex = scalar.KindComplex
	KindFloat   = scalar.KindFloat
	KindBoolean = scalar.KindBoolean
	KindLong    = scalar.KindLong
	KindText    = scalar.KindText
	KindDate    = scalar.KindDate
	KindTime    = scalar.KindTime
)

// Definition is a declared or synthesized model definition.
type Definition = model.Definition

// Field is a (name, type) pair within a definition.
type Field = model.Field

// FieldType is the declared type of a field.
type FieldType = model.FieldType

// Template is a named literal pre-fill for a model's fields.
type Template = model.Template

// Instance pairs a model identity with field values.
type Instance = model.Instance

// Descriptor is one node of a resolved field descriptor tree.
type Descriptor = resolver.Descriptor

// Registry stores declared model definitions for the process lifetime.
type Registry = registry.Registry

// Field type constructors, re-exported for declaration convenience.
var (
	ScalarType = model.ScalarType
	ListType   = model.ListType
	ModelType  = model.ModelType
	MixedType  = model.MixedType
)

// NewRegistry creates an empty model registry.
func NewRegistry() *Registry {
	return registry.New()
}

// NewModel starts a fluent model declaration.
func NewModel(name string) *model.Builder {
	return model.NewBuilder(name)
}

// NewInstance builds a tagged instance of a model.
func NewInstance(modelName string, values map[string]any) *Instance {
	return model.NewInstance(modelName, values)
}

// Resolve infers a descriptor tree for value against the registry, with no
// declared model.
func Resolve(ctx context.Context, reg *Registry, value any) (*Descriptor, error) {
	return resolver.New(reg).Resolve(ctx, value)
}

// ResolveAs resolves value against a declared definition; registered model
// tags on the value still win over the declaration.
func ResolveAs(ctx context.Context, reg *Registry, value any, def Definition) (*Descriptor, error) {
	return resolver.New(reg).ResolveAs(ctx, value, def)
}

// Apply looks up a registered model and applies one of its templates,
// producing a fresh, fully populated instance.
func Apply(reg *Registry, modelName, templateName string) (*Instance, error) {
	return template.New(reg).ApplyNamed(modelName, templateName)
}

// SetValue re-validates and updates a single field of a resolved tree
// without re-resolving it.
func SetValue(root *Descriptor, path string, value any) error {
	return resolver.SetValue(root, path, value)
}

// Edit resolves value and walks it with the terminal editor, returning the
// edited value. It is the convenience entry point for interactive hosts;
// the input value is never mutated.
func Edit(ctx context.Context, reg *Registry, value any) (any, error) {
	editor, err := tui.NewEditor(resolver.New(reg), nil)
	if err != nil {
		return nil, err
	}
	return editor.Edit(ctx, value)
}
