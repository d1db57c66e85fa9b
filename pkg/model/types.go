// Package model defines the declared and synthesized schema types the
// resolver and registry operate on: definitions, fields, templates, and
// tagged instances.
package model

import (
	"reflect"

	"github.com/goliatone/go-formmodel/pkg/scalar"
)

// FieldKind discriminates what a field holds.
type FieldKind string

const (
	// FieldKindScalar marks a field holding a single primitive value.
	FieldKindScalar FieldKind = "scalar"
	// FieldKindList marks a field holding a sequence of one element type.
	FieldKindList FieldKind = "list"
	// FieldKindModel marks a field holding an instance of another model.
	FieldKindModel FieldKind = "model"
	// FieldKindMixed marks a field holding an open mapping with no declared
	// shape; its entries are inferred at resolution time.
	FieldKindMixed FieldKind = "mixed"
)

// FieldType is the declared type of a field: a scalar kind, a list of one
// element type, a reference to another model, or an open mapping.
type FieldType struct {
	Kind   FieldKind   `json:"kind"`
	Scalar scalar.Kind `json:"scalar,omitempty"`
	Elem   *FieldType  `json:"elem,omitempty"`
	Model  string      `json:"model,omitempty"`
}

// ScalarType builds the FieldType for a primitive kind.
func ScalarType(kind scalar.Kind) FieldType {
	return FieldType{Kind: FieldKindScalar, Scalar: kind}
}

// ListType builds the FieldType for a homogeneous list. A nil elem leaves
// the inner type undetermined until the first element arrives.
func ListType(elem *FieldType) FieldType {
	return FieldType{Kind: FieldKindList, Elem: elem}
}

// ModelType builds the FieldType referencing another model by name.
func ModelType(name string) FieldType {
	return FieldType{Kind: FieldKindModel, Model: name}
}

// MixedType builds the FieldType for an open mapping.
func MixedType() FieldType {
	return FieldType{Kind: FieldKindMixed}
}

// Equal reports structural equality of two field types.
func (t FieldType) Equal(other FieldType) bool {
	if t.Kind != other.Kind || t.Scalar != other.Scalar || t.Model != other.Model {
		return false
	}
	if (t.Elem == nil) != (other.Elem == nil) {
		return false
	}
	if t.Elem != nil {
		return t.Elem.Equal(*other.Elem)
	}
	return true
}

// Field is a (name, type) pair owned by exactly one definition.
type Field struct {
	Name string    `json:"name"`
	Type FieldType `json:"type"`
}

// Template is a named literal pre-fill for a model's fields. Values are
// copied at apply time, never aliased.
type Template map[string]any

// Definition is a named, ordered set of fields, optionally carrying named
// templates. A non-nil Inner marks a list class model: it carries a single
// inner type instead of fields. Definitions are never mutated once built.
type Definition struct {
	Name      string              `json:"name"`
	Fields    []Field             `json:"fields,omitempty"`
	Templates map[string]Template `json:"templates,omitempty"`
	Inner     *FieldType          `json:"inner,omitempty"`
	Anonymous bool                `json:"anonymous,omitempty"`
}

// IsList reports whether the definition is a list class model.
func (d Definition) IsList() bool { return d.Inner != nil }

// Field returns the named field and whether it exists.
func (d Definition) Field(name string) (Field, bool) {
	for _, field := range d.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// FieldNames returns field names in declaration order.
func (d Definition) FieldNames() []string {
	names := make([]string, 0, len(d.Fields))
	for _, field := range d.Fields {
		names = append(names, field.Name)
	}
	return names
}

// Template returns the named template and whether it is declared.
func (d Definition) Template(name string) (Template, bool) {
	tpl, ok := d.Templates[name]
	return tpl, ok
}

// TemplateNames returns declared template names, unordered.
func (d Definition) TemplateNames() []string {
	if len(d.Templates) == 0 {
		return nil
	}
	names := make([]string, 0, len(d.Templates))
	for name := range d.Templates {
		names = append(names, name)
	}
	return names
}

// Equal reports whether two definitions are structurally identical:
// same name, same fields in the same order, same inner type, and the
// same template literals.
func (d Definition) Equal(other Definition) bool {
	if d.Name != other.Name || len(d.Fields) != len(other.Fields) {
		return false
	}
	for i := range d.Fields {
		if d.Fields[i].Name != other.Fields[i].Name {
			return false
		}
		if !d.Fields[i].Type.Equal(other.Fields[i].Type) {
			return false
		}
	}
	if (d.Inner == nil) != (other.Inner == nil) {
		return false
	}
	if d.Inner != nil && !d.Inner.Equal(*other.Inner) {
		return false
	}
	return reflect.DeepEqual(d.Templates, other.Templates)
}
