package model

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-formmodel/pkg/scalar"
)

// Builder assembles a Definition while enforcing the definition invariants:
// non-empty name, unique field names, valid field types. Errors are
// accumulated and surfaced by Build so declarations read fluently.
type Builder struct {
	def  Definition
	seen map[string]struct{}
	errs []error
}

// NewBuilder starts a definition with the given name.
func NewBuilder(name string) *Builder {
	b := &Builder{
		def:  Definition{Name: strings.TrimSpace(name)},
		seen: make(map[string]struct{}),
	}
	if b.def.Name == "" {
		b.errs = append(b.errs, fmt.Errorf("model: definition name is required"))
	}
	return b
}

func (b *Builder) addField(name string, typ FieldType) *Builder {
	name = strings.TrimSpace(name)
	if name == "" {
		b.errs = append(b.errs, fmt.Errorf("model %s: field name is required", b.def.Name))
		return b
	}
	if _, dup := b.seen[name]; dup {
		b.errs = append(b.errs, fmt.Errorf("model %s: duplicate field %q", b.def.Name, name))
		return b
	}
	b.seen[name] = struct{}{}
	b.def.Fields = append(b.def.Fields, Field{Name: name, Type: typ})
	return b
}

// Scalar declares a primitive field.
func (b *Builder) Scalar(name string, kind scalar.Kind) *Builder {
	if !kind.Valid() {
		b.errs = append(b.errs, fmt.Errorf("model %s: field %q: unknown scalar kind %q", b.def.Name, name, kind))
		return b
	}
	return b.addField(name, ScalarType(kind))
}

// List declares a homogeneous list field of the given element type.
func (b *Builder) List(name string, elem FieldType) *Builder {
	return b.addField(name, ListType(&elem))
}

// Model declares a field holding an instance of another model.
func (b *Builder) Model(name, ref string) *Builder {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		b.errs = append(b.errs, fmt.Errorf("model %s: field %q: model reference is required", b.def.Name, name))
		return b
	}
	return b.addField(name, ModelType(ref))
}

// Mixed declares an open mapping field.
func (b *Builder) Mixed(name string) *Builder {
	return b.addField(name, MixedType())
}

// Template attaches a named literal pre-fill. Field membership is not
// checked here; Apply validates template keys against the definition.
func (b *Builder) Template(name string, values Template) *Builder {
	name = strings.TrimSpace(name)
	if name == "" {
		b.errs = append(b.errs, fmt.Errorf("model %s: template name is required", b.def.Name))
		return b
	}
	if b.def.Templates == nil {
		b.def.Templates = make(map[string]Template)
	}
	if _, dup := b.def.Templates[name]; dup {
		b.errs = append(b.errs, fmt.Errorf("model %s: duplicate template %q", b.def.Name, name))
		return b
	}
	copied := make(Template, len(values))
	for key, value := range values {
		copied[key] = value
	}
	b.def.Templates[name] = copied
	return b
}

// Build finalizes the definition or returns the first accumulated error.
func (b *Builder) Build() (Definition, error) {
	if len(b.errs) > 0 {
		return Definition{}, b.errs[0]
	}
	return b.def, nil
}

// MustBuild panics on invalid declarations; intended for package-level
// model declarations, mirroring the registry's MustRegister.
func (b *Builder) MustBuild() Definition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}

// ListOf declares a list class model: a named definition carrying a single
// inner element type instead of fields.
func ListOf(name string, inner FieldType) Definition {
	return Definition{Name: strings.TrimSpace(name), Inner: &inner}
}
