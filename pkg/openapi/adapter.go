// Package openapi declares model definitions from OpenAPI component
// schemas, so spec-first hosts can register their models without writing
// declarations by hand.
package openapi

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formmodel/pkg/model"
	"github.com/goliatone/go-formmodel/pkg/registry"
	"github.com/goliatone/go-formmodel/pkg/scalar"
)

// templatesExtensionKey carries named templates on a component schema:
// x-formmodel-templates: {templateName: {field: literal}}.
const templatesExtensionKey = "x-formmodel-templates"

// Definitions parses an OpenAPI document and converts every object schema
// under components/schemas into a model definition. Schema names become
// model names; $ref properties become model references.
func Definitions(ctx context.Context, raw []byte) ([]model.Definition, error) {
	if len(raw) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}

	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if spec.Components == nil || len(spec.Components.Schemas) == 0 {
		return nil, errors.New("openapi: document declares no component schemas")
	}

	names := make([]string, 0, len(spec.Components.Schemas))
	for name := range spec.Components.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)

	definitions := make([]model.Definition, 0, len(names))
	for _, name := range names {
		def, err := definitionFromSchema(name, spec.Components.Schemas[name])
		if err != nil {
			return nil, err
		}
		definitions = append(definitions, def)
	}
	return definitions, nil
}

// RegisterAll converts the document and registers every definition.
func RegisterAll(ctx context.Context, reg *registry.Registry, raw []byte) error {
	if reg == nil {
		return errors.New("openapi: registry is required")
	}
	definitions, err := Definitions(ctx, raw)
	if err != nil {
		return err
	}
	for _, def := range definitions {
		if err := reg.Register(def.Name, def); err != nil {
			return err
		}
	}
	return nil
}

func definitionFromSchema(name string, ref *openapi3.SchemaRef) (model.Definition, error) {
	if ref == nil || ref.Value == nil {
		return model.Definition{}, fmt.Errorf("openapi: schema %q has no value", name)
	}
	src := ref.Value
	if typeName := firstType(src.Type); typeName != "" && typeName != "object" {
		return model.Definition{}, fmt.Errorf("openapi: schema %q is %q, only object schemas map to models", name, typeName)
	}

	builder := model.NewBuilder(name)

	propNames := make([]string, 0, len(src.Properties))
	for propName := range src.Properties {
		propNames = append(propNames, propName)
	}
	sort.Strings(propNames)

	for _, propName := range propNames {
		typ, err := fieldTypeFromSchema(name, propName, src.Properties[propName])
		if err != nil {
			return model.Definition{}, err
		}
		switch typ.Kind {
		case model.FieldKindScalar:
			builder.Scalar(propName, typ.Scalar)
		case model.FieldKindModel:
			builder.Model(propName, typ.Model)
		case model.FieldKindList:
			var elem model.FieldType
			if typ.Elem != nil {
				elem = *typ.Elem
			} else {
				elem = model.MixedType()
			}
			builder.List(propName, elem)
		default:
			builder.Mixed(propName)
		}
	}

	for tplName, tpl := range templatesFromExtensions(src.Extensions) {
		builder.Template(tplName, tpl)
	}

	return builder.Build()
}

func fieldTypeFromSchema(modelName, fieldName string, ref *openapi3.SchemaRef) (model.FieldType, error) {
	if ref == nil {
		return model.FieldType{}, fmt.Errorf("openapi: schema %q field %q has no schema", modelName, fieldName)
	}
	if ref.Ref != "" {
		return model.ModelType(path.Base(ref.Ref)), nil
	}
	if ref.Value == nil {
		return model.FieldType{}, fmt.Errorf("openapi: schema %q field %q has no value", modelName, fieldName)
	}

	src := ref.Value
	switch firstType(src.Type) {
	case "integer":
		if src.Format == "int64" {
			return model.ScalarType(scalar.KindLong), nil
		}
		return model.ScalarType(scalar.KindInteger), nil
	case "number":
		return model.ScalarType(scalar.KindFloat), nil
	case "boolean":
		return model.ScalarType(scalar.KindBoolean), nil
	case "string":
		switch strings.ToLower(src.Format) {
		case "date", "date-time":
			return model.ScalarType(scalar.KindDate), nil
		case "time":
			return model.ScalarType(scalar.KindTime), nil
		default:
			return model.ScalarType(scalar.KindString), nil
		}
	case "array":
		if src.Items == nil {
			return model.ListType(nil), nil
		}
		elem, err := fieldTypeFromSchema(modelName, fieldName, src.Items)
		if err != nil {
			return model.FieldType{}, err
		}
		return model.ListType(&elem), nil
	case "object", "":
		// Inline objects carry no reusable identity; they stay open and the
		// resolver infers their shape from the value.
		return model.MixedType(), nil
	default:
		return model.FieldType{}, fmt.Errorf("openapi: schema %q field %q has unsupported type %q", modelName, fieldName, firstType(src.Type))
	}
}

func firstType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	values := types.Slice()
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func templatesFromExtensions(ext map[string]any) map[string]model.Template {
	if len(ext) == 0 {
		return nil
	}
	raw, ok := ext[templatesExtensionKey]
	if !ok {
		return nil
	}
	entries, ok := raw.(map[string]any)
	if !ok {
		return nil
	}

	out := make(map[string]model.Template, len(entries))
	for name, entry := range entries {
		values, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		tpl := make(model.Template, len(values))
		for key, value := range values {
			tpl[key] = value
		}
		out[name] = tpl
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
