// Package modelfile loads declarative model definitions from JSON or YAML
// files, so hosts can declare models next to their data instead of in code.
//
// A model file looks like:
//
//	models:
//	  User:
//	    fields:
//	      name: text
//	      number: integer
//	    templates:
//	      user1: {name: F1, number: 1}
//	  System:
//	    fields:
//	      users: {list: User}
//	      location: text
//	      admin: {model: User}
//	lists:
//	  UserList:
//	    inner: {model: User}
//
// Field types are scalar kind names, "mixed", a bare model name, or the
// explicit {model: X} / {list: T} forms. Fields load in sorted name order.
package modelfile

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formmodel/pkg/model"
	"github.com/goliatone/go-formmodel/pkg/registry"
	"github.com/goliatone/go-formmodel/pkg/scalar"
)

// LoadFS walks fsys and parses every JSON/YAML model file. Names must be
// unique across all files. A nil fsys yields no definitions.
func LoadFS(fsys fs.FS) ([]model.Definition, error) {
	if fsys == nil {
		return nil, nil
	}

	byName := make(map[string]string)
	var definitions []model.Definition

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isModelFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("modelfile: read %s: %w", path, err)
		}
		doc, err := parseDocument(data, path)
		if err != nil {
			return err
		}

		parsed, err := doc.definitions(path)
		if err != nil {
			return err
		}
		for _, def := range parsed {
			if prev, exists := byName[def.Name]; exists {
				return fmt.Errorf("modelfile: model %q declared in both %s and %s", def.Name, prev, path)
			}
			byName[def.Name] = path
			definitions = append(definitions, def)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(definitions, func(i, j int) bool { return definitions[i].Name < definitions[j].Name })
	return definitions, nil
}

// RegisterFS loads every definition from fsys into reg.
func RegisterFS(fsys fs.FS, reg *registry.Registry) error {
	if reg == nil {
		return fmt.Errorf("modelfile: registry is required")
	}
	definitions, err := LoadFS(fsys)
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

type documentFile struct {
	Models map[string]modelFile `json:"models" yaml:"models"`
	Lists  map[string]listFile  `json:"lists" yaml:"lists"`
}

type modelFile struct {
	Fields    map[string]fieldSpec      `json:"fields" yaml:"fields"`
	Templates map[string]map[string]any `json:"templates" yaml:"templates"`
}

type listFile struct {
	Inner *fieldSpec `json:"inner" yaml:"inner"`
}

func parseDocument(data []byte, source string) (documentFile, error) {
	var doc documentFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return documentFile{}, fmt.Errorf("modelfile: file %s is empty", source)
	}

	if err := json.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	if err := yaml.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	return documentFile{}, fmt.Errorf("modelfile: parse %s: invalid JSON or YAML", source)
}

func (d documentFile) definitions(source string) ([]model.Definition, error) {
	out := make([]model.Definition, 0, len(d.Models)+len(d.Lists))

	modelNames := sortedKeys(d.Models)
	for _, name := range modelNames {
		def, err := d.Models[name].definition(name, source)
		if err != nil {
			return nil, err
		}
		out = append(out, def)
	}

	listNames := sortedKeys(d.Lists)
	for _, name := range listNames {
		spec := d.Lists[name]
		if spec.Inner == nil {
			return nil, fmt.Errorf("modelfile: list %q (file %s) is missing its inner type", name, source)
		}
		inner, err := spec.Inner.fieldType()
		if err != nil {
			return nil, fmt.Errorf("modelfile: list %q (file %s): %w", name, source, err)
		}
		out = append(out, model.ListOf(name, inner))
	}
	return out, nil
}

func (m modelFile) definition(name, source string) (model.Definition, error) {
	builder := model.NewBuilder(name)

	for _, fieldName := range sortedKeys(m.Fields) {
		typ, err := m.Fields[fieldName].fieldType()
		if err != nil {
			return model.Definition{}, fmt.Errorf("modelfile: model %q field %q (file %s): %w", name, fieldName, source, err)
		}
		switch typ.Kind {
		case model.FieldKindScalar:
			builder.Scalar(fieldName, typ.Scalar)
		case model.FieldKindModel:
			builder.Model(fieldName, typ.Model)
		case model.FieldKindList:
			var elem model.FieldType
			if typ.Elem != nil {
				elem = *typ.Elem
			} else {
				elem = model.MixedType()
			}
			builder.List(fieldName, elem)
		default:
			builder.Mixed(fieldName)
		}
	}

	for _, tplName := range sortedKeys(m.Templates) {
		builder.Template(tplName, model.Template(m.Templates[tplName]))
	}

	def, err := builder.Build()
	if err != nil {
		return model.Definition{}, fmt.Errorf("modelfile: file %s: %w", source, err)
	}
	return def, nil
}

// fieldSpec accepts either a shorthand string ("integer", "mixed", a model
// name) or the explicit object form ({model: X}, {list: T}, {scalar: k}).
type fieldSpec struct {
	Scalar string     `json:"scalar" yaml:"scalar"`
	Model  string     `json:"model" yaml:"model"`
	List   *fieldSpec `json:"list" yaml:"list"`
	Mixed  bool       `json:"mixed" yaml:"mixed"`

	shorthand string
}

// UnmarshalYAML lets a field type be written as a plain string.
func (f *fieldSpec) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		return value.Decode(&f.shorthand)
	}
	type plain fieldSpec
	return value.Decode((*plain)(f))
}

// UnmarshalJSON mirrors the YAML shorthand for JSON documents.
func (f *fieldSpec) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &f.shorthand)
	}
	type plain fieldSpec
	return json.Unmarshal(data, (*plain)(f))
}

func (f fieldSpec) fieldType() (model.FieldType, error) {
	if f.shorthand != "" {
		return typeFromShorthand(f.shorthand)
	}
	switch {
	case f.Mixed:
		return model.MixedType(), nil
	case f.Model != "":
		return model.ModelType(f.Model), nil
	case f.List != nil:
		elem, err := f.List.fieldType()
		if err != nil {
			return model.FieldType{}, err
		}
		return model.ListType(&elem), nil
	case f.Scalar != "":
		kind := scalar.Kind(strings.ToLower(f.Scalar))
		if !kind.Valid() {
			return model.FieldType{}, fmt.Errorf("unknown scalar kind %q", f.Scalar)
		}
		return model.ScalarType(kind), nil
	default:
		return model.FieldType{}, fmt.Errorf("field type is empty")
	}
}

// typeFromShorthand maps a bare string onto a type: scalar kind names and
// "mixed" are reserved, anything else is a model reference.
func typeFromShorthand(raw string) (model.FieldType, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return model.FieldType{}, fmt.Errorf("field type is empty")
	}
	if strings.EqualFold(trimmed, "mixed") {
		return model.MixedType(), nil
	}
	if kind := scalar.Kind(strings.ToLower(trimmed)); kind.Valid() {
		return model.ScalarType(kind), nil
	}
	return model.ModelType(trimmed), nil
}

func isModelFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
