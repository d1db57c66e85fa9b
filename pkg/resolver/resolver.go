// Package resolver turns an arbitrary runtime value, optionally paired with
// a declared model, into a field descriptor tree that editing surfaces can
// walk. Inference never overrides an explicit, registered model identity.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/containerd/errdefs"
	"github.com/containerd/log"

	"github.com/goliatone/go-formmodel/pkg/model"
	"github.com/goliatone/go-formmodel/pkg/registry"
	"github.com/goliatone/go-formmodel/pkg/scalar"
)

// ErrAmbiguousInnerType is returned when a list's inner type cannot be
// determined from an empty, untyped sequence. Callers recover by supplying
// an explicit inner type or a first element.
var ErrAmbiguousInnerType = fmt.Errorf("resolver: list inner type cannot be determined: %w", errdefs.ErrFailedPrecondition)

// Resolver resolves runtime values into descriptor trees against a model
// registry. It is safe for concurrent use; each Resolve call owns its own
// session state.
type Resolver struct {
	registry *registry.Registry
}

// New constructs a Resolver bound to the given registry. A nil registry is
// replaced with an empty one so inference-only use needs no setup.
func New(reg *registry.Registry) *Resolver {
	if reg == nil {
		reg = registry.New()
	}
	return &Resolver{registry: reg}
}

// Registry returns the registry the resolver consults.
func (r *Resolver) Registry() *registry.Registry { return r.registry }

// Resolve infers a descriptor tree for value with no declared model. Field
// level failures are embedded in the tree as error descriptors; the returned
// error covers only unusable input.
func (r *Resolver) Resolve(ctx context.Context, value any) (*Descriptor, error) {
	if value == nil {
		return nil, errors.New("resolver: value is required")
	}
	s := newSession(r.registry)
	return s.resolveValue(ctx, "", "", value), nil
}

// ResolveAs resolves value against a declared definition. The definition is
// authoritative unless the value (or a nested one) carries a registered
// model tag, which always wins. Value fields absent from the definition are
// appended as a synthesized extension; declared fields absent from the value
// resolve to empty placeholders of their declared kind.
func (r *Resolver) ResolveAs(ctx context.Context, value any, def model.Definition) (*Descriptor, error) {
	if value == nil {
		return nil, errors.New("resolver: value is required")
	}
	s := newSession(r.registry)
	if def.Name != "" {
		s.named[def.Name] = def
	}

	if tagged, ok := value.(model.Tagged); ok {
		if known, err := r.registry.Lookup(tagged.ModelName()); err == nil {
			return s.resolveAgainst(ctx, "", "", tagged.FieldValues(), known, value), nil
		}
	}

	if def.IsList() {
		seq, ok := value.([]any)
		if !ok {
			return nil, fmt.Errorf("resolver: model %q is a list model but value is %T", def.Name, value)
		}
		return s.classify(ctx, "", "", seq, def.Inner), nil
	}

	fields, ok := fieldValues(value)
	if !ok {
		return nil, fmt.Errorf("resolver: value %T cannot be resolved against model %q", value, def.Name)
	}
	return s.resolveAgainst(ctx, "", "", fields, def, value), nil
}

// Classify resolves each element independently and classifies the sequence
// as a homogeneous list or a mixed collection.
func (r *Resolver) Classify(ctx context.Context, elements []any) (*Descriptor, error) {
	s := newSession(r.registry)
	return s.classify(ctx, "", "", elements, nil), nil
}

// NewListElement produces a fresh default element value for a homogeneous
// list descriptor, suitable for an "add" operation followed by
// re-resolution. Empty untyped lists fail with ErrAmbiguousInnerType.
func (r *Resolver) NewListElement(d *Descriptor) (any, error) {
	if d == nil || d.Kind != NodeList {
		return nil, errors.New("resolver: descriptor is not a homogeneous list")
	}
	if d.Elem == nil {
		return nil, ErrAmbiguousInnerType
	}
	return r.defaultValue(*d.Elem)
}

func (r *Resolver) defaultValue(typ model.FieldType) (any, error) {
	switch typ.Kind {
	case model.FieldKindScalar:
		return scalar.Zero(typ.Scalar), nil
	case model.FieldKindModel:
		def, err := r.registry.Lookup(typ.Model)
		if err != nil {
			// Session-scoped synthesized models are gone by the time an
			// element is added; an empty tagged instance re-infers fine.
			return model.NewInstance(typ.Model, nil), nil
		}
		instance := model.NewInstance(def.Name, nil)
		for _, field := range def.Fields {
			if field.Type.Kind == model.FieldKindScalar {
				instance.Values[field.Name] = scalar.Zero(field.Type.Scalar)
			}
		}
		return instance, nil
	case model.FieldKindList:
		return []any{}, nil
	case model.FieldKindMixed:
		return map[string]any{}, nil
	default:
		return nil, fmt.Errorf("resolver: unknown field kind %q", typ.Kind)
	}
}

// session carries the state of one resolution call: the registry snapshot
// it reads from and the synthesized-schema cache shared by sibling values,
// so identically shaped inferred siblings resolve to one anonymous model.
// Sessions are never shared across concurrent resolutions.
type session struct {
	registry *registry.Registry
	named    map[string]model.Definition
	bySig    map[string]model.Definition
	nextAnon int
}

func newSession(reg *registry.Registry) *session {
	return &session{
		registry: reg,
		named:    make(map[string]model.Definition),
		bySig:    make(map[string]model.Definition),
	}
}

// lookupModel consults the registry first, then the session's synthesized
// definitions.
func (s *session) lookupModel(name string) (model.Definition, bool) {
	if def, err := s.registry.Lookup(name); err == nil {
		return def, true
	}
	def, ok := s.named[name]
	return def, ok
}

// resolveValue applies the resolution rules with no declared model: a
// registered tag wins, mappings synthesize an anonymous definition,
// sequences go through classification, and scalars resolve directly.
func (s *session) resolveValue(ctx context.Context, name, path string, value any) *Descriptor {
	if tagged, ok := value.(model.Tagged); ok {
		if def, err := s.registry.Lookup(tagged.ModelName()); err == nil {
			return s.resolveAgainst(ctx, name, path, tagged.FieldValues(), def, value)
		}
		def := s.synthesizeNamed(ctx, tagged.ModelName(), tagged.FieldValues())
		return s.resolveAgainst(ctx, name, path, tagged.FieldValues(), def, value)
	}

	switch v := value.(type) {
	case map[string]any:
		def := s.synthesize(ctx, v)
		return s.resolveAgainst(ctx, name, path, v, def, value)
	case []any:
		return s.classify(ctx, name, path, v, nil)
	default:
		kind, ok := scalar.KindOf(value)
		if !ok {
			return failed(name, path, NodeScalar, value,
				fmt.Errorf("resolver: field %q: unsupported value type %T: %w", path, value, errdefs.ErrInvalidArgument))
		}
		coerced, _ := scalar.Coerce(kind, value)
		return &Descriptor{Name: name, Path: path, Kind: NodeScalar, Scalar: kind, Value: coerced}
	}
}

// resolveAgainst resolves a mapping against an authoritative definition.
// Declared fields resolve in declaration order; missing ones become empty
// placeholders; undeclared value fields are appended as a synthesized
// extension in sorted order.
func (s *session) resolveAgainst(ctx context.Context, name, path string, fields map[string]any, def model.Definition, original any) *Descriptor {
	d := &Descriptor{
		Name:      name,
		Path:      path,
		Kind:      NodeNested,
		Model:     def.Name,
		Anonymous: def.Anonymous,
		Value:     original,
	}

	declared := make(map[string]struct{}, len(def.Fields))
	for _, field := range def.Fields {
		declared[field.Name] = struct{}{}
		fieldPath := joinPath(path, field.Name)
		raw, present := fields[field.Name]
		if !present || raw == nil {
			d.Children = append(d.Children, s.placeholder(ctx, field.Name, fieldPath, field.Type))
			continue
		}
		d.Children = append(d.Children, s.resolveField(ctx, field.Name, fieldPath, raw, field.Type))
	}

	extras := make([]string, 0)
	for key := range fields {
		if _, ok := declared[key]; ok {
			continue
		}
		if skipField(key) || fields[key] == nil {
			continue
		}
		extras = append(extras, key)
	}
	sort.Strings(extras)
	for _, key := range extras {
		d.Children = append(d.Children, s.resolveValue(ctx, key, joinPath(path, key), fields[key]))
	}
	if len(extras) > 0 {
		log.G(ctx).WithField("model", def.Name).WithField("fields", extras).
			Debug("appended synthesized extension fields")
	}

	return d
}

// resolveField resolves one value slot that has a declared field type. An
// explicit registered tag on the value still overrides the declared type.
func (s *session) resolveField(ctx context.Context, name, path string, value any, typ model.FieldType) *Descriptor {
	if tagged, ok := value.(model.Tagged); ok {
		if def, err := s.registry.Lookup(tagged.ModelName()); err == nil {
			return s.resolveAgainst(ctx, name, path, tagged.FieldValues(), def, value)
		}
	}

	switch typ.Kind {
	case model.FieldKindScalar:
		coerced, err := scalar.Coerce(typ.Scalar, value)
		if err != nil {
			var tm *scalar.TypeMismatchError
			if errors.As(err, &tm) {
				tm.Field = path
			}
			return &Descriptor{Name: name, Path: path, Kind: NodeScalar, Scalar: typ.Scalar, Value: value, Err: err}
		}
		return &Descriptor{Name: name, Path: path, Kind: NodeScalar, Scalar: typ.Scalar, Value: coerced}

	case model.FieldKindModel:
		def, ok := s.lookupModel(typ.Model)
		if !ok {
			return failed(name, path, NodeNested, value,
				fmt.Errorf("resolver: field %q references unknown model %q: %w", path, typ.Model, errdefs.ErrNotFound))
		}
		fields, ok := fieldValues(value)
		if !ok {
			return failed(name, path, NodeNested, value,
				fmt.Errorf("resolver: field %q: value %T is not an instance of %q: %w", path, value, typ.Model, errdefs.ErrInvalidArgument))
		}
		return s.resolveAgainst(ctx, name, path, fields, def, value)

	case model.FieldKindList:
		seq, ok := value.([]any)
		if !ok {
			return failed(name, path, NodeList, value,
				fmt.Errorf("resolver: field %q: value %T is not a sequence: %w", path, value, errdefs.ErrInvalidArgument))
		}
		return s.classify(ctx, name, path, seq, typ.Elem)

	case model.FieldKindMixed:
		return s.resolveValue(ctx, name, path, value)

	default:
		return failed(name, path, NodeScalar, value,
			fmt.Errorf("resolver: field %q: unknown field kind %q", path, typ.Kind))
	}
}

// placeholder builds the descriptor for a declared field the value does not
// supply: an empty value of the declared kind, still editable.
func (s *session) placeholder(ctx context.Context, name, path string, typ model.FieldType) *Descriptor {
	switch typ.Kind {
	case model.FieldKindScalar:
		return &Descriptor{Name: name, Path: path, Kind: NodeScalar, Scalar: typ.Scalar, Value: scalar.Zero(typ.Scalar)}
	case model.FieldKindModel:
		def, ok := s.lookupModel(typ.Model)
		if !ok {
			return failed(name, path, NodeNested, nil,
				fmt.Errorf("resolver: field %q references unknown model %q: %w", path, typ.Model, errdefs.ErrNotFound))
		}
		return s.resolveAgainst(ctx, name, path, map[string]any{}, def, nil)
	case model.FieldKindList:
		return &Descriptor{Name: name, Path: path, Kind: NodeList, Elem: typ.Elem, Value: []any{}}
	case model.FieldKindMixed:
		return &Descriptor{Name: name, Path: path, Kind: NodeNested, Anonymous: true, Value: map[string]any{}}
	default:
		return failed(name, path, NodeScalar, nil,
			fmt.Errorf("resolver: field %q: unknown field kind %q", path, typ.Kind))
	}
}

// synthesize builds (or reuses) the session's anonymous definition for a
// mapping's shape. Identically shaped siblings share one definition, keyed
// by a structural signature.
func (s *session) synthesize(ctx context.Context, fields map[string]any) model.Definition {
	built := s.inferFields(ctx, fields)
	sig := signature(built)
	if def, ok := s.bySig[sig]; ok {
		return def
	}
	s.nextAnon++
	def := model.Definition{
		Name:      fmt.Sprintf("anonymous%d", s.nextAnon),
		Fields:    built,
		Anonymous: true,
	}
	s.bySig[sig] = def
	s.named[def.Name] = def
	log.G(ctx).WithField("model", def.Name).WithField("signature", sig).
		Debug("synthesized anonymous model")
	return def
}

// synthesizeNamed builds the session definition for a tagged value whose
// claimed name is not registered. The claimed name is kept so identically
// tagged siblings share the definition.
func (s *session) synthesizeNamed(ctx context.Context, claimed string, fields map[string]any) model.Definition {
	if def, ok := s.named[claimed]; ok {
		return def
	}
	def := model.Definition{
		Name:      claimed,
		Fields:    s.inferFields(ctx, fields),
		Anonymous: true,
	}
	s.named[claimed] = def
	log.G(ctx).WithField("model", claimed).Debug("synthesized model for unregistered tag")
	return def
}

func (s *session) inferFields(ctx context.Context, fields map[string]any) []model.Field {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		if skipField(key) || fields[key] == nil {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	built := make([]model.Field, 0, len(keys))
	for _, key := range keys {
		built = append(built, model.Field{Name: key, Type: s.inferType(ctx, fields[key])})
	}
	return built
}

// inferType determines the declared-equivalent field type of a runtime
// value. It is shape-only: actual resolution of the value happens later and
// re-checks everything.
func (s *session) inferType(ctx context.Context, value any) model.FieldType {
	if tagged, ok := value.(model.Tagged); ok {
		// Unregistered tags get a session definition here so the model
		// reference resolves later instead of erroring as unknown.
		if _, ok := s.lookupModel(tagged.ModelName()); !ok {
			s.synthesizeNamed(ctx, tagged.ModelName(), tagged.FieldValues())
		}
		return model.ModelType(tagged.ModelName())
	}
	switch v := value.(type) {
	case map[string]any:
		// The nested definition is synthesized (and cached) ahead of
		// resolution so the field type can reference it by name.
		def := s.synthesize(ctx, v)
		return model.ModelType(def.Name)
	case []any:
		return model.ListType(s.inferElemType(ctx, v))
	default:
		if kind, ok := scalar.KindOf(value); ok {
			return model.ScalarType(kind)
		}
		return model.MixedType()
	}
}

func (s *session) inferElemType(ctx context.Context, elements []any) *model.FieldType {
	if len(elements) == 0 {
		return nil
	}
	first := s.inferType(ctx, elements[0])
	for _, element := range elements[1:] {
		if !s.inferType(ctx, element).Equal(first) {
			return nil
		}
	}
	return &first
}

// failed builds a field-scoped error descriptor: the original value is
// preserved and siblings keep resolving.
func failed(name, path string, kind NodeKind, value any, err error) *Descriptor {
	return &Descriptor{Name: name, Path: path, Kind: kind, Value: value, Err: err}
}

// fieldValues extracts a field mapping from a value: either a plain mapping
// or anything carrying an explicit model tag.
func fieldValues(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case map[string]any:
		return v, true
	case model.Tagged:
		return v.FieldValues(), true
	default:
		return nil, false
	}
}

// skipField hides private fields from editing, matching the underscore
// convention of the data this resolver was built for.
func skipField(name string) bool {
	return strings.HasPrefix(name, "_")
}

// signature renders a deterministic structural key for a synthesized field
// set so identical shapes share one anonymous definition per session.
func signature(fields []model.Field) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, field := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(field.Name)
		b.WriteByte(':')
		writeTypeSig(&b, field.Type)
	}
	b.WriteByte('}')
	return b.String()
}

func writeTypeSig(b *strings.Builder, typ model.FieldType) {
	switch typ.Kind {
	case model.FieldKindScalar:
		b.WriteString(string(typ.Scalar))
	case model.FieldKindModel:
		b.WriteString("model(")
		b.WriteString(typ.Model)
		b.WriteByte(')')
	case model.FieldKindList:
		b.WriteString("list(")
		if typ.Elem != nil {
			writeTypeSig(b, *typ.Elem)
		}
		b.WriteByte(')')
	case model.FieldKindMixed:
		b.WriteString("mixed")
	}
}
