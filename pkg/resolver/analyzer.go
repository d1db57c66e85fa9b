package resolver

import (
	"context"

	"github.com/containerd/log"

	"github.com/goliatone/go-formmodel/pkg/model"
)

// classify implements the list homogeneity analysis. With a declared element
// type the sequence is homogeneous by declaration and every element resolves
// against it. Otherwise each element resolves independently: matching
// top-level kinds yield a homogeneous list, diverging kinds a mixed
// collection whose length is fixed at resolution time.
func (s *session) classify(ctx context.Context, name, path string, elements []any, declaredElem *model.FieldType) *Descriptor {
	d := &Descriptor{Name: name, Path: path, Kind: NodeList, Value: elements, Elem: declaredElem}

	if declaredElem != nil {
		for i, element := range elements {
			child := s.resolveField(ctx, indexName(i), joinPath(path, indexName(i)), element, *declaredElem)
			d.Children = append(d.Children, child)
		}
		return d
	}

	// Empty and untyped: Homogeneous-Unknown. Elem stays nil until the
	// caller supplies a first element and classification re-runs.
	if len(elements) == 0 {
		return d
	}

	children := make([]*Descriptor, len(elements))
	for i, element := range elements {
		children[i] = s.resolveValue(ctx, indexName(i), joinPath(path, indexName(i)), element)
	}

	homogeneous := true
	for _, child := range children[1:] {
		if !sameElementKind(children[0], child) {
			homogeneous = false
			break
		}
	}

	if !homogeneous {
		if promoted, ok := s.promoteSiblings(ctx, path, elements, children); ok {
			children = promoted
			homogeneous = true
		}
	}

	if homogeneous {
		d.Elem = elementType(children[0])
		d.Children = children
		return d
	}

	// Mixed collection: elements are re-resolved under their positional
	// names so nested paths stay consistent for SetValue.
	d.Kind = NodeMixed
	d.Elem = nil
	d.Children = make([]*Descriptor, len(elements))
	for i, element := range elements {
		d.Children[i] = s.resolveValue(ctx, mixedName(i), joinPath(path, mixedName(i)), element)
	}
	return d
}

// sameElementKind compares the top-level resolved identity of two elements:
// scalar kind identity for scalars, model identity for nested values.
func sameElementKind(a, b *Descriptor) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case NodeScalar:
		return a.Scalar == b.Scalar
	case NodeNested:
		return a.Model == b.Model
	default:
		// Nested sequences compare by element type.
		if (a.Elem == nil) != (b.Elem == nil) {
			return false
		}
		if a.Elem != nil {
			return a.Elem.Equal(*b.Elem)
		}
		return true
	}
}

// promoteSiblings realizes the "any known model name wins" rule across one
// sequence: when exactly one registered model appears among the elements,
// structurally identical siblings that carry no registered identity of
// their own are re-resolved against it. Siblings whose shape differs block
// the promotion; elements are never forced onto an unrelated model.
func (s *session) promoteSiblings(ctx context.Context, path string, elements []any, children []*Descriptor) ([]*Descriptor, bool) {
	named := ""
	for _, child := range children {
		if child.Kind == NodeNested && !child.Anonymous {
			if named != "" && named != child.Model {
				return nil, false
			}
			named = child.Model
		}
	}
	if named == "" {
		return nil, false
	}
	def, err := s.registry.Lookup(named)
	if err != nil {
		return nil, false
	}

	want := make(map[string]struct{}, len(def.Fields))
	for _, field := range def.Fields {
		want[field.Name] = struct{}{}
	}

	promoted := make([]*Descriptor, len(children))
	for i, child := range children {
		if child.Kind == NodeNested && !child.Anonymous {
			promoted[i] = child
			continue
		}
		if child.Kind != NodeNested {
			return nil, false
		}
		if _, tagged := elements[i].(model.Tagged); tagged {
			// An element claiming its own name, even an unregistered one,
			// is never folded onto a sibling's model.
			return nil, false
		}
		fields, ok := fieldValues(elements[i])
		if !ok || !sameFieldSet(fields, want) {
			return nil, false
		}
		promoted[i] = s.resolveAgainst(ctx, child.Name, child.Path, fields, def, elements[i])
	}

	log.G(ctx).WithField("model", named).WithField("path", path).
		Debug("promoted sibling elements to registered model")
	return promoted, true
}

func sameFieldSet(fields map[string]any, want map[string]struct{}) bool {
	count := 0
	for key := range fields {
		if skipField(key) || fields[key] == nil {
			continue
		}
		if _, ok := want[key]; !ok {
			return false
		}
		count++
	}
	return count == len(want)
}

// elementType derives the shared element type a homogeneous list advertises
// from its first element's descriptor.
func elementType(d *Descriptor) *model.FieldType {
	switch d.Kind {
	case NodeScalar:
		typ := model.ScalarType(d.Scalar)
		return &typ
	case NodeNested:
		typ := model.ModelType(d.Model)
		return &typ
	case NodeList:
		typ := model.ListType(d.Elem)
		return &typ
	default:
		typ := model.MixedType()
		return &typ
	}
}
