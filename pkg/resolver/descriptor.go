package resolver

import (
	"strconv"

	"github.com/goliatone/go-formmodel/pkg/model"
	"github.com/goliatone/go-formmodel/pkg/scalar"
)

// NodeKind tags a descriptor node.
type NodeKind string

const (
	// NodeScalar is a leaf holding one primitive value.
	NodeScalar NodeKind = "scalar"
	// NodeNested is a structured value resolved against a model definition.
	NodeNested NodeKind = "nested"
	// NodeList is a homogeneous sequence: add/edit/remove by index.
	NodeList NodeKind = "list"
	// NodeMixed is a heterogeneous sequence: fixed length, elements
	// individually editable.
	NodeMixed NodeKind = "mixed"
)

// Descriptor is one node of the resolved field descriptor tree. The tree is
// rebuilt per editing session from the underlying value and holds no
// reference back into it; edits flow through SetValue and re-resolution.
type Descriptor struct {
	// Name is the field name within the parent, the element index for list
	// nodes, or posN for mixed collection elements. Empty at the root.
	Name string
	// Path is the dotted path from the root, empty at the root.
	Path string
	Kind NodeKind
	// Scalar is the resolved primitive kind for scalar nodes.
	Scalar scalar.Kind
	// Model names the definition a nested node resolved against. Synthesized
	// definitions carry their session-scoped anonymous name.
	Model string
	// Anonymous marks nested nodes whose definition was synthesized rather
	// than found in the registry.
	Anonymous bool
	// Value is the node's value snapshot. For scalar nodes it is the coerced
	// value, or the original one when coercion failed (see Err).
	Value any
	// Children holds field descriptors for nested nodes and per-element
	// descriptors for list and mixed nodes.
	Children []*Descriptor
	// Elem is the shared element type of a homogeneous list. nil means the
	// inner type could not be determined yet (empty, untyped list).
	Elem *model.FieldType
	// Err is the field-scoped resolution error, if any. An errored node
	// keeps its original value and stays editable; siblings are unaffected.
	Err error
}

// Child returns the named child of a nested or mixed node.
func (d *Descriptor) Child(name string) (*Descriptor, bool) {
	if d == nil {
		return nil, false
	}
	for _, child := range d.Children {
		if child.Name == name {
			return child, true
		}
	}
	return nil, false
}

// At returns the element descriptor at index for list and mixed nodes.
func (d *Descriptor) At(index int) (*Descriptor, bool) {
	if d == nil || index < 0 || index >= len(d.Children) {
		return nil, false
	}
	return d.Children[index], true
}

// Len returns the number of children.
func (d *Descriptor) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Children)
}

// FixedLength reports whether the node forbids add/remove. Mixed
// collections have their length fixed at resolution time.
func (d *Descriptor) FixedLength() bool {
	return d != nil && d.Kind == NodeMixed
}

// Walk visits the node and all descendants depth-first. Returning false
// from fn stops the walk.
func (d *Descriptor) Walk(fn func(*Descriptor) bool) {
	if d == nil {
		return
	}
	if !fn(d) {
		return
	}
	for _, child := range d.Children {
		child.Walk(fn)
	}
}

// Errs collects every field-scoped error in the tree, depth-first.
func (d *Descriptor) Errs() []error {
	var out []error
	d.Walk(func(node *Descriptor) bool {
		if node.Err != nil {
			out = append(out, node.Err)
		}
		return true
	})
	return out
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

func indexName(i int) string { return strconv.Itoa(i) }

func mixedName(i int) string { return "pos" + strconv.Itoa(i) }
