package resolver_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-formmodel/pkg/model"
	"github.com/goliatone/go-formmodel/pkg/resolver"
	"github.com/goliatone/go-formmodel/pkg/scalar"
	"github.com/goliatone/go-formmodel/pkg/testsupport"
)

func TestClassifyHomogeneousScalars(t *testing.T) {
	res := resolver.New(nil)
	tree, err := res.Classify(context.Background(), []any{1, 2, 3})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if tree.Kind != resolver.NodeList {
		t.Fatalf("kind = %q, want list", tree.Kind)
	}
	if tree.Elem == nil || tree.Elem.Scalar != scalar.KindInteger {
		t.Fatalf("elem = %+v, want integer", tree.Elem)
	}
	if tree.FixedLength() {
		t.Fatal("homogeneous list should allow add/remove")
	}
	first, _ := tree.At(0)
	if first.Name != "0" || first.Path != "0" {
		t.Fatalf("first element = %+v, want index naming", first)
	}
}

func TestClassifyHomogeneousMappingsShareOneModel(t *testing.T) {
	res := resolver.New(nil)
	tree, err := res.Classify(context.Background(), []any{
		map[string]any{"name": "F1", "number": 1},
		map[string]any{"name": "F2", "number": 2},
	})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if tree.Kind != resolver.NodeList {
		t.Fatalf("kind = %q, want list", tree.Kind)
	}

	first, _ := tree.At(0)
	second, _ := tree.At(1)
	if !first.Anonymous || first.Model == "" {
		t.Fatalf("first element = %+v, want synthesized model", first)
	}
	if first.Model != second.Model {
		t.Fatalf("siblings got different models: %q vs %q", first.Model, second.Model)
	}
	if tree.Elem == nil || tree.Elem.Model != first.Model {
		t.Fatalf("list elem = %+v, want model %q", tree.Elem, first.Model)
	}
}

func TestClassifyMixedCollection(t *testing.T) {
	res := resolver.New(nil)
	tree, err := res.Classify(context.Background(), []any{1, "two", true})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if tree.Kind != resolver.NodeMixed {
		t.Fatalf("kind = %q, want mixed", tree.Kind)
	}
	if !tree.FixedLength() {
		t.Fatal("mixed collection should have a fixed length")
	}
	if tree.Elem != nil {
		t.Fatalf("mixed collection advertises an element type: %+v", tree.Elem)
	}

	wantNames := []string{"pos0", "pos1", "pos2"}
	for i, want := range wantNames {
		child, _ := tree.At(i)
		if child.Name != want || child.Path != want {
			t.Fatalf("element %d = %q/%q, want %q", i, child.Name, child.Path, want)
		}
	}
	pos1, _ := tree.Child("pos1")
	if pos1.Scalar != scalar.KindText || pos1.Value != "two" {
		t.Fatalf("pos1 = %+v", pos1)
	}
}

func TestClassifyEmptyListIsHomogeneousUnknown(t *testing.T) {
	res := resolver.New(nil)
	tree, err := res.Classify(context.Background(), []any{})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if tree.Kind != resolver.NodeList || tree.Elem != nil || tree.Len() != 0 {
		t.Fatalf("empty sequence = %+v, want elem-less list", tree)
	}
}

func TestClassifyNumericKindsDoNotMerge(t *testing.T) {
	res := resolver.New(nil)
	tree, err := res.Classify(context.Background(), []any{1, 2.5})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if tree.Kind != resolver.NodeMixed {
		t.Fatalf("kind = %q, want mixed: integer and float elements differ", tree.Kind)
	}
}

func TestClassifyPromotesSiblingsToRegisteredModel(t *testing.T) {
	res := resolver.New(testsupport.NewUserRegistry(t))
	tree, err := res.Classify(context.Background(), []any{
		model.NewInstance("User", map[string]any{"name": "F1", "number": 1}),
		map[string]any{"name": "F2", "number": 2},
	})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if tree.Kind != resolver.NodeList {
		t.Fatalf("kind = %q, want list after promotion", tree.Kind)
	}
	for i := 0; i < tree.Len(); i++ {
		child, _ := tree.At(i)
		if child.Model != "User" || child.Anonymous {
			t.Fatalf("element %d = %+v, want promoted User node", i, child)
		}
	}
	if tree.Elem == nil || tree.Elem.Model != "User" {
		t.Fatalf("list elem = %+v, want User", tree.Elem)
	}
}

func TestClassifyPromotionRequiresMatchingShape(t *testing.T) {
	res := resolver.New(testsupport.NewUserRegistry(t))
	tree, err := res.Classify(context.Background(), []any{
		model.NewInstance("User", map[string]any{"name": "F1", "number": 1}),
		map[string]any{"name": "F2"},
	})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if tree.Kind != resolver.NodeMixed {
		t.Fatalf("kind = %q, want mixed: shapes differ", tree.Kind)
	}
}

func TestClassifyPromotionSkipsSelfNamedSiblings(t *testing.T) {
	res := resolver.New(testsupport.NewUserRegistry(t))
	tree, err := res.Classify(context.Background(), []any{
		model.NewInstance("User", map[string]any{"name": "F1", "number": 1}),
		model.NewInstance("Visitor", map[string]any{"name": "F2", "number": 2}),
	})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if tree.Kind != resolver.NodeMixed {
		t.Fatalf("kind = %q, want mixed: Visitor keeps its own identity", tree.Kind)
	}
}

func TestClassifyTwoRegisteredModelsStayMixed(t *testing.T) {
	reg := testsupport.NewUserRegistry(t)
	reg.MustRegister(model.NewBuilder("Site").
		Scalar("location", scalar.KindText).
		MustBuild())
	res := resolver.New(reg)

	tree, err := res.Classify(context.Background(), []any{
		model.NewInstance("User", map[string]any{"name": "F1", "number": 1}),
		model.NewInstance("Site", map[string]any{"location": "HQ"}),
	})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if tree.Kind != resolver.NodeMixed {
		t.Fatalf("kind = %q, want mixed: two distinct registered models", tree.Kind)
	}
}

func TestClassifyNestedLists(t *testing.T) {
	res := resolver.New(nil)
	tree, err := res.Classify(context.Background(), []any{
		[]any{1, 2},
		[]any{3},
	})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if tree.Kind != resolver.NodeList {
		t.Fatalf("kind = %q, want list of integer lists", tree.Kind)
	}
	if tree.Elem == nil || tree.Elem.Kind != model.FieldKindList {
		t.Fatalf("elem = %+v, want list type", tree.Elem)
	}
	if tree.Elem.Elem == nil || tree.Elem.Elem.Scalar != scalar.KindInteger {
		t.Fatalf("inner elem = %+v, want integer", tree.Elem.Elem)
	}
}
