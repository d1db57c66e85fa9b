package resolver_test

import (
	"context"
	"errors"
	"testing"

	"github.com/containerd/errdefs"

	"github.com/goliatone/go-formmodel/pkg/resolver"
	"github.com/goliatone/go-formmodel/pkg/scalar"
	"github.com/goliatone/go-formmodel/pkg/testsupport"
)

func resolveSampleSystem(t *testing.T) *resolver.Descriptor {
	t.Helper()
	reg := testsupport.NewUserRegistry(t)
	res := resolver.New(reg)
	system, err := reg.Lookup("System")
	if err != nil {
		t.Fatalf("Lookup System: %v", err)
	}
	tree, err := res.ResolveAs(context.Background(), testsupport.SampleSystem(), system)
	if err != nil {
		t.Fatalf("ResolveAs: %v", err)
	}
	return tree
}

func TestSetValue(t *testing.T) {
	tree := resolveSampleSystem(t)

	if err := resolver.SetValue(tree, "users.0.name", "Updated"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	node, err := resolver.Lookup(tree, "users.0.name")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if node.Value != "Updated" {
		t.Fatalf("value = %v, want Updated", node.Value)
	}
}

func TestSetValueCoercesInput(t *testing.T) {
	tree := resolveSampleSystem(t)

	if err := resolver.SetValue(tree, "users.1.number", "12"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	node, _ := resolver.Lookup(tree, "users.1.number")
	if node.Value != 12 {
		t.Fatalf("value = %v (%T), want coerced int 12", node.Value, node.Value)
	}
}

func TestSetValueTypeMismatchLeavesDescriptorUntouched(t *testing.T) {
	tree := resolveSampleSystem(t)

	err := resolver.SetValue(tree, "users.0.number", "seven")
	var tm *scalar.TypeMismatchError
	if !errors.As(err, &tm) {
		t.Fatalf("err = %v, want type mismatch", err)
	}
	if tm.Field != "users.0.number" {
		t.Fatalf("mismatch field = %q", tm.Field)
	}
	node, _ := resolver.Lookup(tree, "users.0.number")
	if node.Value != 1 {
		t.Fatalf("failed SetValue mutated the descriptor: %v", node.Value)
	}
}

func TestSetValueClearsFieldError(t *testing.T) {
	reg := testsupport.NewUserRegistry(t)
	res := resolver.New(reg)
	user, _ := reg.Lookup("User")
	tree, err := res.ResolveAs(context.Background(), map[string]any{
		"name":   "F1",
		"number": "seven",
	}, user)
	if err != nil {
		t.Fatalf("ResolveAs: %v", err)
	}
	node, _ := resolver.Lookup(tree, "number")
	if node.Err == nil {
		t.Fatal("expected a field error before the fix")
	}

	if err := resolver.SetValue(tree, "number", 5); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if node.Err != nil || node.Value != 5 {
		t.Fatalf("node = %+v, want error cleared and value 5", node)
	}
}

func TestSetValuePathErrors(t *testing.T) {
	tree := resolveSampleSystem(t)

	err := resolver.SetValue(tree, "users.9.name", "x")
	if !errdefs.IsNotFound(err) {
		t.Fatalf("missing path = %v, want not found", err)
	}

	err = resolver.SetValue(tree, "users.0", map[string]any{})
	if !errdefs.IsInvalidArgument(err) {
		t.Fatalf("non-scalar target = %v, want invalid argument", err)
	}

	err = resolver.SetValue(tree, "users..name", "x")
	if !errdefs.IsInvalidArgument(err) {
		t.Fatalf("empty segment = %v, want invalid argument", err)
	}
}

func TestLookupRoot(t *testing.T) {
	tree := resolveSampleSystem(t)
	node, err := resolver.Lookup(tree, "")
	if err != nil || node != tree {
		t.Fatalf("Lookup root = (%v, %v)", node, err)
	}
}
