// Package testsupport provides shared fixtures and comparison helpers for
// contract tests across the module.
package testsupport

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formmodel/pkg/model"
	"github.com/goliatone/go-formmodel/pkg/registry"
	"github.com/goliatone/go-formmodel/pkg/resolver"
	"github.com/goliatone/go-formmodel/pkg/scalar"
)

// UserDefinition declares the canonical User model used across tests:
// a text name, an integer number, and two templates.
func UserDefinition(t *testing.T) model.Definition {
	t.Helper()
	def, err := model.NewBuilder("User").
		Scalar("name", scalar.KindText).
		Scalar("number", scalar.KindInteger).
		Template("user1", model.Template{"name": "F1", "number": 1}).
		Template("user2", model.Template{"name": "F2", "number": 2}).
		Build()
	if err != nil {
		t.Fatalf("build User: %v", err)
	}
	return def
}

// SystemDefinition declares a System model nesting User both directly and
// through a list.
func SystemDefinition(t *testing.T) model.Definition {
	t.Helper()
	userType := model.ModelType("User")
	def, err := model.NewBuilder("System").
		List("users", userType).
		Scalar("location", scalar.KindText).
		Model("admin", "User").
		Build()
	if err != nil {
		t.Fatalf("build System: %v", err)
	}
	return def
}

// NewUserRegistry returns a registry pre-populated with User and System.
func NewUserRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	for _, def := range []model.Definition{UserDefinition(t), SystemDefinition(t)} {
		if err := reg.Register(def.Name, def); err != nil {
			t.Fatalf("register %s: %v", def.Name, err)
		}
	}
	return reg
}

// SampleSystem is the untyped value the module documentation edits: a list
// of users, a location string, and an admin entity.
func SampleSystem() map[string]any {
	return map[string]any{
		"users": []any{
			map[string]any{"name": "F1", "number": 1},
			map[string]any{"name": "F2", "number": 2},
		},
		"location": "Bytes Av, 16",
		"admin":    map[string]any{"name": "F1", "number": 1},
	}
}

// DiffDescriptors reports a human-readable structural diff of two trees.
// Field-scoped errors compare by message so wrapped sentinels do not trip
// the comparison.
func DiffDescriptors(a, b *resolver.Descriptor) string {
	return cmp.Diff(a, b, cmp.Comparer(func(x, y error) bool {
		if x == nil || y == nil {
			return x == y
		}
		return x.Error() == y.Error()
	}))
}
