package resolver_test

import (
	"context"
	"errors"
	"testing"

	"github.com/containerd/errdefs"

	"github.com/goliatone/go-formmodel/pkg/model"
	"github.com/goliatone/go-formmodel/pkg/registry"
	"github.com/goliatone/go-formmodel/pkg/resolver"
	"github.com/goliatone/go-formmodel/pkg/scalar"
	"github.com/goliatone/go-formmodel/pkg/testsupport"
)

func mustChild(t *testing.T, d *resolver.Descriptor, name string) *resolver.Descriptor {
	t.Helper()
	child, ok := d.Child(name)
	if !ok {
		t.Fatalf("descriptor %q has no child %q", d.Path, name)
	}
	return child
}

func TestResolveInfersAnonymousModel(t *testing.T) {
	res := resolver.New(nil)
	tree, err := res.Resolve(context.Background(), map[string]any{
		"name":   "F1",
		"number": 1,
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if tree.Kind != resolver.NodeNested || !tree.Anonymous {
		t.Fatalf("root = %+v, want anonymous nested node", tree)
	}
	if tree.Model != "anonymous1" {
		t.Fatalf("root model = %q, want anonymous1", tree.Model)
	}

	name := mustChild(t, tree, "name")
	if name.Kind != resolver.NodeScalar || name.Scalar != scalar.KindText || name.Value != "F1" {
		t.Fatalf("name = %+v, want text scalar F1", name)
	}
	number := mustChild(t, tree, "number")
	if number.Kind != resolver.NodeScalar || number.Scalar != scalar.KindInteger || number.Value != 1 {
		t.Fatalf("number = %+v, want integer scalar 1", number)
	}
	if len(tree.Errs()) != 0 {
		t.Fatalf("unexpected field errors: %v", tree.Errs())
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	res := resolver.New(testsupport.NewUserRegistry(t))
	first, err := res.Resolve(context.Background(), testsupport.SampleSystem())
	if err != nil {
		t.Fatalf("first Resolve: %v", err)
	}
	second, err := res.Resolve(context.Background(), testsupport.SampleSystem())
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if diff := testsupport.DiffDescriptors(first, second); diff != "" {
		t.Fatalf("repeated resolution diverged (-first +second):\n%s", diff)
	}
}

func TestResolveRegisteredTagWins(t *testing.T) {
	res := resolver.New(testsupport.NewUserRegistry(t))
	value := map[string]any{
		"admin":    model.NewInstance("User", map[string]any{"name": "F1", "number": 1}),
		"location": "Bytes Av, 16",
	}
	tree, err := res.Resolve(context.Background(), value)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	admin := mustChild(t, tree, "admin")
	if admin.Kind != resolver.NodeNested || admin.Model != "User" || admin.Anonymous {
		t.Fatalf("admin = %+v, want registered User node", admin)
	}
	if got := mustChild(t, admin, "name").Value; got != "F1" {
		t.Fatalf("admin.name = %v", got)
	}
	if mustChild(t, admin, "name").Path != "admin.name" {
		t.Fatalf("admin.name path = %q", mustChild(t, admin, "name").Path)
	}
}

func TestResolveUnregisteredTagSynthesizes(t *testing.T) {
	res := resolver.New(nil)
	tree, err := res.Resolve(context.Background(), model.NewInstance("Ghost", map[string]any{"name": "F1"}))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if tree.Model != "Ghost" || !tree.Anonymous {
		t.Fatalf("root = %+v, want synthesized Ghost node", tree)
	}
}

func TestResolveNestedUnregisteredTagInfers(t *testing.T) {
	res := resolver.New(nil)
	tree, err := res.Resolve(context.Background(), map[string]any{
		"admin": model.NewInstance("Ghost", map[string]any{"name": "F1", "number": 1}),
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if errs := tree.Errs(); len(errs) != 0 {
		t.Fatalf("unexpected field errors: %v", errs)
	}

	admin := mustChild(t, tree, "admin")
	if admin.Kind != resolver.NodeNested || admin.Model != "Ghost" || !admin.Anonymous {
		t.Fatalf("admin = %+v, want synthesized Ghost node", admin)
	}
	if got := mustChild(t, admin, "name").Value; got != "F1" {
		t.Fatalf("admin.name = %v", got)
	}
	number := mustChild(t, admin, "number")
	if number.Scalar != scalar.KindInteger || number.Value != 1 {
		t.Fatalf("admin.number = %+v, want integer 1", number)
	}
}

func TestResolveSkipsUnderscoreFields(t *testing.T) {
	res := resolver.New(nil)
	tree, err := res.Resolve(context.Background(), map[string]any{
		"name":    "F1",
		"_secret": "hidden",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if tree.Len() != 1 {
		t.Fatalf("got %d children, want only name", tree.Len())
	}
	if _, ok := tree.Child("_secret"); ok {
		t.Fatal("underscore field leaked into the tree")
	}
}

func TestResolveScalarValue(t *testing.T) {
	res := resolver.New(nil)
	tree, err := res.Resolve(context.Background(), 42)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if tree.Kind != resolver.NodeScalar || tree.Scalar != scalar.KindInteger || tree.Value != 42 {
		t.Fatalf("root = %+v, want integer scalar", tree)
	}
}

func TestResolveNilValue(t *testing.T) {
	res := resolver.New(nil)
	if _, err := res.Resolve(context.Background(), nil); err == nil {
		t.Fatal("Resolve(nil) succeeded")
	}
}

func TestResolveAsDeclaredModel(t *testing.T) {
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
	if tree.Model != "System" || tree.Anonymous {
		t.Fatalf("root = %+v, want registered System node", tree)
	}

	// Declaration order, not map order.
	wantOrder := []string{"users", "location", "admin"}
	for i, want := range wantOrder {
		if tree.Children[i].Name != want {
			t.Fatalf("child %d = %q, want %q", i, tree.Children[i].Name, want)
		}
	}

	users := mustChild(t, tree, "users")
	if users.Kind != resolver.NodeList || users.Len() != 2 {
		t.Fatalf("users = %+v, want list of two", users)
	}
	first, _ := users.At(0)
	if first.Model != "User" || first.Anonymous {
		t.Fatalf("users[0] = %+v, want User node", first)
	}
	if got := mustChild(t, first, "name").Path; got != "users.0.name" {
		t.Fatalf("users[0].name path = %q", got)
	}

	admin := mustChild(t, tree, "admin")
	if admin.Model != "User" {
		t.Fatalf("admin resolved as %q", admin.Model)
	}
}

func TestResolveAsMissingFieldsBecomePlaceholders(t *testing.T) {
	res := resolver.New(nil)
	tree, err := res.ResolveAs(context.Background(), map[string]any{"name": "F1"}, testsupport.UserDefinition(t))
	if err != nil {
		t.Fatalf("ResolveAs: %v", err)
	}
	number := mustChild(t, tree, "number")
	if number.Kind != resolver.NodeScalar || number.Value != 0 || number.Err != nil {
		t.Fatalf("missing number = %+v, want empty integer placeholder", number)
	}
}

func TestResolveAsExtraFieldsAppendSorted(t *testing.T) {
	res := resolver.New(nil)
	tree, err := res.ResolveAs(context.Background(), map[string]any{
		"name":     "F1",
		"number":   1,
		"zebra":    true,
		"alias":    "f",
		"_private": "skip",
	}, testsupport.UserDefinition(t))
	if err != nil {
		t.Fatalf("ResolveAs: %v", err)
	}

	var names []string
	for _, child := range tree.Children {
		names = append(names, child.Name)
	}
	want := []string{"name", "number", "alias", "zebra"}
	if len(names) != len(want) {
		t.Fatalf("children = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("children = %v, want %v", names, want)
		}
	}
}

func TestResolveAsFieldErrorIsScoped(t *testing.T) {
	res := resolver.New(nil)
	tree, err := res.ResolveAs(context.Background(), map[string]any{
		"name":   "F1",
		"number": "seven",
	}, testsupport.UserDefinition(t))
	if err != nil {
		t.Fatalf("ResolveAs: %v", err)
	}

	number := mustChild(t, tree, "number")
	if number.Err == nil {
		t.Fatal("coercion failure not recorded on the field")
	}
	var tm *scalar.TypeMismatchError
	if !errors.As(number.Err, &tm) || tm.Field != "number" {
		t.Fatalf("number.Err = %v, want field-scoped mismatch", number.Err)
	}
	if number.Value != "seven" {
		t.Fatalf("errored field lost its original value: %v", number.Value)
	}
	if name := mustChild(t, tree, "name"); name.Err != nil {
		t.Fatalf("sibling affected by field error: %v", name.Err)
	}
	if len(tree.Errs()) != 1 {
		t.Fatalf("Errs = %v, want exactly one", tree.Errs())
	}
}

func TestResolveAsTagOverridesDeclaredModel(t *testing.T) {
	reg := testsupport.NewUserRegistry(t)
	res := resolver.New(reg)

	other := model.NewBuilder("Account").
		Scalar("balance", scalar.KindFloat).
		MustBuild()
	value := model.NewInstance("User", map[string]any{"name": "F1", "number": 1})

	tree, err := res.ResolveAs(context.Background(), value, other)
	if err != nil {
		t.Fatalf("ResolveAs: %v", err)
	}
	if tree.Model != "User" {
		t.Fatalf("resolved as %q, want the registered tag to win", tree.Model)
	}
}

func TestResolveAsListModel(t *testing.T) {
	reg := testsupport.NewUserRegistry(t)
	res := resolver.New(reg)
	userType := model.ModelType("User")
	def := model.ListOf("UserList", userType)

	tree, err := res.ResolveAs(context.Background(), []any{
		map[string]any{"name": "F1", "number": 1},
	}, def)
	if err != nil {
		t.Fatalf("ResolveAs: %v", err)
	}
	if tree.Kind != resolver.NodeList || tree.Elem == nil || !tree.Elem.Equal(userType) {
		t.Fatalf("root = %+v, want User list", tree)
	}
	first, _ := tree.At(0)
	if first.Model != "User" {
		t.Fatalf("element resolved as %q", first.Model)
	}

	if _, err := res.ResolveAs(context.Background(), map[string]any{}, def); err == nil {
		t.Fatal("mapping accepted for a list model")
	}
}

func TestResolveAsRejectsScalarValue(t *testing.T) {
	res := resolver.New(nil)
	if _, err := res.ResolveAs(context.Background(), 42, testsupport.UserDefinition(t)); err == nil {
		t.Fatal("scalar value accepted against a field model")
	}
}

func TestResolveFieldReferencingUnknownModel(t *testing.T) {
	res := resolver.New(nil)
	def := model.NewBuilder("Holder").
		Model("owner", "Ghost").
		MustBuild()
	tree, err := res.ResolveAs(context.Background(), map[string]any{
		"owner": map[string]any{"name": "F1"},
	}, def)
	if err != nil {
		t.Fatalf("ResolveAs: %v", err)
	}
	owner := mustChild(t, tree, "owner")
	if owner.Err == nil || !errdefs.IsNotFound(owner.Err) {
		t.Fatalf("owner.Err = %v, want not found", owner.Err)
	}
}

func TestNewListElement(t *testing.T) {
	reg := testsupport.NewUserRegistry(t)
	res := resolver.New(reg)

	t.Run("scalar element", func(t *testing.T) {
		elem := model.ScalarType(scalar.KindInteger)
		got, err := res.NewListElement(&resolver.Descriptor{Kind: resolver.NodeList, Elem: &elem})
		if err != nil {
			t.Fatalf("NewListElement: %v", err)
		}
		if got != 0 {
			t.Fatalf("got %v, want zero integer", got)
		}
	})

	t.Run("registered model element", func(t *testing.T) {
		elem := model.ModelType("User")
		got, err := res.NewListElement(&resolver.Descriptor{Kind: resolver.NodeList, Elem: &elem})
		if err != nil {
			t.Fatalf("NewListElement: %v", err)
		}
		instance, ok := got.(*model.Instance)
		if !ok || instance.ModelName() != "User" {
			t.Fatalf("got %T %v, want User instance", got, got)
		}
		if instance.Values["name"] != "" || instance.Values["number"] != 0 {
			t.Fatalf("instance fields = %v, want zero values", instance.Values)
		}
	})

	t.Run("undetermined element type", func(t *testing.T) {
		_, err := res.NewListElement(&resolver.Descriptor{Kind: resolver.NodeList})
		if !errors.Is(err, resolver.ErrAmbiguousInnerType) {
			t.Fatalf("err = %v, want ErrAmbiguousInnerType", err)
		}
		if !errdefs.IsFailedPrecondition(err) {
			t.Fatalf("err should classify as failed precondition: %v", err)
		}
	})

	t.Run("not a list", func(t *testing.T) {
		if _, err := res.NewListElement(&resolver.Descriptor{Kind: resolver.NodeScalar}); err == nil {
			t.Fatal("scalar descriptor accepted")
		}
	})
}

func TestRegistryChangesDoNotLeakIntoOldTrees(t *testing.T) {
	reg := registry.New()
	res := resolver.New(reg)

	before, err := res.Resolve(context.Background(), map[string]any{"name": "F1"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !before.Anonymous {
		t.Fatalf("root = %+v, want anonymous before registration", before)
	}

	reg.MustRegister(testsupport.UserDefinition(t))

	after, err := res.Resolve(context.Background(), model.NewInstance("User", map[string]any{"name": "F1", "number": 1}))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if after.Anonymous || after.Model != "User" {
		t.Fatalf("root = %+v, want registered User after registration", after)
	}
}
