package tui

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/goliatone/go-formmodel/pkg/model"
	"github.com/goliatone/go-formmodel/pkg/resolver"
	"github.com/goliatone/go-formmodel/pkg/scalar"
	"github.com/goliatone/go-formmodel/pkg/template"
)

const keepEditingOption = "(edit fields)"

// Editor drives an interactive editing session over a descriptor tree. It
// is a reference consumer of the resolver's outbound contract: prompts per
// scalar leaf, template pre-fill on models that declare templates, and
// add/edit/remove flows on homogeneous lists.
type Editor struct {
	driver   PromptDriver
	resolver *resolver.Resolver
	applier  *template.Applier
}

// NewEditor builds an editor over the given resolver. A nil driver falls
// back to the survey-backed terminal driver.
func NewEditor(res *resolver.Resolver, driver PromptDriver) (*Editor, error) {
	if res == nil {
		return nil, errors.New("tui: resolver is required")
	}
	if driver == nil {
		driver = NewSurveyDriver()
	}
	return &Editor{
		driver:   driver,
		resolver: res,
		applier:  template.New(res.Registry()),
	}, nil
}

// Edit resolves value, walks the tree interactively, and returns the edited
// value. The input is never mutated.
func (e *Editor) Edit(ctx context.Context, value any) (any, error) {
	desc, err := e.resolver.Resolve(ctx, value)
	if err != nil {
		return nil, err
	}
	return e.editValue(ctx, desc)
}

// EditAs resolves value against a declared definition before editing.
func (e *Editor) EditAs(ctx context.Context, value any, def model.Definition) (any, error) {
	desc, err := e.resolver.ResolveAs(ctx, value, def)
	if err != nil {
		return nil, err
	}
	return e.editValue(ctx, desc)
}

func (e *Editor) editValue(ctx context.Context, d *resolver.Descriptor) (any, error) {
	if d.Err != nil {
		if err := e.driver.Info(ctx, fmt.Sprintf("%s: %v", displayName(d), d.Err)); err != nil {
			return nil, err
		}
		if d.Kind == resolver.NodeScalar && d.Scalar.Valid() {
			return e.promptScalar(ctx, d)
		}
		return d.Value, nil
	}

	switch d.Kind {
	case resolver.NodeScalar:
		return e.promptScalar(ctx, d)
	case resolver.NodeNested:
		return e.editNested(ctx, d)
	case resolver.NodeList:
		return e.editList(ctx, d)
	case resolver.NodeMixed:
		return e.editMixed(ctx, d)
	default:
		return d.Value, nil
	}
}

func (e *Editor) promptScalar(ctx context.Context, d *resolver.Descriptor) (any, error) {
	if d.Scalar == scalar.KindBoolean {
		current, _ := d.Value.(bool)
		return e.driver.Confirm(ctx, ConfirmConfig{
			Message: displayName(d),
			Default: current,
		})
	}

	kind := d.Scalar
	out, err := e.driver.Input(ctx, InputConfig{
		Message: fmt.Sprintf("%s (%s)", displayName(d), kind),
		Default: formatScalar(kind, d.Value),
		Validator: func(raw string) error {
			return scalar.Validate(kind, raw)
		},
	})
	if err != nil {
		return nil, err
	}
	return scalar.Coerce(kind, out)
}

func (e *Editor) editNested(ctx context.Context, d *resolver.Descriptor) (any, error) {
	// Template selection replaces the instance wholesale and re-resolves,
	// then editing continues on the fresh tree.
	if !d.Anonymous && d.Model != "" {
		if def, err := e.resolver.Registry().Lookup(d.Model); err == nil && len(def.Templates) > 0 {
			replaced, err := e.offerTemplates(ctx, d, def)
			if err != nil {
				return nil, err
			}
			if replaced != nil {
				d = replaced
			}
		}
	}

	result := make(map[string]any, len(d.Children))
	for _, child := range d.Children {
		edited, err := e.editValue(ctx, child)
		if err != nil {
			return nil, err
		}
		result[child.Name] = edited
	}

	if !d.Anonymous && d.Model != "" {
		return model.NewInstance(d.Model, result), nil
	}
	return result, nil
}

func (e *Editor) offerTemplates(ctx context.Context, d *resolver.Descriptor, def model.Definition) (*resolver.Descriptor, error) {
	names := def.TemplateNames()
	sort.Strings(names)
	options := append([]string{keepEditingOption}, names...)

	choice, err := e.driver.Select(ctx, SelectConfig{
		Message: fmt.Sprintf("Pre-fill %s from template?", def.Name),
		Options: options,
	})
	if err != nil {
		return nil, err
	}
	if choice <= 0 {
		return nil, nil
	}

	instance, err := e.applier.Apply(def, names[choice-1])
	if err != nil {
		return nil, err
	}
	return e.resolver.ResolveAs(ctx, instance, def)
}

func (e *Editor) editList(ctx context.Context, d *resolver.Descriptor) (any, error) {
	values := snapshotElements(d)

	for {
		options := []string{"done", "add element"}
		for i := range values {
			options = append(options, fmt.Sprintf("edit element %d", i))
		}
		for i := range values {
			options = append(options, fmt.Sprintf("remove element %d", i))
		}

		choice, err := e.driver.Select(ctx, SelectConfig{
			Message: fmt.Sprintf("%s [%d elements]", displayName(d), len(values)),
			Options: options,
		})
		if err != nil {
			return nil, err
		}

		switch {
		case choice <= 0:
			return values, nil
		case choice == 1:
			element, err := e.newElement(ctx, d)
			if err != nil {
				return nil, err
			}
			values = append(values, element)
		case choice < 2+len(values):
			index := choice - 2
			child, ok := d.At(index)
			if !ok {
				continue
			}
			edited, err := e.editValue(ctx, child)
			if err != nil {
				return nil, err
			}
			values[index] = edited
		default:
			index := choice - 2 - len(values)
			values = append(values[:index], values[index+1:]...)
		}

		// Re-resolution after every mutation keeps element descriptors and
		// the inner type in step with the data; classification re-runs once
		// an empty list gains its first element.
		if d, err = e.resolveList(ctx, d.Elem, values); err != nil {
			return nil, err
		}
	}
}

func (e *Editor) newElement(ctx context.Context, d *resolver.Descriptor) (any, error) {
	element, err := e.resolver.NewListElement(d)
	if err == nil {
		return element, nil
	}
	if !errors.Is(err, resolver.ErrAmbiguousInnerType) {
		return nil, err
	}

	// Empty untyped list: the caller supplies the first element's kind.
	kinds := []string{
		string(scalar.KindText), string(scalar.KindInteger), string(scalar.KindLong),
		string(scalar.KindFloat), string(scalar.KindBoolean), string(scalar.KindComplex),
		string(scalar.KindDate), string(scalar.KindTime),
	}
	choice, err := e.driver.Select(ctx, SelectConfig{
		Message: "Element kind for empty list",
		Options: kinds,
	})
	if err != nil {
		return nil, err
	}
	if choice < 0 || choice >= len(kinds) {
		return nil, resolver.ErrAmbiguousInnerType
	}
	return scalar.Zero(scalar.Kind(kinds[choice])), nil
}

func (e *Editor) resolveList(ctx context.Context, elem *model.FieldType, values []any) (*resolver.Descriptor, error) {
	if elem == nil {
		return e.resolver.Classify(ctx, values)
	}
	return e.resolver.ResolveAs(ctx, values, model.Definition{Inner: elem})
}

// editMixed walks a fixed-length mixed collection: elements stay editable
// but none can be added or removed.
func (e *Editor) editMixed(ctx context.Context, d *resolver.Descriptor) (any, error) {
	if err := e.driver.Info(ctx, fmt.Sprintf("%s: mixed collection, length fixed at %d", displayName(d), d.Len())); err != nil {
		return nil, err
	}
	result := make([]any, 0, d.Len())
	for _, child := range d.Children {
		edited, err := e.editValue(ctx, child)
		if err != nil {
			return nil, err
		}
		result = append(result, edited)
	}
	return result, nil
}

func snapshotElements(d *resolver.Descriptor) []any {
	elements, _ := d.Value.([]any)
	out := make([]any, len(elements))
	copy(out, elements)
	return out
}

func displayName(d *resolver.Descriptor) string {
	if d.Path != "" {
		return d.Path
	}
	if d.Name != "" {
		return d.Name
	}
	return "value"
}

func formatScalar(kind scalar.Kind, value any) string {
	if value == nil {
		return ""
	}
	if ts, ok := value.(time.Time); ok {
		switch kind {
		case scalar.KindTime:
			return ts.Format("15:04:05")
		default:
			return ts.Format("2006-01-02")
		}
	}
	return fmt.Sprintf("%v", value)
}
