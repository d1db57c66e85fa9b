package resolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/containerd/errdefs"

	"github.com/goliatone/go-formmodel/pkg/scalar"
)

// SetValue re-validates a single scalar field against its resolved kind and
// updates the descriptor snapshot, without re-resolving the tree. Paths are
// dotted field names with numeric segments for list elements and posN
// segments for mixed collection elements ("users.0.name", "items.pos1").
// There is no escaping: a field whose own name contains a dot is not
// addressable through a path. A failed coercion returns a
// *scalar.TypeMismatchError and leaves the descriptor unchanged.
func SetValue(root *Descriptor, path string, value any) error {
	if root == nil {
		return errors.New("resolver: descriptor is required")
	}
	target, err := Lookup(root, path)
	if err != nil {
		return err
	}
	if target.Kind != NodeScalar {
		return fmt.Errorf("resolver: path %q is not a scalar field: %w", path, errdefs.ErrInvalidArgument)
	}

	coerced, err := scalar.Coerce(target.Scalar, value)
	if err != nil {
		var tm *scalar.TypeMismatchError
		if errors.As(err, &tm) {
			tm.Field = target.Path
		}
		return err
	}

	target.Value = coerced
	target.Err = nil
	return nil
}

// Lookup navigates a dotted path from root and returns the descriptor node
// it addresses. An empty path returns the root. Segments split on every
// dot, so field names containing dots cannot be addressed.
func Lookup(root *Descriptor, path string) (*Descriptor, error) {
	if root == nil {
		return nil, errors.New("resolver: descriptor is required")
	}
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return root, nil
	}

	current := root
	for _, segment := range strings.Split(trimmed, ".") {
		if segment == "" {
			return nil, fmt.Errorf("resolver: path %q has an empty segment: %w", path, errdefs.ErrInvalidArgument)
		}
		child, ok := current.Child(segment)
		if !ok {
			return nil, fmt.Errorf("resolver: path %q not found below %q: %w", path, current.Path, errdefs.ErrNotFound)
		}
		current = child
	}
	return current, nil
}
