// Package registry stores declared model definitions by name for the
// lifetime of the process. The registry is append-only: definitions are
// never replaced or removed once registered.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/containerd/errdefs"

	"github.com/goliatone/go-formmodel/pkg/model"
)

// ErrDuplicateModel indicates an attempt to re-register a name with a
// different definition. Re-registering an identical definition succeeds.
var ErrDuplicateModel = fmt.Errorf("registry: conflicting model registration: %w", errdefs.ErrAlreadyExists)

// Registry maps declared model names to their definitions. Inserts are
// serialized; lookups only take the read lock.
type Registry struct {
	mu     sync.RWMutex
	models map[string]model.Definition
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{models: make(map[string]model.Definition)}
}

// Register stores def under name. A name already registered with a
// different definition fails with ErrDuplicateModel; registering the
// identical definition again is idempotent.
func (r *Registry) Register(name string, def model.Definition) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("registry: model name is required")
	}
	if def.Name != "" && def.Name != name {
		return fmt.Errorf("registry: definition name %q does not match registration name %q", def.Name, name)
	}
	def.Name = name

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.models[name]; ok {
		if existing.Equal(def) {
			return nil
		}
		return fmt.Errorf("model %q: %w", name, ErrDuplicateModel)
	}
	r.models[name] = def
	return nil
}

// MustRegister panics on registration failure; intended for declaration
// blocks in host init code.
func (r *Registry) MustRegister(def model.Definition) {
	if err := r.Register(def.Name, def); err != nil {
		panic(err)
	}
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (model.Definition, error) {
	key := strings.TrimSpace(name)
	if key == "" {
		return model.Definition{}, errors.New("registry: model name is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.models[key]
	if !ok {
		return model.Definition{}, fmt.Errorf("registry: model %q: %w", key, errdefs.ErrNotFound)
	}
	return def, nil
}

// Has reports whether a model is registered under name.
func (r *Registry) Has(name string) bool {
	key := strings.TrimSpace(name)
	if key == "" {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.models[key]
	return ok
}

// List returns the registered model names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
