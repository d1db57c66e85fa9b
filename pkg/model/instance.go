package model

// Tagged is implemented by values that carry an explicit model identity.
// The resolver checks this tag against the registry before any inference:
// a recognized name always wins over a declared or inferred shape.
type Tagged interface {
	// ModelName returns the declared model name the value claims.
	ModelName() string
	// FieldValues returns the value's fields keyed by field name.
	FieldValues() map[string]any
}

// Instance pairs a model identity with field values. It is the canonical
// Tagged implementation: hosts construct one per typed entity instead of
// relying on reflection over their own types.
type Instance struct {
	Model  string
	Values map[string]any
}

// NewInstance builds a tagged instance. A nil values map is replaced with
// an empty one so callers can populate fields afterwards.
func NewInstance(modelName string, values map[string]any) *Instance {
	if values == nil {
		values = make(map[string]any)
	}
	return &Instance{Model: modelName, Values: values}
}

// ModelName implements Tagged.
func (i *Instance) ModelName() string { return i.Model }

// FieldValues implements Tagged.
func (i *Instance) FieldValues() map[string]any { return i.Values }

// Set assigns a field value and returns the instance for chaining.
func (i *Instance) Set(name string, value any) *Instance {
	i.Values[name] = value
	return i
}

// Get returns a field value and whether it is present.
func (i *Instance) Get(name string) (any, bool) {
	value, ok := i.Values[name]
	return value, ok
}
