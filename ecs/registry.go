package ecs

import "reflect"

// ComponentRegistry manages component type registration for a Storage.
// Each Storage has its own registry, so independent worlds can coexist.
type ComponentRegistry struct {
	factories map[reflect.Type]func() AnyColumn
}

// NewComponentRegistry creates a new component registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		factories: make(map[reflect.Type]func() AnyColumn),
	}
}

// RegisterComponent registers T with the registry. Options are applied to every
// column created for T. Registering the same type again replaces its options.
func RegisterComponent[T any](r *ComponentRegistry, opts ...StoreOption[T]) {
	r.factories[reflect.TypeFor[T]()] = func() AnyColumn {
		return NewColumn(opts...)
	}
}

// IsRegistered reports whether t has been registered.
func (r *ComponentRegistry) IsRegistered(t reflect.Type) bool {
	_, ok := r.factories[t]
	return ok
}

// getFactory returns the column factory for t, or nil if t is not registered.
func (r *ComponentRegistry) getFactory(t reflect.Type) func() AnyColumn {
	return r.factories[t]
}
