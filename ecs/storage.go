package ecs

import (
	"errors"
	"fmt"
	"reflect"
	"sort"

	"go.uber.org/zap"
)

type byTypeName []reflect.Type

func (a byTypeName) Len() int           { return len(a) }
func (a byTypeName) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a byTypeName) Less(i, j int) bool { return a[i].String() < a[j].String() }

// Storage holds one column per registered component type. Columns are created
// on first use and are independent of each other: an entity may appear in any
// subset of them.
type Storage struct {
	registry *ComponentRegistry
	columns  map[reflect.Type]AnyColumn
	order    []reflect.Type
	log      *zap.Logger
}

// StorageOption configures a Storage.
type StorageOption func(*Storage)

// WithLogger sets the logger used for column lifecycle and contract violations.
func WithLogger(log *zap.Logger) StorageOption {
	return func(s *Storage) {
		if log != nil {
			s.log = log
		}
	}
}

// NewStorage creates a new storage backed by the given component registry.
func NewStorage(registry *ComponentRegistry, opts ...StorageOption) *Storage {
	s := &Storage{
		registry: registry,
		columns:  make(map[reflect.Type]AnyColumn),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ColumnOf returns the typed column for T, creating it if needed. It panics if
// T is not registered.
func ColumnOf[T any](s *Storage) *Column[T] {
	col := s.columnFor(reflect.TypeFor[T]())
	typed, ok := col.(*Column[T])
	if !ok {
		s.fail("column type mismatch", reflect.TypeFor[T](), fmt.Sprintf("%T", col))
	}
	return typed
}

// Column returns the column for t, or nil if it has not been created yet.
func (s *Storage) Column(t reflect.Type) AnyColumn {
	return s.columns[t]
}

// Columns returns the component types that have a column, in type-name order.
func (s *Storage) Columns() []reflect.Type {
	return s.order[:len(s.order):len(s.order)]
}

// Insert stores component for e in the column of the component's type.
// Pointer components are dereferenced. It reports whether e was newly added.
func (s *Storage) Insert(e EntityId, component any) bool {
	t := componentType(component)
	return s.columnFor(t).InsertAny(e, component)
}

// Remove deletes e's component of type t.
func (s *Storage) Remove(e EntityId, t reflect.Type) bool {
	col := s.columns[t]
	if col == nil {
		return false
	}
	return col.Remove(e)
}

// GetComponent returns a pointer to e's component of type t, or nil.
func (s *Storage) GetComponent(e EntityId, t reflect.Type) any {
	col := s.columns[t]
	if col == nil {
		return nil
	}
	return col.GetAny(e)
}

// HasComponent checks if e has a component of type t.
func (s *Storage) HasComponent(e EntityId, t reflect.Type) bool {
	col := s.columns[t]
	return col != nil && col.Contains(e)
}

// Despawn removes e from every column and returns how many held it.
func (s *Storage) Despawn(e EntityId) int {
	removed := 0
	for _, t := range s.order {
		if s.columns[t].Remove(e) {
			removed++
		}
	}
	s.log.Debug("despawned entity", zap.Uint32("entity", uint32(e)), zap.Int("columns", removed))
	return removed
}

// Clear empties every column, keeping their buffers.
func (s *Storage) Clear() {
	for _, t := range s.order {
		s.columns[t].Clear()
	}
}

// Release empties every column and gives up their buffers.
func (s *Storage) Release() {
	for _, t := range s.order {
		s.columns[t].Release()
	}
}

// Validate checks every column's invariants.
func (s *Storage) Validate() error {
	var errs []error
	for _, t := range s.order {
		if err := s.columns[t].Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Storage) columnFor(t reflect.Type) AnyColumn {
	if col, ok := s.columns[t]; ok {
		return col
	}
	factory := s.registry.getFactory(t)
	if factory == nil {
		s.fail("component type not registered", t, "")
	}
	col := factory()
	s.columns[t] = col
	s.order = append(s.order, t)
	sort.Sort(byTypeName(s.order))
	s.log.Debug("created column", zap.Stringer("type", col.TypeInfo()))
	return col
}

func (s *Storage) fail(msg string, t reflect.Type, detail string) {
	s.log.Error(msg, zap.Stringer("type", t), zap.String("detail", detail))
	panic("ecs: " + msg + ": " + t.String())
}

// componentType returns the component type of v, looking through one pointer.
func componentType(v any) reflect.Type {
	t := reflect.TypeOf(v)
	if t == nil {
		panic("ecs: nil component")
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// ComponentReader is implemented by anything that can look up a component by
// entity and type.
type ComponentReader interface {
	GetComponent(EntityId, reflect.Type) any
}

// ReadComponent returns a pointer to e's component of type T, or nil.
func ReadComponent[T any](reader ComponentReader, e EntityId) *T {
	v, _ := reader.GetComponent(e, reflect.TypeFor[T]()).(*T)
	return v
}
