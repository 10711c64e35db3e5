package ecs

import (
	"fmt"
	"iter"
)

// Column stores one component type for a set of entities. Slot i of the entity
// index and slot i of the value store always describe the same entity.
//
// Like DenseStore, a Column is not safe for concurrent mutation.
type Column[T any] struct {
	index  EntityIndex
	values *DenseStore[T]
}

// NewColumn returns an empty column. Options are applied to the value store.
func NewColumn[T any](opts ...StoreOption[T]) *Column[T] {
	return &Column[T]{
		values: NewDenseStore(opts...),
	}
}

// Insert stores v for e. If e already has a value it is destroyed and replaced
// in place; the result is false in that case.
func (c *Column[T]) Insert(e EntityId, v T) bool {
	if slot, ok := c.index.Get(e); ok {
		c.values.Set(slot, v)
		return false
	}
	c.values.Push(v)
	c.index.Insert(e)
	return true
}

// Get returns a copy of e's value.
func (c *Column[T]) Get(e EntityId) (T, bool) {
	slot, ok := c.index.Get(e)
	if !ok {
		var zero T
		return zero, false
	}
	return c.values.Get(slot)
}

// GetMut returns a pointer to e's value, or nil if e is absent. The pointer is
// invalidated by the next Insert or Remove on the column.
func (c *Column[T]) GetMut(e EntityId) *T {
	slot, ok := c.index.Get(e)
	if !ok {
		return nil
	}
	return c.values.GetMut(slot)
}

// Contains reports whether e has a value in the column.
func (c *Column[T]) Contains(e EntityId) bool {
	return c.index.Contains(e)
}

// SlotOf returns the dense slot holding e's value.
func (c *Column[T]) SlotOf(e EntityId) (int, bool) {
	return c.index.Get(e)
}

// Remove deletes e's value, destroying it. It reports whether e was present.
func (c *Column[T]) Remove(e EntityId) bool {
	slot, ok := c.index.Remove(e)
	if !ok {
		return false
	}
	c.values.SwapDelete(slot)
	return true
}

// Len returns the number of entities in the column.
func (c *Column[T]) Len() int {
	return c.index.Len()
}

// Entities returns the entities in slot order, parallel to Values.
func (c *Column[T]) Entities() []EntityId {
	return c.index.Entities()
}

// Values returns the live values in slot order, parallel to Entities.
func (c *Column[T]) Values() []T {
	return c.values.Slice()
}

// ValuesMut returns the live values for in-place bulk updates.
func (c *Column[T]) ValuesMut() []T {
	return c.values.SliceMut()
}

// Iter yields each entity with a copy of its value in slot order.
func (c *Column[T]) Iter() iter.Seq2[EntityId, T] {
	return func(yield func(EntityId, T) bool) {
		entities := c.index.Entities()
		values := c.values.Slice()
		for i, e := range entities {
			if !yield(e, values[i]) {
				return
			}
		}
	}
}

// IterMut yields each entity with a pointer to its value in slot order. The
// column must not be structurally modified during iteration.
func (c *Column[T]) IterMut() iter.Seq2[EntityId, *T] {
	return func(yield func(EntityId, *T) bool) {
		entities := c.index.Entities()
		values := c.values.SliceMut()
		for i, e := range entities {
			if !yield(e, &values[i]) {
				return
			}
		}
	}
}

// Reserve ensures room for additional more values without growing.
func (c *Column[T]) Reserve(additional int) {
	c.values.Reserve(additional)
}

// Clear destroys every value and empties the column. Capacity is kept.
func (c *Column[T]) Clear() {
	c.index.Clear()
	c.values.Clear()
}

// Release clears the column and gives up the value buffer.
func (c *Column[T]) Release() {
	c.index.Clear()
	c.values.Release()
}

// TypeInfo returns the descriptor of the component type.
func (c *Column[T]) TypeInfo() TypeInfo {
	return c.values.TypeInfo()
}

// Validate checks that the entity index is consistent and in lockstep with
// the value store.
func (c *Column[T]) Validate() error {
	if err := c.index.Validate(); err != nil {
		return fmt.Errorf("column %s: %w", c.values.info.Type, err)
	}
	if c.index.Len() != c.values.Len() {
		return fmt.Errorf("column %s: index holds %d entities, store holds %d values",
			c.values.info.Type, c.index.Len(), c.values.Len())
	}
	return nil
}

// Stats returns a snapshot of the column's size.
func (c *Column[T]) Stats() ColumnStats {
	return ColumnStats{
		Type:      c.values.info.Type.String(),
		Len:       c.values.Len(),
		Cap:       c.values.Cap(),
		SparseLen: c.index.SparseLen(),
		NeedsDrop: c.values.info.NeedsDrop,
	}
}

// AnyColumn is the type-erased view of a Column used by registries and
// schedulers that hold columns of many types.
type AnyColumn interface {
	TypeInfo() TypeInfo
	InsertAny(e EntityId, v any) bool
	GetAny(e EntityId) any
	Contains(e EntityId) bool
	Remove(e EntityId) bool
	Len() int
	Entities() []EntityId
	Clear()
	Release()
	Validate() error
	Stats() ColumnStats
}

var _ AnyColumn = (*Column[int])(nil)

// InsertAny stores v, which must be a T or *T, for e.
func (c *Column[T]) InsertAny(e EntityId, v any) bool {
	return c.Insert(e, c.values.mustValue(v))
}

// GetAny returns a *T for e's value, or nil if e is absent.
func (c *Column[T]) GetAny(e EntityId) any {
	ptr := c.GetMut(e)
	if ptr == nil {
		return nil
	}
	return ptr
}
