package ecs

import "fmt"

const minStoreCapacity = 4

// StoreOption configures a DenseStore or a Column at construction.
type StoreOption[T any] func(*storeConfig[T])

type storeConfig[T any] struct {
	capacity int
	drop     func(*T)
}

// WithCapacity pre-sizes the backing buffer for n elements.
func WithCapacity[T any](n int) StoreOption[T] {
	return func(c *storeConfig[T]) {
		c.capacity = n
	}
}

// WithDrop installs a destructor that runs whenever a live value is discarded.
// It replaces the Drop method of T if T has one.
func WithDrop[T any](fn func(*T)) StoreOption[T] {
	return func(c *storeConfig[T]) {
		c.drop = fn
	}
}

// DenseStore is a growable contiguous buffer holding values of exactly one type.
// Elements in [0, Len) are live. The buffer between Len and Cap is never read
// and is kept zeroed.
//
// Slices and pointers returned by Slice, SliceMut and GetMut are invalidated by
// any Push or Reserve that grows the buffer.
//
// A DenseStore has no internal synchronization; callers must exclude concurrent
// writers.
type DenseStore[T any] struct {
	data []T
	info TypeInfo
	drop func(*T)
}

// NewDenseStore returns an empty store. No memory is allocated unless
// WithCapacity is given.
func NewDenseStore[T any](opts ...StoreOption[T]) *DenseStore[T] {
	var cfg storeConfig[T]
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &DenseStore[T]{
		info: TypeInfoOf[T](),
		drop: cfg.drop,
	}
	if s.drop == nil {
		s.drop = dropFuncFor[T]()
	}
	s.info.NeedsDrop = s.drop != nil

	if cfg.capacity > 0 {
		s.data = make([]T, 0, cfg.capacity)
	}
	return s
}

// TypeInfo returns the descriptor of the stored type.
func (s *DenseStore[T]) TypeInfo() TypeInfo {
	return s.info
}

// Len returns the number of live elements.
func (s *DenseStore[T]) Len() int {
	return len(s.data)
}

// Cap returns the number of elements the buffer holds without growing.
func (s *DenseStore[T]) Cap() int {
	return cap(s.data)
}

// Reserve ensures room for at least additional more elements. When the buffer
// must grow, the new capacity is max(Len+additional, Cap*2, 4).
func (s *DenseStore[T]) Reserve(additional int) {
	if additional <= 0 {
		return
	}
	need := len(s.data) + additional
	if need <= cap(s.data) {
		return
	}
	newCap := max(need, cap(s.data)*2, minStoreCapacity)
	grown := make([]T, len(s.data), newCap)
	copy(grown, s.data)
	clear(s.data)
	s.data = grown
}

// Push appends v.
func (s *DenseStore[T]) Push(v T) {
	if len(s.data) == cap(s.data) {
		s.Reserve(1)
	}
	n := len(s.data)
	s.data = s.data[:n+1]
	s.data[n] = v
}

// Get returns a copy of the element at index.
func (s *DenseStore[T]) Get(index int) (T, bool) {
	if index < 0 || index >= len(s.data) {
		var zero T
		return zero, false
	}
	return s.data[index], true
}

// GetMut returns a pointer to the element at index, or nil if out of range.
func (s *DenseStore[T]) GetMut(index int) *T {
	if index < 0 || index >= len(s.data) {
		return nil
	}
	return &s.data[index]
}

// Slice returns the live elements. The result must not be modified or retained
// across a growing call.
func (s *DenseStore[T]) Slice() []T {
	return s.data[:len(s.data):len(s.data)]
}

// SliceMut returns the live elements for in-place updates.
func (s *DenseStore[T]) SliceMut() []T {
	return s.data[:len(s.data):len(s.data)]
}

// Set replaces the element at index, destroying the previous value.
func (s *DenseStore[T]) Set(index int, v T) bool {
	if index < 0 || index >= len(s.data) {
		return false
	}
	if s.drop != nil {
		s.drop(&s.data[index])
	}
	s.data[index] = v
	return true
}

// SwapRemove moves the last element into index and returns the value that was
// there. The returned value is handed to the caller and is not destroyed.
func (s *DenseStore[T]) SwapRemove(index int) (T, bool) {
	if index < 0 || index >= len(s.data) {
		var zero T
		return zero, false
	}
	last := len(s.data) - 1
	removed := s.data[index]
	if index != last {
		s.data[index] = s.data[last]
	}
	var zero T
	s.data[last] = zero
	s.data = s.data[:last]
	return removed, true
}

// SwapDelete is SwapRemove followed by destruction of the removed value.
func (s *DenseStore[T]) SwapDelete(index int) bool {
	removed, ok := s.SwapRemove(index)
	if !ok {
		return false
	}
	if s.drop != nil {
		s.drop(&removed)
	}
	return true
}

// Clear destroys every live element and sets Len to zero. Capacity is kept.
func (s *DenseStore[T]) Clear() {
	if s.drop != nil {
		for i := range s.data {
			s.drop(&s.data[i])
		}
	}
	clear(s.data)
	s.data = s.data[:0]
}

// Release clears the store and gives up its buffer.
func (s *DenseStore[T]) Release() {
	s.Clear()
	s.data = nil
}

// AnyStore is the type-erased view of a DenseStore. Passing a value of a type
// other than the store's element type is a programming error and panics.
type AnyStore interface {
	TypeInfo() TypeInfo
	Len() int
	Cap() int
	Reserve(additional int)
	PushAny(v any)
	GetAny(index int) any
	SwapRemoveAny(index int) (any, bool)
	Clear()
	Release()
}

var _ AnyStore = (*DenseStore[int])(nil)

// PushAny appends v, which must be a T or *T.
func (s *DenseStore[T]) PushAny(v any) {
	s.Push(s.mustValue(v))
}

// GetAny returns a *T for the element at index, or nil if out of range.
func (s *DenseStore[T]) GetAny(index int) any {
	ptr := s.GetMut(index)
	if ptr == nil {
		return nil
	}
	return ptr
}

// SwapRemoveAny is the type-erased SwapRemove.
func (s *DenseStore[T]) SwapRemoveAny(index int) (any, bool) {
	v, ok := s.SwapRemove(index)
	if !ok {
		return nil, false
	}
	return v, true
}

func (s *DenseStore[T]) mustValue(v any) T {
	switch val := v.(type) {
	case T:
		return val
	case *T:
		if val != nil {
			return *val
		}
	}
	panic(fmt.Sprintf("ecs: store of %s cannot hold %T", s.info.Type, v))
}
