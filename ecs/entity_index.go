package ecs

import "fmt"

const absentSlot = -1

// EntityIndex maps entities to dense slots in O(1). The sparse array is indexed
// by the raw entity value and grows to fit the largest entity ever inserted; it
// never shrinks. The dense array lists present entities in slot order.
//
// Removal swaps the last entity into the vacated slot, so slot order is not
// insertion order once anything has been removed.
type EntityIndex struct {
	sparse []int
	dense  []EntityId
}

// NewEntityIndex returns an empty index.
func NewEntityIndex() *EntityIndex {
	return &EntityIndex{}
}

// Insert adds e and returns its slot. If e is already present its existing
// slot is returned and inserted is false.
func (x *EntityIndex) Insert(e EntityId) (slot int, inserted bool) {
	if slot, ok := x.Get(e); ok {
		return slot, false
	}
	x.growSparse(e.Index())
	slot = len(x.dense)
	x.dense = append(x.dense, e)
	x.sparse[e.Index()] = slot
	return slot, true
}

// Get returns the slot of e.
func (x *EntityIndex) Get(e EntityId) (int, bool) {
	i := e.Index()
	if i >= len(x.sparse) {
		return 0, false
	}
	slot := x.sparse[i]
	if slot == absentSlot {
		return 0, false
	}
	return slot, true
}

// Contains reports whether e is present.
func (x *EntityIndex) Contains(e EntityId) bool {
	_, ok := x.Get(e)
	return ok
}

// Remove deletes e by swapping the last entity into its slot. It returns the
// slot e occupied so that a paired store can perform the matching swap.
func (x *EntityIndex) Remove(e EntityId) (slot int, ok bool) {
	slot, ok = x.Get(e)
	if !ok {
		return 0, false
	}
	last := len(x.dense) - 1
	if slot != last {
		moved := x.dense[last]
		x.dense[slot] = moved
		x.sparse[moved.Index()] = slot
	}
	x.sparse[e.Index()] = absentSlot
	x.dense = x.dense[:last]
	return slot, true
}

// Len returns the number of present entities.
func (x *EntityIndex) Len() int {
	return len(x.dense)
}

// Entities returns the present entities in slot order. The slice is owned by
// the index and is only valid until the next mutation.
func (x *EntityIndex) Entities() []EntityId {
	return x.dense[:len(x.dense):len(x.dense)]
}

// EntityAt returns the entity stored at slot.
func (x *EntityIndex) EntityAt(slot int) (EntityId, bool) {
	if slot < 0 || slot >= len(x.dense) {
		return 0, false
	}
	return x.dense[slot], true
}

// SparseLen returns the current length of the sparse array.
func (x *EntityIndex) SparseLen() int {
	return len(x.sparse)
}

// Clear removes every entity. The sparse array keeps its length.
func (x *EntityIndex) Clear() {
	for _, e := range x.dense {
		x.sparse[e.Index()] = absentSlot
	}
	x.dense = x.dense[:0]
}

// Validate checks that every dense slot round-trips through the sparse array
// and that no other sparse entry claims a slot.
func (x *EntityIndex) Validate() error {
	for slot, e := range x.dense {
		i := e.Index()
		if i >= len(x.sparse) {
			return fmt.Errorf("entity %d at slot %d is beyond sparse length %d", e, slot, len(x.sparse))
		}
		if x.sparse[i] != slot {
			return fmt.Errorf("entity %d at slot %d maps to slot %d", e, slot, x.sparse[i])
		}
	}
	present := 0
	for _, slot := range x.sparse {
		if slot != absentSlot {
			present++
		}
	}
	if present != len(x.dense) {
		return fmt.Errorf("sparse array marks %d entities present, dense holds %d", present, len(x.dense))
	}
	return nil
}

func (x *EntityIndex) growSparse(i int) {
	if i < len(x.sparse) {
		return
	}
	oldLen := len(x.sparse)
	newLen := max(oldLen*2, i+1)
	grown := make([]int, newLen)
	copy(grown, x.sparse)
	for j := oldLen; j < newLen; j++ {
		grown[j] = absentSlot
	}
	x.sparse = grown
}
