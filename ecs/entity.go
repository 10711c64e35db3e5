package ecs

// EntityId identifies an entity. Its raw value is used directly as the position
// in an EntityIndex's sparse array, so allocators should hand out small, dense values.
type EntityId uint32

// Index returns the raw sparse position of the entity.
func (e EntityId) Index() int {
	return int(e)
}
