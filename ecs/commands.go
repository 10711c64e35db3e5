package ecs

import (
	"reflect"

	"github.com/kamstrup/intmap"
)

// Commands buffers column mutations so they can be applied together, for
// example after a pass that iterates the columns it would otherwise modify.
type Commands struct {
	inserts  []insertCommand
	removes  []removeCommand
	despawns []EntityId
	defers   []deferCommand
}

// NewCommands returns an empty command buffer.
func NewCommands() *Commands {
	return &Commands{}
}

type deferCommand struct {
	fn func()
}

type insertCommand struct {
	entity    EntityId
	component any
}

type removeCommand struct {
	entity   EntityId
	compType reflect.Type
}

// Defer queues a function to run after all other commands.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, deferCommand{fn: fn})
}

// Insert queues storing component for entity.
func (c *Commands) Insert(entity EntityId, component any) {
	c.inserts = append(c.inserts, insertCommand{
		entity:    entity,
		component: component,
	})
}

// Remove queues removal of entity's component of type compType.
func (c *Commands) Remove(entity EntityId, compType reflect.Type) {
	c.removes = append(c.removes, removeCommand{
		entity:   entity,
		compType: compType,
	})
}

// Despawn queues removal of entity from every column.
func (c *Commands) Despawn(entity EntityId) {
	c.despawns = append(c.despawns, entity)
}

// Len returns the number of queued commands.
func (c *Commands) Len() int {
	return len(c.inserts) + len(c.removes) + len(c.despawns) + len(c.defers)
}

// Flush applies despawns first, then removes and inserts for entities that
// were not despawned in this batch, then deferred functions. The buffer is
// reset afterwards.
func (c *Commands) Flush(storage *Storage) {
	despawned := intmap.New[EntityId, struct{}](len(c.despawns))

	for _, e := range c.despawns {
		storage.Despawn(e)
		despawned.Put(e, struct{}{})
	}

	for _, cmd := range c.removes {
		if _, gone := despawned.Get(cmd.entity); !gone {
			storage.Remove(cmd.entity, cmd.compType)
		}
	}

	for _, cmd := range c.inserts {
		if _, gone := despawned.Get(cmd.entity); !gone {
			storage.Insert(cmd.entity, cmd.component)
		}
	}

	for _, df := range c.defers {
		df.fn()
	}

	c.inserts = c.inserts[:0]
	c.removes = c.removes[:0]
	c.despawns = c.despawns[:0]
	c.defers = c.defers[:0]
}
