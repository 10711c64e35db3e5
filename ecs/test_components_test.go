package ecs_test

import "github.com/plus3/ecstore/ecs"

// Common test component types
type Position struct {
	X, Y float32
}

type Velocity struct {
	DX, DY float32
}

type Name struct {
	Value string
}

type Health struct {
	Current int
	Max     int
}

type Score int32

// Tracked counts how many times a value is destroyed by storage.
type Tracked struct {
	ID    int
	drops *int
}

func (t *Tracked) Drop() {
	*t.drops++
}

// DropLog records the IDs of destroyed values in order.
type DropLog struct {
	ID  int
	log *[]int
}

func (d DropLog) Drop() {
	*d.log = append(*d.log, d.ID)
}

func newTestRegistry() *ecs.ComponentRegistry {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](registry)
	ecs.RegisterComponent[Velocity](registry)
	ecs.RegisterComponent[Name](registry)
	ecs.RegisterComponent[Health](registry)
	ecs.RegisterComponent[Score](registry)
	ecs.RegisterComponent[Tracked](registry)
	ecs.RegisterComponent[int32](registry)
	ecs.RegisterComponent[string](registry)
	return registry
}
