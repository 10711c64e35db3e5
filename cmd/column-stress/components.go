package main

import (
	"reflect"
)

type Transform struct {
	X, Y float32
}

type Motion struct {
	DX, DY float32
}

type Label struct {
	Text string
}

// Handle stands in for a component that owns an external resource. Storage
// must drop every handle exactly once, which the pool counts.
type Handle struct {
	ID   uint64
	pool *handlePool
}

func (h *Handle) Drop() {
	h.pool.released++
}

type handlePool struct {
	next     uint64
	acquired int64
	released int64
}

func (p *handlePool) acquire() Handle {
	p.next++
	p.acquired++
	return Handle{ID: p.next, pool: p}
}

func (p *handlePool) live() int64 {
	return p.acquired - p.released
}

type componentKind uint8

const (
	kindTransform componentKind = iota
	kindMotion
	kindLabel
	kindHandle
	kindCount
)

var kindTypes = [kindCount]reflect.Type{
	kindTransform: reflect.TypeFor[Transform](),
	kindMotion:    reflect.TypeFor[Motion](),
	kindLabel:     reflect.TypeFor[Label](),
	kindHandle:    reflect.TypeFor[Handle](),
}

func (k componentKind) String() string {
	return kindTypes[k].Name()
}

func (k componentKind) bit() uint8 {
	return 1 << k
}
