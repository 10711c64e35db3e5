package ecs

import (
	"fmt"
	"reflect"
)

// Dropper is implemented by component types that need cleanup when a value
// leaves storage through Clear, Set, Column.Remove or Release.
type Dropper interface {
	Drop()
}

var dropperType = reflect.TypeFor[Dropper]()

// TypeInfo describes the element type held by a store. It is fixed when the
// store is created.
type TypeInfo struct {
	Type      reflect.Type
	Size      uintptr
	Align     uintptr
	NeedsDrop bool
}

// TypeInfoOf returns the descriptor for T.
func TypeInfoOf[T any]() TypeInfo {
	t := reflect.TypeFor[T]()
	return TypeInfo{
		Type:      t,
		Size:      t.Size(),
		Align:     uintptr(t.Align()),
		NeedsDrop: t.Implements(dropperType) || reflect.PointerTo(t).Implements(dropperType),
	}
}

func (ti TypeInfo) String() string {
	return fmt.Sprintf("%s(size=%d,align=%d)", ti.Type, ti.Size, ti.Align)
}

// dropFuncFor returns the destructor for T, or nil if T has none.
func dropFuncFor[T any]() func(*T) {
	var zero T
	if _, ok := any(&zero).(Dropper); ok {
		return func(v *T) {
			any(v).(Dropper).Drop()
		}
	}
	if reflect.TypeFor[T]().Implements(dropperType) {
		return func(v *T) {
			if d, ok := any(*v).(Dropper); ok {
				d.Drop()
			}
		}
	}
	return nil
}
