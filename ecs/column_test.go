package ecs_test

import (
	"math/rand/v2"
	"testing"

	"github.com/plus3/ecstore/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pair struct {
	Entity ecs.EntityId
	Value  int
}

func pairs(col *ecs.Column[int]) []pair {
	var out []pair
	for e, v := range col.Iter() {
		out = append(out, pair{e, v})
	}
	return out
}

func TestColumnScenario(t *testing.T) {
	col := ecs.NewColumn[int]()
	col.Insert(1, 10)
	col.Insert(2, 20)
	col.Insert(3, 30)

	assert.Equal(t, []pair{{1, 10}, {2, 20}, {3, 30}}, pairs(col))

	assert.True(t, col.Remove(2))
	assert.Equal(t, []pair{{1, 10}, {3, 30}}, pairs(col))

	_, ok := col.Get(2)
	assert.False(t, ok)
	assert.NoError(t, col.Validate())
}

func TestColumnRoundTrip(t *testing.T) {
	col := ecs.NewColumn[Position]()

	assert.True(t, col.Insert(5, Position{X: 1, Y: 2}))
	got, ok := col.Get(5)
	require.True(t, ok)
	assert.Equal(t, Position{X: 1, Y: 2}, got)
	assert.True(t, col.Contains(5))

	assert.True(t, col.Remove(5))
	_, ok = col.Get(5)
	assert.False(t, ok)
	assert.False(t, col.Contains(5))
	assert.Nil(t, col.GetMut(5))

	assert.False(t, col.Remove(5), "second remove is a no-op")
	assert.Equal(t, 0, col.Len())
}

func TestColumnSwapRemovalOrder(t *testing.T) {
	const a, b, c ecs.EntityId = 0, 1, 2

	col := ecs.NewColumn[string]()
	col.Insert(a, "A")
	col.Insert(b, "B")
	col.Insert(c, "C")

	col.Remove(a)

	slot, ok := col.SlotOf(c)
	require.True(t, ok)
	assert.Equal(t, 0, slot)
	slot, _ = col.SlotOf(b)
	assert.Equal(t, 1, slot)

	assert.Equal(t, []ecs.EntityId{c, b}, col.Entities())
	assert.Equal(t, []string{"C", "B"}, col.Values())
	assert.Equal(t, 2, col.Len())
}

func TestColumnInsertOverwrites(t *testing.T) {
	var log []int
	col := ecs.NewColumn[DropLog]()

	assert.True(t, col.Insert(9, DropLog{ID: 1, log: &log}))
	col.Insert(4, DropLog{ID: 2, log: &log})
	assert.False(t, col.Insert(9, DropLog{ID: 3, log: &log}))

	assert.Equal(t, []int{1}, log, "previous value destroyed in place")
	assert.Equal(t, 2, col.Len())

	slot, _ := col.SlotOf(9)
	assert.Equal(t, 0, slot, "overwrite keeps the slot")

	got, _ := col.Get(9)
	assert.Equal(t, 3, got.ID)
}

func TestColumnRemoveDestroysValue(t *testing.T) {
	drops := 0
	col := ecs.NewColumn[Tracked]()
	for e := range ecs.EntityId(4) {
		col.Insert(e, Tracked{ID: int(e), drops: &drops})
	}

	col.Remove(1)
	assert.Equal(t, 1, drops)

	col.Remove(1)
	assert.Equal(t, 1, drops)

	col.Clear()
	assert.Equal(t, 4, drops, "every value destroyed exactly once")
	assert.Equal(t, 0, col.Len())
	assert.NoError(t, col.Validate())
}

func TestColumnIterMut(t *testing.T) {
	col := ecs.NewColumn[Position]()
	col.Insert(1, Position{X: 1})
	col.Insert(2, Position{X: 2})

	for _, pos := range col.IterMut() {
		pos.Y = pos.X * 10
	}

	got, _ := col.Get(2)
	assert.Equal(t, float32(20), got.Y)
}

func TestColumnIterStopsEarly(t *testing.T) {
	col := ecs.NewColumn[int]()
	for e := range ecs.EntityId(10) {
		col.Insert(e, int(e))
	}

	seen := 0
	for range col.Iter() {
		seen++
		if seen == 3 {
			break
		}
	}
	assert.Equal(t, 3, seen)
}

func TestColumnValuesMut(t *testing.T) {
	col := ecs.NewColumn[int]()
	col.Insert(3, 1)
	col.Insert(7, 2)

	values := col.ValuesMut()
	for i := range values {
		values[i] += 100
	}

	v, _ := col.Get(7)
	assert.Equal(t, 102, v)
}

func TestColumnGetMut(t *testing.T) {
	col := ecs.NewColumn[Health]()
	col.Insert(1, Health{Current: 50, Max: 100})

	h := col.GetMut(1)
	require.NotNil(t, h)
	h.Current = 75

	got, _ := col.Get(1)
	assert.Equal(t, 75, got.Current)
}

func TestColumnLockstepUnderRandomOps(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	col := ecs.NewColumn[int]()
	shadow := make(map[ecs.EntityId]int)

	for step := range 5000 {
		e := ecs.EntityId(rng.IntN(128))
		switch rng.IntN(4) {
		case 0:
			removed := col.Remove(e)
			_, had := shadow[e]
			assert.Equal(t, had, removed)
			delete(shadow, e)
		default:
			v := rng.Int()
			col.Insert(e, v)
			shadow[e] = v
		}

		require.NoError(t, col.Validate(), "step %d", step)
		require.Equal(t, len(col.Entities()), len(col.Values()))
		require.Equal(t, len(shadow), col.Len())
	}

	for e, want := range shadow {
		got, ok := col.Get(e)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
}

func TestColumnRelease(t *testing.T) {
	drops := 0
	col := ecs.NewColumn(ecs.WithCapacity[Tracked](16))
	col.Insert(1, Tracked{drops: &drops})
	col.Insert(2, Tracked{drops: &drops})

	stats := col.Stats()
	assert.Equal(t, 16, stats.Cap)
	assert.True(t, stats.NeedsDrop)

	col.Release()
	assert.Equal(t, 2, drops)
	assert.Equal(t, 0, col.Stats().Cap)
	assert.False(t, col.Contains(1))
}

func TestColumnAnyColumn(t *testing.T) {
	var col ecs.AnyColumn = ecs.NewColumn[Velocity]()

	assert.True(t, col.InsertAny(3, Velocity{DX: 1}))
	assert.False(t, col.InsertAny(3, &Velocity{DX: 2}))

	vel, ok := col.GetAny(3).(*Velocity)
	require.True(t, ok)
	assert.Equal(t, float32(2), vel.DX)
	assert.Nil(t, col.GetAny(4))

	assert.Equal(t, "ecs_test.Velocity", col.Stats().Type)
	assert.Panics(t, func() { col.InsertAny(5, Position{}) })
	assert.False(t, col.Contains(5))
	assert.NoError(t, col.Validate())
}
