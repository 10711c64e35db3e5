package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/kamstrup/intmap"
	"github.com/plus3/ecstore/ecs"
	"github.com/plus3/ecstore/internal/config"
	"go.uber.org/zap"
)

const worldRadius = 1000

// OpCounts tallies the operations a workload has issued.
type OpCounts struct {
	Inserts    int64 `yaml:"inserts"`
	Overwrites int64 `yaml:"overwrites"`
	Removes    int64 `yaml:"removes"`
	Reads      int64 `yaml:"reads"`
	Misses     int64 `yaml:"misses"`
	Despawns   int64 `yaml:"despawns"`
}

// Workload drives random column mutations against a Storage and checks the
// results against a shadow model of which entity holds which component.
type Workload struct {
	cfg     config.StressConfig
	log     *zap.Logger
	rng     *rand.Rand
	storage *ecs.Storage
	cmds    *ecs.Commands
	pool    *handlePool

	shadow *intmap.Map[ecs.EntityId, uint8]
	counts [kindCount]int
	ticks  int64

	Ops OpCounts
}

func NewWorkload(cfg config.StressConfig, log *zap.Logger) *Workload {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent(registry, ecs.WithCapacity[Transform](cfg.Entities))
	ecs.RegisterComponent[Motion](registry)
	ecs.RegisterComponent[Label](registry)
	ecs.RegisterComponent[Handle](registry)

	return &Workload{
		cfg:     cfg,
		log:     log,
		rng:     rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		storage: ecs.NewStorage(registry, ecs.WithLogger(log.Named("ecs"))),
		cmds:    ecs.NewCommands(),
		pool:    &handlePool{},
		shadow:  intmap.New[ecs.EntityId, uint8](cfg.Entities),
	}
}

// Storage returns the storage under test.
func (w *Workload) Storage() *ecs.Storage {
	return w.storage
}

// Ticks returns the number of completed ticks.
func (w *Workload) Ticks() int64 {
	return w.ticks
}

// Populate gives the first cfg.Entities ids a transform and a random subset of
// the other components.
func (w *Workload) Populate() error {
	for i := range w.cfg.Entities {
		e := ecs.EntityId(i)
		if err := w.insert(e, kindTransform); err != nil {
			return err
		}
		for k := kindMotion; k < kindCount; k++ {
			if w.rng.IntN(2) == 0 {
				continue
			}
			if err := w.insert(e, k); err != nil {
				return err
			}
		}
	}
	w.log.Info("populated storage", zap.Int("entities", w.cfg.Entities))
	return w.Validate()
}

// Run ticks until ctx is done and returns the per-tick timings.
func (w *Workload) Run(ctx context.Context) (Stats, error) {
	stats := Stats{Samples: make([]time.Duration, 0, 1024)}
	for {
		select {
		case <-ctx.Done():
			stats.Finalize()
			return stats, nil
		default:
			start := time.Now()
			if err := w.Tick(); err != nil {
				stats.Finalize()
				return stats, err
			}
			stats.Samples = append(stats.Samples, time.Since(start))
		}
	}
}

// Tick issues cfg.OpsPerTick random operations, moves every entity that has
// both a transform and motion, then despawns the ones that left the world.
func (w *Workload) Tick() error {
	insertRatio := w.cfg.RemoveRatio + (1-w.cfg.RemoveRatio)/2
	for range w.cfg.OpsPerTick {
		e := ecs.EntityId(w.rng.IntN(w.cfg.MaxEntityId))
		kind := componentKind(w.rng.IntN(int(kindCount)))

		var err error
		switch r := w.rng.Float64(); {
		case r < w.cfg.RemoveRatio:
			err = w.remove(e, kind)
		case r < insertRatio:
			err = w.insert(e, kind)
		default:
			err = w.read(e, kind)
		}
		if err != nil {
			return fmt.Errorf("tick %d: %w", w.ticks, err)
		}
	}

	w.integrate()
	w.cmds.Flush(w.storage)

	w.ticks++
	if w.cfg.ValidateEvery > 0 && w.ticks%int64(w.cfg.ValidateEvery) == 0 {
		return w.Validate()
	}
	return nil
}

// Validate checks storage invariants and compares every column with the
// shadow model.
func (w *Workload) Validate() error {
	if err := w.storage.Validate(); err != nil {
		return fmt.Errorf("tick %d: %w", w.ticks, err)
	}
	for k := range kindCount {
		n := 0
		if col := w.storage.Column(kindTypes[k]); col != nil {
			n = col.Len()
		}
		if n != w.counts[k] {
			return fmt.Errorf("tick %d: %s column holds %d entities, expected %d", w.ticks, k, n, w.counts[k])
		}
	}
	if live := w.pool.live(); live != int64(w.counts[kindHandle]) {
		return fmt.Errorf("tick %d: %d handles alive, %d stored", w.ticks, live, w.counts[kindHandle])
	}
	return nil
}

// Shutdown releases every column and checks that no handle leaked.
func (w *Workload) Shutdown() error {
	w.storage.Release()
	if live := w.pool.live(); live != 0 {
		return fmt.Errorf("%d handles not dropped after release", live)
	}
	w.log.Info("released storage",
		zap.Int64("handles_acquired", w.pool.acquired),
		zap.Int64("handles_released", w.pool.released))
	return nil
}

func (w *Workload) insert(e ecs.EntityId, kind componentKind) error {
	var added bool
	switch kind {
	case kindTransform:
		added = w.storage.Insert(e, Transform{
			X: (w.rng.Float32()*2 - 1) * worldRadius / 2,
			Y: (w.rng.Float32()*2 - 1) * worldRadius / 2,
		})
	case kindMotion:
		added = w.storage.Insert(e, Motion{DX: w.rng.Float32()*2 - 1, DY: w.rng.Float32()*2 - 1})
	case kindLabel:
		added = w.storage.Insert(e, Label{Text: "entity-" + strconv.Itoa(int(e))})
	case kindHandle:
		added = w.storage.Insert(e, w.pool.acquire())
	}

	mask, _ := w.shadow.Get(e)
	if added == (mask&kind.bit() != 0) {
		return fmt.Errorf("insert %s for entity %d: storage reported added=%t", kind, e, added)
	}
	if added {
		w.shadow.Put(e, mask|kind.bit())
		w.counts[kind]++
		w.Ops.Inserts++
	} else {
		w.Ops.Overwrites++
	}
	return nil
}

func (w *Workload) remove(e ecs.EntityId, kind componentKind) error {
	removed := w.storage.Remove(e, kindTypes[kind])

	mask, _ := w.shadow.Get(e)
	if removed != (mask&kind.bit() != 0) {
		return fmt.Errorf("remove %s for entity %d: storage reported removed=%t", kind, e, removed)
	}
	if !removed {
		w.Ops.Misses++
		return nil
	}
	w.forget(e, mask&^kind.bit())
	w.counts[kind]--
	w.Ops.Removes++
	return nil
}

func (w *Workload) read(e ecs.EntityId, kind componentKind) error {
	w.Ops.Reads++
	mask, _ := w.shadow.Get(e)
	want := mask&kind.bit() != 0

	var has bool
	switch kind {
	case kindTransform:
		has = ecs.ReadComponent[Transform](w.storage, e) != nil
	case kindLabel:
		if label := ecs.ReadComponent[Label](w.storage, e); label != nil {
			has = true
			if label.Text != "entity-"+strconv.Itoa(int(e)) {
				return fmt.Errorf("read label for entity %d: got %q", e, label.Text)
			}
		}
	default:
		has = w.storage.HasComponent(e, kindTypes[kind])
	}
	if has != want {
		return fmt.Errorf("read %s for entity %d: present=%t, expected %t", kind, e, has, want)
	}
	if !has {
		w.Ops.Misses++
	}
	return nil
}

// integrate applies motion to transforms and queues a despawn for entities
// outside the world radius. Despawns are deferred through Commands since the
// motion column is being iterated.
func (w *Workload) integrate() {
	transforms := ecs.ColumnOf[Transform](w.storage)
	for e, m := range ecs.ColumnOf[Motion](w.storage).Iter() {
		t := transforms.GetMut(e)
		if t == nil {
			continue
		}
		t.X += m.DX
		t.Y += m.DY
		if t.X*t.X+t.Y*t.Y > worldRadius*worldRadius {
			w.cmds.Despawn(e)
			w.cmds.Defer(func() {
				w.despawned(e)
			})
		}
	}
}

func (w *Workload) despawned(e ecs.EntityId) {
	mask, _ := w.shadow.Get(e)
	for k := range kindCount {
		if mask&k.bit() != 0 {
			w.counts[k]--
		}
	}
	w.shadow.Del(e)
	w.Ops.Despawns++
}

func (w *Workload) forget(e ecs.EntityId, mask uint8) {
	if mask == 0 {
		w.shadow.Del(e)
		return
	}
	w.shadow.Put(e, mask)
}
