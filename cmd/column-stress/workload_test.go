package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/plus3/ecstore/ecs"
	"github.com/plus3/ecstore/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gopkg.in/yaml.v3"
)

func testStressConfig() config.StressConfig {
	return config.StressConfig{
		Duration:      50 * time.Millisecond,
		Entities:      200,
		MaxEntityId:   512,
		OpsPerTick:    100,
		RemoveRatio:   0.4,
		ValidateEvery: 1,
		Seed:          42,
	}
}

func TestWorkloadTicksStayConsistent(t *testing.T) {
	w := NewWorkload(testStressConfig(), zaptest.NewLogger(t))
	require.NoError(t, w.Populate())

	for range 200 {
		require.NoError(t, w.Tick())
	}
	assert.Equal(t, int64(200), w.Ticks())
	assert.NoError(t, w.Validate())

	assert.Positive(t, w.Ops.Inserts)
	assert.Positive(t, w.Ops.Removes)
	assert.Positive(t, w.Ops.Reads)

	require.NoError(t, w.Shutdown())
	assert.Equal(t, w.pool.acquired, w.pool.released)
}

func TestWorkloadDespawnsEntitiesLeavingTheWorld(t *testing.T) {
	w := NewWorkload(testStressConfig(), zaptest.NewLogger(t))
	storage := w.Storage()

	require.NoError(t, w.insert(7, kindTransform))
	require.NoError(t, w.insert(7, kindMotion))
	require.NoError(t, w.insert(7, kindHandle))
	ecs.ColumnOf[Transform](storage).GetMut(7).X = 2 * worldRadius

	w.integrate()
	assert.True(t, storage.HasComponent(7, kindTypes[kindTransform]), "despawn waits for flush")

	w.cmds.Flush(storage)
	assert.False(t, storage.HasComponent(7, kindTypes[kindTransform]))
	assert.False(t, storage.HasComponent(7, kindTypes[kindHandle]))
	assert.Equal(t, int64(1), w.Ops.Despawns)
	assert.Equal(t, int64(0), w.pool.live())
	assert.NoError(t, w.Validate())
}

func TestWorkloadDetectsDivergence(t *testing.T) {
	w := NewWorkload(testStressConfig(), zaptest.NewLogger(t))
	require.NoError(t, w.insert(3, kindLabel))

	// Mutate storage behind the shadow model's back.
	w.Storage().Remove(3, kindTypes[kindLabel])

	assert.ErrorContains(t, w.Validate(), "Label column holds 0 entities, expected 1")
	assert.ErrorContains(t, w.read(3, kindLabel), "read Label for entity 3")
}

func TestWorkloadRun(t *testing.T) {
	w := NewWorkload(testStressConfig(), zaptest.NewLogger(t))
	require.NoError(t, w.Populate())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	stats, err := w.Run(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, stats.Samples)
	assert.Equal(t, int64(len(stats.Samples)), w.Ticks())
	assert.LessOrEqual(t, stats.Min, stats.Avg)
	assert.LessOrEqual(t, stats.Avg, stats.Max)
}

func TestStatsFinalize(t *testing.T) {
	s := Stats{Samples: []time.Duration{3, 1, 2}}
	s.Finalize()
	assert.Equal(t, time.Duration(1), s.Min)
	assert.Equal(t, time.Duration(3), s.Max)
	assert.Equal(t, time.Duration(2), s.Avg)

	var empty Stats
	empty.Finalize()
	assert.Zero(t, empty.Avg)
}

func sampleReport(t *testing.T) *Report {
	w := NewWorkload(testStressConfig(), zaptest.NewLogger(t))
	require.NoError(t, w.Populate())
	for range 10 {
		require.NoError(t, w.Tick())
	}
	return &Report{
		Duration:    time.Second,
		Entities:    200,
		MaxEntityId: 512,
		OpsPerTick:  100,
		RemoveRatio: 0.4,
		Seed:        42,
		TotalTicks:  w.Ticks(),
		TickTime:    Stats{Avg: time.Millisecond},
		Ops:         w.Ops,
		Storage:     w.Storage().CollectStats(),
	}
}

func TestReportText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleReport(t).Generate(&buf, "text"))

	out := buf.String()
	assert.Contains(t, out, "# Column Stress Test Report")
	assert.Contains(t, out, "**Total Ticks:** 10")
	assert.Contains(t, out, "## Columns (4 columns")
	assert.Contains(t, out, "main.Handle: len=")
	assert.Contains(t, out, "(drop)")
}

func TestReportYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleReport(t).Generate(&buf, "yaml"))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Contains(t, decoded, "config")
	assert.Contains(t, decoded, "results")
	assert.Contains(t, decoded, "ops")

	storage, ok := decoded["storage"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 4, storage["column_count"])
}

func TestReportUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorContains(t, (&Report{}).Generate(&buf, "csv"), "unknown report format")
}
