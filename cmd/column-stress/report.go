package main

import (
	"fmt"
	"io"
	"runtime"
	"text/template"
	"time"

	"github.com/plus3/ecstore/ecs"
	"gopkg.in/yaml.v3"
)

type Report struct {
	// Configuration
	Duration    time.Duration
	Entities    int
	MaxEntityId int
	OpsPerTick  int
	RemoveRatio float64
	Seed        uint64

	// Results
	TotalTicks      int64
	TotalTime       time.Duration
	TickTime        Stats
	Ops             OpCounts
	Storage         *ecs.StorageStats
	HandlesAcquired int64
	HandlesReleased int64
	GCPauseMetrics  bool
	MemStatsStart   runtime.MemStats
	MemStatsEnd     runtime.MemStats
}

type Stats struct {
	Min     time.Duration
	Max     time.Duration
	Avg     time.Duration
	Samples []time.Duration
}

func (s *Stats) Finalize() {
	if len(s.Samples) == 0 {
		return
	}

	var total time.Duration
	s.Min = s.Samples[0]
	s.Max = s.Samples[0]

	for _, sample := range s.Samples {
		s.Min = min(s.Min, sample)
		s.Max = max(s.Max, sample)
		total += sample
	}
	s.Avg = total / time.Duration(len(s.Samples))
}

// Generate writes the report as "text" or "yaml".
func (r *Report) Generate(w io.Writer, format string) error {
	switch format {
	case "yaml":
		return r.generateYAML(w)
	case "text", "":
		return r.generateText(w)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

func (r *Report) generateText(w io.Writer) error {
	const reportTemplate = `
# Column Stress Test Report

## Test Configuration
- **Run Duration:** {{.Duration}}
- **Initial Entities:** {{.Entities}}
- **Entity Id Range:** 0..{{.MaxEntityId}}
- **Ops Per Tick:** {{.OpsPerTick}} (remove ratio {{printf "%.2f" .RemoveRatio}})
- **Seed:** {{.Seed}}

## Performance Results
- **Total Ticks:** {{.TotalTicks}}
- **Total Test Time:** {{.TotalTime}}
- **Tick Time:**
  - **Avg:** {{.TickTime.Avg}}
  - **Min:** {{.TickTime.Min}}
  - **Max:** {{.TickTime.Max}}

## Operations
- Inserts: {{.Ops.Inserts}}, Overwrites: {{.Ops.Overwrites}}, Removes: {{.Ops.Removes}}
- Reads: {{.Ops.Reads}}, Misses: {{.Ops.Misses}}, Despawns: {{.Ops.Despawns}}
- Handles: {{.HandlesAcquired}} acquired, {{.HandlesReleased}} dropped
{{with .Storage}}
## Columns ({{.ColumnCount}} columns, {{.TotalComponents}} components, capacity {{.TotalCapacity}})
{{range .Columns}}- {{.Type}}: len={{.Len}} cap={{.Cap}} sparse={{.SparseLen}}{{if .NeedsDrop}} (drop){{end}}
{{end}}{{end}}
## Memory Usage (Raw Bytes)
- Heap Alloc:     {{.MemStatsStart.HeapAlloc}} (start) -> {{.MemStatsEnd.HeapAlloc}} (end) -> delta: {{bsub .MemStatsEnd.HeapAlloc .MemStatsStart.HeapAlloc}}
- Total Alloc:    {{.MemStatsStart.TotalAlloc}} (start) -> {{.MemStatsEnd.TotalAlloc}} (end) -> delta: {{bsub .MemStatsEnd.TotalAlloc .MemStatsStart.TotalAlloc}}
- Sys Memory:     {{.MemStatsStart.Sys}} (start) -> {{.MemStatsEnd.Sys}} (end) -> delta: {{bsub .MemStatsEnd.Sys .MemStatsStart.Sys}}
- Num GC:         {{.MemStatsStart.NumGC}} (start) -> {{.MemStatsEnd.NumGC}} (end) -> delta: {{usub .MemStatsEnd.NumGC .MemStatsStart.NumGC}}
{{if .GCPauseMetrics}}
## GC Pause Durations
- **Total GC Pause:** {{.MemStatsEnd.PauseTotalNs | ns}}
- **Num GC Cycles:** {{ usub .MemStatsEnd.NumGC .MemStatsStart.NumGC }}
{{end}}`

	fm := template.FuncMap{
		"bsub": func(a, b uint64) int64 {
			return int64(a) - int64(b)
		},
		"usub": func(a, b uint32) uint32 {
			return a - b
		},
		"ns": func(ns uint64) string {
			return time.Duration(ns).String()
		},
	}

	tmpl, err := template.New("report").Funcs(fm).Parse(reportTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(w, r)
}

type yamlReport struct {
	Config struct {
		Duration    string  `yaml:"duration"`
		Entities    int     `yaml:"entities"`
		MaxEntityId int     `yaml:"max_entity_id"`
		OpsPerTick  int     `yaml:"ops_per_tick"`
		RemoveRatio float64 `yaml:"remove_ratio"`
		Seed        uint64  `yaml:"seed"`
	} `yaml:"config"`
	Results struct {
		TotalTicks int64  `yaml:"total_ticks"`
		TotalTime  string `yaml:"total_time"`
		TickAvg    string `yaml:"tick_avg"`
		TickMin    string `yaml:"tick_min"`
		TickMax    string `yaml:"tick_max"`
	} `yaml:"results"`
	Ops     OpCounts          `yaml:"ops"`
	Handles map[string]int64  `yaml:"handles"`
	Storage *ecs.StorageStats `yaml:"storage,omitempty"`
	Memory  map[string]int64  `yaml:"memory_delta"`
}

func (r *Report) generateYAML(w io.Writer) error {
	var out yamlReport
	out.Config.Duration = r.Duration.String()
	out.Config.Entities = r.Entities
	out.Config.MaxEntityId = r.MaxEntityId
	out.Config.OpsPerTick = r.OpsPerTick
	out.Config.RemoveRatio = r.RemoveRatio
	out.Config.Seed = r.Seed
	out.Results.TotalTicks = r.TotalTicks
	out.Results.TotalTime = r.TotalTime.String()
	out.Results.TickAvg = r.TickTime.Avg.String()
	out.Results.TickMin = r.TickTime.Min.String()
	out.Results.TickMax = r.TickTime.Max.String()
	out.Ops = r.Ops
	out.Handles = map[string]int64{
		"acquired": r.HandlesAcquired,
		"released": r.HandlesReleased,
	}
	out.Storage = r.Storage
	out.Memory = map[string]int64{
		"heap_alloc":  int64(r.MemStatsEnd.HeapAlloc) - int64(r.MemStatsStart.HeapAlloc),
		"total_alloc": int64(r.MemStatsEnd.TotalAlloc) - int64(r.MemStatsStart.TotalAlloc),
		"sys":         int64(r.MemStatsEnd.Sys) - int64(r.MemStatsStart.Sys),
		"num_gc":      int64(r.MemStatsEnd.NumGC) - int64(r.MemStatsStart.NumGC),
	}

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	_, err = w.Write(data)
	return err
}
