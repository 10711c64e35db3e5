package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/profile"
	"github.com/plus3/ecstore/internal/config"
	"github.com/plus3/ecstore/internal/logging"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "column-stress: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; it may name the config file.
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("COLUMN_STRESS_CONFIG"), "Path to a TOML config file.")
	duration := flag.Duration("duration", 10*time.Second, "The total duration the test should run for.")
	entities := flag.Int("entities", 10000, "The initial number of entities to create.")
	seed := flag.Uint64("seed", 1, "Seed for the operation generator.")
	profileMode := flag.String("profile", "", "Write a cpu or mem profile.")
	format := flag.String("format", "text", "Report format: text or yaml.")
	gcPauseMetrics := flag.Bool("gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	// Flags given on the command line win over the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "duration":
			cfg.Stress.Duration = *duration
		case "entities":
			cfg.Stress.Entities = *entities
		case "seed":
			cfg.Stress.Seed = *seed
		case "profile":
			cfg.Profile.Mode = *profileMode
		case "format":
			cfg.Report.Format = *format
		}
	})
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync()

	if stop := startProfile(cfg.Profile); stop != nil {
		defer stop.Stop()
	}

	log.Info("starting column stress test",
		zap.Duration("duration", cfg.Stress.Duration),
		zap.Int("entities", cfg.Stress.Entities),
		zap.Uint64("seed", cfg.Stress.Seed))

	workload := NewWorkload(cfg.Stress, log)
	if err := workload.Populate(); err != nil {
		return fmt.Errorf("populate: %w", err)
	}

	report := &Report{
		Duration:       cfg.Stress.Duration,
		Entities:       cfg.Stress.Entities,
		MaxEntityId:    cfg.Stress.MaxEntityId,
		OpsPerTick:     cfg.Stress.OpsPerTick,
		RemoveRatio:    cfg.Stress.RemoveRatio,
		Seed:           cfg.Stress.Seed,
		GCPauseMetrics: *gcPauseMetrics,
	}
	runtime.ReadMemStats(&report.MemStatsStart)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Stress.Duration)
	defer cancel()

	start := time.Now()
	report.TickTime, err = workload.Run(ctx)
	report.TotalTime = time.Since(start)
	report.TotalTicks = workload.Ticks()
	report.Ops = workload.Ops
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	if err := workload.Validate(); err != nil {
		return fmt.Errorf("final validation: %w", err)
	}
	report.Storage = workload.Storage().CollectStats()
	runtime.ReadMemStats(&report.MemStatsEnd)

	if err := workload.Shutdown(); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	report.HandlesAcquired = workload.pool.acquired
	report.HandlesReleased = workload.pool.released
	log.Info("simulation finished", zap.Int64("ticks", report.TotalTicks))

	if cfg.Report.Format == "text" {
		fmt.Println("\n--- Stress Test Report ---")
		defer fmt.Println("--- End of Report ---")
	}
	if err := report.Generate(os.Stdout, cfg.Report.Format); err != nil {
		return fmt.Errorf("generate report: %w", err)
	}
	return nil
}

func startProfile(cfg config.ProfileConfig) interface{ Stop() } {
	var mode func(*profile.Profile)
	switch cfg.Mode {
	case "cpu":
		mode = profile.CPUProfile
	case "mem":
		mode = profile.MemProfile
	default:
		return nil
	}
	return profile.Start(mode, profile.ProfilePath(cfg.Path), profile.NoShutdownHook, profile.Quiet)
}
