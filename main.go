package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pthm-cable/evolution/config"
	"github.com/pthm-cable/evolution/game"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the simulation and returns the process exit code. Deferred
// cleanup runs before main exits.
func run(args []string) int {
	// CLI flags
	fs := flag.NewFlagSet("evolution", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := fs.Bool("log-stats", false, "Output stats via slog")
	statsWindow := fs.Int("stats-window", 0, "Stats window size in ticks (0 = use config)")
	outputDir := fs.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := fs.Uint64("seed", 0, "RNG seed (0 = use config)")
	maxTicks := fs.Uint64("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	loadPath := fs.String("load", "", "Resume from a restart file")
	savePath := fs.String("save", "", "Restart file written on exit (empty = restart.path)")
	workers := fs.Int("workers", -1, "Execute-phase workers (-1 = use config, 0 = GOMAXPROCS)")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}
	if *statsWindow > 0 {
		cfg.Telemetry.StatsWindow = *statsWindow
	}
	if *workers >= 0 {
		cfg.World.Workers = *workers
	}
	if *savePath != "" {
		cfg.Restart.Path = *savePath
	}

	g, err := game.NewGameWithOptions(game.Options{
		Config:    cfg,
		Seed:      *seed,
		LoadPath:  *loadPath,
		LogStats:  *logStats,
		OutputDir: *outputDir,
	})
	if err != nil {
		slog.Error("failed to start simulation", "error", err)
		return 1
	}
	defer g.Unload()

	slog.Info("starting headless simulation",
		"seed", *seed,
		"load", *loadPath,
		"stats_window", cfg.Telemetry.StatsWindow,
		"max_ticks", *maxTicks,
		"workers", cfg.Options().Workers,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for ctx.Err() == nil {
		g.UpdateHeadless()

		if *maxTicks > 0 && g.Tick() >= *maxTicks {
			slog.Info("max ticks reached", "tick", g.Tick())
			break
		}
	}
	if ctx.Err() != nil {
		slog.Info("interrupted", "tick", g.Tick())
	}

	if cfg.Restart.Path != "" {
		if err := g.Save(cfg.Restart.Path); err != nil {
			slog.Error("failed to save restart file", "error", err)
			return 1
		}
	}
	return 0
}
