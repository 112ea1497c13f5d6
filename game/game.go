// Package game drives a headless simulation run: stepping the world,
// feeding telemetry and writing restart files.
package game

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/evolution/config"
	"github.com/pthm-cable/evolution/restart"
	"github.com/pthm-cable/evolution/telemetry"
	"github.com/pthm-cable/evolution/world"
)

// Options configures a run.
type Options struct {
	Config        *config.Config // nil = embedded defaults
	Seed          uint64         // 0 = init.seed
	LoadPath      string         // resume from this restart file
	LogStats      bool
	OutputDir     string
	StatsCallback func(telemetry.WindowStats)
}

// Game holds one simulation run.
type Game struct {
	cfg   *config.Config
	world *world.World

	// Telemetry
	collector        *telemetry.Collector
	perfCollector    *telemetry.PerfCollector
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	statsCallback    func(telemetry.WindowStats)
	logStats         bool

	checksumEvery uint64
	restartPath   string
	saveEvery     uint64
}

// NewGameWithOptions builds a fresh world from the config, or loads one
// from opts.LoadPath.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		var err error
		if cfg, err = config.Load(""); err != nil {
			return nil, err
		}
	}

	var w *world.World
	var err error
	if opts.LoadPath != "" {
		w, err = restart.Load(opts.LoadPath, cfg.Options())
	} else {
		w, err = world.New(cfg.Core(), cfg.Genesis(opts.Seed), cfg.Options())
	}
	if err != nil {
		return nil, err
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		w.Close()
		return nil, err
	}
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		w.Close()
		return nil, fmt.Errorf("writing config snapshot: %w", err)
	}

	g := &Game{
		cfg:              cfg,
		world:            w,
		collector:        telemetry.NewCollector(cfg.Telemetry.StatsWindow),
		perfCollector:    telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		bookmarkDetector: telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistory),
		outputManager:    om,
		statsCallback:    opts.StatsCallback,
		logStats:         opts.LogStats,
		checksumEvery:    uint64(max(cfg.Telemetry.ChecksumEvery, 0)),
		restartPath:      cfg.Restart.Path,
		saveEvery:        uint64(max(cfg.Restart.SaveEvery, 0)),
	}
	g.collector.Reset(w.Time())
	w.SetPhaseHook(g.perfCollector.StartPhase)

	creatures, foods := w.Counts()
	slog.Info("world ready",
		"tick", w.Time(),
		"tiles_x", 1<<cfg.World.OrderX,
		"tiles_y", 1<<cfg.World.OrderY,
		"creatures", creatures,
		"foods", foods,
	)
	return g, nil
}

// UpdateHeadless advances the simulation one tick and runs the per-tick
// telemetry, checksum and restart hooks.
func (g *Game) UpdateHeadless() {
	g.perfCollector.StartTick()
	g.world.NextStep()

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.collector.Record(g.world.LastStep())
	g.flushTelemetry()
	g.logChecksum()

	if g.saveEvery > 0 && g.restartPath != "" && g.world.Time()%g.saveEvery == 0 {
		g.perfCollector.StartPhase(telemetry.PhaseRestart)
		if err := restart.Save(g.world, g.restartPath); err != nil {
			slog.Error("periodic restart save failed", "error", err)
		}
	}

	g.perfCollector.EndTick()
}

// Save writes a restart file for the current state.
func (g *Game) Save(path string) error {
	return restart.Save(g.world, path)
}

// Tick returns the number of completed ticks.
func (g *Game) Tick() uint64 {
	return g.world.Time()
}

// World exposes the simulated world for queries.
func (g *Game) World() *world.World {
	return g.world
}

// Population returns the current creature count.
func (g *Game) Population() int {
	n, _ := g.world.Counts()
	return n
}

// Unload releases the world's workers and closes telemetry output.
func (g *Game) Unload() {
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
	g.world.Close()
}
