package telemetry

import (
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a tick window.
type WindowStats struct {
	WindowStartTick uint64 `csv:"-"`
	WindowEndTick   uint64 `csv:"window_end"`

	// Population at window end
	Creatures int    `csv:"creatures"`
	Foods     int    `csv:"foods"`
	Grass     int    `csv:"grass"`
	Meat      int    `csv:"meat"`
	NextID    uint64 `csv:"next_id"`

	// Events during window
	Births           int `csv:"births"`
	Deaths           int `csv:"deaths"`
	SpawnFailures    int `csv:"spawn_failures"`
	MeatSpawned      int `csv:"meat_spawned"`
	FoodEaten        int `csv:"food_eaten"`
	SproutsSpawned   int `csv:"sprouts_spawned"`
	SproutsRepressed int `csv:"sprouts_repressed"`

	// Energy distribution (sampled at window end)
	EnergyMean float64 `csv:"energy_mean"`
	EnergyStd  float64 `csv:"energy_std"`
	EnergyP10  float64 `csv:"energy_p10"`
	EnergyP50  float64 `csv:"energy_p50"`
	EnergyP90  float64 `csv:"energy_p90"`
}

// ComputeEnergyStats returns the mean, sample standard deviation and
// 10/50/90th percentiles of values. All are zero for an empty slice.
func ComputeEnergyStats(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}

	if n == 1 {
		mean = values[0]
	} else {
		mean, std = stat.MeanStdDev(values, nil)
	}

	// Quantile needs sorted input
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	p10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)

	return mean, std, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("window_start", s.WindowStartTick),
		slog.Uint64("window_end", s.WindowEndTick),
		slog.Int("creatures", s.Creatures),
		slog.Int("foods", s.Foods),
		slog.Int("grass", s.Grass),
		slog.Int("meat", s.Meat),
		slog.Uint64("next_id", s.NextID),
		slog.Int("births", s.Births),
		slog.Int("deaths", s.Deaths),
		slog.Int("spawn_failures", s.SpawnFailures),
		slog.Int("meat_spawned", s.MeatSpawned),
		slog.Int("food_eaten", s.FoodEaten),
		slog.Int("sprouts_spawned", s.SproutsSpawned),
		slog.Int("sprouts_repressed", s.SproutsRepressed),
		slog.Float64("energy_mean", s.EnergyMean),
		slog.Float64("energy_std", s.EnergyStd),
		slog.Float64("energy_p10", s.EnergyP10),
		slog.Float64("energy_p50", s.EnergyP50),
		slog.Float64("energy_p90", s.EnergyP90),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
