package world

import "log/slog"

// StepStats counts the events of the most recent step.
type StepStats struct {
	Births           int
	Deaths           int
	SpawnFailures    int // womb energy turned into meat
	MeatSpawned      int
	FoodEaten        int
	SproutsSpawned   int
	SproutsRepressed int
}

// LogValue implements slog.LogValuer.
func (s StepStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("births", s.Births),
		slog.Int("deaths", s.Deaths),
		slog.Int("spawn_failures", s.SpawnFailures),
		slog.Int("meat_spawned", s.MeatSpawned),
		slog.Int("food_eaten", s.FoodEaten),
		slog.Int("sprouts_spawned", s.SproutsSpawned),
		slog.Int("sprouts_repressed", s.SproutsRepressed),
	)
}

// Add accumulates o into s.
func (s *StepStats) Add(o StepStats) {
	s.Births += o.Births
	s.Deaths += o.Deaths
	s.SpawnFailures += o.SpawnFailures
	s.MeatSpawned += o.MeatSpawned
	s.FoodEaten += o.FoodEaten
	s.SproutsSpawned += o.SproutsSpawned
	s.SproutsRepressed += o.SproutsRepressed
}
