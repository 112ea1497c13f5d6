// Package telemetry provides population tracking, bookmarking and performance
// timing for simulation runs.
package telemetry

import "github.com/pthm-cable/evolution/world"

// Collector accumulates step events within tick windows and produces
// WindowStats.
type Collector struct {
	windowTicks uint64

	// Current window tracking
	windowStart uint64
	events      world.StepStats
}

// NewCollector creates a new stats collector flushing every windowTicks ticks.
func NewCollector(windowTicks int) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{windowTicks: uint64(windowTicks)}
}

// Reset starts a new window at tick without flushing, e.g. after a restart load.
func (c *Collector) Reset(tick uint64) {
	c.windowStart = tick
	c.events = world.StepStats{}
}

// Record adds one step's events to the current window.
func (c *Collector) Record(s world.StepStats) {
	c.events.Add(s)
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick uint64) bool {
	return currentTick-c.windowStart >= c.windowTicks
}

// Population is a snapshot of the world taken at window end.
type Population struct {
	Creatures int
	Foods     int // stored food entries, sprouts included
	Grass     int
	Meat      int
	NextID    uint64
	Energies  []float64
}

// SamplePopulation reads the population snapshot from w.
func SamplePopulation(w *world.World) Population {
	var p Population
	p.Creatures, p.Foods = w.Counts()
	p.NextID = w.NextID()
	p.Energies = make([]float64, 0, p.Creatures)
	for c := range w.Creatures() {
		p.Energies = append(p.Energies, float64(c.Energy))
	}
	for f := range w.Foods() {
		switch f.Type {
		case world.Grass:
			p.Grass++
		case world.Meat:
			p.Meat++
		}
	}
	return p
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick uint64, pop Population) WindowStats {
	mean, std, p10, p50, p90 := ComputeEnergyStats(pop.Energies)

	stats := WindowStats{
		WindowStartTick: c.windowStart,
		WindowEndTick:   currentTick,

		Creatures: pop.Creatures,
		Foods:     pop.Foods,
		Grass:     pop.Grass,
		Meat:      pop.Meat,
		NextID:    pop.NextID,

		Births:           c.events.Births,
		Deaths:           c.events.Deaths,
		SpawnFailures:    c.events.SpawnFailures,
		MeatSpawned:      c.events.MeatSpawned,
		FoodEaten:        c.events.FoodEaten,
		SproutsSpawned:   c.events.SproutsSpawned,
		SproutsRepressed: c.events.SproutsRepressed,

		EnergyMean: mean,
		EnergyStd:  std,
		EnergyP10:  p10,
		EnergyP50:  p50,
		EnergyP90:  p90,
	}

	c.Reset(currentTick)
	return stats
}

// WindowTicks returns the number of ticks per window.
func (c *Collector) WindowTicks() uint64 {
	return c.windowTicks
}
