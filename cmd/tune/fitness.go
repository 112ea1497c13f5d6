package main

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/evolution/config"
	"github.com/pthm-cable/evolution/game"
	"github.com/pthm-cable/evolution/telemetry"
)

// FitnessEvaluator runs headless simulations and scores how closely the
// creature count holds a target.
type FitnessEvaluator struct {
	params      *ParamVector
	ticks       uint64
	sampleEvery uint64
	seeds       []uint64
	target      float64
	baseConfig  *config.Config

	mu          sync.Mutex
	lastMean    float64 // mean creature count from the most recent Evaluate call
	lastExtinct int     // seeds that went extinct in the most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, ticks, sampleEvery uint64, seeds []uint64, target float64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		ticks:       ticks,
		sampleEvery: max(sampleEvery, 1),
		seeds:       seeds,
		target:      target,
		baseConfig:  baseCfg,
	}
}

// LastRun returns the mean population and extinct seed count of the most
// recent evaluation.
func (fe *FitnessEvaluator) LastRun() (meanPop float64, extinct int) {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastMean, fe.lastExtinct
}

// runResult holds the results from a single simulation run.
type runResult struct {
	counts  []float64 // creature count at each sample
	extinct bool
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
// Invalid parameter sets score +Inf.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := *fe.baseConfig
	cfg.World.Workers = 1 // seeds already run in parallel
	cfg.Telemetry.StatsWindow = int(fe.sampleEvery)
	cfg.Telemetry.ChecksumEvery = 0
	cfg.Restart = config.RestartConfig{}
	if err := fe.params.ApplyToConfig(&cfg, x); err != nil {
		return math.Inf(1)
	}

	// Run all seeds in parallel
	results := make([]runResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s uint64) {
			defer wg.Done()
			results[idx] = fe.runSimulation(&cfg, s)
		}(i, seed)
	}
	wg.Wait()

	fitness := make([]float64, len(results))
	var means []float64
	extinct := 0
	for i, r := range results {
		fitness[i] = fe.computeFitness(r)
		if r.extinct {
			extinct++
		}
		if len(r.counts) > 0 {
			means = append(means, stat.Mean(r.counts, nil))
		}
	}

	fe.mu.Lock()
	fe.lastMean = 0
	if len(means) > 0 {
		fe.lastMean = stat.Mean(means, nil)
	}
	fe.lastExtinct = extinct
	fe.mu.Unlock()

	return stat.Mean(fitness, nil)
}

// runSimulation executes a single headless run, sampling the creature count
// at every telemetry window. Samples after extinction are recorded as zero.
func (fe *FitnessEvaluator) runSimulation(cfg *config.Config, seed uint64) runResult {
	var result runResult
	samples := int(fe.ticks / fe.sampleEvery)

	g, err := game.NewGameWithOptions(game.Options{
		Config: cfg,
		Seed:   seed,
		StatsCallback: func(stats telemetry.WindowStats) {
			result.counts = append(result.counts, float64(stats.Creatures))
		},
	})
	if err != nil {
		result.extinct = true
		result.counts = make([]float64, samples)
		return result
	}
	defer g.Unload()

	for g.Tick() < fe.ticks {
		g.UpdateHeadless()
		if g.Population() == 0 {
			result.extinct = true
			break
		}
	}

	for len(result.counts) < samples {
		result.counts = append(result.counts, 0)
	}
	return result
}

// computeFitness is the mean squared relative deviation of the sampled
// creature count from the target.
func (fe *FitnessEvaluator) computeFitness(r runResult) float64 {
	return relativeDeviation(r.counts, fe.target)
}

func relativeDeviation(counts []float64, target float64) float64 {
	if len(counts) == 0 || target <= 0 {
		return math.Inf(1)
	}
	sq := make([]float64, len(counts))
	for i, n := range counts {
		d := (n - target) / target
		sq[i] = d * d
	}
	return stat.Mean(sq, nil)
}
