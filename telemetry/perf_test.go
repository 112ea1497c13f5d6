package telemetry

import (
	"math"
	"testing"
	"time"

	"github.com/pthm-cable/evolution/world"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	// Simulate a few ticks
	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseRebuild)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseSweep)
		time.Sleep(200 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()

	// Verify we got timing data
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration")
	}

	// Verify phases are tracked
	if len(stats.PhaseAvg) == 0 {
		t.Error("expected phase averages to be populated")
	}

	if _, ok := stats.PhaseAvg[PhaseRebuild]; !ok {
		t.Error("expected rebuild phase to be tracked")
	}

	if _, ok := stats.PhaseAvg[PhaseSweep]; !ok {
		t.Error("expected sweep phase to be tracked")
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5) // Small window

	// Fill window completely
	for i := 0; i < 10; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseRebuild)
		pc.EndTick()
	}

	stats := pc.Stats()

	// Should have data
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration after window filled")
	}

	if stats.TicksPerSecond <= 0 {
		t.Error("expected positive ticks per second")
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	// Uneven phase durations, recorded directly so the result is exact
	for range 5 {
		pc.record(PerfSample{
			TickDuration: 200 * time.Microsecond,
			Phases: map[string]time.Duration{
				"fast": 20 * time.Microsecond,
				"slow": 150 * time.Microsecond,
			},
		})
	}

	stats := pc.Stats()

	tests := []struct {
		phase string
		avg   time.Duration
		pct   float64
	}{
		{"fast", 20 * time.Microsecond, 10},
		{"slow", 150 * time.Microsecond, 75},
	}
	for _, tt := range tests {
		if got := stats.PhaseAvg[tt.phase]; got != tt.avg {
			t.Errorf("PhaseAvg[%s] = %v, want %v", tt.phase, got, tt.avg)
		}
		if got := stats.PhasePct[tt.phase]; math.Abs(got-tt.pct) > 1e-9 {
			t.Errorf("PhasePct[%s] = %v, want %v", tt.phase, got, tt.pct)
		}
	}
	if stats.AvgTickDuration != 200*time.Microsecond {
		t.Errorf("AvgTickDuration = %v, want 200µs", stats.AvgTickDuration)
	}
	if math.Abs(stats.TicksPerSecond-5000) > 1e-9 {
		t.Errorf("TicksPerSecond = %v, want 5000", stats.TicksPerSecond)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10)

	stats := pc.Stats()

	// Empty collector should return zero values without panicking
	if stats.AvgTickDuration != 0 {
		t.Error("expected zero avg tick duration for empty collector")
	}

	if stats.PhaseAvg == nil {
		t.Error("expected non-nil PhaseAvg map")
	}

	if stats.PhasePct == nil {
		t.Error("expected non-nil PhasePct map")
	}
}

func TestPerfCollector_WorldHook(t *testing.T) {
	cfg := world.DefaultConfig()
	cfg.OrderX, cfg.OrderY = 1, 1
	w, err := world.New(cfg, world.DefaultGenesis(), world.Options{Workers: 1})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	pc := NewPerfCollector(10)
	w.SetPhaseHook(pc.StartPhase)
	for range 3 {
		pc.StartTick()
		w.NextStep()
		pc.StartPhase(PhaseTelemetry)
		pc.EndTick()
	}

	stats := pc.Stats()
	for _, phase := range []string{PhaseRebuild, PhaseExecute, PhasePreProcess, PhaseSweep, PhaseTelemetry} {
		if _, ok := stats.PhaseAvg[phase]; !ok {
			t.Errorf("phase %q not tracked", phase)
		}
	}

	row := stats.ToCSV(3)
	if row.WindowEnd != 3 {
		t.Errorf("WindowEnd = %d, want 3", row.WindowEnd)
	}
}
