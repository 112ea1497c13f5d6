package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/evolution/fixmath"
	"github.com/pthm-cable/evolution/world"
)

func TestDefaultsMatchWorldDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := cfg.Core()
	want := world.DefaultConfig()
	if got != want {
		t.Errorf("Core() = %+v\nwant %+v", got, want)
	}

	gen := cfg.Genesis(0)
	def := world.DefaultGenesis()
	if gen.Seed != def.Seed || gen.ExpGrass != def.ExpGrass || gen.ExpCreatures != def.ExpCreatures ||
		gen.CreatureEnergy != def.CreatureEnergy || gen.PassiveCost != def.PassiveCost {
		t.Errorf("Genesis(0) = %+v, want %+v", gen, def)
	}
	if got := cfg.Genesis(99).Seed; got != 99 {
		t.Errorf("seed override = %d, want 99", got)
	}
}

func TestDerivedMeans(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name     string
		got      float64
		min, max float64
	}{
		{"sprout per tile", cfg.Derived.SproutPerTile, 0.06, 0.07},
		{"sprout per grass", cfg.Derived.SproutPerGrass, 0.06, 0.07},
		{"grass per tile", cfg.Derived.GrassPerTile, 11, 11.2},
		{"creatures per tile", cfg.Derived.CreaturesPerTile, 11, 11.2},
	}
	for _, tt := range tests {
		if tt.got < tt.min || tt.got > tt.max {
			t.Errorf("%s = %v, want in [%v, %v]", tt.name, tt.got, tt.min, tt.max)
		}
	}
}

func TestLoadOverridesOnlyPresentFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	data := []byte("world:\n  order_x: 3\nfood:\n  exp_sprout_per_tile: 0x80000000\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.World.OrderX != 3 || cfg.World.OrderY != 5 {
		t.Errorf("orders = %d, %d; want 3, 5", cfg.World.OrderX, cfg.World.OrderY)
	}
	if cfg.Food.ExpSproutPerTile != 0x80000000 || cfg.Food.ExpSproutPerGrass != 0xEFFFFFFF {
		t.Errorf("exp = %#x, %#x", cfg.Food.ExpSproutPerTile, cfg.Food.ExpSproutPerGrass)
	}
	if cfg.Food.Energy != 1024 {
		t.Errorf("food energy = %d, want default 1024", cfg.Food.Energy)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"grid too large", "world:\n  order_x: 8\n"},
		{"zero food energy", "food:\n  energy: 0\n"},
		{"negative workers", "world:\n  workers: -1\n"},
		{"fraction above one", "food:\n  repression_range: 1.5\n"},
		{"zero stats window", "telemetry:\n  stats_window: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cfg.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); !errors.Is(err, ErrInvalid) {
				t.Errorf("Load = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.World.OrderX = 2
	cfg.Restart.Path = "run.evow"

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if back.World != cfg.World || back.Food != cfg.Food || back.Restart != cfg.Restart {
		t.Errorf("round trip mismatch:\n%+v\n%+v", back, cfg)
	}
}

func TestOptionsWorkers(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Options().Workers < 1 {
		t.Errorf("default workers = %d", cfg.Options().Workers)
	}
	cfg.World.Workers = 1
	if cfg.Options().Workers != 1 {
		t.Errorf("workers = %d, want 1", cfg.Options().Workers)
	}
}

func TestRefresh(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	cfg.Food.RepressionRange = 0.5
	if err := cfg.Refresh(); err != nil {
		t.Fatal(err)
	}
	if want := uint32(fixmath.TileSize / 2); cfg.Core().RepressionRange != want {
		t.Errorf("RepressionRange = %d, want %d", cfg.Core().RepressionRange, want)
	}

	cfg.Food.RepressionRange = 2
	if err := cfg.Refresh(); !errors.Is(err, ErrInvalid) {
		t.Errorf("Refresh() = %v, want ErrInvalid", err)
	}
}
