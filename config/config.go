// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/evolution/components"
	"github.com/pthm-cable/evolution/fixmath"
	"github.com/pthm-cable/evolution/world"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("config: invalid value")

// Config holds all simulation configuration parameters.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Food      FoodConfig      `yaml:"food"`
	Creature  CreatureConfig  `yaml:"creature"`
	Init      InitConfig      `yaml:"init"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Restart   RestartConfig   `yaml:"restart"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds the grid geometry. Distances are fractions of a tile.
type WorldConfig struct {
	OrderX              uint32  `yaml:"order_x"`
	OrderY              uint32  `yaml:"order_y"`
	BaseRadius          float64 `yaml:"base_radius"`
	MaxCreaturesPerTile uint32  `yaml:"max_creatures_per_tile"`
	Workers             int     `yaml:"workers"`
}

// FoodConfig holds food energy and regrowth parameters.
// The exp_ fields are Poisson parameters: e^-mean scaled to 2^32.
type FoodConfig struct {
	Energy            uint32  `yaml:"energy"`
	ExpSproutPerTile  uint32  `yaml:"exp_sprout_per_tile"`
	ExpSproutPerGrass uint32  `yaml:"exp_sprout_per_grass"`
	RepressionRange   float64 `yaml:"repression_range"`
	SproutDist        float64 `yaml:"sprout_dist"`
	MeatDist          float64 `yaml:"meat_dist"`
}

// CreatureConfig holds founder energetics.
type CreatureConfig struct {
	InputLevel    uint8  `yaml:"input_level"`
	InitialEnergy uint32 `yaml:"initial_energy"`
	PassiveCost   uint32 `yaml:"passive_cost"`
}

// InitConfig holds the initial population parameters.
type InitConfig struct {
	Seed         uint64 `yaml:"seed"`
	ExpGrass     uint32 `yaml:"exp_grass"`
	ExpCreatures uint32 `yaml:"exp_creatures"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         int `yaml:"stats_window"`
	PerfCollectorWindow int `yaml:"perf_collector_window"`
	BookmarkHistory     int `yaml:"bookmark_history"`
	ChecksumEvery       int `yaml:"checksum_every"`
}

// RestartConfig holds periodic restart file settings.
type RestartConfig struct {
	Path      string `yaml:"path"`
	SaveEvery int    `yaml:"save_every"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	BaseRadius      uint32 // world units
	RepressionRange uint32 // world units
	SproutDist      uint32 // quarter units
	MeatDist        uint32 // quarter units

	// Expected event counts implied by the Poisson parameters.
	SproutPerTile    float64
	SproutPerGrass   float64
	GrassPerTile     float64
	CreaturesPerTile float64
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Refresh(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Refresh validates c and recomputes the derived values. Call it after
// changing fields of a loaded config.
func (c *Config) Refresh() error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.computeDerived()
	return nil
}

// Validate reports values the world cannot run with.
func (c *Config) Validate() error {
	if c.World.OrderX > 31-fixmath.TileOrder || c.World.OrderY > 31-fixmath.TileOrder {
		return fmt.Errorf("%w: world order %dx%d too large", ErrInvalid, c.World.OrderX, c.World.OrderY)
	}
	if c.World.Workers < 0 {
		return fmt.Errorf("%w: workers %d", ErrInvalid, c.World.Workers)
	}
	if c.Food.Energy == 0 {
		return fmt.Errorf("%w: food energy must be positive", ErrInvalid)
	}
	fractions := []struct {
		name string
		v    float64
	}{
		{"world.base_radius", c.World.BaseRadius},
		{"food.repression_range", c.Food.RepressionRange},
		{"food.sprout_dist", c.Food.SproutDist},
		{"food.meat_dist", c.Food.MeatDist},
	}
	for _, f := range fractions {
		if f.v < 0 || f.v > 1 {
			return fmt.Errorf("%w: %s = %v, want a tile fraction in [0, 1]", ErrInvalid, f.name, f.v)
		}
	}
	if c.Telemetry.StatsWindow < 1 {
		return fmt.Errorf("%w: telemetry.stats_window must be at least 1", ErrInvalid)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.BaseRadius = tileUnits(c.World.BaseRadius, 1)
	c.Derived.RepressionRange = tileUnits(c.Food.RepressionRange, 1)
	c.Derived.SproutDist = tileUnits(c.Food.SproutDist, 4)
	c.Derived.MeatDist = tileUnits(c.Food.MeatDist, 4)

	c.Derived.SproutPerTile = world.PoissonMean(c.Food.ExpSproutPerTile)
	c.Derived.SproutPerGrass = world.PoissonMean(c.Food.ExpSproutPerGrass)
	c.Derived.GrassPerTile = world.PoissonMean(c.Init.ExpGrass)
	c.Derived.CreaturesPerTile = world.PoissonMean(c.Init.ExpCreatures)
}

// tileUnits converts a tile fraction to world units times scale, clamped to
// the uint32 range.
func tileUnits(frac, scale float64) uint32 {
	v := frac * fixmath.TileSize * scale
	if v >= 1<<32-1 {
		return 1<<32 - 1
	}
	return uint32(v)
}

// Core returns the core world configuration.
func (c *Config) Core() world.Config {
	cfg := world.DefaultConfig()
	cfg.OrderX = c.World.OrderX
	cfg.OrderY = c.World.OrderY
	cfg.BaseRadius = c.Derived.BaseRadius
	cfg.FoodEnergy = c.Food.Energy
	cfg.InputLevel = c.Creature.InputLevel
	cfg.ExpSproutPerTile = c.Food.ExpSproutPerTile
	cfg.ExpSproutPerGrass = c.Food.ExpSproutPerGrass
	cfg.RepressionRange = c.Derived.RepressionRange
	cfg.SproutDist = c.Derived.SproutDist
	cfg.MeatDist = c.Derived.MeatDist
	cfg.MaxCreaturesPerTile = c.World.MaxCreaturesPerTile
	return cfg
}

// Genesis returns the initial population description. A non-zero seed
// overrides init.seed.
func (c *Config) Genesis(seed uint64) world.Genesis {
	if seed == 0 {
		seed = c.Init.Seed
	}
	return world.Genesis{
		Seed:           seed,
		ExpGrass:       c.Init.ExpGrass,
		ExpCreatures:   c.Init.ExpCreatures,
		CreatureEnergy: c.Creature.InitialEnergy,
		PassiveCost:    c.Creature.PassiveCost,
		Body:           components.DefaultBody(),
	}
}

// Options returns the runtime options for the world.
func (c *Config) Options() world.Options {
	workers := c.World.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return world.Options{Workers: workers}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
