package world

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/evolution/components"
	"github.com/pthm-cable/evolution/fixmath"
)

// ErrConfig is returned for configurations the world cannot run.
var ErrConfig = errors.New("world: invalid config")

// Largest supported grid order per axis. Coordinates must stay inside 31
// bits so deltas fit the int32 distance math.
const maxOrder = 31 - fixmath.TileOrder

// Config holds the immutable per-run parameters.
// Distances ending in Dist are in quarter units.
type Config struct {
	OrderX, OrderY      uint32 // log2 of tile grid width and height
	BaseRadius          uint32 // paternity and eating radius
	FoodEnergy          uint32 // energy per food item
	InputLevel          uint8  // value written for an active neuron
	ExpSproutPerTile    uint32 // Poisson parameter, see PoissonParam
	ExpSproutPerGrass   uint32
	RepressionRange     uint32
	SproutDist          uint32
	MeatDist            uint32
	MaxCreaturesPerTile uint32 // offspring spawn fails above this; 0 = unlimited

	derived derived
}

type derived struct {
	maskX, maskY         uint32
	fullMaskX, fullMaskY uint64
	baseR2, repressionR2 uint64
}

// DefaultConfig returns the stock 32x32 tile world.
func DefaultConfig() Config {
	c := Config{
		OrderX:            5,
		OrderY:            5,
		BaseRadius:        fixmath.TileSize / 64,
		FoodEnergy:        1024,
		InputLevel:        16,
		ExpSproutPerTile:  0xEFFFFFFF,
		ExpSproutPerGrass: 0xEFFFFFFF,
		RepressionRange:   fixmath.TileSize / 16,
		MeatDist:          fixmath.TileSize / 64,
	}
	c.SproutDist = 5 * c.RepressionRange
	c.calcDerived()
	return c
}

// Validate reports parameters that would break the stepping engine.
func (c *Config) Validate() error {
	if c.OrderX > maxOrder || c.OrderY > maxOrder {
		return fmt.Errorf("%w: grid order %dx%d exceeds %d", ErrConfig, c.OrderX, c.OrderY, maxOrder)
	}
	if c.FoodEnergy == 0 {
		return fmt.Errorf("%w: food energy must be positive", ErrConfig)
	}
	if c.BaseRadius > fixmath.TileSize {
		return fmt.Errorf("%w: base radius %d exceeds tile size", ErrConfig, c.BaseRadius)
	}
	return nil
}

// TileCount is the number of tiles in the grid.
func (c *Config) TileCount() int {
	return 1 << (c.OrderX + c.OrderY)
}

// Width is the world width in world units.
func (c *Config) Width() uint64 {
	return uint64(1) << (c.OrderX + fixmath.TileOrder)
}

// Height is the world height in world units.
func (c *Config) Height() uint64 {
	return uint64(1) << (c.OrderY + fixmath.TileOrder)
}

func (c *Config) calcDerived() {
	c.derived = derived{
		maskX:        1<<c.OrderX - 1,
		maskY:        1<<c.OrderY - 1,
		fullMaskX:    1<<(uint64(c.OrderX)+fixmath.TileOrder) - 1,
		fullMaskY:    1<<(uint64(c.OrderY)+fixmath.TileOrder) - 1,
		baseR2:       uint64(c.BaseRadius) * uint64(c.BaseRadius),
		repressionR2: uint64(c.RepressionRange) * uint64(c.RepressionRange),
	}
}

// Genesis describes the initial population.
type Genesis struct {
	Seed           uint64
	ExpGrass       uint32 // Poisson parameter for initial sprouts per tile
	ExpCreatures   uint32 // Poisson parameter for initial creatures per tile
	CreatureEnergy uint32
	PassiveCost    uint32
	Body           components.Body
}

// DefaultGenesis seeds about eleven sprouts and eleven founders per tile.
func DefaultGenesis() Genesis {
	return Genesis{
		Seed:           1234,
		ExpGrass:       0xFFFF,
		ExpCreatures:   0xFFFF,
		CreatureEnergy: 64 << 10,
		PassiveCost:    256,
		Body:           components.DefaultBody(),
	}
}

// Options are runtime settings that are not part of the simulation state.
type Options struct {
	Workers int // execute-phase goroutines; <= 1 runs serially
}
