package world

import "github.com/pthm-cable/evolution/fixmath"

// FoodType is the food lifecycle state. Types above Sprout are visible and
// can be eaten.
type FoodType uint8

const (
	Dead FoodType = iota
	Sprout
	Grass
	Meat
)

func (t FoodType) String() string {
	switch t {
	case Dead:
		return "dead"
	case Sprout:
		return "sprout"
	case Grass:
		return "grass"
	case Meat:
		return "meat"
	}
	return "unknown"
}

// Position is a point in world units. Coordinates wrap at the world size.
type Position struct {
	X, Y uint64
}

// Food is a consumable with the detector that picks its eater.
type Food struct {
	Type  FoodType
	Pos   Position
	Eater Detector
}

func newFood(cfg *Config, t FoodType, pos Position) Food {
	f := Food{Type: t, Pos: pos}
	f.Eater.Reset(cfg.derived.baseR2)
	return f
}

// Alive reports whether the food is visible and edible.
func (f *Food) Alive() bool {
	return f.Type > Sprout
}

// carried is the type a surviving item takes into the next tick: sprouts
// graduate to grass, grass and meat keep their type.
func (f *Food) carried() FoodType {
	if f.Type > Sprout {
		return f.Type
	}
	return Grass
}

// checkGrass kills a sprout that lies within repression range of any grass
// in grass. It reports whether the sprout was repressed.
func (f *Food) checkGrass(cfg *Config, grass []Food) bool {
	if f.Type != Sprout {
		return false
	}
	for i := range grass {
		if grass[i].Type != Grass {
			continue
		}
		dx := fixmath.Delta(f.Pos.X, grass[i].Pos.X)
		dy := fixmath.Delta(f.Pos.Y, grass[i].Pos.Y)
		if fixmath.Dist2(dx, dy) >= cfg.derived.repressionR2 {
			continue
		}
		f.Type = Dead
		return true
	}
	return false
}
