// Package components holds the organ records that make up a creature's body.
package components

import "github.com/pthm-cable/evolution/fixmath"

// Flag bits shared by creature signals and food visibility.
// Food of type t is seen under flag 1<<t.
const (
	FlagEating uint8 = 1 << 0
	FlagGrass  uint8 = 1 << 2
	FlagMeat   uint8 = 1 << 3
	FlagSignal uint8 = 1 << 4 // first free signal channel
)

// Leg moves the body Dist quarter-units along heading+Angle when active.
type Leg struct {
	Dist  uint32
	Angle fixmath.Angle
}

// Rotator turns the body by Delta when active.
type Rotator struct {
	Delta fixmath.Angle
}

// Signal raises Flag on the body while active.
type Signal struct {
	Flag uint8
}

// Stomach reports how much of its capacity the creature's energy fills.
type Stomach struct {
	Capacity uint32
}

// Hide is armor: it absorbs damage and regenerates Regen life per tick.
type Hide struct {
	MaxLife uint32
	Regen   uint32
	Life    uint32
}

// NewHide returns a hide at full life.
func NewHide(maxLife, regen uint32) Hide {
	return Hide{MaxLife: maxLife, Regen: regen, Life: maxLife}
}

// Eye counts entities with matching flags inside its cone and radius.
type Eye struct {
	Flags  uint8
	Angle  fixmath.Angle
	Delta  fixmath.Angle // cone half-width
	Radius uint32
	Count  uint32
}

// Radar reports the nearest entity with matching flags inside its cone.
type Radar struct {
	Flags uint8
	Angle fixmath.Angle
	Delta fixmath.Angle
	MinR2 uint64
}

// Claw deals Damage to creatures inside its cone and radius while active.
type Claw struct {
	Angle  fixmath.Angle
	Delta  fixmath.Angle
	Radius uint32
	Damage uint32
	Active bool
}

// Womb reserves Energy for an offspring when active.
type Womb struct {
	Energy uint32
	Active bool
}

// Level returns the stomach fill as 0..255 for the given energy.
func (s Stomach) Level(energy uint32) uint8 {
	if energy >= s.Capacity {
		return 255
	}
	return uint8(uint64(energy) * 255 / uint64(s.Capacity))
}

// Level returns the remaining life as 0..255.
func (h Hide) Level() uint8 {
	if h.Life >= h.MaxLife {
		return 255
	}
	return uint8(uint64(h.Life) * 255 / uint64(h.MaxLife))
}

// Sees reports whether an entity with flags at bearing test and squared
// distance r2 triggers the eye.
func (e *Eye) Sees(flags uint8, r2 uint64, test fixmath.Angle) bool {
	if e.Flags&flags == 0 || !fixmath.InCone(test, e.Angle, e.Delta) {
		return false
	}
	return r2 < uint64(e.Radius)*uint64(e.Radius)
}

// Sees reports whether the radar's flag and cone test passes.
func (r *Radar) Sees(flags uint8, test fixmath.Angle) bool {
	return r.Flags&flags != 0 && fixmath.InCone(test, r.Angle, r.Delta)
}

// Hits reports whether the claw reaches a target at bearing test and squared
// distance r2.
func (c *Claw) Hits(r2 uint64, test fixmath.Angle) bool {
	if !c.Active || !fixmath.InCone(test, c.Angle, c.Delta) {
		return false
	}
	return r2 < uint64(c.Radius)*uint64(c.Radius)
}
