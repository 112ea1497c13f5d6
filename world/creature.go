package world

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/evolution/components"
	"github.com/pthm-cable/evolution/fixmath"
)

// Creature is one agent. It lives in the world's arena and its tile holds
// the handle; detectors elsewhere only refer to it for the current tick.
type Creature struct {
	ID       uint64
	ParentID uint64 // 0 for founders
	FatherID uint64 // paternity target at birth, 0 if none

	Pos   Position
	Angle fixmath.Angle

	Energy        uint32
	MaxEnergy     uint32
	PassiveEnergy uint32 // locked in the body, released as meat on death
	PassiveCost   uint32

	TotalLife uint32
	MaxLife   uint32
	Damage    uint32 // accumulated this tick

	Flags uint8 // active signal bits

	components.Body

	// Input holds neuron activations followed by sensor readings.
	Input []uint8

	Father Detector

	entity ecs.Entity // arena handle, zero outside a world
}

// NewCreature builds a creature with its own copy of body.
func NewCreature(id uint64, pos Position, angle fixmath.Angle, energy, passiveCost uint32, body *components.Body) *Creature {
	c := &Creature{
		ID:          id,
		Pos:         pos,
		Angle:       angle,
		Energy:      energy,
		MaxEnergy:   energy,
		PassiveCost: passiveCost,
		Body:        body.Clone(),
	}
	c.Input = make([]uint8, c.InputSize())
	c.MaxLife = c.Body.MaxLife()
	c.TotalLife = c.MaxLife
	return c
}

// Entity returns the creature's handle in its world.
func (c *Creature) Entity() ecs.Entity { return c.entity }

// spawn builds an offspring of parent holding energy. The body plan is
// inherited unchanged.
func spawn(id uint64, pos Position, angle fixmath.Angle, energy uint32, parent *Creature) *Creature {
	c := NewCreature(id, pos, angle, energy, parent.PassiveCost, &parent.Body)
	c.MaxEnergy = max(parent.MaxEnergy, energy)
	c.ParentID = parent.ID
	if parent.Father.Found() {
		c.FatherID = parent.Father.ID
	}
	return c
}

// PreProcess clears the per-tick sensory accumulators.
func (c *Creature) PreProcess(cfg *Config) {
	c.Father.Reset(cfg.derived.baseR2)
	for i := range c.Eyes {
		c.Eyes[i].Count = 0
	}
	for i := range c.Radars {
		c.Radars[i].MinR2 = fixmath.MaxR2
	}
	c.Damage = 0
}

func (c *Creature) updateView(flags uint8, r2 uint64, test fixmath.Angle) {
	for i := range c.Eyes {
		if c.Eyes[i].Sees(flags, r2, test) && c.Eyes[i].Count < 0xFFFFFFFF {
			c.Eyes[i].Count++
		}
	}
	for i := range c.Radars {
		if c.Radars[i].Sees(flags, test) && r2 < c.Radars[i].MinR2 {
			c.Radars[i].MinR2 = r2
		}
	}
}

// ProcessDetectors senses other at squared distance r2 in direction dir.
func (c *Creature) ProcessDetectors(other *Creature, r2 uint64, dir fixmath.Angle) {
	c.Father.Update(r2, other)
	if r2 == 0 {
		return // no direction
	}

	c.updateView(other.Flags, r2, dir-c.Angle)
	test := (dir - other.Angle) ^ fixmath.FlipAngle
	for i := range other.Claws {
		if other.Claws[i].Hits(r2, test) {
			c.Damage = fixmath.SatAdd32(c.Damage, other.Claws[i].Damage)
		}
	}
}

// Interact runs detection both ways between two creatures.
func Interact(c1, c2 *Creature) {
	dx := fixmath.Delta(c2.Pos.X, c1.Pos.X)
	dy := fixmath.Delta(c2.Pos.Y, c1.Pos.Y)
	r2 := fixmath.Dist2(dx, dy)
	dir := fixmath.CalcAngle(dx, dy)

	c1.ProcessDetectors(c2, r2, dir)
	c2.ProcessDetectors(c1, r2, dir^fixmath.FlipAngle)
}

// ProcessFood senses visible food and, while eating, bids for it.
func (c *Creature) ProcessFood(foods []Food) {
	eating := c.Flags&components.FlagEating != 0
	for i := range foods {
		f := &foods[i]
		if !f.Alive() {
			continue
		}
		dx := fixmath.Delta(f.Pos.X, c.Pos.X)
		dy := fixmath.Delta(f.Pos.Y, c.Pos.Y)
		r2 := fixmath.Dist2(dx, dy)
		if eating {
			f.Eater.Update(r2, c)
		}
		if r2 == 0 {
			continue
		}
		c.updateView(1<<f.Type, r2, fixmath.CalcAngle(dx, dy)-c.Angle)
	}
}

// PostProcess packs the sensors into the input buffer after the neuron slots.
func (c *Creature) PostProcess() {
	cur := c.Input[len(c.Net.Neurons):]
	left := c.Energy
	for _, s := range c.Stomachs {
		level := min(left, s.Capacity)
		cur[0] = s.Level(level)
		cur = cur[1:]
		left -= level
	}
	for _, h := range c.Hides {
		cur[0] = h.Level()
		cur = cur[1:]
	}
	for _, e := range c.Eyes {
		cur[0] = uint8(min(255, e.Count))
		cur = cur[1:]
	}
	for _, r := range c.Radars {
		cur[0] = fixmath.CalcRadius(r.MinR2)
		cur = cur[1:]
	}
	if len(cur) != 0 {
		panic("world: input buffer does not match body plan")
	}
}

// ExecuteStep thinks and acts once. A dying creature reports dead with the
// energy to convert into meat.
func (c *Creature) ExecuteStep(cfg *Config) (deadEnergy uint32, dead bool) {
	c.Flags = 0
	cost := fixmath.SatAdd32(c.PassiveCost, c.Net.Evaluate(c.Input, cfg.InputLevel))

	// The last hide is the outermost: it regenerates and absorbs first.
	c.TotalLife = 0
	for i := len(c.Hides) - 1; i >= 0; i-- {
		h := &c.Hides[i]
		h.Life = min(h.MaxLife, fixmath.SatAdd32(h.Life, h.Regen))
		hit := min(h.Life, c.Damage)
		h.Life -= hit
		c.Damage -= hit
		c.TotalLife = fixmath.SatAdd32(c.TotalLife, h.Life)
	}

	c.Energy = min(c.Energy, c.MaxEnergy)
	if c.Damage != 0 || c.Energy < cost {
		return fixmath.SatAdd32(c.PassiveEnergy, c.Energy), true
	}
	c.Energy -= cost

	out := c.Input
	for i := range c.Wombs {
		w := &c.Wombs[i]
		w.Active = out[0] != 0 && c.Energy >= w.Energy
		if w.Active {
			c.Energy -= w.Energy
		}
		out = out[1:]
	}
	for i := range c.Claws {
		c.Claws[i].Active = out[0] != 0
		out = out[1:]
	}
	for _, leg := range c.Legs {
		if out[0] != 0 {
			dx, dy := fixmath.Displace(leg.Dist, c.Angle+leg.Angle)
			c.Pos.X += uint64(dx)
			c.Pos.Y += uint64(dy)
		}
		out = out[1:]
	}
	for _, rot := range c.Rotators {
		if out[0] != 0 {
			c.Angle += rot.Delta
		}
		out = out[1:]
	}
	for _, sig := range c.Signals {
		if out[0] != 0 {
			c.Flags |= sig.Flag
		}
		out = out[1:]
	}
	return 0, false
}

// outcome is the result of one creature's think-act pass.
type outcome struct {
	prevPos    Position
	prevAngle  fixmath.Angle
	deadEnergy uint32
	dead       bool
}

func (c *Creature) step(cfg *Config) outcome {
	o := outcome{prevPos: c.Pos, prevAngle: c.Angle}
	c.PostProcess()
	o.deadEnergy, o.dead = c.ExecuteStep(cfg)
	return o
}
