package components

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/evolution/fixmath"
	"github.com/pthm-cable/evolution/neural"
)

// ErrBadBody is returned by Validate for inconsistent body plans.
var ErrBadBody = errors.New("components: invalid body plan")

// Body is a creature's plan: ordered organ lists plus the controller.
//
// The controller's first OutputCount neurons drive organs in a fixed order:
// wombs, claws, legs, rotators, signals. Any remaining neurons are hidden.
type Body struct {
	Legs     []Leg
	Rotators []Rotator
	Signals  []Signal
	Stomachs []Stomach
	Hides    []Hide
	Eyes     []Eye
	Radars   []Radar
	Claws    []Claw
	Wombs    []Womb

	Net neural.Net
}

// OutputCount is the number of neurons bound to organs.
func (b *Body) OutputCount() int {
	return len(b.Wombs) + len(b.Claws) + len(b.Legs) + len(b.Rotators) + len(b.Signals)
}

// SensorCount is the number of sensor slots following the neuron slots.
func (b *Body) SensorCount() int {
	return len(b.Stomachs) + len(b.Hides) + len(b.Eyes) + len(b.Radars)
}

// InputSize is the length of the creature's input buffer.
func (b *Body) InputSize() int {
	return len(b.Net.Neurons) + b.SensorCount()
}

// MaxLife sums the capacity of every hide.
func (b *Body) MaxLife() uint32 {
	var life uint32
	for _, h := range b.Hides {
		life = fixmath.SatAdd32(life, h.MaxLife)
	}
	return life
}

// Validate checks that the controller covers every organ and its links stay
// inside the input buffer.
func (b *Body) Validate() error {
	if b.OutputCount() > len(b.Net.Neurons) {
		return fmt.Errorf("%w: %d organ outputs but %d neurons", ErrBadBody, b.OutputCount(), len(b.Net.Neurons))
	}
	for i, s := range b.Stomachs {
		if s.Capacity == 0 {
			return fmt.Errorf("%w: stomach %d has zero capacity", ErrBadBody, i)
		}
	}
	for i, h := range b.Hides {
		if h.MaxLife == 0 {
			return fmt.Errorf("%w: hide %d has zero capacity", ErrBadBody, i)
		}
		if h.Life > h.MaxLife {
			return fmt.Errorf("%w: hide %d life %d above max %d", ErrBadBody, i, h.Life, h.MaxLife)
		}
	}
	if err := b.Net.Validate(b.InputSize()); err != nil {
		return fmt.Errorf("%w: %w", ErrBadBody, err)
	}
	return nil
}

// Clone deep-copies the plan for an offspring. Per-life state is reset:
// hides are whole, sensors are clear and no organ is active.
func (b *Body) Clone() Body {
	c := Body{
		Legs:     append([]Leg(nil), b.Legs...),
		Rotators: append([]Rotator(nil), b.Rotators...),
		Signals:  append([]Signal(nil), b.Signals...),
		Stomachs: append([]Stomach(nil), b.Stomachs...),
		Hides:    append([]Hide(nil), b.Hides...),
		Eyes:     append([]Eye(nil), b.Eyes...),
		Radars:   append([]Radar(nil), b.Radars...),
		Claws:    append([]Claw(nil), b.Claws...),
		Wombs:    append([]Womb(nil), b.Wombs...),
		Net:      b.Net.Clone(),
	}
	for i := range c.Hides {
		c.Hides[i].Life = c.Hides[i].MaxLife
	}
	for i := range c.Eyes {
		c.Eyes[i].Count = 0
	}
	for i := range c.Radars {
		c.Radars[i].MinR2 = fixmath.MaxR2
	}
	for i := range c.Claws {
		c.Claws[i].Active = false
	}
	for i := range c.Wombs {
		c.Wombs[i].Active = false
	}
	return c
}

// DefaultBody is the founder plan: one forward leg, one slow rotator, an
// eating signal, a stomach and a hide, each driven by an always-on neuron.
func DefaultBody() Body {
	return Body{
		Legs:     []Leg{{Dist: fixmath.TileSize / 64, Angle: 0}},
		Rotators: []Rotator{{Delta: 1}},
		Signals:  []Signal{{Flag: FlagEating}},
		Stomachs: []Stomach{{Capacity: 256 << 8}},
		Hides:    []Hide{NewHide(256<<8, 32)},
		Net: neural.Net{
			Neurons: []neural.Neuron{
				{ActCost: 1, ActLevel: -1}, // leg
				{ActCost: 1, ActLevel: -1}, // rotator
				{ActCost: 1, ActLevel: -1}, // mouth
			},
		},
	}
}
