// Package neural provides the threshold-unit controllers that drive creatures.
//
// A Net works in place over a byte buffer: the first len(Neurons) slots hold
// the previous evaluation's activations, the rest hold sensor readings. Links
// read any slot and accumulate into a neuron; after evaluation each neuron's
// slot is overwritten with its new activation, which doubles as the action
// vector consumed by the body.
package neural

import (
	"errors"
	"fmt"
	"math"

	"github.com/pthm-cable/evolution/fixmath"
)

// ErrBadLink is returned by Validate for links outside the buffer.
var ErrBadLink = errors.New("neural: link out of range")

// Neuron is a threshold unit. It fires when Level exceeds ActLevel and then
// charges ActCost energy for the tick.
type Neuron struct {
	ActCost  uint32
	ActLevel int32
	Level    int32
}

// Link adds Weight times buffer slot Input, widened to a signed value, to neuron Output.
type Link struct {
	Input  uint32
	Output uint32
	Weight int16
}

// Net is a feed-forward set of neurons and links.
type Net struct {
	Neurons []Neuron
	Links   []Link
}

// Evaluate runs one pass over buf and returns the summed activation cost.
// buf must be at least len(n.Neurons) long.
func (n *Net) Evaluate(buf []uint8, inputLevel uint8) uint32 {
	for i := range n.Neurons {
		n.Neurons[i].Level = 0
	}
	for _, l := range n.Links {
		nr := &n.Neurons[l.Output]
		nr.Level = satAdd(nr.Level, int32(l.Weight)*int32(buf[l.Input]))
	}

	var cost uint32
	for i := range n.Neurons {
		if n.Neurons[i].Level > n.Neurons[i].ActLevel {
			buf[i] = inputLevel
			cost = fixmath.SatAdd32(cost, n.Neurons[i].ActCost)
		} else {
			buf[i] = 0
		}
	}
	return cost
}

// Active reports how many neurons fired in the last evaluation.
func (n *Net) Active(buf []uint8) int {
	count := 0
	for i := range n.Neurons {
		if buf[i] != 0 {
			count++
		}
	}
	return count
}

// Validate checks that every link stays inside a buffer of bufLen slots.
func (n *Net) Validate(bufLen int) error {
	if len(n.Neurons) > bufLen {
		return fmt.Errorf("%w: %d neurons in a %d slot buffer", ErrBadLink, len(n.Neurons), bufLen)
	}
	for i, l := range n.Links {
		if int(l.Input) >= bufLen {
			return fmt.Errorf("%w: link %d reads slot %d of %d", ErrBadLink, i, l.Input, bufLen)
		}
		if int(l.Output) >= len(n.Neurons) {
			return fmt.Errorf("%w: link %d drives neuron %d of %d", ErrBadLink, i, l.Output, len(n.Neurons))
		}
	}
	return nil
}

// Clone returns a deep copy with levels cleared.
func (n *Net) Clone() Net {
	c := Net{
		Neurons: make([]Neuron, len(n.Neurons)),
		Links:   make([]Link, len(n.Links)),
	}
	copy(c.Neurons, n.Neurons)
	copy(c.Links, n.Links)
	for i := range c.Neurons {
		c.Neurons[i].Level = 0
	}
	return c
}

// satAdd adds two int32 values, clamping at the type bounds.
func satAdd(a, b int32) int32 {
	s := int64(a) + int64(b)
	if s > math.MaxInt32 {
		return math.MaxInt32
	}
	if s < math.MinInt32 {
		return math.MinInt32
	}
	return int32(s)
}
