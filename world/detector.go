package world

import "github.com/mlange-42/ark/ecs"

// Detector tracks the closest qualifying creature seen since the last reset.
// Ties on distance go to the larger id, so the winner does not depend on the
// order candidates are visited in.
type Detector struct {
	MinR2  uint64
	ID     uint64 // 0 while nothing qualifies
	Target ecs.Entity
}

// Reset clears the target. Only candidates strictly inside r2 qualify.
func (d *Detector) Reset(r2 uint64) {
	*d = Detector{MinR2: r2}
}

// Found reports whether a candidate qualified since the last reset.
func (d *Detector) Found() bool { return d.ID != 0 }

// Update offers a candidate at squared distance r2.
func (d *Detector) Update(r2 uint64, c *Creature) {
	if r2 > d.MinR2 {
		return
	}
	if r2 == d.MinR2 && (!d.Found() || c.ID <= d.ID) {
		return
	}
	d.MinR2, d.ID, d.Target = r2, c.ID, c.entity
}
