package world

import (
	"errors"
	"fmt"
	"iter"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/evolution/fixmath"
)

// ErrInvariant is returned by CheckInvariants.
var ErrInvariant = errors.New("world: invariant violated")

// Config returns the world's configuration.
func (w *World) Config() Config { return w.cfg }

// Time is the number of completed steps.
func (w *World) Time() uint64 { return w.time }

// NextID is the id the next born creature will receive.
func (w *World) NextID() uint64 { return w.nextID }

// LastStep returns the event counts of the most recent step.
func (w *World) LastStep() StepStats { return w.stats }

// Counts returns the live creature count and the stored food count.
func (w *World) Counts() (creatures, foods int) {
	return w.totalCreatures, w.totalFood
}

// SetPhaseHook installs fn to be called with the name of each step phase as
// it starts. A nil fn removes the hook.
func (w *World) SetPhaseHook(fn func(phase string)) { w.hook = fn }

// Creatures iterates over every creature in tile order. The world must not
// be stepped or spawned into while iterating.
func (w *World) Creatures() iter.Seq[*Creature] {
	return func(yield func(*Creature) bool) {
		for i := range w.tiles {
			for _, e := range w.tiles[i].creatures {
				if !yield(w.creatures.Get(e)) {
					return
				}
			}
		}
	}
}

// Foods iterates over visible food in tile order.
func (w *World) Foods() iter.Seq[Food] {
	return func(yield func(Food) bool) {
		for i := range w.tiles {
			for k := range w.tiles[i].foods {
				f := w.tiles[i].foods[k]
				if !f.Alive() {
					continue
				}
				if !yield(f) {
					return
				}
			}
		}
	}
}

// Select returns the creature nearest to (x, y) strictly within radius, or
// nil. The point wraps into the world like a position does. Only the tiles
// overlapping the query box are searched, so radius is clamped to half a
// tile.
func (w *World) Select(x, y uint64, radius uint32) *Creature {
	radius = min(radius, fixmath.TileSize/2)
	r := uint64(radius)
	mx, my := w.cfg.derived.fullMaskX, w.cfg.derived.fullMaskY
	x, y = x&mx, y&my
	x1, x2 := ((x-r)&mx)>>fixmath.TileOrder, ((x+r)&mx)>>fixmath.TileOrder
	y1, y2 := ((y-r)&my)>>fixmath.TileOrder, ((y+r)&my)>>fixmath.TileOrder

	var d Detector
	d.Reset(r * r)
	visit := func(tx, ty uint64) {
		index := int(tx) | int(ty)<<w.cfg.OrderX
		for _, e := range w.tiles[index].creatures {
			c := w.creatures.Get(e)
			dx := fixmath.Delta(c.Pos.X, x)
			dy := fixmath.Delta(c.Pos.Y, y)
			d.Update(fixmath.Dist2(dx, dy), c)
		}
	}
	for _, ty := range unique(y1, y2) {
		for _, tx := range unique(x1, x2) {
			visit(tx, ty)
		}
	}
	if !d.Found() {
		return nil
	}
	return w.creatures.Get(d.Target)
}

func unique(a, b uint64) []uint64 {
	if a == b {
		return []uint64{a}
	}
	return []uint64{a, b}
}

// CheckInvariants verifies the bookkeeping: aggregate counts, that every
// tile handle is live and listed once, that every creature sits in the tile
// its position maps to, and that ids are unique and below the next id.
func (w *World) CheckInvariants() error {
	if len(w.tiles) != w.cfg.TileCount() {
		return fmt.Errorf("%w: %d tiles, want %d", ErrInvariant, len(w.tiles), w.cfg.TileCount())
	}
	ids := make(map[uint64]struct{}, w.totalCreatures)
	creatures, foods := 0, 0
	for i := range w.tiles {
		t := &w.tiles[i]
		if t.spawnStart > len(t.foods) {
			return fmt.Errorf("%w: tile %d spawn start %d beyond %d foods", ErrInvariant, i, t.spawnStart, len(t.foods))
		}
		foods += len(t.foods)
		for _, e := range t.creatures {
			creatures++
			if e == (ecs.Entity{}) || !w.arena.Alive(e) {
				return fmt.Errorf("%w: tile %d holds a dead handle", ErrInvariant, i)
			}
			c := w.creatures.Get(e)
			if c.entity != e {
				return fmt.Errorf("%w: creature %d filed under a foreign handle", ErrInvariant, c.ID)
			}
			pos := c.Pos
			if index := w.tileIndex(&pos); index != i || pos != c.Pos {
				return fmt.Errorf("%w: creature %d in tile %d belongs to tile %d", ErrInvariant, c.ID, i, index)
			}
			if c.ID == 0 || c.ID >= w.nextID {
				return fmt.Errorf("%w: creature id %d outside [1, %d)", ErrInvariant, c.ID, w.nextID)
			}
			if _, dup := ids[c.ID]; dup {
				return fmt.Errorf("%w: creature id %d appears twice", ErrInvariant, c.ID)
			}
			ids[c.ID] = struct{}{}
			if len(c.Input) != c.InputSize() {
				return fmt.Errorf("%w: creature %d input buffer %d, want %d", ErrInvariant, c.ID, len(c.Input), c.InputSize())
			}
		}
	}
	if creatures != w.totalCreatures {
		return fmt.Errorf("%w: creature count %d, tracked %d", ErrInvariant, creatures, w.totalCreatures)
	}
	stored := 0
	query := w.all.Query()
	for query.Next() {
		stored++
	}
	if stored != creatures {
		return fmt.Errorf("%w: arena holds %d creatures, tiles list %d", ErrInvariant, stored, creatures)
	}
	if foods != w.totalFood {
		return fmt.Errorf("%w: food count %d, tracked %d", ErrInvariant, foods, w.totalFood)
	}
	return nil
}
