// Package world implements the tile-partitioned simulation engine: food
// regrowth, the creature sense-think-act cycle and the neighbor sweep that
// drive one tick.
package world

import (
	"fmt"
	"slices"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/evolution/components"
	"github.com/pthm-cable/evolution/fixmath"
)

// Phase names reported to the phase hook.
const (
	PhaseRebuild    = "rebuild"
	PhaseExecute    = "execute"
	PhasePreProcess = "pre_process"
	PhaseSweep      = "sweep"
)

// Tile is one grid cell. It exclusively owns its food and the handles of
// the creatures inside it.
type Tile struct {
	rand       Rand
	creatures  []ecs.Entity
	foods      []Food
	spawnStart int // foods[:spawnStart] were carried over from the previous tick
}

// World owns the tile grid and the arena holding every creature.
type World struct {
	cfg   Config
	tiles []Tile
	spare []Tile // previous tick's grid, reused as scratch
	pairs []tilePair

	arena     *ecs.World
	creatures *ecs.Map1[Creature]
	all       *ecs.Filter1[Creature]
	dead      []ecs.Entity   // removed from the arena after the execute pass
	live      [][]*Creature  // old grid resolved for the execute pass
	pairBuf   [2][]*Creature // sweep scratch

	totalFood      int
	totalCreatures int
	spawnPerTile   int
	nextID         uint64
	time           uint64

	stats    StepStats
	outcomes [][]outcome
	pool     *pool
	hook     func(string)
}

// New builds a world seeded from gen. Every tile receives Poisson-sampled
// sprouts and founders at uniform positions inside it.
func New(cfg Config, gen Genesis, opts Options) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := gen.Body.Validate(); err != nil {
		return nil, fmt.Errorf("genesis body: %w", err)
	}
	cfg.calcDerived()

	w := newWorld(cfg, opts)
	w.nextID = 1
	for i := range w.tiles {
		t := &w.tiles[i]
		t.rand = NewRand(gen.Seed, i)
		offX, offY := w.tileOffset(i)

		n := t.rand.Poisson(gen.ExpGrass)
		for range n {
			pos := t.randPos(offX, offY)
			t.foods = append(t.foods, newFood(&w.cfg, Sprout, pos))
		}

		n = t.rand.Poisson(gen.ExpCreatures)
		for range n {
			angle := fixmath.Angle(t.rand.Uint32())
			pos := t.randPos(offX, offY)
			c := NewCreature(w.nextID, pos, angle, gen.CreatureEnergy, gen.PassiveCost, &gen.Body)
			w.nextID++
			w.insert(i, c)
		}
		w.totalFood += len(t.foods)
	}

	w.settle()
	return w, nil
}

func newWorld(cfg Config, opts Options) *World {
	n := cfg.TileCount()
	arena := ecs.NewWorld()
	w := &World{
		cfg:          cfg,
		tiles:        make([]Tile, n),
		spare:        make([]Tile, n),
		arena:        arena,
		creatures:    ecs.NewMap1[Creature](arena),
		all:          ecs.NewFilter1[Creature](arena),
		live:         make([][]*Creature, n),
		spawnPerTile: 4,
		outcomes:     make([][]outcome, n),
	}
	w.pairs = buildPairs(&w.cfg)
	if opts.Workers > 1 {
		w.pool = newPool(opts.Workers)
	}
	return w
}

// Close stops the worker pool. The world stays usable serially.
func (w *World) Close() {
	if w.pool != nil {
		w.pool.stop()
		w.pool = nil
	}
}

// insert moves c into the arena and files its handle under tile index.
// Creature pointers obtained earlier may be invalidated.
func (w *World) insert(index int, c *Creature) ecs.Entity {
	e := w.creatures.NewEntity(c)
	w.creatures.Get(e).entity = e
	w.tiles[index].creatures = append(w.tiles[index].creatures, e)
	w.totalCreatures++
	return e
}

// resolve appends the creatures behind handles to dst.
func (w *World) resolve(dst []*Creature, handles []ecs.Entity) []*Creature {
	for _, e := range handles {
		dst = append(dst, w.creatures.Get(e))
	}
	return dst
}

// Creature returns the creature behind e, or nil once it has died. The
// pointer stays valid until the next step or spawn.
func (w *World) Creature(e ecs.Entity) *Creature {
	if e == (ecs.Entity{}) || !w.arena.Alive(e) {
		return nil
	}
	return w.creatures.Get(e)
}

func (t *Tile) randPos(offX, offY uint64) Position {
	x := uint64(t.rand.Uint32()&fixmath.TileMask) | offX
	y := uint64(t.rand.Uint32()&fixmath.TileMask) | offY
	return Position{X: x, Y: y}
}

func (w *World) tileOffset(i int) (x, y uint64) {
	tx := uint64(uint32(i) & w.cfg.derived.maskX)
	ty := uint64(i >> w.cfg.OrderX)
	return tx << fixmath.TileOrder, ty << fixmath.TileOrder
}

// tileIndex wraps pos into the world and returns the tile that holds it.
func (w *World) tileIndex(pos *Position) int {
	pos.X &= w.cfg.derived.fullMaskX
	pos.Y &= w.cfg.derived.fullMaskY
	return int(pos.X>>fixmath.TileOrder) | int(pos.Y>>fixmath.TileOrder)<<w.cfg.OrderX
}

func (w *World) phase(name string) {
	if w.hook != nil {
		w.hook(name)
	}
}

// NextStep advances the world one tick.
func (w *World) NextStep() {
	w.stats = StepStats{}

	w.phase(PhaseRebuild)
	old := w.tiles
	w.tiles, w.spare = w.spare, old
	w.totalFood = 0
	for i := range old {
		w.rebuildTile(i, &old[i])
	}

	w.phase(PhaseExecute)
	w.executeAll(old)
	w.totalCreatures = 0
	for i := range old {
		w.spawnGrass(i)
		w.applyTile(i, old[i].creatures)
	}
	for _, e := range w.dead {
		w.arena.RemoveEntity(e)
	}
	w.dead = w.dead[:0]
	for i := range old {
		old[i].creatures = old[i].creatures[:0]
		old[i].foods = old[i].foods[:0]
		clear(w.live[i])
		w.live[i] = w.live[i][:0]
	}

	w.phase(PhasePreProcess)
	spawned := 0
	for i := range w.tiles {
		t := &w.tiles[i]
		spawned = max(spawned, len(t.foods)-t.spawnStart)
		for _, e := range t.creatures {
			w.creatures.Get(e).PreProcess(&w.cfg)
		}
	}
	w.spawnPerTile = max(w.spawnPerTile/2, 2*spawned+1)

	w.phase(PhaseSweep)
	w.sweep()
	w.time++
}

// rebuildTile carries old's food into tile i. Eaten food pays its eater,
// dead food is dropped and the rest graduates.
func (w *World) rebuildTile(i int, old *Tile) {
	t := &w.tiles[i]
	t.rand = old.rand
	t.creatures = t.creatures[:0]
	t.foods = slices.Grow(t.foods[:0], len(old.foods)+w.spawnPerTile)
	for k := range old.foods {
		f := &old.foods[k]
		switch {
		case f.Eater.Found():
			e := w.creatures.Get(f.Eater.Target)
			e.Energy = fixmath.SatAdd32(e.Energy, w.cfg.FoodEnergy)
			w.stats.FoodEaten++
		case f.Type != Dead:
			t.foods = append(t.foods, newFood(&w.cfg, f.carried(), f.Pos))
		}
	}
	t.spawnStart = len(t.foods)
	w.totalFood += len(t.foods)
}

// applyTile relocates the survivors of old tile i and spawns meat and
// offspring in tile i. Outcomes must already be computed. The dead are
// queued for removal from the arena.
func (w *World) applyTile(i int, creatures []ecs.Entity) {
	t := &w.tiles[i]
	for k, e := range creatures {
		o := w.outcomes[i][k]
		if o.dead {
			w.stats.Deaths++
			w.spawnMeat(&t.rand, o.prevPos, o.deadEnergy)
			w.dead = append(w.dead, e)
			continue
		}

		c := w.creatures.Get(e)
		index := w.tileIndex(&c.Pos)
		w.tiles[index].creatures = append(w.tiles[index].creatures, e)
		w.totalCreatures++
		for j := range c.Wombs {
			// Re-fetched: inserting a child may move the parent.
			parent := w.creatures.Get(e)
			womb := parent.Wombs[j]
			if !womb.Active {
				continue
			}
			if limit := w.cfg.MaxCreaturesPerTile; limit != 0 && len(t.creatures) >= int(limit) {
				w.stats.SpawnFailures++
				w.spawnMeat(&t.rand, o.prevPos, womb.Energy)
				continue
			}
			child := spawn(w.nextID, o.prevPos, o.prevAngle, womb.Energy, parent)
			w.nextID++
			w.insert(i, child)
			w.stats.Births++
		}
	}
}

// spawnGrass draws fresh sprouts inside tile i and around each carried
// grass item. Sprouts around grass may land in any tile.
func (w *World) spawnGrass(i int) {
	t := &w.tiles[i]
	offX, offY := w.tileOffset(i)
	n := t.rand.Poisson(w.cfg.ExpSproutPerTile)
	for range n {
		t.foods = append(t.foods, newFood(&w.cfg, Sprout, t.randPos(offX, offY)))
	}
	w.totalFood += int(n)
	w.stats.SproutsSpawned += int(n)

	for k := 0; k < t.spawnStart; k++ {
		if t.foods[k].Type != Grass {
			continue
		}
		n := t.rand.Poisson(w.cfg.ExpSproutPerGrass)
		for range n {
			pos := t.foods[k].Pos
			angle := fixmath.Angle(t.rand.Uint32())
			dx, dy := fixmath.Displace(w.cfg.SproutDist, angle)
			pos.X += uint64(dx)
			pos.Y += uint64(dy)
			index := w.tileIndex(&pos)
			w.tiles[index].foods = append(w.tiles[index].foods, newFood(&w.cfg, Sprout, pos))
		}
		w.totalFood += int(n)
		w.stats.SproutsSpawned += int(n)
	}
}

// spawnMeat converts energy into meat of FoodEnergy each, the first at pos
// and each further one scattered from the previous. The remainder below one
// unit is discarded.
func (w *World) spawnMeat(rand *Rand, pos Position, energy uint32) {
	if energy < w.cfg.FoodEnergy {
		return
	}
	for energy -= w.cfg.FoodEnergy; ; {
		index := w.tileIndex(&pos)
		w.tiles[index].foods = append(w.tiles[index].foods, newFood(&w.cfg, Meat, pos))
		w.totalFood++
		w.stats.MeatSpawned++
		if energy < w.cfg.FoodEnergy {
			return
		}
		energy -= w.cfg.FoodEnergy

		angle := fixmath.Angle(rand.Uint32())
		dx, dy := fixmath.Displace(w.cfg.MeatDist, angle)
		pos.X += uint64(dx)
		pos.Y += uint64(dy)
	}
}

// executeAll runs post_process and execute_step for every creature of the
// old grid, recording outcomes per tile.
func (w *World) executeAll(old []Tile) {
	for i := range old {
		n := len(old[i].creatures)
		w.outcomes[i] = slices.Grow(w.outcomes[i][:0], n)[:n]
		w.live[i] = w.resolve(w.live[i][:0], old[i].creatures)
	}
	if w.pool != nil && w.totalCreatures >= parallelThreshold {
		w.pool.run(len(old), func(start, end int) {
			w.executeRange(start, end)
		})
		return
	}
	w.executeRange(0, len(old))
}

func (w *World) executeRange(start, end int) {
	for i := start; i < end; i++ {
		out := w.outcomes[i]
		for k, c := range w.live[i] {
			out[k] = c.step(&w.cfg)
		}
	}
}

// settle recomputes every detector and sensor accumulator for the current
// state without advancing time.
func (w *World) settle() {
	for i := range w.tiles {
		for _, e := range w.tiles[i].creatures {
			w.creatures.Get(e).PreProcess(&w.cfg)
		}
	}
	w.sweep()
	w.stats = StepStats{}
}

// Spawn adds a founder with body at pos and returns its handle. It is meant
// for scenario setup between steps; detectors settle on the next step.
func (w *World) Spawn(pos Position, angle fixmath.Angle, energy, passiveCost uint32, body *components.Body) (ecs.Entity, error) {
	if err := body.Validate(); err != nil {
		return ecs.Entity{}, fmt.Errorf("spawn: %w", err)
	}
	index := w.tileIndex(&pos)
	c := NewCreature(w.nextID, pos, angle, energy, passiveCost, body)
	c.PreProcess(&w.cfg)
	w.nextID++
	return w.insert(index, c), nil
}

// AddFood places a food item at pos as if carried over from the last tick.
func (w *World) AddFood(t FoodType, pos Position) {
	index := w.tileIndex(&pos)
	tile := &w.tiles[index]
	tile.foods = slices.Insert(tile.foods, tile.spawnStart, newFood(&w.cfg, t, pos))
	tile.spawnStart++
	w.totalFood++
}
