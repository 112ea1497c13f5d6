package world

import (
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/evolution/components"
	"github.com/pthm-cable/evolution/fixmath"
)

func TestSelect(t *testing.T) {
	w := emptyWorld(t, 2, 2, nil)
	edge := uint64(fixmath.TileSize)
	body := components.Body{}
	a := mustSpawn(t, w, Position{X: 1000, Y: 1000}, 0, 100, 1, &body)
	b := mustSpawn(t, w, Position{X: 1200, Y: 1000}, 0, 100, 1, &body)
	c := mustSpawn(t, w, Position{X: 1100, Y: 1100}, 0, 100, 1, &body)
	across := mustSpawn(t, w, Position{X: edge + 50, Y: 1000}, 0, 100, 1, &body)
	width, height := w.cfg.Width(), w.cfg.Height()

	tests := []struct {
		name   string
		x, y   uint64
		radius uint32
		want   ecs.Entity
	}{
		{"exact hit", 1000, 1000, 10, a},
		{"nearest", 1190, 1000, 500, b},
		{"tie goes to larger id", 1100, 1000, 500, c},
		{"nothing in range", 5000, 5000, 100, ecs.Entity{}},
		{"radius is exclusive", 1000, 1100, 100, ecs.Entity{}},
		{"neighbor tile", edge - 50, 1000, 200, across},
		{"point past the far edge", 1000 + width, 1000 + 2*height, 10, a},
		{"point below zero", 1190 - width, 1000 - height, 500, b},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := w.Select(tt.x, tt.y, tt.radius)
			if handle(got) != tt.want {
				t.Errorf("Select(%d, %d, %d) = %v, want %v", tt.x, tt.y, tt.radius, id(got), id(w.Creature(tt.want)))
			}
		})
	}
}

func handle(c *Creature) ecs.Entity {
	if c == nil {
		return ecs.Entity{}
	}
	return c.Entity()
}

func id(c *Creature) uint64 {
	if c == nil {
		return 0
	}
	return c.ID
}

func TestIterators(t *testing.T) {
	w := emptyWorld(t, 1, 1, nil)
	body := components.Body{}
	mustSpawn(t, w, Position{X: 10, Y: 10}, 0, 100, 1, &body)
	mustSpawn(t, w, Position{X: fixmath.TileSize + 10, Y: 10}, 0, 100, 1, &body)
	w.AddFood(Grass, Position{X: 5, Y: 5})
	w.AddFood(Meat, Position{X: 5, Y: fixmath.TileSize + 5})
	w.AddFood(Sprout, Position{X: 7, Y: 7})

	if got := len(collect(w)); got != 2 {
		t.Errorf("Creatures yielded %d, want 2", got)
	}
	var types []FoodType
	for f := range w.Foods() {
		types = append(types, f.Type)
	}
	if len(types) != 2 {
		t.Errorf("Foods yielded %v, want grass and meat only", types)
	}

	n := 0
	for range w.Creatures() {
		n++
		break
	}
	if n != 1 {
		t.Errorf("early break yielded %d", n)
	}
}

func TestCheckInvariantsCatchesMisplacedCreature(t *testing.T) {
	w := emptyWorld(t, 1, 1, nil)
	body := components.Body{}
	c := w.Creature(mustSpawn(t, w, Position{X: 10, Y: 10}, 0, 100, 1, &body))
	if err := w.CheckInvariants(); err != nil {
		t.Fatal(err)
	}
	c.Pos.X += fixmath.TileSize
	if err := w.CheckInvariants(); err == nil {
		t.Error("expected error for creature outside its tile")
	}
	c.Pos.X -= fixmath.TileSize
	w.totalCreatures++
	if err := w.CheckInvariants(); err == nil {
		t.Error("expected error for count mismatch")
	}
}

func TestCheckInvariantsCatchesStaleHandle(t *testing.T) {
	w := emptyWorld(t, 1, 1, nil)
	body := components.Body{}
	e := mustSpawn(t, w, Position{X: 10, Y: 10}, 0, 100, 1, &body)
	w.arena.RemoveEntity(e)
	if err := w.CheckInvariants(); err == nil {
		t.Error("expected error for a tile listing a removed creature")
	}
}
