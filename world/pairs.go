package world

// tilePair is an unordered pair of tiles processed once per sweep.
type tilePair struct {
	a, b int
}

// Half-stencil offsets: self, +x, -x+y, +y, +x+y. Applied to every tile they
// cover each unordered pair of adjacent-or-equal tiles once.
var stencil = [5][2]int{{0, 0}, {1, 0}, {-1, 1}, {0, 1}, {1, 1}}

// buildPairs lists the sweep pairs in tile order. On grids narrower than
// four tiles distinct offsets can wrap onto the same neighbor, so repeats are
// dropped.
func buildPairs(cfg *Config) []tilePair {
	n := cfg.TileCount()
	mx, my := int(cfg.derived.maskX), int(cfg.derived.maskY)
	seen := make(map[tilePair]struct{}, 5*n)
	pairs := make([]tilePair, 0, 5*n)
	for i := range n {
		x, y := i&mx, i>>cfg.OrderX
		for _, off := range stencil {
			j := (x+off[0])&mx | ((y+off[1])&my)<<cfg.OrderX
			key := tilePair{min(i, j), max(i, j)}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			pairs = append(pairs, tilePair{i, j})
		}
	}
	return pairs
}

func (w *World) sweep() {
	for _, p := range w.pairs {
		w.processPair(&w.tiles[p.a], &w.tiles[p.b])
	}
}

func (w *World) processPair(t1, t2 *Tile) {
	w.pairBuf[0] = w.resolve(w.pairBuf[0][:0], t1.creatures)
	cs1 := w.pairBuf[0]
	if t1 == t2 {
		for i, c1 := range cs1 {
			for _, c2 := range cs1[i+1:] {
				Interact(c1, c2)
			}
		}
		for _, c := range cs1 {
			c.ProcessFood(t1.foods)
		}
		w.repress(t1, t1)
		return
	}

	w.pairBuf[1] = w.resolve(w.pairBuf[1][:0], t2.creatures)
	cs2 := w.pairBuf[1]
	for _, c1 := range cs1 {
		for _, c2 := range cs2 {
			Interact(c1, c2)
		}
	}
	for _, c := range cs1 {
		c.ProcessFood(t2.foods)
	}
	for _, c := range cs2 {
		c.ProcessFood(t1.foods)
	}
	w.repress(t1, t2)
	w.repress(t2, t1)
}

// repress checks the sprouts spawned into t against the carried grass of
// other.
func (w *World) repress(t, other *Tile) {
	grass := other.foods[:other.spawnStart]
	for i := t.spawnStart; i < len(t.foods); i++ {
		if t.foods[i].checkGrass(&w.cfg, grass) {
			w.stats.SproutsRepressed++
		}
	}
}
