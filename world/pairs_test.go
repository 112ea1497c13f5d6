package world

import "testing"

func gridConfig(orderX, orderY uint32) Config {
	cfg := DefaultConfig()
	cfg.OrderX, cfg.OrderY = orderX, orderY
	cfg.calcDerived()
	return cfg
}

// torusDelta is the shortest signed offset from a to b on a ring of size n.
func torusDelta(a, b, n int) int {
	d := ((b-a)%n + n) % n
	if d > n/2 {
		d -= n
	}
	return d
}

func TestBuildPairsCoverage(t *testing.T) {
	tests := []struct {
		name           string
		orderX, orderY uint32
		wantPerTile    bool
	}{
		{"1x1", 0, 0, false},
		{"2x2", 1, 1, false},
		{"2x4", 1, 2, false},
		{"4x4", 2, 2, true},
		{"8x8", 3, 3, true},
		{"8x4", 3, 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := gridConfig(tt.orderX, tt.orderY)
			pairs := buildPairs(&cfg)
			w, h := 1<<tt.orderX, 1<<tt.orderY
			n := w * h

			visits := make(map[tilePair]int)
			for _, p := range pairs {
				visits[tilePair{min(p.a, p.b), max(p.a, p.b)}]++
			}
			for key, count := range visits {
				if count != 1 {
					t.Errorf("pair %v visited %d times", key, count)
				}
			}

			for i := range n {
				for j := i; j < n; j++ {
					dx := torusDelta(i%w, j%w, w)
					dy := torusDelta(i/w, j/w, h)
					adjacent := dx >= -1 && dx <= 1 && dy >= -1 && dy <= 1
					_, seen := visits[tilePair{i, j}]
					if adjacent != seen {
						t.Errorf("pair (%d,%d): adjacent=%v visited=%v", i, j, adjacent, seen)
					}
				}
			}
			if tt.wantPerTile && len(pairs) != 5*n {
				t.Errorf("got %d pairs, want %d", len(pairs), 5*n)
			}
		})
	}
}

func TestBuildPairsSingleTile(t *testing.T) {
	cfg := gridConfig(0, 0)
	pairs := buildPairs(&cfg)
	if len(pairs) != 1 || pairs[0] != (tilePair{0, 0}) {
		t.Errorf("got %v, want [{0 0}]", pairs)
	}
}
