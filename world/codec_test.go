package world

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/pthm-cable/evolution/components"
	"github.com/pthm-cable/evolution/fixmath"
	"github.com/pthm-cable/evolution/neural"
)

func steppedWorld(t *testing.T, ticks int) *World {
	t.Helper()
	cfg := DefaultConfig()
	cfg.OrderX, cfg.OrderY = 2, 2
	w, err := New(cfg, DefaultGenesis(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	// A creature with every organ kind so all records round trip.
	body := components.DefaultBody()
	body.Eyes = []components.Eye{{Flags: components.FlagGrass, Delta: 1 << 29, Radius: fixmath.TileSize / 4}}
	body.Radars = []components.Radar{{Flags: components.FlagEating, Angle: fixmath.FlipAngle, Delta: 1 << 28}}
	body.Claws = []components.Claw{{Delta: 1 << 27, Radius: 1000, Damage: 3}}
	body.Wombs = []components.Womb{{Energy: 1 << 20}}
	body.Net.Neurons = append(body.Net.Neurons, neuralAlwaysOn(2).Neurons...)
	body.Net.Links = append(body.Net.Links, neural.Link{Input: 5, Output: 3, Weight: -2}, neural.Link{Input: 7, Output: 4, Weight: 300})
	mustSpawn(t, w, Position{X: 123456, Y: 654321}, 777, 1<<16, 200, &body)

	for range ticks {
		w.NextStep()
	}
	return w
}

func encodeWorld(t *testing.T, w *World) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := w.Save(&buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestSaveLoadRoundTrip(t *testing.T) {
	w := steppedWorld(t, 5)
	data := encodeWorld(t, w)

	loaded, err := Load(bytes.NewReader(data), Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !bytes.Equal(encodeWorld(t, loaded), data) {
		t.Fatal("save after load differs")
	}
	if loaded.Checksum() != w.Checksum() {
		t.Fatal("checksum differs after load")
	}
	if loaded.Time() != w.Time() || loaded.NextID() != w.NextID() {
		t.Errorf("time/id = %d/%d, want %d/%d", loaded.Time(), loaded.NextID(), w.Time(), w.NextID())
	}
	lc, lf := loaded.Counts()
	wc, wf := w.Counts()
	if lc != wc || lf != wf {
		t.Errorf("counts = %d/%d, want %d/%d", lc, lf, wc, wf)
	}

	for range 10 {
		w.NextStep()
		loaded.NextStep()
		if w.Checksum() != loaded.Checksum() {
			t.Fatalf("tick %d: loaded world diverged", w.Time())
		}
	}
}

func TestChecksumDeterministic(t *testing.T) {
	a := steppedWorld(t, 3)
	b := steppedWorld(t, 3)
	if a.Checksum() != b.Checksum() {
		t.Error("identical runs produced different checksums")
	}
	b.NextStep()
	if a.Checksum() == b.Checksum() {
		t.Error("checksum did not change after a step")
	}
}

func TestLoadErrors(t *testing.T) {
	data := encodeWorld(t, steppedWorld(t, 2))

	badVersion := bytes.Clone(data)
	badVersion[4] = 99

	badType := bytes.Clone(data)
	// Type byte of tile 0's first food: magic, version, config, time, next id,
	// spawn hint, tile count, rand state, spawn start, food count.
	off := 4 + 4 + 10*4 + 1 + 8 + 8 + 4 + 4 + 8 + 4 + 4
	badType[off] = 9

	tests := []struct {
		name string
		data []byte
		want []error
	}{
		{"empty", nil, []error{ErrBadMagic}},
		{"bad magic", append([]byte("NOPE"), data[4:]...), []error{ErrBadMagic}},
		{"bad version", badVersion, []error{ErrVersion}},
		{"truncated header", data[:6], []error{ErrCorrupt, io.ErrUnexpectedEOF}},
		{"truncated config", data[:30], []error{ErrCorrupt, io.ErrUnexpectedEOF}},
		{"truncated tiles", data[:len(data)/2], []error{ErrCorrupt, io.ErrUnexpectedEOF}},
		{"missing last byte", data[:len(data)-1], []error{ErrCorrupt, io.ErrUnexpectedEOF}},
		{"trailing bytes", append(bytes.Clone(data), 0), []error{ErrCorrupt}},
		{"bad food type", badType, []error{ErrCorrupt}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := Load(bytes.NewReader(tt.data), Options{})
			if err == nil {
				t.Fatal("expected error")
			}
			if w != nil {
				t.Error("failed load returned a world")
			}
			for _, want := range tt.want {
				if !errors.Is(err, want) {
					t.Errorf("error %v is not %v", err, want)
				}
			}
		})
	}
}
