package restart

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/evolution/world"
)

func newWorld(t *testing.T) *world.World {
	t.Helper()
	cfg := world.DefaultConfig()
	cfg.OrderX, cfg.OrderY = 1, 1
	w, err := world.New(cfg, world.DefaultGenesis(), world.Options{Workers: 1})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(w.Close)
	return w
}

func TestSaveLoad(t *testing.T) {
	w := newWorld(t)
	for range 10 {
		w.NextStep()
	}

	path := filepath.Join(t.TempDir(), "world.restart")
	if err := Save(w, path); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path + "~"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("temp file left behind: %v", err)
	}

	loaded, err := Load(path, world.Options{Workers: 1})
	if err != nil {
		t.Fatal(err)
	}
	defer loaded.Close()

	if loaded.Time() != w.Time() {
		t.Errorf("time = %d, want %d", loaded.Time(), w.Time())
	}
	if loaded.Checksum() != w.Checksum() {
		t.Fatal("checksum differs after load")
	}

	for range 5 {
		w.NextStep()
		loaded.NextStep()
	}
	if loaded.Checksum() != w.Checksum() {
		t.Error("runs diverged after load")
	}
}

func TestSaveOverwrites(t *testing.T) {
	w := newWorld(t)
	path := filepath.Join(t.TempDir(), "world.restart")
	if err := Save(w, path); err != nil {
		t.Fatal(err)
	}
	w.NextStep()
	if err := Save(w, path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path, world.Options{Workers: 1})
	if err != nil {
		t.Fatal(err)
	}
	defer loaded.Close()
	if loaded.Time() != 1 {
		t.Errorf("time = %d, want 1", loaded.Time())
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing"), world.Options{})
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing file: err = %v, want ErrNotExist", err)
	}

	bad := filepath.Join(dir, "bad")
	if err := os.WriteFile(bad, []byte("not a world"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = Load(bad, world.Options{})
	if !errors.Is(err, world.ErrBadMagic) {
		t.Errorf("bad file: err = %v, want ErrBadMagic", err)
	}
}

func TestFormatChecksum(t *testing.T) {
	var sum [32]byte
	sum[0], sum[31] = 0xab, 0x01
	got := FormatChecksum(sum)
	if len(got) != 64 || !strings.HasPrefix(got, "ab00") || !strings.HasSuffix(got, "01") {
		t.Errorf("FormatChecksum = %q", got)
	}
}
