// Package restart reads and writes world restart files.
package restart

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"

	"github.com/pthm-cable/evolution/world"
)

// Save writes w to path. The state goes to path+"~" first and is renamed
// into place once fully written, so a crash never leaves a truncated file.
func Save(w *world.World, path string) error {
	tmp := path + "~"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating restart file: %w", err)
	}

	bw := bufio.NewWriter(f)
	err = w.Save(bw)
	if err == nil {
		err = bw.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing restart file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming restart file: %w", err)
	}

	creatures, foods := w.Counts()
	slog.Info("restart saved",
		"path", path,
		"tick", w.Time(),
		"creatures", creatures,
		"foods", foods,
	)
	return nil
}

// Load reads a world from the restart file at path.
func Load(path string, opts world.Options) (*world.World, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening restart file: %w", err)
	}
	defer f.Close()

	w, err := world.Load(bufio.NewReader(f), opts)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	creatures, foods := w.Counts()
	slog.Info("restart loaded",
		"path", path,
		"tick", w.Time(),
		"creatures", creatures,
		"foods", foods,
		"checksum", FormatChecksum(w.Checksum()),
	)
	return w, nil
}

// FormatChecksum renders a state checksum as lowercase hex.
func FormatChecksum(sum [32]byte) string {
	return hex.EncodeToString(sum[:])
}
