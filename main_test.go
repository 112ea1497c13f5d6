package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSmallConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("world:\n  order_x: 1\n  order_y: 1\n  workers: 1\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunExitCodes(t *testing.T) {
	cfgPath := writeSmallConfig(t)
	dir := t.TempDir()
	save := filepath.Join(dir, "world.bin")

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"bad flag", []string{"-no-such-flag"}, 2},
		{"missing config", []string{"-config", filepath.Join(dir, "absent.yaml")}, 1},
		{"missing restart", []string{"-config", cfgPath, "-load", filepath.Join(dir, "absent.bin")}, 1},
		{"unwritable save", []string{"-config", cfgPath, "-max-ticks", "2", "-save", filepath.Join(dir, "no", "such", "dir", "w.bin")}, 1},
		{"run and save", []string{"-config", cfgPath, "-max-ticks", "3", "-save", save}, 0},
		{"resume", []string{"-config", cfgPath, "-max-ticks", "6", "-load", save, "-save", save}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := run(tt.args); got != tt.want {
				t.Errorf("run(%q) = %d, want %d", tt.args, got, tt.want)
			}
		})
	}

	if _, err := os.Stat(save); err != nil {
		t.Errorf("restart file not written: %v", err)
	}
}
