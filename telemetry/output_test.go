package telemetry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gocarina/gocsv"
)

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v; want nil, nil", om, err)
	}
	// Nil manager accepts writes
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}

func TestOutputManagerCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	for i := range 3 {
		stats := WindowStats{WindowEndTick: uint64(100 * (i + 1)), Creatures: 10 + i, Births: i}
		if err := om.WriteTelemetry(stats); err != nil {
			t.Fatal(err)
		}
	}
	if err := om.WriteBookmark(Bookmark{Type: BookmarkExtinction, Tick: 300, Description: "gone"}); err != nil {
		t.Fatal(err)
	}
	if err := om.WritePerf(PerfStats{TicksPerSecond: 50}, 300); err != nil {
		t.Fatal(err)
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	var rows []WindowStats
	readCSV(t, filepath.Join(dir, "telemetry.csv"), &rows)
	if len(rows) != 3 {
		t.Fatalf("telemetry rows = %d, want 3", len(rows))
	}
	if rows[2].WindowEndTick != 300 || rows[2].Creatures != 12 || rows[2].Births != 2 {
		t.Errorf("last row = %+v", rows[2])
	}

	var marks []Bookmark
	readCSV(t, filepath.Join(dir, "bookmarks.csv"), &marks)
	if len(marks) != 1 || marks[0].Type != BookmarkExtinction || marks[0].Description != "gone" {
		t.Errorf("bookmarks = %+v", marks)
	}

	var perf []PerfStatsCSV
	readCSV(t, filepath.Join(dir, "perf.csv"), &perf)
	if len(perf) != 1 || perf[0].WindowEnd != 300 || perf[0].TicksPerSec != 50 {
		t.Errorf("perf = %+v", perf)
	}
}

func readCSV(t *testing.T, path string, out any) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := gocsv.UnmarshalFile(f, out); err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
}
