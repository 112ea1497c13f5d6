package telemetry

import "testing"

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_Crash(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := range 5 {
		bd.Check(WindowStats{WindowEndTick: uint64(i * 100), Creatures: 100})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 500, Creatures: 50})
	if !hasBookmark(bookmarks, BookmarkPopulationCrash) {
		t.Error("expected population_crash bookmark")
	}

	// Peak resets, so a flat population afterwards is not another crash
	bookmarks = bd.Check(WindowStats{WindowEndTick: 600, Creatures: 50})
	if hasBookmark(bookmarks, BookmarkPopulationCrash) {
		t.Error("crash reported twice")
	}
}

func TestBookmarkDetector_SmallDropIsNotCrash(t *testing.T) {
	bd := NewBookmarkDetector(10)
	bd.Check(WindowStats{WindowEndTick: 100, Creatures: 20})

	// 50% but only 10 creatures lost
	bookmarks := bd.Check(WindowStats{WindowEndTick: 200, Creatures: 10})
	if hasBookmark(bookmarks, BookmarkPopulationCrash) {
		t.Error("unexpected crash bookmark for small population")
	}
}

func TestBookmarkDetector_Recovery(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := range 3 {
		bd.Check(WindowStats{WindowEndTick: uint64(i * 100), Creatures: 2})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 300, Creatures: 10})
	if !hasBookmark(bookmarks, BookmarkRecovery) {
		t.Error("expected recovery bookmark")
	}
}

func TestBookmarkDetector_Extinction(t *testing.T) {
	bd := NewBookmarkDetector(10)
	bd.Check(WindowStats{WindowEndTick: 100, Creatures: 5})

	bookmarks := bd.Check(WindowStats{WindowEndTick: 200, Creatures: 0, Deaths: 5})
	if !hasBookmark(bookmarks, BookmarkExtinction) {
		t.Fatal("expected extinction bookmark")
	}
	if bookmarks[0].Tick != 200 {
		t.Errorf("tick = %d, want 200", bookmarks[0].Tick)
	}

	bookmarks = bd.Check(WindowStats{WindowEndTick: 300, Creatures: 0})
	if hasBookmark(bookmarks, BookmarkExtinction) {
		t.Error("extinction reported twice")
	}
}

func TestBookmarkDetector_BirthBloom(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := range 5 {
		bd.Check(WindowStats{WindowEndTick: uint64(i * 100), Creatures: 100, Births: 10})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 500, Creatures: 100, Births: 40})
	if !hasBookmark(bookmarks, BookmarkBirthBloom) {
		t.Error("expected birth_bloom bookmark")
	}
}

func TestBookmarkDetector_Stable(t *testing.T) {
	bd := NewBookmarkDetector(10)

	var fired []uint64
	for i := range 20 {
		tick := uint64(i * 100)
		for _, bm := range bd.Check(WindowStats{WindowEndTick: tick, Creatures: 100 + i%2}) {
			if bm.Type == BookmarkStable {
				fired = append(fired, bm.Tick)
			}
		}
	}

	// First full sample is window 4; five consecutive samples end at window 8
	if len(fired) != 1 || fired[0] != 700 {
		t.Errorf("stable bookmarks at %v, want [700]", fired)
	}
}
