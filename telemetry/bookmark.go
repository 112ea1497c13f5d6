package telemetry

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/stat"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkPopulationCrash BookmarkType = "population_crash"
	BookmarkRecovery        BookmarkType = "recovery"
	BookmarkExtinction      BookmarkType = "extinction"
	BookmarkStable          BookmarkType = "stable_population"
	BookmarkBirthBloom      BookmarkType = "birth_bloom"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        uint64       `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

const (
	crashDrop       = 0.30 // fraction below peak that counts as a crash
	crashMinLoss    = 10
	recoveryFactor  = 3
	recoveryMinimum = 6
	stableCV        = 0.2
	stableRun       = 5 // consecutive low-variance windows
	stableSpan      = 4 // windows in each variance sample
	bloomFactor     = 2.0
	bloomMinBirths  = 10
)

// BookmarkDetector detects interesting moments in the population history.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	peak        int // peak creature count since the last crash
	trough      int // minimum creature count since the last recovery
	stableCount int // consecutive windows with a stable population
	extinct     bool
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < stableSpan+1 {
		historySize = stableSpan + 1
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
		trough:      -1,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkExtinction(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	if bd.historyFull || bd.historyIdx > 0 {
		if b := bd.checkCrash(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkRecovery(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkBirthBloom(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)

	if b := bd.checkStable(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	if stats.Creatures > bd.peak {
		bd.peak = stats.Creatures
	}
	if bd.trough < 0 || stats.Creatures < bd.trough {
		bd.trough = stats.Creatures
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

// recent returns up to n of the latest windows, oldest first.
func (bd *BookmarkDetector) recent(n int) []WindowStats {
	size := bd.historyIdx
	if bd.historyFull {
		size = bd.historySize
	}
	n = min(n, size)
	out := make([]WindowStats, n)
	for i := range n {
		idx := (bd.historyIdx - n + i + bd.historySize) % bd.historySize
		out[i] = bd.history[idx]
	}
	return out
}

func (bd *BookmarkDetector) checkExtinction(stats WindowStats) *Bookmark {
	if stats.Creatures > 0 {
		bd.extinct = false
		return nil
	}
	if bd.extinct {
		return nil
	}
	bd.extinct = true
	return &Bookmark{
		Type:        BookmarkExtinction,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("No creatures left after %d deaths", stats.Deaths),
	}
}

func (bd *BookmarkDetector) checkCrash(stats WindowStats) *Bookmark {
	if bd.peak == 0 {
		return nil
	}

	drop := 1.0 - float64(stats.Creatures)/float64(bd.peak)
	if drop > crashDrop && stats.Creatures < bd.peak-crashMinLoss {
		// Reset peak after crash
		oldPeak := bd.peak
		bd.peak = stats.Creatures
		return &Bookmark{
			Type:        BookmarkPopulationCrash,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Population crashed %.0f%% from peak %d to %d", drop*100, oldPeak, stats.Creatures),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkRecovery(stats WindowStats) *Bookmark {
	if bd.trough <= 0 {
		return nil
	}

	if stats.Creatures >= bd.trough*recoveryFactor && stats.Creatures >= recoveryMinimum {
		// Reset the trough after triggering
		oldTrough := bd.trough
		bd.trough = stats.Creatures
		return &Bookmark{
			Type:        BookmarkRecovery,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Population recovered from %d to %d", oldTrough, stats.Creatures),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkBirthBloom(stats WindowStats) *Bookmark {
	history := bd.recent(bd.historySize)
	if len(history) < 3 {
		return nil
	}

	births := make([]float64, len(history))
	for i, h := range history {
		births[i] = float64(h.Births)
	}
	avg := stat.Mean(births, nil)
	if avg == 0 {
		return nil
	}

	if float64(stats.Births) > avg*bloomFactor && stats.Births >= bloomMinBirths {
		return &Bookmark{
			Type:        BookmarkBirthBloom,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("%d births is %.1fx average (%.1f)", stats.Births, float64(stats.Births)/avg, avg),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkStable(stats WindowStats) *Bookmark {
	if stats.Creatures < recoveryMinimum {
		bd.stableCount = 0
		return nil
	}

	window := bd.recent(stableSpan)
	if len(window) < stableSpan {
		return nil
	}

	counts := make([]float64, len(window))
	for i, h := range window {
		counts[i] = float64(h.Creatures)
	}
	mean, std := stat.PopMeanStdDev(counts, nil)

	if mean > 0 && std/mean < stableCV {
		bd.stableCount++
	} else {
		bd.stableCount = 0
	}

	if bd.stableCount == stableRun { // trigger once per stable stretch
		return &Bookmark{
			Type:        BookmarkStable,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Stable population around %.0f creatures over %d windows", mean, stableRun+stableSpan-1),
		}
	}

	return nil
}
