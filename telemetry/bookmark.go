package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkPlasmaStorm     BookmarkType = "plasma_storm"
	BookmarkMassPredation   BookmarkType = "mass_predation"
	BookmarkPopulationCrash BookmarkType = "population_crash"
	BookmarkFreezeOver      BookmarkType = "freeze_over"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type" json:"type"`
	Step        int          `csv:"step" json:"step"`
	Description string       `csv:"description" json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"step", b.Step,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the simulation.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	recentPopPeak      int // peak population in recent history
	frozenWindowsCount int // consecutive windows dominated by solid agents
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for freeze-over detection
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.historyFull || bd.historyIdx > 0 {
		// Plasma storm: plasma share > 2x rolling average
		if b := bd.checkPlasmaStorm(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Mass predation: several agents eaten in a single window
		if b := bd.checkMassPredation(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Population crash: dropped >30% from recent peak
		if b := bd.checkPopulationCrash(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Freeze over: solid-dominated population over 5+ windows
		if b := bd.checkFreezeOver(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	// Update history
	bd.addToHistory(stats)

	// Track population peak
	if stats.Population > bd.recentPopPeak {
		bd.recentPopPeak = stats.Population
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

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkPlasmaStorm(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	// Calculate rolling average plasma share
	var totalShare float64
	for _, h := range history {
		totalShare += h.PlasmaShare
	}
	avgShare := totalShare / float64(len(history))

	if stats.PlasmaShare > 0.5 && (avgShare == 0 || stats.PlasmaShare > avgShare*2.0) {
		return &Bookmark{
			Type:        BookmarkPlasmaStorm,
			Step:        stats.WindowEnd,
			Description: fmt.Sprintf("Plasma share %.2f vs average %.2f", stats.PlasmaShare, avgShare),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkMassPredation(stats WindowStats) *Bookmark {
	if stats.Eaten >= 3 {
		return &Bookmark{
			Type:        BookmarkMassPredation,
			Step:        stats.WindowEnd,
			Description: fmt.Sprintf("Predator ate %d agents in one window, %d remain", stats.Eaten, stats.Population),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkPopulationCrash(stats WindowStats) *Bookmark {
	if bd.recentPopPeak == 0 {
		return nil
	}

	dropPercent := 1.0 - float64(stats.Population)/float64(bd.recentPopPeak)
	if dropPercent > 0.30 && stats.Population <= bd.recentPopPeak-3 {
		// Reset peak after crash
		oldPeak := bd.recentPopPeak
		bd.recentPopPeak = stats.Population

		return &Bookmark{
			Type:        BookmarkPopulationCrash,
			Step:        stats.WindowEnd,
			Description: fmt.Sprintf("Population crashed %.0f%% from peak %d to %d", dropPercent*100, oldPeak, stats.Population),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkFreezeOver(stats WindowStats) *Bookmark {
	// Need a living population to freeze
	if stats.Population == 0 {
		bd.frozenWindowsCount = 0
		return nil
	}

	if stats.SolidShare >= 0.9 && stats.PlasmaCount == 0 {
		bd.frozenWindowsCount++
	} else {
		bd.frozenWindowsCount = 0
	}

	if bd.frozenWindowsCount == 5 { // trigger exactly once at 5 windows
		return &Bookmark{
			Type:        BookmarkFreezeOver,
			Step:        stats.WindowEnd,
			Description: fmt.Sprintf("%d of %d agents solid over 5+ windows", stats.SolidCount, stats.Population),
		}
	}

	return nil
}
