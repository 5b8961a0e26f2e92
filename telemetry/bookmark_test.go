package telemetry

import (
	"testing"
)

func TestBookmarkDetector_PlasmaStorm(t *testing.T) {
	bd := NewBookmarkDetector(10)

	// Add some history with low plasma share
	for i := 0; i < 5; i++ {
		stats := WindowStats{
			WindowEnd:   (i + 1) * 50,
			Population:  20,
			PlasmaCount: 2,
			PlasmaShare: 0.1,
		}
		bd.Check(stats)
	}

	// Now add a window with high plasma share (>2x average)
	stormStats := WindowStats{
		WindowEnd:   300,
		Population:  20,
		PlasmaCount: 14,
		PlasmaShare: 0.7, // 7x the 0.1 average
	}
	bookmarks := bd.Check(stormStats)

	found := false
	for _, bm := range bookmarks {
		if bm.Type == BookmarkPlasmaStorm {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected plasma_storm bookmark")
	}
}

func TestBookmarkDetector_MassPredation(t *testing.T) {
	bd := NewBookmarkDetector(10)

	// Quiet history
	for i := 0; i < 3; i++ {
		bd.Check(WindowStats{WindowEnd: (i + 1) * 50, Population: 20})
	}

	// Predator eats three agents in one window
	bookmarks := bd.Check(WindowStats{
		WindowEnd:  200,
		Population: 17,
		Eaten:      3,
	})

	found := false
	for _, bm := range bookmarks {
		if bm.Type == BookmarkMassPredation {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected mass_predation bookmark")
	}
}

func TestBookmarkDetector_PopulationCrash(t *testing.T) {
	bd := NewBookmarkDetector(10)

	// Build up population history
	for i := 0; i < 5; i++ {
		stats := WindowStats{
			WindowEnd:  (i + 1) * 50,
			Population: 20,
		}
		bd.Check(stats)
	}

	// Now crash the population
	crashStats := WindowStats{
		WindowEnd:  300,
		Population: 10, // 50% drop
	}
	bookmarks := bd.Check(crashStats)

	found := false
	for _, bm := range bookmarks {
		if bm.Type == BookmarkPopulationCrash {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected population_crash bookmark")
	}
}

func TestBookmarkDetector_SmallDipNoCrash(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEnd: (i + 1) * 50, Population: 20})
	}

	// Two agents lost is not a crash
	bookmarks := bd.Check(WindowStats{WindowEnd: 300, Population: 18})

	for _, bm := range bookmarks {
		if bm.Type == BookmarkPopulationCrash {
			t.Error("small dip should not trigger population_crash")
		}
	}
}

func TestBookmarkDetector_FreezeOver(t *testing.T) {
	bd := NewBookmarkDetector(10)

	triggered := 0
	for i := 0; i < 10; i++ {
		stats := WindowStats{
			WindowEnd:   (i + 1) * 50,
			Population:  20,
			SolidCount:  19,
			SolidShare:  0.95,
			PlasmaCount: 0,
		}
		bookmarks := bd.Check(stats)

		for _, bm := range bookmarks {
			if bm.Type == BookmarkFreezeOver {
				triggered++
			}
		}
	}

	// Triggers exactly once after 5 consecutive frozen windows
	if triggered != 1 {
		t.Errorf("freeze_over triggered %d times, want 1", triggered)
	}
}

func TestBookmarkDetector_FreezeOverResetsOnThaw(t *testing.T) {
	bd := NewBookmarkDetector(10)

	frozen := WindowStats{Population: 20, SolidCount: 19, SolidShare: 0.95}
	thawed := WindowStats{Population: 20, SolidCount: 5, SolidShare: 0.25, PlasmaCount: 8, PlasmaShare: 0.4}

	// Four frozen windows, then a thaw, then four more: never reaches five in a row
	for i := 0; i < 4; i++ {
		bd.Check(frozen)
	}
	bd.Check(thawed)
	for i := 0; i < 4; i++ {
		bookmarks := bd.Check(frozen)
		for _, bm := range bookmarks {
			if bm.Type == BookmarkFreezeOver {
				t.Error("freeze_over should reset after a thawed window")
			}
		}
	}
}
