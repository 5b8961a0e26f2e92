package telemetry

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSnapshotSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()

	snapshot := &Snapshot{
		Version:         SnapshotVersion,
		RNGSeed:         42,
		Step:            250,
		SolidThreshold:  0.23,
		PlasmaThreshold: 0.81,
		SpawnCountdown:  37,
		Agents: []AgentState{
			{X: 0.15, Y: 0.25, State: 2, Memory: 2, Phase: 1},
			{X: 0.90, Y: 0.05, State: 3, Memory: 1, Phase: 2},
		},
		Predator: &PredatorState{
			X:      0.5,
			Y:      0.5,
			Eaten:  4,
			Hunger: 12,
		},
		Bookmark: &Bookmark{
			Type:        BookmarkMassPredation,
			Step:        250,
			Description: "Test bookmark",
		},
	}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("Snapshot file not created at %s", path)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	if loaded.Version != snapshot.Version {
		t.Errorf("Version mismatch: got %d, want %d", loaded.Version, snapshot.Version)
	}
	if loaded.RNGSeed != snapshot.RNGSeed {
		t.Errorf("RNGSeed mismatch: got %d, want %d", loaded.RNGSeed, snapshot.RNGSeed)
	}
	if loaded.Step != snapshot.Step {
		t.Errorf("Step mismatch: got %d, want %d", loaded.Step, snapshot.Step)
	}
	if loaded.SpawnCountdown != snapshot.SpawnCountdown {
		t.Errorf("SpawnCountdown mismatch: got %d, want %d", loaded.SpawnCountdown, snapshot.SpawnCountdown)
	}
	if len(loaded.Agents) != len(snapshot.Agents) {
		t.Fatalf("Agents count mismatch: got %d, want %d", len(loaded.Agents), len(snapshot.Agents))
	}
	if loaded.Agents[0] != snapshot.Agents[0] {
		t.Errorf("Agent mismatch: got %+v, want %+v", loaded.Agents[0], snapshot.Agents[0])
	}
	if loaded.Predator == nil {
		t.Fatal("Predator not loaded")
	}
	if *loaded.Predator != *snapshot.Predator {
		t.Errorf("Predator mismatch: got %+v, want %+v", *loaded.Predator, *snapshot.Predator)
	}
	if loaded.Bookmark == nil {
		t.Error("Bookmark not loaded")
	} else if loaded.Bookmark.Type != snapshot.Bookmark.Type {
		t.Errorf("Bookmark type mismatch: got %s, want %s", loaded.Bookmark.Type, snapshot.Bookmark.Type)
	}
}

func TestSnapshotNoPredator(t *testing.T) {
	tmpDir := t.TempDir()

	snapshot := &Snapshot{
		Version: SnapshotVersion,
		Step:    10,
		Agents:  []AgentState{{X: 0.1, Y: 0.2, State: 1, Memory: 1}},
	}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	if loaded.Predator != nil {
		t.Errorf("Predator should stay nil, got %+v", *loaded.Predator)
	}
}

func TestSnapshotFilename(t *testing.T) {
	tmpDir := t.TempDir()

	// Test with bookmark
	snapshot := &Snapshot{
		Version: SnapshotVersion,
		Step:    500,
		Bookmark: &Bookmark{
			Type: BookmarkPopulationCrash,
			Step: 500,
		},
	}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	expected := filepath.Join(tmpDir, "snapshot_500_population_crash.json")
	if path != expected {
		t.Errorf("Path mismatch: got %s, want %s", path, expected)
	}

	// Test without bookmark
	snapshotNoBookmark := &Snapshot{
		Version: SnapshotVersion,
		Step:    300,
	}

	path, err = SaveSnapshot(snapshotNoBookmark, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	expected = filepath.Join(tmpDir, "snapshot_300.json")
	if path != expected {
		t.Errorf("Path mismatch: got %s, want %s", path, expected)
	}
}

func TestLoadSnapshotMissingFile(t *testing.T) {
	if _, err := LoadSnapshot(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error loading missing snapshot")
	}
}
