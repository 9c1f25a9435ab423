package telemetry

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSnapshotSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()

	snapshot := &Snapshot{
		Version:    SnapshotVersion,
		Seed:       42,
		WorldWidth: 128,
		WorldDepth: 96,
		WaterLevel: 1.5,
		Tick:       1000,
		Agents: []AgentState{
			{
				ID:       1,
				Pos:      [3]float64{10, 2, 12},
				Vel:      [3]float64{0.25, 0, -0.25},
				Yaw:      1.25,
				Grounded: true,
				Behavior: "follow",
				Session: &SessionState{
					ID:         "6f1c2c8e-0000-4000-8000-000000000001",
					TargetID:   7,
					StartTick:  400,
					Gait:       "RUN",
					Speed:      0.3,
					Anchor:     [3]float64{8, 2, 10},
					AnchorKind: "behind-side",
					SideSign:   -1,
					Stats:      &SessionStats{GaitChanges: 3, Paths: 12},
				},
			},
		},
		Targets: []TargetState{
			{ID: 7, Script: "wander", Pos: [3]float64{6, 2, 9}, Alive: true},
		},
		Bookmark: &Bookmark{
			Type:        BookmarkGaitChurn,
			Tick:        1000,
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

	if loaded.Seed != snapshot.Seed || loaded.Tick != snapshot.Tick {
		t.Errorf("Header mismatch: got seed %d tick %d", loaded.Seed, loaded.Tick)
	}
	if len(loaded.Agents) != 1 || len(loaded.Targets) != 1 {
		t.Fatalf("Got %d agents and %d targets, want 1 and 1", len(loaded.Agents), len(loaded.Targets))
	}
	sess := loaded.Agents[0].Session
	if sess == nil {
		t.Fatal("Session not loaded")
	}
	if sess.TargetID != 7 || sess.Gait != "RUN" || sess.Anchor != [3]float64{8, 2, 10} {
		t.Errorf("Session mismatch: %+v", sess)
	}
	if sess.Stats == nil || sess.Stats.GaitChanges != 3 {
		t.Errorf("Session stats not loaded: %+v", sess.Stats)
	}
	if loaded.Bookmark == nil || loaded.Bookmark.Type != BookmarkGaitChurn {
		t.Errorf("Bookmark mismatch: %+v", loaded.Bookmark)
	}
}

func TestSnapshotFilename(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name     string
		snapshot *Snapshot
		want     string
	}{
		{
			"with bookmark",
			&Snapshot{Version: SnapshotVersion, Tick: 5000, Bookmark: &Bookmark{Type: BookmarkLostContact, Tick: 5000}},
			"snapshot_5000_lost_contact.json",
		},
		{
			"without bookmark",
			&Snapshot{Version: SnapshotVersion, Tick: 3000},
			"snapshot_3000.json",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path, err := SaveSnapshot(tc.snapshot, tmpDir)
			if err != nil {
				t.Fatalf("SaveSnapshot failed: %v", err)
			}
			if want := filepath.Join(tmpDir, tc.want); path != want {
				t.Errorf("Path mismatch: got %s, want %s", path, want)
			}
		})
	}
}

func TestLoadSnapshotVersionMismatch(t *testing.T) {
	path, err := SaveSnapshot(&Snapshot{Version: SnapshotVersion + 1, Tick: 1}, t.TempDir())
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if _, err := LoadSnapshot(path); err == nil {
		t.Error("expected an error for a future snapshot version")
	}
}
