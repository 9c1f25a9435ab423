package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the follow state of the sandbox at one tick.
type Snapshot struct {
	Version int   `json:"version"`
	Seed    int64 `json:"seed"`

	WorldWidth int     `json:"world_width"`
	WorldDepth int     `json:"world_depth"`
	WaterLevel float64 `json:"water_level"`

	Tick int64 `json:"tick"`

	Agents  []AgentState  `json:"agents"`
	Targets []TargetState `json:"targets"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// AgentState holds one companion agent's state.
type AgentState struct {
	ID       uint64     `json:"id"`
	Pos      [3]float64 `json:"pos"`
	Vel      [3]float64 `json:"vel"`
	Yaw      float64    `json:"yaw"`
	Grounded bool       `json:"grounded"`
	InLiquid bool       `json:"in_liquid"`
	Behavior string     `json:"behavior,omitempty"`

	Session *SessionState `json:"session,omitempty"`
}

// SessionState is the JSON form of a live follow session.
type SessionState struct {
	ID         string        `json:"id"`
	TargetID   uint64        `json:"target"`
	StartTick  int64         `json:"start_tick"`
	Gait       string        `json:"gait"`
	Speed      float64       `json:"speed"`
	Anchor     [3]float64    `json:"anchor"`
	AnchorKind string        `json:"anchor_kind"`
	SideSign   float64       `json:"side_sign"`
	Settled    bool          `json:"settled"`
	Stats      *SessionStats `json:"stats,omitempty"`
}

// TargetState holds one target actor's state.
type TargetState struct {
	ID        uint64     `json:"id"`
	Script    string     `json:"script"`
	Pos       [3]float64 `json:"pos"`
	Motion    [3]float64 `json:"motion"`
	Yaw       float64    `json:"yaw"`
	Sprinting bool       `json:"sprinting"`
	Alive     bool       `json:"alive"`
	Spectator bool       `json:"spectator"`
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Tick)
	if snapshot.Bookmark != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Tick, sanitized)
	}
	path := filepath.Join(dir, name+".json")

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}

	return &snapshot, nil
}
