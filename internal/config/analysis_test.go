package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/banshee-data/gait.report/internal/kinematics"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "analysis.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestEmptyDefaults(t *testing.T) {
	cfg := Empty()

	if got := cfg.GetExcludeLabels(); len(got) != 6 || got[0] != "l1" || got[5] != "r8" {
		t.Errorf("GetExcludeLabels() = %v, want standard six-label set", got)
	}
	if got := cfg.GetLeftLabels(); len(got) != 4 || got[0] != "la" {
		t.Errorf("GetLeftLabels() = %v, want [la lk lh ls]", got)
	}
	if got := cfg.GetRightLabels(); len(got) != 4 || got[0] != "ra" {
		t.Errorf("GetRightLabels() = %v, want [ra rk rh rs]", got)
	}
	if cfg.GetDefaultFrequency() != 100.0 {
		t.Errorf("GetDefaultFrequency() = %f, want 100", cfg.GetDefaultFrequency())
	}
	if defs := cfg.AngleDefs(); len(defs) != 6 {
		t.Errorf("AngleDefs() has %d entries, want the 6 defaults", len(defs))
	}
}

func TestLoadPartialOverride(t *testing.T) {
	path := writeConfig(t, `{
  "exclude_labels": ["l2"],
  "default_frequency": 250
}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := cfg.GetExcludeLabels(); len(got) != 1 || got[0] != "l2" {
		t.Errorf("GetExcludeLabels() = %v, want [l2]", got)
	}
	if cfg.GetDefaultFrequency() != 250 {
		t.Errorf("GetDefaultFrequency() = %f, want 250", cfg.GetDefaultFrequency())
	}
	// Unset fields keep their defaults.
	if got := cfg.GetLeftLabels(); len(got) != 4 {
		t.Errorf("GetLeftLabels() = %v, want default set", got)
	}
}

func TestLoadEmptyExclusionSetIsExplicit(t *testing.T) {
	// An empty array means "exclude nothing", not "use the default".
	path := writeConfig(t, `{"exclude_labels": []}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := cfg.GetExcludeLabels(); len(got) != 0 {
		t.Errorf("GetExcludeLabels() = %v, want empty", got)
	}
}

func TestLoadAngleOverride(t *testing.T) {
	path := writeConfig(t, `{
  "angles": [
    {"name": "knee", "side": "right", "kind": "joint_flexion", "markers": ["ra", "rk", "rh"]},
    {"name": "shank", "side": "right", "kind": "segment_plane", "markers": ["ra", "rk"]}
  ]
}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	defs := cfg.AngleDefs()
	if len(defs) != 2 {
		t.Fatalf("AngleDefs() has %d entries, want 2", len(defs))
	}
	if defs[0].Kind != kinematics.JointFlexion || defs[0].C != "rh" {
		t.Errorf("defs[0] = %+v, want joint_flexion with C=rh", defs[0])
	}
	if defs[1].Kind != kinematics.SegmentPlane || defs[1].B != "rk" {
		t.Errorf("defs[1] = %+v, want segment_plane with B=rk", defs[1])
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "negative frequency", content: `{"default_frequency": -1}`},
		{name: "negative frame_from", content: `{"frame_from": -5}`},
		{name: "window reversed", content: `{"frame_from": 100, "frame_to": 50}`},
		{name: "unknown angle kind", content: `{"angles": [{"name": "x", "side": "right", "kind": "twist", "markers": ["a", "b"]}]}`},
		{name: "wrong marker count", content: `{"angles": [{"name": "x", "side": "right", "kind": "joint_flexion", "markers": ["a", "b"]}]}`},
		{name: "bad side", content: `{"angles": [{"name": "x", "side": "up", "kind": "segment_plane", "markers": ["a", "b"]}]}`},
		{name: "not json", content: `exclude: everything`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			if _, err := Load(path); err == nil {
				t.Error("Load succeeded, want error")
			}
		})
	}
}

func TestLoadRequiresJSONExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis.yaml")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load accepted a non-.json file")
	}
}

func TestWindow(t *testing.T) {
	from, to := 10, 500
	cfg := &AnalysisConfig{FrameFrom: &from, FrameTo: &to}

	tests := []struct {
		frames   int
		wantFrom int
		wantTo   int
	}{
		{frames: 1000, wantFrom: 10, wantTo: 500},
		{frames: 100, wantFrom: 10, wantTo: 100},
		{frames: 5, wantFrom: 5, wantTo: 5},
		{frames: 0, wantFrom: 0, wantTo: 0},
	}
	for _, tt := range tests {
		gotFrom, gotTo := cfg.Window(tt.frames)
		if gotFrom != tt.wantFrom || gotTo != tt.wantTo {
			t.Errorf("Window(%d) = %d, %d, want %d, %d", tt.frames, gotFrom, gotTo, tt.wantFrom, tt.wantTo)
		}
	}

	unset := Empty()
	if f, to := unset.Window(42); f != 0 || to != 42 {
		t.Errorf("Window(42) on empty config = %d, %d, want 0, 42", f, to)
	}
}
