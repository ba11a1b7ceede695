// Package config loads the analysis configuration: marker exclusion policy,
// anatomical label tables and the angle triples. The exclusion indices are
// dataset-specific and deliberately external configuration; there is no
// general rule for deriving them from a new capture.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/gait.report/internal/kinematics"
	"github.com/banshee-data/gait.report/internal/mocap"
)

// AnalysisConfig is the root configuration. Scalar fields are pointers so a
// partial JSON file only overrides what it names; the Get* accessors supply
// defaults for everything else.
type AnalysisConfig struct {
	// ExcludeLabels lists provisional side labels (l1, r5, ...) to drop
	// before anatomical labels are assigned.
	ExcludeLabels []string `json:"exclude_labels,omitempty"`

	// LeftLabels / RightLabels name the surviving markers of each side by
	// ascending mean height.
	LeftLabels  []string `json:"left_labels,omitempty"`
	RightLabels []string `json:"right_labels,omitempty"`

	// Angles overrides the default q1/q2/q3 triple set.
	Angles []AngleConfig `json:"angles,omitempty"`

	// DefaultFrequency is the fallback sampling frequency in Hz when the
	// source header lacks one.
	DefaultFrequency *float64 `json:"default_frequency,omitempty"`

	// FrameFrom / FrameTo bound plotting and export to a frame window
	// (0-based, half-open).
	FrameFrom *int `json:"frame_from,omitempty"`
	FrameTo   *int `json:"frame_to,omitempty"`
}

// AngleConfig is the JSON form of one angle triple.
type AngleConfig struct {
	Name    string   `json:"name"`
	Side    string   `json:"side"`
	Kind    string   `json:"kind"` // "segment_plane" or "joint_flexion"
	Markers []string `json:"markers"`
}

// Empty returns a config with every field unset.
func Empty() *AnalysisConfig {
	return &AnalysisConfig{}
}

// Load reads an AnalysisConfig from a JSON file. Partial configs are safe;
// unspecified fields keep their defaults.
func Load(path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks field values that have no safe fallback.
func (c *AnalysisConfig) Validate() error {
	if c.DefaultFrequency != nil && *c.DefaultFrequency <= 0 {
		return fmt.Errorf("default_frequency must be positive, got %f", *c.DefaultFrequency)
	}
	if c.FrameFrom != nil && *c.FrameFrom < 0 {
		return fmt.Errorf("frame_from must be non-negative, got %d", *c.FrameFrom)
	}
	if c.FrameFrom != nil && c.FrameTo != nil && *c.FrameTo < *c.FrameFrom {
		return fmt.Errorf("frame_to (%d) must not precede frame_from (%d)", *c.FrameTo, *c.FrameFrom)
	}
	for i, a := range c.Angles {
		switch a.Kind {
		case "segment_plane":
			if len(a.Markers) != 2 {
				return fmt.Errorf("angle %d (%s): segment_plane needs 2 markers, got %d", i, a.Name, len(a.Markers))
			}
		case "joint_flexion":
			if len(a.Markers) != 3 {
				return fmt.Errorf("angle %d (%s): joint_flexion needs 3 markers, got %d", i, a.Name, len(a.Markers))
			}
		default:
			return fmt.Errorf("angle %d (%s): unknown kind %q", i, a.Name, a.Kind)
		}
		if a.Side != "right" && a.Side != "left" {
			return fmt.Errorf("angle %d (%s): side must be right or left, got %q", i, a.Name, a.Side)
		}
	}
	return nil
}

// GetExcludeLabels returns the exclusion set or the default for the lab's
// standard 14-marker protocol.
func (c *AnalysisConfig) GetExcludeLabels() []string {
	if c.ExcludeLabels == nil {
		return []string{"l1", "l5", "l6", "r2", "r5", "r8"}
	}
	return c.ExcludeLabels
}

// GetLeftLabels returns the left-side label table or the default
// ankle/knee/hip/shoulder set.
func (c *AnalysisConfig) GetLeftLabels() []string {
	if c.LeftLabels == nil {
		return []string{"la", "lk", "lh", "ls"}
	}
	return c.LeftLabels
}

// GetRightLabels returns the right-side label table or the default.
func (c *AnalysisConfig) GetRightLabels() []string {
	if c.RightLabels == nil {
		return []string{"ra", "rk", "rh", "rs"}
	}
	return c.RightLabels
}

// GetDefaultFrequency returns the fallback sampling frequency in Hz.
func (c *AnalysisConfig) GetDefaultFrequency() float64 {
	if c.DefaultFrequency == nil {
		return 100.0
	}
	return *c.DefaultFrequency
}

// FilterPolicy assembles the mocap filter policy from the config.
func (c *AnalysisConfig) FilterPolicy() mocap.FilterPolicy {
	return mocap.FilterPolicy{
		ExcludeLabels: c.GetExcludeLabels(),
		LeftLabels:    c.GetLeftLabels(),
		RightLabels:   c.GetRightLabels(),
	}
}

// AngleDefs returns the configured angle set, or kinematics.DefaultAngles
// when the config does not override it.
func (c *AnalysisConfig) AngleDefs() []kinematics.AngleDef {
	if len(c.Angles) == 0 {
		return kinematics.DefaultAngles()
	}
	defs := make([]kinematics.AngleDef, len(c.Angles))
	for i, a := range c.Angles {
		d := kinematics.AngleDef{Name: a.Name, Side: a.Side}
		if a.Kind == "segment_plane" {
			d.Kind = kinematics.SegmentPlane
			d.A, d.B = a.Markers[0], a.Markers[1]
		} else {
			d.Kind = kinematics.JointFlexion
			d.A, d.B, d.C = a.Markers[0], a.Markers[1], a.Markers[2]
		}
		defs[i] = d
	}
	return defs
}

// Window clamps the configured frame window to a series length and returns
// the effective [from, to) bounds.
func (c *AnalysisConfig) Window(numFrames int) (from, to int) {
	from, to = 0, numFrames
	if c.FrameFrom != nil {
		from = *c.FrameFrom
	}
	if c.FrameTo != nil {
		to = *c.FrameTo
	}
	if from < 0 {
		from = 0
	}
	if from > numFrames {
		from = numFrames
	}
	if to > numFrames {
		to = numFrames
	}
	if to < from {
		to = from
	}
	return from, to
}
