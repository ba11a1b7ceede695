// Package export writes and reads the JSON angle-analysis document. The
// schema groups series and statistics by body side and echoes the source
// file's metadata so a document is self-describing.
package export

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/banshee-data/gait.report/internal/kinematics"
	"github.com/banshee-data/gait.report/internal/mocap"
)

// Value is a float64 that serialises NaN as null. JSON has no NaN literal,
// and undefined angle samples must survive a round trip.
type Value float64

func (v Value) MarshalJSON() ([]byte, error) {
	if math.IsNaN(float64(v)) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(v))
}

func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Value(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Value(f)
	return nil
}

// Document is the on-disk analysis result.
type Document struct {
	Metadata   Meta      `json:"metadata"`
	Angles     SideSet   `json:"angles"`
	Statistics SideStats `json:"statistics"`
}

// Meta echoes the session header alongside derived counts.
type Meta struct {
	Frequency      float64           `json:"frequency"`
	NumFrames      int               `json:"num_frames"`
	SourceFile     string            `json:"source_file,omitempty"`
	SourceMetadata map[string]string `json:"source_metadata"`
}

// SideSet maps angle name to per-frame values, grouped by side.
type SideSet struct {
	Right map[string][]Value `json:"right"`
	Left  map[string][]Value `json:"left"`
}

// Stats mirrors kinematics.SeriesStats with NaN-safe fields.
type Stats struct {
	Mean Value `json:"mean"`
	Std  Value `json:"std"`
	Min  Value `json:"min"`
	Max  Value `json:"max"`
}

func statsOf(s kinematics.SeriesStats) Stats {
	return Stats{Mean: Value(s.Mean), Std: Value(s.Std), Min: Value(s.Min), Max: Value(s.Max)}
}

// SideStats maps angle name to summary statistics, grouped by side.
type SideStats struct {
	Right map[string]Stats `json:"right"`
	Left  map[string]Stats `json:"left"`
}

// Build assembles a Document from a session and its computed angle series.
func Build(s *mocap.Session, series []kinematics.AngleSeries) *Document {
	doc := &Document{
		Metadata: Meta{
			Frequency:      s.Metadata.Frequency,
			NumFrames:      len(s.Frames),
			SourceFile:     s.Source,
			SourceMetadata: s.Metadata.Extra,
		},
		Angles: SideSet{
			Right: map[string][]Value{},
			Left:  map[string][]Value{},
		},
		Statistics: SideStats{
			Right: map[string]Stats{},
			Left:  map[string]Stats{},
		},
	}
	for _, as := range series {
		values := make([]Value, len(as.Values))
		for i, v := range as.Values {
			values[i] = Value(v)
		}
		if as.Side == "left" {
			doc.Angles.Left[as.Name] = values
			doc.Statistics.Left[as.Name] = statsOf(as.Stats)
		} else {
			doc.Angles.Right[as.Name] = values
			doc.Statistics.Right[as.Name] = statsOf(as.Stats)
		}
	}
	return doc
}

// Series reconstructs the angle arrays of one side as plain float64 slices,
// NaN restored. Returns nil if the angle is absent.
func (d *Document) Series(side, name string) []float64 {
	m := d.Angles.Right
	if side == "left" {
		m = d.Angles.Left
	}
	values, ok := m[name]
	if !ok {
		return nil
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}

// Save writes the document to path, creating parent directories as needed.
func Save(doc *Document, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal angle document: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Load reads a document previously written by Save.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &doc, nil
}
