// Package mocap reads motion-capture marker exports (Qualisys-style TSV)
// into immutable in-memory sessions and provides spatial relabelling of
// markers.
package mocap

import (
	"fmt"
	"math"
)

// Vec3 is a marker position in the capture volume. Coordinates are carried
// in the source units (millimetres for the datasets we process).
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Sub returns v - u.
func (v Vec3) Sub(u Vec3) Vec3 {
	return Vec3{v.X - u.X, v.Y - u.Y, v.Z - u.Z}
}

// Add returns v + u.
func (v Vec3) Add(u Vec3) Vec3 {
	return Vec3{v.X + u.X, v.Y + u.Y, v.Z + u.Z}
}

// Scale returns v scaled by f.
func (v Vec3) Scale(f float64) Vec3 {
	return Vec3{v.X * f, v.Y * f, v.Z * f}
}

// Dot returns the dot product of v and u.
func (v Vec3) Dot(u Vec3) float64 {
	return v.X*u.X + v.Y*u.Y + v.Z*u.Z
}

// Norm returns the Euclidean length of v.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// MarkerFrame is one time sample. Positions are ordered to match the
// session's MarkerNames.
type MarkerFrame struct {
	Index     int
	TimeSecs  float64
	Positions []Vec3
}

// Metadata holds the header fields of a TSV export. Extra carries every
// header key verbatim so exports can echo the source metadata.
type Metadata struct {
	Frequency   float64
	FrameCount  int
	MarkerCount int
	CameraCount int
	Units       string
	Extra       map[string]string
}

// Session is a full recording: ordered frames plus metadata. A Session is
// constructed once by the reader (or by Filter) and never mutated.
type Session struct {
	Source      string
	Metadata    Metadata
	MarkerNames []string
	Frames      []MarkerFrame

	// Filtered marks a session produced by Filter. Filtering an
	// already-filtered session is a no-op, which keeps the exclusion
	// policy idempotent.
	Filtered bool
}

// MarkerIndex returns the position index for a marker name.
func (s *Session) MarkerIndex(name string) (int, bool) {
	for i, n := range s.MarkerNames {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

// Trajectory returns the position of one marker across all frames.
func (s *Session) Trajectory(name string) ([]Vec3, error) {
	idx, ok := s.MarkerIndex(name)
	if !ok {
		return nil, fmt.Errorf("marker %q not present in session", name)
	}
	out := make([]Vec3, len(s.Frames))
	for i, f := range s.Frames {
		out[i] = f.Positions[idx]
	}
	return out, nil
}

// MeanPositions returns the per-marker centroid over all frames, in marker
// order. Used by the relabelling heuristics.
func (s *Session) MeanPositions() []Vec3 {
	if len(s.Frames) == 0 {
		return nil
	}
	means := make([]Vec3, len(s.MarkerNames))
	for _, f := range s.Frames {
		for i, p := range f.Positions {
			means[i] = means[i].Add(p)
		}
	}
	inv := 1.0 / float64(len(s.Frames))
	for i := range means {
		means[i] = means[i].Scale(inv)
	}
	return means
}

// Duration returns the recording length in seconds.
func (s *Session) Duration() float64 {
	if s.Metadata.Frequency <= 0 {
		return 0
	}
	return float64(len(s.Frames)) / s.Metadata.Frequency
}

// Bounds returns the min and max corner of the axis-aligned box containing
// every marker position in the session. Plotters use it to fix axis ranges
// across animation frames.
func (s *Session) Bounds() (min, max Vec3) {
	min = Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	max = Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, f := range s.Frames {
		for _, p := range f.Positions {
			min.X = math.Min(min.X, p.X)
			min.Y = math.Min(min.Y, p.Y)
			min.Z = math.Min(min.Z, p.Z)
			max.X = math.Max(max.X, p.X)
			max.Y = math.Max(max.Y, p.Y)
			max.Z = math.Max(max.Z, p.Z)
		}
	}
	return min, max
}
