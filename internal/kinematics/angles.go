// Package kinematics derives joint-angle time series from marker sessions.
// All angles are reported in degrees. Frames with degenerate geometry
// (zero-length segments) produce NaN rather than an error; statistics skip
// those samples.
package kinematics

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/gait.report/internal/mocap"
)

// ErrConfig is the sentinel for angle-configuration problems, typically a
// triple referencing a marker label the session does not contain.
var ErrConfig = errors.New("kinematics: configuration error")

// ConfigError reports an angle definition that cannot be computed against a
// given session.
type ConfigError struct {
	Angle   string
	Missing []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("angle %s: markers %v not present in session", e.Angle, e.Missing)
}

func (e *ConfigError) Unwrap() error { return ErrConfig }

// AngleKind selects the geometric construction for an angle.
type AngleKind int

const (
	// SegmentPlane measures the elevation of the segment from B to A
	// relative to the horizontal XY plane (q1-class).
	SegmentPlane AngleKind = iota
	// JointFlexion measures 180° minus the interior angle at vertex B
	// between segments B→A and B→C (q2/q3-class). Full extension reads 0°.
	JointFlexion
)

// AngleDef names one computed angle and the marker labels it is built from.
// C is unused for SegmentPlane angles.
type AngleDef struct {
	Name string
	Side string // "right" or "left", used for export grouping
	Kind AngleKind
	A    string // distal landmark
	B    string // proximal landmark / joint vertex
	C    string // second segment endpoint (JointFlexion only)
}

func (d AngleDef) markers() []string {
	if d.Kind == SegmentPlane {
		return []string{d.A, d.B}
	}
	return []string{d.A, d.B, d.C}
}

// DefaultAngles returns the standard lower-limb angle set: per side, shank
// elevation (q1), knee flexion (q2, ankle–knee–hip) and hip flexion
// (q3, knee–hip–shoulder).
func DefaultAngles() []AngleDef {
	return []AngleDef{
		{Name: "qr1", Side: "right", Kind: SegmentPlane, A: "ra", B: "rk"},
		{Name: "qr2", Side: "right", Kind: JointFlexion, A: "ra", B: "rk", C: "rh"},
		{Name: "qr3", Side: "right", Kind: JointFlexion, A: "rk", B: "rh", C: "rs"},
		{Name: "ql1", Side: "left", Kind: SegmentPlane, A: "la", B: "lk"},
		{Name: "ql2", Side: "left", Kind: JointFlexion, A: "la", B: "lk", C: "lh"},
		{Name: "ql3", Side: "left", Kind: JointFlexion, A: "lk", B: "lh", C: "ls"},
	}
}

// AngleSeries is one named angle sampled once per session frame. Values is
// frame-aligned with the source session; undefined samples are NaN.
type AngleSeries struct {
	Name   string
	Side   string
	Values []float64
	Stats  SeriesStats
}

// Compute evaluates every angle definition against the session. The result
// slice preserves definition order. A *ConfigError is returned if any
// definition references a marker the session does not have; no partial
// results are produced in that case.
func Compute(s *mocap.Session, defs []AngleDef) ([]AngleSeries, error) {
	type resolved struct {
		def     AngleDef
		a, b, c int
	}
	res := make([]resolved, 0, len(defs))
	for _, d := range defs {
		var missing []string
		idx := map[string]int{}
		for _, m := range d.markers() {
			i, ok := s.MarkerIndex(m)
			if !ok {
				missing = append(missing, m)
				continue
			}
			idx[m] = i
		}
		if len(missing) > 0 {
			return nil, &ConfigError{Angle: d.Name, Missing: missing}
		}
		r := resolved{def: d, a: idx[d.A], b: idx[d.B]}
		if d.Kind == JointFlexion {
			r.c = idx[d.C]
		}
		res = append(res, r)
	}

	out := make([]AngleSeries, len(res))
	for i, r := range res {
		values := make([]float64, len(s.Frames))
		for fi, f := range s.Frames {
			switch r.def.Kind {
			case SegmentPlane:
				values[fi] = planeElevation(f.Positions[r.a].Sub(f.Positions[r.b]))
			case JointFlexion:
				ba := f.Positions[r.a].Sub(f.Positions[r.b])
				bc := f.Positions[r.c].Sub(f.Positions[r.b])
				values[fi] = 180.0 - interiorAngle(ba, bc)
			}
		}
		out[i] = AngleSeries{
			Name:   r.def.Name,
			Side:   r.def.Side,
			Values: values,
			Stats:  ComputeStats(values),
		}
	}
	return out, nil
}

// planeElevation returns the angle in degrees between v and the XY plane.
// A zero-length segment has no direction and yields NaN.
func planeElevation(v mocap.Vec3) float64 {
	if v.Norm() == 0 {
		return math.NaN()
	}
	return math.Abs(math.Atan2(v.Z, math.Hypot(v.X, v.Y))) * 180.0 / math.Pi
}

// interiorAngle returns the angle in degrees between two vectors, clamping
// the normalised dot product to [-1, 1] so floating-point rounding can
// never push acos out of its domain. Either vector being zero-length yields
// NaN.
func interiorAngle(u, v mocap.Vec3) float64 {
	nu, nv := u.Norm(), v.Norm()
	if nu == 0 || nv == 0 {
		return math.NaN()
	}
	c := u.Dot(v) / (nu * nv)
	if c > 1 {
		c = 1
	} else if c < -1 {
		c = -1
	}
	return math.Acos(c) * 180.0 / math.Pi
}
