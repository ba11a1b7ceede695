package plotting

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/gait.report/internal/mocap"
)

// Projection selects which two coordinates of a marker position are drawn.
type Projection int

const (
	ProjectionXY Projection = iota // top view
	ProjectionXZ                   // side view
	ProjectionYZ                   // front view
)

// ParseProjection maps a CLI string ("xy", "xz", "yz") to a Projection.
func ParseProjection(s string) (Projection, error) {
	switch s {
	case "xy":
		return ProjectionXY, nil
	case "xz":
		return ProjectionXZ, nil
	case "yz":
		return ProjectionYZ, nil
	}
	return 0, fmt.Errorf("unknown projection %q (want xy, xz or yz)", s)
}

// Apply projects a 3D position onto the plane's two axes.
func (pr Projection) Apply(p mocap.Vec3) (x, y float64) {
	switch pr {
	case ProjectionXZ:
		return p.X, p.Z
	case ProjectionYZ:
		return p.Y, p.Z
	default:
		return p.X, p.Y
	}
}

func (pr Projection) axes() (x, y, view string) {
	switch pr {
	case ProjectionXZ:
		return "X (mm)", "Z (mm)", "XZ projection (side view)"
	case ProjectionYZ:
		return "Y (mm)", "Z (mm)", "YZ projection (front view)"
	default:
		return "X (mm)", "Y (mm)", "XY projection (top view)"
	}
}

var allProjections = []Projection{ProjectionXY, ProjectionXZ, ProjectionYZ}

// SaveTrajectoryProjections writes a 1x3 PNG with the full trajectory of
// every marker drawn in each of the three planar projections.
func SaveTrajectoryProjections(s *mocap.Session, path string) error {
	if len(s.Frames) == 0 {
		return fmt.Errorf("trajectory plot: session has no frames")
	}
	colors := markerPalette(len(s.MarkerNames))

	row := make([]*plot.Plot, len(allProjections))
	for pi, pr := range allProjections {
		p := plot.New()
		xLabel, yLabel, title := pr.axes()
		p.Title.Text = title
		p.X.Label.Text = xLabel
		p.Y.Label.Text = yLabel

		for mi, name := range s.MarkerNames {
			pts := make(plotter.XYs, len(s.Frames))
			for fi, f := range s.Frames {
				x, y := pr.Apply(f.Positions[mi])
				pts[fi] = plotter.XY{X: x, Y: y}
			}
			line, err := plotter.NewLine(pts)
			if err != nil {
				return fmt.Errorf("trajectory plot: %w", err)
			}
			line.Color = colors[mi]
			line.Width = vg.Points(1)
			p.Add(line)
			// Legends get unwieldy past a handful of markers.
			if len(s.MarkerNames) <= 8 && pi == 0 {
				p.Legend.Add(name, line)
			}
		}
		row[pi] = p
	}

	return writeTiled([][]*plot.Plot{row}, 15*vg.Inch, 5*vg.Inch, path)
}

// SaveFrameProjections writes a 1x3 PNG of one frame's marker positions as
// labelled scatter plots in each planar projection.
func SaveFrameProjections(s *mocap.Session, frameIdx int, path string) error {
	if frameIdx < 0 || frameIdx >= len(s.Frames) {
		return fmt.Errorf("frame plot: frame %d out of range [0, %d)", frameIdx, len(s.Frames))
	}
	frame := s.Frames[frameIdx]

	row := make([]*plot.Plot, len(allProjections))
	for pi, pr := range allProjections {
		p, err := frameScatter(s, frame, pr, true)
		if err != nil {
			return err
		}
		p.Title.Text = fmt.Sprintf("%s - frame %d/%d", p.Title.Text, frameIdx+1, len(s.Frames))
		row[pi] = p
	}

	return writeTiled([][]*plot.Plot{row}, 15*vg.Inch, 5*vg.Inch, path)
}

// frameScatter builds a labelled scatter plot of one frame in one
// projection. Axis bounds are not set here; callers fixing an animation
// viewport set them on the returned plot.
func frameScatter(s *mocap.Session, frame mocap.MarkerFrame, pr Projection, labels bool) (*plot.Plot, error) {
	p := plot.New()
	xLabel, yLabel, title := pr.axes()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	pts := make(plotter.XYs, len(frame.Positions))
	for i, pos := range frame.Positions {
		x, y := pr.Apply(pos)
		pts[i] = plotter.XY{X: x, Y: y}
	}
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, fmt.Errorf("frame plot: %w", err)
	}
	scatter.GlyphStyle.Radius = vg.Points(4)
	scatter.GlyphStyle.Color = rightColor
	p.Add(scatter)

	if labels {
		lbl, err := plotter.NewLabels(plotter.XYLabels{XYs: pts, Labels: s.MarkerNames})
		if err != nil {
			return nil, fmt.Errorf("frame plot labels: %w", err)
		}
		p.Add(lbl)
	}
	return p, nil
}
