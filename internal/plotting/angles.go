// Package plotting renders static PNG plots and animated sequences from
// marker sessions and angle series.
package plotting

import (
	"fmt"
	"math"
	"os"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/banshee-data/gait.report/internal/kinematics"
)

// panel titles per angle class, indexed by the trailing digit of the angle
// name.
var angleTitles = map[byte]string{
	'1': "Q1: shank elevation vs XY plane",
	'2': "Q2: knee flexion (ankle-knee-hip)",
	'3': "Q3: hip flexion (knee-hip-shoulder)",
}

// SaveAngleComparison writes a stacked right-vs-left comparison plot, one
// panel per angle class, covering frames [from, to). The X axis is time in
// seconds derived from the sampling frequency.
func SaveAngleComparison(series []kinematics.AngleSeries, frequency float64, from, to int, path string) error {
	if frequency <= 0 {
		return fmt.Errorf("angle plot: frequency must be positive, got %f", frequency)
	}

	// Group series into panels by the trailing digit of the angle name.
	panels := map[byte][]kinematics.AngleSeries{}
	var order []byte
	for _, s := range series {
		if s.Name == "" {
			continue
		}
		class := s.Name[len(s.Name)-1]
		if _, seen := panels[class]; !seen {
			order = append(order, class)
		}
		panels[class] = append(panels[class], s)
	}
	if len(order) == 0 {
		return fmt.Errorf("angle plot: no series to plot")
	}

	plots := make([][]*plot.Plot, len(order))
	for row, class := range order {
		p := plot.New()
		if title, ok := angleTitles[class]; ok {
			p.Title.Text = title
		} else {
			p.Title.Text = fmt.Sprintf("Q%c", class)
		}
		p.X.Label.Text = "Time (s)"
		p.Y.Label.Text = "Angle (deg)"

		for _, s := range panels[class] {
			f, t := clampWindow(from, to, len(s.Values))
			pts := make(plotter.XYs, 0, t-f)
			for i := f; i < t; i++ {
				if math.IsNaN(s.Values[i]) {
					continue
				}
				pts = append(pts, plotter.XY{X: float64(i) / frequency, Y: s.Values[i]})
			}
			if len(pts) == 0 {
				continue
			}
			line, err := plotter.NewLine(pts)
			if err != nil {
				return fmt.Errorf("angle plot: %w", err)
			}
			line.Width = vg.Points(1.5)
			if strings.EqualFold(s.Side, "left") {
				line.Color = leftColor
			} else {
				line.Color = rightColor
			}
			p.Add(line)
			p.Legend.Add(fmt.Sprintf("%s (%s)", s.Name, s.Side), line)
		}
		p.Legend.Top = true
		plots[row] = []*plot.Plot{p}
	}

	return writeTiled(plots, 10*vg.Inch, vg.Length(len(order))*3.2*vg.Inch, path)
}

func clampWindow(from, to, n int) (int, int) {
	if from < 0 {
		from = 0
	}
	if to <= 0 || to > n {
		to = n
	}
	if from > to {
		from = to
	}
	return from, to
}

// writeTiled draws a grid of plots onto one PNG canvas.
func writeTiled(plots [][]*plot.Plot, width, height vg.Length, path string) error {
	img := vgimg.New(width, height)
	dc := draw.New(img)

	rows := len(plots)
	cols := 0
	for _, r := range plots {
		if len(r) > cols {
			cols = len(r)
		}
	}
	tiles := draw.Tiles{
		Rows: rows, Cols: cols,
		PadX: vg.Millimeter * 4, PadY: vg.Millimeter * 4,
		PadTop: vg.Millimeter * 2, PadBottom: vg.Millimeter * 2,
		PadLeft: vg.Millimeter * 2, PadRight: vg.Millimeter * 2,
	}
	canvases := plot.Align(plots, tiles, dc)
	for r := range plots {
		for c := range plots[r] {
			if plots[r][c] != nil {
				plots[r][c].Draw(canvases[r][c])
			}
		}
	}

	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer w.Close()
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
