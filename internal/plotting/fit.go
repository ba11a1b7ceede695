package plotting

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/gait.report/internal/kinematics"
)

// DependencyData bundles one side's angle series with its cubic fit for
// plotting q1 = phi1(q2) and q3 = phi3(q2).
type DependencyData struct {
	Side       string
	Q1, Q2, Q3 []float64
	Fit        *kinematics.DependencyFit
}

// SaveDependencyPlots writes a grid of scatter-plus-fit plots, one row per
// side, with the q1-vs-q2 relation on the left and q3-vs-q2 on the right.
func SaveDependencyPlots(data []DependencyData, path string) error {
	if len(data) == 0 {
		return fmt.Errorf("dependency plot: no data")
	}

	plots := make([][]*plot.Plot, len(data))
	for row, d := range data {
		p1, err := dependencyPanel(d.Side, "q1", d.Q2, d.Q1, d.Fit.Phi1, d.Fit.R2Phi1)
		if err != nil {
			return err
		}
		p3, err := dependencyPanel(d.Side, "q3", d.Q2, d.Q3, d.Fit.Phi3, d.Fit.R2Phi3)
		if err != nil {
			return err
		}
		plots[row] = []*plot.Plot{p1, p3}
	}

	return writeTiled(plots, 12*vg.Inch, vg.Length(len(data))*5*vg.Inch, path)
}

func dependencyPanel(side, yName string, x, y, coeffs []float64, r2 float64) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s: %s vs q2 (R²=%.3f)", side, yName, r2)
	p.X.Label.Text = "q2 (deg)"
	p.Y.Label.Text = yName + " (deg)"

	pts := make(plotter.XYs, 0, len(x))
	minX, maxX := math.Inf(1), math.Inf(-1)
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		pts = append(pts, plotter.XY{X: x[i], Y: y[i]})
		minX = math.Min(minX, x[i])
		maxX = math.Max(maxX, x[i])
	}
	if len(pts) == 0 {
		return nil, fmt.Errorf("dependency plot %s/%s: no valid samples", side, yName)
	}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, fmt.Errorf("dependency plot: %w", err)
	}
	scatter.GlyphStyle.Radius = vg.Points(1.5)
	scatter.GlyphStyle.Color = leftColor
	p.Add(scatter)
	p.Legend.Add("data", scatter)

	const curveSamples = 200
	curve := make(plotter.XYs, curveSamples)
	for i := 0; i < curveSamples; i++ {
		xv := minX + (maxX-minX)*float64(i)/float64(curveSamples-1)
		curve[i] = plotter.XY{X: xv, Y: kinematics.PolyEval(coeffs, xv)}
	}
	line, err := plotter.NewLine(curve)
	if err != nil {
		return nil, fmt.Errorf("dependency plot: %w", err)
	}
	line.Width = vg.Points(2)
	line.Color = rightColor
	p.Add(line)
	p.Legend.Add("cubic fit", line)
	p.Legend.Top = true
	return p, nil
}
