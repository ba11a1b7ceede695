package plotting

import (
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	stddraw "image/draw"
	"image/gif"
	"image/png"
	"io"
	"math"
	"os"
	"os/exec"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/banshee-data/gait.report/internal/kinematics"
	"github.com/banshee-data/gait.report/internal/mocap"
	"github.com/banshee-data/gait.report/internal/monitoring"
)

// AnimateOptions controls animated rendering.
type AnimateOptions struct {
	Projection Projection
	SkipFrames int // render every Nth frame; 1 renders all
	IntervalMS int // display time per rendered frame
	Width      vg.Length
	Height     vg.Length

	// Angles, when non-empty, adds a second panel beside the markers with
	// the full angle curves and a cursor at the current frame. The canvas
	// doubles in width to fit it.
	Angles []kinematics.AngleSeries
}

// PixelLength converts a raster pixel count to a canvas length at the
// 96 DPI the vgimg canvases render with.
func PixelLength(px int) vg.Length {
	return vg.Length(px) * vg.Inch / 96
}

func (o *AnimateOptions) normalise() {
	if o.SkipFrames < 1 {
		o.SkipFrames = 1
	}
	if o.IntervalMS < 10 {
		o.IntervalMS = 10
	}
	if o.Width == 0 {
		o.Width = 6 * vg.Inch
	}
	if o.Height == 0 {
		o.Height = 6 * vg.Inch
	}
}

// RenderAnimation dispatches on the output extension: .gif is encoded
// natively, .mp4 is piped through ffmpeg.
func RenderAnimation(s *mocap.Session, opts AnimateOptions, path string) error {
	switch {
	case strings.HasSuffix(path, ".gif"):
		return RenderGIF(s, opts, path)
	case strings.HasSuffix(path, ".mp4"):
		return RenderMP4(s, opts, path)
	}
	return fmt.Errorf("animation output must end in .gif or .mp4, got %q", path)
}

// RenderGIF renders the session as an animated GIF. The viewport is fixed
// across frames from the session bounds so markers do not jitter with the
// autoscaled axes.
func RenderGIF(s *mocap.Session, opts AnimateOptions, path string) error {
	opts.normalise()
	if len(s.Frames) == 0 {
		return fmt.Errorf("animation: session has no frames")
	}

	anim := &gif.GIF{}
	delay := opts.IntervalMS / 10 // GIF delays are in 1/100ths of a second
	if delay < 1 {
		delay = 1
	}

	count := 0
	for idx := 0; idx < len(s.Frames); idx += opts.SkipFrames {
		img, err := renderFrame(s, idx, opts)
		if err != nil {
			return err
		}
		bounds := img.Bounds()
		pal := image.NewPaletted(bounds, palette.Plan9)
		stddraw.FloydSteinberg.Draw(pal, bounds, img, image.Point{})
		anim.Image = append(anim.Image, pal)
		anim.Delay = append(anim.Delay, delay)
		count++
	}
	monitoring.Logf("rendered %d animation frames (every %d of %d)", count, opts.SkipFrames, len(s.Frames))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := gif.EncodeAll(f, anim); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}

// RenderMP4 streams PNG frames into an ffmpeg process. ffmpeg must be on
// PATH; a missing binary is reported before any rendering happens.
func RenderMP4(s *mocap.Session, opts AnimateOptions, path string) error {
	opts.normalise()
	if len(s.Frames) == 0 {
		return fmt.Errorf("animation: session has no frames")
	}
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("mp4 output requires ffmpeg on PATH: %w", err)
	}

	fps := 1000 / opts.IntervalMS
	if fps < 1 {
		fps = 1
	}
	cmd := exec.Command("ffmpeg",
		"-y",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-r", fmt.Sprintf("%d", fps),
		"-i", "-",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		path,
	)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdin: %w", err)
	}
	cmd.Stderr = io.Discard
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	writeErr := func() error {
		defer stdin.Close()
		for idx := 0; idx < len(s.Frames); idx += opts.SkipFrames {
			img, err := renderFrame(s, idx, opts)
			if err != nil {
				return err
			}
			if err := png.Encode(stdin, img); err != nil {
				return fmt.Errorf("encode frame %d: %w", idx, err)
			}
		}
		return nil
	}()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w", err)
	}
	return writeErr
}

// renderFrame draws a single animation frame to an RGBA image with the
// viewport fixed to the whole-session bounds. With Angles set the frame is
// a 1x2 tile: markers on the left, angle curves with a cursor on the right.
func renderFrame(s *mocap.Session, idx int, opts AnimateOptions) (image.Image, error) {
	p, err := frameScatter(s, s.Frames[idx], opts.Projection, len(s.MarkerNames) <= 12)
	if err != nil {
		return nil, err
	}
	p.Title.Text = fmt.Sprintf("Frame %d/%d", idx+1, len(s.Frames))

	min, max := s.Bounds()
	x0, y0 := opts.Projection.Apply(min)
	x1, y1 := opts.Projection.Apply(max)
	pad := 0.05 * (x1 - x0)
	if pad == 0 {
		pad = 1
	}
	p.X.Min, p.X.Max = x0-pad, x1+pad
	p.Y.Min, p.Y.Max = y0-pad, y1+pad

	if len(opts.Angles) == 0 {
		img := vgimg.New(opts.Width, opts.Height)
		p.Draw(draw.New(img))
		return img.Image(), nil
	}

	ap, err := anglePanel(s, idx, opts.Angles)
	if err != nil {
		return nil, err
	}
	img := vgimg.New(2*opts.Width, opts.Height)
	dc := draw.New(img)
	tiles := draw.Tiles{Rows: 1, Cols: 2}
	row := [][]*plot.Plot{{p, ap}}
	canvases := plot.Align(row, tiles, dc)
	p.Draw(canvases[0][0])
	ap.Draw(canvases[0][1])
	return img.Image(), nil
}

// anglePanel plots every angle series over the whole recording with a
// vertical cursor at the current frame's time.
func anglePanel(s *mocap.Session, idx int, series []kinematics.AngleSeries) (*plot.Plot, error) {
	freq := s.Metadata.Frequency
	if freq <= 0 {
		freq = 1
	}

	p := plot.New()
	p.Title.Text = "Joint angles"
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Angle (deg)"

	yMin, yMax := math.Inf(1), math.Inf(-1)
	for _, as := range series {
		pts := make(plotter.XYs, 0, len(as.Values))
		for i, v := range as.Values {
			if math.IsNaN(v) {
				continue
			}
			pts = append(pts, plotter.XY{X: float64(i) / freq, Y: v})
			yMin = math.Min(yMin, v)
			yMax = math.Max(yMax, v)
		}
		if len(pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("angle panel: %w", err)
		}
		line.Width = vg.Points(1)
		if strings.EqualFold(as.Side, "left") {
			line.Color = leftColor
		} else {
			line.Color = rightColor
		}
		p.Add(line)
		p.Legend.Add(as.Name, line)
	}
	if yMin > yMax {
		yMin, yMax = 0, 1
	}

	t := float64(idx) / freq
	cursor, err := plotter.NewLine(plotter.XYs{{X: t, Y: yMin}, {X: t, Y: yMax}})
	if err != nil {
		return nil, fmt.Errorf("angle panel cursor: %w", err)
	}
	cursor.Color = color.RGBA{R: 110, G: 110, B: 110, A: 255}
	cursor.Dashes = []vg.Length{vg.Points(3), vg.Points(2)}
	p.Add(cursor)
	p.Legend.Top = true
	return p, nil
}
