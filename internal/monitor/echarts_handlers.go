package monitor

import (
	"bytes"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/gait.report/internal/plotting"
)

// handleAngleChart renders an HTML line chart of every angle series,
// right-vs-left, with time in seconds on the X axis.
// Query params:
//   - session (optional): archived session id; defaults to the loaded file
//   - max_points (optional; default 4000) downsamples long recordings
func (ws *WebServer) handleAngleChart(w http.ResponseWriter, r *http.Request) {
	series, freq, err := ws.resolveSeries(r)
	if err != nil {
		ws.writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	if freq <= 0 {
		freq = 100
	}

	maxPoints := 4000
	if mp := r.URL.Query().Get("max_points"); mp != "" {
		if v, err := strconv.Atoi(mp); err == nil && v >= 100 && v <= 100000 {
			maxPoints = v
		}
	}

	numFrames := 0
	for _, s := range series {
		if len(s.Values) > numFrames {
			numFrames = len(s.Values)
		}
	}
	if numFrames == 0 {
		ws.writeJSONError(w, http.StatusNotFound, "no angle samples available")
		return
	}
	stride := 1
	if numFrames > maxPoints {
		stride = int(math.Ceil(float64(numFrames) / float64(maxPoints)))
	}

	xAxis := make([]string, 0, numFrames/stride+1)
	for i := 0; i < numFrames; i += stride {
		xAxis = append(xAxis, fmt.Sprintf("%.2f", float64(i)/freq))
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Joint Angles", Theme: "dark", Width: "1200px", Height: "480px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Joint angles (right vs left)",
			Subtitle: fmt.Sprintf("frames=%d stride=%d freq=%.1fHz", numFrames, stride, freq),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t (s)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "deg"}),
	)
	line.SetXAxis(xAxis)

	for _, s := range series {
		data := make([]opts.LineData, 0, len(xAxis))
		for i := 0; i < len(s.Values); i += stride {
			v := s.Values[i]
			if math.IsNaN(v) {
				data = append(data, opts.LineData{Value: nil})
			} else {
				data = append(data, opts.LineData{Value: v})
			}
		}
		line.AddSeries(s.Name, data)
	}

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleProjectionChart renders an HTML scatter of one frame's marker
// positions in a planar projection.
// Query params:
//   - plane: xy (default), xz or yz
//   - frame: 0-based frame index (default 0)
func (ws *WebServer) handleProjectionChart(w http.ResponseWriter, r *http.Request) {
	if ws.session == nil {
		ws.writeJSONError(w, http.StatusNotFound, "no session loaded")
		return
	}

	plane := r.URL.Query().Get("plane")
	if plane == "" {
		plane = "xy"
	}
	projection, err := plotting.ParseProjection(plane)
	if err != nil {
		ws.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	frameIdx := 0
	if f := r.URL.Query().Get("frame"); f != "" {
		v, err := strconv.Atoi(f)
		if err != nil || v < 0 || v >= len(ws.session.Frames) {
			ws.writeJSONError(w, http.StatusBadRequest,
				fmt.Sprintf("frame must be in [0, %d)", len(ws.session.Frames)))
			return
		}
		frameIdx = v
	}

	frame := ws.session.Frames[frameIdx]
	data := make([]opts.ScatterData, 0, len(frame.Positions))
	for i, pos := range frame.Positions {
		x, y := projection.Apply(pos)
		data = append(data, opts.ScatterData{
			Name:  ws.session.MarkerNames[i],
			Value: []interface{}{x, y},
		})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Marker Projection", Theme: "dark", Width: "900px", Height: "600px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Markers, %s plane", plane),
			Subtitle: fmt.Sprintf("frame %d/%d", frameIdx+1, len(ws.session.Frames)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	scatter.AddSeries("markers", data,
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 12}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
