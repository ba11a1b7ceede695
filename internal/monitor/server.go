// Package monitor serves interactive HTML charts of a loaded session and
// the archive: angle time series and planar marker projections rendered
// with go-echarts.
package monitor

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/banshee-data/gait.report/internal/db"
	"github.com/banshee-data/gait.report/internal/kinematics"
	"github.com/banshee-data/gait.report/internal/mocap"
)

// WebServer binds chart handlers to an optional live session and an
// optional archive. At least one of the two must be present for the chart
// endpoints to have data.
type WebServer struct {
	session *mocap.Session
	series  []kinematics.AngleSeries
	archive *db.DB
}

// NewWebServer creates a chart server. session/series may be nil when only
// the archive is browsed; archive may be nil when a single file is viewed.
func NewWebServer(session *mocap.Session, series []kinematics.AngleSeries, archive *db.DB) *WebServer {
	return &WebServer{session: session, series: series, archive: archive}
}

// ServeMux returns the route table.
func (ws *WebServer) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", ws.handleDashboard)
	mux.HandleFunc("/charts/angles", ws.handleAngleChart)
	mux.HandleFunc("/charts/projection", ws.handleProjectionChart)
	mux.HandleFunc("/api/sessions", ws.handleSessions)
	return mux
}

func (ws *WebServer) writeJSONError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// resolveSeries returns the angle series to chart: the archive session
// named by ?session=, or the directly loaded one.
func (ws *WebServer) resolveSeries(r *http.Request) ([]kinematics.AngleSeries, float64, error) {
	if id := r.URL.Query().Get("session"); id != "" {
		if ws.archive == nil {
			return nil, 0, fmt.Errorf("no archive configured")
		}
		analysis, err := ws.archive.GetAnalysis(id)
		if err != nil {
			return nil, 0, err
		}
		return analysis.Series, analysis.Session.Frequency, nil
	}
	if ws.series == nil {
		return nil, 0, fmt.Errorf("no session loaded; pass ?session=<id>")
	}
	freq := 0.0
	if ws.session != nil {
		freq = ws.session.Metadata.Frequency
	}
	return ws.series, freq, nil
}

// handleSessions lists archived sessions as JSON.
func (ws *WebServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	if ws.archive == nil {
		ws.writeJSONError(w, http.StatusNotFound, "no archive configured")
		return
	}
	sessions, err := ws.archive.ListSessions()
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(sessions)
}

// handleDashboard renders a simple page with iframes to the debug charts.
func (ws *WebServer) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head><title>Gait Report</title></head>
<body style="margin:0;background:#111;color:#eee;font-family:sans-serif">
<h2 style="padding:8px">Gait Report</h2>
<iframe src="/charts/angles" style="width:100%;height:520px;border:0"></iframe>
<iframe src="/charts/projection?plane=xz" style="width:100%;height:640px;border:0"></iframe>
</body>
</html>`)
}
