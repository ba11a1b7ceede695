package monitor

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/banshee-data/gait.report/internal/kinematics"
	"github.com/banshee-data/gait.report/internal/mocap"
)

func testServer() *WebServer {
	session := &mocap.Session{
		Source:      "walk.tsv",
		Metadata:    mocap.Metadata{Frequency: 100, FrameCount: 2, MarkerCount: 2},
		MarkerNames: []string{"ra", "rk"},
		Frames: []mocap.MarkerFrame{
			{Index: 0, TimeSecs: 0, Positions: []mocap.Vec3{{}, {Z: 500}}},
			{Index: 1, TimeSecs: 0.01, Positions: []mocap.Vec3{{X: 5}, {X: 5, Z: 500}}},
		},
		Filtered: true,
	}
	series := []kinematics.AngleSeries{
		{Name: "qr1", Side: "right", Values: []float64{90, math.NaN()}},
	}
	return NewWebServer(session, series, nil)
}

func get(t *testing.T, ws *WebServer, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	ws.ServeMux().ServeHTTP(rec, req)
	return rec
}

func TestDashboard(t *testing.T) {
	rec := get(t, testServer(), "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/charts/angles") {
		t.Error("dashboard is missing the angle chart frame")
	}
}

func TestAngleChart(t *testing.T) {
	rec := get(t, testServer(), "/charts/angles")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	if !strings.Contains(rec.Body.String(), "qr1") {
		t.Error("chart does not mention the series name")
	}
}

func TestAngleChartNoArchive(t *testing.T) {
	rec := get(t, testServer(), "/charts/angles?session=abc")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 without an archive", rec.Code)
	}
}

func TestProjectionChart(t *testing.T) {
	rec := get(t, testServer(), "/charts/projection?plane=xz&frame=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}

func TestProjectionChartBadParams(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{name: "bad plane", path: "/charts/projection?plane=qq"},
		{name: "frame out of range", path: "/charts/projection?frame=99"},
		{name: "negative frame", path: "/charts/projection?frame=-1"},
	}
	ws := testServer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, ws, tt.path)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("error body is not JSON: %v", err)
			}
			if body["error"] == "" {
				t.Error("error body has no message")
			}
		})
	}
}

func TestSessionsWithoutArchive(t *testing.T) {
	rec := get(t, testServer(), "/api/sessions")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 without an archive", rec.Code)
	}
}

func TestNoDataAnywhere(t *testing.T) {
	ws := NewWebServer(nil, nil, nil)
	rec := get(t, ws, "/charts/angles")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 with nothing loaded", rec.Code)
	}
	rec = get(t, ws, "/charts/projection")
	if rec.Code != http.StatusNotFound {
		t.Errorf("projection status = %d, want 404 with nothing loaded", rec.Code)
	}
}
