package db

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/gait.report/internal/kinematics"
	"github.com/banshee-data/gait.report/internal/mocap"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testSession() (*mocap.Session, []kinematics.AngleSeries) {
	s := &mocap.Session{
		Source:      "walk.tsv",
		Metadata:    mocap.Metadata{Frequency: 100, FrameCount: 3, MarkerCount: 2},
		MarkerNames: []string{"ra", "rk"},
		Frames:      make([]mocap.MarkerFrame, 3),
		Filtered:    true,
	}
	values := []float64{45.5, math.NaN(), 50.25}
	series := []kinematics.AngleSeries{
		{Name: "qr1", Side: "right", Values: values, Stats: kinematics.ComputeStats(values)},
		{Name: "ql1", Side: "left", Values: []float64{math.NaN()}, Stats: kinematics.ComputeStats([]float64{math.NaN()})},
	}
	return s, series
}

func TestSchemaVersion(t *testing.T) {
	db := testDB(t)
	version, err := db.SchemaVersion()
	require.NoError(t, err)
	require.Equal(t, uint(1), version)
}

func TestSaveAndGetAnalysis(t *testing.T) {
	db := testDB(t)
	s, series := testSession()

	id, err := db.SaveAnalysis(s, series)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := db.GetAnalysis(id)
	require.NoError(t, err)

	require.Equal(t, "walk.tsv", got.Session.SourceFile)
	require.Equal(t, 3, got.Session.FrameCount)
	require.Equal(t, []string{"ra", "rk"}, got.Session.MarkerNames)
	require.False(t, got.Session.ImportedAt.IsZero())

	require.Len(t, got.Series, 2)
	byName := map[string]kinematics.AngleSeries{}
	for _, as := range got.Series {
		byName[as.Name] = as
	}

	qr1 := byName["qr1"]
	require.Equal(t, "right", qr1.Side)
	if diff := cmp.Diff(series[0].Values, qr1.Values, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("qr1 values mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, 2, qr1.Stats.Valid)
	require.InDelta(t, 47.875, qr1.Stats.Mean, 1e-9)

	// A series with no valid samples stores NULL stats and restores NaN.
	ql1 := byName["ql1"]
	require.Equal(t, 0, ql1.Stats.Valid)
	require.True(t, math.IsNaN(ql1.Stats.Mean))
	require.True(t, math.IsNaN(ql1.Values[0]))
}

func TestListSessionsNewestFirst(t *testing.T) {
	db := testDB(t)
	s, series := testSession()

	first, err := db.SaveAnalysis(s, series)
	require.NoError(t, err)
	second, err := db.SaveAnalysis(s, series)
	require.NoError(t, err)

	sessions, err := db.ListSessions()
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	ids := []string{sessions[0].ID, sessions[1].ID}
	require.Contains(t, ids, first)
	require.Contains(t, ids, second)
	require.False(t, sessions[0].ImportedAt.Before(sessions[1].ImportedAt))
}

func TestGetAnalysisNotFound(t *testing.T) {
	db := testDB(t)
	_, err := db.GetAnalysis("no-such-id")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}

func TestDeleteSessionCascades(t *testing.T) {
	db := testDB(t)
	s, series := testSession()

	id, err := db.SaveAnalysis(s, series)
	require.NoError(t, err)
	require.NoError(t, db.DeleteSession(id))

	_, err = db.GetAnalysis(id)
	require.Error(t, err)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM angle_series`).Scan(&n))
	require.Equal(t, 0, n, "foreign key cascade should remove series rows")

	require.Error(t, db.DeleteSession(id), "second delete should report not found")
}
