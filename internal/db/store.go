package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/gait.report/internal/kinematics"
	"github.com/banshee-data/gait.report/internal/mocap"
)

// SessionRecord is one archived recording.
type SessionRecord struct {
	ID          string    `json:"id"`
	SourceFile  string    `json:"source_file"`
	FrameCount  int       `json:"frame_count"`
	MarkerCount int       `json:"marker_count"`
	Frequency   float64   `json:"frequency_hz"`
	MarkerNames []string  `json:"marker_names"`
	ImportedAt  time.Time `json:"imported_at"`
}

// Analysis is an archived session together with its angle series.
type Analysis struct {
	Session SessionRecord            `json:"session"`
	Series  []kinematics.AngleSeries `json:"series"`
}

// nullableJSON encodes a series with NaN mapped to null, matching the file
// export format so values survive the archive round trip.
func nullableJSON(values []float64) (string, error) {
	out := make([]*float64, len(values))
	for i := range values {
		if !math.IsNaN(values[i]) {
			out[i] = &values[i]
		}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func fromNullableJSON(data string) ([]float64, error) {
	var raw []*float64
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, err
	}
	out := make([]float64, len(raw))
	for i, v := range raw {
		if v == nil {
			out[i] = math.NaN()
		} else {
			out[i] = *v
		}
	}
	return out, nil
}

// nullIfNaN maps NaN statistics to SQL NULL.
func nullIfNaN(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func nanIfNull(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

// SaveAnalysis archives a session and its computed angle series, returning
// the new session id.
func (db *DB) SaveAnalysis(s *mocap.Session, series []kinematics.AngleSeries) (string, error) {
	id := uuid.NewString()

	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin archive transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO sessions (id, source_file, frame_count, marker_count, frequency_hz, marker_names, imported_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, s.Source, len(s.Frames), len(s.MarkerNames), s.Metadata.Frequency,
		strings.Join(s.MarkerNames, ","),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}

	for _, as := range series {
		values, err := nullableJSON(as.Values)
		if err != nil {
			return "", fmt.Errorf("encode series %s: %w", as.Name, err)
		}
		if _, err := tx.Exec(
			`INSERT INTO angle_series (session_id, angle_name, side, values_json) VALUES (?, ?, ?, ?)`,
			id, as.Name, as.Side, values,
		); err != nil {
			return "", fmt.Errorf("insert series %s: %w", as.Name, err)
		}
		if _, err := tx.Exec(
			`INSERT INTO angle_stats (session_id, angle_name, mean, std, min, max, valid_frames)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, as.Name,
			nullIfNaN(as.Stats.Mean), nullIfNaN(as.Stats.Std),
			nullIfNaN(as.Stats.Min), nullIfNaN(as.Stats.Max),
			as.Stats.Valid,
		); err != nil {
			return "", fmt.Errorf("insert stats %s: %w", as.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit archive transaction: %w", err)
	}
	return id, nil
}

// ListSessions returns archived sessions, newest first.
func (db *DB) ListSessions() ([]SessionRecord, error) {
	rows, err := db.Query(
		`SELECT id, source_file, frame_count, marker_count, frequency_hz, marker_names, imported_at
		 FROM sessions ORDER BY imported_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (SessionRecord, error) {
	var rec SessionRecord
	var names, imported string
	if err := row.Scan(&rec.ID, &rec.SourceFile, &rec.FrameCount, &rec.MarkerCount,
		&rec.Frequency, &names, &imported); err != nil {
		return rec, fmt.Errorf("scan session: %w", err)
	}
	if names != "" {
		rec.MarkerNames = strings.Split(names, ",")
	}
	// Rows written by SaveAnalysis carry RFC3339; the column default is
	// SQLite's "YYYY-MM-DD HH:MM:SS".
	if t, err := time.Parse(time.RFC3339Nano, imported); err == nil {
		rec.ImportedAt = t
	} else if t, err := time.Parse("2006-01-02 15:04:05", imported); err == nil {
		rec.ImportedAt = t.UTC()
	}
	return rec, nil
}

// GetAnalysis loads an archived session and its series by id.
func (db *DB) GetAnalysis(id string) (*Analysis, error) {
	row := db.QueryRow(
		`SELECT id, source_file, frame_count, marker_count, frequency_hz, marker_names, imported_at
		 FROM sessions WHERE id = ?`, id)
	rec, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session %s not found", id)
		}
		return nil, err
	}

	rows, err := db.Query(
		`SELECT s.angle_name, s.side, s.values_json,
		        st.mean, st.std, st.min, st.max, st.valid_frames
		 FROM angle_series s
		 JOIN angle_stats st ON st.session_id = s.session_id AND st.angle_name = s.angle_name
		 WHERE s.session_id = ?
		 ORDER BY s.angle_name`, id)
	if err != nil {
		return nil, fmt.Errorf("load series: %w", err)
	}
	defer rows.Close()

	analysis := &Analysis{Session: rec}
	for rows.Next() {
		var as kinematics.AngleSeries
		var valuesJSON string
		var mean, std, min, max sql.NullFloat64
		if err := rows.Scan(&as.Name, &as.Side, &valuesJSON, &mean, &std, &min, &max, &as.Stats.Valid); err != nil {
			return nil, fmt.Errorf("scan series: %w", err)
		}
		if as.Values, err = fromNullableJSON(valuesJSON); err != nil {
			return nil, fmt.Errorf("decode series %s: %w", as.Name, err)
		}
		as.Stats.Mean = nanIfNull(mean)
		as.Stats.Std = nanIfNull(std)
		as.Stats.Min = nanIfNull(min)
		as.Stats.Max = nanIfNull(max)
		analysis.Series = append(analysis.Series, as)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return analysis, nil
}

// DeleteSession removes an archived session and, via the foreign keys, its
// series and statistics.
func (db *DB) DeleteSession(id string) error {
	res, err := db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("session %s not found", id)
	}
	return nil
}
