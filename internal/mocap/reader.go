package mocap

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Header keys emitted by the capture system. Any other keys in the preamble
// are carried through in Metadata.Extra untouched.
const (
	keyFrequency   = "FREQUENCY"
	keyFrameCount  = "NO_OF_FRAMES"
	keyMarkerCount = "NO_OF_MARKERS"
	keyCameraCount = "NO_OF_CAMERAS"
	keyUnits       = "UNITS"
)

// columnsBeforeData is the number of leading columns (Frame, Time) before
// the interleaved X/Y/Z marker columns start.
const columnsBeforeData = 2

// ReadFile reads a TSV marker export from disk. File-access errors are
// returned as-is (fs.ErrNotExist survives errors.Is); structural problems
// come back as a *ParseError.
func ReadFile(path string) (*Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open marker file: %w", err)
	}
	defer f.Close()
	return Read(f, path)
}

// Read parses a TSV marker export. name is used in error messages and as
// Session.Source.
func Read(r io.Reader, name string) (*Session, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	meta := Metadata{Frequency: 0, FrameCount: -1, MarkerCount: -1, Extra: map[string]string{}}
	var markerNames []string
	lineNo := 0
	headerSeen := false

	// Metadata preamble runs until the "Frame\tTime\t..." column header.
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r\n")
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "Frame\t") {
			names, err := parseHeaderRow(name, lineNo, line)
			if err != nil {
				return nil, err
			}
			markerNames = names
			headerSeen = true
			break
		}
		if err := parseMetadataLine(&meta, name, lineNo, line); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if !headerSeen {
		return nil, parseErrorf(name, 0, "no column header row (expected a line starting with %q)", "Frame\t")
	}
	if meta.MarkerCount >= 0 && meta.MarkerCount != len(markerNames) {
		return nil, parseErrorf(name, lineNo, "header declares %d markers but column header names %d",
			meta.MarkerCount, len(markerNames))
	}
	meta.MarkerCount = len(markerNames)

	wantCols := columnsBeforeData + 3*len(markerNames)
	var frames []MarkerFrame
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r\n")
		if line == "" {
			continue
		}
		frame, err := parseDataRow(name, lineNo, line, wantCols, len(markerNames))
		if err != nil {
			return nil, err
		}
		frame.Index = len(frames)
		frames = append(frames, frame)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	if meta.FrameCount >= 0 && meta.FrameCount != len(frames) {
		return nil, parseErrorf(name, 0, "header declares %d frames but file contains %d data rows",
			meta.FrameCount, len(frames))
	}
	meta.FrameCount = len(frames)

	return &Session{
		Source:      name,
		Metadata:    meta,
		MarkerNames: markerNames,
		Frames:      frames,
	}, nil
}

func parseMetadataLine(meta *Metadata, file string, lineNo int, line string) error {
	parts := strings.SplitN(line, "\t", 2)
	if len(parts) < 2 {
		// Preamble lines without a value (e.g. trailing export junk) are
		// recorded but otherwise ignored.
		meta.Extra[strings.TrimSpace(parts[0])] = ""
		return nil
	}
	key := strings.TrimSpace(parts[0])
	// Multi-value keys keep only the first field, matching the exporter.
	value := strings.TrimSpace(strings.SplitN(parts[1], "\t", 2)[0])
	meta.Extra[key] = value

	switch key {
	case keyFrequency:
		v, err := strconv.ParseFloat(value, 64)
		if err != nil || v <= 0 {
			return parseErrorf(file, lineNo, "invalid %s value %q", keyFrequency, value)
		}
		meta.Frequency = v
	case keyFrameCount:
		v, err := strconv.Atoi(value)
		if err != nil || v < 0 {
			return parseErrorf(file, lineNo, "invalid %s value %q", keyFrameCount, value)
		}
		meta.FrameCount = v
	case keyMarkerCount:
		v, err := strconv.Atoi(value)
		if err != nil || v < 0 {
			return parseErrorf(file, lineNo, "invalid %s value %q", keyMarkerCount, value)
		}
		meta.MarkerCount = v
	case keyCameraCount:
		if v, err := strconv.Atoi(value); err == nil {
			meta.CameraCount = v
		}
	case keyUnits:
		meta.Units = value
	}
	return nil
}

// parseHeaderRow extracts marker names from the column header. Columns are
// "Frame", "Time", then "<marker> X", "<marker> Y", "<marker> Z" per marker.
func parseHeaderRow(file string, lineNo int, line string) ([]string, error) {
	cols := strings.Split(line, "\t")
	if len(cols) < columnsBeforeData {
		return nil, parseErrorf(file, lineNo, "column header has %d columns, need at least %d", len(cols), columnsBeforeData)
	}
	coordCols := cols[columnsBeforeData:]
	if len(coordCols)%3 != 0 {
		return nil, parseErrorf(file, lineNo, "coordinate column count %d is not a multiple of 3", len(coordCols))
	}

	var names []string
	seen := map[string]bool{}
	for _, col := range coordCols {
		base := col
		if i := strings.LastIndex(col, " "); i >= 0 {
			base = col[:i]
		}
		if base == "" {
			return nil, parseErrorf(file, lineNo, "empty marker name in column %q", col)
		}
		if !seen[base] {
			seen[base] = true
			names = append(names, base)
		}
	}
	if len(names)*3 != len(coordCols) {
		return nil, parseErrorf(file, lineNo, "expected 3 coordinate columns per marker, got %d columns for %d markers",
			len(coordCols), len(names))
	}
	return names, nil
}

func parseDataRow(file string, lineNo int, line string, wantCols, markers int) (MarkerFrame, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != wantCols {
		return MarkerFrame{}, parseErrorf(file, lineNo, "row has %d columns, expected %d (2 + 3×%d markers)",
			len(fields), wantCols, markers)
	}

	t, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil {
		return MarkerFrame{}, parseErrorf(file, lineNo, "invalid time value %q", fields[1])
	}

	frame := MarkerFrame{TimeSecs: t, Positions: make([]Vec3, markers)}
	for m := 0; m < markers; m++ {
		base := columnsBeforeData + 3*m
		var coords [3]float64
		for c := 0; c < 3; c++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(fields[base+c]), 64)
			if err != nil {
				return MarkerFrame{}, parseErrorf(file, lineNo, "invalid coordinate %q in column %d", fields[base+c], base+c+1)
			}
			coords[c] = v
		}
		frame.Positions[m] = Vec3{coords[0], coords[1], coords[2]}
	}
	return frame, nil
}
