// mocap-report reads a motion-capture TSV export, filters and relabels the
// markers, computes the joint angle series and prints their statistics.
// Optional flags write the angle comparison plot, trajectory and frame
// projections, a JSON export and an archive record.
//
// Usage:
//
//	mocap-report [flags] <recording.tsv>
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/banshee-data/gait.report/internal/config"
	"github.com/banshee-data/gait.report/internal/db"
	"github.com/banshee-data/gait.report/internal/export"
	"github.com/banshee-data/gait.report/internal/kinematics"
	"github.com/banshee-data/gait.report/internal/mocap"
	"github.com/banshee-data/gait.report/internal/monitoring"
	"github.com/banshee-data/gait.report/internal/plotting"
)

var (
	configPath  = flag.String("config", "", "Path to analysis config JSON (defaults apply when empty)")
	outputDir   = flag.String("output-dir", ".", "Directory for generated files")
	savePlot    = flag.String("save", "", "Write the angle comparison plot to this PNG file")
	saveTraj    = flag.String("save-trajectories", "", "Write the marker trajectory projections to this PNG file")
	saveFrame   = flag.String("save-projections", "", "Write one frame's marker projections to this PNG file")
	frameIdx    = flag.Int("frame", 0, "Frame index for -save-projections (0-based)")
	frameFrom   = flag.Int("from", -1, "First frame of the plot window (overrides config)")
	frameTo     = flag.Int("to", -1, "Frame after the last of the plot window (overrides config)")
	jsonOut     = flag.String("json", "", "Write the angle export JSON to this file")
	dbPath      = flag.String("db", "", "Archive the analysis in this SQLite database")
	measurement = flag.String("measurement", "", "Measurement name stored with the archive record (defaults to the file name)")
	quiet       = flag.Bool("quiet", false, "Suppress progress logging")
)

func main() {
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <recording.tsv>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	if *quiet {
		monitoring.Quiet()
	}

	cfg := config.Empty()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	session, err := mocap.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("failed to read recording: %v", err)
	}
	if session.Metadata.Frequency == 0 {
		session.Metadata.Frequency = cfg.GetDefaultFrequency()
		monitoring.Logf("no FREQUENCY in header, assuming %.1f Hz", session.Metadata.Frequency)
	}
	if *measurement != "" {
		session.Source = *measurement
	}

	printMetadata(session)

	filtered := mocap.Filter(session, cfg.FilterPolicy())
	monitoring.Logf("filtered %d markers down to %d: %s",
		len(session.MarkerNames), len(filtered.MarkerNames),
		strings.Join(filtered.MarkerNames, " "))

	series, err := kinematics.Compute(filtered, cfg.AngleDefs())
	if err != nil {
		log.Fatalf("failed to compute angles: %v", err)
	}
	printStatistics(series)

	from, to := cfg.Window(len(filtered.Frames))
	if *frameFrom >= 0 {
		from = *frameFrom
	}
	if *frameTo >= 0 {
		to = *frameTo
	}

	if *savePlot != "" {
		path := outPath(*savePlot)
		if err := plotting.SaveAngleComparison(series, filtered.Metadata.Frequency, from, to, path); err != nil {
			log.Fatalf("failed to save angle plot: %v", err)
		}
		monitoring.Logf("wrote angle comparison plot to %s", path)
	}
	if *saveTraj != "" {
		path := outPath(*saveTraj)
		if err := plotting.SaveTrajectoryProjections(filtered, path); err != nil {
			log.Fatalf("failed to save trajectory projections: %v", err)
		}
		monitoring.Logf("wrote trajectory projections to %s", path)
	}
	if *saveFrame != "" {
		path := outPath(*saveFrame)
		if err := plotting.SaveFrameProjections(filtered, *frameIdx, path); err != nil {
			log.Fatalf("failed to save frame projections: %v", err)
		}
		monitoring.Logf("wrote frame projections to %s", path)
	}
	if *jsonOut != "" {
		path := outPath(*jsonOut)
		if err := export.Save(export.Build(filtered, series), path); err != nil {
			log.Fatalf("failed to save JSON export: %v", err)
		}
		monitoring.Logf("wrote angle export to %s", path)
	}
	if *dbPath != "" {
		archive, err := db.NewDB(*dbPath)
		if err != nil {
			log.Fatalf("failed to open archive: %v", err)
		}
		defer archive.Close()
		id, err := archive.SaveAnalysis(filtered, series)
		if err != nil {
			log.Fatalf("failed to archive analysis: %v", err)
		}
		monitoring.Logf("archived analysis as session %s", id)
	}
}

// outPath resolves a user-supplied output file against -output-dir unless it
// is already absolute.
func outPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(*outputDir, name)
}

func printMetadata(s *mocap.Session) {
	fmt.Printf("File:      %s\n", s.Source)
	fmt.Printf("Frequency: %.1f Hz\n", s.Metadata.Frequency)
	fmt.Printf("Frames:    %d (%.2f s)\n", len(s.Frames), s.Duration())
	fmt.Printf("Markers:   %d\n", len(s.MarkerNames))
	if s.Metadata.CameraCount > 0 {
		fmt.Printf("Cameras:   %d\n", s.Metadata.CameraCount)
	}
	fmt.Println()
}

func printStatistics(series []kinematics.AngleSeries) {
	fmt.Printf("%-6s %-6s %10s %10s %10s %10s %8s\n",
		"angle", "side", "mean", "std", "min", "max", "valid")
	for _, s := range series {
		fmt.Printf("%-6s %-6s %10s %10s %10s %10s %8d\n",
			s.Name, s.Side,
			fmtDeg(s.Stats.Mean), fmtDeg(s.Stats.Std),
			fmtDeg(s.Stats.Min), fmtDeg(s.Stats.Max),
			s.Stats.Valid)
	}
	fmt.Println()
}

func fmtDeg(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v)
}
