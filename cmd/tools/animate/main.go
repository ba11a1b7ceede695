// animate renders a motion-capture recording as an animated planar scatter,
// one frame per capture sample, to an animated GIF or (via ffmpeg) an MP4.
//
// Usage:
//
//	animate -save walk.gif [flags] <recording.tsv>
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/banshee-data/gait.report/internal/config"
	"github.com/banshee-data/gait.report/internal/kinematics"
	"github.com/banshee-data/gait.report/internal/mocap"
	"github.com/banshee-data/gait.report/internal/monitoring"
	"github.com/banshee-data/gait.report/internal/plotting"
)

func main() {
	configPath := flag.String("config", "", "Path to analysis config JSON")
	save := flag.String("save", "", "Output file; .gif or .mp4 decides the encoder")
	projection := flag.String("projection", "xz", "Projection plane: xy, xz or yz")
	skipFrames := flag.Int("skip-frames", 1, "Render every n-th frame")
	interval := flag.Int("interval", 50, "Frame display interval in milliseconds")
	width := flag.Int("width", 640, "Frame width in pixels")
	height := flag.Int("height", 480, "Frame height in pixels")
	withAngles := flag.Bool("with-angles", false, "Add a synchronized angle-curve panel beside the markers")
	raw := flag.Bool("raw", false, "Animate the unfiltered markers")
	quiet := flag.Bool("quiet", false, "Suppress progress logging")
	flag.Parse()

	if flag.NArg() != 1 || *save == "" {
		fmt.Fprintf(os.Stderr, "usage: %s -save out.gif [flags] <recording.tsv>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	if *quiet {
		monitoring.Quiet()
	}

	pr, err := plotting.ParseProjection(*projection)
	if err != nil {
		log.Fatal(err)
	}

	cfg := config.Empty()
	if *configPath != "" {
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	session, err := mocap.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("failed to read recording: %v", err)
	}
	if session.Metadata.Frequency == 0 {
		session.Metadata.Frequency = cfg.GetDefaultFrequency()
	}
	if !*raw {
		session = mocap.Filter(session, cfg.FilterPolicy())
	}

	opts := plotting.AnimateOptions{
		Projection: pr,
		SkipFrames: *skipFrames,
		IntervalMS: *interval,
		Width:      plotting.PixelLength(*width),
		Height:     plotting.PixelLength(*height),
	}
	if *withAngles {
		if *raw {
			log.Fatal("-with-angles needs filtered anatomical labels; drop -raw")
		}
		series, err := kinematics.Compute(session, cfg.AngleDefs())
		if err != nil {
			log.Fatalf("failed to compute angles: %v", err)
		}
		opts.Angles = series
	}
	if err := plotting.RenderAnimation(session, opts, *save); err != nil {
		log.Fatalf("failed to render animation: %v", err)
	}
	monitoring.Logf("wrote animation to %s", *save)
}
