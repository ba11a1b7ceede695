// mocap-server serves interactive charts for a recording and, optionally,
// the analysis archive. With -file it parses, filters and analyses the TSV
// on startup; with -db archived sessions are browsable via ?session=<id>.
//
// Usage:
//
//	mocap-server -file walk.tsv [-db archive.db] [-listen :8080]
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/gait.report/internal/config"
	"github.com/banshee-data/gait.report/internal/db"
	"github.com/banshee-data/gait.report/internal/kinematics"
	"github.com/banshee-data/gait.report/internal/mocap"
	"github.com/banshee-data/gait.report/internal/monitor"
)

var (
	listen     = flag.String("listen", ":8080", "Listen address")
	filePath   = flag.String("file", "", "TSV recording to analyse and chart")
	dbPath     = flag.String("db", "", "SQLite archive to browse")
	configPath = flag.String("config", "", "Path to analysis config JSON")
)

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}
	if *filePath == "" && *dbPath == "" {
		log.Fatal("at least one of -file or -db is required")
	}

	cfg := config.Empty()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	var session *mocap.Session
	var series []kinematics.AngleSeries
	if *filePath != "" {
		raw, err := mocap.ReadFile(*filePath)
		if err != nil {
			log.Fatalf("failed to read recording: %v", err)
		}
		if raw.Metadata.Frequency == 0 {
			raw.Metadata.Frequency = cfg.GetDefaultFrequency()
		}
		session = mocap.Filter(raw, cfg.FilterPolicy())
		if series, err = kinematics.Compute(session, cfg.AngleDefs()); err != nil {
			log.Fatalf("failed to compute angles: %v", err)
		}
		log.Printf("loaded %s: %d frames, %d markers", *filePath, len(session.Frames), len(session.MarkerNames))
	}

	var archive *db.DB
	if *dbPath != "" {
		var err error
		if archive, err = db.NewDB(*dbPath); err != nil {
			log.Fatalf("failed to open archive: %v", err)
		}
		defer archive.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mux := monitor.NewWebServer(session, series, archive).ServeMux()
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("got request %q", r.URL.Path)
		mux.ServeHTTP(w, r)
	})

	server := &http.Server{
		Addr:    *listen,
		Handler: h,
	}

	go func() {
		log.Printf("listening on %s", *listen)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	log.Printf("Graceful shutdown complete")
}
