package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/slitdrum-mcp/internal/backend/opencv"
	"github.com/ironsheep/slitdrum-mcp/internal/calibration"
	"github.com/ironsheep/slitdrum-mcp/internal/config"
	"github.com/ironsheep/slitdrum-mcp/internal/detection"
	"github.com/ironsheep/slitdrum-mcp/internal/imaging"
	"github.com/ironsheep/slitdrum-mcp/internal/server"
	"github.com/ironsheep/slitdrum-mcp/internal/store"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("slitdrum-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			fmt.Printf("  OpenCV:     %t\n", opencv.Available)
			return
		case "--help", "-h", "help":
			printHelp(os.Stdout)
			return
		case "detect":
			os.Exit(runDetect(os.Args[2:], os.Stdout, os.Stderr))
		}
	}

	cfg := config.Load()
	log := newLogger(cfg, os.Stderr)

	log.WithFields(logrus.Fields{
		"version": Version,
		"built":   BuildTime,
		"commit":  GitCommit,
	}).Debug("Slit drum MCP server starting")

	if err := run(cfg, log, os.Stdin, os.Stdout); err != nil {
		log.WithError(err).Error("Server stopped")
		os.Exit(1)
	}
}

// run serves MCP until stdin closes. The layout store is closed on every
// return path.
func run(cfg config.Config, log *logrus.Logger, in io.Reader, out io.Writer) error {
	if err := cfg.EnsureDBDir(); err != nil {
		return err
	}
	db, err := store.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("cannot open layout database: %w", err)
	}
	defer db.Close()

	srv, err := server.New(server.Options{
		Version: Version,
		Cache:   imaging.NewImageCache(cfg.MaxImageDimension),
		Store:   db,
		Backend: selectBackend(cfg, detection.DefaultConfig(), log),
		Logger:  log,
		In:      in,
		Out:     out,
	})
	if err != nil {
		return fmt.Errorf("cannot create server: %w", err)
	}
	return srv.Run()
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "slitdrum-mcp - MCP server for slit drum tongue calibration")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  slitdrum-mcp [options]              Serve MCP over stdin/stdout")
	fmt.Fprintln(w, "  slitdrum-mcp detect [flags] <photo> Detect tongues and print JSON")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprintln(w, "  --version, -v    Print version information")
	fmt.Fprintln(w, "  --help, -h       Print this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables:")
	fmt.Fprintf(w, "  %s=debug           Log level (trace, debug, info, warn, error)\n", config.EnvLogLevel)
	fmt.Fprintf(w, "  %s=path              Layout database (default ~/.slitdrum/layouts.db)\n", config.EnvDBPath)
	fmt.Fprintf(w, "  %s=2400  Downscale photos larger than this, 0 disables\n", config.EnvMaxDimension)
	fmt.Fprintf(w, "  %s=builtin           Detector: builtin or opencv\n", config.EnvBackend)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "This server communicates via MCP protocol over stdin/stdout.")
	fmt.Fprintln(w, "Configure it in your MCP client (e.g., Claude Desktop).")
}

// newLogger builds the process logger. Output goes to stderr since stdout
// carries the protocol. Debug runs get readable text, everything else JSON.
func newLogger(cfg config.Config, w io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(cfg.LogLevel)
	if cfg.LogLevel >= logrus.DebugLevel {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	for _, msg := range cfg.Warnings {
		log.Warn(msg)
	}
	return log
}

// selectBackend returns the configured detector, or nil for the built-in
// pipeline. An unavailable OpenCV backend degrades to the built-in one.
func selectBackend(cfg config.Config, detCfg detection.Config, log *logrus.Logger) detection.Backend {
	if cfg.Backend != config.BackendOpenCV {
		return nil
	}
	b, err := opencv.New(detCfg, opencv.DefaultOptions())
	if err != nil {
		log.WithError(err).Warn("OpenCV backend unavailable, using builtin detector")
		return nil
	}
	return b
}

// detectReport is what the detect subcommand prints.
type detectReport struct {
	Image        string                `json:"image"`
	Width        int                   `json:"width"`
	Height       int                   `json:"height"`
	Backend      string                `json:"backend"`
	UsedFallback bool                  `json:"used_fallback"`
	BackendError string                `json:"backend_error,omitempty"`
	Candidates   []detection.Candidate `json:"candidates"`
	Order        []int                 `json:"suggested_order"`
}

// runDetect runs one detection from the command line and returns the
// process exit code.
func runDetect(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("detect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	expected := fs.Int("n", 8, "expected number of tongues")
	overlayPath := fs.String("overlay", "", "write a PNG with the candidates drawn on the photo")
	threshold := fs.Int("threshold", detection.DefaultConfig().EdgeThreshold, "edge threshold (0-255)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: slitdrum-mcp detect [-n 8] [-threshold 30] [-overlay out.png] <photo>")
		return 2
	}

	cfg := config.Load()
	log := newLogger(cfg, stderr)

	detCfg := detection.DefaultConfig()
	detCfg.EdgeThreshold = *threshold
	backend := selectBackend(cfg, detCfg, log)
	if backend == nil {
		p, err := detection.NewPipeline(detCfg)
		if err != nil {
			log.WithError(err).Error("Invalid detection settings")
			return 2
		}
		backend = p
	}

	photo, err := imaging.NewImageCache(cfg.MaxImageDimension).Load(fs.Arg(0))
	if err != nil {
		log.WithError(err).Error("Cannot load photo")
		return 1
	}

	outcome, err := detection.DetectOrFallback(backend, detCfg, photo.PixelBuffer(), *expected)
	if err != nil {
		log.WithError(err).Error("Detection failed")
		return 1
	}

	report := detectReport{
		Image:        photo.Path,
		Width:        photo.Width(),
		Height:       photo.Height(),
		Backend:      outcome.Backend,
		UsedFallback: outcome.UsedFallback,
		Candidates:   outcome.Candidates,
		Order:        calibration.SuggestOrder(outcome.Candidates),
	}
	if outcome.BackendErr != nil {
		report.BackendError = outcome.BackendErr.Error()
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.WithError(err).Error("Cannot write report")
		return 1
	}

	if *overlayPath != "" {
		opts := imaging.DefaultOverlayOptions()
		opts.Selected = report.Order
		canvas := imaging.RenderOverlay(photo.Image, outcome.Candidates, opts)
		if err := imgio.Save(*overlayPath, canvas, imgio.PNGEncoder()); err != nil {
			log.WithError(err).Error("Cannot write overlay")
			return 1
		}
		log.WithField("path", *overlayPath).Info("Overlay written")
	}
	return 0
}
