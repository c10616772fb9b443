// Command nankill replaces Inf and NaN samples in Portable FloatMap images.
//
// Usage:
//
//	nankill -in render.pfm -out fixed.pfm
//	nankill -in render.pfm -out fixed.pfm -grid "0 1 0 1 0 1 0 1 0" -default 0
//	nankill -config nankill.yaml -in render.pfm -out fixed.pfm -mask mask.tif
//	nankill -config nankill.yaml -watch incoming -out repaired -metrics /var/lib/node_exporter/nankill.prom
//
// Each invalid sample becomes the average of the valid neighbours selected
// by the sampling grid, or the default value when none is valid. With
// -watch, every .pfm written into the directory is repaired into -out and
// the config file is reloaded whenever it changes.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/ajroetker/go-highway/hwy/contrib/workerpool"

	"github.com/ajroetker/go-nankill"
)

var (
	configPath  = flag.String("config", "", "YAML config file (optional)")
	inPath      = flag.String("in", "", "input PFM file")
	outPath     = flag.String("out", "", "output PFM file, or output directory with -watch")
	maskPath    = flag.String("mask", "", "write a TIFF mask of repaired pixels (128 reconstructed, 255 default)")
	metricsPath = flag.String("metrics", "", "write repair counters in Prometheus text format")
	watchDir    = flag.String("watch", "", "repair every .pfm written into this directory")
	defaultVal  = flag.Float64("default", DefaultValue, "value used when reconstruction fails")
	gridFlag    = flag.String("grid", "", `sampling grid, 9 numbers row-major (e.g. "1 1 1 1 0 1 1 1 1")`)
	edgeFlag    = flag.String("edge", DefaultEdge, "out-of-bounds neighbours: nan, clamp, mirror or wrap")
	northFlag   = flag.String("north", DefaultNorth, "grid index 1 samples: vertical or west")
	workersFlag = flag.Int("workers", 0, "repair goroutines (0 = GOMAXPROCS)")
	logLevel    = flag.String("log-level", "info", "debug, info, warn or error")
	logJSON     = flag.Bool("log-json", false, "log as JSON")
)

func main() {
	flag.Parse()

	if err := setupLogging(*logLevel, *logJSON); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	if err := applyFlags(cfg, setFlags()); err != nil {
		slog.Error("invalid flag", "err", err)
		os.Exit(2)
	}
	settings, err := cfg.Settings()
	if err != nil {
		slog.Error("invalid settings", "err", err)
		os.Exit(1)
	}
	slog.Debug("settings",
		"default_value", settings.Repair.DefaultValue,
		"grid", settings.Repair.Grid.String(),
		"directions", settings.Repair.Enabled(),
		"edge", settings.Edge,
		"north", settings.Repair.North,
		"workers", settings.Workers,
	)

	pool := workerpool.New(settings.Workers)
	defer pool.Close()

	if *watchDir != "" {
		if err := runWatch(cfg, settings, pool); err != nil {
			slog.Error("watch stopped", "err", err)
			os.Exit(1)
		}
		return
	}

	if *inPath == "" || *outPath == "" {
		fmt.Fprintf(os.Stderr, "Error: -in and -out are required\n\n")
		flag.Usage()
		os.Exit(2)
	}

	start := time.Now()
	rep, err := repairFile(job{in: *inPath, out: *outPath, mask: *maskPath}, settings, pool)
	took := time.Since(start)
	if err != nil {
		slog.Error("repair failed", "err", err)
		os.Exit(1)
	}
	for z, s := range rep.Channels {
		if s.Invalid > 0 {
			slog.Info("channel repaired", "channel", z,
				"invalid", s.Invalid, "reconstructed", s.Reconstructed, "fallback", s.Fallback)
		}
	}
	total := rep.Total()
	slog.Info("done", "in", *inPath, "out", *outPath,
		"samples", total.Samples, "invalid", total.Invalid, "took", took)

	if *metricsPath != "" {
		var m Metrics
		m.Observe(rep, took)
		if err := m.WriteFile(*metricsPath); err != nil {
			slog.Error("write metrics failed", "err", err)
			os.Exit(1)
		}
	}
}

func runWatch(cfg *Config, settings Settings, pool *workerpool.Pool) error {
	if *outPath == "" {
		return fmt.Errorf("-out directory is required with -watch")
	}
	in, err := filepath.Abs(*watchDir)
	if err != nil {
		return err
	}
	out, err := filepath.Abs(*outPath)
	if err != nil {
		return err
	}
	if in == out {
		return fmt.Errorf("-out must differ from -watch")
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var current atomic.Pointer[Settings]
	current.Store(&settings)

	if *configPath != "" {
		onChange := reloader(&current, setFlags())
		go func() {
			if err := Watch(ctx, *configPath, onChange); err != nil {
				slog.Error("config watcher stopped", "err", err)
			}
		}()
	}

	h := &hotFolder{
		dir:         in,
		outDir:      out,
		settings:    &current,
		pool:        pool,
		metrics:     &Metrics{},
		metricsPath: *metricsPath,
	}
	err = h.Run(ctx)
	slog.Info("nankill shutting down")
	return err
}

func setupLogging(level string, asJSON bool) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if asJSON {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
	return nil
}

func loadConfig(path string) (*Config, error) {
	if path == "" {
		return defaults(), nil
	}
	return Load(path)
}

// setFlags returns the names of flags given on the command line.
func setFlags() map[string]bool {
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

// applyFlags overrides cfg with the repair flags present in set.
func applyFlags(cfg *Config, set map[string]bool) error {
	if set["default"] {
		cfg.DefaultValue = float32(*defaultVal)
	}
	if set["grid"] {
		g, err := nankill.ParseGrid(*gridFlag)
		if err != nil {
			return err
		}
		cfg.SamplingGrid = gridRows(g)
	}
	if set["edge"] {
		cfg.Edge = *edgeFlag
	}
	if set["north"] {
		cfg.North = *northFlag
	}
	if set["workers"] {
		cfg.Workers = *workersFlag
	}
	return nil
}
