package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/ajroetker/go-nankill"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultValue = 1.0
	DefaultEdge  = "nan"
	DefaultNorth = "vertical"
)

// Config is the on-disk configuration of nankill.
type Config struct {
	// DefaultValue replaces samples that cannot be reconstructed.
	DefaultValue float32 `yaml:"default_value"`

	// SamplingGrid is the 3x3 sampling grid, one list per row. Each
	// non-centre entry enables a direction and sets its distance.
	SamplingGrid [][]float32 `yaml:"sampling_grid"`

	// North is "vertical" or "west".
	North string `yaml:"north"`

	// Edge is one of nan | clamp | mirror | wrap.
	Edge string `yaml:"edge"`

	// Channels lists the channel indices to repair. Empty means all.
	Channels []int `yaml:"channels"`

	// Workers is the number of repair goroutines. 0 means GOMAXPROCS.
	Workers int `yaml:"workers"`
}

// Settings is a validated Config in the form the repair code uses.
type Settings struct {
	Repair   nankill.Config
	Edge     nankill.EdgeMode
	Channels nankill.ChannelSet
	Workers  int
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if _, err := cfg.Settings(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// defaults returns a Config matching nankill.DefaultConfig.
func defaults() *Config {
	d := nankill.DefaultConfig()
	return &Config{
		DefaultValue: DefaultValue,
		SamplingGrid: gridRows(d.Grid),
		North:        DefaultNorth,
		Edge:         DefaultEdge,
	}
}

func gridRows(g nankill.SampleGrid) [][]float32 {
	return [][]float32{
		{g[0], g[1], g[2]},
		{g[3], g[4], g[5]},
		{g[6], g[7], g[8]},
	}
}

// Settings validates c and converts it.
func (c *Config) Settings() (Settings, error) {
	var s Settings

	if len(c.SamplingGrid) != 3 {
		return s, fmt.Errorf("sampling_grid must have 3 rows, got %d", len(c.SamplingGrid))
	}
	for y, row := range c.SamplingGrid {
		if len(row) != 3 {
			return s, fmt.Errorf("sampling_grid row %d must have 3 entries, got %d", y, len(row))
		}
		copy(s.Repair.Grid[y*3:], row)
	}
	s.Repair.DefaultValue = c.DefaultValue

	north, err := nankill.ParseNorthMapping(c.North)
	if err != nil {
		return s, err
	}
	s.Repair.North = north

	if err := s.Repair.Validate(); err != nil {
		return s, err
	}

	if s.Edge, err = nankill.ParseEdgeMode(c.Edge); err != nil {
		return s, err
	}

	if len(c.Channels) == 0 {
		s.Channels = nankill.AllChannels
	}
	for _, z := range c.Channels {
		if z < 0 || z > 63 {
			return s, fmt.Errorf("channels: %d out of range 0..63", z)
		}
		s.Channels = s.Channels.Add(nankill.Channel(z))
	}

	if c.Workers < 0 {
		return s, fmt.Errorf("workers must not be negative")
	}
	s.Workers = c.Workers
	if s.Workers == 0 {
		s.Workers = runtime.GOMAXPROCS(0)
	}
	return s, nil
}

// reloadDelay is how long the config file must stay quiet before it is
// reloaded. Editors often write a file in several steps.
const reloadDelay = 100 * time.Millisecond

// reloader returns a Watch callback that applies the command-line flags in
// set on top of each reloaded Config and stores the result in current.
// A Config that fails validation leaves current unchanged.
func reloader(current *atomic.Pointer[Settings], set map[string]bool) func(*Config) {
	return func(updated *Config) {
		// Command-line flags keep precedence over the file.
		if err := applyFlags(updated, set); err != nil {
			slog.Error("config: flags rejected after reload", "err", err)
			return
		}
		s, err := updated.Settings()
		if err != nil {
			slog.Error("config: reload rejected", "err", err)
			return
		}
		current.Store(&s)
		slog.Info("settings updated", "grid", s.Repair.Grid.String(), "default_value", s.Repair.DefaultValue)
	}
}

// Watch monitors path for changes and calls onChange with the newly loaded
// Config each time the file is saved. It runs until ctx is cancelled.
//
// The parent directory is watched rather than the file, so saves that
// rename a temporary file over path are seen as well as in-place writes.
// A reload that fails to parse or validate is logged and the previous
// config stays active.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return err
	}

	slog.Info("config: watching for changes", "path", path)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			// A rename over path arrives as Create.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDelay)
			} else {
				timer.Reset(reloadDelay)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			cfg, err := Load(path)
			if err != nil {
				slog.Error("config: reload failed, keeping previous config",
					"path", path, "err", err)
				continue
			}
			slog.Info("config: reloaded", "path", path)
			onChange(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}
