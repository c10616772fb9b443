package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ajroetker/go-highway/hwy/contrib/workerpool"
	"github.com/fsnotify/fsnotify"
)

// defaultSettle is how long a file must stay unmodified before it is
// picked up.
const defaultSettle = 500 * time.Millisecond

// hotFolder repairs every .pfm file written into dir, writing the result
// under the same name in outDir.
type hotFolder struct {
	dir         string
	outDir      string
	settings    *atomic.Pointer[Settings]
	pool        *workerpool.Pool
	metrics     *Metrics
	metricsPath string
	settle      time.Duration

	// processed is called after each file; used by tests.
	processed func(name string, err error)
}

// Run watches h.dir until ctx is cancelled.
func (h *hotFolder) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(h.dir); err != nil {
		return err
	}
	settle := h.settle
	if settle <= 0 {
		settle = defaultSettle
	}

	slog.Info("watching for images", "dir", h.dir, "out", h.outDir)

	ready := make(chan string)
	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
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
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".pfm") {
				continue
			}
			name := event.Name
			if t, ok := timers[name]; ok {
				t.Reset(settle)
				continue
			}
			timers[name] = time.AfterFunc(settle, func() {
				select {
				case ready <- name:
				case <-ctx.Done():
				}
			})

		case name := <-ready:
			if _, ok := timers[name]; !ok {
				continue
			}
			delete(timers, name)
			h.process(name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("watcher error", "err", err)
		}
	}
}

func (h *hotFolder) process(name string) {
	s := h.settings.Load()
	j := job{in: name, out: filepath.Join(h.outDir, filepath.Base(name))}

	start := time.Now()
	rep, err := repairFile(j, *s, h.pool)
	took := time.Since(start)
	if h.processed != nil {
		defer h.processed(name, err)
	}
	if err != nil {
		slog.Error("repair failed", "file", name, "err", err)
		return
	}

	total := rep.Total()
	slog.Info("repaired",
		"file", name,
		"out", j.out,
		"invalid", total.Invalid,
		"reconstructed", total.Reconstructed,
		"fallback", total.Fallback,
		"took", took,
	)

	h.metrics.Observe(rep, took)
	if h.metricsPath != "" {
		if err := h.metrics.WriteFile(h.metricsPath); err != nil {
			slog.Error("write metrics failed", "path", h.metricsPath, "err", err)
		}
	}
}
