package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/ajroetker/go-nankill"
)

// Metrics accumulates repair counters across files and writes them in the
// Prometheus text exposition format, suitable for the node_exporter
// textfile collector.
type Metrics struct {
	mu       sync.Mutex
	files    int
	channels []nankill.Stats
	last     time.Duration
}

// Observe adds the report of one processed file.
func (m *Metrics) Observe(rep nankill.Report, took time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.files++
	m.last = took
	for z, s := range rep.Channels {
		if z >= len(m.channels) {
			m.channels = append(m.channels, make([]nankill.Stats, z+1-len(m.channels))...)
		}
		m.channels[z].Add(s)
	}
}

// Families returns the current counters as metric families.
func (m *Metrics) Families() []*dto.MetricFamily {
	m.mu.Lock()
	defer m.mu.Unlock()

	perChannel := func(name, help string, value func(nankill.Stats) int) *dto.MetricFamily {
		mf := &dto.MetricFamily{
			Name: proto.String(name),
			Help: proto.String(help),
			Type: dto.MetricType_COUNTER.Enum(),
		}
		for z, s := range m.channels {
			mf.Metric = append(mf.Metric, &dto.Metric{
				Label: []*dto.LabelPair{{
					Name:  proto.String("channel"),
					Value: proto.String(strconv.Itoa(z)),
				}},
				Counter: &dto.Counter{Value: proto.Float64(float64(value(s)))},
			})
		}
		return mf
	}

	return []*dto.MetricFamily{
		{
			Name: proto.String("nankill_files_total"),
			Help: proto.String("Number of images repaired."),
			Type: dto.MetricType_COUNTER.Enum(),
			Metric: []*dto.Metric{{
				Counter: &dto.Counter{Value: proto.Float64(float64(m.files))},
			}},
		},
		perChannel("nankill_samples_total", "Samples examined.",
			func(s nankill.Stats) int { return s.Samples }),
		perChannel("nankill_invalid_samples_total", "Samples that were Inf or NaN.",
			func(s nankill.Stats) int { return s.Invalid }),
		perChannel("nankill_reconstructed_samples_total", "Invalid samples replaced by a neighbour average.",
			func(s nankill.Stats) int { return s.Reconstructed }),
		perChannel("nankill_fallback_samples_total", "Invalid samples replaced by the default value.",
			func(s nankill.Stats) int { return s.Fallback }),
		{
			Name: proto.String("nankill_last_duration_seconds"),
			Help: proto.String("Wall time of the most recent repair."),
			Type: dto.MetricType_GAUGE.Enum(),
			Metric: []*dto.Metric{{
				Gauge: &dto.Gauge{Value: proto.Float64(m.last.Seconds())},
			}},
		},
	}
}

// WriteFile writes the counters to path atomically (temp file + rename) so
// a collector never reads a partial file.
func (m *Metrics) WriteFile(path string) error {
	var buf bytes.Buffer
	for _, mf := range m.Families() {
		// The text encoder rejects families without samples.
		if len(mf.Metric) == 0 {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return fmt.Errorf("metrics: encode %s: %w", mf.GetName(), err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".nankill-metrics-*")
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("metrics: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	return nil
}
