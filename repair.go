package nankill

import (
	"math"

	"github.com/ajroetker/go-highway/hwy"
)

// Outcome records what happened to a single sample.
type Outcome uint8

const (
	// Passthrough: the sample was finite and copied unchanged.
	Passthrough Outcome = iota
	// Reconstructed: the sample was replaced by a neighbour average.
	Reconstructed
	// Fallback: reconstruction failed and the default value was written.
	Fallback
)

func (o Outcome) String() string {
	switch o {
	case Passthrough:
		return "passthrough"
	case Reconstructed:
		return "reconstructed"
	case Fallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Stats counts outcomes over a span of samples.
type Stats struct {
	Samples       int
	Invalid       int
	Reconstructed int
	Fallback      int
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Samples += o.Samples
	s.Invalid += o.Invalid
	s.Reconstructed += o.Reconstructed
	s.Fallback += o.Fallback
}

func (s *Stats) record(o Outcome) {
	switch o {
	case Reconstructed:
		s.Invalid++
		s.Reconstructed++
	case Fallback:
		s.Invalid++
		s.Fallback++
	}
}

// Engine repairs samples of element type T. It holds no mutable state and
// may be shared between goroutines.
type Engine[T hwy.Floats] struct {
	def  T
	taps []tap
}

// NewEngine resolves cfg into an Engine. Grid entries that are not finite
// disable their direction.
func NewEngine[T hwy.Floats](cfg Config) *Engine[T] {
	return &Engine[T]{
		def:  T(cfg.DefaultValue),
		taps: taps(cfg),
	}
}

// Directions returns the enabled directions in accumulation order.
func (e *Engine[T]) Directions() []Direction {
	dirs := make([]Direction, len(e.taps))
	for i, t := range e.taps {
		dirs[i] = t.dir
	}
	return dirs
}

// isInvalid reports whether v is infinite or NaN. Both tests are kept;
// IsInf alone misses NaN.
func isInvalid[T hwy.Floats](v T) bool {
	f := float64(v)
	return math.IsInf(f, 0) || math.IsNaN(f)
}

// RepairSample returns the repaired value of v, the sample at (x, y) in
// channel z, reading neighbours from src.
func (e *Engine[T]) RepairSample(v T, x, y int, z Channel, src Sampler[T]) (T, Outcome) {
	if !isInvalid(v) {
		return v, Passthrough
	}
	r := e.reconstruct(x, y, z, src)
	if isInvalid(r) {
		return e.def, Fallback
	}
	return r, Reconstructed
}

// reconstruct averages the enabled neighbours of (x, y). Each direction is
// counted before its sample is read and uncounted if the sample is invalid.
// The divide is unconditional, so no contributing neighbour gives 0/0 = NaN.
func (e *Engine[T]) reconstruct(x, y int, z Channel, src Sampler[T]) T {
	var sum, denom T
	for _, t := range e.taps {
		denom++
		n := src.At(x+t.dx, y+t.dy, z)
		if isInvalid(n) {
			n = 0
			denom--
		}
		sum += n
	}
	return sum / denom
}

// RepairRow repairs in, the samples of channel z on row y starting at
// column x, into out. out must be at least as long as in. Neighbours are
// read from src, never from out.
func (e *Engine[T]) RepairRow(in, out []T, y, x int, z Channel, src Sampler[T]) Stats {
	return e.repairRow(in, out, nil, y, x, z, src)
}

// repairRow is RepairRow that also records each non-passthrough outcome in
// outcomes when it is non-nil. Clean spans are located with the SIMD scan
// and copied as a block.
func (e *Engine[T]) repairRow(in, out []T, outcomes []Outcome, y, x int, z Channel, src Sampler[T]) Stats {
	stats := Stats{Samples: len(in)}
	out = out[:len(in)]
	i := 0
	for i < len(in) {
		j := i + firstInvalid(in[i:])
		copy(out[i:j], in[i:j])
		if j >= len(in) {
			break
		}
		v, o := e.RepairSample(in[j], x+j, y, z, src)
		out[j] = v
		stats.record(o)
		if outcomes != nil && o > outcomes[j] {
			outcomes[j] = o
		}
		i = j + 1
	}
	return stats
}

// PixelEngine repairs every channel of channels present on row, a scanline
// at y whose first sample is column x.
func (e *Engine[T]) PixelEngine(row Row[T], y, x int, channels ChannelSet, src Sampler[T]) Stats {
	var stats Stats
	e.pixelEngine(row, y, x, channels, src, nil, func(_ Channel, s Stats) {
		stats.Add(s)
	})
	return stats
}

// pixelEngine runs repairRow for each channel the row has, merging outcomes
// into outcomes (when non-nil) and reporting per-channel stats to each.
func (e *Engine[T]) pixelEngine(row Row[T], y, x int, channels ChannelSet, src Sampler[T], outcomes []Outcome, each func(z Channel, s Stats)) {
	channels.Each(func(z Channel) {
		in := row.In(z)
		if in == nil {
			return
		}
		each(z, e.repairRow(in, row.Writable(z), outcomes, y, x, z, src))
	})
}

// Repair repairs samples, channel z of row y starting at column x, into a
// new slice using cfg.
func Repair[T hwy.Floats](samples []T, y, x int, z Channel, src Sampler[T], cfg Config) []T {
	out := make([]T, len(samples))
	NewEngine[T](cfg).RepairRow(samples, out, y, x, z, src)
	return out
}
