package nankill

import (
	"sync"

	"github.com/ajroetker/go-highway/hwy"
	"github.com/ajroetker/go-highway/hwy/contrib/image"
	"github.com/ajroetker/go-highway/hwy/contrib/workerpool"
)

// Options controls Process.
type Options struct {
	// Edge selects what neighbours outside the image read as.
	Edge EdgeMode

	// Channels selects the channels to repair. Zero means AllChannels.
	// Unselected channels are copied unchanged.
	Channels ChannelSet

	// Workers sets the number of goroutines when Pool is nil.
	// 0 uses GOMAXPROCS.
	Workers int

	// Pool, when set, is used instead of a per-call worker pool.
	Pool *workerpool.Pool

	// Mask, when set, receives the highest Outcome of each pixel across the
	// repaired channels. It must match the image size.
	Mask *image.Image[uint8]
}

// Report holds per-channel repair statistics.
type Report struct {
	Channels []Stats
}

// Total returns the statistics summed over every channel.
func (r Report) Total() Stats {
	var s Stats
	for _, c := range r.Channels {
		s.Add(c)
	}
	return s
}

// Process repairs src with cfg and returns the repaired copy. Neighbours are
// always read from src, so repairs never feed into each other. Rows are
// repaired in parallel.
func Process[T hwy.Floats](src *Planes[T], cfg Config, opts *Options) (*Planes[T], Report, error) {
	if src == nil {
		return nil, Report{}, ErrNilImage
	}
	if opts == nil {
		opts = &Options{}
	}
	if opts.Mask != nil && opts.Mask.Bounds() != src.Bounds() {
		return nil, Report{}, ErrMaskSize
	}

	channels := opts.Channels
	if channels == 0 {
		channels = AllChannels
	}
	channels = channels.Limit(src.Channels())

	dst := src.Clone()
	report := Report{Channels: make([]Stats, src.Channels())}
	if src.Width() == 0 || src.Height() == 0 || channels == 0 {
		return dst, report, nil
	}

	pool := opts.Pool
	if pool == nil {
		pool = workerpool.New(opts.Workers)
		defer pool.Close()
	}

	eng := NewEngine[T](cfg)
	sampler := src.Sampler(opts.Edge)
	width := src.Width()

	var mu sync.Mutex
	pool.ParallelFor(src.Height(), func(start, end int) {
		local := make([]Stats, src.Channels())
		var outcomes []Outcome
		if opts.Mask != nil {
			outcomes = make([]Outcome, width)
		}
		collect := func(z Channel, s Stats) {
			local[z].Add(s)
		}

		for y := start; y < end; y++ {
			clear(outcomes)
			row := planesRow[T]{src: src, dst: dst, y: y, n: width}
			eng.pixelEngine(row, y, 0, channels, sampler, outcomes, collect)
			if outcomes != nil {
				maskRow := opts.Mask.RowSlice(y)
				for x, o := range outcomes {
					maskRow[x] = uint8(o)
				}
			}
		}

		mu.Lock()
		for z := range local {
			report.Channels[z].Add(local[z])
		}
		mu.Unlock()
	})

	return dst, report, nil
}
