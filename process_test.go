package nankill

import (
	"errors"
	"math"
	"testing"

	"github.com/ajroetker/go-highway/hwy/contrib/image"
	"github.com/ajroetker/go-highway/hwy/contrib/workerpool"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestProcess_Cross(t *testing.T) {
	src, err := PlanesFromSlices([][][]float32{{
		{1, 2, 3},
		{4, nan32, 6},
		{7, 8, 9},
	}})
	if err != nil {
		t.Fatal(err)
	}
	// N, W, E, S at distance 1: (2 + 4 + 6 + 8) / 4
	cfg := Config{DefaultValue: -1, Grid: SampleGrid{0, 1, 0, 1, 0, 1, 0, 1, 0}}

	out, report, err := Process(src, cfg, &Options{Workers: 2})
	if err != nil {
		t.Fatal(err)
	}
	if got := out.Plane(0).At(1, 1); got != 5 {
		t.Errorf("centre = %v, want 5", got)
	}
	if !math.IsNaN(float64(src.Plane(0).At(1, 1))) {
		t.Error("Process modified its input")
	}
	want := Stats{Samples: 9, Invalid: 1, Reconstructed: 1}
	if report.Total() != want {
		t.Errorf("report = %+v, want %+v", report.Total(), want)
	}
}

// TestProcess_ReadsInput checks that a repaired pixel is never used as a
// neighbour of another repair.
func TestProcess_ReadsInput(t *testing.T) {
	src, err := PlanesFromSlices([][][]float32{{
		{nan32, nan32, nan32, 10},
	}})
	if err != nil {
		t.Fatal(err)
	}
	cfg := Config{DefaultValue: 0, Grid: gridWith(map[int]float32{5: 1})}

	out, _, err := Process(src, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := [][][]float32{{{0, 0, 10, 10}}}
	if diff := cmp.Diff(want, out.ToSlices()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestProcess_EdgeModes(t *testing.T) {
	src, err := PlanesFromSlices([][][]float32{{
		{nan32, 4, 8},
	}})
	if err != nil {
		t.Fatal(err)
	}
	cfg := Config{DefaultValue: -1, Grid: gridWith(map[int]float32{3: 1, 5: 1})}
	tests := []struct {
		mode EdgeMode
		want float32
	}{
		{EdgeNaN, 4},    // W dropped
		{EdgeClamp, 4},  // W clamps back onto the NaN itself
		{EdgeMirror, 4}, // same
		{EdgeWrap, 6},   // W wraps to 8
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			out, _, err := Process(src, cfg, &Options{Edge: tt.mode})
			if err != nil {
				t.Fatal(err)
			}
			if got := out.Plane(0).At(0, 0); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProcess_ChannelSelection(t *testing.T) {
	src, err := PlanesFromSlices([][][]float32{
		{{nan32}},
		{{nan32}},
		{{nan32}},
	})
	if err != nil {
		t.Fatal(err)
	}
	cfg := Config{DefaultValue: 2}

	out, report, err := Process(src, cfg, &Options{Channels: Channels(0, 2)})
	if err != nil {
		t.Fatal(err)
	}
	want := [][][]float32{{{2}}, {{nan32}}, {{2}}}
	if diff := cmp.Diff(want, out.ToSlices(), cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
	if report.Channels[1].Samples != 0 {
		t.Errorf("unselected channel reported %+v", report.Channels[1])
	}
	if report.Channels[2].Fallback != 1 {
		t.Errorf("channel 2 = %+v, want one fallback", report.Channels[2])
	}
}

func TestProcess_Mask(t *testing.T) {
	src, err := PlanesFromSlices([][][]float32{
		{{1, nan32, nan32}},
		{{pinf32, 2, 3}},
	})
	if err != nil {
		t.Fatal(err)
	}
	cfg := Config{DefaultValue: 0, Grid: gridWith(map[int]float32{3: 1})}
	mask := image.NewImage[uint8](3, 1)

	if _, _, err := Process(src, cfg, &Options{Mask: mask}); err != nil {
		t.Fatal(err)
	}
	// x=0: channel 1 falls back (W out of bounds)
	// x=1: channel 0 reconstructed from 1
	// x=2: channel 0 falls back (W is NaN)
	want := []uint8{uint8(Fallback), uint8(Reconstructed), uint8(Fallback)}
	if diff := cmp.Diff(want, mask.RowSlice(0)); diff != "" {
		t.Errorf("mask mismatch (-want +got):\n%s", diff)
	}
}

func TestProcess_Errors(t *testing.T) {
	if _, _, err := Process[float32](nil, DefaultConfig(), nil); !errors.Is(err, ErrNilImage) {
		t.Errorf("nil image err = %v", err)
	}
	src := NewPlanes[float32](4, 4, 1)
	mask := image.NewImage[uint8](3, 4)
	if _, _, err := Process(src, DefaultConfig(), &Options{Mask: mask}); !errors.Is(err, ErrMaskSize) {
		t.Errorf("mask size err = %v", err)
	}
	mask = image.NewImage[uint8](4, 5)
	if _, _, err := Process(src, DefaultConfig(), &Options{Mask: mask}); !errors.Is(err, ErrMaskSize) {
		t.Errorf("mask height err = %v", err)
	}
	mask = image.NewImage[uint8](4, 4)
	if _, _, err := Process(src, DefaultConfig(), &Options{Mask: mask}); err != nil {
		t.Errorf("matching mask err = %v", err)
	}
}

// TestProcess_SharedPool runs several images through one pool and compares
// against sequential row repair.
func TestProcess_SharedPool(t *testing.T) {
	pool := workerpool.New(4)
	defer pool.Close()

	const w, h = 37, 23
	src := NewPlanes[float32](w, h, 3)
	for z := range 3 {
		for y := range h {
			row := src.RowSlice(Channel(z), y)
			for x := range row {
				switch (x*7 + y*3 + z) % 11 {
				case 0:
					row[x] = nan32
				case 5:
					row[x] = pinf32
				default:
					row[x] = float32(x+y) * 0.5
				}
			}
		}
	}
	cfg := DefaultConfig()

	out, report, err := Process(src, cfg, &Options{Pool: pool, Edge: EdgeMirror})
	if err != nil {
		t.Fatal(err)
	}

	eng := NewEngine[float32](cfg)
	sampler := src.Sampler(EdgeMirror)
	var want Stats
	for z := range 3 {
		for y := range h {
			in := src.RowSlice(Channel(z), y)
			expected := make([]float32, w)
			want.Add(eng.RepairRow(in, expected, y, 0, Channel(z), sampler))
			if diff := cmp.Diff(expected, out.RowSlice(Channel(z), y)); diff != "" {
				t.Fatalf("channel %d row %d mismatch (-want +got):\n%s", z, y, diff)
			}
		}
	}
	if report.Total() != want {
		t.Errorf("report = %+v, want %+v", report.Total(), want)
	}
}
