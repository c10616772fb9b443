package nankill

import (
	"fmt"
	"math"
	"strings"

	"github.com/ajroetker/go-highway/hwy"
	"github.com/ajroetker/go-highway/hwy/contrib/image"
)

// Planes is a multi-channel floating-point image stored as one SIMD-aligned
// plane per channel.
type Planes[T hwy.Floats] struct {
	planes []*image.Image[T]
	width  int
	height int
}

// NewPlanes allocates a zeroed image with the given size and channel count.
func NewPlanes[T hwy.Floats](width, height, channels int) *Planes[T] {
	if width <= 0 || height <= 0 || channels <= 0 {
		return &Planes[T]{}
	}
	p := &Planes[T]{
		planes: make([]*image.Image[T], channels),
		width:  width,
		height: height,
	}
	for i := range p.planes {
		p.planes[i] = image.NewImage[T](width, height)
	}
	return p
}

// PlanesFromSlices builds an image from data indexed [channel][y][x]. All
// channels must have the same dimensions.
func PlanesFromSlices[T hwy.Floats](data [][][]T) (*Planes[T], error) {
	if len(data) == 0 || len(data[0]) == 0 || len(data[0][0]) == 0 {
		return &Planes[T]{}, nil
	}
	height := len(data[0])
	width := len(data[0][0])
	p := &Planes[T]{
		planes: make([]*image.Image[T], len(data)),
		width:  width,
		height: height,
	}
	for z, ch := range data {
		if len(ch) != height {
			return nil, fmt.Errorf("nankill: channel %d has %d rows, want %d", z, len(ch), height)
		}
		for y, row := range ch {
			if len(row) != width {
				return nil, fmt.Errorf("nankill: channel %d row %d has %d samples, want %d", z, y, len(row), width)
			}
		}
		p.planes[z] = slicesToImage(ch)
	}
	return p, nil
}

// ToSlices copies the image out as [channel][y][x].
func (p *Planes[T]) ToSlices() [][][]T {
	out := make([][][]T, len(p.planes))
	for z, pl := range p.planes {
		out[z] = imageToSlices(pl)
	}
	return out
}

// Width returns the image width in pixels.
func (p *Planes[T]) Width() int { return p.width }

// Height returns the image height in pixels.
func (p *Planes[T]) Height() int { return p.height }

// Channels returns the number of channels.
func (p *Planes[T]) Channels() int { return len(p.planes) }

// Bounds returns the image rectangle.
func (p *Planes[T]) Bounds() image.Rect {
	return image.Rect{X1: p.width, Y1: p.height}
}

// Plane returns the plane of channel z, or nil if z is out of range.
func (p *Planes[T]) Plane(z Channel) *image.Image[T] {
	if z < 0 || int(z) >= len(p.planes) {
		return nil
	}
	return p.planes[z]
}

// RowSlice returns row y of channel z limited to the image width, or nil.
func (p *Planes[T]) RowSlice(z Channel, y int) []T {
	pl := p.Plane(z)
	if pl == nil {
		return nil
	}
	return pl.RowSlice(y)
}

// Set stores v at (x, y) in channel z. Out-of-range writes are ignored.
func (p *Planes[T]) Set(x, y int, z Channel, v T) {
	if pl := p.Plane(z); pl != nil {
		pl.Set(x, y, v)
	}
}

// Clone returns a deep copy.
func (p *Planes[T]) Clone() *Planes[T] {
	c := &Planes[T]{
		planes: make([]*image.Image[T], len(p.planes)),
		width:  p.width,
		height: p.height,
	}
	for i, pl := range p.planes {
		c.planes[i] = pl.Clone()
	}
	return c
}

// CountInvalid returns the number of non-finite samples in channel z.
func (p *Planes[T]) CountInvalid(z Channel) int {
	n := 0
	for y := range p.height {
		n += countInvalid(p.RowSlice(z, y))
	}
	return n
}

// EdgeMode selects what a Sampler returns outside the image.
type EdgeMode int

const (
	// EdgeNaN returns NaN, so out-of-bounds neighbours never contribute.
	EdgeNaN EdgeMode = iota
	// EdgeClamp repeats the nearest edge pixel.
	EdgeClamp
	// EdgeMirror reflects at the border.
	EdgeMirror
	// EdgeWrap tiles the image.
	EdgeWrap
)

var edgeNames = [...]string{"nan", "clamp", "mirror", "wrap"}

func (m EdgeMode) String() string {
	if m < 0 || int(m) >= len(edgeNames) {
		return "unknown"
	}
	return edgeNames[m]
}

// ParseEdgeMode parses the names returned by EdgeMode.String.
func ParseEdgeMode(s string) (EdgeMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return EdgeNaN, nil
	}
	for i, name := range edgeNames {
		if s == name {
			return EdgeMode(i), nil
		}
	}
	return 0, fmt.Errorf("nankill: unknown edge mode %q", s)
}

// Sampler returns a read-only Sampler over p using mode for coordinates
// outside the image. Unknown channels read as NaN.
func (p *Planes[T]) Sampler(mode EdgeMode) Sampler[T] {
	return planesSampler[T]{p: p, mode: mode}
}

type planesSampler[T hwy.Floats] struct {
	p    *Planes[T]
	mode EdgeMode
}

func (s planesSampler[T]) At(x, y int, z Channel) T {
	pl := s.p.Plane(z)
	if pl == nil {
		return T(math.NaN())
	}
	w, h := s.p.width, s.p.height
	if x < 0 || x >= w || y < 0 || y >= h {
		switch s.mode {
		case EdgeClamp:
			x, y = image.Clamp(x, w), image.Clamp(y, h)
		case EdgeMirror:
			x, y = image.Mirror(x, w), image.Mirror(y, h)
		case EdgeWrap:
			x, y = image.Wrap(x, w), image.Wrap(y, h)
		default:
			return T(math.NaN())
		}
	}
	return pl.Row(y)[x]
}

// planesRow exposes row y of src as the input and row y of dst as the
// output of a Row, for columns [x0, x0+n).
type planesRow[T hwy.Floats] struct {
	src, dst *Planes[T]
	y, x0, n int
}

func (r planesRow[T]) In(z Channel) []T {
	row := r.src.RowSlice(z, r.y)
	if row == nil {
		return nil
	}
	return row[r.x0 : r.x0+r.n]
}

func (r planesRow[T]) Writable(z Channel) []T {
	row := r.dst.RowSlice(z, r.y)
	if row == nil {
		return nil
	}
	return row[r.x0 : r.x0+r.n]
}
