package nankill

import (
	"math/bits"

	"github.com/ajroetker/go-highway/hwy"
)

// Channel identifies one channel of an image.
type Channel int

// ChannelSet is a set of channels 0..63.
type ChannelSet uint64

// AllChannels requests every channel the host has.
const AllChannels ChannelSet = ^ChannelSet(0)

// Channels returns a set containing zs.
func Channels(zs ...Channel) ChannelSet {
	var s ChannelSet
	for _, z := range zs {
		s = s.Add(z)
	}
	return s
}

// Add returns s with z added. Channels outside 0..63 are ignored.
func (s ChannelSet) Add(z Channel) ChannelSet {
	if z < 0 || z > 63 {
		return s
	}
	return s | 1<<uint(z)
}

// Contains reports whether z is in s.
func (s ChannelSet) Contains(z Channel) bool {
	if z < 0 || z > 63 {
		return false
	}
	return s&(1<<uint(z)) != 0
}

// Len returns the number of channels in s.
func (s ChannelSet) Len() int {
	return bits.OnesCount64(uint64(s))
}

// Limit returns s restricted to channels 0..n-1.
func (s ChannelSet) Limit(n int) ChannelSet {
	if n >= 64 {
		return s
	}
	if n <= 0 {
		return 0
	}
	return s & (1<<uint(n) - 1)
}

// Each calls fn for every channel in s in ascending order.
func (s ChannelSet) Each(fn func(z Channel)) {
	for v := uint64(s); v != 0; v &= v - 1 {
		fn(Channel(bits.TrailingZeros64(v)))
	}
}

// Sampler reads samples of the unrepaired input image. Out-of-bounds
// behaviour is up to the implementation; a non-finite return simply drops
// that neighbour.
type Sampler[T hwy.Floats] interface {
	At(x, y int, z Channel) T
}

// SamplerFunc adapts a function to Sampler.
type SamplerFunc[T hwy.Floats] func(x, y int, z Channel) T

// At calls f(x, y, z).
func (f SamplerFunc[T]) At(x, y int, z Channel) T {
	return f(x, y, z)
}

// Row is a host scanline. In and Writable return spans of equal length for
// channel z, where index 0 is the first column being processed.
type Row[T hwy.Floats] interface {
	In(z Channel) []T
	Writable(z Channel) []T
}
