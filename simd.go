// Copyright 2025 go-nankill Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package nankill

import (
	"sync"

	"github.com/ajroetker/go-highway/hwy"
	"github.com/ajroetker/go-highway/hwy/contrib/image"
)

// firstInvalid returns the index of the first non-finite sample in row, or
// len(row) if every sample is finite. Full vectors are tested with
// hwy.IsFinite; the tail is tested per sample.
func firstInvalid[T hwy.Floats](row []T) int {
	lanes := hwy.MaxLanes[T]()
	i := 0
	if lanes > 1 {
		for ; i+lanes <= len(row); i += lanes {
			v := hwy.Load(row[i:])
			finite := hwy.IsFinite(v)
			if hwy.AllTrue(finite) {
				continue
			}
			return i + hwy.FindFirstTrue(hwy.MaskNot(finite))
		}
	}
	for ; i < len(row); i++ {
		if isInvalid(row[i]) {
			return i
		}
	}
	return len(row)
}

// countInvalid returns the number of non-finite samples in row.
func countInvalid[T hwy.Floats](row []T) int {
	n := 0
	for i := 0; i < len(row); {
		j := i + firstInvalid(row[i:])
		if j >= len(row) {
			break
		}
		n++
		i = j + 1
	}
	return n
}

// slicesToImage converts a 2D slice to a SIMD-aligned Image.
// The returned image shares no data with the input; it's a copy.
func slicesToImage[T hwy.Lanes](data [][]T) *image.Image[T] {
	if len(data) == 0 || len(data[0]) == 0 {
		return nil
	}
	height := len(data)
	width := len(data[0])

	img := image.NewImage[T](width, height)
	for y := range height {
		row := img.Row(y)
		copy(row[:width], data[y])
	}
	return img
}

// imageToSlices converts a SIMD-aligned Image back to a 2D slice.
// The returned slices share no data with the image; they're copies.
func imageToSlices[T hwy.Lanes](img *image.Image[T]) [][]T {
	if img == nil || img.Width() == 0 || img.Height() == 0 {
		return nil
	}
	width := img.Width()
	height := img.Height()

	data := make([][]T, height)
	for y := range height {
		data[y] = make([]T, width)
		copy(data[y], img.RowSlice(y))
	}
	return data
}

// rowBuf is a reusable float32 scanline used when encoding and decoding
// PFM rows.
type rowBuf struct {
	f []float32
	b []byte
}

var rowBufPool = sync.Pool{New: func() any { return new(rowBuf) }}

func getRowBuf(samples int) *rowBuf {
	buf := rowBufPool.Get().(*rowBuf)
	if cap(buf.f) < samples {
		buf.f = make([]float32, samples)
		buf.b = make([]byte, samples*4)
	}
	buf.f = buf.f[:samples]
	buf.b = buf.b[:samples*4]
	return buf
}

func putRowBuf(buf *rowBuf) {
	rowBufPool.Put(buf)
}
