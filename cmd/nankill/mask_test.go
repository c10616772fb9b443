package main

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	hwyimage "github.com/ajroetker/go-highway/hwy/contrib/image"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"

	"github.com/ajroetker/go-nankill"
)

func TestWriteMask(t *testing.T) {
	mask := hwyimage.NewImage[uint8](3, 2)
	mask.Set(1, 0, uint8(nankill.Reconstructed))
	mask.Set(2, 1, uint8(nankill.Fallback))

	path := filepath.Join(t.TempDir(), "mask.tif")
	require.NoError(t, writeMask(path, mask))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	img, err := tiff.Decode(f)
	require.NoError(t, err)
	gray, ok := img.(*image.Gray)
	require.True(t, ok, "decoded %T, want *image.Gray", img)

	assert.Equal(t, image.Rect(0, 0, 3, 2), gray.Bounds())
	assert.Equal(t, uint8(0), gray.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(128), gray.GrayAt(1, 0).Y)
	assert.Equal(t, uint8(255), gray.GrayAt(2, 1).Y)
}
