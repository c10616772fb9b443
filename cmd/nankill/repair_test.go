package main

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ajroetker/go-highway/hwy/contrib/workerpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-nankill"
)

// writeTestPFM writes a single-channel image with the given rows.
func writeTestPFM(t *testing.T, path string, rows [][]float32) {
	t.Helper()
	p, err := nankill.PlanesFromSlices([][][]float32{rows})
	require.NoError(t, err)
	require.NoError(t, writePFM(path, p))
}

func readTestPFM(t *testing.T, path string) [][]float32 {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	p, err := nankill.Decode(f)
	require.NoError(t, err)
	return p.ToSlices()[0]
}

func testSettings(t *testing.T, body string) Settings {
	t.Helper()
	cfg, err := Load(writeConfig(t, body))
	require.NoError(t, err)
	s, err := cfg.Settings()
	require.NoError(t, err)
	return s
}

func TestRepairFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.pfm")
	out := filepath.Join(dir, "out.pfm")
	mask := filepath.Join(dir, "mask.tif")
	nan := float32(math.NaN())

	writeTestPFM(t, in, [][]float32{
		{1, nan, 3},
		{float32(math.Inf(1)), 5, 6},
	})
	s := testSettings(t, `
default_value: 9
sampling_grid: [[0, 0, 0], [1, 0, 1], [0, 0, 0]]
`)
	pool := workerpool.New(2)
	defer pool.Close()

	rep, err := repairFile(job{in: in, out: out, mask: mask}, s, pool)
	require.NoError(t, err)

	assert.Equal(t, nankill.Stats{Samples: 6, Invalid: 2, Reconstructed: 2}, rep.Total())
	assert.Equal(t, [][]float32{{1, 2, 3}, {5, 5, 6}}, readTestPFM(t, out))
	_, err = os.Stat(mask)
	assert.NoError(t, err)
}

func TestRepairFile_BadInput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.pfm")
	require.NoError(t, os.WriteFile(in, []byte("P6\n1 1\n255\n\x00"), 0o644))

	_, err := repairFile(job{in: in, out: filepath.Join(dir, "out.pfm")}, testSettings(t, ""), workerpool.New(1))
	assert.ErrorIs(t, err, nankill.ErrInvalidHeader)

	_, err = repairFile(job{in: filepath.Join(dir, "missing.pfm"), out: filepath.Join(dir, "x.pfm")}, testSettings(t, ""), workerpool.New(1))
	assert.Error(t, err)
}
