package main

import (
	"fmt"
	"os"
	"path/filepath"

	hwyimage "github.com/ajroetker/go-highway/hwy/contrib/image"
	"github.com/ajroetker/go-highway/hwy/contrib/workerpool"

	"github.com/ajroetker/go-nankill"
)

// job names the files of one repair.
type job struct {
	in   string
	out  string
	mask string // optional
}

// repairFile decodes j.in, repairs it with s and writes j.out (and j.mask
// when set).
func repairFile(j job, s Settings, pool *workerpool.Pool) (nankill.Report, error) {
	f, err := os.Open(j.in)
	if err != nil {
		return nankill.Report{}, err
	}
	img, err := nankill.Decode(f)
	f.Close()
	if err != nil {
		return nankill.Report{}, fmt.Errorf("decode %s: %w", j.in, err)
	}

	var mask *hwyimage.Image[uint8]
	if j.mask != "" {
		mask = hwyimage.NewImage[uint8](img.Width(), img.Height())
	}

	fixed, rep, err := nankill.Process(img, s.Repair, &nankill.Options{
		Edge:     s.Edge,
		Channels: s.Channels,
		Pool:     pool,
		Mask:     mask,
	})
	if err != nil {
		return rep, fmt.Errorf("repair %s: %w", j.in, err)
	}

	if err := writePFM(j.out, fixed); err != nil {
		return rep, err
	}
	if mask != nil {
		if err := writeMask(j.mask, mask); err != nil {
			return rep, err
		}
	}
	return rep, nil
}

// writePFM encodes p to a temporary file next to path and renames it into
// place, so watchers of the output directory never see a partial image.
func writePFM(path string, p *nankill.Planes[float32]) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".nankill-*.tmp")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := nankill.Encode(tmp, p, nil); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return os.Rename(tmp.Name(), path)
}
