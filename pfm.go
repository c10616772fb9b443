package nankill

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
)

// PFM signatures.
const (
	pfmGray = "Pf"  // 1 channel
	pfmRGB  = "PF"  // 3 channels
	pfmRGBA = "PF4" // 4 channels
)

// maxPFMSamples bounds width*height*channels accepted by Decode: 64M
// samples, a 256 MiB image. Decode allocates the whole image after the
// header, so readers that cannot seek are trusted up to this size.
const maxPFMSamples = 1 << 26

// PFMHeader describes a Portable FloatMap.
type PFMHeader struct {
	Width    int
	Height   int
	Channels int

	// Scale is the absolute value of the header scale field.
	Scale float32

	// ByteOrder is little endian when the header scale is negative.
	ByteOrder binary.ByteOrder
}

// EncodeOptions controls Encode.
type EncodeOptions struct {
	// BigEndian writes samples big endian (positive scale field).
	BigEndian bool

	// Scale is written as the header scale magnitude. 0 means 1.
	Scale float32
}

// DecodeHeader reads only the PFM header from r.
func DecodeHeader(r io.Reader) (PFMHeader, error) {
	return readPFMHeader(bufio.NewReader(r))
}

// Decode reads a Portable FloatMap into a float32 image. Samples, including
// Inf and NaN, are kept bit for bit.
//
// When r is an io.Seeker (an *os.File, for example) the sample data size is
// checked against the bytes left in r before the image is allocated.
func Decode(r io.Reader) (*Planes[float32], error) {
	avail := int64(-1)
	if s, ok := r.(io.Seeker); ok {
		var err error
		if avail, err = remaining(s); err != nil {
			return nil, err
		}
	}

	cr := &countingReader{r: r}
	br := bufio.NewReader(cr)
	h, err := readPFMHeader(br)
	if err != nil {
		return nil, err
	}
	if avail >= 0 {
		header := cr.n - int64(br.Buffered())
		need := int64(h.Width) * int64(h.Height) * int64(h.Channels) * 4
		if left := avail - header; left < need {
			return nil, fmt.Errorf("%w: %d sample bytes declared, %d present", ErrTruncatedData, need, left)
		}
	}

	p := NewPlanes[float32](h.Width, h.Height, h.Channels)
	samples := h.Width * h.Channels
	buf := getRowBuf(samples)
	defer putRowBuf(buf)

	// Rows are stored bottom to top.
	for i := range h.Height {
		if _, err := io.ReadFull(br, buf.b); err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrTruncatedData, i, err)
		}
		for j := range buf.f {
			buf.f[j] = math.Float32frombits(h.ByteOrder.Uint32(buf.b[j*4:]))
		}
		y := h.Height - 1 - i
		for z := range h.Channels {
			row := p.RowSlice(Channel(z), y)
			for x := range row {
				row[x] = buf.f[x*h.Channels+z]
			}
		}
	}
	return p, nil
}

// Encode writes p as a Portable FloatMap. p must have 1, 3 or 4 channels.
func Encode(w io.Writer, p *Planes[float32], opts *EncodeOptions) error {
	if p == nil {
		return ErrNilImage
	}
	var sig string
	switch p.Channels() {
	case 1:
		sig = pfmGray
	case 3:
		sig = pfmRGB
	case 4:
		sig = pfmRGBA
	default:
		return fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, p.Channels())
	}
	if p.Width() == 0 || p.Height() == 0 {
		return fmt.Errorf("%w: empty image", ErrUnsupportedFormat)
	}

	var o EncodeOptions
	if opts != nil {
		o = *opts
	}
	scale := float64(o.Scale)
	if scale == 0 {
		scale = 1
	}
	scale = math.Abs(scale)
	var order binary.ByteOrder = binary.BigEndian
	if !o.BigEndian {
		order = binary.LittleEndian
		scale = -scale
	}

	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%s\n%d %d\n%s\n", sig, p.Width(), p.Height(),
		strconv.FormatFloat(scale, 'f', -1, 32)); err != nil {
		return err
	}

	channels := p.Channels()
	buf := getRowBuf(p.Width() * channels)
	defer putRowBuf(buf)

	for y := p.Height() - 1; y >= 0; y-- {
		for z := range channels {
			row := p.RowSlice(Channel(z), y)
			for x, v := range row {
				buf.f[x*channels+z] = v
			}
		}
		for j, v := range buf.f {
			order.PutUint32(buf.b[j*4:], math.Float32bits(v))
		}
		if _, err := bw.Write(buf.b); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// remaining returns the number of bytes between the current offset of s
// and its end, or -1 if s cannot report them (a pipe, say). The offset is
// left unchanged.
func remaining(s io.Seeker) (int64, error) {
	cur, err := s.Seek(0, io.SeekCurrent)
	if err != nil {
		return -1, nil
	}
	end, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return -1, nil
	}
	if _, err := s.Seek(cur, io.SeekStart); err != nil {
		return -1, err
	}
	return end - cur, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func readPFMHeader(br *bufio.Reader) (PFMHeader, error) {
	var h PFMHeader

	sig, err := readToken(br)
	if err != nil {
		return h, err
	}
	switch sig {
	case pfmGray:
		h.Channels = 1
	case pfmRGB:
		h.Channels = 3
	case pfmRGBA:
		h.Channels = 4
	default:
		return h, fmt.Errorf("%w: signature %q", ErrInvalidHeader, sig)
	}

	if h.Width, err = readInt(br); err != nil {
		return h, err
	}
	if h.Height, err = readInt(br); err != nil {
		return h, err
	}
	if h.Width <= 0 || h.Height <= 0 {
		return h, fmt.Errorf("%w: dimensions %dx%d", ErrInvalidHeader, h.Width, h.Height)
	}
	if h.Width > maxPFMSamples/h.Height/h.Channels {
		return h, ErrImageTooLarge
	}

	tok, err := readToken(br)
	if err != nil {
		return h, err
	}
	scale, err := strconv.ParseFloat(tok, 32)
	if err != nil || scale == 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return h, fmt.Errorf("%w: scale %q", ErrInvalidHeader, tok)
	}
	h.ByteOrder = binary.BigEndian
	if scale < 0 {
		h.ByteOrder = binary.LittleEndian
	}
	h.Scale = float32(math.Abs(scale))
	return h, nil
}

// readToken skips leading whitespace and returns the following run of
// non-whitespace bytes. The single whitespace byte ending the token is
// consumed, so after the scale token the reader is at the sample data.
func readToken(br *bufio.Reader) (string, error) {
	var tok []byte
	for {
		c, err := br.ReadByte()
		if err != nil {
			if err == io.EOF && len(tok) == 0 {
				return "", fmt.Errorf("%w: header", ErrTruncatedData)
			}
			if err == io.EOF {
				return string(tok), nil
			}
			return "", err
		}
		if isSpace(c) {
			if len(tok) == 0 {
				continue
			}
			return string(tok), nil
		}
		if len(tok) >= 32 {
			return "", fmt.Errorf("%w: header token too long", ErrInvalidHeader)
		}
		tok = append(tok, c)
	}
}

func readInt(br *bufio.Reader) (int, error) {
	tok, err := readToken(br)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidHeader, tok)
	}
	return v, nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t'
}
