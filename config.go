package nankill

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// GridSize is the number of entries in a sampling grid (3x3, row-major).
const GridSize = 9

// gridCenter is the grid index of the sample being repaired. It never
// selects a direction.
const gridCenter = 4

// SampleGrid is the 3x3 sampling grid, indexed row-major:
//
//	0 1 2     NW N  NE
//	3 4 5  =  W  .  E
//	6 7 8     SW S  SE
//
// Each non-centre entry is truncated to an integer d. A zero d disables the
// direction; any other d enables it and is the step, in pixels, taken along
// each axis the direction moves on. Negative values step the opposite way.
type SampleGrid [GridSize]float32

// Offset returns the truncated distance for grid entry i and whether the
// direction is enabled. Non-finite entries and the centre are disabled.
func (g SampleGrid) Offset(i int) (int, bool) {
	if i < 0 || i >= GridSize || i == gridCenter {
		return 0, false
	}
	m := float64(g[i])
	if math.IsNaN(m) || math.IsInf(m, 0) {
		return 0, false
	}
	d := int(g[i])
	return d, d != 0
}

// String formats the grid as three whitespace-separated lines.
func (g SampleGrid) String() string {
	var sb strings.Builder
	for i, v := range g {
		if i > 0 {
			if i%3 == 0 {
				sb.WriteByte('\n')
			} else {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
	}
	return sb.String()
}

// MarshalText implements encoding.TextMarshaler.
func (g SampleGrid) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *SampleGrid) UnmarshalText(text []byte) error {
	parsed, err := ParseGrid(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// ParseGrid parses nine whitespace or comma separated numbers in row-major
// order, e.g. "1 1 1 1 0 1 1 1 1".
func ParseGrid(s string) (SampleGrid, error) {
	var g SampleGrid
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(fields) != GridSize {
		return g, fmt.Errorf("%w: got %d", ErrInvalidGrid, len(fields))
	}
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return g, fmt.Errorf("nankill: grid entry %d: %w", i, err)
		}
		g[i] = float32(v)
	}
	return g, nil
}

// NorthMapping selects where grid index 1 samples.
type NorthMapping int

const (
	// NorthVertical samples (x, y-d), straight up.
	NorthVertical NorthMapping = iota
	// NorthAsWest samples (x-d, y), duplicating the W direction. Some
	// documentation of the node describes this layout; it is kept for
	// reproducing output produced under that description.
	NorthAsWest
)

func (n NorthMapping) String() string {
	switch n {
	case NorthVertical:
		return "vertical"
	case NorthAsWest:
		return "west"
	default:
		return "unknown"
	}
}

// ParseNorthMapping parses the names returned by NorthMapping.String.
func ParseNorthMapping(s string) (NorthMapping, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "vertical":
		return NorthVertical, nil
	case "west":
		return NorthAsWest, nil
	}
	return 0, fmt.Errorf("nankill: unknown north mapping %q", s)
}

// Config controls how invalid samples are repaired.
type Config struct {
	// DefaultValue replaces a sample whose reconstruction failed. It should
	// be finite; the engine does not check.
	DefaultValue float32

	// Grid enables directions and sets their sampling distance.
	Grid SampleGrid

	// North selects the mapping of grid index 1.
	North NorthMapping
}

// DefaultConfig returns the node defaults: a default value of 1 and all
// eight directions sampled at distance 1.
func DefaultConfig() Config {
	return Config{
		DefaultValue: 1,
		Grid:         SampleGrid{1, 1, 1, 1, 0, 1, 1, 1, 1},
		North:        NorthVertical,
	}
}

// Validate reports configuration that makes the repair non-total: a
// non-finite default value or non-finite grid entries. It is a host-side
// check; NewEngine accepts any Config.
func (c Config) Validate() error {
	dv := float64(c.DefaultValue)
	if math.IsNaN(dv) || math.IsInf(dv, 0) {
		return ErrNonFiniteDefault
	}
	for i, v := range c.Grid {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return fmt.Errorf("%w: index %d", ErrNonFiniteGrid, i)
		}
	}
	switch c.North {
	case NorthVertical, NorthAsWest:
	default:
		return fmt.Errorf("nankill: unknown north mapping %d", c.North)
	}
	return nil
}

// Enabled returns the number of directions the grid enables.
func (c Config) Enabled() int {
	n := 0
	for i := range c.Grid {
		if _, ok := c.Grid.Offset(i); ok {
			n++
		}
	}
	return n
}
