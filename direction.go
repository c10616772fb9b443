package nankill

// Direction is one of the eight non-centre positions of a SampleGrid.
type Direction int

const (
	NorthWest Direction = 0
	North     Direction = 1
	NorthEast Direction = 2
	West      Direction = 3
	East      Direction = 5
	SouthWest Direction = 6
	South     Direction = 7
	SouthEast Direction = 8
)

var directionNames = map[Direction]string{
	NorthWest: "NW",
	North:     "N",
	NorthEast: "NE",
	West:      "W",
	East:      "E",
	SouthWest: "SW",
	South:     "S",
	SouthEast: "SE",
}

func (d Direction) String() string {
	if name, ok := directionNames[d]; ok {
		return name
	}
	return "unknown"
}

// step is the unit (dx, dy) of a direction. Neighbours are read at
// (x + dx*d, y + dy*d) where d is the grid distance.
type step struct {
	dx, dy int
}

// sampleOrder is the order in which directions are accumulated. Float
// addition is not associative, so the order is fixed.
var sampleOrder = [8]Direction{West, NorthWest, SouthWest, North, South, East, NorthEast, SouthEast}

// Step returns the unit column and row deltas of d under mapping n.
func (d Direction) Step(n NorthMapping) (dx, dy int) {
	s := directionStep(d, n)
	return s.dx, s.dy
}

func directionStep(d Direction, n NorthMapping) step {
	switch d {
	case NorthWest:
		return step{-1, -1}
	case North:
		if n == NorthAsWest {
			return step{-1, 0}
		}
		return step{0, -1}
	case NorthEast:
		return step{1, -1}
	case West:
		return step{-1, 0}
	case East:
		return step{1, 0}
	case SouthWest:
		return step{-1, 1}
	case South:
		return step{0, 1}
	case SouthEast:
		return step{1, 1}
	}
	return step{}
}

// tap is an enabled direction resolved to absolute offsets.
type tap struct {
	dir    Direction
	dx, dy int
}

// taps resolves the enabled directions of cfg in accumulation order.
func taps(cfg Config) []tap {
	out := make([]tap, 0, len(sampleOrder))
	for _, dir := range sampleOrder {
		d, ok := cfg.Grid.Offset(int(dir))
		if !ok {
			continue
		}
		s := directionStep(dir, cfg.North)
		out = append(out, tap{dir: dir, dx: s.dx * d, dy: s.dy * d})
	}
	return out
}
