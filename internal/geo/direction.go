// Package geo provides the coordinate-system algebra and geodesy helpers
// used to reconcile pose conventions between reconstruction tools and to
// project WGS-84 positions into local metric coordinates.
package geo

// Direction is one of the six cardinal axis directions used to describe a
// coordinate-system convention.
type Direction int

const (
	Up Direction = iota + 1
	Down
	Left
	Right
	Forward
	Backward
)

// String returns the lowercase name of the direction.
func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return "unknown"
	}
}

// directionRows maps each direction to its unit row vector. The rows of a
// coordinate-system matrix come straight out of this table.
var directionRows = map[Direction][3]float64{
	Right:    {1, 0, 0},
	Left:     {-1, 0, 0},
	Up:       {0, 1, 0},
	Down:     {0, -1, 0},
	Forward:  {0, 0, 1},
	Backward: {0, 0, -1},
}
