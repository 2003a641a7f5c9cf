package geo

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrDegenerate reports a coordinate system whose axis directions are not
// mutually orthogonal (direction matrix has zero determinant).
var ErrDegenerate = errors.New("geo: degenerate coordinate system")

// Handedness expresses the orientation of a coordinate system.
type Handedness int

const (
	HandednessUndefined Handedness = iota
	HandednessLeft
	HandednessRight
)

func (h Handedness) String() string {
	switch h {
	case HandednessLeft:
		return "left"
	case HandednessRight:
		return "right"
	default:
		return "undefined"
	}
}

// CoordinateSystem describes a 3-dimensional coordinate system via the
// positive direction of its three axes.
type CoordinateSystem struct {
	X Direction
	Y Direction
	Z Direction
}

// Well-known conventions. Colmap and OpenCV share the same axes, as do
// OpenGL and the Nerfstudio camera frame.
var (
	OpenGL           = CoordinateSystem{Right, Up, Backward}
	OpenCV           = CoordinateSystem{Right, Down, Forward}
	Colmap           = CoordinateSystem{Right, Down, Forward}
	NerfstudioCamera = CoordinateSystem{Right, Up, Backward}
	NerfstudioWorld  = CoordinateSystem{Right, Forward, Up}
	PyTorch3D        = CoordinateSystem{Left, Up, Forward}
	Blender          = CoordinateSystem{Right, Forward, Up}
	Unity            = CoordinateSystem{Right, Up, Forward}
	Unreal           = CoordinateSystem{Forward, Right, Up}
)

func (cs CoordinateSystem) String() string {
	return fmt.Sprintf("(%s, %s, %s)", cs.X, cs.Y, cs.Z)
}

// Mat returns the row-major 3x3 matrix whose rows are the unit vectors of
// the three axis directions.
func (cs CoordinateSystem) Mat() *mat.Dense {
	m := mat.NewDense(3, 3, nil)
	for i, d := range [3]Direction{cs.X, cs.Y, cs.Z} {
		row := directionRows[d]
		m.SetRow(i, row[:])
	}
	return m
}

// Handedness computes the orientation from the sign of the determinant of
// the transposed direction matrix. A zero determinant means the axes are
// not mutually orthogonal and the system is unusable for conversion.
func (cs CoordinateSystem) Handedness() Handedness {
	det := mat.Det(cs.Mat().T())
	switch {
	case det > 0:
		return HandednessRight
	case det < 0:
		return HandednessLeft
	default:
		return HandednessUndefined
	}
}

// Convert transforms m, expressed in this coordinate system, into the
// target coordinate system: target.Mat() * inv(cs.Mat()) * m.
func (cs CoordinateSystem) Convert(m mat.Matrix, target CoordinateSystem) (*mat.Dense, error) {
	conv, err := cs.ConvertFunc(target)
	if err != nil {
		return nil, err
	}
	return conv(m), nil
}

// ConvertFunc precomputes the composed conversion operator from this
// coordinate system to the target, returning a function that can be
// applied to any 3xN matrix. The same function can be reused across many
// conversions without recomputing the inverse.
func (cs CoordinateSystem) ConvertFunc(target CoordinateSystem) (func(mat.Matrix) *mat.Dense, error) {
	if cs.Handedness() == HandednessUndefined {
		return nil, fmt.Errorf("%w: source %s", ErrDegenerate, cs)
	}
	if target.Handedness() == HandednessUndefined {
		return nil, fmt.Errorf("%w: target %s", ErrDegenerate, target)
	}

	var inv mat.Dense
	if err := inv.Inverse(cs.Mat()); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDegenerate, cs)
	}
	var op mat.Dense
	op.Mul(target.Mat(), &inv)

	return func(m mat.Matrix) *mat.Dense {
		var out mat.Dense
		out.Mul(&op, m)
		return &out
	}, nil
}
