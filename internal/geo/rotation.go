package geo

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Quaternion is a rotation quaternion in (w, x, y, z) order, the order used
// by the Colmap image format.
type Quaternion struct {
	W, X, Y, Z float64
}

// EulerXYZ builds a rotation matrix from extrinsic x, y, z rotations given
// in degrees: R = Rz * Ry * Rx.
func EulerXYZ(xDeg, yDeg, zDeg float64) *mat.Dense {
	x := xDeg * math.Pi / 180
	y := yDeg * math.Pi / 180
	z := zDeg * math.Pi / 180

	cx, sx := math.Cos(x), math.Sin(x)
	cy, sy := math.Cos(y), math.Sin(y)
	cz, sz := math.Cos(z), math.Sin(z)

	rx := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, cx, -sx,
		0, sx, cx,
	})
	ry := mat.NewDense(3, 3, []float64{
		cy, 0, sy,
		0, 1, 0,
		-sy, 0, cy,
	})
	rz := mat.NewDense(3, 3, []float64{
		cz, -sz, 0,
		sz, cz, 0,
		0, 0, 1,
	})

	var out mat.Dense
	out.Mul(rz, ry)
	out.Mul(&out, rx)
	return &out
}

// MatToQuat converts a rotation matrix to a unit quaternion using
// Shepperd's method, picking the numerically largest pivot.
func MatToQuat(m mat.Matrix) Quaternion {
	m00, m01, m02 := m.At(0, 0), m.At(0, 1), m.At(0, 2)
	m10, m11, m12 := m.At(1, 0), m.At(1, 1), m.At(1, 2)
	m20, m21, m22 := m.At(2, 0), m.At(2, 1), m.At(2, 2)

	trace := m00 + m11 + m22
	var q Quaternion
	switch {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1)
		q.W = 0.25 / s
		q.X = (m21 - m12) * s
		q.Y = (m02 - m20) * s
		q.Z = (m10 - m01) * s
	case m00 > m11 && m00 > m22:
		s := 2 * math.Sqrt(1+m00-m11-m22)
		q.W = (m21 - m12) / s
		q.X = 0.25 * s
		q.Y = (m01 + m10) / s
		q.Z = (m02 + m20) / s
	case m11 > m22:
		s := 2 * math.Sqrt(1+m11-m00-m22)
		q.W = (m02 - m20) / s
		q.X = (m01 + m10) / s
		q.Y = 0.25 * s
		q.Z = (m12 + m21) / s
	default:
		s := 2 * math.Sqrt(1+m22-m00-m11)
		q.W = (m10 - m01) / s
		q.X = (m02 + m20) / s
		q.Y = (m12 + m21) / s
		q.Z = 0.25 * s
	}
	return q
}

// Mat converts the quaternion back to a 3x3 rotation matrix. The
// quaternion is normalized first, so non-unit inputs rotate rather than
// scale.
func (q Quaternion) Mat() *mat.Dense {
	n := math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
	if n == 0 {
		return mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	}
	w, x, y, z := q.W/n, q.X/n, q.Y/n, q.Z/n

	return mat.NewDense(3, 3, []float64{
		1 - 2*(y*y+z*z), 2 * (x*y - z*w), 2 * (x*z + y*w),
		2 * (x*y + z*w), 1 - 2*(x*x+z*z), 2 * (y*z - x*w),
		2 * (x*z - y*w), 2 * (y*z + x*w), 1 - 2*(x*x+y*y),
	})
}
