package geo

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestEulerXYZ(t *testing.T) {
	// 90 degrees about Z maps X onto Y.
	r := EulerXYZ(0, 0, 90)
	v := mat.NewVecDense(3, []float64{1, 0, 0})
	var out mat.VecDense
	out.MulVec(r, v)

	want := []float64{0, 1, 0}
	for i, w := range want {
		if math.Abs(out.AtVec(i)-w) > 1e-12 {
			t.Fatalf("rotated vector[%d] = %f, want %f", i, out.AtVec(i), w)
		}
	}
}

func TestEulerXYZOrder(t *testing.T) {
	// Extrinsic xyz composition: R = Rz * Ry * Rx. A vector along X is
	// fixed by the X rotation, so only the final 90 degrees about Z acts
	// on it and it must land exactly on +Y.
	r := EulerXYZ(45, 0, 90)
	v := mat.NewVecDense(3, []float64{1, 0, 0})
	var out mat.VecDense
	out.MulVec(r, v)

	if math.Abs(out.AtVec(0)) > 1e-12 || math.Abs(out.AtVec(1)-1) > 1e-12 {
		t.Fatalf("rotated vector = (%f, %f, %f), want (0, 1, 0)",
			out.AtVec(0), out.AtVec(1), out.AtVec(2))
	}
}

func TestQuatMatRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		x, y, z float64
	}{
		{"identity", 0, 0, 0},
		{"yaw only", 0, 0, 133},
		{"pitch near straight down", -89.9, 0, 12},
		{"combined", 30, -45, 240},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := EulerXYZ(tt.x, tt.y, tt.z)
			q := MatToQuat(r)

			norm := math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
			if math.Abs(norm-1) > 1e-9 {
				t.Errorf("quaternion norm = %f, want 1", norm)
			}

			back := q.Mat()
			if !mat.EqualApprox(back, r, 1e-9) {
				t.Errorf("matrix -> quaternion -> matrix did not round trip:\ngot:\n%v\nwant:\n%v",
					mat.Formatted(back), mat.Formatted(r))
			}
		})
	}
}

func TestQuatIdentity(t *testing.T) {
	q := Quaternion{W: 1}
	if !mat.EqualApprox(q.Mat(), mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}), 1e-15) {
		t.Error("identity quaternion did not produce the identity matrix")
	}
}

func TestProject(t *testing.T) {
	p := Projector{Zone: 33}

	// On the central meridian (15 degrees east) the easting is exactly the
	// false easting, and the equator projects to zero northing.
	e, n := p.Project(0, 15)
	if math.Abs(e-500000) > 1e-6 {
		t.Errorf("easting on central meridian = %f, want 500000", e)
	}
	if math.Abs(n) > 1e-6 {
		t.Errorf("northing on equator = %f, want 0", n)
	}

	// Moving east increases easting, moving north increases northing.
	e1, n1 := p.Project(47.0, 15.5)
	e2, n2 := p.Project(47.001, 15.501)
	if e2 <= e1 {
		t.Errorf("easting did not increase eastward: %f then %f", e1, e2)
	}
	if n2 <= n1 {
		t.Errorf("northing did not increase northward: %f then %f", n1, n2)
	}

	// One degree of latitude is close to 111 km.
	_, nLow := p.Project(47.0, 15.0)
	_, nHigh := p.Project(48.0, 15.0)
	if d := nHigh - nLow; math.Abs(d-111000) > 500 {
		t.Errorf("one degree of latitude spans %f m, want about 111 km", d)
	}

	// Southern hemisphere gets the false northing.
	_, nSouth := (Projector{Zone: 33, Southern: true}).Project(-1, 15)
	if nSouth < 9000000 {
		t.Errorf("southern northing = %f, want false-northing offset applied", nSouth)
	}
}
