package math

import (
	"math"
	"testing"
)

func TestQuatNormalize(t *testing.T) {
	n := Quat{X: 1, Y: 2, Z: 3, W: 4}.Normalize()

	length := math.Sqrt(float64(n.X*n.X + n.Y*n.Y + n.Z*n.Z + n.W*n.W))
	if math.Abs(length-1) > 1e-4 {
		t.Errorf("normalized length = %v, want 1", length)
	}
	if (Quat{}).Normalize() != QuatIdentity() {
		t.Error("zero quaternion should normalize to identity")
	}
}

func TestQuatRotate(t *testing.T) {
	tests := []struct {
		name string
		q    Quat
		in   Vec3
		want Vec3
	}{
		{"identity", QuatIdentity(), Vec3{1, 2, 3}, Vec3{1, 2, 3}},
		{"yaw", QuatFromAxisAngle(Vec3{Z: 1}, math.Pi/2), Vec3{1, 0, 0}, Vec3{0, 1, 0}},
		{"pitch", QuatFromAxisAngle(Vec3{Y: 1}, math.Pi/2), Vec3{0, 0, 1}, Vec3{1, 0, 0}},
		{"roll", QuatFromAxisAngle(Vec3{X: 1}, math.Pi/2), Vec3{0, 1, 0}, Vec3{0, 0, 1}},
		{"unnormalized", Quat{Z: 2, W: 2}, Vec3{1, 0, 0}, Vec3{0, 1, 0}},
		// roll moves +Y to +Z, then yaw leaves it there
		{"euler order", QuatFromEuler(math.Pi/2, 0, math.Pi/2), Vec3{0, 1, 0}, Vec3{0, 0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.Rotate(tt.in); !near(got, tt.want) {
				t.Errorf("Rotate(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestQuatMulAppliesRightFirst(t *testing.T) {
	yaw := QuatFromAxisAngle(Vec3{Z: 1}, math.Pi/2)
	roll := QuatFromAxisAngle(Vec3{X: 1}, math.Pi/2)

	// roll keeps +X, yaw turns it to +Y
	if got := yaw.Mul(roll).Rotate(Vec3{1, 0, 0}); !near(got, Vec3{0, 1, 0}) {
		t.Errorf("yaw*roll of +X = %v, want (0,1,0)", got)
	}
	// yaw turns +X to +Y, roll lifts it to +Z
	if got := roll.Mul(yaw).Rotate(Vec3{1, 0, 0}); !near(got, Vec3{0, 0, 1}) {
		t.Errorf("roll*yaw of +X = %v, want (0,0,1)", got)
	}
}

func TestQuatToMat4MatchesRotate(t *testing.T) {
	q := QuatFromEuler(0.3, -0.7, 1.9)
	m := q.ToMat4()
	for _, v := range []Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {3, -2, 5}} {
		if got, want := m.TransformPoint(v), q.Rotate(v); !near(got, want) {
			t.Errorf("ToMat4 of %v = %v, Rotate gives %v", v, got, want)
		}
	}
	if QuatIdentity().ToMat4() != Identity() {
		t.Error("identity rotation should give the identity matrix")
	}
}
