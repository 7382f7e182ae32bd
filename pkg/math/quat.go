package math

import "math"

// Quat is a rotation quaternion with vector part (X, Y, Z) and scalar W.
type Quat struct {
	X, Y, Z, W float32
}

// QuatIdentity returns the rotation that leaves vectors unchanged.
func QuatIdentity() Quat {
	return Quat{W: 1}
}

// QuatFromAxisAngle returns a rotation of angle radians about a unit axis,
// counter-clockwise when looking down the axis.
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	sin, cos := math.Sincos(float64(angle) / 2)
	v := axis.Scale(float32(sin))
	return Quat{v.X, v.Y, v.Z, float32(cos)}
}

// QuatFromEuler returns the rotation that applies roll about X, then pitch
// about Y, then yaw about Z. Angles are radians.
func QuatFromEuler(roll, pitch, yaw float32) Quat {
	rot := QuatIdentity()
	for _, step := range []Quat{
		QuatFromAxisAngle(Vec3{X: 1}, roll),
		QuatFromAxisAngle(Vec3{Y: 1}, pitch),
		QuatFromAxisAngle(Vec3{Z: 1}, yaw),
	} {
		rot = step.Mul(rot)
	}
	return rot
}

func (q Quat) vector() Vec3 {
	return Vec3{q.X, q.Y, q.Z}
}

// Normalize scales q to unit length. Near-zero quaternions become the identity.
func (q Quat) Normalize() Quat {
	n := math.Sqrt(float64(q.W*q.W + q.vector().Dot(q.vector())))
	if n < 1e-4 {
		return QuatIdentity()
	}
	s := float32(1 / n)
	return Quat{q.X * s, q.Y * s, q.Z * s, q.W * s}
}

// Mul returns the Hamilton product q·other, the rotation other followed by q.
func (q Quat) Mul(other Quat) Quat {
	a, b := q.vector(), other.vector()
	v := b.Scale(q.W).Add(a.Scale(other.W)).Add(a.Cross(b))
	return Quat{v.X, v.Y, v.Z, q.W*other.W - a.Dot(b)}
}

// Rotate applies the rotation to v. q is normalized first.
func (q Quat) Rotate(v Vec3) Vec3 {
	q = q.Normalize()
	u := q.vector()
	t := u.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(u.Cross(t))
}

// ToMat4 returns the rotation as a matrix whose columns are the rotated axes.
func (q Quat) ToMat4() Mat4 {
	x := q.Rotate(Vec3{X: 1})
	y := q.Rotate(Vec3{Y: 1})
	z := q.Rotate(Vec3{Z: 1})
	return fromColumns(
		Vec4{x.X, x.Y, x.Z, 0},
		Vec4{y.X, y.Y, y.Z, 0},
		Vec4{z.X, z.Y, z.Z, 0},
		Vec4{0, 0, 0, 1},
	)
}
