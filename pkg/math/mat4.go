package math

import "math"

// Mat4 is a 4x4 matrix stored column by column: element (row, col) lives at
// index col*4+row. Vectors are columns and transforms compose right to left.
type Mat4 [16]float32

// fromColumns assembles a matrix from its four columns.
func fromColumns(c0, c1, c2, c3 Vec4) Mat4 {
	var m Mat4
	for i, c := range [4]Vec4{c0, c1, c2, c3} {
		copy(m[i*4:i*4+4], c[:])
	}
	return m
}

// At returns the element in the given row and column.
func (m Mat4) At(row, col int) float32 {
	return m[col*4+row]
}

// Identity returns an identity matrix.
func Identity() Mat4 {
	return Scale(Vec3{1, 1, 1})
}

// Perspective returns an OpenGL-style perspective projection: eye space looks
// down -Z and depth maps to [-1, 1]. fovY is in radians, aspect is width/height.
func Perspective(fovY, aspect, near, far float32) Mat4 {
	f := float32(1 / math.Tan(float64(fovY)/2))
	depth := near - far
	return fromColumns(
		Vec4{f / aspect, 0, 0, 0},
		Vec4{0, f, 0, 0},
		Vec4{0, 0, (far + near) / depth, -1},
		Vec4{0, 0, 2 * far * near / depth, 0},
	)
}

// Ortho returns an orthographic projection of the box
// [left,right]×[bottom,top]×[-near,-far] onto [-1,1]³.
func Ortho(left, right, bottom, top, near, far float32) Mat4 {
	w, h, d := right-left, top-bottom, far-near
	return fromColumns(
		Vec4{2 / w, 0, 0, 0},
		Vec4{0, 2 / h, 0, 0},
		Vec4{0, 0, -2 / d, 0},
		Vec4{-(right + left) / w, -(top + bottom) / h, -(far + near) / d, 1},
	)
}

// LookAt returns a view matrix for a camera at eye facing center. up must not
// be parallel to the viewing direction.
func LookAt(eye, center, up Vec3) Mat4 {
	fwd := center.Sub(eye).Normalize()
	side := fwd.Cross(up).Normalize()
	camUp := side.Cross(fwd)
	return fromColumns(
		Vec4{side.X, camUp.X, -fwd.X, 0},
		Vec4{side.Y, camUp.Y, -fwd.Y, 0},
		Vec4{side.Z, camUp.Z, -fwd.Z, 0},
		Vec4{-side.Dot(eye), -camUp.Dot(eye), fwd.Dot(eye), 1},
	)
}

// Translate returns a translation by v.
func Translate(v Vec3) Mat4 {
	m := Identity()
	m[12], m[13], m[14] = v.X, v.Y, v.Z
	return m
}

// Scale returns a per-axis scale by v.
func Scale(v Vec3) Mat4 {
	return fromColumns(
		Vec4{v.X, 0, 0, 0},
		Vec4{0, v.Y, 0, 0},
		Vec4{0, 0, v.Z, 0},
		Vec4{0, 0, 0, 1},
	)
}

// Compose returns the object-to-region transform of an object: scaled about
// its centre, rotated, then moved to pos.
func Compose(pos Vec3, rot Quat, scale Vec3) Mat4 {
	return Translate(pos).Mul(rot.ToMat4()).Mul(Scale(scale))
}

// Mul returns m * other, which applies other first.
func (m Mat4) Mul(other Mat4) Mat4 {
	var out Mat4
	for col := 0; col < 4; col++ {
		out = out.setColumn(col, m.MulVec4(other.column(col)))
	}
	return out
}

func (m Mat4) column(col int) Vec4 {
	return Vec4{m[col*4], m[col*4+1], m[col*4+2], m[col*4+3]}
}

func (m Mat4) setColumn(col int, v Vec4) Mat4 {
	copy(m[col*4:col*4+4], v[:])
	return m
}

// MulVec4 returns m * v.
func (m Mat4) MulVec4(v Vec4) Vec4 {
	var out Vec4
	for row := 0; row < 4; row++ {
		out[row] = m.At(row, 0)*v[0] + m.At(row, 1)*v[1] + m.At(row, 2)*v[2] + m.At(row, 3)*v[3]
	}
	return out
}

// TransformPoint transforms p as a point and divides by w when w is not 0 or 1.
func (m Mat4) TransformPoint(p Vec3) Vec3 {
	r := m.MulVec4(Point(p))
	if w := r[3]; w != 0 && w != 1 {
		return Vec3{r[0] / w, r[1] / w, r[2] / w}
	}
	return Vec3{r[0], r[1], r[2]}
}

// TransformDirection transforms d without translation.
func (m Mat4) TransformDirection(d Vec3) Vec3 {
	r := m.MulVec4(Vec4{d.X, d.Y, d.Z, 0})
	return Vec3{r[0], r[1], r[2]}
}
