package render

import (
	"github.com/Faultbox/regiontile/pkg/math"
)

// Camera holds the view and projection used for one render.
// World space is Z-up with X east and Y north.
type Camera struct {
	View       math.Mat4
	Projection math.Mat4
}

// NewTopDown returns an orthographic camera looking straight down on the
// rectangle [minX,maxX]×[minY,maxY], with north at the top of the image.
// minZ and maxZ bound the heights that must stay inside the clip volume.
func NewTopDown(minX, minY, maxX, maxY, minZ, maxZ float32) Camera {
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	eyeZ := maxZ + 10
	eye := math.Vec3{X: cx, Y: cy, Z: eyeZ}
	center := math.Vec3{X: cx, Y: cy, Z: minZ}
	hw, hh := (maxX-minX)/2, (maxY-minY)/2

	return Camera{
		View:       math.LookAt(eye, center, math.Vec3{Y: 1}),
		Projection: math.Ortho(-hw, hw, -hh, hh, 1, eyeZ-minZ+10),
	}
}

// NewPerspective returns a perspective camera at pos looking along dir.
// fovY is in radians.
func NewPerspective(pos, dir math.Vec3, fovY, aspect, near, far float32) Camera {
	up := math.Vec3{Z: 1}
	if d := dir.Normalize(); d.Z > 0.999 || d.Z < -0.999 {
		up = math.Vec3{Y: 1}
	}
	return Camera{
		View:       math.LookAt(pos, pos.Add(dir), up),
		Projection: math.Perspective(fovY, aspect, near, far),
	}
}

// ViewProjection returns Projection * View.
func (c Camera) ViewProjection() math.Mat4 {
	return c.Projection.Mul(c.View)
}
