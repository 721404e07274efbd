package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/hubastard/rier/engine/cache"
)

var up = mgl32.Vec3{0, 1, 0}

// Camera3D is a perspective camera looking from Eye toward Center.
// Like Camera2D it is rebuilt by an explicit Update each frame.
type Camera3D struct {
	Eye, Center mgl32.Vec3
	FovY        float32 // radians
	Near, Far   float32

	aspect float32
	vp     cache.Lazy[mgl32.Mat4]
}

func NewCamera3D(fbW, fbH int) *Camera3D {
	c := &Camera3D{
		Eye:  mgl32.Vec3{0, 0, 3},
		FovY: mgl32.DegToRad(45),
		Near: 0.1,
		Far:  100,
	}
	c.Update(fbW, fbH)
	return c
}

func (c *Camera3D) LookAt(eye, center mgl32.Vec3) {
	c.Eye, c.Center = eye, center
}

func (c *Camera3D) SetPerspective(fovY, near, far float32) {
	c.FovY, c.Near, c.Far = fovY, near, far
}

// Update takes the framebuffer size for the aspect ratio and rebuilds the
// matrix.
func (c *Camera3D) Update(fbW, fbH int) {
	c.aspect = 1
	if fbH > 0 {
		c.aspect = float32(fbW) / float32(fbH)
	}
	c.vp.Dirty()
	c.vp.Get(c.build)
}

func (c *Camera3D) Matrix() mgl32.Mat4 { return c.vp.Get(c.build) }

func (c *Camera3D) build() mgl32.Mat4 {
	proj := mgl32.Perspective(c.FovY, c.aspect, c.Near, c.Far)
	return proj.Mul4(mgl32.LookAtV(c.Eye, c.Center, up))
}
