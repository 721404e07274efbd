package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/hubastard/rier/engine/cache"
)

// Camera2D maps screen pixels to clip space: (0,0) is the top-left corner
// and y grows downward. Its own Transform moves the view.
//
// The framebuffer size is not observed automatically; call Update once per
// frame (after resizes and camera moves) to rebuild the matrix.
type Camera2D struct {
	Transform *Transform
	// DPIScale divides the framebuffer size, so one unit is one window
	// point on high-density displays. Zero means 1.
	DPIScale float32

	w, h float32
	vp   cache.Lazy[mgl32.Mat4]
}

func NewCamera2D(fbW, fbH int) *Camera2D {
	c := &Camera2D{Transform: NewTransform(), DPIScale: 1}
	c.Update(fbW, fbH)
	return c
}

// Update records the framebuffer size and rebuilds the matrix.
func (c *Camera2D) Update(fbW, fbH int) {
	c.w, c.h = float32(fbW), float32(fbH)
	c.vp.Dirty()
	c.vp.Get(c.build)
}

// Matrix is the matrix built by the last Update.
func (c *Camera2D) Matrix() mgl32.Mat4 { return c.vp.Get(c.build) }

// Width and Height are the ortho extents in camera units.
func (c *Camera2D) Width() float32  { return c.w / c.dpi() }
func (c *Camera2D) Height() float32 { return c.h / c.dpi() }

func (c *Camera2D) dpi() float32 {
	if c.DPIScale <= 0 {
		return 1
	}
	return c.DPIScale
}

func (c *Camera2D) build() mgl32.Mat4 {
	proj := mgl32.Ortho(0, c.Width(), c.Height(), 0, -1, 1)
	return proj.Mul4(c.Transform.Matrix())
}
