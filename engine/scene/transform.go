package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/hubastard/rier/engine/cache"
)

// Transform is the position, rotation and uniform scale of an object.
//
// Fields change only through the setters, each of which invalidates the
// cached matrix, so Matrix always reflects the current state.
type Transform struct {
	position mgl32.Vec3
	rotation mgl32.Quat
	scale    float32
	mat      cache.Lazy[mgl32.Mat4]
}

func NewTransform() *Transform {
	return &Transform{rotation: mgl32.QuatIdent(), scale: 1}
}

func (t *Transform) Position() mgl32.Vec3 { return t.position }
func (t *Transform) Rotation() mgl32.Quat { return t.rotation }
func (t *Transform) ScaleFactor() float32 { return t.scale }

func (t *Transform) SetPosition(x, y, z float32) {
	t.position = mgl32.Vec3{x, y, z}
	t.mat.Dirty()
}

func (t *Transform) Translate(dx, dy, dz float32) {
	t.position = t.position.Add(mgl32.Vec3{dx, dy, dz})
	t.mat.Dirty()
}

func (t *Transform) SetRotation(q mgl32.Quat) {
	t.rotation = q.Normalize()
	t.mat.Dirty()
}

// Rotate applies q after the current rotation.
func (t *Transform) Rotate(q mgl32.Quat) {
	t.rotation = q.Mul(t.rotation).Normalize()
	t.mat.Dirty()
}

// RotateZ rotates around the screen axis, the common case for 2D.
func (t *Transform) RotateZ(rad float32) {
	t.Rotate(mgl32.QuatRotate(rad, mgl32.Vec3{0, 0, 1}))
}

func (t *Transform) SetScale(s float32) {
	t.scale = s
	t.mat.Dirty()
}

// Matrix is T(position) * R(rotation) * S(scale): scale first, then
// rotate, then translate.
func (t *Transform) Matrix() mgl32.Mat4 {
	return t.mat.Get(t.build)
}

func (t *Transform) build() mgl32.Mat4 {
	return mgl32.Translate3D(t.position[0], t.position[1], t.position[2]).
		Mul4(t.rotation.Mat4()).
		Mul4(mgl32.Scale3D(t.scale, t.scale, t.scale))
}

// Apply maps a local-space point to world space. It agrees with Matrix.
func (t *Transform) Apply(p mgl32.Vec3) mgl32.Vec3 {
	return t.rotation.Rotate(p.Mul(t.scale)).Add(t.position)
}
