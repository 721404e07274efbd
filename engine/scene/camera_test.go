package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"

	"github.com/hubastard/rier/engine/core"
)

func TestCamera2DCorners(t *testing.T) {
	cam := NewCamera2D(800, 600)
	m := cam.Matrix()

	assertVec3(t, mgl32.Vec3{-1, 1, 0}, mulPoint(m, mgl32.Vec3{0, 0, 0}))
	assertVec3(t, mgl32.Vec3{1, -1, 0}, mulPoint(m, mgl32.Vec3{800, 600, 0}))
	assertVec3(t, mgl32.Vec3{0, 0, 0}, mulPoint(m, mgl32.Vec3{400, 300, 0}))
	assert.Equal(t, float32(800), cam.Width())
	assert.Equal(t, float32(600), cam.Height())
}

func TestCamera2DRebuildsOnlyOnUpdate(t *testing.T) {
	cam := NewCamera2D(800, 600)
	before := cam.Matrix()

	cam.Transform.Translate(100, 0, 0)
	assert.Equal(t, before, cam.Matrix(), "camera waits for Update")

	cam.Update(800, 600)
	assertVec3(t, mgl32.Vec3{-0.75, 1, 0}, mulPoint(cam.Matrix(), mgl32.Vec3{0, 0, 0}))

	cam.Update(400, 300)
	assertVec3(t, mgl32.Vec3{1, -1, 0}, mulPoint(cam.Matrix(), mgl32.Vec3{300, 300, 0}))
}

func TestCamera2DDPIScale(t *testing.T) {
	cam := NewCamera2D(1600, 1200)
	cam.DPIScale = 2
	cam.Update(1600, 1200)
	assertVec3(t, mgl32.Vec3{1, -1, 0}, mulPoint(cam.Matrix(), mgl32.Vec3{800, 600, 0}))
}

func TestCamera3DLooksAtCenter(t *testing.T) {
	cam := NewCamera3D(800, 600)
	cam.LookAt(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{})
	cam.Update(800, 600)

	clip := cam.Matrix().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	ndc := clip.Vec3().Mul(1 / clip.W())
	assert.InDelta(t, 0, ndc.X(), tol)
	assert.InDelta(t, 0, ndc.Y(), tol)
	assert.True(t, ndc.Z() > -1 && ndc.Z() < 1, "center lies between near and far")

	want := mgl32.Perspective(cam.FovY, 800.0/600.0, cam.Near, cam.Far).
		Mul4(mgl32.LookAtV(cam.Eye, cam.Center, mgl32.Vec3{0, 1, 0}))
	got := cam.Matrix()
	assert.InDeltaSlice(t, want[:], got[:], tol)
}

func TestCamera3DUpdateContract(t *testing.T) {
	cam := NewCamera3D(800, 600)
	before := cam.Matrix()
	cam.SetPerspective(mgl32.DegToRad(90), 1, 10)
	assert.Equal(t, before, cam.Matrix())
	cam.Update(800, 600)
	assert.NotEqual(t, before, cam.Matrix())
}

func TestOrthoController2D(t *testing.T) {
	cam := NewCamera2D(800, 600)
	ctrl := NewOrthoController2D(cam)
	in := core.NewInput()

	in.Handle(core.EventKey{Key: core.KeyD, Down: true})
	ctrl.Update(in, 0.5)
	assertVec3(t, mgl32.Vec3{-100, 0, 0}, cam.Transform.Position())

	in.Handle(core.EventKey{Key: core.KeyD, Down: false})
	ctrl.Update(in, 0.5)
	assertVec3(t, mgl32.Vec3{-100, 0, 0}, cam.Transform.Position())
}
