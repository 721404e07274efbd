package scene

import "github.com/hubastard/rier/engine/core"

// OrthoController2D: WASD pans, Q/E rotate.
type OrthoController2D struct {
	MoveSpeed float32 // pixels per second
	RotSpeed  float32 // radians per second
	Camera    *Camera2D
}

func NewOrthoController2D(cam *Camera2D) *OrthoController2D {
	return &OrthoController2D{
		MoveSpeed: 200,
		RotSpeed:  2.0,
		Camera:    cam,
	}
}

// Update moves the camera transform. The camera matrix picks it up on its
// next Update.
func (cc *OrthoController2D) Update(in *core.Input, dt float32) {
	speed := cc.MoveSpeed * dt
	tr := cc.Camera.Transform

	// The view moves opposite to the content.
	if in.IsKeyDown(core.KeyW) {
		tr.Translate(0, speed, 0)
	}
	if in.IsKeyDown(core.KeyS) {
		tr.Translate(0, -speed, 0)
	}
	if in.IsKeyDown(core.KeyA) {
		tr.Translate(speed, 0, 0)
	}
	if in.IsKeyDown(core.KeyD) {
		tr.Translate(-speed, 0, 0)
	}
	if in.IsKeyDown(core.KeyQ) {
		tr.RotateZ(cc.RotSpeed * dt)
	}
	if in.IsKeyDown(core.KeyE) {
		tr.RotateZ(-cc.RotSpeed * dt)
	}
}
