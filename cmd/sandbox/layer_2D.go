package main

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/hubastard/rier/engine/assets"
	"github.com/hubastard/rier/engine/core"
	"github.com/hubastard/rier/engine/gfx"
	"github.com/hubastard/rier/engine/logging"
	"github.com/hubastard/rier/engine/scene"
)

const playerKey assets.TextureKey = "player.png"

// ------- A simple 2D Layer demo -------
type Layer2D struct {
	cam      *scene.Camera2D
	ctrl     *scene.OrthoController2D
	triangle *gfx.Renderer
	sprites  *gfx.Renderer
	mesh     *gfx.Mesh
	spin     *scene.Transform
	player   *scene.Sprite
	t        float32
}

func (l *Layer2D) OnAttach(e *core.Engine) {
	// Camera sized to framebuffer
	l.cam = scene.NewCamera2D(e.Gfx.FramebufferSize())
	l.ctrl = scene.NewOrthoController2D(l.cam)
	l.spin = scene.NewTransform()

	// The sprite shows up once the loader delivers it.
	e.Textures.EnqueueLoad(playerKey)
}

func (l *Layer2D) OnDetach(e *core.Engine) {
	if l.player != nil {
		l.player.Release()
		l.player = nil
	}
}

func (l *Layer2D) OnUpdate(e *core.Engine, dt float64) {
	l.ctrl.Update(e.Input, float32(dt))
	l.t += float32(dt)

	w, h := e.Gfx.FramebufferSize()
	l.spin.SetPosition(float32(w)/2, float32(h)/2, 0)
	l.spin.SetRotation(mgl32.QuatRotate(l.t, mgl32.Vec3{0, 0, 1}))
	l.spin.SetScale(1 + 0.25*float32(math.Sin(float64(l.t)*2)))

	if l.player == nil {
		l.claimPlayer(e)
	}
	if e.Input.IsKeyDown(core.KeyEscape) {
		e.RequestClose()
	}
}

func (l *Layer2D) claimPlayer(e *core.Engine) {
	if !e.Textures.Requested(playerKey) {
		return // load failed; R retries
	}
	tex, err := e.Textures.Claim(playerKey)
	if errors.Is(err, assets.ErrNotReady) {
		return
	}
	if err != nil {
		logging.Logger().Warn("player texture", "err", err)
		return
	}
	defer tex.Release()
	l.player = scene.NewSprite(tex, scene.Rect{W: 32, H: 32}, 128, 128)
	l.player.Transform.SetPosition(32, 32, 0)
}

func (l *Layer2D) OnRender(e *core.Engine, f *gfx.Frame, alpha float64) error {
	l.cam.Update(f.Size())
	err := l.triangle.Draw(f, l.mesh, map[string]any{
		"uCamera":    l.cam.Matrix(),
		"uTransform": l.spin.Matrix(),
	}, nil)
	if l.player != nil {
		err = errors.Join(err, l.player.Render(f, l.sprites, l.cam.Matrix()))
	}
	return err
}

func (l *Layer2D) OnEvent(e *core.Engine, ev core.Event) bool {
	switch v := ev.(type) {
	case core.EventKey:
		if v.Down && v.Key == core.KeyR {
			if l.player == nil {
				e.Textures.EnqueueLoad(playerKey)
			} else {
				e.Textures.Reload(playerKey)
			}
			return true
		}
	case core.EventScroll:
		z := l.cam.Transform.ScaleFactor() * float32(math.Pow(1.1, v.Yoff))
		l.cam.Transform.SetScale(z)
		return true
	}
	return false
}
