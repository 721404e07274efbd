package core

import (
	"iter"
	"time"

	"github.com/hubastard/rier/engine/assets"
	"github.com/hubastard/rier/engine/event"
	"github.com/hubastard/rier/engine/gfx"
)

// App defines the game/application hooks.
type App interface {
	OnStart(e *Engine)                                     // called once after window/device init
	OnUpdate(e *Engine, dt float64)                        // called at a fixed tick (60Hz)
	OnRender(e *Engine, f *gfx.Frame, alpha float64) error // draw into f with interpolation alpha [0..1]
	OnEvent(e *Engine, ev Event)                           // input/window events
	OnShutdown(e *Engine)                                  // before exit
}

// Engine exposes core services to the App.
type Engine struct {
	Window   Window
	Device   gfx.Device
	Gfx      *gfx.Context
	Textures *assets.TextureManager
	Watcher  *assets.Watcher // nil unless Config.WatchTextures
	Events   *event.Notifier[Event]
	Input    *Input
	Layers   *LayerStack

	start   time.Time
	closing bool
}

func (e *Engine) Uptime() time.Duration { return time.Since(e.start) }

// RequestClose ends the main loop after the current tick.
func (e *Engine) RequestClose() { e.closing = true }

// PushLayer attaches l on top of the stack.
func (e *Engine) PushLayer(l Layer) {
	e.Layers.Push(l)
	l.OnAttach(e)
}

// PopLayer detaches the top layer.
func (e *Engine) PopLayer() (Layer, bool) {
	l, ok := e.Layers.Pop()
	if ok {
		l.OnDetach(e)
	}
	return l, ok
}

// Window abstraction. PollEvents yields the events received since the last
// poll; the sequence is finite and a fresh one is returned every tick.
type Window interface {
	PollEvents() iter.Seq[Event]
	SwapBuffers()
	ShouldClose() bool
	FramebufferSize() (int, int)
	SetTitle(title string)
}

// Event model.
type Event interface{ isEvent() }

type EventCloseRequested struct{}

func (EventCloseRequested) isEvent() {}

type EventResize struct{ W, H int }

func (EventResize) isEvent() {}

type EventKey struct {
	Key  Key
	Down bool
	Mods Mod
}

func (EventKey) isEvent() {}

type EventMouseMove struct{ X, Y float64 }

func (EventMouseMove) isEvent() {}

type EventScroll struct{ Xoff, Yoff float64 }

func (EventScroll) isEvent() {}

// Key/mod enums (subset; add as needed).
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeySpace
	KeyW
	KeyA
	KeyS
	KeyD
	KeyQ
	KeyE
	KeyP
	KeyR
)

type Mod int

const (
	ModNone  Mod = 0
	ModShift Mod = 1 << 0
	ModCtrl  Mod = 1 << 1
	ModAlt   Mod = 1 << 2
	ModSuper Mod = 1 << 3
)
