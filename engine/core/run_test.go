package core

import (
	"errors"
	"iter"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubastard/rier/engine/colors"
	"github.com/hubastard/rier/engine/gfx"
	"github.com/hubastard/rier/engine/gfx/gfxtest"
)

// fakeWindow closes after ticks polls. events[i] is delivered on poll i.
type fakeWindow struct {
	w, h   int
	ticks  int
	polls  int
	events map[int][]Event
	title  string
}

func (f *fakeWindow) PollEvents() iter.Seq[Event] {
	evs := f.events[f.polls]
	f.polls++
	return slices.Values(evs)
}

func (f *fakeWindow) SwapBuffers()                {}
func (f *fakeWindow) ShouldClose() bool           { return f.polls >= f.ticks }
func (f *fakeWindow) FramebufferSize() (int, int) { return f.w, f.h }
func (f *fakeWindow) SetTitle(title string)       { f.title = title }

type recApp struct {
	started, stopped bool
	renders          int
	events           []Event
	renderErr        error
	onStart          func(e *Engine)
	onRender         func(e *Engine, f *gfx.Frame) error
}

func (a *recApp) OnStart(e *Engine) {
	a.started = true
	if a.onStart != nil {
		a.onStart(e)
	}
}
func (a *recApp) OnUpdate(*Engine, float64) {}
func (a *recApp) OnRender(e *Engine, f *gfx.Frame, _ float64) error {
	a.renders++
	if a.onRender != nil {
		return a.onRender(e, f)
	}
	return a.renderErr
}
func (a *recApp) OnEvent(_ *Engine, ev Event) { a.events = append(a.events, ev) }
func (a *recApp) OnShutdown(*Engine)          { a.stopped = true }

type recLayer struct {
	name     string
	attached bool
	detached bool
	renders  int
	events   []Event
	consume  bool
}

func (l *recLayer) OnAttach(*Engine)          { l.attached = true }
func (l *recLayer) OnDetach(*Engine)          { l.detached = true }
func (l *recLayer) OnUpdate(*Engine, float64) {}
func (l *recLayer) OnRender(*Engine, *gfx.Frame, float64) error {
	l.renders++
	return nil
}
func (l *recLayer) OnEvent(_ *Engine, ev Event) bool {
	l.events = append(l.events, ev)
	return l.consume
}

func testConfig(t *testing.T) Config {
	return Config{Title: "test", Width: 800, Height: 600, ClearColor: colors.Black, TextureRoot: t.TempDir()}
}

func run(t *testing.T, app App, win *fakeWindow) *gfxtest.Device {
	t.Helper()
	dev := gfxtest.NewDevice(win.w, win.h)
	err := Run(app, testConfig(t),
		func(Config) (Window, error) { return win, nil },
		func(Window, Config) (gfx.Device, error) { return dev, nil },
	)
	require.NoError(t, err)
	return dev
}

func TestRunPresentsOncePerTick(t *testing.T) {
	app := &recApp{}
	dev := run(t, app, &fakeWindow{w: 800, h: 600, ticks: 3})

	assert.True(t, app.started)
	assert.True(t, app.stopped)
	assert.Equal(t, 3, app.renders)
	assert.Len(t, dev.Presents, 3)
	assert.Len(t, dev.Clears, 3)
	assert.Equal(t, colors.Black, dev.Clears[0].Color)
}

func TestRunStopsOnCloseEvent(t *testing.T) {
	app := &recApp{}
	win := &fakeWindow{w: 800, h: 600, ticks: 10, events: map[int][]Event{
		1: {EventCloseRequested{}},
	}}
	dev := run(t, app, win)

	assert.Len(t, dev.Presents, 2, "the closing tick still renders")
	assert.Equal(t, []Event{EventCloseRequested{}}, app.events)
}

func TestRunRequestClose(t *testing.T) {
	app := &recApp{onRender: func(e *Engine, _ *gfx.Frame) error {
		e.RequestClose()
		return nil
	}}
	dev := run(t, app, &fakeWindow{w: 800, h: 600, ticks: 10})
	assert.Len(t, dev.Presents, 1)
}

func TestRunResizesDevice(t *testing.T) {
	win := &fakeWindow{w: 800, h: 600, ticks: 2, events: map[int][]Event{
		0: {EventResize{W: 1024, H: 768}},
	}}
	dev := run(t, &recApp{}, win)
	assert.Equal(t, [][2]int{{800, 600}, {800, 600}}, dev.Resizes)
}

func TestRunRenderErrorKeepsLooping(t *testing.T) {
	app := &recApp{renderErr: errors.New("boom")}
	dev := run(t, app, &fakeWindow{w: 800, h: 600, ticks: 4})
	assert.Equal(t, 4, app.renders)
	assert.Len(t, dev.Presents, 4)
}

func TestRunDrawsThroughFrame(t *testing.T) {
	app := &recApp{}
	app.onStart = func(e *Engine) {
		_, err := gfx.NewRenderer(e.Device, gfx.ShaderSource{VertexSrc: "v", FragmentSrc: "f"})
		require.NoError(t, err)
	}
	app.onRender = func(e *Engine, f *gfx.Frame) error {
		assert.True(t, e.Gfx.InFrame())
		w, h := f.Size()
		assert.Equal(t, [2]int{800, 600}, [2]int{w, h})
		return nil
	}
	run(t, app, &fakeWindow{w: 800, h: 600, ticks: 1})
	assert.Equal(t, 1, app.renders)
}

func TestRunLayers(t *testing.T) {
	bottom := &recLayer{name: "bottom"}
	top := &recLayer{name: "top", consume: true}
	app := &recApp{onStart: func(e *Engine) {
		e.PushLayer(bottom)
		e.PushLayer(top)
	}}
	key := EventKey{Key: KeySpace, Down: true}
	win := &fakeWindow{w: 800, h: 600, ticks: 2, events: map[int][]Event{0: {key}}}
	run(t, app, win)

	assert.True(t, bottom.attached && top.attached)
	assert.True(t, bottom.detached && top.detached)
	assert.Equal(t, 2, bottom.renders)
	assert.Equal(t, 2, top.renders)
	assert.Equal(t, []Event{key}, app.events)
	assert.Equal(t, []Event{key}, top.events)
	assert.Empty(t, bottom.events, "top layer consumed the key")
}

func TestRunWindowError(t *testing.T) {
	want := errors.New("no display")
	err := Run(&recApp{}, testConfig(t),
		func(Config) (Window, error) { return nil, want },
		func(Window, Config) (gfx.Device, error) { t.Fatal("device created without window"); return nil, nil },
	)
	assert.ErrorIs(t, err, want)
}
