package main

import (
	"fmt"
	"runtime"
	"time"

	"github.com/hubastard/rier/engine/core"
	"github.com/hubastard/rier/engine/gfx"
	"github.com/hubastard/rier/engine/logging"
)

// LayerDebug puts frame and texture counters in the window title once a
// second. Ctrl+P logs them.
type LayerDebug struct {
	last    time.Time
	frames  int
	ticks   int
	fps     float64
	summary string
}

func (l *LayerDebug) OnAttach(e *core.Engine) { l.last = time.Now() }

func (l *LayerDebug) OnDetach(e *core.Engine) {}

func (l *LayerDebug) OnUpdate(e *core.Engine, dt float64) { l.ticks++ }

func (l *LayerDebug) OnRender(e *core.Engine, f *gfx.Frame, alpha float64) error {
	l.frames++
	if since := time.Since(l.last); since >= time.Second {
		l.fps = float64(l.frames) / since.Seconds()
		l.frames = 0
		l.last = time.Now()

		st := e.Textures.Stats()
		l.summary = fmt.Sprintf("%.1f FPS | frame %d | tick %d | textures %d live, %d pending, %d loading",
			l.fps, f.ID(), l.ticks, st.Live, st.Pending, st.Loading)
		e.Window.SetTitle("rier sandbox | " + l.summary)
	}
	return nil
}

func (l *LayerDebug) OnEvent(e *core.Engine, ev core.Event) bool {
	if v, ok := ev.(core.EventKey); ok && v.Down && v.Key == core.KeyP && v.Mods&core.ModCtrl != 0 {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		logging.Logger().Info("stats",
			"summary", l.summary,
			"presents", e.Gfx.Presents(),
			"uptime", e.Uptime().Round(time.Second),
			"heap_mb", float64(m.Alloc)/(1<<20),
			"goroutines", runtime.NumGoroutine())
		return true
	}
	return false
}
