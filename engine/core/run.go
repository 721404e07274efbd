package core

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/hubastard/rier/engine/assets"
	"github.com/hubastard/rier/engine/event"
	"github.com/hubastard/rier/engine/gfx"
	"github.com/hubastard/rier/engine/logging"
)

const (
	tick    = time.Second / 60
	maxStep = 10 // prevent spiral of death
)

// Run wires the platform window + device and executes the main loop.
func Run(app App, cfg Config, newWindow func(Config) (Window, error), newDevice func(Window, Config) (gfx.Device, error)) error {
	// Graphics contexts require the main OS thread.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if cfg.LogLevel != "" {
		lvl, err := ParseLogLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
	}
	log := logging.Logger()

	win, err := newWindow(cfg)
	if err != nil {
		return fmt.Errorf("window: %w", err)
	}
	dev, err := newDevice(win, cfg)
	if err != nil {
		return fmt.Errorf("device: %w", err)
	}
	w, h := win.FramebufferSize()
	dev.Resize(w, h)

	eng := &Engine{
		Window:   win,
		Device:   dev,
		Gfx:      gfx.NewContext(dev, cfg.ClearColor),
		Textures: assets.NewTextureManager(dev, assets.Options{Root: cfg.TextureRoot, Queue: cfg.TextureQueue}),
		Events:   event.NewNotifier[Event](),
		Input:    NewInput(),
		Layers:   &LayerStack{},
		start:    time.Now(),
	}
	defer func() {
		if err := eng.Textures.Close(); err != nil {
			log.Warn("textures close", "err", err)
		}
	}()
	if cfg.WatchTextures {
		eng.Watcher, err = assets.WatchTree(cfg.TextureRoot)
		if err != nil {
			log.Warn("texture watch disabled", "root", cfg.TextureRoot, "err", err)
		} else {
			defer eng.Watcher.Close()
		}
	}

	eng.Events.Register(eng.Input)
	eng.Events.RegisterFunc(func(ev *Event) event.Result {
		switch (*ev).(type) {
		case EventResize:
			fw, fh := win.FramebufferSize()
			if fw >= 1 && fh >= 1 {
				dev.Resize(fw, fh)
			}
		case EventCloseRequested:
			eng.RequestClose()
		}
		return event.Continue
	})
	eng.Events.RegisterFunc(func(ev *Event) event.Result {
		app.OnEvent(eng, *ev)
		eng.Layers.ForEachReverse(func(l Layer) bool { return l.OnEvent(eng, *ev) })
		return event.Continue
	})

	app.OnStart(eng)
	log.Info("engine start", "width", w, "height", h)

	// Fixed-timestep (60 Hz) with interpolation
	var (
		accum time.Duration
		prev  = time.Now()
	)
	for !win.ShouldClose() && !eng.closing {
		now := time.Now()
		accum += now.Sub(prev)
		prev = now

		for ev := range win.PollEvents() {
			eng.Events.Notify(ev)
		}

		steps := 0
		for accum >= tick && steps < maxStep {
			dt := float64(tick) / float64(time.Second)
			app.OnUpdate(eng, dt)
			eng.Layers.ForEach(func(l Layer) { l.OnUpdate(eng, dt) })
			accum -= tick
			steps++
		}
		if steps == maxStep {
			accum = 0
		}
		alpha := float64(accum) / float64(tick)

		for _, err := range eng.Textures.DrainCompleted() {
			log.Warn("texture load", "err", err)
		}
		if eng.Watcher != nil {
			eng.Watcher.Apply(eng.Textures)
		}

		err := eng.Gfx.WithFrame(func(f *gfx.Frame) error {
			errs := []error{app.OnRender(eng, f, alpha)}
			eng.Layers.ForEach(func(l Layer) { errs = append(errs, l.OnRender(eng, f, alpha)) })
			return errors.Join(errs...)
		})
		if err != nil {
			log.Error("frame", "err", err)
		}
	}

	app.OnShutdown(eng)
	for {
		if _, ok := eng.PopLayer(); !ok {
			break
		}
	}
	log.Info("engine exit", "uptime", eng.Uptime(), "frames", eng.Gfx.Presents())
	return nil
}
