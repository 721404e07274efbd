package main

import (
	"embed"
	"log/slog"
	"os"

	"github.com/hubastard/rier/engine/assets"
	"github.com/hubastard/rier/engine/core"
	"github.com/hubastard/rier/engine/gfx"
	glbackend "github.com/hubastard/rier/engine/gfx/gl"
	"github.com/hubastard/rier/engine/platform"
	"github.com/hubastard/rier/engine/scene"
)

//go:embed shaders
var shaderFS embed.FS

type App struct {
	triangle *gfx.Renderer
	sprites  *gfx.Renderer
	mesh     *gfx.Mesh
}

// pos2 + rgb3, in pixels around the origin.
var triangleLayout = gfx.VertexLayout{
	Stride: 5 * 4,
	Attributes: []gfx.VertexAttrib{
		{Location: 0, Size: 2, Type: gfx.AttribFloat32, Offset: 0},
		{Location: 1, Size: 3, Type: gfx.AttribFloat32, Offset: 2 * 4},
	},
}

var triangleVerts = []float32{
	0, -80, 1, 0, 0,
	-70, 40, 0, 1, 0,
	70, 40, 0, 0, 1,
}

func (a *App) OnStart(e *core.Engine) {
	src, err := assets.LoadShader(shaderFS, "shaders/triangle", gfx.DrawParams{})
	must(err)
	a.triangle, err = gfx.NewRenderer(e.Device, src)
	must(err)
	a.sprites, err = gfx.NewRenderer(e.Device, scene.SpriteShader)
	must(err)
	a.mesh, err = gfx.NewMesh(e.Device, triangleVerts, triangleLayout)
	must(err)

	e.PushLayer(&Layer2D{triangle: a.triangle, sprites: a.sprites, mesh: a.mesh})
	e.PushLayer(&LayerDebug{})
}

func (a *App) OnUpdate(e *core.Engine, dt float64) {}

func (a *App) OnRender(e *core.Engine, f *gfx.Frame, alpha float64) error { return nil }

func (a *App) OnEvent(e *core.Engine, ev core.Event) {}

func (a *App) OnShutdown(e *core.Engine) {
	a.mesh.Release()
	a.triangle.Release()
	a.sprites.Release()
}

// must aborts on setup errors; a shader that does not compile leaves
// nothing to draw.
func must(err error) {
	if err != nil {
		slog.Error("sandbox setup", "err", err)
		os.Exit(1)
	}
}

func main() {
	cfg := core.DefaultConfig()
	cfg.Title = "rier sandbox"
	cfg.WatchTextures = true
	if len(os.Args) > 1 {
		var err error
		cfg, err = core.LoadConfig(os.Args[1])
		must(err)
	}

	var win *platform.GLFWWindow
	newWindow := func(cfg core.Config) (core.Window, error) {
		w, err := platform.NewGLFWWindow(cfg)
		win = w
		return w, err
	}
	newDevice := func(w core.Window, cfg core.Config) (gfx.Device, error) {
		return glbackend.NewDeviceGL(w, cfg)
	}

	err := core.Run(&App{}, cfg, newWindow, newDevice)
	if win != nil {
		win.Destroy()
	}
	must(err)
}
