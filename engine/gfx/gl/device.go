package glbackend

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/hubastard/rier/engine/colors"
	"github.com/hubastard/rier/engine/core"
	"github.com/hubastard/rier/engine/gfx"
	"github.com/hubastard/rier/engine/logging"
)

type vertexBuffer struct {
	vao, vbo uint32
}

// DeviceGL implements gfx.Device on an OpenGL 3.3 core context. The
// context must already be current on the calling thread.
type DeviceGL struct {
	win     core.Window
	vbufs   map[gfx.Buffer]vertexBuffer
	ibufs   map[gfx.Buffer]uint32
	nextBuf gfx.Buffer
	frame   gfx.FrameID
	locs    map[gfx.Program]map[string]int32
}

func NewDeviceGL(win core.Window, _ core.Config) (*DeviceGL, error) {
	d := &DeviceGL{
		win:   win,
		vbufs: map[gfx.Buffer]vertexBuffer{},
		ibufs: map[gfx.Buffer]uint32{},
		locs:  map[gfx.Program]map[string]int32{},
	}
	logging.Logger().Info("gl device",
		"version", gl.GoStr(gl.GetString(gl.VERSION)),
		"renderer", gl.GoStr(gl.GetString(gl.RENDERER)))
	w, h := win.FramebufferSize()
	d.Resize(w, h)
	return d, nil
}

func (d *DeviceGL) CompileProgram(vsSrc, fsSrc, gsSrc string) (gfx.Program, error) {
	stages := []struct {
		name string
		src  string
		typ  uint32
	}{
		{"vertex", vsSrc, gl.VERTEX_SHADER},
		{"fragment", fsSrc, gl.FRAGMENT_SHADER},
		{"geometry", gsSrc, gl.GEOMETRY_SHADER},
	}

	var shaders []uint32
	defer func() {
		for _, sh := range shaders {
			gl.DeleteShader(sh)
		}
	}()
	for _, st := range stages {
		if st.src == "" {
			continue
		}
		sh, err := makeShader(st.name, st.src, st.typ)
		if err != nil {
			return 0, err
		}
		shaders = append(shaders, sh)
	}

	prog := gl.CreateProgram()
	for _, sh := range shaders {
		gl.AttachShader(prog, sh)
	}
	gl.LinkProgram(prog)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(log))
		gl.DeleteProgram(prog)
		return 0, &gfx.CompileError{Stage: "link", Log: strings.TrimRight(log, "\x00")}
	}
	return gfx.Program(prog), nil
}

func (d *DeviceGL) DeleteProgram(p gfx.Program) {
	delete(d.locs, p)
	gl.DeleteProgram(uint32(p))
}

func (d *DeviceGL) CreateVertexBuffer(verts []float32, layout gfx.VertexLayout) (gfx.Buffer, error) {
	if len(verts) == 0 {
		return 0, errors.New("empty vertex data")
	}
	var vb vertexBuffer
	gl.GenVertexArrays(1, &vb.vao)
	gl.BindVertexArray(vb.vao)

	gl.GenBuffers(1, &vb.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, vb.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, gl.Ptr(verts), gl.STATIC_DRAW)

	for _, a := range layout.Attributes {
		gl.EnableVertexAttribArray(a.Location)
		gl.VertexAttribPointer(a.Location, a.Size, attribType(a.Type), false, layout.Stride, gl.PtrOffset(a.Offset))
	}

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	if err := glError(); err != nil {
		gl.DeleteBuffers(1, &vb.vbo)
		gl.DeleteVertexArrays(1, &vb.vao)
		return 0, err
	}

	d.nextBuf++
	d.vbufs[d.nextBuf] = vb
	return d.nextBuf, nil
}

func (d *DeviceGL) CreateIndexBuffer(indices []uint32) (gfx.Buffer, error) {
	if len(indices) == 0 {
		return 0, errors.New("empty index data")
	}
	var ebo uint32
	gl.GenBuffers(1, &ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, 0)
	if err := glError(); err != nil {
		gl.DeleteBuffers(1, &ebo)
		return 0, err
	}

	d.nextBuf++
	d.ibufs[d.nextBuf] = ebo
	return d.nextBuf, nil
}

func (d *DeviceGL) DeleteBuffer(b gfx.Buffer) {
	if vb, ok := d.vbufs[b]; ok {
		gl.DeleteBuffers(1, &vb.vbo)
		gl.DeleteVertexArrays(1, &vb.vao)
		delete(d.vbufs, b)
	}
	if ebo, ok := d.ibufs[b]; ok {
		gl.DeleteBuffers(1, &ebo)
		delete(d.ibufs, b)
	}
}

func (d *DeviceGL) CreateTexture(img gfx.RawImage) (gfx.Texture, error) {
	if len(img.Pixels) != img.Width*img.Height*4 {
		return 0, fmt.Errorf("texture %dx%d: got %d bytes", img.Width, img.Height, len(img.Pixels))
	}
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(img.Width), int32(img.Height), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pixels))
	gl.BindTexture(gl.TEXTURE_2D, 0)
	if err := glError(); err != nil {
		gl.DeleteTextures(1, &tex)
		return 0, err
	}
	return gfx.Texture(tex), nil
}

func (d *DeviceGL) DeleteTexture(t gfx.Texture) {
	tex := uint32(t)
	gl.DeleteTextures(1, &tex)
}

func (d *DeviceGL) BeginFrame() (gfx.FrameID, error) {
	d.frame++
	return d.frame, nil
}

func (d *DeviceGL) Clear(_ gfx.FrameID, c colors.Color, depth float32) {
	gl.ClearColor(c.RGBA())
	gl.ClearDepth(float64(depth))
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

func (d *DeviceGL) Draw(_ gfx.FrameID, cmd gfx.DrawCmd) error {
	vb, ok := d.vbufs[cmd.Vertices]
	if !ok {
		return fmt.Errorf("unknown vertex buffer %d", cmd.Vertices)
	}

	if cmd.Params.Blend {
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	} else {
		gl.Disable(gl.BLEND)
	}
	if cmd.Params.DepthTest {
		gl.Enable(gl.DEPTH_TEST)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}

	gl.UseProgram(uint32(cmd.Program))
	defer gl.UseProgram(0)

	for name, v := range cmd.Uniforms {
		if err := d.setUniform(cmd.Program, name, v); err != nil {
			return err
		}
	}
	unit := int32(0)
	for name, tex := range cmd.Samplers {
		gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
		gl.BindTexture(gl.TEXTURE_2D, uint32(tex))
		gl.Uniform1i(d.location(cmd.Program, name), unit)
		unit++
	}

	gl.BindVertexArray(vb.vao)
	defer gl.BindVertexArray(0)
	mode := primitive(cmd.Primitive)
	if cmd.Indices != 0 {
		ebo, ok := d.ibufs[cmd.Indices]
		if !ok {
			return fmt.Errorf("unknown index buffer %d", cmd.Indices)
		}
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ebo)
		gl.DrawElements(mode, int32(cmd.Count), gl.UNSIGNED_INT, gl.PtrOffset(0))
	} else {
		gl.DrawArrays(mode, 0, int32(cmd.Count))
	}
	return glError()
}

func (d *DeviceGL) Present(gfx.FrameID) error {
	d.win.SwapBuffers()
	return glError()
}

func (d *DeviceGL) FramebufferSize() (int, int) { return d.win.FramebufferSize() }

func (d *DeviceGL) Resize(w, h int) {
	gl.Viewport(0, 0, int32(w), int32(h))
}

func (d *DeviceGL) location(p gfx.Program, name string) int32 {
	m := d.locs[p]
	if m == nil {
		m = map[string]int32{}
		d.locs[p] = m
	}
	if loc, ok := m[name]; ok {
		return loc
	}
	loc := gl.GetUniformLocation(uint32(p), gl.Str(name+"\x00"))
	m[name] = loc
	return loc
}

func (d *DeviceGL) setUniform(p gfx.Program, name string, v any) error {
	loc := d.location(p, name)
	if loc < 0 {
		// Optimized out by the driver; not an error.
		return nil
	}
	switch u := v.(type) {
	case float32:
		gl.Uniform1f(loc, u)
	case int32:
		gl.Uniform1i(loc, u)
	case int:
		gl.Uniform1i(loc, int32(u))
	case mgl32.Vec2:
		gl.Uniform2f(loc, u[0], u[1])
	case mgl32.Vec3:
		gl.Uniform3f(loc, u[0], u[1], u[2])
	case mgl32.Vec4:
		gl.Uniform4f(loc, u[0], u[1], u[2], u[3])
	case colors.Color:
		gl.Uniform4f(loc, u[0], u[1], u[2], u[3])
	case mgl32.Mat4:
		gl.UniformMatrix4fv(loc, 1, false, &u[0])
	case [16]float32:
		gl.UniformMatrix4fv(loc, 1, false, &u[0])
	default:
		return fmt.Errorf("uniform %q: unsupported type %T", name, v)
	}
	return nil
}

func makeShader(stage, src string, shaderType uint32) (uint32, error) {
	if !strings.HasSuffix(src, "\x00") {
		src += "\x00"
	}
	sh := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src)
	defer free()
	gl.ShaderSource(sh, 1, csrc, nil)
	gl.CompileShader(sh)

	var status int32
	gl.GetShaderiv(sh, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(sh, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen))
		gl.GetShaderInfoLog(sh, logLen, nil, gl.Str(log))
		gl.DeleteShader(sh)
		return 0, &gfx.CompileError{Stage: stage, Log: strings.TrimRight(log, "\x00")}
	}
	return sh, nil
}

func attribType(t gfx.AttribType) uint32 {
	switch t {
	case gfx.AttribFloat32:
		return gl.FLOAT
	default:
		return gl.FLOAT
	}
}

func primitive(p gfx.Primitive) uint32 {
	switch p {
	case gfx.TriangleStrip:
		return gl.TRIANGLE_STRIP
	case gfx.Lines:
		return gl.LINES
	case gfx.Points:
		return gl.POINTS
	default:
		return gl.TRIANGLES
	}
}

func glError() error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("gl error 0x%x", code)
	}
	return nil
}
