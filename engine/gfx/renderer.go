package gfx

// Shader supplies the program sources and fixed-function state a Renderer
// is built from.
type Shader interface {
	Vertex() string
	Fragment() string
	Geometry() string // empty when unused
	DrawParams() DrawParams
}

// ShaderSource is a plain Shader value.
type ShaderSource struct {
	VertexSrc, FragmentSrc, GeometrySrc string
	Params                              DrawParams
}

func (s ShaderSource) Vertex() string         { return s.VertexSrc }
func (s ShaderSource) Fragment() string       { return s.FragmentSrc }
func (s ShaderSource) Geometry() string       { return s.GeometrySrc }
func (s ShaderSource) DrawParams() DrawParams { return s.Params }

// AlphaBlending is the default draw state.
var AlphaBlending = DrawParams{Blend: true}

// Renderer is a compiled program plus the draw state used with it.
type Renderer struct {
	dev     Device
	program Program
	params  DrawParams
}

// NewRenderer compiles sh. A failure is a *CompileError when the device
// reports one.
func NewRenderer(dev Device, sh Shader) (*Renderer, error) {
	p, err := dev.CompileProgram(sh.Vertex(), sh.Fragment(), sh.Geometry())
	if err != nil {
		return nil, err
	}
	return &Renderer{dev: dev, program: p, params: sh.DrawParams()}, nil
}

func (r *Renderer) Device() Device   { return r.dev }
func (r *Renderer) Program() Program { return r.program }

// Draw submits mesh with the given uniforms and samplers to t.
func (r *Renderer) Draw(t Target, mesh *Mesh, uniforms map[string]any, samplers map[string]Texture) error {
	return t.Draw(DrawCmd{
		Program:   r.program,
		Vertices:  mesh.Vertices,
		Indices:   mesh.Indices,
		Count:     mesh.Count,
		Primitive: mesh.Primitive,
		Uniforms:  uniforms,
		Samplers:  samplers,
		Params:    r.params,
	})
}

func (r *Renderer) Release() {
	if r.program != 0 {
		r.dev.DeleteProgram(r.program)
		r.program = 0
	}
}
