// Package gfx owns the render context: the GPU capability it drives, the
// single in-flight frame, and the mesh and program wrappers drawn into it.
package gfx

import "github.com/hubastard/rier/engine/colors"

// Opaque GPU object handles. Zero is never a valid handle.
type (
	Program uint32
	Buffer  uint32
	Texture uint32
	FrameID uint64
)

// Primitive selects how vertices are assembled.
type Primitive int

const (
	Triangles Primitive = iota
	TriangleStrip
	Lines
	Points
)

// AttribType is the component type of a vertex attribute.
type AttribType int

const (
	AttribFloat32 AttribType = iota
)

// VertexAttrib describes one attribute inside an interleaved vertex.
type VertexAttrib struct {
	Location uint32
	Size     int32 // components
	Type     AttribType
	Offset   int // bytes
}

type VertexLayout struct {
	Stride     int32 // bytes
	Attributes []VertexAttrib
}

// Floats reports how many float32 values make up one vertex.
func (l VertexLayout) Floats() int { return int(l.Stride) / 4 }

// RawImage is tightly packed RGBA8, bottom-left origin.
type RawImage struct {
	Width, Height int
	Pixels        []byte
}

// DrawParams carries the fixed-function state for a draw call.
type DrawParams struct {
	Blend     bool
	DepthTest bool
}

// DrawCmd is a single draw call. Indices is zero for non-indexed draws,
// in which case Count vertices are drawn.
type DrawCmd struct {
	Program   Program
	Vertices  Buffer
	Indices   Buffer
	Count     int
	Primitive Primitive
	Uniforms  map[string]any
	Samplers  map[string]Texture
	Params    DrawParams
}

// Device is the GPU surface capability the render context is built on.
// All methods are called from the thread that owns the GL context.
type Device interface {
	CompileProgram(vertexSrc, fragmentSrc, geometrySrc string) (Program, error)
	DeleteProgram(p Program)

	CreateVertexBuffer(vertices []float32, layout VertexLayout) (Buffer, error)
	CreateIndexBuffer(indices []uint32) (Buffer, error)
	DeleteBuffer(b Buffer)

	CreateTexture(img RawImage) (Texture, error)
	DeleteTexture(t Texture)

	BeginFrame() (FrameID, error)
	Clear(f FrameID, c colors.Color, depth float32)
	Draw(f FrameID, cmd DrawCmd) error
	Present(f FrameID) error

	FramebufferSize() (int, int)
	Resize(w, h int)
}
