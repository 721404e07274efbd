package gfx

import "fmt"

// Target is anything a draw call can be submitted to: a *Frame inside
// WithFrame or a mutable *FrameRef.
type Target interface {
	Draw(cmd DrawCmd) error
}

// Mesh pairs a vertex buffer with an optional index buffer.
type Mesh struct {
	dev       Device
	Vertices  Buffer
	Indices   Buffer
	Count     int // vertices, or indices when indexed
	Primitive Primitive
}

// NewMesh uploads a non-indexed triangle list.
func NewMesh(dev Device, vertices []float32, layout VertexLayout) (*Mesh, error) {
	n, err := vertexCount(vertices, layout)
	if err != nil {
		return nil, &MeshError{Part: "vertex", Err: err}
	}
	vb, err := dev.CreateVertexBuffer(vertices, layout)
	if err != nil {
		return nil, &MeshError{Part: "vertex", Err: err}
	}
	return &Mesh{dev: dev, Vertices: vb, Count: n, Primitive: Triangles}, nil
}

// NewIndexedMesh uploads vertices plus a triangle index list.
func NewIndexedMesh(dev Device, vertices []float32, layout VertexLayout, indices []uint32) (*Mesh, error) {
	if _, err := vertexCount(vertices, layout); err != nil {
		return nil, &MeshError{Part: "vertex", Err: err}
	}
	vb, err := dev.CreateVertexBuffer(vertices, layout)
	if err != nil {
		return nil, &MeshError{Part: "vertex", Err: err}
	}
	ib, err := dev.CreateIndexBuffer(indices)
	if err != nil {
		dev.DeleteBuffer(vb)
		return nil, &MeshError{Part: "index", Err: err}
	}
	return &Mesh{dev: dev, Vertices: vb, Indices: ib, Count: len(indices), Primitive: Triangles}, nil
}

func vertexCount(vertices []float32, layout VertexLayout) (int, error) {
	per := layout.Floats()
	if per == 0 {
		return 0, fmt.Errorf("layout stride %d", layout.Stride)
	}
	if len(vertices)%per != 0 {
		return 0, fmt.Errorf("%d floats is not a multiple of %d", len(vertices), per)
	}
	return len(vertices) / per, nil
}

func (m *Mesh) Indexed() bool { return m.Indices != 0 }

// Release frees the GPU buffers. The mesh must not be drawn afterwards.
func (m *Mesh) Release() {
	if m.Indices != 0 {
		m.dev.DeleteBuffer(m.Indices)
		m.Indices = 0
	}
	if m.Vertices != 0 {
		m.dev.DeleteBuffer(m.Vertices)
		m.Vertices = 0
	}
}
