// Package gfxtest provides a recording gfx.Device for tests.
package gfxtest

import (
	"errors"
	"sync"

	"github.com/hubastard/rier/engine/colors"
	"github.com/hubastard/rier/engine/gfx"
)

// Clear records one Clear call.
type Clear struct {
	Frame gfx.FrameID
	Color colors.Color
	Depth float32
}

// Draw records one Draw call.
type Draw struct {
	Frame gfx.FrameID
	Cmd   gfx.DrawCmd
}

// Device records every call. Set the *Err fields to make the matching call
// fail. The zero value is not usable; call NewDevice.
type Device struct {
	mu sync.Mutex

	Width, Height int

	CompileErr error
	VertexErr  error
	IndexErr   error
	TextureErr error
	BeginErr   error
	DrawErr    error
	PresentErr error

	Programs      map[gfx.Program][3]string
	VertexBuffers map[gfx.Buffer][]float32
	IndexBuffers  map[gfx.Buffer][]uint32
	Textures      map[gfx.Texture]gfx.RawImage

	Begun    []gfx.FrameID
	Clears   []Clear
	Draws    []Draw
	Presents []gfx.FrameID
	Deleted  []gfx.Texture
	Resizes  [][2]int

	next uint32
	now  gfx.FrameID
}

func NewDevice(w, h int) *Device {
	return &Device{
		Width:         w,
		Height:        h,
		Programs:      map[gfx.Program][3]string{},
		VertexBuffers: map[gfx.Buffer][]float32{},
		IndexBuffers:  map[gfx.Buffer][]uint32{},
		Textures:      map[gfx.Texture]gfx.RawImage{},
	}
}

func (d *Device) id() uint32 {
	d.next++
	return d.next
}

func (d *Device) CompileProgram(vs, fs, gs string) (gfx.Program, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.CompileErr != nil {
		return 0, d.CompileErr
	}
	p := gfx.Program(d.id())
	d.Programs[p] = [3]string{vs, fs, gs}
	return p, nil
}

func (d *Device) DeleteProgram(p gfx.Program) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.Programs, p)
}

func (d *Device) CreateVertexBuffer(vertices []float32, _ gfx.VertexLayout) (gfx.Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.VertexErr != nil {
		return 0, d.VertexErr
	}
	b := gfx.Buffer(d.id())
	d.VertexBuffers[b] = append([]float32(nil), vertices...)
	return b, nil
}

func (d *Device) CreateIndexBuffer(indices []uint32) (gfx.Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.IndexErr != nil {
		return 0, d.IndexErr
	}
	b := gfx.Buffer(d.id())
	d.IndexBuffers[b] = append([]uint32(nil), indices...)
	return b, nil
}

func (d *Device) DeleteBuffer(b gfx.Buffer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.VertexBuffers, b)
	delete(d.IndexBuffers, b)
}

func (d *Device) CreateTexture(img gfx.RawImage) (gfx.Texture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.TextureErr != nil {
		return 0, d.TextureErr
	}
	t := gfx.Texture(d.id())
	d.Textures[t] = img
	return t, nil
}

func (d *Device) DeleteTexture(t gfx.Texture) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.Textures, t)
	d.Deleted = append(d.Deleted, t)
}

func (d *Device) BeginFrame() (gfx.FrameID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.BeginErr != nil {
		return 0, d.BeginErr
	}
	d.now++
	d.Begun = append(d.Begun, d.now)
	return d.now, nil
}

func (d *Device) Clear(f gfx.FrameID, c colors.Color, depth float32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Clears = append(d.Clears, Clear{Frame: f, Color: c, Depth: depth})
}

func (d *Device) Draw(f gfx.FrameID, cmd gfx.DrawCmd) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.DrawErr != nil {
		return d.DrawErr
	}
	if _, ok := d.Programs[cmd.Program]; !ok {
		return errors.New("gfxtest: unknown program")
	}
	if _, ok := d.VertexBuffers[cmd.Vertices]; !ok {
		return errors.New("gfxtest: unknown vertex buffer")
	}
	d.Draws = append(d.Draws, Draw{Frame: f, Cmd: cmd})
	return nil
}

func (d *Device) Present(f gfx.FrameID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.PresentErr != nil {
		return d.PresentErr
	}
	d.Presents = append(d.Presents, f)
	return nil
}

func (d *Device) FramebufferSize() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Width, d.Height
}

func (d *Device) Resize(w, h int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Width, d.Height = w, h
	d.Resizes = append(d.Resizes, [2]int{w, h})
}

// LiveTextures reports how many textures are currently allocated.
func (d *Device) LiveTextures() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Textures)
}
