package gfx

import (
	"errors"
	"fmt"

	"github.com/hubastard/rier/engine/colors"
	"github.com/hubastard/rier/engine/logging"
)

// Context owns the device and at most one in-flight Frame.
//
// A frame is started with StartFrame, which hands back the frame as a token,
// and finished by passing that token to EndFrame. Starting twice, ending
// without a frame, or ending while a FrameRef is still held are caller bugs:
// they are logged and then panic with a *LifecycleError.
type Context struct {
	dev      Device
	clear    colors.Color
	cur      *Frame
	presents int
}

func NewContext(dev Device, clear colors.Color) *Context {
	return &Context{dev: dev, clear: clear}
}

func (c *Context) Device() Device { return c.dev }

func (c *Context) ClearColor() colors.Color       { return c.clear }
func (c *Context) SetClearColor(col colors.Color) { c.clear = col }

// InFrame reports whether a frame is in progress.
func (c *Context) InFrame() bool { return c.cur != nil }

// Presents counts frames that were presented successfully.
func (c *Context) Presents() int { return c.presents }

// FramebufferSize is the current drawable size in pixels.
func (c *Context) FramebufferSize() (int, int) { return c.dev.FramebufferSize() }

// StartFrame begins a new frame. The frame is not cleared.
func (c *Context) StartFrame() (*Frame, error) {
	if c.cur != nil {
		c.misuse("StartFrame", ErrFrameInProgress)
	}
	id, err := c.dev.BeginFrame()
	if err != nil {
		return nil, fmt.Errorf("gfx: begin frame: %w", err)
	}
	f := &Frame{ctx: c, id: id}
	c.cur = f
	return f, nil
}

// EndFrame presents f and empties the frame slot. The slot is emptied even
// when presenting fails; the failure is returned as a *PresentError.
func (c *Context) EndFrame(f *Frame) error {
	switch {
	case c.cur == nil:
		c.misuse("EndFrame", ErrNoFrame)
	case f != c.cur:
		c.misuse("EndFrame", ErrStaleFrame)
	case f.shared > 0 || f.exclusive:
		// Drop the frame unpresented so a recovering caller can start over.
		c.cur = nil
		f.ended = true
		c.misuse("EndFrame", ErrFrameBorrowed)
	}

	c.cur = nil
	f.ended = true
	if err := c.dev.Present(f.id); err != nil {
		return &PresentError{Frame: f.id, Err: err}
	}
	c.presents++
	return nil
}

// WithFrame runs one full frame: start, clear to the clear colour and depth
// 1, draw, present. Draw and present failures are joined and returned; the
// frame is always ended so the next call starts clean.
func (c *Context) WithFrame(draw func(f *Frame) error) error {
	f, err := c.StartFrame()
	if err != nil {
		return err
	}
	f.Clear(c.clear, 1)

	drawErr := c.run(f, draw)
	return errors.Join(drawErr, c.EndFrame(f))
}

func (c *Context) run(f *Frame, draw func(f *Frame) error) error {
	defer func() {
		if r := recover(); r != nil {
			// Leave the context idle so the caller can recover and keep going.
			c.cur = nil
			f.ended = true
			panic(r)
		}
	}()
	return draw(f)
}

// Frame borrows the current frame read-only. It fails with ErrNoFrame when
// idle and ErrFrameBorrowed while an exclusive borrow is held.
func (c *Context) Frame() (*FrameRef, error) {
	if c.cur == nil {
		return nil, ErrNoFrame
	}
	if c.cur.exclusive {
		return nil, ErrFrameBorrowed
	}
	c.cur.shared++
	return &FrameRef{f: c.cur}, nil
}

// FrameMut borrows the current frame for drawing. It fails with ErrNoFrame
// when idle and ErrFrameBorrowed while any other borrow is held.
func (c *Context) FrameMut() (*FrameRef, error) {
	if c.cur == nil {
		return nil, ErrNoFrame
	}
	if c.cur.exclusive || c.cur.shared > 0 {
		return nil, ErrFrameBorrowed
	}
	c.cur.exclusive = true
	return &FrameRef{f: c.cur, mut: true}, nil
}

func (c *Context) misuse(op string, err error) {
	logging.Logger().Error("frame lifecycle misuse", "op", op, "err", err)
	panic(&LifecycleError{Op: op, Err: err})
}

// Frame is the render target for one draw cycle.
type Frame struct {
	ctx       *Context
	id        FrameID
	shared    int
	exclusive bool
	ended     bool
}

func (f *Frame) ID() FrameID { return f.id }

func (f *Frame) Size() (int, int) { return f.ctx.dev.FramebufferSize() }

// Clear fills colour and depth. Clearing an ended frame is ignored.
func (f *Frame) Clear(c colors.Color, depth float32) {
	if f.ended {
		logging.Logger().Warn("clear on ended frame", "frame", f.id)
		return
	}
	f.ctx.dev.Clear(f.id, c, depth)
}

func (f *Frame) Draw(cmd DrawCmd) error {
	if f.ended {
		return ErrFrameEnded
	}
	if err := f.ctx.dev.Draw(f.id, cmd); err != nil {
		return &DrawError{Frame: f.id, Err: err}
	}
	return nil
}

// FrameRef is a borrow of the current frame handed to components that draw
// outside a WithFrame closure. It must be released before EndFrame.
type FrameRef struct {
	f        *Frame
	mut      bool
	released bool
}

func (r *FrameRef) ID() FrameID { return r.f.id }

func (r *FrameRef) Size() (int, int) { return r.f.Size() }

// Mutable reports whether the borrow allows drawing.
func (r *FrameRef) Mutable() bool { return r.mut }

func (r *FrameRef) Draw(cmd DrawCmd) error {
	if err := r.check(); err != nil {
		return err
	}
	return r.f.Draw(cmd)
}

func (r *FrameRef) Clear(c colors.Color, depth float32) error {
	if err := r.check(); err != nil {
		return err
	}
	r.f.Clear(c, depth)
	return nil
}

func (r *FrameRef) check() error {
	if r.released {
		return ErrReleased
	}
	if !r.mut {
		return ErrReadOnlyFrame
	}
	return nil
}

// Release returns the borrow. Releasing twice is a no-op.
func (r *FrameRef) Release() {
	if r.released {
		return
	}
	r.released = true
	if r.mut {
		r.f.exclusive = false
	} else {
		r.f.shared--
	}
}
