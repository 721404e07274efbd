package gfx

import (
	"errors"
	"fmt"
)

var (
	ErrNoFrame         = errors.New("gfx: no frame in progress")
	ErrFrameInProgress = errors.New("gfx: frame already in progress")
	ErrStaleFrame      = errors.New("gfx: frame is not the current frame")
	ErrFrameBorrowed   = errors.New("gfx: frame is borrowed")
	ErrFrameEnded      = errors.New("gfx: frame already ended")
	ErrReadOnlyFrame   = errors.New("gfx: frame borrowed read-only")
	ErrReleased        = errors.New("gfx: frame borrow already released")
)

// LifecycleError is the panic value for frame misuse: a second StartFrame,
// an EndFrame without a frame, or ending while borrows are outstanding.
type LifecycleError struct {
	Op  string
	Err error
}

func (e *LifecycleError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *LifecycleError) Unwrap() error { return e.Err }

// CompileError is returned when a shader program fails to compile or link.
type CompileError struct {
	Stage string // "vertex", "fragment", "geometry" or "link"
	Log   string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("gfx: %s shader: %s", e.Stage, e.Log)
}

// MeshError reports which buffer of a mesh could not be created.
type MeshError struct {
	Part string // "vertex" or "index"
	Err  error
}

func (e *MeshError) Error() string { return "gfx: create " + e.Part + " buffer: " + e.Err.Error() }
func (e *MeshError) Unwrap() error { return e.Err }

// DrawError wraps a failed draw call.
type DrawError struct {
	Frame FrameID
	Err   error
}

func (e *DrawError) Error() string { return fmt.Sprintf("gfx: draw (frame %d): %v", e.Frame, e.Err) }
func (e *DrawError) Unwrap() error { return e.Err }

// PresentError wraps a failed present, typically a lost context.
type PresentError struct {
	Frame FrameID
	Err   error
}

func (e *PresentError) Error() string {
	return fmt.Sprintf("gfx: present (frame %d): %v", e.Frame, e.Err)
}
func (e *PresentError) Unwrap() error { return e.Err }
