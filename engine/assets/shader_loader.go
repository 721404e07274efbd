package assets

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/hubastard/rier/engine/gfx"
)

// LoadShader reads name.vert, name.frag and, if present, name.geom from
// fsys into a gfx.ShaderSource drawn with params.
func LoadShader(fsys fs.FS, name string, params gfx.DrawParams) (gfx.ShaderSource, error) {
	vs, err := fs.ReadFile(fsys, name+".vert")
	if err != nil {
		return gfx.ShaderSource{}, fmt.Errorf("load shader %q: %w", name, err)
	}
	fsrc, err := fs.ReadFile(fsys, name+".frag")
	if err != nil {
		return gfx.ShaderSource{}, fmt.Errorf("load shader %q: %w", name, err)
	}
	gs, err := fs.ReadFile(fsys, name+".geom")
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return gfx.ShaderSource{}, fmt.Errorf("load shader %q: %w", name, err)
	}
	return gfx.ShaderSource{
		VertexSrc:   string(vs),
		FragmentSrc: string(fsrc),
		GeometrySrc: string(gs),
		Params:      params,
	}, nil
}
