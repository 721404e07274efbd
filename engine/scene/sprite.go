package scene

import (
	_ "embed"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/hubastard/rier/engine/assets"
	"github.com/hubastard/rier/engine/cache"
	"github.com/hubastard/rier/engine/gfx"
)

var (
	//go:embed shaders/sprite.vert
	spriteVert string
	//go:embed shaders/sprite.frag
	spriteFrag string
)

// SpriteShader is the program sprites are drawn with.
var SpriteShader = gfx.ShaderSource{
	VertexSrc:   spriteVert,
	FragmentSrc: spriteFrag,
	Params:      gfx.AlphaBlending,
}

// Vertex: pos2 + uv2.
var spriteLayout = gfx.VertexLayout{
	Stride: 4 * 4,
	Attributes: []gfx.VertexAttrib{
		{Location: 0, Size: 2, Type: gfx.AttribFloat32, Offset: 0},
		{Location: 1, Size: 2, Type: gfx.AttribFloat32, Offset: 2 * 4},
	},
}

// Rect is a pixel rectangle inside a texture, top-left origin.
type Rect struct {
	X, Y, W, H int
}

type builtMesh struct {
	mesh   *gfx.Mesh
	err    error
	tw, th int // texture size the UVs were computed from
}

// Sprite is a textured quad with its own Transform. Sprites may share a
// texture; each holds its own reference.
type Sprite struct {
	Transform *Transform
	Opacity   float32

	tex  *assets.TextureRef
	rect Rect
	w, h float32
	mesh cache.Lazy[builtMesh]
}

// NewSprite draws rect of tex as a w by h quad. The sprite takes its own
// reference to tex; the caller keeps theirs.
func NewSprite(tex *assets.TextureRef, rect Rect, w, h float32) *Sprite {
	return &Sprite{
		Transform: NewTransform(),
		Opacity:   1,
		tex:       tex.Clone(),
		rect:      rect,
		w:         w,
		h:         h,
	}
}

func (s *Sprite) Texture() *assets.TextureRef { return s.tex }

func (s *Sprite) Size() (w, h float32) { return s.w, s.h }

// SetSize resizes the quad; the mesh is rebuilt on the next Render.
func (s *Sprite) SetSize(w, h float32) {
	s.w, s.h = w, h
	s.dropMesh()
}

// SetRect selects a different region of the texture.
func (s *Sprite) SetRect(r Rect) {
	s.rect = r
	s.dropMesh()
}

func (s *Sprite) dropMesh() {
	if b, ok := s.mesh.Take(); ok && b.mesh != nil {
		b.mesh.Release()
	}
}

// Render draws the sprite with r, which must be built from SpriteShader
// (or a compatible program).
func (s *Sprite) Render(t gfx.Target, r *gfx.Renderer, camera mgl32.Mat4) error {
	tw, th := s.tex.Size()
	if b, ok := s.mesh.Peek(); ok && (b.tw != tw || b.th != th) {
		// The texture was reloaded at a different size.
		s.dropMesh()
	}
	b := s.mesh.Get(func() builtMesh {
		m, err := gfx.NewMesh(r.Device(), s.vertices(tw, th), spriteLayout)
		return builtMesh{mesh: m, err: err, tw: tw, th: th}
	})
	if b.err != nil {
		s.mesh.Dirty()
		return b.err
	}
	return r.Draw(t, b.mesh,
		map[string]any{
			"uCamera":    camera,
			"uTransform": s.Transform.Matrix(),
			"uOpacity":   s.Opacity,
		},
		map[string]gfx.Texture{"uTex": s.tex.Texture()},
	)
}

// vertices builds two triangles covering (0,0)-(w,h). Texture rows are
// stored bottom-up, so v is flipped.
func (s *Sprite) vertices(tw, th int) []float32 {
	if tw == 0 || th == 0 {
		tw, th = 1, 1
	}
	u0 := float32(s.rect.X) / float32(tw)
	u1 := float32(s.rect.X+s.rect.W) / float32(tw)
	v0 := 1 - float32(s.rect.Y)/float32(th)
	v1 := 1 - float32(s.rect.Y+s.rect.H)/float32(th)
	w, h := s.w, s.h
	return []float32{
		0, h, u0, v1,
		0, 0, u0, v0,
		w, 0, u1, v0,
		w, 0, u1, v0,
		w, h, u1, v1,
		0, h, u0, v1,
	}
}

// Release frees the mesh and drops the sprite's texture reference.
func (s *Sprite) Release() {
	s.dropMesh()
	s.tex.Release()
}
