package assets

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/hubastard/rier/engine/gfx"
)

// ErrUnsupportedFormat is returned for files that are not a known image type.
var ErrUnsupportedFormat = errors.New("assets: unsupported image format")

// sniffLen covers the longest magic number filetype checks.
const sniffLen = 262

// DecodeImage reads an image file into tightly packed RGBA8 pixels, flipped
// vertically to match OpenGL's bottom-left origin.
func DecodeImage(path string) (gfx.RawImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return gfx.RawImage{}, fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return gfx.RawImage{}, fmt.Errorf("read %q: %w", path, err)
	}
	if !filetype.IsImage(head[:n]) {
		kind, _ := filetype.Match(head[:n])
		return gfx.RawImage{}, fmt.Errorf("%q (%s): %w", path, kind.MIME.Value, ErrUnsupportedFormat)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return gfx.RawImage{}, fmt.Errorf("seek %q: %w", path, err)
	}

	img, format, err := image.Decode(f)
	if err != nil {
		return gfx.RawImage{}, fmt.Errorf("decode %q: %w", path, err)
	}
	raw := toRaw(img)
	logger().Debug("decoded image", "path", path, "format", format, "w", raw.Width, "h", raw.Height)
	return raw, nil
}

// toRaw repacks img as RGBA with stride 4*w and the rows reversed.
func toRaw(img image.Image) gfx.RawImage {
	rgba := imageToRGBA(img)
	w, h := rgba.Bounds().Dx(), rgba.Bounds().Dy()

	out := make([]byte, w*h*4)
	row := w * 4
	for y := 0; y < h; y++ {
		src := rgba.Pix[y*rgba.Stride : y*rgba.Stride+row]
		dst := (h - 1 - y) * row
		copy(out[dst:dst+row], src)
	}
	return gfx.RawImage{Width: w, Height: h, Pixels: out}
}

func imageToRGBA(img image.Image) *image.RGBA {
	if m, ok := img.(*image.RGBA); ok && m.Rect.Min == (image.Point{}) {
		return m
	}
	dst := image.NewRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
	draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
	return dst
}
