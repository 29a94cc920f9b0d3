package models

import (
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/taigrr/whitted/pkg/math3d"
)

// WrapMode determines how texture coordinates outside [0,1] are handled.
type WrapMode int

const (
	WrapRepeat WrapMode = iota // Tile the texture
	WrapClamp                  // Clamp to edge
)

// FilterMode determines how texture sampling is performed.
type FilterMode int

const (
	FilterNearest  FilterMode = iota // Nearest-neighbor (pixelated)
	FilterBilinear                   // Bilinear interpolation (smooth)
)

// Texture is a 2D grid of linear RGB texels in [0,1].
type Texture struct {
	Width  int
	Height int
	Texels []math3d.Vec3 // Row-major, row 0 is the top of the image
	Wrap   WrapMode
	Filter FilterMode
}

// NewTexture creates a black texture with the given dimensions.
func NewTexture(width, height int) *Texture {
	return &Texture{
		Width:  width,
		Height: height,
		Texels: make([]math3d.Vec3, width*height),
		Wrap:   WrapRepeat,
		Filter: FilterBilinear,
	}
}

// LoadTexture loads a texture from a PNG/JPEG file, or the first image
// embedded in a GLTF/GLB file.
func LoadTexture(path string) (*Texture, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gltf", ".glb":
		img, err := LoadGLTFImage(path)
		if err != nil {
			return nil, err
		}
		return TextureFromImage(img), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open texture: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode texture %s: %w", filepath.Base(path), err)
	}
	return TextureFromImage(img), nil
}

// TextureFromImage converts an image into a texture.
func TextureFromImage(img image.Image) *Texture {
	bounds := img.Bounds()
	tex := NewTexture(bounds.Dx(), bounds.Dy())
	for y := range tex.Height {
		for x := range tex.Width {
			// RGBA returns 16-bit premultiplied channels.
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			tex.Set(x, y, math3d.V3(float64(r)/0xffff, float64(g)/0xffff, float64(b)/0xffff))
		}
	}
	return tex
}

// NewCheckerTexture creates a procedural checkerboard texture.
func NewCheckerTexture(width, height, checkSize int, c1, c2 math3d.Vec3) *Texture {
	tex := NewTexture(width, height)
	tex.Filter = FilterNearest
	for y := range height {
		for x := range width {
			if (x/checkSize+y/checkSize)%2 == 0 {
				tex.Set(x, y, c1)
			} else {
				tex.Set(x, y, c2)
			}
		}
	}
	return tex
}

// Set sets the texel at (x, y). Out-of-range writes are ignored.
func (t *Texture) Set(x, y int, c math3d.Vec3) {
	if x < 0 || x >= t.Width || y < 0 || y >= t.Height {
		return
	}
	t.Texels[y*t.Width+x] = c
}

// At returns the texel at (x, y), or black when out of range.
func (t *Texture) At(x, y int) math3d.Vec3 {
	if x < 0 || x >= t.Width || y < 0 || y >= t.Height {
		return math3d.Vec3{}
	}
	return t.Texels[y*t.Width+x]
}

// Sample returns the color at texture coordinate uv. V=0 is the bottom of
// the image.
func (t *Texture) Sample(uv math3d.Vec2) math3d.Vec3 {
	if t.Width == 0 || t.Height == 0 {
		return math3d.Vec3{}
	}
	u := t.wrap(uv.X)
	v := 1 - t.wrap(uv.Y)

	if t.Filter == FilterBilinear {
		return t.bilinear(u, v)
	}
	x := min(int(u*float64(t.Width)), t.Width-1)
	y := min(int(v*float64(t.Height)), t.Height-1)
	return t.At(x, y)
}

func (t *Texture) wrap(c float64) float64 {
	if t.Wrap == WrapClamp {
		return math.Max(0, math.Min(1, c))
	}
	return c - math.Floor(c)
}

func (t *Texture) bilinear(u, v float64) math3d.Vec3 {
	fx := u*float64(t.Width) - 0.5
	fy := v*float64(t.Height) - 0.5
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	c00 := t.At(t.wrapPixel(x0, t.Width), t.wrapPixel(y0, t.Height))
	c10 := t.At(t.wrapPixel(x0+1, t.Width), t.wrapPixel(y0, t.Height))
	c01 := t.At(t.wrapPixel(x0, t.Width), t.wrapPixel(y0+1, t.Height))
	c11 := t.At(t.wrapPixel(x0+1, t.Width), t.wrapPixel(y0+1, t.Height))
	return c00.Lerp(c10, tx).Lerp(c01.Lerp(c11, tx), ty)
}

func (t *Texture) wrapPixel(x, size int) int {
	if t.Wrap == WrapClamp {
		return max(0, min(x, size-1))
	}
	x %= size
	if x < 0 {
		x += size
	}
	return x
}
