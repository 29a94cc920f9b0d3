// Package render turns a traced scene into pixels: a framebuffer that
// quantizes shaded colors, a parallel scanline renderer, and a half-block
// terminal view of the result.
package render

import (
	"image"
	"image/color"
	"math"

	"github.com/taigrr/whitted/pkg/math3d"
)

// Framebuffer is a 2D array of 8-bit RGBA pixels sized to the camera
// resolution. It satisfies image.Image so it can be handed straight to
// encoders.
type Framebuffer struct {
	Width  int          // Width in pixels
	Height int          // Height in pixels
	Pixels []color.RGBA // Row-major pixel data, row 0 at the top
}

// NewFramebuffer creates a new framebuffer with the given dimensions.
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		Width:  width,
		Height: height,
		Pixels: make([]color.RGBA, width*height),
	}
}

// Clear fills the framebuffer with a solid color.
func (fb *Framebuffer) Clear(c color.RGBA) {
	for i := range fb.Pixels {
		fb.Pixels[i] = c
	}
}

// Quantize maps a linear channel value to 0-255, clamping values outside
// [0, 1] and rounding half up. NaN maps to 0.
func Quantize(c float64) uint8 {
	if !(c > 0) {
		return 0
	}
	if c >= 1 {
		return 255
	}
	return uint8(math.Floor(c*255 + 0.5))
}

// ToRGBA quantizes a shaded color to an opaque pixel.
func ToRGBA(c math3d.Vec3) color.RGBA {
	return color.RGBA{Quantize(c.X), Quantize(c.Y), Quantize(c.Z), 255}
}

// SetPixel sets a pixel at (x, y) to the given color.
// Bounds checking is performed.
func (fb *Framebuffer) SetPixel(x, y int, c color.RGBA) {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return
	}
	fb.Pixels[y*fb.Width+x] = c
}

// SetColor quantizes c and stores it at (x, y).
func (fb *Framebuffer) SetColor(x, y int, c math3d.Vec3) {
	fb.SetPixel(x, y, ToRGBA(c))
}

// GetPixel returns the color at (x, y).
// Returns transparent black if out of bounds.
func (fb *Framebuffer) GetPixel(x, y int) color.RGBA {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return color.RGBA{}
	}
	return fb.Pixels[y*fb.Width+x]
}

// ColorModel implements image.Image.
func (fb *Framebuffer) ColorModel() color.Model {
	return color.RGBAModel
}

// Bounds implements image.Image.
func (fb *Framebuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, fb.Width, fb.Height)
}

// At implements image.Image.
func (fb *Framebuffer) At(x, y int) color.Color {
	return fb.GetPixel(x, y)
}

// ToImage copies the framebuffer into a standard Go image.RGBA.
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(fb.Bounds())
	for y := range fb.Height {
		for x := range fb.Width {
			img.SetRGBA(x, y, fb.Pixels[y*fb.Width+x])
		}
	}
	return img
}
