// Package output serializes rendered frames: PPM and PNG files,
// thumbnails, and uploads to S3-compatible object storage.
package output

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/mitchellh/go-homedir"
)

// ErrUnsupportedFormat is returned by Save for unknown file extensions.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// WritePPM writes img as an ASCII (P3) portable pixmap with a maximum
// channel value of 255, one pixel per line.
func WritePPM(w io.Writer, img image.Image) error {
	b := img.Bounds()
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "P3\n%d %d\n255\n", b.Dx(), b.Dy()); err != nil {
		return err
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			if _, err := fmt.Fprintf(bw, "%d %d %d\n", c.R, c.G, c.B); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// WritePNG writes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

// Encode writes img in the format named by ext (".png", ".ppm", ".jpg").
func Encode(w io.Writer, img image.Image, ext string) error {
	switch strings.ToLower(ext) {
	case ".png":
		return WritePNG(w, img)
	case ".ppm":
		return WritePPM(w, img)
	case ".jpg", ".jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
	default:
		return fmt.Errorf("%w %q", ErrUnsupportedFormat, ext)
	}
}

// Save writes img to path, choosing the format from the extension.
func Save(path string, img image.Image) error {
	path, err := homedir.Expand(path)
	if err != nil {
		return fmt.Errorf("expand %s: %w", path, err)
	}
	ext := filepath.Ext(path)
	switch strings.ToLower(ext) {
	case ".png", ".ppm", ".jpg", ".jpeg":
	default:
		return fmt.Errorf("save %s: %w %q", path, ErrUnsupportedFormat, ext)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := Encode(f, img, ext); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// Thumbnail scales img to fit within size x size, keeping its aspect
// ratio, with Lanczos resampling.
func Thumbnail(img image.Image, size int) *image.NRGBA {
	return imaging.Fit(img, size, size, imaging.Lanczos)
}

// ThumbnailPath derives "name.thumb.ext" from "name.ext".
func ThumbnailPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".thumb" + ext
}
