package psf

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"golang.org/x/image/tiff"
)

// Frames is a stack of F rendered frames of H*W expected photon counts.
// Rendering accumulates linearly, so overlapping emitters superpose.
type Frames struct {
	F, H, W int
	data    []float64
}

// NewFrames creates a zeroed frame stack.
func NewFrames(f, h, w int) *Frames {
	return &Frames{F: f, H: h, W: w, data: make([]float64, f*h*w)}
}

// At returns the value at frame f, row y, column x.
func (s *Frames) At(f, y, x int) float64 {
	return s.data[(f*s.H+y)*s.W+x]
}

// Add accumulates v at frame f, row y, column x.
func (s *Frames) Add(f, y, x int, v float64) {
	s.data[(f*s.H+y)*s.W+x] += v
}

// Frame returns frame f as a row-major slice backed by the stack.
func (s *Frames) Frame(f int) []float64 {
	return s.data[f*s.H*s.W : (f+1)*s.H*s.W]
}

// Data returns the full backing slice, frame-major then row-major.
func (s *Frames) Data() []float64 { return s.data }

// frameImage wraps one frame as a 16-bit grayscale image.Image with
// linear normalization over the given value range.
type frameImage struct {
	s        *Frames
	f        int
	lo, span float64
}

func (im *frameImage) ColorModel() color.Model { return color.Gray16Model }

func (im *frameImage) Bounds() image.Rectangle {
	return image.Rect(0, 0, im.s.W, im.s.H)
}

func (im *frameImage) At(x, y int) color.Color {
	v := (im.s.At(im.f, y, x) - im.lo) / im.span
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return color.Gray16{Y: uint16(v * 65535)}
}

// Image returns frame f as a 16-bit grayscale image.Image, linearly
// normalized over the whole stack's value range so frames in one stack
// share a common scale.
func (s *Frames) Image(f int) image.Image {
	lo, hi := s.data[0], s.data[0]
	for _, v := range s.data {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}
	return &frameImage{s: s, f: f, lo: lo, span: span}
}

// SavePNG writes frame f as a 16-bit grayscale PNG file.
func (s *Frames) SavePNG(f int, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("psf: save png: %w", err)
	}
	defer file.Close()
	if err := png.Encode(file, s.Image(f)); err != nil {
		return fmt.Errorf("psf: save png: %w", err)
	}
	return file.Close()
}

// SaveTIFF writes frame f as an uncompressed 16-bit grayscale TIFF
// file.
func (s *Frames) SaveTIFF(f int, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("psf: save tiff: %w", err)
	}
	defer file.Close()
	opts := &tiff.Options{Compression: tiff.Uncompressed}
	if err := tiff.Encode(file, s.Image(f), opts); err != nil {
		return fmt.Errorf("psf: save tiff: %w", err)
	}
	return file.Close()
}
