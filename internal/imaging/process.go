package imaging

import (
	"bytes"
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/disintegration/imaging"
)

// Options controls screenshot post-processing.
//
// The zero value performs no work: Process returns its input unchanged.
type Options struct {
	// MaxWidth and MaxHeight bound the output size in pixels. Images larger
	// than the box are scaled down preserving aspect ratio; smaller images are
	// never enlarged. Zero means unbounded in that dimension.
	MaxWidth  int
	MaxHeight int

	// Background, when opaque, is painted beneath the screenshot so that
	// transparent pixels take the background colour.
	Background Background
}

func (o Options) active() bool {
	return o.MaxWidth > 0 || o.MaxHeight > 0 || o.Background.Opaque()
}

// Process applies opts to a PNG screenshot and returns the re-encoded PNG.
func Process(data []byte, opts Options) ([]byte, error) {
	if !opts.active() {
		return data, nil
	}

	img, _, err := Decode(data)
	if err != nil {
		return nil, err
	}

	out := img
	if opts.Background.Opaque() {
		out = Flatten(out, opts.Background)
	}
	out = Fit(out, opts.MaxWidth, opts.MaxHeight)

	return Encode(out)
}

// Flatten composites img over a solid canvas of the background colour.
func Flatten(img image.Image, bg Background) image.Image {
	b := img.Bounds()
	canvas := imaging.New(b.Dx(), b.Dy(), bg.Color)
	return imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)
}

// Fit shrinks img to fit within maxWidth x maxHeight, preserving the aspect
// ratio. A non-positive bound leaves that dimension unconstrained; an image
// already inside the box is returned as is.
func Fit(img image.Image, maxWidth, maxHeight int) image.Image {
	if maxWidth <= 0 && maxHeight <= 0 {
		return img
	}
	if maxWidth <= 0 {
		maxWidth = math.MaxInt32
	}
	if maxHeight <= 0 {
		maxHeight = math.MaxInt32
	}

	b := img.Bounds()
	if b.Dx() <= maxWidth && b.Dy() <= maxHeight {
		return img
	}
	return imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)
}

// Encode encodes img as PNG.
func Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imgio.PNGEncoder()(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
