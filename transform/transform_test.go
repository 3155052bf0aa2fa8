package transform

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func solidFrame(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func countColor(img *image.RGBA, r image.Rectangle, match func(color.RGBA) bool) int {
	n := 0
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if match(img.RGBAAt(x, y)) {
				n++
			}
		}
	}
	return n
}

func TestIdentityReturnsSameFrame(t *testing.T) {
	frame := solidFrame(8, 8, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	before := append([]uint8(nil), frame.Pix...)

	out := Identity()(frame)
	assert.Same(t, frame, out)
	assert.Equal(t, before, out.Pix)
}

func TestOverlayDrawsGreenTextWithDarkOutline(t *testing.T) {
	frame := solidFrame(320, 240, color.RGBA{R: 128, G: 128, B: 128, A: 255})
	out := Overlay(DecodedLabel + "hello world")(frame)

	assert.Equal(t, image.Rect(0, 0, 320, 240), out.Bounds())

	textArea := image.Rect(0, 20, 320, 60)
	green := countColor(out, textArea, func(c color.RGBA) bool { return c.G > 200 && c.R < 60 && c.B < 60 })
	dark := countColor(out, textArea, func(c color.RGBA) bool { return c.R < 30 && c.G < 30 && c.B < 30 })
	assert.Greater(t, green, 50, "expected green glyph pixels")
	assert.Greater(t, dark, 50, "expected outline pixels")

	// far from the anchor nothing changes
	below := image.Rect(0, 120, 320, 240)
	untouched := countColor(out, below, func(c color.RGBA) bool { return c.R == 128 && c.G == 128 && c.B == 128 })
	assert.Equal(t, below.Dx()*below.Dy(), untouched)
}

func TestOverlayIsTotal(t *testing.T) {
	texts := []string{
		"",
		" ",
		"Hidden Text: (none)",
		"héllo wörld ß",
		"日本語のテキスト",
		"emoji 🎬🎥",
		"tab\tand\nnewline",
		string([]byte{0xff, 0xfe, 0xfd}), // invalid UTF-8
	}
	sizes := []image.Rectangle{
		image.Rect(0, 0, 320, 240),
		image.Rect(0, 0, 16, 16), // text runs off every edge
		image.Rect(0, 0, 1, 1),
	}
	for _, text := range texts {
		for _, size := range sizes {
			frame := solidFrame(size.Dx(), size.Dy(), color.RGBA{R: 255, G: 255, B: 255, A: 255})
			assert.NotPanics(t, func() {
				out := Overlay(text)(frame)
				assert.Equal(t, size, out.Bounds())
			}, "text %q on %v", text, size)
		}
	}
}

func TestOverlayEmptyTextLeavesFrame(t *testing.T) {
	frame := solidFrame(64, 64, color.RGBA{R: 1, G: 2, B: 3, A: 255})
	before := append([]uint8(nil), frame.Pix...)
	Overlay("")(frame)
	assert.Equal(t, before, frame.Pix)
}

func TestOverlayIsIdenticalAcrossFrames(t *testing.T) {
	tr := Overlay("same every frame")
	a := tr(solidFrame(200, 80, color.RGBA{A: 255, B: 200}))
	b := tr(solidFrame(200, 80, color.RGBA{A: 255, B: 200}))
	assert.Equal(t, a.Pix, b.Pix)
}
