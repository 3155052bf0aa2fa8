package transform

import (
	"image"
	"image/color"
	"image/draw"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"vidstego/logger"
	"vidstego/video"
)

// Overlay layout. The anchor is the text baseline origin.
var (
	Anchor        = image.Point{X: 10, Y: 50}
	TextColor     = color.RGBA{G: 255, A: 255}
	OutlineColor  = color.RGBA{A: 255}
	OutlineOffset = 2
	FontSize      = 22.0
)

// DecodedLabel prefixes the recovered text drawn by the decode path.
const DecodedLabel = "Hidden Text: "

var (
	fontOnce sync.Once
	goFont   *opentype.Font
)

// newFace returns a fresh face per overlay: opentype faces carry a glyph
// buffer and cannot be shared between workers, the parsed font can.
func newFace() font.Face {
	fontOnce.Do(func() {
		f, err := opentype.Parse(goregular.TTF)
		if err != nil {
			logger.Warnf("overlay font unavailable, using bitmap face: %v", err)
			return
		}
		goFont = f
	})
	if goFont != nil {
		face, err := opentype.NewFace(goFont, &opentype.FaceOptions{
			Size:    FontSize,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err == nil {
			return face
		}
		logger.Warnf("overlay face creation failed, using bitmap face: %v", err)
	}
	return basicfont.Face7x13
}

// Overlay burns text onto every frame near the top-left corner: a thick
// dark outline shifted by OutlineOffset, then the colored text on top.
// It never fails and never changes the frame size.
func Overlay(text string) video.Transform {
	face := newFace()
	outline := image.NewUniform(OutlineColor)
	fill := image.NewUniform(TextColor)

	return func(frame *image.RGBA) *image.RGBA {
		if text == "" {
			return frame
		}
		base := Anchor.Add(image.Pt(OutlineOffset, OutlineOffset))
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				drawString(frame, face, outline, text, base.Add(image.Pt(dx, dy)))
			}
		}
		drawString(frame, face, fill, text, Anchor)
		drawString(frame, face, fill, text, Anchor.Add(image.Pt(1, 0)))
		return frame
	}
}

func drawString(dst draw.Image, face font.Face, src image.Image, text string, at image.Point) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  src,
		Face: face,
		Dot:  fixed.P(at.X, at.Y),
	}
	d.DrawString(text)
}
