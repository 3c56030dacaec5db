package surface

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	overlayMargin     = 8
	overlayLineHeight = 16
)

// LabelScale picks an integer text magnification proportional to the frame
// width, so the overlay stays readable on high-resolution streams.
func LabelScale(frameWidth int) int {
	scale := frameWidth / 640
	if scale < 1 {
		scale = 1
	}
	if scale > 4 {
		scale = 4
	}
	return scale
}

// DrawLabel paints text lines into the top-left corner of dst. Glyphs are
// rasterized with the basic 7x13 face and block-scaled by the given factor.
func DrawLabel(dst *image.RGBA, lines []string, scale int) {
	if len(lines) == 0 {
		return
	}
	if scale < 1 {
		scale = 1
	}

	maxLen := 0
	for _, line := range lines {
		if len(line) > maxLen {
			maxLen = len(line)
		}
	}

	face := basicfont.Face7x13
	textWidth := maxLen*face.Advance + 2*overlayMargin
	textHeight := len(lines)*overlayLineHeight + overlayMargin

	text := image.NewRGBA(image.Rect(0, 0, textWidth, textHeight))
	drawer := &font.Drawer{
		Dst:  text,
		Src:  image.NewUniform(color.RGBA{R: 255, G: 255, B: 255, A: 255}),
		Face: face,
	}
	for i, line := range lines {
		drawer.Dot = fixed.P(overlayMargin, overlayMargin+overlayLineHeight*i+face.Ascent)
		drawer.DrawString(line)
	}

	blitScaled(dst, text, scale)
}

func blitScaled(dst *image.RGBA, src *image.RGBA, scale int) {
	bounds := src.Bounds()
	dstBounds := dst.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := src.RGBAAt(x, y)
			if c.A == 0 {
				continue
			}
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					px := dstBounds.Min.X + x*scale + dx
					py := dstBounds.Min.Y + y*scale + dy
					if px < dstBounds.Max.X && py < dstBounds.Max.Y {
						dst.SetRGBA(px, py, c)
					}
				}
			}
		}
	}
}

// Compose copies img into a fresh RGBA so overlays never mutate the decoder's
// shared pixel buffer.
func Compose(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	composed := image.NewRGBA(bounds)
	draw.Draw(composed, bounds, img, bounds.Min, draw.Src)
	return composed
}
