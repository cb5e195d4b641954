package report

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	placeholderText  = color.Gray{Y: 120}
	placeholderFrame = color.Gray{Y: 220}
)

// placeholder draws a framed panel with its title and a centred "No data" label.
func placeholder(title string, width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	frame := placeholderFrame
	for x := 0; x < width; x++ {
		img.Set(x, 0, frame)
		img.Set(x, height-1, frame)
	}
	for y := 0; y < height; y++ {
		img.Set(0, y, frame)
		img.Set(width-1, y, frame)
	}

	face := basicfont.Face7x13
	drawCentered(img, face, title, width, 30)
	drawCentered(img, face, "No data", width, height/2)
	return img
}

func drawCentered(dst draw.Image, face font.Face, s string, width, baseline int) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(placeholderText),
		Face: face,
	}
	x := (width - d.MeasureString(s).Ceil()) / 2
	d.Dot = fixed.P(x, baseline)
	d.DrawString(s)
}
