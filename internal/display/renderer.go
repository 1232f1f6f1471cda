package display

import (
	"image"
	"image/color"
	"image/draw"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	on  = color.Gray{Y: 255}
	off = color.Gray{Y: 0}
)

// Renderer draws text into a monochrome frame buffer
type Renderer struct {
	img  *image.Gray
	face font.Face
}

// NewRenderer creates a new display renderer
func NewRenderer(width, height int) *Renderer {
	return &Renderer{
		img:  image.NewGray(image.Rect(0, 0, width, height)),
		face: basicfont.Face7x13,
	}
}

// Bounds returns the full display rectangle
func (r *Renderer) Bounds() image.Rectangle {
	return r.img.Bounds()
}

// Clear turns off every pixel in rect
func (r *Renderer) Clear(rect image.Rectangle) {
	draw.Draw(r.img, rect.Intersect(r.img.Bounds()), image.NewUniform(off), image.Point{}, draw.Src)
}

// Fill turns on every pixel in rect
func (r *Renderer) Fill(rect image.Rectangle) {
	draw.Draw(r.img, rect.Intersect(r.img.Bounds()), image.NewUniform(on), image.Point{}, draw.Src)
}

// Text draws word-wrapped text inside rect, clipping anything that does not
// fit. It returns the number of lines laid out.
func (r *Renderer) Text(rect image.Rectangle, text string) int {
	clip, ok := r.img.SubImage(rect.Intersect(r.img.Bounds())).(*image.Gray)
	if !ok || clip.Bounds().Empty() {
		return 0
	}

	lines := r.wrap(text, rect.Dx())
	metrics := r.face.Metrics()
	lineHeight := metrics.Height.Ceil()
	baseline := rect.Min.Y + metrics.Ascent.Ceil()

	d := &font.Drawer{Dst: clip, Src: image.NewUniform(on), Face: r.face}
	for i, line := range lines {
		d.Dot = fixed.P(rect.Min.X, baseline+i*lineHeight)
		d.DrawString(line)
	}
	return len(lines)
}

// wrap breaks text into lines no wider than width. A single word wider than
// width gets a line of its own.
func (r *Renderer) wrap(text string, width int) []string {
	var lines []string
	line := ""
	for _, word := range strings.Fields(text) {
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}
		if line != "" && font.MeasureString(r.face, candidate).Ceil() > width {
			lines = append(lines, line)
			line = word
			continue
		}
		line = candidate
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

// Pixel reports whether the pixel at x, y is on
func (r *Renderer) Pixel(x, y int) bool {
	return r.img.GrayAt(x, y).Y > 127
}

// Pack returns rect as 1-bit data, row-major, 8 pixels per byte, MSB first.
// Each row starts on a byte boundary.
func (r *Renderer) Pack(rect image.Rectangle) []byte {
	bytesPerRow := (rect.Dx() + 7) / 8
	data := make([]byte, bytesPerRow*rect.Dy())

	for dy := 0; dy < rect.Dy(); dy++ {
		for dx := 0; dx < rect.Dx(); dx++ {
			if r.Pixel(rect.Min.X+dx, rect.Min.Y+dy) {
				data[dy*bytesPerRow+dx/8] |= 1 << (7 - dx%8)
			}
		}
	}
	return data
}
