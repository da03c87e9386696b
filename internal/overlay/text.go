package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Panel colors.
var (
	panelBackground = color.RGBA{R: 18, G: 20, B: 28, A: 225}
	panelBorder     = color.RGBA{R: 255, G: 255, B: 255, A: 70}
	titleColor      = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	bodyColor       = color.RGBA{R: 200, G: 204, B: 214, A: 255}
)

const (
	titleSize = 18
	bodySize  = 13
	padding   = 12
)

// Rasterizer draws panel contents into images on the CPU.
type Rasterizer struct {
	scale float64
	title font.Face
	body  font.Face
}

// NewRasterizer loads the Go fonts at the given pixel ratio.
func NewRasterizer(scale float64) (*Rasterizer, error) {
	if scale <= 0 {
		scale = 1
	}
	title, err := newFace(gobold.TTF, titleSize*scale)
	if err != nil {
		return nil, fmt.Errorf("title font: %w", err)
	}
	body, err := newFace(goregular.TTF, bodySize*scale)
	if err != nil {
		return nil, fmt.Errorf("body font: %w", err)
	}
	return &Rasterizer{scale: scale, title: title, body: body}, nil
}

func newFace(ttf []byte, size float64) (font.Face, error) {
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// Scale returns the pixel ratio the fonts were built for.
func (r *Rasterizer) Scale() float64 { return r.scale }

// Close releases the font faces.
func (r *Rasterizer) Close() error {
	if err := r.title.Close(); err != nil {
		return err
	}
	return r.body.Close()
}

// Render draws p at the rasterizer's scale.
func (r *Rasterizer) Render(p *Panel) *image.RGBA {
	w := max(int(float64(p.Rect.W)*r.scale), 1)
	h := max(int(float64(p.Rect.H)*r.scale), 1)
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	draw.Draw(img, img.Bounds(), image.NewUniform(panelBackground), image.Point{}, draw.Src)
	border := int(r.scale)
	if border < 1 {
		border = 1
	}
	for _, edge := range []image.Rectangle{
		image.Rect(0, 0, w, border),
		image.Rect(0, h-border, w, h),
		image.Rect(0, 0, border, h),
		image.Rect(w-border, 0, w, h),
	} {
		draw.Draw(img, edge, image.NewUniform(panelBorder), image.Point{}, draw.Over)
	}

	pad := int(padding * r.scale)
	maxWidth := fixed.I(w - 2*pad)
	y := pad

	titleLines := wrap(r.title, p.Title, maxWidth)
	y += r.title.Metrics().Ascent.Ceil()
	r.drawLines(img, r.title, titleColor, titleLines, pad, y, h-pad)
	y += r.title.Metrics().Height.Ceil() * (len(titleLines) - 1)

	y += int(8*r.scale) + r.body.Metrics().Ascent.Ceil()
	r.drawLines(img, r.body, bodyColor, wrap(r.body, p.Body, maxWidth), pad, y, h-pad)
	return img
}

func (r *Rasterizer) drawLines(dst *image.RGBA, face font.Face, c color.Color, lines []string, x, y, bottom int) {
	d := font.Drawer{Dst: dst, Src: image.NewUniform(c), Face: face}
	step := face.Metrics().Height.Ceil()
	for _, line := range lines {
		if y > bottom {
			return
		}
		d.Dot = fixed.P(x, y)
		d.DrawString(line)
		y += step
	}
}

// wrap breaks text into lines no wider than maxWidth. Words longer than a
// line are kept whole.
func wrap(face font.Face, text string, maxWidth fixed.Int26_6) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			candidate := line + " " + w
			if font.MeasureString(face, candidate) > maxWidth {
				lines = append(lines, line)
				line = w
				continue
			}
			line = candidate
		}
		lines = append(lines, line)
	}
	return lines
}
