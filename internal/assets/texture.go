package assets

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder

	_ "golang.org/x/image/bmp" // register BMP decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/Faultbox/hotspot-viewer/internal/engine/scenegraph"
)

// MaxTextureSize is the largest edge uploaded to the GPU. Larger images are
// scaled down keeping their aspect ratio.
const MaxTextureSize = 8192

// DecodeTexture decodes an encoded image into an RGBA texture.
func DecodeTexture(name string, data []byte) (*scenegraph.Texture, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding texture %s: %w", name, err)
	}
	return &scenegraph.Texture{Name: name, Image: ImageToRGBA(img, MaxTextureSize)}, nil
}

// ImageToRGBA converts img to RGBA with its origin at (0, 0), scaling it down
// when an edge exceeds maxSize. maxSize <= 0 disables scaling.
func ImageToRGBA(img image.Image, maxSize int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if maxSize > 0 && (w > maxSize || h > maxSize) {
		if w >= h {
			h = h * maxSize / w
			w = maxSize
		} else {
			w = w * maxSize / h
			h = maxSize
		}
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
		return dst
	}

	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
