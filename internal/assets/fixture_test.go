package assets

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// triangleBuffer packs a triangle, two keyframe times and two translations.
func triangleBuffer() []byte {
	floats := []float32{
		// positions
		0, 0, 0, 1, 0, 0, 0, 1, 0,
		// times
		0, 1,
		// translations
		0, 0, 0, 0, 2, 0,
	}
	var buf bytes.Buffer
	for _, f := range floats {
		_ = binary.Write(&buf, binary.LittleEndian, f)
	}
	return buf.Bytes()
}

// bundleJSON returns a small glTF document: Armature > Body (mesh) > Bone,
// one clip moving Bone. uri is the buffer location.
func bundleJSON(uri string, byteLength int) []byte {
	return []byte(fmt.Sprintf(`{
  "asset": {"version": "2.0"},
  "scene": 0,
  "scenes": [{"nodes": [0]}],
  "nodes": [
    {"name": "Armature", "children": [1], "scale": [100, 100, 100]},
    {"name": "Body", "mesh": 0, "children": [2]},
    {"name": "Bone", "translation": [0, 1, 0]}
  ],
  "meshes": [{"name": "body", "primitives": [{"attributes": {"POSITION": 0}, "material": 0}]}],
  "materials": [{"name": "skin", "doubleSided": true,
    "pbrMetallicRoughness": {"baseColorFactor": [1, 0, 0, 1], "metallicFactor": 0}}],
  "animations": [{"name": "Armature|mixamo.com|Layer0",
    "channels": [{"sampler": 0, "target": {"node": 2, "path": "translation"}}],
    "samplers": [{"input": 1, "output": 2}]}],
  "accessors": [
    {"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3", "min": [0, 0, 0], "max": [1, 1, 0]},
    {"bufferView": 1, "componentType": 5126, "count": 2, "type": "SCALAR", "min": [0], "max": [1]},
    {"bufferView": 2, "componentType": 5126, "count": 2, "type": "VEC3"}
  ],
  "bufferViews": [
    {"buffer": 0, "byteOffset": 0, "byteLength": 36},
    {"buffer": 0, "byteOffset": 36, "byteLength": 8},
    {"buffer": 0, "byteOffset": 44, "byteLength": 24}
  ],
  "buffers": [{"byteLength": %d, "uri": %q}]
}`, byteLength, uri))
}

func embeddedBundle() []byte {
	buf := triangleBuffer()
	uri := "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(buf)
	return bundleJSON(uri, len(buf))
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 255, G: uint8(x), B: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}
