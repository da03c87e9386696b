// Package ui2d draws 2D overlay panels on top of the rendered frame.
package ui2d

import (
	"fmt"
	"sort"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/hotspot-viewer/internal/engine/renderer"
	"github.com/Faultbox/hotspot-viewer/internal/engine/shader"
	"github.com/Faultbox/hotspot-viewer/internal/overlay"
)

const panelVertexShader = `
#version 410 core
layout (location = 0) in vec2 aPos;
layout (location = 1) in vec2 aUV;
uniform mat4 uProjection;
out vec2 vUV;
void main() {
    vUV = aUV;
    gl_Position = uProjection * vec4(aPos, 0.0, 1.0);
}
`

const panelFragmentShader = `
#version 410 core
in vec2 vUV;
uniform sampler2D uTexture;
out vec4 FragColor;
void main() {
    FragColor = texture(uTexture, vUV);
}
`

type panelTexture struct {
	id      uint32
	version uint64
	w, h    float32
}

// Renderer draws visible panels as textured quads over the frame.
type Renderer struct {
	program  *shader.Program
	vao, vbo uint32
	raster   *overlay.Rasterizer
	textures map[*overlay.Panel]*panelTexture
	vertices []float32
}

// New creates GL resources. Requires a current context.
func New(pixelRatio float64) (*Renderer, error) {
	raster, err := overlay.NewRasterizer(pixelRatio)
	if err != nil {
		return nil, err
	}
	prog, err := shader.New("overlay", panelVertexShader, panelFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("overlay renderer: %w", err)
	}

	r := &Renderer{
		program:  prog,
		raster:   raster,
		textures: make(map[*overlay.Panel]*panelTexture),
		vertices: make([]float32, 0, 24),
	}

	gl.GenVertexArrays(1, &r.vao)
	gl.GenBuffers(1, &r.vbo)
	gl.BindVertexArray(r.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, 24*4, nil, gl.DYNAMIC_DRAW)
	gl.VertexAttribPointerWithOffset(0, 2, gl.FLOAT, false, 4*4, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 2, gl.FLOAT, false, 4*4, 2*4)
	gl.EnableVertexAttribArray(1)
	gl.BindVertexArray(0)

	return r, nil
}

// Draw renders visible panels in stacking order. width and height are the
// logical viewport size the panel rectangles are expressed in.
func (r *Renderer) Draw(panels []*overlay.Panel, width, height int) {
	visible := make([]*overlay.Panel, 0, len(panels))
	for _, p := range panels {
		if p.Visible() {
			visible = append(visible, p)
		}
	}
	if len(visible) == 0 {
		return
	}
	sort.SliceStable(visible, func(i, j int) bool { return visible[i].ZIndex() < visible[j].ZIndex() })

	var prevBlend, prevDepth, prevCull int32
	gl.GetIntegerv(gl.BLEND, &prevBlend)
	gl.GetIntegerv(gl.DEPTH_TEST, &prevDepth)
	gl.GetIntegerv(gl.CULL_FACE, &prevCull)

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)

	proj := ortho(float32(width), float32(height))
	r.program.Use()
	gl.UniformMatrix4fv(r.program.Uniform("uProjection"), 1, false, &proj[0])
	gl.Uniform1i(r.program.Uniform("uTexture"), 0)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindVertexArray(r.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)

	for _, p := range visible {
		tex := r.texture(p)
		gl.BindTexture(gl.TEXTURE_2D, tex.id)
		x0, y0 := p.Rect.X, p.Rect.Y
		x1, y1 := x0+p.Rect.W, y0+p.Rect.H
		r.vertices = append(r.vertices[:0],
			x0, y0, 0, 0,
			x1, y0, 1, 0,
			x1, y1, 1, 1,
			x0, y0, 0, 0,
			x1, y1, 1, 1,
			x0, y1, 0, 1,
		)
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(r.vertices)*4, unsafe.Pointer(&r.vertices[0]))
		gl.DrawArrays(gl.TRIANGLES, 0, 6)
	}

	gl.BindVertexArray(0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.UseProgram(0)

	if prevBlend == gl.FALSE {
		gl.Disable(gl.BLEND)
	}
	if prevDepth == gl.TRUE {
		gl.Enable(gl.DEPTH_TEST)
	}
	if prevCull == gl.TRUE {
		gl.Enable(gl.CULL_FACE)
	}
}

func (r *Renderer) texture(p *overlay.Panel) *panelTexture {
	t, ok := r.textures[p]
	if ok && t.version == p.Version() && t.w == p.Rect.W && t.h == p.Rect.H {
		return t
	}
	if ok {
		gl.DeleteTextures(1, &t.id)
	}
	t = &panelTexture{
		id:      renderer.UploadTexture(r.raster.Render(p), false),
		version: p.Version(),
		w:       p.Rect.W,
		h:       p.Rect.H,
	}
	r.textures[p] = t
	return t
}

// Close releases GL resources.
func (r *Renderer) Close() {
	for _, t := range r.textures {
		gl.DeleteTextures(1, &t.id)
	}
	r.textures = nil
	if r.vao != 0 {
		gl.DeleteVertexArrays(1, &r.vao)
	}
	if r.vbo != 0 {
		gl.DeleteBuffers(1, &r.vbo)
	}
	r.program.Delete()
	_ = r.raster.Close()
}

// ortho maps logical pixels with a top-left origin to clip space.
func ortho(w, h float32) [16]float32 {
	return [16]float32{
		2 / w, 0, 0, 0,
		0, -2 / h, 0, 0,
		0, 0, -1, 0,
		-1, 1, 0, 1,
	}
}
