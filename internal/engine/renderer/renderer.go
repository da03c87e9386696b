// Package renderer draws the scene graph with OpenGL.
package renderer

import (
	"fmt"
	gomath "math"
	"sort"

	"go.uber.org/zap"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/hotspot-viewer/internal/engine/camera"
	"github.com/Faultbox/hotspot-viewer/internal/engine/scenegraph"
	"github.com/Faultbox/hotspot-viewer/internal/engine/shader"
	"github.com/Faultbox/hotspot-viewer/internal/logger"
	"github.com/Faultbox/hotspot-viewer/pkg/math"
)

// Config holds renderer configuration.
type Config struct {
	Width            int
	Height           int
	ClearColor       [4]float32
	AmbientColor     [3]float32
	AmbientIntensity float32
}

const floatsPerVertex = 8 // pos3 + normal3 + uv2

type gpuPrimitive struct {
	vao, vbo, ebo uint32
	count         int32
	indexed       bool
	version       uint64
	vertices      int
	scratch       []float32
}

type drawItem struct {
	node  *scenegraph.Node
	prim  *scenegraph.Primitive
	depth float32
}

// Renderer handles all OpenGL rendering.
type Renderer struct {
	config Config

	meshProgram   *shader.Program
	spriteProgram *shader.Program

	spriteVAO uint32
	spriteVBO uint32

	white      uint32
	primitives map[*scenegraph.Primitive]*gpuPrimitive
	textures   map[*scenegraph.Texture]uint32

	opaque      []drawItem
	transparent []drawItem
	sprites     []drawItem
}

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		config:     cfg,
		primitives: make(map[*scenegraph.Primitive]*gpuPrimitive),
		textures:   make(map[*scenegraph.Texture]uint32),
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LEQUAL)
	c := cfg.ClearColor
	gl.ClearColor(c[0], c[1], c[2], c[3])

	var err error
	if r.meshProgram, err = shader.New("mesh", meshVertexShader, meshFragmentShader); err != nil {
		return nil, err
	}
	if r.spriteProgram, err = shader.New("sprite", spriteVertexShader, spriteFragmentShader); err != nil {
		r.meshProgram.Delete()
		return nil, err
	}

	r.createSpriteQuad()
	r.white = whiteTexture()
	gl.Viewport(0, 0, int32(cfg.Width), int32(cfg.Height))

	return r, nil
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	logger.Info("closing renderer")
	for _, g := range r.primitives {
		deletePrimitive(g)
	}
	r.primitives = nil
	for _, id := range r.textures {
		gl.DeleteTextures(1, &id)
	}
	r.textures = nil
	if r.white != 0 {
		gl.DeleteTextures(1, &r.white)
	}
	if r.spriteVAO != 0 {
		gl.DeleteVertexArrays(1, &r.spriteVAO)
	}
	if r.spriteVBO != 0 {
		gl.DeleteBuffers(1, &r.spriteVBO)
	}
	r.meshProgram.Delete()
	r.spriteProgram.Delete()
}

// Resize sets the drawable size in pixels.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	logger.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// ReadPixels reads the back buffer as bottom-up RGBA rows.
func (r *Renderer) ReadPixels() (pixels []byte, width, height int) {
	width, height = r.config.Width, r.config.Height
	pixels = make([]byte, width*height*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels, width, height
}

// Render draws the scene as seen by cam. World transforms must be current.
func (r *Renderer) Render(scene *scenegraph.Scene, cam *camera.Perspective) {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	r.opaque = r.opaque[:0]
	r.transparent = r.transparent[:0]
	r.sprites = r.sprites[:0]

	scene.Traverse(func(n *scenegraph.Node) bool {
		if !n.Visible {
			return false
		}
		depth := cam.Position.Distance(n.WorldPosition())
		switch n.Kind {
		case scenegraph.KindMesh:
			if n.Mesh == nil {
				break
			}
			for _, p := range n.Mesh.Primitives {
				item := drawItem{node: n, prim: p, depth: depth}
				if p.Material != nil && p.Material.Transparent {
					r.transparent = append(r.transparent, item)
				} else {
					r.opaque = append(r.opaque, item)
				}
			}
		case scenegraph.KindSprite:
			r.sprites = append(r.sprites, drawItem{node: n, depth: depth})
		}
		return true
	})

	// Back to front so blending composes correctly.
	sort.SliceStable(r.transparent, func(i, j int) bool { return r.transparent[i].depth > r.transparent[j].depth })
	sort.SliceStable(r.sprites, func(i, j int) bool { return r.sprites[i].depth > r.sprites[j].depth })

	view := cam.ViewMatrix()
	proj := cam.ProjectionMatrix()

	r.meshProgram.Use()
	gl.UniformMatrix4fv(r.meshProgram.Uniform("uView"), 1, false, view.Ptr())
	gl.UniformMatrix4fv(r.meshProgram.Uniform("uProjection"), 1, false, proj.Ptr())
	k := r.config.AmbientIntensity / gomath.Pi
	a := r.config.AmbientColor
	gl.Uniform3f(r.meshProgram.Uniform("uAmbient"), a[0]*k, a[1]*k, a[2]*k)
	gl.Uniform1i(r.meshProgram.Uniform("uTexture"), 0)
	gl.ActiveTexture(gl.TEXTURE0)

	gl.Disable(gl.BLEND)
	gl.DepthMask(true)
	for _, it := range r.opaque {
		r.drawPrimitive(it)
	}

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.DepthMask(false)
	for _, it := range r.transparent {
		r.drawPrimitive(it)
	}

	r.drawSprites(view, proj)

	gl.DepthMask(true)
	gl.Disable(gl.BLEND)
	gl.Disable(gl.CULL_FACE)
	gl.FrontFace(gl.CCW)
	gl.BindVertexArray(0)
	gl.UseProgram(0)
}

func (r *Renderer) drawPrimitive(it drawItem) {
	p := it.prim
	if len(p.Positions) == 0 {
		return
	}
	g := r.upload(p)
	mat := p.Material
	if mat == nil {
		mat = scenegraph.NewMaterial("")
	}

	world := it.node.World()
	if world.Det3() < 0 {
		gl.FrontFace(gl.CW)
	} else {
		gl.FrontFace(gl.CCW)
	}
	switch mat.Side {
	case scenegraph.FrontSide:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	case scenegraph.BackSide:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.FRONT)
	default:
		gl.Disable(gl.CULL_FACE)
	}

	prog := r.meshProgram
	gl.UniformMatrix4fv(prog.Uniform("uModel"), 1, false, world.Ptr())
	gl.Uniform4f(prog.Uniform("uColor"), mat.Color[0], mat.Color[1], mat.Color[2], mat.Color[3])
	opacity := float32(1)
	if mat.Transparent {
		opacity = mat.Opacity
	}
	gl.Uniform1f(prog.Uniform("uOpacity"), opacity)
	gl.Uniform1f(prog.Uniform("uMetalness"), mat.Metalness)
	unlit := int32(0)
	if mat.Unlit {
		unlit = 1
	}
	gl.Uniform1i(prog.Uniform("uUnlit"), unlit)
	gl.BindTexture(gl.TEXTURE_2D, r.texture(mat.Texture))

	gl.BindVertexArray(g.vao)
	if g.indexed {
		gl.DrawElements(gl.TRIANGLES, g.count, gl.UNSIGNED_INT, gl.PtrOffset(0))
	} else {
		gl.DrawArrays(gl.TRIANGLES, 0, g.count)
	}
}

func (r *Renderer) drawSprites(view, proj math.Mat4) {
	if len(r.sprites) == 0 {
		return
	}
	gl.Disable(gl.CULL_FACE)
	prog := r.spriteProgram
	prog.Use()
	gl.UniformMatrix4fv(prog.Uniform("uView"), 1, false, view.Ptr())
	gl.UniformMatrix4fv(prog.Uniform("uProjection"), 1, false, proj.Ptr())
	aspect := float32(1)
	if r.config.Height > 0 {
		aspect = float32(r.config.Width) / float32(r.config.Height)
	}
	gl.Uniform1f(prog.Uniform("uAspect"), aspect)
	gl.Uniform1i(prog.Uniform("uTexture"), 0)
	gl.BindVertexArray(r.spriteVAO)

	for _, it := range r.sprites {
		s := it.node.Sprite
		if s == nil {
			continue
		}
		mat := s.Material
		if mat == nil {
			mat = scenegraph.NewMaterial("")
		}
		c := it.node.WorldPosition()
		gl.Uniform3f(prog.Uniform("uCenter"), c.X, c.Y, c.Z)
		gl.Uniform1f(prog.Uniform("uHalfSize"), s.ScreenSize)
		gl.Uniform4f(prog.Uniform("uColor"), mat.Color[0], mat.Color[1], mat.Color[2], mat.Color[3])
		gl.Uniform1f(prog.Uniform("uOpacity"), mat.Opacity)
		gl.BindTexture(gl.TEXTURE_2D, r.texture(mat.Texture))
		gl.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)
	}
}

func (r *Renderer) texture(t *scenegraph.Texture) uint32 {
	if t == nil || t.Image == nil {
		return r.white
	}
	if id, ok := r.textures[t]; ok {
		return id
	}
	id := UploadTexture(t.Image, true)
	r.textures[t] = id
	return id
}

// upload creates or refreshes the GPU copy of p.
func (r *Renderer) upload(p *scenegraph.Primitive) *gpuPrimitive {
	g, ok := r.primitives[p]
	if ok && g.version == p.Version {
		return g
	}

	pos := p.CurrentPositions()
	nrm := p.CurrentNormals()
	n := len(pos)
	if ok && g.vertices != n {
		deletePrimitive(g)
		ok = false
	}
	if !ok {
		g = &gpuPrimitive{vertices: n}
	}

	if cap(g.scratch) < n*floatsPerVertex {
		g.scratch = make([]float32, n*floatsPerVertex)
	}
	data := g.scratch[:n*floatsPerVertex]
	for i := 0; i < n; i++ {
		o := i * floatsPerVertex
		copy(data[o:o+3], pos[i][:])
		if i < len(nrm) {
			copy(data[o+3:o+6], nrm[i][:])
		} else {
			data[o+3], data[o+4], data[o+5] = 0, 1, 0
		}
		if i < len(p.UVs) {
			copy(data[o+6:o+8], p.UVs[i][:])
		} else {
			data[o+6], data[o+7] = 0, 0
		}
	}

	if ok {
		gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo)
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(data)*4, gl.Ptr(data))
		gl.BindBuffer(gl.ARRAY_BUFFER, 0)
		g.version = p.Version
		return g
	}

	usage := uint32(gl.STATIC_DRAW)
	if p.Skinned() {
		usage = gl.DYNAMIC_DRAW
	}

	gl.GenVertexArrays(1, &g.vao)
	gl.BindVertexArray(g.vao)
	gl.GenBuffers(1, &g.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), usage)

	stride := int32(floatsPerVertex * 4)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, 12)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, stride, 24)
	gl.EnableVertexAttribArray(2)

	if len(p.Indices) > 0 {
		gl.GenBuffers(1, &g.ebo)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, g.ebo)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(p.Indices)*4, gl.Ptr(p.Indices), gl.STATIC_DRAW)
		g.indexed = true
		g.count = int32(len(p.Indices))
	} else {
		g.count = int32(n)
	}
	gl.BindVertexArray(0)

	g.version = p.Version
	r.primitives[p] = g
	return g
}

func deletePrimitive(g *gpuPrimitive) {
	if g.vao != 0 {
		gl.DeleteVertexArrays(1, &g.vao)
	}
	if g.vbo != 0 {
		gl.DeleteBuffers(1, &g.vbo)
	}
	if g.ebo != 0 {
		gl.DeleteBuffers(1, &g.ebo)
	}
}

func (r *Renderer) createSpriteQuad() {
	corners := []float32{
		-1, -1,
		1, -1,
		-1, 1,
		1, 1,
	}
	gl.GenVertexArrays(1, &r.spriteVAO)
	gl.BindVertexArray(r.spriteVAO)
	gl.GenBuffers(1, &r.spriteVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.spriteVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(corners)*4, gl.Ptr(corners), gl.STATIC_DRAW)
	gl.VertexAttribPointerWithOffset(0, 2, gl.FLOAT, false, 2*4, 0)
	gl.EnableVertexAttribArray(0)
	gl.BindVertexArray(0)
}
