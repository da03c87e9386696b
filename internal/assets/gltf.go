package assets

import (
	"bytes"
	"fmt"
	"io/fs"
	"net/url"
	"path"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/hotspot-viewer/internal/engine/animation"
	"github.com/Faultbox/hotspot-viewer/internal/engine/scenegraph"
	"github.com/Faultbox/hotspot-viewer/pkg/math"
)

// Bundle is a decoded glTF asset: a node hierarchy plus its clips.
type Bundle struct {
	Path string
	// Root groups the roots of the default scene.
	Root  *scenegraph.Node
	Nodes []*scenegraph.Node
	Clips []*animation.Clip
	Skins []*scenegraph.Skin
}

// BundleStats summarizes a bundle for logs and tooling.
type BundleStats struct {
	Nodes      int
	Meshes     int
	Primitives int
	Triangles  int
	Skins      int
	Clips      int
	Textures   int
}

// Stats counts what the bundle contains.
func (b *Bundle) Stats() BundleStats {
	s := BundleStats{Nodes: len(b.Nodes), Skins: len(b.Skins), Clips: len(b.Clips)}
	textures := make(map[*scenegraph.Texture]struct{})
	for _, n := range b.Nodes {
		if n.Mesh == nil {
			continue
		}
		s.Meshes++
		for _, p := range n.Mesh.Primitives {
			s.Primitives++
			s.Triangles += p.TriangleCount()
			if p.Material != nil && p.Material.Texture != nil {
				textures[p.Material.Texture] = struct{}{}
			}
		}
	}
	s.Textures = len(textures)
	return s
}

// DecodeBundle reads a .gltf or .glb file from fsys. External buffers and
// images are resolved relative to the file's directory.
func DecodeBundle(fsys fs.FS, name string, data []byte) (*Bundle, error) {
	dir := path.Dir(name)
	resources := fsys
	if dir != "." {
		sub, err := fs.Sub(fsys, dir)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", dir, err)
		}
		resources = sub
	}

	doc := new(gltf.Document)
	if err := gltf.NewDecoderFS(bytes.NewReader(data), resources).Decode(doc); err != nil {
		return nil, fmt.Errorf("decoding bundle %s: %w", name, err)
	}

	b := &bundleBuilder{
		doc:       doc,
		fsys:      resources,
		textures:  make(map[int]*scenegraph.Texture),
		materials: make(map[int]*scenegraph.Material),
	}
	bundle, err := b.build(name)
	if err != nil {
		return nil, fmt.Errorf("building bundle %s: %w", name, err)
	}
	return bundle, nil
}

type bundleBuilder struct {
	doc       *gltf.Document
	fsys      fs.FS
	nodes     []*scenegraph.Node
	textures  map[int]*scenegraph.Texture
	materials map[int]*scenegraph.Material
}

func (b *bundleBuilder) build(name string) (*Bundle, error) {
	doc := b.doc

	b.nodes = make([]*scenegraph.Node, len(doc.Nodes))
	for i, gn := range doc.Nodes {
		n := scenegraph.NewNode(gn.Name)
		if m := gn.MatrixOrDefault(); m != gltf.DefaultMatrix {
			var mat math.Mat4
			for k := range mat {
				mat[k] = float32(m[k])
			}
			n.SetLocal(mat)
		} else {
			t, r, s := gn.TranslationOrDefault(), gn.RotationOrDefault(), gn.ScaleOrDefault()
			n.Translation = math.Vec3{X: float32(t[0]), Y: float32(t[1]), Z: float32(t[2])}
			n.Rotation = math.Quat{X: float32(r[0]), Y: float32(r[1]), Z: float32(r[2]), W: float32(r[3])}
			n.Scale = math.Vec3{X: float32(s[0]), Y: float32(s[1]), Z: float32(s[2])}
		}
		b.nodes[i] = n
	}

	hasParent := make([]bool, len(doc.Nodes))
	for i, gn := range doc.Nodes {
		for _, c := range gn.Children {
			if c < 0 || c >= len(b.nodes) {
				return nil, fmt.Errorf("node %d: child %d out of range", i, c)
			}
			b.nodes[i].Add(b.nodes[c])
			hasParent[c] = true
		}
	}

	for i, gn := range doc.Nodes {
		if gn.Mesh == nil {
			continue
		}
		mesh, err := b.mesh(*gn.Mesh)
		if err != nil {
			return nil, err
		}
		b.nodes[i].Kind = scenegraph.KindMesh
		b.nodes[i].Mesh = mesh
	}

	var skins []*scenegraph.Skin
	for i, gn := range doc.Nodes {
		if gn.Skin == nil {
			continue
		}
		skin, err := b.skin(*gn.Skin)
		if err != nil {
			return nil, err
		}
		b.nodes[i].Skin = skin
		skins = append(skins, skin)
	}

	clips := make([]*animation.Clip, 0, len(doc.Animations))
	for i, ga := range doc.Animations {
		clip, err := b.clip(i, ga)
		if err != nil {
			return nil, err
		}
		clips = append(clips, clip)
	}

	root := scenegraph.NewNode(path.Base(name))
	switch {
	case len(doc.Scenes) > 0:
		idx := 0
		if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
			idx = *doc.Scene
		}
		for _, ni := range doc.Scenes[idx].Nodes {
			if ni >= 0 && ni < len(b.nodes) {
				root.Add(b.nodes[ni])
			}
		}
	default:
		for i, n := range b.nodes {
			if !hasParent[i] {
				root.Add(n)
			}
		}
	}

	return &Bundle{Path: name, Root: root, Nodes: b.nodes, Clips: clips, Skins: skins}, nil
}

func (b *bundleBuilder) accessor(idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(b.doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", idx)
	}
	return b.doc.Accessors[idx], nil
}

func (b *bundleBuilder) mesh(idx int) (*scenegraph.Mesh, error) {
	if idx < 0 || idx >= len(b.doc.Meshes) {
		return nil, fmt.Errorf("mesh %d out of range", idx)
	}
	gm := b.doc.Meshes[idx]
	mesh := &scenegraph.Mesh{Name: gm.Name}

	for pi, gp := range gm.Primitives {
		if gp.Mode != gltf.PrimitiveTriangles {
			continue
		}
		p, err := b.primitive(gp)
		if err != nil {
			return nil, fmt.Errorf("mesh %q primitive %d: %w", gm.Name, pi, err)
		}
		mesh.Primitives = append(mesh.Primitives, p)
	}
	return mesh, nil
}

func (b *bundleBuilder) primitive(gp *gltf.Primitive) (*scenegraph.Primitive, error) {
	p := &scenegraph.Primitive{}
	posIdx, ok := gp.Attributes["POSITION"]
	if !ok {
		return nil, fmt.Errorf("missing POSITION")
	}
	acr, err := b.accessor(posIdx)
	if err != nil {
		return nil, err
	}
	if p.Positions, err = modeler.ReadPosition(b.doc, acr, nil); err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}

	if idx, ok := gp.Attributes["NORMAL"]; ok {
		if acr, err = b.accessor(idx); err != nil {
			return nil, err
		}
		if p.Normals, err = modeler.ReadNormal(b.doc, acr, nil); err != nil {
			return nil, fmt.Errorf("normals: %w", err)
		}
	}
	if idx, ok := gp.Attributes["TEXCOORD_0"]; ok {
		if acr, err = b.accessor(idx); err != nil {
			return nil, err
		}
		if p.UVs, err = modeler.ReadTextureCoord(b.doc, acr, nil); err != nil {
			return nil, fmt.Errorf("uvs: %w", err)
		}
	}
	if idx, ok := gp.Attributes["JOINTS_0"]; ok {
		if acr, err = b.accessor(idx); err != nil {
			return nil, err
		}
		if p.Joints, err = modeler.ReadJoints(b.doc, acr, nil); err != nil {
			return nil, fmt.Errorf("joints: %w", err)
		}
	}
	if idx, ok := gp.Attributes["WEIGHTS_0"]; ok {
		if acr, err = b.accessor(idx); err != nil {
			return nil, err
		}
		if p.Weights, err = modeler.ReadWeights(b.doc, acr, nil); err != nil {
			return nil, fmt.Errorf("weights: %w", err)
		}
	}
	if gp.Indices != nil {
		if acr, err = b.accessor(*gp.Indices); err != nil {
			return nil, err
		}
		if p.Indices, err = modeler.ReadIndices(b.doc, acr, nil); err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
	}

	if gp.Material != nil {
		mat, err := b.material(*gp.Material)
		if err != nil {
			return nil, err
		}
		p.Material = mat
	} else {
		p.Material = scenegraph.NewMaterial("default")
	}

	p.Bounds = scenegraph.ComputeBounds(p.Positions)
	return p, nil
}

func (b *bundleBuilder) material(idx int) (*scenegraph.Material, error) {
	if m, ok := b.materials[idx]; ok {
		return m, nil
	}
	if idx < 0 || idx >= len(b.doc.Materials) {
		return nil, fmt.Errorf("material %d out of range", idx)
	}
	gm := b.doc.Materials[idx]
	m := scenegraph.NewMaterial(gm.Name)

	if pbr := gm.PBRMetallicRoughness; pbr != nil {
		c := pbr.BaseColorFactorOrDefault()
		m.Color = [4]float32{float32(c[0]), float32(c[1]), float32(c[2]), float32(c[3])}
		m.Metalness = float32(pbr.MetallicFactorOrDefault())
		if pbr.BaseColorTexture != nil {
			tex, err := b.texture(pbr.BaseColorTexture.Index)
			if err != nil {
				return nil, fmt.Errorf("material %q: %w", gm.Name, err)
			}
			m.Texture = tex
		}
	}
	if gm.DoubleSided {
		m.Side = scenegraph.DoubleSide
	}
	if gm.AlphaMode == gltf.AlphaBlend {
		m.Transparent = true
	}
	if _, ok := gm.Extensions["KHR_materials_unlit"]; ok {
		m.Unlit = true
	}

	b.materials[idx] = m
	return m, nil
}

func (b *bundleBuilder) texture(idx int) (*scenegraph.Texture, error) {
	if t, ok := b.textures[idx]; ok {
		return t, nil
	}
	if idx < 0 || idx >= len(b.doc.Textures) {
		return nil, fmt.Errorf("texture %d out of range", idx)
	}
	src := b.doc.Textures[idx].Source
	if src == nil || *src < 0 || *src >= len(b.doc.Images) {
		return nil, fmt.Errorf("texture %d has no image", idx)
	}
	img := b.doc.Images[*src]

	var (
		data []byte
		err  error
		name = img.Name
	)
	switch {
	case img.BufferView != nil:
		if *img.BufferView < 0 || *img.BufferView >= len(b.doc.BufferViews) {
			return nil, fmt.Errorf("image %d: buffer view out of range", *src)
		}
		data, err = modeler.ReadBufferView(b.doc, b.doc.BufferViews[*img.BufferView])
	case img.IsEmbeddedResource():
		data, err = img.MarshalData()
	default:
		uri, uerr := url.PathUnescape(img.URI)
		if uerr != nil {
			uri = img.URI
		}
		if name == "" {
			name = uri
		}
		data, err = fs.ReadFile(b.fsys, Clean(uri))
	}
	if err != nil {
		return nil, fmt.Errorf("image %d: %w", *src, err)
	}

	tex, err := DecodeTexture(name, data)
	if err != nil {
		return nil, err
	}
	b.textures[idx] = tex
	return tex, nil
}

func (b *bundleBuilder) skin(idx int) (*scenegraph.Skin, error) {
	if idx < 0 || idx >= len(b.doc.Skins) {
		return nil, fmt.Errorf("skin %d out of range", idx)
	}
	gs := b.doc.Skins[idx]
	skin := &scenegraph.Skin{Name: gs.Name}
	for _, j := range gs.Joints {
		if j < 0 || j >= len(b.nodes) {
			return nil, fmt.Errorf("skin %q: joint %d out of range", gs.Name, j)
		}
		skin.Joints = append(skin.Joints, b.nodes[j])
	}

	if gs.InverseBindMatrices != nil {
		acr, err := b.accessor(*gs.InverseBindMatrices)
		if err != nil {
			return nil, err
		}
		raw, err := modeler.ReadAccessor(b.doc, acr, nil)
		if err != nil {
			return nil, fmt.Errorf("skin %q: inverse bind matrices: %w", gs.Name, err)
		}
		mats, ok := raw.([][4][4]float32)
		if !ok {
			return nil, fmt.Errorf("skin %q: unexpected inverse bind type %T", gs.Name, raw)
		}
		for _, m := range mats {
			var out math.Mat4
			for col := 0; col < 4; col++ {
				for row := 0; row < 4; row++ {
					out[col*4+row] = m[col][row]
				}
			}
			skin.InverseBind = append(skin.InverseBind, out)
		}
	}
	for len(skin.InverseBind) < len(skin.Joints) {
		skin.InverseBind = append(skin.InverseBind, math.Identity())
	}
	return skin, nil
}

func (b *bundleBuilder) clip(idx int, ga *gltf.Animation) (*animation.Clip, error) {
	name := ga.Name
	if name == "" {
		name = fmt.Sprintf("animation_%d", idx)
	}

	var tracks []animation.Track
	for ci, ch := range ga.Channels {
		if ch.Target.Node == nil || *ch.Target.Node < 0 || *ch.Target.Node >= len(b.nodes) {
			continue
		}
		var p animation.Path
		switch ch.Target.Path {
		case gltf.TRSTranslation:
			p = animation.PathTranslation
		case gltf.TRSRotation:
			p = animation.PathRotation
		case gltf.TRSScale:
			p = animation.PathScale
		default:
			// Morph target weights are not animated.
			continue
		}
		if ch.Sampler < 0 || ch.Sampler >= len(ga.Samplers) {
			return nil, fmt.Errorf("clip %q channel %d: sampler out of range", name, ci)
		}
		s := ga.Samplers[ch.Sampler]

		times, err := b.floats(s.Input)
		if err != nil {
			return nil, fmt.Errorf("clip %q channel %d input: %w", name, ci, err)
		}
		values, err := b.floats(s.Output)
		if err != nil {
			return nil, fmt.Errorf("clip %q channel %d output: %w", name, ci, err)
		}

		interp := animation.Linear
		switch s.Interpolation {
		case gltf.InterpolationStep:
			interp = animation.Step
		case gltf.InterpolationCubicSpline:
			interp = animation.CubicSpline
		}

		tracks = append(tracks, animation.Track{
			Target:        b.nodes[*ch.Target.Node],
			Path:          p,
			Interpolation: interp,
			Times:         times,
			Values:        values,
		})
	}
	return animation.NewClip(name, tracks), nil
}

// floats reads an accessor and flattens it into float32 components.
// Normalized integer outputs are converted to [-1, 1] or [0, 1].
func (b *bundleBuilder) floats(idx int) ([]float32, error) {
	acr, err := b.accessor(idx)
	if err != nil {
		return nil, err
	}
	raw, err := modeler.ReadAccessor(b.doc, acr, nil)
	if err != nil {
		return nil, err
	}

	switch v := raw.(type) {
	case []float32:
		return v, nil
	case [][3]float32:
		out := make([]float32, 0, len(v)*3)
		for _, e := range v {
			out = append(out, e[:]...)
		}
		return out, nil
	case [][4]float32:
		out := make([]float32, 0, len(v)*4)
		for _, e := range v {
			out = append(out, e[:]...)
		}
		return out, nil
	case [][4]int16:
		out := make([]float32, 0, len(v)*4)
		for _, e := range v {
			for _, c := range e {
				out = append(out, max(float32(c)/32767, -1))
			}
		}
		return out, nil
	case [][4]int8:
		out := make([]float32, 0, len(v)*4)
		for _, e := range v {
			for _, c := range e {
				out = append(out, max(float32(c)/127, -1))
			}
		}
		return out, nil
	case [][4]uint16:
		out := make([]float32, 0, len(v)*4)
		for _, e := range v {
			for _, c := range e {
				out = append(out, float32(c)/65535)
			}
		}
		return out, nil
	case [][4]uint8:
		out := make([]float32, 0, len(v)*4)
		for _, e := range v {
			for _, c := range e {
				out = append(out, float32(c)/255)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported accessor data %T", raw)
	}
}
