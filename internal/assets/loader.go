package assets

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/hotspot-viewer/internal/engine/scenegraph"
	"github.com/Faultbox/hotspot-viewer/internal/logger"
)

// Kind tags a load result.
type Kind int

const (
	KindTexture Kind = iota
	KindBundle
)

// String returns the kind name.
func (k Kind) String() string {
	if k == KindBundle {
		return "bundle"
	}
	return "texture"
}

// Result is delivered once per load request. Exactly one of Texture, Bundle
// or Err is set.
type Result struct {
	Kind    Kind
	Path    string
	Texture *scenegraph.Texture
	Bundle  *Bundle
	Err     error
}

// Loader decodes assets off the caller's goroutine.
type Loader struct {
	manager *Manager
	log     *zap.Logger
}

// NewLoader creates a loader reading from m.
func NewLoader(m *Manager) *Loader {
	return &Loader{manager: m, log: logger.Named("assets")}
}

// LoadTexture decodes an image in the background. The channel yields one
// result and is then closed.
func (l *Loader) LoadTexture(ctx context.Context, name string) <-chan Result {
	return l.start(ctx, KindTexture, name, func(data []byte) (Result, error) {
		tex, err := DecodeTexture(name, data)
		return Result{Texture: tex}, err
	})
}

// LoadBundle decodes a glTF file in the background. The channel yields one
// result and is then closed.
func (l *Loader) LoadBundle(ctx context.Context, name string) <-chan Result {
	return l.start(ctx, KindBundle, name, func(data []byte) (Result, error) {
		ext := strings.ToLower(path.Ext(name))
		if ext != ".gltf" && ext != ".glb" {
			return Result{}, fmt.Errorf("unsupported bundle format %q", ext)
		}
		b, err := DecodeBundle(l.manager, Clean(name), data)
		return Result{Bundle: b}, err
	})
}

func (l *Loader) start(ctx context.Context, kind Kind, name string, decode func([]byte) (Result, error)) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		started := time.Now()

		res, err := l.load(ctx, name, decode)
		res.Kind = kind
		res.Path = name
		if err != nil {
			res = Result{Kind: kind, Path: name, Err: fmt.Errorf("loading %s %s: %w", kind, name, err)}
		}
		l.log.Debug("load finished",
			zap.Stringer("kind", kind),
			zap.String("path", name),
			zap.Duration("took", time.Since(started)),
			zap.Bool("ok", res.Err == nil))
		ch <- res
	}()
	return ch
}

func (l *Loader) load(ctx context.Context, name string, decode func([]byte) (Result, error)) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	data, err := l.manager.Load(name)
	if err != nil {
		return Result{}, err
	}
	res, err := decode(data)
	if err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	return res, nil
}

// Poll returns a ready result without blocking. ok is false while the load
// is still running and after the result has been taken.
func Poll(ch <-chan Result) (Result, bool) {
	select {
	case r, ok := <-ch:
		return r, ok
	default:
		return Result{}, false
	}
}
