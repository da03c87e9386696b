package overlay

import (
	"go.uber.org/zap"

	"github.com/Faultbox/hotspot-viewer/internal/logger"
)

// Markers sets the opacity of hotspot markers by id.
type Markers interface {
	SetMarkerOpacity(id string, opacity float32) bool
}

// State is the synchronizer's view of which panel is emphasized.
type State struct {
	Shown bool
	ID    string
}

// Synchronizer brings the overlay in line with the hovered marker once per
// frame. At most one handle is in the foreground at a time.
type Synchronizer struct {
	registry *Registry
	markers  Markers
	state    State
	log      *zap.Logger
}

// NewSynchronizer starts in the hidden state.
func NewSynchronizer(reg *Registry, markers Markers) *Synchronizer {
	return &Synchronizer{
		registry: reg,
		markers:  markers,
		log:      logger.Named("overlay"),
	}
}

// State returns the current state.
func (s *Synchronizer) State() State {
	return s.state
}

// Sync applies this frame's hovered hotspot id; an empty id means nothing
// relevant is under the pointer. The previous panel is restored before the
// new one is raised.
func (s *Synchronizer) Sync(hovered string) {
	if s.state.Shown && s.state.ID == hovered {
		return
	}

	if s.state.Shown {
		prev := s.state.ID
		if h, ok := s.registry.Handle(prev); ok {
			h.SetZIndex(BackgroundZ)
		} else {
			s.log.Warn("overlay handle missing", zap.String("id", prev))
		}
		s.setOpacity(prev, 1.0)
		s.state = State{}
		s.log.Debug("hotspot left", zap.String("id", prev))
	}

	if hovered == "" {
		return
	}

	s.setOpacity(hovered, 1.0)
	if h, ok := s.registry.Handle(hovered); ok {
		h.SetDisplay(DisplayBlock)
		h.SetZIndex(ForegroundZ)
	} else {
		s.log.Warn("overlay handle missing", zap.String("id", hovered))
	}
	s.state = State{Shown: true, ID: hovered}
	s.log.Debug("hotspot entered", zap.String("id", hovered))
}

func (s *Synchronizer) setOpacity(id string, opacity float32) {
	if s.markers == nil {
		return
	}
	if !s.markers.SetMarkerOpacity(id, opacity) {
		s.log.Debug("marker not found", zap.String("id", id))
	}
}
