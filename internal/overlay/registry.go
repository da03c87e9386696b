package overlay

import (
	"errors"
	"fmt"
	"sort"
)

// ErrMissingHandle is returned when a marker id has no overlay handle.
var ErrMissingHandle = errors.New("missing overlay handle")

// Registry maps hotspot ids to their overlay handles.
type Registry struct {
	handles map[string]Handle
	order   []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handles: make(map[string]Handle)}
}

// Register adds a handle under id. Ids must be unique and non-empty.
func (r *Registry) Register(id string, h Handle) error {
	if id == "" {
		return fmt.Errorf("register overlay: empty id")
	}
	if h == nil {
		return fmt.Errorf("register overlay %s: nil handle", id)
	}
	if _, dup := r.handles[id]; dup {
		return fmt.Errorf("register overlay %s: duplicate id", id)
	}
	r.handles[id] = h
	r.order = append(r.order, id)
	return nil
}

// Handle looks up the handle for id.
func (r *Registry) Handle(id string) (Handle, bool) {
	h, ok := r.handles[id]
	return h, ok
}

// IDs returns registered ids in registration order.
func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}

// Len returns the number of handles.
func (r *Registry) Len() int {
	return len(r.order)
}

// Validate checks that every marker id has a handle.
func (r *Registry) Validate(markerIDs []string) error {
	var missing []string
	for _, id := range markerIDs {
		if _, ok := r.handles[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	errs := make([]error, 0, len(missing))
	for _, id := range missing {
		errs = append(errs, fmt.Errorf("%w: %s", ErrMissingHandle, id))
	}
	return errors.Join(errs...)
}
