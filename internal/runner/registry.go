package runner

import (
	"fmt"
	"strings"
	"sync"
)

// Body is the function a spec runs. It receives the spec's Tools.
type Body func(t *Tools)

// Spec is one registered unit of work.
type Spec struct {
	Description string
	Body        Body
	Focused     bool
}

// Registry is the ordered queue of specs. It is append-only until a runner
// seals it; after that Test and FocusTest return ErrRegistrySealed.
//
// Thread-safety: all methods are safe for concurrent use.
type Registry struct {
	mu     sync.Mutex
	specs  []Spec
	sealed bool
}

// NewRegistry creates an empty, open registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Test registers a spec.
func (r *Registry) Test(description string, body Body) error {
	return r.add(description, body, false)
}

// FocusTest registers a focused spec. Once any spec is focused, a run
// executes only the focused specs.
func (r *Registry) FocusTest(description string, body Body) error {
	return r.add(description, body, true)
}

func (r *Registry) add(description string, body Body, focused bool) error {
	if strings.TrimSpace(description) == "" {
		return ErrEmptyDescription
	}
	if body == nil {
		return fmt.Errorf("register %q: %w", description, ErrNilBody)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("register %q: %w", description, ErrRegistrySealed)
	}
	r.specs = append(r.specs, Spec{Description: description, Body: body, Focused: focused})
	return nil
}

// Len returns the number of registered specs.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.specs)
}

// Specs returns a copy of the registered specs in registration order.
func (r *Registry) Specs() []Spec {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Spec, len(r.specs))
	copy(out, r.specs)
	return out
}

// Seal closes the registry to further registration.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

// Sealed reports whether the registry has been sealed.
func (r *Registry) Sealed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sealed
}

// effective returns the specs a run executes: the focused ones if any spec
// is focused, otherwise all of them, in registration order.
func (r *Registry) effective() ([]Spec, bool) {
	all := r.Specs()
	var focused []Spec
	for _, s := range all {
		if s.Focused {
			focused = append(focused, s)
		}
	}
	if len(focused) > 0 {
		return focused, true
	}
	return all, false
}
