package matcher

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/roach88/janus/internal/validate"
)

var (
	// ErrRegistrySealed is returned when registering a matcher while a run
	// is draining.
	ErrRegistrySealed = errors.New("matcher registry is sealed during a run")

	// ErrDuplicateMatcher is returned for a name already registered or
	// reserved by a built-in matcher.
	ErrDuplicateMatcher = errors.New("matcher already registered")

	// ErrInvalidMatcher is returned for an empty name or nil validator.
	ErrInvalidMatcher = errors.New("matcher needs a name and a validator")
)

var builtins = []string{
	NameToBe,
	NameToEqual,
	NameToHaveBeenCalled,
	NameToHaveBeenCalledTimes,
	NameToHaveBeenCalledWith,
}

// Default is the process-wide registry used when none is configured.
var Default = NewRegistry()

// Registry maps custom matcher names to validators. Writes are only allowed
// while it is unsealed, i.e. before or between runs. Seals nest: runs that
// overlap on a shared registry each Seal and Unseal once.
type Registry struct {
	mu         sync.RWMutex
	validators map[string]validate.Validator
	seals      int
}

// NewRegistry creates an empty, unsealed registry.
func NewRegistry() *Registry {
	return &Registry{validators: make(map[string]validate.Validator)}
}

// Register adds a custom matcher.
func (r *Registry) Register(name string, v validate.Validator) error {
	if name == "" || v == nil {
		return ErrInvalidMatcher
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.seals > 0 {
		return fmt.Errorf("register %q: %w", name, ErrRegistrySealed)
	}
	if slices.Contains(builtins, name) {
		return fmt.Errorf("register %q: %w (built-in)", name, ErrDuplicateMatcher)
	}
	if _, ok := r.validators[name]; ok {
		return fmt.Errorf("register %q: %w", name, ErrDuplicateMatcher)
	}
	r.validators[name] = v
	return nil
}

// Lookup returns the validator registered under name.
func (r *Registry) Lookup(name string) (validate.Validator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.validators[name]
	return v, ok
}

// Names returns the registered custom matcher names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.validators))
	for name := range r.validators {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Seal rejects further registrations until the matching Unseal.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seals++
}

// Unseal releases one Seal.
func (r *Registry) Unseal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seals > 0 {
		r.seals--
	}
}

// Sealed reports whether the registry is sealed.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.seals > 0
}
