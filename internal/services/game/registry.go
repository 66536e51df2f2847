package game

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mcoot/duoplay/internal/model"
)

// Factory builds a fresh, unstarted session
type Factory func() Session

// Registry maps game names to session factories. Names are matched
// loosely: case, spaces, hyphens and underscores are ignored.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]registration
}

type registration struct {
	name    string
	factory Factory
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]registration)}
}

// Register adds a variant. Registering the same key twice replaces it.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[Key(name)] = registration{name: name, factory: f}
}

// New creates a session for the named variant
func (r *Registry) New(name string) (Session, error) {
	r.mu.RLock()
	reg, ok := r.factories[Key(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownGame, name)
	}
	return reg.factory(), nil
}

// Canonical returns the registered spelling of name
func (r *Registry) Canonical(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.factories[Key(name)]
	return reg.name, ok
}

// Names returns the registered variant names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for _, reg := range r.factories {
		names = append(names, reg.name)
	}
	sort.Strings(names)
	return names
}

// Key normalizes a game name for comparison
func Key(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch r {
		case ' ', '-', '_':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SameGame reports whether two names refer to the same variant
func SameGame(a, b string) bool {
	return Key(a) == Key(b)
}
