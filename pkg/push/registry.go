package push

import (
	"context"
	"strings"
	"sync"

	"github.com/larapush/larapush-go/pkg/domain"
)

// ActivityHandler opens an in-app destination for a click.
type ActivityHandler func(ctx context.Context, click domain.Click) error

// Registry maps activity names to handlers. Names are qualified with the
// application namespace, so "Settings" registers "<namespace>.Settings".
type Registry struct {
	mu        sync.RWMutex
	namespace string
	handlers  map[string]ActivityHandler
	fallback  ActivityHandler
}

// NewRegistry creates an empty registry for namespace.
func NewRegistry(namespace string) *Registry {
	return &Registry{
		namespace: namespace,
		handlers:  make(map[string]ActivityHandler),
	}
}

// Register binds name to h. Already-qualified names are kept as is.
func (r *Registry) Register(name string, h ActivityHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !strings.HasPrefix(name, r.namespace+".") {
		name = r.qualify(name)
	}
	r.handlers[name] = h
}

// SetDefault sets the application's default entry point, used when an
// activity cannot be resolved.
func (r *Registry) SetDefault(h ActivityHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = h
}

// Resolve looks up "<namespace>.<name>".
func (r *Registry) Resolve(name string) (ActivityHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[r.qualify(name)]
	return h, ok && h != nil
}

// Default returns the default entry point, or nil.
func (r *Registry) Default() ActivityHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fallback
}

// Names lists the qualified names currently registered.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for n := range r.handlers {
		names = append(names, n)
	}
	return names
}

func (r *Registry) qualify(name string) string {
	return r.namespace + "." + name
}
