// Package registry decouples what content type a panel shows from which
// component renders it. Components may be registered eagerly or
// resolved lazily on first use so panels that never open cost nothing.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"parcelgrid/internal/log"
)

// Component is whatever the rendering layer hands us; the core never
// calls into it. It aliases any so callers can register plain
// func() (any, error) literals without converting.
type Component = any

// Factory produces an eagerly available component.
type Factory func() (Component, error)

// Loader resolves a component on first use, typically paying a loading
// cost the caller wants to defer.
type Loader func(ctx context.Context) (Component, error)

// ErrUnknownContentType is returned when no registration exists for a
// content type.
var ErrUnknownContentType = errors.New("unknown content type")

// Registry maps content-type tags to component factories. Construct
// one per sync context; there is no package-level instance.
type Registry struct {
	mu       sync.Mutex
	eager    map[string]Factory
	lazy     map[string]Loader
	resolved map[string]Component
	group    singleflight.Group
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		eager:    make(map[string]Factory),
		lazy:     make(map[string]Loader),
		resolved: make(map[string]Component),
	}
}

// RegisterComponent registers an eager factory. The last registration
// for a content type wins; re-registration is allowed (hot reload,
// tests) and logged.
func (r *Registry) RegisterComponent(contentType string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.eager[contentType]; exists {
		log.Warn(log.CatRegistry, "re-registering component", "content_type", contentType)
	}
	r.eager[contentType] = factory
	delete(r.lazy, contentType)
	delete(r.resolved, contentType)
}

// RegisterLazy registers a loader invoked at most once per content type
// on successful resolution. A failed load is reported to the caller and
// does not poison the cache: the next Resolve retries the loader.
func (r *Registry) RegisterLazy(contentType string, loader Loader) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.lazy[contentType]; exists {
		log.Warn(log.CatRegistry, "re-registering lazy component", "content_type", contentType)
	}
	r.lazy[contentType] = loader
	delete(r.eager, contentType)
	delete(r.resolved, contentType)
}

// Resolve returns the component for a content type. Concurrent first
// resolutions of the same lazy type share one in-flight load.
func (r *Registry) Resolve(ctx context.Context, contentType string) (Component, error) {
	r.mu.Lock()
	if c, ok := r.resolved[contentType]; ok {
		r.mu.Unlock()
		return c, nil
	}
	if factory, ok := r.eager[contentType]; ok {
		r.mu.Unlock()
		return factory()
	}
	loader, ok := r.lazy[contentType]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownContentType, contentType)
	}

	c, err, _ := r.group.Do(contentType, func() (any, error) {
		component, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.resolved[contentType] = component
		r.mu.Unlock()
		return component, nil
	})
	if err != nil {
		log.ErrorErr(log.CatRegistry, "lazy component load failed", err, "content_type", contentType)
		return nil, fmt.Errorf("loading component %q: %w", contentType, err)
	}
	return c, nil
}

// ContentTypes returns the registered content types, sorted. It has no
// side effects.
func (r *Registry) ContentTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	types := make([]string, 0, len(r.eager)+len(r.lazy))
	for ct := range r.eager {
		types = append(types, ct)
	}
	for ct := range r.lazy {
		types = append(types, ct)
	}
	sort.Strings(types)
	return types
}
