package upt

import (
	"context"
	"fmt"
	"sort"
)

// Frontend turns the name of a package from one upstream ecosystem into a Package.
type Frontend interface {
	// Parse returns the Package for name, or an InvalidPackageNameError if
	// the upstream ecosystem has no such package.
	Parse(ctx context.Context, name string) (*Package, error)
}

// Backend renders a Package as a package definition for a target ecosystem.
type Backend interface {
	// CreatePackage writes the definition for pkg. output is a file or
	// directory hint the backend may ignore; empty means standard output.
	// A backend that cannot handle pkg.Frontend returns an UnhandledFrontendError.
	CreatePackage(ctx context.Context, pkg *Package, output string) error
}

// FrontendFactory creates a Frontend.
type FrontendFactory func() Frontend

// BackendFactory creates a Backend.
type BackendFactory func() Backend

// Category names a kind of plugin.
type Category string

const (
	Frontends Category = "upt.frontends"
	Backends  Category = "upt.backends"
)

// Registry maps plugin names to factories, per category. It is built once at
// startup and handed to dispatch.
type Registry struct {
	frontends map[string]FrontendFactory
	backends  map[string]BackendFactory
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		frontends: make(map[string]FrontendFactory),
		backends:  make(map[string]BackendFactory),
	}
}

// RegisterFrontend makes a frontend available under name, replacing any
// frontend registered under the same name.
func (r *Registry) RegisterFrontend(name string, factory FrontendFactory) {
	r.frontends[name] = factory
}

// RegisterBackend makes a backend available under name, replacing any
// backend registered under the same name.
func (r *Registry) RegisterBackend(name string, factory BackendFactory) {
	r.backends[name] = factory
}

// Names returns the sorted plugin names of a category.
func (r *Registry) Names(category Category) []string {
	var names []string
	switch category {
	case Frontends:
		for name := range r.frontends {
			names = append(names, name)
		}
	case Backends:
		for name := range r.backends {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Frontends returns the sorted frontend names.
func (r *Registry) Frontends() []string {
	return r.Names(Frontends)
}

// Backends returns the sorted backend names.
func (r *Registry) Backends() []string {
	return r.Names(Backends)
}

// Frontend creates the frontend registered under name.
func (r *Registry) Frontend(name string) (Frontend, error) {
	if len(r.frontends) == 0 {
		return nil, &Error{Kind: ErrKindNoFrontends, Message: "No frontends are installed."}
	}
	factory, ok := r.frontends[name]
	if !ok {
		return nil, &Error{Kind: ErrKindUnknownFrontend, Message: fmt.Sprintf("No frontend named %s.", name)}
	}
	return factory(), nil
}

// Backend creates the backend registered under name.
func (r *Registry) Backend(name string) (Backend, error) {
	if len(r.backends) == 0 {
		return nil, &Error{Kind: ErrKindNoBackends, Message: "No backends are installed."}
	}
	factory, ok := r.backends[name]
	if !ok {
		return nil, &Error{Kind: ErrKindUnknownBackend, Message: fmt.Sprintf("No backend named %s.", name)}
	}
	return factory(), nil
}
