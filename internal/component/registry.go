package component

import (
	"fmt"
	"log/slog"
	"strings"
)

// Registry maps component names to their templates. The app layer uses it
// to resolve the root component named in configuration, and transports use
// it to sanity-check incoming references.
//
// Registration happens during startup and is a programmer-error boundary:
// duplicate or malformed names panic, matching how mismatches between code
// and configuration are treated elsewhere.
type Registry struct {
	components map[string]Component
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{components: make(map[string]Component)}
}

// Register adds a component under its name.
func (r *Registry) Register(c Component) {
	name := c.Name()
	if name == "" {
		panic("component: cannot register a component with an empty name")
	}
	if strings.ContainsAny(name, "/@:%") {
		panic(fmt.Sprintf("component: name %q contains id syntax characters", name))
	}
	if _, exists := r.components[name]; exists {
		panic(fmt.Sprintf("component: %q already registered", name))
	}
	slog.Debug("Registering component.", "name", name, "kind", c.Kind().String())
	r.components[name] = c
}

// Lookup resolves a component by name.
func (r *Registry) Lookup(name string) (Component, bool) {
	c, ok := r.components[name]
	return c, ok
}

// Len reports how many components are registered.
func (r *Registry) Len() int {
	return len(r.components)
}
