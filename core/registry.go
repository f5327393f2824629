package core

import (
	"context"
	"sort"
	"strings"
)

// DefaultNamespace is implied by a bare effect name (no dot).
var DefaultNamespace = "default"

// Handler executes one effect.
//
// The args have been fully resolved.  The Ctx gives the handler the
// run's input, the results so far, and a bound Resolve for references
// nested inside the handler's own data.  A handler that does I/O
// should honor the context.
type Handler func(ctx context.Context, args map[string]interface{}, c *Ctx) (interface{}, error)

// Plugin is a namespace worth of named effects.
type Plugin struct {
	Namespace string
	Effects   map[string]Handler
}

// Registry maps namespaces to plugins.
//
// A Registry is a plain value owned by whoever wires up execution;
// there is no package-level instance.  It is not synchronized.
// Registering during interleaved runs is the caller's race to avoid,
// and that's documented rather than locked away: within one run the
// executor only reads.
type Registry struct {
	plugins map[string]*Plugin
}

func NewRegistry() *Registry {
	return &Registry{
		plugins: make(map[string]*Plugin, 8),
	}
}

// Register adds the plugin.  Registering a namespace that already
// exists replaces the prior registration wholesale; effects are not
// merged.
func (r *Registry) Register(p *Plugin) {
	r.plugins[p.Namespace] = p
}

// Unregister removes the namespace (if present).
func (r *Registry) Unregister(namespace string) {
	delete(r.plugins, namespace)
}

// Clear removes everything.
func (r *Registry) Clear() {
	r.plugins = make(map[string]*Plugin, 8)
}

// Namespaces lists the registered namespaces, sorted.
func (r *Registry) Namespaces() []string {
	acc := make([]string, 0, len(r.plugins))
	for ns := range r.plugins {
		acc = append(acc, ns)
	}
	sort.Strings(acc)
	return acc
}

// Lookup returns the plugin for the namespace, or nil.
func (r *Registry) Lookup(namespace string) *Plugin {
	return r.plugins[namespace]
}

// SplitEffect splits a dot-qualified effect name into namespace and
// name.  A bare name gets the DefaultNamespace.
func SplitEffect(effect string) (namespace string, name string) {
	if i := strings.Index(effect, "."); 0 <= i {
		return effect[:i], effect[i+1:]
	}
	return DefaultNamespace, effect
}
