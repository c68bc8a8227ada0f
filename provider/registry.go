package provider

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages processor connection factories by name
type Registry[C any, P any] struct {
	factories map[string]ConnectionFactory[C, P]
	mu        sync.RWMutex
}

// NewRegistry creates an empty connection registry
func NewRegistry[C any, P any]() *Registry[C, P] {
	return &Registry[C, P]{
		factories: make(map[string]ConnectionFactory[C, P]),
	}
}

// Register adds a connection factory to the registry
func (r *Registry[C, P]) Register(name string, factory ConnectionFactory[C, P]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get retrieves a connection factory by name
func (r *Registry[C, P]) Get(name string) (ConnectionFactory[C, P], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.factories[name]
	if !exists {
		return nil, fmt.Errorf("processor connection '%s' is not registered", name)
	}

	return factory, nil
}

// Create builds a new connection instance for the given settings
func (r *Registry[C, P]) Create(name string, settings ConnectionSettings) (ProcessorConnection[C, P], error) {
	factory, err := r.Get(name)
	if err != nil {
		return nil, err
	}

	return factory(settings), nil
}

// Names returns the registered connection names in sorted order
func (r *Registry[C, P]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// DefaultRegistry holds the card connections shipped with this module
var DefaultRegistry = NewRegistry[APIKeyCredentials, CardDetails]()

// Register registers a card connection with the default registry
func Register(name string, factory ConnectionFactory[APIKeyCredentials, CardDetails]) {
	DefaultRegistry.Register(name, factory)
}

// Create builds a card connection from the default registry
func Create(name string, settings ConnectionSettings) (ProcessorConnection[APIKeyCredentials, CardDetails], error) {
	return DefaultRegistry.Create(name, settings)
}
