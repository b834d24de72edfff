package schema

import (
	"fmt"
	"sync"
)

// Registry is the metadata collaborator: an explicit lookup of entity schemas built at startup.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*Schema
}

func NewRegistry(schemas ...*Schema) (*Registry, error) {
	r := &Registry{schemas: make(map[string]*Schema)}
	for _, s := range schemas {
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(s *Schema) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.schemas[s.Name()]; ok {
		return fmt.Errorf("schema %q is already registered", s.Name())
	}
	r.schemas[s.Name()] = s
	return nil
}

func (r *Registry) Get(name string) (*Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[name]
	return s, ok
}

func (r *Registry) MustGet(name string) *Schema {
	s, ok := r.Get(name)
	if !ok {
		panic(fmt.Sprintf("schema %q is not registered", name))
	}
	return s
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	return names
}
