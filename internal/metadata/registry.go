package metadata

import (
	"sort"
	"sync"
)

type Registry struct {
	mu       sync.RWMutex
	entities map[string]*Entity
}

func NewRegistry() *Registry {
	return &Registry{
		entities: make(map[string]*Entity),
	}
}

// GetEntity returns the entity with the given name, or nil.
func (r *Registry) GetEntity(name string) *Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entities[name]
}

// AllEntities returns all registered entities, ordered by name.
func (r *Registry) AllEntities() []*Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entities := make([]*Entity, 0, len(r.entities))
	for _, e := range r.entities {
		entities = append(entities, e)
	}
	sort.Slice(entities, func(i, j int) bool { return entities[i].Name < entities[j].Name })
	return entities
}

// Len returns the number of registered entities.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entities)
}

// Load replaces all entities in the registry.
// Called during startup and after admin mutations.
func (r *Registry) Load(entities []*Entity) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entities = make(map[string]*Entity, len(entities))
	for _, e := range entities {
		r.entities[e.Name] = e
	}
}

// Merge adds entities that are not registered yet and returns how many were
// added. Used to seed the registry from a definitions file without
// overriding what the database holds.
func (r *Registry) Merge(entities []*Entity) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	added := 0
	for _, e := range entities {
		if _, ok := r.entities[e.Name]; ok {
			continue
		}
		r.entities[e.Name] = e
		added++
	}
	return added
}
