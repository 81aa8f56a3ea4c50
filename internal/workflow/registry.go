package workflow

import (
	"fmt"
	"sync"
)

// Registry holds the ordered phase list of a pipeline.
type Registry struct {
	mu     sync.RWMutex
	phases map[string]Phase
	order  []string
}

func NewRegistry() *Registry {
	return &Registry{
		phases: make(map[string]Phase),
	}
}

// Register appends a phase to the pipeline. Phase names must be unique;
// registration order is execution order.
func (r *Registry) Register(p Phase) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.Name == "" {
		return fmt.Errorf("phase name must not be empty")
	}
	if _, exists := r.phases[p.Name]; exists {
		return fmt.Errorf("phase %s is already registered", p.Name)
	}

	r.phases[p.Name] = p
	r.order = append(r.order, p.Name)
	return nil
}

// Phases returns the registered phases in execution order.
func (r *Registry) Phases() []Phase {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Phase, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.phases[name])
	}
	return out
}

// Index returns the position of a phase in execution order, or -1 if the
// phase is unknown.
func (r *Registry) Index(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i, n := range r.order {
		if n == name {
			return i
		}
	}
	return -1
}
