package statemachine

import "sync"

// Registry tracks live machines for external enumeration and lookup.
// Machines join on New (when built WithRegistry) and leave on Destroy.
// Safe for concurrent use so hosts may run machines on several goroutines.
type Registry struct {
	mu       sync.RWMutex
	machines []*Machine
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds m unless it is already present.
func (r *Registry) Register(m *Machine) {
	if m == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.machines {
		if existing == m {
			return
		}
	}
	r.machines = append(r.machines, m)
}

// Deregister removes m and reports whether it was present.
func (r *Registry) Deregister(m *Machine) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.machines {
		if existing == m {
			r.machines = append(r.machines[:i], r.machines[i+1:]...)
			return true
		}
	}
	return false
}

// Machines returns a snapshot in registration order.
func (r *Registry) Machines() []*Machine {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Machine, len(r.machines))
	copy(out, r.machines)
	return out
}

// Find returns the first registered machine with the given name.
func (r *Registry) Find(name string) (*Machine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.machines {
		if m.name == name {
			return m, true
		}
	}
	return nil, false
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.machines)
}
