package capabilities

import (
	"fmt"
	"sort"
	"sync"

	errx "github.com/tutor-orchestrator/server/internal/core/error"
	"github.com/tutor-orchestrator/server/internal/tutor/model"
)

// Registry resolves capabilities by name. It is owned by the orchestrator's
// dependency set.
type Registry struct {
	mu   sync.RWMutex
	caps map[string]model.Capability
}

func NewRegistry(caps ...model.Capability) (*Registry, error) {
	r := &Registry{caps: make(map[string]model.Capability, len(caps))}
	for _, c := range caps {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds c. Names are unique.
func (r *Registry) Register(c model.Capability) error {
	if c == nil || c.Name() == "" {
		return fmt.Errorf("register capability: missing name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.caps[c.Name()]; ok {
		return fmt.Errorf("register capability: %q already registered", c.Name())
	}
	r.caps[c.Name()] = c
	return nil
}

func (r *Registry) Tool(name string) (model.Capability, error) {
	r.mu.RLock()
	c, ok := r.caps[name]
	r.mu.RUnlock()
	if !ok {
		return nil, errx.UnknownCapability(name)
	}
	return c, nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.caps))
	for name := range r.caps {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
