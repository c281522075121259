package backend

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/roach88/aerbatch/internal/engine"
)

// Registry maps device names to the engines that provide them. It is
// passed explicitly to whatever builds backends; there is no global
// instance.
//
// Thread-safety: safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]map[string]engine.Engine // device -> provider id -> engine
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]map[string]engine.Engine)}
}

// Register adds eng as provider for device. Registering the same provider
// id twice for one device is an error.
func (r *Registry) Register(device, provider string, eng engine.Engine) error {
	if eng == nil {
		return fmt.Errorf("register %s/%s: nil engine", device, provider)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	byID, ok := r.providers[device]
	if !ok {
		byID = make(map[string]engine.Engine)
		r.providers[device] = byID
	}
	if _, dup := byID[provider]; dup {
		return fmt.Errorf("register %s: provider %q already registered", device, provider)
	}
	byID[provider] = eng
	return nil
}

// Lookup returns the engine for device. When several providers offer the
// device, the lexicographically smallest provider id wins and a warning is
// logged.
func (r *Registry) Lookup(device string) (engine.Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byID := r.providers[device]
	if len(byID) == 0 {
		return nil, fmt.Errorf("no engine provides device %q", device)
	}
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	if len(ids) > 1 {
		slog.Warn("several engines provide device, picking first",
			"device", device,
			"providers", ids,
			"picked", ids[0],
		)
	}
	return byID[ids[0]], nil
}

// Devices lists registered device names, sorted.
func (r *Registry) Devices() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.providers))
	for d := range r.providers {
		out = append(out, d)
	}
	slices.Sort(out)
	return out
}
