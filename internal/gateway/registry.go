package gateway

import (
	"fmt"
	"sort"
	"sync"
)

type route struct {
	providerID string
	upstreamID string
}

// registry maps public model IDs to provider routes. Thread-safe.
type registry struct {
	mu     sync.RWMutex
	routes map[string]route
}

func newRegistry() *registry {
	return &registry{
		routes: make(map[string]route),
	}
}

func (r *registry) addRoute(modelID, providerID, upstreamID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if upstreamID == "" {
		upstreamID = modelID
	}
	r.routes[modelID] = route{providerID: providerID, upstreamID: upstreamID}
}

func (r *registry) resolveRoute(modelID string) (string, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if rt, ok := r.routes[modelID]; ok {
		return rt.providerID, rt.upstreamID, nil
	}

	return "", "", fmt.Errorf("model not found: %s", modelID)
}

func (r *registry) modelIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.routes))
	for id := range r.routes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *registry) providerFor(modelID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.routes[modelID]
	return rt.providerID, ok
}
