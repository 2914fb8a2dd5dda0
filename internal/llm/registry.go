package llm

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/threatsim/threatsim/internal/prompt"
	"github.com/threatsim/threatsim/internal/types"
)

// Registry manages provider registration, capability-based selection, and
// health aggregation. All operations are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*registryEntry
}

type registryEntry struct {
	provider Provider
	caps     Capabilities
}

// Candidate is one provider in selection order.
type Candidate struct {
	Provider     Provider
	Capabilities Capabilities
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*registryEntry),
	}
}

// Register adds a provider with its declared capabilities.
// Registering a duplicate name or a nil provider is an error.
func (r *Registry) Register(provider Provider, caps Capabilities) error {
	if provider == nil {
		return types.NewError(types.LLM_PROVIDER_INVALID_INPUT, "provider cannot be nil")
	}
	name := provider.Name()
	if name == "" {
		return types.NewError(types.LLM_PROVIDER_INVALID_INPUT, "provider name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; exists {
		return types.NewError(types.LLM_PROVIDER_EXISTS, fmt.Sprintf("provider %q already registered", name))
	}

	r.entries[name] = &registryEntry{provider: provider, caps: caps}
	return nil
}

// Unregister removes a provider by name.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; !exists {
		return types.NewError(types.LLM_PROVIDER_NOT_FOUND, fmt.Sprintf("provider %q not found", name))
	}
	delete(r.entries, name)
	return nil
}

// Get retrieves a provider by name.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.entries[name]
	if !exists {
		return nil, types.NewError(types.LLM_PROVIDER_NOT_FOUND, fmt.Sprintf("provider %q not found", name))
	}
	return entry.provider, nil
}

// List returns the names of all registered providers, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetAvailable flips a provider's availability without unregistering it.
func (r *Registry) SetAvailable(name string, available bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.entries[name]
	if !exists {
		return types.NewError(types.LLM_PROVIDER_NOT_FOUND, fmt.Sprintf("provider %q not found", name))
	}
	entry.caps.Available = available
	return nil
}

// Select returns the ordered candidate list for a content type: the
// preferred provider first when it is available and capable, then the rest
// by ascending priority, ties broken by name. Unavailable or incapable
// providers are excluded. An empty result is an error.
func (r *Registry) Select(contentType prompt.ContentType, preferred string) ([]Candidate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var preferredCand *Candidate
	rest := make([]Candidate, 0, len(r.entries))

	for name, entry := range r.entries {
		if !entry.caps.Available || !entry.caps.Supports(contentType) {
			continue
		}
		cand := Candidate{Provider: entry.provider, Capabilities: entry.caps}
		if name == preferred {
			c := cand
			preferredCand = &c
			continue
		}
		rest = append(rest, cand)
	}

	sort.Slice(rest, func(i, j int) bool {
		if rest[i].Capabilities.Priority != rest[j].Capabilities.Priority {
			return rest[i].Capabilities.Priority < rest[j].Capabilities.Priority
		}
		return rest[i].Provider.Name() < rest[j].Provider.Name()
	})

	candidates := rest
	if preferredCand != nil {
		candidates = append([]Candidate{*preferredCand}, rest...)
	}

	if len(candidates) == 0 {
		return nil, NewNoProviderError(fmt.Sprintf("no available provider serves content type %q", contentType))
	}
	return candidates, nil
}

// Health aggregates provider health: healthy when every provider is
// healthy, degraded when some are, unhealthy when none are (or none
// registered).
func (r *Registry) Health(ctx context.Context) types.HealthStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.entries) == 0 {
		return types.Unhealthy("no providers registered")
	}

	healthy := 0
	total := len(r.entries)
	for _, entry := range r.entries {
		if entry.provider.Health(ctx).IsHealthy() {
			healthy++
		}
	}

	switch {
	case healthy == total:
		return types.Healthy(fmt.Sprintf("all %d providers healthy", total))
	case healthy == 0:
		return types.Unhealthy(fmt.Sprintf("all %d providers unhealthy", total))
	default:
		return types.Degraded(fmt.Sprintf("%d/%d providers healthy", healthy, total))
	}
}
