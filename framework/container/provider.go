package container

import (
	"slices"
	"strings"
	"sync"

	"github.com/km-arc/go-spf/framework/reflection"
)

// ── Provider contract ─────────────────────────────────────────────────────────

// Resolver is what providers and factories get to pull their own
// dependencies. It carries the current resolution chain, so use it rather
// than the *Container when resolving from inside a provider.
type Resolver interface {
	Get(key string) (any, error)
}

// Provider builds a fully constructed instance for a key whose dependencies
// can't be wired from annotations alone (parsed config files, connections).
//
//	type ConfigurationProvider struct{}
//
//	func (p *ConfigurationProvider) Load(r container.Resolver) (any, error) {
//	    return config.Load(".")
//	}
type Provider interface {
	Load(r Resolver) (any, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(r Resolver) (any, error)

func (f ProviderFunc) Load(r Resolver) (any, error) { return f(r) }

// Thunk is a deferred value: stored with Set, called on first Get.
type Thunk func() (any, error)

// ── Locations ─────────────────────────────────────────────────────────────────

// ProviderSuffix is appended to a derived provider type name.
const ProviderSuffix = "Provider"

// Location maps keys under Prefix to provider types under Replacement:
// with {"spf.", "spf.providers."} the key "spf.core.Router" is served by
// "spf.providers.core.RouterProvider".
type Location struct {
	Prefix      string
	Replacement string
}

// DefaultLocation is where the framework's own providers live.
var DefaultLocation = Location{Prefix: "spf.", Replacement: "spf.providers."}

// Candidate derives the provider type name for key, if key is under l.
func (l Location) Candidate(key string) (string, bool) {
	if !strings.HasPrefix(key, l.Prefix) {
		return "", false
	}
	return l.Replacement + key[len(l.Prefix):] + ProviderSuffix, true
}

// SearchOrder decides which locations are searched first.
type SearchOrder int

const (
	// NewestFirst searches the most recently added location first, so
	// project locations shadow framework defaults.
	NewestFirst SearchOrder = iota
	// OldestFirst searches in registration order.
	OldestFirst
)

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry is the fallback lookup the container tries before
// annotation-driven construction.
type ProviderRegistry struct {
	pool  *reflection.Pool
	order SearchOrder

	mu        sync.RWMutex
	locations []Location
}

// NewProviderRegistry creates a registry seeded with locations (oldest first).
func NewProviderRegistry(pool *reflection.Pool, order SearchOrder, locations ...Location) *ProviderRegistry {
	return &ProviderRegistry{pool: pool, order: order, locations: slices.Clone(locations)}
}

// AddLocation registers another place to look for providers.
func (r *ProviderRegistry) AddLocation(prefix, replacement string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locations = append(r.locations, Location{Prefix: prefix, Replacement: replacement})
}

// Locations returns the locations in search order.
func (r *ProviderRegistry) Locations() []Location {
	r.mu.RLock()
	out := slices.Clone(r.locations)
	r.mu.RUnlock()
	if r.order == NewestFirst {
		slices.Reverse(out)
	}
	return out
}

// TryResolve loads key from the first location whose derived provider type
// exists. ok is false when no location has one; that is not an error.
func (r *ProviderRegistry) TryResolve(res Resolver, key string) (v any, ok bool, err error) {
	for _, loc := range r.Locations() {
		name, match := loc.Candidate(key)
		if !match || !r.pool.Exists(name) {
			continue
		}
		v, err = r.Load(res, name)
		return v, true, err
	}
	return nil, false, nil
}

// Load instantiates the provider type registered as name with no arguments
// and returns the result of its Load.
func (r *ProviderRegistry) Load(res Resolver, name string) (any, error) {
	desc, err := r.pool.Get(name)
	if err != nil {
		return nil, resolutionError(name, ErrProviderNotFound, "", err)
	}
	inst, err := desc.New()
	if err != nil {
		return nil, resolutionError(name, ErrConstruction, "", err)
	}
	provider, ok := inst.(Provider)
	if !ok {
		return nil, resolutionError(name, ErrNotProvider, "", nil)
	}
	return provider.Load(res)
}
