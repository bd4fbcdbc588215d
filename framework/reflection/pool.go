// Package reflection is the type catalog behind the dependency manager.
//
// Go cannot look types up by name or read parameter names and doc comments
// at runtime, so types are described once with a Spec and the pool memoizes
// the derived Descriptor for the life of the process.
package reflection

import (
	"reflect"
	"slices"
	"sync"
)

// Pool memoizes descriptors by type name. Safe for concurrent use.
type Pool struct {
	mu          sync.RWMutex
	descriptors map[string]*Descriptor
	names       map[reflect.Type]string
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{
		descriptors: make(map[string]*Descriptor),
		names:       make(map[reflect.Type]string),
	}
}

// Register validates each spec and stores its descriptor. Registration is
// all-or-nothing per spec; earlier specs in the same call stay registered
// when a later one fails.
func (p *Pool) Register(specs ...Spec) error {
	for _, spec := range specs {
		d, err := describe(spec)
		if err != nil {
			return err
		}

		p.mu.Lock()
		if _, dup := p.descriptors[d.Name]; dup {
			p.mu.Unlock()
			return &SpecError{Name: d.Name, Reason: "already registered"}
		}
		p.descriptors[d.Name] = d
		if _, seen := p.names[d.Type]; !seen {
			p.names[d.Type] = d.Name
		}
		p.mu.Unlock()
	}
	return nil
}

// MustRegister is like Register but panics on error.
func (p *Pool) MustRegister(specs ...Spec) {
	if err := p.Register(specs...); err != nil {
		panic(err)
	}
}

// Get returns the descriptor registered under name.
func (p *Pool) Get(name string) (*Descriptor, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if d, ok := p.descriptors[name]; ok {
		return d, nil
	}
	return nil, &LookupError{Name: name}
}

// Exists reports whether name is registered.
func (p *Pool) Exists(name string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.descriptors[name]
	return ok
}

// NameOf maps an instance back to the name its type was first registered
// under. Both T and *T instances of a registered *T resolve.
func (p *Pool) NameOf(v any) (string, bool) {
	t := reflect.TypeOf(v)
	if t == nil {
		return "", false
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if name, ok := p.names[t]; ok {
		return name, true
	}
	if t.Kind() != reflect.Ptr {
		name, ok := p.names[reflect.PointerTo(t)]
		return name, ok
	}
	name, ok := p.names[t.Elem()]
	return name, ok
}

// Names returns every registered name, sorted.
func (p *Pool) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.descriptors))
	for name := range p.descriptors {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}
