// Package annotations reads framework tags out of member documentation.
//
// A tag is a line of the form
//
//	@SPF:DmRequires app.Logger $log
//
// inside the doc block given to reflection.Spec (type, constructor and
// method docs) or a struct field's `doc:"..."` tag. Statically declared
// reflection.Tag values are merged in after the parsed ones, so code that
// registers types with explicit tags goes through the same lookups.
package annotations

import (
	"sync"

	"github.com/km-arc/go-spf/framework/reflection"
)

type cacheKey struct {
	name   string
	kind   reflection.MemberKind
	member string
}

// Engine parses and caches annotation sets per (type, kind, member).
type Engine struct {
	pool   *reflection.Pool
	parser *Parser

	mu    sync.RWMutex
	cache map[cacheKey]*Set
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	namespace string
}

// WithNamespace changes the tag namespace (default "SPF").
func WithNamespace(ns string) Option {
	return func(o *engineOptions) { o.namespace = ns }
}

// NewEngine creates an engine over pool.
func NewEngine(pool *reflection.Pool, opts ...Option) (*Engine, error) {
	o := engineOptions{namespace: DefaultNamespace}
	for _, opt := range opts {
		opt(&o)
	}
	parser, err := NewParser(o.namespace)
	if err != nil {
		return nil, err
	}
	return &Engine{
		pool:   pool,
		parser: parser,
		cache:  make(map[cacheKey]*Set),
	}, nil
}

// Get returns the annotations of a member of subject, which is either a
// registered type name or an instance of a registered type.
//
// A method or property that does not exist yields an empty set rather than
// an error: probing optional members is not fatal.
func (e *Engine) Get(subject any, kind reflection.MemberKind, member string) (*Set, error) {
	name, ok := e.subjectName(subject)
	if !ok {
		return nil, &EngineError{Subject: subject, Kind: kind, Member: member, Err: ErrUnknownSubject}
	}
	if !kind.Valid() {
		return nil, &EngineError{Subject: subject, Kind: kind, Member: member, Err: ErrInvalidKind}
	}
	if (kind == reflection.KindMethod || kind == reflection.KindProperty) && member == "" {
		return nil, &EngineError{Subject: subject, Kind: kind, Member: member, Err: ErrMissingMember}
	}
	if kind == reflection.KindType || kind == reflection.KindConstructor {
		member = ""
	}

	key := cacheKey{name: name, kind: kind, member: member}
	e.mu.RLock()
	set, hit := e.cache[key]
	e.mu.RUnlock()
	if hit {
		return set, nil
	}

	desc, err := e.pool.Get(name)
	if err != nil {
		return nil, &EngineError{Subject: subject, Kind: kind, Member: member, Err: ErrUnknownSubject}
	}

	var m *reflection.Member
	switch kind {
	case reflection.KindType:
		m = desc.TypeMember()
	case reflection.KindConstructor:
		m = desc.Constructor()
	case reflection.KindMethod:
		m, err = desc.Method(member)
	case reflection.KindProperty:
		m, err = desc.Property(member)
	}
	if err != nil {
		return NewSet(nil), nil
	}

	set = e.build(m)

	e.mu.Lock()
	defer e.mu.Unlock()
	if existing, ok := e.cache[key]; ok {
		return existing, nil
	}
	e.cache[key] = set
	return set, nil
}

// Constructor is shorthand for Get(subject, KindConstructor, "").
func (e *Engine) Constructor(subject any) (*Set, error) {
	return e.Get(subject, reflection.KindConstructor, "")
}

// Method is shorthand for Get(subject, KindMethod, name).
func (e *Engine) Method(subject any, name string) (*Set, error) {
	return e.Get(subject, reflection.KindMethod, name)
}

// Property is shorthand for Get(subject, KindProperty, name).
func (e *Engine) Property(subject any, name string) (*Set, error) {
	return e.Get(subject, reflection.KindProperty, name)
}

func (e *Engine) build(m *reflection.Member) *Set {
	if m == nil {
		return NewSet(nil)
	}
	tags := e.parser.Parse(m.Doc)
	tags = append(tags, m.Tags...)
	return NewSet(m, tags...)
}

func (e *Engine) subjectName(subject any) (string, bool) {
	if name, ok := subject.(string); ok {
		return name, e.pool.Exists(name)
	}
	return e.pool.NameOf(subject)
}
