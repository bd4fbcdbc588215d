package container

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/km-arc/go-spf/framework/annotations"
	"github.com/km-arc/go-spf/framework/reflection"
)

// ── Registry entries ──────────────────────────────────────────────────────────

type entryState int

const (
	stateResolved entryState = iota
	statePendingProvider
	statePendingThunk
)

type entry struct {
	value any
	state entryState
}

func newEntry(v any) *entry {
	switch v.(type) {
	case Provider:
		return &entry{value: v, state: statePendingProvider}
	case Thunk, func() (any, error), func() any:
		return &entry{value: v, state: statePendingThunk}
	}
	return &entry{value: v, state: stateResolved}
}

// ── Container ─────────────────────────────────────────────────────────────────

// Container is the dependency manager: a set-once store of singletons that
// builds whatever it is asked for on first use.
//
// Resolution order for an absent key:
//   - a provider found through the provider locations
//   - annotation-driven construction of the registered type
//
// Each key is built at most once; concurrent first requests for the same key
// wait for the one in flight and share its result. Failures are not stored,
// so the next Get tries again (see WithFailureCaching).
type Container struct {
	pool      *reflection.Pool
	engine    *annotations.Engine
	providers *ProviderRegistry
	logger    *zap.Logger
	metrics   *Metrics

	order         SearchOrder
	cacheFailures bool

	mu       sync.RWMutex
	objects  map[string]*entry
	failures map[string]error

	flights singleflight.Group
}

// Option configures a Container.
type Option func(*Container)

// WithLogger sets the logger used for resolution traces (debug level).
func WithLogger(l *zap.Logger) Option {
	return func(c *Container) { c.logger = l }
}

// WithMetrics reports resolutions to m.
func WithMetrics(m *Metrics) Option {
	return func(c *Container) { c.metrics = m }
}

// WithProviderOrder sets the provider location search order.
func WithProviderOrder(order SearchOrder) Option {
	return func(c *Container) { c.order = order }
}

// WithFailureCaching makes a failed resolution permanent for its key until
// the key is Set explicitly.
func WithFailureCaching() Option {
	return func(c *Container) { c.cacheFailures = true }
}

// New creates a container over pool and engine. The container is
// registered under KeyContainer and DefaultLocation is searched for
// providers.
func New(pool *reflection.Pool, engine *annotations.Engine, opts ...Option) *Container {
	c := &Container{
		pool:     pool,
		engine:   engine,
		logger:   zap.NewNop(),
		objects:  make(map[string]*entry),
		failures: make(map[string]error),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.providers = NewProviderRegistry(pool, c.order, DefaultLocation)
	c.objects[KeyContainer] = &entry{value: c}
	return c
}

// ── Registration ──────────────────────────────────────────────────────────────

// Set stores value under key. It fails when key already holds a non-nil
// value; a nil placeholder can be replaced. Providers and thunks are kept
// pending and replaced by their result on first Get.
//
//	c.Set("app.Mailer", container.ProviderFunc(func(r container.Resolver) (any, error) {
//	    return mail.NewSMTP(...)
//	}))
func (c *Container) Set(key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setLocked(key, newEntry(value))
}

func (c *Container) setLocked(key string, e *entry) error {
	if cur, ok := c.objects[key]; ok && !isNil(cur.value) {
		return resolutionError(key, ErrAlreadySet, "", nil)
	}
	c.objects[key] = e
	delete(c.failures, key)
	return nil
}

// Register adds type specs to the container's pool.
func (c *Container) Register(specs ...reflection.Spec) error {
	return c.pool.Register(specs...)
}

// AddProviderLocation adds a place to look for providers.
//
//	c.AddProviderLocation("app.", "app.providers.")
func (c *Container) AddProviderLocation(prefix, replacement string) {
	c.providers.AddLocation(prefix, replacement)
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Get returns the value stored under key, building it on first use.
func (c *Container) Get(key string) (any, error) {
	return c.resolve(nil, key)
}

// MustGet is like Get but panics on error.
func (c *Container) MustGet(key string) any {
	v, err := c.Get(key)
	if err != nil {
		panic(err)
	}
	return v
}

// Build constructs a fresh value for key through providers or managed
// construction without storing it. Its dependencies are still resolved as
// singletons.
func (c *Container) Build(key string) (any, error) {
	return c.process(&resolution{c: c, chain: []string{key}}, key)
}

// resolution is the Resolver handed to providers and thunks; chain holds
// the keys being built on this call path.
type resolution struct {
	c     *Container
	chain []string
}

func (r *resolution) Get(key string) (any, error) { return r.c.resolve(r.chain, key) }

func (c *Container) resolve(chain []string, key string) (any, error) {
	if v, ok := c.lookup(key); ok {
		return v, nil
	}
	if slices.Contains(chain, key) {
		path := strings.Join(append(slices.Clone(chain), key), " -> ")
		return nil, resolutionError(key, ErrCircularDependency, path, nil)
	}
	if err := c.failure(key); err != nil {
		return nil, err
	}

	scope := &resolution{c: c, chain: append(slices.Clone(chain), key)}
	v, err, _ := c.flights.Do(key, func() (any, error) {
		c.mu.RLock()
		e, ok := c.objects[key]
		c.mu.RUnlock()
		if ok {
			if e.state == stateResolved {
				return e.value, nil
			}
			return c.loadPending(scope, key, e)
		}

		v, err := c.process(scope, key)
		if err != nil {
			c.rememberFailure(key, err)
			return nil, err
		}

		// A concurrent Set while process ran wins; hand out what it stored.
		c.mu.Lock()
		if cur, ok := c.objects[key]; ok && !isNil(cur.value) {
			c.mu.Unlock()
			if cur.state == stateResolved {
				return cur.value, nil
			}
			return c.loadPending(scope, key, cur)
		}
		err = c.setLocked(key, &entry{value: v})
		c.mu.Unlock()
		if err != nil {
			return nil, err
		}
		return v, nil
	})
	return v, err
}

func (c *Container) lookup(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.objects[key]; ok && e.state == stateResolved {
		return e.value, true
	}
	return nil, false
}

func (c *Container) loadPending(scope *resolution, key string, e *entry) (any, error) {
	started := time.Now()
	var (
		v   any
		err error
	)
	switch fn := e.value.(type) {
	case Provider:
		v, err = fn.Load(scope)
	case Thunk:
		v, err = fn()
	case func() (any, error):
		v, err = fn()
	case func() any:
		v = fn()
	}
	if err != nil {
		err = wrap(key, ErrConstruction, err)
	}
	c.trace(key, sourceLazy, started, err)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.objects[key] = &entry{value: v}
	c.mu.Unlock()
	return v, nil
}

// process finds a value for an absent key: providers first, then managed
// construction.
func (c *Container) process(scope *resolution, key string) (any, error) {
	started := time.Now()

	v, ok, err := c.providers.TryResolve(scope, key)
	if ok {
		if err != nil {
			err = wrap(key, ErrConstruction, err)
		}
		c.trace(key, sourceProvider, started, err)
		return v, err
	}

	v, ok, err = c.managed(scope, key)
	if ok || err != nil {
		c.trace(key, sourceManaged, started, err)
		return v, err
	}

	err = resolutionError(key, ErrUnresolvable, "", nil)
	c.trace(key, sourceNone, started, err)
	return nil, err
}

// managed builds key from its constructor annotations. ok is false, with a
// nil error, when key is not a registered type or is an unmanaged type that
// needs constructor arguments.
func (c *Container) managed(scope *resolution, key string) (any, bool, error) {
	desc, err := c.pool.Get(key)
	if err != nil {
		return nil, false, nil
	}
	set, err := c.engine.Constructor(key)
	if err != nil {
		return nil, false, wrap(key, ErrConstruction, err)
	}

	if !set.Has(AnnotationManaged) {
		if desc.RequiredParams() > 0 {
			return nil, false, nil
		}
		v, err := desc.New()
		if err != nil {
			return nil, false, wrap(key, ErrConstruction, err)
		}
		return v, true, nil
	}

	if params, ok := set.First(AnnotationProvider); ok {
		if len(params) == 0 {
			return nil, false, resolutionError(key, ErrMalformedAnnotation, AnnotationProvider+" needs a provider type", nil)
		}
		if !c.pool.Exists(params[0]) {
			return nil, false, resolutionError(key, ErrProviderNotFound, params[0], nil)
		}
		v, err := c.providers.Load(scope, params[0])
		if err != nil {
			return nil, false, wrap(key, ErrConstruction, err)
		}
		return v, true, nil
	}

	args, err := c.dependencies(scope, key, desc, set)
	if err != nil {
		return nil, false, err
	}
	v, err := desc.New(args...)
	if err != nil {
		return nil, false, wrap(key, ErrConstruction, err)
	}
	return v, true, nil
}

// dependencies matches every required constructor parameter to its
// DmRequires annotation and resolves them in parameter order. Nothing is
// resolved unless every required parameter has a match.
func (c *Container) dependencies(scope *resolution, key string, desc *reflection.Descriptor, set *annotations.Set) ([]any, error) {
	ctor := desc.Constructor()
	if ctor == nil {
		return nil, nil
	}

	requires := set.Get(AnnotationRequires)
	for _, req := range requires {
		if len(req) < 2 {
			return nil, resolutionError(key, ErrMalformedAnnotation, AnnotationRequires+" needs a key and a $param", nil)
		}
	}

	deps := make([]string, len(ctor.Params))
	var missing []string
	for i, p := range ctor.Params {
		if p.Optional {
			continue
		}
		for _, req := range requires {
			if strings.TrimPrefix(req[1], "$") == p.Name {
				deps[i] = req[0]
				break
			}
		}
		if deps[i] == "" {
			missing = append(missing, "$"+p.Name)
		}
	}
	if len(missing) > 0 {
		return nil, resolutionError(key, ErrMissingDependencies, "missing "+strings.Join(missing, ", "), nil)
	}

	args := make([]any, len(ctor.Params))
	for i, dep := range deps {
		if dep == "" {
			continue
		}
		v, err := scope.Get(dep)
		if err != nil {
			return nil, resolutionError(key, ErrDependency, dep, err)
		}
		args[i] = v
	}
	return args, nil
}

// ── Failure caching ───────────────────────────────────────────────────────────

func (c *Container) failure(key string) error {
	if !c.cacheFailures {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.failures[key]
}

func (c *Container) rememberFailure(key string, err error) {
	if !c.cacheFailures {
		return
	}
	c.mu.Lock()
	c.failures[key] = err
	c.mu.Unlock()
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// Has reports whether key holds anything, resolved or pending.
func (c *Container) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.objects[key]
	return ok
}

// Resolved reports whether key holds a resolved value.
func (c *Container) Resolved(key string) bool {
	_, ok := c.lookup(key)
	return ok
}

// Keys returns every stored key, sorted.
func (c *Container) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.objects))
	for k := range c.objects {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func (c *Container) Pool() *reflection.Pool { return c.pool }

func (c *Container) Engine() *annotations.Engine { return c.engine }

func (c *Container) Providers() *ProviderRegistry { return c.providers }

func (c *Container) Logger() *zap.Logger { return c.logger }

func (c *Container) trace(key, source string, started time.Time, err error) {
	c.metrics.observe(source, started, err)
	if err != nil {
		c.logger.Debug("resolution failed", zap.String("key", key), zap.String("source", source), zap.Error(err))
		return
	}
	c.logger.Debug("resolved", zap.String("key", key), zap.String("source", source), zap.Duration("took", time.Since(started)))
}

// wrap attributes err to key. Failures of other keys become ErrDependency.
func wrap(key string, sentinel, err error) error {
	var re *ResolutionError
	if errors.As(err, &re) {
		if re.Key == key {
			return err
		}
		return resolutionError(key, ErrDependency, re.Key, err)
	}
	return resolutionError(key, sentinel, "", err)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// ── Generics helper ───────────────────────────────────────────────────────────

// Resolve gets key from r and type-asserts the result.
//
//	cfg, err := container.Resolve[*config.Configuration](c, container.KeyConfiguration)
func Resolve[T any](r Resolver, key string) (T, error) {
	var zero T
	v, err := r.Get(key)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("container: Resolve[%s]: [%s] resolved to %T", reflect.TypeOf((*T)(nil)).Elem(), key, v)
	}
	return typed, nil
}

// MustResolve is like Resolve but panics on error.
func MustResolve[T any](r Resolver, key string) T {
	v, err := Resolve[T](r, key)
	if err != nil {
		panic(err)
	}
	return v
}
