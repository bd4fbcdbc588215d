package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/km-arc/go-spf/framework/annotations"
	"github.com/km-arc/go-spf/framework/config"
	"github.com/km-arc/go-spf/framework/container"
	"github.com/km-arc/go-spf/framework/controller"
	"github.com/km-arc/go-spf/framework/core"
	"github.com/km-arc/go-spf/framework/model"
	"github.com/km-arc/go-spf/framework/providers"
	"github.com/km-arc/go-spf/framework/reflection"
	"github.com/km-arc/go-spf/framework/routing"
	"github.com/km-arc/go-spf/framework/view"
)

const Version = "0.1.0"

// MetricsPath serves the Prometheus registry.
const MetricsPath = "/metrics"

// Application is the top-level application. It embeds the dependency
// manager so user code can call app.Get() and app.Set() directly.
type Application struct {
	*container.Container

	base     string
	metrics  *prometheus.Registry
	shutdown time.Duration

	mu        sync.Mutex
	providers []ServiceProvider
	booted    bool
	handler   http.Handler
}

// Option configures an Application.
type Option func(*settings)

type settings struct {
	base      string
	envFiles  []string
	locations []container.Location
	order     container.SearchOrder
	logger    *zap.Logger
	shutdown  time.Duration
}

// WithBase sets the application root holding configs/ and views/
// (default ".").
func WithBase(dir string) Option {
	return func(s *settings) { s.base = dir }
}

// WithEnvFiles sets the .env files loaded before config.yaml.
func WithEnvFiles(files ...string) Option {
	return func(s *settings) { s.envFiles = files }
}

// WithProviderLocation adds a project provider location, e.g.
// ("app.", "app.providers.").
func WithProviderLocation(prefix, replacement string) Option {
	return func(s *settings) {
		s.locations = append(s.locations, container.Location{Prefix: prefix, Replacement: replacement})
	}
}

// WithProviderOrder sets the provider search order.
func WithProviderOrder(order container.SearchOrder) Option {
	return func(s *settings) { s.order = order }
}

// WithLogger sets the logger used for container traces.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithShutdownTimeout bounds graceful shutdown in Run (default 10s).
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *settings) { s.shutdown = d }
}

// New creates the application: reflection pool with the framework types and
// providers, annotation engine, container with metrics.
func New(opts ...Option) (*Application, error) {
	s := settings{base: ".", logger: zap.NewNop(), shutdown: 10 * time.Second}
	for _, opt := range opts {
		opt(&s)
	}

	pool := reflection.NewPool()
	if err := core.Register(pool); err != nil {
		return nil, err
	}
	if err := providers.Register(pool, s.base, s.envFiles...); err != nil {
		return nil, err
	}
	engine, err := annotations.NewEngine(pool)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := container.NewMetrics(registry)
	if err != nil {
		return nil, err
	}

	c := container.New(pool, engine,
		container.WithLogger(s.logger),
		container.WithMetrics(metrics),
		container.WithProviderOrder(s.order),
	)
	for _, loc := range s.locations {
		c.AddProviderLocation(loc.Prefix, loc.Replacement)
	}

	a := &Application{Container: c, base: s.base, metrics: registry, shutdown: s.shutdown}
	if err := c.Set(container.KeyApplication, a); err != nil {
		return nil, err
	}
	return a, nil
}

// ── Service providers ─────────────────────────────────────────────────────────

// Register runs p.Register now, and p.Boot too if the application has
// already booted. Types go through a.Pool() or a.Container.Register.
func (a *Application) Register(p ServiceProvider) error {
	if err := p.Register(a); err != nil {
		return fmt.Errorf("app: register %T: %w", p, err)
	}
	a.mu.Lock()
	a.providers = append(a.providers, p)
	booted := a.booted
	a.mu.Unlock()

	if booted {
		if err := p.Boot(a); err != nil {
			return fmt.Errorf("app: boot %T: %w", p, err)
		}
	}
	return nil
}

// Boot runs Boot on every registered provider, once.
func (a *Application) Boot() error {
	a.mu.Lock()
	if a.booted {
		a.mu.Unlock()
		return nil
	}
	a.booted = true
	list := append([]ServiceProvider(nil), a.providers...)
	a.mu.Unlock()

	for _, p := range list {
		if err := p.Boot(a); err != nil {
			return fmt.Errorf("app: boot %T: %w", p, err)
		}
	}
	return nil
}

func (a *Application) Booted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.booted
}

// ── Framework services ────────────────────────────────────────────────────────

func (a *Application) Base() string { return a.base }

func (a *Application) Config() (*config.Configuration, error) {
	return container.Resolve[*config.Configuration](a.Container, container.KeyConfiguration)
}

func (a *Application) Environment() (*core.Environment, error) {
	return container.Resolve[*core.Environment](a.Container, container.KeyEnvironment)
}

func (a *Application) Router() (*routing.Router, error) {
	return container.Resolve[*routing.Router](a.Container, container.KeyRouter)
}

func (a *Application) Views() (*view.Engine, error) {
	return container.Resolve[*view.Engine](a.Container, container.KeyMustache)
}

func (a *Application) Logger() (*zap.Logger, error) {
	return container.Resolve[*zap.Logger](a.Container, container.KeyLogger)
}

// Metrics is the registry served on MetricsPath.
func (a *Application) Metrics() *prometheus.Registry { return a.metrics }

// ── HTTP ──────────────────────────────────────────────────────────────────────

// Handler boots the application and returns the router with every
// configured route mounted and MetricsPath served. It is built once.
func (a *Application) Handler() (http.Handler, error) {
	if err := a.Boot(); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.handler != nil {
		return a.handler, nil
	}

	router, err := a.Router()
	if err != nil {
		return nil, err
	}
	env, err := a.Environment()
	if err != nil {
		return nil, err
	}
	views, err := a.Views()
	if err != nil {
		return nil, err
	}
	logger, err := a.Logger()
	if err != nil {
		return nil, err
	}

	dispatcher := controller.NewDispatcher(a.Container,
		controller.WithViews(views),
		controller.WithSerializer(model.NewSerializer(a.Engine())),
		controller.WithErrorHandler(controller.ErrorHandler{Development: env.IsDevelopment()}),
		controller.WithLogger(logger),
	)
	router.Mount(dispatcher.Handler)
	router.Method(http.MethodGet, MetricsPath, promhttp.HandlerFor(a.metrics, promhttp.HandlerOpts{}))

	a.handler = router
	return router, nil
}

// Run serves HTTP on APP_PORT until ctx is cancelled, then shuts down
// gracefully.
func (a *Application) Run(ctx context.Context) error {
	handler, err := a.Handler()
	if err != nil {
		return err
	}
	cfg, err := a.Config()
	if err != nil {
		return err
	}
	logger, err := a.Logger()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("name", cfg.App.Name),
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.App.Env),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("app: serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdown)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("app: server forced to shutdown: %w", err)
	}
	_ = logger.Sync()
	return nil
}
