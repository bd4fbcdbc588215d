// Package providers holds the framework's own providers. Each is registered
// under the name the container derives from the key it serves, so
// "spf.core.Router" is loaded by "spf.providers.core.RouterProvider".
package providers

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/km-arc/go-spf/framework/config"
	"github.com/km-arc/go-spf/framework/container"
	"github.com/km-arc/go-spf/framework/core"
	"github.com/km-arc/go-spf/framework/reflection"
	"github.com/km-arc/go-spf/framework/routing"
	"github.com/km-arc/go-spf/framework/view"
)

// Provider type names.
const (
	ConfigurationProviderName  = "spf.providers.core.ConfigurationProvider"
	RouterProviderName         = "spf.providers.core.RouterProvider"
	MustacheEngineProviderName = "spf.providers.mustache.MustacheEngineProvider"
	LoggerProviderName         = "spf.providers.log.LoggerProvider"
)

// ── ConfigurationProvider ─────────────────────────────────────────────────────

// ConfigurationProvider loads <Base>/configs/config.yaml after the .env
// files.
//
// Serves:
//   - "spf.core.Configuration"  → *config.Configuration
type ConfigurationProvider struct {
	Base     string
	EnvFiles []string
}

func (p *ConfigurationProvider) Load(r container.Resolver) (any, error) {
	return config.Load(p.Base, p.EnvFiles...)
}

// ── RouterProvider ────────────────────────────────────────────────────────────

// RouterProvider builds the router and adds the routes from
// <base>/configs/routes.yaml. A missing routes file leaves the router empty.
//
// Serves:
//   - "spf.core.Router"  → *routing.Router
type RouterProvider struct{}

func (p *RouterProvider) Load(r container.Resolver) (any, error) {
	cfg, err := container.Resolve[*config.Configuration](r, container.KeyConfiguration)
	if err != nil {
		return nil, err
	}
	logger, err := container.Resolve[*zap.Logger](r, container.KeyLogger)
	if err != nil {
		return nil, err
	}

	router := routing.New(routing.WithLogger(logger))
	routes, err := routing.LoadRoutes(cfg.Base())
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Warn("no routes file", zap.String("path", filepath.Join(cfg.Base(), routing.File)))
	case err != nil:
		return nil, err
	}
	router.Add(routes...)
	return router, nil
}

// ── MustacheEngineProvider ────────────────────────────────────────────────────

// MustacheEngineProvider creates the view engine over <base>/views with
// partials in <base>/views/partials.
//
// Serves:
//   - "spf.mustache.MustacheEngine"  → *view.Engine
type MustacheEngineProvider struct{}

func (p *MustacheEngineProvider) Load(r container.Resolver) (any, error) {
	cfg, err := container.Resolve[*config.Configuration](r, container.KeyConfiguration)
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(cfg.Base(), "views")
	return view.NewEngine(dir, filepath.Join(dir, "partials")), nil
}

// ── LoggerProvider ────────────────────────────────────────────────────────────

// LoggerProvider builds the framework logger: JSON production logging in
// production, console development logging otherwise.
//
// Serves:
//   - "spf.log.Logger"  → *zap.Logger
type LoggerProvider struct{}

func (p *LoggerProvider) Load(r container.Resolver) (any, error) {
	env, err := container.Resolve[*core.Environment](r, container.KeyEnvironment)
	if err != nil {
		return nil, err
	}
	var logger *zap.Logger
	if env.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, fmt.Errorf("providers: build logger: %w", err)
	}
	return logger.Named("spf"), nil
}

// ── Registration ──────────────────────────────────────────────────────────────

// Register adds the framework providers to pool. base is the application
// root; envFiles default to <base>/.env.
func Register(pool *reflection.Pool, base string, envFiles ...string) error {
	return pool.Register(
		reflection.Spec{
			Name: ConfigurationProviderName,
			New: func() *ConfigurationProvider {
				return &ConfigurationProvider{Base: base, EnvFiles: envFiles}
			},
		},
		reflection.Spec{Name: RouterProviderName, Type: (*RouterProvider)(nil)},
		reflection.Spec{Name: MustacheEngineProviderName, Type: (*MustacheEngineProvider)(nil)},
		reflection.Spec{Name: LoggerProviderName, Type: (*LoggerProvider)(nil)},
	)
}
