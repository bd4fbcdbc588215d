package core

import (
	"errors"
	"fmt"

	"github.com/km-arc/go-spf/framework/config"
	"github.com/km-arc/go-spf/framework/container"
	"github.com/km-arc/go-spf/framework/reflection"
)

const (
	Production  = "production"
	Development = "development"
)

var ErrInvalidEnvironment = errors.New(`the environment property is not properly set in the config, it must be "production" or "development"`)

// Environment is the deployment mode read from the config's
// "environment" key.
type Environment struct {
	current string
}

// NewEnvironment validates cfg's environment setting.
func NewEnvironment(cfg *config.Configuration) (*Environment, error) {
	env := cfg.String("environment", "")
	if env != Production && env != Development {
		return nil, fmt.Errorf("core: %w (got %q)", ErrInvalidEnvironment, env)
	}
	return &Environment{current: env}, nil
}

func (e *Environment) Current() string     { return e.current }
func (e *Environment) IsProduction() bool  { return e.current == Production }
func (e *Environment) IsDevelopment() bool { return e.current == Development }

// EnvironmentSpec registers Environment as a managed type wired to the
// configuration through its constructor annotations.
var EnvironmentSpec = reflection.Spec{
	Name:   container.KeyEnvironment,
	New:    NewEnvironment,
	Params: []reflection.Param{{Name: "config"}},
	Doc:    "Deployment mode, production or development.",
	ConstructorDoc: `
		@SPF:DmManaged
		@SPF:DmRequires spf.core.Configuration $config`,
	Methods: map[string]string{
		"Current": "Returns the current environment name.",
	},
}
