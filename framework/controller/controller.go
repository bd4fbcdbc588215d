// Package controller provides the base controller embedded by application
// controllers and the dispatcher that runs their actions for routes.
package controller

import (
	"errors"
	"fmt"
	"maps"

	gohttp "github.com/km-arc/go-spf/framework/http"
	"github.com/km-arc/go-spf/framework/model"
	"github.com/km-arc/go-spf/framework/view"
)

var (
	ErrNotController = errors.New("type does not embed controller.Controller")
	ErrNoAction      = errors.New("action is not defined")
)

// Action is the signature of controller actions.
//
//	func (c *UserController) Show(req *http.Request, res *http.Response) error {
//	    c.SetView("users/show")
//	    c.SetModel(user)
//	    return nil
//	}
type Action = func(*gohttp.Request, *gohttp.Response) error

// Context is what the dispatcher hands a controller before its action runs.
type Context struct {
	Request    *gohttp.Request
	Response   *gohttp.Response
	Params     map[string]string
	Views      *view.Engine
	Serializer *model.Serializer
}

// Initializer is implemented by every type embedding Controller.
type Initializer interface {
	Init(ctx Context)
}

// Controller is embedded by application controllers.
//
//	type UserController struct{ controller.Controller }
type Controller struct {
	ctx   Context
	view  string
	model any
}

func (c *Controller) Init(ctx Context) { c.ctx = ctx }

func (c *Controller) Request() *gohttp.Request   { return c.ctx.Request }
func (c *Controller) Response() *gohttp.Response { return c.ctx.Response }

// Param returns a route parameter, or "".
func (c *Controller) Param(name string) string { return c.ctx.Params[name] }

func (c *Controller) Params() map[string]string { return maps.Clone(c.ctx.Params) }

func (c *Controller) View() string { return c.view }

// SetView names the template rendered by Content.
func (c *Controller) SetView(template string) *Controller {
	c.view = template
	return c
}

func (c *Controller) Model() any { return c.model }

func (c *Controller) SetModel(data any) *Controller {
	c.model = data
	return c
}

// Content is the response body for the action's result: the serialized
// model for JSON responses, otherwise the view rendered with the same
// serialized model, otherwise the model itself.
func (c *Controller) Content() (any, error) {
	if res := c.ctx.Response; res != nil && res.IsJSON() {
		return c.serialized()
	}
	if c.view != "" {
		if c.ctx.Views == nil {
			return nil, fmt.Errorf("controller: view %q set but no view engine is configured", c.view)
		}
		data, err := c.serialized()
		if err != nil {
			return nil, err
		}
		return view.View{Template: c.view}.Render(c.ctx.Views, data)
	}
	return c.model, nil
}

// serialized is the model as templates and JSON see it: json tag names,
// JsonIgnore properties left out.
func (c *Controller) serialized() (any, error) {
	if c.ctx.Serializer == nil {
		return c.model, nil
	}
	return c.ctx.Serializer.Serialize(c.model)
}

// contenter is implemented by every type embedding Controller.
type contenter interface {
	Content() (any, error)
}

// Lookup finds the action method name on ctrl.
func Lookup(ctrl any, name string) (Action, error) {
	if name == "" {
		return nil, fmt.Errorf("controller: %T: %w: no action name", ctrl, ErrNoAction)
	}
	m, ok := methodByName(ctrl, name)
	if !ok {
		return nil, fmt.Errorf("controller: %T.%s: %w", ctrl, name, ErrNoAction)
	}
	action, ok := m.(Action)
	if !ok {
		return nil, fmt.Errorf("controller: %T.%s: %w: want func(*http.Request, *http.Response) error, got %T", ctrl, name, ErrNoAction, m)
	}
	return action, nil
}
