package controller

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"go.uber.org/zap"

	gohttp "github.com/km-arc/go-spf/framework/http"
	"github.com/km-arc/go-spf/framework/model"
	"github.com/km-arc/go-spf/framework/routing"
	"github.com/km-arc/go-spf/framework/view"
)

// Builder constructs a fresh value for a registered type name;
// *container.Container satisfies it.
type Builder interface {
	Build(key string) (any, error)
}

// HTTPError lets an action choose the status of a failure.
//
//	return &controller.HTTPError{Status: http.StatusNotFound, Message: "no such user"}
type HTTPError struct {
	Status  int
	Message string
	Err     error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error { return e.Err }

// ErrorHandler turns action failures into responses. In development the
// error text is shown; in production only a generic message.
type ErrorHandler struct {
	Development bool
}

// Handle writes err into res.
func (h ErrorHandler) Handle(res *gohttp.Response, err error) {
	status := http.StatusInternalServerError
	message := "Internal Server Error"

	var he *HTTPError
	if errors.As(err, &he) {
		if he.Status != 0 {
			status = he.Status
		}
		if status < http.StatusInternalServerError {
			message = he.Message
		}
	}
	if h.Development {
		message = "Caught exception: " + err.Error()
	}
	res.Error(status, message)
}

// Dispatcher serves configured routes: it builds the route's controller
// through the container for every request, runs the action and sends the
// response.
type Dispatcher struct {
	builder    Builder
	views      *view.Engine
	serializer *model.Serializer
	errors     ErrorHandler
	logger     *zap.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

func WithViews(e *view.Engine) DispatcherOption {
	return func(d *Dispatcher) { d.views = e }
}

func WithSerializer(s *model.Serializer) DispatcherOption {
	return func(d *Dispatcher) { d.serializer = s }
}

func WithErrorHandler(h ErrorHandler) DispatcherOption {
	return func(d *Dispatcher) { d.errors = h }
}

func WithLogger(l *zap.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = l }
}

func NewDispatcher(b Builder, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{builder: b, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handler returns the handler for rt; it fits routing.Router.Mount.
func (d *Dispatcher) Handler(rt routing.Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := gohttp.NewRequest(r)
		res := gohttp.NewResponse()
		if req.WantsJSON() {
			res.SetContentType(gohttp.ContentTypeJSON)
		}

		if err := d.dispatch(rt, req, res); err != nil {
			d.logger.Error("action failed",
				zap.String("controller", rt.Controller),
				zap.String("action", rt.Action),
				zap.String("request_id", req.ID()),
				zap.Error(err),
			)
			d.errors.Handle(res, err)
		}
		if _, err := res.Encode(); err != nil {
			d.logger.Error("encode response",
				zap.String("controller", rt.Controller),
				zap.String("action", rt.Action),
				zap.String("request_id", req.ID()),
				zap.Error(err),
			)
			d.errors.Handle(res, err)
		}
		if err := res.Send(w); err != nil {
			d.logger.Error("send response", zap.String("request_id", req.ID()), zap.Error(err))
		}
	}
}

func (d *Dispatcher) dispatch(rt routing.Route, req *gohttp.Request, res *gohttp.Response) error {
	ctrl, err := d.builder.Build(rt.Controller)
	if err != nil {
		return err
	}
	base, ok := ctrl.(Initializer)
	if !ok {
		return fmt.Errorf("controller: %s (%T): %w", rt.Controller, ctrl, ErrNotController)
	}
	base.Init(Context{
		Request:    req,
		Response:   res,
		Params:     req.RouteParams(),
		Views:      d.views,
		Serializer: d.serializer,
	})

	action, err := Lookup(ctrl, rt.Action)
	if err != nil {
		return err
	}
	if err := action(req, res); err != nil {
		return err
	}

	c, ok := ctrl.(contenter)
	if !ok || res.Body() != nil {
		return nil
	}
	content, err := c.Content()
	if err != nil {
		return err
	}
	res.SetBody(content)
	return nil
}

func methodByName(v any, name string) (any, bool) {
	m := reflect.ValueOf(v).MethodByName(name)
	if !m.IsValid() {
		return nil, false
	}
	return m.Interface(), true
}
