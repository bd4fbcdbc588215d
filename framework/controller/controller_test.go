package controller_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-spf/framework/annotations"
	"github.com/km-arc/go-spf/framework/container"
	"github.com/km-arc/go-spf/framework/controller"
	gohttp "github.com/km-arc/go-spf/framework/http"
	"github.com/km-arc/go-spf/framework/model"
	"github.com/km-arc/go-spf/framework/reflection"
	"github.com/km-arc/go-spf/framework/routing"
	"github.com/km-arc/go-spf/framework/view"
)

// ── fixtures ──────────────────────────────────────────────────────────────────

type user struct {
	Name     string `json:"name"`
	Password string `json:"password" doc:"@SPF:JsonIgnore"`
}

type greeter struct{ greeting string }

type UserController struct {
	controller.Controller
	greeter *greeter
}

func NewUserController(g *greeter) *UserController { return &UserController{greeter: g} }

func (c *UserController) Show(req *gohttp.Request, res *gohttp.Response) error {
	c.SetView("users/show")
	c.SetModel(&user{Name: c.greeter.greeting + " " + c.Param("name"), Password: "hunter2"})
	return nil
}

func (c *UserController) Raw(req *gohttp.Request, res *gohttp.Response) error {
	res.SetStatus(http.StatusAccepted).SetBody("raw " + req.Query("q"))
	return nil
}

func (c *UserController) Fail(req *gohttp.Request, res *gohttp.Response) error {
	return errors.New("database on fire")
}

func (c *UserController) Missing(req *gohttp.Request, res *gohttp.Response) error {
	return &controller.HTTPError{Status: http.StatusNotFound, Message: "no such user"}
}

func (c *UserController) Secret(req *gohttp.Request, res *gohttp.Response) error {
	c.SetView("users/secret")
	c.SetModel(&user{Name: c.greeter.greeting + " " + c.Param("name"), Password: "hunter2"})
	return nil
}

func (c *UserController) Unencodable(req *gohttp.Request, res *gohttp.Response) error {
	c.SetModel(map[string]any{"updates": make(chan int)})
	return nil
}

func (c *UserController) NotAnAction() string { return "" }

type plain struct{}

func (p *plain) Index(req *gohttp.Request, res *gohttp.Response) error { return nil }

func newRouter(t *testing.T, dev bool, routes ...routing.Route) *routing.Router {
	t.Helper()
	pool := reflection.NewPool()
	require.NoError(t, pool.Register(
		reflection.Spec{Name: "app.Greeter", New: func() *greeter { return &greeter{greeting: "hello"} }},
		reflection.Spec{
			Name:           "app.UserController",
			New:            NewUserController,
			Params:         []reflection.Param{{Name: "greeter"}},
			ConstructorDoc: "@SPF:DmManaged\n@SPF:DmRequires app.Greeter $greeter",
		},
		reflection.Spec{Name: "app.Plain", Type: (*plain)(nil)},
		reflection.Spec{Name: "app.User", Type: (*user)(nil)},
	))
	engine, err := annotations.NewEngine(pool)
	require.NoError(t, err)
	c := container.New(pool, engine)

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "users"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "users", "show.mustache"), []byte("<p>{{name}}</p>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "users", "secret.mustache"), []byte("<p>{{name}}|{{password}}|{{Password}}</p>"), 0o644))

	d := controller.NewDispatcher(c,
		controller.WithViews(view.NewEngine(dir, filepath.Join(dir, "partials"))),
		controller.WithSerializer(model.NewSerializer(engine)),
		controller.WithErrorHandler(controller.ErrorHandler{Development: dev}),
	)
	r := routing.New()
	r.Add(routes...)
	r.Mount(d.Handler)
	return r
}

func route(pattern, ctrl, action string) routing.Route {
	return routing.Route{Pattern: pattern, Methods: []string{http.MethodGet}, Controller: ctrl, Action: action}
}

func get(t *testing.T, h http.Handler, path string, accept string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// ── Dispatch ─────────────────────────────────────────────────────────────────

func TestDispatch_RendersView(t *testing.T) {
	r := newRouter(t, false, route("/users/{name}", "app.UserController", "Show"))

	rr := get(t, r, "/users/ann", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "<p>hello ann</p>", rr.Body.String())
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
}

func TestDispatch_ViewHidesIgnoredProperties(t *testing.T) {
	r := newRouter(t, false, route("/users/{name}/secret", "app.UserController", "Secret"))

	rr := get(t, r, "/users/ann/secret", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "<p>hello ann||</p>", rr.Body.String())
	assert.NotContains(t, rr.Body.String(), "hunter2")
}

func TestDispatch_JSONSerializesModel(t *testing.T) {
	r := newRouter(t, false, route("/users/{name}", "app.UserController", "Show"))

	rr := get(t, r, "/users/ann", "application/json")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"name":"hello ann"}`, rr.Body.String())
}

func TestDispatch_ActionSetsBody(t *testing.T) {
	r := newRouter(t, false, route("/raw", "app.UserController", "Raw"))

	rr := get(t, r, "/raw?q=x", "")

	assert.Equal(t, http.StatusAccepted, rr.Code)
	assert.Equal(t, "raw x", rr.Body.String())
}

func TestDispatch_Errors(t *testing.T) {
	r := newRouter(t, false,
		route("/fail", "app.UserController", "Fail"),
		route("/missing", "app.UserController", "Missing"),
		route("/no-action", "app.UserController", "Nope"),
		route("/bad-signature", "app.UserController", "NotAnAction"),
		route("/plain", "app.Plain", "Index"),
		route("/unknown", "app.Unknown", "Index"),
	)

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{"/fail", http.StatusInternalServerError, "Internal Server Error"},
		{"/missing", http.StatusNotFound, "no such user"},
		{"/no-action", http.StatusInternalServerError, "Internal Server Error"},
		{"/bad-signature", http.StatusInternalServerError, "Internal Server Error"},
		{"/plain", http.StatusInternalServerError, "Internal Server Error"},
		{"/unknown", http.StatusInternalServerError, "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := get(t, r, tt.path, "")
			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.body, rr.Body.String())
		})
	}
}

func TestDispatch_EncodeFailureIsServerError(t *testing.T) {
	r := newRouter(t, false, route("/unencodable", "app.UserController", "Unencodable"))

	rr := get(t, r, "/unencodable", "application/json")

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"message":"Internal Server Error"}`, rr.Body.String())
}

func TestDispatch_DevelopmentShowsErrors(t *testing.T) {
	r := newRouter(t, true, route("/fail", "app.UserController", "Fail"))

	rr := get(t, r, "/fail", "application/json")

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"message":"Caught exception: database on fire"}`, rr.Body.String())
}

func TestDispatch_ControllerPerRequest(t *testing.T) {
	var seen []*UserController
	pool := reflection.NewPool()
	require.NoError(t, pool.Register(
		reflection.Spec{Name: "app.Greeter", New: func() *greeter { return &greeter{} }},
		reflection.Spec{
			Name: "app.UserController",
			New: func(g *greeter) *UserController {
				uc := NewUserController(g)
				seen = append(seen, uc)
				return uc
			},
			Params:         []reflection.Param{{Name: "greeter"}},
			ConstructorDoc: "@SPF:DmManaged\n@SPF:DmRequires app.Greeter $greeter",
		},
	))
	engine, err := annotations.NewEngine(pool)
	require.NoError(t, err)
	d := controller.NewDispatcher(container.New(pool, engine))
	h := d.Handler(route("/raw", "app.UserController", "Raw"))

	get(t, h, "/raw", "")
	get(t, h, "/raw", "")

	require.Len(t, seen, 2)
	assert.NotSame(t, seen[0], seen[1])
	assert.Same(t, seen[0].greeter, seen[1].greeter)
}

// ── Controller ───────────────────────────────────────────────────────────────

func TestController_ContentWithoutView(t *testing.T) {
	var c controller.Controller
	c.Init(controller.Context{Response: gohttp.NewResponse(), Params: map[string]string{"id": "1"}})
	c.SetModel("plain")

	content, err := c.Content()

	require.NoError(t, err)
	assert.Equal(t, "plain", content)
	assert.Equal(t, "1", c.Param("id"))
	assert.Empty(t, c.Param("other"))
}

func TestController_ViewWithoutEngine(t *testing.T) {
	var c controller.Controller
	c.Init(controller.Context{Response: gohttp.NewResponse()})
	c.SetView("home")

	_, err := c.Content()

	assert.ErrorContains(t, err, "no view engine")
}

func TestLookup(t *testing.T) {
	uc := &UserController{}

	action, err := controller.Lookup(uc, "Raw")
	require.NoError(t, err)
	assert.NotNil(t, action)

	for _, name := range []string{"", "Nope", "NotAnAction", "Init"} {
		_, err := controller.Lookup(uc, name)
		assert.ErrorIs(t, err, controller.ErrNoAction, name)
	}
}
