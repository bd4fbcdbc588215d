// Example SPF application: a home page rendered from mustache views and a
// small users API backed by MySQL.
//
//	go run . serve
//	go run . routes
//	go run . resolve app.controllers.UserController
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/km-arc/go-spf/framework/app"
	"github.com/km-arc/go-spf/framework/config"
	"github.com/km-arc/go-spf/framework/console"
	"github.com/km-arc/go-spf/framework/container"
	"github.com/km-arc/go-spf/framework/controller"
	"github.com/km-arc/go-spf/framework/core"
	gohttp "github.com/km-arc/go-spf/framework/http"
	"github.com/km-arc/go-spf/framework/model"
)

func main() {
	console.Execute(console.Options{
		Name:      "example",
		Providers: []app.ServiceProvider{&AppServiceProvider{}},
		AppOpts:   []app.Option{app.WithProviderLocation("app.", "app.providers.")},
	})
}

// ── Models ───────────────────────────────────────────────────────────────────

type User struct {
	ID       int    `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Email    string `db:"email" json:"email"`
	Password string `db:"password" json:"password" doc:"@SPF:JsonIgnore"`
}

// ── Repositories ─────────────────────────────────────────────────────────────

type UserRepository struct {
	db *core.Database
}

func NewUserRepository(db *core.Database) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) All(ctx context.Context) ([]User, error) {
	conn, err := r.db.MySQLConnection(0)
	if err != nil {
		return nil, err
	}
	var users []User
	err = conn.SelectContext(ctx, &users, "SELECT id, name, email, password FROM users ORDER BY id")
	return users, err
}

func (r *UserRepository) Find(ctx context.Context, id int) (*User, error) {
	conn, err := r.db.MySQLConnection(0)
	if err != nil {
		return nil, err
	}
	var u User
	if err := conn.GetContext(ctx, &u, "SELECT id, name, email, password FROM users WHERE id = ?", id); err != nil {
		return nil, err
	}
	return &u, nil
}

// ── Controllers ──────────────────────────────────────────────────────────────

type HomeController struct {
	controller.Controller
	name string
}

func (c *HomeController) Index(req *gohttp.Request, res *gohttp.Response) error {
	c.SetView("home")
	c.SetModel(map[string]string{"title": c.name, "message": "Welcome to " + c.name + "!"})
	return nil
}

func (c *HomeController) Hello(req *gohttp.Request, res *gohttp.Response) error {
	c.SetView("hello")
	c.SetModel(map[string]string{"title": c.name, "name": c.Param("name")})
	return nil
}

type UserController struct {
	controller.Controller
	users *UserRepository
}

func NewUserController(users *UserRepository) *UserController {
	return &UserController{users: users}
}

func (c *UserController) List(req *gohttp.Request, res *gohttp.Response) error {
	users, err := c.users.All(req.Context())
	if err != nil {
		return err
	}
	res.SetContentType(gohttp.ContentTypeJSON)
	c.SetModel(model.NewCollection(users...))
	return nil
}

func (c *UserController) Show(req *gohttp.Request, res *gohttp.Response) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return &controller.HTTPError{Status: http.StatusBadRequest, Message: "id must be a number", Err: err}
	}
	user, err := c.users.Find(req.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		return &controller.HTTPError{Status: http.StatusNotFound, Message: "user not found"}
	}
	if err != nil {
		return err
	}
	res.SetContentType(gohttp.ContentTypeJSON)
	c.SetModel(user)
	return nil
}

// ── Service provider ─────────────────────────────────────────────────────────

// AppServiceProvider registers the example's models, repositories and
// controllers.
type AppServiceProvider struct{ app.BaseProvider }

func (p *AppServiceProvider) Register(a *app.Application) error {
	pool := a.Pool()
	defs := []*container.Definition{
		container.DefineType("app.models.User", (*User)(nil)),
		container.Define("app.repositories.UserRepository", NewUserRepository).
			Param("db").
			Requires(container.KeyDatabase, "db"),
		container.Define("app.controllers.UserController", NewUserController).
			Param("users").
			Requires("app.repositories.UserRepository", "users"),
		container.Define("app.controllers.HomeController", func(cfg *config.Configuration) *HomeController {
			return &HomeController{name: cfg.App.Name}
		}).
			Param("config").
			Requires(container.KeyConfiguration, "config"),
	}
	for _, d := range defs {
		if err := d.Register(pool); err != nil {
			return err
		}
	}
	return nil
}

// Boot guards /api with a bearer token when API_TOKEN is set.
func (p *AppServiceProvider) Boot(a *app.Application) error {
	token := config.Env("API_TOKEN", "")
	if token == "" {
		return nil
	}
	router, err := a.Router()
	if err != nil {
		return err
	}
	router.Middleware(requireToken("/api/", token))
	return nil
}

func requireToken(prefix, token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, prefix) && gohttp.NewRequest(r).BearerToken() != token {
				_ = gohttp.NewResponse().Error(http.StatusUnauthorized, "Unauthenticated.").Send(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
