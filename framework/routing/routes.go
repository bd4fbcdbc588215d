package routing

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// File is the routes file path relative to the application base.
var File = filepath.Join("configs", "routes.yaml")

var ErrInvalidRoute = errors.New("invalid route")

// Route maps a URL pattern to a controller action.
//
//	routes:
//	  - pattern: /users/{id}
//	    methods: [GET]
//	    controller: app.controllers.UserController
//	    action: Show
type Route struct {
	Pattern    string   `yaml:"pattern"`
	Methods    []string `yaml:"methods"`
	Controller string   `yaml:"controller"`
	Action     string   `yaml:"action"`
}

var knownMethods = map[string]bool{
	http.MethodGet: true, http.MethodHead: true, http.MethodPost: true,
	http.MethodPut: true, http.MethodPatch: true, http.MethodDelete: true,
	http.MethodOptions: true,
}

// LoadRoutes reads <base>/configs/routes.yaml.
func LoadRoutes(base string) ([]Route, error) {
	path := filepath.Join(base, File)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("routing: read %s: %w", path, err)
	}
	return ParseRoutes(raw)
}

// ParseRoutes decodes and validates a routes document. Methods default to
// GET and are upper-cased.
func ParseRoutes(raw []byte) ([]Route, error) {
	var doc struct {
		Routes []Route `yaml:"routes"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("routing: parse %s: %w", File, err)
	}
	for i := range doc.Routes {
		if err := doc.Routes[i].normalize(); err != nil {
			return nil, fmt.Errorf("routing: route %d: %w", i, err)
		}
	}
	return doc.Routes, nil
}

func (rt *Route) normalize() error {
	switch {
	case !strings.HasPrefix(rt.Pattern, "/"):
		return fmt.Errorf("%w: pattern %q must start with /", ErrInvalidRoute, rt.Pattern)
	case rt.Controller == "":
		return fmt.Errorf("%w: %s has no controller", ErrInvalidRoute, rt.Pattern)
	case rt.Action == "":
		return fmt.Errorf("%w: %s has no action", ErrInvalidRoute, rt.Pattern)
	}
	if len(rt.Methods) == 0 {
		rt.Methods = []string{http.MethodGet}
	}
	for i, m := range rt.Methods {
		m = strings.ToUpper(m)
		if !knownMethods[m] {
			return fmt.Errorf("%w: %s has unknown method %q", ErrInvalidRoute, rt.Pattern, m)
		}
		rt.Methods[i] = m
	}
	return nil
}
