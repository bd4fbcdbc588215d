// Package view renders Mustache templates from the application's views
// directory, with partials looked up in views/partials.
package view

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cbroglie/mustache"
)

// Extension is appended to template names.
const Extension = ".mustache"

var ErrTemplateNotFound = errors.New("template not found")

// Engine loads and renders templates. Parsed templates are cached by name.
type Engine struct {
	dir      string
	partials mustache.PartialProvider

	mu    sync.RWMutex
	cache map[string]*mustache.Template
}

// NewEngine creates an engine reading templates from dir and partials from
// partialsDir.
//
//	engine := view.NewEngine("views", "views/partials")
func NewEngine(dir, partialsDir string) *Engine {
	return &Engine{
		dir: dir,
		partials: &mustache.FileProvider{
			Paths:      []string{partialsDir},
			Extensions: []string{Extension},
		},
		cache: make(map[string]*mustache.Template),
	}
}

// Dir is the templates directory.
func (e *Engine) Dir() string { return e.dir }

// Exists reports whether the named template file is present.
func (e *Engine) Exists(name string) bool {
	path, err := e.path(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Render renders the template views/<name>.mustache with data.
//
//	html, err := engine.Render("users/show", user)
func (e *Engine) Render(name string, data any) (string, error) {
	tmpl, err := e.template(name)
	if err != nil {
		return "", err
	}
	out, err := tmpl.Render(data)
	if err != nil {
		return "", fmt.Errorf("view: render %s: %w", name, err)
	}
	return out, nil
}

// RenderString renders an inline template; partials still come from disk.
func (e *Engine) RenderString(src string, data any) (string, error) {
	tmpl, err := mustache.ParseStringPartials(src, e.partials)
	if err != nil {
		return "", fmt.Errorf("view: parse: %w", err)
	}
	return tmpl.Render(data)
}

func (e *Engine) template(name string) (*mustache.Template, error) {
	e.mu.RLock()
	tmpl, ok := e.cache[name]
	e.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	path, err := e.path(name)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("view: %w: %s", ErrTemplateNotFound, name)
	}
	tmpl, err = mustache.ParseFilePartials(path, e.partials)
	if err != nil {
		return nil, fmt.Errorf("view: parse %s: %w", name, err)
	}

	e.mu.Lock()
	e.cache[name] = tmpl
	e.mu.Unlock()
	return tmpl, nil
}

// path keeps template names inside the views directory.
func (e *Engine) path(name string) (string, error) {
	rel := filepath.Clean(filepath.FromSlash(name) + Extension)
	if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("view: %w: %s", ErrTemplateNotFound, name)
	}
	return filepath.Join(e.dir, rel), nil
}

// View names a template to render with a controller's model.
type View struct {
	Template string
}

// Render renders v with data through e.
func (v View) Render(e *Engine, data any) (string, error) {
	return e.Render(v.Template, data)
}
