package console_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-spf/framework/app"
	"github.com/km-arc/go-spf/framework/console"
	"github.com/km-arc/go-spf/framework/container"
	"github.com/km-arc/go-spf/framework/controller"
)

type PageController struct{ controller.Controller }

type pageProvider struct{ app.BaseProvider }

func (pageProvider) Register(a *app.Application) error {
	return container.DefineType("app.controllers.PageController", (*PageController)(nil)).
		Doc("@SPF:Route /pages").
		Register(a.Pool())
}

func writeApp(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	files := map[string]string{
		"configs/config.yaml": "environment: production\n",
		"configs/routes.yaml": "routes:\n  - {pattern: /pages, methods: [get, post], controller: app.controllers.PageController, action: Index}\n",
	}
	for rel, content := range files {
		path := filepath.Join(base, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return base
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	cmd := console.NewCommand(console.Options{Providers: []app.ServiceProvider{pageProvider{}}})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--base", writeApp(t)}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestRoutes(t *testing.T) {
	out, err := run(t, "routes")

	require.NoError(t, err)
	assert.Contains(t, out, "METHOD")
	assert.Contains(t, out, "GET|POST")
	assert.Contains(t, out, "app.controllers.PageController")
}

func TestResolve(t *testing.T) {
	out, err := run(t, "resolve", container.KeyEnvironment)

	require.NoError(t, err)
	assert.Contains(t, out, "spf.core.Environment *core.Environment")
	assert.Contains(t, out, "  "+container.KeyConfiguration)
}

func TestResolve_Unresolvable(t *testing.T) {
	_, err := run(t, "resolve", "app.Nothing")

	assert.ErrorIs(t, err, container.ErrUnresolvable)
}

func TestAnnotations(t *testing.T) {
	out, err := run(t, "annotations", "app.controllers.PageController")
	require.NoError(t, err)
	assert.Equal(t, "@Route /pages\n", out)

	out, err = run(t, "annotations", container.KeyEnvironment, "constructor")
	require.NoError(t, err)
	assert.Contains(t, out, "@DmRequires spf.core.Configuration $config")

	out, err = run(t, "annotations", "app.controllers.PageController", "method", "Missing")
	require.NoError(t, err)
	assert.Equal(t, "no annotations\n", out)
}

func TestAnnotations_UnknownType(t *testing.T) {
	_, err := run(t, "annotations", "app.Nope")

	assert.Error(t, err)
}

func TestTypes(t *testing.T) {
	out, err := run(t, "types", "spf.providers.")

	require.NoError(t, err)
	assert.Contains(t, out, "spf.providers.core.RouterProvider\n")
	assert.NotContains(t, out, "app.controllers")
}
