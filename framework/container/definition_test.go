package container_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-spf/framework/container"
	"github.com/km-arc/go-spf/framework/reflection"
)

func TestDefine_BuildsManagedSpec(t *testing.T) {
	spec := container.Define("app.Widget", NewWidget).
		Param("log").
		Optional("name").
		Requires("app.Logger", "log").
		Doc("A widget.").
		Spec()

	assert.Equal(t, "app.Widget", spec.Name)
	assert.Equal(t, []reflection.Param{{Name: "log"}, {Name: "name", Optional: true}}, spec.Params)
	assert.Equal(t, []reflection.Tag{
		{Name: container.AnnotationManaged},
		{Name: container.AnnotationRequires, Params: []string{"app.Logger", "$log"}},
	}, spec.ConstructorTags)
	assert.Equal(t, "A widget.", spec.Doc)
}

func TestDefine_RegisteredTypeResolves(t *testing.T) {
	c := newContainer(t, loggerSpec)
	require.NoError(t, container.Define("app.Widget", NewWidget).
		Param("log").
		Optional("name").
		Requires("app.Logger", "log").
		Register(c.Pool()))

	w := container.MustResolve[*Widget](c, "app.Widget")

	assert.Same(t, c.MustGet("app.Logger"), w.Log)
}

func TestDefine_ProvidedBy(t *testing.T) {
	c := newContainer(t, reflection.Spec{Name: "app.MailerFactory", Type: (*mailerFactory)(nil)})
	require.NoError(t, container.Define("app.Mailer", newMailer).
		Param("host").
		ProvidedBy("app.MailerFactory").
		Register(c.Pool()))

	m := container.MustResolve[*mailer](c, "app.Mailer")

	assert.Equal(t, "smtp.internal", m.host)
}

func TestDefineType_WithMethodDocs(t *testing.T) {
	pool := reflection.NewPool()
	require.NoError(t, container.DefineType("app.Provider", (*widgetProvider)(nil)).
		Method("Load", "@SPF:Cached").
		Register(pool))

	d, err := pool.Get("app.Provider")
	require.NoError(t, err)
	m, err := d.Method("Load")
	require.NoError(t, err)
	assert.Equal(t, "@SPF:Cached", m.Doc)
	assert.False(t, d.HasConstructor())
}
