package reflection_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-spf/framework/reflection"
)

type logger struct{ prefix string }

func (l *logger) Print(string) {}

type widget struct {
	Log   *logger
	Label string `doc:"@SPF:JsonIgnore"`
	size  int
}

func newWidget(log *logger, label string) *widget { return &widget{Log: log, Label: label} }

func newFailing() (*widget, error) { return nil, errors.New("boom") }

func TestPool_RegisterAndGet(t *testing.T) {
	p := reflection.NewPool()
	require.NoError(t, p.Register(reflection.Spec{
		Name:           "app.Widget",
		New:            newWidget,
		Params:         []reflection.Param{{Name: "log"}, {Name: "label", Optional: true}},
		ConstructorDoc: "@SPF:DmManaged",
	}))

	d, err := p.Get("app.Widget")
	require.NoError(t, err)
	assert.True(t, d.HasConstructor())
	assert.Equal(t, 1, d.RequiredParams())
	assert.Equal(t, "@SPF:DmManaged", d.Constructor().Doc)
	assert.True(t, p.Exists("app.Widget"))
	assert.Equal(t, []string{"app.Widget"}, p.Names())
}

func TestPool_GetUnknown_ReturnsLookupError(t *testing.T) {
	p := reflection.NewPool()

	_, err := p.Get("app.Missing")

	var lookup *reflection.LookupError
	require.ErrorAs(t, err, &lookup)
	assert.Equal(t, "app.Missing", lookup.Name)
	assert.ErrorIs(t, err, reflection.ErrNotFound)
}

func TestPool_Register_Validation(t *testing.T) {
	tests := []struct {
		name string
		spec reflection.Spec
	}{
		{"missing name", reflection.Spec{Type: logger{}}},
		{"neither New nor Type", reflection.Spec{Name: "x"}},
		{"constructor not a func", reflection.Spec{Name: "x", New: 42}},
		{"param count mismatch", reflection.Spec{Name: "x", New: newWidget, Params: []reflection.Param{{Name: "log"}}}},
		{"unknown method", reflection.Spec{Name: "x", Type: logger{}, Methods: map[string]string{"Nope": ""}}},
		{"params without constructor", reflection.Spec{Name: "x", Type: logger{}, Params: []reflection.Param{{Name: "a"}}}},
		{"variadic", reflection.Spec{Name: "x", New: func(...int) *logger { return nil }}},
		{"bad returns", reflection.Spec{Name: "x", New: func() (*logger, int) { return nil, 0 }}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := reflection.NewPool().Register(tt.spec)
			var specErr *reflection.SpecError
			assert.ErrorAs(t, err, &specErr)
		})
	}
}

func TestPool_Register_Duplicate(t *testing.T) {
	p := reflection.NewPool()
	require.NoError(t, p.Register(reflection.Spec{Name: "app.Logger", Type: logger{}}))
	assert.Error(t, p.Register(reflection.Spec{Name: "app.Logger", Type: logger{}}))
}

func TestDescriptor_New_WithoutConstructor(t *testing.T) {
	p := reflection.NewPool()
	p.MustRegister(reflection.Spec{Name: "app.Logger", Type: (*logger)(nil)})
	d, _ := p.Get("app.Logger")

	v, err := d.New()
	require.NoError(t, err)
	assert.IsType(t, &logger{}, v)
	assert.False(t, d.HasConstructor())

	_, err = d.New("extra")
	assert.Error(t, err)
}

func TestDescriptor_New_ArgumentsAndOptionalZeroes(t *testing.T) {
	p := reflection.NewPool()
	p.MustRegister(reflection.Spec{
		Name:   "app.Widget",
		New:    newWidget,
		Params: []reflection.Param{{Name: "log"}, {Name: "label", Optional: true}},
	})
	d, _ := p.Get("app.Widget")
	l := &logger{prefix: "x"}

	v, err := d.New(l)
	require.NoError(t, err)
	w := v.(*widget)
	assert.Same(t, l, w.Log)
	assert.Empty(t, w.Label)

	v, err = d.New(l, "big")
	require.NoError(t, err)
	assert.Equal(t, "big", v.(*widget).Label)

	_, err = d.New()
	assert.ErrorContains(t, err, "missing required argument $log")

	_, err = d.New(42)
	assert.ErrorContains(t, err, "cannot use int")
}

func TestDescriptor_New_PropagatesConstructorError(t *testing.T) {
	p := reflection.NewPool()
	p.MustRegister(reflection.Spec{Name: "app.Failing", New: newFailing})
	d, _ := p.Get("app.Failing")

	_, err := d.New()
	assert.EqualError(t, err, "boom")
}

func TestDescriptor_MembersAndProperties(t *testing.T) {
	p := reflection.NewPool()
	p.MustRegister(reflection.Spec{
		Name:    "app.Logger",
		Type:    logger{},
		Doc:     "@SPF:Channel app",
		Methods: map[string]string{"Print": "@SPF:Deprecated"},
	})
	p.MustRegister(reflection.Spec{Name: "app.Widget", New: newWidget, Params: []reflection.Param{{Name: "log"}, {Name: "label"}}})

	ld, _ := p.Get("app.Logger")
	m, err := ld.Method("Print")
	require.NoError(t, err)
	assert.Equal(t, "@SPF:Deprecated", m.Doc)
	assert.Equal(t, "@SPF:Channel app", ld.TypeMember().Doc)

	_, err = ld.Method("Missing")
	assert.ErrorIs(t, err, reflection.ErrNotFound)

	wd, _ := p.Get("app.Widget")
	prop, err := wd.Property("Label")
	require.NoError(t, err)
	assert.Equal(t, "@SPF:JsonIgnore", prop.Doc)
	assert.Equal(t, []string{"Label", "Log"}, wd.Properties())

	_, err = wd.Property("size")
	assert.ErrorIs(t, err, reflection.ErrNotFound)
}

func TestPool_NameOf(t *testing.T) {
	p := reflection.NewPool()
	p.MustRegister(reflection.Spec{Name: "app.Logger", Type: logger{}})

	name, ok := p.NameOf(&logger{})
	assert.True(t, ok)
	assert.Equal(t, "app.Logger", name)

	name, ok = p.NameOf(logger{})
	assert.True(t, ok)
	assert.Equal(t, "app.Logger", name)

	_, ok = p.NameOf(42)
	assert.False(t, ok)
	_, ok = p.NameOf(nil)
	assert.False(t, ok)
}

func TestTypeKey(t *testing.T) {
	assert.Equal(t, "github.com/km-arc/go-spf/framework/reflection_test.logger", reflection.TypeKey((*logger)(nil)))
	assert.Equal(t, "", reflection.TypeKey(nil))
}
