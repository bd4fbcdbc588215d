package container

import (
	"maps"
	"slices"

	"github.com/km-arc/go-spf/framework/reflection"
)

// Definition is a fluent builder for a type spec whose constructor
// annotations are declared in code instead of a doc string.
//
//	container.Define("app.Widget", NewWidget).
//	    Param("log").
//	    Requires("spf.log.Logger", "log").
//	    Register(pool)
type Definition struct {
	spec    reflection.Spec
	managed bool
	tags    []reflection.Tag
}

// Define starts a definition for a type built by ctor.
func Define(name string, ctor any) *Definition {
	return &Definition{spec: reflection.Spec{Name: name, New: ctor}}
}

// DefineType starts a definition for a type without a constructor. sample
// is a pointer to the struct, e.g. (*Widget)(nil).
func DefineType(name string, sample any) *Definition {
	return &Definition{spec: reflection.Spec{Name: name, Type: sample}}
}

// Param names the next required constructor parameters, in order.
func (d *Definition) Param(names ...string) *Definition {
	for _, n := range names {
		d.spec.Params = append(d.spec.Params, reflection.Param{Name: n})
	}
	return d
}

// Optional names the next constructor parameter and marks it optional.
func (d *Definition) Optional(name string) *Definition {
	d.spec.Params = append(d.spec.Params, reflection.Param{Name: name, Optional: true})
	return d
}

// Managed hands construction to the container.
func (d *Definition) Managed() *Definition {
	d.managed = true
	return d
}

// Requires wires constructor parameter param to the value under key.
// It implies Managed.
func (d *Definition) Requires(key, param string) *Definition {
	d.managed = true
	d.tags = append(d.tags, reflection.Tag{Name: AnnotationRequires, Params: []string{key, "$" + param}})
	return d
}

// ProvidedBy delegates construction to the provider type registered as
// provider. It implies Managed.
func (d *Definition) ProvidedBy(provider string) *Definition {
	d.managed = true
	d.tags = append(d.tags, reflection.Tag{Name: AnnotationProvider, Params: []string{provider}})
	return d
}

// Method declares an annotated method.
func (d *Definition) Method(name, doc string) *Definition {
	if d.spec.Methods == nil {
		d.spec.Methods = make(map[string]string)
	}
	d.spec.Methods[name] = doc
	return d
}

// Doc sets the type's doc comment.
func (d *Definition) Doc(doc string) *Definition {
	d.spec.Doc = doc
	return d
}

// Spec returns the spec built so far.
func (d *Definition) Spec() reflection.Spec {
	s := d.spec
	s.Params = slices.Clone(d.spec.Params)
	s.Methods = maps.Clone(d.spec.Methods)
	if d.managed {
		s.ConstructorTags = append(s.ConstructorTags, reflection.Tag{Name: AnnotationManaged})
	}
	s.ConstructorTags = append(s.ConstructorTags, d.tags...)
	return s
}

// Register adds the spec to pool.
func (d *Definition) Register(pool *reflection.Pool) error {
	return pool.Register(d.Spec())
}
