package reflection

import "reflect"

// MemberKind selects which part of a type a lookup targets.
type MemberKind string

const (
	KindType        MemberKind = ""
	KindConstructor MemberKind = "constructor"
	KindMethod      MemberKind = "method"
	KindProperty    MemberKind = "property"
)

// Valid reports whether k is one of the known member kinds.
func (k MemberKind) Valid() bool {
	switch k {
	case KindType, KindConstructor, KindMethod, KindProperty:
		return true
	}
	return false
}

func (k MemberKind) String() string {
	if k == KindType {
		return "type"
	}
	return string(k)
}

// Param is a declared constructor parameter.
type Param struct {
	Name     string
	Optional bool
}

// Tag is a statically declared annotation: a name and its positional parameters.
type Tag struct {
	Name   string
	Params []string
}

// Spec describes a type to the pool. Go has no runtime access to parameter
// names or doc comments, so both are declared here.
//
//	pool.Register(reflection.Spec{
//	    Name:   "app.Widget",
//	    New:    NewWidget, // func(log *Logger) *Widget
//	    Params: []reflection.Param{{Name: "log"}},
//	    ConstructorDoc: `
//	        @SPF:DmManaged
//	        @SPF:DmRequires app.Logger $log`,
//	})
//
// A type without a declared constructor sets Type to a zero value instead;
// instances are then built with reflect.New and returned as pointers.
type Spec struct {
	// Name is the registry key the type is known by.
	Name string

	// Type is a sample value (or typed nil pointer) of a constructor-less type.
	Type any

	// New is the constructor: func(args...) T or func(args...) (T, error).
	New any

	// Params names the constructor's parameters in declared order. When nil
	// every parameter is required and named arg0, arg1, ...
	Params []Param

	Doc            string
	ConstructorDoc string

	// ConstructorTags are merged after the tags parsed from ConstructorDoc.
	ConstructorTags []Tag

	// Methods maps method names to their doc blocks. Every name must exist
	// on the instance type.
	Methods map[string]string
}

// TypeKey returns the package-qualified type name of v, handy as a stable key
// for types registered from several packages.
//
//	key := reflection.TypeKey((*UserRepository)(nil)) // "example.com/app.UserRepository"
func TypeKey(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.PkgPath() + "." + t.Name()
}
