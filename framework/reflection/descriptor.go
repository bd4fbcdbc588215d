package reflection

import (
	"fmt"
	"reflect"
	"slices"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Member is an introspected constructor, method or property.
type Member struct {
	Kind   MemberKind
	Name   string
	Doc    string
	Tags   []Tag
	Params []Param
}

// RequiredParams counts the non-optional parameters.
func (m *Member) RequiredParams() int {
	if m == nil {
		return 0
	}
	n := 0
	for _, p := range m.Params {
		if !p.Optional {
			n++
		}
	}
	return n
}

// Descriptor is the memoized introspection data for one registered type.
type Descriptor struct {
	Name string

	// Type is the type of the values New returns.
	Type reflect.Type

	typeMember  *Member
	constructor *Member
	newFn       reflect.Value
	returnsErr  bool
	methods     map[string]*Member
	properties  map[string]*Member
}

// TypeMember describes the type itself (its doc block).
func (d *Descriptor) TypeMember() *Member { return d.typeMember }

// Constructor returns the declared constructor, or nil when there is none.
func (d *Descriptor) Constructor() *Member { return d.constructor }

// HasConstructor reports whether the type declares a constructor.
func (d *Descriptor) HasConstructor() bool { return d.constructor != nil }

// RequiredParams is the constructor's required arity (0 without a constructor).
func (d *Descriptor) RequiredParams() int { return d.constructor.RequiredParams() }

// Method looks up a documented method.
func (d *Descriptor) Method(name string) (*Member, error) {
	if m, ok := d.methods[name]; ok {
		return m, nil
	}
	return nil, &LookupError{Name: d.Name, Kind: KindMethod, Member: name}
}

// Property looks up an exported struct field.
func (d *Descriptor) Property(name string) (*Member, error) {
	if m, ok := d.properties[name]; ok {
		return m, nil
	}
	return nil, &LookupError{Name: d.Name, Kind: KindProperty, Member: name}
}

// Properties returns the exported field names in declaration order.
func (d *Descriptor) Properties() []string {
	out := make([]string, 0, len(d.properties))
	for name := range d.properties {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// New builds an instance. args line up with the constructor's parameters;
// nil args and missing trailing optional args become zero values.
func (d *Descriptor) New(args ...any) (any, error) {
	if d.constructor == nil {
		if len(args) > 0 {
			return nil, fmt.Errorf("reflection: [%s] has no constructor but got %d arguments", d.Name, len(args))
		}
		return reflect.New(d.Type.Elem()).Interface(), nil
	}

	fnType := d.newFn.Type()
	if len(args) > fnType.NumIn() {
		return nil, fmt.Errorf("reflection: [%s] takes %d arguments, got %d", d.Name, fnType.NumIn(), len(args))
	}

	in := make([]reflect.Value, fnType.NumIn())
	for i := range in {
		want := fnType.In(i)
		param := d.constructor.Params[i]

		if i >= len(args) || args[i] == nil {
			if i >= len(args) && !param.Optional {
				return nil, fmt.Errorf("reflection: [%s] missing required argument $%s", d.Name, param.Name)
			}
			in[i] = reflect.Zero(want)
			continue
		}

		v := reflect.ValueOf(args[i])
		switch {
		case v.Type().AssignableTo(want):
		case v.Type().ConvertibleTo(want) && v.Kind() == want.Kind():
			v = v.Convert(want)
		default:
			return nil, fmt.Errorf("reflection: [%s] argument $%s: cannot use %s as %s", d.Name, param.Name, v.Type(), want)
		}
		in[i] = v
	}

	out := d.newFn.Call(in)
	if d.returnsErr && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	return out[0].Interface(), nil
}

// ── building ────────────────────────────────────────────────────────────────

func describe(spec Spec) (*Descriptor, error) {
	if spec.Name == "" {
		return nil, &SpecError{Name: "?", Reason: "name is required"}
	}

	d := &Descriptor{
		Name:       spec.Name,
		typeMember: &Member{Kind: KindType, Name: spec.Name, Doc: spec.Doc},
		methods:    make(map[string]*Member),
		properties: make(map[string]*Member),
	}

	switch {
	case spec.New != nil:
		if err := d.describeConstructor(spec); err != nil {
			return nil, err
		}
	case spec.Type != nil:
		if len(spec.Params) > 0 || len(spec.ConstructorTags) > 0 || spec.ConstructorDoc != "" {
			return nil, &SpecError{Name: spec.Name, Reason: "constructor params, tags or doc given without a constructor"}
		}
		t := reflect.TypeOf(spec.Type)
		if t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		d.Type = reflect.PointerTo(t)
	default:
		return nil, &SpecError{Name: spec.Name, Reason: "either New or Type must be set"}
	}

	for name, doc := range spec.Methods {
		if _, ok := d.Type.MethodByName(name); !ok {
			return nil, &SpecError{Name: spec.Name, Reason: fmt.Sprintf("method %q is not defined on %s", name, d.Type)}
		}
		d.methods[name] = &Member{Kind: KindMethod, Name: name, Doc: doc}
	}

	d.describeProperties()
	return d, nil
}

func (d *Descriptor) describeConstructor(spec Spec) error {
	fn := reflect.ValueOf(spec.New)
	t := fn.Type()
	if t.Kind() != reflect.Func {
		return &SpecError{Name: spec.Name, Reason: fmt.Sprintf("constructor must be a func, got %s", t)}
	}
	if t.IsVariadic() {
		return &SpecError{Name: spec.Name, Reason: "variadic constructors are not supported"}
	}
	switch {
	case t.NumOut() == 1:
	case t.NumOut() == 2 && t.Out(1) == errorType:
		d.returnsErr = true
	default:
		return &SpecError{Name: spec.Name, Reason: "constructor must return T or (T, error)"}
	}

	params := spec.Params
	if params == nil {
		params = make([]Param, t.NumIn())
		for i := range params {
			params[i] = Param{Name: fmt.Sprintf("arg%d", i)}
		}
	}
	if len(params) != t.NumIn() {
		return &SpecError{Name: spec.Name, Reason: fmt.Sprintf("constructor takes %d parameters, %d declared", t.NumIn(), len(params))}
	}

	d.Type = t.Out(0)
	d.newFn = fn
	d.constructor = &Member{
		Kind:   KindConstructor,
		Name:   spec.Name,
		Doc:    spec.ConstructorDoc,
		Tags:   slices.Clone(spec.ConstructorTags),
		Params: slices.Clone(params),
	}
	return nil
}

// describeProperties indexes exported struct fields; the `doc` struct tag
// holds the field's documentation block.
func (d *Descriptor) describeProperties() {
	t := d.Type
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return
	}
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		d.properties[f.Name] = &Member{Kind: KindProperty, Name: f.Name, Doc: f.Tag.Get("doc")}
	}
}
