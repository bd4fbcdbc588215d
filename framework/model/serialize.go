package model

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/km-arc/go-spf/framework/annotations"
)

// AnnotationJSONIgnore on a property keeps it out of serialized output.
//
//	Password string `doc:"@SPF:JsonIgnore"`
const AnnotationJSONIgnore = "JsonIgnore"

// Serializer turns models into JSON-ready values, honouring property
// annotations of registered types.
type Serializer struct {
	engine *annotations.Engine
}

func NewSerializer(engine *annotations.Engine) *Serializer {
	return &Serializer{engine: engine}
}

// valuer is implemented by collections.
type valuer interface {
	Values() []any
}

// Serialize converts v: structs become maps of their exported, non-ignored
// fields, slices and collections are converted element-wise, anything else
// is returned as is.
func (s *Serializer) Serialize(v any) (any, error) {
	if c, ok := v.(valuer); ok {
		return s.Serialize(c.Values())
	}
	if _, ok := v.(json.Marshaler); ok {
		return v, nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		return s.mapStruct(rv)
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return v, nil
		}
		out := make([]any, rv.Len())
		for i := range out {
			item, err := s.Serialize(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out[i] = item
		}
		return out, nil
	}
	return v, nil
}

// Map returns the exported fields of a struct (or pointer to one), keyed by
// their json tag name or field name.
func (s *Serializer) Map(v any) (map[string]any, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, ErrNotStructPointer
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, ErrNotStructPointer
	}
	return s.mapStruct(rv)
}

func (s *Serializer) mapStruct(rv reflect.Value) (map[string]any, error) {
	rt := rv.Type()
	v := rv.Interface()

	out := make(map[string]any, rt.NumField())
	for _, f := range reflect.VisibleFields(rt) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		ignored, err := s.ignored(v, f.Name)
		if err != nil {
			return nil, err
		}
		name, skip := jsonName(f)
		if ignored || skip {
			continue
		}
		value, err := s.Serialize(rv.FieldByIndex(f.Index).Interface())
		if err != nil {
			return nil, err
		}
		out[name] = value
	}
	return out, nil
}

// JSON serializes v and encodes it.
func (s *Serializer) JSON(v any) ([]byte, error) {
	out, err := s.Serialize(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

func (s *Serializer) ignored(v any, field string) (bool, error) {
	if s.engine == nil {
		return false, nil
	}
	set, err := s.engine.Property(v, field)
	if errors.Is(err, annotations.ErrUnknownSubject) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return set.Has(AnnotationJSONIgnore), nil
}

func jsonName(f reflect.StructField) (string, bool) {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", true
	}
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name, false
	}
	return f.Name, false
}
