// Package model holds the helpers controllers use on their data: filling a
// struct from input, serializing it for JSON responses, and collections.
package model

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

var ErrNotStructPointer = errors.New("model must be a non-nil pointer to a struct")

// Fill copies data onto model. For each key a Set<Key> method taking one
// argument is preferred; otherwise the exported field whose name matches
// key (case-insensitively) is assigned. Keys matching neither are skipped.
//
//	var u User
//	err := model.Fill(&u, map[string]any{"name": "Alice", "age": 30})
func Fill(model any, data map[string]any) error {
	rv := reflect.ValueOf(model)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("model: fill %T: %w", model, ErrNotStructPointer)
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		if err := fillOne(rv, key, data[key]); err != nil {
			return fmt.Errorf("model: fill %T.%s: %w", model, key, err)
		}
	}
	return nil
}

func fillOne(rv reflect.Value, key string, value any) error {
	if setter := rv.MethodByName("Set" + capitalize(key)); setter.IsValid() && setter.Type().NumIn() == 1 {
		arg, err := convert(value, setter.Type().In(0))
		if err != nil {
			return err
		}
		out := setter.Call([]reflect.Value{arg})
		if n := len(out); n > 0 {
			if err, ok := out[n-1].Interface().(error); ok && err != nil {
				return err
			}
		}
		return nil
	}

	field := rv.Elem().FieldByNameFunc(func(name string) bool { return strings.EqualFold(name, key) })
	if !field.IsValid() || !field.CanSet() {
		return nil
	}
	v, err := convert(value, field.Type())
	if err != nil {
		return err
	}
	field.Set(v)
	return nil
}

// convert adapts value to want; numeric kinds convert between each other
// so decoded JSON numbers fill int fields.
func convert(value any, want reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(want), nil
	}
	v := reflect.ValueOf(value)
	switch {
	case v.Type().AssignableTo(want):
		return v, nil
	case isNumber(v.Kind()) && isNumber(want.Kind()):
		return v.Convert(want), nil
	case v.Type().ConvertibleTo(want) && v.Kind() == want.Kind():
		return v.Convert(want), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %s as %s", v.Type(), want)
}

func isNumber(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Float64
}

func capitalize(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}
