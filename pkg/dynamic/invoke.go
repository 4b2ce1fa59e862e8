package dynamic

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrNoSuchOperation is returned when no method of the requested name and
// arity accepts the supplied arguments.
var ErrNoSuchOperation = errors.New("no such operation")

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Invoke calls the first exported method of target named name that takes
// len(args) parameters and accepts the coerced arguments.
//
// The result is normalized: no results yield nil; a trailing error result is
// returned as the error; otherwise the first result is returned. Panics
// raised by the method are recovered and returned as errors.
func Invoke(target any, name string, args ...any) (any, error) {
	if target == nil {
		return nil, fmt.Errorf("%w: %s on nil target", ErrNoSuchOperation, name)
	}
	v := reflect.ValueOf(target)
	t := v.Type()
	for i := 0; i < t.NumMethod(); i++ {
		if t.Method(i).Name != name {
			continue
		}
		fn := v.Method(i)
		in, ok := coerceArgs(fn.Type(), args)
		if !ok {
			continue
		}
		return call(name, fn, in)
	}
	return nil, fmt.Errorf("%w: %s.%s/%d", ErrNoSuchOperation, t, name, len(args))
}

// InvokeBestEffort calls Invoke and discards the outcome. It is meant for
// teardown calls that must not abort a larger flow.
func InvokeBestEffort(target any, name string, args ...any) {
	defer func() { _ = recover() }()
	_, _ = Invoke(target, name, args...)
}

// Has reports whether target exposes a method named name with arity params.
func Has(target any, name string, arity int) bool {
	if target == nil {
		return false
	}
	m := reflect.ValueOf(target).MethodByName(name)
	return m.IsValid() && !m.Type().IsVariadic() && m.Type().NumIn() == arity
}

func coerceArgs(ft reflect.Type, args []any) ([]reflect.Value, bool) {
	if ft.IsVariadic() || ft.NumIn() != len(args) {
		return nil, false
	}
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		cv, ok := Coerce(arg, ft.In(i))
		if !ok {
			return nil, false
		}
		in[i] = cv
	}
	return in, true
}

func call(name string, fn reflect.Value, in []reflect.Value) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("%s: %v", name, r)
		}
	}()
	return normalize(fn.Call(in))
}

func normalize(out []reflect.Value) (any, error) {
	var err error
	if n := len(out); n > 0 && out[n-1].Type() == errorType {
		if !out[n-1].IsNil() {
			err = out[n-1].Interface().(error)
		}
		out = out[:n-1]
	}
	if len(out) == 0 {
		return nil, err
	}
	first := out[0]
	switch first.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if first.IsNil() {
			return nil, err
		}
	}
	return first.Interface(), err
}
