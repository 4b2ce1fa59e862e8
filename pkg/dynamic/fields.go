package dynamic

import (
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ReadField returns the member called name on obj, or nil when none exists
// or the accessor fails.
func ReadField(obj any, name string) any {
	v, _ := LookupField(obj, name)
	return v
}

// ReadString reads a member as text; a missing member is "".
func ReadString(obj any, name string) string {
	return Text(ReadField(obj, name))
}

// ReadInt reads a member as an int; a missing or non-numeric member is 0.
func ReadInt(obj any, name string) int {
	return Int(ReadField(obj, name))
}

// LookupField resolves name against obj. Exported struct fields and map
// keys are matched case-insensitively; failing that, a zero-argument
// accessor Get<Name> or <Name> is called. A missing member is not an error
// and yields nil; an accessor that fails or panics returns its error.
func LookupField(obj any, name string) (any, error) {
	if obj == nil || name == "" {
		return nil, nil
	}
	v := reflect.ValueOf(obj)
	if f, ok := findField(v, name); ok {
		return f.Interface(), nil
	}
	if m, ok := findMethod(v, 0, accessorNames("Get", name)...); ok {
		return call(name, m, nil)
	}
	return nil, nil
}

// WriteField sets the member called name on obj, coercing value to the
// member's type. Settable struct fields and map entries are tried first,
// then a one-argument Set<Name> method. It reports whether anything was
// written; failures are otherwise silent.
func WriteField(obj any, name string, value any) (written bool) {
	if obj == nil || name == "" {
		return false
	}
	defer func() {
		if recover() != nil {
			written = false
		}
	}()
	v := reflect.ValueOf(obj)
	if f, ok := findField(v, name); ok && f.CanSet() {
		if cv, ok := Coerce(value, f.Type()); ok {
			f.Set(cv)
			return true
		}
	}
	if m := indirect(v); m.IsValid() && m.Kind() == reflect.Map && m.Type().Key().Kind() == reflect.String && !m.IsNil() {
		if cv, ok := Coerce(value, m.Type().Elem()); ok {
			key := mapKey(m, name)
			if !key.IsValid() {
				key = reflect.ValueOf(name).Convert(m.Type().Key())
			}
			m.SetMapIndex(key, cv)
			return true
		}
	}
	if m, ok := findMethod(v, 1, "Set"+capitalize(name)); ok {
		if in, ok := coerceArgs(m.Type(), []any{value}); ok {
			_, err := call(name, m, in)
			return err == nil
		}
	}
	return false
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func findField(v reflect.Value, name string) (reflect.Value, bool) {
	s := indirect(v)
	if !s.IsValid() {
		return reflect.Value{}, false
	}
	switch s.Kind() {
	case reflect.Struct:
		sf, ok := s.Type().FieldByNameFunc(func(n string) bool { return strings.EqualFold(n, name) })
		if !ok || !sf.IsExported() {
			return reflect.Value{}, false
		}
		f, err := s.FieldByIndexErr(sf.Index)
		if err != nil {
			return reflect.Value{}, false
		}
		return f, true
	case reflect.Map:
		if s.Type().Key().Kind() != reflect.String {
			return reflect.Value{}, false
		}
		key := mapKey(s, name)
		if !key.IsValid() {
			return reflect.Value{}, false
		}
		return s.MapIndex(key), true
	}
	return reflect.Value{}, false
}

func mapKey(m reflect.Value, name string) reflect.Value {
	iter := m.MapRange()
	for iter.Next() {
		if strings.EqualFold(iter.Key().String(), name) {
			return iter.Key()
		}
	}
	return reflect.Value{}
}

func findMethod(v reflect.Value, arity int, names ...string) (reflect.Value, bool) {
	if !v.IsValid() {
		return reflect.Value{}, false
	}
	t := v.Type()
	for _, want := range names {
		for i := 0; i < t.NumMethod(); i++ {
			if !strings.EqualFold(t.Method(i).Name, want) {
				continue
			}
			m := v.Method(i)
			if m.Type().IsVariadic() || m.Type().NumIn() != arity {
				continue
			}
			return m, true
		}
	}
	return reflect.Value{}, false
}

func accessorNames(prefix, name string) []string {
	return []string{prefix + capitalize(name), capitalize(name)}
}

func capitalize(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}
