package dynamic

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Coerce converts a loosely typed value into a value of type p.
//
//   - nil becomes the zero value of p.
//   - values already assignable to p pass through.
//   - strings accept the canonical text of any value.
//   - numeric kinds accept numbers and numeric strings.
//   - bool accepts bools and the case-insensitive text 1, true or yes.
//   - byte and int slices only accept values that already have that shape.
func Coerce(value any, p reflect.Type) (reflect.Value, bool) {
	if value == nil {
		return reflect.Zero(p), true
	}
	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(p) {
		return rv, true
	}
	out := reflect.New(p).Elem()
	switch p.Kind() {
	case reflect.String:
		out.SetString(Text(value))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := toInt64(value)
		if !ok {
			return reflect.Value{}, false
		}
		out.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, ok := toInt64(value)
		if !ok {
			return reflect.Value{}, false
		}
		out.SetUint(uint64(n))
	case reflect.Float32, reflect.Float64:
		f, ok := toFloat64(value)
		if !ok {
			return reflect.Value{}, false
		}
		out.SetFloat(f)
	case reflect.Bool:
		out.SetBool(toBool(value))
	default:
		return reflect.Value{}, false
	}
	return out, true
}

// Text renders a value the way it is shown on the wire: nil is empty,
// floats use the shortest representation, everything else uses fmt.
func Text(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	default:
		return fmt.Sprint(v)
	}
}

// Int converts a value to int, returning 0 when it is neither a number nor
// a numeric string.
func Int(value any) int {
	n, _ := toInt64(value)
	return int(n)
}

func toInt64(value any) (int64, bool) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return int64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return int64(f), true
	case reflect.String:
		s := strings.TrimSpace(rv.String())
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return int64(f), true
		}
	}
	return 0, false
}

func toFloat64(value any) (float64, bool) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(rv.String()), 64)
		return f, err == nil
	}
	return 0, false
}

func toBool(value any) bool {
	if b, ok := value.(bool); ok {
		return b
	}
	switch strings.ToLower(strings.TrimSpace(Text(value))) {
	case "1", "true", "yes":
		return true
	}
	return false
}
