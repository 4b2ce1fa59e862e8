package wire

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ParseArgs decodes a flat JSON object such as {"k":"v","n":1}. Only one
// level is understood: nested objects or arrays are kept as raw strings.
// Members without a colon or with an empty key are dropped, and anything
// that is not an object yields empty Args.
func ParseArgs(text string) Args {
	out := Args{}
	s := strings.TrimSpace(text)
	if len(s) < 2 || s[0] != '{' || s[len(s)-1] != '}' {
		return out
	}
	body := strings.TrimSpace(s[1 : len(s)-1])
	if body == "" {
		return out
	}
	for _, member := range splitTopLevel(body, ',') {
		idx := indexTopLevel(member, ':')
		if idx <= 0 {
			continue
		}
		key := unquote(strings.TrimSpace(member[:idx]))
		if key == "" {
			continue
		}
		out[key] = parseValue(strings.TrimSpace(member[idx+1:]))
	}
	return out
}

func parseValue(raw string) any {
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		return unquote(raw)
	}
	switch raw {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}
	if !jsonNumber.MatchString(raw) {
		return raw
	}
	if !strings.ContainsAny(raw, ".eE") {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

// jsonNumber matches JSON number literals only, so NaN, Inf and hex
// floats stay text.
var jsonNumber = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// unquote strips surrounding quotes and resolves the \" and \\ escapes.
// Other backslash sequences are kept verbatim.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && (s[i+1] == '"' || s[i+1] == '\\') {
			b.WriteByte(s[i+1])
			i++
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// splitTopLevel splits s on sep, ignoring separators inside strings and
// bracketed values.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	start := 0
	scanTopLevel(s, func(i int) bool {
		if s[i] == sep {
			parts = append(parts, s[start:i])
			start = i + 1
		}
		return true
	})
	return append(parts, s[start:])
}

func indexTopLevel(s string, sep byte) int {
	found := -1
	scanTopLevel(s, func(i int) bool {
		if s[i] == sep {
			found = i
			return false
		}
		return true
	})
	return found
}

// scanTopLevel calls visit for every byte that is outside quotes and
// brackets. Scanning stops when visit returns false.
func scanTopLevel(s string, visit func(i int) bool) {
	inString, escaped, depth := false, false, 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
			continue
		case '{', '[':
			depth++
			continue
		case '}', ']':
			if depth > 0 {
				depth--
			}
			continue
		}
		if depth == 0 && !visit(i) {
			return
		}
	}
}

// Encode renders v using the restricted JSON grammar of the protocol:
// null, booleans, numbers, strings, string-keyed maps and integer arrays.
func Encode(v any) string {
	var b strings.Builder
	encodeValue(&b, v)
	return b.String()
}

func encodeValue(b *strings.Builder, v any) {
	switch x := v.(type) {
	case nil:
		b.WriteString("null")
	case string:
		quote(b, x)
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		b.WriteString(encodeScalarText(x))
	case float32:
		encodeFloat(b, float64(x))
	case float64:
		encodeFloat(b, x)
	case map[string]any:
		encodeMap(b, x)
	case Args:
		encodeMap(b, x)
	case []int:
		b.WriteByte('[')
		for i, n := range x {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Itoa(n))
		}
		b.WriteByte(']')
	case []byte:
		b.WriteByte('[')
		for i, n := range x {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Itoa(int(n)))
		}
		b.WriteByte(']')
	default:
		quote(b, encodeScalarText(x))
	}
}

func encodeMap(b *strings.Builder, m map[string]any) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		quote(b, k)
		b.WriteByte(':')
		encodeValue(b, m[k])
	}
	b.WriteByte('}')
}

func encodeFloat(b *strings.Builder, f float64) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		b.WriteString("null")
		return
	}
	b.WriteString(strconv.FormatFloat(f, 'f', -1, 64))
}

func quote(b *strings.Builder, s string) {
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\', '"':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
}
