package wire

import (
	"strconv"
	"strings"
)

// Line markers used by the protocol.
const (
	MarkerRequest  = "REQ"
	MarkerResponse = "RES"
	MarkerEvent    = "EVT"

	StatusOK  = "OK"
	StatusErr = "ERR"
)

// Event types emitted by the bridge.
const (
	EventLog      = "LOG"
	EventStatus   = "STATUS"
	EventTag      = "TAG"
	EventReadOver = "READ_OVER"
	EventTagFail  = "TAG_FAIL"
)

// Args holds decoded request arguments. Values are string, int, float64,
// bool or nil.
type Args map[string]any

// Request models one inbound REQ line.
type Request struct {
	ID      int
	Command string
	Args    Args
}

// Response models one outbound RES line.
type Response struct {
	ID      int
	OK      bool
	Payload any
	Error   string
}

// Event models one outbound EVT line.
type Event struct {
	Type    string
	Payload any
}

// Int returns args[key] as an int, or def when absent, null or not numeric.
func (a Args) Int(key string, def int) int {
	switch v := a[key].(type) {
	case nil:
		return def
	case int:
		return v
	case float64:
		return int(v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return def
		}
		return n
	default:
		return def
	}
}

// String returns args[key] as text, or def when absent or null.
func (a Args) String(key, def string) string {
	switch v := a[key].(type) {
	case nil:
		return def
	case string:
		return v
	default:
		return encodeScalarText(v)
	}
}
