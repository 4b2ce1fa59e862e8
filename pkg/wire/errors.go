package wire

import "errors"

var (
	// ErrMalformedRequest marks a line that is not a REQ line. It is only
	// ever reported as a LOG event since no id can be attributed.
	ErrMalformedRequest = errors.New("bad line")
	// ErrUnknownCommand is returned for commands without a handler. The
	// text is matched by peers and keeps its historical spelling.
	ErrUnknownCommand = errors.New("Unknown cmd")
)
