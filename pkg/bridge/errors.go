package bridge

import (
	"errors"
	"fmt"
)

// Error texts below are matched by front-ends and keep their historical
// capitalization.

// ErrNotConnected is returned by reader commands issued without a session.
var ErrNotConnected = errors.New("Not connected")

var (
	errMissingDevice = errors.New("serial mode requires a device (e.g. /dev/ttyUSB0)")
	errBadFrequency  = errors.New("freqKhz must be positive (e.g. 902750)")
)

// ConnectFailedError reports that every connection attempt failed. Code is
// the status of the last attempt, -1 when the handle could not be built or
// called.
type ConnectFailedError struct {
	Code int
}

func (e *ConnectFailedError) Error() string {
	return fmt.Sprintf("Connect failed: %d", e.Code)
}

// StatusError reports a non-zero status from a reader operation.
type StatusError struct {
	Op   string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s failed: %d", e.Op, e.Code)
}
