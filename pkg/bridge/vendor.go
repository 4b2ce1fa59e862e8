package bridge

import "github.com/rfidenter/uhfbridge/pkg/uhf"

// Vendor builds reader handles. Handles are used only through dynamic
// invocation, so any type exposing the expected method names will do.
type Vendor interface {
	// NewReader builds a disconnected handle. connType 0 is serial, 1 is TCP.
	NewReader(connType int, label string) (any, error)
	// NewReaderParameter builds a default inventory parameter object.
	NewReaderParameter() (any, error)
}

// UHFVendor builds readers from pkg/uhf.
type UHFVendor struct {
	Options []uhf.Option
}

func (v UHFVendor) NewReader(connType int, label string) (any, error) {
	return uhf.New(connType, label, v.Options...), nil
}

func (v UHFVendor) NewReaderParameter() (any, error) {
	p := uhf.DefaultReaderParameter()
	return &p, nil
}
