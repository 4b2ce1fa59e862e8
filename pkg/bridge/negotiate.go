package bridge

import (
	"context"
	"strings"

	"github.com/rfidenter/uhfbridge/pkg/core"
	"github.com/rfidenter/uhfbridge/pkg/dynamic"
	"github.com/rfidenter/uhfbridge/pkg/wire"
)

// Vendor connection types.
const (
	connSerial = 0
	connTCP    = 1
)

type connectParams struct {
	mode       string
	ip         string
	port       int
	device     string
	baud       int
	readerType int
	logSwitch  int
}

func (b *Bridge) connectParams(args wire.Args) connectParams {
	return connectParams{
		mode:       core.NormalizeMode(args.String("mode", core.ModeTCP)),
		ip:         args.String("ip", b.defaults.IP),
		port:       args.Int("port", b.defaults.Port),
		device:     strings.TrimSpace(args.String("device", "")),
		baud:       args.Int("baud", 0),
		readerType: args.Int("readerType", 16),
		logSwitch:  args.Int("logSwitch", 0),
	}
}

func (b *Bridge) handleConnect(ctx context.Context, args wire.Args) (any, error) {
	p := b.connectParams(args)
	if p.mode == core.ModeSerial && p.device == "" {
		return nil, errMissingDevice
	}
	b.disconnect()

	if p.mode == core.ModeSerial {
		return b.connectSerial(p)
	}
	return b.connectTCP(p)
}

func (b *Bridge) connectSerial(p connectParams) (any, error) {
	last := -1
	for _, baud := range core.BaudCandidates(p.baud) {
		handle, rc := b.attempt(connSerial, p.device, baud)
		if rc == 0 {
			b.install(handle, p, map[string]any{"device": p.device, "baud": baud})
			return map[string]any{"rc": rc, "baud": baud}, nil
		}
		b.logf("serial connect %s at %d baud: rc=%d", p.device, baud, rc)
		last = rc
	}
	return nil, &ConnectFailedError{Code: last}
}

func (b *Bridge) connectTCP(p connectParams) (any, error) {
	handle, rc := b.attempt(connTCP, p.ip, p.port)
	if rc != 0 {
		return nil, &ConnectFailedError{Code: rc}
	}
	b.install(handle, p, map[string]any{"ip": p.ip, "port": p.port})
	return map[string]any{"rc": rc}, nil
}

// attempt builds a fresh handle and connects it. On failure the handle is
// torn down and nil is returned with the status, -1 when the handle could
// not be built or called.
func (b *Bridge) attempt(connType int, addr string, value int) (any, int) {
	b.metrics.ConnectAttempts.Inc(1)
	handle, err := b.vendor.NewReader(connType, b.defaults.Label)
	if err != nil || handle == nil {
		b.logf("build reader: %v", err)
		return nil, -1
	}
	res, err := dynamic.Invoke(handle, "Connect", addr, value)
	rc := -1
	if err == nil {
		rc = dynamic.Int(res)
	} else {
		b.logf("connect %s: %v", addr, err)
	}
	if rc != 0 {
		dynamic.InvokeBestEffort(handle, "DisConnect")
		return nil, rc
	}
	return handle, 0
}

func (b *Bridge) install(handle any, p connectParams, target map[string]any) {
	b.session.handle = handle
	b.session.sessionID = core.NewID()
	b.ensureCallback(handle)
	if p.logSwitch != 0 && b.driverLog != nil {
		if dynamic.Has(handle, "SetLogger", 1) {
			dynamic.InvokeBestEffort(handle, "SetLogger", b.driverLog)
		} else {
			b.logf("reader %T has no SetLogger; logSwitch ignored", handle)
		}
	}
	args := map[string]any{
		"mode":       p.mode,
		"readerType": p.readerType,
		"logSwitch":  p.logSwitch,
	}
	for k, v := range target {
		args[k] = v
	}
	b.session.lastConnectArgs = args
	b.metrics.Connects.Inc(1)
	b.event(wire.EventStatus, map[string]any{"connected": true})
}

// ensureCallback installs a fresh event adapter unless one is in place.
func (b *Bridge) ensureCallback(handle any) {
	if b.session.callbackInstalled {
		return
	}
	cb := newEventBridge(b, b.session.sessionID)
	if _, err := dynamic.Invoke(handle, "SetCallBack", cb); err != nil {
		b.logf("install callback: %v", err)
		return
	}
	b.session.callbackInstalled = true
}

func (b *Bridge) handleDisconnect(ctx context.Context, args wire.Args) (any, error) {
	b.disconnect()
	b.event(wire.EventStatus, map[string]any{"connected": false})
	return map[string]any{"ok": true}, nil
}

// disconnect tears down the current handle, ignoring every failure, and
// resets the session.
func (b *Bridge) disconnect() {
	if b.session.handle != nil {
		b.teardown(b.session.handle)
	}
	b.session.reset()
}

func (b *Bridge) teardown(handle any) {
	dynamic.InvokeBestEffort(handle, "StopRead")
	dynamic.InvokeBestEffort(handle, "DisConnect")
	dynamic.InvokeBestEffort(handle, "Disconnect")
}
