package bridge

import (
	"context"
	"fmt"
	"strings"

	"github.com/rfidenter/uhfbridge/pkg/core"
	"github.com/rfidenter/uhfbridge/pkg/dynamic"
	"github.com/rfidenter/uhfbridge/pkg/wire"
)

// readerFunc runs a command against the connected handle.
type readerFunc func(ctx context.Context, handle any, args wire.Args) (any, error)

func (b *Bridge) commands() map[string]wire.HandlerFunc {
	return map[string]wire.HandlerFunc{
		"STATUS":     b.handleStatus,
		"CONNECT":    b.handleConnect,
		"DISCONNECT": b.handleDisconnect,
		"STATS":      b.handleStats,
		"JOURNAL":    b.handleJournal,

		"SET_INV_PARAM":       b.connected(b.setInventoryParam),
		"START_READ":          b.connected(b.startRead),
		"STOP_READ":           b.connected(b.stopRead),
		"READ":                b.connected(readData),
		"WRITE":               b.connected(writeData),
		"SET_POWER":           b.connected(setPower),
		"SET_REGION":          b.connected(setRegion),
		"SET_BEEP":            b.connected(setBeep),
		"GET_RETRY":           b.connected(getRetry),
		"SET_RETRY":           b.connected(setRetry),
		"SET_DRM":             b.connected(setDRM),
		"SET_CHECK_ANT":       b.connected(setCheckAnt),
		"SET_RELAY":           b.connected(setRelay),
		"GPIO":                b.connected(gpio),
		"MEASURE_RETURN_LOSS": b.connected(measureReturnLoss),
		"GET_INFO":            b.connected(getInfo),
	}
}

// connected rejects the command before any invocation when no reader is held.
func (b *Bridge) connected(fn readerFunc) wire.HandlerFunc {
	return func(ctx context.Context, args wire.Args) (any, error) {
		if b.session.handle == nil {
			return nil, ErrNotConnected
		}
		return fn(ctx, b.session.handle, args)
	}
}

// invokeRC calls name on handle and returns its status code.
func invokeRC(handle any, name string, args ...any) (int, error) {
	res, err := dynamic.Invoke(handle, name, args...)
	if err != nil {
		return 0, err
	}
	return dynamic.Int(res), nil
}

func bit(v int) int {
	if v != 0 {
		return 1
	}
	return 0
}

func (b *Bridge) handleStatus(ctx context.Context, args wire.Args) (any, error) {
	return b.session.status(), nil
}

func (b *Bridge) handleStats(ctx context.Context, args wire.Args) (any, error) {
	return b.metrics.Export(), nil
}

func (b *Bridge) handleJournal(ctx context.Context, args wire.Args) (any, error) {
	if b.journal == nil {
		return map[string]any{"enabled": false, "count": 0, "distinct": 0, "lastEpc": nil}, nil
	}
	st, err := b.journal.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("journal stats: %w", err)
	}
	var last any
	if st.LastEPC != "" {
		last = st.LastEPC
	}
	out := map[string]any{
		"enabled":  true,
		"count":    st.Count,
		"distinct": st.Distinct,
		"lastEpc":  last,
	}
	if id := b.session.sessionID; id != "" {
		n, err := b.journal.SessionCount(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("journal session count: %w", err)
		}
		out["sessionCount"] = n
	}
	return out, nil
}

func (b *Bridge) setInventoryParam(ctx context.Context, handle any, args wire.Args) (any, error) {
	param, err := dynamic.Invoke(handle, "GetInventoryParameter")
	if err != nil || param == nil {
		if param, err = b.vendor.NewReaderParameter(); err != nil {
			return nil, fmt.Errorf("build inventory parameter: %w", err)
		}
	}
	fields := []struct {
		name  string
		value any
	}{
		{"IvtType", args.Int("ivtType", 0)},
		{"Memory", args.Int("memory", 1)},
		{"Password", args.String("invPwd", "00000000")},
		{"QValue", args.Int("qValue", 6)},
		{"Session", args.Int("session", 255)},
		{"ScanTime", args.Int("scanTime", 20)},
		{"Target", args.Int("target", 0)},
		{"ReTryCount", args.Int("retryCount", 0)},
		{"Antenna", args.Int("antennaMask", 1)},
		{"TidPtr", args.Int("tidPtr", 0)},
		{"TidLen", args.Int("tidLen", 0)},
	}
	for _, f := range fields {
		if !dynamic.WriteField(param, f.name, f.value) {
			b.logf("inventory parameter has no field %s", f.name)
		}
	}
	rc, err := invokeRC(handle, "SetInventoryParameter", param)
	if err != nil {
		return nil, err
	}
	if rc != 0 {
		return nil, &StatusError{Op: "SetInventoryParameter", Code: rc}
	}
	return map[string]any{"rc": rc}, nil
}

func (b *Bridge) startRead(ctx context.Context, handle any, args wire.Args) (any, error) {
	b.ensureCallback(handle)
	rc, err := invokeRC(handle, "StartRead")
	if err != nil {
		b.session.inventoryActive = false
		return nil, err
	}
	if rc != 0 {
		b.session.inventoryActive = false
		b.event(wire.EventStatus, map[string]any{"inventoryStarted": false, "rc": rc})
		return nil, &StatusError{Op: "StartRead", Code: rc}
	}
	b.session.inventoryActive = true
	b.event(wire.EventStatus, map[string]any{"inventoryStarted": true, "rc": rc})
	return map[string]any{"rc": rc}, nil
}

func (b *Bridge) stopRead(ctx context.Context, handle any, args wire.Args) (any, error) {
	dynamic.InvokeBestEffort(handle, "StopRead")
	b.session.inventoryActive = false
	b.event(wire.EventStatus, map[string]any{"inventoryStarted": false})
	return map[string]any{"ok": true}, nil
}

func readData(ctx context.Context, handle any, args wire.Args) (any, error) {
	pwd := core.HexToBytes(args.String("password", "00000000"), 4)
	res, err := dynamic.Invoke(handle, "ReadDataByEPC",
		args.String("epc", ""),
		byte(args.Int("mem", 3)),
		byte(args.Int("wordPtr", 0)),
		byte(args.Int("num", 2)),
		pwd)
	if err != nil {
		return nil, err
	}
	var data any
	if s := dynamic.Text(res); s != "" {
		data = s
	}
	return map[string]any{"data": data}, nil
}

func writeData(ctx context.Context, handle any, args wire.Args) (any, error) {
	pwd := core.HexToBytes(args.String("password", "00000000"), 4)
	rc, err := invokeRC(handle, "WriteDataByEPC",
		args.String("epc", ""),
		byte(args.Int("mem", 3)),
		byte(args.Int("wordPtr", 0)),
		pwd,
		args.String("data", ""))
	if err != nil {
		return nil, err
	}
	return map[string]any{"rc": rc}, nil
}

func setPower(ctx context.Context, handle any, args wire.Args) (any, error) {
	power := args.Int("power", 30)
	rc, err := invokeRC(handle, "SetRfPower", power)
	if err != nil {
		return nil, err
	}
	return map[string]any{"rc": rc, "power": power}, nil
}

func setRegion(ctx context.Context, handle any, args wire.Args) (any, error) {
	band, maxfre, minfre := args.Int("band", 0), args.Int("maxfre", 0), args.Int("minfre", 0)
	rc, err := invokeRC(handle, "SetRegion", band, maxfre, minfre)
	if err != nil {
		return nil, err
	}
	return map[string]any{"rc": rc, "band": band, "maxfre": maxfre, "minfre": minfre}, nil
}

func setBeep(ctx context.Context, handle any, args wire.Args) (any, error) {
	enabled := bit(args.Int("enabled", 1))
	rc, err := invokeRC(handle, "SetBeepNotification", enabled)
	if err != nil {
		return nil, err
	}
	return map[string]any{"rc": rc, "enabled": enabled}, nil
}

func getRetry(ctx context.Context, handle any, args wire.Args) (any, error) {
	out := make([]byte, 1)
	rc, err := invokeRC(handle, "GetRetryTimes", out)
	if err != nil {
		return nil, err
	}
	return map[string]any{"rc": rc, "times": int(out[0])}, nil
}

func setRetry(ctx context.Context, handle any, args wire.Args) (any, error) {
	times := args.Int("times", 3)
	rc, err := invokeRC(handle, "SetRetryTimes", byte(times))
	if err != nil {
		return nil, err
	}
	return map[string]any{"rc": rc, "times": times}, nil
}

func setDRM(ctx context.Context, handle any, args wire.Args) (any, error) {
	enabled := bit(args.Int("enabled", 0))
	rc, err := invokeRC(handle, "ConfigDRM", []byte{byte(enabled)})
	if err != nil {
		return nil, err
	}
	return map[string]any{"rc": rc, "enabled": enabled}, nil
}

func setCheckAnt(ctx context.Context, handle any, args wire.Args) (any, error) {
	enabled := bit(args.Int("enabled", 1))
	rc, err := invokeRC(handle, "SetCheckAnt", byte(enabled))
	if err != nil {
		return nil, err
	}
	return map[string]any{"rc": rc, "enabled": enabled}, nil
}

func setRelay(ctx context.Context, handle any, args wire.Args) (any, error) {
	value := args.Int("value", 0)
	rc, err := invokeRC(handle, "SetRelay", byte(value))
	if err != nil {
		return nil, err
	}
	return map[string]any{"rc": rc, "value": value & 0xFF}, nil
}

func gpio(ctx context.Context, handle any, args wire.Args) (any, error) {
	if strings.EqualFold(strings.TrimSpace(args.String("op", "get")), "set") {
		value := args.Int("value", 0)
		rc, err := invokeRC(handle, "SetGPIO", byte(value))
		if err != nil {
			return nil, err
		}
		return map[string]any{"rc": rc, "op": "set", "value": value & 0xFF}, nil
	}
	pins := make([]byte, 8)
	rc, err := invokeRC(handle, "GetGPIOStatus", pins)
	if err != nil {
		return nil, err
	}
	return map[string]any{"rc": rc, "op": "get", "raw": core.BytesToHex(pins)}, nil
}

func measureReturnLoss(ctx context.Context, handle any, args wire.Args) (any, error) {
	freq := args.Int("freqKhz", 902750)
	if freq <= 0 {
		return nil, errBadFrequency
	}
	ant := args.Int("ant", 1)
	out := make([]byte, 1)
	rc, err := invokeRC(handle, "MeasureReturnLoss", core.FrequencyBytes(freq), core.ZeroBasedAntenna(ant), out)
	if err != nil {
		return nil, err
	}
	return map[string]any{"rc": rc, "freqKhz": freq, "ant": ant, "returnLoss": int(out[0])}, nil
}

func getInfo(ctx context.Context, handle any, args wire.Args) (any, error) {
	var (
		version    = make([]byte, 2)
		readerType = make([]byte, 1)
		power      = make([]byte, 1)
		band       = make([]byte, 1)
		maxFre     = make([]byte, 1)
		minFre     = make([]byte, 1)
		beep       = make([]byte, 1)
		ant        = []int{1}
	)
	rc, err := invokeRC(handle, "GetUHFInformation", version, readerType, power, band, maxFre, minFre, beep, ant)
	if err != nil {
		return nil, err
	}
	rt := readerType[0]
	out := map[string]any{
		"rc":            rc,
		"firmware":      core.FirmwareString(rt, version[0], version[1]),
		"versionMajor":  int(version[0]),
		"versionMinor":  int(version[1]),
		"readerType":    int(rt),
		"readerTypeHex": fmt.Sprintf("%02X", rt),
		"powerDbm":      int(power[0]),
		"band":          int(band[0]),
		"minIdx":        int(minFre[0]),
		"maxIdx":        int(maxFre[0]),
		"beep":          int(beep[0]),
		"ant":           ant[0],
		"raw": map[string]any{
			"version":    core.BytesToHex(version),
			"readerType": core.BytesToHex(readerType),
			"power":      core.BytesToHex(power),
			"band":       core.BytesToHex(band),
			"maxFre":     core.BytesToHex(maxFre),
			"minFre":     core.BytesToHex(minFre),
			"beep":       core.BytesToHex(beep),
			"ant":        ant,
		},
	}
	if id, err := dynamic.Invoke(handle, "GetDeviceID"); err == nil && id != nil {
		out["deviceId"] = dynamic.Text(id)
	}
	return out, nil
}
