package bridge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/rfidenter/uhfbridge/pkg/config"
	"github.com/rfidenter/uhfbridge/pkg/journal/sqlite"
	"github.com/rfidenter/uhfbridge/pkg/uhf"
	"github.com/rfidenter/uhfbridge/pkg/wire"
)

// stubReader exposes the reader method surface and records every call.
type stubReader struct {
	mu         sync.Mutex
	connType   int
	acceptBaud int
	connectRC  int
	startRC    int
	calls      []string
	connected  []int
	param      *uhf.ReaderParameter
	noParam    bool
	cb         uhf.TagCallback
	info       []byte
	args       map[string][]any
}

func (r *stubReader) record(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

// recordArgs keeps the arguments of the latest call to name.
func (r *stubReader) recordArgs(name string, args ...any) {
	r.record(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.args == nil {
		r.args = make(map[string][]any)
	}
	r.args[name] = args
}

func (r *stubReader) Connect(addr string, value int) int {
	r.record("Connect")
	r.connected = append(r.connected, value)
	if r.acceptBaud != 0 {
		if value == r.acceptBaud {
			return 0
		}
		return 0x30
	}
	return r.connectRC
}

func (r *stubReader) DisConnect() { r.record("DisConnect") }
func (r *stubReader) Disconnect() { r.record("Disconnect") }
func (r *stubReader) StopRead() { r.record("StopRead") }

func (r *stubReader) SetCallBack(cb uhf.TagCallback) {
	r.record("SetCallBack")
	r.cb = cb
}

func (r *stubReader) StartRead() int {
	r.record("StartRead")
	return r.startRC
}

func (r *stubReader) GetInventoryParameter() *uhf.ReaderParameter {
	if r.noParam {
		return nil
	}
	if r.param == nil {
		p := uhf.DefaultReaderParameter()
		r.param = &p
	}
	return r.param
}

func (r *stubReader) SetInventoryParameter(p *uhf.ReaderParameter) int {
	r.param = p
	return 0
}

func (r *stubReader) GetUHFInformation(version, readerType, power, band, maxFre, minFre, beep []byte, ant []int) int {
	copy(version, r.info[0:2])
	readerType[0], power[0], band[0] = r.info[2], r.info[3], r.info[4]
	maxFre[0], minFre[0], beep[0] = r.info[5], r.info[6], r.info[7]
	ant[0] = 4
	return 0
}

func (r *stubReader) GetDeviceID() string { return "00A1B2C3" }

func (r *stubReader) ReadDataByEPC(epc string, mem, wordPtr, num byte, pwd []byte) string {
	r.record("ReadDataByEPC")
	if epc == "" {
		return ""
	}
	return "1234"
}

func (r *stubReader) MeasureReturnLoss(freq []byte, ant byte, out []byte) int {
	out[0] = 20 + ant
	if !bytes.Equal(freq, []byte{0x00, 0x0D, 0xC6, 0x5E}) {
		return 0xFF
	}
	return 0
}

func (r *stubReader) SetRelay(value byte) int { return int(value) & 1 }

func (r *stubReader) WriteDataByEPC(epc string, mem, wordPtr byte, pwd []byte, data string) int {
	r.recordArgs("WriteDataByEPC", epc, mem, wordPtr, pwd, data)
	return 0
}

func (r *stubReader) SetRegion(band, maxFre, minFre int) int {
	r.recordArgs("SetRegion", band, maxFre, minFre)
	return 0
}

func (r *stubReader) SetBeepNotification(enabled int) int {
	r.recordArgs("SetBeepNotification", enabled)
	return 0
}

func (r *stubReader) GetRetryTimes(out []byte) int {
	r.recordArgs("GetRetryTimes", len(out))
	out[0] = 3
	return 0
}

func (r *stubReader) SetRetryTimes(times byte) int {
	r.recordArgs("SetRetryTimes", times)
	return 0
}

func (r *stubReader) ConfigDRM(in []byte) int {
	r.recordArgs("ConfigDRM", in)
	return 0
}

func (r *stubReader) SetCheckAnt(enabled byte) int {
	r.recordArgs("SetCheckAnt", enabled)
	return 0
}

func (r *stubReader) SetGPIO(value byte) int {
	r.recordArgs("SetGPIO", value)
	return 0
}

func (r *stubReader) GetGPIOStatus(out []byte) int {
	out[0] = 0x0F
	return 0
}

type stubVendor struct {
	configure func(*stubReader)
	readers   []*stubReader
	labels    []string
	fail      bool
}

func (v *stubVendor) NewReader(connType int, label string) (any, error) {
	if v.fail {
		return nil, errors.New("no library")
	}
	v.labels = append(v.labels, label)
	r := &stubReader{connType: connType}
	if v.configure != nil {
		v.configure(r)
	}
	v.readers = append(v.readers, r)
	return r, nil
}

func (v *stubVendor) NewReaderParameter() (any, error) {
	p := uhf.DefaultReaderParameter()
	return &p, nil
}

type harness struct {
	t      *testing.T
	out    *bytes.Buffer
	srv    *wire.Server
	bridge *Bridge
	vendor *stubVendor
}

func newHarness(t *testing.T, vendor *stubVendor, opts ...Option) *harness {
	t.Helper()
	out := &bytes.Buffer{}
	srv := wire.NewServer(wire.NewWriter(out), nil)
	b := New(vendor, srv, opts...)
	b.Register(srv)
	return &harness{t: t, out: out, srv: srv, bridge: b, vendor: vendor}
}

// do sends one request line and returns the lines written in response.
func (h *harness) do(line string) []string {
	h.t.Helper()
	h.out.Reset()
	h.srv.HandleLine(context.Background(), line)
	return strings.Split(strings.TrimRight(h.out.String(), "\n"), "\n")
}

func last(lines []string) string { return lines[len(lines)-1] }

func TestSerialNegotiationFallback(t *testing.T) {
	vendor := &stubVendor{configure: func(r *stubReader) { r.acceptBaud = 9600 }}
	h := newHarness(t, vendor)
	lines := h.do("REQ\t1\tCONNECT\t{\"mode\":\"USB\",\"device\":\"/dev/ttyUSB0\"}")

	want := []string{
		"EVT\tSTATUS\t{\"connected\":true}",
		"RES\t1\tOK\t{\"baud\":9600,\"rc\":0}",
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
	var tried []int
	for i, r := range vendor.readers {
		if r.connType != connSerial {
			t.Fatalf("reader %d built with connType %d", i, r.connType)
		}
		tried = append(tried, r.connected...)
		if i < len(vendor.readers)-1 && !contains(r.calls, "DisConnect") {
			t.Fatalf("failed attempt %d not torn down: %v", i, r.calls)
		}
	}
	if diff := cmp.Diff([]int{57600, 115200, 38400, 19200, 9600}, tried); diff != "" {
		t.Fatalf("baud order mismatch (-want +got):\n%s", diff)
	}
	if got := h.bridge.Metrics().ConnectAttempts.Count(); got != 5 {
		t.Fatalf("connect attempts = %d", got)
	}
}

func TestSerialExplicitBaudNotDuplicated(t *testing.T) {
	vendor := &stubVendor{configure: func(r *stubReader) { r.acceptBaud = 1 }}
	h := newHarness(t, vendor)
	got := last(h.do("REQ\t2\tCONNECT\t{\"mode\":\"serial\",\"device\":\"COM3\",\"baud\":38400}"))
	if got != "RES\t2\tERR\tConnect failed: 48" {
		t.Fatalf("response = %q", got)
	}
	var tried []int
	for _, r := range vendor.readers {
		tried = append(tried, r.connected...)
	}
	if diff := cmp.Diff([]int{38400, 57600, 115200, 19200, 9600, 230400}, tried); diff != "" {
		t.Fatalf("baud order mismatch (-want +got):\n%s", diff)
	}
	if h.bridge.Session().Connected() {
		t.Fatal("failed connect left a handle installed")
	}
}

func TestSerialRequiresDevice(t *testing.T) {
	vendor := &stubVendor{}
	h := newHarness(t, vendor)
	got := last(h.do("REQ\t3\tCONNECT\t{\"mode\":\"rs232\"}"))
	if !strings.HasPrefix(got, "RES\t3\tERR\tserial mode requires a device") {
		t.Fatalf("response = %q", got)
	}
	if len(vendor.readers) != 0 {
		t.Fatal("reader built without a device")
	}
}

func TestConnectFactoryFailure(t *testing.T) {
	h := newHarness(t, &stubVendor{fail: true})
	if got := last(h.do("REQ\t4\tCONNECT\t{}")); got != "RES\t4\tERR\tConnect failed: -1" {
		t.Fatalf("response = %q", got)
	}
}

func TestTCPConnectAndStatus(t *testing.T) {
	vendor := &stubVendor{}
	h := newHarness(t, vendor, WithDefaults(Defaults{IP: "10.1.1.9"}))
	if got := last(h.do("REQ\t1\tCONNECT\t{\"logSwitch\":0}")); got != "RES\t1\tOK\t{\"rc\":0}" {
		t.Fatalf("connect response = %q", got)
	}
	r := vendor.readers[0]
	if r.connType != connTCP || r.connected[0] != 27011 || !contains(r.calls, "SetCallBack") {
		t.Fatalf("reader = %+v", r)
	}
	id := h.bridge.Session().ID()
	if id == "" {
		t.Fatal("no session id minted")
	}
	want := "RES\t2\tOK\t{\"connected\":true,\"inventoryStarted\":false,\"lastConnectArgs\":{\"ip\":\"10.1.1.9\",\"logSwitch\":0,\"mode\":\"tcp\",\"port\":27011,\"readerType\":16},\"sessionId\":\"" + id + "\"}"
	if got := last(h.do("REQ\t2\tSTATUS")); got != want {
		t.Fatalf("status = %q\nwant     %q", got, want)
	}
}

func TestTCPConnectFailureTearsDown(t *testing.T) {
	vendor := &stubVendor{configure: func(r *stubReader) { r.connectRC = 0x30 }}
	h := newHarness(t, vendor)
	if got := last(h.do("REQ\t1\tCONNECT\t{\"mode\":\"tcp\"}")); got != "RES\t1\tERR\tConnect failed: 48" {
		t.Fatalf("response = %q", got)
	}
	if !contains(vendor.readers[0].calls, "DisConnect") {
		t.Fatalf("calls = %v", vendor.readers[0].calls)
	}
}

func TestDisconnectResetsInventory(t *testing.T) {
	vendor := &stubVendor{}
	h := newHarness(t, vendor)
	h.do("REQ\t1\tCONNECT\t{}")
	lines := h.do("REQ\t2\tSTART_READ")
	if diff := cmp.Diff([]string{"EVT\tSTATUS\t{\"inventoryStarted\":true,\"rc\":0}", "RES\t2\tOK\t{\"rc\":0}"}, lines); diff != "" {
		t.Fatalf("start read mismatch (-want +got):\n%s", diff)
	}
	lines = h.do("REQ\t3\tDISCONNECT")
	if diff := cmp.Diff([]string{"EVT\tSTATUS\t{\"connected\":false}", "RES\t3\tOK\t{\"ok\":true}"}, lines); diff != "" {
		t.Fatalf("disconnect mismatch (-want +got):\n%s", diff)
	}
	want := "RES\t4\tOK\t{\"connected\":false,\"inventoryStarted\":false,\"lastConnectArgs\":null,\"sessionId\":null}"
	if got := last(h.do("REQ\t4\tSTATUS")); got != want {
		t.Fatalf("status = %q", got)
	}
	calls := vendor.readers[0].calls
	if !contains(calls, "StopRead") || !contains(calls, "DisConnect") || !contains(calls, "Disconnect") {
		t.Fatalf("teardown calls = %v", calls)
	}
}

func TestStartReadFailure(t *testing.T) {
	vendor := &stubVendor{configure: func(r *stubReader) { r.startRC = 0xF8 }}
	h := newHarness(t, vendor)
	h.do("REQ\t1\tCONNECT\t{}")
	lines := h.do("REQ\t2\tSTART_READ")
	want := []string{
		"EVT\tSTATUS\t{\"inventoryStarted\":false,\"rc\":248}",
		"RES\t2\tERR\tStartRead failed: 248",
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
	if h.bridge.Session().InventoryActive() {
		t.Fatal("inventory marked active after failure")
	}
}

func TestNotConnected(t *testing.T) {
	h := newHarness(t, &stubVendor{})
	for _, cmd := range []string{"START_READ", "READ", "GET_INFO", "SET_INV_PARAM", "GPIO"} {
		if got := last(h.do("REQ\t9\t" + cmd)); got != "RES\t9\tERR\tNot connected" {
			t.Errorf("%s: %q", cmd, got)
		}
	}
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness(t, &stubVendor{})
	if got := last(h.do("REQ\t5\tFROB")); got != "RES\t5\tERR\tUnknown cmd: FROB" {
		t.Fatalf("response = %q", got)
	}
}

func TestConnectUsesConfiguredLabel(t *testing.T) {
	cfg := config.Default()
	vendor := &stubVendor{}
	h := newHarness(t, vendor, WithDefaults(Defaults{Label: cfg.Reader.Label}))
	h.do("REQ\t1\tCONNECT\t{}")
	plain := &stubVendor{}
	newHarness(t, plain).do("REQ\t1\tCONNECT\t{}")
	if diff := cmp.Diff(plain.labels, vendor.labels); diff != "" {
		t.Fatalf("config and bridge label defaults differ (-bridge +config):\n%s", diff)
	}
}

type captureLogger struct {
	lines []string
}

func (l *captureLogger) Printf(format string, v ...any) {
	l.lines = append(l.lines, fmt.Sprintf(format, v...))
}

func TestLogSwitchWithoutSetLogger(t *testing.T) {
	diag, driver := &captureLogger{}, &captureLogger{}
	h := newHarness(t, &stubVendor{}, WithLogger(diag), WithDriverLogger(driver))
	if got := last(h.do("REQ\t1\tCONNECT\t{\"logSwitch\":1}")); got != "RES\t1\tOK\t{\"rc\":0}" {
		t.Fatalf("response = %q", got)
	}
	if len(diag.lines) != 1 || !strings.Contains(diag.lines[0], "logSwitch ignored") {
		t.Fatalf("diagnostics = %q", diag.lines)
	}
	if len(driver.lines) != 0 {
		t.Fatalf("driver log = %q", driver.lines)
	}
}

func TestMissingOperation(t *testing.T) {
	h := newHarness(t, &stubVendor{})
	h.do("REQ\t1\tCONNECT\t{}")
	got := last(h.do("REQ\t2\tSET_POWER\t{\"power\":20}"))
	if !strings.HasPrefix(got, "RES\t2\tERR\t") || !strings.Contains(got, "SetRfPower") {
		t.Fatalf("response = %q", got)
	}
}

func TestSetInventoryParamAppliesDefaults(t *testing.T) {
	vendor := &stubVendor{}
	h := newHarness(t, vendor)
	h.do("REQ\t1\tCONNECT\t{}")
	if got := last(h.do("REQ\t2\tSET_INV_PARAM\t{\"ivtType\":1,\"invPwd\":\"12345678\",\"antennaMask\":5,\"tidLen\":6}")); got != "RES\t2\tOK\t{\"rc\":0}" {
		t.Fatalf("response = %q", got)
	}
	want := uhf.ReaderParameter{
		IvtType:    1,
		Memory:     1,
		Password:   "12345678",
		QValue:     6,
		Session:    255,
		ScanTime:   20,
		Target:     0,
		ReTryCount: 0,
		Antenna:    5,
		TidPtr:     0,
		TidLen:     6,
	}
	if diff := cmp.Diff(want, *vendor.readers[0].param); diff != "" {
		t.Fatalf("parameter mismatch (-want +got):\n%s", diff)
	}
}

func TestSetInventoryParamFallsBackToVendorDefault(t *testing.T) {
	vendor := &stubVendor{configure: func(r *stubReader) { r.noParam = true }}
	h := newHarness(t, vendor)
	h.do("REQ\t1\tCONNECT\t{}")
	h.do("REQ\t2\tSET_INV_PARAM\t{\"qValue\":4}")
	if p := vendor.readers[0].param; p == nil || p.QValue != 4 || p.ScanTime != 20 {
		t.Fatalf("param = %+v", p)
	}
}

func TestGetInfo(t *testing.T) {
	vendor := &stubVendor{configure: func(r *stubReader) {
		r.info = []byte{1, 2, 0x76, 30, 2, 0x31, 0x00, 1}
	}}
	h := newHarness(t, vendor)
	h.do("REQ\t1\tCONNECT\t{}")
	want := "RES\t2\tOK\t{\"ant\":4,\"band\":2,\"beep\":1,\"deviceId\":\"00A1B2C3\",\"firmware\":\"UHF7189M--01.02\",\"maxIdx\":49,\"minIdx\":0,\"powerDbm\":30," +
		"\"raw\":{\"ant\":[4],\"band\":\"02\",\"beep\":\"01\",\"maxFre\":\"31\",\"minFre\":\"00\",\"power\":\"1E\",\"readerType\":\"76\",\"version\":\"0102\"}," +
		"\"rc\":0,\"readerType\":118,\"readerTypeHex\":\"76\",\"versionMajor\":1,\"versionMinor\":2}"
	if got := last(h.do("REQ\t2\tGET_INFO")); got != want {
		t.Fatalf("info = %q\nwant   %q", got, want)
	}
}

func TestReaderCommands(t *testing.T) {
	h := newHarness(t, &stubVendor{})
	h.do("REQ\t1\tCONNECT\t{}")
	cases := []struct {
		line, want string
	}{
		{"REQ\t2\tREAD\t{\"epc\":\"E200\"}", "RES\t2\tOK\t{\"data\":\"1234\"}"},
		{"REQ\t3\tREAD\t{}", "RES\t3\tOK\t{\"data\":null}"},
		{"REQ\t4\tMEASURE_RETURN_LOSS\t{\"ant\":2}", "RES\t4\tOK\t{\"ant\":2,\"freqKhz\":902750,\"rc\":0,\"returnLoss\":21}"},
		{"REQ\t5\tMEASURE_RETURN_LOSS\t{\"freqKhz\":0}", "RES\t5\tERR\tfreqKhz must be positive (e.g. 902750)"},
		{"REQ\t6\tSET_RELAY\t{\"value\":257}", "RES\t6\tOK\t{\"rc\":1,\"value\":1}"},
		{"REQ\t7\tGPIO", "RES\t7\tOK\t{\"op\":\"get\",\"raw\":\"0F00000000000000\",\"rc\":0}"},
		{"REQ\t8\tSTOP_READ", "RES\t8\tOK\t{\"ok\":true}"},
		{"REQ\t9\tWRITE\t{\"epc\":\"E200\",\"wordPtr\":2,\"data\":\"ABCD\"}", "RES\t9\tOK\t{\"rc\":0}"},
		{"REQ\t10\tSET_REGION\t{\"band\":2,\"maxfre\":49,\"minfre\":0}", "RES\t10\tOK\t{\"band\":2,\"maxfre\":49,\"minfre\":0,\"rc\":0}"},
		{"REQ\t11\tSET_BEEP\t{\"enabled\":5}", "RES\t11\tOK\t{\"enabled\":1,\"rc\":0}"},
		{"REQ\t12\tGET_RETRY", "RES\t12\tOK\t{\"rc\":0,\"times\":3}"},
		{"REQ\t13\tSET_RETRY\t{\"times\":5}", "RES\t13\tOK\t{\"rc\":0,\"times\":5}"},
		{"REQ\t14\tSET_DRM\t{\"enabled\":1}", "RES\t14\tOK\t{\"enabled\":1,\"rc\":0}"},
		{"REQ\t15\tSET_CHECK_ANT\t{\"enabled\":0}", "RES\t15\tOK\t{\"enabled\":0,\"rc\":0}"},
		{"REQ\t16\tGPIO\t{\"op\":\"SET\",\"value\":3}", "RES\t16\tOK\t{\"op\":\"set\",\"rc\":0,\"value\":3}"},
	}
	for _, tc := range cases {
		if got := last(h.do(tc.line)); got != tc.want {
			t.Errorf("%q:\n got  %q\n want %q", tc.line, got, tc.want)
		}
	}

	want := map[string][]any{
		"WriteDataByEPC":      {"E200", byte(3), byte(2), []byte{0, 0, 0, 0}, "ABCD"},
		"SetRegion":           {2, 49, 0},
		"SetBeepNotification": {1},
		"GetRetryTimes":       {1},
		"SetRetryTimes":       {byte(5)},
		"ConfigDRM":           {[]byte{1}},
		"SetCheckAnt":         {byte(0)},
		"SetGPIO":             {byte(3)},
	}
	if diff := cmp.Diff(want, h.vendor.readers[0].args); diff != "" {
		t.Fatalf("reader arguments mismatch (-want +got):\n%s", diff)
	}
}

func TestTagEvents(t *testing.T) {
	vendor := &stubVendor{}
	journal := &memJournal{}
	h := newHarness(t, vendor, WithJournal(journal))
	h.do("REQ\t1\tCONNECT\t{}")
	cb := vendor.readers[0].cb
	if cb == nil {
		t.Fatal("no callback installed")
	}

	h.out.Reset()
	cb.TagCallback(&uhf.ReadTag{EpcID: "E2000001", RSSI: 60, AntID: 1, FreqKhz: 902750, DevName: "ST-8504"})
	cb.ReadOver()
	cb.TagCallbackFailed(0xF8)
	cb.TagCallback(nil)
	lines := strings.Split(strings.TrimRight(h.out.String(), "\n"), "\n")
	want := []string{
		"EVT\tTAG\t{\"antId\":1,\"devName\":\"ST-8504\",\"epcId\":\"E2000001\",\"freqKhz\":902750,\"memId\":\"\",\"phaseBegin\":0,\"phaseEnd\":0,\"rssi\":60}",
		"EVT\tREAD_OVER\t{\"ok\":true}",
		"EVT\tTAG_FAIL\t{\"rc\":248}",
		"EVT\tLOG\t{\"level\":\"warn\",\"message\":\"Tag parse error: empty tag\"}",
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
	if len(journal.entries) != 1 || journal.entries[0].EPC != "E2000001" || journal.entries[0].SessionID != h.bridge.Session().ID() {
		t.Fatalf("journal = %+v", journal.entries)
	}
	if h.bridge.Metrics().Tags.Count() != 1 {
		t.Fatalf("tag count = %d", h.bridge.Metrics().Tags.Count())
	}
}

func TestEventsDoNotInterleaveWithResponses(t *testing.T) {
	vendor := &stubVendor{}
	h := newHarness(t, vendor)
	h.do("REQ\t1\tCONNECT\t{}")
	cb := vendor.readers[0].cb
	h.out.Reset()

	const n = 200
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			cb.TagCallback(&uhf.ReadTag{EpcID: strings.Repeat("E2", 64), AntID: 1})
		}
	}()
	for i := 0; i < n; i++ {
		h.srv.HandleLine(context.Background(), "REQ\t7\tSTATUS")
	}
	wg.Wait()

	lines := strings.Split(strings.TrimRight(h.out.String(), "\n"), "\n")
	if len(lines) != 2*n {
		t.Fatalf("got %d lines, want %d", len(lines), 2*n)
	}
	for _, line := range lines {
		ok := strings.HasPrefix(line, "EVT\tTAG\t{") || strings.HasPrefix(line, "RES\t7\tOK\t{")
		if !ok || !strings.HasSuffix(line, "}") || strings.Count(line, "\t") != 2 && strings.Count(line, "\t") != 3 {
			t.Fatalf("corrupted line %q", line)
		}
	}
}

type brokenTag struct{}

func (brokenTag) GetEpcID() string { panic("truncated frame") }

func TestReadTagFailure(t *testing.T) {
	if _, err := readTag(brokenTag{}); err == nil {
		t.Fatal("expected error from panicking accessor")
	}
	payload, err := readTag(map[string]any{"epcId": "E2", "rssi": "61"})
	if err != nil {
		t.Fatal(err)
	}
	if payload["epcId"] != "E2" || payload["rssi"] != 61 || payload["antId"] != 0 {
		t.Fatalf("payload = %v", payload)
	}
}

func TestJournalAndStats(t *testing.T) {
	h := newHarness(t, &stubVendor{})
	if got := last(h.do("REQ\t1\tJOURNAL")); got != "RES\t1\tOK\t{\"count\":0,\"distinct\":0,\"enabled\":false,\"lastEpc\":null}" {
		t.Fatalf("journal = %q", got)
	}
	h.do("REQ\t2\tFROB")
	got := last(h.do("REQ\t3\tSTATS"))
	for _, part := range []string{"\"requests\":2", "\"errors\":1", "\"connects\":0"} {
		if !strings.Contains(got, part) {
			t.Errorf("stats %q missing %s", got, part)
		}
	}

	journal := &memJournal{}
	h = newHarness(t, &stubVendor{}, WithJournal(journal))
	journal.entries = []sqlite.Entry{{EPC: "E1"}, {EPC: "E2"}, {EPC: "E1"}}
	if got := last(h.do("REQ\t4\tJOURNAL")); got != "RES\t4\tOK\t{\"count\":3,\"distinct\":2,\"enabled\":true,\"lastEpc\":\"E1\"}" {
		t.Fatalf("journal = %q", got)
	}
}

type memJournal struct {
	mu      sync.Mutex
	entries []sqlite.Entry
}

func (j *memJournal) Append(ctx context.Context, e sqlite.Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, e)
	return nil
}

func (j *memJournal) Stats(ctx context.Context) (sqlite.Stats, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	seen := map[string]bool{}
	var st sqlite.Stats
	for _, e := range j.entries {
		st.Count++
		if !seen[e.EPC] {
			seen[e.EPC] = true
			st.Distinct++
		}
		st.LastEPC = e.EPC
	}
	return st, nil
}

func (j *memJournal) SessionCount(ctx context.Context, sessionID string) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var n int64
	for _, e := range j.entries {
		if e.SessionID == sessionID {
			n++
		}
	}
	return n, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
