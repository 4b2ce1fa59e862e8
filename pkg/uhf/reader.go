package uhf

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var errNotConnected = errors.New("reader not connected")

// Logger receives debug output when enabled with SetLogger.
type Logger interface {
	Printf(format string, v ...any)
}

// Option configures a Reader.
type Option func(*Reader)

// WithOpener replaces the transport opener.
func WithOpener(open Opener) Option {
	return func(r *Reader) { r.open = open }
}

// WithTimeout sets how long a command waits for its reply.
func WithTimeout(d time.Duration) Option {
	return func(r *Reader) { r.timeout = d }
}

// WithRoundInterval sets the pause between inventory rounds.
func WithRoundInterval(d time.Duration) Option {
	return func(r *Reader) { r.roundGap = d }
}

// Reader is one reader connection. Device I/O is serialized internally, so
// commands may be issued while an inventory is running.
type Reader struct {
	connType int
	label    string
	open     Opener
	timeout  time.Duration
	roundGap time.Duration

	ioMu sync.Mutex
	t    Transport
	addr byte
	buf  []byte

	mu     sync.Mutex
	param  ReaderParameter
	cb     TagCallback
	logger Logger
	inv    *inventory
}

// New builds a disconnected reader. connType 0 selects a serial port, any
// other value selects TCP. label is reported as the device name of tags.
func New(connType int, label string, opts ...Option) *Reader {
	r := &Reader{
		connType: connType,
		label:    label,
		open:     OpenTransport,
		timeout:  time.Second,
		roundGap: 20 * time.Millisecond,
		addr:     BroadcastAddress,
		param:    DefaultReaderParameter(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Connect opens the transport and probes the reader with a Get Reader
// Information command. For serial readers value is the baud rate, for TCP
// readers the port. It returns 0 on success.
func (r *Reader) Connect(addr string, value int) int {
	r.DisConnect()
	t, err := r.open(r.connType, addr, value)
	if err != nil {
		r.debugf("open %s: %v", addr, err)
		return StatusPortOpenError
	}
	r.ioMu.Lock()
	r.t, r.buf, r.addr = t, nil, BroadcastAddress
	r.ioMu.Unlock()

	frame, err := r.exec(CmdGetReaderInfo, nil)
	if err != nil {
		r.debugf("probe %s: %v", addr, err)
		r.closeTransport()
		return StatusCommError
	}
	if frame.Status != StatusSuccess {
		r.closeTransport()
		return int(frame.Status)
	}
	r.ioMu.Lock()
	r.addr = frame.Addr
	r.ioMu.Unlock()
	return StatusSuccess
}

// DisConnect stops any inventory and closes the transport.
func (r *Reader) DisConnect() {
	r.StopRead()
	r.closeTransport()
}

// Disconnect is an alias of DisConnect.
func (r *Reader) Disconnect() { r.DisConnect() }

// Connected reports whether a transport is open.
func (r *Reader) Connected() bool {
	r.ioMu.Lock()
	defer r.ioMu.Unlock()
	return r.t != nil
}

func (r *Reader) closeTransport() {
	r.ioMu.Lock()
	defer r.ioMu.Unlock()
	if r.t != nil {
		r.t.Close()
		r.t = nil
	}
	r.buf = nil
}

// SetLogger enables debug output; nil disables it.
func (r *Reader) SetLogger(l Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = l
}

func (r *Reader) debugf(format string, v ...any) {
	r.mu.Lock()
	l := r.logger
	r.mu.Unlock()
	if l != nil {
		l.Printf(r.label+": "+format, v...)
	}
}

// exec sends one command and waits for its reply.
func (r *Reader) exec(cmd byte, data []byte) (Frame, error) {
	var reply Frame
	err := r.transact(cmd, data, r.timeout, func(f Frame) bool {
		reply = f
		return false
	})
	return reply, err
}

// transact sends one command and hands every reply for it to fn until fn
// returns false. wait bounds the gap between replies.
func (r *Reader) transact(cmd byte, data []byte, wait time.Duration, fn func(Frame) bool) error {
	r.ioMu.Lock()
	defer r.ioMu.Unlock()
	if r.t == nil {
		return errNotConnected
	}
	out := EncodeCommand(r.addr, cmd, data)
	r.debugf("-> % X", out)
	if _, err := r.t.Write(out); err != nil {
		return fmt.Errorf("write command 0x%02X: %w", cmd, err)
	}
	for {
		frame, err := r.readReply(time.Now().Add(wait))
		if err != nil {
			return fmt.Errorf("command 0x%02X: %w", cmd, err)
		}
		if frame.Cmd != cmd {
			r.debugf("dropping reply to 0x%02X while waiting for 0x%02X", frame.Cmd, cmd)
			continue
		}
		if !fn(frame) {
			return nil
		}
	}
}

var errTimeout = errors.New("timeout waiting for reply")

func (r *Reader) readReply(deadline time.Time) (Frame, error) {
	chunk := make([]byte, 256)
	for {
		frame, consumed, ok := ParseReply(r.buf)
		r.buf = r.buf[consumed:]
		if ok {
			r.debugf("<- %02X %02X st=%02X % X", frame.Addr, frame.Cmd, frame.Status, frame.Data)
			return frame, nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return Frame{}, errTimeout
		}
		if err := r.t.SetReadTimeout(remaining); err != nil {
			return Frame{}, err
		}
		n, err := r.t.Read(chunk)
		r.buf = append(r.buf, chunk[:n]...)
		if err != nil {
			return Frame{}, err
		}
	}
}

// status runs a command whose reply carries nothing but a status.
func (r *Reader) status(cmd byte, data ...byte) int {
	frame, err := r.exec(cmd, data)
	if err != nil {
		r.debugf("%v", err)
		return StatusCommError
	}
	return int(frame.Status)
}

// query runs a command and copies the reply data into out.
func (r *Reader) query(cmd byte, out []byte, data ...byte) int {
	frame, err := r.exec(cmd, data)
	if err != nil {
		r.debugf("%v", err)
		return StatusCommError
	}
	copy(out, frame.Data)
	return int(frame.Status)
}
