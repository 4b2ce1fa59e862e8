package bridge

import (
	"context"
	"time"

	"github.com/rfidenter/uhfbridge/pkg/core"
	"github.com/rfidenter/uhfbridge/pkg/journal/sqlite"
	"github.com/rfidenter/uhfbridge/pkg/wire"
)

// Emitter writes unsolicited events. wire.Server satisfies it.
type Emitter interface {
	Emit(eventType string, payload any)
}

// Logger is the minimal logging interface the bridge needs.
type Logger interface {
	Printf(format string, v ...any)
}

// Journal records tag observations. *sqlite.Store satisfies it.
type Journal interface {
	Append(ctx context.Context, e sqlite.Entry) error
	Stats(ctx context.Context) (sqlite.Stats, error)
	SessionCount(ctx context.Context, sessionID string) (int64, error)
}

// Defaults supplies CONNECT argument defaults.
type Defaults struct {
	Label string
	IP    string
	Port  int
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the diagnostics logger.
func WithLogger(l Logger) Option { return func(b *Bridge) { b.logger = l } }

// WithDriverLogger sets where reader debug output goes when CONNECT asks
// for it with logSwitch.
func WithDriverLogger(l Logger) Option { return func(b *Bridge) { b.driverLog = l } }

// WithJournal records TAG events in j.
func WithJournal(j Journal) Option { return func(b *Bridge) { b.journal = j } }

// WithMetrics counts activity in m.
func WithMetrics(m *Metrics) Option { return func(b *Bridge) { b.metrics = m } }

// WithDefaults overrides CONNECT defaults. Zero fields keep built-in values.
func WithDefaults(d Defaults) Option {
	return func(b *Bridge) {
		if d.Label != "" {
			b.defaults.Label = d.Label
		}
		if d.IP != "" {
			b.defaults.IP = d.IP
		}
		if d.Port != 0 {
			b.defaults.Port = d.Port
		}
	}
}

// Bridge translates protocol commands into reader calls.
type Bridge struct {
	vendor    Vendor
	emit      Emitter
	logger    Logger
	driverLog Logger
	journal   Journal
	metrics   *Metrics
	defaults  Defaults
	session   Session
}

// New builds a bridge that emits events through emit.
func New(vendor Vendor, emit Emitter, opts ...Option) *Bridge {
	b := &Bridge{
		vendor:   vendor,
		emit:     emit,
		defaults: Defaults{Label: core.DefaultLabel, IP: core.DefaultIP, Port: core.DefaultPort},
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.metrics == nil {
		b.metrics = NewMetrics(nil)
	}
	return b
}

// Session exposes the current session state.
func (b *Bridge) Session() *Session { return &b.session }

// Metrics returns the bridge counters.
func (b *Bridge) Metrics() *Metrics { return b.metrics }

// Register installs every command on srv.
func (b *Bridge) Register(srv *wire.Server) {
	for name, h := range b.commands() {
		srv.Register(name, b.timed(h))
	}
	srv.Observe(b.metrics.Observe)
}

// Close tears down any open session.
func (b *Bridge) Close() {
	if b.session.handle != nil {
		b.teardown(b.session.handle)
	}
	b.session.reset()
}

func (b *Bridge) timed(h wire.HandlerFunc) wire.HandlerFunc {
	return func(ctx context.Context, args wire.Args) (any, error) {
		defer b.metrics.Latency.UpdateSince(time.Now())
		return h(ctx, args)
	}
}

func (b *Bridge) event(eventType string, payload any) {
	b.metrics.Events.Inc(1)
	if b.emit != nil {
		b.emit.Emit(eventType, payload)
	}
}

func (b *Bridge) logf(format string, v ...any) {
	if b.logger != nil {
		b.logger.Printf(format, v...)
	}
}
