package bridge

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rcrowley/go-metrics"

	"github.com/rfidenter/uhfbridge/pkg/wire"
)

// Metrics counts bridge activity.
type Metrics struct {
	StartTime       time.Time
	PID             int
	Requests        metrics.Counter
	Errors          metrics.Counter
	Events          metrics.Counter
	Tags            metrics.Counter
	Connects        metrics.Counter
	ConnectAttempts metrics.Counter
	Latency         metrics.Timer

	registry metrics.Registry
}

// NewMetrics registers the bridge counters in r, or in a fresh registry
// when r is nil.
func NewMetrics(r metrics.Registry) *Metrics {
	if r == nil {
		r = metrics.NewRegistry()
	}
	return &Metrics{
		StartTime:       time.Now(),
		PID:             os.Getpid(),
		Requests:        metrics.GetOrRegisterCounter("bridge.requests", r),
		Errors:          metrics.GetOrRegisterCounter("bridge.errors", r),
		Events:          metrics.GetOrRegisterCounter("bridge.events", r),
		Tags:            metrics.GetOrRegisterCounter("bridge.tags", r),
		Connects:        metrics.GetOrRegisterCounter("bridge.connects", r),
		ConnectAttempts: metrics.GetOrRegisterCounter("bridge.connectAttempts", r),
		Latency:         metrics.GetOrRegisterTimer("bridge.requestLatency", r),
		registry:        r,
	}
}

// Observe counts a completed request. It has the wire.Observer signature.
func (m *Metrics) Observe(req wire.Request, err error) {
	m.Requests.Inc(1)
	if err != nil {
		m.Errors.Inc(1)
	}
}

// Export returns the STATS payload.
func (m *Metrics) Export() map[string]any {
	return map[string]any{
		"uptime":          time.Since(m.StartTime).Round(time.Second).String(),
		"pid":             m.PID,
		"requests":        m.Requests.Count(),
		"errors":          m.Errors.Count(),
		"events":          m.Events.Count(),
		"tags":            m.Tags.Count(),
		"connects":        m.Connects.Count(),
		"connectAttempts": m.ConnectAttempts.Count(),
		"latencyP95Ms":    m.Latency.Percentile(0.95) / float64(time.Millisecond),
	}
}

// Report writes the registry to w every interval until ctx is done.
func (m *Metrics) Report(ctx context.Context, interval time.Duration, w io.Writer) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.WriteOnce(m.registry, w)
		}
	}
}
