// Package metrics exposes Prometheus metrics for PPP sessions. It
// implements the pppos.Recorder interface so the core package does not
// depend on the metrics stack.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for PPP sessions.
type Metrics struct {
	bytesIn  prometheus.Counter
	bytesOut prometheus.Counter

	linkEvents *prometheus.CounterVec
	connects   prometheus.Counter
	connected  prometheus.Gauge

	closeDuration *prometheus.HistogramVec

	registered bool
}

// New creates a new Metrics instance.
func New() *Metrics {
	return &Metrics{
		bytesIn: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pppos_bytes_in_total",
			Help: "Total bytes read from the stream and fed to the PPP engine",
		}),
		bytesOut: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pppos_bytes_out_total",
			Help: "Total bytes written to the stream by the PPP engine",
		}),
		linkEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pppos_link_events_total",
			Help: "Link-state events reported by the PPP engine, by kind",
		}, []string{"event"}),
		connects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pppos_connects_total",
			Help: "Connect requests accepted by the PPP engine",
		}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pppos_connected",
			Help: "Whether the link currently has a negotiated address (0/1)",
		}),
		closeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pppos_close_duration_seconds",
			Help:    "Time spent waiting for graceful close, by outcome",
			Buckets: []float64{.01, .05, .1, .5, 1, 2, 4, 8},
		}, []string{"clean"}),
	}
}

// Register registers all collectors with the default registry.
func (m *Metrics) Register() error {
	if m.registered {
		return nil
	}

	collectors := []prometheus.Collector{
		m.bytesIn,
		m.bytesOut,
		m.linkEvents,
		m.connects,
		m.connected,
		m.closeDuration,
	}

	for _, c := range collectors {
		if err := prometheus.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}

	m.registered = true
	return nil
}

// Handler returns the Prometheus HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.Handler()
}

// --- pppos.Recorder implementation ---

// BytesIn records bytes consumed from the stream.
func (m *Metrics) BytesIn(n int) {
	m.bytesIn.Add(float64(n))
}

// BytesOut records bytes written to the stream.
func (m *Metrics) BytesOut(n int) {
	m.bytesOut.Add(float64(n))
}

// LinkEvent records a link-state event by kind and tracks the connected
// gauge across the terminal event kinds.
func (m *Metrics) LinkEvent(kind string) {
	m.linkEvents.WithLabelValues(kind).Inc()

	switch kind {
	case "Link-Up":
		m.connected.Set(1)
	case "Link-Lost", "User-Close":
		m.connected.Set(0)
	}
}

// ConnectStarted records an accepted connect request.
func (m *Metrics) ConnectStarted() {
	m.connects.Inc()
}

// CloseFinished records the duration of a graceful-close wait.
func (m *Metrics) CloseFinished(d time.Duration, clean bool) {
	m.closeDuration.WithLabelValues(strconv.FormatBool(clean)).Observe(d.Seconds())
	m.connected.Set(0)
}
