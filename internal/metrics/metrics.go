package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Delivery paths.
const (
	PathDirect   = "direct"
	PathDispatch = "dispatch"
)

// Drop reasons.
const (
	DropDetached    = "detached"
	DropDisabled    = "disabled"
	DropStale       = "stale_progress"
	DropUnchanged   = "scroll_unchanged"
	DropUnknownItem = "unknown_menu_item"
	DropSinkError   = "sink_error"
)

// Metrics holds the bridge's Prometheus collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Deliveries     *prometheus.CounterVec
	Dropped        *prometheus.CounterVec
	SurfacesActive prometheus.Gauge
	HostLinks      prometheus.Gauge

	registry *prometheus.Registry
}

// New creates the collectors and registers them.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		Deliveries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "surfacebridge_deliveries_total",
				Help: "Outbound signals delivered to the host",
			},
			[]string{"kind", "path"},
		),
		Dropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "surfacebridge_dropped_total",
				Help: "Signals dropped before delivery",
			},
			[]string{"reason"},
		),
		SurfacesActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "surfacebridge_surfaces_active",
				Help: "Surfaces currently attached",
			},
		),
		HostLinks: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "surfacebridge_host_links",
				Help: "Connected direct-call host modules",
			},
		),
		registry: reg,
	}
}

func (m *Metrics) Delivered(kind, path string) {
	if m == nil {
		return
	}
	m.Deliveries.WithLabelValues(kind, path).Inc()
}

func (m *Metrics) Drop(reason string) {
	if m == nil {
		return
	}
	m.Dropped.WithLabelValues(reason).Inc()
}

func (m *Metrics) SurfaceAttached() {
	if m == nil {
		return
	}
	m.SurfacesActive.Inc()
}

func (m *Metrics) SurfaceDestroyed() {
	if m == nil {
		return
	}
	m.SurfacesActive.Dec()
}

func (m *Metrics) HostLinkChanged(delta float64) {
	if m == nil {
		return
	}
	m.HostLinks.Add(delta)
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
