// Package metrics exposes prometheus collectors for the logger.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	ticks            prometheus.Counter
	temperature      prometheus.Gauge
	historyReadings  prometheus.Gauge
	viewers          prometheus.Gauge
	viewerAttach     *prometheus.CounterVec
	deliveryFailures *prometheus.CounterVec
	sinkErrors       *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "templog_ticks_total",
			Help: "Total readings generated by the tick driver.",
		}),
		temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "templog_temperature_celsius",
			Help: "Most recent synthetic temperature.",
		}),
		historyReadings: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "templog_history_readings",
			Help: "Readings currently held in the history buffer.",
		}),
		viewers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "templog_viewers",
			Help: "Currently attached viewers.",
		}),
		viewerAttach: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "templog_viewer_attach_total",
			Help: "Viewer attachments by transport.",
		}, []string{"transport"}),
		deliveryFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "templog_delivery_failures_total",
			Help: "Failed deliveries that detached a viewer, by transport.",
		}, []string{"transport"}),
		sinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "templog_sink_errors_total",
			Help: "Reading mirror failures by sink.",
		}, []string{"sink"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "templog_http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
	}

	m.registry.MustRegister(
		m.ticks,
		m.temperature,
		m.historyReadings,
		m.viewers,
		m.viewerAttach,
		m.deliveryFailures,
		m.sinkErrors,
		m.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry for tests and custom collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveTick records one generated reading and the buffer size after append.
func (m *Metrics) ObserveTick(temperature float64, buffered int) {
	m.ticks.Inc()
	m.temperature.Set(temperature)
	m.historyReadings.Set(float64(buffered))
}

// ViewerAttached counts an attach and updates the live gauge.
func (m *Metrics) ViewerAttached(transport string, active int) {
	m.viewerAttach.WithLabelValues(transport).Inc()
	m.viewers.Set(float64(active))
}

// ViewerDetached updates the live gauge.
func (m *Metrics) ViewerDetached(active int) {
	m.viewers.Set(float64(active))
}

// DeliveryFailed counts a failed delivery.
func (m *Metrics) DeliveryFailed(transport string) {
	m.deliveryFailures.WithLabelValues(transport).Inc()
}

// SinkFailed counts a failed mirror write.
func (m *Metrics) SinkFailed(sink string) {
	m.sinkErrors.WithLabelValues(sink).Inc()
}

// HTTPRequest counts a served request.
func (m *Metrics) HTTPRequest(route string, code int) {
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
