package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the playback engine.
type Metrics struct {
	registry            *prometheus.Registry
	requestsTotal       prometheus.Counter
	errorsTotal         prometheus.Counter
	framesRenderedTotal prometheus.Counter
	renderErrorsTotal   prometheus.Counter
	seeksTotal          prometheus.Counter
	ticksSkippedTotal   prometheus.Counter
	activeOverlays      prometheus.Gauge
	assetsLoaded        prometheus.Gauge
}

// New creates and registers Prometheus metrics for the engine and its
// control server.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vidra_requests_total",
		Help: "Total number of HTTP requests received by the control server",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vidra_request_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})
	framesRenderedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vidra_frames_rendered_total",
		Help: "Total number of frames successfully rendered",
	})
	renderErrorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vidra_render_errors_total",
		Help: "Total number of frames that failed to render",
	})
	seeksTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vidra_seeks_total",
		Help: "Total number of seek operations",
	})
	ticksSkippedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vidra_ticks_skipped_total",
		Help: "Ticks that arrived before the frame-duration threshold elapsed",
	})
	activeOverlays := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vidra_active_overlays",
		Help: "Number of live web-layer overlay surfaces",
	})
	assetsLoaded := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vidra_assets_loaded",
		Help: "Number of assets in the renderer cache",
	})

	registry.MustRegister(
		requestsTotal,
		errorsTotal,
		framesRenderedTotal,
		renderErrorsTotal,
		seeksTotal,
		ticksSkippedTotal,
		activeOverlays,
		assetsLoaded,
	)

	return &Metrics{
		registry:            registry,
		requestsTotal:       requestsTotal,
		errorsTotal:         errorsTotal,
		framesRenderedTotal: framesRenderedTotal,
		renderErrorsTotal:   renderErrorsTotal,
		seeksTotal:          seeksTotal,
		ticksSkippedTotal:   ticksSkippedTotal,
		activeOverlays:      activeOverlays,
		assetsLoaded:        assetsLoaded,
	}
}

// IncRequests increments the HTTP request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncErrors increments the HTTP error counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// IncFramesRendered increments the rendered-frame counter.
func (m *Metrics) IncFramesRendered() {
	m.framesRenderedTotal.Inc()
}

// IncRenderErrors increments the failed-frame counter.
func (m *Metrics) IncRenderErrors() {
	m.renderErrorsTotal.Inc()
}

// IncSeeks increments the seek counter.
func (m *Metrics) IncSeeks() {
	m.seeksTotal.Inc()
}

// IncTicksSkipped increments the below-threshold tick counter.
func (m *Metrics) IncTicksSkipped() {
	m.ticksSkippedTotal.Inc()
}

// SetActiveOverlays sets the live overlay surface gauge.
func (m *Metrics) SetActiveOverlays(n int) {
	m.activeOverlays.Set(float64(n))
}

// SetAssetsLoaded sets the asset cache gauge.
func (m *Metrics) SetAssetsLoaded(n int) {
	m.assetsLoaded.Set(float64(n))
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values
// (e.g. asset cache size).
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
