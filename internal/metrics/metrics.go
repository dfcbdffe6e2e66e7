package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the relay server's collectors on a private registry
type Metrics struct {
	registry       *prometheus.Registry
	HTTPRequests   *prometheus.CounterVec
	CatalogLookups *prometheus.CounterVec
	ImageUploads   *prometheus.CounterVec
}

// New registers the collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "imageupdater_http_requests_total",
			Help: "HTTP requests handled, by route and status.",
		}, []string{"method", "route", "status"}),
		CatalogLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "imageupdater_catalog_lookups_total",
			Help: "SKU library lookups, by outcome (found, not_found, error).",
		}, []string{"outcome"}),
		ImageUploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "imageupdater_image_uploads_total",
			Help: "Image saves, by image side and outcome.",
		}, []string{"image", "outcome"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.CatalogLookups,
		m.ImageUploads,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
