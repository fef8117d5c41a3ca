package metrics

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/archmarket/platform/pkg/application"
)

const DefaultPath = "/debug/prometheus"

// PrometheusController exposes workflow, feed and outbox metrics for scraping.
type PrometheusController struct {
	path     string
	gatherer prometheus.Gatherer
}

func NewPrometheusController(path string) application.Controller {
	return newPrometheusController(path, prometheus.DefaultGatherer)
}

func newPrometheusController(path string, gatherer prometheus.Gatherer) *PrometheusController {
	if path == "" {
		path = DefaultPath
	}
	return &PrometheusController{path: path, gatherer: gatherer}
}

func (c *PrometheusController) Key() string {
	return c.path
}

func (c *PrometheusController) Register(r *mux.Router) {
	h := promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{EnableOpenMetrics: true})
	r.Handle(c.path, h).Methods(http.MethodGet)
}
