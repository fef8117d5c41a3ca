package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusController_ServesWorkflowMetrics(t *testing.T) {
	Transition("moderation", "approve", "ok")
	FeedSubscribed()
	defer FeedUnsubscribed()

	r := mux.NewRouter()
	c := newPrometheusController("", prometheus.DefaultGatherer)
	c.Register(r)
	assert.Equal(t, DefaultPath, c.Key())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, DefaultPath, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `marketplace_workflow_transitions_total{engine="moderation",operation="approve",result="ok"}`)
	assert.Contains(t, body, "marketplace_feed_subscribers")
}

func TestPrometheusController_RejectsPost(t *testing.T) {
	r := mux.NewRouter()
	newPrometheusController("/metrics", prometheus.NewRegistry()).Register(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/metrics", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
