package controllers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/archmarket/platform/modules/fulfillment/domain/aggregates/order"
	"github.com/archmarket/platform/modules/fulfillment/services"
	"github.com/archmarket/platform/pkg/application"
	"github.com/archmarket/platform/pkg/configuration"
	"github.com/archmarket/platform/pkg/httpapi"
)

type FulfillmentAPIController struct {
	tracker  *services.TrackerService
	timeout  time.Duration
	basePath string
}

func NewFulfillmentAPIController(app application.Application) application.Controller {
	return &FulfillmentAPIController{
		tracker:  app.Service(services.TrackerService{}).(*services.TrackerService),
		timeout:  configuration.Use().EngineCallTimeout,
		basePath: "/fulfillment/api",
	}
}

func (c *FulfillmentAPIController) Key() string {
	return c.basePath
}

func (c *FulfillmentAPIController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("/orders/{id:[0-9a-fA-F-]+}/pipeline", c.Pipeline).Methods(http.MethodGet)
}

type pipelineResponse struct {
	OrderID  string       `json:"order_id"`
	Visible  bool         `json:"visible"`
	Steps    []order.Step `json:"steps"`
	Progress float64      `json:"progress"`
}

func (c *FulfillmentAPIController) Pipeline(w http.ResponseWriter, r *http.Request) {
	if _, ok := httpapi.RequireActor(w, r); !ok {
		return
	}
	id, ok := httpapi.PathUUID(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := httpapi.EngineContext(r, c.timeout)
	defer cancel()

	p, err := c.tracker.Pipeline(ctx, id)
	if err != nil {
		httpapi.Fail(w, r, err)
		return
	}
	steps := p.Steps
	if steps == nil {
		steps = []order.Step{}
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, pipelineResponse{
		OrderID:  id.String(),
		Visible:  p.Visible(),
		Steps:    steps,
		Progress: p.Progress,
	})
}
