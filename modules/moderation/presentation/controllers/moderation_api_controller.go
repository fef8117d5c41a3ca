package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/archmarket/platform/modules/moderation/domain/aggregates/suggestion"
	"github.com/archmarket/platform/modules/moderation/services"
	"github.com/archmarket/platform/pkg/application"
	"github.com/archmarket/platform/pkg/configuration"
	"github.com/archmarket/platform/pkg/httpapi"
)

type ModerationAPIController struct {
	moderation *services.ModerationService
	timeout    time.Duration
	basePath   string
}

func NewModerationAPIController(app application.Application) application.Controller {
	return &ModerationAPIController{
		moderation: app.Service(services.ModerationService{}).(*services.ModerationService),
		timeout:    configuration.Use().EngineCallTimeout,
		basePath:   "/moderation/api",
	}
}

func (c *ModerationAPIController) Key() string {
	return c.basePath
}

func (c *ModerationAPIController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("/suggestions/pending", c.ListPending).Methods(http.MethodGet)
	router.HandleFunc("/suggestions", c.Submit).Methods(http.MethodPost)
	router.HandleFunc("/suggestions/{kind}/{id:[0-9a-fA-F-]+}:approve", c.Approve).Methods(http.MethodPost)
	router.HandleFunc("/suggestions/{kind}/{id:[0-9a-fA-F-]+}:reject", c.Reject).Methods(http.MethodPost)
}

type resolveRequest struct {
	AdminMessage *string `json:"admin_message"`
}

func (c *ModerationAPIController) ListPending(w http.ResponseWriter, r *http.Request) {
	if _, ok := httpapi.RequireActor(w, r); !ok {
		return
	}
	ctx, cancel := httpapi.EngineContext(r, c.timeout)
	defer cancel()

	pending, err := c.moderation.ListPending(ctx)
	if err != nil {
		httpapi.Fail(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"catalog_types":  toSuggestionResponses(pending.CatalogTypes),
		"catalog_fields": toSuggestionResponses(pending.CatalogFields),
	})
}

func (c *ModerationAPIController) Submit(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpapi.RequireActor(w, r)
	if !ok {
		return
	}
	var dto suggestion.SubmitDTO
	if !httpapi.DecodeJSON(w, r, &dto) {
		return
	}
	ctx, cancel := httpapi.EngineContext(r, c.timeout)
	defer cancel()

	created, err := c.moderation.Submit(ctx, actor.ID, &dto)
	if err != nil {
		httpapi.Fail(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, toSuggestionResponse(created))
}

func (c *ModerationAPIController) Approve(w http.ResponseWriter, r *http.Request) {
	c.resolve(w, r, c.moderation.Approve)
}

func (c *ModerationAPIController) Reject(w http.ResponseWriter, r *http.Request) {
	c.resolve(w, r, c.moderation.Reject)
}

type resolveFunc func(ctx context.Context, moderatorID uuid.UUID, kind suggestion.Kind, id uuid.UUID, adminMessage *string) (suggestion.Suggestion, error)

func (c *ModerationAPIController) resolve(w http.ResponseWriter, r *http.Request, fn resolveFunc) {
	actor, ok := httpapi.RequireActor(w, r)
	if !ok {
		return
	}
	kind, err := suggestion.ParseKind(mux.Vars(r)["kind"])
	if err != nil {
		httpapi.Fail(w, r, err)
		return
	}
	id, ok := httpapi.PathUUID(w, r, "id")
	if !ok {
		return
	}
	var body resolveRequest
	if !httpapi.DecodeJSON(w, r, &body) {
		return
	}
	ctx, cancel := httpapi.EngineContext(r, c.timeout)
	defer cancel()

	resolved, err := fn(ctx, actor.ID, kind, id, body.AdminMessage)
	if err != nil {
		httpapi.Fail(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toSuggestionResponse(resolved))
}
