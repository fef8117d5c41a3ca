package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/archmarket/platform/modules/access/domain/aggregates/accessrequest"
	"github.com/archmarket/platform/modules/access/services"
	"github.com/archmarket/platform/pkg/application"
	"github.com/archmarket/platform/pkg/configuration"
	"github.com/archmarket/platform/pkg/httpapi"
	"github.com/archmarket/platform/pkg/serrors"
)

const maxStatusProducers = 200

type AccessAPIController struct {
	access   *services.AccessService
	timeout  time.Duration
	basePath string
}

func NewAccessAPIController(app application.Application) application.Controller {
	return &AccessAPIController{
		access:   app.Service(services.AccessService{}).(*services.AccessService),
		timeout:  configuration.Use().EngineCallTimeout,
		basePath: "/access/api",
	}
}

func (c *AccessAPIController) Key() string {
	return c.basePath
}

func (c *AccessAPIController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("/requests", c.Submit).Methods(http.MethodPost)
	router.HandleFunc("/requests/incoming", c.Incoming).Methods(http.MethodGet)
	router.HandleFunc("/requests/{id:[0-9a-fA-F-]+}:resolve", c.Resolve).Methods(http.MethodPost)
	router.HandleFunc("/statuses", c.Statuses).Methods(http.MethodGet)
	router.HandleFunc("/producers/{id:[0-9a-fA-F-]+}/catalog", c.Catalog).Methods(http.MethodGet)
}

func (c *AccessAPIController) Submit(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpapi.RequireActor(w, r)
	if !ok {
		return
	}
	var dto accessrequest.SubmitDTO
	if !httpapi.DecodeJSON(w, r, &dto) {
		return
	}
	ctx, cancel := httpapi.EngineContext(r, c.timeout)
	defer cancel()

	created, err := c.access.Submit(ctx, actor.ID, &dto)
	if err != nil {
		httpapi.Fail(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, toRequestResponse(created))
}

type resolveRequest struct {
	Status string `json:"status"`
}

func (c *AccessAPIController) Resolve(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpapi.RequireActor(w, r)
	if !ok {
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
	status, ok := accessrequest.ParseResolution(body.Status)
	if !ok {
		httpapi.Fail(w, r, serrors.ValidationErrors{"Status": {
			BaseError: *serrors.NewError("VALIDATION_ONEOF", "status must be approved or refused", "AccessRequest.Fields.Status"),
			Field:     "Status",
		}})
		return
	}
	ctx, cancel := httpapi.EngineContext(r, c.timeout)
	defer cancel()

	resolved, err := c.access.Resolve(ctx, actor.ID, id, status)
	if err != nil {
		httpapi.Fail(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toRequestResponse(resolved))
}

func (c *AccessAPIController) Incoming(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpapi.RequireActor(w, r)
	if !ok {
		return
	}
	ctx, cancel := httpapi.EngineContext(r, c.timeout)
	defer cancel()

	items, err := c.access.ListForProducer(ctx, actor.ID)
	if err != nil {
		httpapi.Fail(w, r, err)
		return
	}
	out := make([]incomingResponse, 0, len(items))
	for _, it := range items {
		out = append(out, incomingResponse{
			requestResponse: toRequestResponse(it.Request),
			Requester: requesterResponse{
				ID:          it.Requester.ID,
				DisplayName: it.Requester.DisplayName,
				CompanyName: it.Requester.CompanyName,
				City:        it.Requester.City,
			},
		})
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"items": out})
}

// Statuses accepts repeated or comma separated producer_id parameters.
func (c *AccessAPIController) Statuses(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpapi.RequireActor(w, r)
	if !ok {
		return
	}
	producerIDs, err := parseProducerIDs(r.URL.Query()["producer_id"])
	if err != nil {
		httpapi.Fail(w, r, err)
		return
	}
	ctx, cancel := httpapi.EngineContext(r, c.timeout)
	defer cancel()

	statuses, err := c.access.StatusesFor(ctx, actor.ID, producerIDs)
	if err != nil {
		httpapi.Fail(w, r, err)
		return
	}
	out := make(map[string]string, len(statuses))
	for id, s := range statuses {
		out[id.String()] = string(s)
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"statuses": out})
}

func (c *AccessAPIController) Catalog(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpapi.RequireActor(w, r)
	if !ok {
		return
	}
	producerID, ok := httpapi.PathUUID(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := httpapi.EngineContext(r, c.timeout)
	defer cancel()

	entries, err := c.access.BrowseProducerCatalog(ctx, actor.ID, producerID)
	if err != nil {
		httpapi.Fail(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"items": entries})
}

func parseProducerIDs(raw []string) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{})
	var out []uuid.UUID
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := uuid.Parse(part)
			if err != nil {
				return nil, serrors.ValidationErrors{"ProducerID": {
					BaseError: *serrors.NewError("VALIDATION_UUID", "producer_id must be a uuid", "AccessRequest.Fields.ProducerID"),
					Field:     "ProducerID",
				}}
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	if len(out) > maxStatusProducers {
		return nil, serrors.ValidationErrors{"ProducerID": {
			BaseError: *serrors.NewError("VALIDATION_MAX", "too many producer_id values", "AccessRequest.Fields.ProducerID"),
			Field:     "ProducerID",
		}}
	}
	return out, nil
}
