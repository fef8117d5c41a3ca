package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/archmarket/platform/modules/notifications/infrastructure/feed"
	"github.com/archmarket/platform/modules/notifications/services"
	"github.com/archmarket/platform/pkg/application"
	"github.com/archmarket/platform/pkg/configuration"
	"github.com/archmarket/platform/pkg/httpapi"
)

type NotificationAPIController struct {
	notifications *services.NotificationService
	changes       feed.ChangeFeed
	upgrader      websocket.Upgrader
	timeout       time.Duration
	pingInterval  time.Duration
	logger        *logrus.Logger
	basePath      string
}

func NewNotificationAPIController(app application.Application) application.Controller {
	return &NotificationAPIController{
		notifications: app.Service(services.NotificationService{}).(*services.NotificationService),
		changes:       app.Service(feed.Broker{}).(*feed.Broker),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Origin checks belong to the session layer in front of us.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		timeout:      configuration.Use().EngineCallTimeout,
		pingInterval: 30 * time.Second,
		logger:       app.Logger(),
		basePath:     "/notifications",
	}
}

func (c *NotificationAPIController) Key() string {
	return c.basePath
}

func (c *NotificationAPIController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("/api/feed", c.Feed).Methods(http.MethodGet)
	router.HandleFunc("/api/{id:[0-9a-fA-F-]+}:read", c.MarkRead).Methods(http.MethodPost)
	router.HandleFunc("/api/read-all", c.MarkAllRead).Methods(http.MethodPost)
	router.HandleFunc("/ws", c.Live).Methods(http.MethodGet)
}

func (c *NotificationAPIController) Feed(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpapi.RequireActor(w, r)
	if !ok {
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a non-negative integer", nil)
			return
		}
		limit = n
	}
	ctx, cancel := httpapi.EngineContext(r, c.timeout)
	defer cancel()

	f, err := c.notifications.Fetch(ctx, actor.ID, limit)
	if err != nil {
		httpapi.Fail(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toFeedResponse(f))
}

func (c *NotificationAPIController) MarkRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpapi.RequireActor(w, r)
	if !ok {
		return
	}
	id, ok := httpapi.PathUUID(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := httpapi.EngineContext(r, c.timeout)
	defer cancel()

	if err := c.notifications.MarkRead(ctx, actor.ID, id); err != nil {
		httpapi.Fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *NotificationAPIController) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpapi.RequireActor(w, r)
	if !ok {
		return
	}
	ctx, cancel := httpapi.EngineContext(r, c.timeout)
	defer cancel()

	affected, err := c.notifications.MarkAllRead(ctx, actor.ID)
	if err != nil {
		httpapi.Fail(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]int64{"affected": affected})
}
