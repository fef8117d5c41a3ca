package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/archmarket/platform/pkg/composables"
	"github.com/archmarket/platform/pkg/httpapi"
)

const (
	writeWait      = 10 * time.Second
	maxClientFrame = 512
)

type liveMessage struct {
	Type  string        `json:"type"`
	Feed  *feedResponse `json:"feed,omitempty"`
	Error *liveError    `json:"error,omitempty"`
}

type liveError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Live streams the actor's feed over a websocket. Every frame is a full
// snapshot: one on connect and one per change hint.
func (c *NotificationAPIController) Live(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpapi.RequireActor(w, r)
	if !ok {
		return
	}
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	logger := composables.TryUseLogger(r.Context(), c.logger).WithField("actor_id", actor.ID)
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Subscribe before the first snapshot so no change falls between them.
	hints, stop := c.changes.Subscribe(ctx, actor.ID)
	defer stop()

	go c.readPump(conn, cancel)

	if err := c.push(ctx, conn, actor.ID); err != nil {
		logger.WithError(err).Debug("live feed: initial push failed")
		return
	}

	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case _, open := <-hints:
			if !open {
				return
			}
			if err := c.push(ctx, conn, actor.ID); err != nil {
				logger.WithError(err).Debug("live feed: push failed")
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// push re-fetches the feed and writes it. A failed fetch is reported to the
// client as an error frame; only write failures end the session.
func (c *NotificationAPIController) push(ctx context.Context, conn *websocket.Conn, ownerID uuid.UUID) error {
	fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msg := liveMessage{Type: "feed"}
	f, err := c.notifications.Fetch(fetchCtx, ownerID, 0)
	if err != nil {
		composables.TryUseLogger(ctx, c.logger).WithError(err).Warn("live feed: fetch failed")
		code, message := httpapi.Public(err)
		msg = liveMessage{Type: "error", Error: &liveError{Code: code, Message: message}}
	} else {
		resp := toFeedResponse(f)
		msg.Feed = &resp
	}

	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}

// readPump drains client frames so control messages get processed, and
// ends the session when the peer goes away.
func (c *NotificationAPIController) readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(maxClientFrame)
	deadline := func() error { return conn.SetReadDeadline(time.Now().Add(2 * c.pingInterval)) }
	_ = deadline()
	conn.SetPongHandler(func(string) error { return deadline() })
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
