package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/archmarket/platform/pkg/composables"
	"github.com/archmarket/platform/pkg/serrors"
)

// RequireActor returns the actor put on the request by the session layer or
// writes 401.
func RequireActor(w http.ResponseWriter, r *http.Request) (composables.Actor, bool) {
	actor, err := composables.UseActor(r.Context())
	if err != nil {
		_ = WriteError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "actor identity required", requestMeta(r))
		return composables.Actor{}, false
	}
	return actor, true
}

// PathUUID parses a mux path variable or writes 400.
func PathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		_ = WriteError(w, http.StatusBadRequest, "INVALID_ID", name+" must be a uuid", requestMeta(r))
		return uuid.Nil, false
	}
	return id, true
}

// DecodeJSON reads the body into dst. An empty body leaves dst untouched.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		_ = WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid json", requestMeta(r))
		return false
	}
	return true
}

// EngineContext bounds an engine call. Expiry surfaces from the engines as
// serrors.ErrTransientStore.
func EngineContext(r *http.Request, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), timeout)
}

// Fail renders an engine error with the request id attached.
func Fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, serrors.ErrTransientStore) {
		err = serrors.Store(err)
	}
	log := composables.TryUseLogger(r.Context(), logrus.StandardLogger()).WithError(err)
	if StatusFor(err) >= http.StatusInternalServerError {
		log.Error("request failed")
	} else {
		log.Debug("request rejected")
	}
	_ = WriteServiceError(w, composables.UseRequestID(r.Context()), err)
}

func requestMeta(r *http.Request) map[string]string {
	if id := composables.UseRequestID(r.Context()); id != "" {
		return map[string]string{"request_id": id}
	}
	return nil
}
