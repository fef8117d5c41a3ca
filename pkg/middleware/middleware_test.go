package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archmarket/platform/pkg/composables"
)

func TestProvideActor(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	var got composables.Actor
	var gotErr error
	h := provideActor("X-Actor-ID", "X-Actor-Role")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, gotErr = composables.UseActor(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Actor-ID", id.String())
	req.Header.Set("X-Actor-Role", " Producer ")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.NoError(t, gotErr)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, composables.RoleProducer, got.Role)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Actor-ID", "not-a-uuid")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.ErrorIs(t, gotErr, composables.ErrNoActor)
}

func TestWithLogger_PanicBecomesJSON500(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	logger := logrus.New()
	logger.SetOutput(buf)

	h := withLogger(logger, DefaultLoggerOptions(), "X-Request-ID", "X-Real-IP")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/access/api/requests/incoming", nil)
	req.Header.Set("X-Request-ID", "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"request_id":"req-1"`)
	assert.Contains(t, buf.String(), "panic recovered")
}

func TestWithLogger_ProvidesLoggerAndRequestID(t *testing.T) {
	t.Parallel()

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	var requestID string
	h := withLogger(logger, DefaultLoggerOptions(), "X-Request-ID", "X-Real-IP")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		composables.UseLogger(r.Context()).Info("inside")
		requestID = composables.UseRequestID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/notifications/api/read-all", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotEmpty(t, requestID)
	assert.Equal(t, requestID, rec.Header().Get("X-Request-Id"))
}
