package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archmarket/platform/pkg/composables"
	"github.com/archmarket/platform/pkg/serrors"
)

func TestStatusFor(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: already approved", serrors.ErrInvalidStateTransition), http.StatusConflict},
		{serrors.ErrDuplicateRequest, http.StatusConflict},
		{serrors.ErrNotFound, http.StatusNotFound},
		{serrors.Store(errors.New("conn refused")), http.StatusServiceUnavailable},
		{serrors.ErrPartialFailure, http.StatusInternalServerError},
		{serrors.ValidationErrors{"Name": {}}, http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusFor(tc.err), tc.err.Error())
	}
}

func TestWriteServiceError(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	require.NoError(t, WriteServiceError(rec, "req-9", fmt.Errorf("%w: suggestion s1", serrors.ErrInvalidStateTransition)))
	assert.Equal(t, http.StatusConflict, rec.Code)

	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "INVALID_STATE_TRANSITION", env.Code)
	assert.Equal(t, "entity is not in a state that allows this transition", env.Message)
	assert.Equal(t, "req-9", env.Meta["request_id"])

	rec = httptest.NewRecorder()
	require.NoError(t, WriteServiceError(rec, "req-10", errors.New("secret dsn leaked")))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "INTERNAL", env.Code)
	assert.NotContains(t, env.Message, "secret")
}

func TestWriteServiceError_HidesStoreCause(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	cause := errors.New("SQLSTATE 08006 host=db.internal password=hunter2")
	require.NoError(t, WriteServiceError(rec, "req-11", serrors.Store(cause)))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "SQLSTATE")
	assert.NotContains(t, rec.Body.String(), "hunter2")

	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "TRANSIENT_STORE_FAILURE", env.Code)
	assert.Equal(t, "store temporarily unavailable", env.Message)

	code, message := Public(fmt.Errorf("%w: suggestion 7f3e owned by x", serrors.ErrDuplicateRequest))
	assert.Equal(t, "DUPLICATE_REQUEST", code)
	assert.Equal(t, "an active request already exists", message)
}

func TestRequireActor(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := RequireActor(rec, req)
	require.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	id := uuid.New()
	req = req.WithContext(composables.WithActor(req.Context(), composables.Actor{ID: id, Role: composables.RoleAdmin}))
	actor, ok := RequireActor(httptest.NewRecorder(), req)
	require.True(t, ok)
	assert.Equal(t, id, actor.ID)
}

func TestFail_DeadlineIsTransient(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	Fail(rec, httptest.NewRequest(http.MethodGet, "/", nil), context.DeadlineExceeded)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "TRANSIENT_STORE_FAILURE", env.Code)
}
