package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archmarket/platform/modules/moderation/domain/aggregates/suggestion"
	"github.com/archmarket/platform/modules/moderation/domain/entities/catalog"
	"github.com/archmarket/platform/modules/moderation/services"
	"github.com/archmarket/platform/pkg/composables"
)

type stubSuggestions struct {
	suggestion.Repository
	pending []suggestion.Suggestion
	created suggestion.Suggestion
}

func (s *stubSuggestions) ListPending(_ context.Context, kind suggestion.Kind) ([]suggestion.Suggestion, error) {
	var out []suggestion.Suggestion
	for _, p := range s.pending {
		if p.Kind() == kind {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubSuggestions) Create(_ context.Context, sg suggestion.Suggestion) (suggestion.Suggestion, error) {
	s.created = suggestion.Hydrate(uuid.New(), sg.Kind(), sg.SubmitterID(), sg.TypePayload(), sg.FieldPayload(),
		suggestion.StatusPending, "", uuid.Nil, time.Time{}, time.Now())
	return s.created, nil
}

type stubCatalog struct{ catalog.Repository }

func newTestRouter(repo *stubSuggestions) *mux.Router {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	c := &ModerationAPIController{
		moderation: services.NewModerationService(repo, stubCatalog{}, nil, logger),
		timeout:    time.Second,
		basePath:   "/moderation/api",
	}
	r := mux.NewRouter()
	c.Register(r)
	return r
}

func asActor(req *http.Request) *http.Request {
	return req.WithContext(composables.WithActor(req.Context(), composables.Actor{ID: uuid.New(), Role: composables.RoleAdmin}))
}

func TestModerationAPIController_ListPending(t *testing.T) {
	repo := &stubSuggestions{pending: []suggestion.Suggestion{
		suggestion.Hydrate(uuid.New(), suggestion.KindCatalogType, uuid.New(), suggestion.TypePayload{Name: "Outdoor"},
			suggestion.FieldPayload{}, suggestion.StatusPending, "", uuid.Nil, time.Time{}, time.Now()),
	}}
	router := newTestRouter(repo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, asActor(httptest.NewRequest(http.MethodGet, "/moderation/api/suggestions/pending", nil)))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string][]map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body["catalog_types"], 1)
	assert.Equal(t, "Outdoor", body["catalog_types"][0]["name"])
	assert.Empty(t, body["catalog_fields"])
}

func TestModerationAPIController_RequiresActor(t *testing.T) {
	router := newTestRouter(&stubSuggestions{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/moderation/api/suggestions/pending", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestModerationAPIController_Submit_ValidationFailure(t *testing.T) {
	router := newTestRouter(&stubSuggestions{})

	req := httptest.NewRequest(http.MethodPost, "/moderation/api/suggestions", strings.NewReader(`{"kind":"new_catalog_type"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, asActor(req))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Name"`)
}

func TestModerationAPIController_Submit_Created(t *testing.T) {
	repo := &stubSuggestions{}
	router := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodPost, "/moderation/api/suggestions", strings.NewReader(`{"kind":"new_catalog_type","name":"Outdoor"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, asActor(req))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"pending"`)
	assert.Equal(t, "Outdoor", repo.created.TypePayload().Name)
}

func TestModerationAPIController_Approve_UnknownKind(t *testing.T) {
	router := newTestRouter(&stubSuggestions{})

	path := "/moderation/api/suggestions/new_widget/" + uuid.NewString() + ":approve"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, asActor(httptest.NewRequest(http.MethodPost, path, nil)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
