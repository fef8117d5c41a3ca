package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/archmarket/platform/pkg/composables"
	"github.com/archmarket/platform/pkg/configuration"
)

// ProvideActor reads the identity forwarded by the session layer. Requests
// without a valid actor pass through anonymous; handlers that need one reject
// them.
func ProvideActor() mux.MiddlewareFunc {
	conf := configuration.Use()
	return provideActor(conf.ActorIDHeader, conf.ActorRoleHeader)
}

func provideActor(idHeader, roleHeader string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(idHeader))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			id, err := uuid.Parse(raw)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			actor := composables.Actor{
				ID:   id,
				Role: composables.Role(strings.ToLower(strings.TrimSpace(r.Header.Get(roleHeader)))),
			}
			next.ServeHTTP(w, r.WithContext(composables.WithActor(r.Context(), actor)))
		})
	}
}
