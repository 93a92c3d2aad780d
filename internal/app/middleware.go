package app

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/paihq/pai/internal/rest"
	"github.com/paihq/pai/pkg/user"
	log "github.com/sirupsen/logrus"
)

// publicRoutes are served without a bearer token.
var publicRoutes = map[string]string{
	"/api/user":                              http.MethodPost,
	"/api/user/name-availability":            http.MethodGet,
	"/api/integrations/google/auth/callback": http.MethodGet,
}

// entitledPrefixes need an active subscription. Lapsed users can still manage their account.
var entitledPrefixes = []string{"/api/records", "/api/stats"}

// SetupMiddleware wires all HTTP middlewares for the application.
func SetupMiddleware(r *mux.Router, deps *Dependencies) {
	r.Use(bearerAuth(deps.UserService))
}

// bearerAuth resolves the Authorization header into the current user.
// Unknown tokens get 401, lapsed subscriptions get 403 on record routes.
func bearerAuth(users user.Service) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if method, ok := publicRoutes[req.URL.Path]; ok && method == req.Method {
				next.ServeHTTP(w, req)
				return
			}

			token, found := strings.CutPrefix(req.Header.Get("Authorization"), "Bearer ")
			if !found || token == "" {
				rest.WriteError(w, http.StatusUnauthorized, "Not authenticated", "missing bearer token")
				return
			}

			u, err := users.Authenticate(req.Context(), token)
			switch {
			case errors.Is(err, user.ErrUnauthenticated):
				log.Debug("rejected unknown API token")
				rest.WriteError(w, http.StatusUnauthorized, "Not authenticated", "unknown token")
				return
			case errors.Is(err, user.ErrSubscriptionInactive):
				if requiresEntitlement(req.URL.Path) {
					log.Debugf("user %d has subscription %s", u.Id, u.Subscription)
					rest.WriteError(w, http.StatusForbidden, "Subscription inactive", string(u.Subscription))
					return
				}
			case err != nil:
				log.Errorf("failed to authenticate request: %v", err)
				rest.WriteError(w, http.StatusInternalServerError, "Internal server error", "")
				return
			}

			log.Tracef("authenticated user %s", u.Uid)
			next.ServeHTTP(w, req.WithContext(user.WithUser(req.Context(), u)))
		})
	}
}

func requiresEntitlement(path string) bool {
	for _, prefix := range entitledPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
