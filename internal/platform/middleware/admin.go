package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	id "turfops/pkg/domain"
	"turfops/pkg/requestcontext"
)

// RequireAdminToken guards operational endpoints with a shared secret passed
// in the X-Admin-Token header. When the token is empty the endpoints are
// disabled outright.
//
// Admins identify themselves for audit attribution via X-Actor-ID; without it
// their actions attribute to the zero actor.
func RequireAdminToken(adminToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if adminToken == "" {
				logger.WarnContext(r.Context(), "admin endpoint disabled - no token configured",
					"path", r.URL.Path,
				)
				writeAdminForbidden(w)
				return
			}

			provided := r.Header.Get("X-Admin-Token")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(adminToken)) != 1 {
				logger.WarnContext(r.Context(), "admin endpoint rejected - bad token",
					"path", r.URL.Path,
					"request_id", requestcontext.RequestID(r.Context()),
				)
				writeAdminForbidden(w)
				return
			}

			ctx := r.Context()
			if actorHeader := r.Header.Get("X-Actor-ID"); actorHeader != "" {
				if actorID, err := id.ParseUserID(actorHeader); err == nil {
					ctx = requestcontext.WithActorID(ctx, actorID)
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeAdminForbidden(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"Admin access denied"}`))
}
