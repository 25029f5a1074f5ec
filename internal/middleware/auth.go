package middleware

import (
	"net/http"
	"strings"

	"docvault/internal/auth"
	"docvault/internal/httputil"
)

// Auth validates the bearer token and stores the resulting actor in
// the request context. Requests without a valid token are rejected
// before reaching any handler; the health endpoint is exempt.
func Auth(verifier auth.JWTVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenString == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
				return
			}

			claims, err := verifier.VerifyToken(tokenString)
			if err != nil {
				httputil.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token")
				return
			}

			actor, ok := claims.ToActor()
			if !ok {
				httputil.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token subject")
				return
			}

			next.ServeHTTP(w, httputil.WithActor(r, actor))
		})
	}
}
