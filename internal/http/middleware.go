package http

import (
	"net/http"

	"codesurvey/internal/auth"
)

// RequireAPIToken guards admin routes. An empty token disables them.
func RequireAPIToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := auth.Bearer(r.Header.Get("Authorization"))
			if token == "" || !ok || !auth.Matches(got, auth.HashToken(token)) {
				writeJSON(w, http.StatusUnauthorized, errResp{"unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
