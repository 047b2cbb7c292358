package httpapi

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// RequireAPIKey checks the X-API-Key header against key in constant time.
// An empty key is a server misconfiguration and fails every request with 500.
func RequireAPIKey(key string) func(http.Handler) http.Handler {
	expected := []byte(strings.TrimSpace(key))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(expected) == 0 {
				writeDetail(w, http.StatusInternalServerError, "API key not configured on server")
				return
			}
			given := strings.TrimSpace(r.Header.Get("X-API-Key"))
			if given == "" {
				writeDetail(w, http.StatusUnauthorized, "Missing API key")
				return
			}
			if subtle.ConstantTimeCompare([]byte(given), expected) != 1 {
				writeDetail(w, http.StatusUnauthorized, "Invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
