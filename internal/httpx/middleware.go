package httpx

import (
	"crypto/subtle"
	"net/http"

	"github.com/threshold-network/frost-signer/internal/frosterr"
)

// RequireInternalToken rejects requests that don't carry the configured
// shared secret in the X-Internal-Token header. A deployment marked
// production must configure a non-empty token; see config.Settings.
func RequireInternalToken(token string, next http.Handler) http.Handler {
	if token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get("X-Internal-Token")
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			WriteError(w, frosterr.Unauthorized())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// BodySizeCap wraps the handler so oversized bodies are rejected before
// JSON decoding even begins.
func BodySizeCap(maxBytes int64, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		next.ServeHTTP(w, r)
	})
}
