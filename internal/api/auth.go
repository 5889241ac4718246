package api

import (
	"crypto/sha256"
	"crypto/subtle"
	"log"
	"net/http"
)

// AdminTokenHeader carries the shared admin secret.
const AdminTokenHeader = "X-Admin-Token"

// RequireAdminToken guards mutating endpoints with a shared token. An empty
// token leaves the endpoints open, which suits local runs.
func RequireAdminToken(token string) func(http.Handler) http.Handler {
	if token == "" {
		return func(next http.Handler) http.Handler { return next }
	}

	// Compare digests so the comparison time does not leak the length.
	want := sha256.Sum256([]byte(token))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := sha256.Sum256([]byte(r.Header.Get(AdminTokenHeader)))
			if subtle.ConstantTimeCompare(got[:], want[:]) != 1 {
				log.Printf("⚠️ Admin request rejected from %s", ClientIP(r, false))
				RecordConnectionRejected("admin_token")
				writeError(w, "admin token required", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
