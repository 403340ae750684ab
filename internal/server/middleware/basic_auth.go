package middleware

import (
	"crypto/subtle"
	"net/http"
)

const basicRealm = `Basic realm="Secure Area"`

// SitePassword guards every route except the health check with HTTP Basic
// auth. Only the password is checked; any username is accepted. An empty
// password disables the guard.
func SitePassword(password string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if password == "" {
			return next
		}
		want := []byte(password)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}
			_, got, ok := r.BasicAuth()
			if !ok || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				w.Header().Set("WWW-Authenticate", basicRealm)
				http.Error(w, "Authentication required", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
