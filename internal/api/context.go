package api

import (
	"net"
	"net/http"

	"github.com/sitecrew/sitecrew/internal/shared"
)

// ClientInfo records the caller's address and user agent on the request
// context so audit records can carry them.
func ClientInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}
		ctx := shared.ContextWithClient(r.Context(), shared.ClientInfo{IPAddress: ip, UserAgent: r.UserAgent()})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
