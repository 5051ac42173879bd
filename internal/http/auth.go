package http

import (
	"crypto/subtle"
	"net/http"

	"github.com/nextlevelbuilder/wamux/pkg/protocol"
)

// adminAuth protects the instance-management endpoints with HTTP Basic auth
// (timing-safe comparison).
func (s *Server) adminAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		wantUser, wantPass := s.adminUser, s.adminPass
		s.mu.RUnlock()

		user, pass, ok := r.BasicAuth()
		if !ok || !credMatch(user, wantUser) || !credMatch(pass, wantPass) {
			w.Header().Set("WWW-Authenticate", `Basic realm="wamux admin"`)
			writeError(w, http.StatusUnauthorized, protocol.ErrUnauthorized, "admin authentication required", nil)
			return
		}
		next(w, r)
	}
}

func credMatch(provided, expected string) bool {
	return subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1
}
