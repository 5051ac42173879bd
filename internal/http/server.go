// Package http exposes the gateway's JSON API: session management, pairing,
// status and outbound sends.
package http

import (
	"net/http"
	"sync"

	"github.com/nextlevelbuilder/wamux/internal/config"
	"github.com/nextlevelbuilder/wamux/internal/dispatch"
	"github.com/nextlevelbuilder/wamux/internal/registry"
	"github.com/nextlevelbuilder/wamux/internal/store"
)

// Server holds the gateway's HTTP handlers.
type Server struct {
	sessions   store.SessionStore
	registry   *registry.Registry
	dispatcher *dispatch.Dispatcher
	sendLimit  *RateLimiter

	mu        sync.RWMutex
	adminUser string
	adminPass string
}

// NewServer creates the API server.
func NewServer(sessions store.SessionStore, reg *registry.Registry, disp *dispatch.Dispatcher, cfg *config.Config) *Server {
	return &Server{
		sessions:   sessions,
		registry:   reg,
		dispatcher: disp,
		sendLimit:  NewRateLimiter(cfg.SendRateRPM, cfg.SendRateBurst),
		adminUser:  cfg.AdminUser,
		adminPass:  cfg.AdminPass,
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/instances", s.adminAuth(s.handleCreateInstance))
	mux.HandleFunc("GET /v1/instances", s.adminAuth(s.handleListInstances))
	mux.HandleFunc("GET /v1/connect/{secretCode}", s.handleConnect)
	mux.HandleFunc("GET /v1/status/{secretCode}", s.handleStatus)
	mux.HandleFunc("POST /v1/disconnect/{secretCode}", s.handleDisconnect)
	mux.HandleFunc("POST /v1/send", s.handleSend)
	mux.HandleFunc("GET /v1/health", s.handleHealth)
}

// ApplyConfig picks up reloadable settings (admin credentials).
func (s *Server) ApplyConfig(cfg *config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adminUser = cfg.AdminUser
	s.adminPass = cfg.AdminPass
}
