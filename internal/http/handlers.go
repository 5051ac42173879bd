package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/nextlevelbuilder/wamux/internal/dispatch"
	"github.com/nextlevelbuilder/wamux/internal/store"
	"github.com/nextlevelbuilder/wamux/pkg/protocol"
)

// maxRequestBodySize caps JSON request bodies (1 MB).
const maxRequestBodySize = 1 << 20

func (s *Server) handleCreateInstance(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Create()
	if err != nil {
		writeMappedError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, protocol.CreateInstanceResponse{
		SecretCode: sess.SecretCode,
		Status:     string(sess.Status),
	})
}

func (s *Server) handleListInstances(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"instances": s.sessionInfos(),
	})
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	secretCode := r.PathValue("secretCode")
	if err := store.ValidateSecretCode(secretCode); err != nil {
		writeError(w, http.StatusBadRequest, protocol.ErrInvalidRequest, err.Error(), nil)
		return
	}

	res, err := s.registry.Connect(r.Context(), secretCode)
	if err != nil {
		writeMappedError(w, err)
		return
	}

	if res.Status == store.StatusConnected {
		writeJSON(w, http.StatusOK, protocol.ConnectResponse{Status: string(store.StatusConnected)})
		return
	}

	image, err := pairingImage(res.PairingCode)
	if err != nil {
		slog.Error("failed to render pairing image", "secret_code", secretCode, "error", err)
		writeMappedError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, protocol.ConnectResponse{
		Status:       string(store.StatusConnecting),
		PairingCode:  res.PairingCode,
		PairingImage: image,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Find(r.PathValue("secretCode"))
	if !ok {
		writeMappedError(w, store.ErrNotFound)
		return
	}

	writeJSON(w, http.StatusOK, protocol.StatusResponse{
		Status:    string(sess.Status),
		UpdatedAt: sess.UpdatedAt.Format(time.RFC3339),
	})
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	secretCode := r.PathValue("secretCode")
	if err := s.registry.Disconnect(r.Context(), secretCode); err != nil {
		writeMappedError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": string(store.StatusLoggedOut)})
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	var req protocol.SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, protocol.ErrInvalidRequest, "invalid JSON body", nil)
		return
	}

	if req.SecretCode == "" || req.Number == "" || req.Text == "" {
		writeError(w, http.StatusBadRequest, protocol.ErrInvalidRequest,
			"secret_code, number and text are required", nil)
		return
	}

	if !s.sendLimit.Allow(req.SecretCode) {
		writeError(w, http.StatusTooManyRequests, protocol.ErrRateLimited,
			"send rate limit exceeded", nil)
		return
	}

	result, err := s.dispatcher.Send(r.Context(), dispatch.Request{
		SecretCode: req.SecretCode,
		Number:     req.Number,
		Text:       req.Text,
		ImageURL:   req.ImageURL,
	})
	if err != nil {
		writeMappedError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, protocol.SendResponse{
		SentTo:            result.SentTo,
		CandidatesChecked: result.CandidatesChecked,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	infos := s.sessionInfos()
	active := 0
	for _, info := range infos {
		if info.IsActive {
			active++
		}
	}

	writeJSON(w, http.StatusOK, protocol.HealthResponse{
		TotalSessions:  len(infos),
		ActiveSessions: active,
		Sessions:       infos,
	})
}

func (s *Server) sessionInfos() []protocol.SessionInfo {
	sessions := s.sessions.List()
	infos := make([]protocol.SessionInfo, len(sessions))
	for i, sess := range sessions {
		infos[i] = protocol.SessionInfo{
			SecretCode: sess.SecretCode,
			Status:     string(sess.Status),
			CreatedAt:  sess.CreatedAt.Format(time.RFC3339),
			UpdatedAt:  sess.UpdatedAt.Format(time.RFC3339),
			IsActive:   s.registry.IsLive(sess.SecretCode),
		}
	}
	return infos
}
