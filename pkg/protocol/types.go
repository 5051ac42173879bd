package protocol

// Session status values as they appear on the wire.
const (
	StatusDisconnected = "disconnected"
	StatusConnecting   = "connecting"
	StatusConnected    = "connected"
	StatusLoggedOut    = "logged_out"
)

// SessionInfo is one session record as returned by the instances endpoints.
type SessionInfo struct {
	SecretCode string `json:"secret_code"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at,omitempty"`
	UpdatedAt  string `json:"updated_at,omitempty"`
	IsActive   bool   `json:"is_active"`
}

// CreateInstanceResponse is the body returned by POST /v1/instances.
type CreateInstanceResponse struct {
	SecretCode string `json:"secret_code"`
	Status     string `json:"status"`
}

// ConnectResponse is the body returned by GET /v1/connect/{secretCode}.
// PairingCode and PairingImage are set only while status is "connecting".
type ConnectResponse struct {
	Status       string `json:"status"`
	PairingCode  string `json:"pairing_code,omitempty"`
	PairingImage string `json:"pairing_image,omitempty"`
}

// StatusResponse is the body returned by GET /v1/status/{secretCode}.
type StatusResponse struct {
	Status    string `json:"status"`
	UpdatedAt string `json:"updated_at"`
}

// SendRequest is the body accepted by POST /v1/send.
type SendRequest struct {
	SecretCode string `json:"secret_code"`
	Number     string `json:"number"`
	Text       string `json:"text"`
	ImageURL   string `json:"image_url,omitempty"`
}

// SendResponse is the body returned by POST /v1/send on success.
type SendResponse struct {
	SentTo            string   `json:"sent_to"`
	CandidatesChecked []string `json:"candidates_checked"`
}

// HealthResponse is the body returned by GET /v1/health.
type HealthResponse struct {
	TotalSessions  int           `json:"total_sessions"`
	ActiveSessions int           `json:"active_sessions"`
	Sessions       []SessionInfo `json:"sessions"`
}
