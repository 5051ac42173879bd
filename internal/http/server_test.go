package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nextlevelbuilder/wamux/internal/channels"
	"github.com/nextlevelbuilder/wamux/internal/config"
	"github.com/nextlevelbuilder/wamux/internal/dispatch"
	"github.com/nextlevelbuilder/wamux/internal/registry"
	"github.com/nextlevelbuilder/wamux/internal/store"
	"github.com/nextlevelbuilder/wamux/internal/store/file"
	"github.com/nextlevelbuilder/wamux/pkg/protocol"
)

// stubInstance satisfies channels.Instance for API-level tests.
type stubInstance struct{}

func (stubInstance) Exists(ctx context.Context, number string) (bool, error) { return true, nil }
func (stubInstance) Send(ctx context.Context, number string, p channels.Payload) error {
	return nil
}
func (stubInstance) Logout(ctx context.Context) error { return nil }
func (stubInstance) Close()                           {}

// stubProvider drives pairing per its mode: deliver a code or connect.
type stubProvider struct {
	mode string // "code" or "connect"
}

func (p *stubProvider) Dial(ctx context.Context, secretCode, authRef string, hooks channels.Hooks) (channels.Instance, error) {
	switch p.mode {
	case "connect":
		go func() {
			hooks.OnCredentials("device:test")
			hooks.OnConnected()
		}()
	default:
		go hooks.OnPairingCode("test-pairing-code")
	}
	return stubInstance{}, nil
}

func (p *stubProvider) DropAuth(ctx context.Context, authRef string) error { return nil }

type testAPI struct {
	mux      *http.ServeMux
	sessions store.SessionStore
	registry *registry.Registry
}

func newTestAPI(t *testing.T, prov channels.Provider, cfg *config.Config) *testAPI {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	sessions, err := file.NewSessionStore(filepath.Join(t.TempDir(), "sessions.json"), "")
	if err != nil {
		t.Fatalf("NewSessionStore error = %v", err)
	}
	reg := registry.New(sessions, prov, registry.WithPairingTimeout(2*time.Second))
	srv := NewServer(sessions, reg, dispatch.New(reg), cfg)
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	return &testAPI{mux: mux, sessions: sessions, registry: reg}
}

func (a *testAPI) do(t *testing.T, method, path, body string, admin bool) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *strings.Reader
	if body == "" {
		rdr = strings.NewReader("")
	} else {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if admin {
		req.SetBasicAuth("admin", "admin123")
	}
	rec := httptest.NewRecorder()
	a.mux.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error protocol.ErrorShape `json:"error"`
	}
	decode(t, rec, &body)
	return body.Error.Code
}

func TestCreateInstanceRequiresAuth(t *testing.T) {
	api := newTestAPI(t, &stubProvider{}, nil)

	rec := api.do(t, "POST", "/v1/instances", "", false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if got := errorCode(t, rec); got != protocol.ErrUnauthorized {
		t.Errorf("error code = %q, want UNAUTHORIZED", got)
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Error("missing WWW-Authenticate header")
	}
}

func TestCreateInstance(t *testing.T) {
	api := newTestAPI(t, &stubProvider{}, nil)

	rec := api.do(t, "POST", "/v1/instances", "", true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var resp protocol.CreateInstanceResponse
	decode(t, rec, &resp)
	if resp.SecretCode == "" {
		t.Error("empty secret code")
	}
	if resp.Status != string(store.StatusDisconnected) {
		t.Errorf("status = %q, want disconnected", resp.Status)
	}
}

func TestListInstances(t *testing.T) {
	api := newTestAPI(t, &stubProvider{}, nil)
	api.do(t, "POST", "/v1/instances", "", true)
	api.do(t, "POST", "/v1/instances", "", true)

	rec := api.do(t, "GET", "/v1/instances", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Instances []protocol.SessionInfo `json:"instances"`
	}
	decode(t, rec, &resp)
	if len(resp.Instances) != 2 {
		t.Errorf("instances = %d, want 2", len(resp.Instances))
	}
}

func TestConnectUnknownCode(t *testing.T) {
	api := newTestAPI(t, &stubProvider{}, nil)

	rec := api.do(t, "GET", "/v1/connect/nope", "", false)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if got := errorCode(t, rec); got != protocol.ErrNotFound {
		t.Errorf("error code = %q, want NOT_FOUND", got)
	}
}

func TestConnectReturnsPairingCode(t *testing.T) {
	api := newTestAPI(t, &stubProvider{mode: "code"}, nil)
	sess, err := api.sessions.Create()
	if err != nil {
		t.Fatalf("Create error = %v", err)
	}

	rec := api.do(t, "GET", "/v1/connect/"+sess.SecretCode, "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp protocol.ConnectResponse
	decode(t, rec, &resp)
	if resp.Status != string(store.StatusConnecting) {
		t.Errorf("status = %q, want connecting", resp.Status)
	}
	if resp.PairingCode != "test-pairing-code" {
		t.Errorf("pairing code = %q", resp.PairingCode)
	}
	if !strings.HasPrefix(resp.PairingImage, "data:image/png;base64,") {
		t.Errorf("pairing image is not a PNG data URL: %.40s", resp.PairingImage)
	}
}

func TestConnectAlreadyConnected(t *testing.T) {
	api := newTestAPI(t, &stubProvider{mode: "connect"}, nil)
	sess, err := api.sessions.Create()
	if err != nil {
		t.Fatalf("Create error = %v", err)
	}

	rec := api.do(t, "GET", "/v1/connect/"+sess.SecretCode, "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp protocol.ConnectResponse
	decode(t, rec, &resp)
	if resp.Status != string(store.StatusConnected) {
		t.Errorf("status = %q, want connected", resp.Status)
	}
	if resp.PairingCode != "" || resp.PairingImage != "" {
		t.Error("connected response carries pairing fields")
	}
}

func TestStatusEndpoint(t *testing.T) {
	api := newTestAPI(t, &stubProvider{}, nil)
	sess, err := api.sessions.Create()
	if err != nil {
		t.Fatalf("Create error = %v", err)
	}

	rec := api.do(t, "GET", "/v1/status/"+sess.SecretCode, "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp protocol.StatusResponse
	decode(t, rec, &resp)
	if resp.Status != string(store.StatusDisconnected) {
		t.Errorf("status = %q, want disconnected", resp.Status)
	}
	if _, err := time.Parse(time.RFC3339, resp.UpdatedAt); err != nil {
		t.Errorf("updated_at %q is not RFC3339: %v", resp.UpdatedAt, err)
	}

	rec = api.do(t, "GET", "/v1/status/missing", "", false)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status for unknown code = %d, want 404", rec.Code)
	}
}

func TestDisconnectEndpoint(t *testing.T) {
	api := newTestAPI(t, &stubProvider{mode: "connect"}, nil)
	sess, err := api.sessions.Create()
	if err != nil {
		t.Fatalf("Create error = %v", err)
	}
	api.do(t, "GET", "/v1/connect/"+sess.SecretCode, "", false)

	rec := api.do(t, "POST", "/v1/disconnect/"+sess.SecretCode, "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	got, _ := api.sessions.Find(sess.SecretCode)
	if got.Status != store.StatusLoggedOut {
		t.Errorf("stored status = %q, want logged_out", got.Status)
	}
}

func TestSendValidation(t *testing.T) {
	api := newTestAPI(t, &stubProvider{}, nil)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad_json", "{nope", protocol.ErrInvalidRequest},
		{"missing_fields", `{"secret_code":"x"}`, protocol.ErrInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(t, "POST", "/v1/send", tt.body, false)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if got := errorCode(t, rec); got != tt.want {
				t.Errorf("error code = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSendNotConnected(t *testing.T) {
	api := newTestAPI(t, &stubProvider{}, nil)

	body := `{"secret_code":"ghost","number":"11987654321","text":"hi"}`
	rec := api.do(t, "POST", "/v1/send", body, false)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404: %s", rec.Code, rec.Body.String())
	}
	if got := errorCode(t, rec); got != protocol.ErrNotConnected {
		t.Errorf("error code = %q, want NOT_CONNECTED", got)
	}
}

func TestSendDelivers(t *testing.T) {
	api := newTestAPI(t, &stubProvider{mode: "connect"}, nil)
	sess, err := api.sessions.Create()
	if err != nil {
		t.Fatalf("Create error = %v", err)
	}
	api.do(t, "GET", "/v1/connect/"+sess.SecretCode, "", false)

	body := `{"secret_code":"` + sess.SecretCode + `","number":"11987654321","text":"hi"}`
	rec := api.do(t, "POST", "/v1/send", body, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp protocol.SendResponse
	decode(t, rec, &resp)
	if resp.SentTo == "" {
		t.Error("empty sent_to")
	}
	if len(resp.CandidatesChecked) == 0 {
		t.Error("empty candidates_checked")
	}
}

func TestSendRateLimited(t *testing.T) {
	cfg := config.Default()
	cfg.SendRateRPM = 1
	cfg.SendRateBurst = 1
	api := newTestAPI(t, &stubProvider{}, cfg)

	body := `{"secret_code":"burst","number":"11987654321","text":"hi"}`
	api.do(t, "POST", "/v1/send", body, false)
	rec := api.do(t, "POST", "/v1/send", body, false)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if got := errorCode(t, rec); got != protocol.ErrRateLimited {
		t.Errorf("error code = %q, want RATE_LIMITED", got)
	}
}

func TestHealthEndpoint(t *testing.T) {
	api := newTestAPI(t, &stubProvider{mode: "connect"}, nil)
	sess, err := api.sessions.Create()
	if err != nil {
		t.Fatalf("Create error = %v", err)
	}
	api.sessions.Create()
	api.do(t, "GET", "/v1/connect/"+sess.SecretCode, "", false)

	rec := api.do(t, "GET", "/v1/health", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp protocol.HealthResponse
	decode(t, rec, &resp)
	if resp.TotalSessions != 2 {
		t.Errorf("total_sessions = %d, want 2", resp.TotalSessions)
	}
	if resp.ActiveSessions != 1 {
		t.Errorf("active_sessions = %d, want 1", resp.ActiveSessions)
	}
}

func TestApplyConfigRotatesAdminCredentials(t *testing.T) {
	sessions, err := file.NewSessionStore(filepath.Join(t.TempDir(), "sessions.json"), "")
	if err != nil {
		t.Fatalf("NewSessionStore error = %v", err)
	}
	reg := registry.New(sessions, &stubProvider{})
	srv := NewServer(sessions, reg, dispatch.New(reg), config.Default())
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)

	rotated := config.Default()
	rotated.AdminUser = "root"
	rotated.AdminPass = "changed"
	srv.ApplyConfig(rotated)

	req := httptest.NewRequest("POST", "/v1/instances", nil)
	req.SetBasicAuth("admin", "admin123")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("old credentials still accepted: status = %d", rec.Code)
	}

	req = httptest.NewRequest("POST", "/v1/instances", nil)
	req.SetBasicAuth("root", "changed")
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Errorf("new credentials rejected: status = %d", rec.Code)
	}
}
