package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.ListenAddr != ":3335" {
		t.Errorf("ListenAddr = %q, want :3335", cfg.ListenAddr)
	}
	if cfg.AdminUser != "admin" || cfg.AdminPass != "admin123" {
		t.Errorf("admin defaults = %q/%q", cfg.AdminUser, cfg.AdminPass)
	}
	if cfg.ReconnectDelay() != 3*time.Second {
		t.Errorf("ReconnectDelay = %v, want 3s", cfg.ReconnectDelay())
	}
	if cfg.PairingTimeout() != 30*time.Second {
		t.Errorf("PairingTimeout = %v, want 30s", cfg.PairingTimeout())
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}
	if cfg.ListenAddr != DefaultListenAddr {
		t.Errorf("ListenAddr = %q, want default", cfg.ListenAddr)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"listen_addr":":9000","admin_user":"ops","reconnect_delay_ms":500,"send_rate_rpm":60}`
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}
	if cfg.ListenAddr != ":9000" {
		t.Errorf("ListenAddr = %q, want :9000", cfg.ListenAddr)
	}
	if cfg.AdminUser != "ops" {
		t.Errorf("AdminUser = %q, want ops", cfg.AdminUser)
	}
	if cfg.AdminPass != "admin123" {
		t.Errorf("AdminPass = %q, want default kept", cfg.AdminPass)
	}
	if cfg.ReconnectDelay() != 500*time.Millisecond {
		t.Errorf("ReconnectDelay = %v, want 500ms", cfg.ReconnectDelay())
	}
	if cfg.SendRateRPM != 60 {
		t.Errorf("SendRateRPM = %d, want 60", cfg.SendRateRPM)
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{nope"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load accepted invalid JSON")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("WAMUX_LISTEN_ADDR", ":7777")
	t.Setenv("WAMUX_ADMIN_PASS", "s3cret")
	t.Setenv("WAMUX_DATA_DIR", "/var/lib/wamux")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}
	if cfg.ListenAddr != ":7777" {
		t.Errorf("ListenAddr = %q, want :7777", cfg.ListenAddr)
	}
	if cfg.AdminPass != "s3cret" {
		t.Errorf("AdminPass = %q, want env value", cfg.AdminPass)
	}
	if got := cfg.SessionStorePath(); got != "/var/lib/wamux/sessions.json" {
		t.Errorf("SessionStorePath = %q", got)
	}
	if got := cfg.DeviceDBPath(); got != "/var/lib/wamux/devices.db" {
		t.Errorf("DeviceDBPath = %q", got)
	}
}

func TestLoadClampsNonPositiveDurations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"reconnect_delay_ms":-1,"pairing_timeout_ms":0}`), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}
	if cfg.ReconnectDelayMs != DefaultReconnectDelayMs {
		t.Errorf("ReconnectDelayMs = %d, want default", cfg.ReconnectDelayMs)
	}
	if cfg.PairingTimeoutMs != DefaultPairingTimeoutMs {
		t.Errorf("PairingTimeoutMs = %d, want default", cfg.PairingTimeoutMs)
	}
}
