// Package config loads gateway configuration from an optional JSON file
// with environment-variable overrides, and watches the file for changes.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Defaults.
const (
	DefaultListenAddr       = ":3335"
	DefaultDataDir          = "data"
	DefaultReconnectDelayMs = 3000
	DefaultPairingTimeoutMs = 30000
)

// Config is the gateway runtime configuration.
type Config struct {
	// ListenAddr is the HTTP listen address.
	ListenAddr string `json:"listen_addr"`

	// DataDir holds the session store file and the device credential DB.
	DataDir string `json:"data_dir"`

	// AdminUser/AdminPass protect the admin endpoints (HTTP Basic).
	// Reloadable at runtime via the config watcher.
	AdminUser string `json:"admin_user"`
	AdminPass string `json:"admin_pass"`

	// EncryptionKey, when set, seals the session store file at rest
	// (32 bytes: hex, base64 or raw).
	EncryptionKey string `json:"encryption_key,omitempty"`

	// ReconnectDelayMs is the fixed wait before re-dialing after an
	// unexpected close.
	ReconnectDelayMs int `json:"reconnect_delay_ms"`

	// PairingTimeoutMs bounds how long a connect request waits for a
	// pairing code.
	PairingTimeoutMs int `json:"pairing_timeout_ms"`

	// SendRateRPM limits outbound sends per secret code (requests per
	// minute). Zero disables the limiter.
	SendRateRPM int `json:"send_rate_rpm"`

	// SendRateBurst is the max burst allowed by the send limiter.
	SendRateBurst int `json:"send_rate_burst"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ListenAddr:       DefaultListenAddr,
		DataDir:          DefaultDataDir,
		AdminUser:        "admin",
		AdminPass:        "admin123",
		ReconnectDelayMs: DefaultReconnectDelayMs,
		PairingTimeoutMs: DefaultPairingTimeoutMs,
	}
}

// Load reads the config file at path over the defaults, then applies
// environment overrides. A missing file is not an error; path may be "".
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// defaults only
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(cfg)

	if cfg.ReconnectDelayMs <= 0 {
		cfg.ReconnectDelayMs = DefaultReconnectDelayMs
	}
	if cfg.PairingTimeoutMs <= 0 {
		cfg.PairingTimeoutMs = DefaultPairingTimeoutMs
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("WAMUX_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("WAMUX_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("WAMUX_ADMIN_USER"); v != "" {
		cfg.AdminUser = v
	}
	if v := os.Getenv("WAMUX_ADMIN_PASS"); v != "" {
		cfg.AdminPass = v
	}
	if v := os.Getenv("WAMUX_ENCRYPTION_KEY"); v != "" {
		cfg.EncryptionKey = v
	}
}

// SessionStorePath is the JSON session file inside DataDir.
func (c *Config) SessionStorePath() string {
	return filepath.Join(c.DataDir, "sessions.json")
}

// DeviceDBPath is the channel provider's credential database inside DataDir.
func (c *Config) DeviceDBPath() string {
	return filepath.Join(c.DataDir, "devices.db")
}

// ReconnectDelay returns ReconnectDelayMs as a duration.
func (c *Config) ReconnectDelay() time.Duration {
	return time.Duration(c.ReconnectDelayMs) * time.Millisecond
}

// PairingTimeout returns PairingTimeoutMs as a duration.
func (c *Config) PairingTimeout() time.Duration {
	return time.Duration(c.PairingTimeoutMs) * time.Millisecond
}
