package store

import (
	"strings"
	"testing"
)

func TestValidateSecretCode(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantErr bool
	}{
		{"empty", "", true},
		{"uuid", "0f2d9a3e-7c41-4f7b-9b34-1f2a6f0f8d11", false},
		{"max_length", strings.Repeat("a", 128), false},
		{"too_long", strings.Repeat("a", 129), true},
		{"way_too_long", strings.Repeat("x", 1000), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSecretCode(tt.code)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSecretCode(%d chars) error = %v, wantErr %v", len(tt.code), err, tt.wantErr)
			}
		})
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusDisconnected, StatusConnecting, StatusConnected, StatusLoggedOut} {
		if !s.Valid() {
			t.Errorf("Valid(%q) = false, want true", s)
		}
	}
	if Status("bogus").Valid() {
		t.Error(`Valid("bogus") = true, want false`)
	}
}

func TestNewSecretCodeUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := NewSecretCode()
		if code == "" {
			t.Fatal("empty secret code")
		}
		if seen[code] {
			t.Fatalf("duplicate secret code %q", code)
		}
		seen[code] = true
	}
}
