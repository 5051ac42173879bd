package crypto

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"
)

var testKey = strings.Repeat("k", 32)

func TestSealOpenRoundtrip(t *testing.T) {
	plain := []byte(`[{"secret_code":"abc"}]`)

	sealed, err := Seal(plain, testKey)
	if err != nil {
		t.Fatalf("Seal error = %v", err)
	}
	if !IsSealed(sealed) {
		t.Fatal("sealed data missing magic prefix")
	}
	if bytes.Contains(sealed, []byte("secret_code")) {
		t.Error("sealed data contains plaintext")
	}

	opened, err := Open(sealed, testKey)
	if err != nil {
		t.Fatalf("Open error = %v", err)
	}
	if !bytes.Equal(opened, plain) {
		t.Errorf("Open = %q, want %q", opened, plain)
	}
}

func TestSealEmptyKeyPassthrough(t *testing.T) {
	plain := []byte("hello")
	out, err := Seal(plain, "")
	if err != nil {
		t.Fatalf("Seal error = %v", err)
	}
	if !bytes.Equal(out, plain) {
		t.Errorf("Seal with empty key = %q, want passthrough", out)
	}
}

func TestOpenPlaintextPassthrough(t *testing.T) {
	// A file written before a key was configured has no magic prefix and
	// must load unchanged.
	plain := []byte(`[{"secret_code":"abc"}]`)
	out, err := Open(plain, testKey)
	if err != nil {
		t.Fatalf("Open error = %v", err)
	}
	if !bytes.Equal(out, plain) {
		t.Errorf("Open plaintext = %q, want passthrough", out)
	}
}

func TestOpenWrongKey(t *testing.T) {
	sealed, err := Seal([]byte("data"), testKey)
	if err != nil {
		t.Fatalf("Seal error = %v", err)
	}
	if _, err := Open(sealed, strings.Repeat("x", 32)); err == nil {
		t.Error("Open with wrong key succeeded, want error")
	}
}

func TestDeriveKey(t *testing.T) {
	raw := strings.Repeat("a", 32)
	hexKey := hex.EncodeToString([]byte(raw))

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"raw_32", raw, false},
		{"hex_64", hexKey, false},
		{"too_short", "short", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := DeriveKey(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DeriveKey(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && len(b) != 32 {
				t.Errorf("DeriveKey(%q) length = %d, want 32", tt.input, len(b))
			}
		})
	}
}
