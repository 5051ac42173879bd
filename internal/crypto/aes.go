// Package crypto provides AES-256-GCM encryption for the persisted session
// file. Secret codes are bearer credentials, so the store can be encrypted
// at rest when an encryption key is configured.
package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
)

var magic = []byte("aes-gcm:")

// Seal encrypts data using AES-256-GCM.
// Returns "aes-gcm:" + nonce + ciphertext + tag.
// If key is empty, returns data unchanged.
func Seal(data []byte, key string) ([]byte, error) {
	if key == "" || len(data) == 0 {
		return data, nil
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	out := append([]byte(nil), magic...)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, data, nil), nil
}

// Open decrypts data produced by Seal.
// Data without the "aes-gcm:" magic is returned as-is, so a plaintext file
// written before a key was configured still loads.
// If key is empty, returns data unchanged.
func Open(data []byte, key string) ([]byte, error) {
	if key == "" || !IsSealed(data) {
		return data, nil
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	body := data[len(magic):]
	nonceSize := gcm.NonceSize()
	if len(body) < nonceSize {
		return nil, errors.New("decrypt failed: truncated data")
	}

	plaintext, err := gcm.Open(nil, body[:nonceSize], body[nonceSize:], nil)
	if err != nil {
		return nil, errors.New("decrypt failed: invalid key or corrupted data")
	}
	return plaintext, nil
}

// IsSealed returns true if the data carries the "aes-gcm:" magic.
func IsSealed(data []byte) bool {
	return bytes.HasPrefix(data, magic)
}

func newGCM(key string) (cipher.AEAD, error) {
	keyBytes, err := DeriveKey(key)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// DeriveKey converts the input string to a 32-byte AES key.
// Accepts: hex-encoded (64 chars), base64-encoded (44 chars), or raw 32 bytes.
func DeriveKey(input string) ([]byte, error) {
	// Hex-encoded: 64 hex chars = 32 bytes
	if len(input) == 64 {
		if b, err := hex.DecodeString(input); err == nil {
			return b, nil
		}
	}

	// Base64-encoded: 44 chars = 32 bytes
	if len(input) == 44 && strings.HasSuffix(input, "=") {
		if b, err := base64.StdEncoding.DecodeString(input); err == nil && len(b) == 32 {
			return b, nil
		}
	}

	// Raw 32 bytes
	if len(input) == 32 {
		return []byte(input), nil
	}

	return nil, errors.New("encryption key must be 32 bytes (hex-encoded 64 chars, base64 44 chars, or raw 32 bytes)")
}
