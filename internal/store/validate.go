package store

import "fmt"

// MaxSecretCodeLength bounds caller-supplied secret codes before any lookup.
// Generated codes are UUID strings (36 chars); the cap only guards abuse.
const MaxSecretCodeLength = 128

// ValidateSecretCode checks that a caller-supplied secret code is non-empty
// and does not exceed MaxSecretCodeLength.
func ValidateSecretCode(code string) error {
	if code == "" {
		return fmt.Errorf("secret code is required")
	}
	if len(code) > MaxSecretCodeLength {
		return fmt.Errorf("secret code too long: %d chars (max %d)", len(code), MaxSecretCodeLength)
	}
	return nil
}
