package http

import (
	"encoding/base64"
	"fmt"

	"github.com/skip2/go-qrcode"
)

// pairingImageSize is the rendered QR PNG edge length in pixels.
const pairingImageSize = 256

// pairingImage renders a pairing code as a scannable QR PNG data URL.
func pairingImage(code string) (string, error) {
	png, err := qrcode.Encode(code, qrcode.Medium, pairingImageSize)
	if err != nil {
		return "", fmt.Errorf("render QR: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
