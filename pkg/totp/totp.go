// Package totp prepares authenticator app enrollment: a random shared
// secret, the otpauth:// provisioning URI and its QR code.
//
// Passcode verification happens server-side; nothing here computes codes.
package totp

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/skip2/go-qrcode"
)

// SecretBytes is the amount of randomness in a generated secret.
const SecretBytes = 24

// Provisioning parameters understood by every mainstream authenticator.
const (
	Algorithm = "SHA1"
	Digits    = 6
	Period    = 30
)

// QRSize is the pixel width of PNG codes from QRCode.
const QRSize = 256

// GenerateSecret returns SecretBytes random bytes encoded as RFC 4648
// base32 (padded), the form the portal's enroll endpoint accepts.
func GenerateSecret() (string, error) {
	raw := make([]byte, SecretBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("totp: read random: %w", err)
	}
	return base32.StdEncoding.EncodeToString(raw), nil
}

// URI builds the otpauth:// provisioning URI for user at issuer.
func URI(issuer, user, secret string) string {
	q := url.Values{}
	q.Set("secret", secret)
	q.Set("issuer", issuer)
	q.Set("algorithm", Algorithm)
	q.Set("digits", strconv.Itoa(Digits))
	q.Set("period", strconv.Itoa(Period))

	// Authenticators expect %20 rather than + for spaces. A literal +
	// is already encoded as %2B.
	query := strings.ReplaceAll(q.Encode(), "+", "%20")
	return "otpauth://totp/" + escapeLabel(issuer) + ":" + escapeLabel(user) + "?" + query
}

// escapeLabel escapes one half of the issuer:user label. The colon is the
// separator, so it is escaped as well.
func escapeLabel(s string) string {
	return strings.ReplaceAll(url.PathEscape(s), ":", "%3A")
}

// QRCode renders uri as a PNG.
func QRCode(uri string) ([]byte, error) {
	png, err := qrcode.Encode(uri, qrcode.Medium, QRSize)
	if err != nil {
		return nil, fmt.Errorf("totp: encode qr: %w", err)
	}
	return png, nil
}

// QRText renders uri with unicode half blocks for display in a terminal.
func QRText(uri string) (string, error) {
	q, err := qrcode.New(uri, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("totp: encode qr: %w", err)
	}
	return q.ToSmallString(false), nil
}
