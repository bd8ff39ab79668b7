// Package totp implements RFC-6238 time-based one-time passwords for MFA
// step-up: secret generation, otpauth provisioning URIs with a scannable QR
// rendering, and code verification with bounded clock-skew tolerance.
//
// An invalid code is a normal negative result, not an error. Code comparison
// is constant-time.
package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"net/url"
	"strconv"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"
)

const secretBytes = 20

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// Config holds the TOTP parameters shared between enrollment and
// verification. Issuer labels the provisioning URI shown in authenticator
// apps.
type Config struct {
	Issuer    string
	Digits    int
	Period    int
	Algorithm string // "SHA1" (default), "SHA256", "SHA512"
	Skew      int    // accepted steps of clock drift in each direction
}

// Manager generates and verifies TOTP codes. Safe for concurrent use.
type Manager struct {
	config Config
}

// NewManager applies defaults and returns a Manager.
func NewManager(cfg Config) *Manager {
	if cfg.Algorithm == "" {
		cfg.Algorithm = "SHA1"
	}
	if cfg.Digits == 0 {
		cfg.Digits = 6
	}
	if cfg.Period == 0 {
		cfg.Period = 30
	}
	return &Manager{config: cfg}
}

// GenerateSecret draws a random 160-bit secret and returns it base32-encoded
// without padding, the form authenticator apps expect.
func (m *Manager) GenerateSecret() (string, error) {
	raw := make([]byte, secretBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return b32.EncodeToString(raw), nil
}

// ProvisionURI builds the otpauth:// URI binding the secret to an account
// under the configured issuer. Issuer and account are escaped independently
// so the label separator stays a literal colon while "@" in account emails
// becomes %40, the form authenticator apps parse.
func (m *Manager) ProvisionURI(account, secretBase32 string) string {
	issuer := m.config.Issuer
	label := escapeLabelPart(issuer) + ":" + escapeLabelPart(account)

	v := url.Values{}
	v.Set("secret", secretBase32)
	v.Set("issuer", issuer)
	v.Set("period", strconv.Itoa(m.config.Period))
	v.Set("digits", strconv.Itoa(m.config.Digits))
	v.Set("algorithm", strings.ToUpper(m.config.Algorithm))

	return "otpauth://totp/" + label + "?" + v.Encode()
}

func escapeLabelPart(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// QRCodePNG renders a provisioning URI as a scannable PNG.
func (m *Manager) QRCodePNG(provisionURI string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(provisionURI, qrcode.Medium, size)
}

// GenerateCode computes the code for the time step containing now. Used by
// provisioning tools and tests; verification goes through [Manager.VerifyCode].
func (m *Manager) GenerateCode(secretBase32 string, now time.Time) (string, error) {
	secret, err := b32.DecodeString(strings.ToUpper(strings.TrimSpace(secretBase32)))
	if err != nil || len(secret) == 0 {
		return "", errors.New("malformed totp secret")
	}
	return hotpCode(secret, now.Unix()/int64(m.config.Period), m.config.Digits, m.config.Algorithm)
}

// VerifyCode checks code against the secret at the current time step and
// within the configured skew window. A mismatch returns (false, nil).
func (m *Manager) VerifyCode(secretBase32, code string, now time.Time) (bool, error) {
	trimmed := strings.TrimSpace(code)
	if len(trimmed) != m.config.Digits || !isNumeric(trimmed) {
		return false, nil
	}

	secret, err := b32.DecodeString(strings.ToUpper(strings.TrimSpace(secretBase32)))
	if err != nil || len(secret) == 0 {
		return false, errors.New("malformed totp secret")
	}

	baseCounter := now.Unix() / int64(m.config.Period)
	for step := -m.config.Skew; step <= m.config.Skew; step++ {
		counter := baseCounter + int64(step)
		if counter < 0 {
			continue
		}
		generated, err := hotpCode(secret, counter, m.config.Digits, m.config.Algorithm)
		if err != nil {
			return false, err
		}
		if subtle.ConstantTimeCompare([]byte(generated), []byte(trimmed)) == 1 {
			return true, nil
		}
	}

	return false, nil
}

func hotpCode(secret []byte, counter int64, digits int, algorithm string) (string, error) {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(counter))

	hf, err := hmacFunc(algorithm)
	if err != nil {
		return "", err
	}
	mac := hmac.New(hf, secret)
	_, _ = mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	bin := (int(sum[offset])&0x7f)<<24 |
		(int(sum[offset+1])&0xff)<<16 |
		(int(sum[offset+2])&0xff)<<8 |
		(int(sum[offset+3]) & 0xff)

	mod := 1
	for i := 0; i < digits; i++ {
		mod *= 10
	}

	return fmt.Sprintf("%0*d", digits, bin%mod), nil
}

func hmacFunc(algorithm string) (func() hash.Hash, error) {
	switch strings.ToUpper(algorithm) {
	case "", "SHA1":
		return sha1.New, nil
	case "SHA256":
		return sha256.New, nil
	case "SHA512":
		return sha512.New, nil
	default:
		return nil, errors.New("unsupported totp algorithm")
	}
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
