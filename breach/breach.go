// Package breach checks passwords against a compromised-password corpus
// using k-anonymity: only the first five hex characters of the password's
// SHA-1 digest are sent, and the returned suffix list is scanned locally.
// The plaintext password and its full hash never leave the process.
//
// A lookup failure is an explicit error distinguishable from "not
// compromised" — callers must never treat an unreachable corpus as "safe".
package breach

import (
	"bufio"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the public Have I Been Pwned range endpoint.
const DefaultBaseURL = "https://api.pwnedpasswords.com"

// ErrUnavailable reports that the breach corpus could not be queried. It is
// retryable and must not degrade to a "safe" result.
var ErrUnavailable = errors.New("breach corpus unavailable")

// Config controls the corpus endpoint and the request deadline.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client queries the breach corpus. Safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient applies defaults and returns a Client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

// Check reports whether password appears in the corpus. Network failures and
// non-2xx responses surface as [ErrUnavailable].
func (c *Client) Check(ctx context.Context, password string) (bool, error) {
	sum := sha1.Sum([]byte(password))
	digest := strings.ToUpper(hex.EncodeToString(sum[:]))
	prefix, suffix := digest[:5], digest[5:]

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/range/"+prefix, nil)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	// Response is one "SUFFIX:COUNT" line per corpus entry in the prefix bucket.
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, suffix+":") {
			return true, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return false, nil
}
