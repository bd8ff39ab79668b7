// Package captcha verifies CAPTCHA assertions against the Google reCAPTCHA
// siteverify API. A rejected assertion ([ErrRejected]) is distinguishable
// from an unreachable or erroring provider ([ErrUnavailable]), which is
// retryable.
package captcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the public siteverify endpoint.
const DefaultBaseURL = "https://www.google.com/recaptcha/api"

var (
	// ErrRejected reports that the provider evaluated the assertion as invalid.
	ErrRejected = errors.New("captcha assertion rejected")
	// ErrUnavailable reports that the provider could not be queried.
	ErrUnavailable = errors.New("captcha provider unavailable")
)

// Config holds the provider endpoint, the site secret, and the request
// deadline.
type Config struct {
	BaseURL string
	Secret  string
	Timeout time.Duration
}

// Client verifies assertions. Safe for concurrent use.
type Client struct {
	baseURL string
	secret  string
	http    *http.Client
}

// NewClient applies defaults and returns a Client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Secret == "" {
		return nil, errors.New("captcha secret required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		secret:  cfg.Secret,
		http:    &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify submits the client-supplied assertion token. remoteIP may be empty.
func (c *Client) Verify(ctx context.Context, assertion, remoteIP string) error {
	form := url.Values{}
	form.Set("secret", c.secret)
	form.Set("response", assertion)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/siteverify", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var parsed siteverifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !parsed.Success {
		return ErrRejected
	}

	return nil
}
