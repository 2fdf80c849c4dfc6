// Package links obtains video-conference room links for online
// consultations. The provider is external and best-effort: a booking never
// fails because the link could not be produced.
package links

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Provider creates a fresh conference room and returns its URL.
type Provider interface {
	Generate(ctx context.Context) (string, error)
}

// HTTPProvider calls a conference-room service over HTTP. The service
// answers POST <base>/rooms with {"url": "..."}.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
}

// NewHTTPProvider builds a provider against the given base URL.
func NewHTTPProvider(baseURL string, timeout time.Duration) *HTTPProvider {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Generate requests a new room link.
func (p *HTTPProvider) Generate(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/rooms", nil)
	if err != nil {
		return "", fmt.Errorf("links: build request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("links: request room: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("links: room service status %s", resp.Status)
	}
	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("links: decode response: %w", err)
	}
	if !ValidURL(body.URL) {
		return "", fmt.Errorf("links: service returned invalid url %q", body.URL)
	}
	return body.URL, nil
}

// ValidURL reports whether s is an absolute http(s) URL. The daily health
// check uses it to detect a silently broken provider.
func ValidURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
