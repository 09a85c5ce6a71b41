// Package fetch holds the HTTP plumbing shared by the source adapters.
package fetch

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

// Timeout applies to every outbound call; expiry surfaces as a network
// error, never a retry.
const Timeout = 30 * time.Second

// HeaderTransport adds a fixed set of headers to each request.
type HeaderTransport struct {
	Headers   map[string]string
	Transport http.RoundTripper
}

// RoundTrip adds the configured headers to each request.
func (t *HeaderTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	for k, v := range t.Headers {
		req.Header.Set(k, v)
	}
	rt := t.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	return rt.RoundTrip(req)
}

// NewClient builds an HTTP client with the standard timeout and the given
// per-request headers.
func NewClient(headers map[string]string) *http.Client {
	return &http.Client{
		Timeout:   Timeout,
		Transport: &HeaderTransport{Headers: headers},
	}
}

// StatusError is a non-success HTTP response from a source, carrying enough
// context to name the failing account or feed.
type StatusError struct {
	Source     string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Source, e.StatusCode, e.Body)
}

// CheckStatus drains a non-2xx response into a StatusError. The caller keeps
// ownership of the body on success.
func CheckStatus(resp *http.Response, source string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &StatusError{Source: source, StatusCode: resp.StatusCode, Body: string(body)}
}
