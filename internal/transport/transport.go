// Package transport implements the default Transport Adapter
// (component 4.J): a thin wrapper around *http.Client tuned for a
// high volume of short-lived outbound calls.
package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/reqflux/reqflux/internal/domain"
)

// Response is the raw outcome of sending a BuiltRequest, before any
// retry or circuit-breaker interpretation by the orchestrator.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
	Duration   time.Duration
}

// Transport sends a BuiltRequest and reports the outcome. The
// orchestrator depends on this interface, not *http.Client directly,
// so tests can substitute a fake.
type Transport interface {
	Send(ctx context.Context, req *domain.BuiltRequest) (*Response, error)
}

// HTTPTransport is the production Transport, backed by a connection-
// pooled *http.Client with TLS 1.2 enforced and HTTP/2 attempted.
type HTTPTransport struct {
	client *http.Client
}

// New builds an HTTPTransport. timeout bounds a single request
// attempt; the orchestrator's retry policy governs attempts overall.
func New(timeout time.Duration) *HTTPTransport {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPTransport{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     30 * time.Second,
				ForceAttemptHTTP2:   true,
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   5 * time.Second,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: time.Second,
			},
		},
	}
}

// Send issues req and returns the raw response, including non-2xx
// statuses — those are classified by the caller, not here.
func (t *HTTPTransport) Send(ctx context.Context, built *domain.BuiltRequest) (*Response, error) {
	var bodyReader io.Reader
	if len(built.Body) > 0 {
		bodyReader = bytes.NewReader(built.Body)
	}

	req, err := http.NewRequestWithContext(ctx, built.Method, built.URL, bodyReader)
	if err != nil {
		return nil, err
	}
	for k, v := range built.Headers {
		req.Header.Set(k, v)
	}

	reqTimeout := built.Timeout
	if reqTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, reqTimeout)
		defer cancel()
		req = req.WithContext(ctx)
	}

	start := time.Now()
	resp, err := t.client.Do(req)
	duration := time.Since(start)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
		Headers:    resp.Header,
		Duration:   duration,
	}, nil
}

// Close releases idle pooled connections.
func (t *HTTPTransport) Close() {
	if tr, ok := t.client.Transport.(*http.Transport); ok {
		tr.CloseIdleConnections()
	}
}
