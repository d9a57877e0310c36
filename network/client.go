// Package network builds the HTTP clients shared by the manifest and segment stages.
package network

import (
	"net/http"
	"time"
)

// Options tune the client returned by New.
type Options struct {
	// Timeout bounds a single request, body included. Zero means no limit.
	Timeout time.Duration
	// Fingerprint routes HTTPS traffic through a Chrome-like TLS handshake.
	Fingerprint bool
}

// New returns a client configured for concurrent segment traffic.
func New(opts Options) *http.Client {
	var transport http.RoundTripper = newTransport()
	if opts.Fingerprint {
		transport = &FingerprintTransport{Plain: transport}
	}

	return &http.Client{
		Timeout:   opts.Timeout,
		Transport: transport,
	}
}

// newTransport initializes a tuned http.Transport with pool and timeout parameters.
func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 100
	t.MaxIdleConnsPerHost = 32
	t.MaxConnsPerHost = 32
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 30 * time.Second
	t.ExpectContinueTimeout = 1 * time.Second
	return t
}
