package network

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/hlsrip-cli/hlsrip/log"
	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

const dialTimeout = 30 * time.Second

// FingerprintTransport performs HTTPS requests with a Chrome 120 Client Hello.
//
// CDNs fronting authenticated video often reject the stock Go handshake. The
// transport first tries HTTP/2 and falls back to HTTP/1.1 when the server does
// not negotiate h2. Plain HTTP requests go through Plain.
type FingerprintTransport struct {
	Plain http.RoundTripper

	once sync.Once
	h2   *http2.Transport
	h1   *http.Transport
}

func (t *FingerprintTransport) init() {
	t.once.Do(func() {
		t.h2 = &http2.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return dialTLS(ctx, network, addr, nil)
			},
		}
		t.h1 = &http.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialTLS(ctx, network, addr, []string{"http/1.1"})
			},
			MaxIdleConnsPerHost: 32,
			IdleConnTimeout:     30 * time.Second,
		}
	})
}

// RoundTrip implements http.RoundTripper.
func (t *FingerprintTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		plain := t.Plain
		if plain == nil {
			plain = http.DefaultTransport
		}
		return plain.RoundTrip(req)
	}

	t.init()

	resp, err := t.h2.RoundTrip(req)
	if err == nil {
		return resp, nil
	}

	// Only bodiless requests can be replayed safely.
	if req.Body != nil && req.Body != http.NoBody {
		return nil, err
	}
	if ctxErr := req.Context().Err(); ctxErr != nil {
		return nil, ctxErr
	}

	log.Debugf("h2 failed for %s, retrying over http/1.1: %s", req.URL.Host, err)
	return t.h1.RoundTrip(req)
}

// dialTLS opens a TLS connection mimicking Chrome 120. nextProtos overrides
// the advertised ALPN list when set.
func dialTLS(ctx context.Context, network, addr string, nextProtos []string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	dialer := &net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	tlsConn := utls.UClient(conn, &utls.Config{
		ServerName: host,
		MinVersion: tls.VersionTLS12,
		NextProtos: nextProtos,
	}, utls.HelloChrome_120)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}

	return tlsConn, nil
}
