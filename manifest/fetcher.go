package manifest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hlsrip-cli/hlsrip/auth"
	"github.com/hlsrip-cli/hlsrip/log"
)

// ErrUnavailable is returned when the manifest cannot be downloaded or has no segments.
var ErrUnavailable = errors.New("manifest unavailable")

// maxManifestSize bounds the amount of text read from one manifest response.
const maxManifestSize = 16 << 20

// headers captured by a browser that must not be replayed verbatim
var skippedHeaders = map[string]struct{}{
	"host":              {},
	"connection":        {},
	"content-length":    {},
	"accept-encoding":   {},
	"transfer-encoding": {},
	"keep-alive":        {},
	"upgrade":           {},
}

// Fetcher downloads manifest text on behalf of an authenticated session.
type Fetcher struct {
	Client *http.Client
}

// Fetch performs a single GET of obs.URL and returns the body text.
// Headers recorded with the observation take precedence over the ones derived from ac.
func (f *Fetcher) Fetch(ctx context.Context, obs Observation, ac auth.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, obs.URL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	req.Header = RequestHeaders(obs, ac)

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	log.With(log.Fields{"url": obs.URL}).Info("fetching manifest")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestSize))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	text := string(body)
	if !HasSegmentMarker(text) {
		return "", fmt.Errorf("%w: no segment entries in response", ErrUnavailable)
	}

	return text, nil
}

// RequestHeaders merges the auth headers with the ones recorded in obs.
func RequestHeaders(obs Observation, ac auth.Context) http.Header {
	h := ac.Headers()
	for name, value := range obs.RequestHeaders {
		// pseudo headers of h2 captures
		if strings.HasPrefix(name, ":") {
			continue
		}
		if _, skip := skippedHeaders[strings.ToLower(name)]; skip {
			continue
		}
		h.Set(name, value)
	}
	return h
}
