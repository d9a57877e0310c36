// Package manifest covers the first stage of the pipeline: picking the
// manifest a playback session used and downloading its text.
package manifest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hlsrip-cli/hlsrip/constant"
	"github.com/hlsrip-cli/hlsrip/log"
)

// ErrNoManifestDetected is returned when the detection window elapses without a usable observation.
var ErrNoManifestDetected = errors.New("no manifest detected")

// Observation is one manifest request seen during playback.
type Observation struct {
	URL            string            `json:"url"`
	RequestHeaders map[string]string `json:"request_headers,omitempty"`
	// Body is the captured response text, when the observer had access to it.
	Body   string    `json:"-"`
	SeenAt time.Time `json:"seen_at"`
}

// Playable reports whether the captured body lists media segments.
func (o Observation) Playable() bool {
	return HasSegmentMarker(o.Body)
}

// Header looks up a request header case-insensitively.
func (o Observation) Header(name string) string {
	for k, v := range o.RequestHeaders {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// HasSegmentMarker reports whether text contains segment duration directives.
func HasSegmentMarker(text string) bool {
	return strings.Contains(text, constant.SegmentMarker)
}

// IsManifestURL reports whether rawURL looks like an HLS manifest.
func IsManifestURL(rawURL string) bool {
	return strings.Contains(strings.ToLower(rawURL), constant.ManifestSuffix)
}

// Discoverer produces observations until it runs out or ctx is done.
// Implementations must stop sending once ctx is cancelled.
type Discoverer interface {
	Discover(ctx context.Context, out chan<- Observation) error
}

// Direct is a manifest URL known in advance.
type Direct struct {
	URL     string
	Headers map[string]string
}

// Discover emits the single known observation.
func (d Direct) Discover(ctx context.Context, out chan<- Observation) error {
	select {
	case out <- Observation{URL: d.URL, RequestHeaders: d.Headers, SeenAt: time.Now()}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Await blocks until an observation with a segment marker arrives.
//
// When the window elapses or the producer closes the channel first, the most
// recent marker-less observation is returned instead; with none at all the
// result is ErrNoManifestDetected.
func Await(ctx context.Context, observations <-chan Observation, window time.Duration) (Observation, error) {
	timer := time.NewTimer(window)
	defer timer.Stop()

	var (
		latest Observation
		seen   int
	)

	fallback := func() (Observation, error) {
		if seen == 0 {
			return Observation{}, ErrNoManifestDetected
		}
		log.Infof("no manifest carried %s, using the latest of %d candidates", constant.SegmentMarker, seen)
		return latest, nil
	}

	for {
		select {
		case obs, ok := <-observations:
			if !ok {
				return fallback()
			}
			if obs.Playable() {
				return obs, nil
			}
			latest = obs
			seen++
		case <-timer.C:
			return fallback()
		case <-ctx.Done():
			return Observation{}, fmt.Errorf("%w: %w", ErrNoManifestDetected, ctx.Err())
		}
	}
}

// Observe runs d as a producer bounded by ctx and waits up to window for a
// usable observation. The producer has always returned when Observe does.
func Observe(ctx context.Context, d Discoverer, window time.Duration) (Observation, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := make(chan Observation)
	done := make(chan error, 1)
	go func() {
		defer close(ch)
		done <- d.Discover(ctx, ch)
	}()

	obs, err := Await(ctx, ch, window)
	cancel()

	for range ch {
	}

	if perr := <-done; perr != nil && !errors.Is(perr, context.Canceled) {
		if err != nil {
			return obs, fmt.Errorf("%w: %w", err, perr)
		}
		log.Warnf("manifest discovery: %s", perr)
	}

	return obs, err
}
