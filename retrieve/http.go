package retrieve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hlsrip-cli/hlsrip/auth"
	"github.com/hlsrip-cli/hlsrip/filesystem"
	"github.com/hlsrip-cli/hlsrip/log"
	"github.com/hlsrip-cli/hlsrip/segment"
)

const (
	DefaultConcurrency = 6
	DefaultAttempts    = 3
	DefaultBackoff     = 500 * time.Millisecond
	DefaultMaxBackoff  = 15 * time.Second
)

// HTTP fetches segments natively, one request per index, with a bounded worker pool.
type HTTP struct {
	Client      *http.Client
	Concurrency int
	// Attempts is the total number of tries per index, including the first.
	Attempts   int
	Backoff    time.Duration
	MaxBackoff time.Duration
	// SegmentTimeout bounds a single request, zero means no per-request bound.
	SegmentTimeout time.Duration
	Progress       Progress
}

func (t *HTTP) workers(total uint64) int {
	n := t.Concurrency
	if n <= 0 {
		n = DefaultConcurrency
	}
	if uint64(n) > total {
		n = int(total)
	}
	return n
}

func (t *HTTP) attempts() int {
	if t.Attempts <= 0 {
		return DefaultAttempts
	}
	return t.Attempts
}

// policy is the retry schedule of one index: exponential from Backoff up to
// MaxBackoff with jitter, stopping after Attempts tries or when ctx is done.
func (t *HTTP) policy(ctx context.Context) backoff.BackOffContext {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = t.Backoff
	if exp.InitialInterval <= 0 {
		exp.InitialInterval = DefaultBackoff
	}
	exp.MaxInterval = t.MaxBackoff
	if exp.MaxInterval <= 0 {
		exp.MaxInterval = DefaultMaxBackoff
	}
	exp.Multiplier = 2
	exp.RandomizationFactor = 0.5
	exp.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(t.attempts()-1)), ctx)
}

// FetchRange downloads every index of spec into dir.
// A 401 or 403 on any index cancels all the others and returns ErrAuthExpired.
func (t *HTTP) FetchRange(ctx context.Context, spec segment.RangeSpec, ac auth.Context, dir string) (*Result, error) {
	if err := filesystem.API().MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create segment directory: %w", err)
	}

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}

	headers := ac.Headers()
	headers.Set("Host", spec.Host)

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var (
		total     = spec.Count()
		all       = spec.Indices()
		indices   = make(chan uint64)
		mu        sync.Mutex
		wg        sync.WaitGroup
		done      uint64
		result    = &Result{}
		retrieved = make(map[uint64]struct{}, total)
	)

	settle := func(i uint64, file segment.File, n int64, err error) {
		mu.Lock()
		defer mu.Unlock()

		done++
		switch {
		case err == nil:
			result.Retrieved = append(result.Retrieved, file)
			result.Bytes += n
			retrieved[i] = struct{}{}
		case errors.Is(err, ErrAuthExpired):
			cancel(err)
			fallthrough
		default:
			var fetchErr *SegmentFetchError
			if errors.As(err, &fetchErr) {
				result.Errors = append(result.Errors, fetchErr)
			}
		}

		if t.Progress != nil {
			t.Progress(Update{Index: i, Bytes: n, Err: err, Done: done, Total: total})
		}
	}

	log.With(log.Fields{
		"template": spec.Template(),
		"count":    total,
		"dir":      dir,
	}).Info("retrieving segments")

	for w := t.workers(total); w > 0; w-- {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				file, n, err := t.fetch(ctx, client, headers, spec, dir, i)
				settle(i, file, n, err)
			}
		}()
	}

send:
	for _, i := range all {
		select {
		case indices <- i:
		case <-ctx.Done():
			break send
		}
	}
	close(indices)
	wg.Wait()

	for _, i := range all {
		if _, ok := retrieved[i]; !ok {
			result.Failed = append(result.Failed, i)
		}
	}
	result.normalize()

	if cause := context.Cause(ctx); cause != nil {
		if errors.Is(cause, ErrAuthExpired) {
			return result, fmt.Errorf("%w: %w", ErrAuthExpired, cause)
		}
		return result, fmt.Errorf("retrieval interrupted: %w", cause)
	}

	return result, nil
}

func (t *HTTP) fetch(ctx context.Context, client *http.Client, headers http.Header, spec segment.RangeSpec, dir string, i uint64) (segment.File, int64, error) {
	var (
		target  = filepath.Join(dir, spec.Filename(i))
		url     = spec.URL(i)
		attempt int
		written int64
	)

	operation := func() error {
		attempt++
		n, status, err := t.get(ctx, client, headers, url, target)
		if err == nil {
			written = n
			return nil
		}

		if isAuthStatus(status) {
			return backoff.Permanent(&SegmentFetchError{Index: i, Attempts: attempt, Status: status, Err: ErrAuthExpired})
		}
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}

		return &SegmentFetchError{Index: i, Attempts: attempt, Status: status, Err: err}
	}

	notify := func(err error, wait time.Duration) {
		log.With(log.Fields{"index": i, "attempt": attempt, "wait": wait}).Warnf("segment fetch failed: %s", err)
	}

	err := backoff.RetryNotify(operation, t.policy(ctx), notify)
	if err == nil {
		return segment.File{Index: i, Path: target}, written, nil
	}

	if errors.Is(err, ErrAuthExpired) {
		return segment.File{}, 0, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return segment.File{}, 0, fmt.Errorf("segment %d: %w", i, ctxErr)
	}

	return segment.File{}, 0, err
}

func (t *HTTP) get(ctx context.Context, client *http.Client, headers http.Header, url, target string) (int64, int, error) {
	if t.SegmentTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.SegmentTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, 0, err
	}
	req.Header = headers.Clone()
	req.Host = headers.Get("Host")

	resp, err := client.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return 0, resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status)
	}

	file, err := filesystem.API().Create(target)
	if err != nil {
		return 0, resp.StatusCode, err
	}

	n, err := io.Copy(file, resp.Body)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return n, resp.StatusCode, fmt.Errorf("write %s: %w", filepath.Base(target), err)
	}

	return n, resp.StatusCode, nil
}
