// Package retrieve downloads every segment of a range onto local storage.
package retrieve

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/hlsrip-cli/hlsrip/auth"
	"github.com/hlsrip-cli/hlsrip/segment"
	"github.com/samber/lo"
	"golang.org/x/exp/slices"
)

var (
	// ErrAuthExpired is returned when the host answers 401 or 403; the whole retrieval is aborted.
	ErrAuthExpired = errors.New("authentication expired")
	// ErrTransportUnavailable is returned when an external transport cannot be run.
	ErrTransportUnavailable = errors.New("transport unavailable")
)

// Transport fetches all segments described by spec into dir.
//
// A non-nil Result is returned even with an error so callers can report
// how far the retrieval went.
type Transport interface {
	FetchRange(ctx context.Context, spec segment.RangeSpec, ac auth.Context, dir string) (*Result, error)
}

// Result is the outcome of one range retrieval.
type Result struct {
	// Retrieved is sorted by index.
	Retrieved []segment.File
	// Failed is sorted and lists every index that has no file.
	Failed []uint64
	// Errors holds the last failure of each index that was attempted and failed.
	Errors []*SegmentFetchError
	Bytes  int64
}

// Degraded reports whether some indices are missing.
func (r *Result) Degraded() bool {
	return len(r.Failed) > 0
}

func (r *Result) normalize() {
	segment.SortByIndex(r.Retrieved)
	slices.Sort(r.Failed)
	r.Failed = lo.Uniq(r.Failed)
	slices.SortFunc(r.Errors, func(a, b *SegmentFetchError) int {
		switch {
		case a.Index < b.Index:
			return -1
		case a.Index > b.Index:
			return 1
		}
		return 0
	})
}

// SegmentFetchError is the last failure recorded for one index.
type SegmentFetchError struct {
	Index    uint64
	Attempts int
	// Status is the HTTP status of the last response, 0 when none arrived.
	Status int
	Err    error
}

func (e *SegmentFetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("segment %d: status %d after %d attempts", e.Index, e.Status, e.Attempts)
	}
	return fmt.Sprintf("segment %d: %s after %d attempts", e.Index, e.Err, e.Attempts)
}

func (e *SegmentFetchError) Unwrap() error {
	return e.Err
}

// Update is sent to a progress callback after each index settles.
type Update struct {
	Index uint64
	Bytes int64
	Err   error
	// Done counts settled indices, Total the size of the range.
	Done, Total uint64
}

// Progress receives retrieval updates. Calls are serialized.
type Progress func(Update)

func isAuthStatus(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

