package segment

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/hlsrip-cli/hlsrip/constant"
)

// DefaultMaxSegments bounds the range BuildRange accepts.
const DefaultMaxSegments = 100_000

var (
	// ErrNotAManifestURL is returned when the manifest URL path does not end in ".m3u8".
	ErrNotAManifestURL = errors.New("not a manifest URL")
	// ErrRangeTooLarge is returned when a pattern spans more indices than allowed, or none at all.
	ErrRangeTooLarge = errors.New("segment range too large")
)

// RangeSpec is a bracket-range template over numbered segments, derived from
// a manifest URL by replacing its ".m3u8" suffix.
type RangeSpec struct {
	Scheme   string `json:"scheme"`
	Host     string `json:"host"`
	Stem     string `json:"stem"`
	RawQuery string `json:"raw_query,omitempty"`
	Suffix   string `json:"suffix"`
	First    uint64 `json:"first"`
	Last     uint64 `json:"last"`
	Pad      int    `json:"pad"`
}

// BuildRange derives the range template for pattern p from the manifest URL.
// The range is capped at DefaultMaxSegments.
func BuildRange(manifestURL string, p Pattern) (RangeSpec, error) {
	return BuildRangeLimit(manifestURL, p, DefaultMaxSegments)
}

// BuildRangeLimit is BuildRange with an explicit cap on the segment count.
// A non-positive limit falls back to DefaultMaxSegments.
func BuildRangeLimit(manifestURL string, p Pattern, limit int) (RangeSpec, error) {
	if limit <= 0 {
		limit = DefaultMaxSegments
	}

	// compare the spread, Last-First+1 wraps for the full uint64 range
	if p.First > p.Last || p.Last-p.First >= uint64(limit) {
		return RangeSpec{}, fmt.Errorf("%w: %d..%d exceeds %d segments", ErrRangeTooLarge, p.First, p.Last, limit)
	}

	u, err := url.Parse(manifestURL)
	if err != nil {
		return RangeSpec{}, fmt.Errorf("%w: %s", ErrNotAManifestURL, err)
	}

	path := u.EscapedPath()
	if u.Host == "" || !strings.HasSuffix(strings.ToLower(path), constant.ManifestSuffix) {
		return RangeSpec{}, fmt.Errorf("%w: %s", ErrNotAManifestURL, manifestURL)
	}

	return RangeSpec{
		Scheme:   u.Scheme,
		Host:     u.Host,
		Stem:     path[:len(path)-len(constant.ManifestSuffix)],
		RawQuery: u.RawQuery,
		Suffix:   constant.SegmentSuffix,
		First:    p.First,
		Last:     p.Last,
		Pad:      p.Pad,
	}, nil
}

// Format renders index i zero-padded to the detected width.
func (r RangeSpec) Format(i uint64) string {
	return fmt.Sprintf("%0*d", r.Pad, i)
}

// Template renders the bracket-range URL, e.g. ".../ABC-[000010-000042].ts?token=x".
func (r RangeSpec) Template() string {
	return r.join(fmt.Sprintf("[%s-%s]", r.Format(r.First), r.Format(r.Last)))
}

// URL is the template expanded for a single index.
func (r RangeSpec) URL(i uint64) string {
	return r.join(r.Format(i))
}

// Filename is the local name of segment i.
func (r RangeSpec) Filename(i uint64) string {
	return r.Format(i) + r.Suffix
}

// Count returns the number of segments in the range.
func (r RangeSpec) Count() uint64 {
	return r.Last - r.First + 1
}

// Indices lists every index of the range in ascending order.
func (r RangeSpec) Indices() []uint64 {
	out := make([]uint64, 0, r.Count())
	for i := r.First; ; i++ {
		out = append(out, i)
		if i == r.Last {
			break
		}
	}
	return out
}

func (r RangeSpec) join(index string) string {
	var b strings.Builder
	b.WriteString(r.Scheme)
	b.WriteString("://")
	b.WriteString(r.Host)
	b.WriteString(r.Stem)
	b.WriteString("-")
	b.WriteString(index)
	b.WriteString(r.Suffix)
	if r.RawQuery != "" {
		b.WriteString("?")
		b.WriteString(r.RawQuery)
	}
	return b.String()
}
