// Package segment infers the numeric addressing scheme of HLS media segments
// and turns it into a single range template covering the whole recording.
package segment

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/hlsrip-cli/hlsrip/constant"
	"golang.org/x/exp/slices"
)

// ErrPatternNotFound is returned when no segment line carries a numeric index.
var ErrPatternNotFound = errors.New("no sequential segment pattern found")

// Pattern describes a contiguous run of zero-padded segment indices.
type Pattern struct {
	First uint64 `json:"first"`
	Last  uint64 `json:"last"`
	// Pad is the digit count of the smallest observed index, leading zeros included.
	Pad int `json:"pad"`
}

// Count returns the number of indices covered by the pattern.
func (p Pattern) Count() uint64 {
	return p.Last - p.First + 1
}

var indexPattern = regexp.MustCompile(`(\d+)\.ts(?:$|\?)`)

type candidate struct {
	digits string
	value  uint64
}

// Detect scans manifest text for sequential segment references.
//
// Only non-directive lines whose path ends in ".ts" take part. The width of
// the smallest index wins even when larger indices need more digits.
func Detect(text string) (Pattern, error) {
	var candidates []candidate

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !strings.HasSuffix(stripQuery(line), constant.SegmentSuffix) {
			continue
		}

		match := indexPattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}

		value, err := strconv.ParseUint(match[1], 10, 64)
		if err != nil {
			continue
		}

		candidates = append(candidates, candidate{digits: match[1], value: value})
	}

	if len(candidates) == 0 {
		return Pattern{}, ErrPatternNotFound
	}

	slices.SortStableFunc(candidates, func(a, b candidate) int {
		switch {
		case a.value < b.value:
			return -1
		case a.value > b.value:
			return 1
		default:
			return 0
		}
	})

	first, last := candidates[0], candidates[len(candidates)-1]
	return Pattern{
		First: first.value,
		Last:  last.value,
		Pad:   len(first.digits),
	}, nil
}

func stripQuery(line string) string {
	if i := strings.IndexByte(line, '?'); i >= 0 {
		return line[:i]
	}
	return line
}
