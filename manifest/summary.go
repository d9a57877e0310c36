package manifest

import (
	"fmt"
	"strings"

	"github.com/grafov/m3u8"
)

// Summary describes a manifest in a few numbers for the inspect command.
type Summary struct {
	Kind           string  `json:"kind"`
	Segments       int     `json:"segments"`
	Variants       int     `json:"variants,omitempty"`
	TargetDuration float64 `json:"target_duration,omitempty"`
	Duration       float64 `json:"duration,omitempty"`
	Ended          bool    `json:"ended"`
}

// Summarize decodes text leniently as an HLS playlist.
func Summarize(text string) (Summary, error) {
	playlist, kind, err := m3u8.DecodeFrom(strings.NewReader(text), false)
	if err != nil {
		return Summary{}, fmt.Errorf("decode playlist: %w", err)
	}

	switch kind {
	case m3u8.MASTER:
		master := playlist.(*m3u8.MasterPlaylist)
		return Summary{Kind: "master", Variants: len(master.Variants)}, nil
	case m3u8.MEDIA:
		media := playlist.(*m3u8.MediaPlaylist)
		s := Summary{
			Kind:           "media",
			TargetDuration: media.TargetDuration,
			Ended:          media.Closed,
		}
		for _, seg := range media.Segments {
			if seg == nil {
				continue
			}
			s.Segments++
			s.Duration += seg.Duration
		}
		return s, nil
	default:
		return Summary{}, fmt.Errorf("unknown playlist type")
	}
}
