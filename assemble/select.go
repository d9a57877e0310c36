package assemble

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hlsrip-cli/hlsrip/constant"
)

// Remuxer names accepted by Select.
const (
	RemuxerAuto   = "auto"
	RemuxerFFmpeg = "ffmpeg"
	RemuxerConcat = "concat"
)

// Select picks a remuxer by name. "auto" uses byte concatenation for
// transport stream outputs and ffmpeg for everything else.
func Select(name, output string) (Remuxer, error) {
	switch strings.ToLower(name) {
	case RemuxerFFmpeg:
		return &FFmpeg{}, nil
	case RemuxerConcat:
		return Concat{}, nil
	case RemuxerAuto, "":
		if strings.EqualFold(filepath.Ext(output), constant.SegmentSuffix) {
			return Concat{}, nil
		}
		return &FFmpeg{}, nil
	default:
		return nil, fmt.Errorf("unknown remuxer %q, expected one of %s, %s, %s", name, RemuxerAuto, RemuxerFFmpeg, RemuxerConcat)
	}
}
