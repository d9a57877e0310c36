package assemble

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hlsrip-cli/hlsrip/constant"
	"github.com/hlsrip-cli/hlsrip/key"
	"github.com/hlsrip-cli/hlsrip/log"
	"github.com/hlsrip-cli/hlsrip/proc"
	"github.com/hlsrip-cli/hlsrip/util"
	"github.com/spf13/viper"
)

// FFmpeg remuxes through ffmpeg's concat demuxer with stream copy.
type FFmpeg struct {
	// Binary defaults to the configured ffmpeg path.
	Binary string
}

func (f *FFmpeg) Name() string {
	return "ffmpeg"
}

func (f *FFmpeg) binary() string {
	if f.Binary != "" {
		return f.Binary
	}
	if b := viper.GetString(key.AssembleFFmpeg); b != "" {
		return b
	}
	return "ffmpeg"
}

// Args builds the ffmpeg command line for job.
// ADTS audio is rewritten for containers that cannot carry it.
func (f *FFmpeg) Args(job Job) []string {
	args := []string{
		"-hide_banner", "-loglevel", "warning", "-y",
		"-f", "concat", "-safe", "0",
		"-i", job.List,
		"-c", "copy",
	}

	if !strings.EqualFold(filepath.Ext(job.Output), constant.SegmentSuffix) {
		args = append(args, "-bsf:a", "aac_adtstoasc")
	}

	return append(args, job.Output)
}

// Remux runs ffmpeg on job. A failed or cancelled run removes whatever output it left.
func (f *FFmpeg) Remux(ctx context.Context, job Job) error {
	_, err := proc.Run(ctx, proc.Command{Name: f.binary(), Args: f.Args(job)})
	if err == nil {
		return nil
	}

	if errors.Is(err, proc.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrToolUnavailable, err)
	}

	if rmErr := util.Delete(job.Output); rmErr != nil {
		log.Warnf("remove partial output: %s", rmErr)
	}

	var exitErr *proc.ExitError
	switch {
	case errors.As(err, &exitErr):
		return &FailedError{Tool: f.Name(), ExitCode: exitErr.Code, Stderr: exitErr.Stderr}
	default:
		return fmt.Errorf("%w: %w", ErrAssemblyFailed, err)
	}
}
