// Package session lays out the working directory of one run.
package session

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/hlsrip-cli/hlsrip/constant"
	"github.com/hlsrip-cli/hlsrip/filesystem"
	"github.com/hlsrip-cli/hlsrip/segment"
	"github.com/hlsrip-cli/hlsrip/util"
)

// Session is the scope of one run: its tag, its segment directory and its final output.
// The directory is kept after the run for inspection.
type Session struct {
	Tag      string
	Dir      string
	Output   string
	Segments []segment.File
}

// Tag returns tag sanitized for use in paths, or a timestamp tag when empty.
func Tag(tag string, now time.Time) string {
	if tag = util.SanitizeFilename(tag); tag != "" {
		return tag
	}
	return now.Format(constant.TagLayout)
}

// Stamp inserts "_<tag>" before the extension of output, defaulting the extension to .mp4.
func Stamp(output, tag string) string {
	ext := filepath.Ext(output)
	stem := strings.TrimSuffix(filepath.Base(output), ext)
	if ext == "" {
		ext = constant.DefaultOutputExt
	}
	return filepath.Join(filepath.Dir(output), fmt.Sprintf("%s_%s%s", stem, tag, ext))
}

// New creates the segment directory <outdir>/<tag> and derives the stamped output path.
func New(outdir, tag, output string, now time.Time) (*Session, error) {
	if output == "" {
		return nil, errors.New("output path is empty")
	}

	tag = Tag(tag, now)
	dir := filepath.Join(outdir, tag)

	if err := filesystem.API().MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}

	return &Session{
		Tag:    tag,
		Dir:    dir,
		Output: Stamp(output, tag),
	}, nil
}

