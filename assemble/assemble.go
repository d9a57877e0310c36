// Package assemble turns a complete, ordered set of segments into one media file.
package assemble

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hlsrip-cli/hlsrip/constant"
	"github.com/hlsrip-cli/hlsrip/filesystem"
	"github.com/hlsrip-cli/hlsrip/log"
	"github.com/hlsrip-cli/hlsrip/segment"
	"github.com/samber/lo"
)

var (
	ErrIncompleteSegmentSet = errors.New("incomplete segment set")
	ErrToolUnavailable      = errors.New("assembly tool unavailable")
	ErrAssemblyFailed       = errors.New("assembly failed")
)

// IncompleteError lists why a segment set cannot be assembled.
type IncompleteError struct {
	Missing    []uint64
	Duplicated []uint64
	// Unexpected holds indices outside the requested range.
	Unexpected []uint64
}

func (e *IncompleteError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing %s", summarize(e.Missing)))
	}
	if len(e.Duplicated) > 0 {
		parts = append(parts, fmt.Sprintf("duplicated %s", summarize(e.Duplicated)))
	}
	if len(e.Unexpected) > 0 {
		parts = append(parts, fmt.Sprintf("out of range %s", summarize(e.Unexpected)))
	}
	return fmt.Sprintf("%s: %s", ErrIncompleteSegmentSet, strings.Join(parts, ", "))
}

func (e *IncompleteError) Is(target error) bool {
	return target == ErrIncompleteSegmentSet
}

// FailedError is a remux that ran and did not succeed.
type FailedError struct {
	Tool     string
	ExitCode int
	Stderr   string
}

func (e *FailedError) Error() string {
	msg := fmt.Sprintf("%s: %s exited with status %d", ErrAssemblyFailed, e.Tool, e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += "\n" + s
	}
	return msg
}

func (e *FailedError) Is(target error) bool {
	return target == ErrAssemblyFailed
}

// Job is the input of a remux: the ordering file, the segments in order and the destination.
type Job struct {
	List     string
	Segments []segment.File
	Output   string
}

// Remuxer produces Output from the segments of a Job without re-encoding.
type Remuxer interface {
	Name() string
	Remux(ctx context.Context, job Job) error
}

// Assembler checks a segment set and hands it to its Remuxer.
type Assembler struct {
	Remuxer Remuxer
}

// Assemble writes output from segments covering exactly [first, last].
// Order is by index only. Nothing is written when the set is incomplete.
func (a *Assembler) Assemble(ctx context.Context, segments []segment.File, first, last uint64, output string) error {
	ordered := make([]segment.File, len(segments))
	copy(ordered, segments)
	segment.SortByIndex(ordered)

	if err := Verify(ordered, first, last); err != nil {
		return err
	}

	list := filepath.Join(filepath.Dir(ordered[0].Path), constant.ListFile)
	if err := WriteList(list, ordered); err != nil {
		return err
	}

	if dir := filepath.Dir(output); dir != "" {
		if err := filesystem.API().MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	log.With(log.Fields{
		"remuxer":  a.Remuxer.Name(),
		"segments": len(ordered),
		"output":   output,
	}).Info("assembling")

	return a.Remuxer.Remux(ctx, Job{List: list, Segments: ordered, Output: output})
}

// Verify reports an *IncompleteError unless sorted holds every index of [first, last] once.
func Verify(sorted []segment.File, first, last uint64) error {
	incomplete := &IncompleteError{}

	next := first
	exhausted := false
	for n, f := range sorted {
		switch {
		case f.Index < first || f.Index > last:
			incomplete.Unexpected = append(incomplete.Unexpected, f.Index)
			continue
		case n > 0 && f.Index == sorted[n-1].Index:
			incomplete.Duplicated = append(incomplete.Duplicated, f.Index)
			continue
		}

		for ; !exhausted && next < f.Index; next++ {
			incomplete.Missing = append(incomplete.Missing, next)
		}
		if f.Index == last {
			exhausted = true
		} else {
			next = f.Index + 1
		}
	}

	for !exhausted {
		incomplete.Missing = append(incomplete.Missing, next)
		if next == last {
			break
		}
		next++
	}

	incomplete.Duplicated = lo.Uniq(incomplete.Duplicated)

	if len(incomplete.Missing)+len(incomplete.Duplicated)+len(incomplete.Unexpected) > 0 {
		return incomplete
	}
	return nil
}

// WriteList writes the concat ordering file, one "file '<name>'" line per segment.
func WriteList(path string, ordered []segment.File) error {
	var b strings.Builder
	for _, f := range ordered {
		name := strings.ReplaceAll(filepath.Base(f.Path), "'", `'\''`)
		b.WriteString("file '")
		b.WriteString(name)
		b.WriteString("'\n")
	}

	if err := filesystem.API().WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write list file: %w", err)
	}
	return nil
}

func summarize(indices []uint64) string {
	const shown = 8
	strs := lo.Map(lo.Slice(indices, 0, shown), func(i uint64, _ int) string {
		return fmt.Sprint(i)
	})
	s := strings.Join(strs, ", ")
	if len(indices) > shown {
		s += fmt.Sprintf(" and %d more", len(indices)-shown)
	}
	return "[" + s + "]"
}
