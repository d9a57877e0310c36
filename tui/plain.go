package tui

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hlsrip-cli/hlsrip/grab"
	"github.com/hlsrip-cli/hlsrip/icon"
	"github.com/hlsrip-cli/hlsrip/retrieve"
)

// Plain prints progress as lines, for logs and pipes.
type Plain struct {
	out      io.Writer
	interval time.Duration

	mu    sync.Mutex
	last  time.Time
	bytes int64
}

// NewPlain returns a renderer writing to out.
func NewPlain(out io.Writer) *Plain {
	return &Plain{out: out, interval: 2 * time.Second}
}

func (p *Plain) Stage(stage grab.Stage, detail string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if stage == grab.StageDone {
		return
	}
	fmt.Fprintf(p.out, "%s %s: %s\n", icon.Get(icon.Progress), stageTitle(stage), detail)
}

// Suspend runs fn right away, lines need no terminal handover.
func (p *Plain) Suspend(fn func() error) error {
	return fn()
}

// Progress prints at most one line per interval, plus the final one.
func (p *Plain) Progress(u retrieve.Update) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.bytes += u.Bytes
	var fetchErr *retrieve.SegmentFetchError
	if errors.As(u.Err, &fetchErr) {
		fmt.Fprintf(p.out, "%s %s\n", icon.Get(icon.Warn), fetchErr)
	}

	now := time.Now()
	if u.Done != u.Total && now.Sub(p.last) < p.interval {
		return
	}
	p.last = now

	fmt.Fprintf(p.out, "%s %d/%d segments, %s\n", icon.Get(icon.Segment), u.Done, u.Total, humanize.Bytes(uint64(p.bytes)))
}
