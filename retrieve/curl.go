package retrieve

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hlsrip-cli/hlsrip/auth"
	"github.com/hlsrip-cli/hlsrip/filesystem"
	"github.com/hlsrip-cli/hlsrip/log"
	"github.com/hlsrip-cli/hlsrip/proc"
	"github.com/hlsrip-cli/hlsrip/segment"
)

// statusPrefix marks the per-transfer status lines curl writes to stderr,
// apart from its own error messages.
const statusPrefix = "status:"

// Curl hands the whole range template to curl's URL globbing in one invocation.
type Curl struct {
	// Binary defaults to "curl".
	Binary string
	// Attempts is the total number of tries per index, including the first.
	Attempts int
	Progress Progress
}

func (c *Curl) binary() string {
	if c.Binary == "" {
		return "curl"
	}
	return c.Binary
}

func (c *Curl) attempts() int {
	return max(c.Attempts, 1)
}

// Args builds the curl argument list for spec.
// "#1" in the output name is replaced by curl with the globbed index.
func (c *Curl) Args(spec segment.RangeSpec, ac auth.Context) []string {
	args := []string{"-L", "--compressed", "--fail", "--silent", "--show-error"}

	// --retry counts the tries after the first one
	if retries := c.attempts() - 1; retries > 0 {
		args = append(args, "--retry", strconv.Itoa(retries))
	}
	if ac.UserAgent != "" {
		args = append(args, "-A", ac.UserAgent)
	}

	header := func(name, value string) {
		if value != "" {
			args = append(args, "-H", name+": "+value)
		}
	}
	header("Referer", ac.Referer)
	header("Origin", ac.Origin)
	header("Host", spec.Host)
	header("Cookie", ac.Cookie)
	header("Accept", "*/*")

	return append(args,
		// stderr is unbuffered, so each status arrives as its transfer ends
		"-w", `%{stderr}`+statusPrefix+`%{http_code}\n`,
		spec.Template(),
		"-o", "#1"+spec.Suffix,
	)
}

// FetchRange runs curl in dir and inspects what it left behind.
// Transfers run in index order, and the first 401 or 403 stops curl and
// returns ErrAuthExpired.
func (c *Curl) FetchRange(ctx context.Context, spec segment.RangeSpec, ac auth.Context, dir string) (*Result, error) {
	if _, err := proc.Lookup(c.binary()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransportUnavailable, err)
	}

	if err := filesystem.API().MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create segment directory: %w", err)
	}

	log.With(log.Fields{"template": spec.Template(), "dir": dir}).Info("retrieving segments with curl")

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	// written by the stderr reader only, read once Run has returned
	var statuses []int
	onStderr := func(line string) {
		status, ok := parseStatus(line)
		if !ok {
			return
		}
		statuses = append(statuses, status)
		if isAuthStatus(status) {
			index := spec.First + uint64(len(statuses)-1)
			cancel(fmt.Errorf("%w: segment %d answered %d", ErrAuthExpired, index, status))
		}
	}

	out, err := proc.Run(runCtx, proc.Command{
		Name:     c.binary(),
		Args:     c.Args(spec, ac),
		Dir:      dir,
		OnStderr: onStderr,
	})

	var exitErr *proc.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		// some transfers failed, the rest is usable
		log.Warnf("curl: %s", exitErr)
	case errors.Is(err, proc.ErrNotFound):
		return nil, fmt.Errorf("%w: %w", ErrTransportUnavailable, err)
	default:
		if out == nil {
			return nil, err
		}
	}

	result := c.collect(spec, dir, statuses)

	if cause := context.Cause(runCtx); errors.Is(cause, ErrAuthExpired) {
		return result, cause
	}

	if err != nil && exitErr == nil {
		return result, fmt.Errorf("retrieval interrupted: %w", err)
	}

	return result, nil
}

// collect settles every index of spec. statuses holds the reported status of
// the leading transfers in index order. When some were reported, indices past
// them did not complete; with none at all, a non-empty file counts as retrieved.
func (c *Curl) collect(spec segment.RangeSpec, dir string, statuses []int) *Result {
	var (
		result   = &Result{}
		total    = spec.Count()
		done     uint64
		reported = len(statuses) > 0
	)

	for _, i := range spec.Indices() {
		path := filepath.Join(dir, spec.Filename(i))

		status := 0
		if pos := i - spec.First; pos < uint64(len(statuses)) {
			status = statuses[pos]
		}

		info, statErr := filesystem.API().Stat(path)
		exists := statErr == nil && !info.IsDir()

		var ok bool
		switch {
		case status != 0:
			ok = exists && status >= 200 && status < 300
		case reported:
			ok = false
		default:
			ok = exists && info.Size() > 0
		}

		update := Update{Index: i, Total: total}
		if ok {
			result.Retrieved = append(result.Retrieved, segment.File{Index: i, Path: path})
			result.Bytes += info.Size()
			update.Bytes = info.Size()
		} else {
			result.Failed = append(result.Failed, i)
			fetchErr := &SegmentFetchError{Index: i, Attempts: c.attempts(), Status: status, Err: errors.New("no output file")}
			switch {
			case isAuthStatus(status):
				fetchErr.Err = ErrAuthExpired
			case status == 0 && reported:
				fetchErr.Err = errors.New("transfer not completed")
			}
			result.Errors = append(result.Errors, fetchErr)
			update.Err = fetchErr
		}

		done++
		update.Done = done
		if c.Progress != nil {
			c.Progress(update)
		}
	}

	result.normalize()
	return result
}

// parseStatus reads one status line written by -w.
func parseStatus(line string) (int, bool) {
	rest, found := strings.CutPrefix(strings.TrimSpace(line), statusPrefix)
	if !found {
		return 0, false
	}
	status, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return status, true
}
