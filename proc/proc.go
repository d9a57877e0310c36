// Package proc runs the external tools the pipeline delegates to (curl, ffmpeg).
// Each child gets its own process group so cancellation takes its children down too.
package proc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/hlsrip-cli/hlsrip/log"
)

// ErrNotFound is returned when the executable is not on PATH.
var ErrNotFound = errors.New("executable not found")

// ExitError reports a child that ran and exited with a non-zero status.
type ExitError struct {
	Name   string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Name, e.Code)
	if tail := lastLine(e.Stderr); tail != "" {
		msg += ": " + tail
	}
	return msg
}

// Command describes one invocation.
type Command struct {
	Name string
	Args []string
	Dir  string

	// OnStdout and OnStderr, when set, receive each complete output line
	// while the child runs, without the trailing newline.
	OnStdout func(line string)
	OnStderr func(line string)
}

// String renders the command line for logs.
func (c Command) String() string {
	quoted := make([]string, 0, len(c.Args)+1)
	quoted = append(quoted, c.Name)
	for _, a := range c.Args {
		if strings.ContainsAny(a, " \t'\"#[]?&;") {
			a = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
		}
		quoted = append(quoted, a)
	}
	return strings.Join(quoted, " ")
}

// Output is what a finished child wrote.
type Output struct {
	Stdout []byte
	Stderr []byte
}

// Lookup resolves name on PATH.
func Lookup(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return path, nil
}

// Run starts c and waits for it. When ctx is done first the whole process
// group is killed and ctx's error is returned.
func Run(ctx context.Context, c Command) (*Output, error) {
	path, err := Lookup(c.Name)
	if err != nil {
		return nil, err
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(path, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdout = tee(&stdout, c.OnStdout)
	cmd.Stderr = tee(&stderr, c.OnStderr)
	cmd.SysProcAttr = sysProcAttr()

	log.Infof("exec: %s", c)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", c.Name, err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case err = <-done:
	case <-ctx.Done():
		_ = killProcess(cmd)
		<-done
		return &Output{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, ctx.Err()
	}

	out := &Output{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return out, &ExitError{Name: c.Name, Code: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return out, fmt.Errorf("run %s: %w", c.Name, err)
	}

	return out, nil
}

func tee(buf *bytes.Buffer, fn func(string)) io.Writer {
	if fn == nil {
		return buf
	}
	return io.MultiWriter(buf, &lineWriter{fn: fn})
}

// lineWriter splits a stream into lines for fn. A trailing partial line is held back.
type lineWriter struct {
	fn      func(string)
	pending []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.pending = append(w.pending, p...)
	for {
		i := bytes.IndexByte(w.pending, '\n')
		if i < 0 {
			break
		}
		w.fn(strings.TrimSuffix(string(w.pending[:i]), "\r"))
		w.pending = w.pending[i+1:]
	}
	return len(p), nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
