package proc

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestRun(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on a POSIX shell")
	}

	Convey("Given a shell command", t, func() {
		ctx := context.Background()

		Convey("When it succeeds", func() {
			out, err := Run(ctx, Command{Name: "sh", Args: []string{"-c", "printf ok"}})

			Convey("Then stdout is captured", func() {
				So(err, ShouldBeNil)
				So(string(out.Stdout), ShouldEqual, "ok")
			})
		})

		Convey("When it exits with a status", func() {
			_, err := Run(ctx, Command{Name: "sh", Args: []string{"-c", "echo broken >&2; exit 3"}})

			Convey("Then an ExitError carries the code and stderr", func() {
				var exitErr *ExitError
				So(errors.As(err, &exitErr), ShouldBeTrue)
				So(exitErr.Code, ShouldEqual, 3)
				So(exitErr.Error(), ShouldContainSubstring, "broken")
			})
		})

		Convey("When the context expires first", func() {
			cctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
			defer cancel()

			start := time.Now()
			_, err := Run(cctx, Command{Name: "sh", Args: []string{"-c", "sleep 10"}})

			Convey("Then the child is killed", func() {
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
				So(time.Since(start), ShouldBeLessThan, 5*time.Second)
			})
		})

		Convey("When lines are watched", func() {
			var lines []string
			out, err := Run(ctx, Command{
				Name:     "sh",
				Args:     []string{"-c", "echo one >&2; printf 'two\\nthree' >&2; echo out"},
				OnStderr: func(line string) { lines = append(lines, line) },
			})

			Convey("Then complete lines are delivered and output is still captured", func() {
				So(err, ShouldBeNil)
				So(lines, ShouldResemble, []string{"one", "two"})
				So(string(out.Stderr), ShouldEqual, "one\ntwo\nthree")
				So(string(out.Stdout), ShouldEqual, "out\n")
			})
		})

		Convey("When a watched line cancels the run", func() {
			cctx, cancel := context.WithCancel(ctx)
			defer cancel()

			start := time.Now()
			_, err := Run(cctx, Command{
				Name: "sh",
				Args: []string{"-c", "echo stop >&2; sleep 10"},
				OnStderr: func(line string) {
					if line == "stop" {
						cancel()
					}
				},
			})

			Convey("Then the child is killed early", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				So(time.Since(start), ShouldBeLessThan, 5*time.Second)
			})
		})

		Convey("When the executable is missing", func() {
			_, err := Run(ctx, Command{Name: "hlsrip-no-such-tool"})

			Convey("Then ErrNotFound is returned", func() {
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestCommandString(t *testing.T) {
	Convey("Given arguments with shell metacharacters", t, func() {
		c := Command{Name: "curl", Args: []string{"-o", "#1.ts", "https://h/a-[0-9].ts"}}

		Convey("Then they are quoted", func() {
			So(c.String(), ShouldEqual, "curl -o '#1.ts' 'https://h/a-[0-9].ts'")
		})
	})
}
