// Package tui renders the progress of a run on the terminal.
package tui

import (
	"context"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hlsrip-cli/hlsrip/grab"
	"github.com/hlsrip-cli/hlsrip/key"
	"github.com/hlsrip-cli/hlsrip/retrieve"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// Events receives what a running pipeline reports.
type Events interface {
	Stage(stage grab.Stage, detail string)
	Progress(u retrieve.Update)
	// Suspend runs fn with the terminal handed back, for prompts.
	Suspend(fn func() error) error
}

// Job is the work displayed by Run.
type Job func(ctx context.Context, events Events) (*grab.Report, error)

// Interactive reports whether the animated view can be used.
func Interactive() bool {
	return viper.GetBool(key.CliProgress) && term.IsTerminal(int(os.Stderr.Fd()))
}

// Run executes job while rendering its progress on stderr.
// Without a terminal the progress is printed as plain lines instead.
// Run returns only after job has returned.
func Run(ctx context.Context, job Job) (*grab.Report, error) {
	if !Interactive() {
		return job(ctx, NewPlain(os.Stderr))
	}
	return runProgram(ctx, job, os.Stderr)
}

func runProgram(ctx context.Context, job Job, out io.Writer) (*grab.Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(newModel(cancel), tea.WithOutput(out), tea.WithInput(os.Stdin))

	var (
		report *grab.Report
		err    error
		done   = make(chan struct{})
	)

	go func() {
		defer close(done)
		report, err = job(ctx, programEvents{program})
		program.Send(doneMsg{report: report, err: err})
	}()

	if _, runErr := program.Run(); runErr != nil {
		cancel()
		<-done
		if err == nil {
			err = runErr
		}
		return report, err
	}

	cancel()
	<-done
	return report, err
}

type programEvents struct {
	program *tea.Program
}

func (e programEvents) Stage(stage grab.Stage, detail string) {
	e.program.Send(stageMsg{stage: stage, detail: detail})
}

func (e programEvents) Progress(u retrieve.Update) {
	e.program.Send(progressMsg(u))
}

func (e programEvents) Suspend(fn func() error) error {
	if err := e.program.ReleaseTerminal(); err != nil {
		return err
	}
	defer func() {
		_ = e.program.RestoreTerminal()
	}()
	return fn()
}
