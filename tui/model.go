package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/hlsrip-cli/hlsrip/grab"
	"github.com/hlsrip-cli/hlsrip/retrieve"
)

type (
	stageMsg struct {
		stage  grab.Stage
		detail string
	}
	progressMsg retrieve.Update
	doneMsg     struct {
		report *grab.Report
		err    error
	}
)

type keymap struct {
	quit key.Binding
}

func newKeymap() keymap {
	return keymap{
		quit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+d"),
			key.WithHelp("ctrl+c", "abort"),
		),
	}
}

// model is the bubble shown while a run is in flight.
type model struct {
	cancel context.CancelFunc
	keymap keymap

	spinnerC  spinner.Model
	progressC progress.Model

	stage  grab.Stage
	detail string

	done, total uint64
	failed      int
	bytes       int64

	finished bool
	aborted  bool
	report   *grab.Report
	err      error

	width int
}

func newModel(cancel context.CancelFunc) *model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &model{
		cancel:    cancel,
		keymap:    newKeymap(),
		spinnerC:  s,
		progressC: progress.New(progress.WithDefaultGradient()),
		width:     80,
	}
}

func (m *model) Init() tea.Cmd {
	return m.spinnerC.Tick
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keymap.quit) {
			m.aborted = true
			m.cancel()
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progressC.Width = min(msg.Width-4, 60)
	case stageMsg:
		m.stage = msg.stage
		m.detail = msg.detail
	case progressMsg:
		m.done = msg.Done
		m.total = msg.Total
		m.bytes += msg.Bytes
		var fetchErr *retrieve.SegmentFetchError
		if errors.As(msg.Err, &fetchErr) {
			m.failed++
		}
	case doneMsg:
		m.finished = true
		m.report = msg.report
		m.err = msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinnerC, cmd = m.spinnerC.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *model) percent() float64 {
	if m.total == 0 {
		return 0
	}
	return float64(m.done) / float64(m.total)
}
