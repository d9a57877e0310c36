package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/hlsrip-cli/hlsrip/grab"
	"github.com/hlsrip-cli/hlsrip/icon"
	"github.com/hlsrip-cli/hlsrip/style"
	"github.com/muesli/reflow/wrap"
)

var paddingStyle = lipgloss.NewStyle().Padding(1, 2)

func (m *model) View() string {
	lines := []string{style.Title("hlsrip"), ""}

	switch {
	case m.finished && m.err != nil:
		lines = append(lines, icon.Get(icon.Fail)+" "+m.wrap(m.err.Error()))
	case m.finished:
		lines = append(lines, icon.Get(icon.Success)+" "+m.wrap(m.report.Summary()))
	case m.aborted:
		lines = append(lines, icon.Get(icon.Warn)+" aborting...")
	default:
		lines = append(lines, m.spinnerC.View()+" "+style.Bold(m.stage.String())+" "+style.Truncate(max(m.width-20, 10))(style.Faint(m.detail)))
	}

	if m.total > 0 {
		lines = append(lines,
			"",
			m.progressC.ViewAs(m.percent()),
			m.counters(),
		)
	}

	if !m.finished && !m.aborted {
		lines = append(lines, "", style.Faint(m.keymap.quit.Help().Key+" "+m.keymap.quit.Help().Desc))
	}

	return paddingStyle.Render(strings.Join(lines, "\n")) + "\n"
}

func (m *model) counters() string {
	s := fmt.Sprintf("%s %d/%d segments  %s", icon.Get(icon.Segment), m.done, m.total, humanize.Bytes(uint64(m.bytes)))
	if m.failed > 0 {
		s += "  " + icon.Get(icon.Warn) + fmt.Sprintf(" %d failed", m.failed)
	}
	return s
}

func (m *model) wrap(s string) string {
	return wrap.String(s, max(m.width-6, 20))
}

// stageTitle is used by the plain renderer as well.
func stageTitle(stage grab.Stage) string {
	return strings.ToUpper(stage.String()[:1]) + stage.String()[1:]
}
