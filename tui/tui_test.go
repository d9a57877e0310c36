package tui

import (
	"bytes"
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hlsrip-cli/hlsrip/grab"
	"github.com/hlsrip-cli/hlsrip/retrieve"
	. "github.com/smartystreets/goconvey/convey"
)

func TestModel(t *testing.T) {
	Convey("Given a progress model", t, func() {
		cancelled := false
		m := newModel(func() { cancelled = true })

		Convey("When stages and updates arrive", func() {
			m.Update(stageMsg{stage: grab.StageRetrieve, detail: "https://cdn.example/v-[0-9].ts"})
			m.Update(progressMsg{Index: 0, Bytes: 1500, Done: 1, Total: 4})
			m.Update(progressMsg{Index: 1, Err: &retrieve.SegmentFetchError{Index: 1, Status: 500}, Done: 2, Total: 4})
			m.Update(progressMsg{Index: 2, Err: context.Canceled, Done: 3, Total: 4})

			Convey("Then the counters follow", func() {
				So(m.stage, ShouldEqual, grab.StageRetrieve)
				So(m.done, ShouldEqual, uint64(3))
				So(m.total, ShouldEqual, uint64(4))
				So(m.bytes, ShouldEqual, int64(1500))
				So(m.failed, ShouldEqual, 1)
				So(m.percent(), ShouldAlmostEqual, 0.75)
			})

			Convey("Then the view shows them", func() {
				view := m.View()
				So(view, ShouldContainSubstring, "3/4 segments")
				So(view, ShouldContainSubstring, "1 failed")
			})
		})

		Convey("When the run finishes", func() {
			_, cmd := m.Update(doneMsg{err: errors.New("boom")})

			Convey("Then the program quits and shows the error", func() {
				So(cmd, ShouldNotBeNil)
				So(m.finished, ShouldBeTrue)
				So(m.View(), ShouldContainSubstring, "boom")
			})
		})

		Convey("When the user aborts", func() {
			_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

			Convey("Then the run is cancelled", func() {
				So(cancelled, ShouldBeTrue)
				So(m.aborted, ShouldBeTrue)
				So(cmd, ShouldNotBeNil)
			})
		})

		Convey("When the window is resized", func() {
			m.Update(tea.WindowSizeMsg{Width: 40, Height: 10})

			Convey("Then the bar shrinks", func() {
				So(m.width, ShouldEqual, 40)
				So(m.progressC.Width, ShouldEqual, 36)
			})
		})
	})
}

func TestPlain(t *testing.T) {
	Convey("Given a plain renderer", t, func() {
		var buf bytes.Buffer
		p := NewPlain(&buf)

		Convey("When a run reports", func() {
			p.Stage(grab.StageFetch, "https://cdn.example/v.m3u8")
			p.Progress(retrieve.Update{Bytes: 1000, Done: 1, Total: 2})
			p.Progress(retrieve.Update{Bytes: 1000, Err: &retrieve.SegmentFetchError{Index: 1, Status: 404, Attempts: 3}, Done: 2, Total: 2})
			p.Stage(grab.StageDone, "ignored")

			Convey("Then stages, failures and the final count are printed", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "Fetch: https://cdn.example/v.m3u8")
				So(out, ShouldContainSubstring, "segment 1: status 404 after 3 attempts")
				So(out, ShouldContainSubstring, "2/2 segments, 2.0 kB")
				So(out, ShouldNotContainSubstring, "ignored")
			})
		})

		Convey("When a prompt needs the terminal", func() {
			var ran bool
			err := p.Suspend(func() error {
				ran = true
				return nil
			})

			Convey("Then it runs in place", func() {
				So(err, ShouldBeNil)
				So(ran, ShouldBeTrue)
			})
		})
	})
}
