package log

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/hlsrip-cli/hlsrip/filesystem"
	"github.com/hlsrip-cli/hlsrip/key"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func TestLogging(t *testing.T) {
	Convey("Given logging is disabled", t, func() {
		enabled = false

		Convey("With discards entries", func() {
			entry := With(Fields{"index": 3})
			So(entry, ShouldNotBeNil)
			So(func() { entry.Info("dropped") }, ShouldNotPanic)
		})
	})

	Convey("Given a writer sink", t, func() {
		viper.Set(key.LogsLevel, "debug")
		viper.Set(key.LogsJson, false)
		var buf bytes.Buffer
		SetupWriter(&buf)

		Convey("Structured fields reach the output", func() {
			With(Fields{"index": 42}).Info("segment done")
			So(buf.String(), ShouldContainSubstring, "segment done")
			So(buf.String(), ShouldContainSubstring, "index=42")
		})

		Convey("Debug messages pass at debug level", func() {
			Debugf("attempt %d", 2)
			So(buf.String(), ShouldContainSubstring, "attempt 2")
		})

		Reset(func() {
			enabled = false
		})
	})
}

func TestPrune(t *testing.T) {
	Convey("Given a log directory with old and recent files", t, func() {
		filesystem.SetMemMapFs()
		fs := filesystem.API()
		now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
		So(fs.MkdirAll("/logs", 0755), ShouldBeNil)

		write := func(name string, age time.Duration) {
			path := filepath.Join("/logs", name)
			So(fs.WriteFile(path, []byte("entry\n"), 0644), ShouldBeNil)
			So(fs.Chtimes(path, now.Add(-age), now.Add(-age)), ShouldBeNil)
		}
		write("2024-04-01.log", 49*24*time.Hour)
		write("2024-05-19.log", 24*time.Hour)
		write("notes.txt", 90*24*time.Hour)

		Convey("When pruned", func() {
			removed := Prune("/logs", Retention, now)

			Convey("Then only expired log files are removed", func() {
				So(removed, ShouldEqual, 1)
				So(lo.Must(fs.Exists("/logs/2024-04-01.log")), ShouldBeFalse)
				So(lo.Must(fs.Exists("/logs/2024-05-19.log")), ShouldBeTrue)
				So(lo.Must(fs.Exists("/logs/notes.txt")), ShouldBeTrue)
			})
		})

		Reset(filesystem.SetOsFs)
	})
}
