package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/hlsrip-cli/hlsrip/filesystem"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"
)

func init() {
	filesystem.SetMemMapFs()
}

var now = time.Date(2025, 8, 13, 22, 15, 30, 0, time.Local)

func TestTag(t *testing.T) {
	Convey("Given no tag", t, func() {
		Convey("Then the timestamp is used", func() {
			So(Tag("", now), ShouldEqual, "20250813_221530")
			So(Tag("  ", now), ShouldEqual, "20250813_221530")
		})
	})

	Convey("Given a user tag", t, func() {
		Convey("Then path separators are neutralised", func() {
			So(Tag("../lecture 3", now), ShouldEqual, "lecture_3")
		})
	})
}

func TestStamp(t *testing.T) {
	Convey("Given an output path", t, func() {
		Convey("Then the tag goes before the extension", func() {
			So(Stamp("video.mp4", "20250813_221530"), ShouldEqual, "video_20250813_221530.mp4")
			So(Stamp(filepath.Join("out", "clip.ts"), "t1"), ShouldEqual, filepath.Join("out", "clip_t1.ts"))
		})

		Convey("Then a missing extension becomes .mp4", func() {
			So(Stamp("video", "t1"), ShouldEqual, "video_t1.mp4")
		})
	})
}

func TestNew(t *testing.T) {
	Convey("Given an output directory", t, func() {
		s, err := New("/ts_parts", "", "video.mp4", now)

		Convey("Then the session directory exists", func() {
			So(err, ShouldBeNil)
			So(s.Dir, ShouldEqual, filepath.Join("/ts_parts", "20250813_221530"))

			exists, err := afero.DirExists(filesystem.API(), s.Dir)
			So(err, ShouldBeNil)
			So(exists, ShouldBeTrue)
		})

		Convey("Then the output is stamped with the tag", func() {
			So(s.Output, ShouldEqual, "video_20250813_221530.mp4")
		})
	})

	Convey("Given no output", t, func() {
		_, err := New("/ts_parts", "x", "", now)
		So(err, ShouldNotBeNil)
	})
}
