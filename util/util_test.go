package util

import (
	"testing"

	"github.com/hlsrip-cli/hlsrip/filesystem"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSanitizeFilename(t *testing.T) {
	Convey("SanitizeFilename", t, func() {
		Convey("Should replace invalid chars", func() {
			So(SanitizeFilename("file:name?.txt"), ShouldEqual, "file_name_.txt")
		})
		Convey("Should collapse underscores", func() {
			So(SanitizeFilename("lecture  week/3"), ShouldEqual, "lecture_week_3")
		})
		Convey("Should trim separators", func() {
			So(SanitizeFilename("-file-name-"), ShouldEqual, "file-name")
		})
	})
}

func TestQuantify(t *testing.T) {
	Convey("Quantify", t, func() {
		So(Quantify(1, "segment", "segments"), ShouldEqual, "1 segment")
		So(Quantify(0, "segment", "segments"), ShouldEqual, "0 segments")
	})
}

func TestCapitalize(t *testing.T) {
	Convey("Capitalize", t, func() {
		So(Capitalize("history file"), ShouldEqual, "History file")
		So(Capitalize(""), ShouldEqual, "")
	})
}

func TestDelete(t *testing.T) {
	Convey("Given an in-memory filesystem", t, func() {
		filesystem.SetMemMapFs()
		fs := filesystem.API()

		So(fs.MkdirAll("/cache/versions", 0755), ShouldBeNil)
		So(fs.WriteFile("/cache/versions/latest", []byte("0.3.1"), 0644), ShouldBeNil)
		So(fs.WriteFile("/history.json", []byte("{}"), 0644), ShouldBeNil)

		Convey("Delete removes directories recursively", func() {
			So(Delete("/cache"), ShouldBeNil)
			So(lo.Must(fs.Exists("/cache/versions/latest")), ShouldBeFalse)
		})

		Convey("Delete removes single files", func() {
			So(Delete("/history.json"), ShouldBeNil)
			So(lo.Must(fs.Exists("/history.json")), ShouldBeFalse)
		})

		Convey("Delete ignores missing paths", func() {
			So(Delete("/nowhere"), ShouldBeNil)
		})

		Reset(filesystem.SetOsFs)
	})
}
