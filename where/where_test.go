package where

import (
	"path/filepath"
	"testing"

	"github.com/hlsrip-cli/hlsrip/filesystem"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Use in-memory filesystem for tests to avoid creating real directories
	filesystem.SetMemMapFs()
}

func TestPaths(t *testing.T) {
	Convey("Path functions", t, func() {
		Convey("Config()", func() {
			path := Config()
			So(path, ShouldNotBeEmpty)
			So(lo.Must(filesystem.API().IsDir(path)), ShouldBeTrue)
		})

		Convey("Cache()", func() {
			path := Cache()
			So(path, ShouldNotBeEmpty)
			So(lo.Must(filesystem.API().IsDir(path)), ShouldBeTrue)
		})

		Convey("Logs()", func() {
			path := Logs()
			So(path, ShouldNotBeEmpty)
			So(lo.Must(filesystem.API().IsDir(path)), ShouldBeTrue)
		})

		Convey("Session() and History() live in the config directory", func() {
			So(filepath.Dir(Session()), ShouldEqual, Config())
			So(filepath.Dir(History()), ShouldEqual, Config())
		})

		Convey("HLSRIP_CONFIG_PATH overrides the config directory", func() {
			t.Setenv(EnvConfigPath, "/custom/hlsrip")
			So(Config(), ShouldEqual, "/custom/hlsrip")
		})
	})
}
