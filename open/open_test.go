package open

import (
	"runtime"
	"testing"

	"github.com/hlsrip-cli/hlsrip/constant"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCommand(t *testing.T) {
	Convey("command builds the platform handler invocation", t, func() {
		cmd, ok := command("https://example.com/login")

		switch runtime.GOOS {
		case constant.Linux, constant.Darwin, constant.Windows, constant.Android:
			So(ok, ShouldBeTrue)
			So(cmd.Args[len(cmd.Args)-1], ShouldEqual, "https://example.com/login")
		default:
			So(ok, ShouldBeFalse)
		}
	})
}
