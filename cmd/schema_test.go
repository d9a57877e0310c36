package cmd

import (
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestReportSchema(t *testing.T) {
	Convey("Given the run report schema", t, func() {
		raw, err := json.Marshal(reportSchema())
		So(err, ShouldBeNil)

		Convey("Then it names the report fields with their descriptions", func() {
			So(string(raw), ShouldContainSubstring, `"grab.Report"`)
			So(string(raw), ShouldContainSubstring, `"session_dir"`)
			So(string(raw), ShouldContainSubstring, "Indices that could not be retrieved.")
		})
	})
}
