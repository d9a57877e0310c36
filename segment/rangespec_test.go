package segment

import (
	"errors"
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestBuildRange(t *testing.T) {
	Convey("Given a manifest URL with a query string", t, func() {
		manifestURL := "https://vod.example.com/hls/ABC.m3u8?token=a%2Fb&exp=99"
		p := Pattern{First: 10, Last: 42, Pad: 6}

		spec, err := BuildRange(manifestURL, p)
		So(err, ShouldBeNil)

		Convey("The template replaces the manifest suffix with a padded range", func() {
			So(spec.Template(), ShouldEqual, "https://vod.example.com/hls/ABC-[000010-000042].ts?token=a%2Fb&exp=99")
		})

		Convey("Single-index URLs expand the range", func() {
			So(spec.URL(13), ShouldEqual, "https://vod.example.com/hls/ABC-000013.ts?token=a%2Fb&exp=99")
			So(spec.Filename(13), ShouldEqual, "000013.ts")
		})

		Convey("Indices enumerate the inclusive range", func() {
			So(spec.Count(), ShouldEqual, uint64(33))
			indices := spec.Indices()
			So(len(indices), ShouldEqual, 33)
			So(indices[0], ShouldEqual, 10)
			So(indices[32], ShouldEqual, 42)
		})

		Convey("Building twice yields byte-identical templates", func() {
			again, err := BuildRange(manifestURL, p)
			So(err, ShouldBeNil)
			So(again, ShouldResemble, spec)
			So(again.Template(), ShouldEqual, spec.Template())
		})
	})

	Convey("Given an uppercase manifest suffix", t, func() {
		spec, err := BuildRange("http://h.example/a/B.M3U8", Pattern{First: 5, Last: 5, Pad: 1})

		So(err, ShouldBeNil)
		So(spec.Template(), ShouldEqual, "http://h.example/a/B-[5-5].ts")
	})

	Convey("Given an index wider than the detected padding", t, func() {
		spec, err := BuildRange("http://h.example/v.m3u8", Pattern{First: 98, Last: 100, Pad: 2})

		Convey("The wider index is passed through unchanged", func() {
			So(err, ShouldBeNil)
			So(spec.Template(), ShouldEqual, "http://h.example/v-[98-100].ts")
			So(spec.Filename(100), ShouldEqual, "100.ts")
		})
	})

	Convey("Given a pattern whose spread is absurd", t, func() {
		manifestURL := "https://vod.example.com/hls/ABC.m3u8"

		Convey("The full uint64 spread is rejected instead of wrapping to zero", func() {
			_, err := BuildRange(manifestURL, Pattern{First: 0, Last: math.MaxUint64, Pad: 1})
			So(errors.Is(err, ErrRangeTooLarge), ShouldBeTrue)
		})

		Convey("A spread of billions is rejected", func() {
			_, err := BuildRange(manifestURL, Pattern{First: 1, Last: 99999999999, Pad: 1})
			So(errors.Is(err, ErrRangeTooLarge), ShouldBeTrue)
		})

		Convey("An inverted pattern is rejected", func() {
			_, err := BuildRange(manifestURL, Pattern{First: 9, Last: 3, Pad: 1})
			So(errors.Is(err, ErrRangeTooLarge), ShouldBeTrue)
		})

		Convey("The cap is inclusive of its own size", func() {
			spec, err := BuildRangeLimit(manifestURL, Pattern{First: 1, Last: 10, Pad: 2}, 10)
			So(err, ShouldBeNil)
			So(spec.Count(), ShouldEqual, uint64(10))

			_, err = BuildRangeLimit(manifestURL, Pattern{First: 1, Last: 11, Pad: 2}, 10)
			So(errors.Is(err, ErrRangeTooLarge), ShouldBeTrue)
		})
	})

	Convey("Given a URL that is not a manifest", t, func() {
		for _, u := range []string{
			"https://vod.example.com/hls/ABC.mp4",
			"https://vod.example.com/hls/ABC.m3u8/",
			"/relative/ABC.m3u8",
			"://bad",
		} {
			_, err := BuildRange(u, Pattern{First: 1, Last: 2, Pad: 1})
			So(errors.Is(err, ErrNotAManifestURL), ShouldBeTrue)
		}
	})
}
