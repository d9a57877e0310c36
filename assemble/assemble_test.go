package assemble

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/hlsrip-cli/hlsrip/filesystem"
	"github.com/hlsrip-cli/hlsrip/segment"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"
)

func init() {
	filesystem.SetMemMapFs()
}

type recorder struct {
	jobs []Job
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) Remux(_ context.Context, job Job) error {
	r.jobs = append(r.jobs, job)
	return nil
}

// writeSegments stores a fake MPEG-TS payload per index and returns the files in the given order.
func writeSegments(dir string, indices ...uint64) []segment.File {
	fs := filesystem.API()
	_ = fs.MkdirAll(dir, 0755)

	files := make([]segment.File, 0, len(indices))
	for _, i := range indices {
		path := filepath.Join(dir, fmt.Sprintf("%03d.ts", i))
		_ = afero.WriteFile(fs, path, []byte{tsSyncByte, byte(i)}, 0644)
		files = append(files, segment.File{Index: i, Path: path})
	}
	return files
}

func TestVerify(t *testing.T) {
	Convey("Given segment sets", t, func() {
		file := func(i uint64) segment.File { return segment.File{Index: i, Path: fmt.Sprint(i)} }

		Convey("Then a complete set passes", func() {
			So(Verify([]segment.File{file(3), file(4), file(5)}, 3, 5), ShouldBeNil)
		})

		Convey("Then gaps are listed", func() {
			err := Verify([]segment.File{file(0), file(1), file(2), file(4)}, 0, 4)

			var incomplete *IncompleteError
			So(errors.As(err, &incomplete), ShouldBeTrue)
			So(incomplete.Missing, ShouldResemble, []uint64{3})
			So(errors.Is(err, ErrIncompleteSegmentSet), ShouldBeTrue)
		})

		Convey("Then a missing tail is listed", func() {
			var incomplete *IncompleteError
			So(errors.As(Verify([]segment.File{file(0)}, 0, 2), &incomplete), ShouldBeTrue)
			So(incomplete.Missing, ShouldResemble, []uint64{1, 2})
		})

		Convey("Then an empty set misses everything", func() {
			var incomplete *IncompleteError
			So(errors.As(Verify(nil, 7, 9), &incomplete), ShouldBeTrue)
			So(incomplete.Missing, ShouldResemble, []uint64{7, 8, 9})
		})

		Convey("Then duplicates and strays are rejected", func() {
			var incomplete *IncompleteError
			err := Verify([]segment.File{file(0), file(1), file(1), file(2), file(9)}, 0, 2)
			So(errors.As(err, &incomplete), ShouldBeTrue)
			So(incomplete.Missing, ShouldBeEmpty)
			So(incomplete.Duplicated, ShouldResemble, []uint64{1})
			So(incomplete.Unexpected, ShouldResemble, []uint64{9})
		})

		Convey("Then the top of the index space does not overflow", func() {
			const top = ^uint64(0)
			So(Verify([]segment.File{file(top - 1), file(top)}, top-1, top), ShouldBeNil)
		})
	})
}

func TestAssemble(t *testing.T) {
	Convey("Given segments retrieved out of order", t, func() {
		dir := "/ts_parts/" + t.Name()
		files := writeSegments(dir, 3, 0, 4, 1, 2)
		output := "/out/" + t.Name() + ".ts"

		Convey("When assembled with a recording remuxer", func() {
			rec := &recorder{}
			err := (&Assembler{Remuxer: rec}).Assemble(context.Background(), files, 0, 4, output)

			Convey("Then segments are handed over by index", func() {
				So(err, ShouldBeNil)
				So(rec.jobs, ShouldHaveLength, 1)
				indices := make([]uint64, 0, 5)
				for _, f := range rec.jobs[0].Segments {
					indices = append(indices, f.Index)
				}
				So(indices, ShouldResemble, []uint64{0, 1, 2, 3, 4})
			})

			Convey("Then the list file names the segments in order", func() {
				data, err := afero.ReadFile(filesystem.API(), filepath.Join(dir, "list.txt"))
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, "file '000.ts'\nfile '001.ts'\nfile '002.ts'\nfile '003.ts'\nfile '004.ts'\n")
			})

			Convey("Then the caller's slice is left alone", func() {
				So(files[0].Index, ShouldEqual, uint64(3))
			})
		})

		Convey("When concatenated natively", func() {
			err := (&Assembler{Remuxer: Concat{}}).Assemble(context.Background(), files, 0, 4, output)

			Convey("Then the output is the byte concatenation in index order", func() {
				So(err, ShouldBeNil)
				data, err := afero.ReadFile(filesystem.API(), output)
				So(err, ShouldBeNil)
				So(data, ShouldResemble, []byte{
					tsSyncByte, 0, tsSyncByte, 1, tsSyncByte, 2, tsSyncByte, 3, tsSyncByte, 4,
				})
			})
		})

		Convey("When one index is missing", func() {
			rec := &recorder{}
			partial := []segment.File{files[0], files[1], files[2], files[4]}
			missingOut := "/out/missing.mp4"
			err := (&Assembler{Remuxer: rec}).Assemble(context.Background(), partial, 0, 4, missingOut)

			Convey("Then assembly is refused and nothing is written", func() {
				So(errors.Is(err, ErrIncompleteSegmentSet), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "missing [1]")
				So(rec.jobs, ShouldBeEmpty)

				exists, _ := afero.Exists(filesystem.API(), missingOut)
				So(exists, ShouldBeFalse)
			})
		})

		Convey("When a segment is not a transport stream", func() {
			So(afero.WriteFile(filesystem.API(), files[2].Path, []byte("<html>"), 0644), ShouldBeNil)
			badOut := "/out/bad.ts"
			err := (&Assembler{Remuxer: Concat{}}).Assemble(context.Background(), files, 0, 4, badOut)

			Convey("Then the partial output is removed", func() {
				So(errors.Is(err, ErrAssemblyFailed), ShouldBeTrue)
				exists, _ := afero.Exists(filesystem.API(), badOut)
				So(exists, ShouldBeFalse)
			})
		})
	})
}

func TestFFmpeg(t *testing.T) {
	Convey("Given an ffmpeg remuxer", t, func() {
		job := Job{List: "/s/list.txt", Output: "/o/video.mp4"}

		Convey("Then the concat demuxer is used with stream copy", func() {
			So((&FFmpeg{}).Args(job), ShouldResemble, []string{
				"-hide_banner", "-loglevel", "warning", "-y",
				"-f", "concat", "-safe", "0",
				"-i", "/s/list.txt",
				"-c", "copy", "-bsf:a", "aac_adtstoasc",
				"/o/video.mp4",
			})
		})

		Convey("Then transport stream outputs skip the audio filter", func() {
			job.Output = "/o/video.ts"
			So((&FFmpeg{}).Args(job), ShouldNotContain, "-bsf:a")
		})

		Convey("When the binary is missing", func() {
			err := (&FFmpeg{Binary: "hlsrip-no-such-ffmpeg"}).Remux(context.Background(), job)

			Convey("Then ErrToolUnavailable is returned", func() {
				So(errors.Is(err, ErrToolUnavailable), ShouldBeTrue)
			})
		})

		Convey("When the tool exits with an error", func() {
			if runtime.GOOS == "windows" {
				return
			}
			So(filesystem.API().MkdirAll(filepath.Dir(job.Output), 0755), ShouldBeNil)
			So(afero.WriteFile(filesystem.API(), job.Output, []byte{tsSyncByte}, 0644), ShouldBeNil)
			err := (&FFmpeg{Binary: "false"}).Remux(context.Background(), job)

			Convey("Then a FailedError carries the status", func() {
				var failed *FailedError
				So(errors.As(err, &failed), ShouldBeTrue)
				So(failed.ExitCode, ShouldEqual, 1)
				So(errors.Is(err, ErrAssemblyFailed), ShouldBeTrue)
			})

			Convey("Then the partial output is removed", func() {
				exists, _ := afero.Exists(filesystem.API(), job.Output)
				So(exists, ShouldBeFalse)
			})
		})
	})
}

func TestSelect(t *testing.T) {
	Convey("Given remuxer names", t, func() {
		Convey("Then auto follows the output extension", func() {
			r, err := Select("auto", "video.ts")
			So(err, ShouldBeNil)
			So(r.Name(), ShouldEqual, "concat")

			r, err = Select("auto", "video.mp4")
			So(err, ShouldBeNil)
			So(r.Name(), ShouldEqual, "ffmpeg")
		})

		Convey("Then explicit names win", func() {
			r, err := Select("FFMPEG", "video.ts")
			So(err, ShouldBeNil)
			So(r.Name(), ShouldEqual, "ffmpeg")
		})

		Convey("Then unknown names are rejected", func() {
			_, err := Select("handbrake", "video.mp4")
			So(err, ShouldNotBeNil)
		})
	})
}
