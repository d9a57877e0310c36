package retrieve

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hlsrip-cli/hlsrip/auth"
	"github.com/hlsrip-cli/hlsrip/filesystem"
	"github.com/hlsrip-cli/hlsrip/proc"
	"github.com/hlsrip-cli/hlsrip/segment"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"
)

func init() {
	filesystem.SetMemMapFs()
}

var session = auth.Context{
	UserAgent: "ua/1",
	Referer:   "https://cafe.example/v/1",
	Origin:    "https://cafe.example",
	Cookie:    "sid=abc",
}

func rangeFor(t *testing.T, server *httptest.Server, first, last uint64) segment.RangeSpec {
	spec, err := segment.BuildRange(server.URL+"/v/stem.m3u8?tok=1", segment.Pattern{First: first, Last: last, Pad: 5})
	if err != nil {
		t.Fatal(err)
	}
	return spec
}

func fastHTTP(server *httptest.Server) *HTTP {
	return &HTTP{
		Client:      server.Client(),
		Concurrency: 3,
		Attempts:    3,
		Backoff:     time.Millisecond,
		MaxBackoff:  5 * time.Millisecond,
	}
}

func TestHTTP(t *testing.T) {
	Convey("Given a segment host", t, func() {
		var (
			mu       sync.Mutex
			hits     = map[string]int{}
			headers  http.Header
			requests atomic.Int32
		)
		behaviour := func(name string, hit int) int { return http.StatusOK }

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			name := strings.TrimPrefix(r.URL.Path, "/v/stem-")

			mu.Lock()
			hits[name]++
			hit := hits[name]
			headers = r.Header.Clone()
			mu.Unlock()

			if r.URL.Query().Get("tok") != "1" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}

			status := behaviour(name, hit)
			w.WriteHeader(status)
			if status == http.StatusOK {
				_, _ = w.Write([]byte("TS:" + name))
			}
		}))
		defer server.Close()

		dir := "/ts_parts/" + t.Name()

		Convey("When every segment answers", func() {
			spec := rangeFor(t, server, 0, 9)
			var updates []Update
			transport := fastHTTP(server)
			transport.Progress = func(u Update) { updates = append(updates, u) }

			result, err := transport.FetchRange(context.Background(), spec, session, dir)

			Convey("Then all files are written in index order", func() {
				So(err, ShouldBeNil)
				So(result.Degraded(), ShouldBeFalse)
				So(result.Retrieved, ShouldHaveLength, 10)
				for n, f := range result.Retrieved {
					So(f.Index, ShouldEqual, uint64(n))
				}
				So(result.Bytes, ShouldEqual, int64(10*len("TS:00000.ts")))

				data, err := afero.ReadFile(filesystem.API(), result.Retrieved[3].Path)
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, "TS:00003.ts")
			})

			Convey("Then the session headers are sent", func() {
				So(headers.Get("User-Agent"), ShouldEqual, "ua/1")
				So(headers.Get("Referer"), ShouldEqual, "https://cafe.example/v/1")
				So(headers.Get("Origin"), ShouldEqual, "https://cafe.example")
				So(headers.Get("Cookie"), ShouldEqual, "sid=abc")
				So(headers.Get("Accept"), ShouldEqual, "*/*")
			})

			Convey("Then progress is reported once per index", func() {
				So(updates, ShouldHaveLength, 10)
				So(updates[9].Done, ShouldEqual, uint64(10))
				So(updates[9].Total, ShouldEqual, uint64(10))
			})
		})

		Convey("When a segment fails once and then succeeds", func() {
			behaviour = func(name string, hit int) int {
				if name == "00002.ts" && hit == 1 {
					return http.StatusBadGateway
				}
				return http.StatusOK
			}

			result, err := fastHTTP(server).FetchRange(context.Background(), rangeFor(t, server, 0, 4), session, dir)

			Convey("Then the retry recovers it", func() {
				So(err, ShouldBeNil)
				So(result.Failed, ShouldBeEmpty)
				So(hits["00002.ts"], ShouldEqual, 2)
			})
		})

		Convey("When some segments keep failing", func() {
			behaviour = func(name string, hit int) int {
				if name == "00001.ts" || name == "00003.ts" {
					return http.StatusInternalServerError
				}
				return http.StatusOK
			}

			result, err := fastHTTP(server).FetchRange(context.Background(), rangeFor(t, server, 0, 4), session, dir)

			Convey("Then they are reported as failed and the rest continues", func() {
				So(err, ShouldBeNil)
				So(result.Degraded(), ShouldBeTrue)
				So(result.Failed, ShouldResemble, []uint64{1, 3})
				So(result.Retrieved, ShouldHaveLength, 3)
				So(hits["00001.ts"], ShouldEqual, 3)
			})

			Convey("Then the last failure is recorded per index", func() {
				So(result.Errors, ShouldHaveLength, 2)
				So(result.Errors[0].Index, ShouldEqual, uint64(1))
				So(result.Errors[0].Status, ShouldEqual, http.StatusInternalServerError)
				So(result.Errors[0].Attempts, ShouldEqual, 3)
			})
		})

		Convey("When the host starts refusing the session", func() {
			behaviour = func(name string, hit int) int {
				if name == "00004.ts" {
					return http.StatusForbidden
				}
				time.Sleep(5 * time.Millisecond)
				return http.StatusOK
			}
			transport := fastHTTP(server)
			transport.Concurrency = 2

			result, err := transport.FetchRange(context.Background(), rangeFor(t, server, 0, 199), session, dir)

			Convey("Then retrieval aborts with ErrAuthExpired", func() {
				So(errors.Is(err, ErrAuthExpired), ShouldBeTrue)
				So(hits["00004.ts"], ShouldEqual, 1)
				So(requests.Load(), ShouldBeLessThan, 200)
			})

			Convey("Then the partial result is returned", func() {
				So(result, ShouldNotBeNil)
				So(result.Failed, ShouldContain, uint64(4))
				So(len(result.Retrieved)+len(result.Failed), ShouldEqual, 200)
			})

			Convey("Then files already written stay on disk", func() {
				for _, f := range result.Retrieved {
					exists, _ := afero.Exists(filesystem.API(), f.Path)
					So(exists, ShouldBeTrue)
				}
			})
		})

		Convey("When the run is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			result, err := fastHTTP(server).FetchRange(ctx, rangeFor(t, server, 0, 9), session, dir)

			Convey("Then nothing is left unaccounted", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				So(len(result.Retrieved)+len(result.Failed), ShouldEqual, 10)
			})
		})
	})
}

func TestPolicy(t *testing.T) {
	Convey("Given a retry policy of three attempts", t, func() {
		h := &HTTP{Attempts: 3, Backoff: 100 * time.Millisecond, MaxBackoff: 150 * time.Millisecond}

		Convey("When it is walked", func() {
			b := h.policy(context.Background())
			b.Reset()
			first, second, third := b.NextBackOff(), b.NextBackOff(), b.NextBackOff()

			Convey("Then two jittered waits precede the stop", func() {
				So(first, ShouldBeBetweenOrEqual, 50*time.Millisecond, 150*time.Millisecond)
				So(second, ShouldBeBetweenOrEqual, 75*time.Millisecond, 225*time.Millisecond)
				So(third, ShouldEqual, backoff.Stop)
			})
		})

		Convey("When the context is already done", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			b := h.policy(ctx)

			Convey("Then no retry is scheduled", func() {
				So(b.NextBackOff(), ShouldEqual, backoff.Stop)
			})
		})
	})

	Convey("Given a single attempt", t, func() {
		b := (&HTTP{Attempts: 1}).policy(context.Background())
		b.Reset()

		So(b.NextBackOff(), ShouldEqual, backoff.Stop)
	})
}

func TestCurl(t *testing.T) {
	spec, err := segment.BuildRange("https://cdn.example/v/ABC.m3u8?token=x", segment.Pattern{First: 0, Last: 123, Pad: 6})
	if err != nil {
		t.Fatal(err)
	}

	Convey("Given a curl transport", t, func() {
		c := &Curl{Attempts: 3}

		Convey("When arguments are built", func() {
			args := c.Args(spec, session)

			Convey("Then the session travels as headers", func() {
				So(args, ShouldContain, "Referer: https://cafe.example/v/1")
				So(args, ShouldContain, "Origin: https://cafe.example")
				So(args, ShouldContain, "Host: cdn.example")
				So(args, ShouldContain, "Cookie: sid=abc")
				So(args[:5], ShouldResemble, []string{"-L", "--compressed", "--fail", "--silent", "--show-error"})
			})

			Convey("Then --retry counts the tries after the first", func() {
				So(args[5:7], ShouldResemble, []string{"--retry", "2"})
				So((&Curl{Attempts: 1}).Args(spec, session), ShouldNotContain, "--retry")
			})

			Convey("Then statuses are written to stderr", func() {
				So(args, ShouldContain, `%{stderr}status:%{http_code}\n`)
			})

			Convey("Then the template is globbed into numbered files", func() {
				So(args[len(args)-3:], ShouldResemble, []string{
					"https://cdn.example/v/ABC-[000000-000123].ts?token=x",
					"-o", "#1.ts",
				})
			})
		})

		Convey("When curl left some files behind", func() {
			dir := "/curl/" + t.Name()
			small, _ := segment.BuildRange("https://cdn.example/v/ABC.m3u8", segment.Pattern{First: 7, Last: 9, Pad: 2})
			fs := filesystem.API()
			So(fs.MkdirAll(dir, 0755), ShouldBeNil)
			So(afero.WriteFile(fs, dir+"/07.ts", []byte("a"), 0644), ShouldBeNil)
			So(afero.WriteFile(fs, dir+"/09.ts", []byte("bb"), 0644), ShouldBeNil)

			Convey("Then missing files are failed", func() {
				result := c.collect(small, dir, nil)
				So(result.Failed, ShouldResemble, []uint64{8})
				So(result.Bytes, ShouldEqual, int64(3))
			})

			Convey("Then reported statuses decide", func() {
				result := c.collect(small, dir, []int{200, 403, 404})
				So(result.Failed, ShouldResemble, []uint64{8, 9})
				So(errors.Is(result.Errors[0], ErrAuthExpired), ShouldBeTrue)
				So(result.Errors[0].Attempts, ShouldEqual, 3)
			})

			Convey("Then indices past the last reported status are failed", func() {
				result := c.collect(small, dir, []int{200})
				So(result.Failed, ShouldResemble, []uint64{8, 9})
				So(result.Retrieved, ShouldHaveLength, 1)
			})
		})

		Convey("When status lines are read", func() {
			So(lo.Must(parseStatus("status:403")), ShouldEqual, 403)
			_, ok := parseStatus("curl: (22) The requested URL returned error: 403")
			So(ok, ShouldBeFalse)
		})

		Convey("When the binary is missing", func() {
			c.Binary = "hlsrip-no-such-curl"
			_, err := c.FetchRange(context.Background(), spec, session, "/tmp")

			Convey("Then ErrTransportUnavailable is returned", func() {
				So(errors.Is(err, ErrTransportUnavailable), ShouldBeTrue)
			})
		})
	})
}

func TestCurlAbortsOnRefusal(t *testing.T) {
	if _, err := proc.Lookup("curl"); err != nil {
		t.Skip("curl is not installed")
	}

	filesystem.SetOsFs()
	defer filesystem.SetMemMapFs()

	Convey("Given a host that refuses the second segment of a long range", t, func() {
		var requests atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			switch r.URL.Path {
			case "/v/stem-00000.ts":
				_, _ = w.Write([]byte("TS"))
			case "/v/stem-00001.ts":
				w.WriteHeader(http.StatusForbidden)
			default:
				time.Sleep(300 * time.Millisecond)
				_, _ = w.Write([]byte("TS"))
			}
		}))
		defer server.Close()

		c := &Curl{Attempts: 1}
		start := time.Now()
		result, err := c.FetchRange(context.Background(), rangeFor(t, server, 0, 19), session, t.TempDir())

		Convey("Then curl is stopped at the refusal", func() {
			So(errors.Is(err, ErrAuthExpired), ShouldBeTrue)
			So(requests.Load(), ShouldBeLessThan, 20)
			So(time.Since(start), ShouldBeLessThan, 5*time.Second)
		})

		Convey("Then the partial result is returned", func() {
			So(result, ShouldNotBeNil)
			So(result.Retrieved, ShouldHaveLength, 1)
			So(result.Retrieved[0].Index, ShouldEqual, uint64(0))
			So(result.Failed, ShouldContain, uint64(1))
			So(len(result.Retrieved)+len(result.Failed), ShouldEqual, 20)
		})
	})
}
