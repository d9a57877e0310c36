package network

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestNew(t *testing.T) {
	Convey("Given default options", t, func() {
		client := New(Options{Timeout: 5 * time.Second})

		Convey("The tuned transport is used directly", func() {
			_, ok := client.Transport.(*http.Transport)
			So(ok, ShouldBeTrue)
			So(client.Timeout, ShouldEqual, 5*time.Second)
		})
	})

	Convey("Given fingerprinting", t, func() {
		client := New(Options{Fingerprint: true})

		_, ok := client.Transport.(*FingerprintTransport)
		So(ok, ShouldBeTrue)

		Convey("Plain HTTP requests bypass the TLS layer", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, r.Header.Get("User-Agent"))
			}))
			defer server.Close()

			req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
			req.Header.Set("User-Agent", "UA/9")
			resp, err := client.Do(req)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			body, _ := io.ReadAll(resp.Body)
			So(string(body), ShouldEqual, "UA/9")
		})
	})
}
