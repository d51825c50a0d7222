// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/siemens/ipreport/addrset"
	"github.com/siemens/ipreport/config"
	"github.com/siemens/ipreport/pacing"
	"github.com/siemens/ipreport/pipeline"
	"github.com/siemens/ipreport/test"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gleak"
	. "github.com/thediveo/success"
)

// form returns a multipart form body with the specified free text and an
// optional upload, together with its content type.
func form(text string, filename string, content string) (io.Reader, string) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	Expect(mw.WriteField("ip_input", text)).To(Succeed())
	if filename != "" {
		fw := Successful(mw.CreateFormFile("ip_file", filename))
		_, err := fw.Write([]byte(content))
		Expect(err).NotTo(HaveOccurred())
	}
	Expect(mw.Close()).To(Succeed())
	return &body, mw.FormDataContentType()
}

var _ = Describe("HTTP server", func() {

	var fake *test.FakeIPAPI
	var srv *Server
	var pl *pipeline.Pipeline

	BeforeEach(func(ctx context.Context) {
		goodgos := Goroutines()
		fake = test.NewFakeIPAPI(map[string]string{
			"8.8.8.8":  test.GoogleDNS,
			"9.9.9.9":  test.Sparse,
			"10.0.0.1": test.Fail,
		})
		tmpdir := Successful(os.MkdirTemp("", "ipreport-server-*"))
		cfg := config.Default()
		cfg.Lookup.URL = fake.BaseURL()
		cfg.Storage.Dir = filepath.Join(tmpdir, "uploads")
		pl = Successful(pipeline.New(ctx, cfg,
			pipeline.WithClock(pacing.NewVirtualClock(time.Date(2023, 6, 1, 12, 0, 0, 0, time.Local))),
			pipeline.WithSharedPacing()))
		srv = New(pl)
		DeferCleanup(func() {
			pl.Close()
			fake.Close()
			_ = os.RemoveAll(tmpdir)
			Eventually(Goroutines).WithTimeout(3 * time.Second).WithPolling(250 * time.Millisecond).
				ShouldNot(HaveLeaked(goodgos,
					IgnoringInBacktrace("net/http.(*persistConn).readLoop"),
					IgnoringInBacktrace("net/http.(*persistConn).writeLoop")))
		})
	})

	post := func(body io.Reader, contentType string) (*httptest.ResponseRecorder, map[string]any) {
		req := httptest.NewRequest(http.MethodPost, "/api/reports", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		Expect(rec.Header().Get("Content-Type")).To(HavePrefix("application/json"))
		var resp map[string]any
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		return rec, resp
	}

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	It("creates a report for the free text, warning about invalid addresses", func() {
		body, ct := form("8.8.8.8, 999.1.1.1", "", "")
		rec, resp := post(body, ct)
		Expect(rec.Code).To(Equal(http.StatusCreated))
		Expect(resp).To(HaveKeyWithValue("artifact", "ip_report_20230601_120000.pdf"))
		Expect(resp).To(HaveKeyWithValue("download", "/download/ip_report_20230601_120000.pdf"))
		Expect(resp).To(HaveKeyWithValue("invalid", ConsistOf("999.1.1.1")))
		Expect(resp).To(HaveKeyWithValue("invalid_count", BeNumerically("==", 1)))
		Expect(resp).To(HaveKeyWithValue("warning", "Invalid IP addresses ignored: 999.1.1.1"))
		Expect(resp).To(HaveKeyWithValue("processing_time", BeNumerically("==", 0)))
		Expect(resp).To(HaveKeyWithValue("results", HaveExactElements(And(
			HaveKeyWithValue("ip", "8.8.8.8"),
			HaveKeyWithValue("hostname", "dns.google"),
			HaveKeyWithValue("coordinates", "39.03,-77.5"),
			HaveKeyWithValue("autonomous_system", "AS15169 Google LLC"),
		))))

		dl := get("/download/ip_report_20230601_120000.pdf")
		Expect(dl.Code).To(Equal(http.StatusOK))
		Expect(dl.Header().Get("Content-Disposition")).To(Equal(`attachment; filename="ip_report_20230601_120000.pdf"`))
		Expect(dl.Header().Get("Content-Type")).To(Equal("application/pdf"))
		Expect(dl.Body.String()).To(HavePrefix("%PDF-"))
	})

	It("accepts url-encoded forms", func() {
		rec, resp := post(strings.NewReader(url.Values{"ip_input": {"9.9.9.9"}}.Encode()),
			"application/x-www-form-urlencoded")
		Expect(rec.Code).To(Equal(http.StatusCreated))
		Expect(resp).To(HaveKeyWithValue("results", HaveExactElements(And(
			HaveKeyWithValue("ip", "9.9.9.9"),
			HaveKeyWithValue("hostname", ""),
			HaveKeyWithValue("city", "N/A"),
		))))
		Expect(resp).NotTo(HaveKey("warning"))
	})

	It("reads uploaded text files first", func() {
		body, ct := form("8.8.8.8", "ips.txt", "9.9.9.9\n\n10.0.0.1, 8.8.8.8\n")
		rec, resp := post(body, ct)
		Expect(rec.Code).To(Equal(http.StatusCreated))
		Expect(resp).To(HaveKeyWithValue("results", HaveExactElements(
			HaveKeyWithValue("ip", "9.9.9.9"),
			HaveKeyWithValue("ip", "8.8.8.8"),
		)))
		Expect(resp).To(HaveKeyWithValue("failed", BeNumerically("==", 1)))
		Expect(fake.Requests()).To(HaveExactElements("9.9.9.9", "10.0.0.1", "8.8.8.8"))
	})

	It("ignores uploads other than text files", func() {
		body, ct := form("8.8.8.8", "ips.csv", "9.9.9.9")
		rec, resp := post(body, ct)
		Expect(rec.Code).To(Equal(http.StatusCreated))
		Expect(resp).To(HaveKeyWithValue("results", HaveExactElements(
			HaveKeyWithValue("ip", "8.8.8.8"))))
		Expect(fake.Requests()).To(HaveExactElements("8.8.8.8"))
	})

	It("rejects oversized uploads", func() {
		body, ct := form("", "big.txt", strings.Repeat("1", addrset.MaxUploadSize+1))
		rec, resp := post(body, ct)
		Expect(rec.Code).To(Equal(http.StatusRequestEntityTooLarge))
		Expect(resp).To(HaveKey("error"))
	})

	DescribeTable("rejecting submissions",
		func(text string, status int, errmsg string, invalid []string) {
			body, ct := form(text, "", "")
			rec, resp := post(body, ct)
			Expect(rec.Code).To(Equal(status))
			Expect(resp).To(HaveKeyWithValue("error", ContainSubstring(errmsg)))
			if invalid == nil {
				Expect(resp).NotTo(HaveKey("invalid"))
				return
			}
			Expect(resp).To(HaveKeyWithValue("invalid", ConsistOf(invalid)))
		},
		Entry("empty input", " , ", http.StatusBadRequest, "no IP addresses provided", nil),
		Entry("no valid input", "foo, 1.2.3", http.StatusBadRequest, "no valid IP addresses provided",
			[]string{"1.2.3", "foo"}),
		Entry("nothing retrieved", "10.0.0.1, bar", http.StatusUnprocessableEntity,
			"no valid IP information could be retrieved", []string{"bar"}),
	)

	It("rejects malformed forms", func() {
		rec, _ := post(strings.NewReader("--nope\r\n"), "multipart/form-data; boundary=nope")
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("downloads only existing artifacts", func() {
		Expect(get("/download/ip_report_19700101_000000.pdf").Code).To(Equal(http.StatusNotFound))
		Expect(get("/download/.hidden").Code).To(Equal(http.StatusBadRequest))
		Expect(get("/download/..%2F..%2Fetc%2Fpasswd").Code).To(Or(
			Equal(http.StatusBadRequest), Equal(http.StatusNotFound)))
	})

	It("serves until cancelled", func(ctx context.Context) {
		l := Successful(net.Listen("tcp", "127.0.0.1:0"))
		addr := l.Addr().String()
		l.Close()
		sctx, cancel := context.WithCancel(ctx)
		done := make(chan error)
		go func() { done <- Serve(sctx, addr, srv) }()
		Eventually(func() error {
			resp, err := http.Get("http://" + addr + "/download/missing.pdf")
			if err != nil {
				return err
			}
			resp.Body.Close()
			return nil
		}).Should(Succeed())
		cancel()
		Eventually(done).Should(Receive(Succeed()))
		http.DefaultClient.CloseIdleConnections()
	})

})
