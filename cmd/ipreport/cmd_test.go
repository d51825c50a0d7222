// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/siemens/ipreport/config"
	"github.com/siemens/ipreport/lookup"
	"github.com/siemens/ipreport/test"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gleak"
	. "github.com/thediveo/success"
)

var _ = Describe("ipreport command", func() {

	var tmpdir string

	BeforeEach(func() {
		goodgos := Goroutines()
		tmpdir = Successful(os.MkdirTemp("", "ipreport-cmd-*"))
		DeferCleanup(func() {
			_ = os.RemoveAll(tmpdir)
			Eventually(Goroutines).WithTimeout(3 * time.Second).WithPolling(250 * time.Millisecond).
				ShouldNot(HaveLeaked(goodgos,
					IgnoringTopFunction("os/signal.signal_recv"),
					IgnoringTopFunction("os/signal.loop"),
					IgnoringInBacktrace("net/http.(*persistConn).readLoop"),
					IgnoringInBacktrace("net/http.(*persistConn).writeLoop")))
		})
	})

	execute := func(args ...string) (string, error) {
		var out bytes.Buffer
		rootCmd := newRootCmd()
		rootCmd.SetOut(&out)
		rootCmd.SetErr(io.Discard)
		rootCmd.SetArgs(args)
		err := rootCmd.Execute()
		return out.String(), err
	}

	It("exits with non-zero code on errors", func() {
		defer func(args []string) { os.Args = args }(os.Args)
		defer func(exit func(int)) { osExit = exit }(osExit)
		exitcode := -1
		osExit = func(code int) { exitcode = code }
		os.Args = []string{"ipreport", "scan", "--workers", "0", "1.1.1.1"}
		main()
		Expect(exitcode).To(Equal(1))
	})

	DescribeTable("rejecting invalid flags",
		func(errmsg string, args ...string) {
			_, err := execute(append(args, "--storage", filepath.Join(tmpdir, "uploads"))...)
			Expect(err).To(MatchError(ContainSubstring(errmsg)))
		},
		Entry(nil, "--workers out of range", "scan", "--workers", "0", "1.1.1.1"),
		Entry(nil, "--workers out of range", "scan", "--workers", "65", "1.1.1.1"),
		Entry(nil, "--rate-limit must be at least 1", "scan", "--rate-limit", "0", "1.1.1.1"),
		Entry(nil, "--spinner must be at least 10ms", "scan", "--spinner", "1ms", "1.1.1.1"),
		Entry(nil, "unknown lookup provider", "scan", "--provider", "foo", "1.1.1.1"),
		Entry(nil, "unknown pacing policy", "scan", "--policy", "leaky", "1.1.1.1"),
		Entry(nil, "failed to read config file", "scan", "--config", "/nonexisting.yaml", "1.1.1.1"),
		Entry(nil, "listen address", "serve", "--listen", ""),
	)

	It("merges configuration file and flags", func() {
		path := filepath.Join(tmpdir, "ipreport.yaml")
		Expect(os.WriteFile(path, []byte("pacing:\n  rate_limit: 10\n  cooldown: 5s\n"), 0o644)).To(Succeed())
		_, err := execute("scan", "--config", path, "--cooldown", "1s",
			"--storage", filepath.Join(tmpdir, "uploads"), "--url", "http://127.0.0.1:1/json/")
		Expect(err).To(MatchError(ContainSubstring("no IP addresses provided")))
		Expect(cfg.Lookup.Provider).To(Equal(lookup.IPAPIProvider))
		Expect(cfg.Lookup.URL).To(Equal("http://127.0.0.1:1/json/"))
		Expect(cfg.Pacing.Policy).To(Equal(config.CooldownPolicy))
		Expect(cfg.Pacing.RateLimit).To(Equal(10))
		Expect(cfg.Pacing.Cooldown).To(Equal(time.Second))
	})

	When("scanning", func() {

		var fake *test.FakeIPAPI

		BeforeEach(func() {
			fake = test.NewFakeIPAPI(map[string]string{
				"8.8.8.8":  test.GoogleDNS,
				"9.9.9.9":  test.Sparse,
				"10.0.0.1": test.Fail,
			})
			DeferCleanup(fake.Close)
		})

		scan := func(args ...string) (string, error) {
			return execute(append([]string{"scan",
				"--url", fake.BaseURL(),
				"--storage", filepath.Join(tmpdir, "uploads"),
				"--spinner", "10ms",
			}, args...)...)
		}

		It("renders a report", func() {
			addrfile := filepath.Join(tmpdir, "ips.txt")
			Expect(os.WriteFile(addrfile, []byte("9.9.9.9\n10.0.0.1\n"), 0o644)).To(Succeed())
			out, err := scan("--file", addrfile, "8.8.8.8,999.1.1.1", "foo")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(And(
				ContainSubstring("looking up"),
				ContainSubstring("8.8.8.8"),
				ContainSubstring("invalid IP addresses ignored:"),
				ContainSubstring("999.1.1.1, foo"),
				ContainSubstring("enriched 2 of 3 addresses in"),
				ContainSubstring("saved to"),
			))
			Expect(fake.Requests()).To(HaveExactElements("9.9.9.9", "10.0.0.1", "8.8.8.8"))
			entries := Successful(os.ReadDir(filepath.Join(tmpdir, "uploads")))
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Name()).To(MatchRegexp(`^ip_report_\d{8}_\d{6}\.pdf$`))
		})

		It("ignores address files other than text files", func() {
			addrfile := filepath.Join(tmpdir, "ips.csv")
			Expect(os.WriteFile(addrfile, []byte("9.9.9.9\n"), 0o644)).To(Succeed())
			_, err := scan("--file", addrfile, "8.8.8.8")
			Expect(err).NotTo(HaveOccurred())
			Expect(fake.Requests()).To(HaveExactElements("8.8.8.8"))
		})

		It("fails on missing address files", func() {
			_, err := scan("--file", filepath.Join(tmpdir, "missing.txt"), "8.8.8.8")
			Expect(err).To(MatchError(ContainSubstring("cannot open address file")))
		})

		It("reports when nothing could be retrieved", func() {
			out, err := scan("10.0.0.1")
			Expect(err).To(MatchError(ContainSubstring("no valid IP information could be retrieved")))
			Expect(out).NotTo(ContainSubstring("saved to"))
		})

	})

})
