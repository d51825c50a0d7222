// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package config_test

import (
	"os"
	"path/filepath"
	"time"

	"github.com/siemens/ipreport/config"
	"github.com/siemens/ipreport/lookup"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/success"
)

var _ = Describe("configuration", func() {

	It("has sane defaults", func() {
		cfg := config.Default()
		Expect(cfg.Validate()).To(Succeed())
		Expect(cfg.Lookup.Provider).To(Equal(lookup.IPAPIProvider))
		Expect(cfg.Lookup.URL).To(Equal("http://ip-api.com/json/"))
		Expect(cfg.Lookup.Timeout).To(Equal(10 * time.Second))
		Expect(cfg.Lookup.Workers).To(Equal(1))
		Expect(cfg.Pacing.Policy).To(Equal(config.CooldownPolicy))
		Expect(cfg.Pacing.RateLimit).To(Equal(45))
		Expect(cfg.Pacing.Cooldown).To(Equal(60 * time.Second))
		Expect(cfg.Storage.Dir).To(Equal("uploads"))
	})

	It("returns defaults for empty configuration data", func() {
		Expect(config.Parse(nil)).To(Equal(config.Default()))
	})

	It("overrides defaults", func() {
		cfg := Successful(config.Parse([]byte(`
lookup:
  timeout: 2.5s
  workers: 4
pacing:
  policy: token-bucket
  rate_limit: 15
  cooldown: 1m
storage:
  dir: /var/lib/ipreport
`)))
		Expect(cfg.Lookup.Provider).To(Equal(lookup.IPAPIProvider))
		Expect(cfg.Lookup.Timeout).To(Equal(2500 * time.Millisecond))
		Expect(cfg.Lookup.Workers).To(Equal(4))
		Expect(cfg.Pacing.Policy).To(Equal(config.TokenBucketPolicy))
		Expect(cfg.Pacing.RateLimit).To(Equal(15))
		Expect(cfg.Pacing.Cooldown).To(Equal(time.Minute))
		Expect(cfg.Storage.Dir).To(Equal("/var/lib/ipreport"))
		Expect(cfg.Server.Listen).To(Equal("localhost:5000"))
	})

	It("loads from file", func() {
		tmpdir := Successful(os.MkdirTemp("", "ipreport-config-*"))
		DeferCleanup(func() { _ = os.RemoveAll(tmpdir) })
		path := filepath.Join(tmpdir, "ipreport.yaml")
		Expect(os.WriteFile(path, []byte(`
lookup:
  provider: geodb
  geodb:
    city: /usr/share/GeoIP/GeoLite2-City.mmdb
    resolver: 127.0.0.53:53
`), 0o644)).To(Succeed())
		cfg := Successful(config.Load(path))
		Expect(cfg.Lookup.Provider).To(Equal(lookup.GeoDBProvider))
		Expect(cfg.Lookup.GeoDB.City).To(Equal("/usr/share/GeoIP/GeoLite2-City.mmdb"))
		Expect(cfg.Lookup.GeoDB.ResolverWorkers).To(Equal(4))

		Expect(config.Load(filepath.Join(tmpdir, "missing.yaml"))).Error().To(HaveOccurred())
	})

	It("rejects unknown keys and malformed data", func() {
		Expect(config.Parse([]byte("pacing:\n  ratelimit: 10\n"))).Error().To(
			MatchError(ContainSubstring("field ratelimit not found")))
		Expect(config.Parse([]byte("pacing: [\n"))).Error().To(HaveOccurred())
		Expect(config.Parse([]byte("pacing:\n  cooldown: soon\n"))).Error().To(HaveOccurred())
	})

	DescribeTable("rejecting invalid configurations",
		func(mod func(*config.Config), msg string) {
			cfg := config.Default()
			mod(&cfg)
			Expect(cfg.Validate()).To(MatchError(ContainSubstring(msg)))
		},
		Entry("unknown provider", func(c *config.Config) { c.Lookup.Provider = "foo" }, "unknown lookup provider"),
		Entry("no URL", func(c *config.Config) { c.Lookup.URL = "" }, "URL must not be empty"),
		Entry("no city DB", func(c *config.Config) { c.Lookup.Provider = lookup.GeoDBProvider }, "city database"),
		Entry("no resolver workers", func(c *config.Config) {
			c.Lookup.Provider = lookup.GeoDBProvider
			c.Lookup.GeoDB.City = "city.mmdb"
			c.Lookup.GeoDB.Resolver = "127.0.0.1:53"
			c.Lookup.GeoDB.ResolverWorkers = 0
		}, "resolver workers"),
		Entry("zero timeout", func(c *config.Config) { c.Lookup.Timeout = 0 }, "timeout must be positive"),
		Entry("no workers", func(c *config.Config) { c.Lookup.Workers = 0 }, "workers must be in range"),
		Entry("too many workers", func(c *config.Config) { c.Lookup.Workers = config.MaxWorkers + 1 }, "workers must be in range"),
		Entry("negative cooldown", func(c *config.Config) { c.Pacing.Cooldown = -time.Second }, "cooldown must not be negative"),
		Entry("zero window", func(c *config.Config) {
			c.Pacing.Policy = config.TokenBucketPolicy
			c.Pacing.Cooldown = 0
		}, "window must be positive"),
		Entry("unknown policy", func(c *config.Config) { c.Pacing.Policy = "leaky" }, "unknown pacing policy"),
		Entry("zero rate limit", func(c *config.Config) { c.Pacing.RateLimit = 0 }, "rate limit must be at least 1"),
		Entry("no storage", func(c *config.Config) { c.Storage.Dir = "" }, "storage directory"),
		Entry("no listen address", func(c *config.Config) { c.Server.Listen = "" }, "listen address"),
	)

})
