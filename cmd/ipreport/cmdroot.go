// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"time"

	"github.com/siemens/ipreport/config"
	"github.com/siemens/ipreport/lookup"
	"github.com/spf13/cobra"
	"github.com/thediveo/lxkns/log"
)

var (
	configFile      *string
	debug           *bool
	spinnerInterval *time.Duration
	maxLines        *uint
	provider        *string
	serviceURL      *string
	timeout         *time.Duration
	workerNumber    *uint
	policy          *string
	rateLimit       *uint
	cooldown        *time.Duration
	storageDir      *string
	geodbCity       *string
	geodbASN        *string
	resolver        *string
)

// cfg is the effective configuration after PersistentPreRunE has merged the
// defaults, the optional configuration file, and the CLI flags.
var cfg config.Config

func newRootCmd() (rootCmd *cobra.Command) {
	rootCmd = &cobra.Command{
		Use:          "ipreport",
		Short:        "ipreport enriches IPv4 addresses with geolocation and ownership details and renders PDF reports",
		Version:      "0.9",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if *debug {
				log.SetLevel(log.DebugLevel)
				log.Debugf("debug logging enabled")
			}
			if *workerNumber < 1 || *workerNumber > config.MaxWorkers {
				return fmt.Errorf("--workers out of range [1..%d]", config.MaxWorkers)
			}
			if *rateLimit < 1 {
				return fmt.Errorf("--rate-limit must be at least 1")
			}
			if *spinnerInterval < 10*time.Millisecond {
				return fmt.Errorf("--spinner must be at least 10ms")
			}
			c := config.Default()
			if *configFile != "" {
				var err error
				if c, err = config.Load(*configFile); err != nil {
					return err
				}
			}
			flags := cmd.Flags()
			if flags.Changed("provider") {
				c.Lookup.Provider = lookup.Provider(*provider)
			}
			if flags.Changed("url") {
				c.Lookup.URL = *serviceURL
			}
			if flags.Changed("timeout") {
				c.Lookup.Timeout = *timeout
			}
			if flags.Changed("workers") {
				c.Lookup.Workers = int(*workerNumber)
			}
			if flags.Changed("policy") {
				c.Pacing.Policy = config.Policy(*policy)
			}
			if flags.Changed("rate-limit") {
				c.Pacing.RateLimit = int(*rateLimit)
			}
			if flags.Changed("cooldown") {
				c.Pacing.Cooldown = *cooldown
			}
			if flags.Changed("storage") {
				c.Storage.Dir = *storageDir
			}
			if flags.Changed("geodb-city") {
				c.Lookup.GeoDB.City = *geodbCity
			}
			if flags.Changed("geodb-asn") {
				c.Lookup.GeoDB.ASN = *geodbASN
			}
			if flags.Changed("resolver") {
				c.Lookup.GeoDB.Resolver = *resolver
			}
			if err := c.Validate(); err != nil {
				return err
			}
			cfg = c
			return nil
		},
	}
	// Sets up the flags.
	flags := rootCmd.PersistentFlags()
	configFile = flags.String(
		"config", "", "YAML configuration file")
	debug = flags.Bool(
		"debug", false, "enable debugging output")
	spinnerInterval = flags.Duration(
		"spinner", 100*time.Millisecond, "spinner interval")
	maxLines = flags.Uint(
		"lines", 20, "maximum number of addresses shown while looking up")
	provider = flags.String(
		"provider", string(lookup.IPAPIProvider), fmt.Sprintf("lookup provider %v", lookup.ListProviders()))
	serviceURL = flags.String(
		"url", lookup.DefaultIPAPIURL, "ip-api lookup service base URL")
	timeout = flags.Duration(
		"timeout", 10*time.Second, "per-lookup request timeout")
	workerNumber = flags.Uint(
		"workers", 1, "number of concurrent lookups")
	policy = flags.String(
		"policy", string(config.CooldownPolicy), "pacing policy (cooldown, token-bucket)")
	rateLimit = flags.Uint(
		"rate-limit", 45, "number of lookups per cooldown window")
	cooldown = flags.Duration(
		"cooldown", 60*time.Second, "cooldown window")
	storageDir = flags.String(
		"storage", "uploads", "directory for storing PDF reports")
	geodbCity = flags.String(
		"geodb-city", "", "GeoLite2-City database file (geodb provider)")
	geodbASN = flags.String(
		"geodb-asn", "", "optional GeoLite2-ASN database file (geodb provider)")
	resolver = flags.String(
		"resolver", "", "optional DNS resolver address for host names (geodb provider)")

	rootCmd.AddCommand(newScanCmd(), newServeCmd())
	return
}
