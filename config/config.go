// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/siemens/ipreport/lookup"
	"github.com/siemens/ipreport/pacing"
	"gopkg.in/yaml.v3"
)

// Policy names a pacing policy.
type Policy string

const (
	CooldownPolicy    Policy = "cooldown"
	TokenBucketPolicy Policy = "token-bucket"
)

// MaxWorkers limits the number of concurrent lookups.
const MaxWorkers = 64

// Config represents the complete ipreport configuration.
type Config struct {
	Lookup  LookupConfig  `yaml:"lookup"`
	Pacing  PacingConfig  `yaml:"pacing"`
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
}

// LookupConfig contains the lookup provider settings.
type LookupConfig struct {
	Provider lookup.Provider `yaml:"provider"`
	URL      string          `yaml:"url"`
	Timeout  time.Duration   `yaml:"timeout"`
	Workers  int             `yaml:"workers"`
	GeoDB    GeoDBConfig     `yaml:"geodb"`
}

// GeoDBConfig contains the offline provider settings.
type GeoDBConfig struct {
	City     string `yaml:"city"`
	ASN      string `yaml:"asn"`
	Resolver string `yaml:"resolver"` // optional DNS resolver for host names
	// number of parallel reverse DNS lookups
	ResolverWorkers int `yaml:"resolver_workers"`
}

// PacingConfig contains the rate limiting settings.
type PacingConfig struct {
	Policy    Policy        `yaml:"policy"`
	RateLimit int           `yaml:"rate_limit"`
	Cooldown  time.Duration `yaml:"cooldown"`
}

// StorageConfig contains the artifact storage settings.
type StorageConfig struct {
	Dir string `yaml:"dir"`
}

// ServerConfig contains the HTTP server settings.
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Lookup: LookupConfig{
			Provider: lookup.IPAPIProvider,
			URL:      lookup.DefaultIPAPIURL,
			Timeout:  10 * time.Second,
			Workers:  1,
			GeoDB: GeoDBConfig{
				ResolverWorkers: 4,
			},
		},
		Pacing: PacingConfig{
			Policy:    CooldownPolicy,
			RateLimit: pacing.DefaultLimit,
			Cooldown:  pacing.DefaultCooldown,
		},
		Storage: StorageConfig{
			Dir: "uploads",
		},
		Server: ServerConfig{
			Listen: "localhost:5000",
		},
	}
}

// Load the configuration from the specified YAML file on top of the defaults,
// and validate it.
func Load(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse the YAML configuration data on top of the defaults, and validate it.
// Unknown configuration keys are rejected. Empty data yields the defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate the configuration, returning an error describing the first
// problem found.
func (c Config) Validate() error {
	if err := lookup.ValidateProvider(c.Lookup.Provider); err != nil {
		return err
	}
	switch c.Lookup.Provider {
	case lookup.IPAPIProvider:
		if c.Lookup.URL == "" {
			return errors.New("lookup service URL must not be empty")
		}
	case lookup.GeoDBProvider:
		if c.Lookup.GeoDB.City == "" {
			return errors.New("geodb provider requires a city database")
		}
		if c.Lookup.GeoDB.Resolver != "" && c.Lookup.GeoDB.ResolverWorkers < 1 {
			return fmt.Errorf("resolver workers must be at least 1, got %d",
				c.Lookup.GeoDB.ResolverWorkers)
		}
	}
	if c.Lookup.Timeout <= 0 {
		return fmt.Errorf("lookup timeout must be positive, got %s", c.Lookup.Timeout)
	}
	if c.Lookup.Workers < 1 || c.Lookup.Workers > MaxWorkers {
		return fmt.Errorf("workers must be in range [1..%d], got %d", MaxWorkers, c.Lookup.Workers)
	}
	switch c.Pacing.Policy {
	case CooldownPolicy:
		if c.Pacing.Cooldown < 0 {
			return fmt.Errorf("cooldown must not be negative, got %s", c.Pacing.Cooldown)
		}
	case TokenBucketPolicy:
		if c.Pacing.Cooldown <= 0 {
			return fmt.Errorf("token bucket window must be positive, got %s", c.Pacing.Cooldown)
		}
	default:
		return fmt.Errorf("unknown pacing policy %q", c.Pacing.Policy)
	}
	if c.Pacing.RateLimit < 1 {
		return fmt.Errorf("rate limit must be at least 1, got %d", c.Pacing.RateLimit)
	}
	if c.Storage.Dir == "" {
		return errors.New("storage directory must not be empty")
	}
	if c.Server.Listen == "" {
		return errors.New("listen address must not be empty")
	}
	return nil
}
