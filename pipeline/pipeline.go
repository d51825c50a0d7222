// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/miekg/dns"
	"github.com/siemens/ipreport/addrset"
	"github.com/siemens/ipreport/config"
	"github.com/siemens/ipreport/lookup"
	"github.com/siemens/ipreport/pacing"
	"github.com/siemens/ipreport/rdns"
	"github.com/siemens/ipreport/report"
	"github.com/siemens/ipreport/scheduler"
	"github.com/siemens/ipreport/storage"
	"github.com/siemens/ipreport/types"
	"github.com/thediveo/lxkns/log"
)

// Outcome of a pipeline run. Depending on how far a run got, only the address
// set might be valid, or additionally the report, or finally also the
// artifact.
type Outcome struct {
	Set      addrset.AddressSet
	Report   report.Report
	Artifact string // name of the saved PDF document
	Pages    int
}

// Pipeline runs the complete batch enrichment of address inputs.
type Pipeline struct {
	cfg      config.Config
	client   lookup.Client
	policy   pacing.Policy
	clock    pacing.Clock
	shared   bool
	renderer *report.Renderer
	store    *storage.Dir
	closers  []func()
}

// Option can be passed to New when creating new Pipeline objects.
type Option func(*Pipeline)

// WithClient uses the specified lookup client instead of the configured
// provider.
func WithClient(client lookup.Client) Option {
	return func(p *Pipeline) {
		p.client = client
	}
}

// WithClock uses the specified clock for pacing, run timing, and artifact
// time stamps.
func WithClock(clock pacing.Clock) Option {
	return func(p *Pipeline) {
		p.clock = clock
	}
}

// WithSharedPacing applies the rate limit across all concurrent runs instead
// of per run.
func WithSharedPacing() Option {
	return func(p *Pipeline) {
		p.shared = true
	}
}

// WithRenderer uses the specified document renderer.
func WithRenderer(renderer *report.Renderer) Option {
	return func(p *Pipeline) {
		p.renderer = renderer
	}
}

// New returns a new Pipeline for the specified configuration. The passed
// context is only used while setting up the lookup provider.
func New(ctx context.Context, cfg config.Config, options ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	p := &Pipeline{
		cfg:   cfg,
		clock: pacing.SystemClock{},
	}
	for _, opt := range options {
		opt(p)
	}
	if p.renderer == nil {
		p.renderer = report.NewRenderer()
	}
	store, err := storage.New(cfg.Storage.Dir)
	if err != nil {
		return nil, err
	}
	p.store = store
	if p.policy, err = newPolicy(cfg.Pacing, p.clock); err != nil {
		return nil, err
	}
	if p.shared {
		p.policy = pacing.NewShared(p.policy)
	}
	if p.client == nil {
		if err := p.newClient(ctx); err != nil {
			p.Close()
			return nil, err
		}
	}
	log.Infof("pipeline using %s provider, %s pacing with %d lookups per %s",
		cfg.Lookup.Provider, cfg.Pacing.Policy, cfg.Pacing.RateLimit, cfg.Pacing.Cooldown)
	return p, nil
}

func newPolicy(cfg config.PacingConfig, clock pacing.Clock) (pacing.Policy, error) {
	switch cfg.Policy {
	case config.TokenBucketPolicy:
		return pacing.NewTokenBucket(cfg.RateLimit, cfg.Cooldown)
	default:
		return pacing.NewCooldown(cfg.RateLimit, cfg.Cooldown, clock)
	}
}

// newClient sets up the configured lookup provider, registering any resources
// to be released when closing the pipeline.
func (p *Pipeline) newClient(ctx context.Context) error {
	lcfg := p.cfg.Lookup
	switch lcfg.Provider {
	case lookup.GeoDBProvider:
		var options []lookup.GeoDBOption
		if lcfg.GeoDB.Resolver != "" {
			dnsclnt := dns.Client{Net: "udp", Timeout: lcfg.Timeout}
			pool, err := rdns.New(ctx, lcfg.GeoDB.ResolverWorkers, &dnsclnt, lcfg.GeoDB.Resolver)
			if err != nil {
				return fmt.Errorf("cannot connect to DNS resolver %s: %w", lcfg.GeoDB.Resolver, err)
			}
			p.closers = append(p.closers, pool.StopWait)
			options = append(options, lookup.WithHostnameResolver(pool))
		}
		geodb, err := lookup.OpenGeoDB(lcfg.GeoDB.City, lcfg.GeoDB.ASN, options...)
		if err != nil {
			return err
		}
		p.closers = append(p.closers, func() { _ = geodb.Close() })
		p.client = geodb
	default:
		p.client = lookup.NewIPAPI(lcfg.URL, lookup.WithTimeout(lcfg.Timeout))
	}
	return nil
}

// Store returns the artifact store of this pipeline.
func (p *Pipeline) Store() *storage.Dir { return p.store }

// Close releases the resources of the lookup provider. Close must not be
// called while runs are still in progress.
func (p *Pipeline) Close() {
	for idx := len(p.closers) - 1; idx >= 0; idx-- {
		p.closers[idx]()
	}
	p.closers = nil
}

// Run a complete batch enrichment of the specified input. If news is non-nil,
// progress updates get streamed into it; Run never closes the news channel.
//
// Run returns ErrEmptyInput and ErrNoValidAddresses from normalizing the input,
// ErrNoDataRetrieved in case none of the lookups succeeded, as well as errors
// in rendering or saving the report document. Except in case of an empty
// input, the returned Outcome is always non-nil and tells how far the run got.
func (p *Pipeline) Run(ctx context.Context, in addrset.RawInput, news chan<- types.AddressUpdate) (*Outcome, error) {
	set, err := addrset.Normalize(in)
	if err != nil {
		if errors.Is(err, addrset.ErrEmptyInput) {
			return nil, err
		}
		return &Outcome{Set: set}, err
	}
	if len(set.Invalid) > 0 {
		log.Warnf("invalid IP addresses ignored: %s", strings.Join(set.Invalid, ", "))
	}
	outcome := &Outcome{Set: set}

	sched := scheduler.New(p.client, p.policy,
		scheduler.WithWorkers(p.cfg.Lookup.Workers),
		scheduler.WithClock(p.clock),
		scheduler.WithNews(news))
	results, meta, err := sched.Run(ctx, set.Valid)
	outcome.Report = report.Assemble(set, results, meta)
	if err != nil {
		return outcome, err
	}

	ts := p.clock.Now()
	outcome.Report.GeneratedAt = ts
	artifact, err := p.renderer.Render(results, ts)
	if err != nil {
		return outcome, err
	}
	name, err := p.store.Save(artifact.Name, artifact.Data)
	if err != nil {
		return outcome, err
	}
	outcome.Report.Artifact = name
	outcome.Artifact = name
	outcome.Pages = artifact.Pages
	log.Infof("report %s: %d of %d addresses enriched in %.2fs, %d pages",
		name, outcome.Report.Enriched, outcome.Report.Requested, outcome.Report.ProcessingTime, artifact.Pages)
	return outcome, nil
}
