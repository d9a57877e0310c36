// Package grab drives a whole run, from the authenticated session to the assembled file.
package grab

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hlsrip-cli/hlsrip/assemble"
	"github.com/hlsrip-cli/hlsrip/auth"
	"github.com/hlsrip-cli/hlsrip/log"
	"github.com/hlsrip-cli/hlsrip/manifest"
	"github.com/hlsrip-cli/hlsrip/retrieve"
	"github.com/hlsrip-cli/hlsrip/segment"
	"github.com/hlsrip-cli/hlsrip/session"
)

// Stage identifies a step of the pipeline.
type Stage int

const (
	StageDetect Stage = iota
	StageLogin
	StageFetch
	StagePattern
	StageRetrieve
	StageAssemble
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageDetect:
		return "detect"
	case StageLogin:
		return "login"
	case StageFetch:
		return "fetch"
	case StagePattern:
		return "pattern"
	case StageRetrieve:
		return "retrieve"
	case StageAssemble:
		return "assemble"
	case StageDone:
		return "done"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Pipeline wires the stages of a run. Zero durations disable the matching bound.
type Pipeline struct {
	// Page is the web page the session belongs to, used for referer defaults.
	Page string

	// Identity seeds the user agent, referer and origin when neither the
	// observation nor the provider set them.
	Identity auth.Context
	// Auth is consulted only when the observed manifest request carried no cookie.
	Auth       auth.Provider
	Discoverer manifest.Discoverer
	Fetcher    *manifest.Fetcher
	Transport  retrieve.Transport
	Assembler  *assemble.Assembler

	// Cache, when set, is refreshed with the session after a successful run.
	Cache *auth.Cache

	OutputDir string
	Tag       string
	Output    string

	Timeout      time.Duration
	DetectWindow time.Duration
	// MaxSegments caps the inferred range, zero means segment.DefaultMaxSegments.
	MaxSegments int

	// OnStage is called when a stage starts.
	OnStage func(stage Stage, detail string)

	now func() time.Time
}

func (p *Pipeline) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}

func (p *Pipeline) enter(stage Stage, detail string) {
	log.With(log.Fields{"stage": stage.String()}).Info(detail)
	if p.OnStage != nil {
		p.OnStage(stage, detail)
	}
}

// Run executes the pipeline once. The report is returned even on failure.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	started := p.clock()
	report := newReport(p.Page, session.Tag(p.Tag, started), started)

	err := p.run(ctx, report)
	report.Seconds = p.clock().Sub(started).Seconds()
	if err != nil {
		report.Error = err.Error()
		log.With(log.Fields{"id": report.ID}).Errorf("run failed: %s", err)
	}
	return report, err
}

func (p *Pipeline) run(ctx context.Context, report *Report) error {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	p.enter(StageDetect, "waiting for a manifest")
	obs, err := manifest.Observe(ctx, p.Discoverer, p.DetectWindow)
	if err != nil {
		return err
	}
	report.Manifest = obs.URL

	p.enter(StageLogin, "resolving session")
	ac, err := Session(ctx, obs, p.Identity, p.Auth, p.Page)
	if err != nil {
		return err
	}

	p.enter(StageFetch, obs.URL)
	text, err := p.Fetcher.Fetch(ctx, obs, ac)
	if err != nil {
		if !errors.Is(err, manifest.ErrUnavailable) || !obs.Playable() {
			return err
		}
		log.Warnf("refetch failed, using the captured manifest: %s", err)
		text = obs.Body
	}

	p.enter(StagePattern, "detecting segment numbering")
	pattern, err := segment.Detect(text)
	if err != nil {
		return err
	}
	report.Pattern = &pattern

	spec, err := segment.BuildRangeLimit(obs.URL, pattern, p.MaxSegments)
	if err != nil {
		return err
	}
	report.Template = spec.Template()
	report.Segments = int(spec.Count())

	sess, err := session.New(p.OutputDir, report.Tag, p.Output, report.StartedAt)
	if err != nil {
		return err
	}
	report.SessionDir = sess.Dir

	p.enter(StageRetrieve, spec.Template())
	result, err := p.Transport.FetchRange(ctx, spec, ac, sess.Dir)
	if result != nil {
		sess.Segments = result.Retrieved
		report.Retrieved = len(result.Retrieved)
		report.Failed = result.Failed
		report.Bytes = result.Bytes
	}
	if err != nil {
		return err
	}

	report.Remuxer = p.Assembler.Remuxer.Name()
	p.enter(StageAssemble, sess.Output)
	if err := p.Assembler.Assemble(ctx, sess.Segments, pattern.First, pattern.Last, sess.Output); err != nil {
		return err
	}
	report.Output = sess.Output

	if p.Cache != nil {
		if err := p.Cache.Store(ac); err != nil {
			log.Warnf("refresh session cache: %s", err)
		}
	}

	p.enter(StageDone, report.Summary())
	return nil
}

// Session resolves the one identity every request of a run is sent with.
// Headers the player sent with the observed manifest request win over the
// provider's, and the provider is skipped when the observation carries a
// cookie. identity seeds whatever neither of them sets.
func Session(ctx context.Context, obs manifest.Observation, identity auth.Context, provider auth.Provider, page string) (auth.Context, error) {
	observed := auth.Context{
		UserAgent: obs.Header("User-Agent"),
		Referer:   obs.Header("Referer"),
		Origin:    obs.Header("Origin"),
		Cookie:    obs.Header("Cookie"),
	}

	ac := identity
	if observed.Cookie == "" {
		if provider == nil {
			return auth.Context{}, auth.ErrLoginFailed
		}
		acquired, err := provider.Acquire(ctx)
		if err != nil {
			return auth.Context{}, err
		}
		ac = ac.Overlay(acquired)
	} else {
		log.Info("using the session of the observed manifest request")
	}

	return ac.Overlay(observed).WithDefaults(page), nil
}
