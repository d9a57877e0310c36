package auth

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNoSession is returned by providers that have nothing to offer, e.g. an empty cache.
	ErrNoSession = errors.New("no session available")

	// ErrLoginFailed is returned when no provider could produce a session.
	ErrLoginFailed = errors.New("login failed")
)

// Provider acquires an authenticated context for one run.
type Provider interface {
	Acquire(ctx context.Context) (Context, error)
}

// Static is a session given up front, e.g. through flags or the environment.
type Static Context

// Acquire returns the static context, or ErrNoSession when it has no cookie.
func (s Static) Acquire(context.Context) (Context, error) {
	if s.Cookie == "" {
		return Context{}, ErrNoSession
	}
	return Context(s), nil
}

// Chain tries providers in order and returns the first session obtained.
type Chain []Provider

// Acquire walks the chain. It fails with ErrLoginFailed when every provider failed.
func (c Chain) Acquire(ctx context.Context) (Context, error) {
	var errs []error
	for _, p := range c {
		if err := ctx.Err(); err != nil {
			return Context{}, err
		}

		ac, err := p.Acquire(ctx)
		if err == nil {
			return ac, nil
		}
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		return Context{}, ErrLoginFailed
	}
	return Context{}, fmt.Errorf("%w: %w", ErrLoginFailed, errors.Join(errs...))
}

// Persist wraps p so that every session it produces is written to the cache.
func Persist(p Provider, cache *Cache) Provider {
	return persisting{p, cache}
}

type persisting struct {
	Provider
	cache *Cache
}

func (p persisting) Acquire(ctx context.Context) (Context, error) {
	ac, err := p.Provider.Acquire(ctx)
	if err != nil {
		return ac, err
	}
	if err := p.cache.Store(ac); err != nil {
		return ac, fmt.Errorf("store session: %w", err)
	}
	return ac, nil
}

// Foreground wraps p so that each acquisition runs through run, which can
// hand the terminal over to prompts for the duration of the call.
func Foreground(p Provider, run func(fn func() error) error) Provider {
	return foreground{p, run}
}

type foreground struct {
	Provider
	run func(fn func() error) error
}

func (f foreground) Acquire(ctx context.Context) (Context, error) {
	var (
		ac  Context
		err error
	)
	if runErr := f.run(func() error {
		ac, err = f.Provider.Acquire(ctx)
		return err
	}); runErr != nil && err == nil {
		return Context{}, runErr
	}
	return ac, err
}
