// Package expect implements web-first assertions over interfaces.Page.
// Every check is retried until it holds or its timeout elapses.
package expect

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"codeexpert_e2e/domain/entities"
	"codeexpert_e2e/domain/interfaces"
)

const (
	DefaultTimeout  = 5 * time.Second
	DefaultInterval = 100 * time.Millisecond
)

// Expecter asserts page state with polling
type Expecter struct {
	page     interfaces.Page
	timeout  time.Duration
	interval time.Duration
}

// Option configures an Expecter
type Option func(*Expecter)

// WithTimeout - sets the default timeout of every expectation
func WithTimeout(d time.Duration) Option {
	return func(e *Expecter) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithInterval - sets the polling interval
func WithInterval(d time.Duration) Option {
	return func(e *Expecter) {
		if d > 0 {
			e.interval = d
		}
	}
}

// New - creates new expecter for the page
func New(page interfaces.Page, opts ...Option) *Expecter {
	e := &Expecter{
		page:     page,
		timeout:  DefaultTimeout,
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Timeout returns the default expectation timeout
func (e *Expecter) Timeout() time.Duration {
	return e.timeout
}

// ToHaveTitle - waits until the page title matches the pattern
func (e *Expecter) ToHaveTitle(ctx context.Context, pattern *regexp.Regexp) error {
	return e.poll(ctx, e.timeout, fmt.Sprintf("page title to match /%s/", pattern), func(ctx context.Context) (bool, string, error) {
		title, err := e.page.Title(ctx)
		if err != nil {
			return false, "", err
		}
		return pattern.MatchString(title), fmt.Sprintf("%q", title), nil
	})
}

// ToHaveURL - waits until the page URL matches the pattern
func (e *Expecter) ToHaveURL(ctx context.Context, pattern *regexp.Regexp) error {
	return e.poll(ctx, e.timeout, fmt.Sprintf("page URL to match /%s/", pattern), func(ctx context.Context) (bool, string, error) {
		url, err := e.page.URL(ctx)
		if err != nil {
			return false, "", err
		}
		return pattern.MatchString(url), url, nil
	})
}

// ToHaveExactURL - waits until the page URL equals want
func (e *Expecter) ToHaveExactURL(ctx context.Context, want string) error {
	return e.poll(ctx, e.timeout, fmt.Sprintf("page URL to be %s", want), func(ctx context.Context) (bool, string, error) {
		url, err := e.page.URL(ctx)
		if err != nil {
			return false, "", err
		}
		return url == want, url, nil
	})
}

// ToBeVisible - waits until the element is visible. A zero timeout uses the default.
func (e *Expecter) ToBeVisible(ctx context.Context, loc entities.Locator, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = e.timeout
	}
	return e.poll(ctx, timeout, fmt.Sprintf("%s to be visible", loc), func(ctx context.Context) (bool, string, error) {
		visible, err := e.page.IsVisible(ctx, loc)
		if err != nil {
			return false, "", err
		}
		if visible {
			return true, "visible", nil
		}
		return false, "hidden or missing", nil
	})
}

// ToHaveValue - waits until the input value equals want
func (e *Expecter) ToHaveValue(ctx context.Context, loc entities.Locator, want string) error {
	return e.poll(ctx, e.timeout, fmt.Sprintf("%s to have value %q", loc, want), func(ctx context.Context) (bool, string, error) {
		value, err := e.page.InputValue(ctx, loc)
		if err != nil {
			return false, "", err
		}
		return value == want, fmt.Sprintf("%q", value), nil
	})
}

// ToHaveCount checks the number of matches once, without waiting
func (e *Expecter) ToHaveCount(ctx context.Context, loc entities.Locator, want int) error {
	n, err := e.page.Count(ctx, loc)
	if err != nil {
		return &entities.ExpectationError{
			Expectation: fmt.Sprintf("%s to match %d element(s)", loc, want),
			Err:         err,
		}
	}
	if n != want {
		return &entities.ExpectationError{
			Expectation: fmt.Sprintf("%s to match %d element(s)", loc, want),
			Actual:      fmt.Sprintf("%d", n),
		}
	}
	return nil
}

// poll - evaluates check until it holds, the timeout elapses or ctx is done.
// Errors returned by check are retried like an unmet condition.
func (e *Expecter) poll(ctx context.Context, timeout time.Duration, expectation string, check func(context.Context) (bool, string, error)) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	var (
		lastActual string
		lastErr    error
	)
	for {
		ok, actual, err := check(ctx)
		if err == nil && ok {
			return nil
		}
		lastErr = err
		if err == nil {
			lastActual = actual
		}

		if !time.Now().Before(deadline) {
			return &entities.ExpectationError{
				Expectation: expectation,
				Actual:      lastActual,
				Timeout:     timeout,
				Err:         lastErr,
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s: %w", expectation, ctx.Err())
		case <-ticker.C:
		}
	}
}
