// internal/engine/resolver.go
package engine

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/aiqa-cli/api/schemas"
	"github.com/xkilldash9x/aiqa-cli/internal/browser"
)

// FallbackStrategy is one alternative interpretation of a selector string,
// tried after the declared selector type failed.
type FallbackStrategy struct {
	Name   string
	Locate func(selector string) browser.Locator
}

// DefaultFallbacks is the ordered chain tried after the primary lookup times out.
var DefaultFallbacks = []FallbackStrategy{
	{Name: "by-id", Locate: func(s string) browser.Locator { return browser.Locator{Selector: s, Type: schemas.SelectorID} }},
	{Name: "by-name", Locate: func(s string) browser.Locator { return browser.Locator{Selector: s, Type: schemas.SelectorName} }},
	{Name: "css-id", Locate: func(s string) browser.Locator { return browser.Locator{Selector: "#" + s, Type: schemas.SelectorCSS} }},
	{Name: "css-class", Locate: func(s string) browser.Locator { return browser.Locator{Selector: "." + s, Type: schemas.SelectorCSS} }},
	{Name: "css-name-attr", Locate: func(s string) browser.Locator {
		return browser.Locator{Selector: "[name='" + s + "']", Type: schemas.SelectorCSS}
	}},
	{Name: "by-tag", Locate: func(s string) browser.Locator { return browser.Locator{Selector: s, Type: schemas.SelectorTag} }},
}

var errPollExpired = errors.New("poll budget expired")

// Resolver turns a selector and its declared type into a live element, polling
// the page and then walking a fallback chain.
type Resolver struct {
	pollInterval    time.Duration
	fallbackTimeout time.Duration
	fallbacks       []FallbackStrategy
	logger          *zap.Logger
}

// NewResolver creates a Resolver using DefaultFallbacks.
func NewResolver(pollInterval, fallbackTimeout time.Duration, logger *zap.Logger) *Resolver {
	return &Resolver{
		pollInterval:    pollInterval,
		fallbackTimeout: fallbackTimeout,
		fallbacks:       DefaultFallbacks,
		logger:          logger.Named("resolver"),
	}
}

// Resolve polls for the element with the declared type for up to timeout. On
// expiry each fallback strategy gets fallbackTimeout; the first hit wins. When
// all are exhausted an *ElementNotFoundError naming the original selector and
// type is returned. Cancellation of ctx is returned as-is.
func (r *Resolver) Resolve(ctx context.Context, d browser.Driver, selector string, selectorType schemas.SelectorType, timeout time.Duration) (browser.Element, error) {
	primary := browser.Locator{Selector: selector, Type: selectorType.Normalize()}

	el, err := r.poll(ctx, d, primary, timeout)
	if err == nil {
		return el, nil
	}
	if !errors.Is(err, errPollExpired) {
		return nil, err
	}

	r.logger.Debug("Primary lookup timed out, trying fallbacks.",
		zap.String("selector", selector), zap.String("selector_type", string(selectorType)))

	for _, fb := range r.fallbacks {
		loc := fb.Locate(selector)
		el, err := r.poll(ctx, d, loc, r.fallbackTimeout)
		if err == nil {
			r.logger.Info("Element resolved by fallback.",
				zap.String("selector", selector), zap.String("strategy", fb.Name))
			return el, nil
		}
		if !errors.Is(err, errPollExpired) {
			return nil, err
		}
	}

	typeName := selectorType
	if typeName == "" {
		typeName = schemas.SelectorID
	}
	return nil, &ElementNotFoundError{Selector: selector, Type: typeName}
}

// poll repeats single Find attempts at pollInterval until one succeeds or the
// budget runs out. Lookup errors other than cancellation count as misses.
func (r *Resolver) poll(ctx context.Context, d browser.Driver, loc browser.Locator, budget time.Duration) (browser.Element, error) {
	deadline := time.Now().Add(budget)
	for {
		attemptCtx, cancel := context.WithDeadline(ctx, deadline)
		el, err := d.Find(attemptCtx, loc)
		cancel()
		if err == nil {
			return el, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !errors.Is(err, browser.ErrNoSuchElement) && !errors.Is(err, context.DeadlineExceeded) {
			r.logger.Debug("Lookup attempt failed.", zap.Stringer("locator", loc), zap.Error(err))
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, errPollExpired
		}
		if err := sleep(ctx, min(r.pollInterval, remaining)); err != nil {
			return nil, err
		}
	}
}

// sleep pauses for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
