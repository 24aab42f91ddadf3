// internal/engine/fakes_test.go
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/xkilldash9x/aiqa-cli/api/schemas"
	"github.com/xkilldash9x/aiqa-cli/internal/artifacts"
	"github.com/xkilldash9x/aiqa-cli/internal/browser"
	"github.com/xkilldash9x/aiqa-cli/internal/config"
)

// fakeElement records interactions. Its text may change after a click via
// the owning driver's onClick hook.
type fakeElement struct {
	drv  *fakeDriver
	name string

	mu       sync.Mutex
	text     string
	typed    []string
	cleared  int
	clicks   int
	scrolled int
	textErr  error
	clickErr error
}

func (e *fakeElement) Clear(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cleared++
	e.typed = nil
	e.drv.record("clear " + e.name)
	return nil
}

func (e *fakeElement) Type(_ context.Context, text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.typed = append(e.typed, text)
	e.drv.record("type " + e.name + " " + text)
	return nil
}

func (e *fakeElement) Click(context.Context) error {
	e.mu.Lock()
	e.clicks++
	err := e.clickErr
	e.mu.Unlock()
	e.drv.record("click " + e.name)
	if err == nil && e.drv.onClick != nil {
		e.drv.onClick(e.name)
	}
	return err
}

func (e *fakeElement) ScrollIntoView(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scrolled++
	return nil
}

func (e *fakeElement) Text(context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.text, e.textErr
}

func (e *fakeElement) Value() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := ""
	for _, s := range e.typed {
		out += s
	}
	return out
}

func (e *fakeElement) SetText(s string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.text = s
}

// fakeDriver maps locator strings ("type=selector") to elements.
type fakeDriver struct {
	mu         sync.Mutex
	elements   map[string]*fakeElement
	lookups    []string
	log        []string
	navigated  []string
	readyState string
	navErr     error
	shotErr    error
	closed     int
	onClick    func(name string)
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{elements: map[string]*fakeElement{}, readyState: "complete"}
}

func (d *fakeDriver) add(loc browser.Locator, name, text string) *fakeElement {
	el := &fakeElement{drv: d, name: name, text: text}
	d.mu.Lock()
	d.elements[loc.String()] = el
	d.mu.Unlock()
	return el
}

func (d *fakeDriver) record(entry string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.log = append(d.log, entry)
}

func (d *fakeDriver) Navigate(_ context.Context, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.navigated = append(d.navigated, url)
	return d.navErr
}

func (d *fakeDriver) ReadyState(context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readyState, nil
}

func (d *fakeDriver) Find(ctx context.Context, loc browser.Locator) (browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lookups = append(d.lookups, loc.String())
	if el, ok := d.elements[loc.String()]; ok {
		return el, nil
	}
	return nil, fmt.Errorf("%s: %w", loc, browser.ErrNoSuchElement)
}

func (d *fakeDriver) Screenshot(context.Context) ([]byte, error) {
	if d.shotErr != nil {
		return nil, d.shotErr
	}
	return []byte("\x89PNG"), nil
}

func (d *fakeDriver) Close(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed++
	return nil
}

func (d *fakeDriver) Lookups() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.lookups...)
}

func (d *fakeDriver) Log() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.log...)
}

type fakeLauncher struct {
	driver *fakeDriver
	err    error
	opened int
}

func (l *fakeLauncher) Open(context.Context) (browser.Driver, error) {
	l.opened++
	if l.err != nil {
		return nil, l.err
	}
	return l.driver, nil
}

// fakeCapturer records every capture request instead of writing files.
type fakeCapturer struct {
	mu       sync.Mutex
	outcomes []string
}

func (c *fakeCapturer) Capture(ctx context.Context, shot artifacts.Screenshotter, outcome string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes = append(c.outcomes, outcome)
	if _, err := shot.Screenshot(ctx); err != nil {
		return ""
	}
	return "screenshots/" + outcome + "/test_20260101_120000.png"
}

// sleepRecorder replaces real sleeps so settle delays cost nothing.
type sleepRecorder struct {
	mu    sync.Mutex
	calls []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.calls = append(s.calls, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepRecorder) Calls() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.calls...)
}

type recordingObserver struct {
	mu       sync.Mutex
	statuses []StepStatus
	actions  []schemas.ActionKind
}

func (o *recordingObserver) StepCompleted(action schemas.ActionKind, status StepStatus, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.actions = append(o.actions, action)
	o.statuses = append(o.statuses, status)
}

// fastRunnerConfig keeps real polling loops in the millisecond range.
func fastRunnerConfig() config.RunnerConfig {
	return config.RunnerConfig{
		DefaultTimeout:    40 * time.Millisecond,
		PollInterval:      5 * time.Millisecond,
		FallbackTimeout:   10 * time.Millisecond,
		DefaultWaitMs:     1000,
		ClickSettle:       300 * time.Millisecond,
		CheckSettle:       500 * time.Millisecond,
		FinalSettle:       time.Second,
		TolerateEmptyText: true,
	}
}

var errBoom = errors.New("boom")

func idLoc(s string) browser.Locator { return browser.Locator{Selector: s, Type: schemas.SelectorID} }
