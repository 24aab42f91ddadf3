// internal/browser/session.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Session is one Chrome tab driven over CDP. It implements Driver.
type Session struct {
	id            string
	ctx           context.Context
	cancel        context.CancelFunc
	allocCancel   context.CancelFunc
	actionTimeout time.Duration
	logger        *zap.Logger

	mu     sync.Mutex
	closed bool
}

var _ Driver = (*Session)(nil)

// ID returns the session identifier used in logs.
func (s *Session) ID() string { return s.id }

// runActions executes chromedp actions under the tab context, bounded by both
// the caller's ctx and the per-action timeout.
func (s *Session) runActions(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()
	runCtx, cancelTimeout := context.WithTimeout(runCtx, s.actionTimeout)
	defer cancelTimeout()

	return chromedp.Run(runCtx, actions...)
}

// Navigate loads url and returns once the load event fired.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.runActions(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

// ReadyState returns document.readyState.
func (s *Session) ReadyState(ctx context.Context) (string, error) {
	var state string
	if err := s.runActions(ctx, chromedp.Evaluate(`document.readyState`, &state)); err != nil {
		return "", fmt.Errorf("read document.readyState: %w", err)
	}
	return state, nil
}

// Find makes a single lookup attempt for loc.
func (s *Session) Find(ctx context.Context, loc Locator) (Element, error) {
	sel, opts := loc.query()
	var nodes []*cdp.Node
	opts = append(opts, chromedp.AtLeast(0))
	if err := s.runActions(ctx, chromedp.Nodes(sel, &nodes, opts...)); err != nil {
		return nil, fmt.Errorf("query %s: %w", loc, err)
	}
	for _, n := range nodes {
		// Only element nodes can be typed into, clicked or read.
		if n.NodeType == cdp.NodeTypeElement {
			return &element{session: s, id: n.NodeID, loc: loc}, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", loc, ErrNoSuchElement)
}

// Screenshot captures the visible viewport as PNG.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := s.runActions(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	return buf, nil
}

// Close shuts the browser down. It is safe to call more than once.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- chromedp.Cancel(s.ctx) }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	s.cancel()
	s.allocCancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("Browser did not shut down cleanly.", zap.Error(err))
		return fmt.Errorf("close browser: %w", err)
	}
	s.logger.Info("Browser session closed.")
	return nil
}

// element is a node handle addressed by its CDP node ID.
type element struct {
	session *Session
	id      cdp.NodeID
	loc     Locator
}

func (e *element) ids() []cdp.NodeID { return []cdp.NodeID{e.id} }

func (e *element) Clear(ctx context.Context) error {
	if err := e.session.runActions(ctx, chromedp.Clear(e.ids(), chromedp.ByNodeID)); err != nil {
		return fmt.Errorf("clear %s: %w", e.loc, err)
	}
	return nil
}

func (e *element) Type(ctx context.Context, text string) error {
	if err := e.session.runActions(ctx, chromedp.SendKeys(e.ids(), text, chromedp.ByNodeID)); err != nil {
		return fmt.Errorf("type into %s: %w", e.loc, err)
	}
	return nil
}

func (e *element) Click(ctx context.Context) error {
	if err := e.session.runActions(ctx, chromedp.Click(e.ids(), chromedp.ByNodeID)); err != nil {
		return fmt.Errorf("click %s: %w", e.loc, err)
	}
	return nil
}

func (e *element) ScrollIntoView(ctx context.Context) error {
	if err := e.session.runActions(ctx, chromedp.ScrollIntoView(e.ids(), chromedp.ByNodeID)); err != nil {
		return fmt.Errorf("scroll %s into view: %w", e.loc, err)
	}
	return nil
}

func (e *element) Text(ctx context.Context) (string, error) {
	var text string
	if err := e.session.runActions(ctx, chromedp.Text(e.ids(), &text, chromedp.ByNodeID)); err != nil {
		return "", fmt.Errorf("read text of %s: %w", e.loc, err)
	}
	return text, nil
}
