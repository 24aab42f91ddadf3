// internal/browser/launcher.go
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/aiqa-cli/internal/config"
)

const defaultActionTimeout = 10 * time.Second

// ChromeLauncher starts a fresh Chrome process per session over CDP.
type ChromeLauncher struct {
	cfg           config.BrowserConfig
	actionTimeout time.Duration
	logger        *zap.Logger
}

var _ Launcher = (*ChromeLauncher)(nil)

// NewChromeLauncher creates a launcher. actionTimeout bounds each individual
// element interaction so an invisible or detached node cannot stall a run.
func NewChromeLauncher(cfg config.BrowserConfig, actionTimeout time.Duration, logger *zap.Logger) *ChromeLauncher {
	if actionTimeout <= 0 {
		actionTimeout = defaultActionTimeout
	}
	return &ChromeLauncher{
		cfg:           cfg,
		actionTimeout: actionTimeout,
		logger:        logger.Named("browser"),
	}
}

// Open launches Chrome and attaches to its first tab. The browser is not tied to
// ctx's cancellation; only Close (or a failed Open) tears it down.
func (l *ChromeLauncher) Open(ctx context.Context) (Driver, error) {
	sessionID := uuid.NewString()
	logger := l.logger.With(zap.String("session_id", sessionID))

	allocCtx, allocCancel := chromedp.NewExecAllocator(Detach(ctx), AllocatorOptions(l.cfg)...)

	ctxOpts := []chromedp.ContextOption{
		chromedp.WithErrorf(func(format string, args ...any) {
			logger.Debug("CDP error", zap.String("detail", fmt.Sprintf(format, args...)))
		}),
	}
	if l.cfg.Debug {
		ctxOpts = append(ctxOpts, chromedp.WithLogf(func(format string, args ...any) {
			logger.Debug(fmt.Sprintf(format, args...))
		}))
	}
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, ctxOpts...)

	// The first Run starts the browser process and attaches to the target.
	startCtx, startCancel := CombineContext(tabCtx, ctx)
	defer startCancel()
	if err := chromedp.Run(startCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	logger.Info("Browser session opened.", zap.Bool("headless", l.cfg.Headless))
	return &Session{
		id:            sessionID,
		ctx:           tabCtx,
		cancel:        tabCancel,
		allocCancel:   allocCancel,
		actionTimeout: l.actionTimeout,
		logger:        logger,
	}, nil
}
