// internal/artifacts/capture.go
package artifacts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
)

const (
	OutcomePass = "pass"
	OutcomeFail = "fail"

	timestampLayout = "20060102_150405"
)

// Screenshotter is anything that can produce a PNG of its current state.
type Screenshotter interface {
	Screenshot(ctx context.Context) ([]byte, error)
}

// Capturer writes end-of-run screenshots into <root>/pass or <root>/fail.
type Capturer struct {
	root   string
	logger *zap.Logger
	now    func() time.Time
}

// NewCapturer creates a Capturer rooted at dir. A leading ~ is expanded.
func NewCapturer(dir string, logger *zap.Logger) (*Capturer, error) {
	root, err := homedir.Expand(dir)
	if err != nil {
		return nil, fmt.Errorf("expand artifacts dir %q: %w", dir, err)
	}
	return &Capturer{
		root:   root,
		logger: logger.Named("artifacts"),
		now:    time.Now,
	}, nil
}

// Root returns the expanded artifacts directory.
func (c *Capturer) Root() string { return c.root }

// Capture takes one screenshot and stores it under the outcome folder. Any
// outcome other than "pass" is filed under "fail". Failures are logged and
// reported as an empty path.
func (c *Capturer) Capture(ctx context.Context, shot Screenshotter, outcome string) string {
	if outcome != OutcomePass {
		outcome = OutcomeFail
	}

	dir := filepath.Join(c.root, outcome)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		c.logger.Warn("Could not create screenshot directory.", zap.String("dir", dir), zap.Error(err))
		return ""
	}

	png, err := shot.Screenshot(ctx)
	if err != nil {
		c.logger.Warn("Screenshot capture failed.", zap.Error(err))
		return ""
	}

	path := filepath.Join(dir, fmt.Sprintf("test_%s.png", c.now().Format(timestampLayout)))
	if err := os.WriteFile(path, png, 0o644); err != nil {
		c.logger.Warn("Could not write screenshot.", zap.String("path", path), zap.Error(err))
		return ""
	}

	c.logger.Info("Screenshot saved.", zap.String("path", path))
	return path
}
