// internal/engine/interpreter.go
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/aiqa-cli/api/schemas"
	"github.com/xkilldash9x/aiqa-cli/internal/artifacts"
	"github.com/xkilldash9x/aiqa-cli/internal/browser"
	"github.com/xkilldash9x/aiqa-cli/internal/config"
)

const cleanupTimeout = 30 * time.Second

// Capturer stores the end-of-run screenshot and returns its path, or "" when
// nothing was written.
type Capturer interface {
	Capture(ctx context.Context, shot artifacts.Screenshotter, outcome string) string
}

// StepObserver receives one call per executed step.
type StepObserver interface {
	StepCompleted(action schemas.ActionKind, status StepStatus, elapsed time.Duration)
}

// Interpreter executes a validated plan against one browser session and folds
// the step outcomes into a verdict.
type Interpreter struct {
	launcher browser.Launcher
	resolver *Resolver
	capturer Capturer
	cfg      config.RunnerConfig
	observer StepObserver
	logger   *zap.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// NewInterpreter wires an Interpreter. All dependencies are required.
func NewInterpreter(launcher browser.Launcher, capturer Capturer, cfg config.RunnerConfig, logger *zap.Logger) (*Interpreter, error) {
	if launcher == nil {
		return nil, errors.New("browser launcher cannot be nil")
	}
	if capturer == nil {
		return nil, errors.New("artifact capturer cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid runner configuration: %w", err)
	}

	logger = logger.Named("interpreter")
	return &Interpreter{
		launcher: launcher,
		resolver: NewResolver(cfg.PollInterval, cfg.FallbackTimeout, logger),
		capturer: capturer,
		cfg:      cfg,
		logger:   logger,
		sleep:    sleep,
	}, nil
}

// WithObserver attaches a step observer and returns the interpreter.
func (in *Interpreter) WithObserver(o StepObserver) *Interpreter {
	in.observer = o
	return in
}

// Execute runs plan against url and always returns a verdict. In-run faults
// become FAIL verdicts. The session gets exactly one screenshot attempt and one
// close, both under a context detached from ctx.
func (in *Interpreter) Execute(ctx context.Context, plan schemas.Plan, url string) schemas.Verdict {
	acc := newVerdictAccumulator()

	driver, err := in.launcher.Open(ctx)
	if err != nil {
		acc.Fold(faultOutcome(-1, "", err))
		v := acc.Verdict()
		in.logger.Error("Could not open browser session.", zap.Error(err))
		return v
	}

	if err := in.loadPage(ctx, driver, url); err != nil {
		acc.Fold(faultOutcome(-1, schemas.ActionNavigate, err))
	} else {
		in.runSteps(ctx, driver, plan, acc)
	}

	verdict := acc.Verdict()

	cleanupCtx, cancel := context.WithTimeout(browser.Detach(ctx), cleanupTimeout)
	defer cancel()
	verdict.ArtifactPath = in.capturer.Capture(cleanupCtx, driver, verdict.Outcome())
	if err := driver.Close(cleanupCtx); err != nil {
		in.logger.Warn("Error closing browser.", zap.Error(err))
	}

	in.logger.Info("Run finished.",
		zap.String("result", string(verdict.Result)),
		zap.String("reason", verdict.Reason),
		zap.String("screenshot", verdict.ArtifactPath))
	return verdict
}

func (in *Interpreter) runSteps(ctx context.Context, d browser.Driver, plan schemas.Plan, acc *verdictAccumulator) {
	for i, step := range plan {
		start := time.Now()
		outcome := in.runStep(ctx, d, i, step)
		if in.observer != nil {
			in.observer.StepCompleted(step.Action, outcome.Status, time.Since(start))
		}
		if outcome.Status == StepMismatch {
			in.logger.Warn("Check mismatch.", zap.Int("step", i+1), zap.String("reason", outcome.Reason))
		}
		if !acc.Fold(outcome) {
			in.logger.Warn("Run halted.", zap.Int("step", i+1), zap.String("reason", outcome.Reason))
			return
		}
	}

	// Leave the final state on screen briefly before the screenshot.
	if err := in.sleep(ctx, in.cfg.FinalSettle); err != nil {
		acc.Fold(faultOutcome(len(plan), "", err))
	}
}

// loadPage navigates once and waits for document.readyState to become complete.
func (in *Interpreter) loadPage(ctx context.Context, d browser.Driver, url string) error {
	if err := d.Navigate(ctx, url); err != nil {
		return err
	}

	deadline := time.Now().Add(in.cfg.DefaultTimeout)
	for {
		state, err := d.ReadyState(ctx)
		if err == nil && state == "complete" {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("page %s did not finish loading within %s: %w", url, in.cfg.DefaultTimeout, ErrTimeout)
		}
		if err := in.sleep(ctx, in.cfg.PollInterval); err != nil {
			return err
		}
	}
}

func (in *Interpreter) runStep(ctx context.Context, d browser.Driver, i int, step schemas.Action) StepOutcome {
	in.logger.Info("Executing step.",
		zap.Int("step", i+1),
		zap.String("action", string(step.Action)),
		zap.String("selector", step.Selector),
		zap.String("selector_type", string(step.SelectorType)),
		zap.String("value", step.Value.String()))

	var err error
	switch step.Action {
	case schemas.ActionNavigate:
		// The page was loaded before the first step.
		return StepOutcome{Index: i, Action: step.Action, Status: StepSkipped}
	case schemas.ActionWait:
		ms := step.Value.Millis(in.cfg.DefaultWaitMs)
		err = in.sleep(ctx, time.Duration(ms)*time.Millisecond)
	case schemas.ActionInput:
		err = in.input(ctx, d, step)
	case schemas.ActionClick:
		err = in.click(ctx, d, step)
	case schemas.ActionCheck:
		return in.check(ctx, d, i, step)
	default:
		in.logger.Warn("Unknown action, skipping.", zap.Int("step", i+1), zap.String("action", string(step.Action)))
		return StepOutcome{Index: i, Action: step.Action, Status: StepSkipped}
	}

	if err != nil {
		return faultOutcome(i, step.Action, err)
	}
	return StepOutcome{Index: i, Action: step.Action, Status: StepOK}
}

func (in *Interpreter) resolve(ctx context.Context, d browser.Driver, step schemas.Action) (browser.Element, error) {
	return in.resolver.Resolve(ctx, d, step.Selector, step.SelectorType, in.cfg.DefaultTimeout)
}

func (in *Interpreter) input(ctx context.Context, d browser.Driver, step schemas.Action) error {
	el, err := in.resolve(ctx, d, step)
	if err != nil {
		return err
	}
	if err := el.Clear(ctx); err != nil {
		return err
	}
	return el.Type(ctx, step.Value.String())
}

func (in *Interpreter) click(ctx context.Context, d browser.Driver, step schemas.Action) error {
	el, err := in.resolve(ctx, d, step)
	if err != nil {
		return err
	}
	if err := el.ScrollIntoView(ctx); err != nil {
		return err
	}
	if err := in.sleep(ctx, in.cfg.ClickSettle); err != nil {
		return err
	}
	return el.Click(ctx)
}

func (in *Interpreter) check(ctx context.Context, d browser.Driver, i int, step schemas.Action) StepOutcome {
	if err := in.sleep(ctx, in.cfg.CheckSettle); err != nil {
		return faultOutcome(i, step.Action, err)
	}

	el, err := in.resolve(ctx, d, step)
	if err != nil {
		return faultOutcome(i, step.Action, err)
	}

	if err := in.awaitText(ctx, el); err != nil {
		if ctx.Err() != nil {
			return faultOutcome(i, step.Action, ctx.Err())
		}
		if !in.cfg.TolerateEmptyText {
			return faultOutcome(i, step.Action, fmt.Errorf("text of %s: %w", step.Selector, err))
		}
		in.logger.Debug("Element text stayed empty; checking anyway.", zap.String("selector", step.Selector))
	}

	actual, err := el.Text(ctx)
	if err != nil {
		return faultOutcome(i, step.Action, err)
	}

	expected := step.Value.String()
	if !strings.Contains(strings.ToLower(actual), strings.ToLower(expected)) {
		return StepOutcome{
			Index:  i,
			Action: step.Action,
			Status: StepMismatch,
			Reason: fmt.Sprintf("Expected text containing '%s', but got '%s'", expected, actual),
		}
	}

	in.logger.Info("Found expected text.", zap.String("expected", expected), zap.String("actual", actual))
	return StepOutcome{Index: i, Action: step.Action, Status: StepOK}
}

// awaitText polls until el has non-empty text or DefaultTimeout passes.
func (in *Interpreter) awaitText(ctx context.Context, el browser.Element) error {
	deadline := time.Now().Add(in.cfg.DefaultTimeout)
	for {
		if text, err := el.Text(ctx); err == nil && text != "" {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("stayed empty for %s: %w", in.cfg.DefaultTimeout, ErrTimeout)
		}
		if err := in.sleep(ctx, in.cfg.PollInterval); err != nil {
			return err
		}
	}
}
