// File: internal/orchestrator/orchestrator.go
// Description: Drives one requirement-to-verdict run. Each stage is injected
// through a narrow interface so the pipeline can be tested without a browser
// or a model.

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/aiqa-cli/api/schemas"
	"github.com/xkilldash9x/aiqa-cli/internal/engine"
	"github.com/xkilldash9x/aiqa-cli/internal/metrics"
	"github.com/xkilldash9x/aiqa-cli/internal/pageinfo"
	"github.com/xkilldash9x/aiqa-cli/internal/planner"
	"github.com/xkilldash9x/aiqa-cli/internal/reporting"
)

// PlanGenerator turns a requirement into syntactically valid plan JSON.
type PlanGenerator interface {
	Generate(ctx context.Context, requirement, pageContext string) ([]byte, error)
}

// Executor runs a validated plan against a page.
type Executor interface {
	Execute(ctx context.Context, plan schemas.Plan, url string) schemas.Verdict
}

// VerdictExplainer produces the human-readable explanation of a verdict.
type VerdictExplainer interface {
	Explain(ctx context.Context, v schemas.Verdict, requirement string, plan schemas.Plan) (string, error)
}

// PlanRejectedError is returned when a plan fails validation. No browser is
// opened for a rejected plan.
type PlanRejectedError struct {
	Reason string
	Raw    []byte
}

func (e *PlanRejectedError) Error() string {
	return "invalid steps: " + e.Reason
}

// Orchestrator manages the lifecycle of a single test run.
type Orchestrator struct {
	planner   PlanGenerator
	executor  Executor
	explainer VerdictExplainer
	analyzer  pageinfo.Analyzer
	notifier  schemas.Notifier
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// Option configures optional stages.
type Option func(*Orchestrator)

// WithAnalyzer enables page analysis before plan generation.
func WithAnalyzer(a pageinfo.Analyzer) Option {
	return func(o *Orchestrator) { o.analyzer = a }
}

// WithNotifier sends a summary message after every completed run.
func WithNotifier(n schemas.Notifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

// WithMetrics records stage and run metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// New creates an Orchestrator. The planner may be nil when only RunPlan is used.
func New(p PlanGenerator, executor Executor, explainer VerdictExplainer, logger *zap.Logger, opts ...Option) (*Orchestrator, error) {
	if executor == nil || explainer == nil || logger == nil {
		return nil, fmt.Errorf("cannot initialize orchestrator with nil dependencies")
	}
	o := &Orchestrator{
		planner:   p,
		executor:  executor,
		explainer: explainer,
		logger:    logger.Named("orchestrator"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Plan generates, validates and decodes the plan for a requirement. A
// validation failure is reported as *PlanRejectedError.
func (o *Orchestrator) Plan(ctx context.Context, requirement, url string) (schemas.Plan, error) {
	if o.planner == nil {
		return nil, errors.New("no plan generator configured")
	}
	if strings.TrimSpace(requirement) == "" {
		return nil, errors.New("requirement must not be empty")
	}

	var pageContext string
	if o.analyzer != nil && url != "" {
		start := o.now()
		pageContext = o.analyzer.Analyze(ctx, url)
		o.metrics.ObserveStage("analyze", nil, o.now().Sub(start))
		o.logger.Debug("Page analyzed.", zap.String("url", url), zap.Int("context_bytes", len(pageContext)))
	}

	start := o.now()
	raw, err := o.planner.Generate(ctx, requirement, pageContext)
	o.metrics.ObserveStage("generate", err, o.now().Sub(start))
	if err != nil {
		return nil, err
	}

	if ok, reason := engine.ValidateJSON(raw); !ok {
		o.logger.Warn("Plan rejected.", zap.String("reason", reason))
		return nil, &PlanRejectedError{Reason: reason, Raw: raw}
	}
	return planner.DecodePlan(raw)
}

// Run executes the full pipeline for a requirement against url.
func (o *Orchestrator) Run(ctx context.Context, requirement, url string) (*schemas.RunReport, error) {
	if url == "" {
		return nil, errors.New("url must not be empty")
	}
	started := o.now()
	done := o.metrics.RunStarted()

	plan, err := o.Plan(ctx, requirement, url)
	if err != nil {
		done("ERROR", o.now().Sub(started))
		return nil, err
	}
	report, err := o.execute(ctx, requirement, plan, url, started)
	done(report.Verdict.Result, report.Duration)
	return report, err
}

// RunPlan executes a plan supplied by the caller, skipping generation.
func (o *Orchestrator) RunPlan(ctx context.Context, requirement string, plan schemas.Plan, url string) (*schemas.RunReport, error) {
	if url == "" {
		return nil, errors.New("url must not be empty")
	}
	if ok, reason := engine.Validate(plan); !ok {
		return nil, &PlanRejectedError{Reason: reason}
	}
	started := o.now()
	done := o.metrics.RunStarted()
	report, err := o.execute(ctx, requirement, plan, url, started)
	done(report.Verdict.Result, report.Duration)
	return report, err
}

// execute always returns a report carrying the verdict. A failed explanation
// is returned as the error alongside it.
func (o *Orchestrator) execute(ctx context.Context, requirement string, plan schemas.Plan, url string, started time.Time) (*schemas.RunReport, error) {
	runID := uuid.NewString()
	logger := o.logger.With(zap.String("run_id", runID))
	logger.Info("Executing plan.", zap.String("url", url), zap.Int("steps", len(plan)))

	start := o.now()
	verdict := o.executor.Execute(ctx, plan, url)
	o.metrics.ObserveStage("execute", nil, o.now().Sub(start))

	start = o.now()
	explanation, err := o.explainer.Explain(ctx, verdict, requirement, plan)
	o.metrics.ObserveStage("explain", err, o.now().Sub(start))

	report := &schemas.RunReport{
		RunID:       runID,
		Requirement: requirement,
		URL:         url,
		Plan:        plan,
		Verdict:     verdict,
		Explanation: explanation,
		StartedAt:   started,
		Duration:    o.now().Sub(started),
	}
	logger.Info("Run finished.",
		zap.String("result", string(verdict.Result)),
		zap.String("reason", verdict.Reason),
		zap.String("artifact", verdict.ArtifactPath),
	)

	if err != nil {
		return report, err
	}

	if o.notifier != nil {
		if nerr := o.notifier.Notify(ctx, reporting.StaticEvaluate(verdict)); nerr != nil {
			logger.Warn("Notification failed.", zap.Error(nerr))
		}
	}
	return report, nil
}
