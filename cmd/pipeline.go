// File: cmd/pipeline.go
package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/aiqa-cli/api/schemas"
	"github.com/xkilldash9x/aiqa-cli/internal/artifacts"
	"github.com/xkilldash9x/aiqa-cli/internal/browser"
	"github.com/xkilldash9x/aiqa-cli/internal/config"
	"github.com/xkilldash9x/aiqa-cli/internal/engine"
	"github.com/xkilldash9x/aiqa-cli/internal/llmclient"
	"github.com/xkilldash9x/aiqa-cli/internal/metrics"
	"github.com/xkilldash9x/aiqa-cli/internal/notify"
	"github.com/xkilldash9x/aiqa-cli/internal/orchestrator"
	"github.com/xkilldash9x/aiqa-cli/internal/pageinfo"
	"github.com/xkilldash9x/aiqa-cli/internal/planner"
	"github.com/xkilldash9x/aiqa-cli/internal/reporting"
)

// pipelineOptions selects the optional parts of a pipeline.
type pipelineOptions struct {
	// requireLLM fails the build when no model client can be created.
	// Otherwise a missing client degrades to static explanations and no
	// plan generation.
	requireLLM bool
	notifiers  []schemas.Notifier
	metrics    *metrics.Metrics
}

// pipeline holds a wired orchestrator and the resources to release after use.
type pipeline struct {
	orchestrator *orchestrator.Orchestrator
	llm          schemas.LLMClient
}

func (p *pipeline) Close() {
	if p.llm != nil {
		_ = p.llm.Close()
	}
}

// newPipeline wires the full requirement-to-verdict chain from configuration.
func newPipeline(ctx context.Context, cfg config.Interface, logger *zap.Logger, opts pipelineOptions) (*pipeline, error) {
	llm, err := llmclient.NewClient(ctx, cfg.Agent(), logger)
	if err != nil {
		if opts.requireLLM {
			return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
		}
		logger.Debug("No LLM client available, failure explanations will be static.", zap.Error(err))
		llm = nil
	}
	p := &pipeline{llm: llm}

	var generator orchestrator.PlanGenerator
	if llm != nil {
		pl, err := planner.New(llm, cfg.Agent().RepairJSON, logger)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to initialize planner: %w", err)
		}
		generator = pl
	}

	capturer, err := artifacts.NewCapturer(cfg.Artifacts().Dir, logger)
	if err != nil {
		p.Close()
		return nil, err
	}

	runnerCfg := cfg.Runner()
	launcher := browser.NewChromeLauncher(cfg.Browser(), runnerCfg.DefaultTimeout, logger)
	interpreter, err := engine.NewInterpreter(launcher, capturer, runnerCfg, logger)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to initialize interpreter: %w", err)
	}

	orchOpts := []orchestrator.Option{
		orchestrator.WithNotifier(append(notify.Multi{notify.NewLogNotifier(logger)}, opts.notifiers...)),
	}
	if opts.metrics != nil {
		interpreter.WithObserver(opts.metrics)
		orchOpts = append(orchOpts, orchestrator.WithMetrics(opts.metrics))
	}
	if cfg.Agent().AnalyzePage {
		orchOpts = append(orchOpts, orchestrator.WithAnalyzer(pageinfo.NewHTMLAnalyzer(nil, logger)))
	}

	orch, err := orchestrator.New(generator, interpreter, reporting.NewExplainer(llm, logger), logger, orchOpts...)
	if err != nil {
		p.Close()
		return nil, err
	}
	p.orchestrator = orch
	return p, nil
}
