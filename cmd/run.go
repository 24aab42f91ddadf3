// File: cmd/run.go
package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/aiqa-cli/api/schemas"
	"github.com/xkilldash9x/aiqa-cli/internal/fixtures"
	"github.com/xkilldash9x/aiqa-cli/internal/observability"
	"github.com/xkilldash9x/aiqa-cli/internal/reporting"
)

// ErrTestFailed is returned by run when the verdict is FAIL.
var ErrTestFailed = errors.New("test failed")

func newRunCmd() *cobra.Command {
	var (
		requirement  string
		url          string
		planPath     string
		outputPath   string
		format       string
		headless     bool
		analyzePage  bool
		artifactsDir string
	)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Generate a UI test from a requirement (or load one from a file) and run it",
		Example: `  aiqa run -r "User should not be able to login with wrong password" -u http://localhost:8000
  aiqa run --plan login.yaml --headless --format json -o report.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if requirement == "" && planPath == "" {
				return errors.New("either --requirement or --plan is required")
			}
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("headless") {
				cfg.SetBrowserHeadless(headless)
			}
			if cmd.Flags().Changed("analyze-page") {
				cfg.SetAgentAnalyzePage(analyzePage)
			}
			if artifactsDir != "" {
				cfg.SetArtifactsDir(artifactsDir)
			}
			if url == "" {
				url = fixtures.BaseURL(cfg.Fixtures().Addr)
			}

			ctx := cmd.Context()
			logger := observability.GetLogger()

			// Open the reporter first so a bad --format fails before the browser starts.
			reporter, err := reporting.New(format, outputPath)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := reporter.Close(); cerr != nil {
					logger.Error("Failed to finalize report.", zap.Error(cerr))
				}
			}()

			var plan schemas.Plan
			if planPath != "" {
				if plan, err = readPlanFile(planPath); err != nil {
					return err
				}
			}

			p, err := newPipeline(ctx, cfg, logger, pipelineOptions{requireLLM: plan == nil})
			if err != nil {
				return err
			}
			defer p.Close()

			var report *schemas.RunReport
			if plan != nil {
				report, err = p.orchestrator.RunPlan(ctx, requirement, plan, url)
			} else {
				report, err = p.orchestrator.Run(ctx, requirement, url)
			}
			if report != nil {
				if werr := reporter.Write(report); werr != nil {
					return fmt.Errorf("failed to write report: %w", werr)
				}
			}
			if err != nil {
				return err
			}
			if !report.Verdict.Passed() {
				return ErrTestFailed
			}
			return nil
		},
	}

	runCmd.Flags().StringVarP(&requirement, "requirement", "r", "", "natural-language requirement to test")
	runCmd.Flags().StringVarP(&url, "url", "u", "", "page under test (default: the fixture server address)")
	runCmd.Flags().StringVarP(&planPath, "plan", "p", "", "run a YAML or JSON plan file instead of generating one")
	runCmd.Flags().StringVarP(&outputPath, "output", "o", "", "report output path (default: stdout)")
	runCmd.Flags().StringVarP(&format, "format", "f", "text", "report format: text or json")
	runCmd.Flags().BoolVar(&headless, "headless", false, "run Chrome without a window")
	runCmd.Flags().BoolVar(&analyzePage, "analyze-page", false, "send a summary of the page's elements to the model")
	runCmd.Flags().StringVar(&artifactsDir, "artifacts-dir", "", "screenshot root directory")
	return runCmd
}
