// File: cmd/generate.go
package cmd

import (
	"errors"
	"fmt"
	"os"

	json "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/aiqa-cli/internal/observability"
	"github.com/xkilldash9x/aiqa-cli/internal/orchestrator"
)

func newGenerateCmd() *cobra.Command {
	var (
		requirement string
		url         string
		outputPath  string
		analyzePage bool
	)

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a test plan for a requirement without running it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if requirement == "" {
				return errors.New("--requirement is required")
			}
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("analyze-page") {
				cfg.SetAgentAnalyzePage(analyzePage)
			}

			p, err := newPipeline(cmd.Context(), cfg, observability.GetLogger(), pipelineOptions{requireLLM: true})
			if err != nil {
				return err
			}
			defer p.Close()

			plan, err := p.orchestrator.Plan(cmd.Context(), requirement, url)
			if err != nil {
				var rejected *orchestrator.PlanRejectedError
				if errors.As(err, &rejected) && len(rejected.Raw) > 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), "Model output:\n%s\n", rejected.Raw)
				}
				return err
			}

			data, err := json.ConfigCompatibleWithStandardLibrary.MarshalIndent(plan, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode plan: %w", err)
			}
			data = append(data, '\n')

			if outputPath == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(outputPath, data, 0o644); err != nil {
				return fmt.Errorf("failed to write plan: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Plan with %d steps written to %s\n", len(plan), outputPath)
			return nil
		},
	}

	generateCmd.Flags().StringVarP(&requirement, "requirement", "r", "", "natural-language requirement to test")
	generateCmd.Flags().StringVarP(&url, "url", "u", "", "page to analyze for element hints (with --analyze-page)")
	generateCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the plan to a file instead of stdout")
	generateCmd.Flags().BoolVar(&analyzePage, "analyze-page", false, "send a summary of the page's elements to the model")
	return generateCmd
}
