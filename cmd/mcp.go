// File: cmd/mcp.go
package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/aiqa-cli/api/schemas"
	"github.com/xkilldash9x/aiqa-cli/internal/fixtures"
	"github.com/xkilldash9x/aiqa-cli/internal/mcp"
	"github.com/xkilldash9x/aiqa-cli/internal/metrics"
	"github.com/xkilldash9x/aiqa-cli/internal/observability"
)

func newMCPCmd() *cobra.Command {
	var (
		transport  string
		addr       string
		defaultURL string
		headless   bool
	)

	mcpCmd := &cobra.Command{
		Use:   "mcp",
		Short: "Expose the test runner as MCP tools",
		Long: `Starts a Model Context Protocol server with the run_ui_test, generate_steps,
validate_steps and action_schema tools. Logs go to stderr so stdio stays free
for the protocol.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			mcpCfg := cfg.MCP()
			if transport != "" {
				mcpCfg.Transport = transport
			}
			if addr != "" {
				mcpCfg.Addr = addr
			}
			if cmd.Flags().Changed("headless") {
				cfg.SetBrowserHeadless(headless)
			}
			if defaultURL == "" {
				defaultURL = fixtures.BaseURL(cfg.Fixtures().Addr)
			}

			logger := observability.GetLogger()
			srv := mcp.NewServer(Version, mcpCfg, logger)

			var m *metrics.Metrics
			reg := metrics.NewRegistry()
			if cfg.Metrics().Enabled {
				m = metrics.MustNewMetrics(reg)
			}

			p, err := newPipeline(cmd.Context(), cfg, logger, pipelineOptions{
				requireLLM: true,
				notifiers:  []schemas.Notifier{srv.Notifier()},
				metrics:    m,
			})
			if err != nil {
				return err
			}
			defer p.Close()
			srv.RegisterTools(p.orchestrator, defaultURL)

			g, ctx := errgroup.WithContext(cmd.Context())
			ctx, stop := context.WithCancel(ctx)
			defer stop()
			g.Go(func() error {
				// stdio returns on EOF; take the metrics listener down with it.
				defer stop()
				return srv.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
			})
			if m != nil {
				metricsAddr := cfg.Metrics().Addr
				g.Go(func() error { return metrics.ListenAndServe(ctx, metricsAddr, reg, logger) })
			}
			return g.Wait()
		},
	}

	mcpCmd.Flags().StringVar(&transport, "transport", "", "stdio, sse or streamable-http (default from mcp.transport)")
	mcpCmd.Flags().StringVar(&addr, "addr", "", "listen address for HTTP transports (default from mcp.addr)")
	mcpCmd.Flags().StringVar(&defaultURL, "default-url", "", "page tested when a call omits url (default: the fixture server)")
	mcpCmd.Flags().BoolVar(&headless, "headless", true, "run Chrome without a window")
	return mcpCmd
}
