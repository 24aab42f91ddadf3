// File: cmd/serve_fixtures.go
package cmd

import (
	"fmt"
	"net"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/aiqa-cli/internal/fixtures"
	"github.com/xkilldash9x/aiqa-cli/internal/metrics"
	"github.com/xkilldash9x/aiqa-cli/internal/observability"
)

func newServeFixturesCmd() *cobra.Command {
	var (
		addr string
		dir  string
	)

	serveCmd := &cobra.Command{
		Use:   "serve-fixtures",
		Short: "Serve the login and signup test pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			fixturesCfg := cfg.Fixtures()
			if addr != "" {
				fixturesCfg.Addr = addr
			}
			if dir != "" {
				fixturesCfg.Dir = dir
			}

			logger := observability.GetLogger()
			srv, err := fixtures.NewServer(fixturesCfg, logger)
			if err != nil {
				return err
			}
			ln, err := net.Listen("tcp", fixturesCfg.Addr)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", fixturesCfg.Addr, err)
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error { return srv.Serve(ctx, ln) })
			if m := cfg.Metrics(); m.Enabled {
				reg := metrics.NewRegistry()
				g.Go(func() error { return metrics.ListenAndServe(ctx, m.Addr, reg, logger) })
			}

			fmt.Fprint(cmd.OutOrStdout(), fixtures.Banner(fixtures.BaseURL(ln.Addr().String())))
			return g.Wait()
		},
	}

	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address (default from fixtures.addr, :8000)")
	serveCmd.Flags().StringVar(&dir, "dir", "", "serve fixture pages from this directory instead of the built-in ones")
	return serveCmd
}
