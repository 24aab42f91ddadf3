// File: internal/mcp/server.go
package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/xkilldash9x/aiqa-cli/internal/config"
	"github.com/xkilldash9x/aiqa-cli/internal/notify"
)

const (
	serverName      = "aiqa"
	shutdownTimeout = 10 * time.Second
)

const instructions = `aiqa turns a natural-language requirement into a browser UI test,
runs it against a live page and reports PASS or FAIL with an explanation.
Use generate_steps to preview a plan, validate_steps to check a hand-written
one, and run_ui_test to execute either.`

// Server exposes the test runner as MCP tools.
type Server struct {
	mcp        *server.MCPServer
	cfg        config.MCPConfig
	logger     *zap.Logger
	runner     Runner
	defaultURL string
}

// NewServer creates an MCP server with no tools registered. Call
// RegisterTools once the runner has been built; the runner may itself depend
// on Notifier.
func NewServer(version string, cfg config.MCPConfig, logger *zap.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		logger: logger.Named("mcp"),
	}
	s.mcp = server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(true),
		server.WithLogging(),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// Notifier returns a notifier that broadcasts to every connected client.
func (s *Server) Notifier() *notify.MCPNotifier {
	return notify.NewMCPNotifier(s.mcp, serverName)
}

// RegisterTools adds the runner tools. defaultURL is used when a call omits
// the url argument.
func (s *Server) RegisterTools(runner Runner, defaultURL string) {
	s.runner = runner
	s.defaultURL = defaultURL

	s.mcp.AddTool(
		mcp.NewTool("run_ui_test",
			mcp.WithDescription("Generate a UI test from a requirement (or use the given steps), run it in a browser and report PASS or FAIL"),
			mcp.WithString("requirement", mcp.Description("Natural-language requirement to test. Required unless steps is given")),
			mcp.WithString("url", mcp.Description("Page under test. Defaults to the local fixture server")),
			mcp.WithArray("steps", mcp.Description("Optional test plan to run instead of generating one"), mcp.Items(map[string]any{"type": "object"})),
		),
		s.handleRun,
	)

	s.mcp.AddTool(
		mcp.NewTool("generate_steps",
			mcp.WithDescription("Generate a test plan for a requirement without running it"),
			mcp.WithString("requirement", mcp.Required(), mcp.Description("Natural-language requirement to test")),
			mcp.WithString("url", mcp.Description("Page to analyze for element hints (optional)")),
		),
		s.handleGenerate,
	)

	s.mcp.AddTool(
		mcp.NewTool("validate_steps",
			mcp.WithDescription("Check a test plan before running it"),
			mcp.WithArray("steps", mcp.Required(), mcp.Description("The test plan to validate"), mcp.Items(map[string]any{"type": "object"})),
		),
		handleValidate,
	)

	s.mcp.AddTool(
		mcp.NewTool("action_schema",
			mcp.WithDescription("Export the JSON Schema of a test plan"),
		),
		handleSchema,
	)
}

// Serve runs the configured transport until ctx is cancelled. stdin and
// stdout are only used by the stdio transport.
func (s *Server) Serve(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	switch s.cfg.Transport {
	case "", "stdio":
		s.logger.Info("Serving MCP over stdio.")
		stdio := server.NewStdioServer(s.mcp)
		stdio.SetErrorLogger(zap.NewStdLog(s.logger))
		err := stdio.Listen(ctx, stdin, stdout)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
			return fmt.Errorf("stdio transport: %w", err)
		}
		return nil
	case "streamable-http", "sse":
		handler, err := s.HTTPHandler()
		if err != nil {
			return err
		}
		ln, err := net.Listen("tcp", s.cfg.Addr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
		}
		return s.serveHTTP(ctx, ln, handler)
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio, sse or streamable-http)", s.cfg.Transport)
	}
}

// HTTPHandler returns the handler for the configured HTTP transport. The
// streamable transport is mounted at /mcp; SSE uses /sse and /message.
func (s *Server) HTTPHandler() (http.Handler, error) {
	mux := http.NewServeMux()
	switch s.cfg.Transport {
	case "streamable-http":
		mux.Handle("/mcp", server.NewStreamableHTTPServer(s.mcp))
	case "sse":
		mux.Handle("/", server.NewSSEServer(s.mcp))
	default:
		return nil, fmt.Errorf("transport %s is not served over HTTP", s.cfg.Transport)
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	return mux, nil
}

func (s *Server) serveHTTP(ctx context.Context, ln net.Listener, handler http.Handler) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          zap.NewStdLog(s.logger),
	}
	s.logger.Info("Serving MCP over HTTP.", zap.String("transport", s.cfg.Transport), zap.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("mcp http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("mcp http shutdown: %w", err)
	}
	<-errCh
	s.logger.Info("MCP server stopped.")
	return nil
}
