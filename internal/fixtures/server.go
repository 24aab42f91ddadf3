// internal/fixtures/server.go
package fixtures

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"

	"github.com/xkilldash9x/aiqa-cli/internal/config"
)

//go:embed sites
var embedded embed.FS

// Pages are the named fixture routes. The root path serves the first one.
var Pages = []string{"login", "signup"}

const shutdownTimeout = 5 * time.Second

// Server serves static fixture pages to test against.
type Server struct {
	engine *gin.Engine
	files  fs.FS
	addr   string
	logger *zap.Logger
}

// NewServer builds the fixture server. An empty cfg.Dir serves the embedded
// pages; otherwise <dir>/<page>/index.html is read from disk.
func NewServer(cfg config.FixturesConfig, logger *zap.Logger) (*Server, error) {
	files, err := openFixtures(cfg.Dir)
	if err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.RedirectTrailingSlash = false
	engine.Use(gin.Recovery())

	s := &Server{
		engine: engine,
		files:  files,
		addr:   cfg.Addr,
		logger: logger.Named("fixtures"),
	}
	engine.Use(s.requestLogger())
	s.setupRoutes()
	return s, nil
}

func openFixtures(dir string) (fs.FS, error) {
	if dir == "" {
		return fs.Sub(embedded, "sites")
	}
	expanded, err := homedir.Expand(dir)
	if err != nil {
		return nil, fmt.Errorf("expand fixtures dir %q: %w", dir, err)
	}
	info, err := os.Stat(expanded)
	if err != nil {
		return nil, fmt.Errorf("fixtures dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("fixtures dir %s is not a directory", expanded)
	}
	return os.DirFS(expanded), nil
}

func (s *Server) setupRoutes() {
	for _, page := range Pages {
		h := s.servePage(page)
		s.engine.GET("/"+page, h)
		s.engine.GET("/"+page+"/", h)
	}
	s.engine.GET("/", s.servePage(Pages[0]))

	// Everything else is served as a plain static file from the fixture tree.
	static := http.FileServer(http.FS(s.files))
	s.engine.NoRoute(func(c *gin.Context) {
		static.ServeHTTP(c.Writer, c.Request)
	})
}

func (s *Server) servePage(page string) gin.HandlerFunc {
	path := page + "/index.html"
	return func(c *gin.Context) {
		data, err := fs.ReadFile(s.files, path)
		if err != nil {
			s.logger.Warn("Fixture page missing.", zap.String("path", path), zap.Error(err))
			c.String(http.StatusNotFound, "fixture %s not found", page)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", data)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("Request served.",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Serve accepts connections on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("Fixture server listening.", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("fixture server shutdown: %w", err)
	}
	<-errCh
	s.logger.Info("Fixture server stopped.")
	return nil
}

// ListenAndServe listens on the configured address and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Banner is the startup notice printed by serve-fixtures.
func Banner(baseURL string) string {
	baseURL = strings.TrimRight(baseURL, "/")
	rule := strings.Repeat("=", 50)

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n  Test Server Running!\n%s\n\n", rule, rule)
	fmt.Fprintf(&b, "  Login page:  %s/login\n", baseURL)
	fmt.Fprintf(&b, "  Signup page: %s/signup\n", baseURL)
	b.WriteString("\n  Valid credentials: admin / password123\n")
	fmt.Fprintf(&b, "\n  Press Ctrl+C to stop\n%s\n", rule)
	return b.String()
}

// BaseURL turns a listen address such as ":8000" into a browsable URL.
func BaseURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}
