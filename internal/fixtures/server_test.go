// internal/fixtures/server_test.go
package fixtures

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/aiqa-cli/internal/config"
)

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec.Code, rec.Body.String()
}

func TestRoutes_EmbeddedPages(t *testing.T) {
	s, err := NewServer(config.FixturesConfig{}, zaptest.NewLogger(t))
	require.NoError(t, err)
	h := s.Handler()

	for _, path := range []string{"/", "/login", "/login/"} {
		code, body := get(t, h, path)
		assert.Equal(t, http.StatusOK, code, path)
		assert.Contains(t, body, `id="username"`, path)
		assert.Contains(t, body, `id="message"`, path)
		assert.Contains(t, body, "Invalid credentials", path)
	}

	for _, path := range []string{"/signup", "/signup/"} {
		code, body := get(t, h, path)
		assert.Equal(t, http.StatusOK, code, path)
		assert.Contains(t, body, "<title>Sign up</title>", path)
	}

	code, _ := get(t, h, "/nowhere")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestRoutes_DirectoryOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "login"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "login", "index.html"), []byte("<p>custom login</p>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "style.css"), []byte("body{}"), 0o644))

	s, err := NewServer(config.FixturesConfig{Dir: dir}, zaptest.NewLogger(t))
	require.NoError(t, err)
	h := s.Handler()

	code, body := get(t, h, "/")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "<p>custom login</p>", body)

	code, body = get(t, h, "/style.css")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "body{}", body)

	// No signup page in this tree.
	code, body = get(t, h, "/signup")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, body, "fixture signup not found")
}

func TestNewServer_BadDirectory(t *testing.T) {
	_, err := NewServer(config.FixturesConfig{Dir: filepath.Join(t.TempDir(), "missing")}, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "fixtures dir")

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = NewServer(config.FixturesConfig{Dir: file}, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "is not a directory")
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s, err := NewServer(config.FixturesConfig{}, zaptest.NewLogger(t))
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + ln.Addr().String() + "/login")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "Login")

	cancel()
	require.NoError(t, <-done)
}

func TestBanner(t *testing.T) {
	b := Banner("http://localhost:8000/")
	assert.Contains(t, b, "Login page:  http://localhost:8000/login")
	assert.Contains(t, b, "Signup page: http://localhost:8000/signup")
	assert.Contains(t, b, "admin / password123")
}

func TestBaseURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8000", BaseURL(":8000"))
	assert.Equal(t, "http://127.0.0.1:9000", BaseURL("127.0.0.1:9000"))
	assert.Equal(t, "http://localhost:8000", BaseURL("0.0.0.0:8000"))
}
