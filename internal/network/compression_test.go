// File: internal/network/compression_test.go
package network

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<html><body><input id="username"></body></html>`

func brotliBytes(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	_, err := w.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func gzipBytes(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestClient_DecodesResponses(t *testing.T) {
	testCases := []struct {
		name     string
		encoding string
		body     func(t *testing.T) []byte
	}{
		{"plain", "", func(*testing.T) []byte { return []byte(samplePage) }},
		{"brotli", "br", func(t *testing.T) []byte { return brotliBytes(t, samplePage) }},
		{"gzip", "gzip", func(t *testing.T) []byte { return gzipBytes(t, samplePage) }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			payload := tc.body(t)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "br, gzip", r.Header.Get("Accept-Encoding"))
				if tc.encoding != "" {
					w.Header().Set("Content-Encoding", tc.encoding)
				}
				_, _ = w.Write(payload)
			}))
			defer srv.Close()

			client := NewClient(nil)
			resp, err := client.Get(srv.URL)
			require.NoError(t, err)
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, samplePage, string(body))
			assert.Empty(t, resp.Header.Get("Content-Encoding"))
		})
	}
}

func TestDecompressResponse_Unsupported(t *testing.T) {
	resp := &http.Response{
		Header: http.Header{"Content-Encoding": []string{"zstd"}},
		Body:   io.NopCloser(bytes.NewReader([]byte("x"))),
	}
	err := DecompressResponse(resp)
	assert.ErrorContains(t, err, "unsupported Content-Encoding layer: zstd")
}

func TestDecompressResponse_LayeredEncodings(t *testing.T) {
	inner := gzipBytes(t, samplePage)
	var outer bytes.Buffer
	w := brotli.NewWriter(&outer)
	_, _ = w.Write(inner)
	require.NoError(t, w.Close())

	resp := &http.Response{
		Header: http.Header{"Content-Encoding": []string{"gzip", "br"}},
		Body:   io.NopCloser(&outer),
	}
	require.NoError(t, DecompressResponse(resp))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, samplePage, string(body))
	assert.NoError(t, resp.Body.Close())
	assert.True(t, resp.Uncompressed)
}

func TestClient_Redirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusFound)
	})
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.UserAgent())
		_, _ = io.WriteString(w, "login")
	})
	mux.HandleFunc("/loop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(NewDefaultClientConfig())

	resp, err := client.Get(srv.URL + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "login", string(body))

	_, err = client.Get(srv.URL + "/loop")
	assert.ErrorContains(t, err, "stopped after 5 redirects")
}
