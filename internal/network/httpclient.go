// File: internal/network/httpclient.go
package network

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Default client settings for fetching pages under test.
const (
	DefaultDialTimeout           = 5 * time.Second
	DefaultKeepAliveInterval     = 15 * time.Second
	DefaultTLSHandshakeTimeout   = 5 * time.Second
	DefaultResponseHeaderTimeout = 10 * time.Second
	DefaultRequestTimeout        = 15 * time.Second
	DefaultMaxRedirects          = 5
	DefaultUserAgent             = "aiqa-page-analyzer/1.0"
)

// ClientConfig holds the configuration for the HTTP client and transport layers.
type ClientConfig struct {
	// IgnoreTLSErrors accepts self-signed certificates on local fixture servers.
	IgnoreTLSErrors bool

	RequestTimeout        time.Duration
	TLSHandshakeTimeout   time.Duration
	ResponseHeaderTimeout time.Duration

	MaxRedirects int
	UserAgent    string

	Logger *zap.Logger
}

// Client is a wrapper around the standard http.Client. Response bodies are
// decompressed transparently; the caller still closes them.
type Client struct {
	*http.Client
}

// NewDefaultClientConfig returns settings suited to one-off page fetches.
func NewDefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		RequestTimeout:        DefaultRequestTimeout,
		TLSHandshakeTimeout:   DefaultTLSHandshakeTimeout,
		ResponseHeaderTimeout: DefaultResponseHeaderTimeout,
		MaxRedirects:          DefaultMaxRedirects,
		UserAgent:             DefaultUserAgent,
		Logger:                zap.NewNop(),
	}
}

// NewHTTPTransport creates an http.Transport from the configuration. Built-in
// gzip handling is disabled; CompressionMiddleware negotiates and decodes instead.
func NewHTTPTransport(config *ClientConfig) *http.Transport {
	if config == nil {
		config = NewDefaultClientConfig()
	}

	dialer := &net.Dialer{
		Timeout:   DefaultDialTimeout,
		KeepAlive: DefaultKeepAliveInterval,
	}

	return &http.Transport{
		Proxy:       http.ProxyFromEnvironment,
		DialContext: dialer.DialContext,
		TLSClientConfig: &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: config.IgnoreTLSErrors,
		},
		TLSHandshakeTimeout:   config.TLSHandshakeTimeout,
		ResponseHeaderTimeout: config.ResponseHeaderTimeout,
		MaxIdleConns:          10,
		IdleConnTimeout:       30 * time.Second,
		DisableCompression:    true,
		ForceAttemptHTTP2:     true,
	}
}

// NewClient creates the client wrapper using the configured transport.
func NewClient(config *ClientConfig) *Client {
	if config == nil {
		config = NewDefaultClientConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxRedirects := config.MaxRedirects

	standardClient := &http.Client{
		Transport: &userAgentTransport{
			next:      NewCompressionMiddleware(NewHTTPTransport(config)),
			userAgent: config.UserAgent,
		},
		Timeout:       config.RequestTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			logger.Debug("Following redirect.", zap.String("url", req.URL.String()))
			return nil
		},
	}
	return &Client{Client: standardClient}
}

// userAgentTransport sets User-Agent on requests that carry none.
type userAgentTransport struct {
	next      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.userAgent)
	}
	return t.next.RoundTrip(req)
}
