// Package http provides the network side of illustdl: a shared HTTP client
// carrying the session cookie and proxy settings, a page Fetcher and an image
// Downloader with extension fallback.
package http

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/proxy"
)

// DefaultTimeout is the default timeout for a single HTTP request.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent mimics a desktop browser; the listing site serves a
// reduced page to unknown agents.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// SessionCookieName is the name of the session cookie sent with every request.
const SessionCookieName = "PHPSESSID"

// Proxy describes an outbound proxy.
type Proxy struct {
	Scheme string // http, https or socks5
	Host   string
	Port   string
}

// URL returns the proxy address as a URL.
func (p Proxy) URL() (*url.URL, error) {
	scheme := p.Scheme
	if scheme == "" {
		scheme = "http"
	}
	switch scheme {
	case "http", "https", "socks5":
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", scheme)
	}
	if p.Host == "" {
		return nil, fmt.Errorf("proxy host required")
	}
	host := p.Host
	if p.Port != "" {
		host = net.JoinHostPort(p.Host, p.Port)
	}
	return &url.URL{Scheme: scheme, Host: host}, nil
}

type clientConfig struct {
	timeout   time.Duration
	userAgent string
	cookie    string
	proxy     *Proxy
}

// ClientOption configures the client built by NewClient.
type ClientOption func(*clientConfig)

// WithTimeout sets the per-request timeout.
// Defaults to DefaultTimeout (30s) if not specified.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.timeout = d
	}
}

// WithUserAgent sets the User-Agent header of every request.
func WithUserAgent(ua string) ClientOption {
	return func(c *clientConfig) {
		c.userAgent = ua
	}
}

// WithSessionCookie sends the session cookie with every request.
func WithSessionCookie(value string) ClientOption {
	return func(c *clientConfig) {
		c.cookie = value
	}
}

// WithProxy routes every request through p.
func WithProxy(p Proxy) ClientOption {
	return func(c *clientConfig) {
		c.proxy = &p
	}
}

// NewClient builds the HTTP client shared by the Fetcher and the Downloader.
func NewClient(opts ...ClientOption) (*http.Client, error) {
	cfg := clientConfig{
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.proxy != nil {
		u, err := cfg.proxy.URL()
		if err != nil {
			return nil, err
		}
		if u.Scheme == "socks5" {
			dialer, err := proxy.FromURL(u, proxy.Direct)
			if err != nil {
				return nil, fmt.Errorf("failed to create socks5 dialer: %w", err)
			}
			contextDialer, ok := dialer.(proxy.ContextDialer)
			if !ok {
				return nil, fmt.Errorf("socks5 dialer does not support contexts")
			}
			transport.Proxy = nil
			transport.DialContext = contextDialer.DialContext
		} else {
			transport.Proxy = http.ProxyURL(u)
		}
	}

	return &http.Client{
		Timeout: cfg.timeout,
		Transport: &sessionTransport{
			next:      transport,
			userAgent: cfg.userAgent,
			cookie:    cfg.cookie,
		},
	}, nil
}

// sessionTransport adds the session cookie and User-Agent to every request.
type sessionTransport struct {
	next      http.RoundTripper
	userAgent string
	cookie    string
}

func (t *sessionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	if t.cookie != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: t.cookie})
	}
	return t.next.RoundTrip(req)
}

// CloseIdleConnections closes idle connections of the underlying transport.
func (t *sessionTransport) CloseIdleConnections() {
	type closeIdler interface{ CloseIdleConnections() }
	if c, ok := t.next.(closeIdler); ok {
		c.CloseIdleConnections()
	}
}
