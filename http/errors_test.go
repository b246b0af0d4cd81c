package http_test

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"syscall"
	"testing"

	illusthttp "github.com/fwojciec/illustdl/http"
	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	t.Parallel()

	urlErr := func(err error) error {
		return &url.Error{Op: "Get", URL: "https://example.com", Err: err}
	}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection refused", urlErr(&net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}), true},
		{"connection reset", urlErr(syscall.ECONNRESET), true},
		{"abrupt close", urlErr(io.ErrUnexpectedEOF), true},
		{"server closed connection", urlErr(io.EOF), true},
		{"tls handshake failure", urlErr(tls.AlertError(40)), true},
		{"tls record header", urlErr(tls.RecordHeaderError{Msg: "first record does not look like a TLS handshake"}), true},
		{"canceled", urlErr(context.Canceled), false},
		{"status error", fmt.Errorf("fetch: %w", &illusthttp.StatusError{URL: "x", StatusCode: 500}), false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, illusthttp.IsTransient(tt.err))
		})
	}
}

func TestIsRetryablePage(t *testing.T) {
	t.Parallel()

	status := func(code int) error {
		return fmt.Errorf("fetch: %w", &illusthttp.StatusError{URL: "https://www.pixiv.net/artworks/1", StatusCode: code})
	}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"transient", io.ErrUnexpectedEOF, true},
		{"internal server error", status(500), true},
		{"bad gateway", status(502), true},
		{"service unavailable", status(503), true},
		{"request timeout", status(408), true},
		{"too many requests", status(429), true},
		{"deleted artwork", status(404), false},
		{"private artwork", status(403), false},
		{"gone", status(410), false},
		{"bad request", status(400), false},
		{"canceled", context.Canceled, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, illusthttp.IsRetryablePage(tt.err))
		})
	}
}
