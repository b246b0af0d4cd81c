package http

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
)

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
}

// IsStatus reports whether err carries an HTTP status error.
func IsStatus(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}

// IsTransient reports whether err is a network failure worth retrying:
// timeouts, TLS handshake failures, refused or reset connections and
// connections closed mid-response. Context cancellation is never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if IsStatus(err) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	switch {
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNABORTED),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, io.EOF):
		return true
	}

	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return true
	}
	var alertErr tls.AlertError
	if errors.As(err, &alertErr) {
		return true
	}

	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// IsRetryablePage reports whether a page fetch should be retried.
// Pages are retried on transient failures, 5xx statuses, 408 and 429.
// Any other status is a definite answer from the server: a deleted or
// private artwork answers 404 or 403 on every attempt.
func IsRetryablePage(err error) bool {
	if IsTransient(err) {
		return true
	}
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	switch {
	case se.StatusCode >= 500,
		se.StatusCode == http.StatusRequestTimeout,
		se.StatusCode == http.StatusTooManyRequests:
		return true
	}
	return false
}
