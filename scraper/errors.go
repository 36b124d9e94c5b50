package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind categorises a fetch failure for logs and metrics.
type Kind string

const (
	KindTimeout     Kind = "timeout"
	KindConnection  Kind = "connection"
	KindForbidden   Kind = "forbidden"
	KindNotFound    Kind = "not_found"
	KindRateLimited Kind = "rate_limited"
	KindStatus      Kind = "status"
	KindOther       Kind = "other"
)

// TransportError reports a page that could not be fetched.
type TransportError struct {
	URL        string
	StatusCode int
	Kind       Kind
	Err        error
}

// Error includes the URL, kind and status when known.
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: %s (status %d): %v", e.URL, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

// Unwrap returns the underlying network or status error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

func newTransportError(rawURL string, status int, err error) *TransportError {
	if err == nil {
		err = fmt.Errorf("http status %d", status)
	}
	return &TransportError{URL: rawURL, StatusCode: status, Kind: classify(err, status), Err: err}
}

// ErrorLabel returns the metrics/log category for err, or "unknown" for nil.
func ErrorLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var te *TransportError
	if errors.As(err, &te) && te.Kind != "" {
		return string(te.Kind)
	}
	return string(classify(err, 0))
}

// classify looks at the network error first and the response status second.
func classify(err error, status int) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindConnection
	}

	switch {
	case status == 0:
		return KindOther
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status < 200 || status > 299:
		return KindStatus
	}
	return KindOther
}
