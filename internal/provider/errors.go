package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind classifies why a provider call did not yield usable data.
type Kind string

const (
	KindNotConfigured  Kind = "not_configured"
	KindAuthFailed     Kind = "auth_failed"
	KindRateLimited    Kind = "rate_limited"
	KindQuotaExhausted Kind = "quota_exhausted"
	KindEmptyResult    Kind = "empty_result"
	KindTimeout        Kind = "timeout"
	KindMalformed      Kind = "malformed_response"
	KindUpstream       Kind = "upstream"
)

// Error is a classified provider failure. It is always recovered by the
// aggregator and recorded, never surfaced as a scan failure.
type Error struct {
	Provider string
	Kind     Kind
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a classified error for the named provider.
func NewError(provider string, kind Kind, err error) *Error {
	return &Error{Provider: provider, Kind: kind, Err: err}
}

// NotConfigured is recorded when the cascade skips an adapter without
// credentials.
func NotConfigured(provider string) *Error {
	return &Error{Provider: provider, Kind: KindNotConfigured}
}

// Empty is recorded when an adapter answered without usable data.
func Empty(provider string) *Error {
	return &Error{Provider: provider, Kind: KindEmptyResult}
}

// Classify maps an HTTP status code to a failure kind.
func Classify(status int) Kind {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return KindAuthFailed
	case status == http.StatusPaymentRequired:
		return KindQuotaExhausted
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status == http.StatusNotFound, status == http.StatusNoContent:
		return KindEmptyResult
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		return KindTimeout
	default:
		return KindUpstream
	}
}

// FromErr classifies a transport or decoding error.
func FromErr(provider string, err error) *Error {
	if err == nil {
		return nil
	}

	var perr *Error
	if errors.As(err, &perr) {
		return perr
	}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return NewError(provider, KindTimeout, err)
	case isDecodeErr(err):
		return NewError(provider, KindMalformed, err)
	default:
		return NewError(provider, KindUpstream, err)
	}
}

func isDecodeErr(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}

// IsKind reports whether err is a provider error of the given kind.
func IsKind(err error, kind Kind) bool {
	var perr *Error
	return errors.As(err, &perr) && perr.Kind == kind
}
