package canonical

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind is the closed taxonomy of bridge failures. Every error
// crossing the dispatcher boundary carries exactly one kind; kinds are
// never collapsed into an empty Response.
type ErrorKind string

const (
	// KindConfigurationMissing: required vendor credential absent.
	// Detected before any network attempt; not retryable without
	// operator action.
	KindConfigurationMissing ErrorKind = "configuration_missing"
	// KindUnsupportedVendor: vendor discriminator outside the closed
	// set. Caller bug; rejected before any network attempt.
	KindUnsupportedVendor ErrorKind = "unsupported_vendor"
	// KindTransportFailure: the outbound call never produced an HTTP
	// status (timeout, DNS, reset, cancellation).
	KindTransportFailure ErrorKind = "transport_failure"
	// KindUpstreamRejected: the vendor answered with a non-success
	// status. The original status code is preserved.
	KindUpstreamRejected ErrorKind = "upstream_rejected"
	// KindUpstreamEmptyResponse: the vendor answered success but the
	// body is missing what the contract requires (e.g. zero candidates).
	KindUpstreamEmptyResponse ErrorKind = "upstream_empty_response"
)

// Error is the single error type surfaced by the bridge. HTTPStatus is
// set only for KindUpstreamRejected; VendorMessage is best-effort detail
// from the vendor or transport layer.
type Error struct {
	Kind          ErrorKind
	HTTPStatus    int
	VendorMessage string
}

func (e *Error) Error() string {
	switch {
	case e.HTTPStatus != 0 && e.VendorMessage != "":
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.HTTPStatus, e.VendorMessage)
	case e.HTTPStatus != 0:
		return fmt.Sprintf("%s (status %d)", e.Kind, e.HTTPStatus)
	case e.VendorMessage != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.VendorMessage)
	}
	return string(e.Kind)
}

// Retryable reports whether the caller may reasonably retry the call.
// Upstream rejections are retryable only for 5xx and 429.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindTransportFailure, KindUpstreamEmptyResponse:
		return true
	case KindUpstreamRejected:
		return e.HTTPStatus >= 500 || e.HTTPStatus == http.StatusTooManyRequests
	}
	return false
}

func ErrConfigurationMissing(v Vendor) *Error {
	return &Error{Kind: KindConfigurationMissing, VendorMessage: fmt.Sprintf("no API key configured for vendor %q", v)}
}

func ErrUnsupportedVendor(v Vendor) *Error {
	return &Error{Kind: KindUnsupportedVendor, VendorMessage: fmt.Sprintf("unsupported vendor %q", v)}
}

func ErrTransportFailure(cause error) *Error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return &Error{Kind: KindTransportFailure, VendorMessage: msg}
}

func ErrUpstreamRejected(status int, vendorMessage string) *Error {
	return &Error{Kind: KindUpstreamRejected, HTTPStatus: status, VendorMessage: vendorMessage}
}

func ErrUpstreamEmpty(detail string) *Error {
	return &Error{Kind: KindUpstreamEmptyResponse, VendorMessage: detail}
}

// AsError unwraps err to the bridge error type if it carries one.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
