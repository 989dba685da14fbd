package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Code classifies an APIError.
type Code string

const (
	CodeAuthExpired Code = "AUTH_EXPIRED"
	CodeForbidden   Code = "FORBIDDEN"
	CodeNotFound    Code = "NOT_FOUND"
	CodeRateLimit   Code = "RATE_LIMIT"
	CodeTimeout     Code = "TIMEOUT"
	CodeOffline     Code = "OFFLINE"
	CodeAPIError    Code = "API_ERROR"
	CodeUnknown     Code = "UNKNOWN_ERROR"
)

// Errors
var (
	ErrAuthExpired    = errors.New("session expired")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
	ErrRateLimited    = errors.New("rate limited")
	ErrTimeout        = errors.New("request timed out")
	ErrOffline        = errors.New("offline")
	ErrNoRefreshToken = errors.New("no refresh token")
)

var codeSentinels = map[Code]error{
	CodeAuthExpired: ErrAuthExpired,
	CodeForbidden:   ErrForbidden,
	CodeNotFound:    ErrNotFound,
	CodeRateLimit:   ErrRateLimited,
	CodeTimeout:     ErrTimeout,
	CodeOffline:     ErrOffline,
}

// APIError is a normalized REST failure.
type APIError struct {
	Code       Code
	StatusCode int // 0 when no response was received
	Message    string
	Body       []byte
	Err        error // Underlying transport error, if any
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("api error %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Unwrap exposes the code's sentinel and the transport cause to errors.Is.
func (e *APIError) Unwrap() []error {
	var errs []error
	if s, ok := codeSentinels[e.Code]; ok {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// IsRetryable returns true if the error should trigger a retry.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// statusError builds the APIError for an HTTP status >= 400.
func statusError(status int, body []byte) *APIError {
	e := &APIError{StatusCode: status, Body: body}

	switch status {
	case http.StatusUnauthorized:
		e.Code, e.Message = CodeAuthExpired, "Session expired. Please login again."
	case http.StatusForbidden:
		e.Code, e.Message = CodeForbidden, "You do not have permission to perform this action."
	case http.StatusNotFound:
		e.Code, e.Message = CodeNotFound, "The requested resource was not found."
	case http.StatusTooManyRequests:
		e.Code, e.Message = CodeRateLimit, "Too many requests. Please try again later."
	default:
		e.Code, e.Message = CodeAPIError, serverMessage(body, status)
	}
	return e
}

// transportError classifies a failure that produced no response.
func transportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &APIError{
			Code:       CodeTimeout,
			StatusCode: http.StatusRequestTimeout,
			Message:    "Request timed out. Please check your connection.",
			Err:        err,
		}
	}

	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return &APIError{
			Code:    CodeOffline,
			Message: "No internet connection. Please check your network.",
			Err:     err,
		}
	}

	return &APIError{Code: CodeUnknown, Message: err.Error(), Err: err}
}

func serverMessage(body []byte, status int) string {
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Message != "" {
		return payload.Message
	}
	return http.StatusText(status)
}
