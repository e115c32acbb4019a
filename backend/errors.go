package backend

import (
	"fmt"
	"net/http"
)

// ErrorCode classifies a failed backend call.
type ErrorCode string

// Error codes carried by Error.
const (
	CodeTokenExpired    ErrorCode = "token_expired"
	CodeUnauthorized    ErrorCode = "unauthorized"
	CodeForbidden       ErrorCode = "forbidden"
	CodeNotFound        ErrorCode = "not_found"
	CodeInvalidArgument ErrorCode = "invalid_argument"
	CodeHTTP            ErrorCode = "http_error"
	CodeServer          ErrorCode = "server_error"
	CodeTransport       ErrorCode = "transport_error"
	CodeDecode          ErrorCode = "decode_error"
)

// StatusError is the Status value of every error record.
const StatusError = "error"

// Error is the uniform error record of a failed backend call.
type Error struct {
	Status     string    `json:"status"`
	Message    string    `json:"error_message"`
	Code       ErrorCode `json:"error_code"`
	HTTPStatus int       `json:"http_status,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Record renders the error as the map handed to the model.
func (e *Error) Record() map[string]any {
	rec := map[string]any{
		"status":        StatusError,
		"error_message": e.Message,
		"error_code":    string(e.Code),
	}
	if e.HTTPStatus != 0 {
		rec["http_status"] = e.HTTPStatus
	}
	return rec
}

func newError(op string, code ErrorCode, httpStatus int, cause string) *Error {
	return &Error{
		Status:     StatusError,
		Message:    fmt.Sprintf("Failed to %s: %s", op, cause),
		Code:       code,
		HTTPStatus: httpStatus,
	}
}

// invalidArgument reports a locally rejected call; no request was sent.
func invalidArgument(op, format string, args ...any) *Error {
	return newError(op, CodeInvalidArgument, 0, fmt.Sprintf(format, args...))
}

// codeForStatus maps an HTTP status to an ErrorCode. A 401 means the session
// token expired when one was sent and missing credentials otherwise.
func codeForStatus(status int, sentToken bool) ErrorCode {
	switch {
	case status == http.StatusUnauthorized && sentToken:
		return CodeTokenExpired
	case status == http.StatusUnauthorized:
		return CodeUnauthorized
	case status == http.StatusForbidden:
		return CodeForbidden
	case status == http.StatusNotFound:
		return CodeNotFound
	case status >= 500:
		return CodeServer
	default:
		return CodeHTTP
	}
}
