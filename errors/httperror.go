// Copyright 2025 The restsvc Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Names of the HTTP errors created by the constructors in this package.
const (
	NameHTTPError               = "HttpError"
	NameBadRequest              = "BadRequestError"
	NameUnauthorized            = "UnauthorizedError"
	NameForbidden               = "ForbiddenError"
	NameNotFound                = "NotFoundError"
	NameMethodNotAllowed        = "MethodNotAllowedError"
	NameNotAcceptable           = "NotAcceptableError"
	NameConflict                = "ConflictError"
	NameGone                    = "GoneError"
	NameUnsupportedMediaType    = "UnsupportedMediaTypeError"
	NameUnprocessableEntity     = "UnprocessableEntityError"
	NameInternalServerError     = "InternalServerError"
	NameNotImplemented          = "NotImplementedError"
	defaultInvalidStatusMessage = "invalid HTTP status"
)

// HTTPError signals an HTTP-level failure. It carries the status code the
// response layer should use.
//
// Message mirrors the error message returned by Error. When it is empty the
// standard status text is used.
type HTTPError struct {
	StatusCode int
	Message    string
	Name       string

	// Detail is optional structured information rendered by formatters.
	Detail any

	// Err is the underlying cause, if any. It is never shown to clients.
	Err error

	header http.Header
}

// ValidStatus reports whether code is a valid HTTP status code.
func ValidStatus(code int) bool {
	return code >= 100 && code <= 599
}

// New creates an HTTPError with the given status and message. An invalid
// status is coerced to 500.
func New(status int, message string) *HTTPError {
	if !ValidStatus(status) {
		return &HTTPError{
			StatusCode: http.StatusInternalServerError,
			Message:    fmt.Sprintf("%s %d: %s", defaultInvalidStatusMessage, status, message),
			Name:       NameInternalServerError,
		}
	}

	return &HTTPError{StatusCode: status, Message: message, Name: NameHTTPError}
}

// Wrap creates an HTTPError with the given status whose cause is err. The
// message defaults to the status text, so internal details stay private.
func Wrap(err error, status int) *HTTPError {
	e := New(status, "")
	e.Err = err

	return e
}

// Error returns the error message.
func (e *HTTPError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if text := http.StatusText(e.StatusCode); text != "" {
		return text
	}

	return NameHTTPError
}

// HTTPStatus implements [ErrorType]. A StatusCode outside 100..599, as
// in a literal HTTPError{StatusCode: 42}, reports 500.
func (e *HTTPError) HTTPStatus() int {
	if !ValidStatus(e.StatusCode) {
		return http.StatusInternalServerError
	}
	return e.StatusCode
}

// Code implements [ErrorCode]. It returns the error name.
func (e *HTTPError) Code() string {
	return e.Name
}

// Unwrap returns the underlying cause.
func (e *HTTPError) Unwrap() error {
	return e.Err
}

// Headers implements [ErrorHeaders].
func (e *HTTPError) Headers() http.Header {
	return e.header
}

// Details implements [ErrorDetails].
func (e *HTTPError) Details() any {
	return e.Detail
}

// WithDetails sets structured details and returns e.
func (e *HTTPError) WithDetails(details any) *HTTPError {
	e.Detail = details
	return e
}

// WithCause sets the underlying cause and returns e.
func (e *HTTPError) WithCause(err error) *HTTPError {
	e.Err = err
	return e
}

// WithHeader adds a response header and returns e.
func (e *HTTPError) WithHeader(key, value string) *HTTPError {
	if e.header == nil {
		e.header = make(http.Header)
	}
	e.header.Add(key, value)

	return e
}

// Is reports whether target is an *HTTPError with the same status code, so
// errors.Is(err, errors.NotFoundError("")) matches any 404.
func (e *HTTPError) Is(target error) bool {
	var t *HTTPError
	if !errors.As(target, &t) {
		return false
	}

	return t.StatusCode == e.StatusCode
}

func named(status int, name, format string, args []any) *HTTPError {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}

	return &HTTPError{StatusCode: status, Message: msg, Name: name}
}

// BadRequestError reports a malformed request (400).
func BadRequestError(format string, args ...any) *HTTPError {
	return named(http.StatusBadRequest, NameBadRequest, format, args)
}

// UnauthorizedError reports missing or invalid credentials (401).
func UnauthorizedError(format string, args ...any) *HTTPError {
	return named(http.StatusUnauthorized, NameUnauthorized, format, args)
}

// ForbiddenError reports an authenticated caller lacking permission (403).
func ForbiddenError(format string, args ...any) *HTTPError {
	return named(http.StatusForbidden, NameForbidden, format, args)
}

// NotFoundError reports a missing resource (404).
func NotFoundError(format string, args ...any) *HTTPError {
	return named(http.StatusNotFound, NameNotFound, format, args)
}

// MethodNotAllowedError reports an unsupported method (405). The allowed
// methods are sent in the Allow header.
func MethodNotAllowedError(allowed []string, format string, args ...any) *HTTPError {
	e := named(http.StatusMethodNotAllowed, NameMethodNotAllowed, format, args)
	if len(allowed) > 0 {
		e.WithHeader("Allow", strings.Join(allowed, ", "))
	}

	return e
}

// NotAcceptableError reports that no acceptable representation exists (406).
func NotAcceptableError(format string, args ...any) *HTTPError {
	return named(http.StatusNotAcceptable, NameNotAcceptable, format, args)
}

// ConflictError reports a state conflict (409).
func ConflictError(format string, args ...any) *HTTPError {
	return named(http.StatusConflict, NameConflict, format, args)
}

// GoneError reports a resource that no longer exists (410).
func GoneError(format string, args ...any) *HTTPError {
	return named(http.StatusGone, NameGone, format, args)
}

// UnsupportedMediaTypeError reports an unsupported request body type (415).
func UnsupportedMediaTypeError(format string, args ...any) *HTTPError {
	return named(http.StatusUnsupportedMediaType, NameUnsupportedMediaType, format, args)
}

// UnprocessableEntityError reports a well-formed but invalid request (422).
func UnprocessableEntityError(format string, args ...any) *HTTPError {
	return named(http.StatusUnprocessableEntity, NameUnprocessableEntity, format, args)
}

// InternalServerError reports an unexpected failure (500).
func InternalServerError(format string, args ...any) *HTTPError {
	return named(http.StatusInternalServerError, NameInternalServerError, format, args)
}

// NotImplementedError reports an unimplemented operation (501).
func NotImplementedError(format string, args ...any) *HTTPError {
	return named(http.StatusNotImplemented, NameNotImplemented, format, args)
}
