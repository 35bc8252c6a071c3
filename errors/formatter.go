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
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
)

// Formatter defines how errors are formatted in HTTP responses.
//
// Example:
//
//	formatter := errors.NewRFC9457("https://api.example.com/problems")
//	errors.Write(w, req, formatter, err)
type Formatter interface {
	// Format converts an error into HTTP response components.
	Format(req *http.Request, err error) Response
}

// Response represents a formatted error response.
type Response struct {
	// Status is the HTTP status code.
	Status int

	// ContentType is the Content-Type header value.
	ContentType string

	// Body is the response body, marshaled to JSON by [Write].
	Body any

	// Headers contains additional headers to set (optional).
	Headers http.Header
}

// ErrorType allows errors to declare their own HTTP status code.
type ErrorType interface {
	error
	// HTTPStatus returns the HTTP status code for this error.
	HTTPStatus() int
}

// ErrorDetails allows errors to provide additional structured information,
// such as field-level validation failures.
type ErrorDetails interface {
	error
	// Details returns structured information about the error.
	Details() any
}

// ErrorCode allows errors to provide a machine-readable code.
type ErrorCode interface {
	error
	// Code returns a machine-readable error code.
	Code() string
}

// ErrorHeaders allows errors to contribute response headers, e.g. the
// Allow header of a 405 response.
type ErrorHeaders interface {
	error
	// Headers returns the headers to add to the error response.
	Headers() http.Header
}

// NewRFC9457 creates a new RFC9457 formatter.
// The baseURL parameter is prepended to problem type slugs to create full URIs.
func NewRFC9457(baseURL string) *RFC9457 {
	return &RFC9457{
		BaseURL: baseURL,
	}
}

// NewJSONAPI creates a new JSONAPI formatter.
func NewJSONAPI() *JSONAPI {
	return &JSONAPI{}
}

// NewSimple creates a new Simple formatter.
func NewSimple() *Simple {
	return &Simple{}
}

// WithStatus wraps an error with an explicit HTTP status code.
// If err is nil, the status text for the given status code is used as the error message.
// A status outside 100..599 becomes 500.
//
// Example:
//
//	return errors.WithStatus(err, http.StatusNotFound)
func WithStatus(err error, status int) error {
	if !ValidStatus(status) {
		status = http.StatusInternalServerError
	}
	return &statusError{err: err, status: status}
}

// statusError wraps an error with an explicit status code.
type statusError struct {
	err    error
	status int
}

func (e *statusError) Error() string {
	if e.err == nil {
		return http.StatusText(e.status)
	}
	return e.err.Error()
}

func (e *statusError) Unwrap() error {
	return e.err
}

func (e *statusError) HTTPStatus() int {
	return e.status
}

// StatusOf returns the HTTP status an error maps to: the status declared
// through [ErrorType] anywhere in its chain, or 500. Declared statuses
// outside 100..599 are reported as 500.
func StatusOf(err error) int {
	var typed ErrorType
	if errors.As(err, &typed) && ValidStatus(typed.HTTPStatus()) {
		return typed.HTTPStatus()
	}

	return http.StatusInternalServerError
}

// detailsOf returns the non-nil details declared by err.
func detailsOf(err error) (any, bool) {
	var detailed ErrorDetails
	if !errors.As(err, &detailed) {
		return nil, false
	}
	d := detailed.Details()

	return d, d != nil
}

// codeOf returns the non-empty code declared by err.
func codeOf(err error) (string, bool) {
	var coded ErrorCode
	if !errors.As(err, &coded) {
		return "", false
	}
	c := coded.Code()

	return c, c != ""
}

// headersOf returns the headers declared by err.
func headersOf(err error) http.Header {
	var h ErrorHeaders
	if errors.As(err, &h) {
		return h.Headers()
	}

	return nil
}

// Write formats err with f and writes the response to w. Headers declared
// by the error are merged with the formatter's headers. A formatter status
// outside 100..599 is sent as 500.
func Write(w http.ResponseWriter, req *http.Request, f Formatter, err error) error {
	resp := f.Format(req, err)
	if !ValidStatus(resp.Status) {
		resp.Status = http.StatusInternalServerError
	}

	for k, v := range resp.Headers {
		for _, val := range v {
			w.Header().Add(k, val)
		}
	}
	for k, v := range headersOf(err) {
		for _, val := range v {
			w.Header().Add(k, val)
		}
	}
	w.Header().Set("Content-Type", resp.ContentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(resp.Status)

	if resp.Body == nil || req.Method == http.MethodHead {
		return nil
	}

	return json.NewEncoder(w).Encode(resp.Body)
}

// generateErrorID generates a unique error ID for correlation.
func generateErrorID() string {
	return "err-" + uuid.NewString()
}
