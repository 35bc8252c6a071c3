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

package validation

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
)

// ErrValidation is the sentinel wrapped by every validation failure.
var ErrValidation = errors.New("validation failed")

// FieldError is a single failed rule.
type FieldError struct {
	Path    string         `json:"path"`             // JSON path, e.g. "items.2.price"
	Source  string         `json:"source,omitempty"` // binding source of the field
	Code    string         `json:"code"`             // stable code, e.g. "tag.required"
	Message string         `json:"message"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// Error returns "path: message", or the message alone when path is empty.
func (e FieldError) Error() string {
	if e.Path == "" {
		return e.Message
	}

	return e.Path + ": " + e.Message
}

// Error collects the field errors of one validation run.
type Error struct {
	Fields []FieldError `json:"errors"`
}

// Error joins the field messages.
func (e *Error) Error() string {
	switch len(e.Fields) {
	case 0:
		return ErrValidation.Error()
	case 1:
		return e.Fields[0].Error()
	}

	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Error()
	}

	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(msgs, "; "))
}

// Unwrap returns [ErrValidation].
func (e *Error) Unwrap() error { return ErrValidation }

// HTTPStatus returns 422.
func (e *Error) HTTPStatus() int { return http.StatusUnprocessableEntity }

// Code returns the error name used by error formatters.
func (e *Error) Code() string { return "UnprocessableEntityError" }

// Details returns the field errors.
func (e *Error) Details() any { return e.Fields }

// Add appends a field error.
func (e *Error) Add(path, code, message string) {
	e.Fields = append(e.Fields, FieldError{Path: path, Code: code, Message: message})
}

// Has reports whether any error concerns path.
func (e *Error) Has(path string) bool {
	return slices.ContainsFunc(e.Fields, func(f FieldError) bool { return f.Path == path })
}

// Sort orders errors by path, then code.
func (e *Error) Sort() {
	slices.SortStableFunc(e.Fields, func(a, b FieldError) int {
		if c := strings.Compare(a.Path, b.Path); c != 0 {
			return c
		}

		return strings.Compare(a.Code, b.Code)
	})
}

// Join folds err into e. Field errors and *Error values keep their fields;
// any other error becomes a path-less entry.
func (e *Error) Join(err error) {
	if err == nil {
		return
	}

	var fe FieldError
	var ve *Error
	switch {
	case errors.As(err, &ve):
		e.Fields = append(e.Fields, ve.Fields...)
	case errors.As(err, &fe):
		e.Fields = append(e.Fields, fe)
	default:
		e.Fields = append(e.Fields, FieldError{Code: "custom", Message: err.Error()})
	}
}
