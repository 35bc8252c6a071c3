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
	"net/http"
	"strconv"
	"strings"
)

// JSONAPI formats errors per the JSON:API specification.
// It produces responses with Content-Type "application/vnd.api+json".
// See: https://jsonapi.org/format/#errors
type JSONAPI struct {
	// StatusResolver determines HTTP status from error.
	// If nil, uses ErrorType interface or defaults to 500.
	StatusResolver func(err error) int
}

// jsonAPIError represents a single error in JSON:API format.
type jsonAPIError struct {
	ID     string         `json:"id,omitempty"`
	Status string         `json:"status,omitempty"`
	Code   string         `json:"code,omitempty"`
	Title  string         `json:"title,omitempty"`
	Detail string         `json:"detail,omitempty"`
	Source *jsonAPISource `json:"source,omitempty"`
	Meta   map[string]any `json:"meta,omitempty"`
}

// jsonAPISource points to the source of an error.
type jsonAPISource struct {
	Pointer   string `json:"pointer,omitempty"`
	Parameter string `json:"parameter,omitempty"`
	Header    string `json:"header,omitempty"`
}

// jsonAPIErrorResponse wraps errors in JSON:API format.
type jsonAPIErrorResponse struct {
	Errors []jsonAPIError `json:"errors"`
}

// Format converts an error into a JSON:API error response.
// Details given as a list of field errors ({path, code, message, meta})
// become one error object per field.
func (f *JSONAPI) Format(_ *http.Request, err error) Response {
	status := f.determineStatus(err)
	code, _ := codeOf(err)

	base := jsonAPIError{
		Status: strconv.Itoa(status),
		Code:   code,
		Title:  http.StatusText(status),
		Detail: err.Error(),
	}

	var apiErrors []jsonAPIError
	if details, ok := detailsOf(err); ok {
		apiErrors = fieldErrors(base, details)
		if len(apiErrors) == 0 {
			e := base
			e.ID = generateErrorID()
			e.Meta = map[string]any{"details": details}
			apiErrors = []jsonAPIError{e}
		}
	} else {
		e := base
		e.ID = generateErrorID()
		apiErrors = []jsonAPIError{e}
	}

	return Response{
		Status:      status,
		ContentType: "application/vnd.api+json; charset=utf-8",
		Body:        jsonAPIErrorResponse{Errors: apiErrors},
	}
}

// fieldErrors converts slice-shaped details into JSON:API error objects.
// Details are round-tripped through JSON so any struct with path/code/message
// fields is accepted.
func fieldErrors(base jsonAPIError, details any) []jsonAPIError {
	raw, err := json.Marshal(details)
	if err != nil {
		return nil
	}
	var fields []map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}

	out := make([]jsonAPIError, 0, len(fields))
	for _, field := range fields {
		e := base
		e.ID = generateErrorID()
		if path, ok := field["path"].(string); ok && path != "" {
			e.Source = sourceFor(field, path)
		}
		if c, ok := field["code"].(string); ok && c != "" {
			e.Code = c
		}
		if msg, ok := field["message"].(string); ok && msg != "" {
			e.Detail = msg
		}
		if meta, ok := field["meta"].(map[string]any); ok && len(meta) > 0 {
			e.Meta = meta
		}
		out = append(out, e)
	}

	return out
}

// sourceFor builds the source member. Fields bound from a query parameter or
// header ("source" member of the detail) are reported as such, everything
// else as a JSON pointer into the document.
func sourceFor(field map[string]any, path string) *jsonAPISource {
	switch field["source"] {
	case "query":
		return &jsonAPISource{Parameter: path}
	case "header":
		return &jsonAPISource{Header: path}
	default:
		return &jsonAPISource{Pointer: convertPathToPointer(path)}
	}
}

func (f *JSONAPI) determineStatus(err error) int {
	if f.StatusResolver != nil {
		return f.StatusResolver(err)
	}

	return StatusOf(err)
}

// convertPathToPointer converts a field path to JSON Pointer format:
// "items.0.price" becomes "/data/attributes/items/0/price".
func convertPathToPointer(path string) string {
	if path == "" {
		return ""
	}

	return "/data/attributes/" + strings.ReplaceAll(path, ".", "/")
}
