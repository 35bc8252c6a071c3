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

package engine

import (
	"fmt"
	"net/http"
	"net/url"
)

// Params holds the path parameters extracted by the host router for one
// request, keyed by parameter name.
type Params map[string]string

// Get returns the value of the named parameter, or "" if it is absent.
func (p Params) Get(name string) string {
	return p[name]
}

// Has reports whether the named parameter was captured.
func (p Params) Has(name string) bool {
	_, ok := p[name]
	return ok
}

// HandlerFunc is the handler shape restsvc registers with an [Engine].
type HandlerFunc func(w http.ResponseWriter, r *http.Request, params Params)

// Engine is a host web framework able to register routes.
//
// Implementations must be safe to serve concurrently once registration has
// finished. Handle is only called during setup, from a single goroutine.
type Engine interface {
	http.Handler

	// Name identifies the host framework (e.g. "stdmux", "chi").
	Name() string

	// Handle registers h for the given upper-case method and pattern.
	// Conflicts reported by the host framework are returned as errors.
	Handle(method string, pattern Pattern, h HandlerFunc) error
}

// Guard runs fn and converts a panic raised by a host router during
// registration into an error. Most routers panic on conflicting or invalid
// patterns.
func Guard(method string, pattern Pattern, fn func()) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %s %s: %v", ErrRegistration, method, pattern, rec)
		}
	}()
	fn()

	return nil
}

// Unescape decodes a parameter value captured from the raw (escaped) request
// path. Routers that match against URL.RawPath hand out escaped values; the
// value is returned unchanged when the request had no raw path or the value
// is not valid escaping.
func Unescape(r *http.Request, value string) string {
	if r.URL == nil || r.URL.RawPath == "" {
		return value
	}
	if v, err := url.PathUnescape(value); err == nil {
		return v
	}

	return value
}
