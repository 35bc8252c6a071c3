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

package restsvc

import (
	"errors"
	"fmt"
	"strings"
)

// HTTPMethod is one of the HTTP verbs a service method can be bound to.
// The zero value is [MethodGet].
type HTTPMethod int

const (
	MethodGet HTTPMethod = iota
	MethodPost
	MethodPut
	MethodDelete
	MethodHead
	MethodOptions
	MethodPatch
)

// ErrInvalidMethod is returned for an unknown HTTP method.
var ErrInvalidMethod = errors.New("invalid HTTP method")

var methodNames = [...]string{
	MethodGet:     "GET",
	MethodPost:    "POST",
	MethodPut:     "PUT",
	MethodDelete:  "DELETE",
	MethodHead:    "HEAD",
	MethodOptions: "OPTIONS",
	MethodPatch:   "PATCH",
}

// HTTPMethods returns every method in ordinal order.
func HTTPMethods() []HTTPMethod {
	return []HTTPMethod{MethodGet, MethodPost, MethodPut, MethodDelete, MethodHead, MethodOptions, MethodPatch}
}

// ParseHTTPMethod parses a verb name, ignoring case.
func ParseHTTPMethod(s string) (HTTPMethod, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for m, name := range methodNames {
		if name == upper {
			return HTTPMethod(m), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrInvalidMethod, s)
}

// Valid reports whether m is one of the declared methods.
func (m HTTPMethod) Valid() bool {
	return m >= MethodGet && int(m) < len(methodNames)
}

// String returns the upper-case verb.
func (m HTTPMethod) String() string {
	if !m.Valid() {
		return fmt.Sprintf("HTTPMethod(%d)", int(m))
	}

	return methodNames[m]
}

// MarshalText implements encoding.TextMarshaler.
func (m HTTPMethod) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMethod, int(m))
	}

	return []byte(methodNames[m]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *HTTPMethod) UnmarshalText(text []byte) error {
	parsed, err := ParseHTTPMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed

	return nil
}
