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
	"net/http"
	"slices"
	"strings"
)

// DefaultAuthenticator is the name used by [WithAuthenticator] callers that
// do not need several authenticators.
const DefaultAuthenticator = "default"

// AnyRole grants access to every authenticated principal.
const AnyRole = "*"

// Principal is the authenticated caller.
type Principal struct {
	Subject string
	Roles   []string
	Claims  map[string]any
}

// HasRole reports whether p holds role.
func (p *Principal) HasRole(role string) bool {
	return p != nil && slices.Contains(p.Roles, role)
}

// Authenticator resolves the principal of a request. It returns a nil
// principal or an error when the request carries no valid credentials; an
// error implementing HTTPStatus keeps its status, anything else becomes 401.
type Authenticator interface {
	Authenticate(r *http.Request) (*Principal, error)
}

// AuthenticatorFunc adapts a function to [Authenticator].
type AuthenticatorFunc func(r *http.Request) (*Principal, error)

// Authenticate calls f.
func (f AuthenticatorFunc) Authenticate(r *http.Request) (*Principal, error) {
	return f(r)
}

// BearerToken returns the token of an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)

	return token, token != ""
}

// StaticTokens authenticates bearer tokens against a fixed table.
func StaticTokens(tokens map[string]*Principal) Authenticator {
	return AuthenticatorFunc(func(r *http.Request) (*Principal, error) {
		token, ok := BearerToken(r)
		if !ok {
			return nil, nil
		}

		return tokens[token], nil
	})
}

// authorized applies the role rule: no roles or "*" admit any principal,
// otherwise the principal needs one of the roles.
func authorized(p *Principal, roles []string) bool {
	if p == nil {
		return false
	}
	if len(roles) == 0 || slices.Contains(roles, AnyRole) {
		return true
	}

	return slices.ContainsFunc(roles, p.HasRole)
}
