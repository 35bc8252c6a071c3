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

// Package errors defines the HTTP error type returned by restsvc service
// methods and the formatters that turn any error into an HTTP response.
//
// # HTTP errors
//
// [HTTPError] carries a status code, a message and a name. Service methods
// return it, usually through one of the named constructors, to end a request
// with a specific status:
//
//	func (s *Users) get(ctx *restsvc.ServiceContext, in *GetUser) (*User, error) {
//	    u, ok := s.store.Find(in.ID)
//	    if !ok {
//	        return nil, errors.NotFoundError("user %d not found", in.ID)
//	    }
//	    return u, nil
//	}
//
// # Formatters
//
// A [Formatter] converts an error into status, content type and body. Three
// formats are provided:
//   - [Simple]: {"error": "...", "code": "...", "details": ...} (default)
//   - [RFC9457]: Problem Details (application/problem+json)
//   - [JSONAPI]: JSON:API error objects (application/vnd.api+json)
//
// Formatters are framework-agnostic. Any error may implement the optional
// [ErrorType], [ErrorCode] and [ErrorDetails] interfaces to control its
// rendering; errors that implement none of them are reported as 500.
package errors
