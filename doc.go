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

// Package restsvc registers declaratively described REST services on an
// existing HTTP router.
//
// A service declares a base path and its methods in Describe. The [Server]
// turns the declarations into routes of a host router (net/http ServeMux,
// chi, gin or echo), binds and validates request parameters, runs the
// endpoint and writes its result or error.
//
// # Key Features
//
//   - Verb/path bound methods with `:name` parameters and `*name` catch-alls
//   - Struct-tag binding from path, query, header, cookie, form, file and body
//   - Validation with go-playground tags and self-validating types
//   - Accept, Accept-Language and Content-Type negotiation
//   - Named authenticators and role checks
//   - Pre- and post-processors at service and method level
//   - Error formatting (simple JSON, RFC 9457, JSON:API)
//   - OpenTelemetry spans and Prometheus metrics per request
//
// # Quick Start
//
//	type TodoService struct{ store *Store }
//
//	func (s *TodoService) Describe(d *restsvc.Descriptor) {
//	    d.Path("/todos").Accept("json", "xml")
//	    d.GET("/:id", restsvc.Typed(s.get))
//	    d.POST("", restsvc.Typed(s.create)).Status(http.StatusCreated).Security("editor")
//	}
//
//	srv := restsvc.MustNew(
//	    restsvc.WithLogger(logger),
//	    restsvc.WithAuthenticator(restsvc.DefaultAuthenticator, auth),
//	)
//	if err := srv.Register(&TodoService{store: store}); err != nil {
//	    log.Fatal(err)
//	}
//	h, err := srv.Handler()
//
// Servers are built once; after Build, Register fails with [ErrImmutable].
package restsvc
