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

// Package engine defines the seam between restsvc and the host web framework.
//
// restsvc never routes requests itself. It turns service declarations into a
// list of (method, pattern, handler) triples and hands each of them to an
// [Engine]. Adapters for net/http's ServeMux, chi, gin and echo live in the
// subpackages of this package.
//
// # Patterns
//
// Route patterns use the router-style syntax:
//
//	/users               static segments
//	/users/:id           named parameter, matches one segment
//	/files/*path         catch-all, last segment only
//
// [ParsePattern] normalises a raw path (leading slash, duplicate and trailing
// slashes) and rejects malformed parameters. Adapters render the parsed
// pattern into their own syntax with [Pattern.Render].
//
// # Writing an adapter
//
//	type Engine struct{ mux *http.ServeMux }
//
//	func (e *Engine) Handle(method string, p engine.Pattern, h engine.HandlerFunc) error {
//	    path := p.Render(func(n string) string { return "{" + n + "}" },
//	        func(n string) string { return "{" + n + "...}" })
//	    ...
//	}
package engine
