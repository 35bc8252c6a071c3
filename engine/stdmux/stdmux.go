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

// Package stdmux adapts net/http's [http.ServeMux] to the restsvc engine
// interface. It is the default engine and needs no third-party router.
package stdmux

import (
	"net/http"

	"github.com/restsvc/restsvc/engine"
)

// Engine registers routes on a [http.ServeMux] using method patterns
// ("GET /users/{id}").
type Engine struct {
	mux *http.ServeMux
}

// New returns an engine backed by a fresh [http.ServeMux].
func New() *Engine {
	return &Engine{mux: http.NewServeMux()}
}

// Wrap returns an engine that registers on an existing mux, allowing
// restsvc routes to live next to hand-written handlers.
func Wrap(mux *http.ServeMux) *Engine {
	return &Engine{mux: mux}
}

// Name implements [engine.Engine].
func (e *Engine) Name() string { return "stdmux" }

// Mux returns the underlying mux.
func (e *Engine) Mux() *http.ServeMux { return e.mux }

// ServeHTTP implements [http.Handler].
func (e *Engine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.mux.ServeHTTP(w, r)
}

// Handle implements [engine.Engine].
func (e *Engine) Handle(method string, p engine.Pattern, h engine.HandlerFunc) error {
	names := p.Params()
	pattern := method + " " + Path(p)

	return engine.Guard(method, p, func() {
		e.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
			params := make(engine.Params, len(names))
			for _, n := range names {
				params[n] = r.PathValue(n)
			}
			h(w, r, params)
		})
	})
}

// Path renders p in ServeMux syntax. The root pattern is anchored with {$}
// so it does not match every path.
func Path(p engine.Pattern) string {
	if p.IsRoot() {
		return "/{$}"
	}

	return p.Render(
		func(n string) string { return "{" + n + "}" },
		func(n string) string { return "{" + n + "...}" },
	)
}
