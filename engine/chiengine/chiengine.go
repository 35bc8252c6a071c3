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

// Package chiengine adapts [chi.Mux] to the restsvc engine interface.
package chiengine

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/restsvc/restsvc/engine"
)

// Engine registers routes on a chi router.
type Engine struct {
	router chi.Router
}

// New returns an engine backed by a fresh chi router. Middlewares are
// installed before any route is registered, as chi requires.
//
// Example:
//
//	e := chiengine.New(middleware.RealIP, middleware.Compress(5))
func New(middlewares ...func(http.Handler) http.Handler) *Engine {
	r := chi.NewRouter()
	r.Use(middlewares...)

	return &Engine{router: r}
}

// Wrap returns an engine that registers on an existing chi router or
// sub-router.
func Wrap(r chi.Router) *Engine {
	return &Engine{router: r}
}

// Name implements [engine.Engine].
func (e *Engine) Name() string { return "chi" }

// Router returns the underlying chi router.
func (e *Engine) Router() chi.Router { return e.router }

// ServeHTTP implements [http.Handler].
func (e *Engine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.router.ServeHTTP(w, r)
}

// Handle implements [engine.Engine].
func (e *Engine) Handle(method string, p engine.Pattern, h engine.HandlerFunc) error {
	var names []string
	catchAll := ""
	for _, s := range p.Segments() {
		switch s.Kind {
		case engine.Param:
			names = append(names, s.Value)
		case engine.CatchAll:
			catchAll = s.Value
		}
	}

	return engine.Guard(method, p, func() {
		e.router.MethodFunc(method, Path(p), func(w http.ResponseWriter, r *http.Request) {
			params := make(engine.Params, len(names)+1)
			for _, n := range names {
				params[n] = engine.Unescape(r, chi.URLParam(r, n))
			}
			if catchAll != "" {
				params[catchAll] = engine.Unescape(r, chi.URLParam(r, "*"))
			}
			h(w, r, params)
		})
	})
}

// Path renders p in chi syntax ("/users/{id}/files/*").
func Path(p engine.Pattern) string {
	return p.Render(
		func(n string) string { return "{" + n + "}" },
		func(string) string { return "*" },
	)
}
