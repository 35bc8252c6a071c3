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

// Package ginengine adapts [gin.Engine] to the restsvc engine interface.
package ginengine

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/restsvc/restsvc/engine"
)

// Engine registers routes on a gin engine or route group.
type Engine struct {
	handler http.Handler
	routes  gin.IRoutes
}

// New returns an engine backed by gin.New(). No gin middleware is installed;
// restsvc handles recovery and logging itself.
func New() *Engine {
	g := gin.New()

	return &Engine{handler: g, routes: g}
}

// Wrap returns an engine that registers on routes (an engine or a group)
// and serves requests through handler, normally the owning *gin.Engine.
func Wrap(handler http.Handler, routes gin.IRoutes) *Engine {
	return &Engine{handler: handler, routes: routes}
}

// Name implements [engine.Engine].
func (e *Engine) Name() string { return "gin" }

// ServeHTTP implements [http.Handler].
func (e *Engine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.handler.ServeHTTP(w, r)
}

// Handle implements [engine.Engine].
func (e *Engine) Handle(method string, p engine.Pattern, h engine.HandlerFunc) error {
	segs := p.Segments()

	return engine.Guard(method, p, func() {
		e.routes.Handle(method, Path(p), func(c *gin.Context) {
			params := make(engine.Params, len(segs))
			for _, s := range segs {
				switch s.Kind {
				case engine.Param:
					params[s.Value] = c.Param(s.Value)
				case engine.CatchAll:
					// gin keeps the leading slash on catch-all values.
					params[s.Value] = strings.TrimPrefix(c.Param(s.Value), "/")
				}
			}
			h(c.Writer, c.Request, params)
		})
	})
}

// Path renders p in gin syntax, which matches the canonical form.
func Path(p engine.Pattern) string {
	return p.String()
}
