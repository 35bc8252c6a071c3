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

// Package echoengine adapts [echo.Echo] to the restsvc engine interface.
package echoengine

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/restsvc/restsvc/engine"
)

// Engine registers routes on an echo instance.
type Engine struct {
	echo *echo.Echo
}

// New returns an engine backed by echo.New() with the startup banner and
// port line disabled.
func New() *Engine {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	return &Engine{echo: e}
}

// Wrap returns an engine that registers on an existing echo instance.
func Wrap(e *echo.Echo) *Engine {
	return &Engine{echo: e}
}

// Name implements [engine.Engine].
func (e *Engine) Name() string { return "echo" }

// Echo returns the underlying echo instance.
func (e *Engine) Echo() *echo.Echo { return e.echo }

// ServeHTTP implements [http.Handler].
func (e *Engine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.echo.ServeHTTP(w, r)
}

// Handle implements [engine.Engine].
func (e *Engine) Handle(method string, p engine.Pattern, h engine.HandlerFunc) error {
	segs := p.Segments()

	return engine.Guard(method, p, func() {
		e.echo.Add(method, Path(p), func(c echo.Context) error {
			params := make(engine.Params, len(segs))
			for _, s := range segs {
				switch s.Kind {
				case engine.Param:
					params[s.Value] = c.Param(s.Value)
				case engine.CatchAll:
					params[s.Value] = c.Param("*")
				}
			}
			h(c.Response(), c.Request(), params)

			return nil
		})
	})
}

// Path renders p in echo syntax ("/users/:id/files/*").
func Path(p engine.Pattern) string {
	return p.Render(
		func(n string) string { return ":" + n },
		func(string) string { return "*" },
	)
}
