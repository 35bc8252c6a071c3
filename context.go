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
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/restsvc/restsvc/engine"
	rerrors "github.com/restsvc/restsvc/errors"
)

type contextKey struct{}

// ServiceContext carries the state of one request through pre-processors,
// the endpoint and post-processors. It must not be retained after the
// request completes.
type ServiceContext struct {
	// Request is the incoming request. Its context carries the
	// ServiceContext and the request span.
	Request *http.Request

	// Response tracks the status and whether anything was written.
	Response *ResponseWriter

	// Params holds the path parameters, keyed by the names declared in the
	// method path.
	Params engine.Params

	// Accept is the negotiated response media type.
	Accept string

	// Language is the negotiated response language, empty when the method
	// declares none.
	Language string

	// Principal is the authenticated caller of a secured method.
	Principal *Principal

	// RequestID is the X-Request-ID value, received or generated.
	RequestID string

	server *Server
	route  *route
	logger *slog.Logger
	values map[string]any
}

// FromContext returns the ServiceContext stored in ctx.
func FromContext(ctx context.Context) (*ServiceContext, bool) {
	sc, ok := ctx.Value(contextKey{}).(*ServiceContext)
	return sc, ok
}

// Context returns the request context.
func (c *ServiceContext) Context() context.Context {
	return c.Request.Context()
}

// Logger returns the request logger. It carries the request id, route and
// trace ids.
func (c *ServiceContext) Logger() *slog.Logger {
	return c.logger
}

// Route describes the matched route.
func (c *ServiceContext) Route() RouteInfo {
	return c.route.info
}

// Set stores a request-scoped value, typically from a pre-processor.
func (c *ServiceContext) Set(key string, value any) {
	if c.values == nil {
		c.values = make(map[string]any)
	}
	c.values[key] = value
}

// Get returns a value stored with [ServiceContext.Set].
func (c *ServiceContext) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// PathParam returns a path parameter.
func (c *ServiceContext) PathParam(name string) string {
	return c.Params.Get(name)
}

// QueryParam returns the first value of a query parameter.
func (c *ServiceContext) QueryParam(name string) string {
	return c.Request.URL.Query().Get(name)
}

// HeaderParam returns the first value of a request header.
func (c *ServiceContext) HeaderParam(name string) string {
	return c.Request.Header.Get(name)
}

// CookieParam returns the value of a request cookie.
func (c *ServiceContext) CookieParam(name string) (string, bool) {
	cookie, err := c.Request.Cookie(name)
	if err != nil {
		return "", false
	}

	return cookie.Value, true
}

// Bind fills dst from the request (path, query, header, cookie, form and
// file tags, and the body) and validates it.
func (c *ServiceContext) Bind(dst any) error {
	if err := c.server.binder.Request(c.Request, c.Params, dst); err != nil {
		return err
	}

	return c.server.validator.Validate(c.Context(), dst)
}

// Write encodes v with the codec of the negotiated media type and writes it
// with status. Encoding happens before anything is sent, so an encoding
// failure can still be reported as an error response. A negotiated type
// without a registered codec is a 406; JSON is used only when nothing was
// negotiated.
func (c *ServiceContext) Write(status int, v any) error {
	contentType := c.Accept
	if contentType == "" {
		contentType = "application/json"
	}
	cdc, ok := c.server.codecs.Lookup(contentType)
	if !ok {
		return rerrors.NotAcceptableError("no encoder can produce %s", contentType)
	}

	var buf bytes.Buffer
	if err := cdc.Encode(&buf, v); err != nil {
		return fmt.Errorf("encode %s response: %w", contentType, err)
	}

	if contentType == "application/json" {
		contentType += "; charset=utf-8"
	}
	c.Response.Header().Set("Content-Type", contentType)
	c.Response.WriteHeader(status)
	_, err := c.Response.Write(buf.Bytes())

	return err
}

// Written reports whether the response status has been sent.
func (c *ServiceContext) Written() bool {
	return c.Response.Written()
}

// ResponseWriter wraps the host writer to record the status and the number
// of bytes written. Bodies of HEAD responses are discarded.
type ResponseWriter struct {
	http.ResponseWriter
	status      int
	size        int64
	written     bool
	discardBody bool
}

func newResponseWriter(w http.ResponseWriter, head bool) *ResponseWriter {
	return &ResponseWriter{ResponseWriter: w, status: http.StatusOK, discardBody: head}
}

// WriteHeader sends the status once; later calls are ignored. A code
// outside 100..599 is sent as 500.
func (w *ResponseWriter) WriteHeader(code int) {
	if w.written {
		return
	}
	if !rerrors.ValidStatus(code) {
		code = http.StatusInternalServerError
	}
	w.status = code
	w.written = true
	w.ResponseWriter.WriteHeader(code)
}

// Write sends the body, writing a 200 status first if none was sent.
// Bodies of HEAD requests and of 1xx, 204 and 304 responses are dropped.
func (w *ResponseWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.WriteHeader(http.StatusOK)
	}
	if w.discardBody || !bodyAllowed(w.status) {
		return len(b), nil
	}
	n, err := w.ResponseWriter.Write(b)
	w.size += int64(n)

	return n, err
}

func bodyAllowed(status int) bool {
	switch {
	case status < http.StatusOK:
		return false
	case status == http.StatusNoContent, status == http.StatusNotModified:
		return false
	}
	return true
}

// Status returns the status sent, or 200 before anything was written.
func (w *ResponseWriter) Status() int { return w.status }

// Size returns the number of body bytes written.
func (w *ResponseWriter) Size() int64 { return w.size }

// Written reports whether the status has been sent.
func (w *ResponseWriter) Written() bool { return w.written }

// Unwrap returns the host writer for http.ResponseController.
func (w *ResponseWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Flush implements http.Flusher when the host writer does.
func (w *ResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		if !w.written {
			w.WriteHeader(http.StatusOK)
		}
		f.Flush()
	}
}

// Hijack implements http.Hijacker when the host writer does.
func (w *ResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.written = true

	return h.Hijack()
}
