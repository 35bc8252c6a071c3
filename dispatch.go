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
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	otelsemconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/restsvc/restsvc/binding"
	"github.com/restsvc/restsvc/engine"
	rerrors "github.com/restsvc/restsvc/errors"
	"github.com/restsvc/restsvc/internal/negotiate"
	"github.com/restsvc/restsvc/internal/semconv"
	"github.com/restsvc/restsvc/logging"
)

// panicError carries a value recovered from an endpoint.
type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

// handler returns the host handler of method m on entry. Methods without a
// declared route get a synthetic one.
func (s *Server) handler(entry *pathEntry, m HTTPMethod, allow []string) engine.HandlerFunc {
	rt := entry.routes[m]
	if rt == nil {
		rt = s.syntheticRoute(entry, m, allow)
	}
	hostNames := entry.pattern.Params()
	names := rt.info.Pattern.Params()

	return func(w http.ResponseWriter, r *http.Request, params engine.Params) {
		// Paths sharing a shape may name their parameters differently.
		if len(hostNames) == len(names) {
			renamed := make(engine.Params, len(params))
			for i, name := range names {
				renamed[name] = params[hostNames[i]]
			}
			params = renamed
		}
		s.serve(w, r, rt, params)
	}
}

func (s *Server) syntheticRoute(entry *pathEntry, m HTTPMethod, allow []string) *route {
	var service string
	for _, declared := range entry.routes {
		if declared != nil {
			service = declared.info.Service
			break
		}
	}

	if m == MethodHead && entry.routes[MethodGet] != nil {
		return entry.routes[MethodGet]
	}

	info := RouteInfo{
		Service: service,
		Method:  m,
		Path:    entry.pattern.String(),
		Pattern: entry.pattern,
		Status:  http.StatusOK,
	}

	var endpoint HandlerFunc
	if m == MethodOptions {
		info.Status = http.StatusNoContent
		endpoint = func(ctx *ServiceContext) (any, error) {
			ctx.Response.Header().Set("Allow", allowHeader(allow))
			return nil, nil
		}
	} else {
		endpoint = func(ctx *ServiceContext) (any, error) {
			return nil, rerrors.MethodNotAllowedError(allow, "method %s not allowed", ctx.Request.Method)
		}
	}

	return &route{
		info:     info,
		endpoint: endpoint,
		spanName: m.String() + " " + info.Path,
		entry:    entry,
	}
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request, rt *route, params engine.Params) {
	start := time.Now()
	done := s.metrics.Begin(rt.info.Service)

	rw := newResponseWriter(w, r.Method == http.MethodHead)

	requestID := r.Header.Get(s.requestIDHeader)
	if requestID == "" {
		requestID = s.newRequestID()
	}
	rw.Header().Set(s.requestIDHeader, requestID)

	ctx := s.propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := s.tracer.Start(ctx, rt.spanName,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			otelsemconv.HTTPRequestMethodKey.String(r.Method),
			otelsemconv.HTTPRoute(rt.info.Path),
			otelsemconv.URLPath(r.URL.Path),
			semconv.SpanService.String(rt.info.Service),
			semconv.SpanRequestID.String(requestID),
		),
	)
	defer span.End()

	sc := &ServiceContext{
		Response:  rw,
		Params:    params,
		RequestID: requestID,
		server:    s,
		route:     rt,
	}
	sc.logger = logging.WithTrace(ctx, s.logger).With(
		semconv.RequestID, requestID,
		semconv.RouteService, rt.info.Service,
		semconv.HTTPRoute, rt.info.Path,
	)
	sc.Request = r.WithContext(context.WithValue(ctx, contextKey{}, sc))

	if err := s.run(sc); err != nil {
		s.fail(sc, span, err)
	}
	if !rw.Written() {
		rw.WriteHeader(http.StatusOK)
	}

	status := rw.Status()
	span.SetAttributes(otelsemconv.HTTPResponseStatusCode(status))
	if status >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, http.StatusText(status))
	}
	done(r.Method, rt.info.Path, status)

	sc.logger.Info("request completed",
		semconv.HTTPMethod, r.Method,
		semconv.HTTPTarget, r.URL.Path,
		semconv.HTTPStatus, status,
		semconv.Duration, time.Since(start),
		semconv.ResponseSize, rw.Size(),
	)
}

// run executes the request pipeline. A panic in any stage becomes a
// *panicError.
func (s *Server) run(sc *ServiceContext) (err error) {
	defer func() {
		if v := recover(); v != nil {
			if v == http.ErrAbortHandler {
				panic(v)
			}
			err = &panicError{value: v, stack: debug.Stack()}
		}
	}()

	rt := sc.route
	r := sc.Request

	if len(rt.info.Consumes) > 0 && binding.HasBody(r) {
		ct := negotiate.Normalize(r.Header.Get("Content-Type"))
		if ct == "" || !negotiate.ContentType(ct, rt.info.Consumes) {
			return rerrors.UnsupportedMediaTypeError("content type %q is not supported", r.Header.Get("Content-Type"))
		}
	}

	accept := r.Header.Get("Accept")
	if len(rt.info.Accept) > 0 {
		sc.Accept = negotiate.MediaType(accept, rt.info.Accept)
		if sc.Accept == "" {
			return rerrors.NotAcceptableError("none of %v is acceptable", rt.info.Accept)
		}
	} else {
		sc.Accept = negotiate.MediaType(accept, s.codecs.MediaTypes())
		if sc.Accept == "" {
			sc.Accept = "application/json"
		}
	}

	if len(rt.info.Languages) > 0 {
		sc.Language = negotiate.Language(r.Header.Get("Accept-Language"), rt.info.Languages)
		if sc.Language == "" {
			return rerrors.NotAcceptableError("none of the languages %v is acceptable", rt.info.Languages)
		}
		sc.Response.Header().Set("Content-Language", sc.Language)
	}

	if rt.security != nil {
		if err := s.authenticate(sc); err != nil {
			return err
		}
	}

	for _, pre := range rt.pre {
		if err := pre(sc); err != nil {
			return err
		}
		if sc.Written() {
			return nil
		}
	}

	result, err := rt.endpoint.Invoke(sc)
	if err != nil {
		return err
	}

	for _, post := range rt.post {
		if err := post(sc, result); err != nil {
			return err
		}
	}

	return s.render(sc, result)
}

func (s *Server) authenticate(sc *ServiceContext) error {
	sec := sc.route.security
	a := s.authenticators[sec.authenticator]

	principal, err := a.Authenticate(sc.Request)
	if err != nil {
		var status rerrors.ErrorType
		if errors.As(err, &status) {
			return err
		}

		return rerrors.UnauthorizedError("authentication failed").WithCause(err)
	}
	if principal == nil {
		return rerrors.UnauthorizedError("authentication required")
	}
	sc.Principal = principal

	if !authorized(principal, sec.roles) {
		return rerrors.ForbiddenError("principal %q lacks a required role", principal.Subject)
	}

	return nil
}

// fail logs err and writes the error response unless the response was
// already sent. A panicking formatter leaves a bare 500.
func (s *Server) fail(sc *ServiceContext, span trace.Span, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			sc.logger.Error("error formatter panicked", semconv.Error, fmt.Sprint(rec), semconv.Stack, string(debug.Stack()))
			if !sc.Written() {
				sc.Response.WriteHeader(http.StatusInternalServerError)
			}
		}
	}()
	span.RecordError(err)

	var pe *panicError
	status := rerrors.StatusOf(err)
	switch {
	case errors.As(err, &pe):
		sc.logger.Error("endpoint panicked", semconv.Error, err, semconv.Stack, string(pe.stack))
	case status >= http.StatusInternalServerError:
		sc.logger.Error("request failed", semconv.Error, err, semconv.HTTPStatus, status)
	default:
		sc.logger.Warn("request rejected", semconv.Error, err, semconv.HTTPStatus, status)
	}

	if sc.Written() {
		return
	}

	var typed rerrors.ErrorType
	if !errors.As(err, &typed) {
		if s.exposeErrors {
			err = rerrors.InternalServerError("%s", err.Error()).WithCause(err)
		} else {
			err = rerrors.InternalServerError("internal server error").WithCause(err)
		}
	}

	if werr := rerrors.Write(sc.Response, sc.Request, s.formatter, err); werr != nil {
		sc.logger.Error("failed to write error response", semconv.Error, werr)
	}
}

