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
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"slices"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/restsvc/restsvc/binding"
	"github.com/restsvc/restsvc/codec"
	"github.com/restsvc/restsvc/engine"
	"github.com/restsvc/restsvc/engine/stdmux"
	rerrors "github.com/restsvc/restsvc/errors"
	"github.com/restsvc/restsvc/internal/negotiate"
	"github.com/restsvc/restsvc/internal/semconv"
	"github.com/restsvc/restsvc/metrics"
	"github.com/restsvc/restsvc/tracing"
	"github.com/restsvc/restsvc/validation"
)

const tracerName = "github.com/restsvc/restsvc"

// Registration errors.
var (
	ErrImmutable            = errors.New("server is immutable after Build")
	ErrNilService           = errors.New("service is nil")
	ErrNilEndpoint          = errors.New("endpoint is nil")
	ErrInvalidStatus        = errors.New("invalid success status")
	ErrRouteConflict        = errors.New("route conflict")
	ErrUnknownAuthenticator = errors.New("unknown authenticator")
)

// RouteInfo describes a registered service method.
type RouteInfo struct {
	Service string
	Method  HTTPMethod
	// Path is the full route pattern, e.g. "/todos/:id".
	Path    string
	Pattern engine.Pattern

	Accept    []string
	Languages []string
	Consumes  []string

	Secured       bool
	Authenticator string
	Roles         []string

	Tags        []string
	Summary     string
	Description string
	OperationID string
	Status      int

	// RequestType and ResponseType are set for endpoints implementing
	// [EndpointTypes].
	RequestType  reflect.Type
	ResponseType reflect.Type
}

type route struct {
	info     RouteInfo
	endpoint Endpoint
	pre      []PreProcessor
	post     []PostProcessor
	security *security
	spanName string
	entry    *pathEntry
}

// pathEntry groups the routes sharing a path shape. The host router sees
// one pattern per entry: the first one registered.
type pathEntry struct {
	pattern engine.Pattern
	routes  [len(methodNames)]*route
}

func (e *pathEntry) allowed() []string {
	var allow []string
	for _, m := range HTTPMethods() {
		switch {
		case e.routes[m] != nil,
			m == MethodHead && e.routes[MethodGet] != nil,
			m == MethodOptions:
			allow = append(allow, m.String())
		}
	}

	return allow
}

// Server translates service declarations into routes of a host router.
//
// Register services, then call Build (or Handler) once per host router:
//
//	srv := restsvc.MustNew(restsvc.WithLogger(logger))
//	if err := srv.Register(&TodoService{}, &GreetingService{}); err != nil { ... }
//	h, err := srv.Handler()
//
// Endpoint results are written as follows: a [Responder] writes itself; a
// nil result answers 204 unless the endpoint wrote the response; a string
// is sent as text/plain; a []byte as application/octet-stream; an io.Reader
// is streamed; anything else is encoded with the negotiated codec at the
// method's success status.
type Server struct {
	mu      sync.Mutex
	built   bool
	routes  []*route
	entries []*pathEntry
	byShape map[string]*pathEntry

	logger          *slog.Logger
	formatter       rerrors.Formatter
	codecs          *codec.Registry
	binder          *binding.Binder
	binderOpts      []binding.Option
	validator       *validation.Validator
	authenticators  map[string]Authenticator
	metrics         *metrics.Recorder
	tracerProvider  trace.TracerProvider
	tracer          trace.Tracer
	propagator      propagation.TextMapPropagator
	exposeErrors    bool
	requestIDHeader string
	newRequestID    func() string

	optErrs []error
}

// New creates a server.
func New(opts ...Option) (*Server, error) {
	s := &Server{
		byShape:         make(map[string]*pathEntry),
		logger:          slog.Default(),
		formatter:       rerrors.NewSimple(),
		codecs:          codec.Default(),
		authenticators:  make(map[string]Authenticator),
		propagator:      tracing.Propagator(),
		requestIDHeader: "X-Request-ID",
		newRequestID:    UUIDRequestID,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := errors.Join(s.optErrs...); err != nil {
		return nil, fmt.Errorf("invalid server options: %w", err)
	}

	if s.validator == nil {
		v, err := validation.New()
		if err != nil {
			return nil, err
		}
		s.validator = v
	}
	if s.tracerProvider == nil {
		s.tracerProvider = otel.GetTracerProvider()
	}
	s.tracer = s.tracerProvider.Tracer(tracerName)
	s.binder = binding.New(append([]binding.Option{binding.WithCodecs(s.codecs)}, s.binderOpts...)...)

	return s, nil
}

// MustNew is like [New] but panics on error.
func MustNew(opts ...Option) *Server {
	s, err := New(opts...)
	if err != nil {
		panic(err)
	}

	return s
}

// Register adds the methods of services. A call either registers every
// method or none. It fails with [ErrImmutable] once the server was built.
func (s *Server) Register(services ...Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.built {
		return ErrImmutable
	}

	var pending []*route
	taken := make(map[string]*route)
	for _, r := range s.routes {
		taken[conflictKey(r.info.Method, r.info.Pattern)] = r
	}

	for _, svc := range services {
		if isNil(svc) {
			return ErrNilService
		}
		d := newDescriptor(svc)
		svc.Describe(d)

		base, err := engine.ParsePattern(d.path)
		if err != nil {
			return fmt.Errorf("service %s: %w", d.name, err)
		}
		if len(d.methods) == 0 {
			s.logger.Warn("service declares no methods", semconv.RouteService, d.name)
		}

		for _, md := range d.methods {
			rt, err := newRoute(d, base, md)
			if err != nil {
				return fmt.Errorf("service %s: %s: %w", d.name, md, err)
			}
			key := conflictKey(rt.info.Method, rt.info.Pattern)
			if prev, ok := taken[key]; ok {
				return fmt.Errorf("%w: %s %s of %s clashes with %s of %s", ErrRouteConflict,
					rt.info.Method, rt.info.Path, rt.info.Service, prev.info.Path, prev.info.Service)
			}
			taken[key] = rt
			pending = append(pending, rt)
		}
	}

	for _, rt := range pending {
		shape := rt.info.Pattern.Shape()
		entry, ok := s.byShape[shape]
		if !ok {
			entry = &pathEntry{pattern: rt.info.Pattern}
			s.byShape[shape] = entry
			s.entries = append(s.entries, entry)
		}
		entry.routes[rt.info.Method] = rt
		rt.entry = entry
		s.routes = append(s.routes, rt)

		s.logger.Debug("route registered",
			semconv.RouteService, rt.info.Service, semconv.HTTPMethod, rt.info.Method.String(), semconv.HTTPRoute, rt.info.Path)
	}

	return nil
}

func newRoute(d *Descriptor, base engine.Pattern, md *MethodDescriptor) (*route, error) {
	if !md.method.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMethod, int(md.method))
	}
	if isNil(md.endpoint) {
		return nil, ErrNilEndpoint
	}
	status := md.status
	if status == 0 {
		status = http.StatusOK
	}
	if !rerrors.ValidStatus(status) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStatus, status)
	}

	sub, err := engine.ParsePattern(md.path)
	if err != nil {
		return nil, err
	}
	pattern, err := base.Join(sub)
	if err != nil {
		return nil, err
	}

	set := merge(d.settings, md.settings)
	info := RouteInfo{
		Service:     d.name,
		Method:      md.method,
		Path:        pattern.String(),
		Pattern:     pattern,
		Accept:      normalizeAll(set.accept),
		Languages:   slices.Clone(set.languages),
		Consumes:    normalizeAll(set.consumes),
		Tags:        slices.Clone(set.tags),
		Summary:     md.summary,
		Description: md.description,
		OperationID: md.operationID,
		Status:      status,
	}
	if set.security != nil {
		info.Secured = true
		info.Authenticator = set.security.authenticator
		info.Roles = slices.Clone(set.security.roles)
	}
	if typed, ok := md.endpoint.(EndpointTypes); ok {
		info.RequestType = typed.RequestType()
		info.ResponseType = typed.ResponseType()
	}

	return &route{
		info:     info,
		endpoint: md.endpoint,
		pre:      set.pre,
		post:     set.post,
		security: set.security,
		spanName: info.Method.String() + " " + info.Path,
	}, nil
}

// Build registers every route with eng and freezes the registration. It
// can be called again with other engines.
//
// For each registered path all methods are routed: undeclared ones answer
// 405 with an Allow header, HEAD falls back to GET and OPTIONS answers 204
// with Allow unless declared.
func (s *Server) Build(eng engine.Engine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rt := range s.routes {
		if rt.security == nil {
			continue
		}
		if _, ok := s.authenticators[rt.security.authenticator]; !ok {
			return fmt.Errorf("%w: %q used by %s %s", ErrUnknownAuthenticator,
				rt.security.authenticator, rt.info.Method, rt.info.Path)
		}
	}
	s.built = true

	for _, entry := range s.entries {
		allow := entry.allowed()
		for _, m := range HTTPMethods() {
			if err := eng.Handle(m.String(), entry.pattern, s.handler(entry, m, allow)); err != nil {
				return fmt.Errorf("build %s: %w", eng.Name(), err)
			}
		}
	}
	s.logger.Info("routes built", "engine", eng.Name(), "routes", len(s.routes), "paths", len(s.entries))

	return nil
}

// Handler builds the server on a new net/http ServeMux.
func (s *Server) Handler() (http.Handler, error) {
	mux := stdmux.New()
	if err := s.Build(mux); err != nil {
		return nil, err
	}

	return mux, nil
}

// Paths returns the registered path patterns in registration order.
func (s *Server) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths := make([]string, len(s.entries))
	for i, e := range s.entries {
		paths[i] = e.pattern.String()
	}

	return paths
}

// HTTPMethods returns the declared methods of path in ordinal order. Paths
// with the same shape ("/a/:id" and "/a/:key") are the same path.
func (s *Server) HTTPMethods(path string) []HTTPMethod {
	p, err := engine.ParsePattern(path)
	if err != nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.byShape[p.Shape()]
	if !ok {
		return nil
	}
	var methods []HTTPMethod
	for _, m := range HTTPMethods() {
		if entry.routes[m] != nil {
			methods = append(methods, m)
		}
	}

	return methods
}

// Routes returns the registered routes in registration order.
func (s *Server) Routes() []RouteInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]RouteInfo, len(s.routes))
	for i, rt := range s.routes {
		infos[i] = rt.info
	}

	return infos
}

func conflictKey(m HTTPMethod, p engine.Pattern) string {
	return m.String() + " " + p.Shape()
}

func normalizeAll(mediaTypes []string) []string {
	if mediaTypes == nil {
		return nil
	}
	out := make([]string, 0, len(mediaTypes))
	for _, mt := range mediaTypes {
		if n := negotiate.Normalize(mt); n != "" && !slices.Contains(out, n) {
			out = append(out, n)
		}
	}

	return out
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Interface, reflect.Chan, reflect.Map:
		return rv.IsNil()
	default:
		return false
	}
}

func allowHeader(allow []string) string {
	return strings.Join(allow, ", ")
}
