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

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/restsvc/restsvc/binding"
	"github.com/restsvc/restsvc/codec"
	rerrors "github.com/restsvc/restsvc/errors"
	"github.com/restsvc/restsvc/metrics"
	"github.com/restsvc/restsvc/validation"
)

// Option configures a [Server].
type Option func(*Server)

// WithLogger sets the server logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger == nil {
			s.optErrs = append(s.optErrs, errors.New("logger cannot be nil"))
			return
		}
		s.logger = logger
	}
}

// WithErrorFormatter sets how error responses are rendered. Defaults to
// [rerrors.Simple].
func WithErrorFormatter(f rerrors.Formatter) Option {
	return func(s *Server) {
		if f == nil {
			s.optErrs = append(s.optErrs, errors.New("error formatter cannot be nil"))
			return
		}
		s.formatter = f
	}
}

// WithCodec registers an additional body codec, or replaces the built-in
// codec for the same media type.
func WithCodec(c codec.Codec, aliases ...string) Option {
	return func(s *Server) {
		s.codecs.Register(c, aliases...)
	}
}

// WithValidator sets the validator used by [ServiceContext.Bind].
func WithValidator(v *validation.Validator) Option {
	return func(s *Server) {
		if v == nil {
			s.optErrs = append(s.optErrs, errors.New("validator cannot be nil"))
			return
		}
		s.validator = v
	}
}

// WithAuthenticator registers a named authenticator. Methods declaring
// Security use the [DefaultAuthenticator] name; SecurityWith selects
// another one.
func WithAuthenticator(name string, a Authenticator) Option {
	return func(s *Server) {
		if name == "" || a == nil {
			s.optErrs = append(s.optErrs, fmt.Errorf("authenticator %q: name and authenticator are required", name))
			return
		}
		s.authenticators[name] = a
	}
}

// WithMetrics records request metrics with rec.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(s *Server) { s.metrics = rec }
}

// WithTracerProvider creates request spans with tp. Defaults to the global
// provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Server) { s.tracerProvider = tp }
}

// WithPropagator sets the propagator extracting the remote trace context.
// Defaults to W3C trace context and baggage.
func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(s *Server) { s.propagator = p }
}

// WithMaxMultipartMemory sets the memory limit for multipart bodies.
func WithMaxMultipartMemory(n int64) Option {
	return func(s *Server) {
		s.binderOpts = append(s.binderOpts, binding.WithMaxMemory(n))
	}
}

// WithExposeErrors sends the message of non-HTTP errors to clients instead
// of a generic one. Meant for development.
func WithExposeErrors(expose bool) Option {
	return func(s *Server) { s.exposeErrors = expose }
}

// WithRequestIDHeader sets the header carrying the request id. Defaults to
// X-Request-ID.
func WithRequestIDHeader(name string) Option {
	return func(s *Server) {
		if name != "" {
			s.requestIDHeader = name
		}
	}
}

// WithRequestIDGenerator sets the function generating ids for requests
// that arrive without one. Defaults to [UUIDRequestID].
func WithRequestIDGenerator(fn func() string) Option {
	return func(s *Server) {
		if fn != nil {
			s.newRequestID = fn
		}
	}
}

// UUIDRequestID returns a time-ordered UUIDv7.
func UUIDRequestID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// ULIDRequestID returns a ULID, sortable and 26 characters long.
func ULIDRequestID() string {
	return ulid.Make().String()
}

// WithParamConverter teaches parameter binding to convert strings into T.
//
//	restsvc.WithParamConverter(uuid.Parse)
func WithParamConverter[T any](fn func(string) (T, error)) Option {
	return func(s *Server) {
		s.binderOpts = append(s.binderOpts, binding.WithTypedConverter(fn))
	}
}

// WithTimeLayouts adds time layouts accepted for time.Time parameters.
func WithTimeLayouts(layouts ...string) Option {
	return func(s *Server) {
		s.binderOpts = append(s.binderOpts, binding.WithTimeLayouts(layouts...))
	}
}
