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


// Package semconv names the attributes restsvc attaches to log records and
// spans, so logs and traces of the same request can be correlated by key.
package semconv

import "go.opentelemetry.io/otel/attribute"

// Deployment attributes, set once on the base logger.
const (
	ServiceName    = "service"
	ServiceVersion = "version"
	Environment    = "env"
)

// Request attributes, set on every request logger.
const (
	RequestID    = "request_id"
	RouteService = "route.service"
	HTTPRoute    = "http.route"
	HTTPMethod   = "http.method"
	HTTPTarget   = "http.target"
	HTTPStatus   = "http.status_code"
	ResponseSize = "http.response_size"
	Duration     = "duration"
)

// Failure attributes.
const (
	Error = "error"
	Stack = "stack"
)

// Span attributes without an OpenTelemetry convention.
const (
	SpanService   = attribute.Key("restsvc.service")
	SpanRequestID = attribute.Key("restsvc.request_id")
)
