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

// Package tracing sets up the OpenTelemetry tracer provider used by restsvc
// servers.
//
//	tp, err := tracing.New(ctx,
//	    tracing.WithServiceName("todo-api"),
//	    tracing.WithExporter(tracing.ExporterStdout),
//	    tracing.WithSampleRatio(0.25),
//	)
//	if err != nil { ... }
//	defer tp.Shutdown(context.Background())
//
//	srv := restsvc.MustNew(restsvc.WithTracerProvider(tp.TracerProvider()))
//
// Incoming W3C trace context and baggage headers are honoured through
// [Propagator].
package tracing
