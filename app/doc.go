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


// Package app runs restsvc services as a standalone HTTP server.
//
// An [App] is assembled from a [config.Config]: it builds the structured
// logger, the tracer provider, the Prometheus recorder and the host router
// named by the server section, registers the services and exposes them next
// to a health check, the metrics endpoint and the generated OpenAPI
// document.
//
//	cfg, err := config.Load(ctx, config.WithOptionalFile("restsvc.yaml"), config.WithEnv("RESTSVC_"))
//	if err != nil {
//	    return err
//	}
//	a, err := app.New(ctx, *cfg, services)
//	if err != nil {
//	    return err
//	}
//	return a.Run(ctx)
//
// Run blocks until ctx is canceled and then shuts down gracefully within
// the configured shutdown timeout. Signal handling belongs to the caller,
// usually through [signal.NotifyContext].
package app
