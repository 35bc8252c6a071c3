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

// Package metrics records Prometheus request metrics for restsvc servers.
//
//	rec := metrics.MustNew(metrics.WithNamespace("todo"))
//	srv := restsvc.MustNew(restsvc.WithMetrics(rec))
//	mux.Handle("/metrics", rec.Handler())
//
// Three series are exported, labelled by service, method, route and status:
//
//	<ns>_requests_total
//	<ns>_request_duration_seconds
//	<ns>_requests_in_flight (labelled by service only)
//
// Routes are the registered patterns (e.g. "/todos/:id"), never raw paths,
// so label cardinality is bounded by the routing table.
package metrics
