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

// Package openapi generates an OpenAPI 3.0 document from the routes of a
// restsvc server.
//
// Parameters and request bodies come from the struct tags of typed
// endpoints ([restsvc.Typed]); response schemas come from their result
// type. Other endpoints are documented with their path parameters and
// status only.
//
//	doc, err := openapi.Generate(srv.Routes(),
//	    openapi.WithTitle("Todo API"),
//	    openapi.WithVersion("1.2.0"),
//	)
//	out, err := doc.YAML()
package openapi
