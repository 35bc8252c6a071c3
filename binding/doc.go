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

// Package binding fills request structs from an [http.Request].
//
// Fields are mapped with struct tags naming the source of each value:
//
//	type GetTodo struct {
//	    ID      int64    `path:"id"`
//	    Fields  []string `query:"fields"`
//	    Limit   int      `query:"limit" default:"20"`
//	    TraceID string   `header:"X-Trace-Id"`
//	    Session string   `cookie:"session"`
//	    Title   string   `json:"title"`
//	}
//
// The request body, when present, is decoded into the whole struct with the
// codec matching its Content-Type. Form and multipart bodies are read through
// the `form` and `file` tags instead. Tagged sources are applied after the
// body, so a path parameter always wins over a body field of the same name.
//
// Conversion failures are reported as [*Error] (HTTP 400). A body whose media
// type has no codec yields [*MediaTypeError] (HTTP 415).
package binding
