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

// Package validation checks bound request values.
//
// Struct tags are evaluated with go-playground/validator. Field paths in
// errors use the client-facing names: the `path`, `query`, `header`,
// `cookie` or `form` tag for parameters and the `json` tag for body fields.
//
// Types may also validate themselves by implementing [Validatable] or
// [ContextValidatable]; these run after tag validation succeeds.
//
// Failures are returned as [*Error], which carries HTTP status 422 and one
// [FieldError] per failed rule.
package validation
