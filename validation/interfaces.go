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

package validation

import "context"

// Validatable is implemented by types with their own validation rules.
type Validatable interface {
	Validate() error
}

// ContextValidatable is the context-aware form of [Validatable]. It is
// preferred when a type implements both.
type ContextValidatable interface {
	ValidateContext(ctx context.Context) error
}
