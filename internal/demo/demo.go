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

// Package demo holds example services used by the restsvc command and the
// engine test suite.
package demo

import "github.com/restsvc/restsvc"

// Services returns every demo service sharing store.
func Services(store *Store) []restsvc.Service {
	return []restsvc.Service{
		NewTodoService(store),
		&GreetingService{},
		&FileService{},
	}
}

// Tokens authenticates the demo bearer tokens "editor-token" and
// "viewer-token".
func Tokens() restsvc.Authenticator {
	return restsvc.StaticTokens(map[string]*restsvc.Principal{
		"editor-token": {Subject: "editor", Roles: []string{"editor", "viewer"}},
		"viewer-token": {Subject: "viewer", Roles: []string{"viewer"}},
	})
}
