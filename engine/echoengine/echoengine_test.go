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


package echoengine

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restsvc/restsvc/engine"
)

func TestEngine_Handle(t *testing.T) {
	t.Parallel()

	e := New()
	assert.Equal(t, "echo", e.Name())

	var got engine.Params
	h := func(w http.ResponseWriter, _ *http.Request, p engine.Params) {
		got = p
		w.WriteHeader(http.StatusTeapot)
	}
	require.NoError(t, e.Handle(http.MethodGet, engine.MustParsePattern("/users/:id"), h))
	require.NoError(t, e.Handle(http.MethodGet, engine.MustParsePattern("/users/:id/posts/:post"), h))
	require.NoError(t, e.Handle(http.MethodPost, engine.MustParsePattern("/files/*path"), h))

	tests := []struct {
		method string
		target string
		want   engine.Params
	}{
		{method: http.MethodGet, target: "/users/42", want: engine.Params{"id": "42"}},
		{method: http.MethodGet, target: "/users/42/posts/7", want: engine.Params{"id": "42", "post": "7"}},
		{method: http.MethodPost, target: "/files/docs/readme.md", want: engine.Params{"path": "docs/readme.md"}},
	}
	for _, tt := range tests {
		got = nil
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))
		assert.Equal(t, http.StatusTeapot, rec.Code, tt.target)
		assert.Equal(t, tt.want, got, tt.target)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPath(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"/":            "/",
		"/users/:id":   "/users/:id",
		"/files/*path": "/files/*",
	}
	for in, want := range tests {
		assert.Equal(t, want, Path(engine.MustParsePattern(in)), in)
	}
}
