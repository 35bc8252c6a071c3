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

package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fieldDetail struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Source  string `json:"source,omitempty"`
}

func TestSimple_Format(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		formatter  *Simple
		err        error
		wantStatus int
		wantCode   any
	}{
		{
			name:       "plain error",
			formatter:  NewSimple(),
			err:        errors.New("something went wrong"),
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "http error",
			formatter:  NewSimple(),
			err:        NotFoundError("no such user"),
			wantStatus: http.StatusNotFound,
			wantCode:   NameNotFound,
		},
		{
			name: "custom status resolver",
			formatter: &Simple{
				StatusResolver: func(error) int { return http.StatusTeapot },
			},
			err:        errors.New("test"),
			wantStatus: http.StatusTeapot,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			resp := tt.formatter.Format(req, tt.err)

			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, "application/json; charset=utf-8", resp.ContentType)

			body, ok := resp.Body.(map[string]any)
			require.True(t, ok, "Body is not map[string]any, got %T", resp.Body)
			assert.Equal(t, tt.err.Error(), body["error"])
			assert.Equal(t, tt.wantCode, body["code"])
		})
	}
}

func TestSimple_Details(t *testing.T) {
	t.Parallel()

	err := BadRequestError("invalid").WithDetails(map[string]string{"field": "id"})
	resp := NewSimple().Format(httptest.NewRequest(http.MethodGet, "/", nil), err)

	body, ok := resp.Body.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]string{"field": "id"}, body["details"])
}

func TestRFC9457_Format(t *testing.T) {
	t.Parallel()

	f := NewRFC9457("https://api.example.com/problems")
	f.ErrorIDGenerator = func() string { return "err-fixed" }

	req := httptest.NewRequest(http.MethodGet, "/users/9", nil)
	resp := f.Format(req, NotFoundError("user 9 not found"))

	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Equal(t, "application/problem+json; charset=utf-8", resp.ContentType)

	data, err := json.Marshal(resp.Body)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "https://api.example.com/problems/NotFoundError", got["type"])
	assert.Equal(t, "Not Found", got["title"])
	assert.EqualValues(t, 404, got["status"])
	assert.Equal(t, "user 9 not found", got["detail"])
	assert.Equal(t, "/users/9", got["instance"])
	assert.Equal(t, "err-fixed", got["error_id"])
	assert.Equal(t, NameNotFound, got["code"])
}

func TestRFC9457_DefaultsAndReservedMembers(t *testing.T) {
	t.Parallel()

	f := &RFC9457{DisableErrorID: true}
	resp := f.Format(httptest.NewRequest(http.MethodGet, "/", nil), errors.New("boom"))

	p, ok := resp.Body.(ProblemDetail)
	require.True(t, ok)
	assert.Equal(t, "about:blank", p.Type)
	assert.NotContains(t, p.Extensions, "error_id")

	p.Extensions["status"] = 999
	p.Extensions["trace"] = "abc"
	data, err := json.Marshal(p)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.EqualValues(t, 500, got["status"], "extensions cannot override reserved members")
	assert.Equal(t, "abc", got["trace"])
}

func TestJSONAPI_Format(t *testing.T) {
	t.Parallel()

	t.Run("single error", func(t *testing.T) {
		t.Parallel()

		resp := NewJSONAPI().Format(httptest.NewRequest(http.MethodGet, "/", nil), ConflictError("exists"))
		assert.Equal(t, http.StatusConflict, resp.Status)
		assert.Equal(t, "application/vnd.api+json; charset=utf-8", resp.ContentType)

		body, ok := resp.Body.(jsonAPIErrorResponse)
		require.True(t, ok)
		require.Len(t, body.Errors, 1)
		assert.Equal(t, "409", body.Errors[0].Status)
		assert.Equal(t, NameConflict, body.Errors[0].Code)
		assert.Equal(t, "exists", body.Errors[0].Detail)
		assert.NotEmpty(t, body.Errors[0].ID)
	})

	t.Run("field details", func(t *testing.T) {
		t.Parallel()

		err := UnprocessableEntityError("validation failed").WithDetails([]fieldDetail{
			{Path: "items.0.price", Code: "tag.min", Message: "must be at least 1"},
			{Path: "limit", Code: "conversion", Message: "not a number", Source: "query"},
		})
		resp := NewJSONAPI().Format(httptest.NewRequest(http.MethodPost, "/", nil), err)

		body, ok := resp.Body.(jsonAPIErrorResponse)
		require.True(t, ok)
		require.Len(t, body.Errors, 2)
		assert.Equal(t, "/data/attributes/items/0/price", body.Errors[0].Source.Pointer)
		assert.Equal(t, "tag.min", body.Errors[0].Code)
		assert.Equal(t, "must be at least 1", body.Errors[0].Detail)
		assert.Equal(t, "limit", body.Errors[1].Source.Parameter)
	})

	t.Run("non-list details", func(t *testing.T) {
		t.Parallel()

		err := BadRequestError("bad").WithDetails(map[string]int{"max": 3})
		resp := NewJSONAPI().Format(httptest.NewRequest(http.MethodPost, "/", nil), err)

		body, ok := resp.Body.(jsonAPIErrorResponse)
		require.True(t, ok)
		require.Len(t, body.Errors, 1)
		assert.Equal(t, map[string]any{"details": map[string]int{"max": 3}}, body.Errors[0].Meta)
	})
}
