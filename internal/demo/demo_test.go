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

package demo

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/restsvc/restsvc"
	"github.com/restsvc/restsvc/logging"
)

func newHandler(t *testing.T) http.Handler {
	t.Helper()

	srv := restsvc.MustNew(
		restsvc.WithLogger(logging.Discard()),
		restsvc.WithAuthenticator(restsvc.DefaultAuthenticator, Tokens()),
	)
	require.NoError(t, srv.Register(Services(NewStore())...))
	h, err := srv.Handler()
	require.NoError(t, err)

	return h
}

func request(h http.Handler, method, target string, body []byte, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func TestTodoService_Lifecycle(t *testing.T) {
	t.Parallel()

	h := newHandler(t)
	editor := []string{"Authorization", "Bearer editor-token", "Content-Type", "application/json"}

	rec := request(h, http.MethodPost, "/todos", []byte(`{"title":"write docs","tags":["docs"]}`), editor...)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "/todos/1", rec.Header().Get("Location"))

	var created Todo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, []string{"docs"}, created.Tags)

	rec = request(h, http.MethodPatch, "/todos/1", []byte(`{"done":true}`), editor...)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = request(h, http.MethodGet, "/todos/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got Todo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Done)

	rec = request(h, http.MethodGet, "/todos?done=true&limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=30", rec.Header().Get("Cache-Control"))
	var list TodoList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)

	rec = request(h, http.MethodDelete, "/todos/1", nil, editor...)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = request(h, http.MethodGet, "/todos/1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTodoService_Rejections(t *testing.T) {
	t.Parallel()

	h := newHandler(t)

	tests := []struct {
		name    string
		method  string
		target  string
		body    string
		headers []string
		want    int
	}{
		{name: "viewer cannot create", method: http.MethodPost, target: "/todos", body: `{"title":"x"}`,
			headers: []string{"Authorization", "Bearer viewer-token", "Content-Type", "application/json"}, want: http.StatusForbidden},
		{name: "unknown token", method: http.MethodPost, target: "/todos", body: `{"title":"x"}`,
			headers: []string{"Authorization", "Bearer nope", "Content-Type", "application/json"}, want: http.StatusUnauthorized},
		{name: "missing title", method: http.MethodPost, target: "/todos", body: `{"tags":["a"]}`,
			headers: []string{"Authorization", "Bearer editor-token", "Content-Type", "application/json"}, want: http.StatusUnprocessableEntity},
		{name: "bad tag", method: http.MethodPost, target: "/todos", body: `{"title":"x","tags":["Not A Slug"]}`,
			headers: []string{"Authorization", "Bearer editor-token", "Content-Type", "application/json"}, want: http.StatusUnprocessableEntity},
		{name: "empty patch", method: http.MethodPatch, target: "/todos/1", body: `{}`,
			headers: []string{"Authorization", "Bearer editor-token", "Content-Type", "application/json"}, want: http.StatusUnprocessableEntity},
		{name: "bad id", method: http.MethodGet, target: "/todos/abc", want: http.StatusBadRequest},
		{name: "limit too large", method: http.MethodGet, target: "/todos?limit=500", want: http.StatusUnprocessableEntity},
		{name: "csv not acceptable", method: http.MethodGet, target: "/todos", headers: []string{"Accept", "text/csv"}, want: http.StatusNotAcceptable},
		{name: "toml body rejected", method: http.MethodPost, target: "/todos", body: `title = "x"`,
			headers: []string{"Authorization", "Bearer editor-token", "Content-Type", "application/toml"}, want: http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := request(h, tt.method, tt.target, []byte(tt.body), tt.headers...)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestTodoService_Codecs(t *testing.T) {
	t.Parallel()

	h := newHandler(t)
	editor := []string{"Authorization", "Bearer editor-token"}

	rec := request(h, http.MethodPost, "/todos", []byte("title: from yaml\n"),
		append(editor, "Content-Type", "application/yaml", "Accept", "application/xml")...)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "application/xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<title>from yaml</title>")

	rec = request(h, http.MethodGet, "/todos/1", nil, "Accept", "application/msgpack")
	require.Equal(t, http.StatusOK, rec.Code)
	var got Todo
	dec := msgpack.NewDecoder(rec.Body)
	dec.SetCustomStructTag("json")
	require.NoError(t, dec.Decode(&got))
	assert.Equal(t, "from yaml", got.Title)
}

func TestGreetingService(t *testing.T) {
	t.Parallel()

	h := newHandler(t)

	rec := request(h, http.MethodGet, "/greetings/Ada", nil, "Accept-Language", "de-AT;q=0.9, en;q=0.5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "de", rec.Header().Get("Content-Language"))
	assert.JSONEq(t, `{"message":"Hallo, Ada!","language":"de"}`, rec.Body.String())

	rec = request(h, http.MethodGet, "/greetings/Ada?shout=true", nil)
	assert.JSONEq(t, `{"message":"HELLO, ADA!","language":"en"}`, rec.Body.String())

	rec = request(h, http.MethodGet, "/greetings/Ada", nil, "Accept-Language", "ja")
	assert.Equal(t, http.StatusNotAcceptable, rec.Code)
}

func TestFileService(t *testing.T) {
	t.Parallel()

	h := newHandler(t)

	rec := request(h, http.MethodGet, "/files/report", nil)
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/files/report.csv", rec.Header().Get("Location"))

	rec = request(h, http.MethodGet, "/files/report.csv", nil)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "report.csv")

	rec = request(h, http.MethodPost, "/files/exports", nil, "Authorization", "Bearer viewer-token")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "/files/exports/1", rec.Header().Get("Location"))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("a\nb\n"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("description", "two lines"))
	require.NoError(t, mw.Close())

	rec = request(h, http.MethodPost, "/files/uploads", body.Bytes(),
		"Authorization", "Bearer viewer-token", "Content-Type", mw.FormDataContentType())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"name":"notes.txt","size":4,"lines":2,"description":"two lines"}`, rec.Body.String())

	rec = request(h, http.MethodPost, "/files/uploads", []byte(`{}`),
		"Authorization", "Bearer viewer-token", "Content-Type", "application/json")
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestStore_List(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	for _, title := range strings.Fields("a b c d") {
		s.Create(Todo{Title: title})
	}

	page, total := s.List(nil, 1, 2)
	assert.Equal(t, 4, total)
	require.Len(t, page, 2)
	assert.Equal(t, "b", page[0].Title)
	assert.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), page[0].CreatedAt)

	page, _ = s.List(nil, 10, 2)
	assert.Empty(t, page)
}
