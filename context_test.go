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

package restsvc

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restsvc/restsvc/logging"
)

func TestServiceContext_Accessors(t *testing.T) {
	t.Parallel()

	type seen struct {
		Query, Header, Cookie, Path string
		HasCookie, FromCtx          bool
		Route                       string
	}
	var got seen

	srv := MustNew(WithLogger(logging.Discard()))
	require.NoError(t, srv.Register(serviceFunc(func(d *Descriptor) {
		d.Path("/ctx")
		d.GET("/:name", HandlerFunc(func(ctx *ServiceContext) (any, error) {
			got.Query = ctx.QueryParam("q")
			got.Header = ctx.HeaderParam("X-Client")
			got.Cookie, got.HasCookie = ctx.CookieParam("session")
			got.Path = ctx.PathParam("name")
			from, ok := FromContext(ctx.Context())
			got.FromCtx = ok && from == ctx
			got.Route = ctx.Route().Path
			ctx.Logger().Info("inside")
			return nil, nil
		}))
	})))
	h, err := srv.Handler()
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/ctx/bob?q=find", nil)
	req.Header.Set("X-Client", "cli")
	req.AddCookie(&http.Cookie{Name: "session", Value: "s1"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, seen{
		Query:     "find",
		Header:    "cli",
		Cookie:    "s1",
		Path:      "bob",
		HasCookie: true,
		FromCtx:   true,
		Route:     "/ctx/:name",
	}, got)
}

func TestResponseWriter(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	w := newResponseWriter(rec, false)
	assert.False(t, w.Written())
	assert.Equal(t, http.StatusOK, w.Status())

	w.WriteHeader(http.StatusCreated)
	w.WriteHeader(http.StatusTeapot)
	n, err := w.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(3), w.Size())

	head := newResponseWriter(httptest.NewRecorder(), true)
	n, err = head.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Zero(t, head.Size())
}

func TestResponseWriter_StatusGuards(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	w := newResponseWriter(rec, false)
	require.NotPanics(t, func() { w.WriteHeader(42) })
	assert.Equal(t, http.StatusInternalServerError, w.Status())
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	for _, status := range []int{http.StatusNoContent, http.StatusNotModified} {
		rec := httptest.NewRecorder()
		w := newResponseWriter(rec, false)
		w.WriteHeader(status)
		n, err := w.Write([]byte("body"))
		require.NoError(t, err)
		assert.Equal(t, 4, n)
		assert.Zero(t, rec.Body.Len(), status)
		assert.Zero(t, w.Size(), status)
	}
}
