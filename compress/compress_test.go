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


package compress

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, mw func(http.Handler) http.Handler, h http.HandlerFunc, acceptEncoding string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if acceptEncoding != "" {
		req.Header.Set("Accept-Encoding", acceptEncoding)
	}
	rec := httptest.NewRecorder()
	mw(h).ServeHTTP(rec, req)

	return rec
}

func body(n int) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(strings.Repeat("a", n)))
	}
}

func TestNew_InvalidLevels(t *testing.T) {
	t.Parallel()

	_, err := New(WithGzipLevel(12))
	require.ErrorIs(t, err, ErrInvalidLevel)

	_, err = New(WithBrotliLevel(-1))
	require.ErrorIs(t, err, ErrInvalidLevel)
}

func TestMiddleware_Encodings(t *testing.T) {
	t.Parallel()

	mw, err := New(WithMinSize(16))
	require.NoError(t, err)

	t.Run("brotli preferred", func(t *testing.T) {
		t.Parallel()
		rec := serve(t, mw, body(2048), "gzip, br")
		require.Equal(t, Brotli, rec.Header().Get("Content-Encoding"))
		got, err := io.ReadAll(brotli.NewReader(rec.Body))
		require.NoError(t, err)
		assert.Equal(t, strings.Repeat("a", 2048), string(got))
		assert.Contains(t, rec.Header().Values("Vary"), "Accept-Encoding")
	})

	t.Run("gzip", func(t *testing.T) {
		t.Parallel()
		rec := serve(t, mw, body(2048), "gzip")
		require.Equal(t, Gzip, rec.Header().Get("Content-Encoding"))
		zr, err := gzip.NewReader(rec.Body)
		require.NoError(t, err)
		got, err := io.ReadAll(zr)
		require.NoError(t, err)
		assert.Len(t, got, 2048)
	})

	t.Run("gzip higher q", func(t *testing.T) {
		t.Parallel()
		rec := serve(t, mw, body(2048), "br;q=0.5, gzip;q=0.9")
		assert.Equal(t, Gzip, rec.Header().Get("Content-Encoding"))
	})

	t.Run("wildcard", func(t *testing.T) {
		t.Parallel()
		rec := serve(t, mw, body(2048), "*")
		assert.Equal(t, Brotli, rec.Header().Get("Content-Encoding"))
	})

	t.Run("identity", func(t *testing.T) {
		t.Parallel()
		rec := serve(t, mw, body(2048), "")
		assert.Empty(t, rec.Header().Get("Content-Encoding"))
		assert.Equal(t, 2048, rec.Body.Len())
	})

	t.Run("refused", func(t *testing.T) {
		t.Parallel()
		rec := serve(t, mw, body(2048), "br;q=0, gzip;q=0")
		assert.Empty(t, rec.Header().Get("Content-Encoding"))
	})
}

func TestMiddleware_PassThrough(t *testing.T) {
	t.Parallel()

	mw, err := New(WithMinSize(1024), WithExcludedContentTypes("image/png"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		handler http.HandlerFunc
		status  int
		body    string
	}{
		{
			name:    "below min size",
			handler: body(10),
			status:  http.StatusOK,
			body:    strings.Repeat("a", 10),
		},
		{
			name: "no content",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			},
			status: http.StatusNoContent,
		},
		{
			name: "event stream",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/event-stream")
				_, _ = w.Write(bytes.Repeat([]byte("x"), 4096))
			},
			status: http.StatusOK,
			body:   strings.Repeat("x", 4096),
		},
		{
			name: "excluded type",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "image/png")
				_, _ = w.Write(bytes.Repeat([]byte("x"), 4096))
			},
			status: http.StatusOK,
			body:   strings.Repeat("x", 4096),
		},
		{
			name: "already encoded",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Encoding", "zstd")
				_, _ = w.Write(bytes.Repeat([]byte("x"), 4096))
			},
			status: http.StatusOK,
			body:   strings.Repeat("x", 4096),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := serve(t, mw, tt.handler, "br, gzip")
			assert.Equal(t, tt.status, rec.Code)
			assert.NotEqual(t, Brotli, rec.Header().Get("Content-Encoding"))
			assert.NotEqual(t, Gzip, rec.Header().Get("Content-Encoding"))
			assert.Equal(t, tt.body, rec.Body.String())
		})
	}
}

func TestMiddleware_HeadRequest(t *testing.T) {
	t.Parallel()

	mw, err := New(WithMinSize(0))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodHead, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	mw(body(2048)).ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Content-Encoding"))
}

func TestMiddleware_DisabledEncodings(t *testing.T) {
	t.Parallel()

	mw, err := New(WithMinSize(0), WithoutBrotli())
	require.NoError(t, err)
	rec := serve(t, mw, body(64), "br, gzip")
	assert.Equal(t, Gzip, rec.Header().Get("Content-Encoding"))

	mw, err = New(WithMinSize(0), WithoutGzip())
	require.NoError(t, err)
	rec = serve(t, mw, body(64), "gzip")
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
}

func TestMiddleware_FlushStartsCompression(t *testing.T) {
	t.Parallel()

	mw, err := New(WithMinSize(1 << 20))
	require.NoError(t, err)

	rec := serve(t, mw, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("chunk"))
		http.NewResponseController(w).Flush() //nolint:errcheck
	}, "gzip")

	require.Equal(t, Gzip, rec.Header().Get("Content-Encoding"))
	assert.True(t, rec.Flushed)
	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	got, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, "chunk", string(got))
}
