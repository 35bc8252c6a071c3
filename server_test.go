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
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rerrors "github.com/restsvc/restsvc/errors"
	"github.com/restsvc/restsvc/logging"
)

type widget struct {
	ID   string `json:"id" xml:"id"`
	Name string `json:"name" xml:"name"`
}

type getWidget struct {
	ID      string `path:"id"`
	Verbose bool   `query:"verbose"`
}

type createWidget struct {
	Name string `json:"name" validate:"required"`
}

type widgetService struct{}

func (widgetService) Describe(d *Descriptor) {
	d.Path("/widgets").Tags("widgets")
	d.GET("", HandlerFunc(func(*ServiceContext) (any, error) {
		return []widget{{ID: "1", Name: "bolt"}}, nil
	}))
	d.GET("/:id", Typed(func(_ *ServiceContext, in *getWidget) (*widget, error) {
		if in.ID == "missing" {
			return nil, rerrors.NotFoundError("widget %s not found", in.ID)
		}
		return &widget{ID: in.ID, Name: "bolt"}, nil
	})).Accept("json", "xml")
	d.POST("", Typed(func(_ *ServiceContext, in *createWidget) (*ReferencedResource, error) {
		return NewResource("/widgets/42").WithBody(&widget{ID: "42", Name: in.Name}), nil
	})).Consumes("json").Security("editor")
	d.DELETE("/:id", HandlerFunc(func(*ServiceContext) (any, error) {
		return nil, nil
	})).Security()
}

func newTestServer(t *testing.T, opts ...Option) (*Server, http.Handler) {
	t.Helper()

	tokens := StaticTokens(map[string]*Principal{
		"editor": {Subject: "ed", Roles: []string{"editor"}},
		"viewer": {Subject: "vi", Roles: []string{"viewer"}},
	})
	opts = append([]Option{
		WithLogger(logging.Discard()),
		WithAuthenticator(DefaultAuthenticator, tokens),
	}, opts...)

	srv, err := New(opts...)
	require.NoError(t, err)
	require.NoError(t, srv.Register(widgetService{}))
	h, err := srv.Handler()
	require.NoError(t, err)

	return srv, h
}

func do(h http.Handler, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func TestServer_Dispatch(t *testing.T) {
	t.Parallel()

	_, h := newTestServer(t)

	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		headers    []string
		wantStatus int
		wantBody   string
		wantHeader map[string]string
	}{
		{
			name:       "list",
			method:     http.MethodGet,
			target:     "/widgets",
			wantStatus: http.StatusOK,
			wantBody:   `[{"id":"1","name":"bolt"}]`,
			wantHeader: map[string]string{"Content-Type": "application/json; charset=utf-8"},
		},
		{
			name:       "get by id",
			method:     http.MethodGet,
			target:     "/widgets/7",
			wantStatus: http.StatusOK,
			wantBody:   `{"id":"7","name":"bolt"}`,
		},
		{
			name:       "xml negotiated",
			method:     http.MethodGet,
			target:     "/widgets/7",
			headers:    []string{"Accept", "application/xml"},
			wantStatus: http.StatusOK,
			wantBody:   "<widget><id>7</id><name>bolt</name></widget>",
			wantHeader: map[string]string{"Content-Type": "application/xml"},
		},
		{
			name:       "not acceptable",
			method:     http.MethodGet,
			target:     "/widgets/7",
			headers:    []string{"Accept", "text/csv"},
			wantStatus: http.StatusNotAcceptable,
		},
		{
			name:       "http error from endpoint",
			method:     http.MethodGet,
			target:     "/widgets/missing",
			wantStatus: http.StatusNotFound,
			wantBody:   "widget missing not found",
		},
		{
			name:       "unauthenticated",
			method:     http.MethodPost,
			target:     "/widgets",
			body:       `{"name":"nut"}`,
			headers:    []string{"Content-Type", "application/json"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "forbidden role",
			method:     http.MethodPost,
			target:     "/widgets",
			body:       `{"name":"nut"}`,
			headers:    []string{"Content-Type", "application/json", "Authorization", "Bearer viewer"},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "created",
			method:     http.MethodPost,
			target:     "/widgets",
			body:       `{"name":"nut"}`,
			headers:    []string{"Content-Type", "application/json", "Authorization", "Bearer editor"},
			wantStatus: http.StatusCreated,
			wantBody:   `{"id":"42","name":"nut"}`,
			wantHeader: map[string]string{"Location": "/widgets/42"},
		},
		{
			name:       "unsupported media type",
			method:     http.MethodPost,
			target:     "/widgets",
			body:       `name=nut`,
			headers:    []string{"Content-Type", "application/x-www-form-urlencoded", "Authorization", "Bearer editor"},
			wantStatus: http.StatusUnsupportedMediaType,
		},
		{
			name:       "validation failure",
			method:     http.MethodPost,
			target:     "/widgets",
			body:       `{}`,
			headers:    []string{"Content-Type", "application/json", "Authorization", "Bearer editor"},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "any role",
			method:     http.MethodDelete,
			target:     "/widgets/3",
			headers:    []string{"Authorization", "Bearer viewer"},
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "method not allowed",
			method:     http.MethodPatch,
			target:     "/widgets/3",
			wantStatus: http.StatusMethodNotAllowed,
			wantHeader: map[string]string{"Allow": "GET, DELETE, HEAD, OPTIONS"},
		},
		{
			name:       "options",
			method:     http.MethodOptions,
			target:     "/widgets",
			wantStatus: http.StatusNoContent,
			wantHeader: map[string]string{"Allow": "GET, POST, HEAD, OPTIONS"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := do(h, tt.method, tt.target, tt.body, tt.headers...)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
			for k, v := range tt.wantHeader {
				assert.Equal(t, v, rec.Header().Get(k), k)
			}
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}
}

func TestServer_HeadFallsBackToGet(t *testing.T) {
	t.Parallel()

	_, h := newTestServer(t)
	rec := do(h, http.MethodHead, "/widgets/7", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestServer_RequestIDEchoed(t *testing.T) {
	t.Parallel()

	_, h := newTestServer(t)
	rec := do(h, http.MethodGet, "/widgets", "", "X-Request-ID", "abc-123")

	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestServer_RequestIDGenerator(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		gen    func() string
		parse  func(string) error
		length int
	}{
		{name: "uuid", gen: UUIDRequestID, parse: func(s string) error { _, err := uuid.Parse(s); return err }, length: 36},
		{name: "ulid", gen: ULIDRequestID, parse: func(s string) error { _, err := ulid.ParseStrict(s); return err }, length: 26},
		{name: "custom", gen: func() string { return "fixed" }, parse: func(string) error { return nil }, length: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, h := newTestServer(t, WithRequestIDGenerator(tt.gen), WithRequestIDHeader("X-Trace"))
			id := do(h, http.MethodGet, "/widgets", "").Header().Get("X-Trace")
			assert.Len(t, id, tt.length)
			require.NoError(t, tt.parse(id))
		})
	}
}

type faultyService struct{}

func (faultyService) Describe(d *Descriptor) {
	d.Path("/faults")
	d.GET("/panic", HandlerFunc(func(*ServiceContext) (any, error) {
		panic("boom")
	}))
	d.GET("/plain", HandlerFunc(func(*ServiceContext) (any, error) {
		return nil, errors.New("database password leaked")
	}))
	d.GET("/text", HandlerFunc(func(*ServiceContext) (any, error) {
		return "hello", nil
	}))
	d.GET("/bytes", HandlerFunc(func(*ServiceContext) (any, error) {
		return []byte{1, 2, 3}, nil
	}))
	d.GET("/reader", HandlerFunc(func(*ServiceContext) (any, error) {
		return strings.NewReader("streamed"), nil
	}))
	d.GET("/self", HandlerFunc(func(ctx *ServiceContext) (any, error) {
		ctx.Response.WriteHeader(http.StatusTeapot)
		return NoResponse, nil
	}))
}

func TestServer_Results(t *testing.T) {
	t.Parallel()

	log, buf := logging.NewTestLogger()
	srv := MustNew(WithLogger(log.Logger()))
	require.NoError(t, srv.Register(faultyService{}))
	h, err := srv.Handler()
	require.NoError(t, err)

	rec := do(h, http.MethodGet, "/faults/panic", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "boom")

	rec = do(h, http.MethodGet, "/faults/plain", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = do(h, http.MethodGet, "/faults/text", "")
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "hello", rec.Body.String())

	rec = do(h, http.MethodGet, "/faults/bytes", "")
	assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, []byte{1, 2, 3}, rec.Body.Bytes())

	rec = do(h, http.MethodGet, "/faults/reader", "")
	assert.Equal(t, "streamed", rec.Body.String())

	rec = do(h, http.MethodGet, "/faults/self", "")
	assert.Equal(t, http.StatusTeapot, rec.Code)

	entries, err := logging.ParseEntries(buf)
	require.NoError(t, err)

	var sawPanic bool
	for _, e := range entries {
		if e.Message == "endpoint panicked" {
			sawPanic = true
			assert.Equal(t, "ERROR", e.Level)
			assert.Contains(t, e.Attrs["stack"], "runtime/debug")
		}
	}
	assert.True(t, sawPanic)
}

func TestServer_ExposeErrors(t *testing.T) {
	t.Parallel()

	srv := MustNew(WithLogger(logging.Discard()), WithExposeErrors(true))
	require.NoError(t, srv.Register(faultyService{}))
	h, err := srv.Handler()
	require.NoError(t, err)

	rec := do(h, http.MethodGet, "/faults/plain", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "database password leaked")
}

func TestServer_ErrorFormatter(t *testing.T) {
	t.Parallel()

	_, h := newTestServer(t, WithErrorFormatter(rerrors.NewRFC9457("https://errors.example.com")))
	rec := do(h, http.MethodGet, "/widgets/missing", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	var problem map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.EqualValues(t, 404, problem["status"])
}

type emptyService struct{ path string }

func (s emptyService) Describe(d *Descriptor) {
	d.Path(s.path)
	d.GET("/:key", HandlerFunc(func(ctx *ServiceContext) (any, error) {
		return ctx.PathParam("key"), nil
	}))
}

func TestServer_Register(t *testing.T) {
	t.Parallel()

	t.Run("conflict across services", func(t *testing.T) {
		t.Parallel()

		srv := MustNew(WithLogger(logging.Discard()))
		require.NoError(t, srv.Register(widgetService{}))
		err := srv.Register(emptyService{path: "/widgets"})
		require.ErrorIs(t, err, ErrRouteConflict)
		assert.Len(t, srv.Routes(), 4)
	})

	t.Run("all or nothing", func(t *testing.T) {
		t.Parallel()

		srv := MustNew(WithLogger(logging.Discard()))
		err := srv.Register(emptyService{path: "/a"}, emptyService{path: "/a"})
		require.ErrorIs(t, err, ErrRouteConflict)
		assert.Empty(t, srv.Routes())
	})

	t.Run("nil service", func(t *testing.T) {
		t.Parallel()

		srv := MustNew(WithLogger(logging.Discard()))
		var svc *widgetService
		require.ErrorIs(t, srv.Register(svc), ErrNilService)
	})

	t.Run("immutable after build", func(t *testing.T) {
		t.Parallel()

		srv := MustNew(WithLogger(logging.Discard()))
		_, err := srv.Handler()
		require.NoError(t, err)
		require.ErrorIs(t, srv.Register(emptyService{path: "/b"}), ErrImmutable)
	})

	t.Run("unknown authenticator", func(t *testing.T) {
		t.Parallel()

		srv := MustNew(WithLogger(logging.Discard()))
		require.NoError(t, srv.Register(widgetService{}))
		_, err := srv.Handler()
		require.ErrorIs(t, err, ErrUnknownAuthenticator)
	})

	t.Run("invalid status", func(t *testing.T) {
		t.Parallel()

		srv := MustNew(WithLogger(logging.Discard()))
		err := srv.Register(serviceFunc(func(d *Descriptor) {
			d.GET("/x", HandlerFunc(func(*ServiceContext) (any, error) { return nil, nil })).Status(42)
		}))
		require.ErrorIs(t, err, ErrInvalidStatus)
	})

	t.Run("nil endpoint", func(t *testing.T) {
		t.Parallel()

		srv := MustNew(WithLogger(logging.Discard()))
		err := srv.Register(serviceFunc(func(d *Descriptor) {
			var fn HandlerFunc
			d.GET("/x", fn)
		}))
		require.ErrorIs(t, err, ErrNilEndpoint)
	})
}

type serviceFunc func(d *Descriptor)

func (f serviceFunc) Describe(d *Descriptor) { f(d) }

func TestServer_Introspection(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	assert.Equal(t, []string{"/widgets", "/widgets/:id"}, srv.Paths())
	assert.Equal(t, []HTTPMethod{MethodGet, MethodDelete}, srv.HTTPMethods("/widgets/:anything"))
	assert.Nil(t, srv.HTTPMethods("/nope"))

	routes := srv.Routes()
	require.Len(t, routes, 4)
	post := routes[2]
	assert.Equal(t, "widgetService", post.Service)
	assert.Equal(t, MethodPost, post.Method)
	assert.True(t, post.Secured)
	assert.Equal(t, []string{"editor"}, post.Roles)
	assert.Equal(t, []string{"application/json"}, post.Consumes)
	assert.Equal(t, []string{"widgets"}, post.Tags)
	assert.NotNil(t, post.RequestType)
}

func TestServer_ParamsRenamedPerRoute(t *testing.T) {
	t.Parallel()

	srv := MustNew(WithLogger(logging.Discard()))
	require.NoError(t, srv.Register(
		serviceFunc(func(d *Descriptor) {
			d.Path("/items")
			d.GET("/:id", HandlerFunc(func(ctx *ServiceContext) (any, error) {
				return "get " + ctx.PathParam("id"), nil
			}))
		}),
		serviceFunc(func(d *Descriptor) {
			d.Path("/items")
			d.PUT("/:key", HandlerFunc(func(ctx *ServiceContext) (any, error) {
				return "put " + ctx.PathParam("key"), nil
			}))
		}),
	))
	h, err := srv.Handler()
	require.NoError(t, err)

	assert.Equal(t, "get 5", do(h, http.MethodGet, "/items/5", "").Body.String())
	assert.Equal(t, "put 6", do(h, http.MethodPut, "/items/6", "").Body.String())
}

func TestServer_Processors(t *testing.T) {
	t.Parallel()

	var order []string
	srv := MustNew(WithLogger(logging.Discard()))
	require.NoError(t, srv.Register(serviceFunc(func(d *Descriptor) {
		d.Path("/p").
			PreProcessor(func(*ServiceContext) error { order = append(order, "svc-pre"); return nil }).
			PostProcessor(func(*ServiceContext, any) error { order = append(order, "svc-post"); return nil })
		d.GET("", HandlerFunc(func(ctx *ServiceContext) (any, error) {
			order = append(order, "endpoint")
			v, _ := ctx.Get("user")
			return v, nil
		})).
			PreProcessor(func(ctx *ServiceContext) error {
				order = append(order, "m-pre")
				ctx.Set("user", "ann")
				return nil
			}).
			PostProcessor(func(*ServiceContext, any) error { order = append(order, "m-post"); return nil })
		d.GET("/stop", HandlerFunc(func(*ServiceContext) (any, error) {
			order = append(order, "unreachable")
			return nil, nil
		})).PreProcessor(func(*ServiceContext) error {
			return rerrors.ForbiddenError("stopped")
		})
	})))
	h, err := srv.Handler()
	require.NoError(t, err)

	rec := do(h, http.MethodGet, "/p", "")
	assert.Equal(t, "ann", rec.Body.String())
	assert.Equal(t, []string{"svc-pre", "m-pre", "endpoint", "svc-post", "m-post"}, order)

	order = nil
	rec = do(h, http.MethodGet, "/p/stop", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, []string{"svc-pre"}, order)
}

func TestServer_Language(t *testing.T) {
	t.Parallel()

	srv := MustNew(WithLogger(logging.Discard()))
	require.NoError(t, srv.Register(serviceFunc(func(d *Descriptor) {
		d.Path("/hello").AcceptLanguage("en", "de")
		d.GET("", HandlerFunc(func(ctx *ServiceContext) (any, error) {
			if ctx.Language == "de" {
				return "hallo", nil
			}
			return "hello", nil
		}))
	})))
	h, err := srv.Handler()
	require.NoError(t, err)

	rec := do(h, http.MethodGet, "/hello", "", "Accept-Language", "de-CH, en;q=0.5")
	assert.Equal(t, "hallo", rec.Body.String())
	assert.Equal(t, "de", rec.Header().Get("Content-Language"))

	rec = do(h, http.MethodGet, "/hello", "", "Accept-Language", "fr")
	assert.Equal(t, http.StatusNotAcceptable, rec.Code)
}

type formatterFunc func(*http.Request, error) rerrors.Response

func (f formatterFunc) Format(r *http.Request, err error) rerrors.Response { return f(r, err) }

func TestServer_OutOfRangeErrorStatus(t *testing.T) {
	t.Parallel()

	svc := serviceFunc(func(d *Descriptor) {
		d.Path("/broken")
		d.GET("/wrapped", HandlerFunc(func(*ServiceContext) (any, error) {
			return nil, rerrors.WithStatus(errors.New("boom"), 0)
		}))
		d.GET("/literal", HandlerFunc(func(*ServiceContext) (any, error) {
			return nil, &rerrors.HTTPError{StatusCode: 42, Message: "odd"}
		}))
		d.GET("/huge", HandlerFunc(func(*ServiceContext) (any, error) {
			return nil, &rerrors.HTTPError{StatusCode: 1200}
		}))
	})

	tests := []struct {
		name      string
		formatter rerrors.Formatter
	}{
		{name: "simple", formatter: rerrors.NewSimple()},
		{name: "rfc9457", formatter: rerrors.NewRFC9457("")},
		{name: "resolver returning zero", formatter: &rerrors.Simple{StatusResolver: func(error) int { return 0 }}},
		{name: "panicking formatter", formatter: formatterFunc(func(*http.Request, error) rerrors.Response {
			panic("formatter exploded")
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := MustNew(WithLogger(logging.Discard()), WithErrorFormatter(tt.formatter))
			require.NoError(t, srv.Register(svc))
			h, err := srv.Handler()
			require.NoError(t, err)

			for _, target := range []string{"/broken/wrapped", "/broken/literal", "/broken/huge"} {
				var rec *httptest.ResponseRecorder
				require.NotPanics(t, func() { rec = do(h, http.MethodGet, target, "") }, target)
				assert.Equal(t, http.StatusInternalServerError, rec.Code, target)
			}
		})
	}
}

func TestServer_AcceptWithoutCodec(t *testing.T) {
	t.Parallel()

	srv := MustNew(WithLogger(logging.Discard()))
	require.NoError(t, srv.Register(serviceFunc(func(d *Descriptor) {
		d.Path("/pages")
		d.GET("/html", HandlerFunc(func(*ServiceContext) (any, error) {
			return map[string]string{"a": "b"}, nil
		})).Accept("text/html")
		d.GET("/raw", HandlerFunc(func(*ServiceContext) (any, error) {
			return "<p>hi</p>", nil
		})).Accept("text/plain")
	})))
	h, err := srv.Handler()
	require.NoError(t, err)

	rec := do(h, http.MethodGet, "/pages/html", "", "Accept", "text/html")
	assert.Equal(t, http.StatusNotAcceptable, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"a":"b"`)

	rec = do(h, http.MethodGet, "/pages/raw", "", "Accept", "text/plain")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<p>hi</p>", rec.Body.String())
}

func TestServer_StatusWithoutBody(t *testing.T) {
	t.Parallel()

	srv := MustNew(WithLogger(logging.Discard()))
	require.NoError(t, srv.Register(serviceFunc(func(d *Descriptor) {
		d.Path("/jobs")
		d.POST("/text", HandlerFunc(func(*ServiceContext) (any, error) {
			return "done", nil
		})).Status(http.StatusNoContent)
		d.POST("/encoded", HandlerFunc(func(*ServiceContext) (any, error) {
			return map[string]bool{"ok": true}, nil
		})).Status(http.StatusNoContent)
		d.GET("/cached", HandlerFunc(func(*ServiceContext) (any, error) {
			return []byte("stale"), nil
		})).Status(http.StatusNotModified)
	})))
	h, err := srv.Handler()
	require.NoError(t, err)

	tests := []struct {
		method string
		target string
		want   int
	}{
		{method: http.MethodPost, target: "/jobs/text", want: http.StatusNoContent},
		{method: http.MethodPost, target: "/jobs/encoded", want: http.StatusNoContent},
		{method: http.MethodGet, target: "/jobs/cached", want: http.StatusNotModified},
	}
	for _, tt := range tests {
		rec := do(h, tt.method, tt.target, "")
		assert.Equal(t, tt.want, rec.Code, tt.target)
		assert.Zero(t, rec.Body.Len(), tt.target)
	}
}
