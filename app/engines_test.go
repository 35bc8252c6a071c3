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


package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/restsvc/restsvc"
	"github.com/restsvc/restsvc/app"
	"github.com/restsvc/restsvc/config"
	"github.com/restsvc/restsvc/internal/demo"
)

func newApp(engineName string) *app.App {
	cfg := config.Default()
	cfg.Server.Engine = engineName
	cfg.Metrics.Enabled = true

	a, err := app.New(context.Background(), cfg, demo.Services(demo.NewStore()),
		app.WithLogOutput(io.Discard),
		app.WithAuthenticator(restsvc.DefaultAuthenticator, demo.Tokens()),
	)
	Expect(err).NotTo(HaveOccurred())

	return a
}

func send(h http.Handler, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

var _ = Describe("Engines", func() {
	for _, name := range config.Engines {
		Context("on "+name, func() {
			var h http.Handler

			BeforeEach(func() {
				a := newApp(name)
				Expect(a.Engine().Name()).To(Equal(name))
				h = a.Handler()
			})

			It("runs the todo lifecycle", func() {
				editor := []string{"Authorization", "Bearer editor-token", "Content-Type", "application/json"}

				rec := send(h, http.MethodPost, "/todos", `{"title":"ship it"}`, editor...)
				Expect(rec.Code).To(Equal(http.StatusCreated), rec.Body.String())
				Expect(rec.Header().Get("Location")).To(Equal("/todos/1"))

				rec = send(h, http.MethodGet, "/todos/1", "")
				Expect(rec.Code).To(Equal(http.StatusOK))
				var todo demo.Todo
				Expect(json.Unmarshal(rec.Body.Bytes(), &todo)).To(Succeed())
				Expect(todo.Title).To(Equal("ship it"))

				rec = send(h, http.MethodPut, "/todos/1", `{"title":"shipped","done":true}`, editor...)
				Expect(rec.Code).To(Equal(http.StatusOK), rec.Body.String())

				rec = send(h, http.MethodDelete, "/todos/1", "", editor...)
				Expect(rec.Code).To(Equal(http.StatusNoContent))

				rec = send(h, http.MethodGet, "/todos/1", "")
				Expect(rec.Code).To(Equal(http.StatusNotFound))
			})

			It("decodes path parameters", func() {
				rec := send(h, http.MethodGet, "/greetings/Ada", "", "Accept-Language", "fr")
				Expect(rec.Code).To(Equal(http.StatusOK))
				Expect(rec.Header().Get("Content-Language")).To(Equal("fr"))
				Expect(rec.Body.String()).To(ContainSubstring("Ada"))
			})

			It("answers undeclared verbs with 405 and Allow", func() {
				rec := send(h, http.MethodPatch, "/todos", "")
				Expect(rec.Code).To(Equal(http.StatusMethodNotAllowed))
				Expect(rec.Header().Get("Allow")).To(ContainSubstring("GET"))
				Expect(rec.Header().Get("Allow")).To(ContainSubstring("POST"))
			})

			It("answers OPTIONS and HEAD", func() {
				rec := send(h, http.MethodOptions, "/todos/1", "")
				Expect(rec.Code).To(Equal(http.StatusNoContent))
				Expect(rec.Header().Get("Allow")).To(ContainSubstring("PATCH"))

				rec = send(h, http.MethodHead, "/todos", "")
				Expect(rec.Code).To(Equal(http.StatusOK))
				Expect(rec.Body.Len()).To(BeZero())
			})

			DescribeTable("rejects bad requests",
				func(method, target, body string, want int, headers ...string) {
					rec := send(h, method, target, body, headers...)
					Expect(rec.Code).To(Equal(want), rec.Body.String())
				},
				Entry("without credentials", http.MethodPost, "/todos", `{"title":"x"}`, http.StatusUnauthorized,
					"Content-Type", "application/json"),
				Entry("with the wrong role", http.MethodDelete, "/todos/1", "", http.StatusForbidden,
					"Authorization", "Bearer viewer-token"),
				Entry("with an unparsable id", http.MethodGet, "/todos/abc", "", http.StatusBadRequest),
				Entry("with an unsupported body", http.MethodPost, "/todos", `title = "x"`, http.StatusUnsupportedMediaType,
					"Authorization", "Bearer editor-token", "Content-Type", "application/toml"),
				Entry("with an unacceptable language", http.MethodGet, "/greetings/Ada", "", http.StatusNotAcceptable,
					"Accept-Language", "ja"),
			)

			It("serves downloads and redirects", func() {
				rec := send(h, http.MethodGet, "/files/report.csv", "")
				Expect(rec.Code).To(Equal(http.StatusOK))
				Expect(rec.Header().Get("Content-Disposition")).To(ContainSubstring("report.csv"))

				rec = send(h, http.MethodGet, "/files/report", "")
				Expect(rec.Code).To(Equal(http.StatusMovedPermanently))
				Expect(rec.Header().Get("Location")).To(Equal("/files/report.csv"))
			})

			It("exposes health, metrics and the OpenAPI document", func() {
				Expect(send(h, http.MethodGet, "/healthz", "").Body.String()).To(Equal("ok"))

				send(h, http.MethodGet, "/todos", "")
				rec := send(h, http.MethodGet, "/metrics", "")
				Expect(rec.Code).To(Equal(http.StatusOK))
				Expect(rec.Body.String()).To(ContainSubstring("restsvc_requests_total"))

				rec = send(h, http.MethodGet, "/openapi.json", "")
				Expect(rec.Code).To(Equal(http.StatusOK))
				var doc map[string]any
				Expect(json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&doc)).To(Succeed())
				Expect(doc).To(HaveKey("paths"))
				Expect(doc["paths"]).To(HaveKey("/todos/{id}"))
			})
		})
	}
})
