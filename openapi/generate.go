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

package openapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/restsvc/restsvc"
	"github.com/restsvc/restsvc/binding"
	"github.com/restsvc/restsvc/internal/negotiate"
)

var responderType = reflect.TypeFor[restsvc.Responder]()

// Option configures [Generate].
type Option func(*generator)

// WithTitle sets info.title. Defaults to "API".
func WithTitle(title string) Option {
	return func(g *generator) { g.doc.Info.Title = title }
}

// WithVersion sets info.version. Defaults to "1.0.0".
func WithVersion(version string) Option {
	return func(g *generator) { g.doc.Info.Version = version }
}

// WithDescription sets info.description.
func WithDescription(description string) Option {
	return func(g *generator) { g.doc.Info.Description = description }
}

// WithServer adds a server URL.
func WithServer(url, description string) Option {
	return func(g *generator) {
		g.doc.Servers = append(g.doc.Servers, Server{URL: url, Description: description})
	}
}

// WithSecurityScheme documents the authenticator registered under name.
// Authenticators without a scheme are documented as bearer tokens.
func WithSecurityScheme(name string, scheme *SecurityScheme) Option {
	return func(g *generator) { g.schemes[name] = scheme }
}

type generator struct {
	doc     *Document
	schemas *schemaGenerator
	schemes map[string]*SecurityScheme
}

// Generate builds a document describing routes.
func Generate(routes []restsvc.RouteInfo, opts ...Option) (*Document, error) {
	g := &generator{
		doc: &Document{
			OpenAPI: Version,
			Info:    Info{Title: "API", Version: "1.0.0"},
			Paths:   make(map[string]*PathItem),
		},
		schemas: newSchemaGenerator(),
		schemes: make(map[string]*SecurityScheme),
	}
	for _, opt := range opts {
		opt(g)
	}

	var tags []string
	usedSchemes := make(map[string]*SecurityScheme)
	for _, rt := range routes {
		path := Path(rt)
		item, ok := g.doc.Paths[path]
		if !ok {
			item = &PathItem{}
			g.doc.Paths[path] = item
		}
		if item.Operation(rt.Method.String()) != nil {
			return nil, fmt.Errorf("openapi: duplicate operation %s %s", rt.Method, path)
		}
		item.set(rt.Method.String(), g.operation(rt))

		for _, tag := range rt.Tags {
			if !slices.Contains(tags, tag) {
				tags = append(tags, tag)
			}
		}
		if rt.Secured {
			scheme, ok := g.schemes[rt.Authenticator]
			if !ok {
				scheme = &SecurityScheme{Type: "http", Scheme: "bearer"}
			}
			usedSchemes[rt.Authenticator] = scheme
		}
	}

	slices.Sort(tags)
	for _, tag := range tags {
		g.doc.Tags = append(g.doc.Tags, Tag{Name: tag})
	}

	if len(g.schemas.schemas) > 0 || len(usedSchemes) > 0 {
		g.doc.Components = &Components{}
		if len(g.schemas.schemas) > 0 {
			g.doc.Components.Schemas = g.schemas.schemas
		}
		if len(usedSchemes) > 0 {
			g.doc.Components.SecuritySchemes = usedSchemes
		}
	}

	return g.doc, nil
}

// Path renders the route pattern in OpenAPI syntax: "/todos/{id}".
func Path(rt restsvc.RouteInfo) string {
	name := func(n string) string { return "{" + n + "}" }
	return rt.Pattern.Render(name, name)
}

func (g *generator) operation(rt restsvc.RouteInfo) *Operation {
	op := &Operation{
		Tags:        rt.Tags,
		Summary:     rt.Summary,
		Description: rt.Description,
		OperationID: rt.OperationID,
		Responses:   make(map[string]*Response),
	}

	var info *binding.StructInfo
	if rt.RequestType != nil {
		info = binding.Inspect(rt.RequestType)
	}

	op.Parameters = g.parameters(rt, info)
	if rt.Method != restsvc.MethodGet && rt.Method != restsvc.MethodHead && info != nil {
		op.RequestBody = g.requestBody(rt, info)
	}

	op.Responses[strconv.Itoa(rt.Status)] = g.response(rt)
	if info != nil {
		addError(op, http.StatusBadRequest)
		addError(op, http.StatusUnprocessableEntity)
	}
	if rt.Secured {
		addError(op, http.StatusUnauthorized)
		if len(rt.Roles) > 0 && !slices.Contains(rt.Roles, restsvc.AnyRole) {
			addError(op, http.StatusForbidden)
		}
		roles := rt.Roles
		if roles == nil {
			roles = []string{}
		}
		op.Security = []SecurityRequirement{{rt.Authenticator: roles}}
	}
	if len(rt.Accept) > 0 || len(rt.Languages) > 0 {
		addError(op, http.StatusNotAcceptable)
	}
	if len(rt.Consumes) > 0 && op.RequestBody != nil {
		addError(op, http.StatusUnsupportedMediaType)
	}

	return op
}

func addError(op *Operation, status int) {
	op.Responses[strconv.Itoa(status)] = &Response{Description: http.StatusText(status)}
}

func (g *generator) parameters(rt restsvc.RouteInfo, info *binding.StructInfo) []Parameter {
	var params []Parameter

	byName := make(map[string]binding.Field)
	if info != nil {
		for _, f := range info.Fields {
			if f.Source == binding.SourcePath {
				byName[f.Name] = f
			}
		}
	}
	for _, name := range rt.Pattern.Params() {
		p := Parameter{Name: name, In: "path", Required: true, Schema: &Schema{Type: "string"}}
		if f, ok := byName[name]; ok {
			p.Schema = g.schemas.generate(f.Type)
			p.Description = f.Description
		}
		params = append(params, p)
	}

	if info == nil {
		return params
	}
	for _, f := range info.Fields {
		var in string
		switch f.Source {
		case binding.SourceQuery:
			in = "query"
		case binding.SourceHeader:
			in = "header"
		case binding.SourceCookie:
			in = "cookie"
		default:
			continue
		}

		s := g.schemas.generate(f.Type)
		if f.HasDefault {
			s.Default = f.Default
		}
		params = append(params, Parameter{
			Name:        f.Name,
			In:          in,
			Description: f.Description,
			Required:    f.Required,
			Schema:      s,
		})
	}

	return params
}

func (g *generator) requestBody(rt restsvc.RouteInfo, info *binding.StructInfo) *RequestBody {
	var form []binding.Field
	multipart := false
	for _, f := range info.Fields {
		switch f.Source {
		case binding.SourceFile:
			multipart = true
			form = append(form, f)
		case binding.SourceForm:
			form = append(form, f)
		}
	}

	if len(form) > 0 {
		s := &Schema{Type: "object", Properties: make(map[string]*Schema)}
		for _, f := range form {
			fs := g.schemas.generate(f.Type)
			fs.Description = f.Description
			s.Properties[f.Name] = fs
			if f.Required {
				s.Required = append(s.Required, f.Name)
			}
		}
		mt := "application/x-www-form-urlencoded"
		if multipart {
			mt = "multipart/form-data"
		}

		return &RequestBody{Required: len(s.Required) > 0, Content: map[string]*MediaType{mt: {Schema: s}}}
	}

	if len(info.Body) == 0 {
		return nil
	}

	body := make(map[string]bool, len(info.Body))
	for _, f := range info.Body {
		body[f.GoName] = true
	}
	s := g.schemas.object(info.Type, func(f reflect.StructField) bool { return body[f.Name] })

	consumes := rt.Consumes
	if len(consumes) == 0 {
		consumes = []string{"application/json"}
	}
	rb := &RequestBody{Required: len(s.Required) > 0, Content: make(map[string]*MediaType)}
	for _, ct := range consumes {
		rb.Content[ct] = &MediaType{Schema: s}
	}

	return rb
}

func (g *generator) response(rt restsvc.RouteInfo) *Response {
	resp := &Response{Description: http.StatusText(rt.Status)}
	t := rt.ResponseType
	if t == nil || rt.Status == http.StatusNoContent {
		return resp
	}

	switch {
	case t.Implements(responderType):
		if rt.Status >= 300 && rt.Status < 400 || rt.Status == http.StatusCreated || rt.Status == http.StatusAccepted {
			resp.Headers = map[string]*Header{"Location": {Schema: &Schema{Type: "string"}}}
		}
		return resp
	case t.Kind() == reflect.Interface:
		return resp
	case t.Kind() == reflect.String:
		resp.Content = map[string]*MediaType{"text/plain": {Schema: &Schema{Type: "string"}}}
		return resp
	case t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8:
		resp.Content = map[string]*MediaType{"application/octet-stream": {Schema: &Schema{Type: "string", Format: "binary"}}}
		return resp
	}

	accept := rt.Accept
	if len(accept) == 0 {
		accept = []string{"application/json"}
	}
	s := g.schemas.generate(t)
	resp.Content = make(map[string]*MediaType, len(accept))
	for _, ct := range accept {
		resp.Content[ct] = &MediaType{Schema: s}
	}

	return resp
}

// JSON encodes the document with two-space indentation.
func (d *Document) JSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// YAML encodes the document as YAML.
func (d *Document) YAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Handler serves the document as JSON, or as YAML when the client prefers
// it.
func (d *Document) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mt := negotiate.MediaType(r.Header.Get("Accept"), []string{"application/json", "application/yaml"})

		var (
			body []byte
			err  error
		)
		if mt == "application/yaml" {
			body, err = d.YAML()
		} else {
			mt = "application/json"
			body, err = d.JSON()
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", mt)
		_, _ = w.Write(body)
	})
}
