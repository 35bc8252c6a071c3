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
	"fmt"
	"reflect"
	"slices"
)

// Service is a set of REST methods sharing a base path and defaults.
//
// Describe is called once, by [Server.Register]:
//
//	type TodoService struct{ store *Store }
//
//	func (s *TodoService) Describe(d *restsvc.Descriptor) {
//	    d.Path("/todos").Accept("application/json")
//	    d.GET("", restsvc.HandlerFunc(s.list))
//	    d.POST("", restsvc.Typed(s.create)).Status(http.StatusCreated)
//	    d.DELETE("/:id", restsvc.Typed(s.remove)).Security("admin")
//	}
type Service interface {
	Describe(d *Descriptor)
}

// settings are the declarations shared by services and methods. A nil
// slice means "not declared"; methods inherit the service value then.
type settings struct {
	accept    []string
	languages []string
	consumes  []string
	security  *security
	pre       []PreProcessor
	post      []PostProcessor
	tags      []string
}

type security struct {
	authenticator string
	roles         []string
}

// Descriptor collects the declarations of one service.
type Descriptor struct {
	name    string
	path    string
	settings
	methods []*MethodDescriptor
}

func newDescriptor(svc Service) *Descriptor {
	t := reflect.TypeOf(svc)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	return &Descriptor{name: t.Name()}
}

// Name overrides the service name used in logs, metrics and API
// documentation. It defaults to the Go type name.
func (d *Descriptor) Name(name string) *Descriptor {
	d.name = name
	return d
}

// Path sets the base path prepended to every method path.
func (d *Descriptor) Path(path string) *Descriptor {
	d.path = path
	return d
}

// Accept declares the media types the service can produce. Short names such
// as "json" or "xml" are accepted.
func (d *Descriptor) Accept(mediaTypes ...string) *Descriptor {
	d.accept = nonNil(mediaTypes)
	return d
}

// AcceptLanguage declares the languages the service can produce.
func (d *Descriptor) AcceptLanguage(languages ...string) *Descriptor {
	d.languages = nonNil(languages)
	return d
}

// Consumes declares the request body media types the service accepts.
func (d *Descriptor) Consumes(mediaTypes ...string) *Descriptor {
	d.consumes = nonNil(mediaTypes)
	return d
}

// Security requires an authenticated principal holding one of roles,
// checked with the default authenticator. No roles, or "*", admits any
// authenticated principal.
func (d *Descriptor) Security(roles ...string) *Descriptor {
	return d.SecurityWith(DefaultAuthenticator, roles...)
}

// SecurityWith is like [Descriptor.Security] with a named authenticator.
func (d *Descriptor) SecurityWith(authenticator string, roles ...string) *Descriptor {
	d.security = &security{authenticator: authenticator, roles: roles}
	return d
}

// PreProcessor adds processors run before every method of the service.
func (d *Descriptor) PreProcessor(fns ...PreProcessor) *Descriptor {
	d.pre = append(d.pre, fns...)
	return d
}

// PostProcessor adds processors run after every method of the service.
func (d *Descriptor) PostProcessor(fns ...PostProcessor) *Descriptor {
	d.post = append(d.post, fns...)
	return d
}

// Tags sets the documentation tags of the service.
func (d *Descriptor) Tags(tags ...string) *Descriptor {
	d.tags = nonNil(tags)
	return d
}

// Handle binds endpoint to method and path, relative to the service path.
func (d *Descriptor) Handle(method HTTPMethod, path string, endpoint Endpoint) *MethodDescriptor {
	md := &MethodDescriptor{method: method, path: path, endpoint: endpoint}
	d.methods = append(d.methods, md)

	return md
}

// GET binds endpoint to GET path.
func (d *Descriptor) GET(path string, endpoint Endpoint) *MethodDescriptor {
	return d.Handle(MethodGet, path, endpoint)
}

// POST binds endpoint to POST path.
func (d *Descriptor) POST(path string, endpoint Endpoint) *MethodDescriptor {
	return d.Handle(MethodPost, path, endpoint)
}

// PUT binds endpoint to PUT path.
func (d *Descriptor) PUT(path string, endpoint Endpoint) *MethodDescriptor {
	return d.Handle(MethodPut, path, endpoint)
}

// DELETE binds endpoint to DELETE path.
func (d *Descriptor) DELETE(path string, endpoint Endpoint) *MethodDescriptor {
	return d.Handle(MethodDelete, path, endpoint)
}

// HEAD binds endpoint to HEAD path. Without it, HEAD is served by GET.
func (d *Descriptor) HEAD(path string, endpoint Endpoint) *MethodDescriptor {
	return d.Handle(MethodHead, path, endpoint)
}

// OPTIONS binds endpoint to OPTIONS path. Without it, OPTIONS answers 204
// with an Allow header.
func (d *Descriptor) OPTIONS(path string, endpoint Endpoint) *MethodDescriptor {
	return d.Handle(MethodOptions, path, endpoint)
}

// PATCH binds endpoint to PATCH path.
func (d *Descriptor) PATCH(path string, endpoint Endpoint) *MethodDescriptor {
	return d.Handle(MethodPatch, path, endpoint)
}

// MethodDescriptor collects the declarations of one service method. Accept,
// AcceptLanguage, Consumes and Security replace the service values;
// processors are appended after the service ones.
type MethodDescriptor struct {
	method   HTTPMethod
	path     string
	endpoint Endpoint
	settings

	summary     string
	description string
	operationID string
	status      int
}

// Accept declares the media types the method can produce.
func (m *MethodDescriptor) Accept(mediaTypes ...string) *MethodDescriptor {
	m.accept = nonNil(mediaTypes)
	return m
}

// AcceptLanguage declares the languages the method can produce.
func (m *MethodDescriptor) AcceptLanguage(languages ...string) *MethodDescriptor {
	m.languages = nonNil(languages)
	return m
}

// Consumes declares the request body media types the method accepts.
func (m *MethodDescriptor) Consumes(mediaTypes ...string) *MethodDescriptor {
	m.consumes = nonNil(mediaTypes)
	return m
}

// Security requires an authenticated principal holding one of roles.
func (m *MethodDescriptor) Security(roles ...string) *MethodDescriptor {
	return m.SecurityWith(DefaultAuthenticator, roles...)
}

// SecurityWith is like [MethodDescriptor.Security] with a named
// authenticator.
func (m *MethodDescriptor) SecurityWith(authenticator string, roles ...string) *MethodDescriptor {
	m.security = &security{authenticator: authenticator, roles: roles}
	return m
}

// PreProcessor adds processors run before the endpoint.
func (m *MethodDescriptor) PreProcessor(fns ...PreProcessor) *MethodDescriptor {
	m.pre = append(m.pre, fns...)
	return m
}

// PostProcessor adds processors run after the endpoint.
func (m *MethodDescriptor) PostProcessor(fns ...PostProcessor) *MethodDescriptor {
	m.post = append(m.post, fns...)
	return m
}

// Tags sets the documentation tags of the method.
func (m *MethodDescriptor) Tags(tags ...string) *MethodDescriptor {
	m.tags = nonNil(tags)
	return m
}

// Summary sets the one-line documentation summary.
func (m *MethodDescriptor) Summary(s string) *MethodDescriptor {
	m.summary = s
	return m
}

// Description sets the long documentation text.
func (m *MethodDescriptor) Description(s string) *MethodDescriptor {
	m.description = s
	return m
}

// OperationID sets the documentation operation id.
func (m *MethodDescriptor) OperationID(id string) *MethodDescriptor {
	m.operationID = id
	return m
}

// Status sets the status written for a successful encoded result. Defaults
// to 200.
func (m *MethodDescriptor) Status(code int) *MethodDescriptor {
	m.status = code
	return m
}

// merge resolves method settings against the service ones.
func merge(svc, m settings) settings {
	out := settings{
		accept:    svc.accept,
		languages: svc.languages,
		consumes:  svc.consumes,
		security:  svc.security,
		tags:      svc.tags,
		pre:       slices.Concat(svc.pre, m.pre),
		post:      slices.Concat(svc.post, m.post),
	}
	if m.accept != nil {
		out.accept = m.accept
	}
	if m.languages != nil {
		out.languages = m.languages
	}
	if m.consumes != nil {
		out.consumes = m.consumes
	}
	if m.security != nil {
		out.security = m.security
	}
	if m.tags != nil {
		out.tags = m.tags
	}

	return out
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}

	return values
}

func (m *MethodDescriptor) String() string {
	return fmt.Sprintf("%s %s", m.method, m.path)
}
