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

package binding

import (
	"net/http"
	"net/url"
	"strings"
)

// Source identifies where a bound value comes from.
type Source int

const (
	SourceUnknown Source = iota
	SourcePath
	SourceQuery
	SourceHeader
	SourceCookie
	SourceForm
	SourceFile
	SourceBody
)

// Struct tag names.
const (
	TagPath    = "path"
	TagQuery   = "query"
	TagHeader  = "header"
	TagCookie  = "cookie"
	TagForm    = "form"
	TagFile    = "file"
	TagDefault = "default"
)

// String returns the tag name of the source.
func (s Source) String() string {
	switch s {
	case SourcePath:
		return TagPath
	case SourceQuery:
		return TagQuery
	case SourceHeader:
		return TagHeader
	case SourceCookie:
		return TagCookie
	case SourceForm:
		return TagForm
	case SourceFile:
		return TagFile
	case SourceBody:
		return "body"
	default:
		return "unknown"
	}
}

// tagSources lists the tags in the order they are looked up on a field.
var tagSources = []struct {
	tag    string
	source Source
}{
	{TagPath, SourcePath},
	{TagQuery, SourceQuery},
	{TagHeader, SourceHeader},
	{TagCookie, SourceCookie},
	{TagForm, SourceForm},
	{TagFile, SourceFile},
}

// ValueGetter abstracts a source of string values.
//
// Has must report true for a key that is present with an empty value, so
// defaults are only applied to keys the client did not send.
type ValueGetter interface {
	Get(key string) string
	GetAll(key string) []string
	Has(key string) bool
}

// GetterFunc adapts a function to [ValueGetter].
type GetterFunc func(key string) (values []string, has bool)

// Get returns the first value for key.
func (f GetterFunc) Get(key string) string {
	if values, has := f(key); has && len(values) > 0 {
		return values[0]
	}

	return ""
}

// GetAll returns all values for key.
func (f GetterFunc) GetAll(key string) []string {
	values, _ := f(key)
	return values
}

// Has reports whether key is present.
func (f GetterFunc) Has(key string) bool {
	_, has := f(key)
	return has
}

// Values is a [ValueGetter] over url.Values, used for query strings and
// form bodies. Both "ids=1&ids=2" and "ids[]=1&ids[]=2" are accepted.
type Values url.Values

// Get returns the first value for key.
func (v Values) Get(key string) string {
	if all := v.GetAll(key); len(all) > 0 {
		return all[0]
	}

	return ""
}

// GetAll returns all values for key.
func (v Values) GetAll(key string) []string {
	if vals := v[key]; len(vals) > 0 {
		return vals
	}

	return v[key+"[]"]
}

// Has reports whether key is present.
func (v Values) Has(key string) bool {
	_, ok := v[key]
	if !ok {
		_, ok = v[key+"[]"]
	}

	return ok
}

// Params is a [ValueGetter] over path parameters.
type Params map[string]string

// Get returns the value for key.
func (p Params) Get(key string) string { return p[key] }

// GetAll returns the value for key as a one-element slice.
func (p Params) GetAll(key string) []string {
	if v, ok := p[key]; ok {
		return []string{v}
	}

	return nil
}

// Has reports whether key is present.
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Header is a [ValueGetter] over HTTP headers. Keys are case-insensitive.
type Header http.Header

// Get returns the first value for key.
func (h Header) Get(key string) string { return http.Header(h).Get(key) }

// GetAll returns all values for key.
func (h Header) GetAll(key string) []string { return http.Header(h).Values(key) }

// Has reports whether key is present.
func (h Header) Has(key string) bool {
	_, ok := h[http.CanonicalHeaderKey(key)]
	return ok
}

// Cookies is a [ValueGetter] over request cookies. Names are case-sensitive
// and values are URL-unescaped when possible.
type Cookies []*http.Cookie

// Get returns the first value for key.
func (c Cookies) Get(key string) string {
	if all := c.GetAll(key); len(all) > 0 {
		return all[0]
	}

	return ""
}

// GetAll returns all values for key.
func (c Cookies) GetAll(key string) []string {
	var values []string
	for _, cookie := range c {
		if cookie.Name != key {
			continue
		}
		if v, err := url.QueryUnescape(cookie.Value); err == nil {
			values = append(values, v)
		} else {
			values = append(values, cookie.Value)
		}
	}

	return values
}

// Has reports whether key is present.
func (c Cookies) Has(key string) bool {
	for _, cookie := range c {
		if cookie.Name == key {
			return true
		}
	}

	return false
}

func isFormContent(mediaType string) bool {
	return mediaType == "application/x-www-form-urlencoded" || strings.HasPrefix(mediaType, "multipart/")
}
