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

// Package codec provides the body encoders and decoders restsvc uses for
// request binding and response rendering.
//
// A [Registry] maps media types to codecs. [Default] returns a registry with
// JSON, XML, YAML, TOML, MessagePack and Protocol Buffers support:
//
//	reg := codec.Default()
//	c, ok := reg.Lookup("application/vnd.api+json") // JSON codec
//
// Structured syntax suffixes ("+json", "+xml", "+yaml") resolve to the codec
// of the base format.
package codec

import (
	"errors"
	"io"
	"slices"
	"strings"
	"sync"
)

// ErrUnsupportedMediaType is returned when no codec handles a media type.
var ErrUnsupportedMediaType = errors.New("unsupported media type")

// Codec encodes and decodes values in one wire format.
type Codec interface {
	// ContentType returns the canonical media type, e.g. "application/json".
	ContentType() string

	// Encode writes v to w.
	Encode(w io.Writer, v any) error

	// Decode reads r into the value pointed to by v.
	Decode(r io.Reader, v any) error
}

// Registry maps media types to codecs. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byType map[string]Codec
	order  []string
}

// NewRegistry returns a registry holding the given codecs.
func NewRegistry(codecs ...Codec) *Registry {
	r := &Registry{byType: make(map[string]Codec)}
	for _, c := range codecs {
		r.Register(c)
	}

	return r
}

// Default returns a registry with every built-in codec. JSON is registered
// first and therefore is the preferred response format.
func Default() *Registry {
	r := NewRegistry()
	r.Register(JSON{}, "text/json")
	r.Register(XML{}, "text/xml")
	r.Register(YAML{}, "application/x-yaml", "text/yaml")
	r.Register(TOML{})
	r.Register(MsgPack{}, "application/x-msgpack", "application/vnd.msgpack")
	r.Register(Proto{}, "application/protobuf")

	return r
}

// Register adds c under its content type and the given aliases. A later
// registration for the same media type replaces the earlier one.
func (r *Registry) Register(c Codec, aliases ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	primary := normalize(c.ContentType())
	if _, exists := r.byType[primary]; !exists {
		r.order = append(r.order, primary)
	}
	r.byType[primary] = c
	for _, a := range aliases {
		r.byType[normalize(a)] = c
	}
}

// Lookup returns the codec for a Content-Type or Accept value. Parameters
// are ignored.
func (r *Registry) Lookup(contentType string) (Codec, bool) {
	mt := normalize(contentType)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if c, ok := r.byType[mt]; ok {
		return c, true
	}

	// Structured syntax suffix, e.g. application/problem+json.
	if i := strings.LastIndexByte(mt, '+'); i >= 0 {
		if c, ok := r.byType["application/"+mt[i+1:]]; ok {
			return c, true
		}
	}

	return nil, false
}

// MediaTypes returns the primary media types in registration order.
func (r *Registry) MediaTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.order)
}

func normalize(mediaType string) string {
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}

	return strings.ToLower(strings.TrimSpace(mediaType))
}
