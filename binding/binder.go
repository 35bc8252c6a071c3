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
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"reflect"

	"github.com/restsvc/restsvc/codec"
)

// DefaultMaxMemory is the multipart memory limit used when none is set.
const DefaultMaxMemory int64 = 32 << 20

// Converter converts a raw string into a value of a registered type.
type Converter func(string) (any, error)

// Option configures a [Binder].
type Option func(*Binder)

// WithCodecs sets the registry used to decode request bodies.
func WithCodecs(reg *codec.Registry) Option {
	return func(b *Binder) {
		if reg != nil {
			b.codecs = reg
		}
	}
}

// WithConverter registers a converter for values of type t.
func WithConverter(t reflect.Type, conv Converter) Option {
	return func(b *Binder) {
		b.converters[t] = conv
	}
}

// WithTypedConverter registers a converter for T.
//
// Example:
//
//	binding.WithTypedConverter(uuid.Parse)
func WithTypedConverter[T any](fn func(string) (T, error)) Option {
	return WithConverter(reflect.TypeFor[T](), func(s string) (any, error) {
		return fn(s)
	})
}

// WithTimeLayouts adds time layouts tried before the built-in ones.
func WithTimeLayouts(layouts ...string) Option {
	return func(b *Binder) {
		b.timeLayouts = append(b.timeLayouts, layouts...)
	}
}

// WithMaxMemory sets the multipart memory limit.
func WithMaxMemory(n int64) Option {
	return func(b *Binder) {
		if n > 0 {
			b.maxMemory = n
		}
	}
}

// WithMaxSliceLen caps the number of elements bound into one slice field.
// Zero disables the limit.
func WithMaxSliceLen(n int) Option {
	return func(b *Binder) {
		b.maxSliceLen = n
	}
}

// Binder binds requests into structs. It is safe for concurrent use once
// constructed.
type Binder struct {
	codecs      *codec.Registry
	converters  map[reflect.Type]Converter
	timeLayouts []string
	maxMemory   int64
	maxSliceLen int
}

// New returns a binder configured by opts.
func New(opts ...Option) *Binder {
	b := &Binder{
		codecs:      codec.Default(),
		converters:  make(map[reflect.Type]Converter),
		maxMemory:   DefaultMaxMemory,
		maxSliceLen: 1000,
	}
	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Request binds r into dst using params as path parameters.
//
// dst must be a non-nil pointer. For a struct, the body is decoded first
// and tagged fields are applied afterwards; for any other type only the body
// is decoded.
func (b *Binder) Request(r *http.Request, params map[string]string, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("%w, got %T", ErrNotStructPointer, dst)
	}

	mediaType := requestMediaType(r)
	var form Values
	if HasBody(r) {
		if isFormContent(mediaType) {
			f, err := b.parseForm(r, mediaType)
			if err != nil {
				return err
			}
			form = f
		} else if err := b.decodeBody(r, mediaType, dst); err != nil {
			return err
		}
	}

	si := Inspect(rv.Type())
	if si == nil {
		return nil
	}

	elem := rv.Elem()
	for _, f := range si.Fields {
		var err error
		switch f.Source {
		case SourcePath:
			err = b.bindField(elem, f, Params(params))
		case SourceQuery:
			err = b.bindField(elem, f, Values(r.URL.Query()))
		case SourceHeader:
			err = b.bindField(elem, f, Header(r.Header))
		case SourceCookie:
			err = b.bindField(elem, f, Cookies(r.Cookies()))
		case SourceForm:
			err = b.bindField(elem, f, form)
		case SourceFile:
			err = bindFile(elem, f, r)
		}
		if err != nil {
			return err
		}
	}

	return nil
}

// Bind fills dst from a single source. Only fields tagged for that source
// are considered.
func (b *Binder) Bind(getter ValueGetter, source Source, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("%w, got %T", ErrNotStructPointer, dst)
	}
	si := Inspect(rv.Type())
	if si == nil {
		return fmt.Errorf("%w, got %T", ErrNotStructPointer, dst)
	}

	for _, f := range si.Fields {
		if f.Source != source {
			continue
		}
		if err := b.bindField(rv.Elem(), f, getter); err != nil {
			return err
		}
	}

	return nil
}

func (b *Binder) bindField(elem reflect.Value, f Field, getter ValueGetter) error {
	field := elem.FieldByIndex(f.Index)

	if getter == nil || !getter.Has(f.Name) {
		if !f.HasDefault || !field.IsZero() {
			return nil
		}

		return b.assign(field, f, []string{f.Default})
	}

	return b.assign(field, f, getter.GetAll(f.Name))
}

func (b *Binder) assign(field reflect.Value, f Field, values []string) error {
	var err error
	_, custom := b.converters[f.Type]
	if f.Type.Kind() == reflect.Slice && !custom {
		err = b.setSliceField(field, values)
	} else {
		value := ""
		if len(values) > 0 {
			value = values[0]
		}
		err = b.setField(field, value)
	}
	if err != nil {
		return &Error{
			Field:  f.Name,
			Source: f.Source,
			Value:  firstOrJoined(values),
			Type:   f.Type,
			Err:    err,
		}
	}

	return nil
}

func (b *Binder) decodeBody(r *http.Request, mediaType string, dst any) error {
	if mediaType == "" {
		mediaType = "application/json"
	}
	c, ok := b.codecs.Lookup(mediaType)
	if !ok {
		return &MediaTypeError{ContentType: mediaType}
	}

	if err := c.Decode(r.Body, dst); err != nil && !errors.Is(err, io.EOF) {
		return &Error{Source: SourceBody, Type: reflect.TypeOf(dst), Err: err}
	}

	return nil
}

func (b *Binder) parseForm(r *http.Request, mediaType string) (Values, error) {
	var err error
	if mediaType == "multipart/form-data" {
		err = r.ParseMultipartForm(b.maxMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return nil, &Error{Source: SourceForm, Err: err}
	}

	return Values(r.PostForm), nil
}

func bindFile(elem reflect.Value, f Field, r *http.Request) error {
	if r.MultipartForm == nil {
		return nil
	}
	headers := r.MultipartForm.File[f.Name]
	if len(headers) == 0 {
		return nil
	}

	field := elem.FieldByIndex(f.Index)
	switch f.Type {
	case fileHeaderType:
		field.Set(reflect.ValueOf(headers[0]))
	case fileHeadersType:
		field.Set(reflect.ValueOf(headers))
	default:
		return &Error{
			Field:  f.Name,
			Source: SourceFile,
			Type:   f.Type,
			Err:    fmt.Errorf("%w: file fields must be *multipart.FileHeader or []*multipart.FileHeader", ErrUnsupportedType),
		}
	}

	return nil
}

// HasBody reports whether r carries a request body.
func HasBody(r *http.Request) bool {
	return r.Body != nil && r.Body != http.NoBody && r.ContentLength != 0
}

func requestMediaType(r *http.Request) string {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return ct
	}

	return mt
}

func firstOrJoined(values []string) string {
	switch len(values) {
	case 0:
		return ""
	case 1:
		return values[0]
	default:
		return fmt.Sprint(values)
	}
}
