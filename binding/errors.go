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
	"net/http"
	"reflect"
	"strings"

	"github.com/restsvc/restsvc/codec"
)

// Static errors for binding operations.
var (
	ErrNotStructPointer     = errors.New("binding target must be a non-nil pointer")
	ErrUnsupportedType      = errors.New("unsupported type")
	ErrInvalidBooleanValue  = errors.New("invalid boolean value")
	ErrUnableToParseTime    = errors.New("unable to parse time")
	ErrSliceExceedsMaxLen   = errors.New("slice exceeds max length")
	ErrUnsupportedMediaType = codec.ErrUnsupportedMediaType
)

// Error reports a value that could not be bound to a field. It carries
// HTTP status 400.
//
// Use [errors.As] to inspect it:
//
//	var bindErr *binding.Error
//	if errors.As(err, &bindErr) {
//	    fmt.Println(bindErr.Field, bindErr.Source)
//	}
type Error struct {
	Field  string       // field name as sent by the client; empty for body errors
	Source Source       // where the value came from
	Value  string       // offending raw value
	Type   reflect.Type // target Go type
	Err    error        // underlying error
}

// Error returns a message naming the field, its source and the cause.
func (e *Error) Error() string {
	if e.Source == SourceBody {
		return fmt.Sprintf("decoding request body: %v", e.Err)
	}

	typeName := "unknown"
	if e.Type != nil {
		typeName = e.Type.String()
	}

	msg := fmt.Sprintf("%s parameter %q: cannot convert %q to %s: %v", e.Source, e.Field, e.Value, typeName, e.Err)
	if e.Type != nil && isIntKind(e.Type.Kind()) && strings.Contains(e.Value, ".") {
		msg += " (hint: use a float type for decimal values)"
	}

	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus returns 400.
func (e *Error) HTTPStatus() int { return http.StatusBadRequest }

// Code returns the error name used by error formatters.
func (e *Error) Code() string { return "BadRequestError" }

// Details returns one field error entry for error formatters.
func (e *Error) Details() any {
	detail := map[string]any{
		"source":  e.Source.String(),
		"code":    "binding." + e.Source.String(),
		"message": e.Err.Error(),
	}
	if e.Field != "" {
		detail["path"] = e.Field
	}

	return []map[string]any{detail}
}

// MediaTypeError reports a request body whose media type has no codec. It
// carries HTTP status 415.
type MediaTypeError struct {
	ContentType string
}

// Error returns the offending media type.
func (e *MediaTypeError) Error() string {
	return fmt.Sprintf("%v: %q", ErrUnsupportedMediaType, e.ContentType)
}

// Unwrap returns [ErrUnsupportedMediaType].
func (e *MediaTypeError) Unwrap() error { return ErrUnsupportedMediaType }

// HTTPStatus returns 415.
func (e *MediaTypeError) HTTPStatus() int { return http.StatusUnsupportedMediaType }

// Code returns the error name used by error formatters.
func (e *MediaTypeError) Code() string { return "UnsupportedMediaTypeError" }

func isIntKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}
