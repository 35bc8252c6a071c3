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

package validation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// nameTags are consulted in order for the client-facing field name.
var nameTags = []string{"path", "query", "header", "cookie", "form", "file", "json"}

var reSlug = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Option configures a [Validator].
type Option func(*Validator)

// WithRule registers a custom tag rule.
//
// Example:
//
//	validation.WithRule("even", func(fl validator.FieldLevel) bool {
//	    return fl.Field().Int()%2 == 0
//	})
func WithRule(tag string, fn validator.Func) Option {
	return func(v *Validator) {
		v.rules = append(v.rules, rule{tag: tag, fn: fn})
	}
}

// WithMaxErrors caps the number of field errors reported. Zero means no
// limit.
func WithMaxErrors(n int) Option {
	return func(v *Validator) {
		v.maxErrors = n
	}
}

type rule struct {
	tag string
	fn  validator.Func
}

// Validator validates structs. It is safe for concurrent use.
type Validator struct {
	tags      *validator.Validate
	rules     []rule
	maxErrors int
	sources   sync.Map // reflect.Type -> map[string]string (go field -> source)
}

// New returns a validator with the built-in rules ("slug") and any rules
// given through options.
func New(opts ...Option) (*Validator, error) {
	v := &Validator{tags: validator.New(validator.WithRequiredStructEnabled())}
	for _, opt := range opts {
		opt(v)
	}

	v.tags.RegisterTagNameFunc(fieldName)

	builtin := []rule{{tag: "slug", fn: func(fl validator.FieldLevel) bool {
		return reSlug.MatchString(fl.Field().String())
	}}}
	for _, r := range append(builtin, v.rules...) {
		if err := v.tags.RegisterValidation(r.tag, r.fn); err != nil {
			return nil, fmt.Errorf("register rule %q: %w", r.tag, err)
		}
	}

	return v, nil
}

// MustNew is like [New] but panics on error.
func MustNew(opts ...Option) *Validator {
	v, err := New(opts...)
	if err != nil {
		panic(err)
	}

	return v
}

var defaultValidator = sync.OnceValue(func() *Validator { return MustNew() })

// Validate validates val with the package default validator.
func Validate(ctx context.Context, val any) error {
	return defaultValidator().Validate(ctx, val)
}

// Validate checks val. Nil values and non-struct values without
// self-validation pass. Tag rules run first; self-validation runs only when
// they pass.
func (v *Validator) Validate(ctx context.Context, val any) error {
	if val == nil {
		return nil
	}
	rv := reflect.ValueOf(val)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	if rv.Kind() == reflect.Struct {
		if err := v.tags.StructCtx(ctx, val); err != nil {
			var invalid *validator.InvalidValidationError
			if errors.As(err, &invalid) {
				return fmt.Errorf("validate %T: %w", val, err)
			}
			var tagErrs validator.ValidationErrors
			if errors.As(err, &tagErrs) {
				return v.formatTagErrors(tagErrs, rv.Type())
			}

			return err
		}
	}

	return selfValidate(ctx, val)
}

func selfValidate(ctx context.Context, val any) error {
	var err error
	switch t := val.(type) {
	case ContextValidatable:
		err = t.ValidateContext(ctx)
	case Validatable:
		err = t.Validate()
	default:
		return nil
	}
	if err == nil {
		return nil
	}

	var ve *Error
	if errors.As(err, &ve) {
		return ve
	}
	result := &Error{}
	result.Join(err)

	return result
}

func (v *Validator) formatTagErrors(errs validator.ValidationErrors, root reflect.Type) *Error {
	sources := v.sourcesOf(root)
	result := &Error{}

	for _, e := range errs {
		path := jsonPath(e.Namespace())
		top, _, _ := strings.Cut(stripRoot(e.StructNamespace()), ".")
		top, _, _ = strings.Cut(top, "[")

		result.Fields = append(result.Fields, FieldError{
			Path:    path,
			Source:  sources[top],
			Code:    "tag." + e.Tag(),
			Message: message(e),
			Meta: map[string]any{
				"tag":   e.Tag(),
				"param": e.Param(),
			},
		})

		if v.maxErrors > 0 && len(result.Fields) >= v.maxErrors {
			break
		}
	}
	result.Sort()

	return result
}

// sourcesOf maps top-level Go field names to their binding source.
func (v *Validator) sourcesOf(t reflect.Type) map[string]string {
	if cached, ok := v.sources.Load(t); ok {
		m, _ := cached.(map[string]string)
		return m
	}

	m := make(map[string]string)
	collectSources(t, m)
	v.sources.Store(t, m)

	return m
}

func collectSources(t reflect.Type, m map[string]string) {
	for i := range t.NumField() {
		sf := t.Field(i)
		if sf.Anonymous && sf.Type.Kind() == reflect.Struct {
			collectSources(sf.Type, m)
		}
		m[sf.Name] = "body"
		for _, tag := range nameTags[:len(nameTags)-1] {
			if _, ok := sf.Tag.Lookup(tag); ok {
				m[sf.Name] = tag
				break
			}
		}
	}
}

func fieldName(sf reflect.StructField) string {
	for _, tag := range nameTags {
		value, ok := sf.Tag.Lookup(tag)
		if !ok {
			continue
		}
		name, _, _ := strings.Cut(value, ",")
		if name == "-" {
			continue
		}
		if name != "" {
			return name
		}
	}

	return sf.Name
}

func stripRoot(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}

	return ns
}

// jsonPath turns "Order.items[2].price" into "items.2.price".
func jsonPath(ns string) string {
	ns = stripRoot(ns)
	ns = strings.ReplaceAll(ns, "]", "")

	return strings.ReplaceAll(ns, "[", ".")
}

func message(e validator.FieldError) string {
	isString := e.Kind() == reflect.String
	switch e.Tag() {
	case "required", "required_if", "required_unless", "required_with", "required_without":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url", "http_url":
		return "must be a valid URL"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "min", "gte":
		if isString {
			return fmt.Sprintf("must be at least %s characters", e.Param())
		}
		return "must be at least " + e.Param()
	case "max", "lte":
		if isString {
			return fmt.Sprintf("must be at most %s characters", e.Param())
		}
		return "must be at most " + e.Param()
	case "len":
		return "must have length " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "lt":
		return "must be less than " + e.Param()
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", e.Param())
	case "slug":
		return "must be lowercase letters, digits and single hyphens"
	default:
		return fmt.Sprintf("failed validation (%s)", e.Tag())
	}
}

