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
	"mime/multipart"
	"reflect"
	"strconv"
	"strings"
	"time"
)

const componentPrefix = "#/components/schemas/"

var (
	timeType     = reflect.TypeFor[time.Time]()
	durationType = reflect.TypeFor[time.Duration]()
	fileType     = reflect.TypeFor[multipart.FileHeader]()
)

// schemaGenerator converts Go types to schemas. Named structs become
// component schemas referenced by $ref; seen tracks the types being
// expanded to stop recursion.
type schemaGenerator struct {
	schemas map[string]*Schema
	seen    map[reflect.Type]bool
}

func newSchemaGenerator() *schemaGenerator {
	return &schemaGenerator{
		schemas: make(map[string]*Schema),
		seen:    make(map[reflect.Type]bool),
	}
}

func (sg *schemaGenerator) generate(t reflect.Type) *Schema {
	if t == nil {
		return &Schema{Type: "object"}
	}

	switch t {
	case timeType:
		return &Schema{Type: "string", Format: "date-time"}
	case durationType:
		return &Schema{Type: "string", Example: "1m30s"}
	case fileType:
		return &Schema{Type: "string", Format: "binary"}
	}

	if t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8 {
		return &Schema{Type: "string", Format: "byte"}
	}

	if t.Kind() == reflect.Pointer {
		s := sg.generate(t.Elem())
		if s.Ref == "" {
			s.Nullable = true
		}

		return s
	}

	if sg.seen[t] {
		if name := schemaName(t); name != "" {
			return &Schema{Ref: componentPrefix + name}
		}

		return &Schema{Type: "object"}
	}

	switch t.Kind() {
	case reflect.String:
		return &Schema{Type: "string"}
	case reflect.Bool:
		return &Schema{Type: "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return &Schema{Type: "integer", Format: "int32"}
	case reflect.Int64, reflect.Uint64:
		return &Schema{Type: "integer", Format: "int64"}
	case reflect.Float32:
		return &Schema{Type: "number", Format: "float"}
	case reflect.Float64:
		return &Schema{Type: "number", Format: "double"}
	case reflect.Slice, reflect.Array:
		return &Schema{Type: "array", Items: sg.generate(t.Elem())}
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return &Schema{Type: "object"}
		}

		return &Schema{Type: "object", AdditionalProperties: sg.generate(t.Elem())}
	case reflect.Struct:
		return sg.structSchema(t)
	default:
		return &Schema{Type: "object"}
	}
}

func (sg *schemaGenerator) structSchema(t reflect.Type) *Schema {
	name := schemaName(t)
	if name != "" {
		if _, ok := sg.schemas[name]; ok {
			return &Schema{Ref: componentPrefix + name}
		}
	}

	sg.seen[t] = true
	defer delete(sg.seen, t)

	s := sg.object(t, func(reflect.StructField) bool { return true })
	if name != "" {
		sg.schemas[name] = s
		return &Schema{Ref: componentPrefix + name}
	}

	return s
}

// object builds an inline object schema from the fields accepted by
// include.
func (sg *schemaGenerator) object(t reflect.Type, include func(reflect.StructField) bool) *Schema {
	s := &Schema{Type: "object", Properties: map[string]*Schema{}}

	walkFields(t, func(f reflect.StructField) {
		if !f.IsExported() || !include(f) {
			return
		}
		jsonTag := f.Tag.Get("json")
		if jsonTag == "-" {
			return
		}
		name := parseJSONName(jsonTag, f.Name)

		fs := sg.generate(f.Type)
		if fs.Ref == "" {
			if doc := f.Tag.Get("doc"); doc != "" {
				fs.Description = doc
			}
			if ex := f.Tag.Get("example"); ex != "" {
				fs.Example = ex
			}
			applyValidationConstraints(fs, f)
		}
		s.Properties[name] = fs

		if isFieldRequired(f) && !strings.Contains(jsonTag, "omitempty") {
			s.Required = append(s.Required, name)
		}
	})

	return s
}

// walkFields visits the fields of t, descending into embedded structs.
func walkFields(t reflect.Type, fn func(reflect.StructField)) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	for i := range t.NumField() {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct && f.Tag.Get("json") == "" {
			walkFields(f.Type, fn)
			continue
		}
		fn(f)
	}
}

// schemaName returns "pkg.Type" for named types, "" for anonymous ones.
func schemaName(t reflect.Type) string {
	if t.Name() == "" {
		return ""
	}
	name := t.Name()
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}

	pkgPath := t.PkgPath()
	if pkgPath == "" {
		return name
	}
	pkg := pkgPath[strings.LastIndexByte(pkgPath, '/')+1:]
	if pkg == "" || pkg == name {
		return name
	}

	return pkg + "." + name
}

func parseJSONName(tag, fallback string) string {
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return fallback
	}

	return name
}

func isFieldRequired(f reflect.StructField) bool {
	if f.Type.Kind() == reflect.Pointer {
		return false
	}

	return hasRule(f.Tag.Get("validate"), "required")
}

func hasRule(rules, rule string) bool {
	for r := range strings.SplitSeq(rules, ",") {
		if name, _, _ := strings.Cut(strings.TrimSpace(r), "="); name == rule {
			return true
		}
	}

	return false
}

// applyValidationConstraints maps go-playground rules onto the schema.
func applyValidationConstraints(s *Schema, f reflect.StructField) {
	rules := f.Tag.Get("validate")
	if rules == "" {
		return
	}

	for part := range strings.SplitSeq(rules, ",") {
		name, arg, _ := strings.Cut(strings.TrimSpace(part), "=")
		switch name {
		case "email":
			s.Format = "email"
		case "url", "uri":
			s.Format = "uri"
		case "uuid", "uuid4", "uuid7":
			s.Format = "uuid"
		case "alphanum":
			s.Pattern = "^[a-zA-Z0-9]+$"
		case "slug":
			s.Pattern = "^[a-z0-9]+(?:-[a-z0-9]+)*$"
		case "oneof":
			for v := range strings.FieldsSeq(arg) {
				s.Enum = append(s.Enum, v)
			}
		case "min", "gte":
			applyBound(s, arg, true)
		case "max", "lte":
			applyBound(s, arg, false)
		case "len":
			applyBound(s, arg, true)
			applyBound(s, arg, false)
		}
	}
}

func applyBound(s *Schema, arg string, lower bool) {
	switch s.Type {
	case "string":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return
		}
		if lower {
			s.MinLength = &n
		} else {
			s.MaxLength = &n
		}
	case "array":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return
		}
		if lower {
			s.MinItems = &n
		} else {
			s.MaxItems = &n
		}
	case "integer", "number":
		x, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return
		}
		if lower {
			s.Minimum = &x
		} else {
			s.Maximum = &x
		}
	}
}
