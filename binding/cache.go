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
	"encoding"
	"maps"
	"mime/multipart"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

var (
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
	timeType            = reflect.TypeFor[time.Time]()
	durationType        = reflect.TypeFor[time.Duration]()
	fileHeaderType      = reflect.TypeFor[*multipart.FileHeader]()
	fileHeadersType     = reflect.TypeFor[[]*multipart.FileHeader]()
)

// Field describes one tagged struct field.
type Field struct {
	Index        []int        // index path, including embedded structs
	GoName       string       // Go field name
	Name         string       // parameter name as sent by the client
	Source       Source       // value source
	Type         reflect.Type // field type
	Default      string       // raw `default` tag value
	HasDefault   bool
	Required     bool // `validate` tag contains "required"
	Description  string
}

// StructInfo is the parsed binding layout of a struct type.
type StructInfo struct {
	Type   reflect.Type
	Fields []Field // tagged parameter fields
	Body   []Field // untagged exported fields, decoded from the body
}

var (
	// Copy-on-write cache: readers load the map without locking.
	structCache   atomic.Pointer[map[reflect.Type]*StructInfo]
	structCacheMu sync.Mutex
)

func init() {
	m := make(map[reflect.Type]*StructInfo)
	structCache.Store(&m)
}

// Inspect returns the binding layout of t, which must be a struct or a
// pointer to one. Results are cached per type. It returns nil for other
// kinds.
func Inspect(t reflect.Type) *StructInfo {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}

	if si, ok := (*structCache.Load())[t]; ok {
		return si
	}

	structCacheMu.Lock()
	defer structCacheMu.Unlock()

	m := structCache.Load()
	if si, ok := (*m)[t]; ok {
		return si
	}

	si := &StructInfo{Type: t}
	parseStruct(si, t, nil)

	next := make(map[reflect.Type]*StructInfo, len(*m)+1)
	maps.Copy(next, *m)
	next[t] = si
	structCache.Store(&next)

	return si
}

func parseStruct(si *StructInfo, t reflect.Type, prefix []int) {
	for i := range t.NumField() {
		sf := t.Field(i)
		index := append(append([]int(nil), prefix...), i)

		if sf.Anonymous && sf.Type.Kind() == reflect.Struct && !hasSourceTag(sf) && sf.Tag.Get("json") == "" {
			parseStruct(si, sf.Type, index)
			continue
		}
		if !sf.IsExported() {
			continue
		}

		f := Field{
			Index:       index,
			GoName:      sf.Name,
			Type:        sf.Type,
			Description: sf.Tag.Get("doc"),
			Required:    hasRule(sf.Tag.Get("validate"), "required"),
		}
		f.Default, f.HasDefault = sf.Tag.Lookup(TagDefault)

		tagged := false
		for _, ts := range tagSources {
			value, ok := sf.Tag.Lookup(ts.tag)
			if !ok {
				continue
			}
			name, _, _ := strings.Cut(value, ",")
			if name == "-" {
				tagged = true
				break
			}
			if name == "" {
				name = sf.Name
			}
			f.Name = name
			f.Source = ts.source
			si.Fields = append(si.Fields, f)
			tagged = true

			break
		}
		if tagged {
			continue
		}

		name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		f.Name = name
		f.Source = SourceBody
		si.Body = append(si.Body, f)
	}
}

func hasSourceTag(sf reflect.StructField) bool {
	for _, ts := range tagSources {
		if _, ok := sf.Tag.Lookup(ts.tag); ok {
			return true
		}
	}

	return false
}

func hasRule(rules, rule string) bool {
	for r := range strings.SplitSeq(rules, ",") {
		if name, _, _ := strings.Cut(r, "="); name == rule {
			return true
		}
	}

	return false
}
