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
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// setField converts value into field. Pointer fields are allocated; an empty
// value leaves them nil.
func (b *Binder) setField(field reflect.Value, value string) error {
	if field.Kind() == reflect.Pointer {
		if _, custom := b.converters[field.Type()]; !custom {
			if value == "" {
				return nil
			}
			ptr := reflect.New(field.Type().Elem())
			if err := b.setFieldValue(ptr.Elem(), value); err != nil {
				return err
			}
			field.Set(ptr)

			return nil
		}
	}

	return b.setFieldValue(field, value)
}

// setFieldValue applies custom converters first, then the built-in special
// types, then encoding.TextUnmarshaler, then primitive kinds.
func (b *Binder) setFieldValue(field reflect.Value, value string) error {
	fieldType := field.Type()

	if conv, ok := b.converters[fieldType]; ok {
		converted, err := conv(value)
		if err != nil {
			return err
		}
		rv := reflect.ValueOf(converted)
		if !rv.IsValid() || !rv.Type().AssignableTo(fieldType) {
			return fmt.Errorf("%w: converter returned %T for %s", ErrUnsupportedType, converted, fieldType)
		}
		field.Set(rv)

		return nil
	}

	switch fieldType {
	case timeType:
		t, err := b.parseTime(value)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(t))

		return nil

	case durationType:
		d, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		field.SetInt(int64(d))

		return nil
	}

	if field.CanAddr() && field.Addr().Type().Implements(textUnmarshalerType) {
		u, _ := field.Addr().Interface().(encoding.TextUnmarshaler)
		return u.UnmarshalText([]byte(value))
	}

	switch fieldType.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(strings.TrimSpace(value), 10, fieldType.Bits())
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(i)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(strings.TrimSpace(value), 10, fieldType.Bits())
		if err != nil {
			return fmt.Errorf("invalid unsigned integer: %w", err)
		}
		field.SetUint(u)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), fieldType.Bits())
		if err != nil {
			return fmt.Errorf("invalid float: %w", err)
		}
		field.SetFloat(f)

	case reflect.Bool:
		v, err := parseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(v)

	case reflect.Interface:
		if fieldType.NumMethod() != 0 {
			return fmt.Errorf("%w: %s", ErrUnsupportedType, fieldType)
		}
		field.Set(reflect.ValueOf(value))

	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, fieldType)
	}

	return nil
}

// setSliceField fills a slice from repeated values. A single value is split
// on commas, so "?ids=1,2,3" and "?ids=1&ids=2&ids=3" bind alike.
func (b *Binder) setSliceField(field reflect.Value, values []string) error {
	if len(values) == 0 {
		return nil
	}
	if len(values) == 1 && strings.Contains(values[0], ",") {
		values = strings.Split(values[0], ",")
		for i := range values {
			values[i] = strings.TrimSpace(values[i])
		}
	}
	if b.maxSliceLen > 0 && len(values) > b.maxSliceLen {
		return fmt.Errorf("%w: %d > %d", ErrSliceExceedsMaxLen, len(values), b.maxSliceLen)
	}

	slice := reflect.MakeSlice(field.Type(), len(values), len(values))
	for i, v := range values {
		if err := b.setField(slice.Index(i), v); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	field.Set(slice)

	return nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on", "t", "y":
		return true, nil
	case "false", "0", "no", "off", "f", "n", "":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrInvalidBooleanValue, s)
	}
}

var defaultTimeLayouts = []string{
	time.RFC3339Nano,
	time.DateOnly,
	time.DateTime,
	"2006-01-02T15:04:05",
	time.RFC1123,
	time.RFC1123Z,
}

func (b *Binder) parseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range b.timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	for _, layout := range defaultTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrUnableToParseTime, value)
}
