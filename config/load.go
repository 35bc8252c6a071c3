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

package config

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/go-viper/mapstructure/v2"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cast"
)

// Format is the encoding of a configuration document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// ErrUnknownFormat is returned for a file extension without a decoder.
var ErrUnknownFormat = errors.New("unknown configuration format")

// Option configures [Load].
type Option func(l *loader) error

type document struct {
	name   string
	path   string
	data   []byte
	format Format
}

type loader struct {
	docs      []document
	envSet    bool
	envPrefix string
	environ   map[string]string
}

// WithFile reads a file whose format is detected from its extension
// (.yaml, .yml, .toml, .json). Environment variables in path are expanded.
// Later files override earlier ones.
func WithFile(path string) Option {
	return func(l *loader) error {
		path = os.ExpandEnv(path)
		format, err := DetectFormat(path)
		if err != nil {
			return NewError("file", "detect-format", err)
		}
		l.docs = append(l.docs, document{name: path, path: path, format: format})

		return nil
	}
}

// WithOptionalFile is like [WithFile] but a missing file is ignored.
func WithOptionalFile(path string) Option {
	return func(l *loader) error {
		path = os.ExpandEnv(path)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil
		}

		return WithFile(path)(l)
	}
}

// WithContent adds an in-memory document.
func WithContent(data []byte, format Format) Option {
	return func(l *loader) error {
		l.docs = append(l.docs, document{name: "content", data: data, format: format})
		return nil
	}
}

// WithEnv applies environment variables starting with prefix, e.g.
// "RESTSVC_".
func WithEnv(prefix string) Option {
	return func(l *loader) error {
		l.envSet = true
		l.envPrefix = prefix
		return nil
	}
}

// WithEnvironment replaces the process environment read by [WithEnv].
func WithEnvironment(environ map[string]string) Option {
	return func(l *loader) error {
		l.environ = environ
		return nil
	}
}

// DetectFormat returns the format matching the extension of path.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, path)
	}
}

// Load builds a validated Config from [Default], the documents and the
// environment, in that order of precedence.
func Load(ctx context.Context, opts ...Option) (*Config, error) {
	l := &loader{}
	var errs []error
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(l); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	values := make(map[string]any)
	for i, doc := range l.docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		source := fmt.Sprintf("file[%d]", i)

		m, err := doc.load()
		if err != nil {
			return nil, NewFieldError(source, doc.name, "load", err)
		}
		if err := mergo.Map(&values, normalizeKeys(m), mergo.WithOverride); err != nil {
			return nil, NewError(source, "merge", err)
		}
	}

	cfg := Default()
	if err := decode(values, &cfg); err != nil {
		return nil, NewError("files", "decode", err)
	}

	if l.envSet {
		envOpts := env.Options{Prefix: l.envPrefix}
		if l.environ != nil {
			envOpts.Environment = l.environ
		}
		if err := env.ParseWithOptions(&cfg, envOpts); err != nil {
			return nil, NewError("env", "parse", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad is like [Load] but panics on error.
func MustLoad(ctx context.Context, opts ...Option) *Config {
	cfg, err := Load(ctx, opts...)
	if err != nil {
		panic(fmt.Sprintf("config: failed to load: %v", err))
	}

	return cfg
}

func (d document) load() (map[string]any, error) {
	data := d.data
	if d.path != "" {
		var err error
		if data, err = os.ReadFile(d.path); err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
	}

	m := make(map[string]any)
	if len(bytes.TrimSpace(data)) == 0 {
		return m, nil
	}

	var err error
	switch d.format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &m)
	case FormatTOML:
		err = toml.Unmarshal(data, &m)
	case FormatJSON:
		err = json.Unmarshal(data, &m)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownFormat, d.format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", d.format, err)
	}

	return m, nil
}

// normalizeKeys lower-cases keys recursively so documents merge
// case-insensitively.
func normalizeKeys(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		key := strings.ToLower(k)
		switch v.(type) {
		case map[string]any, map[any]any:
			if nested, err := cast.ToStringMapE(v); err == nil {
				out[key] = normalizeKeys(nested)
				continue
			}
		}
		out[key] = v
	}

	return out
}

func decode(values map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "config",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           cfg,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}

	return dec.Decode(values)
}
