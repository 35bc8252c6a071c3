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

package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/restsvc/restsvc/internal/semconv"
)

// HandlerType selects the slog handler.
type HandlerType string

const (
	// JSONHandler writes one JSON object per line.
	JSONHandler HandlerType = "json"
	// TextHandler writes key=value pairs.
	TextHandler HandlerType = "text"
)

// Level is an alias of [slog.Level].
type Level = slog.Level

// Levels.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Redacted replaces the value of sensitive attributes.
const Redacted = "***REDACTED***"

var (
	// ErrInvalidHandler is returned for an unknown handler type.
	ErrInvalidHandler = errors.New("invalid handler type")
	// ErrInvalidLevel is returned by [ParseLevel] for an unknown level name.
	ErrInvalidLevel = errors.New("invalid log level")
)

var sensitiveKeys = map[string]bool{
	"password":      true,
	"token":         true,
	"secret":        true,
	"api_key":       true,
	"authorization": true,
}

// Logger owns a configured [slog.Logger]. Its level can be changed at
// runtime with [Logger.SetLevel].
type Logger struct {
	handlerType    HandlerType
	output         io.Writer
	level          slog.LevelVar
	serviceName    string
	serviceVersion string
	environment    string
	addSource      bool
	replaceAttr    func(groups []string, a slog.Attr) slog.Attr
	registerGlobal bool

	slogger *slog.Logger
}

// Option configures a [Logger].
type Option func(*Logger)

// WithHandlerType sets the handler type.
func WithHandlerType(t HandlerType) Option {
	return func(l *Logger) { l.handlerType = t }
}

// WithJSONHandler uses JSON output (default).
func WithJSONHandler() Option { return WithHandlerType(JSONHandler) }

// WithTextHandler uses key=value output.
func WithTextHandler() Option { return WithHandlerType(TextHandler) }

// WithOutput sets the destination writer. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(l *Logger) { l.output = w }
}

// WithLevel sets the minimum level.
func WithLevel(level Level) Option {
	return func(l *Logger) { l.level.Set(level) }
}

// WithServiceName adds a "service" attribute to every entry.
func WithServiceName(name string) Option {
	return func(l *Logger) { l.serviceName = name }
}

// WithServiceVersion adds a "version" attribute to every entry.
func WithServiceVersion(version string) Option {
	return func(l *Logger) { l.serviceVersion = version }
}

// WithEnvironment adds an "env" attribute to every entry.
func WithEnvironment(env string) Option {
	return func(l *Logger) { l.environment = env }
}

// WithSource records the caller location.
func WithSource(enabled bool) Option {
	return func(l *Logger) { l.addSource = enabled }
}

// WithReplaceAttr installs an attribute rewriter. It runs after redaction.
func WithReplaceAttr(fn func(groups []string, a slog.Attr) slog.Attr) Option {
	return func(l *Logger) { l.replaceAttr = fn }
}

// WithGlobalLogger registers the logger with [slog.SetDefault].
func WithGlobalLogger() Option {
	return func(l *Logger) { l.registerGlobal = true }
}

// New builds a logger. Without options it writes JSON at info level to
// standard output.
func New(opts ...Option) (*Logger, error) {
	l := &Logger{handlerType: JSONHandler, output: os.Stdout}
	for _, opt := range opts {
		opt(l)
	}
	if l.output == nil {
		return nil, errors.New("output writer cannot be nil")
	}

	handlerOpts := &slog.HandlerOptions{
		Level:       &l.level,
		AddSource:   l.addSource,
		ReplaceAttr: l.redact,
	}

	var handler slog.Handler
	switch l.handlerType {
	case JSONHandler:
		handler = slog.NewJSONHandler(l.output, handlerOpts)
	case TextHandler:
		handler = slog.NewTextHandler(l.output, handlerOpts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidHandler, l.handlerType)
	}

	sl := slog.New(handler)
	var attrs []any
	if l.serviceName != "" {
		attrs = append(attrs, semconv.ServiceName, l.serviceName)
	}
	if l.serviceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersion, l.serviceVersion)
	}
	if l.environment != "" {
		attrs = append(attrs, semconv.Environment, l.environment)
	}
	if len(attrs) > 0 {
		sl = sl.With(attrs...)
	}
	l.slogger = sl

	if l.registerGlobal {
		slog.SetDefault(sl)
	}

	return l, nil
}

// MustNew is like [New] but panics on error.
func MustNew(opts ...Option) *Logger {
	l, err := New(opts...)
	if err != nil {
		panic("logging initialization failed: " + err.Error())
	}

	return l
}

func (l *Logger) redact(groups []string, a slog.Attr) slog.Attr {
	if sensitiveKeys[strings.ToLower(a.Key)] {
		a = slog.String(a.Key, Redacted)
	}
	if l.replaceAttr != nil {
		return l.replaceAttr(groups, a)
	}

	return a
}

// Logger returns the configured [slog.Logger].
func (l *Logger) Logger() *slog.Logger { return l.slogger }

// SetLevel changes the minimum level of this logger and every logger
// derived from it.
func (l *Logger) SetLevel(level Level) { l.level.Set(level) }

// Level returns the current minimum level.
func (l *Logger) Level() Level { return l.level.Level() }

// ParseLevel parses "debug", "info", "warn"/"warning" or "error".
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
}

// Discard returns a logger that drops every entry.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
